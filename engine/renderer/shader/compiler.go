package shader

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"

	"github.com/Carmen-Shannon/prism/engine/errs"
)

// Compiler turns preprocessed WGSL source into SPIR-V. Implementations need not be
// reentrant; the ShaderCache serializes every call.
type Compiler interface {
	// Compile compiles source for the given stage.
	//
	// Parameters:
	//   - name: the logical shader name, for diagnostics
	//   - shaderType: the target stage
	//   - source: the preprocessed WGSL source
	//
	// Returns:
	//   - []uint32: the SPIR-V words
	//   - error: the compiler diagnostic on failure
	Compile(name string, shaderType ShaderType, source string) ([]uint32, error)
}

// nagaCompiler compiles WGSL to SPIR-V with the naga shader translator.
type nagaCompiler struct{}

// NewNagaCompiler returns the default Compiler backed by naga.
//
// Returns:
//   - Compiler: the naga compiler
func NewNagaCompiler() Compiler {
	return nagaCompiler{}
}

func (nagaCompiler) Compile(name string, _ ShaderType, source string) ([]uint32, error) {
	spv, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errs.ErrCompilation, name, err)
	}
	if len(spv)%4 != 0 {
		return nil, fmt.Errorf("%w: %s: SPIR-V output of %d bytes is not word aligned", errs.ErrCompilation, name, len(spv))
	}
	words := make([]uint32, len(spv)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spv[i*4:])
	}
	return words, nil
}

package shader

import (
	"fmt"
	"path"
	"strings"

	"github.com/Carmen-Shannon/prism/engine/errs"
	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
)

// ShaderType identifies the pipeline stage a shader file targets.
type ShaderType int

const (
	// ShaderTypeCompute indicates a shader containing a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return "compute"
	}
}

// Stage returns the gpu.ShaderStage bit for the shader type.
func (t ShaderType) Stage() gpu.ShaderStage {
	switch t {
	case ShaderTypeVertex:
		return gpu.ShaderStageVertex
	case ShaderTypeFragment:
		return gpu.ShaderStageFragment
	default:
		return gpu.ShaderStageCompute
	}
}

// TypeFromName determines the shader type from a logical shader name's extension:
// .vert, .frag or .comp, optionally followed by .wgsl.
//
// Parameters:
//   - name: the logical shader name, e.g. "basic.vert"
//
// Returns:
//   - ShaderType: the stage implied by the extension
//   - error: ErrUnsupportedFormat if the extension is not recognized
func TypeFromName(name string) (ShaderType, error) {
	ext := path.Ext(strings.TrimSuffix(name, ".wgsl"))
	switch ext {
	case ".vert":
		return ShaderTypeVertex, nil
	case ".frag":
		return ShaderTypeFragment, nil
	case ".comp":
		return ShaderTypeCompute, nil
	default:
		return 0, fmt.Errorf("%w: shader %q has unknown stage extension %q", errs.ErrUnsupportedFormat, name, ext)
	}
}

// shader is the implementation of the Shader interface.
// It holds the compiled module and the metadata pipelines need to reference it.
type shader struct {
	key        string
	source     string
	shaderType ShaderType
	entryPoint string
	spirv      []uint32
	module     gpu.ShaderModule
}

// Shader is a loaded, preprocessed and compiled shader held by the ShaderCache.
type Shader interface {
	// Key retrieves the logical name the shader was loaded under.
	//
	// Returns:
	//   - string: the shader's cache key
	Key() string

	// Source retrieves the preprocessed WGSL source, with all includes expanded.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// ShaderType retrieves the stage the shader was compiled for.
	//
	// Returns:
	//   - ShaderType: the shader type
	ShaderType() ShaderType

	// EntryPoint returns the entry point function name for this shader's stage.
	//
	// Returns:
	//   - string: the entry point name (e.g. "main")
	EntryPoint() string

	// SPIRV returns the compiled SPIR-V words.
	//
	// Returns:
	//   - []uint32: the binary shader
	SPIRV() []uint32

	// Module returns the GPU shader module.
	//
	// Returns:
	//   - gpu.ShaderModule: the module created on the device
	Module() gpu.ShaderModule

	// Stage returns the programmable stage descriptor used when building pipelines.
	//
	// Returns:
	//   - gpu.ProgrammableStage: module and entry point
	Stage() gpu.ProgrammableStage
}

var _ Shader = &shader{}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) SPIRV() []uint32 {
	return s.spirv
}

func (s *shader) Module() gpu.ShaderModule {
	return s.module
}

func (s *shader) Stage() gpu.ProgrammableStage {
	return gpu.ProgrammableStage{Module: s.module, EntryPoint: s.entryPoint}
}

package shader

import (
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/prism/engine/cache"
	"github.com/Carmen-Shannon/prism/engine/errs"
	"github.com/Carmen-Shannon/prism/engine/logger"
	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
)

// WarningPolicy selects how preprocessor warnings affect a load.
type WarningPolicy int

const (
	// WarningsLog logs warnings and continues.
	WarningsLog WarningPolicy = iota

	// WarningsAsErrors fails the load on any warning. Used in debug configurations.
	WarningsAsErrors

	// WarningsSuppress drops warnings silently. Used in release configurations.
	WarningsSuppress
)

// shaderCache is the implementation of the ShaderCache interface.
type shaderCache struct {
	device   gpu.Device
	fsys     fs.FS
	pp       PreProcessor
	maxDepth int
	policy   WarningPolicy

	// compilerMu serializes every compiler invocation process-wide, regardless of key.
	compilerMu *sync.Mutex
	compiler   Compiler

	entries cache.Cache[string, Shader]
}

// ShaderCache loads shaders by logical name, expanding includes and compiling them
// once. Subsequent loads of the same name return the cached Shader.
type ShaderCache interface {
	cache.AssetCache[string, Shader]

	// Loads returns how many times a shader was read and compiled.
	//
	// Returns:
	//   - uint64: the compile count
	Loads() uint64

	// Len returns the number of cached shaders.
	Len() int
}

var _ ShaderCache = &shaderCache{}

// compilerLock is shared by every ShaderCache in the process.
var compilerLock sync.Mutex

// NewShaderCache creates a ShaderCache creating modules on device.
//
// Parameters:
//   - device: the device shader modules are created on
//   - options: functional options (file system, compiler, warning policy, include depth)
//
// Returns:
//   - ShaderCache: the empty cache
func NewShaderCache(device gpu.Device, options ...ShaderCacheBuilderOption) ShaderCache {
	sc := &shaderCache{
		device:     device,
		fsys:       os.DirFS("assets/shaders"),
		maxDepth:   DefaultMaxIncludeDepth,
		policy:     WarningsLog,
		compilerMu: &compilerLock,
		compiler:   NewNagaCompiler(),
	}
	for _, opt := range options {
		opt(sc)
	}
	sc.pp = NewPreProcessor(sc.fsys, sc.maxDepth)
	sc.entries = cache.New(sc.build, cache.WithOnEvict(func(_ string, s Shader) {
		if m := s.Module(); m != nil {
			m.Release()
		}
	}))
	return sc
}

func (sc *shaderCache) Load(name string) (Shader, error) {
	return sc.entries.Load(name)
}

func (sc *shaderCache) Invalidate(name string) {
	sc.entries.Invalidate(name)
}

func (sc *shaderCache) Clear() {
	sc.entries.Clear()
}

func (sc *shaderCache) Loads() uint64 {
	return sc.entries.Loads()
}

func (sc *shaderCache) Len() int {
	return sc.entries.Len()
}

// build is the cache loader: preprocess, compile, create the module.
func (sc *shaderCache) build(name string) (Shader, error) {
	shaderType, err := TypeFromName(name)
	if err != nil {
		return nil, err
	}

	source, warnings, err := sc.pp.Process(name)
	if err != nil {
		return nil, err
	}
	if err := sc.handleWarnings(name, warnings); err != nil {
		return nil, err
	}

	entryPoint := parseEntryPoint(source, shaderType)
	if entryPoint == "" {
		return nil, fmt.Errorf("%w: %s: no @%s entry point", errs.ErrCompilation, name, shaderType)
	}

	sc.compilerMu.Lock()
	words, err := sc.compiler.Compile(name, shaderType, source)
	sc.compilerMu.Unlock()
	if err != nil {
		logger.Logger().Error("shader compilation failed", "shader", name, "error", err)
		return nil, err
	}

	module, err := sc.device.CreateShaderModule(&gpu.ShaderModuleDescriptor{
		Label: name,
		WGSL:  source,
		SPIRV: words,
	})
	if err != nil {
		return nil, fmt.Errorf("shader: create module %q: %w", name, err)
	}

	logger.Logger().Debug("shader compiled", "shader", name, "stage", shaderType, "entry", entryPoint, "words", len(words))
	return &shader{
		key:        name,
		source:     source,
		shaderType: shaderType,
		entryPoint: entryPoint,
		spirv:      words,
		module:     module,
	}, nil
}

func (sc *shaderCache) handleWarnings(name string, warnings []string) error {
	if len(warnings) == 0 {
		return nil
	}
	switch sc.policy {
	case WarningsSuppress:
		return nil
	case WarningsAsErrors:
		return fmt.Errorf("%w: %s: warnings treated as errors: %s", errs.ErrCompilation, name, strings.Join(warnings, "; "))
	default:
		for _, w := range warnings {
			logger.Logger().Warn("shader warning", "shader", name, "warning", w)
		}
		return nil
	}
}

package shader

import (
	"io/fs"
	"os"
)

// ShaderCacheBuilderOption is a functional option for configuring a ShaderCache.
type ShaderCacheBuilderOption func(*shaderCache)

// WithDir reads shader files from the directory dir.
//
// Parameters:
//   - dir: the shaders root directory
//
// Returns:
//   - ShaderCacheBuilderOption: option function to apply
func WithDir(dir string) ShaderCacheBuilderOption {
	return func(sc *shaderCache) {
		sc.fsys = os.DirFS(dir)
	}
}

// WithFS reads shader files from fsys, which must be rooted at the shaders directory.
//
// Parameters:
//   - fsys: the shaders file system
//
// Returns:
//   - ShaderCacheBuilderOption: option function to apply
func WithFS(fsys fs.FS) ShaderCacheBuilderOption {
	return func(sc *shaderCache) {
		sc.fsys = fsys
	}
}

// WithCompiler replaces the default naga compiler.
//
// Parameters:
//   - c: the compiler to use
//
// Returns:
//   - ShaderCacheBuilderOption: option function to apply
func WithCompiler(c Compiler) ShaderCacheBuilderOption {
	return func(sc *shaderCache) {
		sc.compiler = c
	}
}

// WithWarningPolicy sets how preprocessor warnings are handled.
//
// Parameters:
//   - p: the warning policy (default WarningsLog)
//
// Returns:
//   - ShaderCacheBuilderOption: option function to apply
func WithWarningPolicy(p WarningPolicy) ShaderCacheBuilderOption {
	return func(sc *shaderCache) {
		sc.policy = p
	}
}

// WithMaxIncludeDepth sets the include nesting limit. Values <= 0 select DefaultMaxIncludeDepth.
//
// Parameters:
//   - depth: the deepest accepted include nesting
//
// Returns:
//   - ShaderCacheBuilderOption: option function to apply
func WithMaxIncludeDepth(depth int) ShaderCacheBuilderOption {
	return func(sc *shaderCache) {
		sc.maxDepth = depth
	}
}

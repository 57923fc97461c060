package model

import (
	"io/fs"
	"os"
	"strings"
)

// ModelCacheBuilderOption is a functional option for configuring a ModelCache.
type ModelCacheBuilderOption func(*modelCache)

// WithDir reads model files from the directory dir.
//
// Parameters:
//   - dir: the models root directory
//
// Returns:
//   - ModelCacheBuilderOption: option function to apply
func WithDir(dir string) ModelCacheBuilderOption {
	return func(mc *modelCache) {
		mc.fsys = os.DirFS(dir)
	}
}

// WithFS reads model files from fsys.
//
// Parameters:
//   - fsys: the models file system
//
// Returns:
//   - ModelCacheBuilderOption: option function to apply
func WithFS(fsys fs.FS) ModelCacheBuilderOption {
	return func(mc *modelCache) {
		mc.fsys = fsys
	}
}

// WithFormat decodes files with extension ext using parse instead of the OBJ parser.
//
// Parameters:
//   - ext: the file extension including the dot, matched case-insensitively
//   - parse: the parser
//
// Returns:
//   - ModelCacheBuilderOption: option function to apply
func WithFormat(ext string, parse Parser) ModelCacheBuilderOption {
	return func(mc *modelCache) {
		mc.formats[strings.ToLower(ext)] = parse
	}
}

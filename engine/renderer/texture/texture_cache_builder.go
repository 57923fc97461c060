package texture

import (
	"io/fs"
	"os"
)

// TextureCacheBuilderOption is a functional option for configuring a TextureCache.
type TextureCacheBuilderOption func(*textureCache)

// WithDir reads texture files from the directory dir.
//
// Parameters:
//   - dir: the textures root directory
//
// Returns:
//   - TextureCacheBuilderOption: option function to apply
func WithDir(dir string) TextureCacheBuilderOption {
	return func(tc *textureCache) {
		tc.fsys = os.DirFS(dir)
	}
}

// WithFS reads texture files from fsys.
//
// Parameters:
//   - fsys: the textures file system
//
// Returns:
//   - TextureCacheBuilderOption: option function to apply
func WithFS(fsys fs.FS) TextureCacheBuilderOption {
	return func(tc *textureCache) {
		tc.fsys = fsys
	}
}

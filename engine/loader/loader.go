// Package loader decodes mesh file formats beyond OBJ for the model cache.
package loader

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/Carmen-Shannon/prism/engine/errs"
	"github.com/Carmen-Shannon/prism/engine/model"
)

// LoaderBackendType identifies a mesh file format backend.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// loader is the implementation of the Loader interface.
type loader struct {
	generateNormals bool
	backends        map[string]loaderBackend
}

// Loader decodes mesh files by extension. It holds no GPU state; uploading and caching
// are the model cache's job.
type Loader interface {
	// Load decodes the meshes of file with the backend registered for its extension.
	// It has the signature of model.Parser.
	//
	// Parameters:
	//   - fsys: the models file system
	//   - file: the file inside fsys
	//
	// Returns:
	//   - []*model.Mesh: the meshes in file order
	//   - error: errs.ErrUnsupportedFormat for an unknown extension or malformed
	//     content, errs.ErrNotFound for a missing file
	Load(fsys fs.FS, file string) ([]*model.Mesh, error)

	// Extensions lists the registered extensions.
	Extensions() []string

	// ModelCacheOptions returns one model.WithFormat option per registered extension.
	//
	// Returns:
	//   - []model.ModelCacheBuilderOption: the options routing those files to Load
	ModelCacheOptions() []model.ModelCacheBuilderOption
}

var _ Loader = &loader{}

// NewLoader creates a Loader with the given backends, glTF when none is named.
//
// Parameters:
//   - backendTypes: the backends to register
//   - options: functional options applied before the backends are created
//
// Returns:
//   - Loader: the loader
func NewLoader(backendTypes []LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		generateNormals: true,
		backends:        make(map[string]loaderBackend),
	}
	for _, option := range options {
		option(l)
	}
	if len(backendTypes) == 0 {
		backendTypes = []LoaderBackendType{BackendTypeGLTF}
	}

	for _, t := range backendTypes {
		var b loaderBackend
		switch t {
		case BackendTypeGLTF:
			b = newGLTFLoaderBackend(l.generateNormals)
		default:
			continue
		}
		for _, ext := range b.Extensions() {
			l.backends[ext] = b
		}
	}
	return l
}

func (l *loader) Load(fsys fs.FS, file string) ([]*model.Mesh, error) {
	backend, err := l.resolveBackend(file)
	if err != nil {
		return nil, err
	}
	return backend.Load(fsys, file)
}

func (l *loader) Extensions() []string {
	exts := make([]string, 0, len(l.backends))
	for ext := range l.backends {
		exts = append(exts, ext)
	}
	return exts
}

func (l *loader) ModelCacheOptions() []model.ModelCacheBuilderOption {
	options := make([]model.ModelCacheBuilderOption, 0, len(l.backends))
	for ext := range l.backends {
		options = append(options, model.WithFormat(ext, l.Load))
	}
	return options
}

func (l *loader) resolveBackend(file string) (loaderBackend, error) {
	ext := strings.ToLower(path.Ext(file))
	b, ok := l.backends[ext]
	if !ok {
		return nil, fmt.Errorf("%w: no loader for %q files", errs.ErrUnsupportedFormat, ext)
	}
	return b, nil
}

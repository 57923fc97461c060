package loader

import (
	"io/fs"

	"github.com/Carmen-Shannon/prism/engine/model"
)

// loaderBackend decodes one mesh file format.
type loaderBackend interface {
	// Extensions lists the file extensions the backend decodes, lower case with the dot.
	Extensions() []string

	// Load decodes the meshes of file.
	//
	// Parameters:
	//   - fsys: the models file system
	//   - file: the file inside fsys
	//
	// Returns:
	//   - []*model.Mesh: the meshes in file order
	//   - error: error if the file is missing or malformed
	Load(fsys fs.FS, file string) ([]*model.Mesh, error)
}

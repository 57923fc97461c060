package loader

import (
	"io/fs"

	"github.com/Carmen-Shannon/prism/engine/model"
)

// gltfLoaderBackendImpl decodes glTF 2.0 JSON documents and GLB containers.
type gltfLoaderBackendImpl struct {
	generateNormals bool
}

var _ loaderBackend = &gltfLoaderBackendImpl{}

// newGLTFLoaderBackend creates the glTF/GLB backend.
//
// Parameters:
//   - generateNormals: synthesize normals for primitives without them
//
// Returns:
//   - loaderBackend: the backend
func newGLTFLoaderBackend(generateNormals bool) loaderBackend {
	return &gltfLoaderBackendImpl{generateNormals: generateNormals}
}

func (b *gltfLoaderBackendImpl) Extensions() []string {
	return []string{".gltf", ".glb"}
}

func (b *gltfLoaderBackendImpl) Load(fsys fs.FS, file string) ([]*model.Mesh, error) {
	parser := newGLTFParser(fsys)
	if err := parser.Parse(file); err != nil {
		return nil, err
	}
	return newGLTFMeshExtractor(parser, b.generateNormals).ExtractAllMeshes()
}

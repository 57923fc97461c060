package loader

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/prism/engine/model"
)

// gltfMeshExtractorImpl is the implementation of the gltfMeshExtractor interface.
type gltfMeshExtractorImpl struct {
	parser          gltfParser
	generateNormals bool
}

// gltfMeshExtractor converts the primitives of a parsed document into model meshes.
type gltfMeshExtractor interface {
	// ExtractAllMeshes returns one mesh per primitive in document order. The first
	// primitive of a mesh carries the mesh name, later ones get a _prim<N> suffix and
	// a nameless mesh is called mesh_<index>.
	//
	// Returns:
	//   - []*model.Mesh: the meshes
	//   - error: error if a primitive cannot be decoded
	ExtractAllMeshes() ([]*model.Mesh, error)
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

// newGLTFMeshExtractor creates a mesh extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//   - generateNormals: synthesize smooth normals for primitives without a NORMAL attribute
//
// Returns:
//   - gltfMeshExtractor: the mesh extractor
func newGLTFMeshExtractor(parser gltfParser, generateNormals bool) gltfMeshExtractor {
	return &gltfMeshExtractorImpl{parser: parser, generateNormals: generateNormals}
}

func (e *gltfMeshExtractorImpl) ExtractAllMeshes() ([]*model.Mesh, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("gltf: no document loaded")
	}

	var meshes []*model.Mesh
	for meshIndex := range doc.Meshes {
		mesh := &doc.Meshes[meshIndex]
		name := mesh.Name
		if name == "" {
			name = fmt.Sprintf("mesh_%d", meshIndex)
		}
		for primIndex := range mesh.Primitives {
			m, err := e.extractPrimitive(&mesh.Primitives[primIndex])
			if err != nil {
				return nil, fmt.Errorf("mesh %q primitive %d: %w", name, primIndex, err)
			}
			m.Name = name
			if primIndex > 0 {
				m.Name = fmt.Sprintf("%s_prim%d", name, primIndex)
			}
			meshes = append(meshes, m)
		}
	}
	return meshes, nil
}

// extractPrimitive decodes one triangle-list primitive.
func (e *gltfMeshExtractorImpl) extractPrimitive(prim *gltfPrimitive) (*model.Mesh, error) {
	if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
		return nil, malformed("primitive mode %d, only triangles are supported", *prim.Mode)
	}

	posAccessor, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, malformed("primitive has no POSITION attribute")
	}
	positions, err := e.parser.ReadVec3Accessor(posAccessor)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	vertexCount := len(positions)

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = e.parser.ReadIndicesAccessor(*prim.Indices); err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
		for _, idx := range indices {
			if int(idx) >= vertexCount {
				return nil, malformed("index %d out of range for %d vertices", idx, vertexCount)
			}
		}
	} else {
		indices = make([]uint32, vertexCount)
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	if len(indices)%3 != 0 {
		return nil, malformed("%d indices do not form triangles", len(indices))
	}

	m := &model.Mesh{
		Positions: flatten(positions),
		Indices:   indices,
	}

	if normalAccessor, ok := prim.Attributes["NORMAL"]; ok {
		normals, err := e.parser.ReadVec3Accessor(normalAccessor)
		if err != nil {
			return nil, fmt.Errorf("normals: %w", err)
		}
		if len(normals) != vertexCount {
			return nil, malformed("%d normals for %d vertices", len(normals), vertexCount)
		}
		m.Normals = flatten(normals)
	} else if e.generateNormals && len(indices) >= 3 {
		m.Normals = flatten(generateNormals(positions, indices))
	}

	if texCoordAccessor, ok := prim.Attributes["TEXCOORD_0"]; ok {
		texCoords, err := e.parser.ReadVec2Accessor(texCoordAccessor)
		if err != nil {
			return nil, fmt.Errorf("texcoords: %w", err)
		}
		if len(texCoords) != vertexCount {
			return nil, malformed("%d texcoords for %d vertices", len(texCoords), vertexCount)
		}
		m.Texcoords = flatten(texCoords)
	}

	if prim.Material != nil {
		doc := e.parser.Document()
		if i := *prim.Material; i >= 0 && i < len(doc.Materials) {
			m.Material = doc.Materials[i].Name
		}
	}
	return m, nil
}

// flatten packs fixed-size tuples into one float slice.
func flatten[T [2]float32 | [3]float32](tuples []T) []float32 {
	if len(tuples) == 0 {
		return nil
	}
	n := len(tuples[0])
	out := make([]float32, 0, len(tuples)*n)
	for _, t := range tuples {
		for i := range n {
			out = append(out, t[i])
		}
	}
	return out
}

// generateNormals computes smooth per-vertex normals by accumulating the area-weighted
// face normal of every triangle into its vertices and normalizing the sums.
// Vertices no triangle touches get the up vector.
//
// Parameters:
//   - positions: the vertex positions
//   - indices: the triangle index buffer (a multiple of 3, every index in range)
//
// Returns:
//   - [][3]float32: one unit normal per vertex
func generateNormals(positions [][3]float32, indices []uint32) [][3]float32 {
	accum := make([][3]float32, len(positions))

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		p0, p1, p2 := positions[i0], positions[i1], positions[i2]

		edge1 := [3]float32{p1[0] - p0[0], p1[1] - p0[1], p1[2] - p0[2]}
		edge2 := [3]float32{p2[0] - p0[0], p2[1] - p0[1], p2[2] - p0[2]}

		// face normal, length proportional to triangle area
		face := [3]float32{
			edge1[1]*edge2[2] - edge1[2]*edge2[1],
			edge1[2]*edge2[0] - edge1[0]*edge2[2],
			edge1[0]*edge2[1] - edge1[1]*edge2[0],
		}

		for _, idx := range [3]uint32{i0, i1, i2} {
			accum[idx][0] += face[0]
			accum[idx][1] += face[1]
			accum[idx][2] += face[2]
		}
	}

	for i, n := range accum {
		length := float32(math.Sqrt(float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])))
		if length < 1e-6 {
			accum[i] = [3]float32{0, 1, 0}
			continue
		}
		accum[i] = [3]float32{n[0] / length, n[1] / length, n[2] / length}
	}
	return accum
}

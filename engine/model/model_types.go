package model

import (
	"fmt"

	"github.com/Carmen-Shannon/prism/engine/errs"
	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
)

// Name addresses one model inside a mesh file.
type Name struct {
	// File is the mesh file path relative to the models root.
	File string

	// Model is the object or group name inside File. Empty selects the unnamed model.
	Model string
}

func (n Name) String() string {
	return n.File + "#" + n.Model
}

// Mesh is a de-indexed triangle mesh as parsed from a file. Every attribute slice holds
// one tuple per unified vertex; Texcoords (2 floats) and Normals (3 floats) are nil when
// the source had none.
type Mesh struct {
	Name      string
	Positions []float32
	Texcoords []float32
	Normals   []float32
	Indices   []uint32
	Material  string
}

// VertexCount returns the number of unified vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions) / 3
}

// Entry is a model resident on the GPU.
type Entry struct {
	Name Name

	// VertexCount is the number of indices to draw.
	VertexCount uint32

	Positions gpu.Buffer
	Indices   gpu.Buffer

	// Normals and Texcoords are nil when the file has no such stream.
	Normals   gpu.Buffer
	Texcoords gpu.Buffer

	// Material is the usemtl name, empty when none was set.
	Material string

	Mesh *Mesh
}

// RequireNormals reports ErrMissingAttribute when the model has no normal stream.
func (e *Entry) RequireNormals() error {
	if e.Normals == nil {
		return fmt.Errorf("%w: model %s has no normals", errs.ErrMissingAttribute, e.Name)
	}
	return nil
}

// RequireTexcoords reports ErrMissingAttribute when the model has no texture coordinates.
func (e *Entry) RequireTexcoords() error {
	if e.Texcoords == nil {
		return fmt.Errorf("%w: model %s has no texture coordinates", errs.ErrMissingAttribute, e.Name)
	}
	return nil
}

// Release frees the entry's buffers.
func (e *Entry) Release() {
	for _, b := range []gpu.Buffer{e.Positions, e.Indices, e.Normals, e.Texcoords} {
		if b != nil {
			b.Release()
		}
	}
}

// fileEntry is every model of one file, published as a unit.
type fileEntry struct {
	order  []string
	models map[string]*Entry
}

func (f *fileEntry) release() {
	for _, e := range f.models {
		e.Release()
	}
}

package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/prism/engine/errs"
)

const quadOBJ = `# two triangles sharing an edge
mtllib scene.mtl
o Quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
usemtl Marble
f 1/1/1 2/2/1 3/3/1 4/4/1
`

func TestParseOBJQuad(t *testing.T) {
	meshes, err := ParseOBJ(strings.NewReader(quadOBJ))
	require.NoError(t, err)
	require.Len(t, meshes, 1)

	m := meshes[0]
	assert.Equal(t, "Quad", m.Name)
	assert.Equal(t, "Marble", m.Material)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, m.Indices)
	assert.Equal(t, 4, m.VertexCount())
	assert.Len(t, m.Texcoords, 8)
	assert.Len(t, m.Normals, 12)
	assert.Equal(t, []float32{1, 1, 0}, m.Positions[6:9])
	assert.Equal(t, []float32{1, 1}, m.Texcoords[4:6])
}

func TestParseOBJMultipleObjects(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
o A
f -3 -2 -1
g B
f 1//1 2//1 3//1
vn 0 0 1
`
	_, err := ParseOBJ(strings.NewReader(src))
	require.ErrorIs(t, err, errs.ErrUnsupportedFormat, "normal referenced before definition")

	src = `v 0 0 0
v 1 0 0
v 0 1 0
vn 0 0 1
f 1 2 3
o A
f -3 -2 -1
g B
f 1//1 2//1 3//1
o Empty
`
	meshes, err := ParseOBJ(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, meshes, 3)

	assert.Equal(t, "", meshes[0].Name)
	assert.Equal(t, "A", meshes[1].Name)
	assert.Equal(t, "B", meshes[2].Name)
	assert.Equal(t, meshes[0].Positions, meshes[1].Positions)
	assert.Nil(t, meshes[1].Normals)
	assert.Nil(t, meshes[1].Texcoords)
	assert.Len(t, meshes[2].Normals, 9)
	assert.Nil(t, meshes[2].Texcoords)
}

func TestParseOBJRenamesEmptyBlock(t *testing.T) {
	src := `o Outer
g Inner
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`
	meshes, err := ParseOBJ(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, meshes, 1)
	assert.Equal(t, "Inner", meshes[0].Name)
}

func TestParseOBJMixedAttributesFillZero(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
vt 0.5 0.5
f 1/1 2 3
`
	meshes, err := ParseOBJ(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, meshes[0].Texcoords, 6)
	assert.Equal(t, []float32{0.5, 0.5, 0, 0, 0, 0}, meshes[0].Texcoords)
}

func TestParseOBJErrors(t *testing.T) {
	cases := map[string]string{
		"zero index":    "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n",
		"out of range":  "v 0 0 0\nf 1 2 3\n",
		"short face":    "v 0 0 0\nv 1 0 0\nf 1 2\n",
		"bad number":    "v 0 x 0\n",
		"short vertex":  "v 0 0\n",
		"bad corner":    "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1/1/1/1 2 3\n",
		"bad index int": "v 0 0 0\nv 1 0 0\nv 0 1 0\nf a 2 3\n",
	}
	for name, src := range cases {
		_, err := ParseOBJ(strings.NewReader(src))
		assert.ErrorIs(t, err, errs.ErrUnsupportedFormat, name)
	}
}

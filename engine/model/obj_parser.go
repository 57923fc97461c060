package model

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/prism/engine/errs"
)

// objVertex is one face corner. Indices are zero based; -1 marks an absent attribute.
type objVertex struct {
	v, vt, vn int
}

// objBuilder accumulates the faces of the model currently being parsed.
type objBuilder struct {
	name     string
	material string
	corners  []objVertex
	hasVT    bool
	hasVN    bool
}

// objParser holds the file-global attribute pools OBJ indices refer to.
type objParser struct {
	positions [][3]float32
	texcoords [][2]float32
	normals   [][3]float32

	current *objBuilder
	meshes  []*Mesh
	line    int
}

// ParseOBJ reads a Wavefront OBJ stream into one Mesh per o/g block. Faces before the
// first o/g belong to a mesh named "". Polygons are fan triangulated and every distinct
// (v, vt, vn) corner becomes one output vertex. Blocks without faces are dropped.
//
// Parameters:
//   - r: the OBJ text
//
// Returns:
//   - []*Mesh: the meshes in file order
//   - error: ErrUnsupportedFormat wrapped with the offending line on malformed input
func ParseOBJ(r io.Reader) ([]*Mesh, error) {
	p := &objParser{current: &objBuilder{}}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for sc.Scan() {
		p.line++
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if err := p.directive(fields[0], fields[1:]); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("model: read obj: %w", err)
	}
	p.flush()
	return p.meshes, nil
}

func (p *objParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: obj line %d: %s", errs.ErrUnsupportedFormat, p.line, fmt.Sprintf(format, args...))
}

func (p *objParser) directive(kind string, args []string) error {
	switch kind {
	case "v":
		f, err := p.floats(args, 3)
		if err != nil {
			return err
		}
		p.positions = append(p.positions, [3]float32{f[0], f[1], f[2]})
	case "vt":
		f, err := p.floats(args, 1)
		if err != nil {
			return err
		}
		uv := [2]float32{f[0], 0}
		if len(f) > 1 {
			uv[1] = f[1]
		}
		p.texcoords = append(p.texcoords, uv)
	case "vn":
		f, err := p.floats(args, 3)
		if err != nil {
			return err
		}
		p.normals = append(p.normals, [3]float32{f[0], f[1], f[2]})
	case "f":
		return p.face(args)
	case "o", "g":
		name := strings.Join(args, " ")
		if len(p.current.corners) > 0 {
			p.flush()
			p.current = &objBuilder{material: p.current.material}
		}
		p.current.name = name
	case "usemtl":
		p.current.material = strings.Join(args, " ")
	default:
		// mtllib, smoothing groups, lines and points are not rendered
	}
	return nil
}

func (p *objParser) floats(args []string, want int) ([]float32, error) {
	if len(args) < want {
		return nil, p.errorf("expected at least %d values, got %d", want, len(args))
	}
	out := make([]float32, len(args))
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 32)
		if err != nil {
			return nil, p.errorf("bad number %q", a)
		}
		out[i] = float32(f)
	}
	return out, nil
}

func (p *objParser) face(args []string) error {
	if len(args) < 3 {
		return p.errorf("face needs at least 3 vertices, got %d", len(args))
	}
	poly := make([]objVertex, len(args))
	for i, a := range args {
		c, err := p.corner(a)
		if err != nil {
			return err
		}
		poly[i] = c
	}
	b := p.current
	for i := 1; i+1 < len(poly); i++ {
		b.corners = append(b.corners, poly[0], poly[i], poly[i+1])
	}
	for _, c := range poly {
		b.hasVT = b.hasVT || c.vt >= 0
		b.hasVN = b.hasVN || c.vn >= 0
	}
	return nil
}

// corner parses v, v/vt, v//vn or v/vt/vn.
func (p *objParser) corner(s string) (objVertex, error) {
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return objVertex{}, p.errorf("bad face vertex %q", s)
	}
	c := objVertex{v: -1, vt: -1, vn: -1}
	var err error
	if c.v, err = p.index(parts[0], len(p.positions)); err != nil {
		return c, err
	}
	if len(parts) > 1 && parts[1] != "" {
		if c.vt, err = p.index(parts[1], len(p.texcoords)); err != nil {
			return c, err
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if c.vn, err = p.index(parts[2], len(p.normals)); err != nil {
			return c, err
		}
	}
	return c, nil
}

// index resolves a one based or negative (relative to the end) OBJ index.
func (p *objParser) index(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, p.errorf("bad index %q", s)
	}
	switch {
	case i > 0:
		i--
	case i < 0:
		i += n
	default:
		return 0, p.errorf("index 0 is invalid")
	}
	if i < 0 || i >= n {
		return 0, p.errorf("index %s out of range (%d defined)", s, n)
	}
	return i, nil
}

// flush de-indexes the current builder into a Mesh.
func (p *objParser) flush() {
	b := p.current
	if len(b.corners) == 0 {
		return
	}
	m := &Mesh{Name: b.name, Material: b.material, Indices: make([]uint32, 0, len(b.corners))}
	seen := make(map[objVertex]uint32, len(b.corners))
	for _, c := range b.corners {
		if idx, ok := seen[c]; ok {
			m.Indices = append(m.Indices, idx)
			continue
		}
		idx := uint32(len(seen))
		seen[c] = idx
		m.Indices = append(m.Indices, idx)

		pos := p.positions[c.v]
		m.Positions = append(m.Positions, pos[0], pos[1], pos[2])
		if b.hasVT {
			var uv [2]float32
			if c.vt >= 0 {
				uv = p.texcoords[c.vt]
			}
			m.Texcoords = append(m.Texcoords, uv[0], uv[1])
		}
		if b.hasVN {
			var n [3]float32
			if c.vn >= 0 {
				n = p.normals[c.vn]
			}
			m.Normals = append(m.Normals, n[0], n[1], n[2])
		}
	}
	p.meshes = append(p.meshes, m)
}

package camera

import (
	"github.com/Carmen-Shannon/prism/common"
)

// Projection is a left-handed perspective projection with WebGPU [0, 1] depth.
type Projection struct {
	FovY   float32 // radians
	Aspect float32
	Near   float32
	Far    float32
	Matrix common.Mat4
}

// NewProjection creates a projection and computes its matrix.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: width / height
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - Projection: the projection
func NewProjection(fovY, aspect, near, far float32) Projection {
	p := Projection{FovY: fovY, Aspect: aspect, Near: near, Far: far}
	p.update()
	return p
}

// SetAspect changes the aspect ratio and recomputes the matrix.
func (p *Projection) SetAspect(aspect float32) {
	p.Aspect = aspect
	p.update()
}

func (p *Projection) update() {
	p.Matrix = common.PerspectiveLH(p.FovY, p.Aspect, p.Near, p.Far)
}

// Bytes returns the projection uniform bytes ready for upload.
func (p *Projection) Bytes() []byte {
	u := GPUProjectionUniform{Matrix: p.Matrix}
	return u.Marshal()
}

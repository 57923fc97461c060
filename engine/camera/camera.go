package camera

import (
	"github.com/Carmen-Shannon/prism/common"
)

// GimbalCamera is a camera that orbits ("gimbals") around a fixed center point while
// keeping an explicit view direction and up vector. It is a plain value: copy it freely,
// mutate it through its methods, and upload it with Bytes.
type GimbalCamera struct {
	View   common.Mat4
	Pos    common.Vec3
	Center common.Vec3
	Dir    common.Vec3
	Top    common.Vec3
}

// NewGimbalCamera creates a camera at pos looking at center with the given up vector.
//
// Parameters:
//   - pos: the eye position
//   - center: the point the camera looks at and gimbals around
//   - top: the up vector
//
// Returns:
//   - GimbalCamera: the camera with its view matrix computed
func NewGimbalCamera(pos, center, top common.Vec3) GimbalCamera {
	return GimbalCamera{
		View:   common.LookAtLH(pos, center, top),
		Pos:    pos,
		Center: center,
		Dir:    center.Sub(pos).Normalize(),
		Top:    top,
	}
}

func (c *GimbalCamera) refreshView() {
	c.View = common.LookAtLH(c.Pos, c.Pos.Add(c.Dir), c.Top)
}

// Translate moves the eye by d in world space. Direction and center are unchanged.
func (c *GimbalCamera) Translate(d common.Vec3) {
	c.Pos = c.Pos.Add(d)
	c.refreshView()
}

// TranslateRel moves the eye in camera space: x along Dir×Top, y along Top, z along Dir.
func (c *GimbalCamera) TranslateRel(d common.Vec3) {
	side := c.Dir.Cross(c.Top)
	c.Translate(side.Scale(d[0]).Add(c.Top.Scale(d[1])).Add(c.Dir.Scale(d[2])))
}

// Zoom moves the eye toward the center by ratio of the remaining distance.
// Negative ratios move away.
func (c *GimbalCamera) Zoom(ratio float32) {
	c.Pos = common.Lerp(c.Pos, c.Center, ratio)
	c.refreshView()
}

// GimbalUD tilts the camera up or down around the center by degrees.
func (c *GimbalCamera) GimbalUD(degrees float32) {
	c.rotate(degrees, c.Dir.Cross(c.Top).Normalize())
}

// GimbalLR swings the camera left or right around the center by degrees.
func (c *GimbalCamera) GimbalLR(degrees float32) {
	c.rotate(degrees, c.Top)
}

// rotate turns the eye about axis through the center and turns Dir and Top with it.
func (c *GimbalCamera) rotate(degrees float32, axis common.Vec3) {
	rot := common.Rotation(common.Radians(degrees), axis)
	c.Pos = common.TransformVector(rot, c.Pos.Sub(c.Center)).Add(c.Center)
	c.Dir = common.TransformVector(rot, c.Dir).Normalize()
	c.Top = common.TransformVector(rot, c.Top)
	c.refreshView()
}

// Uniform returns the GPU layout of the camera.
//
// Returns:
//   - GPUCameraUniform: the uniform block value
func (c *GimbalCamera) Uniform() GPUCameraUniform {
	return GPUCameraUniform{
		View:   c.View,
		Pos:    vec4(c.Pos),
		Center: vec4(c.Center),
		Dir:    vec4(c.Dir),
		Top:    vec4(c.Top),
	}
}

// Bytes returns the camera uniform bytes ready for upload.
//
// Returns:
//   - []byte: GPUCameraUniformSize bytes
func (c *GimbalCamera) Bytes() []byte {
	u := c.Uniform()
	return u.Marshal()
}

func vec4(v common.Vec3) [4]float32 {
	return [4]float32{v[0], v[1], v[2], 0}
}

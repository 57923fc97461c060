package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Carmen-Shannon/prism/common"
)

const eps = 1e-4

func assertVec(t *testing.T, want, got common.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], eps, "component %d of %v", i, got)
	}
}

func newTestCamera() GimbalCamera {
	return NewGimbalCamera(common.Vec3{0, 0, -5}, common.Vec3{}, common.Vec3{0, 1, 0})
}

func TestNewGimbalCamera(t *testing.T) {
	c := newTestCamera()
	assertVec(t, common.Vec3{0, 0, 1}, c.Dir)
	assertVec(t, common.Vec3{0, 0, 5}, common.TransformPoint(c.View, c.Center))
	assertVec(t, common.Vec3{}, common.TransformPoint(c.View, c.Pos))
}

func TestGimbalKeepsLookingAtCenter(t *testing.T) {
	c := newTestCamera()

	c.GimbalLR(90)
	assertVec(t, common.Vec3{-5, 0, 0}, c.Pos)
	assertVec(t, common.Vec3{1, 0, 0}, c.Dir)

	c.GimbalUD(30)
	assert.InDelta(t, 5, c.Pos.Sub(c.Center).Len(), eps)
	assertVec(t, c.Center.Sub(c.Pos).Normalize(), c.Dir)
	assert.InDelta(t, 1, c.Dir.Len(), eps)
	assert.InDelta(t, 0, c.Dir.Dot(c.Top), eps)

	// the center stays straight ahead in view space
	v := common.TransformPoint(c.View, c.Center)
	assert.InDelta(t, 0, v[0], eps)
	assert.InDelta(t, 0, v[1], eps)
	assert.InDelta(t, 5, v[2], eps)
}

func TestZoomAndTranslate(t *testing.T) {
	c := newTestCamera()
	c.Zoom(0.5)
	assertVec(t, common.Vec3{0, 0, -2.5}, c.Pos)

	c.Translate(common.Vec3{1, 0, 0})
	assertVec(t, common.Vec3{1, 0, -2.5}, c.Pos)
	assertVec(t, common.Vec3{0, 0, 1}, c.Dir)

	c = newTestCamera()
	c.TranslateRel(common.Vec3{1, 2, 3})
	// Dir×Top = (0,0,1)×(0,1,0) = (-1,0,0)
	assertVec(t, common.Vec3{-1, 2, -2}, c.Pos)
	assertVec(t, common.Vec3{0, 0, 1}, c.Dir)
}

func TestCameraBytes(t *testing.T) {
	c := newTestCamera()
	b := c.Bytes()
	assert.Len(t, b, GPUCameraUniformSize)

	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b[off:])) }
	assert.Equal(t, c.View[0], f(0))
	assert.Equal(t, c.View[14], f(14*4))
	assert.Equal(t, float32(-5), f(64+8))
	assert.Equal(t, float32(0), f(64+12))
	assert.Equal(t, float32(1), f(96+8))
	assert.Equal(t, float32(1), f(112+4))
}

func TestProjection(t *testing.T) {
	p := NewProjection(common.Radians(45), 16.0/9.0, 0.1, 100)
	assert.Len(t, p.Bytes(), GPUProjectionUniformSize)

	depth := func(z float32) float32 {
		clipZ := p.Matrix[10]*z + p.Matrix[14]
		clipW := p.Matrix[11] * z
		return clipZ / clipW
	}
	assert.InDelta(t, 0, depth(0.1), eps)
	assert.InDelta(t, 1, depth(100), eps)

	before := p.Matrix
	p.SetAspect(1)
	assert.NotEqual(t, before[0], p.Matrix[0])
	assert.Equal(t, before[5], p.Matrix[5])
	assert.InDelta(t, p.Matrix[5], p.Matrix[0], eps)
}

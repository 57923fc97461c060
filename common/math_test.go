package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func assertVec(t *testing.T, want, got Vec3, msgAndArgs ...any) {
	t.Helper()
	for i := range want {
		if !assert.InDelta(t, want[i], got[i], 1e-5, "component %d of %v", i, got) {
			assert.Fail(t, "vector mismatch", msgAndArgs...)
		}
	}
}

func TestVec3(t *testing.T) {
	a, b := Vec3{1, 2, 3}, Vec3{4, 5, 6}
	assert.Equal(t, Vec3{5, 7, 9}, a.Add(b))
	assert.Equal(t, Vec3{-3, -3, -3}, a.Sub(b))
	assert.Equal(t, float32(32), a.Dot(b))
	assert.Equal(t, Vec3{0, 0, 1}, Vec3{1, 0, 0}.Cross(Vec3{0, 1, 0}))
	assert.InDelta(t, 5, Vec3{3, 4, 0}.Len(), 1e-6)
	assertVec(t, Vec3{0.6, 0.8, 0}, Vec3{3, 4, 0}.Normalize())
	assert.Equal(t, Vec3{}, Vec3{}.Normalize(), "the zero vector stays zero")
	assert.Equal(t, Vec3{2.5, 3.5, 4.5}, Lerp(a, b, 0.5))
}

func TestRadians(t *testing.T) {
	assert.InDelta(t, math32.Pi, Radians(180), 1e-6)
	assert.InDelta(t, math32.Pi/4, Radians(45), 1e-6)
}

func TestLookAtLH(t *testing.T) {
	eye := Vec3{0, 0, -5}
	view := LookAtLH(eye, Vec3{}, Vec3{0, 1, 0})

	assertVec(t, Vec3{}, TransformPoint(view, eye))
	assertVec(t, Vec3{0, 0, 5}, TransformPoint(view, Vec3{}), "the center lies on +Z")
	assertVec(t, Vec3{1, 0, 5}, TransformPoint(view, Vec3{1, 0, 0}))
	assertVec(t, Vec3{0, 1, 0}, TransformVector(view, Vec3{0, 1, 0}))
}

func TestPerspectiveLHDepthRange(t *testing.T) {
	const near, far = 0.1, 100
	proj := PerspectiveLH(Radians(90), 2, near, far)

	clip := func(z float32) float32 {
		// w = z for a left-handed projection
		p := TransformPoint(proj, Vec3{0, 0, z})
		return p[2] / z
	}
	assert.InDelta(t, 0, clip(near), 1e-5)
	assert.InDelta(t, 1, clip(far), 1e-5)
	assert.InDelta(t, 0.5, proj[0], 1e-6, "the aspect divides the x scale")
	assert.InDelta(t, 1, proj[5], 1e-6)
}

func TestRotation(t *testing.T) {
	r := Rotation(Radians(90), Vec3{0, 0, 2})
	assertVec(t, Vec3{0, 1, 0}, TransformVector(r, Vec3{1, 0, 0}))
	assertVec(t, Vec3{0, 0, 1}, TransformPoint(r, Vec3{0, 0, 1}))
	assert.Equal(t, Identity(), Rotation(0, Vec3{1, 0, 0}))
}

func TestSliceToBytes(t *testing.T) {
	assert.Nil(t, SliceToBytes([]float32{}))
	assert.Equal(t, []byte{0, 0, 0x80, 0x3f}, SliceToBytes([]float32{1}))
	assert.Len(t, SliceToBytes([]uint32{1, 2, 3}), 12)
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Equal(t, 0, Coalesce(0, 0))
}

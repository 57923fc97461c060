package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Carmen-Shannon/prism/common"
)

func TestControllerHeldKeys(t *testing.T) {
	cc := NewCameraController()
	assert.False(t, cc.Held(common.KeyW))
	cc.KeyDown(common.KeyW)
	assert.True(t, cc.Held(common.KeyW))
	cc.KeyUp(common.KeyW)
	assert.False(t, cc.Held(common.KeyW))
}

func TestControllerUpdate(t *testing.T) {
	cc := NewCameraController(WithZoomSpeed(0.5), WithRotateSpeed(90), WithPanSpeed(2))
	assert.Equal(t, float32(0.5), cc.ZoomSpeed())
	assert.Equal(t, float32(90), cc.RotateSpeed())
	assert.Equal(t, float32(2), cc.PanSpeed())

	cam := newTestCamera()
	assert.False(t, cc.Update(1, &cam))

	cc.KeyDown(common.KeyW)
	assert.True(t, cc.Update(1, &cam))
	assertVec(t, common.Vec3{0, 0, -2.5}, cam.Pos)
	cc.KeyUp(common.KeyW)

	cam = newTestCamera()
	cc.KeyDown(common.KeyD)
	assert.True(t, cc.Update(1, &cam))
	assertVec(t, common.Vec3{-5, 0, 0}, cam.Pos)
	cc.KeyUp(common.KeyD)

	cam = newTestCamera()
	cc.KeyDown(common.KeySpace)
	assert.True(t, cc.Update(0.5, &cam))
	assertVec(t, common.Vec3{0, 1, -5}, cam.Pos)
	cc.KeyUp(common.KeySpace)
}

func TestControllerOpposingKeysCancel(t *testing.T) {
	cc := NewCameraController()
	cam := newTestCamera()
	cc.KeyDown(common.KeyQ)
	cc.KeyDown(common.KeyE)
	cc.KeyDown(common.KeyLeft)
	cc.KeyDown(common.KeyRight)
	assert.False(t, cc.Update(1, &cam))
	assert.Equal(t, newTestCamera(), cam)
}

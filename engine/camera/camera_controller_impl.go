package camera

import (
	"sync"

	"github.com/Carmen-Shannon/prism/common"
)

// cameraControllerImpl is the single implementation of CameraController.
type cameraControllerImpl struct {
	mu *sync.Mutex

	held map[int]bool

	zoomSpeed   float32
	rotateSpeed float32
	panSpeed    float32
}

// Compile-time interface compliance check
var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a new camera controller with sensible defaults.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:   &sync.Mutex{},
		held: make(map[int]bool),

		zoomSpeed:   0.5,
		rotateSpeed: 90.0,
		panSpeed:    2.0,
	}

	for _, option := range options {
		option(cc)
	}
	return cc
}

func (cc *cameraControllerImpl) KeyDown(key int) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.held[key] = true
}

func (cc *cameraControllerImpl) KeyUp(key int) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	delete(cc.held, key)
}

func (cc *cameraControllerImpl) Held(key int) bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.held[key]
}

// axis returns +1, -1 or 0 for a pair of opposing keys.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) axis(pos, neg int) float32 {
	var v float32
	if cc.held[pos] {
		v++
	}
	if cc.held[neg] {
		v--
	}
	return v
}

func (cc *cameraControllerImpl) Update(dt float32, cam *GimbalCamera) bool {
	cc.mu.Lock()
	zoom := cc.axis(common.KeyW, common.KeyS)
	lr := cc.axis(common.KeyD, common.KeyA)
	ud := cc.axis(common.KeyE, common.KeyQ)
	move := common.Vec3{
		cc.axis(common.KeyRight, common.KeyLeft),
		cc.axis(common.KeySpace, common.KeyLeftShift),
		cc.axis(common.KeyUp, common.KeyDown),
	}
	zoomSpeed, rotateSpeed, panSpeed := cc.zoomSpeed, cc.rotateSpeed, cc.panSpeed
	cc.mu.Unlock()

	changed := false
	if zoom != 0 {
		cam.Zoom(zoom * zoomSpeed * dt)
		changed = true
	}
	if lr != 0 {
		cam.GimbalLR(lr * rotateSpeed * dt)
		changed = true
	}
	if ud != 0 {
		cam.GimbalUD(ud * rotateSpeed * dt)
		changed = true
	}
	if move != (common.Vec3{}) {
		cam.TranslateRel(move.Scale(panSpeed * dt))
		changed = true
	}
	return changed
}

func (cc *cameraControllerImpl) ZoomSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.zoomSpeed
}

func (cc *cameraControllerImpl) RotateSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.rotateSpeed
}

func (cc *cameraControllerImpl) PanSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.panSpeed
}

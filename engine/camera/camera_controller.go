package camera

// CameraController turns held keys into GimbalCamera motion.
// Keys are reported from the window's event callbacks; Update is called once per frame
// from the render loop. Both may run on different goroutines.
//
// Bindings: W/S zoom toward/away from the center, A/D gimbal left/right, Q/E gimbal
// up/down, the arrow keys translate in camera space, Space/LeftShift move up/down.
type CameraController interface {
	// KeyDown marks key as held.
	//
	// Parameters:
	//   - key: a common.Key* code
	KeyDown(key int)

	// KeyUp marks key as released.
	//
	// Parameters:
	//   - key: a common.Key* code
	KeyUp(key int)

	// Held reports whether key is currently held.
	//
	// Parameters:
	//   - key: a common.Key* code
	//
	// Returns:
	//   - bool: true if the key is down
	Held(key int) bool

	// Update applies dt seconds of motion for every held key to cam.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	//   - cam: the camera to move
	//
	// Returns:
	//   - bool: true if the camera changed
	Update(dt float32, cam *GimbalCamera) bool

	// ZoomSpeed returns the per-second zoom ratio.
	//
	// Returns:
	//   - float32: fraction of the remaining distance covered per second
	ZoomSpeed() float32

	// RotateSpeed returns the gimbal speed.
	//
	// Returns:
	//   - float32: degrees per second
	RotateSpeed() float32

	// PanSpeed returns the translation speed.
	//
	// Returns:
	//   - float32: world units per second
	PanSpeed() float32
}

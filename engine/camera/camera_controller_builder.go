package camera

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithZoomSpeed sets the zoom speed.
//
// Parameters:
//   - speed: fraction of the remaining distance to the center covered per second
//
// Returns:
//   - CameraControllerOption: functional option to set zoom speed
func WithZoomSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.zoomSpeed = speed
	}
}

// WithRotateSpeed sets the gimbal speed.
//
// Parameters:
//   - degreesPerSecond: rotation applied per second of held key
//
// Returns:
//   - CameraControllerOption: functional option to set rotate speed
func WithRotateSpeed(degreesPerSecond float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.rotateSpeed = degreesPerSecond
	}
}

// WithPanSpeed sets the camera-space translation speed.
//
// Parameters:
//   - speed: world units per second
//
// Returns:
//   - CameraControllerOption: functional option to set pan speed
func WithPanSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.panSpeed = speed
	}
}

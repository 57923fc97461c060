package renderer

import "github.com/cogentcore/webgpu/wgpu"

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithLowPower requests the integrated adapter on systems with more than one.
//
// Parameters:
//   - low: true to prefer low power, false for high performance (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the option to a renderer
func WithLowPower(low bool) RendererBuilderOption {
	return func(r *renderer) {
		if low {
			r.powerPreference = wgpu.PowerPreferenceLowPower
		} else {
			r.powerPreference = wgpu.PowerPreferenceHighPerformance
		}
	}
}

// WithDeviceLabel sets the debug label of the device.
//
// Parameters:
//   - label: the label (default "Main Device")
//
// Returns:
//   - RendererBuilderOption: a function that applies the option to a renderer
func WithDeviceLabel(label string) RendererBuilderOption {
	return func(r *renderer) {
		r.deviceLabel = label
	}
}

// Package renderer is the WebGPU implementation of the gpu object model.
package renderer

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/prism/engine/logger"
	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	device  *wgpuDevice
	surface *wgpuSurface

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	powerPreference      wgpu.PowerPreference
	deviceLabel          string
}

// Renderer owns the WebGPU device and the window surface it presents to.
type Renderer interface {
	// Device returns the device. Releasing it releases the adapter and the instance.
	//
	// Returns:
	//   - gpu.Device: the device
	Device() gpu.Device

	// Surface returns the window surface.
	//
	// Returns:
	//   - gpu.Surface: the surface
	Surface() gpu.Surface
}

var _ Renderer = &renderer{}

// NewRenderer creates a WebGPU instance, a surface for surfaceDescriptor and a device on an
// adapter compatible with that surface. The calling goroutine is locked to its OS thread.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor from the window
//   - options: functional options (fallback adapter, power preference, device label)
//
// Returns:
//   - Renderer: the renderer
//   - error: error if no adapter or device is available
func NewRenderer(surfaceDescriptor *wgpu.SurfaceDescriptor, options ...RendererBuilderOption) (Renderer, error) {
	if surfaceDescriptor == nil {
		return nil, errors.New("renderer: nil surface descriptor")
	}
	r := &renderer{
		powerPreference: wgpu.PowerPreferenceHighPerformance,
		deviceLabel:     "Main Device",
	}
	for _, opt := range options {
		opt(r)
	}

	runtime.LockOSThread()
	instance := wgpu.CreateInstance(nil)
	surface := instance.CreateSurface(surfaceDescriptor)

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: r.forceFallbackAdapter,
		PowerPreference:      r.powerPreference,
		CompatibleSurface:    surface,
	})
	if err != nil {
		surface.Release()
		instance.Release()
		return nil, fmt.Errorf("renderer: request adapter: %w", err)
	}

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: r.deviceLabel,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		adapter.Release()
		surface.Release()
		instance.Release()
		return nil, fmt.Errorf("renderer: request device: %w", err)
	}

	r.device = &wgpuDevice{
		instance: instance,
		adapter:  adapter,
		device:   device,
		queue:    &wgpuQueue{queue: device.GetQueue()},
	}
	r.surface = &wgpuSurface{
		surface:      surface,
		device:       r.device,
		capabilities: surface.GetCapabilities(adapter),
	}
	logger.Logger().Info("renderer created",
		"fallback", r.forceFallbackAdapter, "preferred_format", r.surface.PreferredFormat().String())
	return r, nil
}

func (r *renderer) Device() gpu.Device {
	return r.device
}

func (r *renderer) Surface() gpu.Surface {
	return r.surface
}

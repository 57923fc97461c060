package renderer

import (
	"fmt"
	"slices"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/prism/engine/logger"
	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
)

// wgpuSurface implements gpu.Surface over a WebGPU window surface.
type wgpuSurface struct {
	mu           sync.Mutex
	surface      *wgpu.Surface
	device       *wgpuDevice
	capabilities wgpu.SurfaceCapabilities
	released     bool
}

var _ gpu.Surface = &wgpuSurface{}

// Configure applies cfg. A present mode the adapter does not offer falls back to Fifo,
// which every adapter supports.
func (s *wgpuSurface) Configure(cfg gpu.SurfaceConfiguration) error {
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("configure surface: size %dx%d", cfg.Width, cfg.Height)
	}
	format := textureFormat(cfg.Format)
	if !slices.Contains(s.capabilities.Formats, format) {
		return fmt.Errorf("configure surface: format %s not supported", cfg.Format)
	}
	mode := presentMode(cfg.PresentMode)
	if !slices.Contains(s.capabilities.PresentModes, mode) {
		logger.Logger().Warn("present mode unsupported, using fifo", "requested", int(cfg.PresentMode))
		mode = wgpu.PresentModeFifo
	}
	alpha := wgpu.CompositeAlphaModeAuto
	if len(s.capabilities.AlphaModes) > 0 {
		alpha = s.capabilities.AlphaModes[0]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.surface.Configure(s.device.adapter, s.device.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       cfg.Width,
		Height:      cfg.Height,
		PresentMode: mode,
		AlphaMode:   alpha,
	})
	return nil
}

func (s *wgpuSurface) PreferredFormat() gpu.TextureFormat {
	for _, f := range s.capabilities.Formats {
		if pf := fromTextureFormat(f); pf != gpu.TextureFormatUndefined {
			return pf
		}
	}
	return gpu.TextureFormatBGRA8Unorm
}

func (s *wgpuSurface) Acquire() (gpu.SurfaceTexture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tex, err := s.surface.GetCurrentTexture()
	if err != nil {
		return nil, fmt.Errorf("acquire surface texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("create surface view: %w", err)
	}
	return &wgpuSurfaceTexture{surface: s, texture: tex, view: &wgpuTextureView{view: view, label: "Surface View"}}, nil
}

func (s *wgpuSurface) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.released = true
	s.surface.Release()
}

// wgpuSurfaceTexture is one acquired swapchain image.
type wgpuSurfaceTexture struct {
	surface *wgpuSurface
	texture *wgpu.Texture
	view    *wgpuTextureView
	done    sync.Once
}

func (t *wgpuSurfaceTexture) View() gpu.TextureView {
	return t.view
}

func (t *wgpuSurfaceTexture) Present() {
	t.done.Do(func() {
		t.surface.mu.Lock()
		t.surface.surface.Present()
		t.surface.mu.Unlock()
		t.view.Release()
		t.texture.Release()
	})
}

func (t *wgpuSurfaceTexture) Discard() {
	t.done.Do(func() {
		t.view.Release()
		t.texture.Release()
	})
}

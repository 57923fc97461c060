package pass

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/prism/engine/logger"
	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
	"github.com/Carmen-Shannon/prism/engine/renderer/resource"
)

// OffscreenFormat is the high dynamic range format of the offscreen color target.
const OffscreenFormat = gpu.TextureFormatRGBA16Float

// PrePassConfig configures the offscreen color target.
type PrePassConfig struct {
	// Scale is the render resolution relative to the swapchain, in (0, 1].
	Scale float32
}

// PrePass allocates the scaled offscreen color target the scene is rendered into.
type PrePass struct {
	base
	desc resource.TextureViewDesc

	texture gpu.Texture
	view    gpu.TextureView
}

var _ Pass[PrePassConfig, resource.SwapchainDesc, resource.Frame, gpu.CommandEncoder, resource.TextureViewDesc, resource.Borrow[gpu.TextureView]] = &PrePass{}

// NewPrePass allocates the offscreen target for the swapchain described by in.
//
// Parameters:
//   - core: the renderer core
//   - config: the pass config
//   - in: the swapchain descriptor
//
// Returns:
//   - *PrePass: the constructed pass
//   - resource.TextureViewDesc: the offscreen target descriptor
//   - error: error if the scale is out of range or allocation fails
func NewPrePass(core Core, config PrePassConfig, in resource.SwapchainDesc) (*PrePass, resource.TextureViewDesc, error) {
	if !(config.Scale > 0 && config.Scale <= 1) {
		return nil, resource.TextureViewDesc{}, fmt.Errorf("pre pass: scale %v outside (0, 1]", config.Scale)
	}
	desc := resource.TextureViewDesc{
		Label:  "Offscreen Color",
		Width:  scaled(in.Width, config.Scale),
		Height: scaled(in.Height, config.Scale),
		Format: OffscreenFormat,
	}

	tex, err := core.Device().CreateTexture(&gpu.TextureDescriptor{
		Label:         desc.Label,
		Size:          gpu.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Format:        desc.Format,
		Usage:         gpu.TextureUsageRenderAttachment | gpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, resource.TextureViewDesc{}, fmt.Errorf("pre pass: create offscreen texture: %w", err)
	}
	view, err := tex.CreateView()
	if err != nil {
		tex.Release()
		return nil, resource.TextureViewDesc{}, fmt.Errorf("pre pass: create offscreen view: %w", err)
	}

	logger.Logger().Debug("pre pass constructed", "width", desc.Width, "height", desc.Height, "scale", config.Scale)
	return &PrePass{base: base{state: stateReady, core: core}, desc: desc, texture: tex, view: view}, desc, nil
}

// scaled returns max(1, floor(scale * dim)).
func scaled(dim uint32, scale float32) uint32 {
	v := uint32(math.Floor(float64(dim) * float64(scale)))
	if v < 1 {
		return 1
	}
	return v
}

// Perform returns the offscreen view. No GPU work is recorded.
func (p *PrePass) Perform(_ gpu.CommandEncoder, _ resource.Frame) (resource.Borrow[gpu.TextureView], error) {
	if err := p.state.check("pre"); err != nil {
		return resource.Borrow[gpu.TextureView]{}, err
	}
	return resource.Borrowed(&p.view), nil
}

// Refresh reallocates the offscreen target for in and config.
func (p *PrePass) Refresh(config PrePassConfig, in resource.SwapchainDesc) (resource.TextureViewDesc, error) {
	if err := p.refreshable("pre"); err != nil {
		return resource.TextureViewDesc{}, err
	}
	return rebuild(p, (*PrePass).Release, NewPrePass, p.core, config, in)
}

// Release frees the offscreen texture and its view.
func (p *PrePass) Release() {
	release(p.view, p.texture)
	p.view, p.texture = nil, nil
	p.state = stateReleased
}

// Descriptor returns the offscreen target descriptor.
func (p *PrePass) Descriptor() resource.TextureViewDesc {
	return p.desc
}

// Texture returns the offscreen texture.
func (p *PrePass) Texture() gpu.Texture {
	return p.texture
}

// View returns the offscreen texture's default view.
func (p *PrePass) View() gpu.TextureView {
	return p.view
}

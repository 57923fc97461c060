package pass

import (
	"github.com/Carmen-Shannon/prism/engine/logger"
	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
	"github.com/Carmen-Shannon/prism/engine/renderer/resource"
)

// MainPassConfig configures the three passes of a frame.
type MainPassConfig struct {
	Scale float32
	Basic BasicPassConfig

	PostVertexShader   string
	PostFragmentShader string
}

// DefaultMainPassConfig returns the sandbox config at the given render scale.
func DefaultMainPassConfig(scale float32) MainPassConfig {
	post := DefaultPostPassConfig(nil)
	return MainPassConfig{
		Scale:              scale,
		Basic:              DefaultBasicPassConfig(),
		PostVertexShader:   post.VertexShader,
		PostFragmentShader: post.FragmentShader,
	}
}

// MainPass renders a frame: the pre pass allocates the offscreen target, the basic pass draws
// the scene into it and the post pass composites it onto the swapchain.
type MainPass struct {
	base
	config MainPassConfig
	desc   resource.SwapchainDesc

	pre   *PrePass
	basic *BasicPass
	post  *PostPass
}

var _ Pass[MainPassConfig, resource.SwapchainDesc, resource.Frame, gpu.CommandEncoder, resource.SwapchainDesc, resource.Frame] = &MainPass{}

// NewMainPass builds the pre, basic and post passes in order, each from the previous one's output.
//
// Parameters:
//   - core: the renderer core
//   - config: the pass config
//   - in: the swapchain descriptor
//
// Returns:
//   - *MainPass: the constructed pass
//   - resource.SwapchainDesc: in, unchanged
//   - error: error if any sub-pass fails to construct
func NewMainPass(core Core, config MainPassConfig, in resource.SwapchainDesc) (*MainPass, resource.SwapchainDesc, error) {
	pre, offscreen, err := NewPrePass(core, PrePassConfig{Scale: config.Scale}, in)
	if err != nil {
		return nil, resource.SwapchainDesc{}, err
	}
	basic, _, err := NewBasicPass(core, config.Basic, resource.ViewAttachment(offscreen))
	if err != nil {
		pre.Release()
		return nil, resource.SwapchainDesc{}, err
	}
	post, out, err := NewPostPass(core, PostPassConfig{
		Source:         pre.View(),
		VertexShader:   config.PostVertexShader,
		FragmentShader: config.PostFragmentShader,
	}, in)
	if err != nil {
		basic.Release()
		pre.Release()
		return nil, resource.SwapchainDesc{}, err
	}
	return &MainPass{
		base:   base{state: stateReady, core: core},
		config: config,
		desc:   in,
		pre:    pre,
		basic:  basic,
		post:   post,
	}, out, nil
}

// Perform records the three passes into enc and returns frame.
func (p *MainPass) Perform(enc gpu.CommandEncoder, frame resource.Frame) (resource.Frame, error) {
	if err := p.state.check("main"); err != nil {
		return resource.Frame{}, err
	}
	offscreen, err := p.pre.Perform(enc, frame)
	if err != nil {
		return resource.Frame{}, err
	}
	if _, err := p.basic.Perform(enc, resource.ViewHandle(offscreen.Get())); err != nil {
		return resource.Frame{}, err
	}
	return p.post.Perform(enc, frame)
}

// Refresh rebuilds every sub-pass against in. The live camera survives the rebuild.
func (p *MainPass) Refresh(config MainPassConfig, in resource.SwapchainDesc) (resource.SwapchainDesc, error) {
	if err := p.refreshable("main"); err != nil {
		return resource.SwapchainDesc{}, err
	}
	cam := config.Basic.Camera
	if p.basic != nil && config.Basic.Camera == p.config.Basic.Camera {
		cam = *p.basic.Camera()
	}
	out, err := rebuild(p, (*MainPass).Release, NewMainPass, p.core, config, in)
	if err != nil {
		return out, err
	}
	*p.basic.Camera() = cam
	logger.Logger().Info("main pass refreshed", "width", in.Width, "height", in.Height, "scale", config.Scale)
	return out, nil
}

// ClearCachesAndRefresh empties the shader, texture and model caches, then rebuilds every
// sub-pass so no GPU object from the old cache entries is referenced.
func (p *MainPass) ClearCachesAndRefresh(in resource.SwapchainDesc) (resource.SwapchainDesc, error) {
	if err := p.refreshable("main"); err != nil {
		return resource.SwapchainDesc{}, err
	}
	p.core.Shaders().Clear()
	p.core.Textures().Clear()
	p.core.Models().Clear()
	logger.Logger().Info("asset caches cleared")
	return p.Refresh(p.config, in)
}

// Release releases every sub-pass.
func (p *MainPass) Release() {
	if p.post != nil {
		p.post.Release()
	}
	if p.basic != nil {
		p.basic.Release()
	}
	if p.pre != nil {
		p.pre.Release()
	}
	p.state = stateReleased
}

// Config returns the config the pass was built with.
func (p *MainPass) Config() MainPassConfig {
	return p.config
}

// Descriptor returns the swapchain descriptor the pass was built for.
func (p *MainPass) Descriptor() resource.SwapchainDesc {
	return p.desc
}

// Pre returns the offscreen target pass.
func (p *MainPass) Pre() *PrePass {
	return p.pre
}

// Basic returns the model pass.
func (p *MainPass) Basic() *BasicPass {
	return p.basic
}

// Post returns the pass that composites onto the swapchain.
func (p *MainPass) Post() *PostPass {
	return p.post
}

package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/prism/engine/logger"
	"github.com/Carmen-Shannon/prism/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
	"github.com/Carmen-Shannon/prism/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/prism/engine/renderer/resource"
	"github.com/Carmen-Shannon/prism/engine/renderer/texture"
)

// PostPassConfig selects the texture the post pass composites onto the swapchain.
type PostPassConfig struct {
	// Source is the view sampled by the full-screen triangle. It is borrowed, never released.
	Source gpu.TextureView

	VertexShader   string
	FragmentShader string
}

// DefaultPostPassConfig returns a config sampling source with the stock post shaders.
func DefaultPostPassConfig(source gpu.TextureView) PostPassConfig {
	return PostPassConfig{Source: source, VertexShader: "post.vert", FragmentShader: "post.frag"}
}

// PostPass composites its source texture onto the swapchain frame with a full-screen triangle.
type PostPass struct {
	base
	config PostPassConfig
	desc   resource.SwapchainDesc

	sampler  gpu.Sampler
	group    bind_group_provider.BindGroupProvider
	pipeline pipeline.Pipeline
}

var _ Pass[PostPassConfig, resource.SwapchainDesc, resource.Frame, gpu.CommandEncoder, resource.SwapchainDesc, resource.Frame] = &PostPass{}

// NewPostPass builds the composite pipeline for the swapchain described by in.
//
// Parameters:
//   - core: the renderer core
//   - config: the pass config
//   - in: the swapchain descriptor
//
// Returns:
//   - *PostPass: the constructed pass
//   - resource.SwapchainDesc: in, unchanged
//   - error: error if a shader fails to load or creation fails
func NewPostPass(core Core, config PostPassConfig, in resource.SwapchainDesc) (*PostPass, resource.SwapchainDesc, error) {
	if config.Source == nil {
		return nil, resource.SwapchainDesc{}, fmt.Errorf("post pass: no source view")
	}
	p := &PostPass{base: base{core: core}, config: config, desc: in}
	if err := p.construct(); err != nil {
		p.Release()
		return nil, resource.SwapchainDesc{}, fmt.Errorf("post pass: %w", err)
	}
	p.state = stateReady
	logger.Logger().Debug("post pass constructed", "width", in.Width, "height", in.Height, "format", in.Format)
	return p, in, nil
}

func (p *PostPass) construct() error {
	device := p.core.Device()
	vs, err := p.core.Shaders().Load(p.config.VertexShader)
	if err != nil {
		return err
	}
	fs, err := p.core.Shaders().Load(p.config.FragmentShader)
	if err != nil {
		return err
	}

	p.sampler, err = device.CreateSampler(&gpu.SamplerDescriptor{
		Label:         "Post Sampler",
		AddressModeU:  gpu.AddressModeClampToEdge,
		AddressModeV:  gpu.AddressModeClampToEdge,
		AddressModeW:  gpu.AddressModeClampToEdge,
		MagFilter:     gpu.FilterModeLinear,
		MinFilter:     gpu.FilterModeLinear,
		MipmapFilter:  gpu.FilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("create sampler: %w", err)
	}

	p.group = bind_group_provider.NewBindGroupProvider("Post", texture.LayoutEntries(),
		bind_group_provider.WithTextureView(0, p.config.Source),
		bind_group_provider.WithSampler(1, p.sampler),
	)
	if err := p.group.Init(device); err != nil {
		return err
	}

	p.pipeline = pipeline.NewPipeline("Post Pipeline", p.desc.Format,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithBindGroupLayouts(p.group.BindGroupLayout()),
		pipeline.WithBlendEnabled(true),
		pipeline.WithBlendState(&gpu.BlendStateAlphaBlending),
	)
	return p.pipeline.Build(device)
}

// Perform draws the full-screen triangle over the frame, preserving its contents.
func (p *PostPass) Perform(enc gpu.CommandEncoder, frame resource.Frame) (resource.Frame, error) {
	if err := p.state.check("post"); err != nil {
		return resource.Frame{}, err
	}
	view := frame.View()
	if view == nil {
		return resource.Frame{}, fmt.Errorf("post pass: frame has no view")
	}
	rp, err := enc.BeginRenderPass(&gpu.RenderPassDescriptor{
		Label: "Post Pass",
		ColorAttachments: []gpu.RenderPassColorAttachment{{
			View:    view,
			LoadOp:  gpu.LoadOpLoad,
			StoreOp: gpu.StoreOpStore,
		}},
	})
	if err != nil {
		return resource.Frame{}, fmt.Errorf("post pass: begin: %w", err)
	}
	rp.SetPipeline(p.pipeline.RenderPipeline())
	rp.SetBindGroup(0, p.group.BindGroup())
	rp.Draw(3, 1, 0, 0)
	if err := endPass("post", rp); err != nil {
		return resource.Frame{}, err
	}
	return frame, nil
}

// Refresh reconstructs the pass against in, keeping the old pass if construction fails.
func (p *PostPass) Refresh(config PostPassConfig, in resource.SwapchainDesc) (resource.SwapchainDesc, error) {
	if err := p.refreshable("post"); err != nil {
		return resource.SwapchainDesc{}, err
	}
	return rebuild(p, (*PostPass).Release, NewPostPass, p.core, config, in)
}

// Release frees the pipeline, bind group and sampler. The pass cannot be performed afterwards.
func (p *PostPass) Release() {
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
	if p.group != nil {
		p.group.Release()
		p.group = nil
	}
	release(p.sampler)
	p.sampler = nil
	p.state = stateReleased
}

// Pipeline returns the render pipeline state.
func (p *PostPass) Pipeline() pipeline.Pipeline {
	return p.pipeline
}

// Source returns the sampled view.
func (p *PostPass) Source() gpu.TextureView {
	return p.config.Source
}

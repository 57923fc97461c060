package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/prism/common"
	"github.com/Carmen-Shannon/prism/engine/camera"
	"github.com/Carmen-Shannon/prism/engine/logger"
	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/Carmen-Shannon/prism/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
	"github.com/Carmen-Shannon/prism/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/prism/engine/renderer/resource"
)

const (
	// DepthFormat is the format of the basic pass depth buffer.
	DepthFormat = gpu.TextureFormatDepth32Float

	cameraBinding     = 0
	projectionBinding = 1
)

// ClearColor is the color the basic pass clears its attachment to.
var ClearColor = gpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1}

// basicVertexBuffers are the position, texcoord and normal streams, one buffer each.
var basicVertexBuffers = []gpu.VertexBufferLayout{
	{ArrayStride: 12, Attributes: []gpu.VertexAttribute{{Format: gpu.VertexFormatFloat32x3, ShaderLocation: 0}}},
	{ArrayStride: 8, Attributes: []gpu.VertexAttribute{{Format: gpu.VertexFormatFloat32x2, ShaderLocation: 1}}},
	{ArrayStride: 12, Attributes: []gpu.VertexAttribute{{Format: gpu.VertexFormatFloat32x3, ShaderLocation: 2}}},
}

// BasicPassConfig selects what the basic pass draws and how it projects it.
type BasicPassConfig struct {
	Model          model.Name
	Texture        string
	VertexShader   string
	FragmentShader string

	// FovY is the vertical field of view in degrees.
	FovY float32
	Near float32
	Far  float32

	// Camera is the initial camera. Refreshing with an unchanged Camera keeps the live one.
	Camera camera.GimbalCamera
}

// DefaultBasicPassConfig returns the config of the sandbox scene.
func DefaultBasicPassConfig() BasicPassConfig {
	return BasicPassConfig{
		Model:          model.Name{File: "torus.obj", Model: "Torus"},
		Texture:        "gray_marble.tif",
		VertexShader:   "basic.vert",
		FragmentShader: "basic.frag",
		FovY:           45,
		Near:           0.1,
		Far:            100,
		Camera:         camera.NewGimbalCamera(common.Vec3{0, 0, -5}, common.Vec3{}, common.Vec3{0, 1, 0}),
	}
}

// BasicPass renders one textured, lit model with a depth buffer into a color attachment.
type BasicPass struct {
	base
	config BasicPassConfig
	target resource.AttachmentDesc

	camera     camera.GimbalCamera
	projection camera.Projection

	depthDesc gpu.TextureDescriptor
	depth     gpu.Texture
	depthView gpu.TextureView

	uniforms     bind_group_provider.BindGroupProvider
	textureGroup gpu.BindGroup
	pipeline     pipeline.Pipeline
}

var _ Pass[BasicPassConfig, resource.AttachmentDesc, resource.AttachmentHandle, gpu.CommandEncoder, gpu.TextureDescriptor, resource.Borrow[gpu.Texture]] = &BasicPass{}

// NewBasicPass builds the basic pass targeting the attachment described by in.
//
// Parameters:
//   - core: the renderer core
//   - config: the pass config
//   - in: the color attachment descriptor, offscreen view or swapchain
//
// Returns:
//   - *BasicPass: the constructed pass
//   - gpu.TextureDescriptor: the depth buffer descriptor
//   - error: error if an asset fails to load, the model lacks an attribute, or creation fails
func NewBasicPass(core Core, config BasicPassConfig, in resource.AttachmentDesc) (*BasicPass, gpu.TextureDescriptor, error) {
	if !in.Valid() {
		return nil, gpu.TextureDescriptor{}, fmt.Errorf("basic pass: invalid attachment descriptor")
	}
	p := &BasicPass{
		base:       base{core: core},
		config:     config,
		target:     in,
		camera:     config.Camera,
		projection: camera.NewProjection(common.Radians(config.FovY), in.Aspect(), config.Near, config.Far),
	}
	if err := p.construct(); err != nil {
		p.Release()
		return nil, gpu.TextureDescriptor{}, fmt.Errorf("basic pass: %w", err)
	}
	p.state = stateReady
	logger.Logger().Debug("basic pass constructed", "target", in.String(), "model", config.Model.String())
	return p, p.depthDesc, nil
}

func (p *BasicPass) construct() error {
	core := p.core
	entry, err := core.Models().Load(p.config.Model)
	if err != nil {
		return err
	}
	if err := entry.RequireTexcoords(); err != nil {
		return err
	}
	if err := entry.RequireNormals(); err != nil {
		return err
	}

	tex, err := core.Textures().Load(p.config.Texture)
	if err != nil {
		return err
	}
	vs, err := core.Shaders().Load(p.config.VertexShader)
	if err != nil {
		return err
	}
	fs, err := core.Shaders().Load(p.config.FragmentShader)
	if err != nil {
		return err
	}

	p.uniforms = bind_group_provider.NewBindGroupProvider("Camera", []gpu.BindGroupLayoutEntry{
		{
			Binding:    cameraBinding,
			Visibility: gpu.ShaderStageVertex | gpu.ShaderStageFragment,
			Buffer:     gpu.BufferBindingLayout{Type: gpu.BufferBindingTypeUniform, MinBindingSize: camera.GPUCameraUniformSize},
		},
		{
			Binding:    projectionBinding,
			Visibility: gpu.ShaderStageVertex,
			Buffer:     gpu.BufferBindingLayout{Type: gpu.BufferBindingTypeUniform, MinBindingSize: camera.GPUProjectionUniformSize},
		},
	})
	if err := p.uniforms.Init(core.Device()); err != nil {
		return err
	}

	if p.textureGroup, err = core.Textures().BindGroup(tex); err != nil {
		return err
	}
	if err := p.createDepth(p.target); err != nil {
		return err
	}

	p.pipeline = pipeline.NewPipeline("Basic Pipeline", p.target.Format(),
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithVertexBuffers(basicVertexBuffers...),
		pipeline.WithBindGroupLayouts(p.uniforms.BindGroupLayout(), tex.Layout),
		pipeline.WithDepth(DepthFormat, gpu.CompareFunctionLess),
		pipeline.WithCullMode(gpu.CullModeBack),
		pipeline.WithFrontFace(gpu.FrontFaceCCW),
	)
	return p.pipeline.Build(core.Device())
}

// createDepth replaces the depth buffer with one sized to target. The old buffer is kept on failure.
func (p *BasicPass) createDepth(target resource.AttachmentDesc) error {
	desc := gpu.TextureDescriptor{
		Label:         "Depth Buffer",
		Size:          gpu.Extent3D{Width: target.Width(), Height: target.Height(), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Format:        DepthFormat,
		Usage:         gpu.TextureUsageRenderAttachment | gpu.TextureUsageTextureBinding,
	}
	tex, err := p.core.Device().CreateTexture(&desc)
	if err != nil {
		return fmt.Errorf("create depth texture: %w", err)
	}
	view, err := tex.CreateView()
	if err != nil {
		tex.Release()
		return fmt.Errorf("create depth view: %w", err)
	}
	release(p.depthView, p.depth)
	p.depthDesc, p.depth, p.depthView = desc, tex, view
	return nil
}

// Perform uploads the camera and projection, then draws the model into the attachment.
func (p *BasicPass) Perform(enc gpu.CommandEncoder, in resource.AttachmentHandle) (resource.Borrow[gpu.Texture], error) {
	if err := p.state.check("basic"); err != nil {
		return resource.Borrow[gpu.Texture]{}, err
	}
	target := in.View()
	if target == nil {
		return resource.Borrow[gpu.Texture]{}, fmt.Errorf("basic pass: attachment has no view")
	}

	err := bind_group_provider.WriteBuffers(p.core.Device().Queue(),
		bind_group_provider.BufferWrite{Provider: p.uniforms, Binding: cameraBinding, Data: p.camera.Bytes()},
		bind_group_provider.BufferWrite{Provider: p.uniforms, Binding: projectionBinding, Data: p.projection.Bytes()},
	)
	if err != nil {
		return resource.Borrow[gpu.Texture]{}, fmt.Errorf("basic pass: upload uniforms: %w", err)
	}

	entry, err := p.core.Models().Load(p.config.Model)
	if err != nil {
		return resource.Borrow[gpu.Texture]{}, fmt.Errorf("basic pass: %w", err)
	}
	if err := entry.RequireTexcoords(); err != nil {
		return resource.Borrow[gpu.Texture]{}, fmt.Errorf("basic pass: %w", err)
	}
	if err := entry.RequireNormals(); err != nil {
		return resource.Borrow[gpu.Texture]{}, fmt.Errorf("basic pass: %w", err)
	}

	rp, err := enc.BeginRenderPass(&gpu.RenderPassDescriptor{
		Label: "Basic Pass",
		ColorAttachments: []gpu.RenderPassColorAttachment{{
			View:       target,
			LoadOp:     gpu.LoadOpClear,
			StoreOp:    gpu.StoreOpStore,
			ClearValue: ClearColor,
		}},
		DepthStencilAttachment: &gpu.RenderPassDepthStencilAttachment{
			View:            p.depthView,
			DepthLoadOp:     gpu.LoadOpClear,
			DepthStoreOp:    gpu.StoreOpStore,
			DepthClearValue: 1,
		},
	})
	if err != nil {
		return resource.Borrow[gpu.Texture]{}, fmt.Errorf("basic pass: begin: %w", err)
	}
	rp.SetPipeline(p.pipeline.RenderPipeline())
	rp.SetBindGroup(0, p.uniforms.BindGroup())
	rp.SetBindGroup(1, p.textureGroup)
	rp.SetVertexBuffer(0, entry.Positions)
	rp.SetVertexBuffer(1, entry.Texcoords)
	rp.SetVertexBuffer(2, entry.Normals)
	rp.SetIndexBuffer(entry.Indices, gpu.IndexFormatUint32)
	rp.DrawIndexed(entry.VertexCount, 1, 0, 0, 0)
	if err := endPass("basic", rp); err != nil {
		return resource.Borrow[gpu.Texture]{}, err
	}
	return resource.Borrowed(&p.depth), nil
}

// Refresh rebuilds the pass. When only the attachment size changed, just the depth buffer and
// the projection aspect are rebuilt; any other change reconstructs the whole pass.
func (p *BasicPass) Refresh(config BasicPassConfig, in resource.AttachmentDesc) (gpu.TextureDescriptor, error) {
	if err := p.refreshable("basic"); err != nil {
		return gpu.TextureDescriptor{}, err
	}
	if p.state == stateReady && config == p.config && in.Valid() && in.Format() == p.target.Format() {
		if err := p.createDepth(in); err != nil {
			return gpu.TextureDescriptor{}, fmt.Errorf("basic pass: %w", err)
		}
		p.target = in
		p.projection.SetAspect(in.Aspect())
		logger.Logger().Debug("basic pass resized", "target", in.String())
		return p.depthDesc, nil
	}

	live, keep := p.camera, config.Camera == p.config.Camera
	out, err := rebuild(p, (*BasicPass).Release, NewBasicPass, p.core, config, in)
	if err != nil {
		return out, err
	}
	if keep {
		p.camera = live
	}
	return out, nil
}

// Release frees the pipeline, uniforms, texture bind group and depth buffer.
func (p *BasicPass) Release() {
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
	if p.uniforms != nil {
		p.uniforms.Release()
		p.uniforms = nil
	}
	release(p.textureGroup, p.depthView, p.depth)
	p.textureGroup, p.depthView, p.depth = nil, nil, nil
	p.state = stateReleased
}

// Camera returns the live camera. Mutations are uploaded by the next Perform.
func (p *BasicPass) Camera() *camera.GimbalCamera {
	return &p.camera
}

// Projection returns the live projection. Mutations are uploaded by the next Perform.
func (p *BasicPass) Projection() *camera.Projection {
	return &p.projection
}

// DepthDescriptor returns the depth buffer descriptor.
func (p *BasicPass) DepthDescriptor() gpu.TextureDescriptor {
	return p.depthDesc
}

// DepthTexture returns the depth buffer.
func (p *BasicPass) DepthTexture() gpu.Texture {
	return p.depth
}

// Pipeline returns the render pipeline state.
func (p *BasicPass) Pipeline() pipeline.Pipeline {
	return p.pipeline
}

// Target returns the color attachment descriptor the pass was built for.
func (p *BasicPass) Target() resource.AttachmentDesc {
	return p.target
}

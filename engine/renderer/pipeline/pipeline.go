package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
)

// pipeline is the implementation of the Pipeline interface.
// It holds the render pipeline state and, after Build, the GPU pipeline and its layout.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for labels and lookups
	pipelineKey string

	// the following shader references are required to be set before building a pipeline.

	vertexShader, fragmentShader shader.Shader

	// vertexBuffers describes the vertex streams, one layout per slot
	vertexBuffers []gpu.VertexBufferLayout
	// bindGroupLayouts are the layouts of the bind groups, in group index order
	bindGroupLayouts []gpu.BindGroupLayout
	// targetFormat is the color attachment format
	targetFormat gpu.TextureFormat

	// The following properties are used to configure the pipeline during creation and can be toggled/set with the builder options.

	depthFormat       gpu.TextureFormat
	depthWriteEnabled bool
	depthCompare      gpu.CompareFunction
	blendEnabled      bool
	cullMode          gpu.CullMode
	topology          gpu.PrimitiveTopology
	frontFace         gpu.FrontFace
	writeMask         gpu.ColorWriteMask
	blendState        *gpu.BlendState

	// layout and renderPipeline are created by Build
	layout         gpu.PipelineLayout
	renderPipeline gpu.RenderPipeline
}

// Pipeline defines the interface for a GPU render pipeline (vertex + fragment shaders).
// It holds all configuration state required for pipeline creation including depth, blend,
// cull, and topology settings, and owns the GPU pipeline once built.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the shader associated with the specified type if it exists, nil otherwise.
	//
	// Parameters:
	//   - shaderType: the type of shader to retrieve (vertex or fragment)
	//
	// Returns:
	//   - shader.Shader: the shader associated with the specified type, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// Descriptor assembles the creation descriptor from the configured state.
	// The Layout field is nil until Build has run.
	//
	// Returns:
	//   - gpu.RenderPipelineDescriptor: the descriptor
	Descriptor() gpu.RenderPipelineDescriptor

	// Build creates the pipeline layout and the render pipeline on device.
	//
	// Parameters:
	//   - device: the device to create on
	//
	// Returns:
	//   - error: error if a shader is missing or creation fails
	Build(device gpu.Device) error

	// RenderPipeline returns the built pipeline, or nil before Build.
	//
	// Returns:
	//   - gpu.RenderPipeline: the GPU pipeline
	RenderPipeline() gpu.RenderPipeline

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth writing is enabled, false otherwise
	DepthWriteEnabled() bool

	// DepthFormat returns the depth attachment format, gpu.TextureFormatUndefined when depth testing is off.
	//
	// Returns:
	//   - gpu.TextureFormat: the depth format
	DepthFormat() gpu.TextureFormat

	// BlendEnabled returns whether blending is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if blending is enabled, false otherwise
	BlendEnabled() bool

	// CullMode returns the cull mode configured for this pipeline.
	//
	// Returns:
	//   - gpu.CullMode: the cull mode for this pipeline
	CullMode() gpu.CullMode

	// Topology returns the primitive topology configured for this pipeline.
	//
	// Returns:
	//   - gpu.PrimitiveTopology: the primitive topology for this pipeline
	Topology() gpu.PrimitiveTopology

	// FrontFace returns the front face winding order configured for this pipeline.
	//
	// Returns:
	//   - gpu.FrontFace: the front face winding order for this pipeline
	FrontFace() gpu.FrontFace

	// WriteMask returns the color write mask configured for this pipeline.
	//
	// Returns:
	//   - gpu.ColorWriteMask: the color write mask for this pipeline
	WriteMask() gpu.ColorWriteMask

	// BlendState returns the blend state configured for this pipeline.
	//
	// Returns:
	//   - *gpu.BlendState: the blend state for this pipeline, or nil if blending is not enabled
	BlendState() *gpu.BlendState

	// Release frees the GPU pipeline and its layout.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new render Pipeline.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - targetFormat: the color attachment format
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, targetFormat gpu.TextureFormat, opts ...PipelineBuilderOption) Pipeline {
	blend := gpu.BlendStateAlphaBlending
	p := &pipeline{
		pipelineKey:       pipelineKey,
		targetFormat:      targetFormat,
		depthFormat:       gpu.TextureFormatUndefined,
		depthWriteEnabled: true,
		depthCompare:      gpu.CompareFunctionLess,
		blendEnabled:      false,
		cullMode:          gpu.CullModeNone,
		topology:          gpu.PrimitiveTopologyTriangleList,
		frontFace:         gpu.FrontFaceCCW,
		writeMask:         gpu.ColorWriteMaskAll,
		blendState:        &blend,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Descriptor() gpu.RenderPipelineDescriptor {
	desc := gpu.RenderPipelineDescriptor{
		Label:         p.pipelineKey,
		Layout:        p.layout,
		VertexBuffers: p.vertexBuffers,
		Primitive: gpu.PrimitiveState{
			Topology:  p.topology,
			FrontFace: p.frontFace,
			CullMode:  p.cullMode,
		},
		SampleCount: 1,
	}
	if p.vertexShader != nil {
		desc.Vertex = p.vertexShader.Stage()
	}
	if p.fragmentShader != nil {
		stage := p.fragmentShader.Stage()
		desc.Fragment = &stage
		target := gpu.ColorTargetState{Format: p.targetFormat, WriteMask: p.writeMask}
		if p.blendEnabled {
			target.Blend = p.blendState
		}
		desc.Targets = []gpu.ColorTargetState{target}
	}
	if p.depthFormat != gpu.TextureFormatUndefined {
		desc.DepthStencil = &gpu.DepthStencilState{
			Format:            p.depthFormat,
			DepthWriteEnabled: p.depthWriteEnabled,
			DepthCompare:      p.depthCompare,
		}
	}
	return desc
}

func (p *pipeline) Build(device gpu.Device) error {
	if p.vertexShader == nil {
		return fmt.Errorf("pipeline %q: no vertex shader", p.pipelineKey)
	}
	layout, err := device.CreatePipelineLayout(&gpu.PipelineLayoutDescriptor{
		Label:            p.pipelineKey + " Layout",
		BindGroupLayouts: p.bindGroupLayouts,
	})
	if err != nil {
		return err
	}
	p.layout = layout

	desc := p.Descriptor()
	rp, err := device.CreateRenderPipeline(&desc)
	if err != nil {
		p.layout.Release()
		p.layout = nil
		return err
	}
	p.renderPipeline = rp
	return nil
}

func (p *pipeline) RenderPipeline() gpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) DepthFormat() gpu.TextureFormat {
	return p.depthFormat
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() gpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() gpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() gpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() gpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *gpu.BlendState {
	if !p.blendEnabled {
		return nil
	}
	return p.blendState
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

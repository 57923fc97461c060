package pipeline

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
	"github.com/Carmen-Shannon/prism/engine/renderer/gpu/fakegpu"
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
)

type stubCompiler struct{}

func (stubCompiler) Compile(string, shader.ShaderType, string) ([]uint32, error) {
	return []uint32{0x07230203}, nil
}

func loadShaders(t *testing.T, dev gpu.Device) (shader.Shader, shader.Shader) {
	t.Helper()
	sc := shader.NewShaderCache(dev,
		shader.WithFS(fstest.MapFS{
			"t.vert": {Data: []byte("@vertex fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }")},
			"t.frag": {Data: []byte("@fragment fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }")},
		}),
		shader.WithCompiler(stubCompiler{}),
	)
	vs, err := sc.Load("t.vert")
	require.NoError(t, err)
	fs, err := sc.Load("t.frag")
	require.NoError(t, err)
	return vs, fs
}

func TestPipelineDefaults(t *testing.T) {
	p := NewPipeline("default", gpu.TextureFormatBGRA8Unorm)

	assert.Equal(t, "default", p.PipelineKey())
	assert.Equal(t, gpu.TextureFormatUndefined, p.DepthFormat())
	assert.True(t, p.DepthWriteEnabled())
	assert.False(t, p.BlendEnabled())
	assert.Nil(t, p.BlendState())
	assert.Equal(t, gpu.CullModeNone, p.CullMode())
	assert.Equal(t, gpu.PrimitiveTopologyTriangleList, p.Topology())
	assert.Equal(t, gpu.FrontFaceCCW, p.FrontFace())
	assert.Equal(t, gpu.ColorWriteMaskAll, p.WriteMask())
	assert.Nil(t, p.Shader(shader.ShaderTypeVertex))
	assert.Nil(t, p.RenderPipeline())

	desc := p.Descriptor()
	assert.Nil(t, desc.DepthStencil)
	assert.Nil(t, desc.Fragment)
	assert.Empty(t, desc.Targets)
}

func TestPipelineBuild(t *testing.T) {
	dev := fakegpu.New()
	vs, fs := loadShaders(t, dev)
	layout, err := dev.CreateBindGroupLayout(&gpu.BindGroupLayoutDescriptor{Label: "g0"})
	require.NoError(t, err)

	stream := gpu.VertexBufferLayout{
		ArrayStride: 12,
		Attributes:  []gpu.VertexAttribute{{Format: gpu.VertexFormatFloat32x3}},
	}
	p := NewPipeline("basic", gpu.TextureFormatRGBA16Float,
		WithVertexShader(vs),
		WithFragmentShader(fs),
		WithVertexBuffers(stream),
		WithBindGroupLayouts(layout),
		WithDepth(gpu.TextureFormatDepth32Float, gpu.CompareFunctionLess),
		WithCullMode(gpu.CullModeBack),
		WithBlendEnabled(true),
	)
	require.NoError(t, p.Build(dev))
	require.NotNil(t, p.RenderPipeline())
	assert.Equal(t, vs, p.Shader(shader.ShaderTypeVertex))
	assert.Equal(t, fs, p.Shader(shader.ShaderTypeFragment))

	built := p.RenderPipeline().(*fakegpu.RenderPipeline)
	desc := built.Desc
	assert.Equal(t, "vs_main", desc.Vertex.EntryPoint)
	require.NotNil(t, desc.Fragment)
	assert.Equal(t, "fs_main", desc.Fragment.EntryPoint)
	require.Len(t, desc.Targets, 1)
	assert.Equal(t, gpu.TextureFormatRGBA16Float, desc.Targets[0].Format)
	require.NotNil(t, desc.Targets[0].Blend)
	assert.Equal(t, gpu.BlendStateAlphaBlending, *desc.Targets[0].Blend)
	require.NotNil(t, desc.DepthStencil)
	assert.Equal(t, gpu.TextureFormatDepth32Float, desc.DepthStencil.Format)
	assert.Equal(t, gpu.CompareFunctionLess, desc.DepthStencil.DepthCompare)
	assert.Equal(t, gpu.CullModeBack, desc.Primitive.CullMode)
	assert.Equal(t, []gpu.VertexBufferLayout{stream}, desc.VertexBuffers)

	pl := desc.Layout.(*fakegpu.PipelineLayout)
	assert.Equal(t, []gpu.BindGroupLayout{layout}, pl.Desc.BindGroupLayouts)

	p.Release()
	assert.True(t, built.Released())
	assert.True(t, pl.Released())
	assert.Nil(t, p.RenderPipeline())
}

func TestPipelineBuildErrors(t *testing.T) {
	dev := fakegpu.New()
	assert.Error(t, NewPipeline("empty", gpu.TextureFormatBGRA8Unorm).Build(dev))

	vs, _ := loadShaders(t, dev)
	dev.FailOn("pipeline")
	p := NewPipeline("failing", gpu.TextureFormatBGRA8Unorm, WithVertexShader(vs))
	err := p.Build(dev)
	assert.ErrorIs(t, err, fakegpu.ErrInjected)
	assert.Empty(t, dev.Live("pipelinelayout"), "the layout is released when pipeline creation fails")
}

func TestPipelineOverlayOptions(t *testing.T) {
	dev := fakegpu.New()
	vs, fs := loadShaders(t, dev)

	p := NewPipeline("overlay", gpu.TextureFormatRGBA16Float,
		WithVertexShader(vs),
		WithFragmentShader(fs),
		WithTopology(gpu.PrimitiveTopologyLineList),
		WithWriteMask(gpu.ColorWriteMaskRed|gpu.ColorWriteMaskAlpha),
		WithDepth(gpu.TextureFormatDepth32Float, gpu.CompareFunctionLessEqual),
		WithDepthWriteEnabled(false),
	)

	desc := p.Descriptor()
	assert.Equal(t, gpu.PrimitiveTopologyLineList, desc.Primitive.Topology)
	require.Len(t, desc.Targets, 1)
	assert.Equal(t, gpu.ColorWriteMaskRed|gpu.ColorWriteMaskAlpha, desc.Targets[0].WriteMask)
	require.NotNil(t, desc.DepthStencil)
	assert.False(t, desc.DepthStencil.DepthWriteEnabled)
	assert.Equal(t, gpu.CompareFunctionLessEqual, desc.DepthStencil.DepthCompare)
}

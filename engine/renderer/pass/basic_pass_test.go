package pass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/prism/engine/camera"
	"github.com/Carmen-Shannon/prism/engine/errs"
	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
	"github.com/Carmen-Shannon/prism/engine/renderer/gpu/fakegpu"
	"github.com/Carmen-Shannon/prism/engine/renderer/resource"
)

func offscreen(w, h uint32) resource.AttachmentDesc {
	return resource.ViewAttachment(resource.TextureViewDesc{Label: "target", Width: w, Height: h, Format: OffscreenFormat})
}

// targetView creates a color view sized like desc.
func targetView(t *testing.T, c *testCore, desc resource.AttachmentDesc) gpu.TextureView {
	t.Helper()
	tex, err := c.dev.CreateTexture(&gpu.TextureDescriptor{
		Label:  "target",
		Size:   gpu.Extent3D{Width: desc.Width(), Height: desc.Height(), DepthOrArrayLayers: 1},
		Format: desc.Format(),
		Usage:  gpu.TextureUsageRenderAttachment,
	})
	require.NoError(t, err)
	view, err := tex.CreateView()
	require.NoError(t, err)
	return view
}

func TestBasicPassConstruct(t *testing.T) {
	c := newTestCore(t)
	bp, depth, err := NewBasicPass(c, DefaultBasicPassConfig(), offscreen(400, 300))
	require.NoError(t, err)

	assert.Equal(t, gpu.Extent3D{Width: 400, Height: 300, DepthOrArrayLayers: 1}, depth.Size)
	assert.Equal(t, DepthFormat, depth.Format)
	assert.Equal(t, depth, bp.DepthDescriptor())
	assert.InDelta(t, 400.0/300.0, bp.Projection().Aspect, 1e-6)

	p := bp.Pipeline()
	assert.Equal(t, gpu.CullModeBack, p.CullMode())
	assert.Equal(t, gpu.FrontFaceCCW, p.FrontFace())
	assert.Equal(t, gpu.PrimitiveTopologyTriangleList, p.Topology())
	assert.Equal(t, DepthFormat, p.DepthFormat())

	desc := p.RenderPipeline().(*fakegpu.RenderPipeline).Desc
	require.Len(t, desc.Targets, 1)
	assert.Equal(t, OffscreenFormat, desc.Targets[0].Format)
	require.Len(t, desc.VertexBuffers, 3)
	assert.Equal(t, gpu.VertexFormatFloat32x3, desc.VertexBuffers[0].Attributes[0].Format)
	assert.Equal(t, gpu.VertexFormatFloat32x2, desc.VertexBuffers[1].Attributes[0].Format)
	assert.EqualValues(t, 1, desc.VertexBuffers[1].Attributes[0].ShaderLocation)
	assert.EqualValues(t, 2, desc.VertexBuffers[2].Attributes[0].ShaderLocation)
	require.NotNil(t, desc.DepthStencil)
	assert.Equal(t, gpu.CompareFunctionLess, desc.DepthStencil.DepthCompare)
	assert.Len(t, desc.Layout.(*fakegpu.PipelineLayout).Desc.BindGroupLayouts, 2)
}

func TestBasicPassPerform(t *testing.T) {
	c := newTestCore(t)
	target := offscreen(64, 48)
	bp, _, err := NewBasicPass(c, DefaultBasicPassConfig(), target)
	require.NoError(t, err)
	view := targetView(t, c, target)
	pipelines := c.dev.Count("pipeline")

	bp.Camera().Zoom(0.5)
	enc := encoder(t, c)
	out, err := bp.Perform(enc, resource.ViewHandle(view))
	require.NoError(t, err)
	assert.False(t, out.IsOwned())
	assert.Equal(t, bp.DepthTexture(), out.Get())
	assert.Equal(t, pipelines, c.dev.Count("pipeline"), "perform creates no pipelines")

	require.Len(t, enc.Passes, 1)
	rp := enc.Passes[0]
	assert.True(t, rp.Ended)
	require.Len(t, rp.Desc.ColorAttachments, 1)
	color := rp.Desc.ColorAttachments[0]
	assert.Equal(t, view, color.View)
	assert.Equal(t, gpu.LoadOpClear, color.LoadOp)
	assert.Equal(t, ClearColor, color.ClearValue)
	require.NotNil(t, rp.Desc.DepthStencilAttachment)
	assert.Equal(t, gpu.LoadOpClear, rp.Desc.DepthStencilAttachment.DepthLoadOp)
	assert.Equal(t, float32(1), rp.Desc.DepthStencilAttachment.DepthClearValue)
	assert.Equal(t, gpu.Extent3D{Width: 64, Height: 48, DepthOrArrayLayers: 1}, viewSize(t, rp.Desc.DepthStencilAttachment.View))

	entry, err := c.models.Load(model.Name{File: "torus.obj", Model: "Torus"})
	require.NoError(t, err)

	ops := make([]string, 0, len(rp.Commands))
	for _, cmd := range rp.Commands {
		ops = append(ops, cmd.Op)
	}
	assert.Equal(t, []string{
		"SetPipeline", "SetBindGroup", "SetBindGroup",
		"SetVertexBuffer", "SetVertexBuffer", "SetVertexBuffer",
		"SetIndexBuffer", "DrawIndexed",
	}, ops)
	vbs := rp.Find("SetVertexBuffer")
	assert.Equal(t, entry.Positions, vbs[0].Args[0])
	assert.Equal(t, entry.Texcoords, vbs[1].Args[0])
	assert.Equal(t, entry.Normals, vbs[2].Args[0])
	assert.EqualValues(t, 2, vbs[2].Index)
	assert.Equal(t, []any{entry.Indices, gpu.IndexFormatUint32}, rp.Find("SetIndexBuffer")[0].Args)
	assert.Equal(t, []any{uint32(6), uint32(1), uint32(0), int32(0), uint32(0)}, rp.Find("DrawIndexed")[0].Args)

	groups := rp.Find("SetBindGroup")
	assert.EqualValues(t, 0, groups[0].Index)
	assert.EqualValues(t, 1, groups[1].Index)

	// The mutated camera and the projection are uploaded before the draw.
	assert.Equal(t, bp.Camera().Bytes(), bp.uniforms.Buffer(cameraBinding).(*fakegpu.Buffer).Snapshot())
	assert.Equal(t, bp.Projection().Bytes(), bp.uniforms.Buffer(projectionBinding).(*fakegpu.Buffer).Snapshot())
}

func TestBasicPassMissingAttribute(t *testing.T) {
	c := newTestCore(t)
	cfg := DefaultBasicPassConfig()
	cfg.Model = model.Name{File: "torus.obj", Model: "Bare"}

	_, _, err := NewBasicPass(c, cfg, offscreen(8, 8))
	assert.ErrorIs(t, err, errs.ErrMissingAttribute)
	assert.Zero(t, c.dev.Count("pipeline"))
	assert.Zero(t, c.dev.Count("texture"), "construction stops before allocating")
}

func TestBasicPassMissingAssets(t *testing.T) {
	for name, mutate := range map[string]func(*BasicPassConfig){
		"model file":    func(c *BasicPassConfig) { c.Model.File = "missing.obj" },
		"texture":       func(c *BasicPassConfig) { c.Texture = "missing.png" },
		"vertex shader": func(c *BasicPassConfig) { c.VertexShader = "missing.vert" },
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestCore(t)
			cfg := DefaultBasicPassConfig()
			mutate(&cfg)
			_, _, err := NewBasicPass(c, cfg, offscreen(8, 8))
			assert.ErrorIs(t, err, errs.ErrNotFound)
			assert.Empty(t, c.dev.Live("pipeline"))
		})
	}

	c := newTestCore(t)
	_, err := c.models.Load(model.Name{File: "torus.obj", Model: "Nope"})
	assert.ErrorIs(t, err, errs.ErrModelNotInFile)
}

func TestBasicPassConstructFailureReleases(t *testing.T) {
	c := newTestCore(t)
	c.dev.FailOn("pipeline")
	_, _, err := NewBasicPass(c, DefaultBasicPassConfig(), offscreen(8, 8))
	assert.ErrorIs(t, err, fakegpu.ErrInjected)

	assert.Empty(t, c.dev.Live("bindgroup"))
	assert.Empty(t, c.dev.Live("pipelinelayout"))
	// Only the cached texture is still alive, the depth buffer was released.
	assert.Len(t, c.dev.Live("texture"), 1)
}

func TestBasicPassResizeKeepsPipeline(t *testing.T) {
	c := newTestCore(t)
	cfg := DefaultBasicPassConfig()
	bp, _, err := NewBasicPass(c, cfg, offscreen(400, 300))
	require.NoError(t, err)
	pipe := bp.Pipeline().RenderPipeline()
	oldDepth := bp.DepthTexture()
	bp.Camera().GimbalLR(30)
	moved := *bp.Camera()

	depth, err := bp.Refresh(cfg, offscreen(1024, 512))
	require.NoError(t, err)
	assert.Equal(t, gpu.Extent3D{Width: 1024, Height: 512, DepthOrArrayLayers: 1}, depth.Size)
	assert.Same(t, pipe, bp.Pipeline().RenderPipeline(), "a size-only refresh keeps the pipeline")
	assert.True(t, oldDepth.(*fakegpu.Texture).Released())
	assert.InDelta(t, 2.0, bp.Projection().Aspect, 1e-6)
	assert.Equal(t, moved, *bp.Camera())
	assert.Equal(t, 1, c.dev.Count("pipeline"))
}

func TestBasicPassFormatChangeRebuilds(t *testing.T) {
	c := newTestCore(t)
	cfg := DefaultBasicPassConfig()
	bp, _, err := NewBasicPass(c, cfg, offscreen(400, 300))
	require.NoError(t, err)
	pipe := bp.Pipeline().RenderPipeline()
	bp.Camera().Zoom(0.25)
	moved := *bp.Camera()

	swap := resource.SwapchainAttachment(swapchain(640, 480))
	_, err = bp.Refresh(cfg, swap)
	require.NoError(t, err)
	assert.True(t, pipe.(*fakegpu.RenderPipeline).Released())
	desc := bp.Pipeline().RenderPipeline().(*fakegpu.RenderPipeline).Desc
	assert.Equal(t, gpu.TextureFormatBGRA8Unorm, desc.Targets[0].Format)
	assert.Equal(t, moved, *bp.Camera(), "the live camera survives a rebuild")
	assert.Len(t, c.dev.Live("pipeline"), 1)

	// Drawing straight into a swapchain frame.
	frame := acquire(t, c, swapchain(640, 480))
	enc := encoder(t, c)
	_, err = bp.Perform(enc, resource.FrameHandle(frame))
	require.NoError(t, err)
	assert.Equal(t, frame.View(), enc.Passes[0].Desc.ColorAttachments[0].View)
}

func TestBasicPassRefreshWithNewCamera(t *testing.T) {
	c := newTestCore(t)
	cfg := DefaultBasicPassConfig()
	bp, _, err := NewBasicPass(c, cfg, offscreen(400, 300))
	require.NoError(t, err)
	bp.Camera().Zoom(0.5)

	cfg.Camera = camera.NewGimbalCamera([3]float32{0, 3, -3}, [3]float32{}, [3]float32{0, 1, 0})
	_, err = bp.Refresh(cfg, offscreen(400, 300))
	require.NoError(t, err)
	assert.Equal(t, cfg.Camera, *bp.Camera(), "a new config camera replaces the live one")
}

func TestBasicPassRefreshDeterminism(t *testing.T) {
	c := newTestCore(t)
	cfg := DefaultBasicPassConfig()
	in := offscreen(320, 200)
	bp, first, err := NewBasicPass(c, cfg, in)
	require.NoError(t, err)

	again, err := bp.Refresh(cfg, in)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

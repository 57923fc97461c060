package pass

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/prism/engine/errs"
	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
	"github.com/Carmen-Shannon/prism/engine/renderer/gpu/fakegpu"
	"github.com/Carmen-Shannon/prism/engine/renderer/resource"
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
	"github.com/Carmen-Shannon/prism/engine/renderer/texture"
)

const sceneOBJ = `v -1 -1 0
v 1 -1 0
v 1 1 0
v -1 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 -1
o Torus
f 1/1/1 2/2/1 3/3/1 4/4/1
o Bare
f 1 2 3
`

const vertexSource = `@vertex
fn vs_main(@location(0) p: vec3<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(p, 1.0);
}`

const fragmentSource = `@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0);
}`

type stubCompiler struct{}

func (stubCompiler) Compile(string, shader.ShaderType, string) ([]uint32, error) {
	return []uint32{0x07230203}, nil
}

// testCore is a Core over a fake device and in-memory assets.
type testCore struct {
	dev      *fakegpu.Device
	shaders  shader.ShaderCache
	textures texture.TextureCache
	models   model.ModelCache
}

func (c *testCore) Device() gpu.Device             { return c.dev }
func (c *testCore) Shaders() shader.ShaderCache    { return c.shaders }
func (c *testCore) Textures() texture.TextureCache { return c.textures }
func (c *testCore) Models() model.ModelCache       { return c.models }

func newTestCore(t *testing.T) *testCore {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.SetNRGBA(0, 0, color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	dev := fakegpu.New()
	return &testCore{
		dev: dev,
		shaders: shader.NewShaderCache(dev, shader.WithCompiler(stubCompiler{}), shader.WithFS(fstest.MapFS{
			"basic.vert": {Data: []byte(vertexSource)},
			"basic.frag": {Data: []byte(fragmentSource)},
			"post.vert":  {Data: []byte(vertexSource)},
			"post.frag":  {Data: []byte(fragmentSource)},
		})),
		textures: texture.NewTextureCache(dev, texture.WithFS(fstest.MapFS{
			"gray_marble.tif": {Data: buf.Bytes()},
		})),
		models: model.NewModelCache(dev, model.WithFS(fstest.MapFS{
			"torus.obj": {Data: []byte(sceneOBJ)},
		})),
	}
}

func swapchain(w, h uint32) resource.SwapchainDesc {
	return resource.SwapchainDesc{Width: w, Height: h, Format: gpu.TextureFormatBGRA8Unorm, PresentMode: gpu.PresentModeMailbox}
}

// acquire returns a frame of a fake surface configured for desc.
func acquire(t *testing.T, c *testCore, desc resource.SwapchainDesc) resource.Frame {
	t.Helper()
	surface := fakegpu.NewSurface(c.dev)
	require.NoError(t, surface.Configure(gpu.SurfaceConfiguration{Width: desc.Width, Height: desc.Height, Format: desc.Format}))
	st, err := surface.Acquire()
	require.NoError(t, err)
	return resource.Frame{Texture: st, Desc: desc}
}

func encoder(t *testing.T, c *testCore) *fakegpu.CommandEncoder {
	t.Helper()
	enc, err := c.dev.CreateCommandEncoder("frame")
	require.NoError(t, err)
	return enc.(*fakegpu.CommandEncoder)
}

// viewSize returns the size of the texture behind a fake view.
func viewSize(t *testing.T, v gpu.TextureView) gpu.Extent3D {
	t.Helper()
	fv, ok := v.(*fakegpu.TextureView)
	require.True(t, ok, "view %T is not a fake view", v)
	return fv.Texture.Desc.Size
}

func TestUnconstructedPassesAreClosed(t *testing.T) {
	enc := &fakegpu.CommandEncoder{}

	_, err := (&PrePass{}).Perform(enc, resource.Frame{})
	assert.ErrorIs(t, err, errs.ErrClosed)
	_, err = (&BasicPass{}).Perform(enc, resource.AttachmentHandle{})
	assert.ErrorIs(t, err, errs.ErrClosed)
	_, err = (&PostPass{}).Perform(enc, resource.Frame{})
	assert.ErrorIs(t, err, errs.ErrClosed)
	_, err = (&MainPass{}).Perform(enc, resource.Frame{})
	assert.ErrorIs(t, err, errs.ErrClosed)

	_, err = (&PrePass{}).Refresh(PrePassConfig{Scale: 1}, swapchain(4, 4))
	assert.ErrorIs(t, err, errs.ErrClosed)
	_, err = (&MainPass{}).ClearCachesAndRefresh(swapchain(4, 4))
	assert.ErrorIs(t, err, errs.ErrClosed)
}

func TestReleasedPassIsClosed(t *testing.T) {
	c := newTestCore(t)
	desc := swapchain(64, 32)
	mp, _, err := NewMainPass(c, DefaultMainPassConfig(1), desc)
	require.NoError(t, err)

	mp.Release()
	_, err = mp.Perform(encoder(t, c), acquire(t, c, desc))
	assert.ErrorIs(t, err, errs.ErrClosed)
	assert.Empty(t, c.dev.Live("pipeline"))
	assert.Empty(t, c.dev.Live("pipelinelayout"))

	// Released sub-passes stay closed too.
	_, err = mp.Basic().Perform(encoder(t, c), resource.ViewHandle(&fakegpu.TextureView{}))
	assert.ErrorIs(t, err, errs.ErrClosed)
}

package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
	"github.com/Carmen-Shannon/prism/engine/renderer/gpu/fakegpu"
)

func TestBorrow(t *testing.T) {
	owned := Owned(3)
	assert.True(t, owned.IsOwned())
	assert.Equal(t, 3, owned.Get())

	v := 4
	borrowed := Borrowed(&v)
	assert.False(t, borrowed.IsOwned())
	v = 5
	assert.Equal(t, 5, borrowed.Get(), "a borrow observes the owner's storage")
}

func TestAttachmentDesc(t *testing.T) {
	var zero AttachmentDesc
	assert.False(t, zero.Valid())
	assert.Equal(t, float32(1), zero.Aspect())

	view := ViewAttachment(TextureViewDesc{Width: 400, Height: 300, Format: gpu.TextureFormatRGBA16Float})
	assert.True(t, view.Valid())
	assert.EqualValues(t, 400, view.Width())
	assert.Equal(t, gpu.TextureFormatRGBA16Float, view.Format())
	_, isSwap := view.Swapchain()
	assert.False(t, isSwap)
	assert.InDelta(t, 4.0/3.0, view.Aspect(), 1e-6)

	swap := SwapchainAttachment(SwapchainDesc{Width: 1920, Height: 1080, Format: gpu.TextureFormatBGRA8Unorm})
	d, ok := swap.Swapchain()
	assert.True(t, ok)
	assert.EqualValues(t, 1080, d.Height)
	assert.Equal(t, gpu.TextureFormatBGRA8Unorm, swap.Format())
	assert.Contains(t, swap.String(), "swapchain 1920x1080")
}

func TestAttachmentHandle(t *testing.T) {
	dev := fakegpu.New()
	surface := fakegpu.NewSurface(dev)
	assert.NoError(t, surface.Configure(gpu.SurfaceConfiguration{Width: 4, Height: 4, Format: gpu.TextureFormatBGRA8Unorm}))
	st, err := surface.Acquire()
	assert.NoError(t, err)

	frame := Frame{Texture: st, Desc: SwapchainDesc{Width: 4, Height: 4}}
	h := FrameHandle(frame)
	assert.Equal(t, st.View(), h.View())
	got, ok := h.Frame()
	assert.True(t, ok)
	assert.Equal(t, frame.Desc, got.Desc)

	var view gpu.TextureView = &fakegpu.TextureView{}
	vh := ViewHandle(view)
	assert.Equal(t, view, vh.View())
	_, ok = vh.Frame()
	assert.False(t, ok)

	assert.Equal(t, "swapchain", Swapchain.String())
	assert.Nil(t, Frame{}.View())
}

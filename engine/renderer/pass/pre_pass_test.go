package pass

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/prism/engine/renderer/gpu"
	"github.com/Carmen-Shannon/prism/engine/renderer/resource"
)

func TestPrePassDimensions(t *testing.T) {
	cases := []struct {
		name          string
		scale         float32
		in            resource.SwapchainDesc
		width, height uint32
	}{
		{"full", 1, swapchain(1920, 1080), 1920, 1080},
		{"half", 0.5, swapchain(800, 600), 400, 300},
		{"floor", 0.5, swapchain(801, 601), 400, 300},
		{"at least one texel", 0.1, swapchain(5, 3), 1, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestCore(t)
			p, desc, err := NewPrePass(c, PrePassConfig{Scale: tc.scale}, tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.width, desc.Width)
			assert.Equal(t, tc.height, desc.Height)
			assert.Equal(t, gpu.TextureFormatRGBA16Float, desc.Format)
			assert.Equal(t, desc, p.Descriptor())

			td := p.Texture().Descriptor()
			assert.Equal(t, gpu.Extent3D{Width: tc.width, Height: tc.height, DepthOrArrayLayers: 1}, td.Size)
			assert.Equal(t, gpu.TextureUsageRenderAttachment|gpu.TextureUsageTextureBinding, td.Usage)
		})
	}
}

func TestPrePassRejectsScale(t *testing.T) {
	c := newTestCore(t)
	for _, scale := range []float32{0, -0.5, 1.01, float32(math.NaN())} {
		_, _, err := NewPrePass(c, PrePassConfig{Scale: scale}, swapchain(100, 100))
		assert.Error(t, err, "scale %v", scale)
	}
	assert.Zero(t, c.dev.Count("texture"))
}

func TestPrePassPerformBorrowsView(t *testing.T) {
	c := newTestCore(t)
	desc := swapchain(16, 16)
	p, _, err := NewPrePass(c, PrePassConfig{Scale: 1}, desc)
	require.NoError(t, err)

	enc := encoder(t, c)
	out, err := p.Perform(enc, acquire(t, c, desc))
	require.NoError(t, err)
	assert.False(t, out.IsOwned())
	assert.Equal(t, p.View(), out.Get())
	assert.Empty(t, enc.Passes, "the pre pass records no GPU work")
}

func TestPrePassRefresh(t *testing.T) {
	c := newTestCore(t)
	cfg := PrePassConfig{Scale: 0.5}
	p, first, err := NewPrePass(c, cfg, swapchain(800, 600))
	require.NoError(t, err)
	oldTexture := p.Texture()

	again, err := p.Refresh(cfg, swapchain(800, 600))
	require.NoError(t, err)
	assert.Equal(t, first, again, "refresh with identical input yields an equal descriptor")
	assert.NotSame(t, oldTexture, p.Texture())
	assert.Len(t, c.dev.Live("texture"), 1)

	_, err = p.Refresh(PrePassConfig{Scale: 2}, swapchain(800, 600))
	assert.Error(t, err)
	assert.Equal(t, first, p.Descriptor(), "a failed refresh keeps the pass")
	assert.Len(t, c.dev.Live("texture"), 1)
}

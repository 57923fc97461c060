package prefetch

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/prism/engine/core"
	"github.com/Carmen-Shannon/prism/engine/errs"
	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/Carmen-Shannon/prism/engine/renderer/gpu/fakegpu"
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
)

type stubCompiler struct{}

func (stubCompiler) Compile(string, shader.ShaderType, string) ([]uint32, error) {
	return []uint32{0x07230203}, nil
}

func newTestCore(t *testing.T) core.Core {
	t.Helper()
	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	assets := fstest.MapFS{
		"shaders/basic.vert":       {Data: []byte("@vertex\nfn vs_main() {}\n")},
		"shaders/basic.frag":       {Data: []byte("@fragment\nfn fs_main() {}\n")},
		"textures/gray_marble.tif": {Data: img.Bytes()},
		"models/shapes.obj":        {Data: []byte("o A\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\no B\nv 0 0 1\nv 1 0 1\nv 0 1 1\nf 4 5 6\n")},
	}
	dev := fakegpu.New()
	c, err := core.NewCore(dev, fakegpu.NewSurface(dev), 64, 64,
		core.WithAssetsFS(assets), core.WithShaderOptions(shader.WithCompiler(stubCompiler{})))
	require.NoError(t, err)
	t.Cleanup(c.Shutdown)
	return c
}

func TestPrefetchLoadsEachAssetOnce(t *testing.T) {
	c := newTestCore(t)
	p := NewPrefetcher(c, WithWorkers(8))

	req := Request{
		Shaders:  []string{"basic.vert", "basic.frag", "basic.vert", "basic.vert", "basic.frag"},
		Textures: []string{"gray_marble.tif", "gray_marble.tif", "gray_marble.tif"},
		Models: []model.Name{
			{File: "shapes.obj", Model: "A"},
			{File: "shapes.obj", Model: "B"},
			{File: "shapes.obj", Model: "A"},
		},
	}
	require.NoError(t, p.Prefetch(t.Context(), req))

	assert.Equal(t, uint64(2), c.Shaders().Loads())
	assert.Equal(t, uint64(1), c.Textures().Loads())
	assert.Equal(t, uint64(1), c.Models().Loads(), "models sharing a file parse it once")
	names, ok := c.Models().Models("shapes.obj")
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B"}, names)
}

func TestPrefetchJoinsErrors(t *testing.T) {
	c := newTestCore(t)
	p := NewPrefetcher(c, WithWorkers(2), WithQueueSize(1))

	err := p.Prefetch(t.Context(), Request{
		Shaders:  []string{"basic.vert", "missing.vert"},
		Textures: []string{"missing.png"},
		Models:   []model.Name{{File: "shapes.obj", Model: "C"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.ErrorIs(t, err, errs.ErrModelNotInFile)
	assert.Contains(t, err.Error(), "prefetch shader missing.vert")
	assert.Contains(t, err.Error(), "prefetch texture missing.png")
	assert.Equal(t, 1, c.Shaders().Len(), "successful loads are kept")
}

func TestPrefetchCancelled(t *testing.T) {
	c := newTestCore(t)
	p := NewPrefetcher(c)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	err := p.Prefetch(ctx, Request{Shaders: []string{"basic.vert"}, Textures: []string{"gray_marble.tif"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, c.Shaders().Loads())
	assert.Zero(t, c.Textures().Loads())
}

func TestPrefetchEmptyRequest(t *testing.T) {
	p := NewPrefetcher(newTestCore(t))
	assert.NoError(t, p.Prefetch(t.Context(), Request{}))
}

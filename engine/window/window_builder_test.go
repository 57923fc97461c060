package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindowOptions(t *testing.T) {
	w := &engineWindow{width: 1280, height: 800, maxHeight: 2160}
	for _, opt := range []WindowBuilderOption{
		WithTitle("prism sandbox"),
		WithSize(1920, 0),
		WithSizeLimits(400, 300, 2560, 0),
	} {
		opt(w)
	}

	assert.Equal(t, "prism sandbox", w.title)
	assert.Equal(t, 1920, w.width)
	assert.Equal(t, 800, w.height, "zero keeps the default")
	assert.Equal(t, [4]int{400, 300, 2560, 2160}, [4]int{w.minWidth, w.minHeight, w.maxWidth, w.maxHeight})
}

func TestSizeClampsNegative(t *testing.T) {
	w := &engineWindow{}
	w.setSize(-1, 600)
	width, height := w.Size()
	assert.Zero(t, width)
	assert.Equal(t, uint32(600), height)
}

func TestRequestCloseStopsWithoutPlatformWindow(t *testing.T) {
	w := &engineWindow{}
	assert.False(t, w.IsRunning())
	w.RequestClose()
	assert.False(t, w.IsRunning())
	assert.Nil(t, w.SurfaceDescriptor())
	assert.Error(t, w.Close())
}

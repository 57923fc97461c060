package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Carmen-Shannon/prism/engine/logger"
)

func TestTickReportsPerInterval(t *testing.T) {
	var buf bytes.Buffer
	logger.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { logger.SetLogger(nil) })

	start := time.Unix(1000, 0)
	clock := start
	p := NewProfiler(time.Second)
	p.now = func() time.Time { return clock }
	p.lastTime = start

	for range 29 {
		clock = clock.Add(10 * time.Millisecond)
		assert.False(t, p.Tick())
	}
	p.Drop()
	p.Drop()

	clock = start.Add(time.Second)
	assert.True(t, p.Tick())
	assert.InDelta(t, 30.0, p.Last().FPS, 0.001)
	assert.Equal(t, 2, p.Last().Dropped)
	assert.Contains(t, buf.String(), "msg=profile")
	assert.Contains(t, buf.String(), "dropped=2")

	clock = clock.Add(10 * time.Millisecond)
	assert.False(t, p.Tick(), "a new interval starts after reporting")
}

func TestNewProfilerDefaultInterval(t *testing.T) {
	assert.Equal(t, time.Second, NewProfiler(0).updateInterval)
}

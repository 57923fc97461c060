// Package profiler reports frame rate and memory statistics through the engine logger.
package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/prism/engine/logger"
)

// Stats is one reporting interval's worth of measurements.
type Stats struct {
	FPS         float64
	Dropped     int
	HeapMB      float64
	AllocRateMB float64
	NumGC       uint32
	MaxPause    time.Duration
	SysMB       float64
}

// Profiler tracks frame rate, dropped frames and memory statistics.
type Profiler struct {
	now            func() time.Time
	frameCount     int
	droppedCount   int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Stats
}

// NewProfiler creates a Profiler reporting every interval. A non-positive interval means one second.
//
// Parameters:
//   - interval: the reporting interval
//
// Returns:
//   - *Profiler: the profiler
func NewProfiler(interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		now:            time.Now,
		lastTime:       time.Now(),
		updateInterval: interval,
	}
}

// Drop records a frame that was skipped.
func (p *Profiler) Drop() {
	p.droppedCount++
}

// Tick records a rendered frame. When the interval has elapsed it logs the interval's
// Stats at info level and starts a new interval.
//
// Returns:
//   - bool: true if stats were logged this tick
func (p *Profiler) Tick() bool {
	p.frameCount++
	current := p.now()
	elapsed := current.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	s := Stats{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		Dropped:     p.droppedCount,
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		NumGC:       p.memStats.NumGC,
		SysMB:       float64(p.memStats.Sys) / 1024 / 1024,
	}

	// PauseNs is a circular buffer of the last 256 pauses.
	start := p.lastGCCount
	if s.NumGC-start > 256 {
		start = s.NumGC - 256
	}
	for i := start; i < s.NumGC; i++ {
		if pause := time.Duration(p.memStats.PauseNs[i%256]); pause > s.MaxPause {
			s.MaxPause = pause
		}
	}

	logger.Logger().Info("profile",
		"fps", s.FPS,
		"dropped", s.Dropped,
		"heap_mb", s.HeapMB,
		"alloc_rate_mb", s.AllocRateMB,
		"gc", s.NumGC,
		"max_pause", s.MaxPause,
		"sys_mb", s.SysMB,
	)

	p.last = s
	p.frameCount = 0
	p.droppedCount = 0
	p.lastTime = current
	p.lastGCCount = s.NumGC
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Last returns the most recently logged Stats.
func (p *Profiler) Last() Stats {
	return p.last
}

// Package prefetch warms the asset caches concurrently before the first frame.
package prefetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/Carmen-Shannon/prism/engine/logger"
	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
	"github.com/Carmen-Shannon/prism/engine/renderer/texture"
)

// Caches is the set of asset caches a Prefetcher fills.
type Caches interface {
	Shaders() shader.ShaderCache
	Textures() texture.TextureCache
	Models() model.ModelCache
}

// Request lists the assets to load.
type Request struct {
	Shaders  []string
	Textures []string
	Models   []model.Name
}

// Len returns the number of assets in the request.
func (r Request) Len() int {
	return len(r.Shaders) + len(r.Textures) + len(r.Models)
}

// prefetcher is the implementation of the Prefetcher interface.
type prefetcher struct {
	caches      Caches
	workers     int
	queueSize   int
	idleTimeout time.Duration
	pool        worker.DynamicWorkerPool
}

// Prefetcher loads assets into the caches on a bounded worker pool.
type Prefetcher interface {
	// Prefetch loads every asset in req and waits for all of them.
	//
	// Parameters:
	//   - ctx: cancels loads that have not started yet
	//   - req: the assets to load
	//
	// Returns:
	//   - error: the joined load errors in request order, nil if every asset loaded
	Prefetch(ctx context.Context, req Request) error
}

var _ Prefetcher = &prefetcher{}

// NewPrefetcher creates a Prefetcher over caches.
//
// Parameters:
//   - caches: the caches to fill
//   - options: functional options (workers, queue size, idle timeout)
//
// Returns:
//   - Prefetcher: the prefetcher
func NewPrefetcher(caches Caches, options ...PrefetcherBuilderOption) Prefetcher {
	p := &prefetcher{
		caches:      caches,
		workers:     4,
		queueSize:   64,
		idleTimeout: 1 * time.Second,
	}
	for _, option := range options {
		option(p)
	}
	p.pool = worker.NewDynamicWorkerPool(p.workers, p.queueSize, p.idleTimeout)
	return p
}

func (p *prefetcher) Prefetch(ctx context.Context, req Request) error {
	jobs := make([]func() error, 0, req.Len())
	for _, name := range req.Shaders {
		jobs = append(jobs, func() error {
			if _, err := p.caches.Shaders().Load(name); err != nil {
				return fmt.Errorf("prefetch shader %s: %w", name, err)
			}
			return nil
		})
	}
	for _, name := range req.Textures {
		jobs = append(jobs, func() error {
			if _, err := p.caches.Textures().Load(name); err != nil {
				return fmt.Errorf("prefetch texture %s: %w", name, err)
			}
			return nil
		})
	}
	for _, name := range req.Models {
		jobs = append(jobs, func() error {
			if _, err := p.caches.Models().Load(name); err != nil {
				return fmt.Errorf("prefetch model %s: %w", name, err)
			}
			return nil
		})
	}

	start := time.Now()
	results := make([]error, len(jobs))
	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		p.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				if err := ctx.Err(); err != nil {
					results[i] = err
					return nil, nil
				}
				results[i] = job()
				return nil, nil
			},
		})
	}
	wg.Wait()

	err := errors.Join(results...)
	logger.Logger().Info("assets prefetched",
		"assets", len(jobs), "elapsed", time.Since(start), "failed", err != nil)
	return err
}

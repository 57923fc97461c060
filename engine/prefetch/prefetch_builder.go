package prefetch

import "time"

// PrefetcherBuilderOption is a functional option for configuring a Prefetcher.
type PrefetcherBuilderOption func(*prefetcher)

// WithWorkers sets the maximum number of concurrent loads. Values below 1 are ignored.
//
// Parameters:
//   - n: the worker count (default 4)
//
// Returns:
//   - PrefetcherBuilderOption: option function to apply
func WithWorkers(n int) PrefetcherBuilderOption {
	return func(p *prefetcher) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithQueueSize sets how many loads may wait for a free worker. Values below 1 are ignored.
//
// Parameters:
//   - n: the queue size (default 64)
//
// Returns:
//   - PrefetcherBuilderOption: option function to apply
func WithQueueSize(n int) PrefetcherBuilderOption {
	return func(p *prefetcher) {
		if n > 0 {
			p.queueSize = n
		}
	}
}

// WithIdleTimeout sets how long an idle worker lives before exiting.
//
// Parameters:
//   - d: the idle timeout (default 1s)
//
// Returns:
//   - PrefetcherBuilderOption: option function to apply
func WithIdleTimeout(d time.Duration) PrefetcherBuilderOption {
	return func(p *prefetcher) {
		if d > 0 {
			p.idleTimeout = d
		}
	}
}

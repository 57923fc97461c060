package watcher

import "sync"

// WatcherBuilderOption is a functional option for configuring a Watcher.
type WatcherBuilderOption func(*watcher)

// WithLocker holds l while cache entries are invalidated and the request is posted, so a
// frame sharing l never draws with an entry released underneath it.
//
// Parameters:
//   - l: the lock shared with the render loop
//
// Returns:
//   - WatcherBuilderOption: option function to apply
func WithLocker(l sync.Locker) WatcherBuilderOption {
	return func(w *watcher) {
		if l != nil {
			w.locker = l
		}
	}
}

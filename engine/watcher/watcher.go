// Package watcher invalidates cached assets when their files change on disk.
package watcher

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/Carmen-Shannon/prism/engine/logger"
	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
	"github.com/Carmen-Shannon/prism/engine/renderer/texture"
)

// Caches is the set of asset caches a Watcher invalidates.
type Caches interface {
	Shaders() shader.ShaderCache
	Textures() texture.TextureCache
	Models() model.ModelCache
}

// Dirs are the on-disk roots of the three caches. An empty entry is not watched.
type Dirs struct {
	Shaders  string
	Textures string
	Models   string
}

type root int

const (
	rootShaders root = iota
	rootTextures
	rootModels
)

// watcher is the implementation of the Watcher interface.
type watcher struct {
	fsw    *fsnotify.Watcher
	caches Caches
	roots  map[string]root
	locker sync.Locker

	requests chan struct{}
	done     chan struct{}
	wg       sync.WaitGroup
	closed   sync.Once
}

// Watcher reports asset changes as rebuild requests.
type Watcher interface {
	// Requests delivers one value per burst of changes. Pending requests coalesce.
	//
	// Returns:
	//   - <-chan struct{}: the request channel
	Requests() <-chan struct{}

	// Close stops watching. Safe to call more than once.
	//
	// Returns:
	//   - error: error if the underlying watcher fails to close
	Close() error
}

var _ Watcher = &watcher{}

// NewWatcher starts watching dirs. Writes, creates, removes and renames invalidate the
// matching cache entry; any shader change clears the whole shader cache since includes
// make shader dependencies transitive.
//
// Parameters:
//   - caches: the caches to invalidate
//   - dirs: the directories backing each cache
//   - options: functional options (locker)
//
// Returns:
//   - Watcher: the running watcher
//   - error: error if a directory cannot be watched
func NewWatcher(caches Caches, dirs Dirs, options ...WatcherBuilderOption) (Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: %w", err)
	}
	w := &watcher{
		fsw:      fsw,
		caches:   caches,
		roots:    make(map[string]root),
		locker:   noLocker{},
		requests: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	for _, option := range options {
		option(w)
	}
	for dir, r := range map[string]root{dirs.Shaders: rootShaders, dirs.Textures: rootTextures, dirs.Models: rootModels} {
		if dir == "" {
			continue
		}
		clean := filepath.Clean(dir)
		if err := fsw.Add(clean); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watcher: watch %s: %w", clean, err)
		}
		w.roots[clean] = r
	}

	w.wg.Add(1)
	go w.run()
	logger.Logger().Info("asset watcher started", "dirs", len(w.roots))
	return w, nil
}

func (w *watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Logger().Warn("asset watcher error", "error", err)
		}
	}
}

// handle invalidates the cache entry behind event and posts a request.
func (w *watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	r, name, ok := w.resolve(event.Name)
	if !ok {
		return
	}
	logger.Logger().Debug("asset changed", "path", event.Name, "op", event.Op.String())

	w.locker.Lock()
	defer w.locker.Unlock()
	switch r {
	case rootShaders:
		w.caches.Shaders().Clear()
	case rootTextures:
		w.caches.Textures().Invalidate(name)
	case rootModels:
		w.caches.Models().Invalidate(model.Name{File: name})
	}
	select {
	case w.requests <- struct{}{}:
	default:
	}
}

// resolve maps a path to its root and its slash separated name under that root.
func (w *watcher) resolve(path string) (root, string, bool) {
	path = filepath.Clean(path)
	for dir, r := range w.roots {
		rel, err := filepath.Rel(dir, path)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		return r, filepath.ToSlash(rel), true
	}
	return 0, "", false
}

type noLocker struct{}

func (noLocker) Lock()   {}
func (noLocker) Unlock() {}

func (w *watcher) Requests() <-chan struct{} {
	return w.requests
}

func (w *watcher) Close() error {
	var err error
	w.closed.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

// Package cache implements the generic memoizing asset cache shared by the shader,
// texture and model caches.
//
// Entries live in lock-sharded maps so loads of distinct keys never contend on a
// single mutex. The first load of a key runs the loader exactly once; concurrent
// callers for the same key block on that in-flight load and receive the same value
// (first writer wins). Failed loads are never cached.
package cache

import (
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// DefaultShardCount is the number of shards used when none is configured.
const DefaultShardCount = 16

// AssetCache is the contract every asset cache satisfies: load-by-name,
// invalidate-by-name and clear-all.
type AssetCache[N any, R any] interface {
	// Load returns the asset named n, loading it on first use.
	Load(n N) (R, error)

	// Invalidate removes n so the next Load rebuilds it.
	Invalidate(n N)

	// Clear empties the cache.
	Clear()
}

// Loader builds the value for a key on a cache miss.
type Loader[K comparable, V any] func(key K) (V, error)

// Hasher computes the shard hash of a key.
type Hasher[K any] func(K) uint64

// StringHasher computes the FNV-1a hash of a string key.
func StringHasher(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// cache is the implementation of the Cache interface.
type cache[K comparable, V any] struct {
	shards []*shard[K, V]
	mask   uint64

	loader  Loader[K, V]
	hasher  Hasher[K]
	keyName func(K) string
	onEvict func(K, V)

	group singleflight.Group

	loads  atomic.Uint64
	hits   atomic.Uint64
	misses atomic.Uint64
}

// shard is one lock domain of the cache.
type shard[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V

	// gens counts invalidations per key and epoch counts clears, so a load that
	// began before either can detect that its result is stale.
	gens  map[K]uint64
	epoch uint64
}

// Cache is a concurrent memoizing map from keys to loaded assets.
type Cache[K comparable, V any] interface {
	AssetCache[K, V]

	// Peek returns the cached value for key without loading it.
	//
	// Parameters:
	//   - key: the key to look up
	//
	// Returns:
	//   - V: the cached value, or the zero value
	//   - bool: true if the key was cached
	Peek(key K) (V, bool)

	// Len returns the number of cached entries.
	Len() int

	// Keys returns the cached keys in no particular order.
	Keys() []K

	// Loads returns how many times the loader has been invoked. Tests use it to
	// verify that a hit performs no decode, compile or upload work.
	Loads() uint64

	// Stats returns the hit and miss counters.
	Stats() (hits, misses uint64)
}

var _ Cache[string, int] = &cache[string, int]{}

// New creates a Cache backed by loader.
//
// Parameters:
//   - loader: builds the value for a key on a miss
//   - options: functional options (shard count, hasher, eviction hook)
//
// Returns:
//   - Cache[K, V]: the empty cache
func New[K comparable, V any](loader Loader[K, V], options ...Option[K, V]) Cache[K, V] {
	c := &cache[K, V]{
		loader:  loader,
		keyName: func(k K) string { return fmt.Sprint(k) },
	}
	cfg := &config[K, V]{shardCount: DefaultShardCount}
	for _, opt := range options {
		opt(cfg)
	}
	shardCount := nextPowerOfTwo(cfg.shardCount)
	c.onEvict = cfg.onEvict
	if cfg.keyName != nil {
		c.keyName = cfg.keyName
	}
	c.hasher = cfg.hasher
	if c.hasher == nil {
		c.hasher = func(k K) uint64 { return StringHasher(c.keyName(k)) }
	}

	c.shards = make([]*shard[K, V], shardCount)
	for i := range c.shards {
		c.shards[i] = &shard[K, V]{
			items: make(map[K]V),
			gens:  make(map[K]uint64),
		}
	}
	c.mask = uint64(shardCount - 1)
	return c
}

func (c *cache[K, V]) shard(key K) *shard[K, V] {
	return c.shards[c.hasher(key)&c.mask]
}

func (c *cache[K, V]) Load(key K) (V, error) {
	s := c.shard(key)

	s.mu.RLock()
	v, ok := s.items[key]
	s.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return v, nil
	}
	c.misses.Add(1)

	res, err, _ := c.group.Do(c.keyName(key), func() (any, error) {
		return c.loadSlow(s, key)
	})
	if err != nil {
		var zero V
		return zero, err
	}
	v, _ = res.(V)
	return v, nil
}

// loadSlow runs the loader for key and publishes the result unless the key was
// invalidated or the cache cleared while the loader ran, in which case it loads again.
func (c *cache[K, V]) loadSlow(s *shard[K, V], key K) (V, error) {
	for {
		s.mu.RLock()
		v, ok := s.items[key]
		gen, epoch := s.gens[key], s.epoch
		s.mu.RUnlock()
		if ok {
			return v, nil
		}

		c.loads.Add(1)
		v, err := c.loader(key)
		if err != nil {
			return v, err
		}

		s.mu.Lock()
		if s.gens[key] == gen && s.epoch == epoch {
			s.items[key] = v
			s.mu.Unlock()
			return v, nil
		}
		s.mu.Unlock()

		if c.onEvict != nil {
			c.onEvict(key, v)
		}
	}
}

func (c *cache[K, V]) Invalidate(key K) {
	s := c.shard(key)

	s.mu.Lock()
	v, ok := s.items[key]
	delete(s.items, key)
	s.gens[key]++
	s.mu.Unlock()

	if ok && c.onEvict != nil {
		c.onEvict(key, v)
	}
}

func (c *cache[K, V]) Clear() {
	type evicted struct {
		key K
		val V
	}
	var out []evicted

	for _, s := range c.shards {
		s.mu.Lock()
		if c.onEvict != nil {
			for k, v := range s.items {
				out = append(out, evicted{k, v})
			}
		}
		s.items = make(map[K]V)
		s.gens = make(map[K]uint64)
		s.epoch++
		s.mu.Unlock()
	}

	for _, e := range out {
		c.onEvict(e.key, e.val)
	}
}

func (c *cache[K, V]) Peek(key K) (V, bool) {
	s := c.shard(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

func (c *cache[K, V]) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.RLock()
		n += len(s.items)
		s.mu.RUnlock()
	}
	return n
}

func (c *cache[K, V]) Keys() []K {
	var keys []K
	for _, s := range c.shards {
		s.mu.RLock()
		for k := range s.items {
			keys = append(keys, k)
		}
		s.mu.RUnlock()
	}
	return keys
}

func (c *cache[K, V]) Loads() uint64 {
	return c.loads.Load()
}

func (c *cache[K, V]) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// nextPowerOfTwo rounds n up to a power of two, with a minimum of 1.
func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

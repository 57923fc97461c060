package cache

// config collects the options applied by New.
type config[K comparable, V any] struct {
	shardCount int
	hasher     Hasher[K]
	keyName    func(K) string
	onEvict    func(K, V)
}

// Option is a functional option for configuring a Cache.
type Option[K comparable, V any] func(*config[K, V])

// WithShardCount sets the number of lock shards. The value is rounded up to a power of two.
//
// Parameters:
//   - n: the desired shard count
//
// Returns:
//   - Option[K, V]: option function to apply
func WithShardCount[K comparable, V any](n int) Option[K, V] {
	return func(c *config[K, V]) {
		c.shardCount = n
	}
}

// WithHasher sets the function used to pick a key's shard.
//
// Parameters:
//   - h: the hash function
//
// Returns:
//   - Option[K, V]: option function to apply
func WithHasher[K comparable, V any](h Hasher[K]) Option[K, V] {
	return func(c *config[K, V]) {
		c.hasher = h
	}
}

// WithKeyName sets how a key is rendered to the string used to deduplicate
// in-flight loads. Two distinct keys must never render to the same string.
// Defaults to fmt.Sprint.
//
// Parameters:
//   - f: the key rendering function
//
// Returns:
//   - Option[K, V]: option function to apply
func WithKeyName[K comparable, V any](f func(K) string) Option[K, V] {
	return func(c *config[K, V]) {
		c.keyName = f
	}
}

// WithOnEvict registers a hook called with every value removed by Invalidate or
// Clear, and with load results discarded because they went stale mid-load. Caches
// of GPU objects use it to release them.
//
// Parameters:
//   - f: the eviction hook
//
// Returns:
//   - Option[K, V]: option function to apply
func WithOnEvict[K comparable, V any](f func(K, V)) Option[K, V] {
	return func(c *config[K, V]) {
		c.onEvict = f
	}
}

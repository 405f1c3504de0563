package waitmap

import "hash/maphash"

// config holds the construction-time parameters for a Map: hashing strategy
// and shard count. Both are constructor parameters, never global state.
type config struct {
	shardCount int
	seed       maphash.Seed
	seedSet    bool
}

// Option configures a Map at construction time. See [WithShardCount] and
// [WithSeed].
type Option func(*config)

// WithShardCount overrides the number of independently-locked partitions a
// Map uses. It is rounded up to the next power of two; n <= 0 is ignored
// (the default is kept).
func WithShardCount(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.shardCount = n
		}
	}
}

// WithSeed overrides the hash seed used to assign keys to shards. The
// default is a fresh, process-randomized seed from [maphash.MakeSeed],
// matching the process-randomized default hasher this container's design is
// modelled on. Providing a fixed seed is mainly useful for reproducing a
// specific shard assignment in tests.
func WithSeed(seed maphash.Seed) Option {
	return func(c *config) {
		c.seed = seed
		c.seedSet = true
	}
}

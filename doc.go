// Package waitmap implements a concurrent associative container with
// suspendable retrieval: a sharded key/value store in which callers may
// asynchronously wait for a key that is not yet present, and are resumed
// once a writer inserts it.
//
// See also [github.com/joeycumines/go-longpoll] and
// [github.com/joeycumines/go-microbatch], for related channel-oriented
// waiting primitives in this family; this package solves a different
// problem (per-key suspension inside a map slot) with a similar taste for
// small, dependency-light concurrency building blocks.
package waitmap

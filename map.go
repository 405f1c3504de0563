package waitmap

import (
	"context"
	"hash/maphash"

	"github.com/joeycumines/go-waitmap/internal/shardmap"
)

// Map is a sharded, concurrent key/value store supporting suspendable
// retrieval: [Map.Wait] and [Map.WaitMut] block until the requested key is
// filled or the caller's context is cancelled.
//
// The zero value is not usable; construct one with [New].
type Map[K comparable, V any] struct {
	data *shardmap.Map[K, *slot[V]]
}

// New constructs a Map. opts configures the shard count and hash seed; see
// [WithShardCount] and [WithSeed]. With no options, the shard count scales
// with [runtime.GOMAXPROCS] and the hash seed is process-randomized.
func New[K comparable, V any](opts ...Option) *Map[K, V] {
	cfg := config{shardCount: shardmap.DefaultShardCount()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.seedSet {
		cfg.seed = maphash.MakeSeed()
	}
	return &Map[K, V]{data: shardmap.New[K, *slot[V]](cfg.shardCount, cfg.seed)}
}

// Insert places v at k. If k previously mapped to a value, that value is
// returned with replaced == true and no waiter is woken (invariant: a
// filled slot carries no wakerSet). If k was absent, v is stored and
// (zero, false) is returned. If k was a waiting placeholder (one or more
// callers are blocked in Wait/WaitMut on it), v is stored in its place and
// every waiter is woken — after the shard lock is released, so a waiter
// resumed on the same goroutine or shard cannot deadlock against it.
func (m *Map[K, V]) Insert(k K, v V) (old V, replaced bool) {
	sh := m.data.Shard(k)
	sh.Lock()

	s, ok := sh.Get(k)
	if !ok {
		sh.Set(k, filledSlot[V](v))
		sh.Unlock()
		return old, false
	}

	if s.filled {
		old = s.value
		s.value = v
		sh.Unlock()
		return old, true
	}

	woken := s.fill(v)
	sh.Unlock()
	woken.drainAndSend(true)
	return old, false
}

// Get returns a read guard for k's value, if k maps to a filled slot. A
// waiting placeholder is reported as absent, per invariant 3: callers never
// observe a Waiting slot through Get. The returned Ref must be released
// with [Ref.Release] once the caller is done with the value.
func (m *Map[K, V]) Get(k K) (Ref[K, V], bool) {
	sh := m.data.Shard(k)
	sh.RLock()
	s, ok := sh.Get(k)
	if ok && s.filled {
		return Ref[K, V]{shard: sh, value: s.value}, true
	}
	sh.RUnlock()
	return Ref[K, V]{}, false
}

// GetMut returns a write guard for k's value, if k maps to a filled slot. As
// Get, but exclusive, and a waiting placeholder is reported as absent. The
// returned RefMut must be released with [RefMut.Release].
func (m *Map[K, V]) GetMut(k K) (RefMut[K, V], bool) {
	sh := m.data.Shard(k)
	sh.Lock()
	s, ok := sh.Get(k)
	if ok && s.filled {
		return RefMut[K, V]{shard: sh, slot: s}, true
	}
	sh.Unlock()
	return RefMut[K, V]{}, false
}

// Wait returns a read guard for k's value once it becomes available,
// suspending the calling goroutine until then. If k is already absent or
// waiting, a placeholder is created (or joined, if other waiters are
// already registered — all waiters on one key share a single placeholder
// slot, each with its own channel in its wakerSet, and are woken together). If ctx is cancelled before k is filled, Wait
// returns (zero Ref, false); this is indistinguishable from the key having
// been cancelled out from under it via [Map.Cancel] or [Map.CancelAll], by
// design (see §9 of the design notes: every public operation here is
// boolean/option shaped, never fallible).
func (m *Map[K, V]) Wait(ctx context.Context, k K) (Ref[K, V], bool) {
	sh := m.data.Shard(k)
	sh.Lock()

	s, ok := sh.Get(k)
	if !ok {
		s = waitingSlot[V]()
		sh.Set(k, s)
	}

	if s.filled {
		sh.Unlock()
		sh.RLock()
		if s, ok := sh.Get(k); ok && s.filled {
			return Ref[K, V]{shard: sh, value: s.value}, true
		}
		sh.RUnlock()
		return Ref[K, V]{}, false
	}

	ch, idx := registerWaiter(&s.waiters)
	sh.Unlock()

	if !awaitSignal(ctx, ch, func() { removeWaiter(sh, k, idx) }) {
		return Ref[K, V]{}, false
	}

	sh.RLock()
	if s, ok := sh.Get(k); ok && s.filled {
		return Ref[K, V]{shard: sh, value: s.value}, true
	}
	sh.RUnlock()
	return Ref[K, V]{}, false
}

// WaitMut is identical to [Map.Wait] except it resolves to an exclusive
// write guard rather than downgrading to a shared one: the slot's state
// machine transition is the same, but the lock pinned by the returned
// RefMut is always the shard's write lock. As with Wait, no shard lock is
// held while the caller is blocked.
func (m *Map[K, V]) WaitMut(ctx context.Context, k K) (RefMut[K, V], bool) {
	sh := m.data.Shard(k)
	sh.Lock()

	s, ok := sh.Get(k)
	if !ok {
		s = waitingSlot[V]()
		sh.Set(k, s)
	}

	if s.filled {
		return RefMut[K, V]{shard: sh, slot: s}, true
	}

	ch, idx := registerWaiter(&s.waiters)
	sh.Unlock()

	if !awaitSignal(ctx, ch, func() { removeWaiter(sh, k, idx) }) {
		return RefMut[K, V]{}, false
	}

	sh.Lock()
	if s, ok := sh.Get(k); ok && s.filled {
		return RefMut[K, V]{shard: sh, slot: s}, true
	}
	sh.Unlock()
	return RefMut[K, V]{}, false
}

// TakeWait waits for k to become filled, exactly like [Map.Wait], then
// atomically removes it, returning the value by ownership instead of a
// borrowed guard. Among any number of concurrent TakeWait (or TakeWait vs.
// a racing [Entry] removal) calls for the same key, exactly one observes
// the value and performs the removal; the rest resolve to (zero, false), as
// if the key had never been filled for them. This is the "wait_then_remove"
// operation from the design notes, resolving Filled -> Absent rather than
// Waiting -> Filled. A filled slot carries no waiters, so there is nothing
// left to drain here: the other callers woken by the same fill re-read the
// slot, find it gone, and resolve to false.
func (m *Map[K, V]) TakeWait(ctx context.Context, k K) (V, bool) {
	sh := m.data.Shard(k)
	sh.Lock()

	s, ok := sh.Get(k)
	if !ok {
		s = waitingSlot[V]()
		sh.Set(k, s)
	}

	if s.filled {
		value := s.value
		sh.Delete(k)
		sh.Unlock()
		return value, true
	}

	ch, idx := registerWaiter(&s.waiters)
	sh.Unlock()

	if !awaitSignal(ctx, ch, func() { removeWaiter(sh, k, idx) }) {
		var zero V
		return zero, false
	}

	sh.Lock()
	if s, ok := sh.Get(k); ok && s.filled {
		value := s.value
		sh.Delete(k)
		sh.Unlock()
		return value, true
	}
	sh.Unlock()
	var zero V
	return zero, false
}

// Cancel removes k's slot if and only if it is a waiting placeholder,
// resolving every waiter registered on it to false. Returns true iff such a
// slot was removed. A filled slot is never touched: Cancel on a present
// value is a no-op that returns false, matching the neutrality law in the
// original spec.
func (m *Map[K, V]) Cancel(k K) bool {
	sh := m.data.Shard(k)
	sh.Lock()

	s, ok := sh.Get(k)
	if !ok || s.filled {
		sh.Unlock()
		return false
	}

	woken := s.waiters
	s.waiters = nil
	sh.Delete(k)
	sh.Unlock()

	woken.drainAndSend(false)
	return true
}

// CancelAll sweeps every shard, removing every waiting placeholder and
// resolving its waiters to false. Filled slots are untouched. Each shard's
// waiting slots are deleted, and their wakerSets taken, while that shard
// alone is locked; the taken waiters are woken right after that shard's lock
// is released. A waiter woken mid-sweep therefore never observes a waiting
// slot with an already-emptied wakerSet still present in the map: by the
// time any waiter can re-acquire the shard lock, CancelAll has already
// deleted the entry.
func (m *Map[K, V]) CancelAll() {
	shards := m.data.Shards()
	for i := range shards {
		sh := &shards[i]
		var pending []wakerSet

		sh.Lock()
		sh.Range(func(k K, s *slot[V]) bool {
			if !s.filled {
				pending = append(pending, s.waiters)
				s.waiters = nil
				sh.Delete(k)
			}
			return true
		})
		sh.Unlock()

		for _, woken := range pending {
			woken.drainAndSend(false)
		}
	}
}

// Len returns the number of filled slots across the whole map. Waiting
// placeholders are never counted, per invariant 5.
func (m *Map[K, V]) Len() int {
	shards := m.data.Shards()
	var n int
	for i := range shards {
		sh := &shards[i]
		sh.RLock()
		sh.Range(func(_ K, s *slot[V]) bool {
			if s.filled {
				n++
			}
			return true
		})
		sh.RUnlock()
	}
	return n
}

// removeWaiter performs the drop-time cleanup owed by a cancelled waiter:
// if k's slot still exists and is not yet filled, its stub at idx is
// tombstoned. Safe to call even if the slot has since been filled or
// removed entirely.
func removeWaiter[K comparable, V any](sh *shardmap.Shard[K, *slot[V]], k K, idx int) {
	sh.Lock()
	if s, ok := sh.Get(k); ok && !s.filled {
		s.waiters.remove(idx)
	}
	sh.Unlock()
}

package waitmap

import "github.com/joeycumines/go-waitmap/internal/shardmap"

// Ref is a borrowed, read-only view of a filled slot's value. It pins the
// containing shard's read lock for its lifetime: other writers to that
// shard block until Release is called. Release must be called exactly once
// on every Ref obtained from the map; a zero-value Ref is invalid and
// Release on it is a no-op.
type Ref[K comparable, V any] struct {
	shard *shardmap.Shard[K, *slot[V]]
	value V
}

// Valid reports whether this Ref still holds an active read lock.
func (r *Ref[K, V]) Valid() bool { return r.shard != nil }

// Value returns the borrowed value. Must only be called on a valid Ref.
func (r *Ref[K, V]) Value() V { return r.value }

// Release releases the read lock pinned by this Ref. Safe to call more than
// once; only the first call has an effect.
func (r *Ref[K, V]) Release() {
	if r.shard == nil {
		return
	}
	r.shard.RUnlock()
	r.shard = nil
}

// RefMut is a borrowed, exclusive view of a filled slot's value. It pins the
// containing shard's write lock for its lifetime: no other reader or writer
// of that shard proceeds until Release is called.
type RefMut[K comparable, V any] struct {
	shard *shardmap.Shard[K, *slot[V]]
	slot  *slot[V]

	// afterRelease, if set, runs immediately after the write lock is
	// released. Used by the Entry API's vacant-with-pending-waiters
	// insertion path, where the drain-and-wake of the previous wakerSet
	// must happen strictly after the shard lock is released (see §4.2),
	// but the lock itself is handed off to the caller as this RefMut.
	afterRelease func()
}

// Valid reports whether this RefMut still holds an active write lock.
func (r *RefMut[K, V]) Valid() bool { return r.shard != nil }

// Value returns the current value.
func (r *RefMut[K, V]) Value() V { return r.slot.value }

// Set overwrites the value in place. Does not affect any waiters — by
// invariant, a slot reachable via RefMut is already filled, so there are
// none to wake.
func (r *RefMut[K, V]) Set(v V) { r.slot.value = v }

// Release releases the write lock pinned by this RefMut. Safe to call more
// than once; only the first call has an effect.
func (r *RefMut[K, V]) Release() {
	if r.shard == nil {
		return
	}
	sh := r.shard
	after := r.afterRelease
	r.shard = nil
	r.afterRelease = nil
	sh.Unlock()
	if after != nil {
		after()
	}
}

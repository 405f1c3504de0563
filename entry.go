package waitmap

import "github.com/joeycumines/go-waitmap/internal/shardmap"

type entryState int

const (
	entryOccupied entryState = iota
	entryReallyVacant
	entryWaitingVacant
)

// Entry is a handle into a single map slot, obtained from [Map.Entry],
// holding the containing shard's write lock until a terminal method is
// called (or [Entry.Release] is called explicitly). It mirrors a standard
// map's entry API, with one twist: a slot that is a waiting placeholder
// (one or more callers are blocked in Wait/WaitMut on it) surfaces as
// vacant-with-pending-waiters rather than occupied, and inserting through
// it performs the Waiting -> Filled transition, waking those callers.
type Entry[K comparable, V any] struct {
	shard    *shardmap.Shard[K, *slot[V]]
	key      K
	state    entryState
	slot     *slot[V] // valid when state is entryOccupied or entryWaitingVacant
	released bool
}

// Key returns the key this entry was obtained for.
func (e *Entry[K, V]) Key() K { return e.key }

// Occupied reports whether the entry's slot currently holds a value.
func (e *Entry[K, V]) Occupied() bool { return e.state == entryOccupied }

// Get returns the entry's current value, if occupied.
func (e *Entry[K, V]) Get() (V, bool) {
	if e.state != entryOccupied {
		var zero V
		return zero, false
	}
	return e.slot.value, true
}

// GetMut returns a pointer to the entry's value, if occupied, valid until
// the entry is released. Returns nil otherwise.
func (e *Entry[K, V]) GetMut() *V {
	if e.state != entryOccupied {
		return nil
	}
	return &e.slot.value
}

// Insert overwrites the entry's value in place, if occupied, returning the
// previous value. No waiters are woken: an occupied entry's slot is filled,
// and a filled slot carries no wakerSet. Does not release the entry.
func (e *Entry[K, V]) Insert(v V) (old V, ok bool) {
	if e.state != entryOccupied {
		return old, false
	}
	old = e.slot.value
	e.slot.value = v
	return old, true
}

// Remove deletes the entry's slot, if occupied, returning its value, and
// releases the entry. If not occupied, releases the entry and returns
// (zero, false); a waiting placeholder is not removed by Remove (use
// [Map.Cancel] for that).
func (e *Entry[K, V]) Remove() (V, bool) {
	if e.state != entryOccupied {
		e.Release()
		var zero V
		return zero, false
	}
	v := e.slot.value
	e.shard.Delete(e.key)
	e.Release()
	return v, true
}

// RemoveEntry is [Entry.Remove] returning the key alongside the value.
func (e *Entry[K, V]) RemoveEntry() (K, V, bool) {
	v, ok := e.Remove()
	return e.key, v, ok
}

// ReplaceEntry overwrites the entry's value, if occupied, returning the key
// and the previous value. Like Insert, does not release the entry.
func (e *Entry[K, V]) ReplaceEntry(v V) (K, V, bool) {
	if e.state != entryOccupied {
		var zero V
		return e.key, zero, false
	}
	old := e.slot.value
	e.slot.value = v
	return e.key, old, true
}

// IntoRef converts an occupied entry into a [RefMut], transferring the held
// write lock to it and releasing this entry handle. Returns ok == false,
// and releases the entry, if not occupied.
func (e *Entry[K, V]) IntoRef() (RefMut[K, V], bool) {
	if e.state != entryOccupied {
		e.Release()
		return RefMut[K, V]{}, false
	}
	shard, s := e.shard, e.slot
	e.released = true
	e.shard = nil
	return RefMut[K, V]{shard: shard, slot: s}, true
}

// AndModify applies f to the entry's value iff it is occupied; otherwise it
// is a no-op. Returns the entry itself, for chaining with OrInsert and
// friends.
func (e *Entry[K, V]) AndModify(f func(v *V)) *Entry[K, V] {
	if e.state == entryOccupied {
		f(&e.slot.value)
	}
	return e
}

// OrInsert returns the entry's current value as a [RefMut] if occupied, or
// inserts v and returns a RefMut to it otherwise. If the entry was a
// waiting placeholder, every waiter registered on it is woken (after the
// shard lock is released) with the inserted value.
func (e *Entry[K, V]) OrInsert(v V) RefMut[K, V] {
	return e.OrInsertWith(func() V { return v })
}

// OrDefault is [Entry.OrInsert] with V's zero value.
func (e *Entry[K, V]) OrDefault() RefMut[K, V] {
	var zero V
	return e.OrInsertWith(func() V { return zero })
}

// OrInsertWith is [Entry.OrInsert], computing the value lazily (only if the
// entry is vacant).
func (e *Entry[K, V]) OrInsertWith(f func() V) RefMut[K, V] {
	if e.state == entryOccupied {
		ref, _ := e.IntoRef()
		return ref
	}
	return e.insertVacant(f())
}

// OrTryInsertWith is [Entry.OrInsertWith] for a fallible constructor. If f
// returns an error, the entry is released with no change to the map (no
// insertion, no waiters woken) and the error is returned.
func (e *Entry[K, V]) OrTryInsertWith(f func() (V, error)) (RefMut[K, V], error) {
	if e.state == entryOccupied {
		ref, _ := e.IntoRef()
		return ref, nil
	}
	v, err := f()
	if err != nil {
		e.Release()
		var zero RefMut[K, V]
		return zero, err
	}
	return e.insertVacant(v), nil
}

func (e *Entry[K, V]) insertVacant(v V) RefMut[K, V] {
	shard := e.shard
	switch e.state {
	case entryReallyVacant:
		s := filledSlot[V](v)
		shard.Set(e.key, s)
		e.released = true
		e.shard = nil
		return RefMut[K, V]{shard: shard, slot: s}
	case entryWaitingVacant:
		s := e.slot
		woken := s.fill(v)
		e.released = true
		e.shard = nil
		return RefMut[K, V]{shard: shard, slot: s, afterRelease: func() { woken.drainAndSend(true) }}
	default:
		internalf("insertVacant called on an occupied entry")
		panic("unreachable")
	}
}

// Release releases the shard lock held by this entry without otherwise
// changing the map. Safe to call more than once, and safe to call after a
// terminal method (Remove, IntoRef, OrInsert, ...) has already released it.
func (e *Entry[K, V]) Release() {
	if e.released {
		return
	}
	e.released = true
	e.shard.Unlock()
	e.shard = nil
}

// Entry returns a handle to k's current slot state (occupied, vacant, or
// vacant-with-pending-waiters) without creating anything. The entry holds
// the shard's write lock until a terminal method, or [Entry.Release], is
// called.
func (m *Map[K, V]) Entry(k K) *Entry[K, V] {
	sh := m.data.Shard(k)
	sh.Lock()

	s, ok := sh.Get(k)
	switch {
	case !ok:
		return &Entry[K, V]{shard: sh, key: k, state: entryReallyVacant}
	case s.filled:
		return &Entry[K, V]{shard: sh, key: k, state: entryOccupied, slot: s}
	default:
		return &Entry[K, V]{shard: sh, key: k, state: entryWaitingVacant, slot: s}
	}
}

package waitmap

// noIndex is the sentinel meaning "not yet registered" (or "no longer
// registered"), mirroring the original's use of the largest representable
// index as a cheap-to-compare sentinel; here any negative value works.
const noIndex = -1

// wakerSet is an append-only slab of optional one-shot signal channels, one
// per registered waiter, attached to a slot for as long as it is not filled.
// Indices are stable for the lifetime of the slot's waiting state: removal
// tombstones an entry instead of shifting the others, because every live
// waiter holds its own index into this slice. A channel carries no payload,
// only `true` (filled) or `false` (cancelled); the waiter re-reads the slot
// itself once signalled.
type wakerSet []chan bool

// register appends a new channel, or overwrites the channel at idx if the
// waiter already holds a valid index (a spurious re-registration, which must
// be idempotent since the same waiter may call register more than once
// across retries). It returns the (possibly unchanged) index.
func (ws *wakerSet) register(ch chan bool, idx int) int {
	if idx < 0 || idx >= len(*ws) {
		idx = len(*ws)
		*ws = append(*ws, ch)
		return idx
	}
	(*ws)[idx] = ch
	return idx
}

// remove tombstones the waiter at idx, if idx is still in range. Safe to
// call with noIndex or any out-of-range value (a no-op).
func (ws *wakerSet) remove(idx int) {
	if idx >= 0 && idx < len(*ws) {
		(*ws)[idx] = nil
	}
}

// drainAndSend consumes the entire set, delivering filled to every
// non-tombstoned channel via a buffered send (capacity 1, used exactly once,
// so the send never blocks). The set is left empty.
func (ws *wakerSet) drainAndSend(filled bool) {
	for _, ch := range *ws {
		if ch != nil {
			ch <- filled
		}
	}
	*ws = nil
}

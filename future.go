package waitmap

import "context"

// registerWaiter registers a fresh one-shot signal channel on ws and returns
// it alongside the index the waiter must remember for drop-time cleanup.
func registerWaiter(ws *wakerSet) (chan bool, int) {
	ch := make(chan bool, 1)
	idx := ws.register(ch, noIndex)
	return ch, idx
}

// awaitSignal blocks on ch until it carries a signal, or until ctx is
// cancelled. It returns true iff the slot was filled.
//
// On cancellation it calls cleanup, which must perform the drop-time
// cleanup owed by every registered waiter (removing its stub from the
// slot's wakerSet, if the slot still exists and is not yet filled), and
// must be safe to call even if the slot has since been filled or removed
// entirely. After cleanup runs, awaitSignal performs one final non-blocking
// check of ch: a fill can be delivered concurrently with the context being
// cancelled, arbitrarily close to the deadline, and that race must not be
// allowed to silently drop a signal that genuinely arrived.
func awaitSignal(ctx context.Context, ch chan bool, cleanup func()) bool {
	select {
	case filled := <-ch:
		return filled
	case <-ctx.Done():
	}

	cleanup()

	select {
	case filled := <-ch:
		return filled
	default:
		return false
	}
}

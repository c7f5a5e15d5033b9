package gpu

import "sync"

// deferredEntry pairs a resource's destructor with its outstanding usages.
type deferredEntry struct {
	release func()
	usages  *MultiSyncPoint
}

// DeferredReleaser delays destruction of resources whose last GPU usage is
// still in flight. Call ReleaseLater from the consuming thread; each call
// also sweeps previously deferred resources whose usages have all
// signalled. There is no background goroutine: cleanup cost is amortized to
// O(pending) per call, and nothing is destroyed before all its recorded
// usages signal.
//
// DeferredReleaser is safe for concurrent use.
type DeferredReleaser struct {
	mu      sync.Mutex
	pending []deferredEntry
}

// ReleaseLater schedules release to run once all usages have signalled. A
// resource with no outstanding usages releases during this call. Sweeping
// never produces user-visible errors: a stuck fence just keeps its entry
// pending.
func (r *DeferredReleaser) ReleaseLater(release func(), usages *MultiSyncPoint) {
	// Swap the shared queue into a local copy and drop the lock before
	// any fence polling: IsReady may need other locks.
	r.mu.Lock()
	local := r.pending
	r.pending = nil
	r.mu.Unlock()

	local = append(local, deferredEntry{release: release, usages: usages})

	still := local[:0]
	for _, e := range local {
		if e.usages == nil || e.usages.IsReady() {
			e.release()
			continue
		}
		still = append(still, e)
	}

	if len(still) == 0 {
		return
	}
	r.mu.Lock()
	// Entries added concurrently while we swept stay ahead of the merge.
	r.pending = append(r.pending, still...)
	n := len(r.pending)
	r.mu.Unlock()

	slogger().Debug("gpu: deferred release pending", "count", n)
}

// Sweep releases every deferred resource whose usages have signalled,
// without adding a new one. Returns the number of resources released.
func (r *DeferredReleaser) Sweep() int {
	r.mu.Lock()
	local := r.pending
	r.pending = nil
	r.mu.Unlock()

	released := 0
	still := local[:0]
	for _, e := range local {
		if e.usages == nil || e.usages.IsReady() {
			e.release()
			released++
			continue
		}
		still = append(still, e)
	}

	if len(still) > 0 {
		r.mu.Lock()
		r.pending = append(r.pending, still...)
		r.mu.Unlock()
	}
	return released
}

// PendingCount returns the number of resources still awaiting their
// usages. Intended for diagnostics and tests.
func (r *DeferredReleaser) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

package gpu

import (
	"sync"
	"time"
)

// fenceTimeout bounds how long a sync marker waits on a HAL fence before
// signalling anyway. A stuck fence is an observability signal, not fatal.
const fenceTimeout = 5 * time.Second

// SyncPoint is a one-shot unsignalled-to-signalled marker tied to a
// context. It signals once a fence inserted into the producing context's
// command stream has actually executed.
type SyncPoint struct {
	ctx  *Context
	done chan struct{}
	once sync.Once
}

// NewManualSyncPoint creates a sync point whose producer is outside this
// package (a hardware decoder, an external queue). The caller signals it
// with Signal. ctx attributes the point to a context for MultiSyncPoint
// coalescing and may be nil.
func NewManualSyncPoint(ctx *Context) *SyncPoint {
	return &SyncPoint{ctx: ctx, done: make(chan struct{})}
}

// CreateSyncToken inserts a sync marker into the context's command stream.
// The returned point signals when every command submitted before it has
// executed; with a HAL device attached, a real fence is submitted and
// awaited on the context's thread first.
func (c *Context) CreateSyncToken() *SyncPoint {
	sp := &SyncPoint{ctx: c, done: make(chan struct{})}

	err := c.RunWithoutWaiting(func(tok *Token) {
		defer sp.Signal()
		if c.device == nil || c.queue == nil {
			return
		}
		fence, err := c.device.CreateFence()
		if err != nil {
			slogger().Warn("gpu: create fence failed", "name", c.name, "err", err)
			return
		}
		defer c.device.DestroyFence(fence)

		if err := c.queue.Submit(nil, fence, 1); err != nil {
			slogger().Warn("gpu: fence submit failed", "name", c.name, "err", err)
			return
		}
		ok, err := c.device.Wait(fence, 1, fenceTimeout)
		if err != nil || !ok {
			slogger().Warn("gpu: fence wait incomplete",
				"name", c.name, "ok", ok, "err", err)
		}
	})
	if err != nil {
		// Closed context: nothing can still be in flight.
		sp.Signal()
	}
	return sp
}

// Signal marks the point signalled. Signalling is irreversible and
// idempotent. Points produced by CreateSyncToken are signalled by their
// context; Signal exists for manual points.
func (s *SyncPoint) Signal() {
	s.once.Do(func() { close(s.done) })
}

// Wait blocks the calling CPU thread until the point signals. Wait is the
// only operation that blocks for GPU-duration time; never call it while
// holding a pool or registry lock.
func (s *SyncPoint) Wait() {
	<-s.done
}

// WaitOnGpu blocks the consuming context's command stream, not any other
// CPU thread, until the point signals. It must be called from within a
// context task; the token proves that. Waiting on a point from the same
// context is a no-op, since a context already serializes its own commands.
func (s *SyncPoint) WaitOnGpu(tok *Token) {
	if tok != nil && tok.ctx == s.ctx {
		return
	}
	<-s.done
}

// IsReady reports whether the point has signalled, without blocking.
func (s *SyncPoint) IsReady() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Context returns the context the point is attributed to (may be nil for
// manual points).
func (s *SyncPoint) Context() *Context { return s.ctx }

// MultiSyncPoint holds at most one SyncPoint per distinct context. Adding
// a point from a context that already has one overwrites the old point:
// that context serializes its own commands, so the later point implies the
// earlier. Wait, WaitOnGpu, and IsReady fan out over all stored points.
//
// MultiSyncPoint is safe for concurrent use.
type MultiSyncPoint struct {
	mu     sync.Mutex
	points map[*Context]*SyncPoint
}

// Add records a usage sync point, replacing any earlier point from the
// same context.
func (m *MultiSyncPoint) Add(sp *SyncPoint) {
	if sp == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.points == nil {
		m.points = make(map[*Context]*SyncPoint)
	}
	m.points[sp.ctx] = sp
}

// Wait blocks until every stored point has signalled.
func (m *MultiSyncPoint) Wait() {
	for _, sp := range m.snapshot() {
		sp.Wait()
	}
}

// WaitOnGpu blocks the consuming context's stream until every stored point
// from other contexts has signalled.
func (m *MultiSyncPoint) WaitOnGpu(tok *Token) {
	for _, sp := range m.snapshot() {
		sp.WaitOnGpu(tok)
	}
}

// IsReady reports whether every stored point has signalled.
func (m *MultiSyncPoint) IsReady() bool {
	for _, sp := range m.snapshot() {
		if !sp.IsReady() {
			return false
		}
	}
	return true
}

// Len returns the number of distinct contexts with a stored point.
func (m *MultiSyncPoint) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.points)
}

// Reset drops all stored points, rearming the set for reuse.
func (m *MultiSyncPoint) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.points)
}

// snapshot copies the stored points so waiting never holds the lock.
func (m *MultiSyncPoint) snapshot() []*SyncPoint {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*SyncPoint, 0, len(m.points))
	for _, sp := range m.points {
		out = append(out, sp)
	}
	return out
}

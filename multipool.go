package framebuf

import (
	"sync"
	"time"

	"github.com/gogpu/framebuf/internal/lru"
)

// MultiPool caches one Pool per BufferSpec with LRU eviction.
//
// Specs requested fewer than MinRequestsBeforePool times get a direct,
// unpooled allocation, avoiding pool overhead for one-off sizes. Once a
// spec crosses the threshold it gets a pool; when more than MaxPoolCount
// specs hold pools, the least-recently-used spec's pool is evicted.
// Eviction never affects items already lent out: outstanding tickets pin
// their pool, which drains as they are released.
//
// Every RequestCountScrubInterval total requests, entries idle longer than
// MaxInactiveBufferAge are scrubbed.
//
// MultiPool is safe for concurrent use.
type MultiPool[T Reusable] struct {
	opts    PoolOptions
	factory func(spec BufferSpec) (T, error)

	mu       sync.Mutex
	entries  map[BufferSpec]*multiPoolEntry[T]
	recency  *lru.List[BufferSpec]
	requests int
	pools    int

	evictWarn sync.Once
}

// multiPoolEntry tracks request history and the optional pool for one spec.
type multiPoolEntry[T Reusable] struct {
	requests int
	lastUsed time.Time
	pool     *Pool[T] // nil until requests reach MinRequestsBeforePool
	node     *lru.Node[BufferSpec]
}

// NewMultiPool creates a multi-spec pool. The factory allocates one item
// for a given spec; it is shared by all per-spec pools and by direct
// allocations below the pooling threshold.
func NewMultiPool[T Reusable](opts PoolOptions, factory func(spec BufferSpec) (T, error)) *MultiPool[T] {
	return &MultiPool[T]{
		opts:    opts.withDefaults(),
		factory: factory,
		entries: make(map[BufferSpec]*multiPoolEntry[T]),
		recency: lru.New[BufferSpec](),
	}
}

// GetBuffer returns a ticket for an item of the given spec, pooled when the
// spec is requested often enough and allocated directly otherwise.
func (m *MultiPool[T]) GetBuffer(spec BufferSpec) (*Ticket[T], error) {
	var evicted []*Pool[T]

	m.mu.Lock()

	m.requests++
	if m.requests%m.opts.RequestCountScrubInterval == 0 {
		evicted = append(evicted, m.scrubLocked(time.Now())...)
	}

	e := m.entries[spec]
	if e == nil {
		e = &multiPoolEntry[T]{node: m.recency.PushFront(spec)}
		m.entries[spec] = e
	} else {
		m.recency.MoveToFront(e.node)
	}
	e.requests++
	e.lastUsed = time.Now()

	direct := e.pool == nil && e.requests < m.opts.MinRequestsBeforePool
	if !direct && e.pool == nil {
		e.pool = NewPool(m.opts.KeepCount, func() (T, error) {
			return m.factory(spec)
		})
		m.pools++
		evicted = append(evicted, m.evictExcessLocked()...)
	}
	pool := e.pool
	m.mu.Unlock()

	// Detaching destroys the evicted pools' free items; that must not
	// happen under m.mu since destructors may take arbitrary locks.
	for _, p := range evicted {
		p.detach()
	}

	if direct {
		return m.acquireDirect(spec)
	}
	// The pool has its own lock; acquiring outside m.mu keeps allocation
	// off the multi-pool's critical section.
	return pool.Acquire()
}

// acquireDirect allocates outside any pool. The returned ticket destroys
// the item on release.
func (m *MultiPool[T]) acquireDirect(spec BufferSpec) (*Ticket[T], error) {
	// A zero-keep detached pool destroys every returned item, which is
	// exactly the direct-allocation lifecycle.
	p := NewPool(0, func() (T, error) {
		return m.factory(spec)
	})
	p.detached = true
	return p.Acquire()
}

// evictExcessLocked removes least-recently-used pool entries until the pool
// count is back within MaxPoolCount, and returns the pools to detach once
// the lock is dropped. Caller must hold m.mu.
func (m *MultiPool[T]) evictExcessLocked() []*Pool[T] {
	var evicted []*Pool[T]
	for m.pools > m.opts.MaxPoolCount {
		spec, ok := m.oldestPooledLocked()
		if !ok {
			break
		}
		e := m.entries[spec]
		m.recency.Remove(e.node)
		delete(m.entries, spec)
		m.pools--
		evicted = append(evicted, e.pool)
		m.warnEviction(spec)
	}
	return evicted
}

// oldestPooledLocked finds the least-recently-used spec that owns a pool,
// dropping bare counter entries encountered on the way. Caller must hold
// m.mu.
func (m *MultiPool[T]) oldestPooledLocked() (BufferSpec, bool) {
	for {
		spec, ok := m.recency.Oldest()
		if !ok {
			var zero BufferSpec
			return zero, false
		}
		e := m.entries[spec]
		if e != nil && e.pool != nil {
			return spec, true
		}
		// Bare counter entry: cheap to drop entirely.
		m.recency.RemoveOldest()
		delete(m.entries, spec)
	}
}

// scrubLocked drops entries idle longer than MaxInactiveBufferAge and
// returns any pools to detach once the lock is dropped. Caller must hold
// m.mu.
func (m *MultiPool[T]) scrubLocked(now time.Time) []*Pool[T] {
	var evicted []*Pool[T]
	for spec, e := range m.entries {
		if now.Sub(e.lastUsed) <= m.opts.MaxInactiveBufferAge {
			continue
		}
		m.recency.Remove(e.node)
		delete(m.entries, spec)
		if e.pool != nil {
			m.pools--
			evicted = append(evicted, e.pool)
			Logger().Debug("framebuf: scrubbed idle pool", "spec", spec.String())
		}
	}
	return evicted
}

// warnEviction logs the first capacity eviction at Warn and the rest at
// Debug, so a misconfigured MaxPoolCount is visible without log spam.
func (m *MultiPool[T]) warnEviction(spec BufferSpec) {
	m.evictWarn.Do(func() {
		Logger().Warn("framebuf: pooled spec count exceeded, evicting least-recently-used pools",
			"max_pool_count", m.opts.MaxPoolCount)
	})
	Logger().Debug("framebuf: evicting pool", "spec", spec.String())
}

// PoolCount returns the number of specs currently holding a pool.
func (m *MultiPool[T]) PoolCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pools
}

// GetInUseAndAvailableCounts sums diagnostics over all per-spec pools.
func (m *MultiPool[T]) GetInUseAndAvailableCounts() (inUse, available int) {
	m.mu.Lock()
	pools := make([]*Pool[T], 0, m.pools)
	for _, e := range m.entries {
		if e.pool != nil {
			pools = append(pools, e.pool)
		}
	}
	m.mu.Unlock()

	for _, p := range pools {
		u, a := p.InUseAndAvailableCounts()
		inUse += u
		available += a
	}
	return inUse, available
}

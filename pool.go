package framebuf

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Pool is a single-spec free-list pool with keep-count eviction.
//
// Acquire never blocks on GPU completion: it pops a free item or runs the
// lazy factory. When a ticket's refcount reaches zero the item's Reuse hook
// runs and the item returns to the free list, which is then trimmed to
// max(keepCount - inUse, 0). Trimming happens under the pool lock, but the
// trimmed items' destructors run after the lock is released, so an item
// whose teardown re-enters the pool cannot deadlock.
//
// Pool is safe for concurrent use. Reuse may require a specific execution
// context; the pool is context-agnostic and leaves that to the caller.
type Pool[T Reusable] struct {
	mu      sync.Mutex
	factory func() (T, error)
	keep    int
	free    []T
	inUse   int

	// detached marks a pool evicted from a MultiPool: returned items are
	// destroyed instead of kept, so the pool drains once unreferenced.
	detached bool
}

// NewPool creates a pool that keeps at most keepCount idle items.
// The factory runs lazily, on Acquire with an empty free list.
func NewPool[T Reusable](keepCount int, factory func() (T, error)) *Pool[T] {
	if keepCount < 0 {
		keepCount = 0
	}
	return &Pool[T]{factory: factory, keep: keepCount}
}

// Acquire returns a ticket for a pooled item, reusing a free item when one
// exists and allocating through the factory otherwise. Factory failure is
// returned wrapped in ErrAllocationFailed and is never retried internally.
func (p *Pool[T]) Acquire() (*Ticket[T], error) {
	p.mu.Lock()
	if n := len(p.free); n > 0 {
		item := p.free[n-1]
		var zero T
		p.free[n-1] = zero
		p.free = p.free[:n-1]
		p.inUse++
		p.mu.Unlock()
		return newTicket(p, item), nil
	}
	p.inUse++
	p.mu.Unlock()

	item, err := p.factory()
	if err != nil {
		p.mu.Lock()
		p.inUse--
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrAllocationFailed, err)
	}
	return newTicket(p, item), nil
}

// InUseAndAvailableCounts returns the number of items currently lent out
// and the number of idle items on the free list. Intended for diagnostics
// and tests.
func (p *Pool[T]) InUseAndAvailableCounts() (inUse, available int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inUse, len(p.free)
}

// put returns an item to the pool. Called by Ticket.Release after the
// item's Reuse hook has run.
func (p *Pool[T]) put(item T) {
	p.mu.Lock()
	p.inUse--
	p.free = append(p.free, item)

	keep := p.keep - p.inUse
	if keep < 0 || p.detached {
		keep = 0
	}
	var trimmed []T
	if len(p.free) > keep {
		trimmed = append(trimmed, p.free[:len(p.free)-keep]...)
		copy(p.free, p.free[len(p.free)-keep:])
		p.free = p.free[:keep]
	}
	p.mu.Unlock()

	// Destructors run outside the lock: GPU teardown may call back into
	// the pool.
	for _, it := range trimmed {
		it.Destroy()
	}
}

// detach converts the pool into a drain-on-release pool and destroys its
// free items. Outstanding tickets stay valid; their items are destroyed as
// they come back. Used by MultiPool eviction.
func (p *Pool[T]) detach() {
	p.mu.Lock()
	p.detached = true
	drained := p.free
	p.free = nil
	p.mu.Unlock()

	for _, it := range drained {
		it.Destroy()
	}
}

// Ticket is a refcounted handle to a pooled item.
//
// A fresh ticket has refcount one. Retain increments it; Release decrements
// it and, at zero, runs the item's Reuse hook and returns the item to the
// pool. The ticket pins its pool: a pool evicted from a MultiPool stays
// alive until every outstanding ticket is released.
type Ticket[T Reusable] struct {
	item T
	pool *Pool[T]
	refs atomic.Int32
}

func newTicket[T Reusable](p *Pool[T], item T) *Ticket[T] {
	t := &Ticket[T]{item: item, pool: p}
	t.refs.Store(1)
	return t
}

// Item returns the pooled item. The item is valid until the final Release.
func (t *Ticket[T]) Item() T {
	return t.item
}

// Retain adds a reference, for handing the ticket to another owner.
// Returns ErrTicketReleased if the ticket has already fully released.
func (t *Ticket[T]) Retain() error {
	for {
		n := t.refs.Load()
		if n <= 0 {
			return ErrTicketReleased
		}
		if t.refs.CompareAndSwap(n, n+1) {
			return nil
		}
	}
}

// Release drops a reference. When the count reaches zero the item's Reuse
// hook runs and the item returns to the pool. Releasing an already-released
// ticket returns ErrTicketReleased instead of corrupting pool state.
func (t *Ticket[T]) Release() error {
	for {
		n := t.refs.Load()
		if n <= 0 {
			return ErrTicketReleased
		}
		if !t.refs.CompareAndSwap(n, n-1) {
			continue
		}
		if n == 1 {
			t.item.Reuse()
			t.pool.put(t.item)
		}
		return nil
	}
}

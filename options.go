package framebuf

import "time"

// Default pool configuration.
const (
	// DefaultKeepCount is the number of idle items a pool retains.
	DefaultKeepCount = 2

	// DefaultMaxPoolCount is the number of distinct specs kept pooled.
	DefaultMaxPoolCount = 10

	// DefaultMinRequestsBeforePool is how many times a spec must be
	// requested before it gets a pool; rarer specs allocate directly.
	DefaultMinRequestsBeforePool = 2

	// DefaultRequestCountScrubInterval is how many total requests pass
	// between scrubs of stale per-spec counters.
	DefaultRequestCountScrubInterval = 50

	// DefaultMaxInactiveBufferAge is how long an untouched spec entry
	// survives a scrub.
	DefaultMaxInactiveBufferAge = 30 * time.Second
)

// PoolOptions configures a MultiPool. The zero value selects the defaults
// above. These are the only recognized knobs.
type PoolOptions struct {
	// KeepCount is the per-spec free-list retention bound.
	KeepCount int

	// MaxPoolCount bounds the number of distinct pooled specs; exceeding
	// it evicts the least-recently-used spec's pool.
	MaxPoolCount int

	// MinRequestsBeforePool is the request threshold below which a spec
	// gets direct, unpooled allocations.
	MinRequestsBeforePool int

	// RequestCountScrubInterval is the total-request period between
	// scrubs of stale spec entries.
	RequestCountScrubInterval int

	// MaxInactiveBufferAge is the idle age past which a spec entry is
	// dropped during a scrub.
	MaxInactiveBufferAge time.Duration
}

// withDefaults fills unset fields with the package defaults.
func (o PoolOptions) withDefaults() PoolOptions {
	if o.KeepCount <= 0 {
		o.KeepCount = DefaultKeepCount
	}
	if o.MaxPoolCount <= 0 {
		o.MaxPoolCount = DefaultMaxPoolCount
	}
	if o.MinRequestsBeforePool <= 0 {
		o.MinRequestsBeforePool = DefaultMinRequestsBeforePool
	}
	if o.RequestCountScrubInterval <= 0 {
		o.RequestCountScrubInterval = DefaultRequestCountScrubInterval
	}
	if o.MaxInactiveBufferAge <= 0 {
		o.MaxInactiveBufferAge = DefaultMaxInactiveBufferAge
	}
	return o
}

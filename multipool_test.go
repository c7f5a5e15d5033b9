package framebuf

import (
	"sync"
	"testing"
	"time"
)

// specItem is a fake pooled item tagged with the spec it was made for.
type specItem struct {
	spec     BufferSpec
	mu       sync.Mutex
	destroys int
}

func (s *specItem) Reuse() {}

func (s *specItem) Destroy() {
	s.mu.Lock()
	s.destroys++
	s.mu.Unlock()
}

func (s *specItem) destroyed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroys
}

func newSpecMultiPool(opts PoolOptions) (*MultiPool[*specItem], *[]*specItem) {
	var made []*specItem
	var mu sync.Mutex
	mp := NewMultiPool(opts, func(spec BufferSpec) (*specItem, error) {
		it := &specItem{spec: spec}
		mu.Lock()
		made = append(made, it)
		mu.Unlock()
		return it, nil
	})
	return mp, &made
}

func specN(n int) BufferSpec {
	return BufferSpec{Width: n, Height: n, Format: FormatRGBA8}
}

func TestMultiPoolDirectBelowThreshold(t *testing.T) {
	mp, made := newSpecMultiPool(PoolOptions{MinRequestsBeforePool: 3})
	spec := specN(8)

	// The first two requests stay unpooled: released items are destroyed.
	for i := 0; i < 2; i++ {
		tk, err := mp.GetBuffer(spec)
		if err != nil {
			t.Fatalf("GetBuffer %d: %v", i, err)
		}
		if err := tk.Release(); err != nil {
			t.Fatalf("Release %d: %v", i, err)
		}
		if got := mp.PoolCount(); got != 0 {
			t.Fatalf("request %d: PoolCount = %d, want 0", i, got)
		}
	}
	for _, it := range *made {
		if it.destroyed() != 1 {
			t.Errorf("direct item destroyed %d times, want 1", it.destroyed())
		}
	}

	// The third request crosses the threshold and creates a pool.
	tk, err := mp.GetBuffer(spec)
	if err != nil {
		t.Fatalf("GetBuffer: %v", err)
	}
	if got := mp.PoolCount(); got != 1 {
		t.Errorf("PoolCount = %d, want 1", got)
	}
	if err := tk.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	// Pooled item is retained, not destroyed.
	last := (*made)[len(*made)-1]
	if last.destroyed() != 0 {
		t.Errorf("pooled item destroyed %d times, want 0", last.destroyed())
	}
	if _, avail := mp.GetInUseAndAvailableCounts(); avail != 1 {
		t.Errorf("available = %d, want 1", avail)
	}
}

func TestMultiPoolLRUEviction(t *testing.T) {
	mp, _ := newSpecMultiPool(PoolOptions{
		MaxPoolCount:          2,
		MinRequestsBeforePool: 1,
	})

	acquireAndPark := func(spec BufferSpec) *specItem {
		t.Helper()
		tk, err := mp.GetBuffer(spec)
		if err != nil {
			t.Fatalf("GetBuffer %s: %v", spec, err)
		}
		item := tk.Item()
		if err := tk.Release(); err != nil {
			t.Fatalf("Release %s: %v", spec, err)
		}
		return item
	}

	itemA := acquireAndPark(specN(1))
	itemB := acquireAndPark(specN(2))
	if got := mp.PoolCount(); got != 2 {
		t.Fatalf("PoolCount = %d, want 2", got)
	}

	// Touch A so B becomes least recently used, then overflow with C.
	acquireAndPark(specN(1))
	acquireAndPark(specN(3))

	if got := mp.PoolCount(); got != 2 {
		t.Errorf("PoolCount after eviction = %d, want 2", got)
	}
	if itemB.destroyed() != 1 {
		t.Errorf("evicted spec's idle item destroyed %d times, want 1", itemB.destroyed())
	}
	if itemA.destroyed() != 0 {
		t.Errorf("recently used spec's item destroyed %d times, want 0", itemA.destroyed())
	}

	// The evicted spec starts over with a fresh item.
	itemB2 := acquireAndPark(specN(2))
	if itemB2 == itemB {
		t.Error("evicted spec handed back the destroyed item")
	}
}

func TestMultiPoolEvictionDrainsOutstanding(t *testing.T) {
	mp, _ := newSpecMultiPool(PoolOptions{
		MaxPoolCount:          1,
		MinRequestsBeforePool: 1,
	})

	// Hold a ticket from spec 1 while its pool is evicted.
	tk, err := mp.GetBuffer(specN(1))
	if err != nil {
		t.Fatalf("GetBuffer: %v", err)
	}
	held := tk.Item()

	tk2, err := mp.GetBuffer(specN(2))
	if err != nil {
		t.Fatalf("GetBuffer: %v", err)
	}
	defer tk2.Release()

	if got := mp.PoolCount(); got != 1 {
		t.Fatalf("PoolCount = %d, want 1", got)
	}
	if held.destroyed() != 0 {
		t.Fatal("outstanding item destroyed by eviction")
	}

	// Releasing into the detached pool destroys the item instead of caching.
	if err := tk.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if held.destroyed() != 1 {
		t.Errorf("drained item destroyed %d times, want 1", held.destroyed())
	}
}

func TestMultiPoolScrub(t *testing.T) {
	mp, _ := newSpecMultiPool(PoolOptions{
		MinRequestsBeforePool:     1,
		RequestCountScrubInterval: 2,
		MaxInactiveBufferAge:      time.Millisecond,
	})

	tk, err := mp.GetBuffer(specN(1))
	if err != nil {
		t.Fatalf("GetBuffer: %v", err)
	}
	if err := tk.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if got := mp.PoolCount(); got != 1 {
		t.Fatalf("PoolCount = %d, want 1", got)
	}

	time.Sleep(5 * time.Millisecond)

	// The second request triggers a scrub, which drops the idle spec.
	tk2, err := mp.GetBuffer(specN(2))
	if err != nil {
		t.Fatalf("GetBuffer: %v", err)
	}
	defer tk2.Release()

	if got := mp.PoolCount(); got != 1 {
		t.Errorf("PoolCount after scrub = %d, want 1", got)
	}
}

func TestMultiPoolCounts(t *testing.T) {
	mp, _ := newSpecMultiPool(PoolOptions{MinRequestsBeforePool: 1, KeepCount: 2})

	tkA, err := mp.GetBuffer(specN(1))
	if err != nil {
		t.Fatalf("GetBuffer: %v", err)
	}
	tkB, err := mp.GetBuffer(specN(2))
	if err != nil {
		t.Fatalf("GetBuffer: %v", err)
	}
	if in, avail := mp.GetInUseAndAvailableCounts(); in != 2 || avail != 0 {
		t.Errorf("counts = (%d, %d), want (2, 0)", in, avail)
	}

	if err := tkA.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := tkB.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if in, avail := mp.GetInUseAndAvailableCounts(); in != 0 || avail != 2 {
		t.Errorf("counts = (%d, %d), want (0, 2)", in, avail)
	}
}

func TestMultiPoolConcurrent(t *testing.T) {
	mp, _ := newSpecMultiPool(PoolOptions{MinRequestsBeforePool: 1, MaxPoolCount: 4})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			spec := specN(g%6 + 1)
			for i := 0; i < 50; i++ {
				tk, err := mp.GetBuffer(spec)
				if err != nil {
					t.Errorf("GetBuffer: %v", err)
					return
				}
				if tk.Item().spec != spec {
					t.Errorf("got item for %s, want %s", tk.Item().spec, spec)
				}
				if err := tk.Release(); err != nil {
					t.Errorf("Release: %v", err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	if in, _ := mp.GetInUseAndAvailableCounts(); in != 0 {
		t.Errorf("inUse = %d at quiescence", in)
	}
	if got := mp.PoolCount(); got > 4 {
		t.Errorf("PoolCount = %d, want <= 4", got)
	}
}

package gpu

import "testing"

func TestReleaserImmediateWithoutUsages(t *testing.T) {
	var r DeferredReleaser

	released := false
	r.ReleaseLater(func() { released = true }, nil)
	if !released {
		t.Error("resource without usages not released immediately")
	}
	if r.PendingCount() != 0 {
		t.Errorf("PendingCount = %d, want 0", r.PendingCount())
	}
}

func TestReleaserImmediateWithReadyUsages(t *testing.T) {
	var r DeferredReleaser

	sp := NewManualSyncPoint(nil)
	sp.Signal()
	var m MultiSyncPoint
	m.Add(sp)

	released := false
	r.ReleaseLater(func() { released = true }, &m)
	if !released {
		t.Error("resource with signalled usages not released immediately")
	}
}

func TestReleaserDefersUntilSignal(t *testing.T) {
	var r DeferredReleaser

	sp := NewManualSyncPoint(nil)
	var m MultiSyncPoint
	m.Add(sp)

	released := false
	r.ReleaseLater(func() { released = true }, &m)
	if released {
		t.Fatal("released while usage outstanding")
	}
	if r.PendingCount() != 1 {
		t.Fatalf("PendingCount = %d, want 1", r.PendingCount())
	}

	// Sweeping before the signal keeps the entry pending.
	if n := r.Sweep(); n != 0 {
		t.Errorf("Sweep released %d, want 0", n)
	}

	sp.Signal()
	if n := r.Sweep(); n != 1 {
		t.Errorf("Sweep released %d, want 1", n)
	}
	if !released {
		t.Error("resource not released after its usage signalled")
	}
	if r.PendingCount() != 0 {
		t.Errorf("PendingCount = %d, want 0", r.PendingCount())
	}
}

func TestReleaserStuckUsagePinsOnlyItself(t *testing.T) {
	var r DeferredReleaser

	stuck := NewManualSyncPoint(nil)
	var stuckUsages MultiSyncPoint
	stuckUsages.Add(stuck)

	stuckReleased := false
	r.ReleaseLater(func() { stuckReleased = true }, &stuckUsages)

	// Later resources with no outstanding usages flow through; only the
	// stuck entry stays pending, however many calls sweep past it.
	others := 0
	for i := 0; i < 10; i++ {
		r.ReleaseLater(func() { others++ }, nil)
	}
	if others != 10 {
		t.Errorf("released %d unblocked resources, want 10", others)
	}
	if stuckReleased {
		t.Error("stuck resource released early")
	}
	if r.PendingCount() != 1 {
		t.Errorf("PendingCount = %d, want 1", r.PendingCount())
	}

	stuck.Signal()
	r.ReleaseLater(func() { others++ }, nil)
	if !stuckReleased {
		t.Error("stuck resource not released after its usage signalled")
	}
	if r.PendingCount() != 0 {
		t.Errorf("PendingCount = %d, want 0", r.PendingCount())
	}
}

func TestReleaserReleasesInOrderOnSweep(t *testing.T) {
	var r DeferredReleaser

	sp := NewManualSyncPoint(nil)
	var m MultiSyncPoint
	m.Add(sp)

	var order []int
	r.ReleaseLater(func() { order = append(order, 1) }, &m)
	r.ReleaseLater(func() { order = append(order, 2) }, &m)

	sp.Signal()
	if n := r.Sweep(); n != 2 {
		t.Fatalf("Sweep released %d, want 2", n)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("release order = %v, want [1 2]", order)
	}
}

package session

import (
	"testing"
	"time"
)

func TestRegistry_GetOrCreate(t *testing.T) {
	r := NewRegistry(testDataset(), Options{}, testLogger())

	s, created := r.GetOrCreate("")
	if !created || s == nil {
		t.Fatal("expected a new session for an empty id")
	}
	if s.ID() == "" {
		t.Error("new session should have an id")
	}

	again, created := r.GetOrCreate(s.ID())
	if created || again != s {
		t.Error("known id should return the same session")
	}

	forged, created := r.GetOrCreate("client-chosen-id")
	if !created {
		t.Fatal("unknown id should create a session")
	}
	if forged.ID() == "client-chosen-id" {
		t.Error("client-supplied ids must not be adopted")
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
}

func TestRegistry_SessionsAreIsolated(t *testing.T) {
	r := NewRegistry(testDataset(), Options{}, testLogger())
	a := r.Create()
	b := r.Create()

	a.SetRegion("CA")
	if _, err := a.SetBreed("Poodle"); err != nil {
		t.Fatal(err)
	}

	if sel := b.FilterState(); sel.Region != "" || sel.Breed != "" {
		t.Errorf("session b observed session a's selection: %+v", sel)
	}
}

func TestRegistry_EvictsLeastRecentlyUsed(t *testing.T) {
	r := NewRegistry(testDataset(), Options{MaxSessions: 2, IdleTTL: time.Hour}, testLogger())
	first := r.Create()
	second := r.Create()

	// Touch the first so the second becomes the oldest.
	if _, ok := r.Get(first.ID()); !ok {
		t.Fatal("first session missing")
	}
	r.Create()

	if _, ok := r.Get(second.ID()); ok {
		t.Error("least recently used session should be evicted")
	}
	if _, ok := r.Get(first.ID()); !ok {
		t.Error("recently used session should be kept")
	}
}

func TestRegistry_IdleExpiry(t *testing.T) {
	r := NewRegistry(testDataset(), Options{IdleTTL: 20 * time.Millisecond}, testLogger())
	s := r.Create()

	time.Sleep(60 * time.Millisecond)
	if _, ok := r.Get(s.ID()); ok {
		t.Error("idle session should expire")
	}
}

func TestRegistry_RegionCountsShared(t *testing.T) {
	d := testDataset()
	r := NewRegistry(d, Options{}, testLogger())

	counts := r.RegionCounts()
	if len(counts) != 2 || counts[0].Region != "CA" || counts[0].Count != 5 {
		t.Errorf("RegionCounts() = %+v", counts)
	}

	s := r.Create()
	if got := s.RegionCounts(); &got[0] != &counts[0] {
		t.Error("sessions should share the registry's region table")
	}

	if r.Dataset() != d {
		t.Error("Dataset() should return the registry's dataset")
	}
}

func TestRegistry_Purge(t *testing.T) {
	r := NewRegistry(testDataset(), Options{}, testLogger())
	s := r.Create()
	r.Create()

	if n := r.Purge(); n != 2 {
		t.Errorf("Purge() = %d, want 2", n)
	}
	if r.Len() != 0 {
		t.Errorf("Len() after purge = %d", r.Len())
	}
	if _, ok := r.Get(s.ID()); ok {
		t.Error("purged session should not be found")
	}
}

package memo

import "testing"

func TestPutEvictsOldestInsertionFirst(t *testing.T) {
	tbl := New[int, string](2)
	tbl.Put(1, "a")
	tbl.Put(2, "b")
	tbl.Put(3, "c") // evicts 1

	if _, ok := tbl.Get(1); ok {
		t.Fatal("expected key 1 to be evicted")
	}
	if v, ok := tbl.Get(2); !ok || v != "b" {
		t.Fatalf("key 2: got %q, %v", v, ok)
	}
	if v, ok := tbl.Get(3); !ok || v != "c" {
		t.Fatalf("key 3: got %q, %v", v, ok)
	}
	if tbl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tbl.Len())
	}
}

func TestOverwriteKeepsEvictionOrder(t *testing.T) {
	tbl := New[int, string](2)
	tbl.Put(1, "a")
	tbl.Put(2, "b")
	tbl.Put(1, "a2") // overwrite, 1 stays oldest
	tbl.Put(3, "c")  // still evicts 1

	if _, ok := tbl.Get(1); ok {
		t.Fatal("overwritten key 1 should still be evicted first")
	}
	if v, ok := tbl.Get(2); !ok || v != "b" {
		t.Fatalf("key 2: got %q, %v", v, ok)
	}
}

func TestStatsCountHitsAndMisses(t *testing.T) {
	tbl := New[string, int](4)
	tbl.Get("missing")
	tbl.Put("k", 7)
	tbl.Get("k")
	tbl.Get("k")

	s := tbl.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Fatalf("stats = %+v, want 2 hits / 1 miss", s)
	}
	if got := s.HitRatio(); got < 0.66 || got > 0.67 {
		t.Fatalf("HitRatio() = %v", got)
	}
}

func TestHitRatioOnUnusedTable(t *testing.T) {
	if r := (Stats{}).HitRatio(); r != 0 {
		t.Fatalf("HitRatio() on empty stats = %v, want 0", r)
	}
}

func TestZeroCapacityNeverStores(t *testing.T) {
	tbl := New[int, int](0)
	tbl.Put(1, 1)
	if _, ok := tbl.Get(1); ok {
		t.Fatal("zero-capacity table must not store entries")
	}
	if tbl.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", tbl.Len())
	}
}

func TestResetClearsEntriesAndStats(t *testing.T) {
	tbl := New[int, int](4)
	tbl.Put(1, 1)
	tbl.Get(1)
	tbl.Get(2)
	tbl.Reset()

	if tbl.Len() != 0 {
		t.Fatalf("Len() after reset = %d", tbl.Len())
	}
	if s := tbl.Stats(); s.Hits != 0 || s.Misses != 0 {
		t.Fatalf("stats after reset = %+v", s)
	}
	// Table must be usable after a reset.
	tbl.Put(2, 2)
	if v, ok := tbl.Get(2); !ok || v != 2 {
		t.Fatalf("get after reset: %v, %v", v, ok)
	}
}

func TestStatsAdd(t *testing.T) {
	a := Stats{Hits: 3, Misses: 1}
	b := Stats{Hits: 2, Misses: 4}
	sum := a.Add(b)
	if sum.Hits != 5 || sum.Misses != 5 {
		t.Fatalf("Add = %+v", sum)
	}
}

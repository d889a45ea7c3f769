// Package memo provides small bounded memo tables for the pure numeric
// operations of the engine (ATR, Kelly, position size, risk level). Tables
// evict in insertion order when full and count hits/misses for the cache
// statistics surface. They are best-effort: a stale or evicted entry only
// costs a recompute.
//
// Tables are not safe for concurrent use. The engine creates a fresh set
// for every simulation run, so entries can never leak across runs.
package memo

// Stats is a hit/miss snapshot for one table.
type Stats struct {
	Hits   uint64
	Misses uint64
}

// HitRatio returns hits/(hits+misses), or 0 for an unused table.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Add merges another snapshot into this one.
func (s Stats) Add(other Stats) Stats {
	return Stats{Hits: s.Hits + other.Hits, Misses: s.Misses + other.Misses}
}

// Table is a bounded FIFO memo table.
type Table[K comparable, V any] struct {
	capacity int
	entries  map[K]V
	order    []K
	stats    Stats
}

// New returns an empty table holding at most capacity entries. A capacity
// of zero or less disables storage entirely; lookups then always miss.
func New[K comparable, V any](capacity int) *Table[K, V] {
	return &Table[K, V]{
		capacity: capacity,
		entries:  make(map[K]V, max(capacity, 0)),
	}
}

// Get looks up a key and records a hit or miss.
func (t *Table[K, V]) Get(key K) (V, bool) {
	v, ok := t.entries[key]
	if ok {
		t.stats.Hits++
	} else {
		t.stats.Misses++
	}
	return v, ok
}

// Put stores a value, evicting the oldest inserted key when the table is
// full. Overwriting an existing key does not change its eviction order.
func (t *Table[K, V]) Put(key K, value V) {
	if t.capacity <= 0 {
		return
	}
	if _, exists := t.entries[key]; !exists {
		if len(t.order) >= t.capacity {
			oldest := t.order[0]
			t.order = t.order[1:]
			delete(t.entries, oldest)
		}
		t.order = append(t.order, key)
	}
	t.entries[key] = value
}

// Len returns the number of stored entries.
func (t *Table[K, V]) Len() int { return len(t.entries) }

// Stats returns the hit/miss counters accumulated so far.
func (t *Table[K, V]) Stats() Stats { return t.stats }

// Reset drops all entries and zeroes the counters.
func (t *Table[K, V]) Reset() {
	clear(t.entries)
	t.order = t.order[:0]
	t.stats = Stats{}
}

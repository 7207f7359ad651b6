package rangeintern

import "sync"

// Table is a concurrent intern table for Range values, shared by every
// goroutine of one executor run.
// Lookups hash the candidate range first (cheap, lock-free) and only take
// the table's read lock to walk the matching bucket; a new distinct range
// takes the write lock once to insert. Reads dominate writes by a wide
// margin during analysis — most ranges reappear across many edges — so the
// RWMutex stays almost entirely in its read-locked state on the hot path.
//
// A Table is bounded only implicitly, by the number of distinct ranges
// seen in one indexing run. Callers create a fresh Table per executor run
// (see New) rather than reusing one across runs, so memory does not grow
// unbounded across the lifetime of a long-running daemon.
type Table struct {
	mu      sync.RWMutex
	buckets map[uint64][]*Range
	size    int
}

// New creates an empty intern table.
func New() *Table {
	return &Table{buckets: make(map[uint64][]*Range)}
}

// Intern returns the canonical *Range for r, inserting it if this is the
// first time r has been seen by this table.
func (t *Table) Intern(r Range) *Range {
	h := r.hash()

	t.mu.RLock()
	for _, existing := range t.buckets[h] {
		if *existing == r {
			t.mu.RUnlock()
			return existing
		}
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()

	// Re-check under the write lock: another goroutine may have inserted
	// the same value between our RUnlock and this Lock.
	for _, existing := range t.buckets[h] {
		if *existing == r {
			return existing
		}
	}

	canonical := new(Range)
	*canonical = r
	t.buckets[h] = append(t.buckets[h], canonical)
	t.size++
	return canonical
}

// Len returns the number of distinct ranges interned so far.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.size
}

package index

import (
	"sync"
	"sync/atomic"
)

// Snapshot is an immutable, ordered view of the index. Iteration order is
// discovery order: loaded entries first, then additions in the order they
// were committed.
type Snapshot struct {
	items []Item
	pos   map[string]int
}

// NewSnapshot builds a snapshot from items. Duplicate paths keep their first
// occurrence.
func NewSnapshot(items []Item) *Snapshot {
	s := &Snapshot{
		items: make([]Item, 0, len(items)),
		pos:   make(map[string]int, len(items)),
	}
	for _, it := range items {
		if _, dup := s.pos[it.Path]; dup {
			continue
		}
		s.pos[it.Path] = len(s.items)
		s.items = append(s.items, it)
	}
	return s
}

// Len returns the number of entries.
func (s *Snapshot) Len() int {
	return len(s.items)
}

// Items returns the entries in iteration order. The slice must not be
// modified.
func (s *Snapshot) Items() []Item {
	return s.items
}

// Lookup returns the entry for path.
func (s *Snapshot) Lookup(path string) (Item, bool) {
	i, ok := s.pos[path]
	if !ok {
		return Item{}, false
	}
	return s.items[i], true
}

// Entries returns the persisted form of every entry, in order.
func (s *Snapshot) Entries() []Entry {
	out := make([]Entry, len(s.items))
	for i, it := range s.items {
		out[i] = it.Entry()
	}
	return out
}

// Table is the live index. Readers take the last committed snapshot; writers
// publish a whole new snapshot per commit, so a reader never observes a
// half-applied reconciliation.
type Table struct {
	mu  sync.Mutex // serializes writers
	cur atomic.Pointer[Snapshot]
}

// NewTable returns a table whose first snapshot holds items.
func NewTable(items []Item) *Table {
	t := &Table{}
	t.cur.Store(NewSnapshot(items))
	return t
}

// Snapshot returns the last committed snapshot.
func (t *Table) Snapshot() *Snapshot {
	return t.cur.Load()
}

// Commit removes the given paths, then appends added, and publishes the
// result. A path present in added replaces any existing entry for it.
func (t *Table) Commit(removed []string, added []Item) *Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	drop := make(map[string]struct{}, len(removed)+len(added))
	for _, p := range removed {
		drop[p] = struct{}{}
	}
	for _, it := range added {
		drop[it.Path] = struct{}{}
	}

	prev := t.cur.Load()
	items := make([]Item, 0, prev.Len()+len(added))
	for _, it := range prev.items {
		if _, ok := drop[it.Path]; ok {
			continue
		}
		items = append(items, it)
	}
	items = append(items, added...)

	next := NewSnapshot(items)
	t.cur.Store(next)
	return next
}

// Reset replaces the table contents with an empty snapshot.
func (t *Table) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cur.Store(NewSnapshot(nil))
}

package testutil

import "sync"

// FixedIDs returns predetermined ids in order.
//
// Tests that need to name blocks before they exist can list the ids up front
// and refer to them in expectations.
//
// Thread-safety: FixedIDs is safe for concurrent use via internal mutex.
type FixedIDs struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedIDs creates a generator returning ids in order.
//
// Example:
//
//	gen := NewFixedIDs("fn", "var", "assert")
//	gen.NewID() // "fn"
//	gen.NewID() // "var"
//	gen.NewID() // "assert"
//	gen.NewID() // panic: all ids exhausted
func NewFixedIDs(ids ...string) *FixedIDs {
	return &FixedIDs{ids: ids}
}

// NewID returns the next predetermined id.
//
// Panics if all ids have been consumed, to catch a test creating more
// blocks than it expected.
func (g *FixedIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idx >= len(g.ids) {
		panic("FixedIDs: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

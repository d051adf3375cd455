package block

import (
	"errors"
	"fmt"
)

var (
	ErrDanglingParent = errors.New("parent not in suite")
	ErrCycle          = errors.New("parent chain forms a cycle")
	ErrDuplicateID    = errors.New("duplicate block id")
)

// Block is one node of a suite's tree.
// An empty ParentID marks a top-level block.
type Block struct {
	ID       string
	ParentID string
	Payload  Payload
}

// Kind returns the kind of the block's payload.
func (b Block) Kind() Kind {
	if b.Payload == nil {
		return ""
	}
	return b.Payload.Kind()
}

// IsTopLevel reports whether b has no parent.
func (b Block) IsTopLevel() bool {
	return b.ParentID == ""
}

// Suite is a named collection of blocks that renders to one test file.
// The order of Blocks is the sibling order used by code generation.
type Suite struct {
	ID     string
	Name   string
	Blocks []Block
}

// Index returns the position of id in s.Blocks, or -1.
func (s Suite) Index(id string) int {
	for i := range s.Blocks {
		if s.Blocks[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the block with the given id.
func (s Suite) Find(id string) (Block, bool) {
	if i := s.Index(id); i >= 0 {
		return s.Blocks[i], true
	}
	return Block{}, false
}

// Children returns the direct children of parentID in sibling order.
// An empty parentID returns the top-level blocks.
func (s Suite) Children(parentID string) []Block {
	var out []Block
	for _, b := range s.Blocks {
		if b.ParentID == parentID {
			out = append(out, b)
		}
	}
	return out
}

// Descendants returns the ids of every block below id, excluding id itself.
// The result follows Blocks order.
func (s Suite) Descendants(id string) []string {
	closure := map[string]bool{id: true}
	// Parents may appear after their children in Blocks after a reorder,
	// so iterate to a fixed point.
	for changed := true; changed; {
		changed = false
		for _, b := range s.Blocks {
			if !closure[b.ID] && b.ParentID != "" && closure[b.ParentID] {
				closure[b.ID] = true
				changed = true
			}
		}
	}
	var out []string
	for _, b := range s.Blocks {
		if b.ID != id && closure[b.ID] {
			out = append(out, b.ID)
		}
	}
	return out
}

// Ancestors returns the parent chain of id, nearest first.
// The walk stops at a missing parent or a repeated id.
func (s Suite) Ancestors(id string) []string {
	var out []string
	seen := map[string]bool{id: true}
	b, ok := s.Find(id)
	for ok && b.ParentID != "" && !seen[b.ParentID] {
		seen[b.ParentID] = true
		out = append(out, b.ParentID)
		b, ok = s.Find(b.ParentID)
	}
	return out
}

// Depth returns the number of ancestors of id. Top-level blocks have depth 0.
func (s Suite) Depth(id string) int {
	return len(s.Ancestors(id))
}

// IsAncestor reports whether ancestorID appears on the parent chain of id.
func (s Suite) IsAncestor(ancestorID, id string) bool {
	for _, a := range s.Ancestors(id) {
		if a == ancestorID {
			return true
		}
	}
	return false
}

// CheckTree verifies the structural invariants of s: unique ids, every
// ParentID names a block in s, and no parent chain revisits a block.
func (s Suite) CheckTree() error {
	index := make(map[string]Block, len(s.Blocks))
	for _, b := range s.Blocks {
		if b.ID == "" {
			return fmt.Errorf("%w: empty id", ErrDuplicateID)
		}
		if _, dup := index[b.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, b.ID)
		}
		index[b.ID] = b
	}
	for _, b := range s.Blocks {
		if b.ParentID == "" {
			continue
		}
		if _, ok := index[b.ParentID]; !ok {
			return fmt.Errorf("block %s: %w: %s", b.ID, ErrDanglingParent, b.ParentID)
		}
		seen := map[string]bool{b.ID: true}
		for p := b.ParentID; p != ""; p = index[p].ParentID {
			if seen[p] {
				return fmt.Errorf("block %s: %w", b.ID, ErrCycle)
			}
			seen[p] = true
		}
	}
	return nil
}

// Clone returns a copy of s whose Blocks slice is not shared.
// Payloads are values and need no deep copy.
func (s Suite) Clone() Suite {
	s.Blocks = append([]Block(nil), s.Blocks...)
	return s
}

// RubricItem is a grading-rubric entry supplied by the host.
type RubricItem struct {
	ID     string
	Name   string
	Points int
}

// SourceFile is a reference solution attached for static checks.
type SourceFile struct {
	Name    string
	Content string
}

// State is the complete editable workspace: what a history snapshot captures.
type State struct {
	Suites        []Suite
	ActiveSuiteID string
	RubricItems   []RubricItem
	SourceFiles   []SourceFile
}

// Suite returns the suite with the given id.
func (st State) Suite(id string) (Suite, bool) {
	for _, s := range st.Suites {
		if s.ID == id {
			return s, true
		}
	}
	return Suite{}, false
}

// BlockCount returns the number of blocks across all suites.
func (st State) BlockCount() int {
	n := 0
	for _, s := range st.Suites {
		n += len(s.Blocks)
	}
	return n
}

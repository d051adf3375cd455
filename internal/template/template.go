// Package template expands pre-authored block fragments into a suite as a
// single atomic edit.
//
// A Template is design-time data: it carries no block ids. Expansion mints a
// fresh id for every node and wires each child to its parent's new id, so
// the same template can be expanded any number of times.
//
// Templates nest at most two levels below the root (children and
// grandchildren). Deeper fragments are rejected with ErrTooDeep rather than
// truncated.
package template

import (
	"errors"
	"fmt"

	"github.com/roach88/blocktest/internal/block"
)

// MaxDepth is the deepest supported node level below the root.
const MaxDepth = 2

var (
	ErrInvalidRoot = errors.New("template root must be a function block")
	ErrTooDeep     = errors.New("template nests deeper than grandchildren")
)

// Node is one design-time block of a template.
type Node struct {
	Kind     block.Kind
	Fields   map[string]string
	Children []Node
}

// Template is a named fragment offered for one-gesture insertion.
type Template struct {
	Name        string
	Description string
	Root        Node
}

// Count returns the number of nodes in t, root included.
func (t Template) Count() int {
	return countNodes(t.Root)
}

func countNodes(n Node) int {
	c := 1
	for _, child := range n.Children {
		c += countNodes(child)
	}
	return c
}

// Validate checks the root kind, every node's kind and fields, and the
// nesting depth.
func (t Template) Validate() error {
	if !t.Root.Kind.IsFunctionRoot() {
		return fmt.Errorf("template %q: %w, got %q", t.Name, ErrInvalidRoot, t.Root.Kind)
	}
	return validateNode(t.Name, t.Root, 0, "root")
}

func validateNode(name string, n Node, depth int, path string) error {
	if depth > MaxDepth {
		return fmt.Errorf("template %q: %w at %s", name, ErrTooDeep, path)
	}
	if _, err := block.NewPayload(n.Kind, n.Fields); err != nil {
		return fmt.Errorf("template %q: %s: %w", name, path, err)
	}
	for i, child := range n.Children {
		if err := validateNode(name, child, depth+1, fmt.Sprintf("%s.children[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

// Build turns t into a flat list of blocks with fresh ids from gen, in
// depth-first pre-order. The root comes first with an empty ParentID.
func (t Template) Build(gen block.IDGenerator) ([]block.Block, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	out := make([]block.Block, 0, t.Count())
	var walk func(n Node, parentID string)
	walk = func(n Node, parentID string) {
		// Validate already accepted every node's payload.
		p, _ := block.NewPayload(n.Kind, n.Fields)
		id := gen.NewID()
		out = append(out, block.Block{ID: id, ParentID: parentID, Payload: p})
		for _, child := range n.Children {
			walk(child, id)
		}
	}
	walk(t.Root, "")
	return out, nil
}

// Inserter is the part of the suite store expansion needs.
type Inserter interface {
	NewID() string
	InsertBatch(suiteID string, blocks []block.Block, beforeID string) error
}

// idFunc adapts an Inserter's NewID to block.IDGenerator.
type idFunc func() string

func (f idFunc) NewID() string { return f() }

// Expand inserts t into suiteID before beforeID (or at the end) as one
// batch, returning the new ids with the root first.
func Expand(store Inserter, suiteID string, t Template, beforeID string) ([]string, error) {
	blocks, err := t.Build(idFunc(store.NewID))
	if err != nil {
		return nil, err
	}
	if err := store.InsertBatch(suiteID, blocks, beforeID); err != nil {
		return nil, fmt.Errorf("expand template %q: %w", t.Name, err)
	}
	ids := make([]string, len(blocks))
	for i, b := range blocks {
		ids[i] = b.ID
	}
	return ids, nil
}

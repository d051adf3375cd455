package suite

import (
	"fmt"

	"github.com/roach88/blocktest/internal/block"
)

// insertBefore returns a new slice with items placed immediately before
// beforeID, or appended when beforeID is empty.
func insertBefore(blocks, items []block.Block, beforeID string) ([]block.Block, error) {
	at := len(blocks)
	if beforeID != "" {
		at = -1
		for i := range blocks {
			if blocks[i].ID == beforeID {
				at = i
				break
			}
		}
		if at < 0 {
			return nil, fmt.Errorf("%w: insert position %s", ErrBlockNotFound, beforeID)
		}
	}
	out := make([]block.Block, 0, len(blocks)+len(items))
	out = append(out, blocks[:at]...)
	out = append(out, items...)
	out = append(out, blocks[at:]...)
	return out, nil
}

// AddBlock inserts a new block with a fresh id under parentID (empty for
// top level), before beforeID or at the end of the sequence.
//
// No type-compatibility check is made.
func (s *Store) AddBlock(suiteID string, payload block.Payload, parentID, beforeID string) (string, error) {
	if payload == nil {
		return "", fmt.Errorf("AddBlock: nil payload")
	}
	id := s.ids.NewID()
	err := s.mutate(func() (*Edit, error) {
		su, err := s.suite(suiteID)
		if err != nil {
			return nil, err
		}
		if su.Index(id) >= 0 {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		if parentID != "" && su.Index(parentID) < 0 {
			return nil, fmt.Errorf("%w: %s", ErrParentNotFound, parentID)
		}
		blocks, err := insertBefore(su.Blocks, []block.Block{{ID: id, ParentID: parentID, Payload: payload}}, beforeID)
		if err != nil {
			return nil, err
		}
		su.Blocks = blocks
		return &Edit{Op: OpAdd, SuiteID: suiteID, BlockIDs: []string{id}}, nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// InsertBatch inserts pre-built blocks as one contiguous run before beforeID
// (or at the end) in a single edit. Every id must be new to the suite and
// every ParentID must name a block already in the suite or earlier in the
// batch, which also rules out cycles.
func (s *Store) InsertBatch(suiteID string, blocks []block.Block, beforeID string) error {
	if len(blocks) == 0 {
		return nil
	}
	return s.mutate(func() (*Edit, error) {
		su, err := s.suite(suiteID)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]bool, len(blocks))
		ids := make([]string, 0, len(blocks))
		for _, b := range blocks {
			if b.ID == "" || seen[b.ID] || su.Index(b.ID) >= 0 {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateID, b.ID)
			}
			if b.Payload == nil {
				return nil, fmt.Errorf("InsertBatch: block %s has nil payload", b.ID)
			}
			if b.ParentID != "" && !seen[b.ParentID] && su.Index(b.ParentID) < 0 {
				return nil, fmt.Errorf("block %s: %w: %s", b.ID, ErrParentNotFound, b.ParentID)
			}
			seen[b.ID] = true
			ids = append(ids, b.ID)
		}
		out, err := insertBefore(su.Blocks, blocks, beforeID)
		if err != nil {
			return nil, err
		}
		su.Blocks = out
		return &Edit{Op: OpInsertBatch, SuiteID: suiteID, BlockIDs: ids}, nil
	})
}

// RemoveBlock removes id and its entire descendant subtree, returning the
// removed ids in sequence order. Any rubricId in the suite naming a removed
// block is cleared.
func (s *Store) RemoveBlock(suiteID, id string) ([]string, error) {
	var removed []string
	err := s.mutate(func() (*Edit, error) {
		su, err := s.suite(suiteID)
		if err != nil {
			return nil, err
		}
		if su.Index(id) < 0 {
			return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
		}
		gone := map[string]bool{id: true}
		for _, d := range su.Descendants(id) {
			gone[d] = true
		}
		kept := make([]block.Block, 0, len(su.Blocks)-len(gone))
		for _, b := range su.Blocks {
			if gone[b.ID] {
				removed = append(removed, b.ID)
				continue
			}
			if rid, ok := b.Payload.Get(block.FieldRubricID); ok && gone[rid] {
				b.Payload, _ = b.Payload.With(block.FieldRubricID, "")
			}
			kept = append(kept, b)
		}
		su.Blocks = kept
		return &Edit{Op: OpRemove, SuiteID: suiteID, BlockIDs: removed}, nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// ReparentAndReorder moves activeID under newParentID (empty for top level)
// and repositions it before beforeID, or at the end of the sequence. The
// block's subtree moves with it logically; only its own slot in the
// sequence changes.
func (s *Store) ReparentAndReorder(suiteID, activeID, newParentID, beforeID string) error {
	return s.mutate(func() (*Edit, error) {
		su, err := s.suite(suiteID)
		if err != nil {
			return nil, err
		}
		from := su.Index(activeID)
		if from < 0 {
			return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, activeID)
		}
		if newParentID != "" {
			if su.Index(newParentID) < 0 {
				return nil, fmt.Errorf("%w: %s", ErrParentNotFound, newParentID)
			}
			if newParentID == activeID || su.IsAncestor(activeID, newParentID) {
				return nil, fmt.Errorf("%w: %s under %s", ErrCycle, activeID, newParentID)
			}
		}
		if beforeID == activeID {
			beforeID = ""
		}
		moved := su.Blocks[from]
		moved.ParentID = newParentID
		rest := make([]block.Block, 0, len(su.Blocks))
		rest = append(rest, su.Blocks[:from]...)
		rest = append(rest, su.Blocks[from+1:]...)
		out, err := insertBefore(rest, []block.Block{moved}, beforeID)
		if err != nil {
			return nil, err
		}
		su.Blocks = out
		return &Edit{Op: OpReparent, SuiteID: suiteID, BlockIDs: []string{activeID}}, nil
	})
}

// MoveWithinSiblings moves activeID to overID's position in the sequence.
// Moving down places it after overID, moving up places it before.
// It is a no-op when the two blocks have different parents or are the
// same block.
func (s *Store) MoveWithinSiblings(suiteID, activeID, overID string) error {
	return s.mutate(func() (*Edit, error) {
		su, err := s.suite(suiteID)
		if err != nil {
			return nil, err
		}
		from, to := su.Index(activeID), su.Index(overID)
		if from < 0 {
			return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, activeID)
		}
		if to < 0 {
			return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, overID)
		}
		if from == to || su.Blocks[from].ParentID != su.Blocks[to].ParentID {
			return nil, nil
		}
		su.Blocks = arrayMove(su.Blocks, from, to)
		return &Edit{Op: OpMove, SuiteID: suiteID, BlockIDs: []string{activeID, overID}}, nil
	})
}

// arrayMove returns a copy of blocks with the element at from moved to to.
func arrayMove(blocks []block.Block, from, to int) []block.Block {
	out := make([]block.Block, 0, len(blocks))
	out = append(out, blocks[:from]...)
	out = append(out, blocks[from+1:]...)
	moved := blocks[from]
	out = append(out[:to], append([]block.Block{moved}, out[to:]...)...)
	return out
}

// UpdateField replaces one payload field of id. Parent and kind never change.
// The value is not validated.
func (s *Store) UpdateField(suiteID, id, field, value string) error {
	return s.mutate(func() (*Edit, error) {
		su, err := s.suite(suiteID)
		if err != nil {
			return nil, err
		}
		i := su.Index(id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
		}
		p, err := su.Blocks[i].Payload.With(field, value)
		if err != nil {
			return nil, err
		}
		su.Blocks[i].Payload = p
		return &Edit{Op: OpUpdateField, SuiteID: suiteID, BlockIDs: []string{id}}, nil
	})
}

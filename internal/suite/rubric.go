package suite

import (
	"fmt"
	"slices"

	"github.com/roach88/blocktest/internal/block"
)

// SetRubricItems replaces the rubric items supplied by the host.
// Existing links are left alone even if their item disappears; the host
// owns the rubric list and may reload it at any time.
func (s *Store) SetRubricItems(items []block.RubricItem) error {
	return s.mutate(func() (*Edit, error) {
		s.state.RubricItems = append([]block.RubricItem(nil), items...)
		return &Edit{Op: OpRubricItems}, nil
	})
}

// RubricItems returns the current rubric items.
func (s *Store) RubricItems() []block.RubricItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]block.RubricItem(nil), s.state.RubricItems...)
}

// usedRubricIDs returns rubric id -> linking block id. Callers must hold s.mu.
func (s *Store) usedRubricIDs() map[string]string {
	used := make(map[string]string)
	for _, su := range s.state.Suites {
		for _, b := range su.Blocks {
			if !b.Kind().IsFunctionRoot() {
				continue
			}
			if rid, _ := b.Payload.Get(block.FieldRubricID); rid != "" {
				used[rid] = b.ID
			}
		}
	}
	return used
}

// LinkRubric links function block funcID to rubricID. A rubric item may be
// linked from at most one function across all suites; relinking the same
// function to the same item is a no-op.
func (s *Store) LinkRubric(suiteID, funcID, rubricID string) error {
	return s.mutate(func() (*Edit, error) {
		su, err := s.suite(suiteID)
		if err != nil {
			return nil, err
		}
		i := su.Index(funcID)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, funcID)
		}
		if !su.Blocks[i].Kind().IsFunctionRoot() {
			return nil, fmt.Errorf("%w: %s is %s", ErrNotFunction, funcID, su.Blocks[i].Kind())
		}
		if !slices.ContainsFunc(s.state.RubricItems, func(r block.RubricItem) bool { return r.ID == rubricID }) {
			return nil, fmt.Errorf("%w: %s", ErrRubricNotFound, rubricID)
		}
		if owner, ok := s.usedRubricIDs()[rubricID]; ok {
			if owner == funcID {
				return nil, nil
			}
			return nil, fmt.Errorf("%w: %s by %s", ErrRubricInUse, rubricID, owner)
		}
		p, err := su.Blocks[i].Payload.With(block.FieldRubricID, rubricID)
		if err != nil {
			return nil, err
		}
		su.Blocks[i].Payload = p
		return &Edit{Op: OpLinkRubric, SuiteID: suiteID, BlockIDs: []string{funcID}}, nil
	})
}

// UnlinkRubric clears the rubric link of funcID.
func (s *Store) UnlinkRubric(suiteID, funcID string) error {
	return s.mutate(func() (*Edit, error) {
		su, err := s.suite(suiteID)
		if err != nil {
			return nil, err
		}
		i := su.Index(funcID)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrBlockNotFound, funcID)
		}
		if rid, ok := su.Blocks[i].Payload.Get(block.FieldRubricID); !ok || rid == "" {
			return nil, nil
		}
		su.Blocks[i].Payload, _ = su.Blocks[i].Payload.With(block.FieldRubricID, "")
		return &Edit{Op: OpUnlinkRubric, SuiteID: suiteID, BlockIDs: []string{funcID}}, nil
	})
}

// UsedRubricIDs returns the sorted rubric ids linked anywhere in the store.
func (s *Store) UsedRubricIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for rid := range s.usedRubricIDs() {
		ids = append(ids, rid)
	}
	slices.Sort(ids)
	return ids
}

// UnusedRubricItems returns rubric items no function links to, in the
// order the host supplied them.
func (s *Store) UnusedRubricItems() []block.RubricItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	used := s.usedRubricIDs()
	var out []block.RubricItem
	for _, r := range s.state.RubricItems {
		if _, ok := used[r.ID]; !ok {
			out = append(out, r)
		}
	}
	return out
}

// AttachSourceFile adds or replaces a source file by name.
func (s *Store) AttachSourceFile(f block.SourceFile) error {
	return s.mutate(func() (*Edit, error) {
		for i := range s.state.SourceFiles {
			if s.state.SourceFiles[i].Name == f.Name {
				s.state.SourceFiles[i] = f
				return &Edit{Op: OpAttachFile}, nil
			}
		}
		s.state.SourceFiles = append(s.state.SourceFiles, f)
		return &Edit{Op: OpAttachFile}, nil
	})
}

// DetachSourceFile removes a source file by name. Unknown names are a no-op.
func (s *Store) DetachSourceFile(name string) error {
	return s.mutate(func() (*Edit, error) {
		i := slices.IndexFunc(s.state.SourceFiles, func(f block.SourceFile) bool { return f.Name == name })
		if i < 0 {
			return nil, nil
		}
		s.state.SourceFiles = slices.Delete(slices.Clone(s.state.SourceFiles), i, i+1)
		return &Edit{Op: OpDetachFile}, nil
	})
}

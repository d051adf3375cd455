package store

import (
	"context"
	"fmt"

	"github.com/roach88/blocktest/internal/block"
	"github.com/roach88/blocktest/internal/codegen"
)

// Mismatch is a stored value that no longer matches what the archived state
// derives to.
type Mismatch struct {
	RevisionID int64
	Field      string // "fingerprint", "block_count" or "source:<suite id>"
	Stored     string
	Derived    string
}

// Restorer receives a checked-out state. *suite.Store satisfies it.
type Restorer interface {
	Restore(block.State)
}

// Checkout loads revision id into target.
func (s *Store) Checkout(ctx context.Context, id int64, target Restorer) (Revision, error) {
	rev, err := s.ReadRevision(ctx, id)
	if err != nil {
		return Revision{}, fmt.Errorf("checkout: %w", err)
	}
	target.Restore(rev.State)
	return rev, nil
}

// Verify replays every revision of session (all sessions when empty):
// it re-derives the fingerprint, block count and generated sources from
// the stored state and reports every difference. An empty result means the
// archive is consistent with the current generator.
func (s *Store) Verify(ctx context.Context, session string) ([]Mismatch, error) {
	sums, err := s.ListRevisions(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}

	out := []Mismatch{}
	for _, sum := range sums {
		rev, err := s.ReadRevision(ctx, sum.ID)
		if err != nil {
			return nil, fmt.Errorf("verify: %w", err)
		}
		fp, err := block.StateFingerprint(rev.State)
		if err != nil {
			return nil, fmt.Errorf("verify revision %d: %w", rev.ID, err)
		}
		if fp != rev.Fingerprint {
			out = append(out, Mismatch{RevisionID: rev.ID, Field: "fingerprint", Stored: rev.Fingerprint, Derived: fp})
		}
		if n := rev.State.BlockCount(); n != rev.BlockCount {
			out = append(out, Mismatch{
				RevisionID: rev.ID,
				Field:      "block_count",
				Stored:     fmt.Sprint(rev.BlockCount),
				Derived:    fmt.Sprint(n),
			})
		}

		sources, err := s.ReadSources(ctx, rev.ID)
		if err != nil {
			return nil, fmt.Errorf("verify revision %d: %w", rev.ID, err)
		}
		stored := make(map[string]string, len(sources))
		for _, src := range sources {
			stored[src.SuiteID] = src.Code
		}
		for _, su := range rev.State.Suites {
			if code := codegen.Generate(su); code != stored[su.ID] {
				out = append(out, Mismatch{RevisionID: rev.ID, Field: "source:" + su.ID, Stored: stored[su.ID], Derived: code})
			}
		}
	}
	return out, nil
}

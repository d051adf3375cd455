package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/blocktest/internal/block"
	"github.com/roach88/blocktest/internal/codegen"
	"github.com/roach88/blocktest/internal/history"
)

// WriteRevision archives one history snapshot of a session together with
// the generated source of each suite. It returns the revision id.
//
// Uses ON CONFLICT(session, snapshot_seq) DO NOTHING for idempotency: a
// second write of the same snapshot returns the id of the first.
func (s *Store) WriteRevision(ctx context.Context, session string, snap history.Snapshot) (int64, error) {
	if session == "" {
		return 0, fmt.Errorf("write revision: empty session")
	}
	fingerprint, err := block.StateFingerprint(snap.State)
	if err != nil {
		return 0, fmt.Errorf("write revision: %w", err)
	}
	stateJSON, err := marshalState(snap.State)
	if err != nil {
		return 0, fmt.Errorf("write revision: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write revision: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO revisions (session, snapshot_seq, fingerprint, block_count, state)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session, snapshot_seq) DO NOTHING
	`, session, snap.Seq, fingerprint, snap.State.BlockCount(), stateJSON)
	if err != nil {
		return 0, fmt.Errorf("write revision: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		var (
			id     int64
			stored string
		)
		err := tx.QueryRowContext(ctx,
			`SELECT id, fingerprint FROM revisions WHERE session = ? AND snapshot_seq = ?`,
			session, snap.Seq).Scan(&id, &stored)
		if err != nil {
			return 0, fmt.Errorf("write revision: lookup existing: %w", err)
		}
		if stored != fingerprint {
			return 0, fmt.Errorf("write revision %s/%d: %w", session, snap.Seq, ErrRevisionConflict)
		}
		return id, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("write revision: %w", err)
	}

	for i, su := range snap.State.Suites {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO generated_sources (revision_id, position, suite_id, suite_name, class_name, code)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, i, su.ID, su.Name, codegen.ClassName(su.Name), codegen.Generate(su))
		if err != nil {
			return 0, fmt.Errorf("write revision: source for suite %s: %w", su.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write revision: commit: %w", err)
	}
	return id, nil
}

// CommitHook returns a history hook that archives every snapshot under
// session. Hooks cannot fail, so write errors are logged and also passed to
// onError when it is non-nil.
func (s *Store) CommitHook(ctx context.Context, session string, logger *slog.Logger, onError func(error)) history.CommitHook {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return func(snap history.Snapshot) {
		id, err := s.WriteRevision(ctx, session, snap)
		if err != nil {
			logger.Error("archive revision failed",
				"session", session,
				"seq", snap.Seq,
				"error", err)
			if onError != nil {
				onError(err)
			}
			return
		}
		logger.Debug("archived revision",
			"session", session,
			"seq", snap.Seq,
			"revision", id)
	}
}

// DeleteSession removes every revision of session and reports how many
// were removed. Generated sources go with them.
func (s *Store) DeleteSession(ctx context.Context, session string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM revisions WHERE session = ?`, session)
	if err != nil {
		return 0, fmt.Errorf("delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete session: %w", err)
	}
	return n, nil
}

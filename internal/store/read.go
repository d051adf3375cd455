package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/blocktest/internal/block"
)

// Source is the generated test source of one suite in a revision.
type Source struct {
	SuiteID   string
	SuiteName string
	ClassName string
	Code      string
}

// Revision is one archived snapshot.
type Revision struct {
	ID          int64
	Session     string
	SnapshotSeq int
	Fingerprint string
	BlockCount  int
	State       block.State
}

// Summary is a revision without its state, for listings.
type Summary struct {
	ID          int64
	Session     string
	SnapshotSeq int
	Fingerprint string
	BlockCount  int
}

const summaryColumns = `id, session, snapshot_seq, fingerprint, block_count`

// ListRevisions returns revision summaries ordered by id. An empty session
// lists every session.
//
// Returns an empty slice (not nil) when nothing is archived.
func (s *Store) ListRevisions(ctx context.Context, session string) ([]Summary, error) {
	query := `SELECT ` + summaryColumns + ` FROM revisions`
	var args []any
	if session != "" {
		query += ` WHERE session = ?`
		args = append(args, session)
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query revisions: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Session, &sum.SnapshotSeq, &sum.Fingerprint, &sum.BlockCount); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}
	return out, nil
}

// ReadRevisions returns the full revisions of session ordered by id.
func (s *Store) ReadRevisions(ctx context.Context, session string) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+summaryColumns+`, state
		FROM revisions
		WHERE session = ?
		ORDER BY id ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("query revisions: %w", err)
	}
	defer rows.Close()

	out := []Revision{}
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}
	return out, nil
}

// ReadRevision returns the revision with the given id.
// Returns ErrRevisionNotFound if there is none.
func (s *Store) ReadRevision(ctx context.Context, id int64) (Revision, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+summaryColumns+`, state
		FROM revisions
		WHERE id = ?
	`, id)
	rev, err := scanRevision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Revision{}, fmt.Errorf("revision %d: %w", id, ErrRevisionNotFound)
	}
	return rev, err
}

// LatestRevision returns the newest revision of session, or of any session
// when session is empty.
// Returns ErrRevisionNotFound if nothing is archived.
func (s *Store) LatestRevision(ctx context.Context, session string) (Revision, error) {
	query := `SELECT ` + summaryColumns + `, state FROM revisions`
	var args []any
	if session != "" {
		query += ` WHERE session = ?`
		args = append(args, session)
	}
	query += ` ORDER BY id DESC LIMIT 1`

	rev, err := scanRevision(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Revision{}, fmt.Errorf("latest revision: %w", ErrRevisionNotFound)
	}
	return rev, err
}

// FindByFingerprint returns summaries of every revision whose state has the
// given fingerprint, ordered by id.
func (s *Store) FindByFingerprint(ctx context.Context, fingerprint string) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+summaryColumns+`
		FROM revisions
		WHERE fingerprint = ?
		ORDER BY id ASC
	`, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("query fingerprint: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Session, &sum.SnapshotSeq, &sum.Fingerprint, &sum.BlockCount); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}
	return out, nil
}

// ReadSources returns the generated sources of a revision in suite order.
func (s *Store) ReadSources(ctx context.Context, revisionID int64) ([]Source, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT suite_id, suite_name, class_name, code
		FROM generated_sources
		WHERE revision_id = ?
		ORDER BY position ASC
	`, revisionID)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	out := []Source{}
	for rows.Next() {
		var src Source
		if err := rows.Scan(&src.SuiteID, &src.SuiteName, &src.ClassName, &src.Code); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		out = append(out, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sources: %w", err)
	}
	return out, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRevision(row rowScanner) (Revision, error) {
	var rev Revision
	var state string
	err := row.Scan(&rev.ID, &rev.Session, &rev.SnapshotSeq, &rev.Fingerprint, &rev.BlockCount, &state)
	if errors.Is(err, sql.ErrNoRows) {
		return Revision{}, err
	}
	if err != nil {
		return Revision{}, fmt.Errorf("scan revision: %w", err)
	}
	rev.State, err = unmarshalState(state)
	if err != nil {
		return Revision{}, fmt.Errorf("revision %d: %w", rev.ID, err)
	}
	return rev, nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/blocktest/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Session  string // optional - one session only
	Show     int64  // revision whose sources to print
	Verify   bool
}

// RevisionInfo is one archived revision in a listing.
type RevisionInfo struct {
	ID          int64  `json:"id"`
	Session     string `json:"session"`
	SnapshotSeq int    `json:"snapshot_seq"`
	Fingerprint string `json:"fingerprint"`
	BlockCount  int    `json:"block_count"`
}

// HistoryList is the payload of a listing.
type HistoryList struct {
	Revisions []RevisionInfo `json:"revisions"`
}

func (l HistoryList) renderText(w io.Writer) {
	if len(l.Revisions) == 0 {
		fmt.Fprintln(w, "No revisions archived.")
		return
	}
	session := ""
	for _, r := range l.Revisions {
		if r.Session != session {
			session = r.Session
			fmt.Fprintf(w, "Session %s:\n", session)
		}
		fmt.Fprintf(w, "  #%-5d snapshot %-4d %3d block(s)  %s\n", r.ID, r.SnapshotSeq, r.BlockCount, shortFingerprint(r.Fingerprint))
	}
}

// SourceInfo is the generated source of one suite in a revision.
type SourceInfo struct {
	SuiteID   string `json:"suite_id"`
	SuiteName string `json:"suite_name"`
	ClassName string `json:"class_name"`
	Code      string `json:"code"`
}

// RevisionSources is the payload of --show.
type RevisionSources struct {
	Revision RevisionInfo `json:"revision"`
	Sources  []SourceInfo `json:"sources"`
}

func (r RevisionSources) renderText(w io.Writer) {
	for i, s := range r.Sources {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "// %s.java\n", s.ClassName)
		fmt.Fprint(w, s.Code)
	}
}

// MismatchInfo is one verification failure.
type MismatchInfo struct {
	RevisionID int64  `json:"revision_id"`
	Field      string `json:"field"`
	Stored     string `json:"stored"`
	Derived    string `json:"derived"`
}

// VerifyResult is the payload of --verify.
type VerifyResult struct {
	Checked    int            `json:"checked"`
	Mismatches []MismatchInfo `json:"mismatches"`
}

func (v VerifyResult) renderText(w io.Writer) {
	if len(v.Mismatches) == 0 {
		fmt.Fprintf(w, "✓ %d revision(s) verified\n", v.Checked)
		return
	}
	for _, m := range v.Mismatches {
		fmt.Fprintf(w, "✗ revision #%d %s: stored %s, derived %s\n",
			m.RevisionID, m.Field, shortFingerprint(m.Stored), shortFingerprint(m.Derived))
	}
	fmt.Fprintf(w, "%d mismatch(es) in %d revision(s)\n", len(v.Mismatches), v.Checked)
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the revision archive",
		Long: `List, show and verify archived history snapshots.

Every committed undo snapshot archived by "run --db" is a revision. By
default the revisions are listed. --show prints the Java source stored with
one revision, and --verify re-derives each revision's fingerprint, block
count and source from its stored state.

Exit codes:
  0 - Success (and, with --verify, no mismatches)
  1 - Verification found mismatches
  2 - Command error (database not found, unknown revision, etc.)

Examples:
  blocktest history --db ./blocktest.db
  blocktest history --db ./blocktest.db --session lab-3
  blocktest history --db ./blocktest.db --show 12
  blocktest history --db ./blocktest.db --verify --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite archive (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "limit to one session")
	cmd.Flags().Int64Var(&opts.Show, "show", 0, "print the sources of this revision id")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "re-derive and compare stored values")
	cmd.MarkFlagsMutuallyExclusive("show", "verify")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Opening would create an empty archive.
	if _, err := os.Stat(opts.Database); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("opening archive: %v", err), nil)
	}
	defer st.Close()

	switch {
	case opts.Show != 0:
		return showRevision(ctx, st, opts.Show, formatter)
	case opts.Verify:
		return verifyArchive(ctx, st, opts.Session, formatter)
	}

	summaries, err := st.ListRevisions(ctx, opts.Session)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
	}
	list := HistoryList{Revisions: make([]RevisionInfo, 0, len(summaries))}
	for _, s := range summaries {
		list.Revisions = append(list.Revisions, revisionInfo(s))
	}
	return formatter.Success(list)
}

func showRevision(ctx context.Context, st *store.Store, id int64, formatter *OutputFormatter) error {
	rev, err := st.ReadRevision(ctx, id)
	if errors.Is(err, store.ErrRevisionNotFound) {
		return formatter.Fail(ExitCommandError, ErrCodeUnknownName, fmt.Sprintf("revision %d not found", id), nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
	}
	sources, err := st.ReadSources(ctx, id)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
	}

	out := RevisionSources{
		Revision: revisionInfo(store.Summary{
			ID:          rev.ID,
			Session:     rev.Session,
			SnapshotSeq: rev.SnapshotSeq,
			Fingerprint: rev.Fingerprint,
			BlockCount:  rev.BlockCount,
		}),
		Sources: make([]SourceInfo, 0, len(sources)),
	}
	for _, s := range sources {
		out.Sources = append(out.Sources, SourceInfo{
			SuiteID:   s.SuiteID,
			SuiteName: s.SuiteName,
			ClassName: s.ClassName,
			Code:      s.Code,
		})
	}
	return formatter.Success(out)
}

func verifyArchive(ctx context.Context, st *store.Store, session string, formatter *OutputFormatter) error {
	summaries, err := st.ListRevisions(ctx, session)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
	}
	mismatches, err := st.Verify(ctx, session)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
	}

	result := VerifyResult{Checked: len(summaries), Mismatches: make([]MismatchInfo, 0, len(mismatches))}
	for _, m := range mismatches {
		result.Mismatches = append(result.Mismatches, MismatchInfo{
			RevisionID: m.RevisionID,
			Field:      m.Field,
			Stored:     m.Stored,
			Derived:    m.Derived,
		})
	}
	if err := formatter.Success(result); err != nil {
		return err
	}
	if len(result.Mismatches) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d mismatch(es)", ErrCodeMismatch, len(result.Mismatches)))
	}
	return nil
}

func revisionInfo(s store.Summary) RevisionInfo {
	return RevisionInfo{
		ID:          s.ID,
		Session:     s.Session,
		SnapshotSeq: s.SnapshotSeq,
		Fingerprint: s.Fingerprint,
		BlockCount:  s.BlockCount,
	}
}

// shortFingerprint abbreviates a fingerprint for text output.
func shortFingerprint(fp string) string {
	if len(fp) > 16 {
		return fp[:16]
	}
	return fp
}

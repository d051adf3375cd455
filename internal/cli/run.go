package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/blocktest/internal/harness"
	"github.com/roach88/blocktest/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string // archive every snapshot here when set
	Session  string // archive session; defaults to a fresh UUIDv7
	Filter   string // glob on scenario file names
}

// RunResult is the payload of a scenario run.
type RunResult struct {
	harness.BatchResult
	Session string `json:"session,omitempty"` // prefix of the per-scenario sessions
}

func (r RunResult) renderText(w io.Writer) {
	for _, f := range r.Failures {
		name := f.Name
		if name == "" {
			name = f.Path
		}
		fmt.Fprintf(w, "✗ %s (%s)\n", name, f.Path)
		for _, msg := range f.Errors {
			fmt.Fprintf(w, "    %s\n", msg)
		}
	}
	if r.Failed == 0 {
		fmt.Fprintf(w, "✓ %d scenario(s) passed\n", r.Passed)
	} else {
		fmt.Fprintf(w, "%d of %d scenario(s) failed\n", r.Failed, r.Total)
	}
	for _, session := range r.Sessions {
		fmt.Fprintf(w, "Archived session %s\n", session)
	}
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario>...",
		Short: "Replay editing scenarios",
		Long: `Replay scripted editing scenarios and check their assertions.

Each argument is a scenario YAML file or a directory of them. Every
scenario runs against a fresh suite with its own undo history. With --db,
each committed history snapshot is archived together with its generated
source, one archive session per scenario named <session>/<scenario>.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (missing files, database errors, etc.)

Examples:
  blocktest run ./scenarios
  blocktest run ./scenarios --filter "collection*"
  blocktest run equality.yaml --db ./blocktest.db --session lab-3`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite archive")
	cmd.Flags().StringVar(&opts.Session, "session", "", "archive session name (default: new UUIDv7)")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenario files matching this glob")

	return cmd
}

func runScenarios(opts *RunOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, formatter.GetErrWriter())

	files, err := harness.ExpandPaths(paths)
	if err != nil {
		var notFound *harness.ScenarioNotFoundError
		if errors.As(err, &notFound) {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
		}
		return formatter.Fail(ExitCommandError, ErrCodeReadFailed, err.Error(), nil)
	}
	if opts.Filter != "" {
		files, err = filterFiles(files, opts.Filter)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("invalid filter: %v", err), nil)
		}
	}
	if len(files) == 0 {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "no scenario files found", nil)
	}
	formatter.VerboseLog("Running %d scenario file(s)", len(files))

	runOpts := []harness.Option{harness.WithLogger(logger)}
	result := RunResult{}
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("opening archive: %v", err), nil)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing archive", "error", closeErr)
			}
		}()

		result.Session = opts.Session
		if result.Session == "" {
			result.Session = uuid.Must(uuid.NewV7()).String()
		}
		runOpts = append(runOpts, harness.WithArchive(st, result.Session))
		logger.Info("archiving run", "db", opts.Database, "session", result.Session)
	}

	batch, err := harness.RunFiles(files, runOpts...)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	result.BatchResult = batch

	if err := formatter.Success(result); err != nil {
		return err
	}
	if !batch.Pass() {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d scenario(s) failed", ErrCodeScenario, batch.Failed))
	}
	return nil
}

// filterFiles keeps the files whose base name matches pattern.
func filterFiles(files []string, pattern string) ([]string, error) {
	var out []string
	for _, f := range files {
		ok, err := filepath.Match(pattern, filepath.Base(f))
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, f)
		}
	}
	return out, nil
}

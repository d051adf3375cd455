package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/blocktest/internal/block"
	"github.com/roach88/blocktest/internal/codegen"
	"github.com/roach88/blocktest/internal/dragdrop"
	"github.com/roach88/blocktest/internal/history"
	"github.com/roach88/blocktest/internal/store"
	"github.com/roach88/blocktest/internal/suite"
	"github.com/roach88/blocktest/internal/template"
	"github.com/roach88/blocktest/internal/testutil"
)

// Option configures a scenario run.
type Option func(*runConfig)

type runConfig struct {
	logger  *slog.Logger
	archive *store.Store
	session string
}

// WithLogger sets the logger shared by every component of the run.
func WithLogger(logger *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// WithArchive archives every history snapshot of the run under session.
// RunFiles gives each scenario its own session below it (see
// ScenarioSession), since snapshot numbering restarts with every scenario.
func WithArchive(st *store.Store, session string) Option {
	return func(c *runConfig) {
		c.archive = st
		c.session = session
	}
}

// withSession overrides the archive session of one run.
func withSession(session string) Option {
	return func(c *runConfig) {
		c.session = session
	}
}

// Harness holds the components wired for one scenario run.
type Harness struct {
	store   *suite.Store
	history *history.Manager
	engine  *dragdrop.Engine
	sched   *testutil.ManualScheduler
	logger  *slog.Logger

	suiteID string
	aliases map[string]string

	// archiveErrs collects failed archive writes.
	archiveErrs *[]error
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh suite store with sequence ids and a
// manual scheduler. A returned error means the scenario could not be
// executed at all; failed expectations and assertions are reported in the
// result instead.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	h, err := setup(scenario, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set up scenario: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.execute(i, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	su, err := h.store.Suite(h.suiteID)
	if err != nil {
		return nil, err
	}
	result.Suite = su
	result.Code = codegen.Generate(su)
	result.HistoryLen = h.history.Len()
	result.Cursor = h.history.Cursor()
	for _, err := range *h.archiveErrs {
		result.AddError(fmt.Sprintf("archive: %v", err))
	}

	actx := &AssertionContext{Result: result}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	h.logger.Info("scenario finished",
		"scenario", scenario.Name,
		"steps", len(result.Steps),
		"pass", result.Pass)
	return result, nil
}

func setup(scenario *Scenario, cfg runConfig) (*Harness, error) {
	ids := block.NewSequenceGenerator("b")
	st := suite.New(suite.WithIDGenerator(ids), suite.WithLogger(cfg.logger))

	name := scenario.Suite
	if name == "" {
		name = scenario.Name
	}
	suiteID, err := st.CreateSuite(name)
	if err != nil {
		return nil, err
	}

	if len(scenario.Rubric) > 0 {
		items := make([]block.RubricItem, 0, len(scenario.Rubric))
		for _, r := range scenario.Rubric {
			items = append(items, block.RubricItem{ID: r.ID, Name: r.Name, Points: r.Points})
		}
		if err := st.SetRubricItems(items); err != nil {
			return nil, fmt.Errorf("rubric: %w", err)
		}
	}
	for _, f := range scenario.Files {
		if err := st.AttachSourceFile(block.SourceFile{Name: f.Name, Content: f.Content}); err != nil {
			return nil, fmt.Errorf("file %s: %w", f.Name, err)
		}
	}
	if len(scenario.Setup) > 0 {
		doc := block.Document{Name: name, Blocks: scenario.Setup}
		seed, err := doc.Suite(ids)
		if err != nil {
			return nil, fmt.Errorf("setup: %w", err)
		}
		if err := st.InsertBatch(suiteID, seed.Blocks, ""); err != nil {
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	sched := testutil.NewManualScheduler()
	hopts := []history.Option{
		history.WithScheduler(sched),
		history.WithLogger(cfg.logger),
	}
	archiveErrs := new([]error)
	if cfg.archive != nil {
		onError := func(err error) { *archiveErrs = append(*archiveErrs, err) }
		hopts = append(hopts, history.WithCommitHook(
			cfg.archive.CommitHook(context.Background(), cfg.session, cfg.logger, onError)))
	}
	hist := history.New(st, hopts...)
	st.Subscribe(hist.Listener())

	return &Harness{
		store:   st,
		history: hist,
		engine:  dragdrop.New(st, dragdrop.WithBoundary(hist), dragdrop.WithLogger(cfg.logger)),
		sched:   sched,
		logger:  cfg.logger,
		suiteID: suiteID,
		aliases: map[string]string{},

		archiveErrs: archiveErrs,
	}, nil
}

// resolve maps an alias to a block id. Unknown aliases are taken as ids.
func (h *Harness) resolve(ref string) string {
	if id, ok := h.aliases[ref]; ok {
		return id
	}
	return ref
}

// execute runs one step. Store errors and unmet drop expectations fail the
// result; only malformed references (such as an unknown template) abort.
func (h *Harness) execute(i int, step Step, result *Result) error {
	rec := StepRecord{Index: i, Op: step.Op()}
	fail := func(err error) {
		rec.Action = "error"
		rec.Reason = err.Error()
		result.AddError(fmt.Sprintf("step %d (%s): %v", i, rec.Op, err))
	}

	switch rec.Op {
	case OpDrag:
		out, err := h.drag(step)
		if err != nil {
			return err
		}
		rec.Action = string(out.Action)
		rec.BlockIDs = out.BlockIDs
		rec.Reason = out.Reason
		if step.Expect != "" && string(out.Action) != step.Expect {
			result.AddError(fmt.Sprintf("step %d (drag): expected %s, got %s %s", i, step.Expect, out.Action, out.Reason))
		}
		if step.As != "" && len(out.BlockIDs) > 0 {
			h.aliases[step.As] = out.BlockIDs[0]
			if out.Action == dragdrop.ActionExpand {
				for n, id := range out.BlockIDs {
					h.aliases[fmt.Sprintf("%s.%d", step.As, n)] = id
				}
			}
		}

	case OpUpdate:
		id := h.resolve(step.Update.Block)
		rec.BlockIDs = []string{id}
		if err := h.store.UpdateField(h.suiteID, id, step.Update.Field, step.Update.Value); err != nil {
			fail(err)
		}

	case OpLink:
		id := h.resolve(step.Link.Block)
		rec.BlockIDs = []string{id}
		var err error
		if step.Link.Rubric == "" {
			err = h.store.UnlinkRubric(h.suiteID, id)
		} else {
			err = h.store.LinkRubric(h.suiteID, id, step.Link.Rubric)
		}
		if err != nil {
			fail(err)
		}

	case OpRemove:
		removed, err := h.store.RemoveBlock(h.suiteID, h.resolve(step.Remove))
		rec.BlockIDs = removed
		if err != nil {
			fail(err)
		}

	case OpUndo:
		rec.Action = applied(h.history.Undo())

	case OpRedo:
		rec.Action = applied(h.history.Redo())

	case OpFlush:
		rec.Action = applied(h.history.Flush())

	case OpAdvance:
		d, err := time.ParseDuration(step.Advance)
		if err != nil {
			return err
		}
		h.sched.Advance(d)
	}

	h.logger.Debug("scenario step",
		"step", i,
		"op", rec.Op,
		"action", rec.Action,
		"blocks", rec.BlockIDs)
	result.addStep(rec)
	return nil
}

func applied(ok bool) string {
	if ok {
		return "applied"
	}
	return "noop"
}

func (h *Harness) drag(step Step) (dragdrop.Outcome, error) {
	var src dragdrop.Source
	switch {
	case step.Drag.Template != "":
		t, ok := template.Lookup(step.Drag.Template)
		if !ok {
			return dragdrop.Outcome{}, fmt.Errorf("unknown template %q", step.Drag.Template)
		}
		src = dragdrop.PaletteTemplate(t)
	case step.Drag.Palette != "":
		src = dragdrop.PaletteBlock(step.Drag.Palette, step.Drag.Fields)
	default:
		src = dragdrop.ExistingBlock(h.resolve(step.Drag.Block))
	}

	if err := h.engine.Start(src); err != nil {
		return dragdrop.Outcome{}, err
	}
	if step.Drop.Cancel {
		return h.engine.Drop(nil), nil
	}
	return h.engine.Drop(&dragdrop.Destination{
		Zone:     step.Drop.Zone,
		ParentID: h.resolve(step.Drop.Parent),
		OverID:   h.resolve(step.Drop.Over),
	}), nil
}

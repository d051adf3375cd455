package dragdrop

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/blocktest/internal/block"
	"github.com/roach88/blocktest/internal/template"
)

var (
	ErrGestureInProgress = errors.New("a drag gesture is already in progress")
	ErrInvalidSource     = errors.New("drag source must name a block, a kind or a template")
)

// Source describes what is being dragged: an existing block (BlockID) or a
// palette item (Kind with initial Fields, or a Template).
type Source struct {
	BlockID  string
	Kind     block.Kind
	Fields   map[string]string
	Template *template.Template
}

// ExistingBlock is a source for a block already in the active suite.
func ExistingBlock(id string) Source {
	return Source{BlockID: id}
}

// PaletteBlock is a source for a new block of kind k.
func PaletteBlock(k block.Kind, fields map[string]string) Source {
	return Source{Kind: k, Fields: fields}
}

// PaletteTemplate is a source for a template expansion.
func PaletteTemplate(t template.Template) Source {
	return Source{Template: &t}
}

// IsPalette reports whether s creates new blocks.
func (s Source) IsPalette() bool {
	return s.BlockID == ""
}

func (s Source) validate() error {
	n := 0
	if s.BlockID != "" {
		n++
	}
	if s.Kind != "" {
		n++
	}
	if s.Template != nil {
		n++
	}
	if n != 1 {
		return ErrInvalidSource
	}
	return nil
}

// Destination is the zone a gesture is released over. OverID optionally
// names the block under the pointer; new or moved blocks land before it
// when it is a child of the same parent.
type Destination struct {
	Zone     Zone
	ParentID string
	OverID   string
}

// Action classifies the outcome of a drop.
type Action string

const (
	ActionInsert    Action = "insert"
	ActionExpand    Action = "expand"
	ActionReparent  Action = "reparent"
	ActionReorder   Action = "reorder"
	ActionDelete    Action = "delete"
	ActionNone      Action = "none"
	ActionRejected  Action = "rejected"
	ActionCancelled Action = "cancelled"
)

// Outcome reports what a finished gesture did.
// BlockIDs lists created, moved or removed blocks.
type Outcome struct {
	Action   Action
	BlockIDs []string
	Reason   string
}

// Applied reports whether the outcome changed the store.
func (o Outcome) Applied() bool {
	switch o.Action {
	case ActionInsert, ActionExpand, ActionReparent, ActionReorder, ActionDelete:
		return true
	}
	return false
}

// Phase is the gesture state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDragging
)

func (p Phase) String() string {
	if p == PhaseDragging {
		return "dragging"
	}
	return "idle"
}

// Store is the part of the suite store the engine mutates.
type Store interface {
	ActiveSuiteID() string
	Suite(id string) (block.Suite, error)
	NewID() string
	AddBlock(suiteID string, payload block.Payload, parentID, beforeID string) (string, error)
	InsertBatch(suiteID string, blocks []block.Block, beforeID string) error
	RemoveBlock(suiteID, id string) ([]string, error)
	ReparentAndReorder(suiteID, activeID, newParentID, beforeID string) error
	MoveWithinSiblings(suiteID, activeID, overID string) error
}

// Boundary marks the end of a logical edit. history.Manager implements it.
type Boundary interface {
	Flush() bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithBoundary sets the batch boundary flushed after each applied drop.
func WithBoundary(b Boundary) Option {
	return func(e *Engine) {
		e.boundary = b
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine interprets one drag gesture at a time against the active suite.
//
// Thread-safety: an Engine tracks a single gesture and is meant to be
// driven from one goroutine, like the pointer events it models.
type Engine struct {
	store    Store
	boundary Boundary
	logger   *slog.Logger

	phase  Phase
	source Source
}

// New creates an idle engine over store.
func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Phase returns the current gesture state.
func (e *Engine) Phase() Phase {
	return e.phase
}

// Start begins dragging src.
func (e *Engine) Start(src Source) error {
	if e.phase == PhaseDragging {
		return ErrGestureInProgress
	}
	if err := src.validate(); err != nil {
		return err
	}
	e.phase = PhaseDragging
	e.source = src
	return nil
}

// Cancel abandons the current gesture without touching the store.
func (e *Engine) Cancel() Outcome {
	e.reset()
	return Outcome{Action: ActionCancelled}
}

func (e *Engine) reset() {
	e.phase = PhaseIdle
	e.source = Source{}
}

// Drop releases the current gesture over dest. A nil dest means the pointer
// was released outside every zone, which cancels the gesture. The engine is
// idle again when Drop returns.
func (e *Engine) Drop(dest *Destination) Outcome {
	if e.phase != PhaseDragging {
		return Outcome{Action: ActionRejected, Reason: "no gesture in progress"}
	}
	src := e.source
	defer e.reset()

	if dest == nil {
		return Outcome{Action: ActionCancelled}
	}

	out := e.apply(src, *dest)
	e.logger.Debug("drop",
		"zone", dest.Zone,
		"parent", dest.ParentID,
		"over", dest.OverID,
		"action", out.Action,
		"reason", out.Reason)
	if out.Applied() && e.boundary != nil {
		e.boundary.Flush()
	}
	return out
}

// Apply runs a complete gesture: Start followed by Drop.
func (e *Engine) Apply(src Source, dest Destination) (Outcome, error) {
	if err := e.Start(src); err != nil {
		return Outcome{}, err
	}
	return e.Drop(&dest), nil
}

func rejected(format string, args ...any) Outcome {
	return Outcome{Action: ActionRejected, Reason: fmt.Sprintf(format, args...)}
}

func (e *Engine) apply(src Source, dest Destination) Outcome {
	if !dest.Zone.Valid() {
		return rejected("unknown zone %q", dest.Zone)
	}
	suiteID := e.store.ActiveSuiteID()
	su, err := e.store.Suite(suiteID)
	if err != nil {
		return rejected("%v", err)
	}

	if dest.Zone == ZoneTrash {
		if src.IsPalette() {
			return rejected("palette items cannot be trashed")
		}
		removed, err := e.store.RemoveBlock(suiteID, src.BlockID)
		if err != nil {
			return rejected("%v", err)
		}
		return Outcome{Action: ActionDelete, BlockIDs: removed}
	}

	var parent block.Payload
	if dest.Zone == ZoneCanvas {
		dest.ParentID = ""
	} else {
		pb, ok := su.Find(dest.ParentID)
		if !ok {
			return rejected("zone parent %q not found", dest.ParentID)
		}
		parent = pb.Payload
	}
	if !ParentAllowed(dest.Zone, parent) {
		return rejected("%s zone cannot live under %s", dest.Zone, parent.Kind())
	}

	kind, err := sourceKind(src, su)
	if err != nil {
		return rejected("%v", err)
	}
	if !Accepts(dest.Zone, kind) {
		return rejected("%s zone does not accept %s", dest.Zone, kind)
	}

	before := beforeSibling(su, dest)

	switch {
	case src.Template != nil:
		ids, err := template.Expand(e.store, suiteID, *src.Template, before)
		if err != nil {
			return rejected("%v", err)
		}
		return Outcome{Action: ActionExpand, BlockIDs: ids}

	case src.IsPalette():
		p, err := block.NewPayload(src.Kind, src.Fields)
		if err != nil {
			return rejected("%v", err)
		}
		id, err := e.store.AddBlock(suiteID, p, dest.ParentID, before)
		if err != nil {
			return rejected("%v", err)
		}
		return Outcome{Action: ActionInsert, BlockIDs: []string{id}}
	}

	active, _ := su.Find(src.BlockID)
	if active.ParentID != dest.ParentID {
		if err := e.store.ReparentAndReorder(suiteID, active.ID, dest.ParentID, before); err != nil {
			return rejected("%v", err)
		}
		return Outcome{Action: ActionReparent, BlockIDs: []string{active.ID}}
	}

	if before == "" || dest.OverID == active.ID {
		return Outcome{Action: ActionNone}
	}
	if err := e.store.MoveWithinSiblings(suiteID, active.ID, dest.OverID); err != nil {
		return rejected("%v", err)
	}
	return Outcome{Action: ActionReorder, BlockIDs: []string{active.ID, dest.OverID}}
}

// sourceKind resolves the kind being dragged.
func sourceKind(src Source, su block.Suite) (block.Kind, error) {
	switch {
	case src.Template != nil:
		return src.Template.Root.Kind, nil
	case src.IsPalette():
		if !src.Kind.Valid() {
			return "", fmt.Errorf("%w: %q", block.ErrUnknownKind, src.Kind)
		}
		return src.Kind, nil
	}
	b, ok := su.Find(src.BlockID)
	if !ok {
		return "", fmt.Errorf("block %q not found", src.BlockID)
	}
	return b.Kind(), nil
}

// beforeSibling returns dest.OverID when it is a child of the destination
// parent, and "" otherwise (append).
func beforeSibling(su block.Suite, dest Destination) string {
	if dest.OverID == "" {
		return ""
	}
	over, ok := su.Find(dest.OverID)
	if !ok || over.ParentID != dest.ParentID {
		return ""
	}
	return over.ID
}

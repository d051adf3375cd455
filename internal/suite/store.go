package suite

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/blocktest/internal/block"
)

// Op names the mutation that produced an Edit.
type Op string

const (
	OpCreateSuite  Op = "create_suite"
	OpRenameSuite  Op = "rename_suite"
	OpSetActive    Op = "set_active"
	OpAdd          Op = "add"
	OpInsertBatch  Op = "insert_batch"
	OpRemove       Op = "remove"
	OpReparent     Op = "reparent"
	OpMove         Op = "move"
	OpUpdateField  Op = "update_field"
	OpRubricItems  Op = "rubric_items"
	OpLinkRubric   Op = "link_rubric"
	OpUnlinkRubric Op = "unlink_rubric"
	OpAttachFile   Op = "attach_file"
	OpDetachFile   Op = "detach_file"
)

// Edit describes one committed mutation.
type Edit struct {
	Op       Op
	SuiteID  string
	BlockIDs []string
}

// Listener receives every committed Edit, in commit order.
// Listeners run on the mutating goroutine after the store lock is released
// and may call back into the store.
type Listener func(Edit)

// Store owns the workspace state.
//
// Thread-safety: all methods are safe for concurrent use. Mutations on the
// store are serialised; readers receive deep copies.
type Store struct {
	mu        sync.Mutex
	state     block.State
	ids       block.IDGenerator
	logger    *slog.Logger
	listeners []Listener
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator sets the source of block and suite ids.
// Default: block.UUIDv7Generator.
func WithIDGenerator(gen block.IDGenerator) Option {
	return func(s *Store) {
		s.ids = gen
	}
}

// WithLogger sets the logger used for mutation debug output.
// Default: a logger that discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithListener registers a listener at construction time.
func WithListener(l Listener) Option {
	return func(s *Store) {
		s.listeners = append(s.listeners, l)
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		ids:    block.UUIDv7Generator{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers l for all future edits.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// NewID returns a fresh id from the store's generator.
func (s *Store) NewID() string {
	return s.ids.NewID()
}

// mutate runs fn under the lock. On success the resulting edit is logged and
// delivered to listeners once the lock is released. A nil edit means the
// call was a no-op and nothing is emitted.
func (s *Store) mutate(fn func() (*Edit, error)) error {
	s.mu.Lock()
	edit, err := fn()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	if err != nil {
		return err
	}
	if edit == nil {
		return nil
	}
	s.logger.Debug("store edit",
		"op", edit.Op,
		"suite", edit.SuiteID,
		"blocks", edit.BlockIDs)
	for _, l := range listeners {
		l(*edit)
	}
	return nil
}

// suite returns a pointer into s.state.Suites. Callers must hold s.mu.
func (s *Store) suite(id string) (*block.Suite, error) {
	for i := range s.state.Suites {
		if s.state.Suites[i].ID == id {
			return &s.state.Suites[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSuiteNotFound, id)
}

// State returns a deep copy of the full workspace state.
func (s *Store) State() block.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return block.CloneState(s.state)
}

// Suite returns a copy of one suite.
func (s *Store) Suite(id string) (block.Suite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	su, err := s.suite(id)
	if err != nil {
		return block.Suite{}, err
	}
	return su.Clone(), nil
}

// Restore replaces the whole state with a copy of st. It emits no edit:
// restoring is how undo and redo are applied, and must not itself become
// an undo step.
func (s *Store) Restore(st block.State) {
	cp := block.CloneState(st)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = cp
	s.logger.Debug("store restored", "suites", len(cp.Suites), "blocks", cp.BlockCount())
}

// CreateSuite adds an empty suite and returns its id. The first suite
// created becomes the active one.
func (s *Store) CreateSuite(name string) (string, error) {
	id := s.ids.NewID()
	err := s.mutate(func() (*Edit, error) {
		if _, err := s.suite(id); err == nil {
			return nil, fmt.Errorf("%w: suite %s", ErrDuplicateID, id)
		}
		s.state.Suites = append(s.state.Suites, block.Suite{ID: id, Name: name})
		if s.state.ActiveSuiteID == "" {
			s.state.ActiveSuiteID = id
		}
		return &Edit{Op: OpCreateSuite, SuiteID: id}, nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// RenameSuite changes a suite's display name.
func (s *Store) RenameSuite(suiteID, name string) error {
	return s.mutate(func() (*Edit, error) {
		su, err := s.suite(suiteID)
		if err != nil {
			return nil, err
		}
		su.Name = name
		return &Edit{Op: OpRenameSuite, SuiteID: suiteID}, nil
	})
}

// SetActive selects the suite being edited.
func (s *Store) SetActive(suiteID string) error {
	return s.mutate(func() (*Edit, error) {
		if _, err := s.suite(suiteID); err != nil {
			return nil, err
		}
		if s.state.ActiveSuiteID == suiteID {
			return nil, nil
		}
		s.state.ActiveSuiteID = suiteID
		return &Edit{Op: OpSetActive, SuiteID: suiteID}, nil
	})
}

// ActiveSuiteID returns the id of the suite being edited, or "".
func (s *Store) ActiveSuiteID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ActiveSuiteID
}

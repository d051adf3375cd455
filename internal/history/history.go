// Package history implements linear undo/redo over full snapshots of the
// Suite Store state.
//
// The store emits one event per mutation; a single gesture can emit many.
// Manager.Record coalesces a burst of events into one snapshot taken when
// the burst has been quiet for the debounce window, and Manager.Flush ends
// a burst immediately (the dragdrop engine calls it at the end of each
// drop). Commit snapshots unconditionally.
//
// Snapshots are immutable once taken. Undo and Redo only move the cursor and
// restore the store; a new snapshot after an Undo discards the redo tail.
package history

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/blocktest/internal/block"
	"github.com/roach88/blocktest/internal/suite"
)

// DefaultWindow is the debounce window for coalescing edits.
const DefaultWindow = 300 * time.Millisecond

// Snapshot is one immutable undo step.
type Snapshot struct {
	Seq   int
	State block.State
}

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// StateStore is the part of the suite store history needs.
type StateStore interface {
	State() block.State
	Restore(block.State)
}

// CommitHook observes every new snapshot. Hooks must not modify the state.
type CommitHook func(Snapshot)

// Option configures a Manager.
type Option func(*Manager)

// WithWindow sets the debounce window.
// Default: 300ms (DefaultWindow).
func WithWindow(d time.Duration) Option {
	return func(m *Manager) {
		m.window = d
	}
}

// WithScheduler replaces the real-time scheduler, typically with a manual
// one in tests.
func WithScheduler(s Scheduler) Option {
	return func(m *Manager) {
		m.sched = s
	}
}

// WithCommitHook registers a hook called after each new snapshot,
// including the initial one.
func WithCommitHook(h CommitHook) Option {
	return func(m *Manager) {
		m.hooks = append(m.hooks, h)
	}
}

// WithLogger sets the manager logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// Manager owns the snapshot list and cursor.
//
// Thread-safety: all methods are safe for concurrent use. Debounced
// snapshots are taken on the scheduler's goroutine.
type Manager struct {
	mu     sync.Mutex
	store  StateStore
	window time.Duration
	sched  Scheduler
	hooks  []CommitHook
	logger *slog.Logger

	snapshots []Snapshot
	cursor    int
	seq       int

	pending bool
	timer   Timer
	// gen invalidates timers that fire after being superseded or stopped.
	gen int
}

// New creates a manager over store and takes the initial snapshot.
func New(store StateStore, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		window: DefaultWindow,
		sched:  realScheduler{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.mu.Lock()
	snap := m.commitLocked()
	m.mu.Unlock()
	m.notify(snap)
	return m
}

// Listener returns a store listener that records every edit.
func (m *Manager) Listener() suite.Listener {
	return func(suite.Edit) {
		m.Record()
	}
}

// Record notes that the store changed. The change becomes part of the
// current burst, which is snapshotted once no further Record arrives within
// the window.
func (m *Manager) Record() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = true
	m.stopTimerLocked()
	gen := m.gen
	m.timer = m.sched.AfterFunc(m.window, func() { m.fire(gen) })
}

func (m *Manager) fire(gen int) {
	m.mu.Lock()
	if gen != m.gen || !m.pending {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	snap := m.commitLocked()
	m.mu.Unlock()
	m.notify(snap)
}

// stopTimerLocked cancels any scheduled snapshot. Callers must hold m.mu.
func (m *Manager) stopTimerLocked() {
	m.gen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// Flush snapshots the current burst now, if there is one.
// It reports whether a snapshot was taken.
func (m *Manager) Flush() bool {
	m.mu.Lock()
	m.stopTimerLocked()
	if !m.pending {
		m.mu.Unlock()
		return false
	}
	snap := m.commitLocked()
	m.mu.Unlock()
	m.notify(snap)
	return true
}

// Commit snapshots the store now, whether or not anything is pending.
func (m *Manager) Commit() Snapshot {
	m.mu.Lock()
	m.stopTimerLocked()
	snap := m.commitLocked()
	m.mu.Unlock()
	m.notify(snap)
	return snap
}

// commitLocked appends a snapshot of the store after the cursor, dropping
// any redo tail. Callers must hold m.mu.
func (m *Manager) commitLocked() Snapshot {
	m.seq++
	snap := Snapshot{Seq: m.seq, State: m.store.State()}
	if len(m.snapshots) > 0 {
		m.snapshots = m.snapshots[:m.cursor+1]
	}
	m.snapshots = append(m.snapshots, snap)
	m.cursor = len(m.snapshots) - 1
	m.pending = false
	m.logger.Debug("history snapshot",
		"seq", snap.Seq,
		"cursor", m.cursor,
		"blocks", snap.State.BlockCount())
	return snap
}

func (m *Manager) notify(snap Snapshot) {
	m.mu.Lock()
	hooks := append([]CommitHook(nil), m.hooks...)
	m.mu.Unlock()
	for _, h := range hooks {
		h(snap)
	}
}

// Undo restores the previous snapshot. A pending burst is snapshotted first
// so that Undo reverts exactly that burst. It reports false, changing
// nothing, when already at the oldest snapshot.
func (m *Manager) Undo() bool {
	m.mu.Lock()
	m.stopTimerLocked()
	var flushed *Snapshot
	if m.pending {
		snap := m.commitLocked()
		flushed = &snap
	}
	ok := m.cursor > 0
	if ok {
		m.cursor--
		m.store.Restore(m.snapshots[m.cursor].State)
		m.logger.Debug("history undo", "cursor", m.cursor)
	}
	m.mu.Unlock()
	if flushed != nil {
		m.notify(*flushed)
	}
	return ok
}

// Redo restores the next snapshot. It reports false when already at the
// newest snapshot. A pending burst counts as a new edit: it is snapshotted
// and the redo tail is discarded.
func (m *Manager) Redo() bool {
	m.mu.Lock()
	m.stopTimerLocked()
	var flushed *Snapshot
	if m.pending {
		snap := m.commitLocked()
		flushed = &snap
	}
	ok := m.cursor < len(m.snapshots)-1
	if ok {
		m.cursor++
		m.store.Restore(m.snapshots[m.cursor].State)
		m.logger.Debug("history redo", "cursor", m.cursor)
	}
	m.mu.Unlock()
	if flushed != nil {
		m.notify(*flushed)
	}
	return ok
}

// CanUndo reports whether Undo would move the cursor.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor > 0 || m.pending
}

// CanRedo reports whether Redo would move the cursor.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.pending && m.cursor < len(m.snapshots)-1
}

// Len returns the number of snapshots, the initial one included.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snapshots)
}

// Cursor returns the index of the snapshot matching the store.
func (m *Manager) Cursor() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor
}

// Pending reports whether edits are waiting to be snapshotted.
func (m *Manager) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// Snapshots returns the snapshot list. The states are shared with the
// manager and must not be modified.
func (m *Manager) Snapshots() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Snapshot(nil), m.snapshots...)
}

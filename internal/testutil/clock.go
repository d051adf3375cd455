package testutil

import (
	"sort"
	"sync"
	"time"

	"github.com/roach88/blocktest/internal/history"
)

// ManualScheduler is a history.Scheduler driven by a virtual clock.
//
// Scheduled functions run only inside Advance, on the caller's goroutine,
// in due-time order. This makes debounce behaviour fully deterministic:
// nothing fires unless the test moves time forward.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	nextID int
	timers []*manualTimer
}

type manualTimer struct {
	s       *ManualScheduler
	id      int
	due     time.Duration
	f       func()
	stopped bool
}

// Stop cancels the timer. It reports whether the call stopped a timer that
// had not yet fired.
func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// NewManualScheduler creates a scheduler at virtual time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// AfterFunc schedules f to run once the virtual clock passes now+d.
func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) history.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t := &manualTimer{s: s, id: s.nextID, due: s.now + d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock forward by d and runs every timer that became due.
// Timers scheduled by the fired functions run too if they fall due within d.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		due := s.popDueLocked(target)
		if due == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.now = due.due
		s.mu.Unlock()
		due.f()
	}
}

// popDueLocked removes and returns the earliest live timer due at or before
// target, or nil. Callers must hold s.mu.
func (s *ManualScheduler) popDueLocked(target time.Duration) *manualTimer {
	live := s.timers[:0]
	for _, t := range s.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	s.timers = live
	sort.SliceStable(s.timers, func(i, j int) bool {
		if s.timers[i].due != s.timers[j].due {
			return s.timers[i].due < s.timers[j].due
		}
		return s.timers[i].id < s.timers[j].id
	})
	if len(s.timers) == 0 || s.timers[0].due > target {
		return nil
	}
	t := s.timers[0]
	t.stopped = true
	s.timers = s.timers[1:]
	return t
}

// Now returns the virtual time elapsed since creation.
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns the number of live timers.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

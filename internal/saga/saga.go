// Package saga records committed side effects together with the action that
// reverses each one, and unwinds them in reverse order when a later step
// fails.
package saga

import (
	"context"
	"sync"
)

// Compensation reverses one committed step.
type Compensation func(ctx context.Context) error

// FailureHook is told about every compensation that returned an error.
type FailureHook func(ctx context.Context, step string, err error)

type entry struct {
	step       string
	compensate Compensation
}

// Saga is an ordered list of compensations.  Add may be called from
// several goroutines; Compensate and Commit are called once the steps
// have finished.
type Saga struct {
	mu        sync.Mutex
	entries   []entry
	onFailure FailureHook
}

// New returns an empty saga.  onFailure may be nil.
func New(onFailure FailureHook) *Saga {
	return &Saga{onFailure: onFailure}
}

// Add registers the compensation for a step that just succeeded.
func (s *Saga) Add(step string, c Compensation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry{step: step, compensate: c})
}

// Len returns the number of pending compensations.
func (s *Saga) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Commit drops all pending compensations; the steps are final.
func (s *Saga) Commit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

// Compensate runs every pending compensation, newest first.  A failing
// compensation is reported to the hook and does not stop the others.  The
// list is cleared, so a second call is a no-op.  It returns the number of
// compensations that failed.
func (s *Saga) Compensate(ctx context.Context) int {
	s.mu.Lock()
	entries := s.entries
	s.entries = nil
	s.mu.Unlock()

	failed := 0
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if err := e.compensate(ctx); err != nil {
			failed++
			if s.onFailure != nil {
				s.onFailure(ctx, e.step, err)
			}
		}
	}
	return failed
}

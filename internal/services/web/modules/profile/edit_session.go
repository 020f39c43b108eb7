package profile

import (
	"context"
	"errors"
	"log"
	"sync"
)

var (
	// ErrSubmitInFlight reports a submit while another one is pending.
	ErrSubmitInFlight = errors.New("profile update already in flight")
	// ErrNotEditing reports a submit outside of edit mode.
	ErrNotEditing = errors.New("profile is not being edited")
)

// UpdateFunc persists an update and returns the resulting record.
type UpdateFunc func(ctx context.Context, update UpdateRequest) (UserRecord, error)

// EditSession is the view-local edit state machine:
// Viewing -> Editing -> Submitting -> Viewing, with Submitting -> Editing on
// rejection and Editing -> Viewing on cancel.
type EditSession struct {
	mu      sync.Mutex
	state   ViewState
	record  UserRecord
	canEdit bool
	draft   EditBuffer
}

// NewEditSession returns a session in read mode.
func NewEditSession() *EditSession {
	return &EditSession{state: StateViewing}
}

// Begin enters edit mode for record when canEdit is true, seeding the draft.
// It reports whether the session is now editing.
func (s *EditSession) Begin(record UserRecord, canEdit bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = record
	s.canEdit = canEdit
	if !canEdit || s.state != StateViewing {
		return s.state == StateEditing
	}
	s.draft = NewEditBuffer(record)
	s.state = StateEditing
	return true
}

// Cancel discards the draft and returns to read mode.
func (s *EditSession) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEditing {
		return
	}
	s.draft = EditBuffer{}
	s.state = StateViewing
}

// Submit sends draft through update. Only one submit runs at a time.
func (s *EditSession) Submit(ctx context.Context, draft EditBuffer, update UpdateFunc) error {
	s.mu.Lock()
	switch s.state {
	case StateSubmitting:
		s.mu.Unlock()
		return ErrSubmitInFlight
	case StateEditing:
	default:
		s.mu.Unlock()
		return ErrNotEditing
	}
	s.draft = draft
	s.state = StateSubmitting
	s.mu.Unlock()

	record, err := update(ctx, draft.Request())

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		log.Printf("profile update rejected err=%v", err)
		s.state = StateEditing
		return err
	}
	s.record = record
	s.draft = EditBuffer{}
	s.state = StateViewing
	return nil
}

// State returns the current edit state.
func (s *EditSession) State() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Draft returns the current draft.
func (s *EditSession) Draft() EditBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Record returns the record shown in read mode.
func (s *EditSession) Record() UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record
}

// CanEdit reports the permission given to Begin.
func (s *EditSession) CanEdit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canEdit
}

package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// Store represents the root storage interface.
type Store interface {
	Close() error
	State() StateStore
	Transitions() TransitionStore
}

// StateStore keeps the single scheduler state record.
type StateStore interface {
	// Load returns ErrNotFound before the first Save.
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, state State) error
}

// TransitionStore journals every mode change.
type TransitionStore interface {
	Add(ctx context.Context, transition Transition) error
	// List returns matching transitions, newest first.
	List(ctx context.Context, filter TransitionFilter) ([]Transition, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// TransitionFilter defines criteria for listing transitions.
type TransitionFilter struct {
	Since  *time.Time
	Source Source // empty matches every source
	Limit  int    // zero means no limit
}

// Matches reports whether t passes the filter, ignoring Limit.
func (f TransitionFilter) Matches(t Transition) bool {
	if f.Since != nil && t.Timestamp.Before(*f.Since) {
		return false
	}
	if f.Source != "" && t.Source != f.Source {
		return false
	}
	return true
}

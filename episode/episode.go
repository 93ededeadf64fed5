// Package episode stores the episodic record of plan runs: every
// raise, retry and outcome, keyed by the task tree it happened in.
// A fresh episode scope is allocated for each top-level run so the
// history of one run can be reviewed, searched and compared after the
// fact.
package episode

import (
	"context"
	"errors"
	"time"
)

// Common errors.
var (
	ErrClosed   = errors.New("episode store closed")
	ErrNotFound = errors.New("record not found")
)

// Record is one episodic entry.
type Record struct {
	// ID is the unique record identifier, assigned on append.
	ID string `json:"id"`

	// TreeID identifies the task tree (one per top-level run).
	TreeID string `json:"tree_id"`

	// Event names what happened: "run_started", "failure_raised",
	// "scope_retry", "run_finished", ...
	Event string `json:"event"`

	// Path is the code path the event happened at, if any.
	Path string `json:"path,omitempty"`

	// Kind is the failure kind for failure events.
	Kind string `json:"kind,omitempty"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// CreatedAt is when the record was appended.
	CreatedAt time.Time `json:"created_at"`
}

// Store persists episode records.
type Store interface {
	// Append stores a record, assigning ID and CreatedAt.
	// It returns the assigned ID.
	Append(ctx context.Context, rec Record) (string, error)

	// ByTree returns all records of one tree in append order.
	ByTree(ctx context.Context, treeID string) ([]Record, error)

	// Search returns up to limit records matching the full-text
	// query, best match first.
	Search(ctx context.Context, query string, limit int) ([]Record, error)

	// Close releases the store.
	Close() error
}

// Scope is the episode scope of a single top-level run: a Store bound
// to one tree. Appending through a Scope is best-effort from the
// interpreter's point of view; callers ignore errors on the raise
// path.
type Scope struct {
	store  Store
	treeID string
}

// NewScope binds a store to a tree.
func NewScope(store Store, treeID string) *Scope {
	return &Scope{store: store, treeID: treeID}
}

// TreeID returns the bound tree's identifier.
func (s *Scope) TreeID() string {
	return s.treeID
}

// Record appends an event to the episode.
func (s *Scope) Record(ctx context.Context, event, path, kind, message string) error {
	if s == nil || s.store == nil {
		return nil
	}
	_, err := s.store.Append(ctx, Record{
		TreeID:  s.treeID,
		Event:   event,
		Path:    path,
		Kind:    kind,
		Message: message,
	})
	return err
}

// History returns the full episode in append order.
func (s *Scope) History(ctx context.Context) ([]Record, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	return s.store.ByTree(ctx, s.treeID)
}

// Package store persists job records and enforces the pipeline state machine.
// It is the single source of truth for queue state: every transition goes
// through Update, which validates the state change atomically with respect to
// concurrent callers.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no job record exists for the given id.
var ErrNotFound = errors.New("job not found")

// ErrInvalidTransition is returned when an update requests a target state
// that is not reachable from the record's current state.
var ErrInvalidTransition = errors.New("invalid state transition")

// Store is the durable job queue. Implementations must apply Update
// atomically: concurrent callers never observe partial writes or lose
// updates, and an illegal transition never persists.
type Store interface {
	// Insert adds a record in StateScraped. Insertion is idempotent per URL:
	// inserting an existing URL returns the existing record with created=false
	// and changes nothing.
	Insert(ctx context.Context, in InsertInput) (rec *JobRecord, created bool, err error)

	// Get returns the record for id, or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*JobRecord, error)

	// List returns records matching the filter in insertion order.
	List(ctx context.Context, f Filter) ([]*JobRecord, error)

	// Update applies mutate to a copy of the current record and persists the
	// result in a single atomic step. If the mutated state is not reachable
	// from the current state the update fails with ErrInvalidTransition and
	// nothing is written. ID, URL, CreatedAt are immutable; UpdatedAt is
	// bumped by the store.
	Update(ctx context.Context, id uuid.UUID, mutate func(*JobRecord) error) (*JobRecord, error)

	// CachedAnswer returns the persisted screening answer for a job+question,
	// or nil if none is cached.
	CachedAnswer(ctx context.Context, jobID uuid.UUID, question string) (*CachedAnswer, error)

	// SaveAnswer persists a screening answer for a job+question, replacing a
	// previous answer for the same question.
	SaveAnswer(ctx context.Context, a *CachedAnswer) error

	// Stats returns the number of records per state.
	Stats(ctx context.Context) (map[State]int, error)

	// Close releases the store's resources.
	Close()
}

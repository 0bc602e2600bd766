// Package pipeline advances job records through the application state
// machine. The Orchestrator performs exactly one legal transition per call,
// invoking the right collaborator for the job's platform and persisting the
// outcome through the store.
package pipeline

import (
	"errors"
	"fmt"
)

// ErrJobBusy is returned when a transition is requested for a job that
// already has one in flight. The caller lost the race; nothing was mutated.
var ErrJobBusy = errors.New("job has a transition in progress")

// ErrUnsupportedPlatform is returned when fill or submit is requested for a
// job whose platform is unknown or has no registered handler. The record is
// not mutated and attempt_count does not change.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// CollaboratorError wraps a failure from an external collaborator (form
// filler, resume tailor, AI answerer). It is recoverable: the job stays in a
// retryable state with attempt_count incremented and last_error recorded.
type CollaboratorError struct {
	Collaborator string
	Cause        error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Collaborator, e.Cause)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Cause
}

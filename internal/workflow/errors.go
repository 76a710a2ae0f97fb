package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-publication/internal/domain"
	"github.com/google/uuid"
)

var (
	// ErrGuardViolation is matched by every GuardViolation through errors.Is.
	ErrGuardViolation = errors.New("workflow: operation not allowed")
	// ErrStaleRequest is matched by StaleRequestError through errors.Is.
	ErrStaleRequest = errors.New("workflow: request reference is stale")
	// ErrCollaboratorFailure is matched by CollaboratorFailure through errors.Is.
	ErrCollaboratorFailure = errors.New("workflow: collaborator failure")
	// ErrUnknownOperation reports a guard lookup for an operation outside the catalogue.
	ErrUnknownOperation = errors.New("workflow: unknown operation")
)

// GuardViolation reports that an operation is not legal for the snapshot it
// was evaluated against. Predicate names the rule that failed.
type GuardViolation struct {
	Operation Operation
	Predicate Predicate
	HandleID  uuid.UUID
	Actor     string
}

func (e *GuardViolation) Error() string {
	if e == nil {
		return ErrGuardViolation.Error()
	}
	msg := fmt.Sprintf("workflow: cannot %s: %s", e.Operation, e.Predicate.describe())
	if e.HandleID != uuid.Nil {
		msg += " (handle=" + e.HandleID.String() + ")"
	}
	return msg
}

func (e *GuardViolation) Unwrap() error {
	return ErrGuardViolation
}

// AsGuardViolation extracts a GuardViolation from an error chain.
func AsGuardViolation(err error) (*GuardViolation, bool) {
	var violation *GuardViolation
	if errors.As(err, &violation) {
		return violation, true
	}
	return nil, false
}

// StaleRequestError reports that the variant a request referenced was modified
// after the request was raised. The executor converts it into an automatic
// rejection instead of returning it.
type StaleRequestError struct {
	RequestID uuid.UUID
	Reference domain.VariantReference
	Current   *domain.Variant
}

func (e *StaleRequestError) Error() string {
	if e == nil {
		return ErrStaleRequest.Error()
	}
	return fmt.Sprintf("%s: request=%s kind=%s", ErrStaleRequest.Error(), e.RequestID, e.Reference.Kind)
}

func (e *StaleRequestError) Unwrap() error {
	return ErrStaleRequest
}

// CollaboratorFailure wraps an error raised by an external collaborator while
// a transition was being applied.
type CollaboratorFailure struct {
	Operation    Operation
	Collaborator string
	Err          error
}

func (e *CollaboratorFailure) Error() string {
	if e == nil {
		return ErrCollaboratorFailure.Error()
	}
	parts := []string{ErrCollaboratorFailure.Error(), string(e.Operation)}
	if e.Collaborator != "" {
		parts = append(parts, e.Collaborator)
	}
	msg := strings.Join(parts, ": ")
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CollaboratorFailure) Is(target error) bool {
	return target == ErrCollaboratorFailure
}

func (e *CollaboratorFailure) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Failure wraps err as a CollaboratorFailure unless it already is a workflow error.
func Failure(op Operation, collaborator string, err error) error {
	if err == nil {
		return nil
	}
	var existing *CollaboratorFailure
	if errors.As(err, &existing) {
		return err
	}
	if errors.Is(err, ErrGuardViolation) {
		return err
	}
	return &CollaboratorFailure{Operation: op, Collaborator: collaborator, Err: err}
}

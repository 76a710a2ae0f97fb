package publicationcmd

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-publication/internal/folders"
	"github.com/goliatone/go-publication/internal/publication"
	"github.com/goliatone/go-publication/internal/validation"
	"github.com/goliatone/go-publication/internal/workflow"
)

const (
	codeOperationNotAllowed = "PUBLICATION_OPERATION_NOT_ALLOWED"
	codeInputInvalid        = "PUBLICATION_INPUT_INVALID"
	codeCollaboratorFailed  = "PUBLICATION_COLLABORATOR_FAILED"
	codeNotConfigured       = "PUBLICATION_NOT_CONFIGURED"
)

var inputErrors = []error{
	publication.ErrScheduleInPast,
	publication.ErrInvalidSchedule,
	publication.ErrNameRequired,
	publication.ErrRequestMismatch,
	validation.ErrContentInvalid,
	validation.ErrContentEncoding,
	folders.ErrNameRequired,
	folders.ErrInvalidName,
	folders.ErrInvalidPath,
}

var configurationErrors = []error{
	publication.ErrFoldersRequired,
	publication.ErrSchedulerRequired,
	publication.ErrSchedulingDisabled,
}

// classify tags workflow errors with a go-errors category so callers can tell
// a refused operation from a broken collaborator. Unknown errors are left to
// the generic command wrapper.
func classify(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	switch {
	case errors.Is(err, workflow.ErrGuardViolation):
		return goerrors.Wrap(err, goerrors.CategoryValidation, "operation not allowed").
			WithTextCode(codeOperationNotAllowed)
	case matchesAny(err, inputErrors):
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid input").
			WithTextCode(codeInputInvalid)
	case matchesAny(err, configurationErrors):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "workflow not configured for operation").
			WithTextCode(codeNotConfigured)
	case errors.Is(err, workflow.ErrCollaboratorFailure):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "collaborator failed").
			WithTextCode(codeCollaboratorFailed)
	}
	return err
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

package storage

import (
	"errors"
	"fmt"
)

var (
	ErrHandleNotFound   = errors.New("storage: handle not found")
	ErrHandleExists     = errors.New("storage: handle already exists")
	ErrHandleMismatch   = errors.New("storage: record belongs to another handle")
	ErrInvalidKind      = errors.New("storage: invalid variant kind")
	ErrRequestConflict  = errors.New("storage: handle already has an active request")
	ErrDatabaseRequired = errors.New("storage: database not configured")
)

// NotFoundError reports a missing handle lookup.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	if e == nil || e.Key == "" {
		return ErrHandleNotFound.Error()
	}
	return fmt.Sprintf("%s: %s", ErrHandleNotFound.Error(), e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return ErrHandleNotFound
}

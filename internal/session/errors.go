package session

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned when no user identity is available. No
// remote call is made in that case.
var ErrUnauthenticated = errors.New("not authenticated")

// ValidationError rejects bad input before any I/O happens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// PersistenceError wraps a failure from the remote store. Local and shared
// state are left untouched when one is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

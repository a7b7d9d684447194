package storage

import (
	"errors"
	"fmt"
)

// SQLSTATE codes the repositories react to.
const (
	CodeUniqueViolation = "23505"
)

// PersistenceError reports a failed statement. Code carries the driver's
// SQLSTATE when one was available.
type PersistenceError struct {
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (SQLSTATE %s)", e.Op, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// HasCode reports whether err is a PersistenceError with the given SQLSTATE.
func HasCode(err error, code string) bool {
	var pe *PersistenceError
	return errors.As(err, &pe) && pe.Code == code
}

// IsUniqueViolation reports whether err was raised by a unique constraint.
func IsUniqueViolation(err error) bool {
	return HasCode(err, CodeUniqueViolation)
}

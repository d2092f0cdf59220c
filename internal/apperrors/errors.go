package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that the operation is not allowed in the resource's current state.
var ErrConflict = errors.New("state conflict")

// ErrForbidden indicates the caller may not change the resource, e.g. a shared system account.
var ErrForbidden = errors.New("forbidden")

// ErrInternal indicates an infrastructure failure (database, cache).
var ErrInternal = errors.New("internal error")

// AppError carries an HTTP-ish status code alongside the underlying cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates an AppError. err may be nil.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the cause so errors.Is still matches sentinel errors raised below the repository.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports ErrInternal for 5xx errors.
func (e *AppError) Is(target error) bool {
	return target == ErrInternal && e.Code >= 500
}

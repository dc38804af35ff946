// Package apperrors defines the coded error taxonomy shared by the store,
// the HTTP layer and the client session controller.
package apperrors

import (
	"errors"
	"fmt"
)

const (
	CodeUnknown      = "UNKNOWN"
	CodeValidation   = "VALIDATION"
	CodeNotFound     = "NOT_FOUND"
	CodePersistence  = "PERSISTENCE"
	CodeUnauthorized = "UNAUTHORIZED"
)

// ApplicationError is implemented by every error in this package.
type ApplicationError interface {
	error
	Code() string
	Unwrap() error
}

// Error is the base coded error.
type Error struct {
	code    string
	message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}
	return e.message
}

func (e *Error) Code() string  { return e.code }
func (e *Error) Unwrap() error { return e.err }

// Message returns the human readable part without the wrapped cause.
func (e *Error) Message() string { return e.message }

// Code returns the code of the first ApplicationError in err's chain,
// or CodeUnknown.
func Code(err error) string {
	var appErr ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return CodeUnknown
}

// Message returns a message fit for showing to a user. Causes of
// persistence failures stay in the logs.
func Message(err error) string {
	var base *Error
	if errors.As(err, &base) {
		return base.message
	}
	var v *ValidationError
	if errors.As(err, &v) {
		return v.base.message
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.base.message
	}
	var p *PersistenceError
	if errors.As(err, &p) {
		return p.base.message
	}
	var u *UnauthorizedError
	if errors.As(err, &u) {
		return u.base.message
	}
	return "Server error"
}

// ValidationError reports rejected input: empty or oversized content,
// missing fields.
type ValidationError struct {
	base Error
}

func (e *ValidationError) Error() string { return e.base.Error() }
func (e *ValidationError) Code() string  { return e.base.Code() }
func (e *ValidationError) Unwrap() error { return e.base.Unwrap() }

func NewValidationError(message string, cause error) error {
	return &ValidationError{base: Error{code: CodeValidation, message: message, err: cause}}
}

// NotFoundError reports an unknown user or conversation.
type NotFoundError struct {
	base Error
}

func (e *NotFoundError) Error() string { return e.base.Error() }
func (e *NotFoundError) Code() string  { return e.base.Code() }
func (e *NotFoundError) Unwrap() error { return e.base.Unwrap() }

func NewNotFoundError(message string, cause error) error {
	return &NotFoundError{base: Error{code: CodeNotFound, message: message, err: cause}}
}

// PersistenceError reports an unreachable or failing store.
type PersistenceError struct {
	base Error
}

func (e *PersistenceError) Error() string { return e.base.Error() }
func (e *PersistenceError) Code() string  { return e.base.Code() }
func (e *PersistenceError) Unwrap() error { return e.base.Unwrap() }

func NewPersistenceError(message string, cause error) error {
	return &PersistenceError{base: Error{code: CodePersistence, message: message, err: cause}}
}

// UnauthorizedError reports a missing or invalid identity.
type UnauthorizedError struct {
	base Error
}

func (e *UnauthorizedError) Error() string { return e.base.Error() }
func (e *UnauthorizedError) Code() string  { return e.base.Code() }
func (e *UnauthorizedError) Unwrap() error { return e.base.Unwrap() }

func NewUnauthorizedError(message string, cause error) error {
	return &UnauthorizedError{base: Error{code: CodeUnauthorized, message: message, err: cause}}
}

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func IsPersistence(err error) bool {
	var e *PersistenceError
	return errors.As(err, &e)
}

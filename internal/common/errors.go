// Package common defines shared constants and sentinel errors used across
// the portfolio API layers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")
	ErrorRateLimited  = errors.New("too many requests")

	// Credential errors. All of them are unauthorized.
	ErrorInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrorUnauthorized)
	ErrorAccountDisabled    = fmt.Errorf("%w: account is disabled", ErrorUnauthorized)
	ErrorWrongPassword      = fmt.Errorf("%w: current password is incorrect", ErrorUnauthorized)

	// Resource errors.
	ErrorUserNotFound = fmt.Errorf("user %w", ErrorNotFound)
	ErrorPostNotFound = fmt.Errorf("post %w", ErrorNotFound)
	ErrorUserExists   = fmt.Errorf("user %w", ErrorConflict)

	// Relationship errors.
	ErrorSelfFollow = fmt.Errorf("%w: cannot follow yourself", ErrorValidation)

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors. An expired access token is still an invalid one.
	ErrTokenExpired        = fmt.Errorf("%w: token expired", ErrInvalidToken)
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

// ValidationError carries the human readable reasons an input was rejected.
// It matches ErrorValidation.
type ValidationError struct {
	Message string
	Errors  []string
}

// NewValidationError builds a ValidationError with the default message.
func NewValidationError(errs ...string) *ValidationError {
	return &ValidationError{Message: "Validation failed", Errors: errs}
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Errors, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrorValidation
}

// ConflictError reports which unique field was violated. It matches ErrorConflict.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	if e.Field == "" {
		return "resource already exists"
	}
	return e.Field + " already exists"
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrorConflict
}

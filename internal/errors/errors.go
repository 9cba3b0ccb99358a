// Package errors provides standardized domain errors for business logic.
package errors

import (
	"errors"
	"fmt"
)

// Standard domain errors that can be used across all domain modules.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates missing or invalid authentication credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates insufficient permissions.
	ErrForbidden = errors.New("forbidden")

	// ErrLocked indicates the resource is temporarily locked.
	ErrLocked = errors.New("locked")

	// ErrBadPassphrase indicates the supplied passphrase does not unlock the vault.
	ErrBadPassphrase = errors.New("bad passphrase")

	// ErrIntegrity indicates an AEAD authentication tag failed to verify.
	ErrIntegrity = errors.New("integrity check failed")

	// ErrAuditTampered indicates the audit hash chain failed verification.
	ErrAuditTampered = errors.New("audit chain tampered")

	// ErrCorrupt indicates a schema row or ciphertext blob has an invalid layout.
	ErrCorrupt = errors.New("corrupt data")

	// ErrStorage indicates an I/O or database failure.
	ErrStorage = errors.New("storage error")

	// ErrOsResource indicates an operating-system resource failure such as mlock.
	ErrOsResource = errors.New("os resource error")

	// ErrBadParams indicates a caller contract violation.
	ErrBadParams = errors.New("bad parameters")
)

// New creates a new error with the given message.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message while preserving the
// error chain.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(fmt.Sprintf(format, args...)+": %w", err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

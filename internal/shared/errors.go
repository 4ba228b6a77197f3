package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPermissionDenied is returned when the acting principal lacks a capability.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrDuplicateUsername is returned when a username is already registered.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrValidation marks payloads rejected before reaching storage.
	ErrValidation = errors.New("validation failed")
	// ErrStorageUnavailable marks any fault raised by the storage layer.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrSessionNotFound indicates a missing or expired session.
	ErrSessionNotFound = errors.New("session not found")
)

// StorageError wraps a storage fault with the failing operation.
// errors.Is(err, ErrStorageUnavailable) reports true for every StorageError.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, ErrStorageUnavailable)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrStorageUnavailable, e.Err)
}

// Unwrap returns the underlying storage cause.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is matches ErrStorageUnavailable.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

// Storage wraps err as a StorageError unless it already carries a domain sentinel.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsDomainError reports whether err is one of the deterministic domain failures
// that must reach the caller unchanged.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrDuplicateUsername) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrStorageUnavailable)
}

// Validationf builds an ErrValidation with detail.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// UserSafeMessage returns a message that can be shown to API clients.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStorageUnavailable):
		return "storage is temporarily unavailable"
	case IsDomainError(err):
		return err.Error()
	default:
		return "internal error"
	}
}

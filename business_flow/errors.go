// Package businessflow contains the business logic for the ingestion pipeline.
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// User-related errors
	ErrUserNotFound     = errors.New("user not found")
	ErrUserInactive     = errors.New("user is inactive")
	ErrUserTypeNotFound = errors.New("user type not found")
	ErrUserUUIDRequired = errors.New("user UUID is required")

	// Webhook payload errors
	ErrEventIDRequired   = errors.New("event ID is required")
	ErrTagNameRequired   = errors.New("tag name is required")
	ErrContactIDRequired = errors.New("contact ID is required")
	ErrCreatedAtInvalid  = errors.New("created_at is not a valid RFC3339 timestamp")
	ErrTagNameEmptyNorm  = errors.New("tag name is empty after normalization")

	// Eligibility errors
	ErrIneligibleUserType = errors.New("user type is not eligible for credit")

	// Activity / badge errors
	ErrActivityNotFound = errors.New("activity not found")
	ErrBadgeNotFound    = errors.New("badge not found")

	// Reconciliation errors
	ErrContactStillUnmatched = errors.New("contact ID still has no registered user")

	// Cache errors
	ErrCacheNotAvailable = errors.New("cache not available")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsUserInactive(err error) bool {
	return errors.Is(err, ErrUserInactive)
}

func IsUserTypeNotFound(err error) bool {
	return errors.Is(err, ErrUserTypeNotFound)
}

func IsUserUUIDRequired(err error) bool {
	return errors.Is(err, ErrUserUUIDRequired)
}

func IsEventIDRequired(err error) bool {
	return errors.Is(err, ErrEventIDRequired)
}

func IsTagNameRequired(err error) bool {
	return errors.Is(err, ErrTagNameRequired)
}

func IsContactIDRequired(err error) bool {
	return errors.Is(err, ErrContactIDRequired)
}

func IsCreatedAtInvalid(err error) bool {
	return errors.Is(err, ErrCreatedAtInvalid)
}

func IsTagNameEmptyNorm(err error) bool {
	return errors.Is(err, ErrTagNameEmptyNorm)
}

func IsIneligibleUserType(err error) bool {
	return errors.Is(err, ErrIneligibleUserType)
}

func IsActivityNotFound(err error) bool {
	return errors.Is(err, ErrActivityNotFound)
}

func IsBadgeNotFound(err error) bool {
	return errors.Is(err, ErrBadgeNotFound)
}

func IsContactStillUnmatched(err error) bool {
	return errors.Is(err, ErrContactStillUnmatched)
}

func IsCacheNotAvailable(err error) bool {
	return errors.Is(err, ErrCacheNotAvailable)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}

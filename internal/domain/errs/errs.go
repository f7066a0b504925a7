package errs

import (
	"errors"
	"fmt"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrNotFound       = errors.New("not found")
	ErrLocationNotSet = errors.New("location not set")
	ErrUnavailable    = errors.New("store temporarily unavailable")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Reason
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

func (e ValidationError) Unwrap() error {
	return ErrValidation
}

func Invalid(field, reason string) error {
	return ValidationError{Field: field, Reason: reason}
}

func IsValidation(err error) (*ValidationError, bool) {
	var ve ValidationError
	if errors.As(err, &ve) {
		return &ve, true
	}
	return nil, false
}

// TempUnavailableError marks a retryable store failure (timeout, connectivity).
type TempUnavailableError struct {
	RetryAfterSec int64
	Cause         error
}

func (e TempUnavailableError) Error() string {
	if e.Cause == nil {
		return ErrUnavailable.Error()
	}
	return ErrUnavailable.Error() + ": " + e.Cause.Error()
}

func (e TempUnavailableError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrUnavailable}
	}
	return []error{ErrUnavailable, e.Cause}
}

func (e TempUnavailableError) RetryAfter() int64 {
	if e.RetryAfterSec <= 0 {
		return 1
	}
	return e.RetryAfterSec
}

func Unavailable(cause error) error {
	return TempUnavailableError{RetryAfterSec: 1, Cause: cause}
}

func IsTempUnavailable(err error) (*TempUnavailableError, bool) {
	var tu TempUnavailableError
	if errors.As(err, &tu) {
		return &tu, true
	}
	return nil, false
}

// LocationNotSetError carries the requester id so the caller can prompt for a location.
type LocationNotSetError struct {
	ProfileID string
}

func (e LocationNotSetError) Error() string {
	return fmt.Sprintf("profile %s: %s", e.ProfileID, ErrLocationNotSet.Error())
}

func (e LocationNotSetError) Unwrap() error {
	return ErrLocationNotSet
}

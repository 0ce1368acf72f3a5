package service

import (
	"errors"
)

var (
	// ErrNotFound is returned when no job exists for the given ID.
	ErrNotFound = errors.New("job not found")

	// ErrInvalidTransition is returned when an update would move a job
	// along an edge the status machine does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrFileMissing is returned by cleanup when the staged audio file
	// is already gone.
	ErrFileMissing = errors.New("audio file already removed")
)

// ErrorKind classifies failures from the transcription and summarization
// backends so callers can pick the right user-facing message.
type ErrorKind string

const (
	KindNotFound           ErrorKind = "not_found"
	KindUnsupportedFormat  ErrorKind = "unsupported_format"
	KindTooShort           ErrorKind = "too_short"
	KindTooLong            ErrorKind = "too_long"
	KindUnauthorized       ErrorKind = "unauthorized"
	KindRateLimited        ErrorKind = "rate_limited"
	KindPayloadTooLarge    ErrorKind = "payload_too_large"
	KindServiceUnavailable ErrorKind = "service_unavailable"
	KindUnknown            ErrorKind = "unknown"
)

// CapabilityError is a classified failure from an external capability.
// Message is safe to store on the job record and return to clients.
type CapabilityError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *CapabilityError) Error() string {
	return e.Message
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}

func newCapabilityError(kind ErrorKind, message string, err error) *CapabilityError {
	return &CapabilityError{Kind: kind, Message: message, Err: err}
}

// FailureMessage extracts the storable reason from a pipeline error.
func FailureMessage(err error) string {
	var capErr *CapabilityError
	if errors.As(err, &capErr) {
		return capErr.Message
	}
	return err.Error()
}

// ValidationError describes an upload rejected before a job was created.
// Reason is returned verbatim to the client.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// ParseError indicates a file could not be parsed (binary or broken syntax)
	ParseError ErrorCode = "PARSE_ERROR"
	// AmbiguousMatch indicates two or more equally valid candidates at a matching stage
	AmbiguousMatch ErrorCode = "AMBIGUOUS_MATCH"
	// UnsupportedLanguage indicates no indexer is registered for a file extension
	UnsupportedLanguage ErrorCode = "UNSUPPORTED_LANGUAGE"
	// InvalidTarget indicates a malformed subscription target, rejected at creation time
	InvalidTarget ErrorCode = "INVALID_TARGET"
	// RevisionUnavailable indicates the revision source could not read a file
	RevisionUnavailable ErrorCode = "REVISION_UNAVAILABLE"
	// DiffUnavailable indicates the diff provider failed between two refs
	DiffUnavailable ErrorCode = "DIFF_UNAVAILABLE"
	// ScanFailed indicates the scan aborted as a whole (collaborator failure)
	ScanFailed ErrorCode = "SCAN_FAILED"
	// SubscriptionNotFound indicates an unknown subscription ID
	SubscriptionNotFound ErrorCode = "SUBSCRIPTION_NOT_FOUND"
	// StorageError indicates a subscription/scan-history store failure
	StorageError ErrorCode = "STORAGE_ERROR"
	// InternalError indicates an unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// PinError represents a codepin error with a stable code and optional details
type PinError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error       // Underlying error (not exported to JSON)
}

// New creates a new PinError
func New(code ErrorCode, message string, cause error) *PinError {
	return &PinError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Newf creates a new PinError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *PinError {
	return &PinError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface
func (e *PinError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *PinError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *PinError) WithDetails(details interface{}) *PinError {
	e.Details = details
	return e
}

// CodeOf extracts the error code from any error.
// Non-PinError values map to InternalError.
func CodeOf(err error) ErrorCode {
	var pe *PinError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return InternalError
}

// Is reports whether err carries the given code
func Is(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

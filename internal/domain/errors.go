package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind distinguishes where an analysis failure originated.
type ErrorKind string

const (
	// KindValidation is raised before any network call.
	KindValidation ErrorKind = "VALIDATION_ERROR"
	// KindTransport is a non-success HTTP status from the analysis backend.
	KindTransport ErrorKind = "TRANSPORT_ERROR"
	// KindUnexpected covers everything else during the request/response cycle.
	KindUnexpected ErrorKind = "UNEXPECTED_ERROR"
)

// Operator-facing validation messages.
const (
	MsgInvalidExtension = "Please upload a .vcf file"
	MsgMissingFile      = "Please upload a VCF file first."
	MsgNoDrugs          = "Please select at least one drug."
	MsgServerError      = "Server error"
	// FailurePrefix is prepended to transport and unexpected failures.
	FailurePrefix = "Analysis failed: "
)

// ErrNotFound is returned by report stores for unknown IDs.
var ErrNotFound = errors.New("report not found")

// AnalysisError is the single error type surfaced to the operator.
type AnalysisError struct {
	Kind      ErrorKind `json:"code"`
	Message   string    `json:"message"`
	Status    int       `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Cause     error     `json:"-"`
}

// Error implements the error interface
func (e *AnalysisError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// UserMessage returns the text shown to the operator. Validation messages are
// shown verbatim, everything else is prefixed with "Analysis failed: ".
func (e *AnalysisError) UserMessage() string {
	if e.Kind == KindValidation {
		return e.Message
	}
	return FailurePrefix + e.Message
}

// NewValidationError creates an input validation error.
func NewValidationError(message string) *AnalysisError {
	return &AnalysisError{
		Kind:      KindValidation,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransportError creates an error for a non-success HTTP status.
func NewTransportError(status int, message string) *AnalysisError {
	return &AnalysisError{
		Kind:      KindTransport,
		Message:   message,
		Status:    status,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnexpectedError wraps any other failure of the request/response cycle.
func NewUnexpectedError(cause error) *AnalysisError {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return &AnalysisError{
		Kind:      KindUnexpected,
		Message:   msg,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

// UserMessage maps any error to the operator-visible message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.UserMessage()
	}
	return FailurePrefix + err.Error()
}

// IsValidation reports whether err is an input validation error.
func IsValidation(err error) bool {
	var ae *AnalysisError
	return errors.As(err, &ae) && ae.Kind == KindValidation
}

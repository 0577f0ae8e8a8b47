package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestAnalysisError(t *testing.T) {
	tests := []struct {
		name        string
		err         *AnalysisError
		kind        ErrorKind
		userMessage string
		errorString string
	}{
		{
			name:        "Validation error",
			err:         NewValidationError(MsgNoDrugs),
			kind:        KindValidation,
			userMessage: "Please select at least one drug.",
			errorString: "VALIDATION_ERROR: Please select at least one drug.",
		},
		{
			name:        "Transport error",
			err:         NewTransportError(400, "File must be a .vcf file"),
			kind:        KindTransport,
			userMessage: "Analysis failed: File must be a .vcf file",
			errorString: "TRANSPORT_ERROR (400): File must be a .vcf file",
		},
		{
			name:        "Unexpected error",
			err:         NewUnexpectedError(errors.New("unexpected end of JSON input")),
			kind:        KindUnexpected,
			userMessage: "Analysis failed: unexpected end of JSON input",
			errorString: "UNEXPECTED_ERROR: unexpected end of JSON input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("Expected kind %s, got %s", tt.kind, tt.err.Kind)
			}

			if tt.err.UserMessage() != tt.userMessage {
				t.Errorf("Expected user message %q, got %q", tt.userMessage, tt.err.UserMessage())
			}

			if tt.err.Error() != tt.errorString {
				t.Errorf("Expected error string %q, got %q", tt.errorString, tt.err.Error())
			}

			// Check that timestamp is recent (within last minute)
			if time.Since(tt.err.Timestamp) > time.Minute {
				t.Errorf("Timestamp should be recent, got %v", tt.err.Timestamp)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(nil); got != "" {
		t.Errorf("Expected empty message for nil error, got %q", got)
	}

	wrapped := fmt.Errorf("dispatch: %w", NewTransportError(500, "Server error"))
	if got := UserMessage(wrapped); got != "Analysis failed: Server error" {
		t.Errorf("Expected wrapped transport message, got %q", got)
	}

	if got := UserMessage(errors.New("connection refused")); got != "Analysis failed: connection refused" {
		t.Errorf("Expected plain error to be prefixed, got %q", got)
	}

	if !IsValidation(fmt.Errorf("form: %w", NewValidationError(MsgMissingFile))) {
		t.Error("Expected wrapped validation error to be detected")
	}
	if IsValidation(NewUnexpectedError(nil)) {
		t.Error("Unexpected error must not be reported as validation")
	}
}

func TestUnexpectedErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewUnexpectedError(cause)

	if !errors.Is(err, cause) {
		t.Error("Expected errors.Is to reach the cause")
	}
}

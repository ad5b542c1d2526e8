package gateway

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrGatewayDisabled is returned when no model API key is available.
	ErrGatewayDisabled = errors.New("ai gateway is not configured")
	// ErrMalformedReply is returned when the model reply is not a JSON object.
	ErrMalformedReply = errors.New("ai did not return json")
	// ErrInvalidDate is returned when an ISO timestamp in a command cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")
	// ErrMissingText is returned for blank input.
	ErrMissingText = errors.New("missing text")
)

// Issue describes one schema violation.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// SchemaError reports that the model reply did not match any command shape.
type SchemaError struct {
	Issues []Issue
}

func (e *SchemaError) Error() string {
	return "invalid command shape: " + e.Summary()
}

// Summary lists the issues as "path: message" pairs.
func (e *SchemaError) Summary() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if issue.Path == "" {
			parts = append(parts, issue.Message)
			continue
		}
		parts = append(parts, issue.Path+": "+issue.Message)
	}
	return strings.Join(parts, "; ")
}

// ReplyError carries the raw model reply alongside a decoding failure.
type ReplyError struct {
	Raw string
	Err error
}

func (e *ReplyError) Error() string {
	return e.Err.Error()
}

func (e *ReplyError) Unwrap() error {
	return e.Err
}

// ProviderError wraps a failure talking to the model provider.
type ProviderError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("model provider error (status %d): %s", e.StatusCode, e.Message)
	}
	return "model provider error: " + e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func invalidDate(field, value string) error {
	return fmt.Errorf("%w: %s %q", ErrInvalidDate, field, value)
}

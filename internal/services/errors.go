package services

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrUnsupportedInput = errors.New("unsupported input")
	ErrExtraction       = errors.New("extraction error")
	ErrGeneration       = errors.New("generation error")
	ErrValidation       = errors.New("validation error")
	ErrPrecondition     = errors.New("precondition failed")
	ErrTimeout          = errors.New("timeout")
	ErrConfiguration    = errors.New("configuration error")
	ErrStaleResult      = errors.New("stale result")
)

// markers is ordered from most to least specific for Kind lookups. A timeout
// wrapped inside a generation failure reports as a timeout.
var markers = []struct {
	err  error
	kind string
}{
	{ErrStaleResult, "stale_result"},
	{ErrTimeout, "timeout"},
	{ErrUnsupportedInput, "unsupported_input"},
	{ErrExtraction, "extraction"},
	{ErrValidation, "validation"},
	{ErrPrecondition, "precondition"},
	{ErrConfiguration, "configuration"},
	{ErrGeneration, "generation"},
}

// Error is the concrete type produced by Wrap. Message is safe to show to an
// end user; Error() additionally carries the component and operation.
type Error struct {
	Marker    error
	Component string
	Operation string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Marker.Error())
	b.WriteString(": ")
	b.WriteString(buildDetail(e.Component, e.Operation, e.Message))
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Marker}
	}
	return []error{e.Marker, e.Cause}
}

// Wrap builds an error that includes component context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above. Deadline expiry in err promotes the
// marker to ErrTimeout.
func Wrap(marker error, component, operation, message string, err error) error {
	if marker == nil {
		marker = ErrGeneration
	}
	if err != nil && errors.Is(err, context.DeadlineExceeded) && marker != ErrTimeout {
		marker = ErrTimeout
	}
	return &Error{
		Marker:    marker,
		Component: strings.TrimSpace(component),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Cause:     err,
	}
}

// Kind reports the snake_case name of the most specific marker carried by err,
// or "internal" when none match.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range markers {
		if errors.Is(err, m.err) {
			return m.kind
		}
	}
	return "internal"
}

// UserMessage returns the message a person should see for err. It prefers the
// outermost Wrap message and falls back to the raw error text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var svcErr *Error
	if errors.As(err, &svcErr) && svcErr.Message != "" {
		return svcErr.Message
	}
	return err.Error()
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component != "" {
		parts = append(parts, component)
	}
	if operation != "" {
		parts = append(parts, operation)
	}
	if message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

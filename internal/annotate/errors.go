package annotate

import (
	"errors"
	"fmt"
)

// Kind classifies why an annotation could not be produced.
type Kind string

const (
	KindServiceUnavailable Kind = "service_unavailable"
	KindInvocationFailed   Kind = "invocation_failed"
	KindExtractionFailed   Kind = "extraction_failed"
	KindInvalidPayload     Kind = "invalid_payload"
	KindMissingInput       Kind = "missing_input"
)

// Error is returned by Service.Annotate for every failure path.
type Error struct {
	Kind   Kind
	Detail string
	// Sample holds the head of a string response that yielded no text.
	Sample string
	// Parse is set for KindInvalidPayload.
	Parse *ParseError
	Err   error
}

func (e *Error) Error() string {
	msg := "annotate: " + string(e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of an annotate error, or "" for foreign errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// ParseKind classifies validator failures.
type ParseKind string

const (
	MalformedPayload     ParseKind = "malformed_payload"
	MissingRequiredField ParseKind = "missing_required_field"
)

// ParseError is returned by Validate. Snippet is diagnostic only and is never
// used as a fallback value.
type ParseError struct {
	Kind    ParseKind
	Snippet string
	Parsed  map[string]any
	Err     error
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case MissingRequiredField:
		return fmt.Sprintf("payload missing %s", fieldAnnotatedCode)
	default:
		if e.Err != nil {
			return "malformed payload: " + e.Err.Error()
		}
		return "malformed payload"
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

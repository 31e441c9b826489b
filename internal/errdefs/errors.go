// Package errdefs defines the unified error taxonomy for the pipeline.
// Backend-specific failures are mapped onto these kinds so retry and
// isolation decisions never depend on provider error strings.
package errdefs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation policy decisions.
type Kind string

const (
	// KindNotFound signals an unknown example or case id. Fatal, surfaced to the caller.
	KindNotFound Kind = "not_found"
	// KindInvalidArgument signals a bad k, an unbuilt index, or similar misuse. Fatal.
	KindInvalidArgument Kind = "invalid_argument"
	// KindPromptTooLarge signals the target input alone exceeds the token budget.
	// Fatal for that case only; the run continues.
	KindPromptTooLarge Kind = "prompt_too_large"
	// KindTransientBackend covers timeouts, rate limits and 5xx-class failures.
	KindTransientBackend Kind = "transient_backend"
	// KindAuthBackend covers authentication/authorization failures. Aborts the run.
	KindAuthBackend Kind = "auth_backend"
	// KindMalformedRequest covers 4xx-class request errors. Never retried.
	KindMalformedRequest Kind = "malformed_request"
	// KindIncompleteResults signals metrics were requested before all generations completed.
	KindIncompleteResults Kind = "incomplete_results"
)

// Error is a classified pipeline error.
type Error struct {
	Kind      Kind
	Message   string
	Retryable bool
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// NotFound builds a KindNotFound error.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// InvalidArgument builds a KindInvalidArgument error.
func InvalidArgument(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// PromptTooLarge builds a KindPromptTooLarge error.
func PromptTooLarge(format string, args ...any) *Error {
	return &Error{Kind: KindPromptTooLarge, Message: fmt.Sprintf(format, args...)}
}

// TransientBackend wraps a transient failure that may be retried.
func TransientBackend(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindTransientBackend, Message: fmt.Sprintf(format, args...), Retryable: true, Cause: cause}
}

// AuthBackend wraps an authentication failure. Never retried.
func AuthBackend(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindAuthBackend, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// MalformedRequest wraps a request the backend rejected as invalid. Never retried.
func MalformedRequest(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindMalformedRequest, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// IncompleteResults builds a KindIncompleteResults error.
func IncompleteResults(format string, args ...any) *Error {
	return &Error{Kind: KindIncompleteResults, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err (or any error it wraps) has the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsRetryable reports whether err may be retried. Unclassified errors are
// treated as non-retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// KindOf returns the kind of a classified error, or "" for plain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

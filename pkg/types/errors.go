// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// NetworkError wraps a transport-level failure. Retryable.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: network error: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError marks a call that exceeded its deadline. Retryable up to the
// configured limit.
type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string { return fmt.Sprintf("%s: timed out", e.Op) }

// ProviderError is a non-2xx response from an external API. Retryable only
// for 429 and 5xx.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Transient reports whether the status indicates a failure worth retrying.
func (e *ProviderError) Transient() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// ParseError marks a response whose schema was unrecognized. Not retryable.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parsing %s response: %v", e.Source, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError marks tool arguments that do not satisfy the input schema.
// Not retryable; it is surfaced to the model as an error tool result so the
// model can correct itself.
type ValidationError struct {
	Tool   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %s: %s", e.Tool, e.Reason)
}

// ToolNotFoundError marks an invocation of an unregistered tool name.
type ToolNotFoundError struct {
	Tool string
}

func (e *ToolNotFoundError) Error() string { return fmt.Sprintf("unknown tool %q", e.Tool) }

// BudgetExhaustedError ends a session that reached its step budget without a
// final answer. The session outcome still carries any partial results.
type BudgetExhaustedError struct {
	Steps int
}

func (e *BudgetExhaustedError) Error() string {
	return fmt.Sprintf("step budget exhausted after %d iterations without a final answer", e.Steps)
}

// Retryable reports whether err is a transient failure eligible for retry:
// network errors, timeouts, and 429/5xx provider responses.
func Retryable(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var toErr *TimeoutError
	if errors.As(err, &toErr) {
		return true
	}
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Transient()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return false
}

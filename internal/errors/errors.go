// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines typed errors with categories for user-friendly reporting.
// Every fault raised inside the assistant pipeline carries a machine-readable Kind
// so the orchestrator can map it to a log severity and a user-facing outcome
// without string matching.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// IncompleteInput indicates a write request without the minimum details.
	IncompleteInput Kind = "incomplete_input"
	// GenerationFailed indicates the query generator could not produce a candidate.
	GenerationFailed Kind = "generation_failed"
	// ValidationFailed indicates the validator pass faulted or produced non-SQL text.
	ValidationFailed Kind = "validation_failed"
	// UnauthorizedOperation indicates the safety gate rejected a statement.
	UnauthorizedOperation Kind = "unauthorized_operation"
	// StoreConflict indicates a uniqueness constraint violation.
	StoreConflict Kind = "store_conflict"
	// StoreFault indicates any other error reported by the store driver.
	StoreFault Kind = "store_fault"
	// StoreUnavailable indicates the store could not be reached.
	StoreUnavailable Kind = "store_unavailable"
	// SystemFailure indicates an unexpected fault outside every known surface.
	SystemFailure Kind = "system_failure"
	// RoutingError indicates the router met an intent it cannot dispatch.
	RoutingError Kind = "routing_error"
	// ConfigInvalid indicates the process configuration failed validation.
	ConfigInvalid Kind = "config_invalid"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the Kind of the first *E in err's chain, or "" when none is present.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *E
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package progress defines the events a request emits while it moves through
// the pipeline, a tracker that folds them into per-request state, and the
// terminal renderer used by the ask command.
package progress

import "time"

// EventType enumerates known pipeline event kinds.
type EventType string

const (
	// EventStarted is emitted once when a request enters the pipeline.
	EventStarted EventType = "started"
	// EventStage is emitted on every state transition.
	EventStage EventType = "stage"
	// EventDegraded marks a stage that failed and forced the request toward a fallback answer.
	EventDegraded EventType = "degraded"
	// EventFinished is emitted once with the final answer.
	EventFinished EventType = "finished"
)

// Event is a generic container for pipeline events.
// Only a subset of fields is set depending on Type.
type Event struct {
	Type      EventType `json:"type"`
	RequestID string    `json:"request_id"`
	At        time.Time `json:"at"`

	// Stage transitions
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	// Resolved intent, once known
	Intent string `json:"intent,omitempty"`

	// Degradation reason or final answer
	Message string `json:"message,omitempty"`
}

// Observer receives events synchronously on the request's goroutine.
type Observer func(Event)

// Fanout returns an Observer that forwards to every non-nil observer.
func Fanout(observers ...Observer) Observer {
	return func(ev Event) {
		for _, o := range observers {
			if o != nil {
				o(ev)
			}
		}
	}
}

// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package workflow sequences one request through classification, query
// generation, validation, gated execution and response synthesis.
//
// The control flow is an explicit state machine. Next is a pure function of
// the current state and the request context, and the only branch point that
// reaches the store is the one after Validated. Every stage failure degrades
// the request toward Responded instead of looping or returning an error, so a
// run always ends with some answer for the user.
package workflow

import (
	"medconnect/agent/internal/intent"
	"medconnect/agent/internal/sqlexec"
)

// State is a pipeline stage.
type State string

const (
	StateEntry      State = "entry"
	StateClassified State = "classified"
	StateGenerated  State = "generated"
	StateValidated  State = "validated"
	StateReading    State = "reading"
	StateWriting    State = "writing"
	StateResponded  State = "responded"
)

// MissingInfoMarker replaces the candidate when the completeness guard
// short-circuits a write.
const MissingInfoMarker = "MISSING_INFO"

var transitions = map[State][]State{
	StateEntry:      {StateClassified},
	StateClassified: {StateGenerated, StateResponded},
	StateGenerated:  {StateValidated, StateResponded},
	StateValidated:  {StateReading, StateWriting, StateResponded},
	StateReading:    {StateResponded},
	StateWriting:    {StateResponded},
	StateResponded:  {},
}

// CanTransition reports whether from → to is an edge of the state machine.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s has no outgoing edges.
func (s State) Terminal() bool { return len(transitions[s]) == 0 }

// RequestContext is the unit of work flowing through the pipeline. One is
// created per request and discarded after the answer is produced.
type RequestContext struct {
	RequestID string
	UserInput string
	// History is accepted from callers but does not influence routing.
	History []map[string]any

	Intent      intent.Intent
	MissingInfo bool
	// Candidate is untrusted until Valid is true.
	Candidate string
	Valid     bool
	// Fault is the error that degraded the request, if any.
	Fault error

	Outcome       *sqlexec.Outcome
	FinalResponse string

	State State
	Path  []State
}

// Proceedable reports whether the candidate may reach an execution branch.
func (rc *RequestContext) Proceedable() bool {
	return rc.Valid && !rc.MissingInfo && rc.Candidate != MissingInfoMarker
}

// Next returns the state that follows s for rc. It never returns an edge
// missing from the transition table and never leads to execution unless the
// candidate is valid and the intent names a branch.
func Next(s State, rc *RequestContext) State {
	switch s {
	case StateEntry:
		return StateClassified
	case StateClassified:
		if rc.MissingInfo || rc.Fault != nil {
			return StateResponded
		}
		return StateGenerated
	case StateGenerated:
		if rc.Fault != nil {
			return StateResponded
		}
		return StateValidated
	case StateValidated:
		if !rc.Proceedable() {
			return StateResponded
		}
		switch rc.Intent {
		case intent.Read:
			return StateReading
		case intent.Write:
			return StateWriting
		}
		return StateResponded
	}
	return StateResponded
}

// misrouted reports a valid candidate that reached Responded without an
// execution branch, which only happens when the intent was never resolved.
func misrouted(from State, rc *RequestContext) bool {
	return from == StateValidated && rc.Proceedable() && rc.Intent != intent.Read && rc.Intent != intent.Write
}

// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package sqlexec executes validated statements and classifies what happened.
// Every statement passes the safety gate for its branch first; a rejected one
// never reaches the store. Store results and faults are turned into an Outcome
// whose text is what response synthesis gets to see.
package sqlexec

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"medconnect/agent/internal/gate"
	"medconnect/agent/internal/logging"
	"medconnect/agent/internal/schema"
	"medconnect/agent/internal/store"
)

// Outcome texts.
const (
	TextSuccess       = "Success."
	TextNoMatch       = "Error: Could not find an appointment for that user to update."
	TextConflict      = "Error: This day and time is already filled. Tell the user to book another slot."
	TextSystemFailure = "System failure."
	storeFaultPrefix  = "Postgres Error: "
)

// OutcomeKind classifies an execution attempt.
type OutcomeKind string

const (
	OutcomeRows          OutcomeKind = "rows"
	OutcomeSuccess       OutcomeKind = "success"
	OutcomeNoMatch       OutcomeKind = "no_match"
	OutcomeConflict      OutcomeKind = "conflict"
	OutcomeStoreFault    OutcomeKind = "store_fault"
	OutcomeUnauthorized  OutcomeKind = "unauthorized"
	OutcomeSystemFailure OutcomeKind = "system_failure"
)

// Outcome is the classified result of one execution attempt.
type Outcome struct {
	Kind   OutcomeKind   `json:"kind"`
	Text   string        `json:"text"`
	Result *store.Result `json:"result,omitempty"`
	Err    error         `json:"-"`
}

// Store is the persistent store as the executor sees it.
type Store interface {
	Execute(ctx context.Context, sql string, mode store.Mode) (*store.Result, error)
}

// Authorizer is the safety gate.
type Authorizer interface {
	Authorize(query string, branch gate.Branch) gate.Verdict
}

// Executor runs statements through the gate and into the store.
type Executor struct {
	store Store
	gate  Authorizer
	log   *zap.Logger
}

// New creates an Executor.
func New(st Store, g Authorizer, logger *zap.Logger) *Executor {
	return &Executor{store: st, gate: g, log: logger.Named("executor")}
}

// Execute authorizes query for mode's branch, runs it and classifies the result.
// It never returns an error and recovers from panics raised below it.
func (e *Executor) Execute(ctx context.Context, query string, mode store.Mode) (out Outcome) {
	branch := gate.BranchRead
	if mode == store.ModeMutate {
		branch = gate.BranchWrite
	}

	verdict := e.gate.Authorize(query, branch)
	if !verdict.Authorized {
		return Outcome{Kind: OutcomeUnauthorized, Text: verdict.Reason}
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic during execution: %v", r)
			e.log.DPanic("unexpected store failure", zap.Error(err))
			out = Outcome{Kind: OutcomeSystemFailure, Text: TextSystemFailure, Err: err}
		}
	}()

	res, err := e.store.Execute(ctx, query, mode)
	if err != nil {
		return e.classifyFault(err)
	}

	if mode == store.ModeFetch {
		e.log.Info("read operation successful", zap.Int("rows", len(res.Rows)))
		return Outcome{Kind: OutcomeRows, Text: renderRows(res), Result: res}
	}

	e.log.Info("write operation committed", zap.Int64("rows_affected", res.RowsAffected))
	if res.RowsAffected == 0 && verdict.Verb == schema.VerbUpdate {
		return Outcome{Kind: OutcomeNoMatch, Text: TextNoMatch, Result: res}
	}
	return Outcome{Kind: OutcomeSuccess, Text: TextSuccess, Result: res}
}

func (e *Executor) classifyFault(err error) Outcome {
	f, ok := store.AsFault(err)
	if !ok {
		e.log.DPanic("unexpected store failure", zap.Error(err))
		return Outcome{Kind: OutcomeSystemFailure, Text: TextSystemFailure, Err: err}
	}
	switch f.Kind {
	case store.UniqueViolation:
		e.log.Warn("double booking attempt blocked by database constraint", zap.String("code", f.Code))
		return Outcome{Kind: OutcomeConflict, Text: TextConflict, Err: err}
	default:
		text := storeFaultPrefix + logging.Mask(f.Detail)
		e.log.Error("store fault", zap.String("kind", string(f.Kind)), zap.String("detail", text))
		return Outcome{Kind: OutcomeStoreFault, Text: text, Err: err}
	}
}

func renderRows(res *store.Result) string {
	b, err := json.Marshal(res.Records())
	if err != nil {
		return fmt.Sprintf("%v", res.Rows)
	}
	return string(b)
}

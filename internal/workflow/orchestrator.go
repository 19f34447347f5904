// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "medconnect/agent/internal/errors"
	"medconnect/agent/internal/intent"
	"medconnect/agent/internal/progress"
	"medconnect/agent/internal/sqlexec"
	"medconnect/agent/internal/store"
)

// Classifier assigns an intent and applies the completeness guard.
type Classifier interface {
	Classify(text string) intent.Intent
	HasMinimumFields(text string, in intent.Intent) bool
}

// Generator drafts a candidate statement.
type Generator interface {
	Generate(ctx context.Context, text string) (string, error)
}

// Validator re-checks a candidate statement.
type Validator interface {
	Validate(ctx context.Context, query string) (string, bool)
}

// Executor runs a gated statement.
type Executor interface {
	Execute(ctx context.Context, query string, mode store.Mode) sqlexec.Outcome
}

// Synthesizer produces the final answer.
type Synthesizer interface {
	Respond(ctx context.Context, rc *RequestContext) string
}

// Deps are the stages an Orchestrator drives.
type Deps struct {
	Classifier Classifier
	Generator  Generator
	Validator  Validator
	Executor   Executor
	Responder  Synthesizer
}

// Options tune an Orchestrator.
type Options struct {
	// RequestTimeout bounds one run. Zero means no bound beyond the caller's context.
	RequestTimeout time.Duration
	// Observer receives progress events. May be nil.
	Observer progress.Observer
}

// Request is one inbound user message.
type Request struct {
	UserInput string           `json:"user_input"`
	History   []map[string]any `json:"chat_history,omitempty"`
}

// Response is the result of one run.
type Response struct {
	FinalResponse string           `json:"final_response"`
	Intent        intent.Intent    `json:"intent"`
	RequestID     string           `json:"request_id"`
	Outcome       *sqlexec.Outcome `json:"outcome,omitempty"`
	Path          []State          `json:"path"`
}

// Orchestrator drives requests through the state machine. It holds no
// per-request state and is safe for concurrent use.
type Orchestrator struct {
	deps    Deps
	timeout time.Duration
	observe progress.Observer
	log     *zap.Logger
	now     func() time.Time
}

// New creates an Orchestrator.
func New(deps Deps, opts Options, logger *zap.Logger) *Orchestrator {
	observe := opts.Observer
	if observe == nil {
		observe = func(progress.Event) {}
	}
	return &Orchestrator{
		deps:    deps,
		timeout: opts.RequestTimeout,
		observe: observe,
		log:     logger.Named("orchestrator"),
		now:     time.Now,
	}
}

// Run processes req to completion. It never fails: every fault becomes part of
// the request context and the run still ends in Responded with an answer.
func (o *Orchestrator) Run(ctx context.Context, req Request) (resp Response) {
	rc := &RequestContext{
		RequestID: uuid.NewString(),
		UserInput: req.UserInput,
		History:   req.History,
		Intent:    intent.Unknown,
		State:     StateEntry,
	}
	log := o.log.With(zap.String("request_id", rc.RequestID))

	defer func() {
		if r := recover(); r != nil {
			log.DPanic("pipeline panicked", zap.Any("panic", r), zap.String("state", string(rc.State)))
			resp = Response{FinalResponse: FallbackResponse, Intent: rc.Intent, RequestID: rc.RequestID, Path: rc.Path}
		}
	}()

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	log.Info("received request", zap.String("user_input", req.UserInput), zap.Int("history", len(req.History)))
	o.emit(rc, progress.Event{Type: progress.EventStarted})

	for !rc.State.Terminal() {
		from := rc.State
		to := Next(from, rc)
		if !CanTransition(from, to) {
			log.DPanic("illegal transition", zap.String("from", string(from)), zap.String("to", string(to)))
			to = StateResponded
		}
		if misrouted(from, rc) {
			rc.Fault = apperrors.New(apperrors.RoutingError, fmt.Sprintf("no execution branch for intent %q", rc.Intent))
			log.Error("routing error", zap.Error(rc.Fault))
		}

		rc.State = to
		rc.Path = append(rc.Path, to)
		o.emit(rc, progress.Event{Type: progress.EventStage, From: string(from), To: string(to)})
		o.enter(ctx, log, rc)
	}

	log.Info("request processed", zap.String("intent", string(rc.Intent)), zap.Any("path", rc.Path))
	o.emit(rc, progress.Event{Type: progress.EventFinished, Message: rc.FinalResponse})

	return Response{
		FinalResponse: rc.FinalResponse,
		Intent:        rc.Intent,
		RequestID:     rc.RequestID,
		Outcome:       rc.Outcome,
		Path:          rc.Path,
	}
}

// enter runs the work attached to rc.State. A panic in a stage is recovered
// and recorded as a system failure on rc.
func (o *Orchestrator) enter(ctx context.Context, log *zap.Logger, rc *RequestContext) {
	defer func() {
		if r := recover(); r != nil {
			err := apperrors.New(apperrors.SystemFailure, fmt.Sprintf("panic in %s: %v", rc.State, r))
			log.DPanic("stage panicked", zap.String("state", string(rc.State)), zap.Error(err))
			switch rc.State {
			case StateReading, StateWriting:
				rc.Fault = err
				rc.Outcome = &sqlexec.Outcome{Kind: sqlexec.OutcomeSystemFailure, Text: sqlexec.TextSystemFailure, Err: err}
			case StateResponded:
				rc.Fault = err
				rc.FinalResponse = FallbackResponse
			default:
				o.degrade(rc, err)
			}
		}
	}()

	switch rc.State {
	case StateClassified:
		rc.Intent = o.deps.Classifier.Classify(rc.UserInput)
		if !o.deps.Classifier.HasMinimumFields(rc.UserInput, rc.Intent) {
			rc.MissingInfo = true
			rc.Candidate = MissingInfoMarker
			o.emit(rc, progress.Event{Type: progress.EventDegraded, From: string(StateClassified), Message: "missing date or time"})
		}

	case StateGenerated:
		query, err := o.deps.Generator.Generate(ctx, rc.UserInput)
		if err != nil {
			o.degrade(rc, err)
			return
		}
		rc.Candidate = query

	case StateValidated:
		rc.Candidate, rc.Valid = o.deps.Validator.Validate(ctx, rc.Candidate)
		if !rc.Valid {
			o.emit(rc, progress.Event{Type: progress.EventDegraded, From: string(StateValidated), Message: "query failed validation"})
		}

	case StateReading, StateWriting:
		mode := store.ModeFetch
		if rc.State == StateWriting {
			mode = store.ModeMutate
		}
		out := o.deps.Executor.Execute(ctx, rc.Candidate, mode)
		rc.Outcome = &out
		log.Info("execution finished", zap.String("mode", mode.String()), zap.String("outcome", string(out.Kind)))

	case StateResponded:
		if rc.MissingInfo {
			log.Info("incomplete input, asking for details")
		} else if !rc.Valid {
			log.Warn("validation failed or was skipped, responding without execution")
		}
		rc.FinalResponse = o.deps.Responder.Respond(ctx, rc)
	}
}

// degrade records err on rc and forces the candidate invalid.
func (o *Orchestrator) degrade(rc *RequestContext, err error) {
	rc.Fault = err
	rc.Valid = false
	o.emit(rc, progress.Event{Type: progress.EventDegraded, From: string(rc.State), Message: err.Error()})
}

func (o *Orchestrator) emit(rc *RequestContext, ev progress.Event) {
	ev.RequestID = rc.RequestID
	ev.At = o.now()
	if rc.Intent != intent.Unknown {
		ev.Intent = string(rc.Intent)
	}
	o.observe(ev)
}

// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

package workflow

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"medconnect/agent/internal/reasoning"
	"medconnect/agent/internal/schema"
)

// Database contexts handed to the responder when nothing was executed.
const (
	InvalidContext     = "The generated SQL was invalid and could not be executed."
	MissingInfoContext = "Error: Missing information. The request does not say when the appointment should be. Ask the user for the date and time, and for any other missing details such as the patient name, doctor or reason."
	RoutingContext     = "Error: The request could not be routed to the database."

	// FallbackResponse is the answer when response synthesis itself fails.
	FallbackResponse = "I apologize, but I encountered an internal error."
)

// Responder turns a finished request into the user-facing answer.
type Responder struct {
	llm         reasoning.Capability
	temperature float64
	maxTokens   int
	timeout     time.Duration
	log         *zap.Logger
}

// NewResponder creates a Responder. timeout bounds each answer on its own,
// so an answer is still produced after an earlier stage used up the request
// deadline. Zero leaves the bound to the reasoning provider.
func NewResponder(llm reasoning.Capability, temperature float64, maxTokens int, timeout time.Duration, logger *zap.Logger) *Responder {
	return &Responder{llm: llm, temperature: temperature, maxTokens: maxTokens, timeout: timeout, log: logger.Named("responder")}
}

// Respond asks the reasoning capability for the final answer. It ignores
// cancellation of ctx. A provider fault or an empty answer yields
// FallbackResponse.
func (r *Responder) Respond(ctx context.Context, rc *RequestContext) string {
	ctx = context.WithoutCancel(ctx)
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	out, err := r.llm.Complete(ctx, reasoning.Prompt{
		System:      schema.ResponderPrompt(),
		User:        fmt.Sprintf("User: %s\nDatabase Result: %s", rc.UserInput, DatabaseContext(rc)),
		Temperature: r.temperature,
		MaxTokens:   r.maxTokens,
	})
	if err != nil {
		r.log.Error("final response failed", zap.Error(err))
		return FallbackResponse
	}
	answer := reasoning.Strip(out)
	if answer == "" {
		r.log.Error("final response was empty")
		return FallbackResponse
	}
	return answer
}

// DatabaseContext is what the responder is told about the database step.
func DatabaseContext(rc *RequestContext) string {
	switch {
	case rc.MissingInfo:
		return MissingInfoContext
	case !rc.Valid:
		return InvalidContext
	case rc.Outcome != nil:
		return rc.Outcome.Text
	default:
		return RoutingContext
	}
}

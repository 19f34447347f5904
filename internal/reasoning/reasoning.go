// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package reasoning wraps the external language model behind one small interface.
// Callers hand over a system framing and user text and get free text back; the
// provider behind it (Groq, OpenAI, Gemini or a local Ollama) is chosen from
// configuration. Calls are never retried here.
package reasoning

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"medconnect/agent/internal/config"
)

// Prompt is one completion request.
type Prompt struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Capability turns a prompt into text.
type Capability interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// CapabilityFunc adapts a function to Capability.
type CapabilityFunc func(ctx context.Context, p Prompt) (string, error)

func (f CapabilityFunc) Complete(ctx context.Context, p Prompt) (string, error) { return f(ctx, p) }

// APIError is returned when a provider answers with an HTTP error status.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API request failed with status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// ErrEmptyCompletion is returned when a provider answers with no text at all.
var ErrEmptyCompletion = errors.New("empty completion")

var (
	reThink = regexp.MustCompile(`(?is)<think>.*?(</think>|$)`)
	reFence = regexp.MustCompile("(?i)```[a-z]*")
)

// Strip removes code-fence markers and <think> blocks and trims whitespace.
func Strip(text string) string {
	out := reThink.ReplaceAllString(text, "")
	out = reFence.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

// New builds the capability selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (Capability, error) {
	var (
		c   Capability
		err error
	)
	switch cfg.Provider {
	case config.ProviderGroq, config.ProviderOpenAI:
		c = NewOpenAICompatible(cfg)
	case config.ProviderGemini:
		c, err = NewGemini(ctx, cfg)
	case config.ProviderOllama:
		c, err = NewOllama(cfg)
	default:
		return nil, fmt.Errorf("unknown reasoning provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("reasoning provider ready",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout))
	return c, nil
}

// withTimeout bounds one provider call by d. An earlier deadline on ctx
// still wins.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

func maxTokens(p Prompt, fallback int) int {
	if p.MaxTokens > 0 {
		return p.MaxTokens
	}
	return fallback
}

// Ping asks the provider for a one-line greeting and returns it.
func Ping(ctx context.Context, c Capability) (string, error) {
	out, err := c.Complete(ctx, Prompt{
		System:    "You are a connectivity check.",
		User:      "Say 'Hello, I am working!' in one sentence.",
		MaxTokens: 64,
	})
	if err != nil {
		return "", err
	}
	return Strip(out), nil
}

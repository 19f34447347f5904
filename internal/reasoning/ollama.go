// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

package reasoning

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"medconnect/agent/internal/config"
)

// DefaultOllamaURL is used when no base URL or OLLAMA_HOST is configured.
const DefaultOllamaURL = "http://localhost:11434"

// Ollama calls a local or remote Ollama server.
type Ollama struct {
	client    *api.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewOllama creates an Ollama client for cfg.BaseURL.
func NewOllama(cfg config.LLMConfig) (*Ollama, error) {
	raw := cfg.BaseURL
	if raw == "" {
		raw = DefaultOllamaURL
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL %q: %w", raw, err)
	}
	return &Ollama{
		client:    api.NewClient(base, &http.Client{}),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
	}, nil
}

// Complete sends one non-streaming chat request.
func (o *Ollama) Complete(ctx context.Context, p Prompt) (string, error) {
	ctx, cancel := withTimeout(ctx, o.timeout)
	defer cancel()

	stream := false
	req := &api.ChatRequest{
		Model: o.model,
		Messages: []api.Message{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.User},
		},
		Stream: &stream,
		Options: map[string]any{
			"temperature": p.Temperature,
			"num_predict": maxTokens(p, o.maxTokens),
		},
	}

	var b strings.Builder
	err := o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		b.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", ErrEmptyCompletion
	}
	return b.String(), nil
}

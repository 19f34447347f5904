// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package sqlgen holds the two reasoning passes that turn user text into a
// candidate statement: the Generator drafts it from the schema contract and
// the Validator independently re-checks and repairs it. Neither pass touches
// the database.
package sqlgen

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	apperrors "medconnect/agent/internal/errors"
	"medconnect/agent/internal/reasoning"
	"medconnect/agent/internal/schema"
)

// Options tune both passes.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Generator drafts a candidate statement from user text.
type Generator struct {
	llm      reasoning.Capability
	contract *schema.Contract
	opts     Options
	log      *zap.Logger
}

// NewGenerator creates a Generator framed by contract.
func NewGenerator(llm reasoning.Capability, contract *schema.Contract, opts Options, logger *zap.Logger) *Generator {
	return &Generator{llm: llm, contract: contract, opts: opts, log: logger.Named("generator")}
}

// Generate returns the stripped candidate statement. Any provider fault or an
// empty answer is returned as a GenerationFailed error.
func (g *Generator) Generate(ctx context.Context, text string) (string, error) {
	out, err := g.llm.Complete(ctx, reasoning.Prompt{
		System:      g.contract.GeneratorPrompt(),
		User:        text,
		Temperature: g.opts.Temperature,
		MaxTokens:   g.opts.MaxTokens,
	})
	if err != nil {
		g.log.Error("query generation failed", zap.Error(err))
		return "", apperrors.Wrap(apperrors.GenerationFailed, "query generation failed", err)
	}
	query := reasoning.Strip(out)
	if query == "" {
		g.log.Error("query generation returned no text")
		return "", apperrors.New(apperrors.GenerationFailed, "query generation returned no text")
	}
	g.log.Info("generated query", zap.String("sql", query))
	return query, nil
}

// Validator re-checks a candidate against the schema contract.
type Validator struct {
	llm      reasoning.Capability
	contract *schema.Contract
	opts     Options
	verbs    *regexp.Regexp
	log      *zap.Logger
}

// NewValidator creates a Validator framed by contract.
func NewValidator(llm reasoning.Capability, contract *schema.Contract, opts Options, logger *zap.Logger) *Validator {
	return &Validator{
		llm:      llm,
		contract: contract,
		opts:     opts,
		verbs:    verbPattern(contract.Verbs),
		log:      logger.Named("validator"),
	}
}

// Validate returns the corrected candidate and whether it passed the local
// verb check. On a provider fault, or when the pass returns nothing, the
// original candidate is returned unchanged with isValid false.
func (v *Validator) Validate(ctx context.Context, query string) (string, bool) {
	out, err := v.llm.Complete(ctx, reasoning.Prompt{
		System:      v.contract.ValidatorPrompt(),
		User:        query,
		Temperature: v.opts.Temperature,
		MaxTokens:   v.opts.MaxTokens,
	})
	if err != nil {
		v.log.Error("query validation failed", zap.Error(err))
		return query, false
	}
	corrected := reasoning.Strip(out)
	if corrected == "" {
		v.log.Error("query validation returned no text")
		return query, false
	}
	valid := v.verbs.MatchString(corrected)
	if corrected != query {
		v.log.Info("validator rewrote query", zap.String("before", query), zap.String("after", corrected))
	}
	v.log.Info("query validated", zap.String("sql", corrected), zap.Bool("valid", valid))
	return corrected, valid
}

// ContainsPermittedVerb reports whether text contains one of verbs as a whole
// word, case-insensitively. It rejects prose; it does not parse SQL.
func ContainsPermittedVerb(text string, verbs []string) bool {
	return verbPattern(verbs).MatchString(text)
}

func verbPattern(verbs []string) *regexp.Regexp {
	quoted := make([]string, len(verbs))
	for i, v := range verbs {
		quoted[i] = regexp.QuoteMeta(v)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
}

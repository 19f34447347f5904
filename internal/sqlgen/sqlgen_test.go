// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlgen

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	apperrors "medconnect/agent/internal/errors"
	"medconnect/agent/internal/reasoning"
	"medconnect/agent/internal/schema"
)

type scripted struct {
	out     string
	err     error
	prompts []reasoning.Prompt
}

func (s *scripted) Complete(_ context.Context, p reasoning.Prompt) (string, error) {
	s.prompts = append(s.prompts, p)
	return s.out, s.err
}

var echo = reasoning.CapabilityFunc(func(_ context.Context, p reasoning.Prompt) (string, error) {
	return p.User, nil
})

func TestGenerate(t *testing.T) {
	llm := &scripted{out: "```sql\nSELECT name FROM doctors WHERE specialty ILIKE '%cardio%';\n```"}
	g := NewGenerator(llm, schema.Default(), Options{Temperature: 0, MaxTokens: 2000}, zap.NewNop())

	got, err := g.Generate(context.Background(), "What cardiologists are available?")
	require.NoError(t, err)
	assert.Equal(t, "SELECT name FROM doctors WHERE specialty ILIKE '%cardio%';", got)

	require.Len(t, llm.prompts, 1)
	p := llm.prompts[0]
	assert.Equal(t, schema.Default().GeneratorPrompt(), p.System)
	assert.Equal(t, "What cardiologists are available?", p.User)
	assert.Equal(t, 2000, p.MaxTokens)
}

func TestGenerateFaults(t *testing.T) {
	tests := []struct {
		name string
		llm  *scripted
	}{
		{"timeout", &scripted{err: context.DeadlineExceeded}},
		{"empty", &scripted{out: "```sql\n```"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.ErrorLevel)
			g := NewGenerator(tt.llm, schema.Default(), Options{}, zap.New(core))

			got, err := g.Generate(context.Background(), "Book Dr. Smith at 10am")
			assert.Empty(t, got)
			assert.Equal(t, apperrors.GenerationFailed, apperrors.KindOf(err))
			assert.Equal(t, 1, logs.Len())
		})
	}
	_, err := NewGenerator(&scripted{err: context.DeadlineExceeded}, schema.Default(), Options{}, zap.NewNop()).
		Generate(context.Background(), "x")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		llm       reasoning.Capability
		candidate string
		wantQuery string
		wantValid bool
	}{
		{
			name:      "repairs hallucinated column",
			llm:       &scripted{out: "SELECT name FROM doctors WHERE specialty ILIKE '%cardio%';"},
			candidate: "SELECT name FROM doctors WHERE speciality ILIKE '%cardio%';",
			wantQuery: "SELECT name FROM doctors WHERE specialty ILIKE '%cardio%';",
			wantValid: true,
		},
		{
			name:      "prose is invalid",
			llm:       &scripted{out: "I cannot help with that request."},
			candidate: "SELECT 1",
			wantQuery: "I cannot help with that request.",
			wantValid: false,
		},
		{
			name:      "verb inside a word does not count",
			llm:       &scripted{out: "The record was updated."},
			candidate: "UPDATE x SET y = 1",
			wantQuery: "The record was updated.",
			wantValid: false,
		},
		{
			name:      "lower case verb counts",
			llm:       &scripted{out: "delete from booked_appointments where id = 4"},
			candidate: "DELETE FROM booked_appointments WHERE id = 4",
			wantQuery: "delete from booked_appointments where id = 4",
			wantValid: true,
		},
		{
			name:      "fault keeps candidate",
			llm:       &scripted{err: errors.New("503")},
			candidate: "SELECT * FROM doctors",
			wantQuery: "SELECT * FROM doctors",
			wantValid: false,
		},
		{
			name:      "empty answer keeps candidate",
			llm:       &scripted{out: "  "},
			candidate: "SELECT * FROM doctors",
			wantQuery: "SELECT * FROM doctors",
			wantValid: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(tt.llm, schema.Default(), Options{}, zap.NewNop())
			got, valid := v.Validate(context.Background(), tt.candidate)
			assert.Equal(t, tt.wantQuery, got)
			assert.Equal(t, tt.wantValid, valid)
		})
	}
}

func TestValidateIsIdempotentOnConformingQuery(t *testing.T) {
	v := NewValidator(echo, schema.Default(), Options{}, zap.NewNop())
	query := "INSERT INTO booked_appointments (patient_name, doctor_id, reason, appointment_time) " +
		"VALUES ('John Doe', (SELECT id FROM doctors WHERE name ILIKE '%Smith%' LIMIT 1), 'checkup', '2026-02-25 10:00:00');"

	once, valid := v.Validate(context.Background(), query)
	require.True(t, valid)
	twice, valid := v.Validate(context.Background(), once)
	assert.True(t, valid)
	assert.Equal(t, query, once)
	assert.Equal(t, query, twice)
}

func TestContainsPermittedVerb(t *testing.T) {
	verbs := schema.Default().Verbs
	assert.True(t, ContainsPermittedVerb("select 1", verbs))
	assert.True(t, ContainsPermittedVerb("WITH x AS (SELECT 1) SELECT * FROM x", verbs))
	assert.False(t, ContainsPermittedVerb("", verbs))
	assert.False(t, ContainsPermittedVerb("insertion", verbs))
}

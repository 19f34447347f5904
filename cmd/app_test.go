// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"testing"

	"medconnect/agent/internal/config"
)

type fakeSecrets struct {
	dsn string
	key string
}

func (f fakeSecrets) LoadDBDSN() (string, error) {
	if f.dsn == "" {
		return "", errors.New("not found")
	}
	return f.dsn, nil
}

func (f fakeSecrets) LoadLLMAPIKey() (string, error) {
	if f.key == "" {
		return "", errors.New("not found")
	}
	return f.key, nil
}

func TestResolveDSN(t *testing.T) {
	parts := config.DBConfig{Host: "db.internal", Port: "5432", Name: "Agent", User: "postgres", Password: "pw"}

	tests := []struct {
		name       string
		env        map[string]string
		db         config.DBConfig
		kc         secretSource
		wantDSN    string
		wantSource string
	}{
		{
			name:       "medconnect env wins",
			env:        map[string]string{"MEDCONNECT_DSN": "postgres://a:b@envhost/Agent", "DATABASE_URL": "postgres://c:d@other/Agent"},
			db:         parts,
			kc:         fakeSecrets{dsn: "postgres://k:k@keyhost/Agent"},
			wantDSN:    "postgresql://a:b@envhost:5432/Agent",
			wantSource: "MEDCONNECT_DSN environment variable",
		},
		{
			name:       "database url",
			env:        map[string]string{"DATABASE_URL": "postgres://c:d@other/Agent"},
			db:         parts,
			wantDSN:    "postgresql://c:d@other:5432/Agent",
			wantSource: "DATABASE_URL environment variable",
		},
		{
			name:       "config dsn before keychain",
			db:         config.DBConfig{DSN: "postgres://u:p@cfg:6543/Agent"},
			kc:         fakeSecrets{dsn: "postgres://k:k@keyhost/Agent"},
			wantDSN:    "postgresql://u:p@cfg:6543/Agent",
			wantSource: "config file",
		},
		{
			name:       "keychain",
			db:         parts,
			kc:         fakeSecrets{dsn: "postgres://k:k@keyhost/Agent"},
			wantDSN:    "postgresql://k:k@keyhost:5432/Agent",
			wantSource: "OS keychain",
		},
		{
			name:       "parts",
			db:         parts,
			kc:         fakeSecrets{},
			wantDSN:    "postgresql://postgres:pw@db.internal:5432/Agent",
			wantSource: "db settings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MEDCONNECT_DSN", "")
			t.Setenv("DATABASE_URL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			got, source, err := resolveDSN(tt.db, tt.kc)
			if err != nil {
				t.Fatalf("resolveDSN() error = %v", err)
			}
			if got != tt.wantDSN {
				t.Errorf("resolveDSN() = %q, want %q", got, tt.wantDSN)
			}
			if source != tt.wantSource {
				t.Errorf("source = %q, want %q", source, tt.wantSource)
			}
		})
	}
}

func TestResolveDSN_Invalid(t *testing.T) {
	t.Setenv("MEDCONNECT_DSN", "mysql://root@localhost/db")
	t.Setenv("DATABASE_URL", "")
	_, source, err := resolveDSN(config.DBConfig{}, nil)
	if err == nil {
		t.Fatal("expected an error for a non-postgres DSN")
	}
	if source != "MEDCONNECT_DSN environment variable" {
		t.Errorf("source = %q", source)
	}
}

func TestResolveAPIKey(t *testing.T) {
	tests := []struct {
		name string
		llm  config.LLMConfig
		kc   secretSource
		want string
	}{
		{"configured", config.LLMConfig{Provider: config.ProviderGroq, APIKey: "gsk_cfg"}, fakeSecrets{key: "gsk_kc"}, "gsk_cfg"},
		{"keychain", config.LLMConfig{Provider: config.ProviderGroq}, fakeSecrets{key: " gsk_kc \n"}, "gsk_kc"},
		{"ollama needs none", config.LLMConfig{Provider: config.ProviderOllama}, fakeSecrets{key: "gsk_kc"}, ""},
		{"no keychain", config.LLMConfig{Provider: config.ProviderGemini}, nil, ""},
		{"keychain miss", config.LLMConfig{Provider: config.ProviderOpenAI}, fakeSecrets{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveAPIKey(tt.llm, tt.kc); got != tt.want {
				t.Errorf("resolveAPIKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

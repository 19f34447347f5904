// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "medconnect/agent/internal/errors"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"MEDCONNECT_LOG_LEVEL", "MEDCONNECT_DSN", "DATABASE_URL",
		"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
		"MEDCONNECT_LLM_PROVIDER", "MEDCONNECT_LLM_BASE_URL", "MEDCONNECT_LLM_MODEL",
		"GROQ_API_KEY", "GROQ_MODEL", "GEMINI_API_KEY", "OPENAI_API_KEY", "OLLAMA_HOST",
		"MEDCONNECT_HTTP_ADDR", "MEDCONNECT_GRPC_ADDR",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)

	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.Equal(t, "openai/gpt-oss-20b", c.LLM.Model)
	assert.Equal(t, 0.3, c.LLM.ResponderTemperature)
	assert.Equal(t, ":8000", c.Server.HTTPAddr)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRET_FROM_ENV", "s3cr3t")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("GROQ_MODEL", "llama-3.3-70b-versatile")

	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlDoc := `
log:
  level: debug
db:
  host: file-host
  password: ${SECRET_FROM_ENV}
llm:
  timeout: 15s
  max_tokens: 512
server:
  cors_origins: ["https://clinic.example"]
gate:
  reject_compound: true
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "db.internal", c.DB.Host, "env overrides file")
	assert.Equal(t, "s3cr3t", c.DB.Password, "${VAR} expansion")
	assert.Equal(t, "5432", c.DB.Port, "default kept")
	assert.Equal(t, 15*time.Second, c.LLM.Timeout)
	assert.Equal(t, 512, c.LLM.MaxTokens)
	assert.Equal(t, "llama-3.3-70b-versatile", c.LLM.Model)
	assert.Equal(t, []string{"https://clinic.example"}, c.Server.CORSOrigins)
	assert.True(t, c.Gate.RejectCompound)
}

func TestLoadProviderSpecificKeys(t *testing.T) {
	clearEnv(t)
	t.Setenv("MEDCONNECT_LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("GROQ_API_KEY", "q-key")

	c, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, c.LLM.Provider)
	assert.Equal(t, "g-key", c.LLM.APIKey)
}

func TestLoadMalformedFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [unterminated"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.LLM.APIKey = "k"

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"ollama needs no key", func(c *Config) { c.LLM.Provider = ProviderOllama; c.LLM.APIKey = "" }, ""},
		{"missing key", func(c *Config) { c.LLM.APIKey = "" }, `llm.api_key is required for provider "groq"`},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "bard" }, `unknown llm.provider "bard"`},
		{"zero timeout", func(c *Config) { c.LLM.Timeout = 0 }, "llm.timeout must be positive"},
		{"hot responder", func(c *Config) { c.LLM.ResponderTemperature = 3 }, "llm.responder_temperature must be within [0,2]"},
		{"bad port", func(c *Config) { c.DB.Port = "five" }, `db.port must be numeric, got "five"`},
		{"dsn skips parts", func(c *Config) { c.DB.DSN = "postgres://x@y/z"; c.DB.Host = ""; c.DB.Port = "" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, apperrors.ConfigInvalid, apperrors.KindOf(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveOmitsSecrets(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c := Default()
	c.DB.Password = "pw"
	c.LLM.APIKey = "key"

	require.NoError(t, Save(path, c))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, loaded.DB.Password)
	assert.Empty(t, loaded.LLM.APIKey)
	assert.Equal(t, c.LLM.Timeout, loaded.LLM.Timeout)
}

// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package config builds the process configuration once at start-up.
// Values are layered: built-in defaults, then the YAML file in the XDG config
// dir (with ${VAR} expansion), then environment overrides. Secrets may also come
// from the OS keychain; that lookup happens in the command layer before Validate.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "medconnect/agent/internal/errors"
	"medconnect/agent/internal/xdg"
)

// Reasoning providers understood by the reasoning package.
const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// Config holds every setting the assistant needs.
type Config struct {
	Log    LogConfig    `yaml:"log"`
	DB     DBConfig     `yaml:"db"`
	LLM    LLMConfig    `yaml:"llm"`
	Server ServerConfig `yaml:"server"`
	Gate   GateConfig   `yaml:"gate"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string `yaml:"level"`
	// File is the JSON log destination. Empty means the XDG state dir; "-" disables it.
	File string `yaml:"file"`
	// Quiet limits the console to errors. Set by interactive commands.
	Quiet bool `yaml:"-"`
}

// DBConfig holds database connection settings.
// DSN wins over the individual parts when set.
type DBConfig struct {
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
}

// LLMConfig selects and tunes the reasoning provider.
type LLMConfig struct {
	Provider             string        `yaml:"provider"`
	APIKey               string        `yaml:"api_key"`
	BaseURL              string        `yaml:"base_url"`
	Model                string        `yaml:"model"`
	Timeout              time.Duration `yaml:"timeout"`
	MaxTokens            int           `yaml:"max_tokens"`
	GeneratorTemperature float64       `yaml:"generator_temperature"`
	ResponderTemperature float64       `yaml:"responder_temperature"`
}

// ServerConfig configures the inbound HTTP and gRPC surfaces.
type ServerConfig struct {
	HTTPAddr        string        `yaml:"http_addr"`
	GRPCAddr        string        `yaml:"grpc_addr"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
}

// GateConfig tunes the safety gate.
type GateConfig struct {
	RejectCompound bool `yaml:"reject_compound"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info"},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "5432",
			Name:     "Agent",
			User:     "postgres",
			SSLMode:  "disable",
			MaxConns: 10,
		},
		LLM: LLMConfig{
			Provider:             ProviderGroq,
			Model:                "openai/gpt-oss-20b",
			Timeout:              60 * time.Second,
			MaxTokens:            2000,
			GeneratorTemperature: 0,
			ResponderTemperature: 0.3,
		},
		Server: ServerConfig{
			HTTPAddr:        ":8000",
			GRPCAddr:        ":50051",
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  2 * time.Minute,
		},
	}
}

// DefaultPath returns the config.yaml location in the XDG config dir.
func DefaultPath() (string, error) {
	return xdg.ConfigFile()
}

// Load reads configuration from path. An empty path means DefaultPath.
// A missing file is not an error; defaults and env overrides still apply.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return c, err
		}
		path = p
	}
	if err := loadFromFile(&c, path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return c, err
	}
	loadFromEnv(&c)
	return c, nil
}

func loadFromFile(c *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func loadFromEnv(c *Config) {
	setString := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}

	setString(&c.Log.Level, "MEDCONNECT_LOG_LEVEL")

	setString(&c.DB.DSN, "MEDCONNECT_DSN", "DATABASE_URL")
	setString(&c.DB.Host, "DB_HOST")
	setString(&c.DB.Port, "DB_PORT")
	setString(&c.DB.Name, "DB_NAME")
	setString(&c.DB.User, "DB_USER")
	setString(&c.DB.Password, "DB_PASSWORD")

	setString(&c.LLM.Provider, "MEDCONNECT_LLM_PROVIDER")
	setString(&c.LLM.BaseURL, "MEDCONNECT_LLM_BASE_URL")
	switch c.LLM.Provider {
	case ProviderGemini:
		setString(&c.LLM.APIKey, "GEMINI_API_KEY")
	case ProviderOllama:
		setString(&c.LLM.BaseURL, "OLLAMA_HOST")
	case ProviderOpenAI:
		setString(&c.LLM.APIKey, "OPENAI_API_KEY")
	default:
		setString(&c.LLM.APIKey, "GROQ_API_KEY")
		setString(&c.LLM.Model, "GROQ_MODEL")
	}
	setString(&c.LLM.Model, "MEDCONNECT_LLM_MODEL")

	setString(&c.Server.HTTPAddr, "MEDCONNECT_HTTP_ADDR")
	setString(&c.Server.GRPCAddr, "MEDCONNECT_GRPC_ADDR")
}

// Validate checks the configuration after all sources have been applied.
func (c Config) Validate() error {
	var problems []string

	switch c.LLM.Provider {
	case ProviderGroq, ProviderOpenAI, ProviderGemini:
		if c.LLM.APIKey == "" {
			problems = append(problems, fmt.Sprintf("llm.api_key is required for provider %q", c.LLM.Provider))
		}
	case ProviderOllama:
	default:
		problems = append(problems, fmt.Sprintf("unknown llm.provider %q", c.LLM.Provider))
	}
	if c.LLM.Model == "" {
		problems = append(problems, "llm.model is required")
	}
	if c.LLM.Timeout <= 0 {
		problems = append(problems, "llm.timeout must be positive")
	}
	for name, t := range map[string]float64{
		"llm.generator_temperature": c.LLM.GeneratorTemperature,
		"llm.responder_temperature": c.LLM.ResponderTemperature,
	} {
		if t < 0 || t > 2 {
			problems = append(problems, fmt.Sprintf("%s must be within [0,2], got %g", name, t))
		}
	}

	if c.DB.DSN == "" {
		for name, v := range map[string]string{"db.host": c.DB.Host, "db.name": c.DB.Name, "db.user": c.DB.User} {
			if v == "" {
				problems = append(problems, name+" is required")
			}
		}
		if _, err := strconv.Atoi(c.DB.Port); err != nil {
			problems = append(problems, fmt.Sprintf("db.port must be numeric, got %q", c.DB.Port))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	// map iteration order is random; keep the message stable
	sort.Strings(problems)
	return apperrors.New(apperrors.ConfigInvalid, strings.Join(problems, "; "))
}

// Save writes configuration as YAML with 0600 permissions.
// Secrets are left out; they belong in the keychain.
func Save(path string, c Config) error {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	c.DB.Password = ""
	c.LLM.APIKey = ""
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

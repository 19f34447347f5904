// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"medconnect/agent/internal/config"
	"medconnect/agent/internal/dsn"
	"medconnect/agent/internal/gate"
	"medconnect/agent/internal/intent"
	"medconnect/agent/internal/keychain"
	"medconnect/agent/internal/logging"
	"medconnect/agent/internal/progress"
	"medconnect/agent/internal/reasoning"
	"medconnect/agent/internal/schema"
	"medconnect/agent/internal/sqlexec"
	"medconnect/agent/internal/sqlgen"
	"medconnect/agent/internal/store"
	"medconnect/agent/internal/workflow"
)

// secretSource is the subset of the keychain the resolvers need.
type secretSource interface {
	LoadDBDSN() (string, error)
	LoadLLMAPIKey() (string, error)
}

// keychainSource returns the OS keychain, or nil when it is unavailable.
func keychainSource() secretSource {
	km, err := keychain.GetManager()
	if err != nil {
		return nil
	}
	return km
}

// loadConfig reads the config file and env, applies --verbose and quiet
// console logging for interactive commands, and fills secrets from the
// keychain. It does not validate.
func loadConfig(quiet bool) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	cfg.Log.Quiet = quiet
	cfg.LLM.APIKey = resolveAPIKey(cfg.LLM, keychainSource())
	return cfg, nil
}

// resolveAPIKey returns the configured key, falling back to the keychain.
func resolveAPIKey(llm config.LLMConfig, kc secretSource) string {
	if llm.APIKey != "" || llm.Provider == config.ProviderOllama || kc == nil {
		return llm.APIKey
	}
	if v, err := kc.LoadLLMAPIKey(); err == nil {
		return strings.TrimSpace(v)
	}
	return ""
}

// resolveDSN picks the database connection in order: MEDCONNECT_DSN,
// DATABASE_URL, db.dsn from the config file, the keychain, then the
// individual db.* settings. The result is normalized. source describes
// where it came from.
func resolveDSN(db config.DBConfig, kc secretSource) (normalized, source string, err error) {
	raw := ""
	switch {
	case strings.TrimSpace(os.Getenv("MEDCONNECT_DSN")) != "":
		raw, source = os.Getenv("MEDCONNECT_DSN"), "MEDCONNECT_DSN environment variable"
	case strings.TrimSpace(os.Getenv("DATABASE_URL")) != "":
		raw, source = os.Getenv("DATABASE_URL"), "DATABASE_URL environment variable"
	case strings.TrimSpace(db.DSN) != "":
		raw, source = db.DSN, "config file"
	}
	if raw == "" && kc != nil {
		if v, kerr := kc.LoadDBDSN(); kerr == nil && strings.TrimSpace(v) != "" {
			raw, source = v, "OS keychain"
		}
	}
	if raw == "" {
		normalized, err = dsn.FromParts(db.Host, db.Port, db.Name, db.User, db.Password, db.SSLMode)
		if err != nil {
			return "", "", err
		}
		return normalized, "db settings", nil
	}

	normalized, err = dsn.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", source, err
	}
	return normalized, source, nil
}

// app is a fully wired assistant.
type app struct {
	cfg      config.Config
	log      *zap.Logger
	store    *store.Postgres
	llm      reasoning.Capability
	contract *schema.Contract
	orch     *workflow.Orchestrator
	cleanup  func()
}

// newApp validates cfg, builds the logger, opens the pool, creates the
// reasoning provider and wires the orchestrator. observer may be nil.
func newApp(ctx context.Context, cfg config.Config, observer progress.Observer) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, flush, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	dsnValue, source, err := resolveDSN(cfg.DB, keychainSource())
	if err != nil {
		flush()
		return nil, err
	}
	logger.Debug("database connection resolved", zap.String("source", source), zap.String("dsn", logging.Mask(dsnValue)))

	pg, err := store.Open(ctx, dsnValue, cfg.DB.MaxConns, logger)
	if err != nil {
		flush()
		return nil, fmt.Errorf("open database: %w", err)
	}

	llm, err := reasoning.New(ctx, cfg.LLM, logger)
	if err != nil {
		pg.Close()
		flush()
		return nil, err
	}

	contract := schema.Default()
	genOpts := sqlgen.Options{Temperature: cfg.LLM.GeneratorTemperature, MaxTokens: cfg.LLM.MaxTokens}
	orch := workflow.New(workflow.Deps{
		Classifier: intent.NewClassifier(logger),
		Generator:  sqlgen.NewGenerator(llm, contract, genOpts, logger),
		Validator:  sqlgen.NewValidator(llm, contract, genOpts, logger),
		Executor:   sqlexec.New(pg, gate.New(cfg.Gate.RejectCompound, logger), logger),
		Responder:  workflow.NewResponder(llm, cfg.LLM.ResponderTemperature, cfg.LLM.MaxTokens, cfg.LLM.Timeout, logger),
	}, workflow.Options{RequestTimeout: cfg.Server.RequestTimeout, Observer: observer}, logger)

	return &app{
		cfg:      cfg,
		log:      logger,
		store:    pg,
		llm:      llm,
		contract: contract,
		orch:     orch,
		cleanup: func() {
			pg.Close()
			flush()
		},
	}, nil
}

func (a *app) Close() { a.cleanup() }

// verifySchema compares the live database with the schema contract.
func (a *app) verifySchema(ctx context.Context) ([]schema.Drift, error) {
	pool := a.store.Pool()
	if pool == nil {
		return nil, errors.New("no database pool")
	}
	return schema.NewInspector(pool).Verify(ctx, a.contract)
}

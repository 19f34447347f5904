// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package store runs single statements against PostgreSQL through a pgx pool.
// Every statement runs inside its own transaction: fetches in a read-only one,
// mutations in a read-write one that commits only on success. The deferred
// rollback returns the pooled connection on every exit path.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Mode selects fetch or mutate execution.
type Mode int

const (
	ModeFetch Mode = iota
	ModeMutate
)

func (m Mode) String() string {
	if m == ModeMutate {
		return "mutate"
	}
	return "fetch"
}

// Beginner opens transactions. *pgxpool.Pool satisfies it.
type Beginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// Postgres executes statements in per-statement transactions.
type Postgres struct {
	db   Beginner
	pool *pgxpool.Pool
	log  *zap.Logger
}

// Open creates a pool for dsn. maxConns <= 0 keeps the pgx default.
func Open(ctx context.Context, dsn string, maxConns int32, logger *zap.Logger) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, classify(err)
	}
	p := New(pool, logger)
	p.pool = pool
	return p, nil
}

// New wraps an existing transaction source.
func New(db Beginner, logger *zap.Logger) *Postgres {
	return &Postgres{db: db, log: logger.Named("store")}
}

// Pool returns the underlying pool, or nil when built with New.
func (p *Postgres) Pool() *pgxpool.Pool { return p.pool }

// Ping verifies the pool can reach the server.
func (p *Postgres) Ping(ctx context.Context) error {
	if p.pool == nil {
		return nil
	}
	return classify(p.pool.Ping(ctx))
}

// Close releases every pooled connection.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Execute runs sql in the given mode. Recognized driver failures come back as
// *Fault; anything else is returned as is.
func (p *Postgres) Execute(ctx context.Context, sql string, mode Mode) (*Result, error) {
	if mode == ModeMutate {
		n, err := p.Mutate(ctx, sql)
		if err != nil {
			return nil, err
		}
		return &Result{Columns: []string{}, Rows: [][]any{}, RowsAffected: n}, nil
	}
	return p.Fetch(ctx, sql)
}

// Fetch runs a query in a read-only transaction and collects every row.
func (p *Postgres) Fetch(ctx context.Context, sql string) (*Result, error) {
	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, sql)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	res := &Result{Columns: make([]string, len(fds)), Rows: [][]any{}}
	for i, fd := range fds {
		res.Columns[i] = fd.Name
	}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, classify(err)
		}
		res.Rows = append(res.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	p.log.Debug("fetch complete", zap.Int("rows", len(res.Rows)))
	return res, nil
}

// Mutate runs a statement in a read-write transaction and commits it.
func (p *Postgres) Mutate(ctx context.Context, sql string) (int64, error) {
	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, classify(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, sql)
	if err != nil {
		return 0, classify(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, classify(err)
	}
	p.log.Debug("mutation committed", zap.Int64("rows_affected", ct.RowsAffected()))
	return ct.RowsAffected(), nil
}

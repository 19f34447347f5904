// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

package store

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// FaultKind classifies a store failure.
type FaultKind string

const (
	UniqueViolation FaultKind = "unique_violation"
	Generic         FaultKind = "generic"
	Connectivity    FaultKind = "connectivity"
)

const sqlstateUniqueViolation = "23505"

// Fault is a failure the store driver recognized.
type Fault struct {
	Kind   FaultKind
	Code   string // SQLSTATE, when the server reported one
	Detail string
	Err    error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("store %s: %s", f.Kind, f.Detail)
}

func (f *Fault) Unwrap() error { return f.Err }

// AsFault returns the *Fault in err's chain.
func AsFault(err error) (*Fault, bool) {
	var f *Fault
	ok := errors.As(err, &f)
	return f, ok
}

// classify maps a driver error onto a Fault. Errors outside the driver's
// surface are returned unchanged so callers can treat them as unexpected.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsFault(err); ok {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		kind := Generic
		if pgErr.Code == sqlstateUniqueViolation {
			kind = UniqueViolation
		}
		return &Fault{Kind: kind, Code: pgErr.Code, Detail: pgErr.Error(), Err: err}
	}

	var connErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.As(err, &connErr), errors.As(err, &netErr), pgconn.Timeout(err),
		errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &Fault{Kind: Connectivity, Detail: err.Error(), Err: err}
	case errors.Is(err, pgx.ErrTxCommitRollback), errors.Is(err, pgx.ErrTxClosed):
		return &Fault{Kind: Generic, Detail: err.Error(), Err: err}
	}
	return err
}

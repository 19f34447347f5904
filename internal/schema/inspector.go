// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

package schema

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgxpool.Pool the inspector needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// TableInfo is what the live database reports about one table.
type TableInfo struct {
	Name    string
	Columns map[string]string // column name -> information_schema data_type
	Unique  [][]string
}

// Drift is one difference between the contract and the live database.
type Drift struct {
	Table   string
	Column  string
	Problem string
}

func (d Drift) String() string {
	if d.Column == "" {
		return fmt.Sprintf("%s: %s", d.Table, d.Problem)
	}
	return fmt.Sprintf("%s.%s: %s", d.Table, d.Column, d.Problem)
}

// Inspector reads table metadata from information_schema and caches it.
type Inspector struct {
	db    Querier
	cache map[string]*TableInfo
	mu    sync.RWMutex
}

// NewInspector creates an Inspector over db.
func NewInspector(db Querier) *Inspector {
	return &Inspector{db: db, cache: make(map[string]*TableInfo)}
}

// Table returns live metadata for tableName ("table" or "schema.table").
// A table that does not exist yields a TableInfo with no columns.
func (in *Inspector) Table(ctx context.Context, tableName string) (*TableInfo, error) {
	in.mu.RLock()
	if info, ok := in.cache[tableName]; ok {
		in.mu.RUnlock()
		return info, nil
	}
	in.mu.RUnlock()

	ns, table := parseTableName(tableName)
	info := &TableInfo{Name: table, Columns: make(map[string]string)}

	if err := in.loadColumns(ctx, ns, table, info); err != nil {
		return nil, fmt.Errorf("load columns of %s: %w", tableName, err)
	}
	if err := in.loadUnique(ctx, ns, table, info); err != nil {
		return nil, fmt.Errorf("load unique constraints of %s: %w", tableName, err)
	}

	in.mu.Lock()
	in.cache[tableName] = info
	in.mu.Unlock()
	return info, nil
}

// ClearCache drops cached metadata.
func (in *Inspector) ClearCache() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.cache = make(map[string]*TableInfo)
}

// Verify compares every contract table with the live database.
func (in *Inspector) Verify(ctx context.Context, c *Contract) ([]Drift, error) {
	live := make(map[string]*TableInfo, len(c.Tables))
	for _, t := range c.Tables {
		info, err := in.Table(ctx, t.Name)
		if err != nil {
			return nil, err
		}
		live[t.Name] = info
	}
	return Compare(c, live), nil
}

// Compare reports contract tables, columns and unique constraints missing from live.
func Compare(c *Contract, live map[string]*TableInfo) []Drift {
	var drift []Drift
	for _, t := range c.Tables {
		info, ok := live[t.Name]
		if !ok || len(info.Columns) == 0 {
			drift = append(drift, Drift{Table: t.Name, Problem: "table missing"})
			continue
		}
		for _, col := range t.Columns {
			if _, ok := info.Columns[col.Name]; !ok {
				drift = append(drift, Drift{Table: t.Name, Column: col.Name, Problem: "column missing"})
			}
		}
		for _, want := range t.Unique {
			if !hasUnique(info.Unique, want) {
				drift = append(drift, Drift{
					Table:   t.Name,
					Problem: fmt.Sprintf("unique constraint (%s) missing", strings.Join(want, ", ")),
				})
			}
		}
	}
	return drift
}

func hasUnique(have [][]string, want []string) bool {
	key := func(cols []string) string {
		s := append([]string(nil), cols...)
		sort.Strings(s)
		return strings.Join(s, ",")
	}
	w := key(want)
	for _, h := range have {
		if key(h) == w {
			return true
		}
	}
	return false
}

// parseTableName splits a table name into schema and table components.
// If no schema is specified, it defaults to "public".
func parseTableName(tableName string) (string, string) {
	if ns, table, ok := strings.Cut(tableName, "."); ok {
		return ns, table
	}
	return "public", tableName
}

func (in *Inspector) loadColumns(ctx context.Context, ns, table string, info *TableInfo) error {
	rows, err := in.db.Query(ctx, `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, ns, table)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return err
		}
		info.Columns[name] = typ
	}
	return rows.Err()
}

func (in *Inspector) loadUnique(ctx context.Context, ns, table string, info *TableInfo) error {
	rows, err := in.db.Query(ctx, `
		SELECT tc.constraint_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		WHERE tc.table_schema = $1 AND tc.table_name = $2 AND tc.constraint_type = 'UNIQUE'
		ORDER BY tc.constraint_name, kcu.ordinal_position`, ns, table)
	if err != nil {
		return err
	}
	defer rows.Close()

	byName := map[string][]string{}
	var order []string
	for rows.Next() {
		var constraint, column string
		if err := rows.Scan(&constraint, &column); err != nil {
			return err
		}
		if _, seen := byName[constraint]; !seen {
			order = append(order, constraint)
		}
		byName[constraint] = append(byName[constraint], column)
	}
	for _, name := range order {
		info.Unique = append(info.Unique, byName[name])
	}
	return rows.Err()
}

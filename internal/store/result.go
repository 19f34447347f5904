// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

package store

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Result is a normalized result set.
type Result struct {
	Columns      []string `json:"columns"`
	Rows         [][]any  `json:"rows"`
	RowsAffected int64    `json:"rows_affected,omitempty"`
}

// MarshalJSON converts pgx values that encoding/json would render badly:
// UUIDs become canonical strings and other byte slices become \x hex.
func (r Result) MarshalJSON() ([]byte, error) {
	type alias Result
	a := alias(r)
	if len(r.Rows) > 0 {
		rows := make([][]any, len(r.Rows))
		for i, row := range r.Rows {
			rows[i] = make([]any, len(row))
			for j, val := range row {
				rows[i][j] = jsonValue(val)
			}
		}
		a.Rows = rows
	}
	return json.Marshal(a)
}

func jsonValue(val any) any {
	switch v := val.(type) {
	case [16]byte:
		return uuid.UUID(v).String()
	case []byte:
		if len(v) == 16 {
			if id, err := uuid.FromBytes(v); err == nil {
				return id.String()
			}
		}
		return fmt.Sprintf("\\x%x", v)
	default:
		return v
	}
}

// Records renders the result as one map per row, keyed by column name.
func (r Result) Records() []map[string]any {
	out := make([]map[string]any, len(r.Rows))
	for i, row := range r.Rows {
		rec := make(map[string]any, len(r.Columns))
		for j, col := range r.Columns {
			if j < len(row) {
				rec[col] = jsonValue(row[j])
			}
		}
		out[i] = rec
	}
	return out
}

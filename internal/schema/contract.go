// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package schema holds the Schema Contract: the fixed description of the
// tables, columns, statement verbs and reference rules the assistant may use.
// The same contract frames the generator and validator prompts and is checked
// against the live database by Inspector, so the three never drift apart.
package schema

import (
	"fmt"
	"strings"
)

// Statement verbs the contract permits.
const (
	VerbSelect = "SELECT"
	VerbInsert = "INSERT"
	VerbUpdate = "UPDATE"
	VerbDelete = "DELETE"
)

// Column describes one column of a contract table.
type Column struct {
	Name       string
	Type       string
	NotNull    bool
	Default    string
	References string // "table(column)" for foreign keys
	OnDelete   string
}

// Table describes one contract table.
type Table struct {
	Name       string
	PrimaryKey string
	Columns    []Column
	Unique     [][]string
}

// Rule is a cross-table reference rule stated to the generator.
type Rule struct {
	Table   string
	Column  string
	Lookup  string // subquery template; %s is the user-supplied name fragment
	Example string
}

// Contract is the shared, read-only schema description.
type Contract struct {
	Tables []Table
	Verbs  []string
	Rules  []Rule
}

var defaultContract = Contract{
	Tables: []Table{
		{
			Name:       "doctors",
			PrimaryKey: "id",
			Columns: []Column{
				{Name: "id", Type: "SERIAL"},
				{Name: "name", Type: "TEXT"},
				{Name: "specialty", Type: "TEXT"},
				{Name: "years_of_experience", Type: "INTEGER"},
				{Name: "consultation_fee", Type: "INTEGER"},
			},
		},
		{
			Name:       "booked_appointments",
			PrimaryKey: "id",
			Columns: []Column{
				{Name: "id", Type: "SERIAL"},
				{Name: "patient_name", Type: "VARCHAR(100)", NotNull: true},
				{Name: "doctor_id", Type: "INTEGER", NotNull: true, References: "doctors(id)", OnDelete: "CASCADE"},
				{Name: "reason", Type: "TEXT", NotNull: true},
				{Name: "status", Type: "VARCHAR(20)", NotNull: true, Default: "'pending'"},
				{Name: "created_at", Type: "TIMESTAMP", Default: "CURRENT_TIMESTAMP"},
				{Name: "appointment_time", Type: "TIMESTAMP", NotNull: true},
			},
			Unique: [][]string{{"doctor_id", "appointment_time"}},
		},
	},
	Verbs: []string{VerbSelect, VerbInsert, VerbUpdate, VerbDelete},
	Rules: []Rule{
		{
			Table:   "booked_appointments",
			Column:  "doctor_id",
			Lookup:  "(SELECT id FROM doctors WHERE name ILIKE '%%%s%%' LIMIT 1)",
			Example: "Smith",
		},
	},
}

// Default returns the contract shared by every request.
func Default() *Contract { return &defaultContract }

// Table returns the named table.
func (c *Contract) Table(name string) (Table, bool) {
	for _, t := range c.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// ColumnNames lists the columns of t in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// LookupFor renders the lookup subquery of rule r for a name fragment.
func (r Rule) LookupFor(fragment string) string {
	return fmt.Sprintf(r.Lookup, fragment)
}

// DDL renders the contract as CREATE TABLE statements.
func (c *Contract) DDL() string {
	var b strings.Builder
	for i, t := range c.Tables {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "CREATE TABLE %s (\n", t.Name)
		var lines []string
		for _, col := range t.Columns {
			line := "    " + col.Name + " " + col.Type
			if col.Name == t.PrimaryKey {
				line += " PRIMARY KEY"
			}
			if col.NotNull {
				line += " NOT NULL"
			}
			if col.Default != "" {
				line += " DEFAULT " + col.Default
			}
			lines = append(lines, line)
		}
		for _, col := range t.Columns {
			if col.References == "" {
				continue
			}
			line := fmt.Sprintf("    FOREIGN KEY (%s) REFERENCES %s", col.Name, col.References)
			if col.OnDelete != "" {
				line += " ON DELETE " + col.OnDelete
			}
			lines = append(lines, line)
		}
		for _, u := range t.Unique {
			lines = append(lines, fmt.Sprintf("    UNIQUE (%s)", strings.Join(u, ", ")))
		}
		b.WriteString(strings.Join(lines, ",\n"))
		b.WriteString("\n);")
	}
	return b.String()
}

// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

package gate

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLeadingVerb(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"SELECT * FROM doctors", "SELECT"},
		{"  \n\tselect 1", "SELECT"},
		{"-- list doctors\nSELECT name FROM doctors", "SELECT"},
		{"/* hi */ /* again */ insert into x values (1)", "INSERT"},
		{"UPDATE(booked_appointments)", "UPDATE"},
		{"WITH x AS (DELETE FROM doctors RETURNING *) SELECT * FROM x", "WITH"},
		{"(SELECT 1)", ""},
		{"", ""},
		{"-- only a comment", ""},
		{"/* unterminated", ""},
	}
	for _, tt := range tests {
		if got := LeadingVerb(tt.query); got != tt.want {
			t.Errorf("LeadingVerb(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestIsCompound(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"SELECT 1", false},
		{"SELECT 1;", false},
		{"SELECT 1;  \n", false},
		{"SELECT 1; ; -- trailing\n", false},
		{"SELECT 1; /* done */", false},
		{"SELECT 1; DROP TABLE doctors;", true},
		{"DELETE FROM booked_appointments; SELECT 1", true},
		{"SELECT ';DROP TABLE doctors' AS s", false},
		{"SELECT 'it''s; fine'", false},
		{`SELECT "odd;name" FROM doctors`, false},
		{"SELECT 1 -- ; DROP TABLE doctors\n", false},
		{"SELECT 1 /* ; */ ; UPDATE doctors SET name = 'x'", true},
	}
	for _, tt := range tests {
		if got := IsCompound(tt.query); got != tt.want {
			t.Errorf("IsCompound(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		branch         Branch
		rejectCompound bool
		wantAuthorized bool
		wantReason     string
	}{
		{"select on read", "SELECT * FROM doctors", BranchRead, false, true, ""},
		{"insert on write", "INSERT INTO booked_appointments VALUES (1)", BranchWrite, false, true, ""},
		{"update on write", "update booked_appointments set status = 'done'", BranchWrite, false, true, ""},
		{"delete on write", "DELETE FROM booked_appointments WHERE id = 1", BranchWrite, false, true, ""},
		{"delete on read", "DELETE FROM booked_appointments", BranchRead, false, false, ReasonRead},
		{"select on write", "SELECT * FROM doctors", BranchWrite, false, false, ReasonWrite},
		{"ddl on write", "DROP TABLE doctors", BranchWrite, false, false, ReasonWrite},
		{"cte on read", "WITH d AS (SELECT 1) SELECT * FROM d", BranchRead, false, false, ReasonRead},
		{"empty on read", "", BranchRead, false, false, ReasonRead},
		{"compound tolerated", "SELECT 1; DELETE FROM doctors", BranchRead, false, true, ""},
		{"compound rejected", "SELECT 1; DELETE FROM doctors", BranchRead, true, false, ReasonCompound},
		{"unknown branch", "SELECT 1", Branch("admin"), false, false, ReasonRead},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Authorize(tt.query, tt.branch, tt.rejectCompound)
			if v.Authorized != tt.wantAuthorized {
				t.Errorf("Authorized = %v, want %v", v.Authorized, tt.wantAuthorized)
			}
			if v.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", v.Reason, tt.wantReason)
			}
		})
	}
}

func TestGateLogsRejectionAsWarning(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	g := New(false, zap.New(core))

	v := g.Authorize("DELETE FROM booked_appointments", BranchRead)
	if v.Authorized {
		t.Fatalf("Authorized = true, want false")
	}
	entries := logs.FilterMessage("security block").All()
	if len(entries) != 1 {
		t.Fatalf("security block entries = %d, want 1", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Errorf("level = %v, want warn", entries[0].Level)
	}
	if got := entries[0].ContextMap()["verb"]; got != "DELETE" {
		t.Errorf("verb field = %v, want DELETE", got)
	}

	g.Authorize("SELECT 1; SELECT 2", BranchRead)
	if n := logs.FilterMessage("compound statement detected").Len(); n != 1 {
		t.Errorf("compound entries = %d, want 1", n)
	}
}

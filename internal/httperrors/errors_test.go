// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

package httperrors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
	"testing"

	"github.com/pterm/pterm"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"medconnect/agent/internal/reasoning"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"nil", nil, ""},
		{"deadline", fmt.Errorf("complete: %w", context.DeadlineExceeded), Timeout},
		{"dns", &net.DNSError{Err: "no such host", Name: "api.groq.com"}, DNS},
		{"refused", &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}, Refused},
		{"tls", errors.New("tls: failed to verify certificate: x509: certificate signed by unknown authority"), TLS},
		{"bad key", &reasoning.APIError{Provider: "groq", StatusCode: 401, Message: "invalid api key"}, Unauthorized},
		{"rate limit", &reasoning.APIError{Provider: "groq", StatusCode: 429}, RateLimited},
		{"provider 5xx", &reasoning.APIError{Provider: "openai", StatusCode: 503}, Server},
		{"grpc unavailable", status.Error(codes.Unavailable, "connection error"), Refused},
		{"grpc deadline", status.Error(codes.DeadlineExceeded, "slow"), Timeout},
		{"other", errors.New("something odd"), Generic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestReportMasksDetails(t *testing.T) {
	pterm.DisableColor()
	defer pterm.EnableColor()

	var buf bytes.Buffer
	cause := errors.New("bad things at postgres://app:secret@db/Agent")
	err := Report(&buf, cause, "db", "checking the schema")

	if !errors.Is(err, cause) {
		t.Errorf("Report() = %v, want it to wrap the cause", err)
	}
	out := buf.String()
	if strings.Contains(out, "secret") {
		t.Errorf("output leaks a secret: %q", out)
	}
	if !strings.Contains(out, "Cannot reach db while checking the schema") {
		t.Errorf("output missing headline: %q", out)
	}
}

func TestHostOf(t *testing.T) {
	tests := map[string]string{
		"https://api.groq.com/openai/v1": "api.groq.com",
		"localhost:50051":                "localhost:50051",
		"":                               "server",
	}
	for in, want := range tests {
		if got := HostOf(in); got != want {
			t.Errorf("HostOf(%q) = %q, want %q", in, got, want)
		}
	}
}

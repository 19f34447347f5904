// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors turns network faults from the reasoning provider or a
// remote assistant into short troubleshooting messages for the terminal.
package httperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"medconnect/agent/internal/logging"
	"medconnect/agent/internal/reasoning"
)

// Category is a coarse class of network fault.
type Category string

const (
	Timeout      Category = "timeout"
	DNS          Category = "dns"
	Refused      Category = "refused"
	TLS          Category = "tls"
	Unauthorized Category = "unauthorized"
	RateLimited  Category = "rate_limited"
	Server       Category = "server"
	Generic      Category = "generic"
)

// Classify returns the category of err.
func Classify(err error) Category {
	switch {
	case err == nil:
		return ""
	case isTimeout(err):
		return Timeout
	case isDNS(err):
		return DNS
	case isRefused(err):
		return Refused
	case isTLS(err):
		return TLS
	}

	var apiErr *reasoning.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			return Unauthorized
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return RateLimited
		case apiErr.StatusCode >= 500:
			return Server
		}
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unavailable:
			return Refused
		case codes.Unauthenticated, codes.PermissionDenied:
			return Unauthorized
		case codes.ResourceExhausted:
			return RateLimited
		case codes.Internal, codes.Unknown:
			return Server
		}
	}
	return Generic
}

// Report prints a troubleshooting message for err to w and returns err
// wrapped with the action that failed. host names the remote side.
func Report(w io.Writer, err error, host, action string) error {
	if err == nil {
		return nil
	}
	cat := Classify(err)
	pterm.Fprintln(w, headline(cat, host, action))
	for _, tip := range tips[cat] {
		pterm.Fprintln(w, "  • "+tip)
	}
	if cat == Generic {
		detail := logging.Mask(err.Error())
		if len(detail) > 100 {
			detail = detail[:100] + "..."
		}
		pterm.Fprintln(w, pterm.FgGray.Sprint("  Technical details: "+detail))
	}
	return fmt.Errorf("%s: %w", action, err)
}

func headline(cat Category, host, action string) string {
	switch cat {
	case Timeout:
		return fmt.Sprintf("⏱️  %s timed out while %s", host, action)
	case DNS:
		return fmt.Sprintf("🌐 Cannot resolve %s while %s", host, action)
	case Refused:
		return fmt.Sprintf("🚫 %s refused the connection while %s", host, action)
	case TLS:
		return fmt.Sprintf("🔒 Secure connection to %s failed while %s", host, action)
	case Unauthorized:
		return fmt.Sprintf("🔑 %s rejected the credentials while %s", host, action)
	case RateLimited:
		return fmt.Sprintf("⚠️  %s is rate limiting requests while %s", host, action)
	case Server:
		return fmt.Sprintf("⚠️  %s reported an internal error while %s", host, action)
	default:
		return fmt.Sprintf("❌ Cannot reach %s while %s", host, action)
	}
}

var tips = map[Category][]string{
	Timeout: {
		"The model may be slow or overloaded; try again shortly",
		"Raise llm.timeout in the config file for large prompts",
	},
	DNS: {
		"Check your internet connection and DNS settings",
		"Check llm.base_url or the --remote address for typos",
	},
	Refused: {
		"Make sure the service is running (for Ollama: ollama serve)",
		"Check the host and port",
	},
	TLS: {
		"Check your system date and time",
		"Check proxy settings that intercept HTTPS",
	},
	Unauthorized: {
		"Check the API key for the configured provider",
		"Keys can be set with GROQ_API_KEY, OPENAI_API_KEY or GEMINI_API_KEY",
	},
	RateLimited: {
		"Wait a moment before retrying",
	},
	Server: {
		"This is not a problem with your setup; try again in a few minutes",
	},
	Generic: {
		"Check your internet connection and firewall settings",
	},
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if status.Code(err) == codes.DeadlineExceeded {
		return true
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded")
}

func isDNS(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func isRefused(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

func isTLS(err error) bool {
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "tls:") ||
		strings.Contains(lower, "x509") ||
		strings.Contains(lower, "certificate") ||
		strings.Contains(lower, "handshake")
}

// HostOf extracts the host from a URL for messages, falling back to raw.
func HostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		if raw == "" {
			return "server"
		}
		return raw
	}
	return u.Host
}

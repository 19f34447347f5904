// Copyright (c) 2025 MedConnect
// Licensed under the MIT License. See LICENSE file in the project root for details.

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"medconnect/agent/internal/intent"
	"medconnect/agent/internal/workflow"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeChatter struct {
	mu   sync.Mutex
	reqs []workflow.Request
}

func (f *fakeChatter) Run(_ context.Context, req workflow.Request) workflow.Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return workflow.Response{FinalResponse: "Dr. Smith is available.", Intent: intent.Read, RequestID: "req-1"}
}

func (f *fakeChatter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

func serve(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChat(t *testing.T) {
	chat := &fakeChatter{}
	h := NewRuntime(Options{}, chat, zap.NewNop()).Handler()

	rec := serve(t, h, http.MethodPost, "/chat",
		`{"user_input":"What cardiologists are available?","chat_history":[{"role":"user","content":"hi"}]}`, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var got chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Dr. Smith is available.", got.FinalResponse)
	assert.Equal(t, intent.Read, got.Intent)

	require.Equal(t, 1, chat.calls())
	assert.Equal(t, "What cardiologists are available?", chat.reqs[0].UserInput)
	assert.Len(t, chat.reqs[0].History, 1)
}

func TestChatRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name   string
		method string
		body   string
		status int
		code   string
	}{
		{"empty input", http.MethodPost, `{"user_input":"   "}`, http.StatusBadRequest, "invalid_request"},
		{"missing input", http.MethodPost, `{}`, http.StatusBadRequest, "invalid_request"},
		{"malformed json", http.MethodPost, `{"user_input":`, http.StatusBadRequest, "invalid_json"},
		{"wrong method", http.MethodGet, ``, http.StatusMethodNotAllowed, "method_not_allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := &fakeChatter{}
			h := NewRuntime(Options{}, chat, zap.NewNop()).Handler()

			rec := serve(t, h, tt.method, "/chat", tt.body, nil)

			assert.Equal(t, tt.status, rec.Code)
			var got struct {
				Error apiError `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.code, got.Error.Code)
			assert.Zero(t, chat.calls())
		})
	}
}

func TestHealth(t *testing.T) {
	h := NewRuntime(Options{}, &fakeChatter{}, zap.NewNop()).Handler()

	rec := serve(t, h, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestCORS(t *testing.T) {
	t.Run("preflight", func(t *testing.T) {
		chat := &fakeChatter{}
		h := NewRuntime(Options{}, chat, zap.NewNop()).Handler()

		rec := serve(t, h, http.MethodOptions, "/chat", "", map[string]string{
			"Origin":                         "http://localhost:3000",
			"Access-Control-Request-Method":  "POST",
			"Access-Control-Request-Headers": "content-type",
		})

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "content-type", rec.Header().Get("Access-Control-Allow-Headers"))
		assert.Zero(t, chat.calls())
	})

	t.Run("origin not allowed", func(t *testing.T) {
		h := NewRuntime(Options{CORSOrigins: []string{"https://app.example.com"}}, &fakeChatter{}, zap.NewNop()).Handler()

		rec := serve(t, h, http.MethodGet, "/health", "", map[string]string{"Origin": "https://evil.example.com"})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("listed origin", func(t *testing.T) {
		h := NewRuntime(Options{CORSOrigins: []string{"https://app.example.com"}}, &fakeChatter{}, zap.NewNop()).Handler()

		rec := serve(t, h, http.MethodGet, "/health", "", map[string]string{"Origin": "https://app.example.com"})

		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

package bff

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lexbridge/internal/domain"
)

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://host", "https://host"},
		{"https://host/", "https://host"},
		{"https://host/api", "https://host"},
		{"https://host/api/", "https://host"},
		{"https://host//", "https://host"},
	}
	for _, tt := range tests {
		if got := normalizeBaseURL(tt.in); got != tt.want {
			t.Errorf("normalizeBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type capturedRequest struct {
	method string
	path   string
	query  string
	auth   string
}

func captureServer(t *testing.T, status int, respBody string) (*Client, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.method = r.Method
		captured.path = r.URL.EscapedPath()
		captured.query = r.URL.RawQuery
		captured.auth = r.Header.Get("Authorization")
		w.WriteHeader(status)
		w.Write([]byte(respBody))
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "tok", testLogger()), captured
}

func TestCreateSession(t *testing.T) {
	client, captured := captureServer(t, http.StatusOK, `{"sessionId":"s-1","createdAt":"2026-08-29T10:00:00Z"}`)

	session, err := client.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if session.ID != "s-1" {
		t.Errorf("session id = %q", session.ID)
	}
	if captured.method != http.MethodPost || captured.path != "/api/ai/chat/sessions" {
		t.Errorf("request = %s %s", captured.method, captured.path)
	}
	if captured.auth != "Bearer tok" {
		t.Errorf("auth header = %q", captured.auth)
	}
}

func TestHistory(t *testing.T) {
	client, captured := captureServer(t, http.StatusOK,
		`{"messages":[{"role":"user","content":"q"},{"role":"assistant","content":"a"}]}`)

	messages, err := client.History(context.Background(), "s 1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(messages) != 2 || messages[1].Role != domain.RoleAssistant {
		t.Errorf("messages = %+v", messages)
	}
	// Path-unsafe session ids are escaped.
	if captured.path != "/api/ai/chat/sessions/s%201/history" {
		t.Errorf("path = %q", captured.path)
	}
}

func TestSwitchContext(t *testing.T) {
	client, captured := captureServer(t, http.StatusNoContent, "")

	err := client.SwitchContext(context.Background(), "s-1", domain.SessionContext{DocumentID: "d-9"})
	if err != nil {
		t.Fatalf("SwitchContext: %v", err)
	}
	if captured.method != http.MethodPatch || captured.path != "/api/ai/chat/sessions/s-1/context" {
		t.Errorf("request = %s %s", captured.method, captured.path)
	}
}

func TestDeleteSession(t *testing.T) {
	client, captured := captureServer(t, http.StatusNoContent, "")

	if err := client.DeleteSession(context.Background(), "s-1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if captured.method != http.MethodDelete || captured.path != "/api/ai/chat/sessions/s-1" {
		t.Errorf("request = %s %s", captured.method, captured.path)
	}
}

func TestActionsQuery(t *testing.T) {
	client, captured := captureServer(t, http.StatusOK,
		`{"actions":[{"id":"a1","label":"Summarize","category":1}],"categories":[1]}`)

	set, err := client.Actions(context.Background(), "s-1", "document")
	if err != nil {
		t.Fatalf("Actions: %v", err)
	}
	if len(set.Actions) != 1 || set.Actions[0].Category != domain.CategoryActions {
		t.Errorf("set = %+v", set)
	}
	if captured.query != "entityType=document&sessionId=s-1" {
		t.Errorf("query = %q", captured.query)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, domain.ErrAuthInvalid},
		{http.StatusForbidden, domain.ErrAuthInvalid},
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusTooManyRequests, domain.ErrRateLimit},
		{http.StatusInternalServerError, domain.ErrTransport},
		{http.StatusBadGateway, domain.ErrTransport},
	}

	for _, tt := range tests {
		client, _ := captureServer(t, tt.status, "details from server")
		_, err := client.CreateSession(context.Background())
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: err = %v, want %v", tt.status, err, tt.want)
		}
	}
}

func TestErrorKeepsStatusAndBody(t *testing.T) {
	client, _ := captureServer(t, http.StatusServiceUnavailable, "maintenance window")

	_, err := client.CreateSession(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "503") || !strings.Contains(msg, "maintenance window") {
		t.Errorf("error %q should carry status and body", msg)
	}
}

func TestCancellationPassesThrough(t *testing.T) {
	client, _ := captureServer(t, http.StatusOK, "{}")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.CreateSession(ctx)
	if !domain.IsCancellation(err) {
		t.Errorf("err = %v, want cancellation", err)
	}
}

func TestEndpointPathHelpers(t *testing.T) {
	if got := MessagePath("s/1"); got != "/api/ai/chat/sessions/s%2F1/messages" {
		t.Errorf("MessagePath = %q", got)
	}
	if got := RefinePath("s-1"); got != "/api/ai/chat/sessions/s-1/refine" {
		t.Errorf("RefinePath = %q", got)
	}
}

func TestRequestBodiesMarshal(t *testing.T) {
	b, err := json.Marshal(SendMessageBody{Message: "m", DocumentID: "d"})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"message":"m","documentId":"d"}` {
		t.Errorf("body = %s", b)
	}
}

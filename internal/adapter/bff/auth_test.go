package bff

import (
	"encoding/base64"
	"testing"
)

func makeToken(t *testing.T, payload string) string {
	t.Helper()
	enc := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return "header." + enc + ".sig"
}

func TestTenantIDFromToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"valid claim", makeToken(t, `{"tid":"tenant-42","sub":"u1"}`), "tenant-42"},
		{"missing claim", makeToken(t, `{"sub":"u1"}`), ""},
		{"two segments", "header.payload", ""},
		{"four segments", "a.b.c.d", ""},
		{"empty token", "", ""},
		{"not base64", "header.!!!!.sig", ""},
		{"payload not json", makeToken(t, "plain text"), ""},
		{"surrounding whitespace", "  " + makeToken(t, `{"tid":"t"}`) + "  ", "t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tenantIDFromToken(tt.token); got != tt.want {
				t.Errorf("tenantIDFromToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAuthHeaders(t *testing.T) {
	token := makeToken(t, `{"tid":"acme"}`)
	headers := authHeaders(token)

	if headers["Authorization"] != "Bearer "+token {
		t.Errorf("Authorization = %q", headers["Authorization"])
	}
	if headers["X-Tenant-Id"] != "acme" {
		t.Errorf("X-Tenant-Id = %q, want acme", headers["X-Tenant-Id"])
	}
}

func TestAuthHeadersOpaqueToken(t *testing.T) {
	headers := authHeaders("opaque-api-key")

	if headers["Authorization"] != "Bearer opaque-api-key" {
		t.Errorf("Authorization = %q", headers["Authorization"])
	}
	if _, ok := headers["X-Tenant-Id"]; ok {
		t.Error("tenant header must be omitted for non-JWT tokens")
	}
}

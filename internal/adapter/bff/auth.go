package bff

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// tenantIDFromToken extracts the tid claim from a JWT-shaped bearer token.
// The middle segment is base64url-decoded (padding restored) and parsed as
// JSON. Extraction fails silently: any malformed token yields "", never an
// error, because the tenant header is best-effort.
func tenantIDFromToken(token string) string {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 {
		return ""
	}

	payload := parts[1]
	if pad := len(payload) % 4; pad != 0 {
		payload += strings.Repeat("=", 4-pad)
	}

	decoded, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		return ""
	}

	var claims struct {
		TID string `json:"tid"`
	}
	if err := json.Unmarshal(decoded, &claims); err != nil {
		return ""
	}
	return claims.TID
}

// authHeaders builds the Authorization and best-effort X-Tenant-Id headers
// for the given bearer token.
func authHeaders(token string) map[string]string {
	headers := map[string]string{
		"Authorization": "Bearer " + token,
	}
	if tid := tenantIDFromToken(token); tid != "" {
		headers["X-Tenant-Id"] = tid
	}
	return headers
}

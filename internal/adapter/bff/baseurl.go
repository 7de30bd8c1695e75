package bff

import "strings"

// normalizeBaseURL strips trailing slashes and a trailing /api segment from a
// caller-supplied base URL. Endpoint paths already carry the /api prefix, so
// a base of "https://host/api" would otherwise double-prefix.
func normalizeBaseURL(raw string) string {
	base := strings.TrimRight(raw, "/")
	base = strings.TrimSuffix(base, "/api")
	return strings.TrimRight(base, "/")
}

package dataplatform

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexbridge/internal/domain"
)

func newHTTPFixture(t *testing.T, handler http.HandlerFunc, ttl time.Duration) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, "tok", ttl, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHTTPCreate(t *testing.T) {
	var gotPath, gotAuth string
	client := newHTTPFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"id":"m-7"}`))
	}, 0)

	id, err := client.Create(context.Background(), "matters", map[string]any{"name": "Smith v. Jones"})
	require.NoError(t, err)
	assert.Equal(t, "m-7", id)
	assert.Equal(t, "/api/data/matters", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
}

func TestHTTPQueryCaching(t *testing.T) {
	var calls int
	client := newHTTPFixture(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"records":[{"id":"r-1","entity":"matters"}]}`))
	}, time.Minute)

	ctx := context.Background()
	q := NewQuery().FilterContains("name", "Smith").Top(10)

	first, err := client.Query(ctx, "matters", q)
	require.NoError(t, err)
	second, err := client.Query(ctx, "matters", q)
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "identical query served from cache")
	assert.Equal(t, first, second)

	// A different query misses.
	_, err = client.Query(ctx, "matters", NewQuery().Top(5))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestHTTPMutationPurgesQueryCache(t *testing.T) {
	var calls int
	client := newHTTPFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			calls++
			w.Write([]byte(`{"records":[]}`))
			return
		}
		w.Write([]byte(`{"id":"new"}`))
	}, time.Minute)

	ctx := context.Background()
	_, err := client.Query(ctx, "matters", NewQuery())
	require.NoError(t, err)

	_, err = client.Create(ctx, "matters", map[string]any{"name": "x"})
	require.NoError(t, err)

	_, err = client.Query(ctx, "matters", NewQuery())
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "create must invalidate cached lists")
}

func TestHTTPErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, domain.ErrInvalidInput},
		{http.StatusUnauthorized, domain.ErrAuthInvalid},
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusTooManyRequests, domain.ErrRateLimit},
		{http.StatusInternalServerError, domain.ErrTransport},
	}
	for _, tt := range tests {
		client := newHTTPFixture(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tt.status)
		}, 0)
		_, err := client.Get(context.Background(), "matters", "m-1")
		assert.ErrorIs(t, err, tt.want, "status %d", tt.status)
	}
}

func TestHTTPUpload(t *testing.T) {
	var gotPath, gotType string
	var gotBody []byte
	client := newHTTPFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
	}, 0)

	err := client.Upload(context.Background(), "matters", "m-1", "engagement letter.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "/api/data/matters/m-1/files/engagement%20letter.pdf", gotPath)
	assert.Equal(t, "application/pdf", gotType)
	assert.Equal(t, []byte("%PDF"), gotBody)
}

package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestDomainErrorMessage(t *testing.T) {
	err := NewDomainError("bff.CreateSession", ErrAuthInvalid, "token expired")
	want := "bff.CreateSession: token expired: authentication failed"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	noDetail := NewDomainError("op", ErrNotFound, "")
	if noDetail.Error() != "op: not found" {
		t.Errorf("Error() = %q", noDetail.Error())
	}
}

func TestDomainErrorUnwrap(t *testing.T) {
	err := NewDomainError("op", ErrRateLimit, "slow down")
	if !errors.Is(err, ErrRateLimit) {
		t.Error("DomainError must unwrap to its sentinel")
	}
}

func TestWrapOp(t *testing.T) {
	if WrapOp("op", nil) != nil {
		t.Error("WrapOp(nil) must be nil")
	}
	wrapped := WrapOp("bff.History", ErrNotFound)
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("wrapped error lost its sentinel")
	}
	if wrapped.Error() != "bff.History: not found" {
		t.Errorf("Error() = %q", wrapped.Error())
	}
}

func TestIsCancellation(t *testing.T) {
	if !IsCancellation(context.Canceled) {
		t.Error("context.Canceled is a cancellation")
	}
	if !IsCancellation(fmt.Errorf("request aborted: %w", context.Canceled)) {
		t.Error("wrapped cancellation not detected")
	}
	// Detection is by type, never by message text.
	if IsCancellation(errors.New("operation canceled")) {
		t.Error("message-string matching must not classify cancellation")
	}
	if IsCancellation(context.DeadlineExceeded) {
		t.Error("a deadline is a failure, not a user cancellation")
	}
	if IsCancellation(nil) {
		t.Error("nil is not a cancellation")
	}
}

func TestErrorCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, CodeUnknown},
		{"plain sentinel", ErrNotFound, CodeNotFound},
		{"wrapped sentinel", fmt.Errorf("ctx: %w", ErrRateLimit), CodeRateLimit},
		{"domain error", NewDomainError("op", ErrAuthInvalid, ""), CodeAuthInvalid},
		{"stream failure", &StreamFailure{Message: "model error"}, CodeStreamFailure},
		{"wrapped stream failure", fmt.Errorf("stream: %w", &StreamFailure{Message: "x"}), CodeStreamFailure},
		{"unclassified", errors.New("mystery"), CodeUnknown},
		{"session not found", WrapOp("chat", ErrSessionNotFound), CodeSessionNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCodeOf(tt.err); got != tt.want {
				t.Errorf("ErrorCodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWireCitationFromWire(t *testing.T) {
	page := 7
	wire := WireCitation{ID: 3, SourceName: "lease.pdf", Page: &page, Excerpt: "...", ChunkID: "c9", SourceURL: "https://x"}
	got := wire.FromWire()

	if got.Source != "lease.pdf" {
		t.Errorf("Source = %q, sourceName not mapped", got.Source)
	}
	if got.Page == nil || *got.Page != 7 {
		t.Errorf("Page = %v", got.Page)
	}
	if got.ID != 3 || got.ChunkID != "c9" || got.SourceURL != "https://x" {
		t.Errorf("fields dropped: %+v", got)
	}

	noPage := WireCitation{ID: 1, SourceName: "email.msg"}.FromWire()
	if noPage.Page != nil {
		t.Error("absent page must stay nil")
	}
}

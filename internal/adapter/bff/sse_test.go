package bff

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"lexbridge/internal/domain"
)

func collect(ch <-chan domain.StreamEvent) []domain.StreamEvent {
	var events []domain.StreamEvent
	for e := range ch {
		events = append(events, e)
	}
	return events
}

func TestParseStreamBasic(t *testing.T) {
	raw := "data: {\"type\":\"token\",\"content\":\"hel\"}\n\n" +
		"data: {\"type\":\"token\",\"content\":\"lo\"}\n\n" +
		"data: {\"type\":\"done\"}\n\n"
	body := io.NopCloser(strings.NewReader(raw))

	stream, readErr := parseStream(context.Background(), body)
	events := collect(stream)
	if err := readErr(); err != nil {
		t.Fatalf("readErr() = %v, want nil", err)
	}

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Type != domain.StreamToken || events[0].Content != "hel" {
		t.Errorf("event[0] = %+v, want token 'hel'", events[0])
	}
	if events[1].Content != "lo" {
		t.Errorf("event[1] content = %q, want 'lo'", events[1].Content)
	}
	if events[2].Type != domain.StreamDone {
		t.Errorf("event[2] type = %q, want done", events[2].Type)
	}
}

func TestParseStreamSkipsNonDataLines(t *testing.T) {
	raw := ": keep-alive comment\n" +
		"event: message\n" +
		"id: 42\n" +
		"data: {\"type\":\"token\",\"content\":\"ok\"}\n\n" +
		"data: {\"type\":\"done\"}\n\n"
	body := io.NopCloser(strings.NewReader(raw))

	stream, readErr := parseStream(context.Background(), body)
	events := collect(stream)
	if err := readErr(); err != nil {
		t.Fatalf("readErr() = %v, want nil", err)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d: %+v", len(events), events)
	}
	if events[0].Content != "ok" {
		t.Errorf("content = %q, want ok", events[0].Content)
	}
}

func TestParseStreamSkipsMalformedPayload(t *testing.T) {
	raw := "data: {not json at all\n\n" +
		"data: {\"type\":\"token\",\"content\":\"survived\"}\n\n" +
		"data: {\"content\":\"missing type\"}\n\n" +
		"data: {\"type\":\"done\"}\n\n"
	body := io.NopCloser(strings.NewReader(raw))

	stream, readErr := parseStream(context.Background(), body)
	events := collect(stream)
	if err := readErr(); err != nil {
		t.Fatalf("readErr() = %v, want nil", err)
	}

	// The bad line and the typeless event are dropped; the stream survives.
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d: %+v", len(events), events)
	}
	if events[0].Content != "survived" {
		t.Errorf("content = %q, want survived", events[0].Content)
	}
}

func TestParseStreamFlushOnClose(t *testing.T) {
	// No trailing blank line and no done event: the last data line must
	// still be delivered when the body closes.
	raw := "data: {\"type\":\"token\",\"content\":\"partial\"}"
	body := io.NopCloser(strings.NewReader(raw))

	stream, readErr := parseStream(context.Background(), body)
	events := collect(stream)
	if err := readErr(); err != nil {
		t.Fatalf("readErr() = %v, want nil", err)
	}

	if len(events) != 1 || events[0].Content != "partial" {
		t.Fatalf("expected trailing partial event, got %+v", events)
	}
}

func TestParseStreamStopsAfterTerminal(t *testing.T) {
	raw := "data: {\"type\":\"error\",\"content\":\"boom\"}\n\n" +
		"data: {\"type\":\"token\",\"content\":\"after\"}\n\n"
	body := io.NopCloser(strings.NewReader(raw))

	stream, readErr := parseStream(context.Background(), body)
	events := collect(stream)
	if err := readErr(); err != nil {
		t.Fatalf("readErr() = %v, want nil", err)
	}

	if len(events) != 1 {
		t.Fatalf("expected reader to stop at error event, got %+v", events)
	}
	if events[0].Type != domain.StreamError || events[0].Content != "boom" {
		t.Errorf("event = %+v, want error 'boom'", events[0])
	}
}

func TestParseStreamContextCancel(t *testing.T) {
	pr, pw := io.Pipe()
	go func() {
		for i := 0; i < 100; i++ {
			pw.Write([]byte("data: {\"type\":\"token\",\"content\":\"x\"}\n\n"))
			time.Sleep(20 * time.Millisecond)
		}
		pw.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	start := time.Now()
	stream, _ := parseStream(ctx, pr)
	for range stream {
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("reader did not stop on cancellation, ran %v", elapsed)
	}
}

func TestParseStreamMultiByteContent(t *testing.T) {
	// Non-ASCII payloads arrive intact regardless of how the transport
	// chunked them; line buffering reassembles the bytes.
	raw := "data: {\"type\":\"token\",\"content\":\"§ 1 Absatz 2 — naïve\"}\n\n" +
		"data: {\"type\":\"done\"}\n\n"
	body := io.NopCloser(&trickleReader{data: []byte(raw), chunk: 3})

	stream, readErr := parseStream(context.Background(), body)
	events := collect(stream)
	if err := readErr(); err != nil {
		t.Fatalf("readErr() = %v, want nil", err)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Content != "§ 1 Absatz 2 — naïve" {
		t.Errorf("content = %q, multi-byte text mangled", events[0].Content)
	}
}

func TestParseStreamReportsMidStreamReadError(t *testing.T) {
	// A body that breaks before the terminal event must not look like a
	// clean close: delivered events stand, but readErr surfaces the break.
	body := io.NopCloser(&brokenReader{
		data: []byte("data: {\"type\":\"token\",\"content\":\"hel\"}\n\n"),
		err:  errors.New("connection reset"),
	})

	stream, readErr := parseStream(context.Background(), body)
	events := collect(stream)

	if len(events) != 1 || events[0].Content != "hel" {
		t.Fatalf("expected the delivered token to stand, got %+v", events)
	}
	if err := readErr(); err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("readErr() = %v, want the transport error", err)
	}
}

func TestParseStreamReportsOversizedLine(t *testing.T) {
	raw := "data: {\"type\":\"token\",\"content\":\"ok\"}\n\n" +
		"data: " + strings.Repeat("x", maxEventLine+1) + "\n\n"
	body := io.NopCloser(strings.NewReader(raw))

	stream, readErr := parseStream(context.Background(), body)
	events := collect(stream)

	if len(events) != 1 {
		t.Fatalf("expected 1 event before the oversized line, got %d", len(events))
	}
	if err := readErr(); !errors.Is(err, bufio.ErrTooLong) {
		t.Fatalf("readErr() = %v, want bufio.ErrTooLong", err)
	}
}

// brokenReader yields its data, then fails with err instead of io.EOF.
type brokenReader struct {
	data []byte
	err  error
	pos  int
}

func (r *brokenReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, r.err
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

// trickleReader yields at most chunk bytes per Read, deliberately splitting
// multi-byte sequences across reads.
type trickleReader struct {
	data  []byte
	chunk int
	pos   int
}

func (r *trickleReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := r.chunk
	if n > len(r.data)-r.pos {
		n = len(r.data) - r.pos
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, r.data[r.pos:r.pos+n])
	r.pos += n
	return n, nil
}

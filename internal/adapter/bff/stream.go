package bff

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"lexbridge/internal/domain"
	"lexbridge/internal/infra/tracer"
)

// StreamState is the derived state of one SSE chat stream. Snapshots are
// value copies; mutating a snapshot never affects the client.
type StreamState struct {
	Content     string
	Suggestions []string
	Citations   []domain.Citation
	Done        bool
	Streaming   bool
	Err         error
}

// StreamClient reduces a POST-body SSE stream into accumulated content, a
// done flag, a streaming flag, an error, a suggestions list and a citations
// list. One stream is in flight per client instance; starting a new stream
// cancels the prior one.
//
// Failure semantics: a transport or protocol failure sets Err and clears
// Streaming but retains the content accumulated so far; partial answers are
// shown, not discarded. Cancellation is a normal user action and never
// populates Err.
type StreamClient struct {
	client *Client
	logger *slog.Logger

	mu       sync.Mutex
	state    StreamState
	cancel   context.CancelFunc
	gen      uint64 // bumped on every StartStream; stale readers are ignored
	onChange func(StreamState)
}

// NewStreamClient creates a stream client sharing the BFF client's base URL,
// token and transport.
func NewStreamClient(client *Client, logger *slog.Logger) *StreamClient {
	return &StreamClient{client: client, logger: logger}
}

// OnChange registers a callback invoked with a state snapshot after every
// state mutation. The callback runs on the stream reader goroutine (or the
// caller's goroutine for synchronous mutations) and must not block.
func (s *StreamClient) OnChange(fn func(StreamState)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// State returns a snapshot of the current stream state.
func (s *StreamClient) State() StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *StreamClient) snapshotLocked() StreamState {
	snap := s.state
	snap.Suggestions = append([]string(nil), s.state.Suggestions...)
	snap.Citations = append([]domain.Citation(nil), s.state.Citations...)
	return snap
}

func (s *StreamClient) notifyLocked() {
	if s.onChange != nil {
		s.onChange(s.snapshotLocked())
	}
}

// StartStream cancels any prior in-flight stream, resets all derived state,
// then issues the POST. The reset happens synchronously before any network
// I/O: a caller inspecting State immediately after StartStream sees empty
// content and cleared suggestions/citations, never stale data from a prior
// turn, even if the new stream emits no suggestions/citations events of its
// own.
func (s *StreamClient) StartStream(ctx context.Context, path string, body any) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	streamCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.gen++
	gen := s.gen
	s.state = StreamState{
		Suggestions: []string{},
		Citations:   []domain.Citation{},
		Streaming:   true,
	}
	s.notifyLocked()
	s.mu.Unlock()

	payload, err := json.Marshal(body)
	if err != nil {
		s.fail(gen, domain.WrapOp("stream.marshal", err))
		return
	}

	go s.run(streamCtx, gen, s.client.baseURL+path, payload)
}

func (s *StreamClient) run(ctx context.Context, gen uint64, url string, body []byte) {
	ctx, span := tracer.StartSpan(ctx, "bff.stream",
		trace.WithAttributes(tracer.IntAttr("request.bytes", len(body))),
	)
	defer span.End()

	resp, err := doStreamRequest(ctx, s.client.client, url, body, authHeaders(s.client.token))
	if err != nil {
		if domain.IsCancellation(err) {
			s.settle(gen)
			return
		}
		tracer.RecordError(span, err)
		s.fail(gen, err)
		return
	}

	events, readErr := parseStream(ctx, resp.Body)
	for event := range events {
		s.apply(gen, event)
	}

	// A body that broke mid-stream is a failure, not a clean close: the
	// accumulated content is kept but Err must be set so the UI can flag
	// the truncated answer. Cancellation stays a normal ending.
	if err := readErr(); err != nil && !domain.IsCancellation(err) {
		err = fmt.Errorf("%w: read stream: %v", domain.ErrTransport, err)
		tracer.RecordError(span, err)
		s.fail(gen, err)
		return
	}

	// Reader finished: either done/error was seen, the server closed the
	// body, or the stream was cancelled. All paths end Streaming without
	// inventing an error.
	s.settle(gen)
	tracer.SetOK(span)
}

// apply folds one wire event into the derived state.
func (s *StreamClient) apply(gen uint64, event domain.StreamEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}

	switch event.Type {
	case domain.StreamToken:
		s.state.Content += event.Content

	case domain.StreamSuggestions:
		// Replace wholesale; an empty result still replaces so stale
		// suggestions from a prior event are cleared. Last one wins.
		raw := event.Suggestions
		if event.Data != nil && event.Data.Suggestions != nil {
			raw = event.Data.Suggestions
		}
		filtered := make([]string, 0, len(raw))
		for _, sg := range raw {
			if sg != "" {
				filtered = append(filtered, sg)
			}
		}
		s.state.Suggestions = filtered

	case domain.StreamCitations:
		var citations []domain.Citation
		if event.Data != nil {
			citations = make([]domain.Citation, 0, len(event.Data.Citations))
			for _, w := range event.Data.Citations {
				citations = append(citations, w.FromWire())
			}
		}
		s.state.Citations = citations

	case domain.StreamDone:
		s.state.Done = true
		s.state.Streaming = false

	case domain.StreamError:
		s.state.Err = &domain.StreamFailure{Message: event.Content}
		s.state.Streaming = false

	default:
		return
	}

	s.notifyLocked()
}

// fail records a non-cancellation failure; accumulated content is retained.
func (s *StreamClient) fail(gen uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	s.state.Err = err
	s.state.Streaming = false
	s.logger.Debug("chat stream failed", "error", err)
	s.notifyLocked()
}

// settle clears the streaming flag when the reader ends without a terminal
// event, including after cancellation.
func (s *StreamClient) settle(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || !s.state.Streaming {
		return
	}
	s.state.Streaming = false
	s.notifyLocked()
}

// CancelStream aborts the in-flight request. Cancelling is not a failure: it
// never populates Err, regardless of how much content was already received.
func (s *StreamClient) CancelStream() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// ClearSuggestions clears only the suggestions list, independent of the
// stream lifecycle. Used when the caller sends a new message before a fresh
// stream has replaced them.
func (s *StreamClient) ClearSuggestions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Suggestions = []string{}
	s.notifyLocked()
}

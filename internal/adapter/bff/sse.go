package bff

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"

	"lexbridge/internal/domain"
)

// maxEventLine bounds a single SSE line; citation payloads can be large.
const maxEventLine = 1 << 20

// parseStream reads SSE-formatted lines from body and converts each data
// payload into a StreamEvent. Lines not carrying the literal "data: " prefix
// (comments, keep-alives, event: headers) never change state. Unparseable
// payloads are skipped line by line; a single bad line does not abort the
// stream. A trailing partial event still in the buffer at EOF is parsed
// (flush-on-close). The returned channel is closed when the stream ends, the
// body is closed, or ctx is cancelled.
//
// The returned readErr func reports why the scan loop stopped; it must only
// be called after the channel is closed. It returns nil for a clean close and
// for a stop at a terminal done/error event, and the underlying read error
// when the body failed mid-stream (a severed connection, or a line exceeding
// maxEventLine).
func parseStream(ctx context.Context, body io.ReadCloser) (<-chan domain.StreamEvent, func() error) {
	ch := make(chan domain.StreamEvent, 16)
	var scanErr error
	go func() {
		defer close(ch)
		defer body.Close()

		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 64*1024), maxEventLine)
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			default:
			}

			line := scanner.Bytes()

			// Blank lines are event delimiters; data lines are
			// self-contained, so framing reduces to line scanning.
			if len(line) == 0 || line[0] == ':' {
				continue
			}
			if !bytes.HasPrefix(line, []byte("data: ")) {
				continue
			}
			data := bytes.TrimPrefix(line, []byte("data: "))

			var event domain.StreamEvent
			if err := json.Unmarshal(data, &event); err != nil {
				// Skip unparseable lines.
				continue
			}
			if event.Type == "" {
				continue
			}

			select {
			case ch <- event:
			case <-ctx.Done():
				return
			}

			if event.Type == domain.StreamDone || event.Type == domain.StreamError {
				return
			}
		}
		// A scan error means the body broke mid-stream; it must not look
		// like a clean server close. Written before close(ch), so readers
		// that drained the channel see it.
		scanErr = scanner.Err()
	}()
	return ch, func() error { return scanErr }
}

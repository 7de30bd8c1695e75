package domain

// StreamEventType identifies the kind of server-sent event on a chat stream.
type StreamEventType string

const (
	StreamToken       StreamEventType = "token"
	StreamSuggestions StreamEventType = "suggestions"
	StreamCitations   StreamEventType = "citations"
	StreamDone        StreamEventType = "done"
	StreamError       StreamEventType = "error"
)

// StreamEvent is one wire-level event parsed from a "data: " line. Events are
// ephemeral: they are folded into accumulated content, a suggestions list and
// a citations list as they arrive, never persisted.
type StreamEvent struct {
	Type    StreamEventType  `json:"type"`
	Content string           `json:"content"`
	Data    *StreamEventData `json:"data,omitempty"`

	// Suggestions is the legacy top-level field still emitted by older BFF
	// versions; Data.Suggestions wins when both are present.
	Suggestions []string `json:"suggestions,omitempty"`
}

// StreamEventData carries the structured payload of suggestions/citations
// events.
type StreamEventData struct {
	Suggestions []string       `json:"suggestions,omitempty"`
	Citations   []WireCitation `json:"citations,omitempty"`
}

// WireCitation is the citation shape on the wire. The field names differ from
// the local Citation: sourceName maps to Source, and a JSON null page maps to
// an absent page, not zero.
type WireCitation struct {
	ID         int    `json:"id"`
	SourceName string `json:"sourceName"`
	Page       *int   `json:"page"`
	Excerpt    string `json:"excerpt"`
	ChunkID    string `json:"chunkId"`
	SourceURL  string `json:"sourceUrl,omitempty"`
}

// Citation resolves a [N] marker inside assistant message text to its source.
// Citation state is global to a stream and attributed to the most recently
// completed assistant message by the consumer.
type Citation struct {
	ID        int    `json:"id"`
	Source    string `json:"source"`
	Page      *int   `json:"page,omitempty"` // nil = absent
	Excerpt   string `json:"excerpt"`
	ChunkID   string `json:"chunkId"`
	SourceURL string `json:"sourceUrl,omitempty"`
}

// FromWire converts a wire citation to its local form.
func (w WireCitation) FromWire() Citation {
	return Citation{
		ID:        w.ID,
		Source:    w.SourceName,
		Page:      w.Page,
		Excerpt:   w.Excerpt,
		ChunkID:   w.ChunkID,
		SourceURL: w.SourceURL,
	}
}

// StreamFailure is the error surfaced when the stream carries an explicit
// error event. The message is the human-readable content of that event.
type StreamFailure struct {
	Message string
}

func (e *StreamFailure) Error() string { return e.Message }

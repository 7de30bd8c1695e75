package domain

import "time"

// BridgeEventName identifies a named channel on the cross-pane bridge.
type BridgeEventName string

const (
	// Editor pane -> chat pane.
	EventSelectionChanged BridgeEventName = "selection_changed"

	// Chat pane -> editor pane.
	EventDocumentStreamStart BridgeEventName = "document_stream_start"
	EventDocumentStreamToken BridgeEventName = "document_stream_token"
	EventDocumentStreamEnd   BridgeEventName = "document_stream_end"
)

// SelectionClearedSentinel is the context value meaning "the selection was
// cleared", as opposed to a new empty selection existing.
const SelectionClearedSentinel = "selection_cleared"

// SelectionPreviewLimit caps the selection text preview carried across the
// bridge; the full untruncated text travels in FullText.
const SelectionPreviewLimit = 5000

// BridgeEvent is the envelope delivered to bridge subscribers.
//
// Payloads carry document/selection/content data only, never authentication
// tokens or other secrets.
type BridgeEvent struct {
	Name      BridgeEventName `json:"name"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   any             `json:"payload,omitempty"`
}

// BridgeHandler is a callback invoked when a bridge event is delivered.
// Delivery is synchronous on the emitter's goroutine, in-order per channel.
type BridgeHandler func(event BridgeEvent)

// SelectionChangedPayload reports a text selection in the editor pane.
// An event with empty Text, or a Context equal to SelectionClearedSentinel,
// means the selection was cleared. Context is a JSON-encoded blob carrying an
// HTML fragment and a source tag; a malformed blob degrades to
// empty-but-present fields rather than failing the event.
type SelectionChangedPayload struct {
	Text     string `json:"text"`
	FullText string `json:"fullText,omitempty"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Context  string `json:"context,omitempty"`
}

// SelectionContext is the decoded form of SelectionChangedPayload.Context.
type SelectionContext struct {
	HTML   string `json:"html"`
	Source string `json:"source"`
}

// CrossPaneSelection is the consumer-side view of the current selection.
type CrossPaneSelection struct {
	Text     string // preview, capped at SelectionPreviewLimit
	FullText string
	HTML     string
	Start    int
	End      int
	Source   string
}

// DocumentStreamStartPayload begins a streaming insert in the editor pane.
type DocumentStreamStartPayload struct {
	OperationID    string `json:"operationId"`
	TargetPosition int    `json:"targetPosition"`
	OperationType  string `json:"operationType"`
}

// DocumentStreamTokenPayload carries one token of a streaming insert.
// Index is strictly increasing from 0 within an operation; ordering is
// guaranteed by the transport, the consumer does not reorder.
type DocumentStreamTokenPayload struct {
	OperationID string `json:"operationId"`
	Token       string `json:"token"`
	Index       int    `json:"index"`
}

// DocumentStreamEndPayload terminates a streaming insert. Exactly one end
// event is delivered per started operation, even on error or cancellation.
type DocumentStreamEndPayload struct {
	OperationID string `json:"operationId"`
	Cancelled   bool   `json:"cancelled"`
	TotalTokens int    `json:"totalTokens"`
}

package bridge

import (
	"encoding/json"
	"sync"
	"unicode/utf8"

	"lexbridge/internal/domain"
)

// SelectionTracker is the chat-pane consumer of selection_changed events. It
// holds the current cross-pane selection, or nil when no selection exists.
//
// Lifecycle: the selection is set when the editor pane broadcasts one,
// cleared on an explicit cleared signal, on bridge disconnect, and on Close.
type SelectionTracker struct {
	mu       sync.Mutex
	current  *domain.CrossPaneSelection
	unsub    func()
	offClose func()
	onChange func(*domain.CrossPaneSelection)
}

// NewSelectionTracker creates a tracker subscribed to the bus. A bus
// disconnect clears the selection, same as an explicit cleared signal.
func NewSelectionTracker(bus *Bus) *SelectionTracker {
	t := &SelectionTracker{}
	t.unsub = bus.Subscribe(domain.EventSelectionChanged, t.handle)
	t.offClose = bus.OnClose(func() { t.set(nil) })
	return t
}

// OnChange registers a callback invoked after every selection update,
// including clears (with nil).
func (t *SelectionTracker) OnChange(fn func(*domain.CrossPaneSelection)) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// Current returns the active selection, or nil when none exists.
func (t *SelectionTracker) Current() *domain.CrossPaneSelection {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return nil
	}
	sel := *t.current
	return &sel
}

func (t *SelectionTracker) handle(event domain.BridgeEvent) {
	payload, ok := event.Payload.(domain.SelectionChangedPayload)
	if !ok {
		return
	}
	t.set(ParseSelection(payload))
}

func (t *SelectionTracker) set(sel *domain.CrossPaneSelection) {
	t.mu.Lock()
	t.current = sel
	fn := t.onChange
	t.mu.Unlock()
	if fn != nil {
		fn(sel)
	}
}

// Close unsubscribes and clears the selection.
func (t *SelectionTracker) Close() {
	if t.unsub != nil {
		t.unsub()
	}
	if t.offClose != nil {
		t.offClose()
	}
	t.set(nil)
}

// ParseSelection converts a selection_changed payload into the consumer-side
// selection. Empty text or the cleared sentinel means "selection was
// cleared" and yields nil. A malformed context blob is different: it
// degrades gracefully to empty-but-present HTML/source fields.
func ParseSelection(p domain.SelectionChangedPayload) *domain.CrossPaneSelection {
	if p.Text == "" || p.Context == domain.SelectionClearedSentinel {
		return nil
	}

	var sctx domain.SelectionContext
	if p.Context != "" {
		// Malformed context degrades to empty fields, not a dropped event.
		_ = json.Unmarshal([]byte(p.Context), &sctx)
	}

	full := p.FullText
	if full == "" {
		full = p.Text
	}
	// The preview cap counts characters, not bytes; slicing bytes could
	// split a multi-byte rune and emit invalid UTF-8.
	preview := p.Text
	if utf8.RuneCountInString(preview) > domain.SelectionPreviewLimit {
		preview = string([]rune(preview)[:domain.SelectionPreviewLimit])
	}

	return &domain.CrossPaneSelection{
		Text:     preview,
		FullText: full,
		HTML:     sctx.HTML,
		Start:    p.Start,
		End:      p.End,
		Source:   sctx.Source,
	}
}

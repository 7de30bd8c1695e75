// Package docstream translates cross-pane streaming events into calls
// against an editor surface's streaming-insert capability.
package docstream

import (
	"log/slog"
	"sync"

	"lexbridge/internal/domain"
	"lexbridge/internal/usecase/bridge"
)

// PreStartHook runs before a streaming insert begins. Callers use it to
// capture an undo checkpoint; undo after a cancelled stream restores that
// snapshot rather than deleting inserted content in place.
type PreStartHook func(start domain.DocumentStreamStartPayload)

type operation struct {
	id     string
	handle domain.InsertHandle
	tokens int
}

// Consumer enforces single-active-operation discipline between the bridge
// and an editor. Two states: idle (active == nil) and streaming.
//
// A second document_stream_start while an operation is active is rejected
// and logged; the in-flight operation continues. Tokens whose operation ID
// does not match the active operation are dropped without touching the
// editor or the token count. EndStreamingInsert always preserves inserted
// content, also when the end payload is flagged cancelled.
type Consumer struct {
	editor   domain.Editor
	logger   *slog.Logger
	preStart PreStartHook

	mu     sync.Mutex
	active *operation
	unsubs []func()
}

// Option configures a Consumer.
type Option func(*Consumer)

// WithPreStartHook installs the undo-checkpoint hook.
func WithPreStartHook(hook PreStartHook) Option {
	return func(c *Consumer) { c.preStart = hook }
}

// New creates a consumer and subscribes it to the bus. Call Close to detach
// and defensively end any in-flight operation.
func New(editor domain.Editor, bus *bridge.Bus, logger *slog.Logger, opts ...Option) *Consumer {
	c := &Consumer{editor: editor, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	c.unsubs = []func(){
		bus.Subscribe(domain.EventDocumentStreamStart, c.handleStart),
		bus.Subscribe(domain.EventDocumentStreamToken, c.handleToken),
		bus.Subscribe(domain.EventDocumentStreamEnd, c.handleEnd),
	}
	return c
}

// ActiveOperationID returns the in-flight operation ID, or "" when idle.
func (c *Consumer) ActiveOperationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return ""
	}
	return c.active.id
}

// TokenCount returns the number of tokens appended to the active operation.
func (c *Consumer) TokenCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return 0
	}
	return c.active.tokens
}

func (c *Consumer) handleStart(event domain.BridgeEvent) {
	start, ok := event.Payload.(domain.DocumentStreamStartPayload)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		c.logger.Warn("document stream start rejected: operation already active",
			"active", c.active.id,
			"rejected", start.OperationID,
		)
		return
	}

	if c.preStart != nil {
		c.preStart(start)
	}

	handle, err := c.editor.BeginStreamingInsert(start.TargetPosition)
	if err != nil {
		c.logger.Error("begin streaming insert failed",
			"operation", start.OperationID,
			"error", err,
		)
		return
	}

	c.active = &operation{id: start.OperationID, handle: handle}
}

func (c *Consumer) handleToken(event domain.BridgeEvent) {
	token, ok := event.Payload.(domain.DocumentStreamTokenPayload)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Stale/duplicate guard: tokens for any other operation are ignored.
	if c.active == nil || c.active.id != token.OperationID {
		return
	}

	if err := c.editor.AppendStreamToken(c.active.handle, token.Token); err != nil {
		c.logger.Error("append stream token failed",
			"operation", token.OperationID,
			"index", token.Index,
			"error", err,
		)
		return
	}
	c.active.tokens++
}

func (c *Consumer) handleEnd(event domain.BridgeEvent) {
	end, ok := event.Payload.(domain.DocumentStreamEndPayload)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil || c.active.id != end.OperationID {
		return
	}

	// Preserve semantics even when cancelled: partial content stays in the
	// document, undo is the snapshot taken by the pre-start hook.
	if err := c.editor.EndStreamingInsert(c.active.handle); err != nil {
		c.logger.Error("end streaming insert failed",
			"operation", end.OperationID,
			"error", err,
		)
	}

	c.logger.Debug("document stream ended",
		"operation", end.OperationID,
		"cancelled", end.Cancelled,
		"tokens", c.active.tokens,
	)
	c.active = nil
}

// Close detaches from the bus. If an operation is still active the insert is
// ended defensively; an already-torn-down editor must not propagate a panic.
func (c *Consumer) Close() {
	for _, unsub := range c.unsubs {
		unsub()
	}
	c.unsubs = nil

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return
	}
	func() {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Warn("editor teardown panicked during forced end", "panic", r)
			}
		}()
		if err := c.editor.EndStreamingInsert(c.active.handle); err != nil {
			c.logger.Warn("forced end of streaming insert failed", "error", err)
		}
	}()
	c.active = nil
}

package docstream

import (
	"sync"

	"github.com/oklog/ulid/v2"

	"lexbridge/internal/domain"
	"lexbridge/internal/usecase/bridge"
)

// Publisher is the chat-pane producer of document streaming events. It owns
// the operation ID and the per-token index, and guarantees that a started
// operation gets exactly one terminal end event, also on error or abort,
// so the editor surface never stays in a started-but-never-ended state.
type Publisher struct {
	bus *bridge.Bus

	mu      sync.Mutex
	opID    string
	index   int
	started bool
	ended   bool
}

// NewPublisher creates a publisher bound to the bus.
func NewPublisher(bus *bridge.Bus) *Publisher {
	return &Publisher{bus: bus}
}

// Start emits document_stream_start with a fresh operation ID and returns
// the ID. Starting an already-started publisher is a caller error and is
// ignored, returning the existing ID.
func (p *Publisher) Start(targetPosition int, operationType string) string {
	p.mu.Lock()
	if p.started && !p.ended {
		id := p.opID
		p.mu.Unlock()
		return id
	}
	p.opID = ulid.Make().String()
	p.index = 0
	p.started = true
	p.ended = false
	id := p.opID
	p.mu.Unlock()

	p.bus.Emit(domain.EventDocumentStreamStart, domain.DocumentStreamStartPayload{
		OperationID:    id,
		TargetPosition: targetPosition,
		OperationType:  operationType,
	})
	return id
}

// Token emits the next document_stream_token with a strictly increasing
// index starting at 0. Tokens before Start or after End are dropped.
func (p *Publisher) Token(token string) {
	p.mu.Lock()
	if !p.started || p.ended {
		p.mu.Unlock()
		return
	}
	payload := domain.DocumentStreamTokenPayload{
		OperationID: p.opID,
		Token:       token,
		Index:       p.index,
	}
	p.index++
	p.mu.Unlock()

	p.bus.Emit(domain.EventDocumentStreamToken, payload)
}

// End emits document_stream_end exactly once for the current operation.
// Subsequent calls are no-ops, making it safe to call from both the normal
// completion path and a deferred abort path.
func (p *Publisher) End(cancelled bool) {
	p.mu.Lock()
	if !p.started || p.ended {
		p.mu.Unlock()
		return
	}
	p.ended = true
	payload := domain.DocumentStreamEndPayload{
		OperationID: p.opID,
		Cancelled:   cancelled,
		TotalTokens: p.index,
	}
	p.mu.Unlock()

	p.bus.Emit(domain.EventDocumentStreamEnd, payload)
}

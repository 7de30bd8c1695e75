package bridge

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"lexbridge/internal/domain"
)

type subscription struct {
	id      uint64
	handler domain.BridgeHandler
}

// Bus is the in-process cross-pane relay connecting the chat surface and the
// editor surface. Neither surface holds a reference to the other; they only
// share the bus.
//
// Delivery is synchronous on the emitter's goroutine, so events on one named
// channel arrive in emit order. Handlers run against a snapshot of the
// subscriber list, making unsubscribe-during-emit safe. Panicking handlers
// are recovered.
type Bus struct {
	mu         sync.RWMutex
	subs       map[domain.BridgeEventName][]subscription
	closeHooks []closeHook
	nextID     atomic.Uint64
	logger     *slog.Logger
	closed     atomic.Bool
}

type closeHook struct {
	id uint64
	fn func()
}

// New creates a bridge bus.
func New(logger *slog.Logger) *Bus {
	return &Bus{
		subs:   make(map[domain.BridgeEventName][]subscription),
		logger: logger,
	}
}

// Emit delivers payload to all current subscribers of name, in subscription
// order.
func (b *Bus) Emit(name domain.BridgeEventName, payload any) {
	if b.closed.Load() {
		return
	}

	event := domain.BridgeEvent{
		Name:      name,
		Timestamp: time.Now(),
		Payload:   payload,
	}

	b.mu.RLock()
	snapshot := make([]subscription, len(b.subs[name]))
	copy(snapshot, b.subs[name])
	b.mu.RUnlock()

	for _, sub := range snapshot {
		b.dispatch(event, sub)
	}
}

func (b *Bus) dispatch(event domain.BridgeEvent, sub subscription) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("bridge handler panicked",
				"event", string(event.Name),
				"panic", r,
			)
		}
	}()
	sub.handler(event)
}

// Subscribe registers a handler for a named channel. The returned unsubscribe
// function is idempotent and safe to call during teardown.
func (b *Bus) Subscribe(name domain.BridgeEventName, handler domain.BridgeHandler) func() {
	id := b.nextID.Add(1)
	sub := subscription{id: id, handler: handler}

	b.mu.Lock()
	b.subs[name] = append(b.subs[name], sub)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[name]
		for i, s := range subs {
			if s.id == id {
				b.subs[name] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}

// OnClose registers fn to run once when the bus closes, letting consumers
// drop state tied to the connection. The returned unregister function is
// idempotent. Registering on an already-closed bus is a no-op.
func (b *Bus) OnClose(fn func()) func() {
	if b.closed.Load() {
		return func() {}
	}
	id := b.nextID.Add(1)

	b.mu.Lock()
	b.closeHooks = append(b.closeHooks, closeHook{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, h := range b.closeHooks {
			if h.id == id {
				b.closeHooks = append(b.closeHooks[:i], b.closeHooks[i+1:]...)
				return
			}
		}
	}
}

// Close disconnects the bridge: subsequent emits are dropped, all
// subscriptions are released, and close hooks run in registration order.
// Consumers treat a disconnect like a cleared selection.
func (b *Bus) Close() {
	if b.closed.Swap(true) {
		return
	}
	b.mu.Lock()
	b.subs = make(map[domain.BridgeEventName][]subscription)
	hooks := b.closeHooks
	b.closeHooks = nil
	b.mu.Unlock()

	for _, h := range hooks {
		b.runCloseHook(h)
	}
}

func (b *Bus) runCloseHook(h closeHook) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("bridge close hook panicked", "panic", r)
		}
	}()
	h.fn()
}

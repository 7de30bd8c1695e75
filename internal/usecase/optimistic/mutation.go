// Package optimistic implements optimistic UI mutation with a debounced
// remote write and revert-on-failure.
package optimistic

import (
	"context"
	"sync"
	"time"
)

// SyncState is the per-entity synchronization state.
type SyncState int

const (
	Synced SyncState = iota
	PendingWrite
	WriteFailed
)

// String returns the state name for logging and display.
func (s SyncState) String() string {
	switch s {
	case Synced:
		return "synced"
	case PendingWrite:
		return "pending"
	case WriteFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// WriteFunc persists the value remotely.
type WriteFunc[T any] func(ctx context.Context, value T) error

// scheduleFunc installs a delayed call and returns a stop function. The
// default wraps time.AfterFunc; tests inject a manual scheduler.
type scheduleFunc func(d time.Duration, fn func()) (stop func() bool)

// Mutation is a small local state machine per entity: {Synced, PendingWrite,
// WriteFailed}. Set applies the new value immediately (optimistic) and arms
// a debounce timer; when it fires, the write runs. On failure the value
// reverts to the last synced one and the error is retained for display.
type Mutation[T any] struct {
	write    WriteFunc[T]
	debounce time.Duration
	schedule scheduleFunc

	mu         sync.Mutex
	value      T
	lastSynced T
	state      SyncState
	lastErr    error
	gen        uint64 // bumped on every Set; a stale flush must not clobber a newer value
	stopTimer  func() bool
	onChange   func(T, SyncState)
}

// Option configures a Mutation.
type Option[T any] func(*Mutation[T])

// WithScheduler injects the timer implementation (tests).
func WithScheduler[T any](schedule func(d time.Duration, fn func()) func() bool) Option[T] {
	return func(m *Mutation[T]) { m.schedule = schedule }
}

// New creates a mutation initialized to the given synced value.
func New[T any](initial T, debounce time.Duration, write WriteFunc[T], opts ...Option[T]) *Mutation[T] {
	m := &Mutation[T]{
		write:      write,
		debounce:   debounce,
		value:      initial,
		lastSynced: initial,
		state:      Synced,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.schedule == nil {
		m.schedule = func(d time.Duration, fn func()) func() bool {
			return time.AfterFunc(d, fn).Stop
		}
	}
	return m
}

// OnChange registers a callback invoked after every value/state transition.
func (m *Mutation[T]) OnChange(fn func(value T, state SyncState)) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// Value returns the current (possibly optimistic) value.
func (m *Mutation[T]) Value() T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value
}

// State returns the current sync state.
func (m *Mutation[T]) State() SyncState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err returns the last write error, retained for display after a revert.
func (m *Mutation[T]) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Set applies value optimistically and restarts the debounce timer.
func (m *Mutation[T]) Set(ctx context.Context, value T) {
	m.mu.Lock()
	m.value = value
	m.state = PendingWrite
	m.gen++
	gen := m.gen
	if m.stopTimer != nil {
		m.stopTimer()
	}
	m.stopTimer = m.schedule(m.debounce, func() { m.flush(ctx, gen) })
	m.notifyLocked()
	m.mu.Unlock()
}

// Flush writes immediately, bypassing the debounce. Used on teardown so a
// pending value is not lost.
func (m *Mutation[T]) Flush(ctx context.Context) {
	m.mu.Lock()
	if m.stopTimer != nil {
		m.stopTimer()
		m.stopTimer = nil
	}
	pending := m.state == PendingWrite
	gen := m.gen
	m.mu.Unlock()
	if pending {
		m.flush(ctx, gen)
	}
}

func (m *Mutation[T]) flush(ctx context.Context, gen uint64) {
	m.mu.Lock()
	value := m.value
	m.mu.Unlock()

	err := m.write(ctx, value)

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		// A newer Set arrived while the write was in flight; its own
		// flush settles the state. Never revert over the newer value,
		// but a successful write still advances the revert baseline.
		if err == nil {
			m.lastSynced = value
		}
		return
	}
	if err != nil {
		// Revert to the pre-optimistic value, keep the error for display.
		m.value = m.lastSynced
		m.state = WriteFailed
		m.lastErr = err
	} else {
		m.lastSynced = value
		m.state = Synced
		m.lastErr = nil
	}
	m.notifyLocked()
}

func (m *Mutation[T]) notifyLocked() {
	if m.onChange != nil {
		m.onChange(m.value, m.state)
	}
}

package tui

import (
	"sync"

	"lexbridge/internal/domain"
)

// insertOp is the handle returned by BeginStreamingInsert: a cursor into the
// buffer that advances as tokens append.
type insertOp struct {
	pos int
}

// DocumentBuffer is the editor surface behind the document pane: a
// goroutine-safe rune buffer implementing domain.Editor. Bridge events
// arrive on the stream reader goroutine while the pane renders on the
// program goroutine, so all access goes through the mutex; the pane is told
// to re-render via the notify callback.
type DocumentBuffer struct {
	mu     sync.Mutex
	runes  []rune
	active *insertOp
	notify func()
}

// NewDocumentBuffer creates a buffer with the given initial text.
func NewDocumentBuffer(text string, notify func()) *DocumentBuffer {
	return &DocumentBuffer{runes: []rune(text), notify: notify}
}

// Text returns the current document text.
func (b *DocumentBuffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.runes)
}

// Len returns the document length in runes.
func (b *DocumentBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.runes)
}

// Slice returns the text between start and end (rune offsets), clamped.
func (b *DocumentBuffer) Slice(start, end int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	start = clamp(start, 0, len(b.runes))
	end = clamp(end, start, len(b.runes))
	return string(b.runes[start:end])
}

// BeginStreamingInsert implements domain.Editor.
func (b *DocumentBuffer) BeginStreamingInsert(position int) (domain.InsertHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	op := &insertOp{pos: clamp(position, 0, len(b.runes))}
	b.active = op
	return op, nil
}

// AppendStreamToken implements domain.Editor.
func (b *DocumentBuffer) AppendStreamToken(handle domain.InsertHandle, token string) error {
	op, ok := handle.(*insertOp)
	if !ok {
		return domain.NewDomainError("buffer.AppendStreamToken", domain.ErrInvalidInput, "unknown insert handle")
	}

	b.mu.Lock()
	insert := []rune(token)
	b.runes = append(b.runes[:op.pos], append(insert, b.runes[op.pos:]...)...)
	op.pos += len(insert)
	notify := b.notify
	b.mu.Unlock()

	if notify != nil {
		notify()
	}
	return nil
}

// EndStreamingInsert implements domain.Editor. Inserted content is
// preserved; there is no removal path.
func (b *DocumentBuffer) EndStreamingInsert(handle domain.InsertHandle) error {
	b.mu.Lock()
	if b.active == handle {
		b.active = nil
	}
	notify := b.notify
	b.mu.Unlock()

	if notify != nil {
		notify()
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

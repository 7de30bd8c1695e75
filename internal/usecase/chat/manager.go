// Package chat owns the client-side chat session state: the session handle,
// the in-memory message list, and per-operation loading/error tracking.
package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"lexbridge/internal/adapter/bff"
	"lexbridge/internal/domain"
)

// Operation names the four session operations, each tracked independently.
type Operation string

const (
	OpCreateSession Operation = "create_session"
	OpLoadHistory   Operation = "load_history"
	OpSwitchContext Operation = "switch_context"
	OpDeleteSession Operation = "delete_session"
)

// OpStatus is the loading/error state of one operation.
type OpStatus struct {
	Loading bool
	Err     error
}

// SessionAPI is the request/response surface of the BFF the manager needs.
type SessionAPI interface {
	CreateSession(ctx context.Context) (*domain.Session, error)
	History(ctx context.Context, sessionID string) ([]domain.Message, error)
	SwitchContext(ctx context.Context, sessionID string, sc domain.SessionContext) error
	DeleteSession(ctx context.Context, sessionID string) error
}

// Streamer is the SSE stream surface the manager drives when sending.
type Streamer interface {
	StartStream(ctx context.Context, path string, body any)
	CancelStream()
	ClearSuggestions()
}

// Manager holds one chat UI instance's session and transcript. The message
// list is append-only except for in-place mutation of the last element while
// a stream is active. A failed operation sets its own error state and leaves
// prior session/message state untouched; there is no automatic retry.
type Manager struct {
	api    SessionAPI
	stream Streamer
	logger *slog.Logger

	mu        sync.Mutex
	session   *domain.Session
	messages  []domain.Message
	status    map[Operation]OpStatus
	citations map[int][]domain.Citation // message index -> citations
}

// NewManager creates a session manager.
func NewManager(api SessionAPI, stream Streamer, logger *slog.Logger) *Manager {
	return &Manager{
		api:       api,
		stream:    stream,
		logger:    logger,
		status:    make(map[Operation]OpStatus),
		citations: make(map[int][]domain.Citation),
	}
}

func (m *Manager) begin(op Operation) {
	m.mu.Lock()
	m.status[op] = OpStatus{Loading: true}
	m.mu.Unlock()
}

func (m *Manager) finish(op Operation, err error) {
	m.mu.Lock()
	m.status[op] = OpStatus{Err: err}
	m.mu.Unlock()
}

// Status returns the loading/error state of the given operation.
func (m *Manager) Status(op Operation) OpStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status[op]
}

// Session returns the active session, or nil when none exists.
func (m *Manager) Session() *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	s := *m.session
	return &s
}

// Messages returns a snapshot of the transcript.
func (m *Manager) Messages() []domain.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Message(nil), m.messages...)
}

// CreateSession creates a session against the BFF and makes it active.
func (m *Manager) CreateSession(ctx context.Context) error {
	m.begin(OpCreateSession)
	session, err := m.api.CreateSession(ctx)
	m.finish(OpCreateSession, err)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.session = session
	m.mu.Unlock()
	return nil
}

// LoadHistory replaces the transcript with the server-side history.
func (m *Manager) LoadHistory(ctx context.Context) error {
	sessionID, err := m.requireSession()
	if err != nil {
		return err
	}

	m.begin(OpLoadHistory)
	messages, err := m.api.History(ctx, sessionID)
	m.finish(OpLoadHistory, err)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.messages = messages
	m.citations = make(map[int][]domain.Citation)
	m.mu.Unlock()
	return nil
}

// SwitchContext points the active session at a different document, playbook
// or host entity.
func (m *Manager) SwitchContext(ctx context.Context, sc domain.SessionContext) error {
	sessionID, err := m.requireSession()
	if err != nil {
		return err
	}

	m.begin(OpSwitchContext)
	err = m.api.SwitchContext(ctx, sessionID, sc)
	m.finish(OpSwitchContext, err)
	return err
}

// DeleteSession tears down the active session and clears local state.
func (m *Manager) DeleteSession(ctx context.Context) error {
	sessionID, err := m.requireSession()
	if err != nil {
		return err
	}

	m.begin(OpDeleteSession)
	err = m.api.DeleteSession(ctx, sessionID)
	m.finish(OpDeleteSession, err)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.session = nil
	m.messages = nil
	m.citations = make(map[int][]domain.Citation)
	m.mu.Unlock()
	return nil
}

func (m *Manager) requireSession() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return "", domain.NewDomainError("chat.requireSession", domain.ErrSessionNotFound, "no active session")
	}
	return m.session.ID, nil
}

// AddMessage appends a message to the transcript.
func (m *Manager) AddMessage(msg domain.Message) {
	m.mu.Lock()
	m.messages = append(m.messages, msg)
	m.mu.Unlock()
}

// UpdateLastMessage replaces the content of the final transcript element.
// Used exclusively while streaming to reflect growing token output without
// re-appending.
func (m *Manager) UpdateLastMessage(content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return
	}
	m.messages[len(m.messages)-1].Content = content
}

// AttachCitations associates citations with the most recently completed
// assistant message. Attribution is positional (last index), not carried by
// a message identifier on the wire; if messages were ever reordered this
// association would break.
func (m *Manager) AttachCitations(citations []domain.Citation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return
	}
	m.citations[len(m.messages)-1] = citations
}

// CitationsFor returns the citations attributed to the message at index.
func (m *Manager) CitationsFor(index int) []domain.Citation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.citations[index]
}

// Send appends the user message plus an empty assistant placeholder, clears
// stale suggestions, and opens the message stream. Empty input is rejected
// locally before any network call.
func (m *Manager) Send(ctx context.Context, text, documentID string) error {
	if strings.TrimSpace(text) == "" {
		return domain.NewDomainError("chat.Send", domain.ErrInvalidInput, "empty message")
	}
	sessionID, err := m.requireSession()
	if err != nil {
		return err
	}

	now := time.Now()
	m.AddMessage(domain.Message{Role: domain.RoleUser, Content: text, Timestamp: now})
	m.AddMessage(domain.Message{Role: domain.RoleAssistant, Timestamp: now})

	m.stream.ClearSuggestions()
	m.stream.StartStream(ctx, bff.MessagePath(sessionID), bff.SendMessageBody{
		Message:    text,
		DocumentID: documentID,
	})
	return nil
}

// Refine opens a refinement stream for the given selection. The refined
// output is routed to the editor pane over the bridge by the caller, not
// into the transcript.
func (m *Manager) Refine(ctx context.Context, sel *domain.CrossPaneSelection, instruction string) error {
	if sel == nil {
		return domain.NewDomainError("chat.Refine", domain.ErrInvalidInput, "no selection")
	}
	if strings.TrimSpace(instruction) == "" {
		return domain.NewDomainError("chat.Refine", domain.ErrInvalidInput, "empty instruction")
	}
	sessionID, err := m.requireSession()
	if err != nil {
		return err
	}

	m.stream.StartStream(ctx, bff.RefinePath(sessionID), bff.RefineBody{
		SelectedText:       sel.FullText,
		Instruction:        instruction,
		SurroundingContext: sel.HTML,
	})
	return nil
}

// CancelStream aborts any in-flight stream; not an error.
func (m *Manager) CancelStream() {
	m.stream.CancelStream()
}

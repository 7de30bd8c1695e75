// Package host is the boundary to the hosting application's navigation and
// messaging shell, consumed as a structured message contract.
package host

import (
	"log/slog"
	"strings"

	"lexbridge/internal/domain"
)

// Message action names understood by the host shell.
const (
	ActionNavigateRecord = "navigate_record"
	ActionNavigatePage   = "navigate_page"
	ActionOpenDocument   = "open_document"
)

// NavigationMessage is the outbound message posted to the host shell. The
// shape is versioned/stable: producer and shell ship independently.
type NavigationMessage struct {
	Action     string `json:"action"`
	EntityType string `json:"entityType,omitempty"`
	EntityID   string `json:"entityId,omitempty"`
	PageName   string `json:"pageName,omitempty"`
	DocumentID string `json:"documentId,omitempty"`
	Source     string `json:"source"`
}

// Transport delivers messages to the host. In production this is the shell's
// cross-window channel; tests inject an in-memory transport.
type Transport interface {
	Post(msg NavigationMessage) error
}

// Messenger expresses navigation intent toward the host shell. Validation
// failures are rejected locally, before any message is posted.
type Messenger struct {
	transport Transport
	source    string
	logger    *slog.Logger
}

// NewMessenger creates a messenger. source tags every outbound message so
// the shell can attribute it.
func NewMessenger(transport Transport, source string, logger *slog.Logger) *Messenger {
	return &Messenger{transport: transport, source: source, logger: logger}
}

// NavigateToRecord asks the host to open an entity record.
func (m *Messenger) NavigateToRecord(entityType, entityID string) error {
	if strings.TrimSpace(entityType) == "" {
		return domain.NewDomainError("host.NavigateToRecord", domain.ErrInvalidInput, "entity type is required")
	}
	if strings.TrimSpace(entityID) == "" {
		return domain.NewDomainError("host.NavigateToRecord", domain.ErrInvalidInput, "entity id is required")
	}
	return m.post(NavigationMessage{
		Action:     ActionNavigateRecord,
		EntityType: entityType,
		EntityID:   entityID,
	})
}

// NavigateToPage asks the host to open a named workspace page.
func (m *Messenger) NavigateToPage(pageName string) error {
	if strings.TrimSpace(pageName) == "" {
		return domain.NewDomainError("host.NavigateToPage", domain.ErrInvalidInput, "page name is required")
	}
	return m.post(NavigationMessage{
		Action:   ActionNavigatePage,
		PageName: pageName,
	})
}

// OpenDocument asks the host to open a document in the editor surface.
func (m *Messenger) OpenDocument(documentID string) error {
	if strings.TrimSpace(documentID) == "" {
		return domain.NewDomainError("host.OpenDocument", domain.ErrInvalidInput, "document id is required")
	}
	return m.post(NavigationMessage{
		Action:     ActionOpenDocument,
		DocumentID: documentID,
	})
}

func (m *Messenger) post(msg NavigationMessage) error {
	msg.Source = m.source
	if err := m.transport.Post(msg); err != nil {
		return domain.WrapOp("host.post", err)
	}
	m.logger.Debug("host navigation posted", "action", msg.Action)
	return nil
}

package domain

import "time"

// Role constants for chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single entry in a chat session's transcript. The message list
// is append-only except for the last assistant message, whose Content is
// rewritten in place while a stream is active.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session identifies one chat session held by the backend-for-frontend.
// The client caches only the ID and the message list; the BFF owns the rest.
type Session struct {
	ID        string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
}

// HostContext describes the business entity/workspace the chat session is
// embedded in. It is opaque to the client and forwarded on context switches.
type HostContext struct {
	EntityType  string `json:"entityType,omitempty"`
	EntityID    string `json:"entityId,omitempty"`
	WorkspaceID string `json:"workspaceId,omitempty"`
}

// SessionContext is the payload for a session context switch.
type SessionContext struct {
	DocumentID            string      `json:"documentId"`
	PlaybookID            string      `json:"playbookId"`
	HostContext           HostContext `json:"hostContext"`
	AdditionalDocumentIDs []string    `json:"additionalDocumentIds,omitempty"`
}

// Playbook is a named, server-defined behavior profile governing how the
// agent responds within a session.
type Playbook struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsPublic    bool   `json:"isPublic,omitempty"`
}

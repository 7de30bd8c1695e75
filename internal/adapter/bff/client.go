package bff

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/trace"

	"lexbridge/internal/domain"
	"lexbridge/internal/infra/tracer"
)

// Client is a thin request/response wrapper around the BFF chat endpoints.
// Each operation is a single authenticated HTTP call; there is no retry and
// no timeout beyond the transport default. That is a deliberate scope
// limitation for a client talking to a trusted first-party backend, not an
// oversight.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

// NewClient creates a BFF client. baseURL is normalized: trailing slashes
// and a trailing /api segment are stripped.
func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: normalizeBaseURL(baseURL),
		token:   token,
		client:  &http.Client{},
		logger:  logger,
	}
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) do(ctx context.Context, method, path string, reqBody, out any) error {
	var body []byte
	if reqBody != nil {
		var err error
		body, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	respBody, err := doJSONRequest(ctx, c.client, method, c.baseURL+path, body, authHeaders(c.token))
	if err != nil {
		return err
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// CreateSession creates a new chat session.
func (c *Client) CreateSession(ctx context.Context) (*domain.Session, error) {
	ctx, span := tracer.StartSpan(ctx, "bff.create_session")
	defer span.End()

	var resp struct {
		SessionID string    `json:"sessionId"`
		CreatedAt time.Time `json:"createdAt"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/ai/chat/sessions", struct{}{}, &resp); err != nil {
		tracer.RecordError(span, err)
		return nil, domain.WrapOp("bff.CreateSession", err)
	}

	tracer.SetOK(span)
	c.logger.Debug("chat session created", "session", resp.SessionID)
	return &domain.Session{ID: resp.SessionID, CreatedAt: resp.CreatedAt}, nil
}

// History loads the message transcript of an existing session.
func (c *Client) History(ctx context.Context, sessionID string) ([]domain.Message, error) {
	ctx, span := tracer.StartSpan(ctx, "bff.history",
		trace.WithAttributes(tracer.StringAttr("session.id", sessionID)),
	)
	defer span.End()

	var resp struct {
		Messages []domain.Message `json:"messages"`
	}
	path := fmt.Sprintf("/api/ai/chat/sessions/%s/history", url.PathEscape(sessionID))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		tracer.RecordError(span, err)
		return nil, domain.WrapOp("bff.History", err)
	}

	tracer.SetOK(span)
	return resp.Messages, nil
}

// SwitchContext points the session at a different document/playbook/host
// entity.
func (c *Client) SwitchContext(ctx context.Context, sessionID string, sc domain.SessionContext) error {
	ctx, span := tracer.StartSpan(ctx, "bff.switch_context",
		trace.WithAttributes(tracer.StringAttr("session.id", sessionID)),
	)
	defer span.End()

	path := fmt.Sprintf("/api/ai/chat/sessions/%s/context", url.PathEscape(sessionID))
	if err := c.do(ctx, http.MethodPatch, path, sc, nil); err != nil {
		tracer.RecordError(span, err)
		return domain.WrapOp("bff.SwitchContext", err)
	}

	tracer.SetOK(span)
	return nil
}

// DeleteSession tears down the session on the BFF.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	ctx, span := tracer.StartSpan(ctx, "bff.delete_session",
		trace.WithAttributes(tracer.StringAttr("session.id", sessionID)),
	)
	defer span.End()

	path := fmt.Sprintf("/api/ai/chat/sessions/%s", url.PathEscape(sessionID))
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		tracer.RecordError(span, err)
		return domain.WrapOp("bff.DeleteSession", err)
	}

	tracer.SetOK(span)
	c.logger.Debug("chat session deleted", "session", sessionID)
	return nil
}

// Playbooks lists server-defined playbooks, optionally filtered by name.
func (c *Client) Playbooks(ctx context.Context, nameFilter string) ([]domain.Playbook, error) {
	ctx, span := tracer.StartSpan(ctx, "bff.playbooks")
	defer span.End()

	var resp struct {
		Playbooks []domain.Playbook `json:"playbooks"`
	}
	path := "/api/ai/chat/playbooks?nameFilter=" + url.QueryEscape(nameFilter)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		tracer.RecordError(span, err)
		return nil, domain.WrapOp("bff.Playbooks", err)
	}

	tracer.SetOK(span)
	return resp.Playbooks, nil
}

// Actions fetches the permitted chat actions for a session/entity pair.
func (c *Client) Actions(ctx context.Context, sessionID, entityType string) (*domain.ActionSet, error) {
	ctx, span := tracer.StartSpan(ctx, "bff.actions",
		trace.WithAttributes(
			tracer.StringAttr("session.id", sessionID),
			tracer.StringAttr("entity.type", entityType),
		),
	)
	defer span.End()

	var resp domain.ActionSet
	q := url.Values{}
	q.Set("sessionId", sessionID)
	q.Set("entityType", entityType)
	if err := c.do(ctx, http.MethodGet, "/api/ai/chat/actions?"+q.Encode(), nil, &resp); err != nil {
		tracer.RecordError(span, err)
		return nil, domain.WrapOp("bff.Actions", err)
	}

	tracer.SetOK(span)
	return &resp, nil
}

// MessagePath returns the SSE endpoint path for sending a chat message.
func MessagePath(sessionID string) string {
	return fmt.Sprintf("/api/ai/chat/sessions/%s/messages", url.PathEscape(sessionID))
}

// RefinePath returns the SSE endpoint path for a selection-refinement turn.
func RefinePath(sessionID string) string {
	return fmt.Sprintf("/api/ai/chat/sessions/%s/refine", url.PathEscape(sessionID))
}

// SendMessageBody is the request body for the messages SSE endpoint.
type SendMessageBody struct {
	Message    string `json:"message"`
	DocumentID string `json:"documentId"`
}

// RefineBody is the request body for the refine SSE endpoint.
type RefineBody struct {
	SelectedText       string `json:"selectedText"`
	Instruction        string `json:"instruction"`
	SurroundingContext string `json:"surroundingContext"`
}

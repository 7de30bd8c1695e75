package dataplatform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/trace"

	"lexbridge/internal/domain"
	"lexbridge/internal/infra/tracer"
)

const maxPlatformBody = 10 * 1024 * 1024 // 10 MB

// HTTPClient talks to the platform's record and file endpoints. It
// implements RecordClient and FileClient. Query results are memoized in a
// short-lived TTL cache; record mutations purge it.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
	cache   *TTLCache[[]Record]
	logger  *slog.Logger
}

// NewHTTPClient creates a platform client. queryTTL bounds how stale a
// cached list result may be; zero disables caching.
func NewHTTPClient(baseURL, token string, queryTTL time.Duration, logger *slog.Logger) *HTTPClient {
	var cache *TTLCache[[]Record]
	if queryTTL > 0 {
		cache = NewTTLCache[[]Record](queryTTL, nil)
	}
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{},
		cache:   cache,
		logger:  logger,
	}
}

var (
	_ RecordClient = (*HTTPClient)(nil)
	_ FileClient   = (*HTTPClient)(nil)
)

// Create creates a record and returns its ID.
func (c *HTTPClient) Create(ctx context.Context, entity string, fields map[string]any) (string, error) {
	ctx, span := tracer.StartSpan(ctx, "dataplatform.create",
		trace.WithAttributes(tracer.StringAttr("entity", entity)),
	)
	defer span.End()

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, c.entityPath(entity), fields, &resp); err != nil {
		tracer.RecordError(span, err)
		return "", domain.WrapOp("dataplatform.Create", err)
	}

	c.purgeCache()
	tracer.SetOK(span)
	return resp.ID, nil
}

// Get fetches one record by ID.
func (c *HTTPClient) Get(ctx context.Context, entity, id string) (*Record, error) {
	var record Record
	if err := c.do(ctx, http.MethodGet, c.recordPath(entity, id), nil, &record); err != nil {
		return nil, domain.WrapOp("dataplatform.Get", err)
	}
	return &record, nil
}

// Update patches fields on a record.
func (c *HTTPClient) Update(ctx context.Context, entity, id string, fields map[string]any) error {
	if err := c.do(ctx, http.MethodPatch, c.recordPath(entity, id), fields, nil); err != nil {
		return domain.WrapOp("dataplatform.Update", err)
	}
	c.purgeCache()
	return nil
}

// Delete removes a record.
func (c *HTTPClient) Delete(ctx context.Context, entity, id string) error {
	if err := c.do(ctx, http.MethodDelete, c.recordPath(entity, id), nil, nil); err != nil {
		return domain.WrapOp("dataplatform.Delete", err)
	}
	c.purgeCache()
	return nil
}

// Query lists records matching q. Results may be served from the TTL cache.
func (c *HTTPClient) Query(ctx context.Context, entity string, q Query) ([]Record, error) {
	path := c.entityPath(entity)
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	if c.cache != nil {
		if records, ok := c.cache.Get(path); ok {
			return records, nil
		}
	}

	var resp struct {
		Records []Record `json:"records"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, domain.WrapOp("dataplatform.Query", err)
	}

	if c.cache != nil {
		c.cache.Put(path, resp.Records)
	}
	return resp.Records, nil
}

// Upload attaches a file to a record.
func (c *HTTPClient) Upload(ctx context.Context, entity, id, name, contentType string, data []byte) error {
	path := c.recordPath(entity, id) + "/files/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, path, bytes.NewReader(data))
	if err != nil {
		return domain.WrapOp("dataplatform.Upload", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		if domain.IsCancellation(err) {
			return err
		}
		return domain.WrapOp("dataplatform.Upload", fmt.Errorf("%w: %v", domain.ErrTransport, err))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.WrapOp("dataplatform.Upload", mapStatus(resp.StatusCode, body))
	}
	return nil
}

func (c *HTTPClient) entityPath(entity string) string {
	return c.baseURL + "/api/data/" + url.PathEscape(entity)
}

func (c *HTTPClient) recordPath(entity, id string) string {
	return c.entityPath(entity) + "/" + url.PathEscape(id)
}

func (c *HTTPClient) purgeCache() {
	if c.cache != nil {
		c.cache.Purge()
	}
}

func (c *HTTPClient) do(ctx context.Context, method, url string, reqBody, out any) error {
	var reader io.Reader
	if reqBody != nil {
		body, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		if domain.IsCancellation(err) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPlatformBody))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return mapStatus(resp.StatusCode, body)
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

func mapStatus(statusCode int, body []byte) error {
	detail := fmt.Sprintf("HTTP %d: %s", statusCode, string(body))
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrAuthInvalid, detail)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, detail)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, detail)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimit, detail)
	default:
		return fmt.Errorf("%w: %s", domain.ErrTransport, detail)
	}
}

// Package dataplatform is the boundary to the hosting platform's query API.
// The platform is an external collaborator: this package carries the
// interfaces and the query-string building, not an implementation of the
// platform itself.
package dataplatform

import "context"

// Record is one entity record returned by the platform.
type Record struct {
	ID     string         `json:"id"`
	Entity string         `json:"entity"`
	Fields map[string]any `json:"fields"`
}

// RecordClient is the record CRUD surface of the data platform. Consumed as
// an opaque request/response client; implementations live in the host.
type RecordClient interface {
	Create(ctx context.Context, entity string, fields map[string]any) (string, error)
	Get(ctx context.Context, entity, id string) (*Record, error)
	Update(ctx context.Context, entity, id string, fields map[string]any) error
	Delete(ctx context.Context, entity, id string) error
	Query(ctx context.Context, entity string, q Query) ([]Record, error)
}

// FileClient attaches uploaded documents to platform records.
type FileClient interface {
	Upload(ctx context.Context, entity, id, name string, contentType string, data []byte) error
}

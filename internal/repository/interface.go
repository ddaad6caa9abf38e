package repository

import (
	"context"
	"errors"

	"automation-console/backend/pkg/models"
)

// ErrNotFound is returned when no row matches the requested id.
var ErrNotFound = errors.New("record not found")

// Filter is a set of column = value conditions joined with AND. Keys must be
// column names of the collection's record type.
type Filter map[string]any

// Records is the typed request/response client for one collection. There is no
// caching, no retrying and no transaction spanning calls.
type Records[T models.Record] interface {
	// Select returns every row matching the filter in the collection order.
	Select(ctx context.Context, filter Filter) ([]T, error)
	// Take returns at most limit rows in the collection order.
	Take(ctx context.Context, limit int) ([]T, error)
	// Get retrieves a row by its ID.
	Get(ctx context.Context, id string) (*T, error)
	// Insert stores a new row. The record must carry its ID.
	Insert(ctx context.Context, rec *T) error
	// Update replaces an existing row.
	Update(ctx context.Context, rec *T) error
	// Upsert inserts the row or replaces the one with the same ID.
	Upsert(ctx context.Context, rec *T) error
	// Delete removes a row by its ID.
	Delete(ctx context.Context, id string) error
	// Count returns the number of rows matching the filter.
	Count(ctx context.Context, filter Filter) (int, error)
}

// Collections dispatches untyped reads by collection name. It backs the
// component catalog, the dashboards and the dataset scan of a webhook sync.
type Collections interface {
	// SelectComponents reads a component collection and normalizes its rows.
	SelectComponents(ctx context.Context, collection models.Collection, filter Filter) ([]models.Component, error)
	// Count returns the number of rows of collection matching the filter.
	Count(ctx context.Context, collection models.Collection, filter Filter) (int, error)
	// SampleItems returns at most limit rows of collection as JSON objects.
	SampleItems(ctx context.Context, collection models.Collection, limit int) ([]map[string]any, error)
	// Ping checks the store is reachable.
	Ping(ctx context.Context) error
}

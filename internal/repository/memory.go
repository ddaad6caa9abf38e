package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"automation-console/backend/internal/metrics"
	"automation-console/backend/pkg/models"
)

// MemoryTable is an in-process implementation of Records. It backs the
// memory store driver used for local development and tests.
type MemoryTable[T models.Record] struct {
	mu    sync.RWMutex
	name  models.Collection
	order string
	cols  []column
	rows  map[string]T
}

// NewMemoryTable creates an empty MemoryTable ordered by the order column.
func NewMemoryTable[T models.Record](name models.Collection, order string) *MemoryTable[T] {
	return &MemoryTable[T]{name: name, order: order, cols: columnsOf[T](), rows: make(map[string]T)}
}

// sorted returns copies of the rows accepted by keep, in collection order.
func (t *MemoryTable[T]) sorted(keep func(T) bool) ([]T, error) {
	out := make([]T, 0, len(t.rows))
	for _, rec := range t.rows {
		if keep != nil && !keep(rec) {
			continue
		}
		cp, err := clone(rec)
		if err != nil {
			return nil, fmt.Errorf("copy %s: %w", t.name, err)
		}
		out = append(out, cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := compare(fieldValue(out[i], t.cols, t.order), fieldValue(out[j], t.cols, t.order))
		if c == 0 {
			return out[i].RecordID() < out[j].RecordID()
		}
		return c < 0
	})
	return out, nil
}

// Select returns every row matching the filter.
func (t *MemoryTable[T]) Select(ctx context.Context, filter Filter) (out []T, err error) {
	defer func(start time.Time) { metrics.ObserveStore(string(t.name), "select", start, err) }(time.Now())
	if err := validateFilter(t.cols, filter); err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sorted(func(rec T) bool { return matches(rec, t.cols, filter) })
}

// Take returns at most limit rows.
func (t *MemoryTable[T]) Take(ctx context.Context, limit int) (out []T, err error) {
	defer func(start time.Time) { metrics.ObserveStore(string(t.name), "take", start, err) }(time.Now())
	t.mu.RLock()
	defer t.mu.RUnlock()
	out, err = t.sorted(nil)
	if err != nil {
		return nil, err
	}
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Get retrieves a row by its ID.
func (t *MemoryTable[T]) Get(ctx context.Context, id string) (_ *T, err error) {
	defer func(start time.Time) { metrics.ObserveStore(string(t.name), "get", start, err) }(time.Now())
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.rows[id]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", t.name, id, ErrNotFound)
	}
	cp, err := clone(rec)
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

func (t *MemoryTable[T]) put(rec *T) error {
	cp, err := clone(*rec)
	if err != nil {
		return fmt.Errorf("copy %s: %w", t.name, err)
	}
	t.rows[(*rec).RecordID()] = cp
	return nil
}

// Insert stores a new row.
func (t *MemoryTable[T]) Insert(ctx context.Context, rec *T) (err error) {
	defer func(start time.Time) { metrics.ObserveStore(string(t.name), "insert", start, err) }(time.Now())
	id := (*rec).RecordID()
	if id == "" {
		return fmt.Errorf("insert %s: missing id", t.name)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.rows[id]; exists {
		return fmt.Errorf("insert %s: duplicate id %s", t.name, id)
	}
	touch(rec, t.cols, time.Now().UTC(), true)
	return t.put(rec)
}

// Update replaces an existing row, keeping its creation time.
func (t *MemoryTable[T]) Update(ctx context.Context, rec *T) (err error) {
	defer func(start time.Time) { metrics.ObserveStore(string(t.name), "update", start, err) }(time.Now())
	id := (*rec).RecordID()
	t.mu.Lock()
	defer t.mu.Unlock()
	existing, ok := t.rows[id]
	if !ok {
		return fmt.Errorf("%s %s: %w", t.name, id, ErrNotFound)
	}
	keepCreatedAt(rec, existing, t.cols)
	touch(rec, t.cols, time.Now().UTC(), false)
	return t.put(rec)
}

// Upsert inserts the row or replaces the one with the same ID.
func (t *MemoryTable[T]) Upsert(ctx context.Context, rec *T) (err error) {
	defer func(start time.Time) { metrics.ObserveStore(string(t.name), "upsert", start, err) }(time.Now())
	id := (*rec).RecordID()
	if id == "" {
		return fmt.Errorf("upsert %s: missing id", t.name)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.rows[id]; ok {
		keepCreatedAt(rec, existing, t.cols)
	}
	touch(rec, t.cols, time.Now().UTC(), true)
	return t.put(rec)
}

// Delete removes a row by its ID.
func (t *MemoryTable[T]) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { metrics.ObserveStore(string(t.name), "delete", start, err) }(time.Now())
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return fmt.Errorf("%s %s: %w", t.name, id, ErrNotFound)
	}
	delete(t.rows, id)
	return nil
}

// Count returns the number of rows matching the filter.
func (t *MemoryTable[T]) Count(ctx context.Context, filter Filter) (n int, err error) {
	defer func(start time.Time) { metrics.ObserveStore(string(t.name), "count", start, err) }(time.Now())
	if err := validateFilter(t.cols, filter); err != nil {
		return 0, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, rec := range t.rows {
		if matches(rec, t.cols, filter) {
			n++
		}
	}
	return n, nil
}

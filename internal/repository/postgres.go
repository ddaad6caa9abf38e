package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"automation-console/backend/internal/metrics"
	"automation-console/backend/pkg/models"
)

//go:embed schema.sql
var schemaSQL string

// Migrate creates every table the console uses. It is idempotent.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Table is a PostgreSQL implementation of Records for one collection.
type Table[T models.Record] struct {
	db    *pgxpool.Pool
	name  models.Collection
	order string
	cols  []column
}

// NewTable creates a Table reading and writing collection name, ordering
// results by the order column.
func NewTable[T models.Record](db *pgxpool.Pool, name models.Collection, order string) *Table[T] {
	return &Table[T]{db: db, name: name, order: order, cols: columnsOf[T]()}
}

func (t *Table[T]) selectSQL() string {
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(columnNames(t.cols), ", "), t.name)
}

// where builds a deterministic WHERE clause for filter, numbering parameters
// from 1.
func (t *Table[T]) where(filter Filter) (string, []any, error) {
	if err := validateFilter(t.cols, filter); err != nil {
		return "", nil, err
	}
	if len(filter) == 0 {
		return "", nil, nil
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		if filter[k] == nil {
			conds = append(conds, k+" IS NULL")
			continue
		}
		args = append(args, filter[k])
		conds = append(conds, fmt.Sprintf("%s = $%d", k, len(args)))
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// Select returns every row matching the filter.
func (t *Table[T]) Select(ctx context.Context, filter Filter) (out []T, err error) {
	defer func(start time.Time) { metrics.ObserveStore(string(t.name), "select", start, err) }(time.Now())

	where, args, err := t.where(filter)
	if err != nil {
		return nil, err
	}
	rows, err := t.db.Query(ctx, t.selectSQL()+where+" ORDER BY "+t.order, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", t.name, err)
	}
	out, err = pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", t.name, err)
	}
	return out, nil
}

// Take returns at most limit rows.
func (t *Table[T]) Take(ctx context.Context, limit int) (out []T, err error) {
	defer func(start time.Time) { metrics.ObserveStore(string(t.name), "take", start, err) }(time.Now())

	rows, err := t.db.Query(ctx, t.selectSQL()+" ORDER BY "+t.order+" LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", t.name, err)
	}
	out, err = pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", t.name, err)
	}
	return out, nil
}

// Get retrieves a row by its ID.
func (t *Table[T]) Get(ctx context.Context, id string) (_ *T, err error) {
	defer func(start time.Time) { metrics.ObserveStore(string(t.name), "get", start, err) }(time.Now())

	rows, err := t.db.Query(ctx, t.selectSQL()+" WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", t.name, err)
	}
	rec, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[T])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", t.name, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", t.name, err)
	}
	return &rec, nil
}

// Insert stores a new row.
func (t *Table[T]) Insert(ctx context.Context, rec *T) (err error) {
	defer func(start time.Time) { metrics.ObserveStore(string(t.name), "insert", start, err) }(time.Now())

	touch(rec, t.cols, time.Now().UTC(), true)
	names := columnNames(t.cols)
	placeholders := make([]string, len(names))
	for i := range names {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.name, strings.Join(names, ", "), strings.Join(placeholders, ", "))
	if _, err := t.db.Exec(ctx, sql, valuesOf(rec, t.cols)...); err != nil {
		return fmt.Errorf("insert %s: %w", t.name, err)
	}
	return nil
}

// mutable lists the columns an update may overwrite.
func (t *Table[T]) mutable() []column {
	cols := make([]column, 0, len(t.cols))
	for _, c := range t.cols {
		if c.name == "id" || c.name == "created_at" {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

// Update replaces an existing row.
func (t *Table[T]) Update(ctx context.Context, rec *T) (err error) {
	defer func(start time.Time) { metrics.ObserveStore(string(t.name), "update", start, err) }(time.Now())

	touch(rec, t.cols, time.Now().UTC(), false)
	cols := t.mutable()
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", c.name, i+1)
	}
	args := append(valuesOf(rec, cols), (*rec).RecordID())
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", t.name, strings.Join(sets, ", "), len(args))
	tag, err := t.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", t.name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", t.name, (*rec).RecordID(), ErrNotFound)
	}
	return nil
}

// Upsert inserts the row or replaces the one with the same ID.
func (t *Table[T]) Upsert(ctx context.Context, rec *T) (err error) {
	defer func(start time.Time) { metrics.ObserveStore(string(t.name), "upsert", start, err) }(time.Now())

	touch(rec, t.cols, time.Now().UTC(), true)
	names := columnNames(t.cols)
	placeholders := make([]string, len(names))
	for i := range names {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	var sets []string
	for _, c := range t.mutable() {
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", c.name, c.name))
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s",
		t.name, strings.Join(names, ", "), strings.Join(placeholders, ", "), strings.Join(sets, ", "))
	if _, err := t.db.Exec(ctx, sql, valuesOf(rec, t.cols)...); err != nil {
		return fmt.Errorf("upsert %s: %w", t.name, err)
	}
	return nil
}

// Delete removes a row by its ID.
func (t *Table[T]) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { metrics.ObserveStore(string(t.name), "delete", start, err) }(time.Now())

	tag, err := t.db.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", t.name), id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", t.name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", t.name, id, ErrNotFound)
	}
	return nil
}

// Count returns the number of rows matching the filter.
func (t *Table[T]) Count(ctx context.Context, filter Filter) (n int, err error) {
	defer func(start time.Time) { metrics.ObserveStore(string(t.name), "count", start, err) }(time.Now())

	where, args, err := t.where(filter)
	if err != nil {
		return 0, err
	}
	if err := t.db.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM %s%s", t.name, where), args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", t.name, err)
	}
	return n, nil
}

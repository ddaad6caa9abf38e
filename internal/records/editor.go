// Package records implements the shared editor contract of the console's
// record managers: validate a draft, issue exactly one insert or update keyed
// by the presence of an id, then re-fetch the list.
package records

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"automation-console/backend/internal/logging"
	"automation-console/backend/internal/notify"
	"automation-console/backend/internal/repository"
	"automation-console/backend/pkg/models"
)

// ErrNotConfirmed is returned by Delete when the user did not confirm.
var ErrNotConfirmed = errors.New("deletion not confirmed")

// Confirm asks the user to confirm a destructive action.
type Confirm func() bool

// Confirmed is a Confirm that always agrees.
func Confirmed() bool { return true }

// Editor manages the records of one collection.
type Editor[T models.Record] struct {
	table    repository.Records[T]
	label    string
	reporter notify.Reporter
	logger   *logging.Logger
	scope    repository.Filter
	onSaved  []func(context.Context, T, notify.Reporter)
}

// Option configures an Editor.
type Option[T models.Record] func(*Editor[T])

// OnSaved registers a hook that runs after a successful insert or update and
// before the list is re-fetched. Hooks report their own failures.
func OnSaved[T models.Record](hook func(context.Context, T, notify.Reporter)) Option[T] {
	return func(e *Editor[T]) { e.onSaved = append(e.onSaved, hook) }
}

// NewEditor creates an editor over table. label names the record kind in
// notifications, e.g. "CNC machine".
func NewEditor[T models.Record](table repository.Records[T], label string, logger *logging.Logger, opts ...Option[T]) *Editor[T] {
	if logger == nil {
		logger = logging.NewNop()
	}
	e := &Editor[T]{table: table, label: label, reporter: notify.Discard, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// With returns a copy of the editor that reports to reporter.
func (e *Editor[T]) With(reporter notify.Reporter) *Editor[T] {
	c := *e
	c.reporter = reporter
	return &c
}

// Scoped returns a copy of the editor restricted to filter, e.g. the rules of
// one chatbot. Records outside the scope read as not found.
func (e *Editor[T]) Scoped(filter repository.Filter) *Editor[T] {
	c := *e
	c.scope = filter
	return &c
}

// List reads the records in scope. A failure is reported once.
func (e *Editor[T]) List(ctx context.Context) ([]T, error) {
	items, err := e.table.Select(ctx, e.scope)
	if err != nil {
		e.logger.Error("failed to list records", "kind", e.label, "error", err)
		e.reporter.Report(notify.LevelError, fmt.Sprintf("Failed to load %ss", e.label))
		return nil, fmt.Errorf("list %s: %w", e.label, err)
	}
	return items, nil
}

// Get reads one record in scope.
func (e *Editor[T]) Get(ctx context.Context, id string) (*T, error) {
	rec, err := e.table.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", e.label, id, err)
	}
	if len(e.scope) > 0 && !repository.Matches(*rec, e.scope) {
		return nil, fmt.Errorf("get %s %s: %w", e.label, id, repository.ErrNotFound)
	}
	return rec, nil
}

// Submit validates draft and stores it: an insert when its id is empty,
// otherwise an update. The list is re-fetched after the write whatever its
// outcome. An invalid draft never reaches the store.
func (e *Editor[T]) Submit(ctx context.Context, draft T) (T, []T, error) {
	if err := Validate(draft); err != nil {
		e.reporter.Report(notify.LevelError, fmt.Sprintf("Invalid %s: %v", e.label, err))
		return draft, nil, err
	}

	creating := draft.RecordID() == ""
	if creating {
		assignID(&draft, uuid.New().String())
	} else if _, err := e.Get(ctx, draft.RecordID()); err != nil {
		e.reporter.Report(notify.LevelError, fmt.Sprintf("Failed to save %s", e.label))
		return draft, nil, err
	}

	var err error
	if creating {
		err = e.table.Insert(ctx, &draft)
	} else {
		err = e.table.Update(ctx, &draft)
	}

	if err != nil {
		e.logger.Error("failed to save record", "kind", e.label, "id", draft.RecordID(), "error", err)
		e.reporter.Report(notify.LevelError, fmt.Sprintf("Failed to save %s", e.label))
		err = fmt.Errorf("save %s: %w", e.label, err)
	} else {
		verb := "updated"
		if creating {
			verb = "created"
		}
		e.reporter.Report(notify.LevelSuccess, fmt.Sprintf("%s %s", capitalize(e.label), verb))
		for _, hook := range e.onSaved {
			hook(ctx, draft, e.reporter)
		}
	}

	items, listErr := e.List(ctx)
	if err == nil {
		err = listErr
	}
	return draft, items, err
}

// Delete removes the record once confirm agrees, then re-fetches the list.
func (e *Editor[T]) Delete(ctx context.Context, id string, confirm Confirm) ([]T, error) {
	if confirm == nil || !confirm() {
		return nil, ErrNotConfirmed
	}
	if _, err := e.Get(ctx, id); err != nil {
		e.reporter.Report(notify.LevelError, fmt.Sprintf("Failed to delete %s", e.label))
		return nil, err
	}
	if err := e.table.Delete(ctx, id); err != nil {
		e.logger.Error("failed to delete record", "kind", e.label, "id", id, "error", err)
		e.reporter.Report(notify.LevelError, fmt.Sprintf("Failed to delete %s", e.label))
		return nil, fmt.Errorf("delete %s %s: %w", e.label, id, err)
	}
	e.reporter.Report(notify.LevelSuccess, fmt.Sprintf("%s deleted", capitalize(e.label)))
	return e.List(ctx)
}

// WithID returns rec with its ID field set to id.
func WithID[T models.Record](rec T, id string) T {
	assignID(&rec, id)
	return rec
}

// assignID sets the ID field every record type carries.
func assignID[T any](rec *T, id string) {
	f := reflect.ValueOf(rec).Elem().FieldByName("ID")
	if f.IsValid() && f.CanSet() && f.Kind() == reflect.String {
		f.SetString(id)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if c := s[0]; c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + s[1:]
	}
	return s
}

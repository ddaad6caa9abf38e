// Package functions implements the function builder: definitions with their
// inputs, outputs, ordered logic steps and error handling. Steps are data;
// nothing here evaluates them.
package functions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"automation-console/backend/internal/logging"
	"automation-console/backend/internal/notify"
	"automation-console/backend/internal/records"
	"automation-console/backend/internal/repository"
	"automation-console/backend/pkg/models"
)

// ErrFunctionLocked is returned for any change to a locked function other
// than unlocking it.
var ErrFunctionLocked = errors.New("function is locked")

// Tables are the collections the builder writes to.
type Tables struct {
	Definitions   repository.Records[models.FunctionDefinition]
	Inputs        repository.Records[models.FunctionInput]
	Outputs       repository.Records[models.FunctionOutput]
	Steps         repository.Records[models.FunctionLogicStep]
	ErrorHandling repository.Records[models.FunctionErrorHandling]
}

// TablesOf picks the builder collections out of a store.
func TablesOf(store *repository.Store) Tables {
	return Tables{
		Definitions:   store.Functions,
		Inputs:        store.FunctionInputs,
		Outputs:       store.FunctionOutputs,
		Steps:         store.FunctionSteps,
		ErrorHandling: store.FunctionErrorHandling,
	}
}

// Detail is a definition with all of its children.
type Detail struct {
	models.FunctionDefinition
	Inputs        []models.FunctionInput        `json:"inputs"`
	Outputs       []models.FunctionOutput       `json:"outputs"`
	Steps         []models.FunctionLogicStep    `json:"steps"`
	ErrorHandling *models.FunctionErrorHandling `json:"error_handling,omitempty"`
}

// Service manages function definitions.
type Service struct {
	tables   Tables
	logger   *logging.Logger
	reporter notify.Reporter
}

// NewService creates a new Service.
func NewService(tables Tables, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{tables: tables, logger: logger, reporter: notify.Discard}
}

// With returns a copy of the service that reports to r.
func (s *Service) With(r notify.Reporter) *Service {
	c := *s
	c.reporter = r
	return &c
}

// List returns every definition.
func (s *Service) List(ctx context.Context) ([]models.FunctionDefinition, error) {
	defs, err := s.tables.Definitions.Select(ctx, nil)
	if err != nil {
		return nil, s.fail("Failed to load functions", fmt.Errorf("list functions: %w", err))
	}
	return defs, nil
}

// Get returns a definition with its children.
func (s *Service) Get(ctx context.Context, id string) (*Detail, error) {
	def, err := s.tables.Definitions.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get function %s: %w", id, err)
	}
	byFunction := repository.Filter{"function_id": id}

	d := &Detail{FunctionDefinition: *def}
	if d.Inputs, err = s.tables.Inputs.Select(ctx, byFunction); err != nil {
		return nil, fmt.Errorf("list inputs of %s: %w", id, err)
	}
	if d.Outputs, err = s.tables.Outputs.Select(ctx, byFunction); err != nil {
		return nil, fmt.Errorf("list outputs of %s: %w", id, err)
	}
	if d.Steps, err = s.tables.Steps.Select(ctx, byFunction); err != nil {
		return nil, fmt.Errorf("list steps of %s: %w", id, err)
	}
	eh, err := s.tables.ErrorHandling.Get(ctx, id)
	switch {
	case err == nil:
		d.ErrorHandling = eh
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("get error handling of %s: %w", id, err)
	}
	return d, nil
}

// Create stores a new, unlocked definition.
func (s *Service) Create(ctx context.Context, def models.FunctionDefinition) (*models.FunctionDefinition, error) {
	def.ID = uuid.New().String()
	def.Name = strings.TrimSpace(def.Name)
	def.IsLocked = false
	normalizeLists(&def)
	if err := s.check(def); err != nil {
		return nil, err
	}
	if err := s.tables.Definitions.Insert(ctx, &def); err != nil {
		return nil, s.fail("Failed to create function", fmt.Errorf("create function: %w", err))
	}
	s.reporter.Report(notify.LevelSuccess, "Function created")
	return &def, nil
}

// Update replaces the editable fields of an unlocked definition. The lock
// flag only changes through Lock and Unlock.
func (s *Service) Update(ctx context.Context, def models.FunctionDefinition) (*models.FunctionDefinition, error) {
	current, err := s.unlocked(ctx, def.ID)
	if err != nil {
		return nil, err
	}
	def.Name = strings.TrimSpace(def.Name)
	def.IsLocked = current.IsLocked
	normalizeLists(&def)
	if err := s.check(def); err != nil {
		return nil, err
	}
	if err := s.tables.Definitions.Update(ctx, &def); err != nil {
		return nil, s.fail("Failed to update function", fmt.Errorf("update function %s: %w", def.ID, err))
	}
	s.reporter.Report(notify.LevelSuccess, "Function updated")
	return &def, nil
}

// Lock freezes a definition and its children.
func (s *Service) Lock(ctx context.Context, id string) (*models.FunctionDefinition, error) {
	return s.setLocked(ctx, id, true)
}

// Unlock is the only change accepted while a definition is locked.
func (s *Service) Unlock(ctx context.Context, id string) (*models.FunctionDefinition, error) {
	return s.setLocked(ctx, id, false)
}

func (s *Service) setLocked(ctx context.Context, id string, locked bool) (*models.FunctionDefinition, error) {
	def, err := s.tables.Definitions.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get function %s: %w", id, err)
	}
	if def.IsLocked == locked {
		return def, nil
	}
	def.IsLocked = locked
	if err := s.tables.Definitions.Update(ctx, def); err != nil {
		return nil, s.fail("Failed to change function lock", fmt.Errorf("lock function %s: %w", id, err))
	}
	s.logger.Info("function lock changed", "id", id, "locked", locked)
	if locked {
		s.reporter.Report(notify.LevelSuccess, "Function locked")
	} else {
		s.reporter.Report(notify.LevelSuccess, "Function unlocked")
	}
	return def, nil
}

// Delete removes an unlocked definition and its children once confirm
// agrees.
func (s *Service) Delete(ctx context.Context, id string, confirm records.Confirm) error {
	if confirm == nil || !confirm() {
		return records.ErrNotConfirmed
	}
	if _, err := s.unlocked(ctx, id); err != nil {
		return err
	}
	byFunction := repository.Filter{"function_id": id}

	if err := deleteWhere(ctx, s.tables.Steps, byFunction); err != nil {
		return s.fail("Failed to delete function", err)
	}
	if err := deleteWhere(ctx, s.tables.Inputs, byFunction); err != nil {
		return s.fail("Failed to delete function", err)
	}
	if err := deleteWhere(ctx, s.tables.Outputs, byFunction); err != nil {
		return s.fail("Failed to delete function", err)
	}
	if err := deleteWhere(ctx, s.tables.ErrorHandling, byFunction); err != nil {
		return s.fail("Failed to delete function", err)
	}
	if err := s.tables.Definitions.Delete(ctx, id); err != nil {
		return s.fail("Failed to delete function", fmt.Errorf("delete function %s: %w", id, err))
	}
	s.reporter.Report(notify.LevelSuccess, "Function deleted")
	return nil
}

// unlocked is the lock gate every mutation of a function or its children
// passes through.
func (s *Service) unlocked(ctx context.Context, functionID string) (*models.FunctionDefinition, error) {
	if functionID == "" {
		return nil, models.ValidationErrors{{Field: "function_id", Message: "is required"}}
	}
	def, err := s.tables.Definitions.Get(ctx, functionID)
	if err != nil {
		return nil, fmt.Errorf("get function %s: %w", functionID, err)
	}
	if def.IsLocked {
		s.reporter.Report(notify.LevelWarning, fmt.Sprintf("Function %q is locked", def.Name))
		return nil, fmt.Errorf("%w: %s", ErrFunctionLocked, functionID)
	}
	return def, nil
}

// check runs tag validation and reports a failure once.
func (s *Service) check(rec any, extra ...models.FieldError) error {
	var verrs models.ValidationErrors
	if err := records.Validate(rec); err != nil && !errors.As(err, &verrs) {
		return err
	}
	verrs = append(verrs, extra...)
	if err := verrs.OrNil(); err != nil {
		s.reporter.Report(notify.LevelError, err.Error())
		return err
	}
	return nil
}

func (s *Service) fail(message string, err error) error {
	s.logger.Error(message, "error", err)
	s.reporter.Report(notify.LevelError, message)
	return err
}

func deleteWhere[T models.Record](ctx context.Context, table repository.Records[T], filter repository.Filter) error {
	rows, err := table.Select(ctx, filter)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := table.Delete(ctx, row.RecordID()); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}
	return nil
}

func normalizeLists(def *models.FunctionDefinition) {
	if def.Tags == nil {
		def.Tags = []string{}
	}
	if def.EditableBy == nil {
		def.EditableBy = []string{}
	}
}

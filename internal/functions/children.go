package functions

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"automation-console/backend/internal/notify"
	"automation-console/backend/internal/repository"
	"automation-console/backend/pkg/models"
)

// SaveInput inserts the input when it has no id, otherwise updates it.
// Input names are unique within a function.
func (s *Service) SaveInput(ctx context.Context, in models.FunctionInput) (*models.FunctionInput, error) {
	if _, err := s.unlocked(ctx, in.FunctionID); err != nil {
		return nil, err
	}
	if err := ownedBy(ctx, s.tables.Inputs, inputFunction, in.FunctionID, in.ID, "input"); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)

	siblings, err := s.tables.Inputs.Select(ctx, repository.Filter{"function_id": in.FunctionID})
	if err != nil {
		return nil, s.fail("Failed to save input", fmt.Errorf("list inputs: %w", err))
	}
	var extra []models.FieldError
	for _, other := range siblings {
		if other.ID != in.ID && other.Name == in.Name {
			extra = append(extra, models.FieldError{Field: "name", Message: fmt.Sprintf("input %q already exists", in.Name)})
		}
	}
	if err := s.check(in, extra...); err != nil {
		return nil, err
	}
	if err := save(ctx, s.tables.Inputs, &in); err != nil {
		return nil, s.fail("Failed to save input", fmt.Errorf("save input: %w", err))
	}
	s.reporter.Report(notify.LevelSuccess, "Input saved")
	return &in, nil
}

// DeleteInput removes an input of an unlocked function.
func (s *Service) DeleteInput(ctx context.Context, functionID, id string) error {
	return deleteChild(ctx, s, s.tables.Inputs, inputFunction, functionID, id, "input")
}

// SaveOutput inserts the output when it has no id, otherwise updates it.
func (s *Service) SaveOutput(ctx context.Context, out models.FunctionOutput) (*models.FunctionOutput, error) {
	if _, err := s.unlocked(ctx, out.FunctionID); err != nil {
		return nil, err
	}
	if err := ownedBy(ctx, s.tables.Outputs, outputFunction, out.FunctionID, out.ID, "output"); err != nil {
		return nil, err
	}
	out.Name = strings.TrimSpace(out.Name)
	if err := s.check(out); err != nil {
		return nil, err
	}
	if err := save(ctx, s.tables.Outputs, &out); err != nil {
		return nil, s.fail("Failed to save output", fmt.Errorf("save output: %w", err))
	}
	s.reporter.Report(notify.LevelSuccess, "Output saved")
	return &out, nil
}

// DeleteOutput removes an output of an unlocked function.
func (s *Service) DeleteOutput(ctx context.Context, functionID, id string) error {
	return deleteChild(ctx, s, s.tables.Outputs, outputFunction, functionID, id, "output")
}

// SaveStep inserts the step when it has no id, otherwise updates it. The
// step_id must be unique within the function and every mapping must refer to
// an existing input or to an output of an earlier step.
func (s *Service) SaveStep(ctx context.Context, step models.FunctionLogicStep) (*models.FunctionLogicStep, error) {
	if _, err := s.unlocked(ctx, step.FunctionID); err != nil {
		return nil, err
	}
	if err := ownedBy(ctx, s.tables.Steps, stepFunction, step.FunctionID, step.ID, "step"); err != nil {
		return nil, err
	}
	step.StepID = strings.TrimSpace(step.StepID)
	normalizeStep(&step)

	extra, err := s.stepProblems(ctx, step)
	if err != nil {
		return nil, s.fail("Failed to save step", err)
	}
	if err := s.check(step, extra...); err != nil {
		return nil, err
	}
	if err := save(ctx, s.tables.Steps, &step); err != nil {
		return nil, s.fail("Failed to save step", fmt.Errorf("save step: %w", err))
	}
	s.reporter.Report(notify.LevelSuccess, "Step saved")
	return &step, nil
}

// DeleteStep removes a logic step of an unlocked function. Mappings of later
// steps that used it show up in MappingIssues.
func (s *Service) DeleteStep(ctx context.Context, functionID, id string) error {
	return deleteChild(ctx, s, s.tables.Steps, stepFunction, functionID, id, "step")
}

// SaveErrorHandling creates or replaces the error handling of a function.
func (s *Service) SaveErrorHandling(ctx context.Context, eh models.FunctionErrorHandling) (*models.FunctionErrorHandling, error) {
	if _, err := s.unlocked(ctx, eh.FunctionID); err != nil {
		return nil, err
	}
	eh.ID = eh.FunctionID
	if err := s.check(eh); err != nil {
		return nil, err
	}
	if err := s.tables.ErrorHandling.Upsert(ctx, &eh); err != nil {
		return nil, s.fail("Failed to save error handling", fmt.Errorf("save error handling: %w", err))
	}
	s.reporter.Report(notify.LevelSuccess, "Error handling saved")
	return &eh, nil
}

func save[T models.Record](ctx context.Context, table repository.Records[T], rec *T) error {
	if (*rec).RecordID() == "" {
		setID(rec, uuid.New().String())
		return table.Insert(ctx, rec)
	}
	return table.Update(ctx, rec)
}

// setID assigns a fresh id to one of the child record types.
func setID[T any](rec *T, id string) {
	switch r := any(rec).(type) {
	case *models.FunctionInput:
		r.ID = id
	case *models.FunctionOutput:
		r.ID = id
	case *models.FunctionLogicStep:
		r.ID = id
	}
}

func deleteChild[T models.Record](ctx context.Context, s *Service, table repository.Records[T], functionOf func(T) string, functionID, id, label string) error {
	if _, err := s.unlocked(ctx, functionID); err != nil {
		return err
	}
	if err := ownedBy(ctx, table, functionOf, functionID, id, label); err != nil {
		return err
	}
	if err := table.Delete(ctx, id); err != nil {
		return s.fail(fmt.Sprintf("Failed to delete %s", label), fmt.Errorf("delete %s %s: %w", label, id, err))
	}
	s.reporter.Report(notify.LevelSuccess, fmt.Sprintf("Deleted %s", label))
	return nil
}

func inputFunction(in models.FunctionInput) string    { return in.FunctionID }
func outputFunction(out models.FunctionOutput) string { return out.FunctionID }
func stepFunction(st models.FunctionLogicStep) string { return st.FunctionID }

// ownedBy checks that the stored child id belongs to functionID. Children of
// another function read as not found, so the lock gate of the function named
// in the request also covers the stored row. An empty id is a new child.
func ownedBy[T models.Record](ctx context.Context, table repository.Records[T], functionOf func(T) string, functionID, id, label string) error {
	if id == "" {
		return nil
	}
	rec, err := table.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get %s %s: %w", label, id, err)
	}
	if functionOf(*rec) != functionID {
		return fmt.Errorf("get %s %s: %w", label, id, repository.ErrNotFound)
	}
	return nil
}

func normalizeStep(step *models.FunctionLogicStep) {
	if step.InputMappings == nil {
		step.InputMappings = []models.InputMapping{}
	}
	if step.FixedVariables == nil {
		step.FixedVariables = []models.FixedVariable{}
	}
	if step.OutputVariables == nil {
		step.OutputVariables = []models.OutputVariable{}
	}
	if step.StepOutputMappings == nil {
		step.StepOutputMappings = []models.StepOutputMapping{}
	}
}

package functions

import (
	"context"
	"fmt"
	"sort"

	"automation-console/backend/internal/repository"
	"automation-console/backend/pkg/models"
)

// Candidate is an earlier step whose outputs a step may map from.
type Candidate struct {
	StepID   string   `json:"step_id"`
	StepType string   `json:"step_type"`
	Position int      `json:"position"`
	Outputs  []string `json:"outputs"`
}

// Issue is a mapping that no longer resolves.
type Issue struct {
	StepID  string `json:"step_id"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// MappingCandidates lists the steps of a function positioned strictly before
// position, each with the names of its current output variables.
func (s *Service) MappingCandidates(ctx context.Context, functionID string, position int) ([]Candidate, error) {
	steps, err := s.tables.Steps.Select(ctx, repository.Filter{"function_id": functionID})
	if err != nil {
		return nil, fmt.Errorf("list steps of %s: %w", functionID, err)
	}
	return candidates(steps, position, ""), nil
}

// MappingIssues audits every step of a function against its current inputs
// and the outputs of earlier steps.
func (s *Service) MappingIssues(ctx context.Context, functionID string) ([]Issue, error) {
	byFunction := repository.Filter{"function_id": functionID}
	steps, err := s.tables.Steps.Select(ctx, byFunction)
	if err != nil {
		return nil, fmt.Errorf("list steps of %s: %w", functionID, err)
	}
	inputs, err := s.tables.Inputs.Select(ctx, byFunction)
	if err != nil {
		return nil, fmt.Errorf("list inputs of %s: %w", functionID, err)
	}

	issues := []Issue{}
	for _, step := range steps {
		for _, fe := range mappingProblems(step, inputs, steps) {
			issues = append(issues, Issue{StepID: step.StepID, Field: fe.Field, Message: fe.Message})
		}
	}
	return issues, nil
}

// stepProblems collects what would make step invalid next to its siblings.
func (s *Service) stepProblems(ctx context.Context, step models.FunctionLogicStep) ([]models.FieldError, error) {
	byFunction := repository.Filter{"function_id": step.FunctionID}
	steps, err := s.tables.Steps.Select(ctx, byFunction)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	inputs, err := s.tables.Inputs.Select(ctx, byFunction)
	if err != nil {
		return nil, fmt.Errorf("list inputs: %w", err)
	}

	var problems []models.FieldError
	for _, other := range steps {
		if other.ID != step.ID && step.StepID != "" && other.StepID == step.StepID {
			problems = append(problems, models.FieldError{
				Field:   "step_id",
				Message: fmt.Sprintf("step %q already exists in this function", step.StepID),
			})
		}
	}
	seen := map[string]bool{}
	for i, v := range step.OutputVariables {
		field := fmt.Sprintf("output_variables[%d].name", i)
		switch {
		case v.Name == "":
			problems = append(problems, models.FieldError{Field: field, Message: "is required"})
		case seen[v.Name]:
			problems = append(problems, models.FieldError{Field: field, Message: fmt.Sprintf("duplicate output %q", v.Name)})
		}
		seen[v.Name] = true
	}
	return append(problems, mappingProblems(step, inputs, steps)...), nil
}

// mappingProblems checks the input mappings of step against inputs and its
// step output mappings against the earlier entries of steps. step itself is
// never a valid source.
func mappingProblems(step models.FunctionLogicStep, inputs []models.FunctionInput, steps []models.FunctionLogicStep) []models.FieldError {
	var problems []models.FieldError

	inputNames := map[string]bool{}
	for _, in := range inputs {
		inputNames[in.Name] = true
	}
	for i, m := range step.InputMappings {
		if !inputNames[m.InputName] {
			problems = append(problems, models.FieldError{
				Field:   fmt.Sprintf("input_mappings[%d].input_name", i),
				Message: fmt.Sprintf("unknown input %q", m.InputName),
			})
		}
	}

	earlier := map[string][]string{}
	for _, c := range candidates(steps, step.Position, step.ID) {
		earlier[c.StepID] = c.Outputs
	}
	for i, m := range step.StepOutputMappings {
		outputs, ok := earlier[m.SourceStepID]
		if !ok {
			problems = append(problems, models.FieldError{
				Field:   fmt.Sprintf("step_output_mappings[%d].source_step_id", i),
				Message: fmt.Sprintf("%q is not an earlier step", m.SourceStepID),
			})
			continue
		}
		if !contains(outputs, m.SourceOutput) {
			problems = append(problems, models.FieldError{
				Field:   fmt.Sprintf("step_output_mappings[%d].source_output", i),
				Message: fmt.Sprintf("step %q has no output %q", m.SourceStepID, m.SourceOutput),
			})
		}
	}
	return problems
}

// candidates returns the steps before position, excluding the record
// excludeID, ordered by position.
func candidates(steps []models.FunctionLogicStep, position int, excludeID string) []Candidate {
	out := []Candidate{}
	for _, st := range steps {
		if st.Position >= position || (excludeID != "" && st.ID == excludeID) {
			continue
		}
		out = append(out, Candidate{
			StepID:   st.StepID,
			StepType: string(st.StepType),
			Position: st.Position,
			Outputs:  st.OutputNames(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

package functions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"automation-console/backend/internal/notify"
	"automation-console/backend/internal/records"
	"automation-console/backend/internal/repository"
	"automation-console/backend/pkg/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(TablesOf(repository.NewMemoryStore()), nil)
}

func createFunction(t *testing.T, svc *Service) *models.FunctionDefinition {
	t.Helper()
	def, err := svc.Create(context.Background(), models.FunctionDefinition{
		Name:     "Normalize order",
		Category: models.CategoryTransformation,
	})
	require.NoError(t, err)
	return def
}

func step(functionID, stepID string, position int, outputs ...string) models.FunctionLogicStep {
	st := models.FunctionLogicStep{
		FunctionID: functionID,
		StepID:     stepID,
		StepType:   models.StepCalculation,
		Position:   position,
	}
	for _, name := range outputs {
		st.OutputVariables = append(st.OutputVariables, models.OutputVariable{Name: name, Type: "number"})
	}
	return st
}

func TestCreate(t *testing.T) {
	svc := newTestService(t)
	def := createFunction(t, svc)
	assert.NotEmpty(t, def.ID)
	assert.False(t, def.IsLocked)
	assert.Equal(t, []string{}, def.Tags)

	_, err := svc.Create(context.Background(), models.FunctionDefinition{Name: "x", Category: "alchemy"})
	var verrs models.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestLockGate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	def := createFunction(t, svc)

	in, err := svc.SaveInput(ctx, models.FunctionInput{FunctionID: def.ID, Name: "qty", DataType: models.DataNumber, Source: models.SourceUserInput})
	require.NoError(t, err)

	locked, err := svc.Lock(ctx, def.ID)
	require.NoError(t, err)
	assert.True(t, locked.IsLocked)

	rec := notify.NewRecorder(nil)
	lockedSvc := svc.With(rec)

	edited := *def
	edited.Description = "changed"
	_, err = lockedSvc.Update(ctx, edited)
	assert.ErrorIs(t, err, ErrFunctionLocked)

	_, err = lockedSvc.SaveInput(ctx, models.FunctionInput{FunctionID: def.ID, Name: "price", DataType: models.DataNumber, Source: models.SourceUserInput})
	assert.ErrorIs(t, err, ErrFunctionLocked)
	_, err = lockedSvc.SaveOutput(ctx, models.FunctionOutput{FunctionID: def.ID, Name: "total", DataType: models.DataNumber})
	assert.ErrorIs(t, err, ErrFunctionLocked)
	_, err = lockedSvc.SaveStep(ctx, step(def.ID, "s1", 0))
	assert.ErrorIs(t, err, ErrFunctionLocked)
	_, err = lockedSvc.SaveErrorHandling(ctx, models.FunctionErrorHandling{FunctionID: def.ID, RetryStrategy: models.RetryNone, TimeoutBehavior: models.TimeoutAbort})
	assert.ErrorIs(t, err, ErrFunctionLocked)
	assert.ErrorIs(t, lockedSvc.DeleteInput(ctx, def.ID, in.ID), ErrFunctionLocked)
	assert.ErrorIs(t, lockedSvc.Delete(ctx, def.ID, records.Confirmed), ErrFunctionLocked)

	for _, n := range rec.Notices() {
		assert.Equal(t, notify.LevelWarning, n.Level)
	}

	detail, err := svc.Get(ctx, def.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Inputs, 1)
	assert.Empty(t, detail.Outputs)
	assert.Empty(t, detail.Steps)
	assert.Nil(t, detail.ErrorHandling)
	assert.Empty(t, detail.Description)

	unlocked, err := svc.Unlock(ctx, def.ID)
	require.NoError(t, err)
	assert.False(t, unlocked.IsLocked)
	_, err = svc.Update(ctx, edited)
	assert.NoError(t, err)
}

func TestLockGate_ChildAddressedThroughOtherFunction(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	locked := createFunction(t, svc)
	other, err := svc.Create(ctx, models.FunctionDefinition{Name: "Other", Category: models.CategoryTransformation})
	require.NoError(t, err)

	in, err := svc.SaveInput(ctx, models.FunctionInput{FunctionID: locked.ID, Name: "qty", DataType: models.DataNumber, Source: models.SourceUserInput})
	require.NoError(t, err)
	out, err := svc.SaveOutput(ctx, models.FunctionOutput{FunctionID: locked.ID, Name: "total", DataType: models.DataNumber})
	require.NoError(t, err)
	st, err := svc.SaveStep(ctx, step(locked.ID, "s1", 0))
	require.NoError(t, err)
	_, err = svc.Lock(ctx, locked.ID)
	require.NoError(t, err)

	movedIn := *in
	movedIn.FunctionID = other.ID
	movedIn.Name = "hijacked"
	_, err = svc.SaveInput(ctx, movedIn)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	movedOut := *out
	movedOut.FunctionID = other.ID
	_, err = svc.SaveOutput(ctx, movedOut)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	movedStep := *st
	movedStep.FunctionID = other.ID
	_, err = svc.SaveStep(ctx, movedStep)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.ErrorIs(t, svc.DeleteInput(ctx, other.ID, in.ID), repository.ErrNotFound)

	detail, err := svc.Get(ctx, locked.ID)
	require.NoError(t, err)
	require.Len(t, detail.Inputs, 1)
	assert.Equal(t, "qty", detail.Inputs[0].Name)
	assert.Len(t, detail.Outputs, 1)
	assert.Len(t, detail.Steps, 1)

	otherDetail, err := svc.Get(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, otherDetail.Inputs)
}

func TestMappingCandidates(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	def := createFunction(t, svc)

	_, err := svc.SaveStep(ctx, step(def.ID, "load", 0, "rows"))
	require.NoError(t, err)
	_, err = svc.SaveStep(ctx, step(def.ID, "sum", 1, "total", "count"))
	require.NoError(t, err)
	_, err = svc.SaveStep(ctx, step(def.ID, "emit", 2))
	require.NoError(t, err)

	cands, err := svc.MappingCandidates(ctx, def.ID, 2)
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, "load", cands[0].StepID)
	assert.Equal(t, []string{"rows"}, cands[0].Outputs)
	assert.Equal(t, "sum", cands[1].StepID)
	assert.Equal(t, []string{"total", "count"}, cands[1].Outputs)

	cands, err = svc.MappingCandidates(ctx, def.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestSaveStep_ValidatesMappings(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	def := createFunction(t, svc)

	_, err := svc.SaveInput(ctx, models.FunctionInput{FunctionID: def.ID, Name: "qty", DataType: models.DataNumber, Source: models.SourceUserInput})
	require.NoError(t, err)
	first, err := svc.SaveStep(ctx, step(def.ID, "first", 0, "x"))
	require.NoError(t, err)

	good := step(def.ID, "second", 1)
	good.InputMappings = []models.InputMapping{{InputName: "qty", StepVariable: "q"}}
	good.StepOutputMappings = []models.StepOutputMapping{{SourceStepID: "first", SourceOutput: "x", TargetVariable: "x"}}
	second, err := svc.SaveStep(ctx, good)
	require.NoError(t, err)

	bad := step(def.ID, "third", 2)
	bad.InputMappings = []models.InputMapping{{InputName: "missing"}}
	bad.StepOutputMappings = []models.StepOutputMapping{
		{SourceStepID: "first", SourceOutput: "nope"},
		{SourceStepID: "later", SourceOutput: "x"},
	}
	_, err = svc.SaveStep(ctx, bad)
	var verrs models.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 3)

	dup := step(def.ID, "first", 3)
	_, err = svc.SaveStep(ctx, dup)
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "step_id", verrs[0].Field)

	// a step never maps from itself, even when moved after its own position
	self := *second
	self.StepOutputMappings = []models.StepOutputMapping{{SourceStepID: "second", SourceOutput: "x"}}
	_, err = svc.SaveStep(ctx, self)
	require.ErrorAs(t, err, &verrs)

	// removing the output orphans the mapping of the later step
	first.OutputVariables = nil
	_, err = svc.SaveStep(ctx, *first)
	require.NoError(t, err)

	issues, err := svc.MappingIssues(ctx, def.ID)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "second", issues[0].StepID)
	assert.Equal(t, "step_output_mappings[0].source_output", issues[0].Field)
}

func TestErrorHandlingUpsert(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	def := createFunction(t, svc)

	eh := models.FunctionErrorHandling{FunctionID: def.ID, RetryStrategy: models.RetryFixed, MaxRetries: 3, TimeoutBehavior: models.TimeoutRetry}
	saved, err := svc.SaveErrorHandling(ctx, eh)
	require.NoError(t, err)
	assert.Equal(t, def.ID, saved.ID)

	eh.RetryStrategy = models.RetryExponential
	_, err = svc.SaveErrorHandling(ctx, eh)
	require.NoError(t, err)

	detail, err := svc.Get(ctx, def.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.ErrorHandling)
	assert.Equal(t, models.RetryExponential, detail.ErrorHandling.RetryStrategy)
}

func TestDelete_RemovesChildren(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewService(TablesOf(store), nil)
	def := createFunction(t, svc)

	_, err := svc.SaveInput(ctx, models.FunctionInput{FunctionID: def.ID, Name: "qty", DataType: models.DataNumber, Source: models.SourceUserInput})
	require.NoError(t, err)
	_, err = svc.SaveStep(ctx, step(def.ID, "s", 0))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, def.ID, nil), records.ErrNotConfirmed)
	require.NoError(t, svc.Delete(ctx, def.ID, records.Confirmed))

	n, err := store.FunctionInputs.Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = store.FunctionSteps.Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = svc.Get(ctx, def.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

package records

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"automation-console/backend/internal/notify"
	"automation-console/backend/internal/repository"
	"automation-console/backend/pkg/models"
)

type mockChatbots struct {
	mock.Mock
}

func (m *mockChatbots) Select(ctx context.Context, filter repository.Filter) ([]models.Chatbot, error) {
	args := m.Called(ctx, filter)
	items, _ := args.Get(0).([]models.Chatbot)
	return items, args.Error(1)
}

func (m *mockChatbots) Take(ctx context.Context, limit int) ([]models.Chatbot, error) {
	args := m.Called(ctx, limit)
	items, _ := args.Get(0).([]models.Chatbot)
	return items, args.Error(1)
}

func (m *mockChatbots) Get(ctx context.Context, id string) (*models.Chatbot, error) {
	args := m.Called(ctx, id)
	rec, _ := args.Get(0).(*models.Chatbot)
	return rec, args.Error(1)
}

func (m *mockChatbots) Insert(ctx context.Context, rec *models.Chatbot) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *mockChatbots) Update(ctx context.Context, rec *models.Chatbot) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *mockChatbots) Upsert(ctx context.Context, rec *models.Chatbot) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *mockChatbots) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockChatbots) Count(ctx context.Context, filter repository.Filter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func validChatbot() models.Chatbot {
	return models.Chatbot{
		Name:        "Helpdesk",
		ModelType:   "customer_support",
		ModelName:   "gpt-4o",
		Temperature: 0.7,
		MaxTokens:   1024,
		Status:      "active",
	}
}

func TestSubmit_RejectsUnknownModelTypeWithoutStoreCall(t *testing.T) {
	table := new(mockChatbots)
	rec := notify.NewRecorder(nil)
	editor := NewEditor[models.Chatbot](table, "chatbot", nil).With(rec)

	draft := validChatbot()
	draft.ModelType = "fortune_teller"

	_, _, err := editor.Submit(context.Background(), draft)

	var verrs models.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 1)
	assert.Equal(t, "model_type", verrs[0].Field)

	notices := rec.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, notify.LevelError, notices[0].Level)
	table.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	table.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	table.AssertNotCalled(t, "Select", mock.Anything, mock.Anything)
}

func TestSubmit_AcceptsEveryAllowedModelType(t *testing.T) {
	for _, modelType := range models.ChatbotModelTypes {
		draft := validChatbot()
		draft.ModelType = modelType
		assert.NoError(t, Validate(draft), modelType)
	}
}

func TestSubmit_InsertOrUpdateByID(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	var hooked []string
	editor := NewEditor(store.Chatbots, "chatbot", nil, OnSaved(func(_ context.Context, c models.Chatbot, _ notify.Reporter) {
		hooked = append(hooked, c.ID)
	}))

	created, items, err := editor.Submit(ctx, validChatbot())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Len(t, items, 1)

	created.Name = "Helpdesk v2"
	updated, items, err := editor.Submit(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	require.Len(t, items, 1)
	assert.Equal(t, "Helpdesk v2", items[0].Name)
	assert.Equal(t, []string{created.ID, created.ID}, hooked)
}

func TestSubmit_RefetchesAfterFailedWrite(t *testing.T) {
	table := new(mockChatbots)
	rec := notify.NewRecorder(nil)
	editor := NewEditor[models.Chatbot](table, "chatbot", nil).With(rec)

	draft := validChatbot()
	draft.ID = "c-1"
	existing := []models.Chatbot{draft}
	table.On("Get", mock.Anything, "c-1").Return(&draft, nil)
	table.On("Update", mock.Anything, mock.Anything).Return(errors.New("connection reset"))
	table.On("Select", mock.Anything, repository.Filter(nil)).Return(existing, nil)

	_, items, err := editor.Submit(context.Background(), draft)
	require.Error(t, err)
	assert.Equal(t, existing, items)
	table.AssertNumberOfCalls(t, "Update", 1)
	table.AssertNumberOfCalls(t, "Select", 1)

	notices := rec.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, notify.LevelError, notices[0].Level)
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	editor := NewEditor(store.Chatbots, "chatbot", nil)

	created, _, err := editor.Submit(ctx, validChatbot())
	require.NoError(t, err)

	_, err = editor.Delete(ctx, created.ID, func() bool { return false })
	assert.ErrorIs(t, err, ErrNotConfirmed)
	_, err = editor.Delete(ctx, created.ID, nil)
	assert.ErrorIs(t, err, ErrNotConfirmed)

	items, err := editor.Delete(ctx, created.ID, Confirmed)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = editor.Delete(ctx, created.ID, Confirmed)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestScoped_ListsOnlyScope(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	rules := NewEditor(store.ChatbotRules, "rule", nil)

	for _, chatbotID := range []string{"a", "a", "b"} {
		_, _, err := rules.Scoped(repository.Filter{"chatbot_id": chatbotID}).Submit(ctx, models.ChatbotRule{
			ChatbotID:     chatbotID,
			Name:          "greet",
			ConditionType: models.ConditionKeyword,
			ActionType:    models.ActionResponse,
		})
		require.NoError(t, err)
	}

	items, err := rules.Scoped(repository.Filter{"chatbot_id": "a"}).List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestScoped_HidesRecordsOutsideScope(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	rules := NewEditor(store.ChatbotRules, "rule", nil)
	ofA := rules.Scoped(repository.Filter{"chatbot_id": "a"})
	rec := notify.NewRecorder(nil)
	ofB := rules.Scoped(repository.Filter{"chatbot_id": "b"}).With(rec)

	created, _, err := ofA.Submit(ctx, models.ChatbotRule{
		ChatbotID:     "a",
		Name:          "greet",
		ConditionType: models.ConditionKeyword,
		ActionType:    models.ActionResponse,
	})
	require.NoError(t, err)

	_, err = ofB.Get(ctx, created.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	moved := created
	moved.ChatbotID = "b"
	moved.Name = "taken"
	_, _, err = ofB.Submit(ctx, moved)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = ofB.Delete(ctx, created.ID, Confirmed)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	for _, n := range rec.Notices() {
		assert.Equal(t, notify.LevelError, n.Level)
	}

	stored, err := ofA.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", stored.ChatbotID)
	assert.Equal(t, "greet", stored.Name)
}

func TestValidate_FieldMessages(t *testing.T) {
	err := Validate(models.Conveyor{Name: "", Speed: 500, Direction: "sideways", Status: models.ConveyorRunning})
	var verrs models.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	byField := map[string]string{}
	for _, fe := range verrs {
		byField[fe.Field] = fe.Message
	}
	assert.Equal(t, "is required", byField["name"])
	assert.Equal(t, "must be at most 100", byField["speed"])
	assert.Contains(t, byField["direction"], "must be one of")
}

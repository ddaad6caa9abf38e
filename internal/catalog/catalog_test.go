package catalog

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

type MockCollections struct {
	mock.Mock
}

func (m *MockCollections) SelectComponents(ctx context.Context, c models.Collection, f repository.Filter) ([]models.Component, error) {
	args := m.Called(ctx, c, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Component), args.Error(1)
}

func (m *MockCollections) Count(ctx context.Context, c models.Collection, f repository.Filter) (int, error) {
	args := m.Called(ctx, c, f)
	return args.Int(0), args.Error(1)
}

func (m *MockCollections) SampleItems(ctx context.Context, c models.Collection, limit int) ([]map[string]any, error) {
	return nil, nil
}

func (m *MockCollections) Ping(ctx context.Context) error { return nil }

func TestList_UnknownKeyIsEmptyWithoutCall(t *testing.T) {
	store := new(MockCollections)
	rec := notify.NewRecorder(nil)
	c := New(store, rec)

	comps := c.List(context.Background(), "flux_capacitor", "")
	assert.NotNil(t, comps)
	assert.Empty(t, comps)
	assert.Empty(t, rec.Notices())
	store.AssertNotCalled(t, "SelectComponents", mock.Anything, mock.Anything, mock.Anything)
}

func TestList_VisionSystemAppliesStaticFilter(t *testing.T) {
	store := new(MockCollections)
	want := []models.Component{{ID: "v1", Name: "Cam"}}
	store.On("SelectComponents", mock.Anything, models.CollectionHardware, repository.Filter{"type": "vision_system"}).Return(want, nil)

	got := New(store, nil).List(context.Background(), "vision_system", "ignored")
	assert.Equal(t, want, got)
	store.AssertExpectations(t)
}

func TestList_SubFilterOnlyForAIModels(t *testing.T) {
	store := new(MockCollections)
	store.On("SelectComponents", mock.Anything, models.CollectionAIModels, repository.Filter{"type": "vision"}).Return([]models.Component{}, nil)
	store.On("SelectComponents", mock.Anything, models.CollectionCNCMachines, repository.Filter{}).Return([]models.Component{}, nil)

	c := New(store, nil)
	c.List(context.Background(), "ai_model", "vision")
	c.List(context.Background(), "cnc", "vision")
	store.AssertExpectations(t)
}

func TestList_StoreErrorReportsOnceAndReturnsEmpty(t *testing.T) {
	store := new(MockCollections)
	store.On("SelectComponents", mock.Anything, models.CollectionConveyors, mock.Anything).Return(nil, errors.New("connection refused"))
	rec := notify.NewRecorder(nil)

	got := New(store, rec).List(context.Background(), "conveyor", "")
	assert.Empty(t, got)
	require.Len(t, rec.Notices(), 1)
	assert.Equal(t, notify.LevelError, rec.Notices()[0].Level)
	assert.Contains(t, rec.Notices()[0].Message, "Conveyor Belt")
}

func TestRegistry_EveryTypeHasACollection(t *testing.T) {
	for _, d := range Descriptors() {
		assert.NotEmpty(t, d.Collection, d.Type)
		assert.NotEmpty(t, d.Label, d.Type)
	}
	assert.Len(t, Descriptors(), 9)
}

func TestFind_AgainstMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	require.NoError(t, store.RoboticArms.Insert(ctx, &models.Machine{ID: "arm-1", Name: "UR10", Status: "idle"}))

	c := New(store, nil)
	comp, ok := c.Find(ctx, "robotic_arm", "arm-1", notify.Discard)
	require.True(t, ok)
	assert.Equal(t, "UR10", comp.Name)

	_, ok = c.Find(ctx, "robotic_arm", "missing", notify.Discard)
	assert.False(t, ok)
}

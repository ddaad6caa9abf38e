package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"automation-console/backend/internal/notify"
	"automation-console/backend/internal/repository"
	"automation-console/backend/pkg/models"
)

func TestSuccessRate(t *testing.T) {
	assert.Zero(t, SuccessRate(0, 0))
	assert.Zero(t, SuccessRate(5, 0))
	assert.InDelta(t, 0.75, SuccessRate(3, 4), 1e-9)
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()

	for i, wf := range []models.Workflow{
		{ID: "w1", Name: "a", TriggerType: models.TriggerManual, IsActive: true, RunCount: 10, SuccessCount: 9},
		{ID: "w2", Name: "b", TriggerType: models.TriggerManual, RunCount: 10, SuccessCount: 6},
		{ID: "w3", Name: "c", TriggerType: models.TriggerManual},
	} {
		wf := wf
		require.NoError(t, store.Workflows.Insert(ctx, &wf), i)
	}
	for _, m := range []models.Machine{
		{ID: "c1", Name: "mill", Status: "running"},
		{ID: "c2", Name: "lathe", Status: "idle"},
	} {
		m := m
		require.NoError(t, store.CNCMachines.Insert(ctx, &m))
	}
	belt := models.Conveyor{ID: "b1", Name: "belt", Status: models.ConveyorRunning, Direction: models.DirectionForward}
	require.NoError(t, store.Conveyors.Insert(ctx, &belt))
	for _, ep := range []models.Endpoint{
		{ID: "e1", Name: "a", URL: "http://a", Status: models.EndpointOnline},
		{ID: "e2", Name: "b", URL: "http://b", Status: models.EndpointOffline},
	} {
		ep := ep
		require.NoError(t, store.Endpoints.Insert(ctx, &ep))
	}

	sum, err := NewService(store, store.Workflows, nil).Summary(ctx)
	require.NoError(t, err)

	assert.Equal(t, Ratio{Total: 3, Active: 1}, sum.Workflows)
	assert.Equal(t, Ratio{}, sum.Chatbots)
	assert.Equal(t, Ratio{Total: 2, Active: 1}, sum.Machines["cnc"])
	assert.Equal(t, Ratio{Total: 1, Active: 1}, sum.Machines["conveyor"])
	assert.Equal(t, Ratio{}, sum.Machines["laser"])
	assert.Equal(t, 2, sum.Endpoints)
	assert.Equal(t, 1, sum.EndpointsOnline)
	assert.Equal(t, 20, sum.Runs)
	assert.Equal(t, 15, sum.Successes)
	assert.InDelta(t, 0.75, sum.SuccessRate, 1e-9)
}

type failingCounts struct {
	repository.Collections
}

func (failingCounts) Count(context.Context, models.Collection, repository.Filter) (int, error) {
	return 0, errors.New("boom")
}

func TestSummary_PropagatesErrors(t *testing.T) {
	store := repository.NewMemoryStore()
	rec := notify.NewRecorder(nil)
	_, err := NewService(failingCounts{store}, store.Workflows, nil).With(rec).Summary(context.Background())
	assert.Error(t, err)

	notices := rec.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, notify.LevelError, notices[0].Level)
}

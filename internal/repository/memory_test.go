package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"automation-console/backend/pkg/models"
)

func TestMemoryTable_CRUD(t *testing.T) {
	ctx := context.Background()
	table := NewMemoryTable[models.Location](models.CollectionLocations, "name")

	require.NoError(t, table.Insert(ctx, &models.Location{ID: "b", Name: "Bay 2", Type: "stop"}))
	require.NoError(t, table.Insert(ctx, &models.Location{ID: "a", Name: "Bay 1", Type: "depot"}))
	assert.Error(t, table.Insert(ctx, &models.Location{ID: "a", Name: "dup"}))

	all, err := table.Select(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Bay 1", all[0].Name, "rows are ordered by the order column")

	stops, err := table.Select(ctx, Filter{"type": "stop"})
	require.NoError(t, err)
	require.Len(t, stops, 1)
	assert.Equal(t, "b", stops[0].ID)

	got, err := table.Get(ctx, "a")
	require.NoError(t, err)
	created := got.CreatedAt
	got.Address = "North yard"
	require.NoError(t, table.Update(ctx, got))

	again, err := table.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "North yard", again.Address)
	assert.Equal(t, created, again.CreatedAt)

	require.NoError(t, table.Delete(ctx, "a"))
	_, err = table.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, table.Update(ctx, &models.Location{ID: "a"}), ErrNotFound)
}

func TestMemoryTable_RejectsUnknownFilterColumn(t *testing.T) {
	table := NewMemoryTable[models.Location](models.CollectionLocations, "name")
	_, err := table.Select(context.Background(), Filter{"name; DROP TABLE": "x"})
	assert.Error(t, err)
}

func TestMemoryTable_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	table := NewMemoryTable[models.Workflow](models.CollectionWorkflows, "created_at")
	wf := &models.Workflow{ID: "w1", Name: "wf", TriggerType: models.TriggerManual}
	wf.Graph.Nodes = []models.WorkflowNode{{ID: "n1"}}
	require.NoError(t, table.Insert(ctx, wf))

	got, err := table.Get(ctx, "w1")
	require.NoError(t, err)
	got.Graph.Nodes[0].ID = "mutated"

	again, err := table.Get(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, "n1", again.Graph.Nodes[0].ID)
}

func TestMemoryTable_NilFilterValueMatchesNullColumn(t *testing.T) {
	ctx := context.Background()
	table := NewMemoryTable[models.Chatbot](models.CollectionChatbots, "name")
	project := "p1"
	require.NoError(t, table.Insert(ctx, &models.Chatbot{ID: "c1", Name: "scoped", ProjectID: &project}))
	require.NoError(t, table.Insert(ctx, &models.Chatbot{ID: "c2", Name: "global"}))

	n, err := table.Count(ctx, Filter{"project_id": nil})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = table.Count(ctx, Filter{"project_id": "p1"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_Dispatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	model := "Haas VF-2"
	require.NoError(t, store.CNCMachines.Insert(ctx, &models.Machine{ID: "m1", Name: "Mill 1", Model: &model, Status: "active"}))

	comps, err := store.SelectComponents(ctx, models.CollectionCNCMachines, nil)
	require.NoError(t, err)
	require.Len(t, comps, 1)
	assert.Equal(t, "Mill 1", comps[0].Name)
	require.NotNil(t, comps[0].Model)
	assert.Equal(t, model, *comps[0].Model)

	_, err = store.SelectComponents(ctx, models.CollectionLocations, nil)
	assert.Error(t, err, "locations are not offered as components")

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Locations.Insert(ctx, &models.Location{ID: string(rune('a' + i)), Name: string(rune('A' + i))}))
	}
	items, err := store.SampleItems(ctx, models.CollectionLocations, 3)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, "A", items[0]["name"])

	n, err := store.Count(ctx, models.CollectionLocations, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

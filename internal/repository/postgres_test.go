package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"automation-console/backend/pkg/models"
)

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	require.NoError(t, Migrate(ctx, pool))
	require.NoError(t, Migrate(ctx, pool), "schema must be re-appliable")

	store := NewPostgresStore(pool)
	require.NoError(t, store.Ping(ctx))

	t.Run("Insert and Get workflow with graph", func(t *testing.T) {
		wf := &models.Workflow{
			ID:          uuid.New().String(),
			Name:        "Line 3 startup",
			TriggerType: models.TriggerManual,
			Graph: models.WorkflowGraph{
				Nodes: []models.WorkflowNode{{ID: "n1", NodeType: models.NodeTrigger, ComponentType: models.ManualComponent}},
				Edges: []models.WorkflowEdge{},
			},
		}
		require.NoError(t, store.Workflows.Insert(ctx, wf))

		got, err := store.Workflows.Get(ctx, wf.ID)
		require.NoError(t, err)
		assert.Equal(t, wf.Name, got.Name)
		assert.False(t, got.IsActive)
		require.Len(t, got.Graph.Nodes, 1)
		assert.Equal(t, models.NodeTrigger, got.Graph.Nodes[0].NodeType)
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("Update and Count", func(t *testing.T) {
		wf := &models.Workflow{ID: uuid.New().String(), Name: "Nightly report", TriggerType: models.TriggerSchedule}
		require.NoError(t, store.Workflows.Insert(ctx, wf))

		wf.IsActive = true
		require.NoError(t, store.Workflows.Update(ctx, wf))

		active, err := store.Workflows.Count(ctx, Filter{"is_active": true})
		require.NoError(t, err)
		assert.Equal(t, 1, active)

		n, err := store.Count(ctx, models.CollectionWorkflows, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("Get missing returns ErrNotFound", func(t *testing.T) {
		_, err := store.Functions.Get(ctx, uuid.New().String())
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, store.Functions.Delete(ctx, uuid.New().String()), ErrNotFound)
	})

	t.Run("Logic step JSON columns round trip", func(t *testing.T) {
		fn := &models.FunctionDefinition{ID: uuid.New().String(), Name: "Scale", Category: models.CategoryCalculation, Tags: []string{"math"}}
		require.NoError(t, store.Functions.Insert(ctx, fn))

		step := &models.FunctionLogicStep{
			ID:              uuid.New().String(),
			FunctionID:      fn.ID,
			StepID:          "multiply",
			StepType:        models.StepCalculation,
			OutputVariables: []models.OutputVariable{{Name: "product", Type: "number"}},
			Position:        1,
		}
		require.NoError(t, store.FunctionSteps.Insert(ctx, step))

		steps, err := store.FunctionSteps.Select(ctx, Filter{"function_id": fn.ID})
		require.NoError(t, err)
		require.Len(t, steps, 1)
		assert.Equal(t, []string{"product"}, steps[0].OutputNames())
	})

	t.Run("Components honour filter", func(t *testing.T) {
		require.NoError(t, store.Hardware.Insert(ctx, &models.HardwareDevice{ID: uuid.New().String(), Name: "Cam A", Type: "vision_system", Status: "active"}))
		require.NoError(t, store.Hardware.Insert(ctx, &models.HardwareDevice{ID: uuid.New().String(), Name: "Temp probe", Type: "sensor", Status: "active"}))

		comps, err := store.SelectComponents(ctx, models.CollectionHardware, Filter{"type": "vision_system"})
		require.NoError(t, err)
		require.Len(t, comps, 1)
		assert.Equal(t, "Cam A", comps[0].Name)
	})

	t.Run("Upsert error handling", func(t *testing.T) {
		fn := &models.FunctionDefinition{ID: uuid.New().String(), Name: "Notify", Category: models.CategoryNotification}
		require.NoError(t, store.Functions.Insert(ctx, fn))

		eh := &models.FunctionErrorHandling{ID: fn.ID, FunctionID: fn.ID, RetryStrategy: models.RetryFixed, MaxRetries: 2, TimeoutBehavior: models.TimeoutAbort}
		require.NoError(t, store.FunctionErrorHandling.Upsert(ctx, eh))
		eh.MaxRetries = 5
		require.NoError(t, store.FunctionErrorHandling.Upsert(ctx, eh))

		got, err := store.FunctionErrorHandling.Get(ctx, fn.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, got.MaxRetries)
	})
}

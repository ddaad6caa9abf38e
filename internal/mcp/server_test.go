package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"automation-console/backend/internal/endpoints"
	"automation-console/backend/internal/repository"
	"automation-console/backend/pkg/models"
)

func newTestServer(t *testing.T) (*Server, *repository.Store) {
	t.Helper()
	store := repository.NewMemoryStore()
	monitor := endpoints.NewMonitor(store.Endpoints, time.Second, nil)
	return NewServer(store, monitor, "test", nil), store
}

func call(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestListComponents_UnknownTypeIsToolError(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.handleListComponents(context.Background(), call("list_components", map[string]any{"type": "warp_drive"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleListComponents(context.Background(), call("list_components", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestListComponents(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, store.Conveyors.Insert(ctx, &models.Conveyor{
		ID: "c1", Name: "Belt", Direction: models.DirectionForward, Status: models.ConveyorRunning,
	}))

	res, err := s.handleListComponents(ctx, call("list_components", map[string]any{"type": "conveyor"}))
	require.NoError(t, err)
	require.False(t, res.IsError, textOf(t, res))

	var out struct {
		Result []models.Component `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &out))
	require.Len(t, out.Result, 1)
	assert.Equal(t, "Belt", out.Result[0].Name)
}

func TestSetWorkflowActive(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, store.Workflows.Insert(ctx, &models.Workflow{ID: "wf1", Name: "Nightly", TriggerType: models.TriggerManual}))

	res, err := s.handleSetWorkflowActive(ctx, call("set_workflow_active", map[string]any{"id": "wf1", "active": true}))
	require.NoError(t, err)
	require.False(t, res.IsError, textOf(t, res))

	var out struct {
		Result  models.Workflow `json:"result"`
		Notices []struct {
			Level string `json:"level"`
		} `json:"notices"`
	}
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &out))
	assert.True(t, out.Result.IsActive)
	assert.Equal(t, models.StatusFor(true), out.Result.Status)
	assert.NotEmpty(t, out.Notices)

	res, err = s.handleSetWorkflowActive(ctx, call("set_workflow_active", map[string]any{"id": "missing", "active": true}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestMappingCandidates(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()
	for i, id := range []string{"fetch", "sum", "send"} {
		require.NoError(t, store.FunctionSteps.Insert(ctx, &models.FunctionLogicStep{
			ID: id, FunctionID: "fn", StepID: id, StepType: models.StepCalculation, Position: i,
		}))
	}

	res, err := s.handleMappingCandidates(ctx, call("function_mapping_candidates", map[string]any{"function_id": "fn", "position": 2.0}))
	require.NoError(t, err)
	require.False(t, res.IsError, textOf(t, res))

	var out struct {
		Result []struct {
			StepID string `json:"step_id"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &out))
	require.Len(t, out.Result, 2)
	assert.Equal(t, "fetch", out.Result[0].StepID)
	assert.Equal(t, "sum", out.Result[1].StepID)
}

func TestRefreshEndpoints_Empty(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.handleRefreshEndpoints(context.Background(), call("refresh_endpoints", nil))
	require.NoError(t, err)
	require.False(t, res.IsError, textOf(t, res))

	var out struct {
		Result endpoints.Stats `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &out))
	assert.Zero(t, out.Result.Total)
}

func TestToolsRegistered(t *testing.T) {
	s, _ := newTestServer(t)
	tools := s.GetMCPServer().ListTools()
	for _, name := range []string{"list_component_types", "list_components", "list_workflows", "set_workflow_active", "function_mapping_candidates", "refresh_endpoints", "dashboard_summary"} {
		assert.Contains(t, tools, name)
	}
}

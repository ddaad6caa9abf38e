// Package mcp exposes console operations as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"automation-console/backend/internal/catalog"
	"automation-console/backend/internal/dashboard"
	"automation-console/backend/internal/endpoints"
	"automation-console/backend/internal/functions"
	"automation-console/backend/internal/logging"
	"automation-console/backend/internal/notify"
	"automation-console/backend/internal/repository"
	"automation-console/backend/internal/workflows"
)

type Server struct {
	mcpServer *server.MCPServer
	catalog   *catalog.Catalog
	workflows *workflows.Service
	functions *functions.Service
	endpoints *endpoints.Monitor
	dashboard *dashboard.Service
	reporter  notify.Reporter
}

func NewServer(store *repository.Store, monitor *endpoints.Monitor, version string, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	reporter := notify.NewLogReporter(logger)
	cat := catalog.New(store, reporter)
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Automation Console",
			version,
			server.WithToolCapabilities(true),
		),
		catalog:   cat,
		workflows: workflows.NewService(store.Workflows, cat, logger),
		functions: functions.NewService(functions.TablesOf(store), logger),
		endpoints: monitor,
		dashboard: dashboard.NewService(store, store.Workflows, logger),
		reporter:  reporter,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_component_types",
			mcp.WithDescription("List the component types a workflow node can be bound to"),
		),
		s.handleListComponentTypes,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_components",
			mcp.WithDescription("List the components of one type"),
			mcp.WithString("type", mcp.Required(), mcp.Description("Component type, e.g. cnc or ai_model")),
			mcp.WithString("sub_type", mcp.Description("Optional sub-filter for types that support one")),
		),
		s.handleListComponents,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_workflows",
			mcp.WithDescription("List workflows with their status"),
		),
		s.handleListWorkflows,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"set_workflow_active",
			mcp.WithDescription("Activate or deactivate a workflow"),
			mcp.WithString("id", mcp.Required(), mcp.Description("The ID of the workflow")),
			mcp.WithBoolean("active", mcp.Required(), mcp.Description("Whether the workflow is active")),
		),
		s.handleSetWorkflowActive,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"function_mapping_candidates",
			mcp.WithDescription("List the earlier steps whose outputs a step at position may map from"),
			mcp.WithString("function_id", mcp.Required(), mcp.Description("The ID of the function")),
			mcp.WithNumber("position", mcp.Required(), mcp.Description("Position of the step being edited")),
		),
		s.handleMappingCandidates,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"refresh_endpoints",
			mcp.WithDescription("Check every monitored endpoint and return the counts"),
		),
		s.handleRefreshEndpoints,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"dashboard_summary",
			mcp.WithDescription("Counts of workflows, chatbots, machines, endpoints and runs"),
		),
		s.handleDashboard,
	)
}

// toolResult is the JSON body of a successful tool call.
type toolResult struct {
	Result  any             `json:"result"`
	Notices []notify.Notice `json:"notices,omitempty"`
}

func result(v any, rec *notify.Recorder) (*mcp.CallToolResult, error) {
	out := toolResult{Result: v}
	if rec != nil {
		out.Notices = rec.Notices()
	}
	jsonBytes, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleListComponentTypes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return result(catalog.Descriptors(), nil)
}

func (s *Server) handleListComponents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter: type"), nil
	}
	if _, ok := catalog.Lookup(key); !ok {
		return mcp.NewToolResultError(fmt.Sprintf("Unknown component type: %s", key)), nil
	}
	rec := notify.NewRecorder(s.reporter)
	comps := s.catalog.ListWith(ctx, key, request.GetString("sub_type", ""), rec)
	return result(comps, rec)
}

func (s *Server) handleListWorkflows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rec := notify.NewRecorder(s.reporter)
	items, err := s.workflows.With(rec).List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list workflows: %v", err)), nil
	}
	return result(items, rec)
}

func (s *Server) handleSetWorkflowActive(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}
	active, err := request.RequireBool("active")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter: active"), nil
	}

	rec := notify.NewRecorder(s.reporter)
	wf, err := s.workflows.With(rec).SetActive(ctx, id, active)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to update workflow: %v", err)), nil
	}
	return result(wf, rec)
}

func (s *Server) handleMappingCandidates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	functionID, err := request.RequireString("function_id")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter: function_id"), nil
	}
	position, err := request.RequireFloat("position")
	if err != nil {
		return mcp.NewToolResultError("Missing required parameter: position"), nil
	}

	cands, err := s.functions.MappingCandidates(ctx, functionID, int(position))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list candidates: %v", err)), nil
	}
	if cands == nil {
		cands = []functions.Candidate{}
	}
	return result(cands, nil)
}

func (s *Server) handleRefreshEndpoints(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rec := notify.NewRecorder(s.reporter)
	_, stats, err := s.endpoints.RefreshAll(ctx, rec)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to refresh endpoints: %v", err)), nil
	}
	return result(stats, rec)
}

func (s *Server) handleDashboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rec := notify.NewRecorder(s.reporter)
	sum, err := s.dashboard.With(rec).Summary(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load dashboard: %v", err)), nil
	}
	return result(sum, rec)
}

// MountHTTPHandlers serves the tools over streamable HTTP at /mcp and over
// SSE at /mcp/sse with messages posted to /mcp/message.
func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))
	streamable := server.NewStreamableHTTPServer(mcpServer, server.WithEndpointPath("/mcp"))

	mux.Handle("/mcp", streamable)
	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}

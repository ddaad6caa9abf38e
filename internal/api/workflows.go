package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"automation-console/backend/internal/workflows"
	"automation-console/backend/pkg/models"
)

func (s *Server) registerWorkflows(g *echo.Group) {
	g.GET("/workflows", s.ListWorkflows)
	g.POST("/workflows", s.CreateWorkflow)
	g.GET("/workflows/:id", s.GetWorkflow)
	g.PUT("/workflows/:id", s.UpdateWorkflow)
	g.DELETE("/workflows/:id", s.DeleteWorkflow)
	g.PUT("/workflows/:id/active", s.SetWorkflowActive)
	g.POST("/workflows/:id/execute", s.ExecuteWorkflow)

	g.GET("/workflows/:id/graph", s.GetWorkflowGraph)
	g.PUT("/workflows/:id/graph", s.SaveWorkflowGraph)
	g.POST("/workflows/:id/graph/nodes", s.AddWorkflowNode)
	g.POST("/workflows/:id/graph/edges", s.ConnectWorkflowNodes)
	g.POST("/workflows/:id/graph/delete", s.DeleteWorkflowSelection)
}

// ListWorkflows handles GET /workflows
func (s *Server) ListWorkflows(c echo.Context) error {
	rec := s.recorder()
	items, err := s.workflows.With(rec).List(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, items, rec)
}

// CreateWorkflow handles POST /workflows
func (s *Server) CreateWorkflow(c echo.Context) error {
	var draft workflows.Draft
	if err := bind(c, &draft); err != nil {
		return err
	}
	rec := s.recorder()
	wf, err := s.workflows.With(rec).Create(c.Request().Context(), draft)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, wf, rec)
}

// GetWorkflow handles GET /workflows/:id
func (s *Server) GetWorkflow(c echo.Context) error {
	id, err := pathParam[string](c, "id")
	if err != nil {
		return err
	}
	wf, err := s.workflows.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, wf, nil)
}

// UpdateWorkflow handles PUT /workflows/:id
func (s *Server) UpdateWorkflow(c echo.Context) error {
	id, err := pathParam[string](c, "id")
	if err != nil {
		return err
	}
	var draft workflows.Draft
	if err := bind(c, &draft); err != nil {
		return err
	}
	rec := s.recorder()
	wf, err := s.workflows.With(rec).Update(c.Request().Context(), id, draft)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, wf, rec)
}

// DeleteWorkflow handles DELETE /workflows/:id?confirm=true
func (s *Server) DeleteWorkflow(c echo.Context) error {
	id, err := pathParam[string](c, "id")
	if err != nil {
		return err
	}
	confirm, err := confirmation(c)
	if err != nil {
		return err
	}
	rec := s.recorder()
	if err := s.workflows.With(rec).Delete(c.Request().Context(), id, confirm); err != nil {
		return err
	}
	return respond(c, http.StatusOK, nil, rec)
}

type activeRequest struct {
	IsActive bool `json:"is_active"`
}

// SetWorkflowActive handles PUT /workflows/:id/active
func (s *Server) SetWorkflowActive(c echo.Context) error {
	id, err := pathParam[string](c, "id")
	if err != nil {
		return err
	}
	var req activeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	rec := s.recorder()
	wf, err := s.workflows.With(rec).SetActive(c.Request().Context(), id, req.IsActive)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, wf, rec)
}

// ExecuteWorkflow handles POST /workflows/:id/execute
func (s *Server) ExecuteWorkflow(c echo.Context) error {
	id, err := pathParam[string](c, "id")
	if err != nil {
		return err
	}
	rec := s.recorder()
	if err := s.workflows.With(rec).Execute(c.Request().Context(), id); err != nil {
		return err
	}
	return respond(c, http.StatusAccepted, nil, rec)
}

// GetWorkflowGraph handles GET /workflows/:id/graph
func (s *Server) GetWorkflowGraph(c echo.Context) error {
	id, err := pathParam[string](c, "id")
	if err != nil {
		return err
	}
	v, err := s.workflows.Graph(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, v, nil)
}

// SaveWorkflowGraph handles PUT /workflows/:id/graph
func (s *Server) SaveWorkflowGraph(c echo.Context) error {
	id, err := pathParam[string](c, "id")
	if err != nil {
		return err
	}
	var graph models.WorkflowGraph
	if err := bind(c, &graph); err != nil {
		return err
	}
	rec := s.recorder()
	v, err := s.workflows.With(rec).SaveGraph(c.Request().Context(), id, graph)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, v, rec)
}

// AddWorkflowNode handles POST /workflows/:id/graph/nodes
func (s *Server) AddWorkflowNode(c echo.Context) error {
	id, err := pathParam[string](c, "id")
	if err != nil {
		return err
	}
	var req workflows.NodeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	rec := s.recorder()
	v, err := s.workflows.With(rec).AddNode(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, v, rec)
}

type connectRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// ConnectWorkflowNodes handles POST /workflows/:id/graph/edges
func (s *Server) ConnectWorkflowNodes(c echo.Context) error {
	id, err := pathParam[string](c, "id")
	if err != nil {
		return err
	}
	var req connectRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	rec := s.recorder()
	v, err := s.workflows.With(rec).Connect(c.Request().Context(), id, req.Source, req.Target)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, v, rec)
}

type selectionRequest struct {
	NodeIDs []string `json:"node_ids"`
	EdgeIDs []string `json:"edge_ids"`
}

// DeleteWorkflowSelection handles POST /workflows/:id/graph/delete
func (s *Server) DeleteWorkflowSelection(c echo.Context) error {
	id, err := pathParam[string](c, "id")
	if err != nil {
		return err
	}
	var req selectionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	rec := s.recorder()
	v, err := s.workflows.With(rec).DeleteSelection(c.Request().Context(), id, req.NodeIDs, req.EdgeIDs)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, v, rec)
}

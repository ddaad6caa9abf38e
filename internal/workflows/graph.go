package workflows

import (
	"context"
	"fmt"

	"automation-console/backend/internal/designer"
	"automation-console/backend/internal/notify"
	"automation-console/backend/pkg/models"
)

// GraphView is a workflow graph together with its advisory warnings.
type GraphView struct {
	WorkflowID string              `json:"workflow_id"`
	Graph      models.WorkflowGraph `json:"graph"`
	Warnings   []designer.Warning  `json:"warnings"`
}

// NodeRequest places a node on a workflow graph. When ComponentID is set the
// node is bound to that component of ComponentType.
type NodeRequest struct {
	NodeType      models.NodeType `json:"node_type"`
	ComponentType string          `json:"component_type"`
	ComponentID   string          `json:"component_id,omitempty"`
	Position      models.Position `json:"position"`
}

// Graph loads the graph of a workflow.
func (s *Service) Graph(ctx context.Context, id string) (*GraphView, error) {
	wf, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get workflow %s: %w", id, err)
	}
	return view(wf), nil
}

// SaveGraph replaces the graph of a workflow after checking its structure.
// The graph is written in the same row as the workflow.
func (s *Service) SaveGraph(ctx context.Context, id string, graph models.WorkflowGraph) (*GraphView, error) {
	if err := designer.Validate(graph); err != nil {
		s.reporter.Report(notify.LevelError, fmt.Sprintf("Invalid graph: %v", err))
		return nil, err
	}
	return s.edit(ctx, id, func(*designer.Editor) error { return nil }, &graph)
}

// AddNode places a node on the graph.
func (s *Service) AddNode(ctx context.Context, id string, req NodeRequest) (*GraphView, error) {
	var comp *models.Component
	if req.ComponentID != "" {
		if s.catalog == nil {
			return nil, fmt.Errorf("%w: %s", ErrComponentNotFound, req.ComponentID)
		}
		found, ok := s.catalog.Find(ctx, req.ComponentType, req.ComponentID, s.reporter)
		if !ok {
			return nil, fmt.Errorf("%w: %s/%s", ErrComponentNotFound, req.ComponentType, req.ComponentID)
		}
		comp = &found
	}
	return s.edit(ctx, id, func(e *designer.Editor) error {
		var err error
		if comp != nil {
			_, err = e.AddExistingNode(req.NodeType, req.ComponentType, *comp, req.Position)
		} else {
			_, err = e.AddNode(req.NodeType, req.ComponentType, req.Position)
		}
		return err
	}, nil)
}

// Connect draws an edge between two nodes of the graph.
func (s *Service) Connect(ctx context.Context, id, source, target string) (*GraphView, error) {
	return s.edit(ctx, id, func(e *designer.Editor) error {
		_, err := e.Connect(source, target)
		return err
	}, nil)
}

// DeleteSelection removes the given nodes with their edges, and the given
// edges.
func (s *Service) DeleteSelection(ctx context.Context, id string, nodeIDs, edgeIDs []string) (*GraphView, error) {
	return s.edit(ctx, id, func(e *designer.Editor) error {
		e.SetSelection(nodeIDs, edgeIDs)
		e.DeleteSelected()
		return nil
	}, nil)
}

// edit loads the workflow, applies fn to its graph (or replaces the graph
// with replace) and writes the workflow back.
func (s *Service) edit(ctx context.Context, id string, fn func(*designer.Editor) error, replace *models.WorkflowGraph) (*GraphView, error) {
	wf, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get workflow %s: %w", id, err)
	}

	if replace != nil {
		wf.Graph = *replace
	} else {
		editor := designer.NewEditor(wf.Graph)
		if err := fn(editor); err != nil {
			return nil, err
		}
		wf.Graph = editor.Graph()
	}

	if err := s.store.Update(ctx, wf); err != nil {
		s.logger.Error("failed to save workflow graph", "id", id, "error", err)
		s.reporter.Report(notify.LevelError, "Failed to save workflow graph")
		return nil, fmt.Errorf("save graph of workflow %s: %w", id, err)
	}
	return view(wf), nil
}

func view(wf *models.Workflow) *GraphView {
	graph := wf.Graph
	if graph.Nodes == nil {
		graph.Nodes = []models.WorkflowNode{}
	}
	if graph.Edges == nil {
		graph.Edges = []models.WorkflowEdge{}
	}
	warnings := designer.Analyze(graph)
	if warnings == nil {
		warnings = []designer.Warning{}
	}
	return &GraphView{WorkflowID: wf.ID, Graph: graph, Warnings: warnings}
}

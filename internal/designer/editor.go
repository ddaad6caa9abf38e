// Package designer implements the workflow graph editor: an owned node/edge
// aggregate with add, connect, select and delete operations.
package designer

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"automation-console/backend/pkg/models"
)

var (
	// ErrUnknownNode is returned when an operation names a node not in the graph.
	ErrUnknownNode = errors.New("unknown node")
	// ErrNoHandle is returned when a connection uses a handle the node type
	// does not render: trigger nodes have no input, end nodes no output.
	ErrNoHandle = errors.New("node has no such handle")
	// ErrInvalidNodeType is returned for node types outside the closed set.
	ErrInvalidNodeType = errors.New("invalid node type")
)

// Key names accepted by HandleKey.
const (
	KeyDelete    = "Delete"
	KeyBackspace = "Backspace"
)

// Editor holds one workflow graph and the current selection. It is not safe
// for concurrent use; callers load, mutate and save a graph per request.
type Editor struct {
	nodes         []models.WorkflowNode
	edges         []models.WorkflowEdge
	selectedNodes map[string]bool
	selectedEdges map[string]bool
	newID         func() string
}

// NewEditor creates an editor over a copy of graph.
func NewEditor(graph models.WorkflowGraph) *Editor {
	e := &Editor{
		nodes:         append([]models.WorkflowNode{}, graph.Nodes...),
		edges:         append([]models.WorkflowEdge{}, graph.Edges...),
		selectedNodes: map[string]bool{},
		selectedEdges: map[string]bool{},
		newID:         func() string { return uuid.New().String() },
	}
	return e
}

// Graph returns a copy of the current graph.
func (e *Editor) Graph() models.WorkflowGraph {
	return models.WorkflowGraph{
		Nodes: append([]models.WorkflowNode{}, e.nodes...),
		Edges: append([]models.WorkflowEdge{}, e.edges...),
	}
}

// Node returns the node with the given id.
func (e *Editor) Node(id string) (models.WorkflowNode, bool) {
	for _, n := range e.nodes {
		if n.ID == id {
			return n, true
		}
	}
	return models.WorkflowNode{}, false
}

// AddNode places a node that carries only a logical component type.
func (e *Editor) AddNode(nodeType models.NodeType, componentType string, pos models.Position) (models.WorkflowNode, error) {
	if !nodeType.Valid() {
		return models.WorkflowNode{}, fmt.Errorf("%w: %q", ErrInvalidNodeType, nodeType)
	}
	if componentType == "" {
		componentType = models.ManualComponent
	}
	node := models.WorkflowNode{
		ID:            e.newID(),
		Position:      pos,
		NodeType:      nodeType,
		ComponentType: componentType,
		Data:          models.NodeData{Label: defaultLabel(nodeType, componentType)},
	}
	e.nodes = append(e.nodes, node)
	return node, nil
}

// AddExistingNode places a node bound to an existing component record; the
// record's id, name and status become the node's display data.
func (e *Editor) AddExistingNode(nodeType models.NodeType, componentType string, comp models.Component, pos models.Position) (models.WorkflowNode, error) {
	node, err := e.AddNode(nodeType, componentType, pos)
	if err != nil {
		return node, err
	}
	id := comp.ID
	node.ComponentID = &id
	node.Data.Label = comp.Name
	if comp.Status != nil {
		node.Data.Status = *comp.Status
	}
	node.Data.Config = map[string]any{"component_id": comp.ID, "component_name": comp.Name}
	e.nodes[len(e.nodes)-1] = node
	return node, nil
}

// Connect draws an edge from source's output handle to target's input
// handle. An identical existing edge is returned instead of a duplicate.
// Cycles and self-loops are allowed.
func (e *Editor) Connect(sourceID, targetID string) (models.WorkflowEdge, error) {
	source, ok := e.Node(sourceID)
	if !ok {
		return models.WorkflowEdge{}, fmt.Errorf("%w: %s", ErrUnknownNode, sourceID)
	}
	target, ok := e.Node(targetID)
	if !ok {
		return models.WorkflowEdge{}, fmt.Errorf("%w: %s", ErrUnknownNode, targetID)
	}
	if !source.NodeType.HasOutputHandle() {
		return models.WorkflowEdge{}, fmt.Errorf("%w: %s node %s has no output", ErrNoHandle, source.NodeType, sourceID)
	}
	if !target.NodeType.HasInputHandle() {
		return models.WorkflowEdge{}, fmt.Errorf("%w: %s node %s has no input", ErrNoHandle, target.NodeType, targetID)
	}
	for _, edge := range e.edges {
		if edge.Source == sourceID && edge.Target == targetID {
			return edge, nil
		}
	}
	edge := models.WorkflowEdge{
		ID:       fmt.Sprintf("e-%s-%s", sourceID, targetID),
		Source:   sourceID,
		Target:   targetID,
		Animated: true,
	}
	e.edges = append(e.edges, edge)
	return edge, nil
}

// SetSelection records the current selection, replacing the previous one.
// Unknown ids are ignored.
func (e *Editor) SetSelection(nodeIDs, edgeIDs []string) {
	e.selectedNodes = map[string]bool{}
	e.selectedEdges = map[string]bool{}
	for _, id := range nodeIDs {
		if _, ok := e.Node(id); ok {
			e.selectedNodes[id] = true
		}
	}
	for _, id := range edgeIDs {
		for _, edge := range e.edges {
			if edge.ID == id {
				e.selectedEdges[id] = true
			}
		}
	}
}

// Selection returns the selected node and edge ids in graph order.
func (e *Editor) Selection() (nodeIDs, edgeIDs []string) {
	for _, n := range e.nodes {
		if e.selectedNodes[n.ID] {
			nodeIDs = append(nodeIDs, n.ID)
		}
	}
	for _, edge := range e.edges {
		if e.selectedEdges[edge.ID] {
			edgeIDs = append(edgeIDs, edge.ID)
		}
	}
	return nodeIDs, edgeIDs
}

// DeleteSelected removes the selected nodes, every edge touching one of them,
// and the selected edges. Everything else is left untouched. The selection
// is cleared.
func (e *Editor) DeleteSelected() (removedNodes, removedEdges []string) {
	keptNodes := e.nodes[:0:0]
	for _, n := range e.nodes {
		if e.selectedNodes[n.ID] {
			removedNodes = append(removedNodes, n.ID)
			continue
		}
		keptNodes = append(keptNodes, n)
	}

	keptEdges := e.edges[:0:0]
	for _, edge := range e.edges {
		if e.selectedEdges[edge.ID] || e.selectedNodes[edge.Source] || e.selectedNodes[edge.Target] {
			removedEdges = append(removedEdges, edge.ID)
			continue
		}
		keptEdges = append(keptEdges, edge)
	}

	e.nodes, e.edges = keptNodes, keptEdges
	e.selectedNodes = map[string]bool{}
	e.selectedEdges = map[string]bool{}
	return removedNodes, removedEdges
}

// HandleKey runs DeleteSelected for Delete and Backspace and reports whether
// the key was handled.
func (e *Editor) HandleKey(key string) bool {
	switch key {
	case KeyDelete, KeyBackspace:
		e.DeleteSelected()
		return true
	}
	return false
}

func defaultLabel(nodeType models.NodeType, componentType string) string {
	if componentType == models.ManualComponent {
		return string(nodeType)
	}
	return fmt.Sprintf("%s (%s)", nodeType, componentType)
}

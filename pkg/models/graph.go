package models

// NodeType is the role a node plays in a workflow graph.
type NodeType string

const (
	NodeTrigger   NodeType = "trigger"
	NodeAction    NodeType = "action"
	NodeCondition NodeType = "condition"
	NodeDelay     NodeType = "delay"
	NodeLoop      NodeType = "loop"
	NodeEnd       NodeType = "end"
)

// Valid reports whether t is a known node type.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTrigger, NodeAction, NodeCondition, NodeDelay, NodeLoop, NodeEnd:
		return true
	}
	return false
}

// HasInputHandle is false for trigger nodes.
func (t NodeType) HasInputHandle() bool { return t != NodeTrigger }

// HasOutputHandle is false for end nodes.
func (t NodeType) HasOutputHandle() bool { return t != NodeEnd }

// ManualComponent marks a node that is not backed by a catalog component type.
const ManualComponent = "manual"

// Position is a canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData carries the display fields of a node.
type NodeData struct {
	Label       string         `json:"label"`
	Description string         `json:"description,omitempty"`
	Status      string         `json:"status,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
}

// WorkflowNode is one box on the designer canvas.
type WorkflowNode struct {
	ID            string   `json:"id"`
	Position      Position `json:"position"`
	NodeType      NodeType `json:"node_type"`
	ComponentType string   `json:"component_type"`
	ComponentID   *string  `json:"component_id,omitempty"`
	Data          NodeData `json:"data"`
}

// WorkflowEdge connects the output handle of Source to the input handle of
// Target.
type WorkflowEdge struct {
	ID       string         `json:"id"`
	Source   string         `json:"source"`
	Target   string         `json:"target"`
	Animated bool           `json:"animated,omitempty"`
	Style    map[string]any `json:"style,omitempty"`
}

// WorkflowGraph is the node/edge aggregate stored with its workflow.
type WorkflowGraph struct {
	Nodes []WorkflowNode `json:"nodes"`
	Edges []WorkflowEdge `json:"edges"`
}

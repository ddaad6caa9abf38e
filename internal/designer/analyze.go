package designer

import (
	"fmt"
	"sort"

	"automation-console/backend/pkg/models"
)

// Warning is an advisory finding about a graph. Warnings never block a save.
type Warning struct {
	Kind    string   `json:"kind"`
	NodeIDs []string `json:"node_ids"`
	Message string   `json:"message"`
}

const (
	WarnDisconnected = "disconnected"
	WarnCycle        = "cycle"
)

// Analyze reports nodes without any edge and nodes that sit on a cycle.
func Analyze(graph models.WorkflowGraph) []Warning {
	var warnings []Warning

	degree := map[string]int{}
	adjacent := map[string][]string{}
	for _, edge := range graph.Edges {
		degree[edge.Source]++
		degree[edge.Target]++
		adjacent[edge.Source] = append(adjacent[edge.Source], edge.Target)
	}

	if len(graph.Nodes) > 1 {
		var lonely []string
		for _, n := range graph.Nodes {
			if degree[n.ID] == 0 {
				lonely = append(lonely, n.ID)
			}
		}
		if len(lonely) > 0 {
			warnings = append(warnings, Warning{
				Kind:    WarnDisconnected,
				NodeIDs: lonely,
				Message: fmt.Sprintf("%d node(s) have no connections", len(lonely)),
			})
		}
	}

	if cyclic := cycleNodes(graph.Nodes, adjacent); len(cyclic) > 0 {
		warnings = append(warnings, Warning{
			Kind:    WarnCycle,
			NodeIDs: cyclic,
			Message: "graph contains a cycle",
		})
	}
	return warnings
}

// cycleNodes returns the ids of nodes that lie on at least one cycle, using
// Tarjan's strongly connected components.
func cycleNodes(nodes []models.WorkflowNode, adjacent map[string][]string) []string {
	index := map[string]int{}
	low := map[string]int{}
	onStack := map[string]bool{}
	var stack []string
	var out []string
	next := 0

	var visit func(id string)
	visit = func(id string) {
		index[id] = next
		low[id] = next
		next++
		stack = append(stack, id)
		onStack[id] = true

		for _, to := range adjacent[id] {
			if _, seen := index[to]; !seen {
				visit(to)
				low[id] = min(low[id], low[to])
			} else if onStack[to] {
				low[id] = min(low[id], index[to])
			}
		}

		if low[id] != index[id] {
			return
		}
		var component []string
		for {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[top] = false
			component = append(component, top)
			if top == id {
				break
			}
		}
		if len(component) > 1 || selfLoop(id, adjacent) {
			out = append(out, component...)
		}
	}

	for _, n := range nodes {
		if _, seen := index[n.ID]; !seen {
			visit(n.ID)
		}
	}
	sort.Strings(out)
	return out
}

func selfLoop(id string, adjacent map[string][]string) bool {
	for _, to := range adjacent[id] {
		if to == id {
			return true
		}
	}
	return false
}

// Validate checks the structural integrity of a graph before it is stored:
// unique node and edge ids, known node types, edges that reference existing
// nodes, and the handle rules enforced by Connect.
func Validate(graph models.WorkflowGraph) error {
	var verrs models.ValidationErrors
	nodes := make(map[string]models.WorkflowNode, len(graph.Nodes))
	for i, n := range graph.Nodes {
		field := fmt.Sprintf("nodes[%d]", i)
		if n.ID == "" {
			verrs.Add(field+".id", "is required")
			continue
		}
		if _, dup := nodes[n.ID]; dup {
			verrs.Add(field+".id", "duplicate node id %q", n.ID)
		}
		if !n.NodeType.Valid() {
			verrs.Add(field+".node_type", "unknown node type %q", n.NodeType)
		}
		nodes[n.ID] = n
	}

	edgeIDs := map[string]bool{}
	for i, edge := range graph.Edges {
		field := fmt.Sprintf("edges[%d]", i)
		if edge.ID == "" {
			verrs.Add(field+".id", "is required")
		} else if edgeIDs[edge.ID] {
			verrs.Add(field+".id", "duplicate edge id %q", edge.ID)
		}
		edgeIDs[edge.ID] = true

		source, ok := nodes[edge.Source]
		if !ok {
			verrs.Add(field+".source", "references unknown node %q", edge.Source)
		} else if !source.NodeType.HasOutputHandle() {
			verrs.Add(field+".source", "%s node has no output handle", source.NodeType)
		}
		target, ok := nodes[edge.Target]
		if !ok {
			verrs.Add(field+".target", "references unknown node %q", edge.Target)
		} else if !target.NodeType.HasInputHandle() {
			verrs.Add(field+".target", "%s node has no input handle", target.NodeType)
		}
	}
	return verrs.OrNil()
}

package designer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"automation-console/backend/pkg/models"
)

func node(id string, t models.NodeType) models.WorkflowNode {
	return models.WorkflowNode{ID: id, NodeType: t, ComponentType: models.ManualComponent}
}

func edge(src, dst string) models.WorkflowEdge {
	return models.WorkflowEdge{ID: src + "-" + dst, Source: src, Target: dst}
}

func TestAnalyze(t *testing.T) {
	graph := models.WorkflowGraph{
		Nodes: []models.WorkflowNode{
			node("t", models.NodeTrigger),
			node("a", models.NodeAction),
			node("l", models.NodeLoop),
			node("x", models.NodeAction),
		},
		Edges: []models.WorkflowEdge{edge("t", "a"), edge("a", "l"), edge("l", "a")},
	}

	warnings := Analyze(graph)
	require.Len(t, warnings, 2)
	assert.Equal(t, WarnDisconnected, warnings[0].Kind)
	assert.Equal(t, []string{"x"}, warnings[0].NodeIDs)
	assert.Equal(t, WarnCycle, warnings[1].Kind)
	assert.Equal(t, []string{"a", "l"}, warnings[1].NodeIDs)
}

func TestAnalyze_SelfLoopAndClean(t *testing.T) {
	loop := models.WorkflowGraph{
		Nodes: []models.WorkflowNode{node("a", models.NodeAction)},
		Edges: []models.WorkflowEdge{edge("a", "a")},
	}
	warnings := Analyze(loop)
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnCycle, warnings[0].Kind)

	clean := models.WorkflowGraph{
		Nodes: []models.WorkflowNode{node("t", models.NodeTrigger), node("e", models.NodeEnd)},
		Edges: []models.WorkflowEdge{edge("t", "e")},
	}
	assert.Empty(t, Analyze(clean))
}

func TestValidate(t *testing.T) {
	ok := models.WorkflowGraph{
		Nodes: []models.WorkflowNode{node("t", models.NodeTrigger), node("e", models.NodeEnd)},
		Edges: []models.WorkflowEdge{edge("t", "e")},
	}
	assert.NoError(t, Validate(ok))
	assert.NoError(t, Validate(models.WorkflowGraph{}))

	bad := models.WorkflowGraph{
		Nodes: []models.WorkflowNode{node("t", models.NodeTrigger), node("t", models.NodeEnd), node("z", "weird")},
		Edges: []models.WorkflowEdge{edge("z", "t"), edge("t", "missing")},
	}
	err := Validate(bad)
	var verrs models.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	fields := map[string]bool{}
	for _, fe := range verrs {
		fields[fe.Field] = true
	}
	assert.True(t, fields["nodes[1].id"])
	assert.True(t, fields["nodes[2].node_type"])
	assert.True(t, fields["edges[1].target"])
}

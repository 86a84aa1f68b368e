//
// Tencent is pleased to support the open source community by making trpc-workflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-workflow-go is licensed under the Apache License Version 2.0.
//
//

package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-workflow-go/node"
	"trpc.group/trpc-go/trpc-workflow-go/workflow"
)

// recordingRunner captures the per-iteration variables a loop node hands
// to its subgraph runner.
type recordingRunner struct {
	vars []map[string]any
}

func (r *recordingRunner) RunSubgraph(_ context.Context, _ *workflow.Graph, vars map[string]any) (map[string]workflow.NodeResult, error) {
	r.vars = append(r.vars, vars)
	return map[string]workflow.NodeResult{
		"body": {Success: true, Status: workflow.NodeStatusCompleted, Data: map[string]any{"echo": vars["item"]}},
	}, nil
}

func innerWorkflow() map[string]any {
	return map[string]any{
		"nodes": []any{
			map[string]any{"id": "body", "type": "double", "params": map[string]any{"v": "$item.value"}},
		},
		"edges": []any{},
	}
}

func TestLoopNodeIterationVariables(t *testing.T) {
	runner := &recordingRunner{}
	n := &LoopNode{}
	n.SetSubgraphRunner(runner)

	data, err := n.Execute(context.Background(), map[string]any{
		"array":         []any{"a", "b", "c"},
		"workflow_json": innerWorkflow(),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, data["total"])
	assert.Equal(t, []any{
		map[string]any{"echo": "a"},
		map[string]any{"echo": "b"},
		map[string]any{"echo": "c"},
	}, data["results"])

	require.Len(t, runner.vars, 3)
	assert.Equal(t, 0, runner.vars[0]["index"])
	assert.Equal(t, true, runner.vars[0]["first"])
	assert.Equal(t, false, runner.vars[0]["last"])
	assert.Equal(t, true, runner.vars[2]["last"])
	assert.Equal(t, 3, runner.vars[1]["length"])
}

func TestLoopNodeEmitsPerIteration(t *testing.T) {
	runner := &recordingRunner{}
	n := &LoopNode{}
	n.SetSubgraphRunner(runner)

	var partials []map[string]any
	_, err := n.ExecuteStream(context.Background(), map[string]any{
		"array":         []any{"a", "b"},
		"workflow_json": innerWorkflow(),
	}, func(partial map[string]any) {
		partials = append(partials, partial)
	})
	require.NoError(t, err)
	require.Len(t, partials, 2)
	assert.Equal(t, 1, partials[0]["completed"])
	assert.Equal(t, 2, partials[1]["completed"])
	assert.Equal(t, 2, partials[1]["total"])
}

func TestLoopNodeWrapsScalar(t *testing.T) {
	runner := &recordingRunner{}
	n := &LoopNode{}
	n.SetSubgraphRunner(runner)

	data, err := n.Execute(context.Background(), map[string]any{
		"array":         "solo",
		"workflow_json": innerWorkflow(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, data["total"])
	require.Len(t, runner.vars, 1)
	assert.Equal(t, "solo", runner.vars[0]["item"])
}

func TestLoopNodeCapsItems(t *testing.T) {
	runner := &recordingRunner{}
	n := &LoopNode{}
	n.SetSubgraphRunner(runner)

	items := make([]any, 10)
	for i := range items {
		items[i] = i
	}
	data, err := n.Execute(context.Background(), map[string]any{
		"array":         items,
		"workflow_json": innerWorkflow(),
	})
	require.NoError(t, err)
	assert.Len(t, runner.vars, 6, "iteration stops at the item cap")
	assert.Equal(t, 10, data["total"])
}

func TestLoopNodeWithoutRunner(t *testing.T) {
	n := &LoopNode{}
	_, err := n.Execute(context.Background(), map[string]any{
		"array":         []any{1},
		"workflow_json": innerWorkflow(),
	})
	assert.Error(t, err)
}

// doubleNode is a trivial body node for engine-backed loop tests.
type doubleNode struct{}

func (doubleNode) Execute(_ context.Context, params map[string]any) (map[string]any, error) {
	v, err := toFloat(params["v"])
	if err != nil {
		return nil, err
	}
	return map[string]any{"out": v * 2}, nil
}

func TestLoopNodeThroughEngine(t *testing.T) {
	registry := node.NewRegistry()
	require.NoError(t, registry.Register(
		&node.Descriptor{Type: "double", Name: "Double"},
		func() node.Node { return doubleNode{} },
	))
	require.NoError(t, registry.Register(
		&node.Descriptor{Type: "loop", Name: "Loop"},
		func() node.Node { return &LoopNode{} },
	))

	engine, err := workflow.NewEngine(registry, workflow.WithPoolSize(2))
	require.NoError(t, err)
	defer engine.Close()

	g := &workflow.Graph{
		Nodes: []workflow.NodeSpec{
			{ID: "l", Type: "loop", Params: map[string]any{
				"array": []any{
					map[string]any{"value": 1.0},
					map[string]any{"value": 2.0},
				},
				"workflow_json": innerWorkflow(),
			}},
		},
	}

	progress, err := engine.Execute(context.Background(), "wf-loop", g)
	require.NoError(t, err)
	result := progress["l"]
	require.Equal(t, workflow.NodeStatusCompleted, result.Status)
	assert.Equal(t, []any{
		map[string]any{"out": 2.0},
		map[string]any{"out": 4.0},
	}, result.Data["results"])
}

//
// Tencent is pleased to support the open source community by making trpc-workflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-workflow-go is licensed under the Apache License Version 2.0.
//
//

package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-workflow-go/node"
)

type noopNode struct{}

func (noopNode) Execute(_ context.Context, _ map[string]any) (map[string]any, error) {
	return map[string]any{}, nil
}

func testRegistry(t *testing.T, types ...string) *node.Registry {
	t.Helper()
	r := node.NewRegistry()
	for _, typeTag := range types {
		err := r.Register(&node.Descriptor{Type: typeTag, Name: typeTag},
			func() node.Node { return noopNode{} })
		require.NoError(t, err)
	}
	return r
}

func TestValidateAcceptsDAG(t *testing.T) {
	g := &Graph{
		Nodes: []NodeSpec{{ID: "a", Type: "noop"}, {ID: "b", Type: "noop"}},
		Edges: []Edge{{From: "a", To: "b"}},
	}
	require.NoError(t, Validate(g, testRegistry(t, "noop")))
}

func TestValidateDuplicateID(t *testing.T) {
	g := &Graph{Nodes: []NodeSpec{{ID: "a", Type: "noop"}, {ID: "a", Type: "noop"}}}
	err := Validate(g, testRegistry(t, "noop"))
	require.Error(t, err)
	verr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, CodeDuplicateID, verr.Code)
}

func TestValidateUnknownType(t *testing.T) {
	g := &Graph{Nodes: []NodeSpec{{ID: "a", Type: "mystery"}}}
	err := Validate(g, testRegistry(t, "noop"))
	require.Error(t, err)
	assert.Equal(t, CodeUnknownType, err.(*ValidationError).Code)
}

func TestValidateDanglingEdge(t *testing.T) {
	g := &Graph{
		Nodes: []NodeSpec{{ID: "a", Type: "noop"}},
		Edges: []Edge{{From: "a", To: "ghost"}},
	}
	err := Validate(g, testRegistry(t, "noop"))
	require.Error(t, err)
	assert.Equal(t, CodeDanglingEdge, err.(*ValidationError).Code)
}

func TestValidateRejectsCycle(t *testing.T) {
	g := &Graph{
		Nodes: []NodeSpec{{ID: "A", Type: "noop"}, {ID: "B", Type: "noop"}},
		Edges: []Edge{{From: "A", To: "B"}, {From: "B", To: "A"}},
	}
	err := Validate(g, testRegistry(t, "noop"))
	require.Error(t, err)
	verr := err.(*ValidationError)
	assert.Equal(t, CodeCycle, verr.Code)
	// The witness cycle starts and ends at the same node.
	require.NotEmpty(t, verr.Cycle)
	assert.Equal(t, verr.Cycle[0], verr.Cycle[len(verr.Cycle)-1])
	assert.Len(t, verr.Cycle, 3)
	assert.Contains(t, err.Error(), "->")
}

func TestValidateSelfLoop(t *testing.T) {
	g := &Graph{
		Nodes: []NodeSpec{{ID: "a", Type: "noop"}},
		Edges: []Edge{{From: "a", To: "a"}},
	}
	err := Validate(g, testRegistry(t, "noop"))
	require.Error(t, err)
	assert.Equal(t, CodeCycle, err.(*ValidationError).Code)
}

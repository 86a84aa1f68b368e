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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-workflow-go/node"
)

// funcNode adapts a function to the node contract for tests.
type funcNode struct {
	fn func(ctx context.Context, params map[string]any) (map[string]any, error)
}

func (n funcNode) Execute(ctx context.Context, params map[string]any) (map[string]any, error) {
	return n.fn(ctx, params)
}

func registerFunc(t *testing.T, r *node.Registry, typeTag string,
	fn func(ctx context.Context, params map[string]any) (map[string]any, error)) {
	t.Helper()
	err := r.Register(&node.Descriptor{Type: typeTag, Name: typeTag},
		func() node.Node { return funcNode{fn: fn} })
	require.NoError(t, err)
}

func newTestEngine(t *testing.T, r *node.Registry) *Engine {
	t.Helper()
	e, err := NewEngine(r)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func numParam(params map[string]any, key string) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func TestDiamondWorkflow(t *testing.T) {
	r := node.NewRegistry()
	registerFunc(t, r, "emit", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return map[string]any{"x": 2.0}, nil
	})

	// b and c rendezvous so the test observes them in flight together.
	var barrier sync.WaitGroup
	barrier.Add(2)
	scale := func(factor float64) func(context.Context, map[string]any) (map[string]any, error) {
		return func(_ context.Context, params map[string]any) (map[string]any, error) {
			barrier.Done()
			barrier.Wait()
			return map[string]any{"out": numParam(params, "v") * factor}, nil
		}
	}
	registerFunc(t, r, "double", scale(2))
	registerFunc(t, r, "triple", scale(3))
	registerFunc(t, r, "sum", func(_ context.Context, params map[string]any) (map[string]any, error) {
		return map[string]any{"out": numParam(params, "b") + numParam(params, "c")}, nil
	})

	g := &Graph{
		Nodes: []NodeSpec{
			{ID: "a", Type: "emit"},
			{ID: "b", Type: "double", Params: map[string]any{"v": "$a.x"}},
			{ID: "c", Type: "triple", Params: map[string]any{"v": "$a.x"}},
			{ID: "d", Type: "sum", Params: map[string]any{"b": "$b.out", "c": "$c.out"}},
		},
		Edges: []Edge{
			{From: "a", To: "b"}, {From: "a", To: "c"},
			{From: "b", To: "d"}, {From: "c", To: "d"},
		},
	}

	e := newTestEngine(t, r)
	progress, err := e.Execute(context.Background(), "diamond", g)
	require.NoError(t, err)

	require.Len(t, progress, 4)
	for id, result := range progress {
		assert.True(t, result.Success, "node %s", id)
		assert.Equal(t, NodeStatusCompleted, result.Status, "node %s", id)
	}
	assert.Equal(t, 10.0, progress["d"].Data["out"])

	status, err := e.Status("diamond")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status)
}

func TestStreamFormStatusSequences(t *testing.T) {
	r := node.NewRegistry()
	registerFunc(t, r, "emit", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return map[string]any{"x": 1}, nil
	})
	g := &Graph{
		Nodes: []NodeSpec{{ID: "a", Type: "emit"}, {ID: "b", Type: "emit"}},
		Edges: []Edge{{From: "a", To: "b"}},
	}

	e := newTestEngine(t, r)
	updates, err := e.ExecuteStream(context.Background(), "seq", g)
	require.NoError(t, err)

	perNode := make(map[string][]NodeStatus)
	for u := range updates {
		perNode[u.NodeID] = append(perNode[u.NodeID], u.Result.Status)
		// Success and status stay coherent on every event.
		assert.Equal(t, u.Result.Status == NodeStatusCompleted, u.Result.Success)
	}

	for id, seq := range perNode {
		require.NotEmpty(t, seq, "node %s", id)
		assert.Equal(t, NodeStatusRunning, seq[0], "node %s starts RUNNING", id)
		last := seq[len(seq)-1]
		assert.Equal(t, NodeStatusCompleted, last, "node %s ends terminal", id)
		// No events after the terminal one.
		for _, s := range seq[:len(seq)-1] {
			assert.Equal(t, NodeStatusRunning, s, "node %s never reverses", id)
		}
	}
}

func TestPartialFailure(t *testing.T) {
	r := node.NewRegistry()
	registerFunc(t, r, "emit", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return map[string]any{"x": 1}, nil
	})
	registerFunc(t, r, "boom", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return nil, errors.New("exploded")
	})
	invoked := false
	registerFunc(t, r, "tracked", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		invoked = true
		return map[string]any{}, nil
	})

	g := &Graph{
		Nodes: []NodeSpec{
			{ID: "a", Type: "emit"},
			{ID: "b", Type: "boom"},
			{ID: "c", Type: "emit"},
			{ID: "d", Type: "tracked"},
		},
		Edges: []Edge{
			{From: "a", To: "b"}, {From: "a", To: "c"}, {From: "b", To: "d"},
		},
	}

	e := newTestEngine(t, r)
	progress, err := e.Execute(context.Background(), "partial", g)
	require.NoError(t, err)

	assert.Equal(t, NodeStatusFailed, progress["b"].Status)
	assert.Contains(t, progress["b"].Error, "exploded")
	assert.Equal(t, NodeStatusCompleted, progress["c"].Status)
	// Downstream of the failure never runs its body.
	assert.Equal(t, NodeStatusFailed, progress["d"].Status)
	assert.Equal(t, "dependency failed", progress["d"].Error)
	assert.False(t, invoked)

	status, err := e.Status("partial")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, status)
}

func TestIsolatedNodeRunsOnce(t *testing.T) {
	r := node.NewRegistry()
	var mu sync.Mutex
	count := 0
	registerFunc(t, r, "counted", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		mu.Lock()
		count++
		mu.Unlock()
		return map[string]any{}, nil
	})
	g := &Graph{Nodes: []NodeSpec{{ID: "lonely", Type: "counted"}}}

	e := newTestEngine(t, r)
	progress, err := e.Execute(context.Background(), "isolated", g)
	require.NoError(t, err)
	assert.True(t, progress["lonely"].Success)
	assert.Equal(t, 1, count)
}

func TestResolutionFailureFailsNodeOnly(t *testing.T) {
	r := node.NewRegistry()
	registerFunc(t, r, "emit", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return map[string]any{"x": 1}, nil
	})
	g := &Graph{
		Nodes: []NodeSpec{
			{ID: "a", Type: "emit"},
			{ID: "bad", Type: "emit", Params: map[string]any{"v": "$ghost.field"}},
		},
	}
	e := newTestEngine(t, r)
	progress, err := e.Execute(context.Background(), "resfail", g)
	require.NoError(t, err)
	assert.True(t, progress["a"].Success)
	assert.Equal(t, NodeStatusFailed, progress["bad"].Status)
	assert.Contains(t, progress["bad"].Error, CodeUnresolvedRef)
}

func TestCancelSuppressesDownstream(t *testing.T) {
	r := node.NewRegistry()
	gate := make(chan struct{})
	registerFunc(t, r, "slow", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		<-gate
		return map[string]any{}, nil
	})
	downstream := false
	registerFunc(t, r, "after", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		downstream = true
		return map[string]any{}, nil
	})
	g := &Graph{
		Nodes: []NodeSpec{{ID: "a", Type: "slow"}, {ID: "b", Type: "after"}},
		Edges: []Edge{{From: "a", To: "b"}},
	}

	e := newTestEngine(t, r)
	done := make(chan error, 1)
	go func() {
		_, err := e.Execute(context.Background(), "cancelled", g)
		done <- err
	}()

	// Wait until the workflow is tracked and running, cancel, then let
	// the in-flight node finish.
	require.Eventually(t, func() bool {
		status, err := e.Status("cancelled")
		return err == nil && status == StatusRunning
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, e.Cancel("cancelled"))
	close(gate)

	err := <-done
	require.ErrorIs(t, err, ErrCancelled)
	assert.False(t, downstream)

	status, err := e.Status("cancelled")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, status)
}

func TestPauseResume(t *testing.T) {
	r := node.NewRegistry()
	gateA := make(chan struct{})
	registerFunc(t, r, "gated", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		<-gateA
		return map[string]any{}, nil
	})
	registerFunc(t, r, "emit", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return map[string]any{}, nil
	})
	g := &Graph{
		Nodes: []NodeSpec{{ID: "a", Type: "gated"}, {ID: "b", Type: "emit"}},
		Edges: []Edge{{From: "a", To: "b"}},
	}

	e := newTestEngine(t, r)
	done := make(chan error, 1)
	go func() {
		_, err := e.Execute(context.Background(), "paused", g)
		done <- err
	}()

	require.Eventually(t, func() bool {
		status, err := e.Status("paused")
		return err == nil && status == StatusRunning
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, e.Pause("paused"))
	close(gateA)

	// Paused: a finishes but b must not start.
	time.Sleep(50 * time.Millisecond)
	progress, err := e.Progress("paused")
	require.NoError(t, err)
	_, bRan := progress["b"]
	assert.False(t, bRan)

	require.NoError(t, e.Resume("paused"))
	require.NoError(t, <-done)

	status, err := e.Status("paused")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status)
}

func TestLifecycleErrors(t *testing.T) {
	e := newTestEngine(t, node.NewRegistry())
	assert.ErrorIs(t, e.Pause("nope"), ErrUnknownWorkflow)
	assert.ErrorIs(t, e.Resume("nope"), ErrUnknownWorkflow)
	assert.ErrorIs(t, e.Cancel("nope"), ErrUnknownWorkflow)
	_, err := e.Status("nope")
	assert.ErrorIs(t, err, ErrUnknownWorkflow)
}

func TestDeterministicReruns(t *testing.T) {
	r := node.NewRegistry()
	registerFunc(t, r, "emit", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return map[string]any{"x": 2.0}, nil
	})
	registerFunc(t, r, "double", func(_ context.Context, params map[string]any) (map[string]any, error) {
		return map[string]any{"out": numParam(params, "v") * 2}, nil
	})
	g := &Graph{
		Nodes: []NodeSpec{
			{ID: "a", Type: "emit"},
			{ID: "b", Type: "double", Params: map[string]any{"v": "$a.x"}},
		},
		Edges: []Edge{{From: "a", To: "b"}},
	}

	e := newTestEngine(t, r)
	first, err := e.Execute(context.Background(), "run-1", g)
	require.NoError(t, err)
	second, err := e.Execute(context.Background(), "run-2", g)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for id, a := range first {
		b := second[id]
		assert.Equal(t, a.Success, b.Success, "node %s", id)
		assert.Equal(t, a.Status, b.Status, "node %s", id)
		assert.Equal(t, a.Data, b.Data, "node %s", id)
	}
}

func TestPanicBecomesFailedResult(t *testing.T) {
	r := node.NewRegistry()
	registerFunc(t, r, "panicky", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		panic("unexpected")
	})
	g := &Graph{Nodes: []NodeSpec{{ID: "p", Type: "panicky"}}}

	e := newTestEngine(t, r)
	progress, err := e.Execute(context.Background(), "panic", g)
	require.NoError(t, err)
	assert.Equal(t, NodeStatusFailed, progress["p"].Status)
	assert.Contains(t, progress["p"].Error, "panic")
}

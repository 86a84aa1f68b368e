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

	"github.com/google/uuid"

	"trpc.group/trpc-go/trpc-workflow-go/node"
)

// SubgraphRunner executes a nested workflow graph. Loop-style nodes use
// it to run their body once per item, with per-iteration variables made
// available to parameter resolution.
type SubgraphRunner interface {
	RunSubgraph(ctx context.Context, g *Graph, vars map[string]any) (map[string]NodeResult, error)
}

// SubgraphAware is implemented by nodes that drive nested workflows. The
// engine injects a runner whose registry excludes the node's own type, so
// a body cannot recurse into itself.
type SubgraphAware interface {
	SetSubgraphRunner(SubgraphRunner)
}

// RunSubgraph implements SubgraphRunner. The run is tracked under a
// transient ID and forgotten afterwards; the final progress map is
// returned even when some body nodes failed, so callers can report
// per-item outcomes.
func (e *Engine) RunSubgraph(ctx context.Context, g *Graph, vars map[string]any) (map[string]NodeResult, error) {
	id := "sub-" + uuid.NewString()
	defer e.forget(id)
	updates, err := e.stream(ctx, id, g, vars)
	if err != nil {
		return nil, err
	}
	for range updates {
	}
	progress, err := e.Progress(id)
	if err != nil {
		return nil, err
	}
	if status, _ := e.Status(id); status == StatusCancelled {
		return progress, ErrCancelled
	}
	return progress, nil
}

// runnerExcluding returns a child engine whose registry omits the given
// node type. Children get their own worker pool so a parent node waiting
// on its subgraph cannot starve the body's workers.
func (e *Engine) runnerExcluding(typeTag string) SubgraphRunner {
	e.runnerMu.Lock()
	defer e.runnerMu.Unlock()
	if child, ok := e.runners[typeTag]; ok {
		return child
	}
	reg := e.registry.Clone(func(d *node.Descriptor) bool { return d.Type == typeTag })
	child, err := NewEngine(reg, WithPoolSize(e.poolSize))
	if err != nil {
		// Pool creation only fails on a non-positive size, which
		// NewExecutor already defaults away.
		return e
	}
	e.runners[typeTag] = child
	return child
}

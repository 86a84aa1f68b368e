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
	"encoding/json"
	"fmt"
	"sort"

	"trpc.group/trpc-go/trpc-workflow-go/workflow"
)

// maxLoopItems caps how many items one loop node processes.
const maxLoopItems = 6

// LoopNode runs an inner workflow once per item. The engine injects a
// subgraph runner whose registry excludes the loop type itself, so a body
// cannot recurse. Per-iteration variables are exposed to parameter
// resolution as $item, $index, $length, $first and $last.
type LoopNode struct {
	runner workflow.SubgraphRunner
}

// SetSubgraphRunner implements workflow.SubgraphAware.
func (n *LoopNode) SetSubgraphRunner(r workflow.SubgraphRunner) {
	n.runner = r
}

// Execute implements node.Node.
func (n *LoopNode) Execute(ctx context.Context, params map[string]any) (map[string]any, error) {
	return n.ExecuteStream(ctx, params, nil)
}

// ExecuteStream implements node.StreamingNode. Each finished iteration
// emits a partial with the results accumulated so far.
func (n *LoopNode) ExecuteStream(ctx context.Context, params map[string]any,
	emit func(partial map[string]any)) (map[string]any, error) {
	if n.runner == nil {
		return nil, fmt.Errorf("loop node has no subgraph runner")
	}

	items, err := coerceItems(params["array"])
	if err != nil {
		return nil, err
	}
	graph, err := coerceGraph(params["workflow_json"])
	if err != nil {
		return nil, err
	}

	var results []any
	for index, item := range items {
		if index >= maxLoopItems {
			break
		}
		vars := map[string]any{
			"index":  index,
			"item":   item,
			"length": len(items),
			"first":  index == 0,
			"last":   index == len(items)-1,
		}
		progress, err := n.runner.RunSubgraph(ctx, graph, vars)
		if err != nil {
			return nil, fmt.Errorf("loop iteration %d: %w", index, err)
		}
		for _, id := range sortedIDs(progress) {
			if data := progress[id].Data; data != nil {
				results = append(results, data)
			}
		}
		if emit != nil {
			emit(map[string]any{
				"results":   results,
				"completed": index + 1,
				"total":     len(items),
			})
		}
	}
	return map[string]any{
		"results": results,
		"total":   len(items),
		"success": true,
	}, nil
}

// coerceItems accepts a list, or wraps a scalar or object as a singleton.
func coerceItems(v any) ([]any, error) {
	switch item := v.(type) {
	case []any:
		return item, nil
	case string, float64, int, bool, map[string]any:
		return []any{item}, nil
	default:
		return nil, fmt.Errorf("param %q must be an array, string, number or object", "array")
	}
}

func coerceGraph(v any) (*workflow.Graph, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("param %q must be a workflow object", "workflow_json")
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("encode inner workflow: %w", err)
	}
	return workflow.ParseGraph(raw)
}

func sortedIDs(progress map[string]workflow.NodeResult) []string {
	ids := make([]string, 0, len(progress))
	for id := range progress {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

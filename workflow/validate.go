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
	"fmt"

	"trpc.group/trpc-go/trpc-workflow-go/node"
)

// Validate checks a graph against the registry. Checks run in order:
// duplicate IDs, unknown node types, dangling edge endpoints, cycles.
// The first failure is returned as a *ValidationError.
func Validate(g *Graph, registry *node.Registry) error {
	seen := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, dup := seen[n.ID]; dup {
			return &ValidationError{
				Code:    CodeDuplicateID,
				Message: fmt.Sprintf("duplicate node id %q", n.ID),
			}
		}
		seen[n.ID] = struct{}{}
	}

	for _, n := range g.Nodes {
		if !registry.Has(n.Type) {
			return &ValidationError{
				Code:    CodeUnknownType,
				Message: fmt.Sprintf("node %q has unregistered type %q", n.ID, n.Type),
			}
		}
	}

	for _, e := range g.Edges {
		if _, ok := seen[e.From]; !ok {
			return &ValidationError{
				Code:    CodeDanglingEdge,
				Message: fmt.Sprintf("edge references unknown node %q", e.From),
			}
		}
		if _, ok := seen[e.To]; !ok {
			return &ValidationError{
				Code:    CodeDanglingEdge,
				Message: fmt.Sprintf("edge references unknown node %q", e.To),
			}
		}
	}

	if cycle := findCycle(g); cycle != nil {
		return &ValidationError{
			Code:    CodeCycle,
			Message: "workflow contains a cycle",
			Cycle:   cycle,
		}
	}
	return nil
}

// findCycle runs a three-color DFS and returns a witness cycle
// in walk order, or nil for an acyclic graph.
func findCycle(g *Graph) []string {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current path
		black = 2 // finished
	)
	next := g.successors()
	color := make(map[string]int, len(g.Nodes))
	parent := make(map[string]string, len(g.Nodes))

	var walk func(id string) []string
	walk = func(id string) []string {
		color[id] = gray
		for _, succ := range next[id] {
			switch color[succ] {
			case white:
				parent[succ] = id
				if cycle := walk(succ); cycle != nil {
					return cycle
				}
			case gray:
				// Back edge: rebuild the cycle from id back to succ.
				cycle := []string{succ}
				for cur := id; ; cur = parent[cur] {
					cycle = append(cycle, cur)
					if cur == succ {
						break
					}
				}
				// Reverse into walk order.
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return cycle
			}
		}
		color[id] = black
		return nil
	}

	for _, n := range g.Nodes {
		if color[n.ID] == white {
			if cycle := walk(n.ID); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

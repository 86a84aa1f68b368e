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
	"encoding/json"
	"fmt"
)

// NodeSpec is one node declaration inside a graph.
type NodeSpec struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
}

// Edge is a directed dependency: To runs after From succeeded.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is a workflow definition. Immutable after validation.
type Graph struct {
	Nodes []NodeSpec `json:"nodes"`
	Edges []Edge     `json:"edges"`
}

// ParseGraph decodes a workflow JSON document.
func ParseGraph(raw []byte) (*Graph, error) {
	var g Graph
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("parse workflow: %w", err)
	}
	return &g, nil
}

// Node returns the node spec with the given ID.
func (g *Graph) Node(id string) (NodeSpec, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeSpec{}, false
}

// dependencies builds the reverse dependency map: node ID to the set of
// its predecessor IDs. Every node appears as a key, isolated ones with an
// empty set.
func (g *Graph) dependencies() map[string]map[string]struct{} {
	deps := make(map[string]map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		deps[n.ID] = make(map[string]struct{})
	}
	for _, e := range g.Edges {
		deps[e.To][e.From] = struct{}{}
	}
	return deps
}

// successors builds the forward adjacency map.
func (g *Graph) successors() map[string][]string {
	next := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		next[e.From] = append(next[e.From], e.To)
	}
	return next
}

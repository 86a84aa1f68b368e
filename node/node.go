//
// Tencent is pleased to support the open source community by making trpc-workflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-workflow-go is licensed under the Apache License Version 2.0.
//
//

// Package node defines the node contract, the static node descriptors and
// the process-wide node type registry.
package node

import "context"

// Node is the contract every node implementation satisfies. A node
// instance is created per execution, owns no state beyond the call and is
// discarded when Execute returns.
type Node interface {
	// Execute runs the node with fully resolved parameters and returns the
	// terminal data map.
	Execute(ctx context.Context, params map[string]any) (map[string]any, error)
}

// StreamingNode is implemented by nodes that emit intermediate results.
// ExecuteStream calls emit zero or more times with partial data and
// returns the final data map. Whether a node streams is observable from
// its descriptor.
type StreamingNode interface {
	Node
	ExecuteStream(ctx context.Context, params map[string]any, emit func(partial map[string]any)) (map[string]any, error)
}

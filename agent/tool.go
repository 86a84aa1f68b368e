//
// Tencent is pleased to support the open source community by making trpc-workflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-workflow-go is licensed under the Apache License Version 2.0.
//
//

package agent

import (
	"context"
	"fmt"
	"time"

	"trpc.group/trpc-go/trpc-workflow-go/node"
)

// Tool is a callable the agent can pick as an action. Name must be
// unique within one agent.
type Tool struct {
	Name        string
	Description string
	Params      map[string]node.ParamSpec
	Outputs     map[string]string
	MaxRetries  int
	RetryDelay  time.Duration
	Run         func(ctx context.Context, input any) (any, error)
}

// FromNode wraps a registered node type as a tool. The action input must
// be an object matching the node's parameter schema.
func FromNode(registry *node.Registry, typeTag string) (Tool, error) {
	desc, ok := registry.Descriptor(typeTag)
	if !ok {
		return Tool{}, fmt.Errorf("unknown node type: %s", typeTag)
	}
	return Tool{
		Name:        desc.Type,
		Description: desc.Description,
		Params:      desc.Params,
		Outputs:     desc.Output,
		RetryDelay:  time.Second,
		Run: func(ctx context.Context, input any) (any, error) {
			params, ok := input.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("tool %s expects an object input, got %T", desc.Type, input)
			}
			n, err := registry.New(typeTag)
			if err != nil {
				return nil, err
			}
			return n.Execute(ctx, params)
		},
	}, nil
}

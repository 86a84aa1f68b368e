//
// Tencent is pleased to support the open source community by making trpc-workflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-workflow-go is licensed under the Apache License Version 2.0.
//
//

// Package nodes provides the built-in node plug-ins and registers them
// against a node registry at startup.
package nodes

import (
	"context"
	"fmt"
	"strconv"
)

// AddNode sums two numbers.
type AddNode struct{}

// Execute implements node.Node.
func (AddNode) Execute(_ context.Context, params map[string]any) (map[string]any, error) {
	num1, err := toFloat(params["num1"])
	if err != nil {
		return nil, fmt.Errorf("num1: %w", err)
	}
	num2, err := toFloat(params["num2"])
	if err != nil {
		return nil, fmt.Errorf("num2: %w", err)
	}
	return map[string]any{"result": num1 + num2}, nil
}

// MultiplyNode multiplies two numbers.
type MultiplyNode struct{}

// Execute implements node.Node.
func (MultiplyNode) Execute(_ context.Context, params map[string]any) (map[string]any, error) {
	num1, err := toFloat(params["num1"])
	if err != nil {
		return nil, fmt.Errorf("num1: %w", err)
	}
	num2, err := toFloat(params["num2"])
	if err != nil {
		return nil, fmt.Errorf("num2: %w", err)
	}
	return map[string]any{"result": num1 * num2}, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return f, nil
	case nil:
		return 0, fmt.Errorf("missing numeric value")
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}

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
	"fmt"
	"strings"
)

// TextConcatNode joins two strings with an optional separator.
type TextConcatNode struct{}

// Execute implements node.Node.
func (TextConcatNode) Execute(_ context.Context, params map[string]any) (map[string]any, error) {
	text1, err := requireString(params, "text1")
	if err != nil {
		return nil, err
	}
	text2, err := requireString(params, "text2")
	if err != nil {
		return nil, err
	}
	separator := optionalString(params, "separator", "")
	return map[string]any{"result": text1 + separator + text2}, nil
}

// TextReplaceNode replaces every occurrence of a substring.
type TextReplaceNode struct{}

// Execute implements node.Node.
func (TextReplaceNode) Execute(_ context.Context, params map[string]any) (map[string]any, error) {
	text, err := requireString(params, "text")
	if err != nil {
		return nil, err
	}
	oldStr, err := requireString(params, "old_str")
	if err != nil {
		return nil, err
	}
	newStr, err := requireString(params, "new_str")
	if err != nil {
		return nil, err
	}
	return map[string]any{"result": strings.ReplaceAll(text, oldStr, newStr)}, nil
}

func requireString(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return "", fmt.Errorf("missing required param %q", key)
	}
	return asString(v), nil
}

func optionalString(params map[string]any, key, fallback string) string {
	v, ok := params[key]
	if !ok || v == nil {
		return fallback
	}
	return asString(v)
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

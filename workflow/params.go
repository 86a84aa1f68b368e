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
	"regexp"
	"strings"
)

// embeddedRefPattern matches one-level references inside larger strings.
// Deeper paths are only supported by the single-expression form.
var embeddedRefPattern = regexp.MustCompile(`\$[A-Za-z0-9_]+\.[A-Za-z0-9_]+`)

// ResolveParams substitutes references in a node's declared params against
// the per-iteration context and the recorded node results. Resolution is
// recursive over nested maps and lists.
//
// A string that begins with "$", contains no whitespace and has at least
// one "." is a single expression: the referenced value replaces the whole
// string, preserving its type. Any other string containing "$" has each
// embedded $node.field match replaced by the value's string form.
func ResolveParams(params map[string]any, progress map[string]NodeResult, context map[string]any) (map[string]any, error) {
	resolved := make(map[string]any, len(params))
	for key, value := range params {
		v, err := resolveValue(value, progress, context)
		if err != nil {
			return nil, err
		}
		resolved[key] = v
	}
	return resolved, nil
}

func resolveValue(value any, progress map[string]NodeResult, context map[string]any) (any, error) {
	switch v := value.(type) {
	case string:
		return resolveString(v, progress, context)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			r, err := resolveValue(item, progress, context)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			r, err := resolveValue(item, progress, context)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return value, nil
	}
}

func resolveString(s string, progress map[string]NodeResult, context map[string]any) (any, error) {
	if strings.HasPrefix(s, "$") && !strings.ContainsAny(s, " \t\n") && strings.Contains(s, ".") {
		return resolveRef(s, progress, context)
	}
	if !strings.Contains(s, "$") {
		return s, nil
	}
	var refErr error
	replaced := embeddedRefPattern.ReplaceAllStringFunc(s, func(match string) string {
		if refErr != nil {
			return match
		}
		v, err := resolveRef(match, progress, context)
		if err != nil {
			refErr = err
			return match
		}
		return fmt.Sprintf("%v", v)
	})
	if refErr != nil {
		return nil, refErr
	}
	return replaced, nil
}

// resolveRef resolves a "$root.field..." expression. The root segment is
// looked up in the context first, then as a node ID in progress.
func resolveRef(ref string, progress map[string]NodeResult, context map[string]any) (any, error) {
	parts := strings.Split(ref[1:], ".")
	root, fields := parts[0], parts[1:]

	if context != nil {
		if current, ok := context[root]; ok {
			return walkFields(ref, root, current, fields)
		}
	}

	result, ok := progress[root]
	if !ok {
		return nil, &ResolveError{
			Code:    CodeUnresolvedRef,
			Ref:     ref,
			Message: fmt.Sprintf("reference to node %q with no recorded result", root),
		}
	}
	if result.Data == nil {
		return nil, &ResolveError{
			Code:    CodeNoData,
			Ref:     ref,
			Message: fmt.Sprintf("node %q returned no data", root),
		}
	}
	return walkFields(ref, root, result.Data, fields)
}

func walkFields(ref, root string, current any, fields []string) (any, error) {
	for _, field := range fields {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, &ResolveError{
				Code:    CodeMissingField,
				Ref:     ref,
				Message: fmt.Sprintf("cannot access field %q on %T in %q", field, current, root),
			}
		}
		current, ok = m[field]
		if !ok {
			return nil, &ResolveError{
				Code:    CodeMissingField,
				Ref:     ref,
				Message: fmt.Sprintf("field %q not present in result of %q", field, root),
			}
		}
	}
	return current, nil
}

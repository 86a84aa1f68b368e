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
	"errors"
	"fmt"
	"strings"
)

// Validation error codes. Validation rejects a graph before any node runs.
const (
	CodeDuplicateID  = "DUPLICATE_ID"
	CodeUnknownType  = "UNKNOWN_TYPE"
	CodeDanglingEdge = "DANGLING_EDGE"
	CodeCycle        = "CYCLE"
)

// Resolution error codes. Resolution failures surface as a FAILED node
// result and never abort sibling nodes.
const (
	CodeUnresolvedRef = "UNRESOLVED_REF"
	CodeNoData        = "NO_DATA"
	CodeMissingField  = "MISSING_FIELD"
)

var (
	// ErrCancelled is returned by the collect form when execution was
	// cancelled before finishing.
	ErrCancelled = errors.New("workflow cancelled")
	// ErrUnknownWorkflow is returned by lifecycle operations on an
	// untracked workflow ID.
	ErrUnknownWorkflow = errors.New("unknown workflow")
)

// ValidationError classifies a graph validation failure.
type ValidationError struct {
	Code    string
	Message string
	// Cycle holds a witness cycle for CodeCycle, in walk order.
	Cycle []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Code == CodeCycle && len(e.Cycle) > 0 {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(e.Cycle, " -> "))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ResolveError classifies a parameter resolution failure.
type ResolveError struct {
	Code    string
	Ref     string
	Message string
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

//
// Tencent is pleased to support the open source community by making trpc-workflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-workflow-go is licensed under the Apache License Version 2.0.
//
//

// Package workflow implements the DAG execution engine: graph validation,
// parameter resolution, node execution and dependency-driven scheduling.
package workflow

import "time"

// NodeStatus is the execution status of a single node. The only legal
// transitions are PENDING→RUNNING→{COMPLETED|FAILED}.
type NodeStatus string

const (
	// NodeStatusPending means the node has not started yet.
	NodeStatusPending NodeStatus = "pending"
	// NodeStatusRunning means the node is executing; intermediate results
	// carry this status.
	NodeStatusRunning NodeStatus = "running"
	// NodeStatusCompleted is the successful terminal status.
	NodeStatusCompleted NodeStatus = "completed"
	// NodeStatusFailed is the failed terminal status.
	NodeStatusFailed NodeStatus = "failed"
)

// Status is the lifecycle status of a workflow execution. A terminal
// status (completed, failed, cancelled) is never left.
type Status string

const (
	// StatusPending means the workflow has not started.
	StatusPending Status = "pending"
	// StatusRunning means node tasks are in flight.
	StatusRunning Status = "running"
	// StatusPaused suppresses new node launches; in-flight nodes finish.
	StatusPaused Status = "paused"
	// StatusCompleted means every node finished successfully.
	StatusCompleted Status = "completed"
	// StatusFailed means at least one node did not succeed.
	StatusFailed Status = "failed"
	// StatusCancelled means execution was cancelled by the caller.
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// NodeResult is the latest known outcome of one node. Invariants:
// Success iff Status==NodeStatusCompleted; Data set iff Success; Error set
// iff not Success.
type NodeResult struct {
	Success   bool           `json:"success"`
	Status    NodeStatus     `json:"status"`
	Data      map[string]any `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
	StartTime time.Time      `json:"start_time,omitzero"`
	EndTime   time.Time      `json:"end_time,omitzero"`
}

// Terminal reports whether the result is a terminal one.
func (r NodeResult) Terminal() bool {
	return r.Status == NodeStatusCompleted || r.Status == NodeStatusFailed
}

// NodeUpdate is one element of the stream form: the node that produced an
// event and its result at that point.
type NodeUpdate struct {
	NodeID string
	Result NodeResult
}

// NodeCallback observes node results as they are published.
type NodeCallback func(workflowID, nodeID string, result NodeResult)

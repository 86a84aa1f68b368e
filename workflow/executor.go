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
	"context"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"

	"trpc.group/trpc-go/trpc-workflow-go/log"
	"trpc.group/trpc-go/trpc-workflow-go/node"
)

// defaultPoolSize bounds concurrent blocking node work.
const defaultPoolSize = 4

// Executor runs single node instances on a bounded worker pool and turns
// their outcomes into a stream of NodeResult events.
type Executor struct {
	pool *ants.Pool
}

// NewExecutor creates an executor with the given pool size. A size of
// zero or less uses the default.
func NewExecutor(size int) (*Executor, error) {
	if size <= 0 {
		size = defaultPoolSize
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return &Executor{pool: pool}, nil
}

// Close releases the worker pool.
func (e *Executor) Close() {
	e.pool.Release()
}

// Run executes one node instance. The returned channel carries, in order:
// one RUNNING event with start_time and no data, zero or more RUNNING
// events with partial data, and exactly one terminal COMPLETED or FAILED
// event. Run never propagates a panic; it becomes a FAILED event.
func (e *Executor) Run(ctx context.Context, n node.Node, params map[string]any) <-chan NodeResult {
	ch := make(chan NodeResult, 16)
	start := time.Now()
	ch <- NodeResult{Status: NodeStatusRunning, StartTime: start}

	task := func() {
		defer close(ch)
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("node panicked: %v", r)
				ch <- failedResult(start, fmt.Sprintf("node panic: %v", r))
			}
		}()

		var (
			data map[string]any
			err  error
		)
		if sn, ok := n.(node.StreamingNode); ok {
			data, err = sn.ExecuteStream(ctx, params, func(partial map[string]any) {
				ch <- NodeResult{Status: NodeStatusRunning, Data: partial, StartTime: start}
			})
		} else {
			data, err = n.Execute(ctx, params)
		}
		if err != nil {
			ch <- failedResult(start, err.Error())
			return
		}
		ch <- NodeResult{
			Success:   true,
			Status:    NodeStatusCompleted,
			Data:      data,
			StartTime: start,
			EndTime:   time.Now(),
		}
	}

	if err := e.pool.Submit(task); err != nil {
		ch <- failedResult(start, fmt.Sprintf("submit node task: %v", err))
		close(ch)
	}
	return ch
}

func failedResult(start time.Time, msg string) NodeResult {
	return NodeResult{
		Status:    NodeStatusFailed,
		Error:     msg,
		StartTime: start,
		EndTime:   time.Now(),
	}
}

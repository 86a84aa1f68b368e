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

	"trpc.group/trpc-go/trpc-workflow-go/event"
	"trpc.group/trpc-go/trpc-workflow-go/log"
)

// EmitFunc publishes one event to the session stream.
type EmitFunc func(*event.Event)

// dispatch invokes a tool under its retry envelope. Each attempt emits
// tool_progress; a failed attempt emits tool_retry. The last failure is
// wrapped in ErrToolExecution.
func (a *Agent) dispatch(ctx context.Context, tool Tool, input any, emit EmitFunc) (any, error) {
	var lastErr error
	for attempt := 0; attempt <= tool.MaxRetries; attempt++ {
		emit(event.NewToolProgress(tool.Name, "running", input))
		observation, err := tool.Run(ctx, input)
		if err == nil {
			a.metrics.recordToolUsage(tool.Name)
			return observation, nil
		}
		lastErr = err
		a.metrics.recordRetry()
		log.Warnf("tool %s attempt %d/%d failed: %v", tool.Name, attempt+1, tool.MaxRetries+1, err)
		emit(event.NewToolRetry(tool.Name, attempt+1, tool.MaxRetries, err.Error()))
		if attempt == tool.MaxRetries {
			break
		}
		delay := tool.RetryDelay
		if delay <= 0 {
			delay = time.Second
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("%w: tool %s failed after %d attempts: %v",
		ErrToolExecution, tool.Name, tool.MaxRetries+1, lastErr)
}

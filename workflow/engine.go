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
	"sync"
	"time"

	"trpc.group/trpc-go/trpc-workflow-go/log"
	"trpc.group/trpc-go/trpc-workflow-go/node"
)

// Option configures an Engine.
type Option func(*Engine)

// WithPoolSize sets the worker pool size for blocking node work.
func WithPoolSize(size int) Option {
	return func(e *Engine) { e.poolSize = size }
}

// WithExecutor injects a pre-built executor. The engine will not close it.
func WithExecutor(ex *Executor) Option {
	return func(e *Engine) {
		e.executor = ex
		e.ownExecutor = false
	}
}

// Engine schedules workflow graphs: it validates them, launches node
// tasks as their dependencies complete, and tracks per-workflow progress
// and lifecycle status.
type Engine struct {
	registry    *node.Registry
	executor    *Executor
	ownExecutor bool
	poolSize    int

	mu        sync.RWMutex
	execs     map[string]*execution
	callbacks []NodeCallback

	runnerMu sync.Mutex
	runners  map[string]*Engine
}

// execution is the mutable state of one running workflow.
type execution struct {
	mu       sync.Mutex
	cond     *sync.Cond
	status   Status
	progress map[string]NodeResult
	launched map[string]struct{}
	vars     map[string]any
	wg       sync.WaitGroup
}

func newExecution(vars map[string]any) *execution {
	ex := &execution{
		status:   StatusPending,
		progress: make(map[string]NodeResult),
		launched: make(map[string]struct{}),
		vars:     vars,
	}
	ex.cond = sync.NewCond(&ex.mu)
	return ex
}

// NewEngine creates an engine over the given node registry.
func NewEngine(registry *node.Registry, opts ...Option) (*Engine, error) {
	e := &Engine{
		registry:    registry,
		ownExecutor: true,
		execs:       make(map[string]*execution),
		runners:     make(map[string]*Engine),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.executor == nil {
		ex, err := NewExecutor(e.poolSize)
		if err != nil {
			return nil, err
		}
		e.executor = ex
	}
	return e, nil
}

// Close releases the engine's worker pool and any subgraph engines.
func (e *Engine) Close() {
	e.runnerMu.Lock()
	for _, child := range e.runners {
		child.Close()
	}
	e.runners = make(map[string]*Engine)
	e.runnerMu.Unlock()
	if e.ownExecutor {
		e.executor.Close()
	}
}

// RegisterNodeCallback adds an observer invoked for every published node
// result, in registration order.
func (e *Engine) RegisterNodeCallback(cb NodeCallback) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.callbacks = append(e.callbacks, cb)
}

// Execute runs a workflow to completion and returns the final progress
// map. Returns ErrCancelled (with the partial progress) when execution
// was cancelled.
func (e *Engine) Execute(ctx context.Context, workflowID string, g *Graph) (map[string]NodeResult, error) {
	return e.ExecuteWithParams(ctx, workflowID, g, nil)
}

// ExecuteStream runs a workflow and returns a channel of node updates in
// the order events are produced. The channel closes once the workflow
// reaches a terminal status.
func (e *Engine) ExecuteStream(ctx context.Context, workflowID string, g *Graph) (<-chan NodeUpdate, error) {
	return e.stream(ctx, workflowID, g, nil)
}

// ExecuteWithParams is the collect form with global variables exposed to
// parameter resolution under their own names, ahead of node references.
func (e *Engine) ExecuteWithParams(ctx context.Context, workflowID string, g *Graph,
	globalParams map[string]any) (map[string]NodeResult, error) {
	updates, err := e.stream(ctx, workflowID, g, globalParams)
	if err != nil {
		return nil, err
	}
	for range updates {
	}
	progress, _ := e.Progress(workflowID)
	if status, _ := e.Status(workflowID); status == StatusCancelled {
		return progress, ErrCancelled
	}
	return progress, nil
}

func (e *Engine) stream(ctx context.Context, workflowID string, g *Graph, vars map[string]any) (<-chan NodeUpdate, error) {
	if err := Validate(g, e.registry); err != nil {
		return nil, err
	}

	ex := newExecution(vars)
	e.mu.Lock()
	if old, ok := e.execs[workflowID]; ok {
		old.mu.Lock()
		terminal := old.status.Terminal()
		old.mu.Unlock()
		if !terminal {
			e.mu.Unlock()
			return nil, fmt.Errorf("workflow %s is already running", workflowID)
		}
	}
	e.execs[workflowID] = ex
	e.mu.Unlock()

	out := make(chan NodeUpdate, 64)
	deps := g.dependencies()
	succs := g.successors()

	ex.mu.Lock()
	ex.status = StatusRunning
	// Start set: every node with no predecessors, isolated ones included.
	for _, spec := range g.Nodes {
		if len(deps[spec.ID]) == 0 {
			ex.launched[spec.ID] = struct{}{}
			ex.wg.Add(1)
			go e.runNode(ctx, workflowID, ex, g, deps, succs, spec, out)
		}
	}
	ex.mu.Unlock()
	log.Debugf("workflow %s started with %d nodes", workflowID, len(g.Nodes))

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			e.cancelExecution(ex)
		case <-done:
		}
	}()
	go func() {
		ex.wg.Wait()
		close(done)
		e.finalize(workflowID, ex, g)
		close(out)
	}()
	return out, nil
}

// runNode is one processing task: it gates on lifecycle status, checks
// predecessors, resolves params, drives the executor and launches ready
// successors on success.
func (e *Engine) runNode(ctx context.Context, workflowID string, ex *execution,
	g *Graph, deps map[string]map[string]struct{}, succs map[string][]string,
	spec NodeSpec, out chan<- NodeUpdate) {
	defer ex.wg.Done()

	ex.mu.Lock()
	for ex.status == StatusPaused {
		ex.cond.Wait()
	}
	if ex.status == StatusCancelled {
		ex.mu.Unlock()
		return
	}
	depFailed := false
	for pred := range deps[spec.ID] {
		if r, ok := ex.progress[pred]; !ok || !r.Success {
			depFailed = true
			break
		}
	}
	snapshot := make(map[string]NodeResult, len(ex.progress))
	for id, r := range ex.progress {
		snapshot[id] = r
	}
	vars := ex.vars
	ex.mu.Unlock()

	if depFailed {
		e.publish(workflowID, ex, spec.ID, failedResultNow("dependency failed"), out)
		return
	}

	resolved, err := ResolveParams(spec.Params, snapshot, vars)
	if err != nil {
		e.publish(workflowID, ex, spec.ID, failedResultNow(err.Error()), out)
		return
	}

	n, err := e.registry.New(spec.Type)
	if err != nil {
		e.publish(workflowID, ex, spec.ID, failedResultNow(err.Error()), out)
		return
	}
	if sa, ok := n.(SubgraphAware); ok {
		sa.SetSubgraphRunner(e.runnerExcluding(spec.Type))
	}

	var final NodeResult
	for result := range e.executor.Run(ctx, n, resolved) {
		final = result
		e.publish(workflowID, ex, spec.ID, result, out)
	}
	if !final.Success {
		log.Debugf("workflow %s node %s failed: %s", workflowID, spec.ID, final.Error)
		return
	}

	// Launch every successor whose predecessors are all satisfied now.
	ex.mu.Lock()
	for _, next := range succs[spec.ID] {
		if _, already := ex.launched[next]; already {
			continue
		}
		ready := true
		for pred := range deps[next] {
			if r, ok := ex.progress[pred]; !ok || !r.Success {
				ready = false
				break
			}
		}
		if !ready {
			continue
		}
		nextSpec, ok := g.Node(next)
		if !ok {
			continue
		}
		ex.launched[next] = struct{}{}
		ex.wg.Add(1)
		go e.runNode(ctx, workflowID, ex, g, deps, succs, nextSpec, out)
	}
	ex.mu.Unlock()
}

// publish records a node result, yields it on the stream and notifies
// callbacks.
func (e *Engine) publish(workflowID string, ex *execution, nodeID string, result NodeResult, out chan<- NodeUpdate) {
	ex.mu.Lock()
	ex.progress[nodeID] = result
	ex.mu.Unlock()
	out <- NodeUpdate{NodeID: nodeID, Result: result}

	e.mu.RLock()
	callbacks := e.callbacks
	e.mu.RUnlock()
	for _, cb := range callbacks {
		cb(workflowID, nodeID, result)
	}
}

// finalize decides the terminal workflow status once every task returned.
func (e *Engine) finalize(workflowID string, ex *execution, g *Graph) {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	if ex.status == StatusCancelled {
		log.Infof("workflow %s cancelled", workflowID)
		return
	}
	for _, spec := range g.Nodes {
		if r, ok := ex.progress[spec.ID]; !ok || !r.Success {
			// Nodes never launched because an upstream failed still need a
			// terminal record.
			if !ok {
				ex.progress[spec.ID] = failedResultNow("dependency failed")
			}
			ex.status = StatusFailed
		}
	}
	if ex.status != StatusFailed {
		ex.status = StatusCompleted
	}
	log.Infof("workflow %s finished with status %s", workflowID, ex.status)
}

func (e *Engine) cancelExecution(ex *execution) {
	ex.mu.Lock()
	if !ex.status.Terminal() {
		ex.status = StatusCancelled
		ex.cond.Broadcast()
	}
	ex.mu.Unlock()
}

func (e *Engine) lookup(workflowID string) (*execution, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ex, ok := e.execs[workflowID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWorkflow, workflowID)
	}
	return ex, nil
}

// Pause suppresses new node launches. In-flight nodes finish naturally.
func (e *Engine) Pause(workflowID string) error {
	ex, err := e.lookup(workflowID)
	if err != nil {
		return err
	}
	ex.mu.Lock()
	defer ex.mu.Unlock()
	if ex.status != StatusRunning {
		return fmt.Errorf("cannot pause workflow %s in status %s", workflowID, ex.status)
	}
	ex.status = StatusPaused
	return nil
}

// Resume lifts a pause.
func (e *Engine) Resume(workflowID string) error {
	ex, err := e.lookup(workflowID)
	if err != nil {
		return err
	}
	ex.mu.Lock()
	defer ex.mu.Unlock()
	if ex.status != StatusPaused {
		return fmt.Errorf("cannot resume workflow %s in status %s", workflowID, ex.status)
	}
	ex.status = StatusRunning
	ex.cond.Broadcast()
	return nil
}

// Cancel stops a workflow cooperatively: no new launches, in-flight nodes
// observe cancellation at their next suspension point.
func (e *Engine) Cancel(workflowID string) error {
	ex, err := e.lookup(workflowID)
	if err != nil {
		return err
	}
	e.cancelExecution(ex)
	return nil
}

// Status returns the lifecycle status of a tracked workflow.
func (e *Engine) Status(workflowID string) (Status, error) {
	ex, err := e.lookup(workflowID)
	if err != nil {
		return "", err
	}
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.status, nil
}

// Progress returns a snapshot of the per-node results of a tracked
// workflow.
func (e *Engine) Progress(workflowID string) (map[string]NodeResult, error) {
	ex, err := e.lookup(workflowID)
	if err != nil {
		return nil, err
	}
	ex.mu.Lock()
	defer ex.mu.Unlock()
	snapshot := make(map[string]NodeResult, len(ex.progress))
	for id, r := range ex.progress {
		snapshot[id] = r
	}
	return snapshot, nil
}

// forget drops a tracked execution. Used for internal subgraph runs.
func (e *Engine) forget(workflowID string) {
	e.mu.Lock()
	delete(e.execs, workflowID)
	e.mu.Unlock()
}

func failedResultNow(msg string) NodeResult {
	return failedResult(time.Now(), msg)
}

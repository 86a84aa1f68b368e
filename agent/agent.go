//
// Tencent is pleased to support the open source community by making trpc-workflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-workflow-go is licensed under the Apache License Version 2.0.
//
//

// Package agent implements a bounded ReAct loop: the model proposes one
// action per iteration, tools execute it and the observation feeds the
// next iteration until a final answer or the iteration cap.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"trpc.group/trpc-go/trpc-workflow-go/event"
	"trpc.group/trpc-go/trpc-workflow-go/log"
	"trpc.group/trpc-go/trpc-workflow-go/model"
)

var (
	// ErrToolNotFound means the model picked an action outside the tool set.
	ErrToolNotFound = errors.New("tool not found")
	// ErrToolExecution means a tool kept failing past its retry budget.
	ErrToolExecution = errors.New("tool execution failed")
	// ErrExhausted means the iteration cap was hit without a final answer.
	ErrExhausted = errors.New("no final answer within iteration limit")
)

const (
	defaultMaxIterations = 5
	defaultMemorySize    = 10
)

// Options configure an Agent.
type Options struct {
	instruction   string
	maxIterations int
	memorySize    int
	cacheSize     int
	cacheTTL      time.Duration
}

// Option mutates Options.
type Option func(*Options)

// WithInstruction sets the system instruction templated into the prompt.
func WithInstruction(s string) Option {
	return func(o *Options) { o.instruction = s }
}

// WithMaxIterations caps think/act cycles per query.
func WithMaxIterations(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.maxIterations = n
		}
	}
}

// WithMemorySize caps how many history lines are templated into the prompt.
func WithMemorySize(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.memorySize = n
		}
	}
}

// WithCache sizes the response cache.
func WithCache(size int, ttl time.Duration) Option {
	return func(o *Options) {
		o.cacheSize = size
		o.cacheTTL = ttl
	}
}

// Agent drives the loop. One Agent serves many sessions; per-session
// history is partitioned by session ID.
type Agent struct {
	model         model.Model
	tools         map[string]Tool
	toolsDesc     string
	toolNames     string
	instruction   string
	maxIterations int
	memorySize    int

	cache   *responseCache
	metrics *Metrics

	historyMu sync.Mutex
	history   map[string][]string
}

// New creates an agent over the given model and tool set. At least one
// tool is required; duplicate tool names are rejected.
func New(m model.Model, tools []Tool, opt ...Option) (*Agent, error) {
	if m == nil {
		return nil, errors.New("agent requires a model")
	}
	if len(tools) == 0 {
		return nil, errors.New("agent requires at least one tool")
	}
	o := &Options{
		maxIterations: defaultMaxIterations,
		memorySize:    defaultMemorySize,
	}
	for _, op := range opt {
		op(o)
	}
	byName := make(map[string]Tool, len(tools))
	for _, t := range tools {
		if t.Run == nil {
			return nil, fmt.Errorf("tool %s has no run function", t.Name)
		}
		if _, dup := byName[t.Name]; dup {
			return nil, fmt.Errorf("duplicate tool name: %s", t.Name)
		}
		byName[t.Name] = t
	}
	a := &Agent{
		model:         m,
		tools:         byName,
		instruction:   o.instruction,
		maxIterations: o.maxIterations,
		memorySize:    o.memorySize,
		cache:         newResponseCache(o.cacheSize, o.cacheTTL),
		metrics:       newMetrics(),
		history:       make(map[string][]string),
	}
	a.toolsDesc, a.toolNames = describeTools(byName)
	return a, nil
}

// Metrics exposes the loop statistics collector.
func (a *Agent) Metrics() *Metrics {
	return a.metrics
}

// Run answers one query. Events are emitted in loop order: agent_start,
// then per iteration agent_thinking and any action events, then either
// agent_complete or agent_error. The final answer is returned; every
// error path emits agent_error before returning.
func (a *Agent) Run(ctx context.Context, sessionID, query string, emit EmitFunc) (string, error) {
	if emit == nil {
		emit = func(*event.Event) {}
	}
	emit(event.NewAgentStart(query))

	history := a.historyWindow(sessionID)
	scratchpad := ""

	for iteration := 1; iteration <= a.maxIterations; iteration++ {
		prompt := buildPrompt(a.instruction, a.toolsDesc, a.toolNames, query, history, scratchpad)
		emit(event.NewAgentThinking(iteration))

		response, err := a.callModel(ctx, sessionID, prompt)
		if err != nil {
			emit(event.NewAgentError(err.Error()))
			return "", err
		}
		log.Debugf("agent %s iteration %d response: %s", sessionID, iteration, response)

		act := parseAction(response)
		if act.Action == finalAnswerAction {
			answer := stringify(act.ActionInput)
			a.appendHistory(sessionID, query, answer)
			emit(event.NewAgentComplete(answer))
			return answer, nil
		}

		tool, ok := a.tools[act.Action]
		if !ok {
			err := fmt.Errorf("%w: %s", ErrToolNotFound, act.Action)
			emit(event.NewAgentError(err.Error()))
			return "", err
		}

		emit(event.NewActionStart(act.Action, act.ActionInput))
		observation, err := a.dispatch(ctx, tool, act.ActionInput, emit)
		if err != nil {
			emit(event.NewAgentError(err.Error()))
			return "", err
		}
		emit(event.NewActionComplete(act.Action, observation))

		scratchpad += fmt.Sprintf("\nAction: %s\nAction Input: %v\nObservation: %v\n",
			act.Action, act.ActionInput, observation)
	}

	err := fmt.Errorf("%w: %d iterations", ErrExhausted, a.maxIterations)
	emit(event.NewAgentError(err.Error()))
	return "", err
}

// callModel consults the two-tier cache before hitting the transport.
func (a *Agent) callModel(ctx context.Context, sessionID, prompt string) (string, error) {
	key := exactCacheKey(sessionID, prompt)
	semanticKey := semanticCacheKey(sessionID, prompt)
	if cached, hit, semantic := a.cache.get(key, semanticKey); hit {
		log.Debugf("agent %s cache hit (semantic=%v)", sessionID, semantic)
		a.metrics.recordCacheAccess(true, semantic)
		return cached, nil
	}
	a.metrics.recordCacheAccess(false, false)

	start := time.Now()
	response, err := a.model.Call(ctx,
		[]model.Message{model.NewUserMessage(prompt)},
		model.WithRequestID(sessionID))
	a.metrics.recordCall(time.Since(start), err != nil)
	if err != nil {
		return "", err
	}
	a.cache.set(key, response, semanticKey)
	return response, nil
}

func (a *Agent) historyWindow(sessionID string) []string {
	a.historyMu.Lock()
	defer a.historyMu.Unlock()
	lines := a.history[sessionID]
	if len(lines) > a.memorySize {
		lines = lines[len(lines)-a.memorySize:]
	}
	out := make([]string, len(lines))
	copy(out, lines)
	return out
}

func (a *Agent) appendHistory(sessionID, query, answer string) {
	a.historyMu.Lock()
	defer a.historyMu.Unlock()
	a.history[sessionID] = append(a.history[sessionID],
		"User: "+query, "Assistant: "+answer)
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

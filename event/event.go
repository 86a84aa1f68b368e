//
// Tencent is pleased to support the open source community by making trpc-workflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-workflow-go is licensed under the Apache License Version 2.0.
//
//

// Package event defines the server-sent event envelope shared by the
// workflow producer, the agent loop and the HTTP surface.
package event

import (
	"encoding/json"
	"fmt"
)

// Event tags form a closed set. A session stream ends after exactly one
// terminal tag (Complete or Error) has been delivered.
const (
	TagStatus         = "status"
	TagWorkflow       = "workflow"
	TagNodeResult     = "node_result"
	TagExplanation    = "explanation"
	TagAnswer         = "answer"
	TagComplete       = "complete"
	TagError          = "error"
	TagActionStart    = "action_start"
	TagActionComplete = "action_complete"
	TagToolProgress   = "tool_progress"
	TagToolRetry      = "tool_retry"
	TagAgentStart     = "agent_start"
	TagAgentComplete  = "agent_complete"
	TagAgentError     = "agent_error"
	TagAgentThinking  = "agent_thinking"
)

// Event is the wire envelope: a tag plus a data string. Data carries raw
// text for status/explanation/answer style tags and a JSON document for
// structured payloads.
type Event struct {
	Event string `json:"event"`
	Data  string `json:"data"`
}

// New builds an event from any payload. Strings pass through untouched;
// everything else is JSON-encoded.
func New(tag string, data any) *Event {
	if s, ok := data.(string); ok {
		return &Event{Event: tag, Data: s}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return &Event{Event: tag, Data: fmt.Sprintf("%v", data)}
	}
	return &Event{Event: tag, Data: string(raw)}
}

// IsTerminal reports whether delivering this event ends the session stream.
func (e *Event) IsTerminal() bool {
	return e.Event == TagComplete || e.Event == TagError
}

// NewStatus creates a status event carrying a human-readable message.
func NewStatus(message string) *Event {
	return New(TagStatus, message)
}

// NewWorkflow creates an event carrying the generated workflow definition.
func NewWorkflow(workflow any) *Event {
	return New(TagWorkflow, workflow)
}

// NodeResultPayload is the wire form of a node result.
type NodeResultPayload struct {
	NodeID  string         `json:"node_id"`
	Success bool           `json:"success"`
	Status  string         `json:"status"`
	Data    map[string]any `json:"data"`
	Error   *string        `json:"error"`
}

// NewNodeResult creates a node_result event.
func NewNodeResult(payload NodeResultPayload) *Event {
	return New(TagNodeResult, payload)
}

// NewExplanation creates an explanation chunk event.
func NewExplanation(content string) *Event {
	return New(TagExplanation, content)
}

// NewAnswer creates an answer chunk event.
func NewAnswer(content string) *Event {
	return New(TagAnswer, content)
}

// NewComplete creates the success terminal event.
func NewComplete() *Event {
	return New(TagComplete, "execution complete")
}

// NewError creates the failure terminal event.
func NewError(message string) *Event {
	return New(TagError, message)
}

// NewAgentStart creates an agent_start event for a query.
func NewAgentStart(query string) *Event {
	return New(TagAgentStart, map[string]any{"query": query})
}

// NewAgentThinking creates an agent_thinking event for one loop iteration.
func NewAgentThinking(iteration int) *Event {
	return New(TagAgentThinking, map[string]any{"iteration": iteration})
}

// NewAgentComplete creates an agent_complete event carrying the answer.
func NewAgentComplete(answer string) *Event {
	return New(TagAgentComplete, map[string]any{"answer": answer})
}

// NewAgentError creates an agent_error event.
func NewAgentError(message string) *Event {
	return New(TagAgentError, map[string]any{"error": message})
}

// NewActionStart creates an action_start event for a tool invocation.
func NewActionStart(action string, input any) *Event {
	return New(TagActionStart, map[string]any{"action": action, "input": input})
}

// NewActionComplete creates an action_complete event with the observation.
func NewActionComplete(action string, observation any) *Event {
	return New(TagActionComplete, map[string]any{"action": action, "observation": observation})
}

// NewToolProgress creates a tool_progress event for one attempt.
func NewToolProgress(tool, status string, input any) *Event {
	return New(TagToolProgress, map[string]any{"tool": tool, "status": status, "input": input})
}

// NewToolRetry creates a tool_retry event after a failed attempt.
func NewToolRetry(tool string, attempt, maxRetries int, errMsg string) *Event {
	return New(TagToolRetry, map[string]any{
		"tool":        tool,
		"attempt":     attempt,
		"max_retries": maxRetries,
		"error":       errMsg,
	})
}

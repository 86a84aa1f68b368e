//
// Tencent is pleased to support the open source community by making trpc-workflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-workflow-go is licensed under the Apache License Version 2.0.
//
//

// Package service turns free text into workflow definitions and narrates
// execution outcomes, both through the LLM transport.
package service

import (
	"context"
	"fmt"
	"strings"

	"trpc.group/trpc-go/trpc-workflow-go/log"
	"trpc.group/trpc-go/trpc-workflow-go/model"
	"trpc.group/trpc-go/trpc-workflow-go/node"
	"trpc.group/trpc-go/trpc-workflow-go/workflow"
)

// workflowJSONExample anchors the synthesizer output format.
const workflowJSONExample = `{
  "nodes": [
    {"id": "calc1", "type": "multiply", "params": {"num1": 6, "num2": 7}},
    {"id": "msg1", "type": "text_concat", "params": {"text1": "answer: ", "text2": "$calc1.result"}}
  ],
  "edges": [
    {"from": "calc1", "to": "msg1"}
  ]
}`

// Service is the LLM-backed workflow synthesizer and result explainer.
type Service struct {
	registry *node.Registry
	model    model.Model
}

// New creates a Service.
func New(registry *node.Registry, m model.Model) *Service {
	return &Service{registry: registry, model: m}
}

// GenerateWorkflow asks the model to design a workflow for the user text.
// A response that is not a workflow (or fails to parse) yields an empty
// graph, which callers treat as "answer directly".
func (s *Service) GenerateWorkflow(ctx context.Context, text, requestID string) (*workflow.Graph, error) {
	systemPrompt := fmt.Sprintf(`You are a workflow design expert. Design a workflow for the user's request.
If the request does not need a workflow, return an empty workflow.

Available node types:
%s

Rules:
1. Node IDs must be unique.
2. Use edges to define execution order.
3. Reference upstream output fields with "$node_id.field".
4. Match parameter data types.

Output a JSON workflow in this format:

%s`, s.registry.PromptCatalog(), workflowJSONExample)

	response, err := s.model.Call(ctx,
		[]model.Message{
			model.NewSystemMessage(systemPrompt),
			model.NewUserMessage(text),
		},
		model.WithRequestID(requestID))
	if err != nil {
		return nil, fmt.Errorf("generate workflow: %w", err)
	}

	g, err := workflow.ParseGraph([]byte(stripJSONFence(response)))
	if err != nil {
		log.Warnf("request %s: workflow response did not parse, answering directly: %v", requestID, err)
		return &workflow.Graph{}, nil
	}
	return g, nil
}

// AnswerDirectly streams a plain chat answer for requests that need no
// workflow.
func (s *Service) AnswerDirectly(ctx context.Context, text, requestID string) (<-chan string, error) {
	return s.model.Stream(ctx,
		[]model.Message{model.NewUserMessage(text)},
		model.WithRequestID(requestID))
}

// ExplainResult streams a short narration of the workflow outcome. The
// channel carries completion text chunks and closes when the narration
// ends.
func (s *Service) ExplainResult(ctx context.Context, text string, g *workflow.Graph,
	progress map[string]workflow.NodeResult, requestID string) (<-chan string, error) {
	var lines []string
	for _, spec := range g.Nodes {
		result, ok := progress[spec.ID]
		switch {
		case ok && result.Success:
			lines = append(lines, fmt.Sprintf("- %s(%s): succeeded, output=%v", spec.Type, spec.ID, result.Data))
		case ok:
			lines = append(lines, fmt.Sprintf("- %s(%s): failed, error=%s", spec.Type, spec.ID, result.Error))
		default:
			lines = append(lines, fmt.Sprintf("- %s(%s): not executed", spec.Type, spec.ID))
		}
	}

	return s.model.Stream(ctx,
		[]model.Message{
			model.NewSystemMessage("Analyze the workflow execution and briefly explain the process and the final result."),
			model.NewUserMessage(fmt.Sprintf("User request: %s\nExecution:\n%s", text, strings.Join(lines, "\n"))),
		},
		model.WithRequestID(requestID))
}

// stripJSONFence unwraps a ```json fenced block if present.
func stripJSONFence(s string) string {
	if idx := strings.Index(s, "```json"); idx >= 0 {
		rest := s[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	if idx := strings.Index(s, "```"); idx >= 0 {
		rest := s[idx+3:]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	}
	return strings.TrimSpace(s)
}

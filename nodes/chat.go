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

	"trpc.group/trpc-go/trpc-workflow-go/model"
)

// ChatNode sends a question to the language model. It streams partial
// responses while the completion is in flight.
type ChatNode struct {
	model model.Model
}

// Execute implements node.Node.
func (n *ChatNode) Execute(ctx context.Context, params map[string]any) (map[string]any, error) {
	return n.ExecuteStream(ctx, params, nil)
}

// ExecuteStream implements node.StreamingNode. Each emitted partial
// carries the response accumulated so far.
func (n *ChatNode) ExecuteStream(ctx context.Context, params map[string]any,
	emit func(partial map[string]any)) (map[string]any, error) {
	question, err := requireString(params, "user_question")
	if err != nil {
		return nil, err
	}
	systemPrompt := optionalString(params, "system_prompt", "")
	temperature := 0.7
	if t, err := toFloat(params["temperature"]); err == nil {
		temperature = t
	}

	var messages []model.Message
	if systemPrompt != "" {
		messages = append(messages, model.NewSystemMessage(systemPrompt))
	}
	messages = append(messages, model.NewUserMessage(question))

	chunks, err := n.model.Stream(ctx, messages, model.WithTemperature(temperature))
	if err != nil {
		return nil, fmt.Errorf("llm call failed: %w", err)
	}
	var b strings.Builder
	for chunk := range chunks {
		b.WriteString(chunk)
		if emit != nil {
			emit(map[string]any{"response": b.String()})
		}
	}
	if b.Len() == 0 {
		return nil, fmt.Errorf("llm call failed: empty response")
	}
	return map[string]any{"response": b.String()}, nil
}

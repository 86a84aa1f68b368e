//
// Tencent is pleased to support the open source community by making trpc-workflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-workflow-go is licensed under the Apache License Version 2.0.
//
//

// Package openai implements the model transport over any OpenAI-compatible
// chat completion API.
package openai

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"trpc.group/trpc-go/trpc-workflow-go/log"
	"trpc.group/trpc-go/trpc-workflow-go/model"
)

// Model calls an OpenAI-compatible chat completion endpoint. It retries
// transport failures, selects a long-context model for oversize prompts
// and truncates user contents past a hard character budget.
type Model struct {
	client openai.Client
	name   string
	opts   *options
}

// New creates a Model named after the default chat model.
func New(name string, opt ...Option) *Model {
	o := newOptions()
	for _, op := range opt {
		op(o)
	}
	var clientOpts []openaiopt.RequestOption
	if o.apiKey != "" {
		clientOpts = append(clientOpts, openaiopt.WithAPIKey(o.apiKey))
	}
	if o.baseURL != "" {
		clientOpts = append(clientOpts, openaiopt.WithBaseURL(o.baseURL))
	}
	clientOpts = append(clientOpts, o.extraOptions...)
	return &Model{
		client: openai.NewClient(clientOpts...),
		name:   name,
		opts:   o,
	}
}

var _ model.Model = (*Model)(nil)

// Call implements model.Model.
func (m *Model) Call(ctx context.Context, messages []model.Message, opts ...model.CallOption) (string, error) {
	co := applyCallOptions(opts)
	params := m.buildParams(messages, co)

	var lastErr error
	for attempt := 1; attempt <= m.opts.maxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, m.opts.timeout)
		completion, err := m.client.Chat.Completions.New(callCtx, params)
		cancel()
		if err == nil {
			if len(completion.Choices) == 0 {
				return "", fmt.Errorf("llm call %s: empty choices", co.RequestID)
			}
			return completion.Choices[0].Message.Content, nil
		}
		lastErr = err
		log.Warnf("llm call %s attempt %d/%d failed: %v", co.RequestID, attempt, m.opts.maxAttempts, err)
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("llm call %s: %w", co.RequestID, lastErr)
}

// Stream implements model.Model. Chunks are completion text deltas.
func (m *Model) Stream(ctx context.Context, messages []model.Message, opts ...model.CallOption) (<-chan string, error) {
	co := applyCallOptions(opts)
	params := m.buildParams(messages, co)

	stream := m.client.Chat.Completions.NewStreaming(ctx, params)
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("llm stream %s: %w", co.RequestID, err)
	}
	out := make(chan string, 16)
	go func() {
		defer close(out)
		defer stream.Close()
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case out <- delta:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil {
			log.Errorf("llm stream %s aborted: %v", co.RequestID, err)
		}
	}()
	return out, nil
}

func (m *Model) buildParams(messages []model.Message, co *model.CallOptions) openai.ChatCompletionNewParams {
	messages = truncateOversize(messages)
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(m.pickModel(messages)),
		Messages: convertMessages(messages),
	}
	if co.Temperature != nil {
		params.Temperature = openai.Float(*co.Temperature)
	}
	return params
}

// pickModel selects the long-context fallback once the summed content
// length crosses the threshold.
func (m *Model) pickModel(messages []model.Message) string {
	if m.opts.longContextModel == "" {
		return m.name
	}
	total := 0
	for _, msg := range messages {
		total += len(msg.Content)
	}
	if total > m.opts.contextThreshold {
		log.Infof("prompt length %d exceeds %d, using long-context model %s",
			total, m.opts.contextThreshold, m.opts.longContextModel)
		return m.opts.longContextModel
	}
	return m.name
}

// truncateOversize cuts user-role contents proportionally when the summed
// length exceeds the hard budget, keeping at least half of each.
func truncateOversize(messages []model.Message) []model.Message {
	total, userTotal := 0, 0
	for _, msg := range messages {
		total += len(msg.Content)
		if msg.Role == model.RoleUser {
			userTotal += len(msg.Content)
		}
	}
	if total <= maxTotalChars || userTotal == 0 {
		return messages
	}
	excess := total - maxTotalChars
	out := make([]model.Message, len(messages))
	copy(out, messages)
	for i := range out {
		if out[i].Role != model.RoleUser {
			continue
		}
		n := len(out[i].Content)
		cut := excess * n / userTotal
		if cut > n/2 {
			cut = n / 2
		}
		out[i].Content = out[i].Content[:n-cut]
	}
	log.Warnf("prompt length %d exceeds budget %d, truncated user contents", total, maxTotalChars)
	return out
}

func convertMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			result = append(result, openai.SystemMessage(msg.Content))
		case model.RoleAssistant:
			result = append(result, openai.AssistantMessage(msg.Content))
		default:
			result = append(result, openai.UserMessage(msg.Content))
		}
	}
	return result
}

func applyCallOptions(opts []model.CallOption) *model.CallOptions {
	co := &model.CallOptions{}
	for _, opt := range opts {
		opt(co)
	}
	return co
}

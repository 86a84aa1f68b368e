//
// Tencent is pleased to support the open source community by making trpc-workflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-workflow-go is licensed under the Apache License Version 2.0.
//
//

// Package model defines the LLM transport contract used by the workflow
// synthesizer and the agent controller.
package model

import "context"

// Role is a chat message role.
type Role string

const (
	// RoleSystem is the instruction role.
	RoleSystem Role = "system"
	// RoleUser is the end-user role.
	RoleUser Role = "user"
	// RoleAssistant is the model's own role.
	RoleAssistant Role = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// CallOptions carries per-call overrides.
type CallOptions struct {
	RequestID   string
	Temperature *float64
}

// CallOption mutates CallOptions.
type CallOption func(*CallOptions)

// WithRequestID tags the call for logging.
func WithRequestID(id string) CallOption {
	return func(o *CallOptions) { o.RequestID = id }
}

// WithTemperature overrides the sampling temperature for one call.
func WithTemperature(t float64) CallOption {
	return func(o *CallOptions) { o.Temperature = &t }
}

// Model is a request/response plus chunk-streaming LLM transport.
type Model interface {
	// Call sends the messages and returns the full completion text.
	Call(ctx context.Context, messages []Message, opts ...CallOption) (string, error)
	// Stream sends the messages and returns completion text chunks as
	// they arrive. An error before the first chunk is returned directly;
	// a mid-stream error closes the channel early.
	Stream(ctx context.Context, messages []Message, opts ...CallOption) (<-chan string, error)
}

//
// Tencent is pleased to support the open source community by making trpc-workflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-workflow-go is licensed under the Apache License Version 2.0.
//
//

package server

import (
	"context"
	"time"

	"trpc.group/trpc-go/trpc-workflow-go/event"
	"trpc.group/trpc-go/trpc-workflow-go/log"
)

// producerTimeout bounds one chat session end to end.
const producerTimeout = 10 * time.Minute

// runWorkflowChat is the workflow-mode producer: synthesize a workflow,
// execute it with node results streamed, then narrate the outcome. Every
// exit path publishes exactly one terminal event.
func (s *Server) runWorkflowChat(chatID, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), producerTimeout)
	defer cancel()
	publish := s.publisher(chatID)

	publish(event.NewStatus("generating workflow"))
	g, err := s.svc.GenerateWorkflow(ctx, text, chatID)
	if err != nil {
		log.Errorf("chat %s: %v", chatID, err)
		publish(event.NewError("failed to generate workflow"))
		return
	}

	// No workflow needed: answer the question directly.
	if len(g.Nodes) == 0 {
		s.answerDirectly(ctx, chatID, text, publish)
		return
	}

	publish(event.NewWorkflow(g))
	publish(event.NewStatus("executing workflow"))

	updates, err := s.engine.ExecuteStream(ctx, chatID, g)
	if err != nil {
		log.Errorf("chat %s: %v", chatID, err)
		publish(event.NewError(err.Error()))
		return
	}
	for update := range updates {
		publish(nodeResultEvent(update.NodeID, update.Result))
	}

	progress, err := s.engine.Progress(chatID)
	if err != nil {
		publish(event.NewError(err.Error()))
		return
	}
	chunks, err := s.svc.ExplainResult(ctx, text, g, progress, chatID)
	if err != nil {
		log.Warnf("chat %s: explanation unavailable: %v", chatID, err)
	} else {
		for chunk := range chunks {
			publish(event.NewExplanation(chunk))
		}
	}
	publish(event.NewComplete())
}

// answerDirectly streams a plain LLM answer when no workflow applies.
func (s *Server) answerDirectly(ctx context.Context, chatID, text string, publish func(*event.Event)) {
	publish(event.NewStatus("generating answer"))
	chunks, err := s.svc.AnswerDirectly(ctx, text, chatID)
	if err != nil {
		log.Errorf("chat %s: %v", chatID, err)
		publish(event.NewError("failed to generate answer"))
		return
	}
	for chunk := range chunks {
		publish(event.NewAnswer(chunk))
	}
	publish(event.NewComplete())
}

// runAgentChat is the agent-mode producer. The agent emits its own loop
// events; the producer only adds the terminal one.
func (s *Server) runAgentChat(chatID, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), producerTimeout)
	defer cancel()
	publish := s.publisher(chatID)

	if _, err := s.agent.Run(ctx, chatID, text, publish); err != nil {
		log.Errorf("chat %s: agent failed: %v", chatID, err)
		publish(event.NewError(err.Error()))
		return
	}
	publish(event.NewComplete())
}

func (s *Server) publisher(chatID string) func(*event.Event) {
	return func(ev *event.Event) {
		if err := s.streams.Publish(chatID, ev); err != nil {
			log.Warnf("chat %s: drop %s event: %v", chatID, ev.Event, err)
		}
	}
}

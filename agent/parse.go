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
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"trpc.group/trpc-go/trpc-workflow-go/log"
)

// finalAnswerAction ends the loop.
const finalAnswerAction = "Final Answer"

type action struct {
	Action      string `json:"action"`
	ActionInput any    `json:"action_input"`
}

// parseAction decodes a model response into an action. A leading fenced
// code block is stripped first; mildly malformed JSON is repaired. A
// response that still does not decode is recovered locally as a Final
// Answer carrying the parse error, so one bad completion never kills the
// session.
func parseAction(response string) action {
	text := stripFence(response)
	repaired, err := jsonrepair.JSONRepair(text)
	if err == nil {
		text = repaired
	}
	var a action
	if err := json.Unmarshal([]byte(text), &a); err != nil || a.Action == "" {
		log.Errorf("failed to parse action from response: %s", response)
		msg := "error parsing response"
		if err != nil {
			msg += ": " + err.Error()
		}
		return action{Action: finalAnswerAction, ActionInput: msg}
	}
	return a
}

// stripFence extracts the body of the first ``` fenced block, dropping
// an optional language tag on the opening line.
func stripFence(s string) string {
	if !strings.Contains(s, "```") {
		return strings.TrimSpace(s)
	}
	parts := strings.SplitN(s, "```", 3)
	if len(parts) < 2 {
		return strings.TrimSpace(s)
	}
	body := parts[1]
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		firstLine := strings.TrimSpace(body[:i])
		if firstLine != "" && !strings.ContainsAny(firstLine, "{}[]\"") {
			body = body[i+1:]
		}
	}
	return strings.TrimSpace(body)
}

//
// Tencent is pleased to support the open source community by making trpc-workflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-workflow-go is licensed under the Apache License Version 2.0.
//
//

package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStringPassthrough(t *testing.T) {
	ev := New(TagStatus, "executing workflow")
	assert.Equal(t, TagStatus, ev.Event)
	assert.Equal(t, "executing workflow", ev.Data)
}

func TestNewEncodesStructuredData(t *testing.T) {
	ev := NewAgentThinking(3)
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(ev.Data), &payload))
	assert.Equal(t, float64(3), payload["iteration"])
}

func TestTerminalTags(t *testing.T) {
	assert.True(t, NewComplete().IsTerminal())
	assert.True(t, NewError("boom").IsTerminal())
	assert.False(t, NewStatus("running").IsTerminal())
	assert.False(t, NewAgentComplete("done").IsTerminal())
}

func TestNodeResultEnvelope(t *testing.T) {
	errMsg := "dependency failed"
	ev := NewNodeResult(NodeResultPayload{
		NodeID: "n1",
		Status: "failed",
		Error:  &errMsg,
	})
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(ev.Data), &payload))
	assert.Equal(t, "n1", payload["node_id"])
	assert.Equal(t, false, payload["success"])
	assert.Nil(t, payload["data"])
	assert.Equal(t, "dependency failed", payload["error"])
}

func TestEnvelopeWireShape(t *testing.T) {
	raw, err := json.Marshal(NewAnswer("42"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"answer","data":"42"}`, string(raw))
}

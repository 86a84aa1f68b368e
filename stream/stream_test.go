//
// Tencent is pleased to support the open source community by making trpc-workflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-workflow-go is licensed under the Apache License Version 2.0.
//
//

package stream

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-workflow-go/event"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager()
	t.Cleanup(m.Close)
	return m
}

func TestCreateDuplicateSession(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Create("s1"))
	assert.ErrorIs(t, m.Create("s1"), ErrDuplicateSession)
}

func TestPublishToUnknownSession(t *testing.T) {
	m := newTestManager(t)
	err := m.Publish("ghost", event.NewStatus("hello"))
	assert.ErrorIs(t, err, ErrNoSuchSession)
}

func TestLateSubscriberReplaysEverything(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Create("s1"))

	// Three events before anyone subscribes.
	for i := 1; i <= 3; i++ {
		require.NoError(t, m.Publish("s1", event.NewStatus(fmt.Sprintf("step %d", i))))
	}

	events, err := m.Subscribe(context.Background(), "s1")
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		ev := <-events
		assert.Equal(t, event.TagStatus, ev.Event)
		assert.Equal(t, fmt.Sprintf("step %d", i), ev.Data)
	}

	// The subscriber now blocks until the next publication.
	select {
	case ev := <-events:
		t.Fatalf("unexpected event %v", ev)
	case <-time.After(30 * time.Millisecond):
	}

	require.NoError(t, m.Publish("s1", event.NewComplete()))
	ev := <-events
	assert.Equal(t, event.TagComplete, ev.Event)

	_, open := <-events
	assert.False(t, open, "channel closes after the terminal event")
}

func TestPublicationOrderPreserved(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Create("s1"))

	const n = 100
	for i := 0; i < n; i++ {
		require.NoError(t, m.Publish("s1", event.NewStatus(fmt.Sprintf("%d", i))))
	}
	require.NoError(t, m.Publish("s1", event.NewComplete()))

	events, err := m.Subscribe(context.Background(), "s1")
	require.NoError(t, err)

	i := 0
	for ev := range events {
		if ev.Event == event.TagComplete {
			break
		}
		assert.Equal(t, fmt.Sprintf("%d", i), ev.Data)
		i++
	}
	assert.Equal(t, n, i)
}

func TestSingleSubscriber(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Create("s1"))
	_, err := m.Subscribe(context.Background(), "s1")
	require.NoError(t, err)
	_, err = m.Subscribe(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrSubscriberExists)
}

func TestSessionTerminatesAfterDelivery(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Create("s1"))
	require.NoError(t, m.Publish("s1", event.NewComplete()))

	events, err := m.Subscribe(context.Background(), "s1")
	require.NoError(t, err)
	for range events {
	}

	// Terminated sessions reject further publications and lookups.
	assert.Eventually(t, func() bool { return !m.Has("s1") }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, m.Publish("s1", event.NewStatus("late")), ErrNoSuchSession)
}

func TestPublishAfterTerminalRejected(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Create("s1"))
	require.NoError(t, m.Publish("s1", event.NewError("boom")))
	assert.ErrorIs(t, m.Publish("s1", event.NewStatus("late")), ErrNoSuchSession)
}

func TestSubscriberContextCancel(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Create("s1"))

	ctx, cancel := context.WithCancel(context.Background())
	events, err := m.Subscribe(ctx, "s1")
	require.NoError(t, err)

	cancel()
	select {
	case _, open := <-events:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("subscription did not unblock on context cancel")
	}
}

func TestDestroyWakesSubscriber(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Create("s1"))
	events, err := m.Subscribe(context.Background(), "s1")
	require.NoError(t, err)

	m.Destroy("s1")
	select {
	case _, open := <-events:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("subscription did not unblock on destroy")
	}
}

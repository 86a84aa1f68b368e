//
// Tencent is pleased to support the open source community by making trpc-workflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-workflow-go is licensed under the Apache License Version 2.0.
//
//

// Package stream multiplexes per-session event queues between producer
// tasks and SSE consumers that may attach late.
package stream

import (
	"context"
	"errors"
	"sync"
	"time"

	"trpc.group/trpc-go/trpc-workflow-go/event"
	"trpc.group/trpc-go/trpc-workflow-go/log"
)

var (
	// ErrDuplicateSession is returned by Create for an existing session.
	ErrDuplicateSession = errors.New("duplicate session")
	// ErrNoSuchSession is returned for sessions never created or already
	// terminated.
	ErrNoSuchSession = errors.New("no such session")
	// ErrSubscriberExists is returned when a session already has a live
	// subscriber.
	ErrSubscriberExists = errors.New("session already has a subscriber")
)

const (
	defaultIdleTTL    = 5 * time.Minute
	reapInterval      = time.Minute
	subscribeChanSize = 64
)

// session is one buffered event queue. Events are retained from the
// beginning so a late subscriber replays the full sequence.
type session struct {
	mu         sync.Mutex
	cond       *sync.Cond
	queue      []*event.Event
	closed     bool // terminal event published
	subscribed bool
	lastTouch  time.Time
}

func newSession() *session {
	s := &session{lastTouch: time.Now()}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Option configures a Manager.
type Option func(*Manager)

// WithIdleTTL sets how long an unsubscribed idle session is retained.
func WithIdleTTL(d time.Duration) Option {
	return func(m *Manager) { m.idleTTL = d }
}

// Manager owns the session table. All operations are safe for concurrent
// use.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session
	idleTTL  time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a manager and starts its idle-session reaper.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*session),
		idleTTL:  defaultIdleTTL,
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	go m.reapLoop()
	return m
}

// Close stops the reaper. Existing subscriptions keep draining.
func (m *Manager) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// Create registers a new session queue.
func (m *Manager) Create(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[sessionID]; exists {
		return ErrDuplicateSession
	}
	m.sessions[sessionID] = newSession()
	return nil
}

// Publish appends an event to the session queue. It never blocks. After a
// terminal event (complete or error) the session accepts no more events.
func (m *Manager) Publish(sessionID string, ev *event.Event) error {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok {
		return ErrNoSuchSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrNoSuchSession
	}
	s.queue = append(s.queue, ev)
	s.lastTouch = time.Now()
	if ev.IsTerminal() {
		s.closed = true
	}
	s.cond.Broadcast()
	return nil
}

// Subscribe attaches the single consumer of a session. The returned
// channel yields every event from the beginning of the queue in
// publication order and closes after a terminal event has been delivered,
// at which point the session is destroyed.
func (m *Manager) Subscribe(ctx context.Context, sessionID string) (<-chan *event.Event, error) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNoSuchSession
	}
	s.mu.Lock()
	if s.subscribed {
		s.mu.Unlock()
		return nil, ErrSubscriberExists
	}
	s.subscribed = true
	s.mu.Unlock()

	out := make(chan *event.Event, subscribeChanSize)
	go func() {
		defer close(out)
		defer m.remove(sessionID)
		// Wake the cond wait when the consumer goes away.
		unwatch := watchContext(ctx, s.cond)
		defer unwatch()

		next := 0
		for {
			s.mu.Lock()
			for next >= len(s.queue) && !s.closed && ctx.Err() == nil {
				s.cond.Wait()
			}
			if ctx.Err() != nil {
				s.mu.Unlock()
				return
			}
			if next >= len(s.queue) && s.closed {
				s.mu.Unlock()
				return
			}
			ev := s.queue[next]
			next++
			s.mu.Unlock()

			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
			if ev.IsTerminal() {
				return
			}
		}
	}()
	return out, nil
}

// Destroy drops a session and wakes any blocked subscriber.
func (m *Manager) Destroy(sessionID string) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	if ok {
		s.mu.Lock()
		s.closed = true
		s.cond.Broadcast()
		s.mu.Unlock()
	}
}

// Has reports whether the session currently exists.
func (m *Manager) Has(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[sessionID]
	return ok
}

func (m *Manager) remove(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
}

// reapLoop drops sessions that went idle without ever being consumed, so
// abandoned producers do not leak queues.
func (m *Manager) reapLoop() {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for id, s := range m.sessions {
				s.mu.Lock()
				idle := !s.subscribed && now.Sub(s.lastTouch) > m.idleTTL
				s.mu.Unlock()
				if idle {
					log.Infof("reaping idle session %s", id)
					delete(m.sessions, id)
				}
			}
			m.mu.Unlock()
		}
	}
}

// watchContext broadcasts on the cond when ctx is done, so a Wait loop
// checking ctx.Err can make progress. The returned func stops the watch.
func watchContext(ctx context.Context, cond *sync.Cond) func() {
	stopped := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			cond.Broadcast()
		case <-stopped:
		}
	}()
	return func() { close(stopped) }
}

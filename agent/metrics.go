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
	"sync"
	"time"
)

// Metrics aggregates loop statistics: model calls, cache effectiveness,
// tool usage and retries. Safe for concurrent use.
type Metrics struct {
	mu                sync.Mutex
	totalCalls        int
	totalTime         time.Duration
	errorCount        int
	lastResponseTime  time.Duration
	toolUsage         map[string]int
	cacheHits         int
	cacheMisses       int
	semanticCacheHits int
	retryCount        int
}

func newMetrics() *Metrics {
	return &Metrics{toolUsage: make(map[string]int)}
}

func (m *Metrics) recordCall(elapsed time.Duration, isError bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalCalls++
	m.totalTime += elapsed
	m.lastResponseTime = elapsed
	if isError {
		m.errorCount++
	}
}

func (m *Metrics) recordToolUsage(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toolUsage[name]++
}

func (m *Metrics) recordCacheAccess(hit, semantic bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !hit {
		m.cacheMisses++
		return
	}
	m.cacheHits++
	if semantic {
		m.semanticCacheHits++
	}
}

func (m *Metrics) recordRetry() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retryCount++
}

// Snapshot is a point-in-time copy of the metrics.
type Snapshot struct {
	TotalCalls          int            `json:"total_calls"`
	ErrorCount          int            `json:"error_count"`
	RetryCount          int            `json:"retry_count"`
	CacheHits           int            `json:"cache_hits"`
	CacheMisses         int            `json:"cache_misses"`
	SemanticCacheHits   int            `json:"semantic_cache_hits"`
	AverageResponseTime time.Duration  `json:"average_response_time"`
	LastResponseTime    time.Duration  `json:"last_response_time"`
	CacheHitRate        float64        `json:"cache_hit_rate"`
	ErrorRate           float64        `json:"error_rate"`
	ToolUsage           map[string]int `json:"tool_usage"`
}

// Snapshot returns a copy of the current counters and derived rates.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Snapshot{
		TotalCalls:        m.totalCalls,
		ErrorCount:        m.errorCount,
		RetryCount:        m.retryCount,
		CacheHits:         m.cacheHits,
		CacheMisses:       m.cacheMisses,
		SemanticCacheHits: m.semanticCacheHits,
		LastResponseTime:  m.lastResponseTime,
		ToolUsage:         make(map[string]int, len(m.toolUsage)),
	}
	for k, v := range m.toolUsage {
		s.ToolUsage[k] = v
	}
	if m.totalCalls > 0 {
		s.AverageResponseTime = m.totalTime / time.Duration(m.totalCalls)
		s.ErrorRate = float64(m.errorCount) / float64(m.totalCalls)
	}
	if total := m.cacheHits + m.cacheMisses; total > 0 {
		s.CacheHitRate = float64(m.cacheHits) / float64(total)
	}
	return s
}

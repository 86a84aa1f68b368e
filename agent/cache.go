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
	"crypto/md5"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

const (
	defaultCacheSize = 100
	defaultCacheTTL  = time.Hour
)

type cacheEntry struct {
	value    string
	storedAt time.Time
}

// responseCache is the two-tier LLM response cache: an exact tier keyed
// by (session, prompt) and a semantic tier keyed by (session, question,
// action). Both tiers are size-bounded, evicting the oldest insertion,
// and TTL-bounded, evicting expired entries on access.
type responseCache struct {
	mu       sync.Mutex
	maxSize  int
	ttl      time.Duration
	exact    map[string]cacheEntry
	semantic map[string]cacheEntry
}

func newResponseCache(maxSize int, ttl time.Duration) *responseCache {
	if maxSize <= 0 {
		maxSize = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &responseCache{
		maxSize:  maxSize,
		ttl:      ttl,
		exact:    make(map[string]cacheEntry),
		semantic: make(map[string]cacheEntry),
	}
}

// get returns a cached response via exact match first, then semantic
// match. The second return reports a hit; the third reports whether the
// hit came from the semantic tier.
func (c *responseCache) get(key, semanticKey string) (string, bool, bool) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.exact[key]; ok {
		if now.Sub(e.storedAt) <= c.ttl {
			return e.value, true, false
		}
		delete(c.exact, key)
	}
	if semanticKey != "" {
		if e, ok := c.semantic[semanticKey]; ok {
			if now.Sub(e.storedAt) <= c.ttl {
				return e.value, true, true
			}
			delete(c.semantic, semanticKey)
		}
	}
	return "", false, false
}

// set inserts the response into both tiers.
func (c *responseCache) set(key, value, semanticKey string) {
	entry := cacheEntry{value: value, storedAt: time.Now()}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.exact) >= c.maxSize {
		evictOldest(c.exact)
	}
	c.exact[key] = entry
	if semanticKey != "" {
		if len(c.semantic) >= c.maxSize {
			evictOldest(c.semantic)
		}
		c.semantic[semanticKey] = entry
	}
}

func evictOldest(m map[string]cacheEntry) {
	var oldestKey string
	var oldest time.Time
	first := true
	for k, e := range m {
		if first || e.storedAt.Before(oldest) {
			oldestKey, oldest = k, e.storedAt
			first = false
		}
	}
	if !first {
		delete(m, oldestKey)
	}
}

// exactCacheKey hashes the session-scoped prompt.
func exactCacheKey(sessionID, prompt string) string {
	return md5Hex(sessionID + ":" + prompt)
}

// semanticCacheKey hashes the session plus the prompt's Question and
// Action lines, so reworded prompts about the same step still hit.
func semanticCacheKey(sessionID, prompt string) string {
	parts := []string{sessionID}
	if q := lineAfter(prompt, "Question:"); q != "" {
		parts = append(parts, q)
	}
	if a := lineAfter(prompt, "Action:"); a != "" {
		parts = append(parts, a)
	}
	return md5Hex(strings.Join(parts, ""))
}

// lineAfter returns the rest of the line following the first occurrence
// of marker, trimmed.
func lineAfter(s, marker string) string {
	_, after, found := strings.Cut(s, marker)
	if !found {
		return ""
	}
	if i := strings.IndexByte(after, '\n'); i >= 0 {
		after = after[:i]
	}
	return strings.TrimSpace(after)
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

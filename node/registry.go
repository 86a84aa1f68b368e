//
// Tencent is pleased to support the open source community by making trpc-workflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-workflow-go is licensed under the Apache License Version 2.0.
//
//

package node

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrDuplicateType is returned when a type tag is registered twice.
var ErrDuplicateType = fmt.Errorf("duplicate node type")

// Constructor builds a fresh node instance for one execution.
type Constructor func() Node

type entry struct {
	desc *Descriptor
	ctor Constructor
}

// Registry maps node type tags to constructors and descriptors.
// Registration is additive; an existing tag is never replaced.
type Registry struct {
	mu    sync.RWMutex
	types map[string]entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]entry)}
}

// Register binds a descriptor and constructor to the descriptor's type tag.
func (r *Registry) Register(desc *Descriptor, ctor Constructor) error {
	if desc == nil || desc.Type == "" {
		return fmt.Errorf("register: descriptor with empty type")
	}
	if ctor == nil {
		return fmt.Errorf("register %s: nil constructor", desc.Type)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[desc.Type]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateType, desc.Type)
	}
	r.types[desc.Type] = entry{desc: desc, ctor: ctor}
	return nil
}

// New creates a node instance for the given type tag.
func (r *Registry) New(typeTag string) (Node, error) {
	r.mu.RLock()
	e, ok := r.types[typeTag]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown node type: %s", typeTag)
	}
	return e.ctor(), nil
}

// Descriptor returns the descriptor for a type tag.
func (r *Registry) Descriptor(typeTag string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.types[typeTag]
	if !ok {
		return nil, false
	}
	return e.desc, true
}

// Has reports whether the type tag is registered.
func (r *Registry) Has(typeTag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[typeTag]
	return ok
}

// Types returns the registered type tags in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.types))
	for tag := range r.types {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Descriptors returns every registered descriptor, sorted by type tag.
func (r *Registry) Descriptors() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	descs := make([]*Descriptor, 0, len(r.types))
	for _, e := range r.types {
		descs = append(descs, e.desc)
	}
	sort.Slice(descs, func(i, j int) bool { return descs[i].Type < descs[j].Type })
	return descs
}

// Clone copies the registry, omitting types for which exclude returns
// true. Used to build subgraph registries that must not contain the loop
// node spawning them.
func (r *Registry) Clone(exclude func(*Descriptor) bool) *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := NewRegistry()
	for tag, e := range r.types {
		if exclude != nil && exclude(e.desc) {
			continue
		}
		clone.types[tag] = e
	}
	return clone
}

// PromptCatalog renders every descriptor for embedding in an LLM prompt.
func (r *Registry) PromptCatalog() string {
	descs := r.Descriptors()
	parts := make([]string, 0, len(descs))
	for _, d := range descs {
		parts = append(parts, d.PromptText())
	}
	return strings.Join(parts, "\n")
}

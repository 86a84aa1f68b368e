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
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParamSpec declares one parameter of a node type.
type ParamSpec struct {
	Type        string `yaml:"type" json:"type"`
	Required    bool   `yaml:"required" json:"required"`
	Default     any    `yaml:"default,omitempty" json:"default,omitempty"`
	Description string `yaml:"description" json:"description"`
}

// Descriptor is the immutable declaration of a node type. Descriptors are
// loaded at startup and referenced for the lifetime of the process.
type Descriptor struct {
	Type        string               `yaml:"type" json:"type"`
	Name        string               `yaml:"name" json:"name"`
	Description string               `yaml:"description" json:"description"`
	Params      map[string]ParamSpec `yaml:"params" json:"params"`
	Output      map[string]string    `yaml:"output" json:"output"`
	Streaming   bool                 `yaml:"streaming,omitempty" json:"streaming,omitempty"`
}

// LoadDescriptors parses a YAML descriptor file keyed by node type.
func LoadDescriptors(path string) (map[string]*Descriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read node config %s: %w", path, err)
	}
	return ParseDescriptors(raw)
}

// ParseDescriptors parses YAML descriptor content keyed by node type.
func ParseDescriptors(raw []byte) (map[string]*Descriptor, error) {
	var byType map[string]*Descriptor
	if err := yaml.Unmarshal(raw, &byType); err != nil {
		return nil, fmt.Errorf("parse node config: %w", err)
	}
	for typ, desc := range byType {
		if desc == nil {
			return nil, fmt.Errorf("node config: empty descriptor for %q", typ)
		}
		desc.Type = typ
		if desc.Name == "" {
			desc.Name = typ
		}
	}
	return byType, nil
}

// PromptText renders the descriptor in the form the workflow synthesizer
// and the agent prompt embed: name, description, then parameter and output
// lines.
func (d *Descriptor) PromptText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "- %s: %s\n", d.Type, d.Name)
	fmt.Fprintf(&b, "  description: %s\n", d.Description)
	if len(d.Params) > 0 {
		b.WriteString("  params:\n")
		for _, name := range sortedKeys(d.Params) {
			p := d.Params[name]
			line := fmt.Sprintf("    * %s: %s (type: %s", name, p.Description, p.Type)
			if p.Required {
				line += ", required)"
			} else {
				line += fmt.Sprintf(", optional, default: %v)", p.Default)
			}
			b.WriteString(line + "\n")
		}
	}
	if len(d.Output) > 0 {
		b.WriteString("  output:\n")
		for _, name := range sortedKeys(d.Output) {
			fmt.Fprintf(&b, "    * %s: %s\n", name, d.Output[name])
		}
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

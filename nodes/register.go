//
// Tencent is pleased to support the open source community by making trpc-workflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-workflow-go is licensed under the Apache License Version 2.0.
//
//

package nodes

import (
	_ "embed"
	"fmt"

	"trpc.group/trpc-go/trpc-workflow-go/model"
	"trpc.group/trpc-go/trpc-workflow-go/node"
)

//go:embed node_config.yaml
var defaultNodeConfig []byte

// Dependencies are the external collaborators node plug-ins close over.
type Dependencies struct {
	// Model backs the chat node.
	Model model.Model
	// SerperAPIKey backs the search node; empty disables it at call time.
	SerperAPIKey string
	// DatabaseURL is the fallback DSN for db_execute.
	DatabaseURL string
	// ConfigPath overrides the embedded descriptor catalog.
	ConfigPath string
}

// RegisterAll loads the descriptor catalog and registers every built-in
// node type.
func RegisterAll(registry *node.Registry, deps Dependencies) error {
	descs, err := loadDescriptors(deps.ConfigPath)
	if err != nil {
		return err
	}

	ctors := map[string]node.Constructor{
		"add":           func() node.Node { return AddNode{} },
		"multiply":      func() node.Node { return MultiplyNode{} },
		"text_concat":   func() node.Node { return TextConcatNode{} },
		"text_replace":  func() node.Node { return TextReplaceNode{} },
		"chat":          func() node.Node { return &ChatNode{model: deps.Model} },
		"http_fetch":    func() node.Node { return HTTPFetchNode{} },
		"serper_search": func() node.Node { return &SerperSearchNode{apiKey: deps.SerperAPIKey} },
		"web_scrape":    func() node.Node { return WebScrapeNode{} },
		"file_write":    func() node.Node { return FileWriteNode{} },
		"db_execute":    func() node.Node { return &DBExecuteNode{defaultDSN: deps.DatabaseURL} },
		"terminal":      func() node.Node { return TerminalNode{} },
		"loop":          func() node.Node { return &LoopNode{} },
	}
	for typeTag, ctor := range ctors {
		desc, ok := descs[typeTag]
		if !ok {
			return fmt.Errorf("node config is missing descriptor for %q", typeTag)
		}
		if err := registry.Register(desc, ctor); err != nil {
			return err
		}
	}
	return nil
}

func loadDescriptors(path string) (map[string]*node.Descriptor, error) {
	if path != "" {
		return node.LoadDescriptors(path)
	}
	return node.ParseDescriptors(defaultNodeConfig)
}

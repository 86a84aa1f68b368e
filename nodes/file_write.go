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
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileWriteNode writes text content to a file. The path param is an
// object with base_path and filename; mode selects overwrite or append.
type FileWriteNode struct{}

// Execute implements node.Node.
func (FileWriteNode) Execute(_ context.Context, params map[string]any) (map[string]any, error) {
	pathInfo, ok := params["path"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("param %q must be an object with base_path and filename", "path")
	}
	filename := optionalString(pathInfo, "filename", "")
	if filename == "" {
		return nil, fmt.Errorf("param %q requires a filename", "path")
	}
	path := filepath.Join(optionalString(pathInfo, "base_path", ""), filename)

	content := ""
	switch c := params["content"].(type) {
	case map[string]any:
		content = optionalString(c, "data", "")
	default:
		content = asString(c)
	}

	mode := "overwrite"
	if m, ok := params["mode"].(map[string]any); ok {
		mode = optionalString(m, "type", "overwrite")
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if mode == "append" {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	n, err := f.WriteString(content)
	if err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return map[string]any{
		"result":        "success",
		"path":          path,
		"bytes_written": n,
		"mode":          mode,
	}, nil
}

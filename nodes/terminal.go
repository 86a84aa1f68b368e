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
	"bytes"
	"context"
	"os/exec"
)

// TerminalNode runs a shell command and captures its output. A non-zero
// exit code is reported in the data, not as a node failure.
type TerminalNode struct{}

// Execute implements node.Node.
func (TerminalNode) Execute(ctx context.Context, params map[string]any) (map[string]any, error) {
	command, err := requireString(params, "command")
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	code := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		} else {
			return map[string]any{
				"stdout":      "",
				"stderr":      runErr.Error(),
				"return_code": -1,
				"success":     false,
			}, nil
		}
	}
	return map[string]any{
		"stdout":      stdout.String(),
		"stderr":      stderr.String(),
		"return_code": code,
		"success":     code == 0,
	}, nil
}

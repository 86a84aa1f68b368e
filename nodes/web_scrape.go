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

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/go-resty/resty/v2"
)

// WebScrapeNode fetches a page, converts it to markdown and writes the
// result under output_dir.
type WebScrapeNode struct{}

// Execute implements node.Node.
func (WebScrapeNode) Execute(ctx context.Context, params map[string]any) (map[string]any, error) {
	url, err := requireString(params, "url")
	if err != nil {
		return nil, err
	}
	outputDir := optionalString(params, "output_dir", "output")

	resp, err := resty.New().R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", url, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("scrape %s: status %d", url, resp.StatusCode())
	}
	markdown, err := htmltomarkdown.ConvertString(string(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("convert %s to markdown: %w", url, err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	outputFile := filepath.Join(outputDir, "output.md")
	if err := os.WriteFile(outputFile, []byte(markdown), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", outputFile, err)
	}
	return map[string]any{
		"result":         "success",
		"url":            url,
		"output_file":    outputFile,
		"content_length": len(markdown),
	}, nil
}

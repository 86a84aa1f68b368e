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
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPFetchNode performs an HTTP GET and returns the body.
type HTTPFetchNode struct{}

// Execute implements node.Node.
func (HTTPFetchNode) Execute(ctx context.Context, params map[string]any) (map[string]any, error) {
	url, err := requireString(params, "url")
	if err != nil {
		return nil, err
	}
	timeout := 30.0
	if t, err := toFloat(params["timeout_seconds"]); err == nil && t > 0 {
		timeout = t
	}

	client := resty.New().SetTimeout(time.Duration(timeout * float64(time.Second)))
	resp, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	return map[string]any{
		"status_code": resp.StatusCode(),
		"body":        string(resp.Body()),
	}, nil
}

// SerperSearchNode searches the web through the Serper API.
type SerperSearchNode struct {
	apiKey string
}

type serperResponse struct {
	AnswerBox *struct {
		Title  string `json:"title"`
		Answer string `json:"answer"`
	} `json:"answerBox"`
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Execute implements node.Node.
func (n *SerperSearchNode) Execute(ctx context.Context, params map[string]any) (map[string]any, error) {
	query, err := requireString(params, "query")
	if err != nil {
		return nil, err
	}
	if n.apiKey == "" {
		return nil, fmt.Errorf("SERPER_API_KEY is not configured")
	}
	country := optionalString(params, "country", "cn")
	language := optionalString(params, "language", "zh")
	maxResults := 10
	if v, err := toFloat(params["max_results"]); err == nil && v > 0 {
		maxResults = int(v)
	}

	var parsed serperResponse
	resp, err := resty.New().R().
		SetContext(ctx).
		SetHeader("X-API-KEY", n.apiKey).
		SetBody(map[string]any{"q": query, "gl": country, "hl": language, "num": maxResults}).
		SetResult(&parsed).
		Post("https://google.serper.dev/search")
	if err != nil {
		return nil, fmt.Errorf("serper search: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("serper search: status %d", resp.StatusCode())
	}

	results := make([]any, 0, len(parsed.Organic)+1)
	if parsed.AnswerBox != nil {
		results = append(results, map[string]any{
			"title":         parsed.AnswerBox.Title,
			"link":          "",
			"snippet":       parsed.AnswerBox.Answer,
			"is_answer_box": true,
		})
	}
	for _, r := range parsed.Organic {
		results = append(results, map[string]any{
			"title":   r.Title,
			"link":    r.Link,
			"snippet": r.Snippet,
		})
	}
	return map[string]any{
		"results": results,
		"count":   len(results),
	}, nil
}

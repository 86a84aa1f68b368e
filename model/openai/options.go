//
// Tencent is pleased to support the open source community by making trpc-workflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-workflow-go is licensed under the Apache License Version 2.0.
//
//

package openai

import (
	"time"

	openaiopt "github.com/openai/openai-go/option"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 3
	// defaultContextThreshold is the character count above which the
	// long-context model is preferred.
	defaultContextThreshold = 50000
	// maxTotalChars is the hard budget; beyond it user contents are
	// truncated.
	maxTotalChars = 100000
)

type options struct {
	apiKey           string
	baseURL          string
	longContextModel string
	contextThreshold int
	timeout          time.Duration
	maxAttempts      int
	extraOptions     []openaiopt.RequestOption
}

func newOptions() *options {
	return &options{
		contextThreshold: defaultContextThreshold,
		timeout:          defaultTimeout,
		maxAttempts:      defaultMaxAttempts,
	}
}

// Option configures the Model.
type Option func(*options)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithBaseURL sets the API endpoint.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithLongContextModel sets the fallback model for oversize prompts.
func WithLongContextModel(name string) Option {
	return func(o *options) { o.longContextModel = name }
}

// WithContextLengthThreshold sets the character count above which the
// long-context model is selected.
func WithContextLengthThreshold(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.contextThreshold = n
		}
	}
}

// WithTimeout sets the per-call deadline.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithMaxAttempts sets how many times a failed transport call is tried.
func WithMaxAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithExtraRequestOptions forwards raw openai-go request options.
func WithExtraRequestOptions(opts ...openaiopt.RequestOption) Option {
	return func(o *options) { o.extraOptions = append(o.extraOptions, opts...) }
}

//
// Tencent is pleased to support the open source community by making trpc-workflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-workflow-go is licensed under the Apache License Version 2.0.
//
//

// Package config loads process configuration from the environment.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every environment-driven setting. Values are read once at
// startup; the struct is treated as read-only afterwards.
type Config struct {
	// LLM transport.
	APIKey                 string
	BaseURL                string
	ModelName              string
	LongContextModel       string
	ContextLengthThreshold int

	// Node plug-ins.
	SerperAPIKey string
	DocDir       string
	IndexDir     string
	DatabaseURL  string

	// Process.
	LogFilePath    string
	LogLevel       string
	ServerAddr     string
	StaticDir      string
	WorkerPoolSize int
	NodeConfigPath string
}

// Load reads .env (when present) and the environment into a Config.
func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		APIKey:                 getenv("API_KEY", ""),
		BaseURL:                getenv("BASE_URL", "https://api.deepseek.com/v1"),
		ModelName:              getenv("MODEL_NAME", "deepseek-chat"),
		LongContextModel:       getenv("LONG_CONTEXT_MODEL", "Doubao-pro-256k"),
		ContextLengthThreshold: getenvInt("CONTEXT_LENGTH_THRESHOLD", 50000),
		SerperAPIKey:           getenv("SERPER_API_KEY", ""),
		DocDir:                 getenv("DOC_DIR", "./docs"),
		IndexDir:               getenv("INDEX_DIR", "./storage"),
		DatabaseURL:            getenv("DATABASE_URL", ""),
		LogFilePath:            getenv("LOG_FILE_PATH", ""),
		LogLevel:               getenv("LOG_LEVEL", "info"),
		ServerAddr:             getenv("SERVER_ADDR", ":8000"),
		StaticDir:              getenv("STATIC_DIR", ""),
		WorkerPoolSize:         getenvInt("WORKER_POOL_SIZE", 4),
		NodeConfigPath:         getenv("NODE_CONFIG_PATH", ""),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

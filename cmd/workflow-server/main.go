//
// Tencent is pleased to support the open source community by making trpc-workflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-workflow-go is licensed under the Apache License Version 2.0.
//
//

// Command workflow-server runs the workflow engine, the agent and the
// HTTP front door as one process.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trpc.group/trpc-go/trpc-workflow-go/agent"
	"trpc.group/trpc-go/trpc-workflow-go/config"
	"trpc.group/trpc-go/trpc-workflow-go/log"
	"trpc.group/trpc-go/trpc-workflow-go/model/openai"
	"trpc.group/trpc-go/trpc-workflow-go/node"
	"trpc.group/trpc-go/trpc-workflow-go/nodes"
	"trpc.group/trpc-go/trpc-workflow-go/server"
	"trpc.group/trpc-go/trpc-workflow-go/service"
	"trpc.group/trpc-go/trpc-workflow-go/stream"
	"trpc.group/trpc-go/trpc-workflow-go/workflow"
)

// agentToolTypes are the node types exposed to the agent as tools.
var agentToolTypes = []string{
	"serper_search", "web_scrape", "http_fetch", "terminal",
	"file_write", "text_concat", "text_replace", "add", "multiply",
}

const agentInstruction = "Answer the user's question. Use tools when they help; " +
	"prefer searching before answering questions about current facts."

func main() {
	cfg := config.Load()
	log.SetLevel(cfg.LogLevel)
	if cfg.LogFilePath != "" {
		log.EnableFileSink(cfg.LogFilePath)
	}

	registry := node.NewRegistry()
	llm := openai.New(cfg.ModelName,
		openai.WithAPIKey(cfg.APIKey),
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithLongContextModel(cfg.LongContextModel),
		openai.WithContextLengthThreshold(cfg.ContextLengthThreshold),
	)
	if err := nodes.RegisterAll(registry, nodes.Dependencies{
		Model:        llm,
		SerperAPIKey: cfg.SerperAPIKey,
		DatabaseURL:  cfg.DatabaseURL,
		ConfigPath:   cfg.NodeConfigPath,
	}); err != nil {
		log.Fatalf("register nodes: %v", err)
	}

	engine, err := workflow.NewEngine(registry, workflow.WithPoolSize(cfg.WorkerPoolSize))
	if err != nil {
		log.Fatalf("create engine: %v", err)
	}
	defer engine.Close()

	tools := make([]agent.Tool, 0, len(agentToolTypes))
	for _, typeTag := range agentToolTypes {
		tool, err := agent.FromNode(registry, typeTag)
		if err != nil {
			log.Fatalf("build agent tool: %v", err)
		}
		tool.MaxRetries = 2
		tools = append(tools, tool)
	}
	ag, err := agent.New(llm, tools, agent.WithInstruction(agentInstruction))
	if err != nil {
		log.Fatalf("create agent: %v", err)
	}

	streams := stream.NewManager()
	defer streams.Close()

	serverOpts := []server.Option{server.WithAddr(cfg.ServerAddr)}
	if cfg.StaticDir != "" {
		serverOpts = append(serverOpts, server.WithStaticDir(cfg.StaticDir))
	}
	srv := server.New(engine, service.New(registry, llm), ag, streams, serverOpts...)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("%v", err)
		}
	case sig := <-stop:
		log.Infof("received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Errorf("shutdown: %v", err)
		}
	}
}

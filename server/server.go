//
// Tencent is pleased to support the open source community by making trpc-workflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-workflow-go is licensed under the Apache License Version 2.0.
//
//

// Package server is the HTTP front door: session creation, SSE delivery
// and synchronous workflow execution.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"trpc.group/trpc-go/trpc-workflow-go/agent"
	"trpc.group/trpc-go/trpc-workflow-go/event"
	"trpc.group/trpc-go/trpc-workflow-go/log"
	"trpc.group/trpc-go/trpc-workflow-go/service"
	"trpc.group/trpc-go/trpc-workflow-go/stream"
	"trpc.group/trpc-go/trpc-workflow-go/workflow"
)

// Options configure the Server.
type Options struct {
	addr      string
	staticDir string
}

// Option mutates Options.
type Option func(*Options)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Options) { o.addr = addr }
}

// WithStaticDir serves an index page and assets from the given directory.
func WithStaticDir(dir string) Option {
	return func(o *Options) { o.staticDir = dir }
}

// Server wires the engine, the synthesizer, the agent and the stream
// multiplexer behind the HTTP surface.
type Server struct {
	engine  *workflow.Engine
	svc     *service.Service
	agent   *agent.Agent
	streams *stream.Manager

	opts       *Options
	httpServer *http.Server
}

// New creates a Server. The agent may be nil, in which case agent-mode
// chats are rejected.
func New(engine *workflow.Engine, svc *service.Service, ag *agent.Agent,
	streams *stream.Manager, opt ...Option) *Server {
	o := &Options{addr: ":8000"}
	for _, op := range opt {
		op(o)
	}
	s := &Server{
		engine:  engine,
		svc:     svc,
		agent:   ag,
		streams: streams,
		opts:    o,
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)
	r.HandleFunc("/stream/{id}", s.handleStream).Methods(http.MethodGet)
	r.HandleFunc("/execute_workflow", s.handleExecuteWorkflow).Methods(http.MethodPost)
	if o.staticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(o.staticDir)))
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	s.httpServer = &http.Server{
		Addr:    o.addr,
		Handler: c.Handler(r),
	}
	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	log.Infof("http server listening on %s", s.opts.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type chatRequest struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

// handleChat creates a session and launches the producer for the chosen
// mode. The client then attaches to /stream/{chat_id}.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "text is required"})
		return
	}
	mode := req.Model
	if mode == "" {
		mode = "workflow"
	}
	if mode != "workflow" && mode != "agent" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "model must be workflow or agent"})
		return
	}
	if mode == "agent" && s.agent == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "agent mode is not configured"})
		return
	}

	chatID := uuid.NewString()
	if err := s.streams.Create(chatID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}
	log.Infof("chat %s created (mode=%s)", chatID, mode)

	if mode == "agent" {
		go s.runAgentChat(chatID, req.Text)
	} else {
		go s.runWorkflowChat(chatID, req.Text)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "chat_id": chatID})
}

// handleStream is the SSE subscription endpoint.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["id"]
	events, err := s.streams.Subscribe(r.Context(), chatID)
	if err != nil {
		status := http.StatusNotFound
		if err == stream.ErrSubscriberExists {
			status = http.StatusConflict
		}
		writeJSON(w, status, map[string]any{"success": false, "error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	flusher.Flush()

	for ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			log.Errorf("chat %s: marshal event: %v", chatID, err)
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}
}

type executeWorkflowRequest struct {
	Workflow     json.RawMessage `json:"workflow"`
	GlobalParams map[string]any  `json:"global_params"`
}

// handleExecuteWorkflow is the synchronous collect form: the workflow
// runs to a terminal status and the accumulated events come back as one
// JSON array.
func (s *Server) handleExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	var req executeWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
		return
	}
	g, err := workflow.ParseGraph(req.Workflow)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": err.Error()})
		return
	}

	workflowID := "workflow-" + time.Now().Format("20060102150405") + "-" + uuid.NewString()[:8]
	progress, err := s.engine.ExecuteWithParams(r.Context(), workflowID, g, req.GlobalParams)
	if err != nil {
		if _, ok := err.(*workflow.ValidationError); ok {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}

	events := make([]*event.Event, 0, len(progress)+1)
	for _, spec := range g.Nodes {
		result, ok := progress[spec.ID]
		if !ok {
			continue
		}
		events = append(events, nodeResultEvent(spec.ID, result))
	}
	events = append(events, event.NewComplete())
	writeJSON(w, http.StatusOK, map[string]any{
		"workflow": g,
		"events":   events,
	})
}

func nodeResultEvent(nodeID string, result workflow.NodeResult) *event.Event {
	payload := event.NodeResultPayload{
		NodeID:  nodeID,
		Success: result.Success,
		Status:  string(result.Status),
	}
	if result.Success {
		payload.Data = result.Data
	} else if result.Error != "" {
		errMsg := result.Error
		payload.Error = &errMsg
	}
	return event.NewNodeResult(payload)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("write response: %v", err)
	}
}

// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server exposes the chat loop and the report builders over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/teradata-labs/insight/pkg/agent"
	"github.com/teradata-labs/insight/pkg/fabric"
	"github.com/teradata-labs/insight/pkg/reports"
)

// Config configures the HTTP server.
type Config struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	// MaxBodyBytes bounds chat request bodies.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`

	// ChatTimeout bounds one chat, model and tool calls included.
	ChatTimeout time.Duration `mapstructure:"chat_timeout" yaml:"chat_timeout"`

	CORS  CORSConfig `mapstructure:"cors" yaml:"cors"`
	Debug bool       `mapstructure:"debug" yaml:"debug"`
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadTimeout:     30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		MaxBodyBytes:    1 << 20,
		ChatTimeout:     5 * time.Minute,
		CORS:            DefaultCORSConfig(),
	}
}

// Deps are the components served over HTTP. Agent is required.
type Deps struct {
	Agent *agent.Agent

	// Backend answers readiness checks. Reports defaults to a service over
	// Backend when nil.
	Backend fabric.ExecutionBackend
	Reports *reports.Service

	Logger *zap.Logger
}

// Server is the HTTP front end.
type Server struct {
	cfg     Config
	agent   *agent.Agent
	backend fabric.ExecutionBackend
	reports *reports.Service
	logger  *zap.Logger
	engine  *gin.Engine
}

// New builds the router.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Agent == nil {
		return nil, errors.New("server: agent is required")
	}
	def := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}
	if cfg.ChatTimeout <= 0 {
		cfg.ChatTimeout = def.ChatTimeout
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rep := deps.Reports
	if rep == nil && deps.Backend != nil {
		rep = reports.NewService(deps.Backend, reports.WithLogger(logger))
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:     cfg,
		agent:   deps.Agent,
		backend: deps.Backend,
		reports: rep,
		logger:  logger,
	}
	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	engine := gin.New()
	engine.Use(requestID(), accessLog(s.logger), metrics(), recovery(s.logger))
	if s.cfg.CORS.Enabled {
		engine.Use(corsMiddleware(s.cfg.CORS))
	}

	engine.GET("/healthz", s.handleHealth)
	engine.GET("/readyz", s.handleReady)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")
	api.POST("/chat", s.handleChat)
	api.GET("/tools", s.handleTools)
	api.GET("/reports", s.handleReportKinds)
	api.GET("/reports/:kind", s.handleReport)

	engine.NoRoute(func(c *gin.Context) {
		abortWithError(c, http.StatusNotFound, fmt.Errorf("no route for %s %s", c.Request.Method, c.Request.URL.Path))
	})
	return engine
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:        s.cfg.Addr,
		Handler:     s.engine,
		ReadTimeout: s.cfg.ReadTimeout,
		// No write timeout: chat responses stream for as long as the loop runs.
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	return <-errCh
}

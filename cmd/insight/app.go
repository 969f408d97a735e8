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
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/teradata-labs/insight/pkg/agent"
	insightconfig "github.com/teradata-labs/insight/pkg/config"
	"github.com/teradata-labs/insight/pkg/fabric"
	"github.com/teradata-labs/insight/pkg/fabric/factory"
	"github.com/teradata-labs/insight/pkg/llm"
	llmfactory "github.com/teradata-labs/insight/pkg/llm/factory"
	"github.com/teradata-labs/insight/pkg/reports"
	"github.com/teradata-labs/insight/pkg/shuttle/builtin"
)

// app wires the configured components together. Commands build only what
// they use.
type app struct {
	cfg      *Config
	logger   *zap.Logger
	backend  fabric.ExecutionBackend
	provider *llm.InstrumentedProvider
	toolbox  *builtin.Toolbox
	agent    *agent.Agent
	reports  *reports.Service
}

// warehouseConfig resolves the warehouse settings. A warehouse.config_file
// replaces the inline settings but still takes its password from the
// keyring or environment when the file has none.
func warehouseConfig(cfg *Config) (fabric.BackendConfig, error) {
	wh := cfg.Warehouse
	if path := wh.ConfigFile; path != "" {
		loaded, err := fabric.LoadConfigYAML(insightconfig.ExpandPath(path))
		if err != nil {
			return fabric.BackendConfig{}, fmt.Errorf("warehouse: %w", err)
		}
		if loaded.Password == "" {
			loaded.Password = wh.Password
		}
		wh = *loaded
	}
	if wh.Driver == "sqlite" && wh.DSN != "" {
		wh.DSN = insightconfig.ExpandPath(wh.DSN)
	}
	return wh, nil
}

// newWarehouse connects to the configured warehouse.
func newWarehouse(cfg *Config, logger *zap.Logger) (fabric.ExecutionBackend, error) {
	wh, err := warehouseConfig(cfg)
	if err != nil {
		return nil, err
	}
	backend, err := factory.NewBackend(wh)
	if err != nil {
		return nil, fmt.Errorf("warehouse: %w", err)
	}
	return fabric.NewInstrumentedBackend(backend, logger.Named("warehouse")), nil
}

// newApp builds the warehouse, model, tools, chat loop and report service.
func newApp(cfg *Config, logger *zap.Logger) (*app, error) {
	backend, err := newWarehouse(cfg, logger)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, backend: backend}

	a.provider, err = llmfactory.NewProvider(cfg.LLM, logger.Named("llm"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("llm: %w", err)
	}

	opts := []builtin.Option{builtin.WithLogger(logger.Named("tools"))}
	if cfg.Search.Enabled {
		searcher := builtin.NewWebSearcher(cfg.Search.SearchConfig, logger.Named("search"))
		if !searcher.Configured() {
			logger.Warn("webSearch is enabled but no search provider key is set")
		}
		opts = append(opts, builtin.WithSearcher(searcher))
	}
	a.toolbox = builtin.NewToolbox(backend, opts...)

	systemPrompt := ""
	if path := cfg.Agent.SystemPromptFile; path != "" {
		data, err := os.ReadFile(insightconfig.ExpandPath(path))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to read system prompt: %w", err)
		}
		systemPrompt = string(data)
	}

	a.agent, err = agent.New(agent.Config{
		Provider:         a.provider,
		Registry:         a.toolbox.Registry(),
		Handler:          a.toolbox,
		SystemPrompt:     systemPrompt,
		MaxIterations:    cfg.Agent.MaxIterations,
		ToolTimeout:      cfg.Agent.ToolTimeout,
		ParallelTools:    cfg.Agent.ParallelTools,
		MaxContextTokens: cfg.Agent.MaxContextTokens,
		Logger:           logger.Named("agent"),
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	catalog := reports.DefaultCatalog()
	if path := cfg.Reports.CatalogFile; path != "" {
		catalog, err = reports.LoadCatalog(insightconfig.ExpandPath(path))
		if err != nil {
			a.Close()
			return nil, err
		}
	}
	a.reports = reports.NewService(backend, reports.WithCatalog(catalog), reports.WithLogger(logger.Named("reports")))
	return a, nil
}

// ping checks the warehouse connection.
func (a *app) ping(ctx context.Context) error {
	if err := a.backend.Ping(ctx); err != nil {
		return fmt.Errorf("warehouse %s is not reachable: %w", a.backend.Name(), err)
	}
	return nil
}

// Close releases the model rate limiter and the warehouse pool.
func (a *app) Close() {
	if a.provider != nil {
		_ = a.provider.Close()
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.logger.Warn("failed to close warehouse", zap.Error(err))
		}
	}
}

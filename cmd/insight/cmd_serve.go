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
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/teradata-labs/insight/internal/log"
	"github.com/teradata-labs/insight/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat and reports HTTP server",
	Long: `Start the HTTP server.

POST /api/chat streams the assistant's answer as plain text. The report
endpoints under /api/reports return JSON. Prometheus metrics are served on
/metrics.`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "HTTP listen address")
	serveCmd.Flags().Bool("preflight", false, "send a test request to the model before serving")
	serveCmd.Flags().Bool("debug", false, "run gin in debug mode")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.debug", serveCmd.Flags().Lookup("debug"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	logger := log.Logger()
	defer func() { _ = log.Sync() }()

	if err := serve(cmd, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serve(cmd *cobra.Command, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(config, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.ping(ctx); err != nil {
		// The readiness probe reports this until the warehouse comes up.
		logger.Warn("warehouse check failed", zap.Error(err))
	}

	if preflight, _ := cmd.Flags().GetBool("preflight"); preflight {
		if err := server.ValidateProvider(ctx, a.provider); err != nil {
			return err
		}
		logger.Info("model preflight passed",
			zap.String("provider", a.provider.Name()),
			zap.String("model", a.provider.Model()))
	}

	srv, err := server.New(config.Server, server.Deps{
		Agent:   a.agent,
		Backend: a.backend,
		Reports: a.reports,
		Logger:  logger.Named("http"),
	})
	if err != nil {
		return err
	}

	watchConfig()

	logger.Info("insight starting",
		zap.String("addr", config.Server.Addr),
		zap.String("warehouse", a.backend.Name()),
		zap.String("llm_provider", a.provider.Name()),
		zap.Bool("web_search", a.toolbox.SearchEnabled()))
	return srv.Run(ctx)
}

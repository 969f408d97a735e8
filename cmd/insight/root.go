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
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/teradata-labs/insight/internal/log"
	"github.com/teradata-labs/insight/internal/version"
)

var (
	cfgFile string
	config  *Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:     "insight",
	Short:   "insight - conversational analytics for the BI dashboard",
	Long:    `insight answers natural-language questions about sales, purchasing, inventory and accounting by letting a language model query the analytics warehouse through read-only tools.`,
	Version: version.Get(),
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $INSIGHT_DATA_DIR/insight.yaml)")

	// LLM flags
	rootCmd.PersistentFlags().String("llm-provider", "openai", "LLM provider (openai, anthropic, bedrock, ollama)")
	rootCmd.PersistentFlags().String("llm-model", "", "model name (provider default when empty)")
	rootCmd.PersistentFlags().String("llm-base-url", "", "OpenAI-compatible endpoint URL")

	// Warehouse flags
	rootCmd.PersistentFlags().String("warehouse-driver", "clickhouse", "warehouse driver (clickhouse, postgres, mysql, sqlite)")
	rootCmd.PersistentFlags().String("warehouse-dsn", "", "warehouse DSN (overrides host/port settings)")

	// Agent flags
	rootCmd.PersistentFlags().Int("max-iterations", 10, "maximum model calls per chat")
	rootCmd.PersistentFlags().Bool("search", false, "publish the webSearch tool")

	// Logging flags
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	_ = viper.BindPFlag("llm.provider", rootCmd.PersistentFlags().Lookup("llm-provider"))
	_ = viper.BindPFlag("llm.model", rootCmd.PersistentFlags().Lookup("llm-model"))
	_ = viper.BindPFlag("llm.base_url", rootCmd.PersistentFlags().Lookup("llm-base-url"))
	_ = viper.BindPFlag("warehouse.driver", rootCmd.PersistentFlags().Lookup("warehouse-driver"))
	_ = viper.BindPFlag("warehouse.dsn", rootCmd.PersistentFlags().Lookup("warehouse-dsn"))
	_ = viper.BindPFlag("agent.max_iterations", rootCmd.PersistentFlags().Lookup("max-iterations"))
	_ = viper.BindPFlag("search.enabled", rootCmd.PersistentFlags().Lookup("search"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	var err error
	config, err = LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger, err := log.New(config.Logging.Level, config.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	log.SetLogger(logger)
}

// watchConfig follows config file edits and applies the new log level. Other
// settings take effect on restart.
func watchConfig() {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		lvl := viper.GetString("logging.level")
		if err := log.SetLevel(lvl); err != nil {
			log.Warn("ignoring invalid log level from config", zap.String("file", e.Name), zap.Error(err))
			return
		}
		log.Info("config file changed", zap.String("file", e.Name), zap.String("log_level", lvl))
	})
	viper.WatchConfig()
}

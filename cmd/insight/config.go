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
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/teradata-labs/insight/internal/log"
	"github.com/teradata-labs/insight/pkg/agent"
	insightconfig "github.com/teradata-labs/insight/pkg/config"
	"github.com/teradata-labs/insight/pkg/fabric"
	llmfactory "github.com/teradata-labs/insight/pkg/llm/factory"
	"github.com/teradata-labs/insight/pkg/server"
	"github.com/teradata-labs/insight/pkg/shuttle/builtin"
)

const (
	// ServiceName for keyring storage
	ServiceName = "insight"
	// DefaultConfigFileName is the name of the config file
	DefaultConfigFileName = "insight"
	// EnvPrefix prefixes every environment override, e.g. INSIGHT_LLM_API_KEY.
	EnvPrefix = "INSIGHT"
)

// Config holds all configuration for the insight service.
// Priority: CLI flags > env vars > config file > keyring > defaults
type Config struct {
	// DataDir is computed from INSIGHT_DATA_DIR or ~/.insight and is not
	// read from the config file.
	DataDir string `mapstructure:"-" yaml:"-"`

	Server    server.Config        `mapstructure:"server" yaml:"server"`
	LLM       llmfactory.Config    `mapstructure:"llm" yaml:"llm"`
	Warehouse fabric.BackendConfig `mapstructure:"warehouse" yaml:"warehouse"`
	Agent     agent.ConfigFile     `mapstructure:"agent" yaml:"agent"`
	Search    SearchConfig         `mapstructure:"search" yaml:"search"`
	Reports   ReportsConfig        `mapstructure:"reports" yaml:"reports"`
	Logging   LoggingConfig        `mapstructure:"logging" yaml:"logging"`
}

// SearchConfig enables the webSearch tool.
type SearchConfig struct {
	// Enabled publishes webSearch to the model. Without any provider key the
	// tool answers that search is not configured.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	builtin.SearchConfig `mapstructure:",squash" yaml:",inline"`
}

// ReportsConfig configures the report endpoints.
type ReportsConfig struct {
	// CatalogFile maps report tables and columns; empty uses the built-in layout.
	CatalogFile string `mapstructure:"catalog_file" yaml:"catalog_file"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text, json
}

// LoadConfig loads configuration from multiple sources with proper priority:
// 1. Command line flags (highest priority)
// 2. Environment variables
// 3. Config file
// 4. Keyring (secrets only)
// 5. Defaults (lowest priority)
func LoadConfig(cfgFile string) (*Config, error) {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(insightconfig.GetDataDir())
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/insight/")
		viper.SetConfigName(DefaultConfigFileName)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", viper.ConfigFileUsed(), err)
		}
		// No config file; defaults + env vars + flags.
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.DataDir = insightconfig.GetDataDir()

	// Non-fatal: the keyring might not be available.
	loadSecretsFromKeyring(&config)

	if config.Search.Enabled {
		config.Search.FillFromEnv()
	}
	return &config, nil
}

// setDefaults sets default configuration values. Every key that may come
// from the environment needs a default so AutomaticEnv sees it.
func setDefaults() {
	srv := server.DefaultConfig()
	viper.SetDefault("server.addr", srv.Addr)
	viper.SetDefault("server.read_timeout", srv.ReadTimeout)
	viper.SetDefault("server.shutdown_timeout", srv.ShutdownTimeout)
	viper.SetDefault("server.max_body_bytes", srv.MaxBodyBytes)
	viper.SetDefault("server.chat_timeout", srv.ChatTimeout)
	viper.SetDefault("server.debug", false)
	viper.SetDefault("server.cors.enabled", srv.CORS.Enabled)
	viper.SetDefault("server.cors.allowed_origins", srv.CORS.AllowedOrigins)
	viper.SetDefault("server.cors.allowed_methods", srv.CORS.AllowedMethods)
	viper.SetDefault("server.cors.allowed_headers", srv.CORS.AllowedHeaders)
	viper.SetDefault("server.cors.exposed_headers", srv.CORS.ExposedHeaders)
	viper.SetDefault("server.cors.allow_credentials", srv.CORS.AllowCredentials)
	viper.SetDefault("server.cors.max_age", srv.CORS.MaxAge)

	viper.SetDefault("llm.provider", llmfactory.ProviderOpenAI)
	viper.SetDefault("llm.model", "")
	viper.SetDefault("llm.api_key", "")
	viper.SetDefault("llm.base_url", "")
	viper.SetDefault("llm.max_tokens", 4096)
	viper.SetDefault("llm.temperature", 0.0)
	viper.SetDefault("llm.timeout", "120s")
	viper.SetDefault("llm.region", "")
	viper.SetDefault("llm.profile", "")
	viper.SetDefault("llm.access_key_id", "")
	viper.SetDefault("llm.secret_access_key", "")
	viper.SetDefault("llm.session_token", "")
	viper.SetDefault("llm.rate_limit.enabled", true)
	viper.SetDefault("llm.rate_limit.requests_per_second", 2.0)
	viper.SetDefault("llm.rate_limit.burst", 5)
	viper.SetDefault("llm.rate_limit.tokens_per_minute", 0)
	viper.SetDefault("llm.rate_limit.min_delay", "100ms")
	viper.SetDefault("llm.rate_limit.queue_timeout", "2m")

	viper.SetDefault("warehouse.driver", "clickhouse")
	viper.SetDefault("warehouse.host", "")
	viper.SetDefault("warehouse.port", 0)
	viper.SetDefault("warehouse.user", "")
	viper.SetDefault("warehouse.password", "")
	viper.SetDefault("warehouse.database", "")
	viper.SetDefault("warehouse.dsn", "")
	viper.SetDefault("warehouse.secure", false)
	viper.SetDefault("warehouse.compression", "")
	viper.SetDefault("warehouse.encryption_key", "")
	viper.SetDefault("warehouse.max_open_conns", 10)
	viper.SetDefault("warehouse.query_timeout", fabric.DefaultQueryTimeout)
	viper.SetDefault("warehouse.config_file", "")

	viper.SetDefault("agent.max_iterations", agent.DefaultMaxIterations)
	viper.SetDefault("agent.tool_timeout", "30s")
	viper.SetDefault("agent.parallel_tools", false)
	viper.SetDefault("agent.max_context_tokens", 0)
	viper.SetDefault("agent.system_prompt_file", "")

	viper.SetDefault("search.enabled", false)
	viper.SetDefault("search.primary", builtin.ProviderTavily)
	viper.SetDefault("search.secondary", builtin.ProviderBrave)
	viper.SetDefault("search.tavily_api_key", "")
	viper.SetDefault("search.brave_api_key", "")
	viper.SetDefault("search.serpapi_api_key", "")
	viper.SetDefault("search.timeout", builtin.DefaultSearchTimeout)

	viper.SetDefault("reports.catalog_file", "")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}

// SecretMapping defines how to load a secret from keyring into the config.
type SecretMapping struct {
	KeyringKey string
	Setter     func(*Config, string)
	IsSet      func(*Config) bool // Returns true if the value is already set (skip keyring lookup)
}

// GetSecretMappings returns all secret mappings for the application.
func GetSecretMappings() []SecretMapping {
	return []SecretMapping{
		{
			KeyringKey: "llm_api_key",
			Setter:     func(c *Config, val string) { c.LLM.APIKey = val },
			IsSet:      func(c *Config) bool { return c.LLM.APIKey != "" },
		},
		{
			KeyringKey: "warehouse_password",
			Setter:     func(c *Config, val string) { c.Warehouse.Password = val },
			IsSet:      func(c *Config) bool { return c.Warehouse.Password != "" },
		},
		{
			KeyringKey: "tavily_api_key",
			Setter:     func(c *Config, val string) { c.Search.TavilyAPIKey = val },
			IsSet:      func(c *Config) bool { return c.Search.TavilyAPIKey != "" },
		},
		{
			KeyringKey: "brave_api_key",
			Setter:     func(c *Config, val string) { c.Search.BraveAPIKey = val },
			IsSet:      func(c *Config) bool { return c.Search.BraveAPIKey != "" },
		},
		{
			KeyringKey: "serpapi_api_key",
			Setter:     func(c *Config, val string) { c.Search.SerpAPIAPIKey = val },
			IsSet:      func(c *Config) bool { return c.Search.SerpAPIAPIKey != "" },
		},
	}
}

func loadSecretsFromKeyring(config *Config) {
	for _, mapping := range GetSecretMappings() {
		if mapping.IsSet(config) {
			continue
		}
		value, err := GetSecretFromKeyring(mapping.KeyringKey)
		switch {
		case errors.Is(err, keyring.ErrNotFound):
		case err != nil:
			// A locked or missing keyring fails every lookup the same way.
			log.Warn("keyring unavailable, skipping stored secrets",
				zap.String("key", mapping.KeyringKey), zap.Error(err))
			return
		case value != "":
			mapping.Setter(config, value)
		}
	}
}

// GetSecretFromKeyring retrieves a secret from the system keyring.
func GetSecretFromKeyring(key string) (string, error) {
	return keyring.Get(ServiceName, key)
}

// SaveSecretToKeyring saves a secret to the system keyring.
func SaveSecretToKeyring(key, value string) error {
	return keyring.Set(ServiceName, key, value)
}

// DeleteSecretFromKeyring removes a secret from the system keyring.
func DeleteSecretFromKeyring(key string) error {
	return keyring.Delete(ServiceName, key)
}

// ListAvailableSecretKeys returns all keyring key names.
func ListAvailableSecretKeys() []string {
	mappings := GetSecretMappings()
	keys := make([]string, len(mappings))
	for i, mapping := range mappings {
		keys[i] = mapping.KeyringKey
	}
	return keys
}

func isSecretKey(name string) bool {
	for _, k := range ListAvailableSecretKeys() {
		if k == name {
			return true
		}
	}
	return false
}

var exampleHeader = heredoc.Doc(`
	# insight configuration
	#
	# Every key can be overridden with an INSIGHT_ environment variable,
	# e.g. INSIGHT_WAREHOUSE_HOST or INSIGHT_LLM_PROVIDER. Secrets are best
	# kept in the system keyring:
	#
	#   insight config set-key llm_api_key
	#   insight config set-key warehouse_password
	#
`)

// GenerateExampleConfig renders an example config file with the defaults
// for provider and warehouse driver.
func GenerateExampleConfig(provider, driver string) (string, error) {
	cfg := Config{
		Server: server.DefaultConfig(),
		LLM: llmfactory.Config{
			Provider:  provider,
			MaxTokens: 4096,
		},
		Warehouse: fabric.BackendConfig{
			Driver:       driver,
			QueryTimeout: fabric.DefaultQueryTimeout,
		},
		Agent: agent.ConfigFile{
			MaxIterations: agent.DefaultMaxIterations,
			ToolTimeout:   30 * time.Second,
		},
		Search: SearchConfig{
			SearchConfig: builtin.SearchConfig{
				Primary:   builtin.ProviderTavily,
				Secondary: builtin.ProviderBrave,
			},
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}

	switch provider {
	case llmfactory.ProviderOllama:
		cfg.LLM.Model = "qwen2.5:7b"
		cfg.LLM.BaseURL = llmfactory.DefaultOllamaBaseURL
	case llmfactory.ProviderBedrock:
		cfg.LLM.Region = "us-west-2"
	}

	switch driver {
	case "clickhouse":
		cfg.Warehouse.Host, cfg.Warehouse.Port, cfg.Warehouse.Database = "localhost", 8123, "default"
	case "postgres":
		cfg.Warehouse.Host, cfg.Warehouse.Port, cfg.Warehouse.Database = "localhost", 5432, "analytics"
	case "mysql":
		cfg.Warehouse.Host, cfg.Warehouse.Port, cfg.Warehouse.Database = "localhost", 3306, "analytics"
	case "sqlite":
		cfg.Warehouse.DSN = "~/.insight/warehouse.db"
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to render example config: %w", err)
	}
	return exampleHeader + string(data), nil
}

// maskSecret masks a secret for display.
func maskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

func writeFileIfAbsent(path string, data []byte, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	return os.WriteFile(path, data, 0o600)
}

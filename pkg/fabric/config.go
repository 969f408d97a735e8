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
package fabric

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// BackendConfig holds warehouse connection settings. The same struct is
// filled by viper (mapstructure tags) and by standalone YAML files.
type BackendConfig struct {
	// Driver selects the backend: clickhouse, postgres, mysql or sqlite.
	Driver   string `mapstructure:"driver" yaml:"driver"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	Database string `mapstructure:"database" yaml:"database"`

	// DSN overrides Host/Port/User/Password/Database for SQL drivers.
	// For sqlite it is the file path or URI.
	DSN string `mapstructure:"dsn" yaml:"dsn"`

	// Secure selects https for the ClickHouse HTTP interface and TLS for SQL drivers.
	Secure bool `mapstructure:"secure" yaml:"secure"`

	// Compression requests compressed ClickHouse responses ("zstd" or "").
	Compression string `mapstructure:"compression" yaml:"compression"`

	// EncryptionKey unlocks SQLCipher warehouse files.
	EncryptionKey string `mapstructure:"encryption_key" yaml:"encryption_key"`

	MaxOpenConns int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	QueryTimeout time.Duration `mapstructure:"query_timeout" yaml:"query_timeout"`

	// ConfigFile points at a standalone warehouse YAML file that replaces the
	// inline settings. Environment references like ${PGPASSWORD} are expanded.
	ConfigFile string `mapstructure:"config_file" yaml:"config_file,omitempty"`
}

// DefaultQueryTimeout applies when QueryTimeout is unset.
const DefaultQueryTimeout = 60 * time.Second

// Validate checks the configuration and fills defaults.
func (c *BackendConfig) Validate() error {
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	if c.Driver == "" {
		return fmt.Errorf("warehouse driver is required")
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = DefaultQueryTimeout
	}
	switch c.Driver {
	case "sqlite":
		if c.DSN == "" {
			return fmt.Errorf("sqlite warehouse requires dsn")
		}
	case "clickhouse", "postgres", "mysql":
		if c.DSN == "" && c.Host == "" {
			return fmt.Errorf("%s warehouse requires host or dsn", c.Driver)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedDriver, c.Driver)
	}
	return nil
}

// LoadConfigYAML reads a standalone warehouse config file.
func LoadConfigYAML(path string) (*BackendConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read warehouse config: %w", err)
	}
	var cfg BackendConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse warehouse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

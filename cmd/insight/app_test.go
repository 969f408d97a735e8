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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teradata-labs/insight/pkg/fabric"
)

func writeWarehouseFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "warehouse.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestWarehouseConfigFromFile(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "wh.db")
	t.Setenv("INSIGHT_TEST_WAREHOUSE_DSN", dsn)
	path := writeWarehouseFile(t, "driver: sqlite\ndsn: ${INSIGHT_TEST_WAREHOUSE_DSN}\n")

	cfg := &Config{Warehouse: fabric.BackendConfig{
		Driver:     "clickhouse",
		Host:       "inline.example",
		Password:   "from-keyring",
		ConfigFile: path,
	}}
	wh, err := warehouseConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", wh.Driver)
	assert.Equal(t, dsn, wh.DSN)
	assert.Empty(t, wh.Host)
	assert.Equal(t, "from-keyring", wh.Password)
	assert.Equal(t, fabric.DefaultQueryTimeout, wh.QueryTimeout)

	backend, err := newWarehouse(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer func() { _ = backend.Close() }()
	assert.Equal(t, "sqlite", backend.Name())
}

func TestWarehouseConfigFilePasswordWins(t *testing.T) {
	path := writeWarehouseFile(t, "driver: postgres\nhost: db.internal\npassword: file-pass\n")

	wh, err := warehouseConfig(&Config{Warehouse: fabric.BackendConfig{Password: "from-keyring", ConfigFile: path}})
	require.NoError(t, err)
	assert.Equal(t, "postgres", wh.Driver)
	assert.Equal(t, "file-pass", wh.Password)
}

func TestWarehouseConfigFileErrors(t *testing.T) {
	_, err := warehouseConfig(&Config{Warehouse: fabric.BackendConfig{
		ConfigFile: filepath.Join(t.TempDir(), "missing.yaml"),
	}})
	assert.ErrorContains(t, err, "warehouse")

	invalid := writeWarehouseFile(t, "driver: oracle\nhost: x\n")
	_, err = newWarehouse(&Config{Warehouse: fabric.BackendConfig{ConfigFile: invalid}}, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, fabric.ErrUnsupportedDriver)
}

func TestWarehouseConfigInline(t *testing.T) {
	wh, err := warehouseConfig(&Config{Warehouse: fabric.BackendConfig{Driver: "mysql", Host: "db", Port: 3306}})
	require.NoError(t, err)
	assert.Equal(t, "db", wh.Host)
	assert.Empty(t, wh.ConfigFile)
}

func TestLoadConfig_WarehouseConfigFileFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("INSIGHT_WAREHOUSE_CONFIG_FILE", "/etc/insight/warehouse.yaml")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "/etc/insight/warehouse.yaml", cfg.Warehouse.ConfigFile)
}

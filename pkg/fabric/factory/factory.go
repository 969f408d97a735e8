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

// Package factory builds warehouse backends from configuration and registers
// them with the fabric driver registry.
package factory

import (
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq" // postgres

	"github.com/teradata-labs/insight/internal/sqlitedriver"
	"github.com/teradata-labs/insight/pkg/fabric"
)

func init() {
	fabric.Register("postgres", newPostgresBackend)
	fabric.Register("mysql", newMySQLBackend)
	fabric.Register("sqlite", newSQLiteBackend)
	fabric.Register("clickhouse", func(cfg fabric.BackendConfig) (fabric.ExecutionBackend, error) {
		return NewClickHouseBackend(cfg)
	})
}

// NewBackend validates cfg and creates the matching backend.
func NewBackend(cfg fabric.BackendConfig) (fabric.ExecutionBackend, error) {
	return fabric.Create(cfg)
}

func newPostgresBackend(cfg fabric.BackendConfig) (fabric.ExecutionBackend, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = postgresDSN(cfg)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newSQLBackend(db, cfg, fabric.DialectPostgres, true), nil
}

func postgresDSN(cfg fabric.BackendConfig) string {
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslmode := "disable"
	if cfg.Secure {
		sslmode = "require"
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		Path:     "/" + cfg.Database,
		RawQuery: url.Values{"sslmode": []string{sslmode}}.Encode(),
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	return u.String()
}

func newMySQLBackend(cfg fabric.BackendConfig) (fabric.ExecutionBackend, error) {
	dsn, err := mysqlDSN(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newSQLBackend(db, cfg, fabric.DialectMySQL, true), nil
}

// mysqlDSN builds or normalizes a go-sql-driver DSN. Time columns are always
// parsed into time.Time so rows serialize consistently.
func mysqlDSN(cfg fabric.BackendConfig) (string, error) {
	var mc *mysql.Config
	if cfg.DSN != "" {
		parsed, err := mysql.ParseDSN(cfg.DSN)
		if err != nil {
			return "", fmt.Errorf("invalid mysql dsn: %w", err)
		}
		mc = parsed
	} else {
		port := cfg.Port
		if port == 0 {
			port = 3306
		}
		mc = mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
		mc.DBName = cfg.Database
		if cfg.Secure {
			mc.TLSConfig = "true"
		}
	}
	mc.ParseTime = true
	return mc.FormatDSN(), nil
}

func newSQLiteBackend(cfg fabric.BackendConfig) (fabric.ExecutionBackend, error) {
	db, err := sqlitedriver.Open(cfg.DSN, cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}
	// SQLite drivers do not honor read-only transactions.
	return newSQLBackend(db, cfg, fabric.DialectSQLite, false), nil
}

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
package factory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/teradata-labs/insight/pkg/fabric"
)

// SQLBackend is a database/sql warehouse backend.
type SQLBackend struct {
	db         *sql.DB
	name       string
	dialect    fabric.Dialect
	timeout    time.Duration
	readOnlyTx bool

	// prepared sends every query as a prepared statement. Postgres then uses
	// the extended protocol, which refuses multi-statement strings, and the
	// cgo SQLite driver compiles only the first statement.
	prepared bool
}

var _ fabric.ExecutionBackend = (*SQLBackend)(nil)

func newSQLBackend(db *sql.DB, cfg fabric.BackendConfig, dialect fabric.Dialect, readOnlyTx bool) *SQLBackend {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = fabric.DefaultQueryTimeout
	}
	return &SQLBackend{
		db:         db,
		name:       cfg.Driver,
		dialect:    dialect,
		timeout:    timeout,
		readOnlyTx: readOnlyTx,
		prepared:   dialect == fabric.DialectPostgres || dialect == fabric.DialectSQLite,
	}
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// NewSQLBackend wraps an already opened database. Used for tests and
// embedding callers that manage their own pool.
func NewSQLBackend(db *sql.DB, name string, dialect fabric.Dialect) *SQLBackend {
	return newSQLBackend(db, fabric.BackendConfig{Driver: name}, dialect, dialect != fabric.DialectSQLite)
}

func (b *SQLBackend) Name() string {
	return b.name
}

func (b *SQLBackend) Dialect() fabric.Dialect {
	return b.dialect
}

// ExecuteQuery runs query and scans every row. Postgres and MySQL queries run
// inside a read-only transaction; Postgres and SQLite queries are prepared.
func (b *SQLBackend) ExecuteQuery(ctx context.Context, query string, args ...any) (*fabric.QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	start := time.Now()

	var (
		q    queryer = b.db
		rows *sql.Rows
		err  error
	)
	if b.readOnlyTx {
		tx, txErr := b.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
		if txErr != nil {
			return nil, fabric.NewQueryError(query, txErr)
		}
		defer func() { _ = tx.Rollback() }()
		q = tx
	}

	if b.prepared {
		stmt, prepErr := q.PrepareContext(ctx, query)
		if prepErr != nil {
			return nil, fabric.NewQueryError(query, prepErr)
		}
		defer func() { _ = stmt.Close() }()
		rows, err = stmt.QueryContext(ctx, args...)
	} else {
		rows, err = q.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fabric.NewQueryError(query, err)
	}
	defer func() { _ = rows.Close() }()

	result, err := scanRows(rows)
	if err != nil {
		return nil, fabric.NewQueryError(query, err)
	}
	result.ExecutionStats.DurationMs = time.Since(start).Milliseconds()
	return result, nil
}

func scanRows(rows *sql.Rows) (*fabric.QueryResult, error) {
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	cols := make([]fabric.Column, len(columnTypes))
	for i, ct := range columnTypes {
		nullable, _ := ct.Nullable()
		cols[i] = fabric.Column{
			Name:     ct.Name(),
			Type:     ct.DatabaseTypeName(),
			Nullable: nullable,
		}
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range cols {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			// Text columns arrive as []byte from most drivers.
			if raw, ok := values[i].([]byte); ok {
				row[col.Name] = string(raw)
			} else {
				row[col.Name] = values[i]
			}
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &fabric.QueryResult{
		Rows:     resultRows,
		Columns:  cols,
		RowCount: len(resultRows),
	}, nil
}

// GetSchema probes the table with a query that returns no rows and reads the
// column metadata. A missing table fails with the warehouse's own error.
func (b *SQLBackend) GetSchema(ctx context.Context, table string) (*fabric.Schema, error) {
	quoted, err := b.dialect.QuoteIdent(table)
	if err != nil {
		return nil, err
	}
	result, err := b.ExecuteQuery(ctx, fmt.Sprintf("SELECT * FROM %s WHERE 1 = 0", quoted))
	if err != nil {
		return nil, err
	}
	return &fabric.Schema{
		Name:   table,
		Fields: result.Columns,
	}, nil
}

func (b *SQLBackend) ListResources(ctx context.Context) ([]fabric.Resource, error) {
	var query string
	switch b.dialect {
	case fabric.DialectPostgres:
		query = `
			SELECT table_name, table_type
			FROM information_schema.tables
			WHERE table_schema = current_schema()
			ORDER BY table_name`
	case fabric.DialectMySQL:
		query = `
			SELECT TABLE_NAME, TABLE_TYPE
			FROM information_schema.TABLES
			WHERE TABLE_SCHEMA = DATABASE()
			ORDER BY TABLE_NAME`
	case fabric.DialectSQLite:
		query = `
			SELECT name, type
			FROM sqlite_master
			WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
			ORDER BY name`
	default:
		return nil, fmt.Errorf("table listing not supported for %s", b.dialect)
	}

	result, err := b.ExecuteQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	names := result.ColumnNames()
	resources := make([]fabric.Resource, 0, result.RowCount)
	for _, row := range result.Rows {
		resources = append(resources, fabric.Resource{
			Name: fmt.Sprint(row[names[0]]),
			Type: fmt.Sprint(row[names[1]]),
		})
	}
	return resources, nil
}

func (b *SQLBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *SQLBackend) Close() error {
	return b.db.Close()
}

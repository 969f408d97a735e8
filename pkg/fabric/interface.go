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
	"context"
)

// ExecutionBackend is the warehouse client used by the chat tools and the
// report handlers. Implementations return row-oriented results: each row maps
// a column name to its value.
type ExecutionBackend interface {
	// Name returns the backend identifier (e.g., "clickhouse", "postgres")
	Name() string

	// Dialect returns the SQL dialect queries must be written in.
	Dialect() Dialect

	// ExecuteQuery runs a query. Args are bound to the dialect's placeholders.
	ExecuteQuery(ctx context.Context, query string, args ...any) (*QueryResult, error)

	// GetSchema describes a table. Unknown tables return a *QueryError
	// produced by the warehouse itself.
	GetSchema(ctx context.Context, table string) (*Schema, error)

	// ListResources lists the tables of the configured database.
	ListResources(ctx context.Context) ([]Resource, error)

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// QueryResult is the result of a query.
type QueryResult struct {
	// Rows in warehouse order
	Rows []map[string]any

	// Columns in select-list order
	Columns []Column

	// RowCount is len(Rows)
	RowCount int

	ExecutionStats ExecutionStats
}

// Column represents a column in tabular results.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// ExecutionStats tracks execution metrics.
type ExecutionStats struct {
	// Duration in milliseconds
	DurationMs int64

	// BytesRead as reported by the warehouse, when available
	BytesRead int64
}

// Schema describes one table.
type Schema struct {
	Name   string
	Fields []Column
}

// Resource is a table or view in the warehouse.
type Resource struct {
	Name string
	Type string
}

// ColumnNames returns the column names of the result in order.
func (r *QueryResult) ColumnNames() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}

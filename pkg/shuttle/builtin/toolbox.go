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

// Package builtin implements the warehouse and web search tools offered to
// the chat model.
package builtin

import (
	"context"

	"go.uber.org/zap"

	"github.com/teradata-labs/insight/pkg/fabric"
	"github.com/teradata-labs/insight/pkg/shuttle"
)

// DefaultMaxRows caps the rows returned by executeQuery.
const DefaultMaxRows = 100

const correctiveSuggestion = "Check table and column names with listTables and describeTable, then retry with a corrected query."

// Toolbox implements shuttle.Handler over a warehouse backend and an
// optional web searcher.
type Toolbox struct {
	backend  fabric.ExecutionBackend
	searcher *WebSearcher
	maxRows  int
	logger   *zap.Logger
}

var _ shuttle.Handler = (*Toolbox)(nil)

// Option configures a Toolbox.
type Option func(*Toolbox)

// WithSearcher enables webSearch.
func WithSearcher(s *WebSearcher) Option {
	return func(t *Toolbox) { t.searcher = s }
}

// WithMaxRows overrides DefaultMaxRows.
func WithMaxRows(n int) Option {
	return func(t *Toolbox) {
		if n > 0 {
			t.maxRows = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Toolbox) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewToolbox creates the tool handler.
func NewToolbox(backend fabric.ExecutionBackend, opts ...Option) *Toolbox {
	t := &Toolbox{
		backend: backend,
		maxRows: DefaultMaxRows,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SearchEnabled reports whether webSearch is published.
func (t *Toolbox) SearchEnabled() bool {
	return t.searcher != nil
}

// Registry returns the definitions to publish: the three warehouse tools
// and, when a searcher is set, webSearch.
func (t *Toolbox) Registry() *shuttle.Registry {
	reg := shuttle.NewRegistry()
	for _, def := range Definitions(t.SearchEnabled()) {
		reg.Register(def)
	}
	return reg
}

// WebSearch implements shuttle.Handler. Without a searcher it reports the
// tool as not configured.
func (t *Toolbox) WebSearch(ctx context.Context, call shuttle.WebSearch) *shuttle.Result {
	if t.searcher == nil {
		return NewWebSearcherWithProviders(t.logger).Search(ctx, call.Query)
	}
	return t.searcher.Search(ctx, call.Query)
}

// Definitions returns the tool definitions in publication order.
func Definitions(includeSearch bool) []shuttle.Definition {
	defs := []shuttle.Definition{
		{
			Name:        shuttle.ToolListTables,
			Description: "List all tables available in the analytics database.",
			InputSchema: shuttle.NewObjectSchema("No parameters", nil, nil),
		},
		{
			Name:        shuttle.ToolDescribeTable,
			Description: "Describe the columns and column types of one table.",
			InputSchema: shuttle.NewObjectSchema("Parameters for describeTable",
				map[string]*shuttle.JSONSchema{
					"table_name": shuttle.NewStringSchema("Name of the table to describe").WithMinLength(1),
				},
				[]string{"table_name"}),
		},
		{
			Name: shuttle.ToolExecuteQuery,
			Description: "Run a read-only SQL SELECT statement against the analytics database. " +
				"Only a single SELECT statement is accepted. At most 100 rows are returned; rowCount reports the full count.",
			InputSchema: shuttle.NewObjectSchema("Parameters for executeQuery",
				map[string]*shuttle.JSONSchema{
					"sql": shuttle.NewStringSchema("The SELECT statement to execute").WithMinLength(1),
				},
				[]string{"sql"}),
		},
	}
	if includeSearch {
		defs = append(defs, shuttle.Definition{
			Name:        shuttle.ToolWebSearch,
			Description: "Search the web for context that is not in the database, such as market news or definitions. Returns up to 5 results.",
			InputSchema: shuttle.NewObjectSchema("Parameters for webSearch",
				map[string]*shuttle.JSONSchema{
					"query": shuttle.NewStringSchema("The search query").WithMinLength(1),
				},
				[]string{"query"}),
		})
	}
	return defs
}

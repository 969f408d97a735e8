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
package shuttle

import (
	"context"
	"sync"
)

// MockHandler is a Handler whose behavior is set per method. Unset methods
// succeed with an empty payload. Safe for concurrent use.
type MockHandler struct {
	mu sync.Mutex

	ListTablesFunc    func(ctx context.Context) *Result
	DescribeTableFunc func(ctx context.Context, call DescribeTable) *Result
	ExecuteQueryFunc  func(ctx context.Context, call ExecuteQuery) *Result
	WebSearchFunc     func(ctx context.Context, call WebSearch) *Result

	// Calls records every dispatched call in order.
	Calls []Call
}

var _ Handler = (*MockHandler)(nil)

func (m *MockHandler) record(c Call) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, c)
}

// CallCount returns the number of dispatched calls.
func (m *MockHandler) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

func (m *MockHandler) ListTables(ctx context.Context) *Result {
	m.record(ListTables{})
	if m.ListTablesFunc != nil {
		return m.ListTablesFunc(ctx)
	}
	return Success(map[string]any{"tables": []string{}, "message": "Found 0 tables"})
}

func (m *MockHandler) DescribeTable(ctx context.Context, call DescribeTable) *Result {
	m.record(call)
	if m.DescribeTableFunc != nil {
		return m.DescribeTableFunc(ctx, call)
	}
	return Success(map[string]any{"table": call.TableName, "columns": []any{}})
}

func (m *MockHandler) ExecuteQuery(ctx context.Context, call ExecuteQuery) *Result {
	m.record(call)
	if m.ExecuteQueryFunc != nil {
		return m.ExecuteQueryFunc(ctx, call)
	}
	return Success(map[string]any{"data": []any{}, "rowCount": 0})
}

func (m *MockHandler) WebSearch(ctx context.Context, call WebSearch) *Result {
	m.record(call)
	if m.WebSearchFunc != nil {
		return m.WebSearchFunc(ctx, call)
	}
	return Success(map[string]any{"results": []any{}})
}

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
	"fmt"
)

// Call is a parsed tool invocation. The set of variants is closed: every
// variant implements dispatch, which names exactly one Handler method, so a
// new tool cannot be added without extending Handler.
type Call interface {
	// ToolName returns the name the model used.
	ToolName() string

	dispatch(ctx context.Context, h Handler) *Result
}

// Handler executes each kind of call. Implementations return structured
// results for every failure.
type Handler interface {
	ListTables(ctx context.Context) *Result
	DescribeTable(ctx context.Context, call DescribeTable) *Result
	ExecuteQuery(ctx context.Context, call ExecuteQuery) *Result
	WebSearch(ctx context.Context, call WebSearch) *Result
}

// ListTables lists warehouse tables.
type ListTables struct{}

// DescribeTable describes one table.
type DescribeTable struct {
	TableName string
}

// ExecuteQuery runs model-written SQL through the guard.
type ExecuteQuery struct {
	SQL string
}

// WebSearch searches the web.
type WebSearch struct {
	Query string
}

// Unknown is a call for a name that is not published.
type Unknown struct {
	Name string
}

func (ListTables) ToolName() string    { return ToolListTables }
func (DescribeTable) ToolName() string { return ToolDescribeTable }
func (ExecuteQuery) ToolName() string  { return ToolExecuteQuery }
func (WebSearch) ToolName() string     { return ToolWebSearch }
func (u Unknown) ToolName() string     { return u.Name }

func (c ListTables) dispatch(ctx context.Context, h Handler) *Result {
	return h.ListTables(ctx)
}

func (c DescribeTable) dispatch(ctx context.Context, h Handler) *Result {
	return h.DescribeTable(ctx, c)
}

func (c ExecuteQuery) dispatch(ctx context.Context, h Handler) *Result {
	return h.ExecuteQuery(ctx, c)
}

func (c WebSearch) dispatch(ctx context.Context, h Handler) *Result {
	return h.WebSearch(ctx, c)
}

func (c Unknown) dispatch(context.Context, Handler) *Result {
	return UnknownToolResult()
}

// UnknownToolResult is returned for names outside the published registry.
func UnknownToolResult() *Result {
	return Failure(CodeUnknownTool, "Unknown tool", "", nil)
}

// ParseCall maps a tool name and its arguments onto a Call. Names that are
// not tools resolve to Unknown.
func ParseCall(name string, args map[string]any) Call {
	switch name {
	case ToolListTables:
		return ListTables{}
	case ToolDescribeTable:
		return DescribeTable{TableName: stringArg(args, "table_name")}
	case ToolExecuteQuery:
		return ExecuteQuery{SQL: stringArg(args, "sql")}
	case ToolWebSearch:
		return WebSearch{Query: stringArg(args, "query")}
	default:
		return Unknown{Name: name}
	}
}

// Dispatch runs call against h.
func Dispatch(ctx context.Context, h Handler, call Call) *Result {
	return call.dispatch(ctx, h)
}

func stringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

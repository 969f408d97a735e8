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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCall(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want Call
	}{
		{ToolListTables, nil, ListTables{}},
		{ToolDescribeTable, map[string]any{"table_name": "sales"}, DescribeTable{TableName: "sales"}},
		{ToolExecuteQuery, map[string]any{"sql": "SELECT 1"}, ExecuteQuery{SQL: "SELECT 1"}},
		{ToolWebSearch, map[string]any{"query": "gdp"}, WebSearch{Query: "gdp"}},
		{"dropEverything", map[string]any{"x": 1}, Unknown{Name: "dropEverything"}},
		{ToolDescribeTable, map[string]any{}, DescribeTable{}},
		{ToolExecuteQuery, map[string]any{"sql": 42}, ExecuteQuery{SQL: "42"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCall(tt.name, tt.args)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.name, got.ToolName())
		})
	}
}

func TestDispatchRoutesEachVariant(t *testing.T) {
	h := &MockHandler{}
	ctx := context.Background()

	Dispatch(ctx, h, ListTables{})
	Dispatch(ctx, h, DescribeTable{TableName: "t"})
	Dispatch(ctx, h, ExecuteQuery{SQL: "SELECT 1"})
	Dispatch(ctx, h, WebSearch{Query: "q"})

	require.Len(t, h.Calls, 4)
	assert.Equal(t, ListTables{}, h.Calls[0])
	assert.Equal(t, DescribeTable{TableName: "t"}, h.Calls[1])
	assert.Equal(t, ExecuteQuery{SQL: "SELECT 1"}, h.Calls[2])
	assert.Equal(t, WebSearch{Query: "q"}, h.Calls[3])
}

func TestDispatchUnknownNeverReachesHandler(t *testing.T) {
	h := &MockHandler{}
	res := Dispatch(context.Background(), h, Unknown{Name: "rm"})

	assert.False(t, res.Success)
	assert.Equal(t, map[string]any{"error": "Unknown tool"}, res.Payload())
	assert.Zero(t, h.CallCount())
}

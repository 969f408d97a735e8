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

func testRegistry(withSearch bool) *Registry {
	reg := NewRegistry()
	reg.Register(Definition{
		Name:        ToolListTables,
		Description: "list",
		InputSchema: NewObjectSchema("", nil, nil),
	})
	reg.Register(Definition{
		Name:        ToolDescribeTable,
		Description: "describe",
		InputSchema: NewObjectSchema("", map[string]*JSONSchema{
			"table_name": NewStringSchema("table").WithMinLength(1),
		}, []string{"table_name"}),
	})
	reg.Register(Definition{
		Name:        ToolExecuteQuery,
		Description: "query",
		InputSchema: NewObjectSchema("", map[string]*JSONSchema{
			"sql": NewStringSchema("sql").WithMinLength(1),
		}, []string{"sql"}),
	})
	if withSearch {
		reg.Register(Definition{
			Name:        ToolWebSearch,
			Description: "search",
			InputSchema: NewObjectSchema("", map[string]*JSONSchema{
				"query": NewStringSchema("query"),
			}, []string{"query"}),
		})
	}
	return reg
}

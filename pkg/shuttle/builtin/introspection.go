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
package builtin

import (
	"context"
	"errors"
	"fmt"

	"github.com/teradata-labs/insight/pkg/fabric"
	"github.com/teradata-labs/insight/pkg/shuttle"
)

// ListTables implements shuttle.Handler.
func (t *Toolbox) ListTables(ctx context.Context) *shuttle.Result {
	resources, err := t.backend.ListResources(ctx)
	if err != nil {
		return warehouseFailure(err, "listTables")
	}
	tables := make([]string, len(resources))
	for i, r := range resources {
		tables[i] = r.Name
	}
	return shuttle.Success(map[string]any{
		"tables":  tables,
		"message": fmt.Sprintf("Found %d tables", len(tables)),
	})
}

// DescribeTable implements shuttle.Handler. The name is passed straight to
// the warehouse; a missing table surfaces the warehouse's own error.
func (t *Toolbox) DescribeTable(ctx context.Context, call shuttle.DescribeTable) *shuttle.Result {
	schema, err := t.backend.GetSchema(ctx, call.TableName)
	if err != nil {
		return warehouseFailure(err, "DESCRIBE "+call.TableName)
	}
	return shuttle.Success(map[string]any{
		"table":   schema.Name,
		"columns": schema.Fields,
		"message": fmt.Sprintf("Table %s has %d columns", schema.Name, len(schema.Fields)),
	})
}

// warehouseFailure converts a warehouse error into the structured
// {error, failedQuery, suggestion} result. fallbackQuery names the
// operation when the error does not carry the query text.
func warehouseFailure(err error, fallbackQuery string) *shuttle.Result {
	failed := fallbackQuery
	var qe *fabric.QueryError
	if errors.As(err, &qe) {
		failed = qe.Query
	}
	return shuttle.Failure(shuttle.CodeQueryFailed, err.Error(), correctiveSuggestion,
		map[string]any{"failedQuery": failed})
}

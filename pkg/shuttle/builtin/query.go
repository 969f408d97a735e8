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
	"fmt"

	"go.uber.org/zap"

	"github.com/teradata-labs/insight/pkg/shuttle"
	"github.com/teradata-labs/insight/pkg/sqlguard"
)

// ExecuteQuery implements shuttle.Handler. Statements rejected by the guard
// never reach the warehouse.
func (t *Toolbox) ExecuteQuery(ctx context.Context, call shuttle.ExecuteQuery) *shuttle.Result {
	stmt, err := sqlguard.Parse(call.SQL, t.backend.Dialect())
	if err != nil {
		t.logger.Info("rejected non-select statement", zap.Error(err))
		return shuttle.Failure(shuttle.CodeValidationFailed, err.Error(),
			"Only a single read-only SELECT statement is allowed. Rewrite the request as one SELECT.",
			map[string]any{"failedQuery": call.SQL})
	}

	result, err := t.backend.ExecuteQuery(ctx, stmt.String())
	if err != nil {
		return warehouseFailure(err, stmt.String())
	}

	rows := result.Rows
	message := fmt.Sprintf("Query returned %d rows", result.RowCount)
	if len(rows) > t.maxRows {
		rows = rows[:t.maxRows]
		message = fmt.Sprintf("Query returned %d rows (showing first %d)", result.RowCount, t.maxRows)
	}
	return shuttle.Success(map[string]any{
		"data":     rows,
		"rowCount": result.RowCount,
		"columns":  result.ColumnNames(),
		"message":  message,
	})
}

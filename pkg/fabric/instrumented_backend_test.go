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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingBackend struct {
	stubBackend
	queries []string
	args    [][]any
}

func (r *recordingBackend) ExecuteQuery(_ context.Context, q string, args ...any) (*QueryResult, error) {
	r.queries = append(r.queries, q)
	r.args = append(r.args, args)
	return &QueryResult{RowCount: 1, Rows: []map[string]any{{"n": 1}}}, nil
}

func TestInstrumentedBackendDelegates(t *testing.T) {
	inner := &recordingBackend{stubBackend: stubBackend{name: "rec"}}
	ib := NewInstrumentedBackend(inner, zaptest.NewLogger(t))

	res, err := ib.ExecuteQuery(context.Background(), "SELECT ?", 7)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowCount)
	assert.Equal(t, []string{"SELECT ?"}, inner.queries)
	assert.Equal(t, []any{7}, inner.args[0])

	assert.Equal(t, "rec", ib.Name())
	assert.Equal(t, DialectSQLite, ib.Dialect())
	assert.Same(t, inner, ib.Unwrap())
	assert.NoError(t, ib.Ping(context.Background()))
}

func TestPreviewTruncates(t *testing.T) {
	long := make([]byte, 600)
	for i := range long {
		long[i] = 'x'
	}
	assert.Len(t, preview(string(long)), 503)
	assert.Equal(t, "SELECT 1", preview("SELECT 1"))
}

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
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/insight/pkg/fabric"
)

type fakeClickHouse struct {
	lastQuery  string
	lastParams map[string]string
	lastHeader http.Header
	status     int
	body       string
	zstd       bool
}

func (f *fakeClickHouse) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/ping" {
		_, _ = io.WriteString(w, "Ok.\n")
		return
	}
	raw, _ := io.ReadAll(r.Body)
	f.lastQuery = string(raw)
	f.lastHeader = r.Header.Clone()
	f.lastParams = map[string]string{}
	for k := range r.URL.Query() {
		f.lastParams[k] = r.URL.Query().Get(k)
	}

	w.Header().Set("X-ClickHouse-Summary", `{"read_rows":"2","read_bytes":"2048"}`)
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	if f.zstd {
		enc, _ := zstd.NewWriter(nil)
		payload := enc.EncodeAll([]byte(f.body), nil)
		_ = enc.Close()
		w.Header().Set("Content-Encoding", "zstd")
		w.WriteHeader(status)
		_, _ = w.Write(payload)
		return
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, f.body)
}

func newFakeClickHouse(t *testing.T, fake *fakeClickHouse, compression string) *ClickHouseBackend {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	b, err := NewClickHouseBackend(fabric.BackendConfig{
		Driver:       "clickhouse",
		DSN:          srv.URL,
		User:         "reader",
		Password:     "secret",
		Database:     "bi",
		Compression:  compression,
		QueryTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	return b
}

func TestClickHouseExecuteQuery(t *testing.T) {
	fake := &fakeClickHouse{body: "{\"branch\":\"north\",\"total\":1250.5}\n{\"branch\":\"south\",\"total\":90}\n"}
	b := newFakeClickHouse(t, fake, "")

	res, err := b.ExecuteQuery(context.Background(), "SELECT branch, sum(amount) AS total FROM sales WHERE sold_at >= {p1:Date} GROUP BY branch",
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 2, res.RowCount)
	assert.Equal(t, []string{"branch", "total"}, res.ColumnNames())
	assert.Equal(t, "north", res.Rows[0]["branch"])
	assert.Equal(t, json.Number("1250.5"), res.Rows[0]["total"])
	assert.Equal(t, int64(2048), res.ExecutionStats.BytesRead)

	assert.Contains(t, fake.lastQuery, "GROUP BY branch")
	assert.Equal(t, "2", fake.lastParams["readonly"])
	assert.Equal(t, "JSONEachRow", fake.lastParams["default_format"])
	assert.Equal(t, "bi", fake.lastParams["database"])
	assert.Equal(t, "2026-01-01", fake.lastParams["param_p1"])
	assert.Equal(t, "reader", fake.lastHeader.Get("X-ClickHouse-User"))
	assert.Equal(t, "secret", fake.lastHeader.Get("X-ClickHouse-Key"))
}

func TestClickHouseZstdResponse(t *testing.T) {
	fake := &fakeClickHouse{body: "{\"n\":1}\n", zstd: true}
	b := newFakeClickHouse(t, fake, "zstd")

	res, err := b.ExecuteQuery(context.Background(), "SELECT 1 AS n")
	require.NoError(t, err)
	require.Equal(t, 1, res.RowCount)
	assert.Equal(t, json.Number("1"), res.Rows[0]["n"])
	assert.Equal(t, "1", fake.lastParams["enable_http_compression"])
	assert.Equal(t, "zstd", fake.lastHeader.Get("Accept-Encoding"))
}

func TestClickHouseErrorBecomesQueryError(t *testing.T) {
	fake := &fakeClickHouse{
		status: http.StatusNotFound,
		body:   "Code: 60. DB::Exception: Table bi.nope does not exist. (UNKNOWN_TABLE)\n",
	}
	b := newFakeClickHouse(t, fake, "")

	_, err := b.GetSchema(context.Background(), "nope")
	var qe *fabric.QueryError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, "DESCRIBE TABLE `nope`", qe.Query)
	assert.Contains(t, qe.Error(), "UNKNOWN_TABLE")
}

func TestClickHouseGetSchemaAndList(t *testing.T) {
	fake := &fakeClickHouse{body: "{\"name\":\"id\",\"type\":\"UInt64\"}\n{\"name\":\"note\",\"type\":\"Nullable(String)\"}\n"}
	b := newFakeClickHouse(t, fake, "")

	schema, err := b.GetSchema(context.Background(), "sales")
	require.NoError(t, err)
	require.Len(t, schema.Fields, 2)
	assert.False(t, schema.Fields[0].Nullable)
	assert.True(t, schema.Fields[1].Nullable)

	fake.body = "{\"name\":\"daily_sales\",\"engine\":\"MaterializedView\"}\n{\"name\":\"sales\",\"engine\":\"MergeTree\"}\n"
	resources, err := b.ListResources(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []fabric.Resource{{Name: "daily_sales", Type: "view"}, {Name: "sales", Type: "table"}}, resources)
}

func TestClickHousePing(t *testing.T) {
	b := newFakeClickHouse(t, &fakeClickHouse{}, "")
	assert.NoError(t, b.Ping(context.Background()))
}

func TestClickHouseRejectsUnknownCompression(t *testing.T) {
	_, err := NewClickHouseBackend(fabric.BackendConfig{Driver: "clickhouse", Host: "localhost", Compression: "brotli"})
	assert.Error(t, err)
}

func TestDecodeJSONEachRowEmpty(t *testing.T) {
	res, err := decodeJSONEachRow(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.RowCount)
	assert.Empty(t, res.Columns)
}

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
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/teradata-labs/insight/pkg/fabric"
)

// ClickHouseBackend talks to the ClickHouse HTTP interface. Every query runs
// with readonly=2, which forbids writes but still lets the request carry the
// output format and compression settings.
type ClickHouseBackend struct {
	client   *resty.Client
	database string
	compress bool
	timeout  time.Duration
}

var _ fabric.ExecutionBackend = (*ClickHouseBackend)(nil)

// NewClickHouseBackend creates a backend from cfg. DSN, when set, is the base
// URL of the HTTP interface (e.g. https://ch.internal:8443).
func NewClickHouseBackend(cfg fabric.BackendConfig) (*ClickHouseBackend, error) {
	baseURL := cfg.DSN
	if baseURL == "" {
		scheme, port := "http", cfg.Port
		if cfg.Secure {
			scheme = "https"
		}
		if port == 0 {
			port = 8123
			if cfg.Secure {
				port = 8443
			}
		}
		baseURL = fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(cfg.Host, strconv.Itoa(port)))
	}

	var compress bool
	switch strings.ToLower(cfg.Compression) {
	case "", "none":
	case "zstd":
		compress = true
	default:
		return nil, fmt.Errorf("unsupported clickhouse compression %q", cfg.Compression)
	}

	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = fabric.DefaultQueryTimeout
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("User-Agent", "insight/1.0").
		SetTimeout(timeout).
		SetRetryCount(0)
	if cfg.User != "" {
		client.SetHeader("X-ClickHouse-User", cfg.User)
		client.SetHeader("X-ClickHouse-Key", cfg.Password)
	}

	return &ClickHouseBackend{
		client:   client,
		database: cfg.Database,
		compress: compress,
		timeout:  timeout,
	}, nil
}

func (b *ClickHouseBackend) Name() string {
	return "clickhouse"
}

func (b *ClickHouseBackend) Dialect() fabric.Dialect {
	return fabric.DialectClickHouse
}

// ExecuteQuery posts the query and decodes JSONEachRow output. Args bind to
// {p1:Type}, {p2:Type}, ... placeholders.
func (b *ClickHouseBackend) ExecuteQuery(ctx context.Context, query string, args ...any) (*fabric.QueryResult, error) {
	start := time.Now()

	params := map[string]string{
		"readonly":       "2",
		"default_format": "JSONEachRow",
	}
	params["output_format_json_quote_64bit_integers"] = "0"
	if b.database != "" {
		params["database"] = b.database
	}
	for i, arg := range args {
		params[fmt.Sprintf("param_p%d", i+1)] = fabric.FormatArg(arg)
	}

	req := b.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Content-Type", "text/plain; charset=utf-8").
		SetBody(query)
	if b.compress {
		params["enable_http_compression"] = "1"
		req.SetHeader("Accept-Encoding", "zstd")
	}
	req.SetQueryParams(params)

	resp, err := req.Post("/")
	if err != nil {
		return nil, fabric.NewQueryError(query, err)
	}
	body, err := b.readBody(resp)
	if err != nil {
		return nil, fabric.NewQueryError(query, err)
	}
	if resp.IsError() {
		return nil, fabric.NewQueryError(query, fmt.Errorf("clickhouse (status %d): %s", resp.StatusCode(), strings.TrimSpace(string(body))))
	}

	result, err := decodeJSONEachRow(body)
	if err != nil {
		return nil, fabric.NewQueryError(query, err)
	}
	result.ExecutionStats.DurationMs = time.Since(start).Milliseconds()
	result.ExecutionStats.BytesRead = readBytes(resp.Header().Get("X-ClickHouse-Summary"))
	return result, nil
}

func (b *ClickHouseBackend) readBody(resp *resty.Response) ([]byte, error) {
	raw := resp.RawBody()
	if raw == nil {
		return nil, errors.New("clickhouse: empty response")
	}
	defer func() { _ = raw.Close() }()

	var r io.Reader = raw
	if strings.EqualFold(resp.Header().Get("Content-Encoding"), "zstd") {
		dec, err := zstd.NewReader(raw)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer dec.Close()
		r = dec
	}
	return io.ReadAll(r)
}

// decodeJSONEachRow parses newline-delimited JSON objects. Column order is
// taken from the key order of the first row.
func decodeJSONEachRow(body []byte) (*fabric.QueryResult, error) {
	result := &fabric.QueryResult{Rows: make([]map[string]any, 0)}
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if result.Columns == nil {
			keys, err := objectKeys(line)
			if err != nil {
				return nil, err
			}
			result.Columns = make([]fabric.Column, len(keys))
			for i, k := range keys {
				result.Columns[i] = fabric.Column{Name: k}
			}
		}

		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		row := make(map[string]any)
		if err := dec.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	result.RowCount = len(result.Rows)
	return result, nil
}

func objectKeys(line []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode row: %w", err)
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("decode row: unexpected token %v", tok)
		}
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
	}
	return keys, nil
}

func readBytes(summary string) int64 {
	if summary == "" {
		return 0
	}
	var s struct {
		ReadBytes string `json:"read_bytes"`
	}
	if err := json.Unmarshal([]byte(summary), &s); err != nil {
		return 0
	}
	n, _ := strconv.ParseInt(s.ReadBytes, 10, 64)
	return n
}

// GetSchema runs DESCRIBE TABLE; ClickHouse itself reports unknown tables.
func (b *ClickHouseBackend) GetSchema(ctx context.Context, table string) (*fabric.Schema, error) {
	quoted, err := fabric.DialectClickHouse.QuoteIdent(table)
	if err != nil {
		return nil, err
	}
	result, err := b.ExecuteQuery(ctx, "DESCRIBE TABLE "+quoted)
	if err != nil {
		return nil, err
	}
	fields := make([]fabric.Column, 0, result.RowCount)
	for _, row := range result.Rows {
		typ := fmt.Sprint(row["type"])
		fields = append(fields, fabric.Column{
			Name:     fmt.Sprint(row["name"]),
			Type:     typ,
			Nullable: strings.HasPrefix(typ, "Nullable("),
		})
	}
	return &fabric.Schema{Name: table, Fields: fields}, nil
}

func (b *ClickHouseBackend) ListResources(ctx context.Context) ([]fabric.Resource, error) {
	result, err := b.ExecuteQuery(ctx, "SELECT name, engine FROM system.tables WHERE database = currentDatabase() ORDER BY name")
	if err != nil {
		return nil, err
	}
	resources := make([]fabric.Resource, 0, result.RowCount)
	for _, row := range result.Rows {
		typ := "table"
		if engine := fmt.Sprint(row["engine"]); strings.HasSuffix(engine, "View") {
			typ = "view"
		}
		resources = append(resources, fabric.Resource{Name: fmt.Sprint(row["name"]), Type: typ})
	}
	return resources, nil
}

func (b *ClickHouseBackend) Ping(ctx context.Context) error {
	resp, err := b.client.R().SetContext(ctx).Get("/ping")
	if err != nil {
		return fmt.Errorf("clickhouse ping: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("clickhouse ping: status %d", resp.StatusCode())
	}
	return nil
}

func (b *ClickHouseBackend) Close() error {
	return nil
}

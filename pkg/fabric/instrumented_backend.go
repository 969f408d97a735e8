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
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/insight/pkg/observability"
)

// InstrumentedBackend wraps any ExecutionBackend with metrics and debug logs.
type InstrumentedBackend struct {
	backend ExecutionBackend
	logger  *zap.Logger
}

// NewInstrumentedBackend wraps backend. A nil logger disables logging.
func NewInstrumentedBackend(backend ExecutionBackend, logger *zap.Logger) *InstrumentedBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedBackend{
		backend: backend,
		logger:  logger.With(zap.String("backend", backend.Name())),
	}
}

// Unwrap returns the wrapped backend.
func (ib *InstrumentedBackend) Unwrap() ExecutionBackend {
	return ib.backend
}

func (ib *InstrumentedBackend) Name() string {
	return ib.backend.Name()
}

func (ib *InstrumentedBackend) Dialect() Dialect {
	return ib.backend.Dialect()
}

func (ib *InstrumentedBackend) ExecuteQuery(ctx context.Context, query string, args ...any) (*QueryResult, error) {
	start := time.Now()
	result, err := ib.backend.ExecuteQuery(ctx, query, args...)
	elapsed := time.Since(start)
	observability.RecordWarehouseQuery(ib.backend.Name(), "query", elapsed, err)

	if err != nil {
		ib.logger.Debug("warehouse query failed",
			zap.String("query", preview(query)),
			zap.Duration("duration", elapsed),
			zap.Error(err))
		return nil, err
	}
	ib.logger.Debug("warehouse query",
		zap.String("query", preview(query)),
		zap.Int("rows", result.RowCount),
		zap.Duration("duration", elapsed))
	return result, nil
}

func (ib *InstrumentedBackend) GetSchema(ctx context.Context, table string) (*Schema, error) {
	start := time.Now()
	schema, err := ib.backend.GetSchema(ctx, table)
	observability.RecordWarehouseQuery(ib.backend.Name(), "describe", time.Since(start), err)
	return schema, err
}

func (ib *InstrumentedBackend) ListResources(ctx context.Context) ([]Resource, error) {
	start := time.Now()
	resources, err := ib.backend.ListResources(ctx)
	observability.RecordWarehouseQuery(ib.backend.Name(), "list", time.Since(start), err)
	return resources, err
}

func (ib *InstrumentedBackend) Ping(ctx context.Context) error {
	start := time.Now()
	err := ib.backend.Ping(ctx)
	observability.RecordWarehouseQuery(ib.backend.Name(), "ping", time.Since(start), err)
	return err
}

func (ib *InstrumentedBackend) Close() error {
	return ib.backend.Close()
}

func preview(query string) string {
	if len(query) > 500 {
		return query[:500] + "..."
	}
	return query
}

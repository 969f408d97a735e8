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
package reports

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/insight/pkg/fabric"
)

// Report is the result of one report run.
type Report struct {
	Kind     Kind             `json:"report"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"rowCount"`
}

// Service runs reports against a warehouse.
type Service struct {
	backend fabric.ExecutionBackend
	catalog *Catalog
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCatalog replaces the default catalog.
func WithCatalog(c *Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the clock used for default date ranges.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a Service.
func NewService(backend fabric.ExecutionBackend, opts ...Option) *Service {
	s := &Service{
		backend: backend,
		catalog: DefaultCatalog(),
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run normalizes p, builds the query for kind and executes it. Parameter
// problems wrap ErrInvalidParams; unknown kinds wrap ErrUnknownReport;
// warehouse failures are returned as *fabric.QueryError.
func (s *Service) Run(ctx context.Context, kind Kind, p Params) (*Report, error) {
	if _, ok := builders[kind]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReport, kind)
	}
	if err := p.Normalize(s.now()); err != nil {
		return nil, err
	}
	q, err := Build(kind, s.catalog, s.backend.Dialect(), p)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("running report",
		zap.String("report", string(kind)),
		zap.String("sql", q.SQL),
		zap.Int("args", len(q.Args)))

	result, err := s.backend.ExecuteQuery(ctx, q.SQL, q.Args...)
	if err != nil {
		s.logger.Warn("report query failed", zap.String("report", string(kind)), zap.Error(err))
		return nil, err
	}
	rows := result.Rows
	if rows == nil {
		rows = []map[string]any{}
	}
	return &Report{Kind: kind, Rows: rows, RowCount: len(rows)}, nil
}

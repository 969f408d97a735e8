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
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teradata-labs/insight/internal/sqlitedriver"
	"github.com/teradata-labs/insight/pkg/fabric"
	"github.com/teradata-labs/insight/pkg/fabric/factory"
)

const warehouseSeed = `
CREATE TABLE sales (sale_date TEXT, branch TEXT, product TEXT, quantity INTEGER, amount REAL);
INSERT INTO sales VALUES
	('2026-09-01', 'north', 'widget', 2, 20.0),
	('2026-09-15', 'north', 'gadget', 1, 40.0),
	('2026-09-30 14:30:00', 'south', 'widget', 3, 30.0),
	('2026-10-02', 'south', 'widget', 1, 10.0);

CREATE TABLE purchases (purchase_date TEXT, branch TEXT, supplier TEXT, quantity INTEGER, amount REAL);
INSERT INTO purchases VALUES
	('2026-09-10', 'north', 'acme', 10, 500.0),
	('2026-09-11', 'south', 'acme', 5, 250.0),
	('2026-09-12', 'north', 'globex', 1, 900.0);

CREATE TABLE inventory (branch TEXT, product TEXT, quantity_on_hand INTEGER, reorder_level INTEGER);
INSERT INTO inventory VALUES
	('north', 'widget', 5, 10),
	('south', 'widget', 50, 10),
	('north', 'gadget', 0, 3);

CREATE TABLE ledger_entries (entry_date TEXT, branch TEXT, account TEXT, debit REAL, credit REAL);
INSERT INTO ledger_entries VALUES
	('2026-09-03', 'north', 'cash', 100.0, 0.0),
	('2026-09-04', 'north', 'cash', 0.0, 40.0),
	('2026-09-05', 'north', 'revenue', 0.0, 100.0);
`

func testService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "warehouse.db")
	db, err := sqlitedriver.Open(dsn, "")
	require.NoError(t, err)
	_, err = db.Exec(warehouseSeed)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	backend, err := factory.NewBackend(fabric.BackendConfig{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	clock := func() time.Time { return time.Date(2026, 9, 30, 18, 0, 0, 0, time.UTC) }
	base := []Option{WithLogger(zaptest.NewLogger(t)), WithClock(clock)}
	return NewService(backend, append(base, opts...)...)
}

func num(t *testing.T, v any) float64 {
	t.Helper()
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	default:
		t.Fatalf("not a number: %T %v", v, v)
		return 0
	}
}

func TestSalesSummary(t *testing.T) {
	svc := testService(t)

	rep, err := svc.Run(context.Background(), KindSalesSummary, septemberParams())
	require.NoError(t, err)
	require.Equal(t, 1, rep.RowCount)
	row := rep.Rows[0]
	assert.Equal(t, 3.0, num(t, row["orders"]), "last-day timestamp is included, October is not")
	assert.Equal(t, 6.0, num(t, row["units"]))
	assert.InDelta(t, 90.0, num(t, row["revenue"]), 0.001)

	p := septemberParams()
	p.Branch = "north"
	rep, err = svc.Run(context.Background(), KindSalesSummary, p)
	require.NoError(t, err)
	assert.InDelta(t, 60.0, num(t, rep.Rows[0]["revenue"]), 0.001)
}

func TestSalesSummaryDefaultRange(t *testing.T) {
	svc := testService(t)

	rep, err := svc.Run(context.Background(), KindSalesSummary, Params{})
	require.NoError(t, err)
	assert.Equal(t, 3.0, num(t, rep.Rows[0]["orders"]))
}

func TestSalesByPeriod(t *testing.T) {
	svc := testService(t)

	rep, err := svc.Run(context.Background(), KindSalesByPeriod, septemberParams())
	require.NoError(t, err)
	require.Equal(t, 1, rep.RowCount)
	assert.Equal(t, "2026-09-01", rep.Rows[0]["period"])

	p := septemberParams()
	p.Granularity = fabric.GranularityDay
	rep, err = svc.Run(context.Background(), KindSalesByPeriod, p)
	require.NoError(t, err)
	require.Equal(t, 3, rep.RowCount)
	assert.Equal(t, "2026-09-01", rep.Rows[0]["period"])
	assert.Equal(t, "2026-09-30", rep.Rows[2]["period"])
}

func TestTopProducts(t *testing.T) {
	svc := testService(t)

	rep, err := svc.Run(context.Background(), KindTopProducts, septemberParams())
	require.NoError(t, err)
	require.Equal(t, 2, rep.RowCount)
	assert.Equal(t, "widget", rep.Rows[0]["product"])
	assert.InDelta(t, 50.0, num(t, rep.Rows[0]["revenue"]), 0.001)

	p := septemberParams()
	p.Limit = 1
	rep, err = svc.Run(context.Background(), KindTopProducts, p)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.RowCount)
}

func TestPurchasingSummary(t *testing.T) {
	svc := testService(t)

	rep, err := svc.Run(context.Background(), KindPurchasingSummary, septemberParams())
	require.NoError(t, err)
	require.Equal(t, 2, rep.RowCount)
	assert.Equal(t, "globex", rep.Rows[0]["supplier"])
	assert.Equal(t, "acme", rep.Rows[1]["supplier"])
	assert.InDelta(t, 750.0, num(t, rep.Rows[1]["spend"]), 0.001)
}

func TestInventoryLevels(t *testing.T) {
	svc := testService(t)

	p := septemberParams()
	p.Branch = "north"
	rep, err := svc.Run(context.Background(), KindInventoryLevels, p)
	require.NoError(t, err)
	require.Equal(t, 2, rep.RowCount)
	assert.Equal(t, "gadget", rep.Rows[0]["product"])
	assert.Equal(t, 1.0, num(t, rep.Rows[0]["below_reorder"]))
	assert.Equal(t, 1.0, num(t, rep.Rows[1]["below_reorder"]))
}

func TestAccountingLedger(t *testing.T) {
	svc := testService(t)

	rep, err := svc.Run(context.Background(), KindAccountingLedger, septemberParams())
	require.NoError(t, err)
	require.Equal(t, 2, rep.RowCount)
	assert.Equal(t, "cash", rep.Rows[0]["account"])
	assert.InDelta(t, 60.0, num(t, rep.Rows[0]["balance"]), 0.001)
	assert.InDelta(t, -100.0, num(t, rep.Rows[1]["balance"]), 0.001)
}

func TestRunErrors(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	_, err := svc.Run(ctx, "forecast", Params{})
	assert.ErrorIs(t, err, ErrUnknownReport)

	p := septemberParams()
	p.From, p.To = p.To, p.From
	_, err = svc.Run(ctx, KindSalesSummary, p)
	assert.ErrorIs(t, err, ErrInvalidParams)

	cat := DefaultCatalog()
	cat.Ledger.Table = "general_ledger"
	svc = testService(t, WithCatalog(cat))
	_, err = svc.Run(ctx, KindAccountingLedger, septemberParams())
	var qerr *fabric.QueryError
	require.True(t, errors.As(err, &qerr))
	assert.Contains(t, qerr.Query, "general_ledger")
}

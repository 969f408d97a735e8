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

// Package reports builds the parameterized analytical queries behind the
// dashboard's fixed reports and runs them against the warehouse.
package reports

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/teradata-labs/insight/pkg/fabric"
)

// Kind names a report.
type Kind string

const (
	KindSalesSummary      Kind = "sales-summary"
	KindSalesByPeriod     Kind = "sales-by-period"
	KindTopProducts       Kind = "top-products"
	KindPurchasingSummary Kind = "purchasing-summary"
	KindInventoryLevels   Kind = "inventory-levels"
	KindAccountingLedger  Kind = "accounting-ledger"
)

// ErrUnknownReport is returned for kinds without a builder.
var ErrUnknownReport = errors.New("unknown report")

// Query is a statement with its bound arguments, ready for
// fabric.ExecutionBackend.ExecuteQuery.
type Query struct {
	SQL  string
	Args []any
}

type builder func(q *queryBuilder, c *Catalog, p Params) error

var builders = map[Kind]builder{
	KindSalesSummary:      buildSalesSummary,
	KindSalesByPeriod:     buildSalesByPeriod,
	KindTopProducts:       buildTopProducts,
	KindPurchasingSummary: buildPurchasingSummary,
	KindInventoryLevels:   buildInventoryLevels,
	KindAccountingLedger:  buildAccountingLedger,
}

// Kinds lists the available reports in name order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(builders))
	for k := range builders {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Build assembles the query for kind. p must already be normalized.
func Build(kind Kind, catalog *Catalog, dialect fabric.Dialect, p Params) (Query, error) {
	build, ok := builders[kind]
	if !ok {
		return Query{}, fmt.Errorf("%w: %s", ErrUnknownReport, kind)
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	qb := &queryBuilder{dialect: dialect}
	if err := build(qb, catalog, p); err != nil {
		return Query{}, err
	}
	return qb.query(), nil
}

func buildSalesSummary(q *queryBuilder, c *Catalog, p Params) error {
	s := c.Sales
	q.selectf("COUNT(*) AS orders")
	q.selectf("SUM(%s) AS units", q.ident(s.Quantity))
	q.selectf("SUM(%s) AS revenue", q.ident(s.Amount))
	q.selectf("AVG(%s) AS average_sale", q.ident(s.Amount))
	q.from(s.Table)
	q.dateRange(s.Date, p)
	q.branch(s.Branch, p)
	return q.err
}

func buildSalesByPeriod(q *queryBuilder, c *Catalog, p Params) error {
	s := c.Sales
	q.selectf("%s AS period", q.dialect.DateTrunc(p.Granularity, q.ident(s.Date)))
	q.selectf("COUNT(*) AS orders")
	q.selectf("SUM(%s) AS units", q.ident(s.Quantity))
	q.selectf("SUM(%s) AS revenue", q.ident(s.Amount))
	q.from(s.Table)
	q.dateRange(s.Date, p)
	q.branch(s.Branch, p)
	q.tail("GROUP BY period ORDER BY period")
	return q.err
}

func buildTopProducts(q *queryBuilder, c *Catalog, p Params) error {
	s := c.Sales
	product := q.ident(s.Product)
	q.selectf("%s AS product", product)
	q.selectf("SUM(%s) AS units", q.ident(s.Quantity))
	q.selectf("SUM(%s) AS revenue", q.ident(s.Amount))
	q.from(s.Table)
	q.dateRange(s.Date, p)
	q.branch(s.Branch, p)
	q.tail(fmt.Sprintf("GROUP BY %s ORDER BY revenue DESC LIMIT %d", product, p.Limit))
	return q.err
}

func buildPurchasingSummary(q *queryBuilder, c *Catalog, p Params) error {
	s := c.Purchases
	supplier := q.ident(s.Supplier)
	q.selectf("%s AS supplier", supplier)
	q.selectf("COUNT(*) AS orders")
	q.selectf("SUM(%s) AS units", q.ident(s.Quantity))
	q.selectf("SUM(%s) AS spend", q.ident(s.Amount))
	q.from(s.Table)
	q.dateRange(s.Date, p)
	q.branch(s.Branch, p)
	q.tail(fmt.Sprintf("GROUP BY %s ORDER BY spend DESC LIMIT %d", supplier, p.Limit))
	return q.err
}

// buildInventoryLevels reports current stock, lowest first. It is a
// snapshot, so the date range does not apply.
func buildInventoryLevels(q *queryBuilder, c *Catalog, p Params) error {
	s := c.Inventory
	onHand, reorder := q.ident(s.OnHand), q.ident(s.ReorderLevel)
	q.selectf("%s AS branch", q.ident(s.Branch))
	q.selectf("%s AS product", q.ident(s.Product))
	q.selectf("%s AS on_hand", onHand)
	q.selectf("%s AS reorder_level", reorder)
	q.selectf("CASE WHEN %s <= %s THEN 1 ELSE 0 END AS below_reorder", onHand, reorder)
	q.from(s.Table)
	q.branch(s.Branch, p)
	q.tail(fmt.Sprintf("ORDER BY %s ASC LIMIT %d", onHand, p.Limit))
	return q.err
}

func buildAccountingLedger(q *queryBuilder, c *Catalog, p Params) error {
	s := c.Ledger
	account, debit, credit := q.ident(s.Account), q.ident(s.Debit), q.ident(s.Credit)
	q.selectf("%s AS account", account)
	q.selectf("SUM(%s) AS debit", debit)
	q.selectf("SUM(%s) AS credit", credit)
	q.selectf("SUM(%s) - SUM(%s) AS balance", debit, credit)
	q.from(s.Table)
	q.dateRange(s.Date, p)
	q.branch(s.Branch, p)
	q.tail(fmt.Sprintf("GROUP BY %s ORDER BY %s LIMIT %d", account, account, p.Limit))
	return q.err
}

// queryBuilder accumulates one SELECT. The first invalid identifier is kept
// in err and every later step is a no-op.
type queryBuilder struct {
	dialect fabric.Dialect
	columns []string
	table   string
	where   []string
	suffix  string
	args    []any
	err     error
}

func (q *queryBuilder) ident(name string) string {
	if q.err != nil {
		return ""
	}
	quoted, err := q.dialect.QuoteIdent(name)
	if err != nil {
		q.err = fmt.Errorf("report catalog: %w", err)
		return ""
	}
	return quoted
}

func (q *queryBuilder) selectf(format string, a ...any) {
	q.columns = append(q.columns, fmt.Sprintf(format, a...))
}

func (q *queryBuilder) from(table string) {
	q.table = q.ident(table)
}

func (q *queryBuilder) tail(s string) {
	q.suffix = s
}

// bind appends v and returns its placeholder.
func (q *queryBuilder) bind(v any) string {
	q.args = append(q.args, v)
	return q.dialect.Placeholder(len(q.args), v)
}

// dateArg converts a date for binding. SQLite stores dates as ISO text, so
// it gets the text form.
func (q *queryBuilder) dateArg(t time.Time) any {
	if q.dialect == fabric.DialectSQLite {
		return t.Format(time.DateOnly)
	}
	return t
}

// dateRange filters column to [From, To] using a half-open upper bound so
// timestamps on the last day are included.
func (q *queryBuilder) dateRange(column string, p Params) {
	col := q.ident(column)
	q.where = append(q.where,
		fmt.Sprintf("%s >= %s", col, q.bind(q.dateArg(p.From))),
		fmt.Sprintf("%s < %s", col, q.bind(q.dateArg(p.To.AddDate(0, 0, 1)))))
}

func (q *queryBuilder) branch(column string, p Params) {
	if p.Branch == "" {
		return
	}
	q.where = append(q.where, fmt.Sprintf("%s = %s", q.ident(column), q.bind(p.Branch)))
}

func (q *queryBuilder) query() Query {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(q.columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(q.table)
	if len(q.where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(q.where, " AND "))
	}
	if q.suffix != "" {
		b.WriteString(" ")
		b.WriteString(q.suffix)
	}
	return Query{SQL: b.String(), Args: q.args}
}

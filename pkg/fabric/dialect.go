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
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Dialect identifies the SQL flavor spoken by a backend.
type Dialect string

const (
	DialectClickHouse Dialect = "clickhouse"
	DialectPostgres   Dialect = "postgres"
	DialectMySQL      Dialect = "mysql"
	DialectSQLite     Dialect = "sqlite"
)

// Granularity is a time bucket size for period reports.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// ParseGranularity parses a granularity name. Empty means month.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return GranularityMonth, nil
	case GranularityDay, GranularityWeek, GranularityMonth:
		return g, nil
	default:
		return "", fmt.Errorf("unknown granularity %q (want day, week or month)", s)
	}
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*(\.[A-Za-z_][A-Za-z0-9_$]*)?$`)

// QuoteIdent quotes a possibly schema-qualified identifier for the dialect.
// Names outside [A-Za-z0-9_$.] are refused rather than escaped.
func (d Dialect) QuoteIdent(name string) (string, error) {
	name = strings.TrimSpace(name)
	if !identPattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	q := `"`
	if d == DialectClickHouse || d == DialectMySQL {
		q = "`"
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = q + p + q
	}
	return strings.Join(parts, "."), nil
}

// Placeholder returns the bind marker for the n-th (1-based) argument.
// ClickHouse uses typed query parameters named p1, p2, ...
func (d Dialect) Placeholder(n int, value any) string {
	switch d {
	case DialectPostgres:
		return fmt.Sprintf("$%d", n)
	case DialectClickHouse:
		return fmt.Sprintf("{p%d:%s}", n, clickHouseType(value))
	default:
		return "?"
	}
}

// DateTrunc truncates a date/time expression to the start of its bucket.
func (d Dialect) DateTrunc(g Granularity, expr string) string {
	switch d {
	case DialectClickHouse:
		switch g {
		case GranularityDay:
			return fmt.Sprintf("toStartOfDay(%s)", expr)
		case GranularityWeek:
			return fmt.Sprintf("toMonday(%s)", expr)
		default:
			return fmt.Sprintf("toStartOfMonth(%s)", expr)
		}
	case DialectPostgres:
		return fmt.Sprintf("date_trunc('%s', %s)", g, expr)
	case DialectMySQL:
		switch g {
		case GranularityDay:
			return fmt.Sprintf("DATE(%s)", expr)
		case GranularityWeek:
			return fmt.Sprintf("DATE_SUB(DATE(%s), INTERVAL WEEKDAY(%s) DAY)", expr, expr)
		default:
			return fmt.Sprintf("DATE_FORMAT(%s, '%%Y-%%m-01')", expr)
		}
	default:
		switch g {
		case GranularityDay:
			return fmt.Sprintf("date(%s)", expr)
		case GranularityWeek:
			return fmt.Sprintf("date(%s, 'weekday 0', '-6 days')", expr)
		default:
			return fmt.Sprintf("strftime('%%Y-%%m-01', %s)", expr)
		}
	}
}

func clickHouseType(v any) string {
	switch v.(type) {
	case int, int32, int64:
		return "Int64"
	case uint, uint32, uint64:
		return "UInt64"
	case float32, float64:
		return "Float64"
	case bool:
		return "Bool"
	case time.Time:
		return "Date"
	default:
		return "String"
	}
}

// FormatArg renders a bound argument in the text form ClickHouse expects for
// query parameters.
func FormatArg(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format(time.DateOnly)
	case nil:
		return "\\N"
	default:
		return fmt.Sprint(t)
	}
}

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
package sqlguard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/insight/pkg/fabric"
)

var allDialects = []fabric.Dialect{
	fabric.DialectClickHouse,
	fabric.DialectPostgres,
	fabric.DialectMySQL,
	fabric.DialectSQLite,
}

func TestParseAccepts(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "SELECT 1", "SELECT 1"},
		{"lowercase", "select * from sales", "select * from sales"},
		{"mixed case and whitespace", "\n\t  SeLeCt branch FROM sales  \n", "SeLeCt branch FROM sales"},
		{"star right after keyword", "SELECT* FROM sales", "SELECT* FROM sales"},
		{"trailing semicolon", "SELECT 1;", "SELECT 1"},
		{"semicolon then comment", "SELECT 1; -- done", "SELECT 1"},
		{"semicolon then block comment", "SELECT 1; /* done */", "SELECT 1"},
		{"semicolon in string", "SELECT ';DROP TABLE x' AS s", "SELECT ';DROP TABLE x' AS s"},
		{"semicolon in identifier", "SELECT \"a;b\" FROM t", "SELECT \"a;b\" FROM t"},
		{"escaped quote", "SELECT 'it''s; fine'", "SELECT 'it''s; fine'"},
		{"semicolon in comment", "SELECT 1 /* ; */ FROM t", "SELECT 1 /* ; */ FROM t"},
		{"newline after keyword", "SELECT\ncount(*) FROM t", "SELECT\ncount(*) FROM t"},
	}
	for _, d := range allDialects {
		for _, tt := range tests {
			t.Run(string(d)+"/"+tt.name, func(t *testing.T) {
				stmt, err := Parse(tt.in, d)
				require.NoError(t, err)
				assert.Equal(t, tt.want, stmt.String())
			})
		}
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
		err  error
	}{
		{"empty", "", ErrEmpty},
		{"blank", "   \n\t", ErrEmpty},
		{"insert", "INSERT INTO t VALUES (1)", ErrNotSelect},
		{"update", "update t set a = 1", ErrNotSelect},
		{"delete", "DELETE FROM t", ErrNotSelect},
		{"drop", "DROP TABLE sales", ErrNotSelect},
		{"truncate", "TRUNCATE sales", ErrNotSelect},
		{"cte", "WITH x AS (SELECT 1) SELECT * FROM x", ErrNotSelect},
		{"leading comment", "/* hi */ SELECT 1", ErrNotSelect},
		{"leading paren", "(SELECT 1)", ErrNotSelect},
		{"longer word", "SELECTED 1", ErrNotSelect},
		{"digit suffix", "SELECT1 FROM t", ErrNotSelect},
		{"underscore suffix", "SELECT_x FROM t", ErrNotSelect},
		{"stacked", "SELECT 1; DROP TABLE sales", ErrMultipleStatements},
		{"stacked no space", "SELECT 1;DELETE FROM t", ErrMultipleStatements},
		{"two semicolons", "SELECT 1;;", ErrMultipleStatements},
		{"unterminated string", "SELECT 'abc", ErrUnterminated},
		{"unterminated identifier", `SELECT "abc`, ErrUnterminated},
		{"unterminated comment", "SELECT 1 /* x", ErrUnterminated},
	}
	for _, d := range allDialects {
		for _, tt := range tests {
			t.Run(string(d)+"/"+tt.name, func(t *testing.T) {
				_, err := Parse(tt.in, d)
				assert.ErrorIs(t, err, tt.err)
			})
		}
	}
}

// Each case is a single statement in some dialects and several in others.
// The guard must read it the way the target warehouse does.
func TestParseFollowsDialectLexing(t *testing.T) {
	const (
		ok    = "ok"
		multi = "multi"
	)
	tests := []struct {
		name string
		in   string
		want map[fabric.Dialect]string
	}{
		{
			name: "backslash before quote",
			in:   `SELECT 'a\'; DELETE FROM sales; --'`,
			want: map[fabric.Dialect]string{
				fabric.DialectPostgres:   multi,
				fabric.DialectSQLite:     multi,
				fabric.DialectMySQL:      ok,
				fabric.DialectClickHouse: ok,
			},
		},
		{
			name: "dollar quoted string",
			in:   `SELECT $$'$$; COMMIT; DELETE FROM sales; --'`,
			want: map[fabric.Dialect]string{
				fabric.DialectPostgres:   multi,
				fabric.DialectSQLite:     ok,
				fabric.DialectMySQL:      ok,
				fabric.DialectClickHouse: ok,
			},
		},
		{
			name: "postgres escape string",
			in:   `SELECT E'a\'; DELETE FROM sales; --'`,
			want: map[fabric.Dialect]string{
				fabric.DialectPostgres: ok,
				fabric.DialectSQLite:   multi,
			},
		},
		{
			name: "tagged dollar quote",
			in:   `SELECT $q$ it's; $q$ AS body`,
			want: map[fabric.Dialect]string{
				fabric.DialectPostgres: ok,
			},
		},
		{
			name: "hash comment",
			in:   "SELECT 1 # '\n; DELETE FROM sales; -- '",
			want: map[fabric.Dialect]string{
				fabric.DialectMySQL:      multi,
				fabric.DialectClickHouse: multi,
				fabric.DialectPostgres:   ok,
				fabric.DialectSQLite:     ok,
			},
		},
		{
			name: "double dash without space",
			in:   "SELECT 1 --'x'; DELETE FROM sales",
			want: map[fabric.Dialect]string{
				fabric.DialectMySQL:    multi,
				fabric.DialectPostgres: ok,
			},
		},
		{
			name: "mysql executable comment",
			in:   "SELECT 1 /*!; DELETE FROM sales */",
			want: map[fabric.Dialect]string{
				fabric.DialectMySQL:    multi,
				fabric.DialectPostgres: ok,
			},
		},
		{
			name: "sqlite bracket identifier",
			in:   "SELECT [x'] ; DELETE FROM sales; --']",
			want: map[fabric.Dialect]string{
				fabric.DialectSQLite:   multi,
				fabric.DialectPostgres: ok,
			},
		},
		{
			name: "backticks",
			in:   "SELECT `a;b` FROM t",
			want: map[fabric.Dialect]string{
				fabric.DialectMySQL:      ok,
				fabric.DialectClickHouse: ok,
				fabric.DialectSQLite:     ok,
				fabric.DialectPostgres:   multi,
			},
		},
	}
	for _, tt := range tests {
		for d, want := range tt.want {
			t.Run(tt.name+"/"+string(d), func(t *testing.T) {
				_, err := Parse(tt.in, d)
				if want == ok {
					assert.NoError(t, err)
				} else {
					assert.ErrorIs(t, err, ErrMultipleStatements)
				}
			})
		}
	}
}

func TestParsePositionalParameterIsNotDollarQuote(t *testing.T) {
	stmt, err := Parse("SELECT * FROM sales WHERE id = $1", fabric.DialectPostgres)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM sales WHERE id = $1", stmt.String())

	_, err = Parse("SELECT $tag$ never closed", fabric.DialectPostgres)
	assert.ErrorIs(t, err, ErrUnterminated)
}

func TestParseRejectsEveryNonSelectKeyword(t *testing.T) {
	keywords := []string{"INSERT", "UPDATE", "DELETE", "DROP", "ALTER", "CREATE", "GRANT", "REVOKE",
		"ATTACH", "DETACH", "OPTIMIZE", "RENAME", "SYSTEM", "KILL", "SET", "USE", "EXPLAIN", "SHOW"}
	for _, kw := range keywords {
		for _, form := range []string{kw, strings.ToLower(kw), "  " + kw} {
			_, err := Parse(form+" something", fabric.DialectClickHouse)
			assert.ErrorIs(t, err, ErrNotSelect, form)
		}
	}
}

func TestNotSelectMessageNamesKeyword(t *testing.T) {
	_, err := Parse("drop table x", fabric.DialectPostgres)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DROP")
}

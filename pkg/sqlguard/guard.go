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

// Package sqlguard decides whether model-written SQL may reach the warehouse.
//
// A statement is accepted only when its first token is SELECT and the text
// holds a single statement. Quotes and comments are lexed the way the target
// dialect reads them, so a semicolon hidden from one dialect is not hidden
// from the guard. The check is lexical; deployments should also connect with
// a read-only credential.
package sqlguard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/teradata-labs/insight/pkg/fabric"
)

var (
	// ErrEmpty is returned for blank input.
	ErrEmpty = errors.New("empty SQL statement")

	// ErrNotSelect is returned when the leading keyword is not SELECT.
	ErrNotSelect = errors.New("only SELECT statements are allowed")

	// ErrMultipleStatements is returned when more than one statement is present.
	ErrMultipleStatements = errors.New("only a single statement is allowed")

	// ErrUnterminated is returned for unclosed quotes or block comments.
	ErrUnterminated = errors.New("unterminated string, identifier or comment")
)

// Statement is SQL that passed the guard.
type Statement struct {
	sql string
}

// String returns the statement text, trimmed, without a trailing semicolon.
func (s Statement) String() string {
	return s.sql
}

// Parse validates raw for the given dialect and returns it as a Statement.
func Parse(raw string, dialect fabric.Dialect) (Statement, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Statement{}, ErrEmpty
	}

	if kw := firstKeyword(text); !strings.EqualFold(kw, "SELECT") {
		if kw == "" {
			return Statement{}, ErrNotSelect
		}
		return Statement{}, fmt.Errorf("%w (got %s)", ErrNotSelect, strings.ToUpper(kw))
	}

	body, err := newLexer(text, dialect).singleStatement()
	if err != nil {
		return Statement{}, err
	}
	return Statement{sql: body}, nil
}

// firstKeyword returns the leading identifier token. Leading comments are not
// skipped, so "/* x */ DELETE ..." is rejected outright.
func firstKeyword(text string) string {
	end := strings.IndexFunc(text, func(r rune) bool { return r > 0x7f || !isIdentByte(byte(r)) })
	if end < 0 {
		return text
	}
	return text[:end]
}

// rules are the lexical differences between dialects that decide where a
// string, identifier or comment ends.
type rules struct {
	backslashQuotes string // quote characters whose contents honor \ escapes
	backtick        bool   // `ident`
	brackets        bool   // [ident]
	escapeStrings   bool   // E'...' with \ escapes
	dollarQuotes    bool   // $tag$...$tag$
	hashComment     bool   // # to end of line
	hashNeedsSpace  bool   // only "# " and "#!" start a comment
	dashNeedsSpace  bool   // "--" starts a comment only before whitespace
	execComments    bool   // /*! ... */ is executed, not skipped
}

func rulesFor(d fabric.Dialect) rules {
	switch d {
	case fabric.DialectMySQL:
		return rules{backslashQuotes: `'"`, backtick: true, hashComment: true, dashNeedsSpace: true, execComments: true}
	case fabric.DialectClickHouse:
		return rules{backslashQuotes: "'\"`", backtick: true, hashComment: true, hashNeedsSpace: true}
	case fabric.DialectPostgres:
		return rules{escapeStrings: true, dollarQuotes: true}
	case fabric.DialectSQLite:
		return rules{backtick: true, brackets: true}
	default:
		return rules{}
	}
}

type lexer struct {
	text string
	r    rules
}

func newLexer(text string, d fabric.Dialect) *lexer {
	return &lexer{text: text, r: rulesFor(d)}
}

// singleStatement scans text outside quotes and comments. A semicolon is
// allowed only when nothing but whitespace and comments follows it.
func (l *lexer) singleStatement() (string, error) {
	text := l.text
	semicolon := -1

	for i := 0; i < len(text); {
		if next, ok := l.comment(i); ok {
			if next < 0 {
				return "", ErrUnterminated
			}
			i = next
			continue
		}
		c := text[i]
		if isSpace(c) {
			i++
			continue
		}
		if semicolon >= 0 {
			return "", ErrMultipleStatements
		}

		next, err := l.quoted(i)
		if err != nil {
			return "", err
		}
		if next > i {
			i = next
			continue
		}
		if c == ';' {
			semicolon = i
		}
		i++
	}

	if semicolon >= 0 {
		text = text[:semicolon]
	}
	return strings.TrimSpace(text), nil
}

// comment reports whether a comment starts at i and returns the index after
// it, or -1 when it never ends.
func (l *lexer) comment(i int) (int, bool) {
	text := l.text
	c := text[i]
	switch {
	case c == '-' && at(text, i+1) == '-':
		if l.r.dashNeedsSpace && i+2 < len(text) && !isSpace(text[i+2]) {
			return 0, false
		}
		return lineEnd(text, i), true
	case c == '#' && l.r.hashComment:
		if l.r.hashNeedsSpace && at(text, i+1) != ' ' && at(text, i+1) != '!' {
			return 0, false
		}
		return lineEnd(text, i), true
	case c == '/' && at(text, i+1) == '*':
		if l.r.execComments && at(text, i+2) == '!' {
			// MySQL runs the contents; lex them as ordinary text.
			return i + 3, true
		}
		end := strings.Index(text[i+2:], "*/")
		if end < 0 {
			return -1, true
		}
		return i + 2 + end + 2, true
	}
	return 0, false
}

// quoted returns the index after a string or quoted identifier starting at
// i, or i when none starts there.
func (l *lexer) quoted(i int) (int, error) {
	text := l.text
	c := text[i]
	prevIdent := i > 0 && isIdentByte(text[i-1])

	switch {
	case c == '\'' || c == '"':
		return l.closeQuote(i+1, c, strings.IndexByte(l.r.backslashQuotes, c) >= 0)
	case c == '`' && l.r.backtick:
		return l.closeQuote(i+1, c, strings.IndexByte(l.r.backslashQuotes, c) >= 0)
	case c == '[' && l.r.brackets:
		end := strings.IndexByte(text[i+1:], ']')
		if end < 0 {
			return 0, ErrUnterminated
		}
		return i + 1 + end + 1, nil
	case (c == 'E' || c == 'e') && l.r.escapeStrings && !prevIdent && at(text, i+1) == '\'':
		return l.closeQuote(i+2, '\'', true)
	case c == '$' && l.r.dollarQuotes && !prevIdent:
		tag, ok := dollarTag(text[i:])
		if !ok {
			return i, nil
		}
		end := strings.Index(text[i+len(tag):], tag)
		if end < 0 {
			return 0, ErrUnterminated
		}
		return i + len(tag) + end + len(tag), nil
	}
	return i, nil
}

// closeQuote finds the end of a quoted run whose body starts at i. A doubled
// quote is an escaped quote in every dialect.
func (l *lexer) closeQuote(i int, quote byte, backslash bool) (int, error) {
	text := l.text
	for ; i < len(text); i++ {
		switch text[i] {
		case '\\':
			if backslash {
				i++
			}
		case quote:
			if at(text, i+1) == quote {
				i++
				continue
			}
			return i + 1, nil
		}
	}
	return 0, ErrUnterminated
}

// dollarTag returns the opening delimiter of a dollar-quoted string, such as
// "$$" or "$body$". "$1" is a parameter, not a tag.
func dollarTag(s string) (string, bool) {
	for j := 1; j < len(s); j++ {
		c := s[j]
		switch {
		case c == '$':
			return s[:j+1], true
		case c == '_' || isLetter(c) || (j > 1 && isDigit(c)):
		default:
			return "", false
		}
	}
	return "", false
}

func lineEnd(text string, i int) int {
	if n := strings.IndexByte(text[i:], '\n'); n >= 0 {
		return i + n + 1
	}
	return len(text)
}

func at(text string, i int) byte {
	if i < len(text) {
		return text[i]
	}
	return 0
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentByte(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_' || c == '$'
}

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
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/teradata-labs/insight/pkg/fabric"
)

const (
	// DefaultLimit applies when Params.Limit is zero.
	DefaultLimit = 50
	// MaxLimit is the largest accepted Params.Limit.
	MaxLimit = 1000
	// DefaultPeriod is the lookback used when neither From nor To is given.
	DefaultPeriod = 30 * 24 * time.Hour
)

// ErrInvalidParams marks parameter validation failures.
var ErrInvalidParams = errors.New("invalid report parameters")

// Params filters a report. From and To are inclusive calendar dates.
type Params struct {
	From        time.Time
	To          time.Time
	Branch      string
	Granularity fabric.Granularity
	Limit       int
}

// ParseParams reads params from a query string. Dates use YYYY-MM-DD.
func ParseParams(values url.Values) (Params, error) {
	var p Params
	var err error
	if p.From, err = parseDate("from", values.Get("from")); err != nil {
		return p, err
	}
	if p.To, err = parseDate("to", values.Get("to")); err != nil {
		return p, err
	}
	p.Branch = strings.TrimSpace(values.Get("branch"))
	if p.Granularity, err = fabric.ParseGranularity(values.Get("granularity")); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		if p.Limit, err = strconv.Atoi(raw); err != nil {
			return p, fmt.Errorf("%w: limit must be an integer", ErrInvalidParams)
		}
		if p.Limit == 0 {
			return p, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidParams, MaxLimit)
		}
	}
	return p, nil
}

func parseDate(name, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be a date in YYYY-MM-DD form", ErrInvalidParams, name)
	}
	return t, nil
}

// Normalize fills defaults relative to now and validates the result.
// A missing To is today; a missing From is DefaultPeriod before To.
func (p *Params) Normalize(now time.Time) error {
	if p.To.IsZero() {
		p.To = truncateDay(now)
	}
	if p.From.IsZero() {
		p.From = p.To.Add(-DefaultPeriod)
	}
	p.From, p.To = truncateDay(p.From), truncateDay(p.To)
	if p.From.After(p.To) {
		return fmt.Errorf("%w: from (%s) is after to (%s)", ErrInvalidParams,
			p.From.Format(time.DateOnly), p.To.Format(time.DateOnly))
	}
	if p.Granularity == "" {
		p.Granularity = fabric.GranularityMonth
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidParams, MaxLimit)
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

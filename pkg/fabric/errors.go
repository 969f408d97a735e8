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
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedDriver is returned by the factory for unknown drivers.
	ErrUnsupportedDriver = errors.New("unsupported warehouse driver")

	// ErrInvalidIdentifier is returned when a table name cannot be quoted safely.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

// QueryError is a warehouse-side failure. It keeps the query text so callers
// can report which statement failed.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError wraps err with the query that produced it.
func NewQueryError(query string, err error) *QueryError {
	return &QueryError{Query: query, Err: err}
}

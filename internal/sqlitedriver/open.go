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
package sqlitedriver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// DriverName is the database/sql name registered by this package.
const DriverName = "sqlite3"

// ErrEncryptionUnsupported is returned when a key is supplied to a build
// without SQLCipher.
var ErrEncryptionUnsupported = errors.New("sqlite: encryption requires a cgo build")

// Open opens a SQLite database. A non-empty key is applied with PRAGMA key
// before any other statement runs.
func Open(dsn, key string) (*sql.DB, error) {
	if key != "" && !EncryptionSupported {
		return nil, ErrEncryptionUnsupported
	}
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	if key == "" {
		return db, nil
	}

	// PRAGMA key is per connection; pin the pool to one.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(context.Background(), fmt.Sprintf("PRAGMA key = '%s'", strings.ReplaceAll(key, "'", "''"))); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite key: %w", err)
	}
	return db, nil
}

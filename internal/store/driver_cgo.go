//go:build cgo_sqlite

package store

// CGO build: the mattn driver links the reference SQLite implementation.
// Build with CGO_ENABLED=1 and -tags cgo_sqlite.

import (
	_ "github.com/mattn/go-sqlite3"
)

// DriverName is the database/sql driver the store opens.
const DriverName = "sqlite3"

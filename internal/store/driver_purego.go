//go:build !cgo_sqlite

package store

// Default build: pure Go SQLite, no C compiler needed. Build with
// -tags cgo_sqlite to switch to the mattn driver.

import (
	_ "modernc.org/sqlite"
)

// DriverName is the database/sql driver the store opens.
const DriverName = "sqlite"

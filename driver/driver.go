// Package driver re-exports the database/sql driver registered by
// internal/driver, mirroring the teacher's convenience-wrapper shape
// (stable public API over an internal registration).
package driver

import (
	"database/sql"

	_ "github.com/SimonWaldherr/tinyrel/internal/driver"
)

// DriverName is the registered database/sql driver name.
const DriverName = "tinyrel"

// Open is a convenience wrapper around sql.Open(DriverName, dsn).
func Open(dsn string) (*sql.DB, error) { return sql.Open(DriverName, dsn) }

// OpenFile opens a file-backed database by constructing a "file:" DSN.
func OpenFile(path string) (*sql.DB, error) { return Open("file:" + path) }

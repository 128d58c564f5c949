//go:build !cgo_sqlite

package main

import _ "modernc.org/sqlite"

// driverName is the pure Go SQLite driver used by default.
const driverName = "sqlite"

//go:build cgo_sqlite

package main

import _ "github.com/mattn/go-sqlite3"

// driverName is the cgo SQLite driver, selected with -tags cgo_sqlite.
const driverName = "sqlite3"

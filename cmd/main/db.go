package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/CTAG07/Stache/pkg/partials"
)

// openDB opens the service database with the driver selected at build time
// and creates every table the service uses.
func openDB(dataSource string) (*sql.DB, error) {
	if path, _, _ := strings.Cut(dataSource, "?"); path != "" && path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open(driverName, dataSource)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	if _, err = db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set database pragmas: %w", err)
	}

	if err = setupSchemas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// setupSchemas creates the tables of every component backed by db.
func setupSchemas(db *sql.DB) error {
	setups := []struct {
		name  string
		setup func(*sql.DB) error
	}{
		{"partials", partials.SetupSchema},
		{"auth", setupAuthSchema},
		{"stats", setupStatsSchema},
	}
	for _, s := range setups {
		if err := s.setup(db); err != nil {
			return fmt.Errorf("failed to setup %s schema: %w", s.name, err)
		}
	}
	return nil
}

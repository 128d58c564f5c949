package partials

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// ExportedPartials is the JSON document written by Export and read by Import.
type ExportedPartials struct {
	Version  int               `json:"version"`
	Exported time.Time         `json:"exported"`
	Partials []ExportedPartial `json:"partials"`
}

// ExportedPartial is one partial within an ExportedPartials document.
type ExportedPartial struct {
	Name string `json:"name"`
	Body string `json:"body"`
}

const exportVersion = 1

// Export writes every partial to w as indented JSON.
func (s *Store) Export(ctx context.Context, w io.Writer) error {
	rows, err := s.db.QueryContext(ctx, "SELECT name, body FROM partials ORDER BY name")
	if err != nil {
		return fmt.Errorf("could not query partials for export: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	exported := ExportedPartials{Version: exportVersion, Exported: time.Now().UTC(), Partials: make([]ExportedPartial, 0)}
	for rows.Next() {
		var p ExportedPartial
		if err = rows.Scan(&p.Name, &p.Body); err != nil {
			return err
		}
		exported.Partials = append(exported.Partials, p)
	}
	if err = rows.Err(); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Partials exported", slog.Int("partials_exported", len(exported.Partials)))

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exported)
}

// Import reads a document produced by Export and upserts every partial in a
// single transaction. Either all partials are written or none are. It returns
// the number of partials imported.
func (s *Store) Import(ctx context.Context, r io.Reader) (int, error) {
	var imported ExportedPartials
	if err := json.NewDecoder(r).Decode(&imported); err != nil {
		return 0, fmt.Errorf("failed to decode json partials: %w", err)
	}
	if imported.Version > exportVersion {
		return 0, fmt.Errorf("unsupported export version %d", imported.Version)
	}
	for _, p := range imported.Partials {
		if err := ValidateName(p.Name); err != nil {
			return 0, fmt.Errorf("partial %q: %w", p.Name, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("could not begin transaction for import: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	stmtPut := tx.StmtContext(ctx, s.stmtPut)
	now := time.Now().Unix()
	for _, p := range imported.Partials {
		if _, err = stmtPut.ExecContext(ctx, p.Name, p.Body, now, now); err != nil {
			return 0, fmt.Errorf("failed to import partial %q: %w", p.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("could not commit import: %w", err)
	}

	s.logger.InfoContext(ctx, "Partials imported", slog.Int("partials_imported", len(imported.Partials)))
	return len(imported.Partials), nil
}

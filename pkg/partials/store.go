package partials

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
)

// SetupSchema creates the partials table. It is idempotent and safe to call
// on an already-initialized database.
func SetupSchema(db *sql.DB) error {
	const schemaPartials = `
CREATE TABLE IF NOT EXISTS partials (
    name TEXT PRIMARY KEY,
    body TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
`
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaPartials); err != nil {
		return fmt.Errorf("could not create partials schema: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// Store is a database-backed collection of partials. It holds prepared
// statements for every query it runs.
type Store struct {
	db         *sql.DB
	stmtGet    *sql.Stmt
	stmtPut    *sql.Stmt
	stmtDelete *sql.Stmt
	stmtList   *sql.Stmt
	stmtCount  *sql.Stmt
	logger     *slog.Logger
}

// NewStore prepares the statements used by the Store. SetupSchema must have
// been called on db first.
func NewStore(db *sql.DB) (*Store, error) {
	stmtGet, err := db.Prepare(`SELECT body, created_at, updated_at FROM partials WHERE name = ?;`)
	if err != nil {
		return nil, err
	}

	stmtPut, err := db.Prepare(`INSERT INTO partials (name, body, created_at, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at;`)
	if err != nil {
		return nil, err
	}

	stmtDelete, err := db.Prepare(`DELETE FROM partials WHERE name = ?;`)
	if err != nil {
		return nil, err
	}

	stmtList, err := db.Prepare(`SELECT name, length(CAST(body AS BLOB)), updated_at FROM partials ORDER BY name;`)
	if err != nil {
		return nil, err
	}

	stmtCount, err := db.Prepare(`SELECT COUNT(*) FROM partials;`)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:         db,
		stmtGet:    stmtGet,
		stmtPut:    stmtPut,
		stmtDelete: stmtDelete,
		stmtList:   stmtList,
		stmtCount:  stmtCount,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases the prepared statements. The database itself is left open.
func (s *Store) Close() {
	_ = s.stmtGet.Close()
	_ = s.stmtPut.Close()
	_ = s.stmtDelete.Close()
	_ = s.stmtList.Close()
	_ = s.stmtCount.Close()
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

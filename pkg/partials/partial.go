package partials

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/CTAG07/Stache/pkg/mustache"
)

// ErrInvalidName is returned for names that could not appear in a {{> name}} tag.
var ErrInvalidName = errors.New("invalid partial name")

// Partial is a stored partial with its timestamps.
type Partial struct {
	Name      string    `json:"name"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Info is the listing entry for a partial. Size is the body length in bytes.
type Info struct {
	Name      string    `json:"name"`
	Size      int       `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidateName reports ErrInvalidName for an empty name or one containing
// whitespace.
func ValidateName(name string) error {
	if name == "" || strings.ContainsFunc(name, unicode.IsSpace) {
		return ErrInvalidName
	}
	return nil
}

// Put creates or replaces the partial called name.
func (s *Store) Put(ctx context.Context, name, body string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	now := time.Now().Unix()
	if _, err := s.stmtPut.ExecContext(ctx, name, body, now, now); err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "Partial stored", slog.String("partial", name), slog.Int("bytes", len(body)))
	return nil
}

// Get returns the partial called name, or sql.ErrNoRows.
func (s *Store) Get(ctx context.Context, name string) (Partial, error) {
	var created, updated int64
	p := Partial{Name: name}
	if err := s.stmtGet.QueryRowContext(ctx, name).Scan(&p.Body, &created, &updated); err != nil {
		return Partial{}, err
	}
	p.CreatedAt = time.Unix(created, 0)
	p.UpdatedAt = time.Unix(updated, 0)
	return p, nil
}

// Delete removes the partial called name. It returns sql.ErrNoRows if there
// was nothing to remove.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.stmtDelete.ExecContext(ctx, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	s.logger.InfoContext(ctx, "Partial removed", slog.String("partial", name))
	return nil
}

// List returns every partial ordered by name.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	rows, err := s.stmtList.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	infos := make([]Info, 0)
	for rows.Next() {
		var info Info
		var updated int64
		if err = rows.Scan(&info.Name, &info.Size, &updated); err != nil {
			return nil, err
		}
		info.UpdatedAt = time.Unix(updated, 0)
		infos = append(infos, info)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return infos, nil
}

// Count returns the number of stored partials.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.stmtCount.QueryRowContext(ctx).Scan(&n)
	return n, err
}

// Loader adapts the Store to mustache.PartialLoader. Lookups run with ctx.
// Database errors other than a missing row are logged and the partial is
// treated as absent.
func (s *Store) Loader(ctx context.Context) mustache.PartialFunc {
	return func(name string) (string, bool) {
		p, err := s.Get(ctx, name)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				s.logger.ErrorContext(ctx, "Failed to load partial", slog.String("partial", name), slog.Any("error", err))
			}
			return "", false
		}
		return p.Body, true
	}
}

// Partial implements mustache.PartialLoader with a background context.
func (s *Store) Partial(name string) (string, bool) {
	return s.Loader(context.Background())(name)
}

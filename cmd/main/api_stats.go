package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const statsSchema = `
CREATE TABLE IF NOT EXISTS stats_templates (
    template      TEXT PRIMARY KEY,
    renders       INTEGER NOT NULL DEFAULT 0,
    errors        INTEGER NOT NULL DEFAULT 0,
    total_micros  INTEGER NOT NULL DEFAULT 0,
    first_seen    INTEGER NOT NULL,
    last_seen     INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS stats_misses (
    path          TEXT PRIMARY KEY,
    total_hits    INTEGER NOT NULL DEFAULT 1,
    first_seen    INTEGER NOT NULL,
    last_seen     INTEGER NOT NULL
);
`

// TemplateStats is the per-template render record.
type TemplateStats struct {
	Template    string    `json:"template"`
	Renders     int64     `json:"renders"`
	Errors      int64     `json:"errors"`
	AvgMicros   int64     `json:"avg_micros"`
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
	totalMicros int64
}

// MissStats records requests for templates that do not exist.
type MissStats struct {
	Path      string    `json:"path"`
	TotalHits int64     `json:"total_hits"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// GlobalStatsSummary provides a high-level overview of all collected stats.
type GlobalStatsSummary struct {
	TotalRenders    int64 `json:"total_renders"`
	TotalErrors     int64 `json:"total_errors"`
	TotalMisses     int64 `json:"total_misses"`
	UniqueTemplates int64 `json:"unique_templates"`
}

// StatsAPI records page render statistics and serves them.
type StatsAPI struct {
	db         *sql.DB
	logger     *slog.Logger
	stmtRender *sql.Stmt
	stmtMiss   *sql.Stmt
}

func setupStatsSchema(db *sql.DB) error {
	_, err := db.Exec(statsSchema)
	return err
}

func NewStatsAPI(db *sql.DB, logger *slog.Logger) (*StatsAPI, error) {
	s := &StatsAPI{
		db:     db,
		logger: logger,
	}
	var err error
	s.stmtRender, err = db.Prepare(`
        INSERT INTO stats_templates (template, renders, errors, total_micros, first_seen, last_seen) VALUES (?, 1, ?, ?, ?, ?)
        ON CONFLICT(template) DO UPDATE SET renders = renders + 1, errors = errors + excluded.errors,
            total_micros = total_micros + excluded.total_micros, last_seen = excluded.last_seen
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare render stats statement: %w", err)
	}
	s.stmtMiss, err = db.Prepare(`
        INSERT INTO stats_misses (path, first_seen, last_seen) VALUES (?, ?, ?)
        ON CONFLICT(path) DO UPDATE SET total_hits = total_hits + 1, last_seen = excluded.last_seen
    `)
	if err != nil {
		_ = s.stmtRender.Close()
		return nil, fmt.Errorf("failed to prepare miss stats statement: %w", err)
	}
	return s, nil
}

// Close releases the prepared statements.
func (s *StatsAPI) Close() {
	_ = s.stmtRender.Close()
	_ = s.stmtMiss.Close()
}

func (s *StatsAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/stats/summary", s.handleSummary)
	mux.HandleFunc("/api/stats/templates", s.handleTemplates)
	mux.HandleFunc("/api/stats/misses", s.handleMisses)
}

// RecordRender counts one render of name. Failures are logged, never returned,
// so that statistics cannot break page serving.
func (s *StatsAPI) RecordRender(ctx context.Context, name string, elapsed time.Duration, renderErr error) {
	failed := 0
	if renderErr != nil {
		failed = 1
	}
	now := time.Now().Unix()
	if _, err := s.stmtRender.ExecContext(context.WithoutCancel(ctx), name, failed, elapsed.Microseconds(), now, now); err != nil {
		s.logger.Warn("Failed to record render stats", "template", name, "error", err)
	}
}

// RecordMiss counts one request for a template that does not exist.
func (s *StatsAPI) RecordMiss(ctx context.Context, path string) {
	now := time.Now().Unix()
	if _, err := s.stmtMiss.ExecContext(context.WithoutCancel(ctx), path, now, now); err != nil {
		s.logger.Warn("Failed to record miss stats", "path", path, "error", err)
	}
}

func (s *StatsAPI) handleSummary(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) || !requireScope(w, r, scopeStatsRead) {
		return
	}
	var summary GlobalStatsSummary
	err := s.db.QueryRowContext(r.Context(),
		"SELECT COALESCE(SUM(renders), 0), COALESCE(SUM(errors), 0), COUNT(*) FROM stats_templates").
		Scan(&summary.TotalRenders, &summary.TotalErrors, &summary.UniqueTemplates)
	if err == nil {
		err = s.db.QueryRowContext(r.Context(), "SELECT COALESCE(SUM(total_hits), 0) FROM stats_misses").Scan(&summary.TotalMisses)
	}
	if err != nil {
		s.logger.Error("Failed to query stats summary", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Database error: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

func (s *StatsAPI) handleTemplates(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) || !requireScope(w, r, scopeStatsRead) {
		return
	}
	rows, err := s.db.QueryContext(r.Context(),
		"SELECT template, renders, errors, total_micros, first_seen, last_seen FROM stats_templates ORDER BY renders DESC LIMIT 100")
	if err != nil {
		s.logger.Error("Failed to query template stats", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Database error: %v", err))
		return
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	results := make([]TemplateStats, 0)
	for rows.Next() {
		var ts TemplateStats
		var first, last int64
		if err = rows.Scan(&ts.Template, &ts.Renders, &ts.Errors, &ts.totalMicros, &first, &last); err != nil {
			s.logger.Error("Failed to scan template stats", "error", err)
			continue
		}
		if ts.Renders > 0 {
			ts.AvgMicros = ts.totalMicros / ts.Renders
		}
		ts.FirstSeen = time.Unix(first, 0)
		ts.LastSeen = time.Unix(last, 0)
		results = append(results, ts)
	}
	respondWithJSON(w, http.StatusOK, results)
}

func (s *StatsAPI) handleMisses(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) || !requireScope(w, r, scopeStatsRead) {
		return
	}
	rows, err := s.db.QueryContext(r.Context(),
		"SELECT path, total_hits, first_seen, last_seen FROM stats_misses ORDER BY total_hits DESC LIMIT 100")
	if err != nil {
		s.logger.Error("Failed to query miss stats", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Database error: %v", err))
		return
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	results := make([]MissStats, 0)
	for rows.Next() {
		var ms MissStats
		var first, last int64
		if err = rows.Scan(&ms.Path, &ms.TotalHits, &first, &last); err != nil {
			s.logger.Error("Failed to scan miss stats", "error", err)
			continue
		}
		ms.FirstSeen = time.Unix(first, 0)
		ms.LastSeen = time.Unix(last, 0)
		results = append(results, ms)
	}
	respondWithJSON(w, http.StatusOK, results)
}

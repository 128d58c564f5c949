package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/CTAG07/Stache/pkg/templating"
)

const (
	actionShutdown = "shutdown"
	actionRestart  = "restart"
)

// ServerAPI holds the dependencies for the main application API handlers.
type ServerAPI struct {
	cm         *ConfigManager
	db         *sql.DB
	actionChan chan string
	tm         *templating.TemplateManager
	logger     *slog.Logger
}

// VersionInfo defines the structure for build/version information.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// CacheInfo reports the number of compiled templates held in the cache.
type CacheInfo struct {
	Templates int `json:"templates"`
}

// NewServerAPI creates a new instance of the ServerAPI.
func NewServerAPI(cm *ConfigManager, db *sql.DB, actionChan chan string, tm *templating.TemplateManager, logger *slog.Logger) *ServerAPI {
	return &ServerAPI{
		cm:         cm,
		db:         db,
		actionChan: actionChan,
		tm:         tm,
		logger:     logger,
	}
}

// RegisterRoutes sets up the routing for all /api/server endpoints.
func (a *ServerAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/server/config", a.handleConfig)
	mux.HandleFunc("/api/server/version", a.handleVersion)
	mux.HandleFunc("/api/server/cache", a.handleCache)
	mux.HandleFunc("/api/server/shutdown", a.handleShutdown)
	mux.HandleFunc("/api/server/restart", a.handleRestart)
}

// handleConfig gets or updates the main server configuration.
func (a *ServerAPI) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !requireScope(w, r, scopeServerConfig) {
			return
		}
		respondWithJSON(w, http.StatusOK, a.cm.Get())
	case http.MethodPut:
		if !requireScope(w, r, scopeServerConfig) {
			return
		}
		var newConfig Config
		if err := json.NewDecoder(r.Body).Decode(&newConfig); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
			return
		}
		if err := a.cm.Update(newConfig); err != nil {
			if errors.Is(err, ErrConfigNotSaved) {
				a.logger.Error("Failed to save configuration", "error", err)
				respondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}
			a.logger.Warn("Rejected configuration update", "error", err)
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		a.logger.Info("Application configuration updated via API. Address and database changes require a restart.")
		respondWithJSON(w, http.StatusOK, a.cm.Get())
	default:
		w.Header().Set("Allow", "GET, PUT")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleVersion returns the application's build information.
func (a *ServerAPI) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) || !requireScope(w, r, scopeStatsRead) {
		return
	}
	respondWithJSON(w, http.StatusOK, VersionInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
	})
}

// handleCache reports or clears the compiled template cache.
func (a *ServerAPI) handleCache(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !requireScope(w, r, scopeStatsRead) {
			return
		}
		respondWithJSON(w, http.StatusOK, CacheInfo{Templates: a.tm.CacheLen()})
	case http.MethodDelete:
		if !requireScope(w, r, scopeServerControl) {
			return
		}
		a.tm.ClearCache()
		a.logger.Info("Template cache cleared via API")
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Allow", "GET, DELETE")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleShutdown initiates a graceful shutdown of the server.
func (a *ServerAPI) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) || !requireScope(w, r, scopeServerControl) {
		return
	}

	a.logger.Warn("Shutdown initiated via API")
	respondWithJSON(w, http.StatusAccepted, map[string]string{"message": "Server is shutting down..."})

	go func() {
		a.actionChan <- actionShutdown
	}()
}

// handleRestart initiates a graceful restart of the server.
func (a *ServerAPI) handleRestart(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) || !requireScope(w, r, scopeServerControl) {
		return
	}

	a.logger.Warn("Restart initiated via API")
	respondWithJSON(w, http.StatusAccepted, map[string]string{"message": "Server is restarting..."})

	go func() {
		a.actionChan <- actionRestart
	}()
}

// handleHealthCheck reports whether the database is reachable. It is served
// without authentication.
func (a *ServerAPI) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	if err := a.db.PingContext(r.Context()); err != nil {
		a.logger.Error("Health check failed", "error", err)
		respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

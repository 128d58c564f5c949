package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/CTAG07/Stache/pkg/partials"
	"github.com/CTAG07/Stache/pkg/templating"
)

// PartialAPI holds the dependencies for the stored partial handlers.
type PartialAPI struct {
	store  *partials.Store
	tm     *templating.TemplateManager
	logger *slog.Logger
}

// PartialRequest is the JSON body for creating or replacing a partial.
type PartialRequest struct {
	Name string `json:"name"`
	Body string `json:"body"`
}

func NewPartialAPI(store *partials.Store, tm *templating.TemplateManager, logger *slog.Logger) *PartialAPI {
	return &PartialAPI{
		store:  store,
		tm:     tm,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/partials endpoints.
func (p *PartialAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/partials/export", p.handleExport)
	mux.HandleFunc("/api/partials/import", p.handleImport)
	mux.HandleFunc("/api/partials", p.handlePartials)
	mux.HandleFunc("/api/partials/", p.handlePartial)
}

func (p *PartialAPI) handlePartials(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !requireScope(w, r, scopePartialsRead) {
			return
		}
		infos, err := p.store.List(r.Context())
		if err != nil {
			p.logger.Error("Failed to list partials", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to list partials")
			return
		}
		respondWithJSON(w, http.StatusOK, infos)
	case http.MethodPost:
		if !requireScope(w, r, scopePartialsWrite) {
			return
		}
		var req PartialRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
			return
		}
		p.put(w, r, req.Name, req.Body, http.StatusCreated)
	default:
		w.Header().Set("Allow", "GET, POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (p *PartialAPI) handlePartial(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/partials/"), "/")
	if name == "" {
		respondWithError(w, http.StatusNotFound, "Not Found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		if !requireScope(w, r, scopePartialsRead) {
			return
		}
		partial, err := p.store.Get(r.Context(), name)
		if err != nil {
			p.respondStoreError(w, name, err)
			return
		}
		respondWithJSON(w, http.StatusOK, partial)
	case http.MethodPut:
		if !requireScope(w, r, scopePartialsWrite) {
			return
		}
		var req PartialRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
			return
		}
		if req.Name != "" && req.Name != name {
			respondWithError(w, http.StatusBadRequest, "Partial name in body does not match URL")
			return
		}
		p.put(w, r, name, req.Body, http.StatusOK)
	case http.MethodDelete:
		if !requireScope(w, r, scopePartialsWrite) {
			return
		}
		if err := p.store.Delete(r.Context(), name); err != nil {
			p.respondStoreError(w, name, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// put compiles body before storing it so that broken partials are rejected
// when saved instead of when a page renders.
func (p *PartialAPI) put(w http.ResponseWriter, r *http.Request, name, body string, status int) {
	if err := p.tm.Compile(body); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := p.store.Put(r.Context(), name, body); err != nil {
		p.respondStoreError(w, name, err)
		return
	}
	partial, err := p.store.Get(r.Context(), name)
	if err != nil {
		p.respondStoreError(w, name, err)
		return
	}
	p.logger.Info("Partial saved via API", "partial", name)
	respondWithJSON(w, status, partial)
}

func (p *PartialAPI) respondStoreError(w http.ResponseWriter, name string, err error) {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		respondWithError(w, http.StatusNotFound, fmt.Sprintf("Partial '%s' not found", name))
	case errors.Is(err, partials.ErrInvalidName):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		p.logger.Error("Partial store operation failed", "partial", name, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Database error")
	}
}

// handleExport streams every stored partial as a JSON document.
func (p *PartialAPI) handleExport(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) || !requireScope(w, r, scopePartialsRead) {
		return
	}
	var buf bytes.Buffer
	if err := p.store.Export(r.Context(), &buf); err != nil {
		p.logger.Error("Failed to export partials", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to export partials")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="partials.json"`)
	respondWithText(w, http.StatusOK, "application/json", buf.Bytes())
}

// handleImport loads a document produced by handleExport.
func (p *PartialAPI) handleImport(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) || !requireScope(w, r, scopePartialsWrite) {
		return
	}
	n, err := p.store.Import(r.Context(), r.Body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Failed to import partials: %v", err))
		return
	}
	p.logger.Info("Partials imported via API", "count", n)
	respondWithJSON(w, http.StatusOK, map[string]int{"imported": n})
}

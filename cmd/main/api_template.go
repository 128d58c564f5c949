package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/CTAG07/Stache/pkg/templating"
)

// TemplateAPI holds the dependencies for the template API handlers.
type TemplateAPI struct {
	tm     *templating.TemplateManager
	logger *slog.Logger
}

// TemplateList is the response body of GET /api/templates.
type TemplateList struct {
	Templates []string `json:"templates"`
	Partials  []string `json:"partials"`
}

// NewTemplateAPI creates a new instance of the TemplateAPI.
func NewTemplateAPI(tm *templating.TemplateManager, logger *slog.Logger) *TemplateAPI {
	return &TemplateAPI{
		tm:     tm,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/templates endpoints.
func (t *TemplateAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/templates/refresh", t.handleRefresh)
	mux.HandleFunc("/api/templates/test", t.handleTest)
	mux.HandleFunc("/api/templates/preview", t.handlePreview)
	mux.HandleFunc("/api/templates", t.handleList)
	mux.HandleFunc("/api/templates/", t.handleFile)
}

// handleRefresh triggers a manual refresh of templates from disk.
func (t *TemplateAPI) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) || !requireScope(w, r, scopeTemplatesWrite) {
		return
	}
	if err := t.tm.Refresh(); err != nil {
		t.logger.Error("API triggered refresh failed", "error", err)
		respondWithError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Failed to refresh templates: %v", err))
		return
	}
	t.logger.Info("Templates refreshed via API")
	w.WriteHeader(http.StatusNoContent)
}

// handleList returns the names of all loaded templates and partials.
func (t *TemplateAPI) handleList(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) || !requireScope(w, r, scopeTemplatesRead) {
		return
	}
	respondWithJSON(w, http.StatusOK, TemplateList{
		Templates: t.tm.GetTemplateNames(),
		Partials:  t.tm.GetPartialNames(),
	})
}

// handleTest renders the request body as a template without saving it.
func (t *TemplateAPI) handleTest(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) || !requireScope(w, r, scopeTemplatesRead) {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Failed to read request body: %v", err))
		return
	}

	var buf bytes.Buffer
	err = t.tm.ExecuteTemplateStringContext(r.Context(), &buf, string(body), newPageInput(r, "test"))
	if err != nil {
		respondWithError(w, templateErrorStatus(err), fmt.Sprintf("Template execution failed: %v", err))
		return
	}
	respondWithText(w, http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// handlePreview renders a loaded template as the page server would.
func (t *TemplateAPI) handlePreview(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) || !requireScope(w, r, scopeTemplatesRead) {
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'name' is required")
		return
	}

	var buf bytes.Buffer
	if err := t.tm.ExecuteContext(r.Context(), &buf, name, newPageInput(r, name)); err != nil {
		if errors.Is(err, templating.ErrTemplateNotFound) {
			respondWithJSON(w, http.StatusNotFound, map[string]any{
				"error":       fmt.Sprintf("Template '%s' not found", name),
				"suggestions": t.tm.Suggest(name),
			})
			return
		}
		respondWithError(w, templateErrorStatus(err), fmt.Sprintf("Failed to render preview: %v", err))
		return
	}
	respondWithText(w, http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// handleFile manages CRUD operations for a single template or partial file.
func (t *TemplateAPI) handleFile(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/templates/")
	if name == "" || strings.HasSuffix(name, "/") {
		respondWithError(w, http.StatusNotFound, "Not Found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		if !requireScope(w, r, scopeTemplatesRead) {
			return
		}
		content, err := t.tm.ReadTemplateFile(name)
		if err != nil {
			t.respondFileError(w, name, err)
			return
		}
		respondWithText(w, http.StatusOK, "text/plain; charset=utf-8", content)

	case http.MethodPut:
		if !requireScope(w, r, scopeTemplatesWrite) {
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Failed to read request body: %v", err))
			return
		}
		if err = t.tm.WriteTemplateFile(name, body); err != nil {
			t.respondFileError(w, name, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		if !requireScope(w, r, scopeTemplatesWrite) {
			return
		}
		if err := t.tm.RemoveTemplateFile(name); err != nil {
			t.respondFileError(w, name, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (t *TemplateAPI) respondFileError(w http.ResponseWriter, name string, err error) {
	switch {
	case errors.Is(err, templating.ErrInvalidFileName), errors.Is(err, templating.ErrInvalidTemplate):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case os.IsNotExist(err), errors.Is(err, os.ErrNotExist):
		respondWithError(w, http.StatusNotFound, "Template not found")
	default:
		t.logger.Error("Template file operation failed", "file", name, "error", err)
		respondWithError(w, http.StatusInternalServerError, err.Error())
	}
}

package main

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/CTAG07/Stache/pkg/partials"
	"github.com/CTAG07/Stache/pkg/templating"
)

// PageInput is the view every page template is rendered with.
type PageInput struct {
	Name        string            `json:"name"`
	Path        string            `json:"path"`
	Method      string            `json:"method"`
	Query       map[string]string `json:"query"`
	Now         time.Time         `json:"now"`
	Suggestions []string          `json:"suggestions,omitempty"`
}

// Year is exposed to templates as {{Year}}.
func (p PageInput) Year() int { return p.Now.Year() }

func newPageInput(r *http.Request, name string) PageInput {
	query := make(map[string]string)
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}
	return PageInput{
		Name:   name,
		Path:   r.URL.Path,
		Method: r.Method,
		Query:  query,
		Now:    time.Now(),
	}
}

type Server struct {
	cm          *ConfigManager
	db          *sql.DB
	logger      *slog.Logger
	store       *partials.Store
	tm          *templating.TemplateManager
	authAPI     *AuthAPI
	templateAPI *TemplateAPI
	partialAPI  *PartialAPI
	renderAPI   *RenderAPI
	statsAPI    *StatsAPI
	serverAPI   *ServerAPI
	pageMux     *http.ServeMux
	apiMux      *http.ServeMux
}

func NewServer(cm *ConfigManager, logger *slog.Logger, db *sql.DB, actionChan chan string) (*Server, error) {
	config := cm.Get()

	store, err := partials.NewStore(db)
	if err != nil {
		return nil, fmt.Errorf("error creating partial store: %w", err)
	}
	store.SetLogger(logger)

	tm, err := templating.NewTemplateManager(logger, store, config.Templates, config.Server.DataDir)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create template manager: %w", err)
	}
	cm.SetTemplateManager(tm)
	cm.SetLogger(logger)

	statsAPI, err := NewStatsAPI(db, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create stats api: %w", err)
	}

	// create object, register routes to the mux, and return it
	server := &Server{
		cm:          cm,
		db:          db,
		logger:      logger,
		store:       store,
		tm:          tm,
		authAPI:     NewAuthAPI(db, logger),
		templateAPI: NewTemplateAPI(tm, logger),
		partialAPI:  NewPartialAPI(store, tm, logger),
		renderAPI:   NewRenderAPI(cm, store, logger),
		statsAPI:    statsAPI,
		serverAPI:   NewServerAPI(cm, db, actionChan, tm, logger),
		pageMux:     http.NewServeMux(),
		apiMux:      http.NewServeMux(),
	}

	apiMux := http.NewServeMux()

	server.authAPI.RegisterRoutes(apiMux)
	server.templateAPI.RegisterRoutes(apiMux)
	server.partialAPI.RegisterRoutes(apiMux)
	server.renderAPI.RegisterRoutes(apiMux)
	server.statsAPI.RegisterRoutes(apiMux)
	server.serverAPI.RegisterRoutes(apiMux)

	// Make sure api functions must pass through authentication first
	authedAPI := server.authAPI.Authenticate(server.limitBody(apiMux))
	// ... except for the health check, which is unauthed so something like docker can use it
	server.apiMux.HandleFunc("/api/health", server.serverAPI.handleHealthCheck)
	server.apiMux.Handle("/api/", authedAPI)

	server.pageMux.HandleFunc("/favicon.ico", handleFavicon)
	server.pageMux.HandleFunc("/", server.handlePage)

	return server, nil
}

// limitBody caps request bodies at the configured size.
func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, s.cm.Get().Server.MaxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// pageName maps a request path to a template name. The root path serves the
// index template.
func pageName(path, index string) string {
	name := strings.Trim(path, "/")
	if name == "" {
		return index
	}
	return name
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	config := s.cm.Get().Server
	name := pageName(r.URL.Path, config.IndexTemplate)

	if !s.tm.HasTemplate(name) {
		s.handleNotFound(w, r, name, config)
		return
	}

	start := time.Now()
	var buf bytes.Buffer
	err := s.tm.ExecuteContext(r.Context(), &buf, name, newPageInput(r, name))
	s.statsAPI.RecordRender(r.Context(), name, time.Since(start), err)
	if err != nil {
		if errors.Is(err, templating.ErrTemplateNotFound) {
			// Removed between the check and the render.
			s.handleNotFound(w, r, name, config)
			return
		}
		s.logger.Error("Failed to execute template", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	s.logger.Debug("Serving page", "template", name, "remote_addr", r.RemoteAddr)
	setPageHeaders(w, config.PageHeaders)
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = buf.WriteTo(w)
	}
}

// handleNotFound renders the not-found template with name suggestions, or a
// plain text list of them when that template does not exist either.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request, name string, config *ServerConfig) {
	s.statsAPI.RecordMiss(r.Context(), name)
	suggestions := s.tm.Suggest(name)

	if config.NotFound != "" && s.tm.HasTemplate(config.NotFound) {
		input := newPageInput(r, name)
		input.Suggestions = suggestions
		var buf bytes.Buffer
		err := s.tm.ExecuteContext(r.Context(), &buf, config.NotFound, input)
		if err == nil {
			setPageHeaders(w, config.PageHeaders)
			w.WriteHeader(http.StatusNotFound)
			if r.Method != http.MethodHead {
				_, _ = buf.WriteTo(w)
			}
			return
		}
		s.logger.Error("Failed to execute not found template", "template", config.NotFound, "error", err)
	}

	var sb strings.Builder
	sb.WriteString("404 page not found\n")
	if len(suggestions) > 0 {
		sb.WriteString("\nDid you mean:\n")
		for _, suggestion := range suggestions {
			sb.WriteString("  /" + suggestion + "\n")
		}
	}
	respondWithText(w, http.StatusNotFound, "text/plain; charset=utf-8", []byte(sb.String()))
}

func setPageHeaders(w http.ResponseWriter, headers map[string]string) {
	for k, v := range headers {
		w.Header().Set(k, v)
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
}

// handleFavicon answers favicon requests with no content so they are not
// counted as template misses.
func handleFavicon(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// Close releases the prepared statements held by the server.
func (s *Server) Close() {
	s.statsAPI.Close()
	s.store.Close()
}

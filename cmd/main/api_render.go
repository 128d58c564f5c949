package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/CTAG07/Stache/pkg/mustache"
	"github.com/CTAG07/Stache/pkg/partials"
	"github.com/CTAG07/Stache/pkg/templating"
)

// RenderAPI renders ad hoc templates against a caller supplied view.
// Request templates are not cached and partial nesting is always limited.
type RenderAPI struct {
	cm       *ConfigManager
	store    *partials.Store
	renderer *mustache.Renderer
	logger   *slog.Logger
}

// RenderRequest is the JSON body of POST /api/render. Template is usually a
// string; any other JSON type is rejected with the engine's type error.
// Partials given inline take precedence over stored ones.
type RenderRequest struct {
	Template any               `json:"template"`
	View     any               `json:"view"`
	Partials map[string]string `json:"partials"`
	Tags     []string          `json:"tags"`
	Escape   *bool             `json:"escape"`
}

// RenderResponse is the JSON response of a successful render.
type RenderResponse struct {
	Output string `json:"output"`
}

func NewRenderAPI(cm *ConfigManager, store *partials.Store, logger *slog.Logger) *RenderAPI {
	return &RenderAPI{
		cm:       cm,
		store:    store,
		renderer: mustache.New(mustache.WithCache(mustache.NoCache{}), mustache.WithLogger(logger)),
		logger:   logger,
	}
}

// partialDepth is the configured partial limit, falling back to the default
// when the config disables it.
func (a *RenderAPI) partialDepth() int {
	if depth := a.cm.Get().Templates.MaxPartialDepth; depth > 0 {
		return depth
	}
	return templating.DefaultConfig().MaxPartialDepth
}

// RegisterRoutes sets up the routing for the /api/render endpoint.
func (a *RenderAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/render", a.handleRender)
}

func (a *RenderAPI) handleRender(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) || !requireScope(w, r, scopeRender) {
		return
	}

	var req RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}

	opts := []mustache.RenderOption{mustache.WithPartialDepth(a.partialDepth())}
	if len(req.Tags) > 0 {
		tags, err := mustache.TagsFrom(req.Tags)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts = append(opts, mustache.WithTags(tags))
	}
	if req.Escape != nil && !*req.Escape {
		opts = append(opts, mustache.WithEscape(mustache.NoEscape))
	}

	loader := mustache.ChainLoaders(mustache.PartialMap(req.Partials), a.store.Loader(r.Context()))
	out, err := a.renderer.RenderAny(req.Template, req.View, loader, opts...)
	if err != nil {
		a.logger.Debug("Render request failed", "error", err)
		respondWithError(w, templateErrorStatus(err), fmt.Sprintf("Render failed: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, RenderResponse{Output: out})
}

// templateErrorStatus maps errors caused by the template itself to 400 and
// everything else to 500.
func templateErrorStatus(err error) int {
	var (
		delimErr    *mustache.InvalidDelimiterError
		unclosedErr *mustache.UnclosedTagError
		unopenedErr *mustache.UnopenedSectionError
		mismatchErr *mustache.SectionMismatchError
		sectionErr  *mustache.UnclosedSectionError
		typeErr     *mustache.InvalidTemplateTypeError
		depthErr    *mustache.PartialDepthError
		origErr     *mustache.MissingOriginalTemplateError
	)
	switch {
	case errors.As(err, &delimErr), errors.As(err, &unclosedErr), errors.As(err, &unopenedErr),
		errors.As(err, &mismatchErr), errors.As(err, &sectionErr), errors.As(err, &typeErr),
		errors.As(err, &depthErr), errors.As(err, &origErr),
		errors.Is(err, templating.ErrInvalidTemplate):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

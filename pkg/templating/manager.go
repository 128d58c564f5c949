package templating

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/CTAG07/Stache/pkg/mustache"
)

// ErrTemplateNotFound is returned when executing a template that is not loaded.
var ErrTemplateNotFound = errors.New("template not found")

// ContextLoader is implemented by partial stores whose lookups take a
// context, such as *partials.Store.
type ContextLoader interface {
	Loader(ctx context.Context) mustache.PartialFunc
}

// TemplateManager is the central controller for the templating engine.
// It owns the loaded templates, the configuration and the renderer built
// from it. All methods are concurrent-safe.
type TemplateManager struct {
	logger        *slog.Logger
	config        *TemplateConfig
	renderer      *mustache.Renderer
	preview       *mustache.Renderer
	store         mustache.PartialLoader
	templates     map[string]string
	partials      map[string]string
	templateNames []string
	partialNames  []string
	templateDir   string
	mu            sync.RWMutex
}

// NewTemplateManager creates, initializes, and returns a new TemplateManager.
// store supplies partials that are not on disk and may be nil. Templates are
// read from the "templates" subdirectory of dataDir, which is created if
// missing. It performs an initial Refresh.
func NewTemplateManager(logger *slog.Logger, store mustache.PartialLoader, config *TemplateConfig, dataDir string) (*TemplateManager, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid template config: %w", err)
	}

	templateDir := filepath.Join(dataDir, "templates")
	if err := os.MkdirAll(templateDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create template directory: %w", err)
	}

	tm := &TemplateManager{
		logger:      logger,
		store:       store,
		templateDir: templateDir,
		config:      config.clone(),
	}
	tm.renderer, tm.preview = tm.newRenderers(tm.config)

	if err := tm.Refresh(); err != nil {
		return nil, err
	}

	logger.Info("Template manager initialized", "dir", templateDir)
	return tm, nil
}

// newRenderers builds the renderer for loaded templates and an uncached one
// for ad-hoc strings, which would otherwise fill the cache.
func (tm *TemplateManager) newRenderers(config *TemplateConfig) (*mustache.Renderer, *mustache.Renderer) {
	tags, _ := config.tags()
	opts := []mustache.Option{
		mustache.WithLogger(tm.logger),
		mustache.WithDefaultTags(tags),
		mustache.WithMaxPartialDepth(config.MaxPartialDepth),
	}
	if !config.EscapeHTML {
		opts = append(opts, mustache.WithDefaultEscape(mustache.NoEscape))
	}

	previewOpts := append(slices.Clone(opts), mustache.WithCache(mustache.NoCache{}))
	if !config.CacheEnabled {
		opts = append(opts, mustache.WithCache(mustache.NoCache{}))
	}
	return mustache.New(opts...), mustache.New(previewOpts...)
}

// SetConfig applies a new configuration and reloads the template directory,
// since the file extensions may have changed. An invalid config is rejected
// and the current one is kept.
func (tm *TemplateManager) SetConfig(config *TemplateConfig) error {
	if config == nil {
		return errors.New("nil template config")
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid template config: %w", err)
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()
	oldConfig, oldRenderer, oldPreview := tm.config, tm.renderer, tm.preview
	tm.config = config.clone()
	tm.renderer, tm.preview = tm.newRenderers(tm.config)
	if err := tm.refreshLocked(); err != nil {
		tm.config, tm.renderer, tm.preview = oldConfig, oldRenderer, oldPreview
		return err
	}
	return nil
}

// Refresh reloads all templates and partials from the filesystem and drops
// every compiled template. Each file is compiled once, so a syntax error in
// any of them fails the refresh and the previously loaded set stays active.
func (tm *TemplateManager) Refresh() error {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.refreshLocked()
}

func (tm *TemplateManager) refreshLocked() error {
	tm.logger.Info("Loading template files...")

	entries, err := os.ReadDir(tm.templateDir)
	if err != nil {
		tm.logger.Error("failed to read template directory", "error", err)
		return err
	}

	templates := make(map[string]string)
	partials := make(map[string]string)
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		fileName := entry.Name()
		stem, partial, ok := tm.classify(fileName)
		if !ok || stem == "" {
			continue
		}

		content, err := os.ReadFile(filepath.Join(tm.templateDir, fileName))
		if err != nil {
			tm.logger.Error("failed to read template file", "file", fileName, "error", err)
			return err
		}
		if partial {
			partials[stem] = string(content)
		} else {
			templates[stem] = string(content)
		}
	}

	tm.renderer.ClearCache()
	for name, src := range templates {
		if _, err = tm.renderer.Parse(src); err != nil {
			tm.logger.Error("failed to parse template file", "template", name, "error", err)
			return fmt.Errorf("template %q: %w", name, err)
		}
	}
	for name, src := range partials {
		if _, err = tm.renderer.Parse(src); err != nil {
			tm.logger.Error("failed to parse partial file", "partial", name, "error", err)
			return fmt.Errorf("partial %q: %w", name, err)
		}
	}

	if len(templates) == 0 {
		tm.logger.Warn("No template files found", "dir", tm.templateDir, "ext", tm.config.TemplateExt)
	}

	tm.templates = templates
	tm.partials = partials
	tm.templateNames = sortedKeys(templates)
	tm.partialNames = sortedKeys(partials)
	tm.logger.Info("Loaded template and partial files", "templates", len(templates), "partials", len(partials))
	return nil
}

// classify splits fileName into its stem and kind. The longer extension is
// tried first so that one extension may end with the other.
func (tm *TemplateManager) classify(fileName string) (stem string, partial bool, ok bool) {
	exts := []string{tm.config.TemplateExt, tm.config.PartialExt}
	if len(exts[1]) >= len(exts[0]) {
		exts[0], exts[1] = exts[1], exts[0]
	}
	for _, ext := range exts {
		if stem, ok = strings.CutSuffix(fileName, ext); ok {
			return stem, ext == tm.config.PartialExt, true
		}
	}
	return "", false, false
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// loader returns the partial lookup for one render: disk partials first,
// then the store.
func (tm *TemplateManager) loader(ctx context.Context) mustache.PartialLoader {
	var store mustache.PartialLoader = tm.store
	if cl, ok := tm.store.(ContextLoader); ok {
		store = cl.Loader(ctx)
	}
	return mustache.ChainLoaders(mustache.PartialMap(tm.partials), store)
}

// Execute renders the template called name, writing the output to w.
// data is the view the template is rendered against.
func (tm *TemplateManager) Execute(w io.Writer, name string, data any) error {
	return tm.ExecuteContext(context.Background(), w, name, data)
}

// ExecuteContext is Execute with a context for partial store lookups.
func (tm *TemplateManager) ExecuteContext(ctx context.Context, w io.Writer, name string, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	src, ok := tm.templates[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	return tm.renderer.RenderTo(w, src, data, tm.loader(ctx))
}

// ExecuteTemplateString renders a raw template string with the manager's
// settings and partials. This is ideal for testing or previewing templates
// without saving them to disk. The string is not cached.
func (tm *TemplateManager) ExecuteTemplateString(w io.Writer, content string, data any) error {
	return tm.ExecuteTemplateStringContext(context.Background(), w, content, data)
}

// ExecuteTemplateStringContext is ExecuteTemplateString with a context for
// partial store lookups.
func (tm *TemplateManager) ExecuteTemplateStringContext(ctx context.Context, w io.Writer, content string, data any) error {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.preview.RenderTo(w, content, data, tm.loader(ctx))
}

// HasTemplate reports whether a template called name is loaded.
func (tm *TemplateManager) HasTemplate(name string) bool {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	_, ok := tm.templates[name]
	return ok
}

// GetConfig returns a copy of the current configuration.
func (tm *TemplateManager) GetConfig() TemplateConfig {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return *tm.config.clone()
}

// GetTemplateNames returns the sorted names of the loaded full templates.
func (tm *TemplateManager) GetTemplateNames() []string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return slices.Clone(tm.templateNames)
}

// GetPartialNames returns the sorted names of the partials loaded from disk.
func (tm *TemplateManager) GetPartialNames() []string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return slices.Clone(tm.partialNames)
}

// GetTemplateDir returns the template dir that the TemplateManager uses.
func (tm *TemplateManager) GetTemplateDir() string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.templateDir
}

// ClearCache drops every compiled template. Loaded sources are kept and are
// compiled again on their next render.
func (tm *TemplateManager) ClearCache() {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	tm.renderer.ClearCache()
	tm.logger.Info("Template cache cleared")
}

// CacheLen returns the number of compiled templates currently cached.
func (tm *TemplateManager) CacheLen() int {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.renderer.CacheLen()
}

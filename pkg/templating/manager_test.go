package templating

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/CTAG07/Stache/pkg/mustache"
	"github.com/CTAG07/Stache/pkg/partials"
	_ "github.com/mattn/go-sqlite3"
)

// setupTestStore creates an in-memory partial store scoped to one test.
func setupTestStore(tb testing.TB) *partials.Store {
	tb.Helper()
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=memory&cache=shared", tb.Name()))
	if err != nil {
		tb.Fatalf("failed to open in-memory db: %v", err)
	}
	tb.Cleanup(func() { _ = db.Close() })

	if err = partials.SetupSchema(db); err != nil {
		tb.Fatalf("failed to setup partials schema: %v", err)
	}
	store, err := partials.NewStore(db)
	if err != nil {
		tb.Fatalf("failed to create partial store: %v", err)
	}
	tb.Cleanup(store.Close)
	if err = store.Put(context.Background(), "footer", "<footer>{{site}}</footer>"); err != nil {
		tb.Fatalf("failed to store partial: %v", err)
	}
	return store
}

// setupTestManager creates a TemplateManager over a temp data dir holding one
// template and one partial.
func setupTestManager(tb testing.TB) *TemplateManager {
	tb.Helper()

	dataDir := tb.TempDir()
	templatesPath := filepath.Join(dataDir, "templates")
	if err := os.Mkdir(templatesPath, 0755); err != nil {
		tb.Fatalf("failed to create templates dir: %v", err)
	}

	files := map[string]string{
		"page.tmpl.mustache":   "{{> header}}Hello {{name}}\n{{> footer}}",
		"header.part.mustache": "<h1>{{site}}</h1>\n",
		"notes.txt":            "ignored",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(templatesPath, name), []byte(content), 0644); err != nil {
			tb.Fatalf("failed to write %s: %v", name, err)
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tm, err := NewTemplateManager(logger, setupTestStore(tb), DefaultConfig(), dataDir)
	if err != nil {
		tb.Fatalf("NewTemplateManager failed: %v", err)
	}
	return tm
}

func TestNewTemplateManager(t *testing.T) {
	tm := setupTestManager(t)
	if got := tm.GetTemplateNames(); !slices.Equal(got, []string{"page"}) {
		t.Errorf("GetTemplateNames() = %v, want [page]", got)
	}
	if got := tm.GetPartialNames(); !slices.Equal(got, []string{"header"}) {
		t.Errorf("GetPartialNames() = %v, want [header]", got)
	}
	if tm.CacheLen() != 2 {
		t.Errorf("CacheLen() = %d, want both files compiled on load", tm.CacheLen())
	}
}

func TestNewTemplateManager_CreatesDir(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tm, err := NewTemplateManager(logger, nil, nil, t.TempDir())
	if err != nil {
		t.Fatalf("NewTemplateManager failed: %v", err)
	}
	if _, err = os.Stat(tm.GetTemplateDir()); err != nil {
		t.Errorf("template dir was not created: %v", err)
	}
	if len(tm.GetTemplateNames()) != 0 {
		t.Errorf("GetTemplateNames() = %v, want none", tm.GetTemplateNames())
	}
}

func TestManager_Execute(t *testing.T) {
	tm := setupTestManager(t)
	var buf bytes.Buffer
	err := tm.Execute(&buf, "page", map[string]any{"name": "<Bo>", "site": "Stache"})
	if err != nil {
		t.Fatalf("Execute failed for valid template: %v", err)
	}
	expected := "<h1>Stache</h1>\nHello &lt;Bo&gt;\n<footer>Stache</footer>"
	if buf.String() != expected {
		t.Errorf("Execute() got %q, want %q", buf.String(), expected)
	}

	err = tm.Execute(&buf, "nonexistent", nil)
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("Execute(nonexistent) error = %v, want ErrTemplateNotFound", err)
	}
	if tm.HasTemplate("nonexistent") || !tm.HasTemplate("page") {
		t.Error("HasTemplate() disagrees with the loaded set")
	}
}

func TestManager_ExecuteContextCanceled(t *testing.T) {
	tm := setupTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := tm.ExecuteContext(ctx, io.Discard, "page", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("ExecuteContext() error = %v, want context.Canceled", err)
	}
}

func TestManager_ExecuteTemplateString(t *testing.T) {
	tm := setupTestManager(t)
	var buf bytes.Buffer
	if err := tm.ExecuteTemplateString(&buf, "[{{> header}}]", map[string]any{"site": "S"}); err != nil {
		t.Fatalf("ExecuteTemplateString failed: %v", err)
	}
	if buf.String() != "[<h1>S</h1>\n]" {
		t.Errorf("ExecuteTemplateString() got %q", buf.String())
	}
	before := tm.CacheLen()
	_ = tm.ExecuteTemplateString(io.Discard, "uncached {{x}}", nil)
	if tm.CacheLen() != before {
		t.Error("ExecuteTemplateString should not add to the template cache")
	}

	var mismatch *mustache.SectionMismatchError
	if err := tm.ExecuteTemplateString(io.Discard, "{{#a}}{{/b}}", nil); !errors.As(err, &mismatch) {
		t.Errorf("ExecuteTemplateString() error = %v, want *mustache.SectionMismatchError", err)
	}
}

func TestManager_Refresh(t *testing.T) {
	tm := setupTestManager(t)

	newTmplPath := filepath.Join(tm.GetTemplateDir(), "new.tmpl.mustache")
	if err := os.WriteFile(newTmplPath, []byte(`New Content`), 0644); err != nil {
		t.Fatalf("failed to write new template: %v", err)
	}
	if err := tm.Refresh(); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if got := tm.GetTemplateNames(); !slices.Equal(got, []string{"new", "page"}) {
		t.Errorf("GetTemplateNames() after refresh = %v", got)
	}

	badPath := filepath.Join(tm.GetTemplateDir(), "bad.tmpl.mustache")
	if err := os.WriteFile(badPath, []byte(`{{#open}}`), 0644); err != nil {
		t.Fatalf("failed to write bad template: %v", err)
	}
	var unclosed *mustache.UnclosedSectionError
	if err := tm.Refresh(); !errors.As(err, &unclosed) {
		t.Fatalf("Refresh() error = %v, want *mustache.UnclosedSectionError", err)
	}
	if !tm.HasTemplate("new") || tm.HasTemplate("bad") {
		t.Error("a failed Refresh should keep the previously loaded set")
	}
}

func TestManager_SetConfig(t *testing.T) {
	tm := setupTestManager(t)

	newConfig := DefaultConfig()
	newConfig.EscapeHTML = false
	newConfig.Tags = []string{"<%", "%>"}
	if err := tm.SetConfig(newConfig); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	var buf bytes.Buffer
	if err := tm.ExecuteTemplateString(&buf, "<% v %> {{v}}", map[string]any{"v": "<i>"}); err != nil {
		t.Fatalf("ExecuteTemplateString failed: %v", err)
	}
	if buf.String() != "<i> {{v}}" {
		t.Errorf("render after SetConfig = %q, want %q", buf.String(), "<i> {{v}}")
	}
	if got := tm.GetConfig(); got.EscapeHTML || got.Tags[0] != "<%" {
		t.Errorf("GetConfig() = %+v", got)
	}

	bad := DefaultConfig()
	bad.PartialExt = bad.TemplateExt
	if err := tm.SetConfig(bad); err == nil {
		t.Error("SetConfig should reject identical extensions")
	}
	if tm.GetConfig().Tags[0] != "<%" {
		t.Error("a rejected config should leave the current one in place")
	}
}

func TestManager_SetConfigNewExtension(t *testing.T) {
	tm := setupTestManager(t)
	cfg := DefaultConfig()
	cfg.TemplateExt = ".mustache"
	if err := tm.SetConfig(cfg); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	if got := tm.GetTemplateNames(); !slices.Equal(got, []string{"page.tmpl"}) {
		t.Errorf("GetTemplateNames() = %v, want [page.tmpl]", got)
	}
	if got := tm.GetPartialNames(); !slices.Equal(got, []string{"header"}) {
		t.Errorf("GetPartialNames() = %v, want the longer extension to win", got)
	}
}

func TestManager_ClearCache(t *testing.T) {
	tm := setupTestManager(t)
	tm.ClearCache()
	if tm.CacheLen() != 0 {
		t.Errorf("CacheLen() = %d after ClearCache", tm.CacheLen())
	}
	_ = tm.Execute(io.Discard, "page", nil)
	if tm.CacheLen() == 0 {
		t.Error("Execute should repopulate the cache")
	}
}

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*TemplateConfig)
		ok     bool
	}{
		{"default", func(*TemplateConfig) {}, true},
		{"empty tags use default", func(c *TemplateConfig) { c.Tags = nil }, true},
		{"one tag", func(c *TemplateConfig) { c.Tags = []string{"{{"} }, false},
		{"empty tag", func(c *TemplateConfig) { c.Tags = []string{"{{", ""} }, false},
		{"negative depth", func(c *TemplateConfig) { c.MaxPartialDepth = -1 }, false},
		{"ext without dot", func(c *TemplateConfig) { c.TemplateExt = "tmpl" }, false},
		{"ext with slash", func(c *TemplateConfig) { c.PartialExt = ".a/b" }, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); (err == nil) != tc.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tc.ok)
			}
		})
	}
}

func BenchmarkExecute_Page(b *testing.B) {
	tm := setupTestManager(b)
	data := map[string]any{"name": "Bo", "site": strings.Repeat("s", 64)}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := tm.Execute(io.Discard, "page", data); err != nil {
			b.Fatal(err)
		}
	}
}

package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestServer builds a Server over an in-memory database and a temp data
// dir holding an index, a 404 page and a hello page.
func setupTestServer(t *testing.T) *Server {
	t.Helper()

	dataDir := t.TempDir()
	templatesPath := filepath.Join(dataDir, "templates")
	if err := os.MkdirAll(templatesPath, 0755); err != nil {
		t.Fatalf("failed to create templates dir: %v", err)
	}
	files := map[string]string{
		"index.tmpl.mustache": "<p>{{Name}} {{Query.q}}</p>",
		"404.tmpl.mustache":   "missing {{Name}}{{#Suggestions}} {{.}}{{/Suggestions}}",
		"hello.tmpl.mustache": "Hello {{Query.who}}",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(templatesPath, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("failed to open in-memory db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err = setupSchemas(db); err != nil {
		t.Fatalf("failed to setup schemas: %v", err)
	}

	config := defaultConfig()
	config.Server.DataDir = dataDir
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cm := &ConfigManager{
		config:     config,
		configPath: filepath.Join(dataDir, "config.json"),
		logger:     logger,
	}

	server, err := NewServer(cm, logger, db, make(chan string, 1))
	if err != nil {
		t.Fatalf("NewServer() failed: %v", err)
	}
	t.Cleanup(server.Close)
	return server
}

func doRequest(h http.Handler, method, target, key string, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if key != "" {
		req.Header.Set(authHeader, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func TestPageServer(t *testing.T) {
	s := setupTestServer(t)

	testCases := []struct {
		name       string
		method     string
		target     string
		wantStatus int
		wantBody   string
	}{
		{"Index", http.MethodGet, "/?q=x", http.StatusOK, "<p>index x</p>"},
		{"Named page", http.MethodGet, "/hello?who=%3Cyou%3E", http.StatusOK, "Hello &lt;you&gt;"},
		{"Trailing slash", http.MethodGet, "/hello/", http.StatusOK, "Hello "},
		{"Head", http.MethodHead, "/hello", http.StatusOK, ""},
		{"Not found with suggestion", http.MethodGet, "/helo", http.StatusNotFound, "missing helo hello"},
		{"Favicon", http.MethodGet, "/favicon.ico", http.StatusNoContent, ""},
		{"Wrong method", http.MethodPost, "/hello", http.StatusMethodNotAllowed, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(s.pageMux, tc.method, tc.target, "", "")
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body %q)", rec.Code, tc.wantStatus, rec.Body.String())
			}
			if tc.wantBody != "" && rec.Body.String() != tc.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tc.wantBody)
			}
		})
	}

	rec := doRequest(s.pageMux, http.MethodGet, "/", "", "")
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if xc := rec.Header().Get("X-Content-Type-Options"); xc != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", xc)
	}
}

func TestPageServer_PlainNotFound(t *testing.T) {
	s := setupTestServer(t)
	if err := s.tm.RemoveTemplateFile("404.tmpl.mustache"); err != nil {
		t.Fatalf("RemoveTemplateFile() failed: %v", err)
	}

	rec := doRequest(s.pageMux, http.MethodGet, "/indx", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/index") {
		t.Errorf("body %q does not suggest /index", rec.Body.String())
	}
}

func TestHealthIsUnauthenticated(t *testing.T) {
	s := setupTestServer(t)
	master := createKey(t, s, "", `{"description":"master"}`)

	if rec := doRequest(s.apiMux, http.MethodGet, "/api/health", "", ""); rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
	if rec := doRequest(s.apiMux, http.MethodGet, "/api/templates", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", rec.Code)
	}
	if rec := doRequest(s.apiMux, http.MethodGet, "/api/templates", "stache_bogus", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("bogus key status = %d, want 401", rec.Code)
	}
	if rec := doRequest(s.apiMux, http.MethodGet, "/api/templates", master, ""); rec.Code != http.StatusOK {
		t.Errorf("master key status = %d, want 200", rec.Code)
	}
}

func createKey(t *testing.T, s *Server, key, body string) string {
	t.Helper()
	rec := doRequest(s.apiMux, http.MethodPost, "/api/auth/keys", key, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create key status = %d, body %q", rec.Code, rec.Body.String())
	}
	var resp CreateKeyResponse
	decodeJSON(t, rec, &resp)
	return resp.RawKey
}

func TestAuthScopes(t *testing.T) {
	s := setupTestServer(t)

	// The first key is a master key whatever it asks for.
	master := createKey(t, s, "", `{"scopes":["render"],"description":"first"}`)
	renderOnly := createKey(t, s, master, `{"scopes":["render"],"description":"renderer"}`)

	rec := doRequest(s.apiMux, http.MethodGet, "/api/auth/me", master, "")
	var me struct {
		KeyID  int      `json:"key_id"`
		Scopes []string `json:"scopes"`
	}
	decodeJSON(t, rec, &me)
	if me.KeyID != 1 || len(me.Scopes) != 1 || me.Scopes[0] != "*" {
		t.Errorf("master key = %+v, want id 1 with scope *", me)
	}

	if rec = doRequest(s.apiMux, http.MethodPost, "/api/render", renderOnly, `{"template":"ok"}`); rec.Code != http.StatusOK {
		t.Errorf("render with render scope = %d, want 200", rec.Code)
	}
	if rec = doRequest(s.apiMux, http.MethodGet, "/api/partials", renderOnly, ""); rec.Code != http.StatusForbidden {
		t.Errorf("partials with render scope = %d, want 403", rec.Code)
	}
	if rec = doRequest(s.apiMux, http.MethodDelete, "/api/auth/keys/1", master, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("delete master key = %d, want 400", rec.Code)
	}
	if rec = doRequest(s.apiMux, http.MethodDelete, "/api/auth/keys/2", master, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete key 2 = %d, want 204", rec.Code)
	}
	if rec = doRequest(s.apiMux, http.MethodPost, "/api/render", renderOnly, `{"template":"ok"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("render with deleted key = %d, want 401", rec.Code)
	}
}

func TestRenderAPI(t *testing.T) {
	s := setupTestServer(t)
	if rec := doRequest(s.apiMux, http.MethodPost, "/api/partials", "", `{"name":"sig","body":"-- {{name}}"}`); rec.Code != http.StatusCreated {
		t.Fatalf("store partial status = %d, body %q", rec.Code, rec.Body.String())
	}

	testCases := []struct {
		name       string
		body       string
		wantStatus int
		wantOutput string
	}{
		{"Escaped", `{"template":"Hi {{name}}","view":{"name":"<b>"}}`, http.StatusOK, "Hi &lt;b&gt;"},
		{"Escape off", `{"template":"Hi {{name}}","view":{"name":"<b>"},"escape":false}`, http.StatusOK, "Hi <b>"},
		{"Inline partial", `{"template":"{{> p}}!","view":{"x":1},"partials":{"p":"{{x}}"}}`, http.StatusOK, "1!"},
		{"Stored partial", `{"template":"{{> sig}}","view":{"name":"Bo"}}`, http.StatusOK, "-- Bo"},
		{"Inline beats stored", `{"template":"{{> sig}}","partials":{"sig":"mine"}}`, http.StatusOK, "mine"},
		{"Custom tags", `{"template":"<% x %>","view":{"x":2.5},"tags":["<%","%>"]}`, http.StatusOK, "2.5"},
		{"Section list", `{"template":"{{#xs}}[{{.}}]{{/xs}}","view":{"xs":[1,2]}}`, http.StatusOK, "[1][2]"},
		{"Non-string template", `{"template":42}`, http.StatusBadRequest, ""},
		{"Unclosed section", `{"template":"{{#a}}"}`, http.StatusBadRequest, ""},
		{"Bad tags", `{"template":"x","tags":["{{"]}`, http.StatusBadRequest, ""},
		{"Bad JSON", `{`, http.StatusBadRequest, ""},
		{"Self including partial", `{"template":"{{> a}}","partials":{"a":"x{{> a}}"}}`, http.StatusBadRequest, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(s.apiMux, http.MethodPost, "/api/render", "", tc.body)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body %q)", rec.Code, tc.wantStatus, rec.Body.String())
			}
			if tc.wantStatus != http.StatusOK {
				return
			}
			var resp RenderResponse
			decodeJSON(t, rec, &resp)
			if resp.Output != tc.wantOutput {
				t.Errorf("output = %q, want %q", resp.Output, tc.wantOutput)
			}
		})
	}
}

func TestRenderAPI_DepthAndCache(t *testing.T) {
	s := setupTestServer(t)
	// A disabled limit in the config still leaves ad hoc renders bounded.
	s.cm.config.Templates.MaxPartialDepth = 0

	rec := doRequest(s.apiMux, http.MethodPost, "/api/render", "", `{"template":"{{> a}}","partials":{"a":"{{> a}}"}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("recursive render status = %d, want 400 (body %q)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "depth") {
		t.Errorf("body %q does not report the depth limit", rec.Body.String())
	}

	for i := 0; i < 5; i++ {
		body := fmt.Sprintf(`{"template":"n%d {{x}}"}`, i)
		if rec = doRequest(s.apiMux, http.MethodPost, "/api/render", "", body); rec.Code != http.StatusOK {
			t.Fatalf("render status = %d", rec.Code)
		}
	}
	if n := s.renderAPI.renderer.CacheLen(); n != 0 {
		t.Errorf("render cache holds %d templates, want 0", n)
	}
}

func TestPartialAPI(t *testing.T) {
	s := setupTestServer(t)

	if rec := doRequest(s.apiMux, http.MethodPost, "/api/partials", "", `{"name":"greet","body":"Hi {{Name}}"}`); rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %q", rec.Code, rec.Body.String())
	}
	if rec := doRequest(s.apiMux, http.MethodPost, "/api/partials", "", `{"name":"broken","body":"{{/x}}"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("broken body status = %d, want 400", rec.Code)
	}
	if rec := doRequest(s.apiMux, http.MethodPost, "/api/partials", "", `{"name":"two words","body":"x"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid name status = %d, want 400", rec.Code)
	}
	if rec := doRequest(s.apiMux, http.MethodGet, "/api/partials/nope", "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing partial status = %d, want 404", rec.Code)
	}

	// A page template picks the stored partial up.
	if rec := doRequest(s.apiMux, http.MethodPut, "/api/templates/greet.tmpl.mustache", "", "{{> greet}}!"); rec.Code != http.StatusNoContent {
		t.Fatalf("write template status = %d, body %q", rec.Code, rec.Body.String())
	}
	if rec := doRequest(s.pageMux, http.MethodGet, "/greet", "", ""); rec.Body.String() != "Hi greet!" {
		t.Errorf("page body = %q, want %q", rec.Body.String(), "Hi greet!")
	}

	rec := doRequest(s.apiMux, http.MethodPut, "/api/partials/greet", "", `{"body":"Yo {{Name}}"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %q", rec.Code, rec.Body.String())
	}
	if rec = doRequest(s.pageMux, http.MethodGet, "/greet", "", ""); rec.Body.String() != "Yo greet!" {
		t.Errorf("page body after update = %q, want %q", rec.Body.String(), "Yo greet!")
	}

	rec = doRequest(s.apiMux, http.MethodGet, "/api/partials/export", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	exported := rec.Body.String()

	if rec = doRequest(s.apiMux, http.MethodDelete, "/api/partials/greet", "", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec = doRequest(s.apiMux, http.MethodDelete, "/api/partials/greet", "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}

	rec = doRequest(s.apiMux, http.MethodPost, "/api/partials/import", "", exported)
	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d, body %q", rec.Code, rec.Body.String())
	}
	var imported map[string]int
	decodeJSON(t, rec, &imported)
	if imported["imported"] != 1 {
		t.Errorf("imported = %d, want 1", imported["imported"])
	}
	if rec = doRequest(s.apiMux, http.MethodGet, "/api/partials/greet", "", ""); rec.Code != http.StatusOK {
		t.Errorf("get after import status = %d", rec.Code)
	}
}

func TestTemplateAPI(t *testing.T) {
	s := setupTestServer(t)

	rec := doRequest(s.apiMux, http.MethodGet, "/api/templates", "", "")
	var list TemplateList
	decodeJSON(t, rec, &list)
	if strings.Join(list.Templates, ",") != "404,hello,index" {
		t.Errorf("templates = %v", list.Templates)
	}

	testCases := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
	}{
		{"Read", http.MethodGet, "/api/templates/hello.tmpl.mustache", "", http.StatusOK},
		{"Read missing", http.MethodGet, "/api/templates/nope.tmpl.mustache", "", http.StatusNotFound},
		{"Bad extension", http.MethodPut, "/api/templates/bad.txt", "x", http.StatusBadRequest},
		{"Hidden file", http.MethodPut, "/api/templates/.x.tmpl.mustache", "x", http.StatusBadRequest},
		{"Broken template", http.MethodPut, "/api/templates/b.tmpl.mustache", "{{#a}}", http.StatusBadRequest},
		{"Write partial", http.MethodPut, "/api/templates/nav.part.mustache", "<nav/>", http.StatusNoContent},
		{"Delete missing", http.MethodDelete, "/api/templates/nope.tmpl.mustache", "", http.StatusNotFound},
		{"Test string", http.MethodPost, "/api/templates/test", "{{> nav}}{{Name}}", http.StatusOK},
		{"Test broken", http.MethodPost, "/api/templates/test", "{{/x}}", http.StatusBadRequest},
		{"Preview", http.MethodGet, "/api/templates/preview?name=hello", "", http.StatusOK},
		{"Preview missing", http.MethodGet, "/api/templates/preview?name=helo", "", http.StatusNotFound},
		{"Preview no name", http.MethodGet, "/api/templates/preview", "", http.StatusBadRequest},
		{"Refresh", http.MethodPost, "/api/templates/refresh", "", http.StatusNoContent},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(s.apiMux, tc.method, tc.target, "", tc.body)
			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d (body %q)", rec.Code, tc.wantStatus, rec.Body.String())
			}
		})
	}

	rec = doRequest(s.apiMux, http.MethodPost, "/api/templates/test", "", "{{> nav}}{{Name}}")
	if rec.Body.String() != "<nav/>test" {
		t.Errorf("test body = %q, want %q", rec.Body.String(), "<nav/>test")
	}

	rec = doRequest(s.apiMux, http.MethodGet, "/api/templates/preview?name=helo", "", "")
	var missing struct {
		Suggestions []string `json:"suggestions"`
	}
	decodeJSON(t, rec, &missing)
	if len(missing.Suggestions) == 0 || missing.Suggestions[0] != "hello" {
		t.Errorf("suggestions = %v, want [hello ...]", missing.Suggestions)
	}
}

func TestStatsAPI(t *testing.T) {
	s := setupTestServer(t)

	for _, target := range []string{"/", "/", "/hello", "/nope"} {
		doRequest(s.pageMux, http.MethodGet, target, "", "")
	}

	rec := doRequest(s.apiMux, http.MethodGet, "/api/stats/summary", "", "")
	var summary GlobalStatsSummary
	decodeJSON(t, rec, &summary)
	// The 404 page is rendered outside the counters.
	if summary.TotalRenders != 3 || summary.UniqueTemplates != 2 || summary.TotalMisses != 1 {
		t.Errorf("summary = %+v, want 3 renders of 2 templates and 1 miss", summary)
	}

	rec = doRequest(s.apiMux, http.MethodGet, "/api/stats/templates", "", "")
	var templates []TemplateStats
	decodeJSON(t, rec, &templates)
	if len(templates) != 2 || templates[0].Template != "index" || templates[0].Renders != 2 {
		t.Errorf("template stats = %+v, want index first with 2 renders", templates)
	}

	rec = doRequest(s.apiMux, http.MethodGet, "/api/stats/misses", "", "")
	var misses []MissStats
	decodeJSON(t, rec, &misses)
	if len(misses) != 1 || misses[0].Path != "nope" {
		t.Errorf("misses = %+v, want [nope]", misses)
	}
}

func TestServerAPI(t *testing.T) {
	s := setupTestServer(t)

	rec := doRequest(s.apiMux, http.MethodGet, "/api/server/config", "", "")
	var config Config
	decodeJSON(t, rec, &config)
	if config.Server == nil || config.Templates == nil || config.Server.IndexTemplate != "index" {
		t.Fatalf("config = %+v", config)
	}

	// Switching delimiters recompiles the directory with the new tags; the
	// existing {{ }} files stay valid text under <% %>.
	config.Templates.Tags = []string{"<%", "%>"}
	body, _ := json.Marshal(config)
	if rec = doRequest(s.apiMux, http.MethodPut, "/api/server/config", "", string(body)); rec.Code != http.StatusOK {
		t.Fatalf("update config status = %d, body %q", rec.Code, rec.Body.String())
	}
	if got := s.tm.GetConfig().Tags; strings.Join(got, " ") != "<% %>" {
		t.Errorf("template manager tags = %v", got)
	}
	if _, err := os.Stat(s.cm.configPath); err != nil {
		t.Errorf("config file not written: %v", err)
	}

	config.Templates.Tags = []string{"{{"}
	body, _ = json.Marshal(config)
	if rec = doRequest(s.apiMux, http.MethodPut, "/api/server/config", "", string(body)); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid config status = %d, want 400", rec.Code)
	}
	if got := s.cm.Get().Templates.Tags; strings.Join(got, " ") != "<% %>" {
		t.Errorf("rejected update changed tags to %v", got)
	}

	// A config that cannot be saved is not applied either.
	s.cm.configPath = filepath.Join(t.TempDir(), "missing", "config.json")
	config.Templates.Tags = []string{"[[", "]]"}
	body, _ = json.Marshal(config)
	if rec = doRequest(s.apiMux, http.MethodPut, "/api/server/config", "", string(body)); rec.Code != http.StatusInternalServerError {
		t.Errorf("unsaved config status = %d, want 500", rec.Code)
	}
	if got := s.cm.Get().Templates.Tags; strings.Join(got, " ") != "<% %>" {
		t.Errorf("unsaved update changed config tags to %v", got)
	}
	if got := s.tm.GetConfig().Tags; strings.Join(got, " ") != "<% %>" {
		t.Errorf("unsaved update changed template manager tags to %v", got)
	}

	rec = doRequest(s.apiMux, http.MethodGet, "/api/server/version", "", "")
	var version VersionInfo
	decodeJSON(t, rec, &version)
	if version.Version != Version {
		t.Errorf("version = %q, want %q", version.Version, Version)
	}

	doRequest(s.pageMux, http.MethodGet, "/", "", "")
	rec = doRequest(s.apiMux, http.MethodGet, "/api/server/cache", "", "")
	var cache CacheInfo
	decodeJSON(t, rec, &cache)
	if cache.Templates == 0 {
		t.Errorf("cache = %+v, want compiled templates", cache)
	}
	if rec = doRequest(s.apiMux, http.MethodDelete, "/api/server/cache", "", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("clear cache status = %d", rec.Code)
	}
	if n := s.tm.CacheLen(); n != 0 {
		t.Errorf("CacheLen() after clear = %d, want 0", n)
	}
}

func TestServerAPI_Actions(t *testing.T) {
	s := setupTestServer(t)
	actions := make(chan string, 1)
	s.serverAPI.actionChan = actions

	rec := doRequest(s.apiMux, http.MethodPost, "/api/server/restart", "", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("restart status = %d", rec.Code)
	}
	if action := <-actions; action != actionRestart {
		t.Errorf("action = %q, want %q", action, actionRestart)
	}
	if rec = doRequest(s.apiMux, http.MethodGet, "/api/server/shutdown", "", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET shutdown status = %d, want 405", rec.Code)
	}
}

func TestLimitBody(t *testing.T) {
	s := setupTestServer(t)
	s.cm.config.Server.MaxBodyBytes = 16

	body := `{"template":"` + strings.Repeat("x", 64) + `"}`
	rec := doRequest(s.apiMux, http.MethodPost, "/api/render", "", body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("oversized body status = %d, want 400", rec.Code)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() on missing file failed: %v", err)
	}
	if config.Server.ApiAddr != ":7278" {
		t.Errorf("default ApiAddr = %q", config.Server.ApiAddr)
	}
	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("defaults not written: %v", err)
	}
	if !bytes.Contains(written, []byte(`"template_config"`)) {
		t.Errorf("written config lacks template_config: %s", written)
	}

	if err = os.WriteFile(path, []byte(`{"server_config":{"api_addr":":9000","max_body_bytes":10}}`), 0644); err != nil {
		t.Fatal(err)
	}
	config, err = LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if config.Server.ApiAddr != ":9000" || config.Templates.TemplateExt != ".tmpl.mustache" {
		t.Errorf("config = %+v / %+v", config.Server, config.Templates)
	}

	if err = os.WriteFile(path, []byte(`{"template_config":{"tags":["<%"]}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err = LoadConfig(path); err == nil {
		t.Error("LoadConfig() accepted invalid tags")
	}
}

func TestPageName(t *testing.T) {
	testCases := []struct {
		path, want string
	}{
		{"/", "index"},
		{"", "index"},
		{"/about", "about"},
		{"/about/", "about"},
		{"/docs/intro", "docs/intro"},
	}
	for _, tc := range testCases {
		if got := pageName(tc.path, "index"); got != tc.want {
			t.Errorf("pageName(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

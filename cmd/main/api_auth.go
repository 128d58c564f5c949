package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

const authSchema = `
CREATE TABLE IF NOT EXISTS api_keys (
    id            INTEGER   PRIMARY KEY,
    key_hash      TEXT      NOT NULL UNIQUE,
    scopes        TEXT      NOT NULL,
    description   TEXT      NOT NULL,
    created_at    INTEGER   NOT NULL DEFAULT 0
);
`

// authHeader carries the raw API key on every authenticated request.
const authHeader = "stache-auth"

// Scopes understood by the API. "*" grants all of them.
const (
	scopeAuthManage     = "auth:manage"
	scopeTemplatesRead  = "templates:read"
	scopeTemplatesWrite = "templates:write"
	scopePartialsRead   = "partials:read"
	scopePartialsWrite  = "partials:write"
	scopeRender         = "render"
	scopeStatsRead      = "stats:read"
	scopeServerConfig   = "server:config"
	scopeServerControl  = "server:control"
)

type contextKey string

const contextKeyPermissions = contextKey("permissions")

// Permissions holds the authentication info for a request.
type Permissions struct {
	KeyID    int
	ScopeSet map[string]struct{}
}

// AuthAPI holds the dependencies for the authentication API handlers.
type AuthAPI struct {
	db     *sql.DB
	logger *slog.Logger
}

func setupAuthSchema(db *sql.DB) error {
	_, err := db.Exec(authSchema)
	return err
}

func NewAuthAPI(db *sql.DB, logger *slog.Logger) *AuthAPI {
	return &AuthAPI{
		db:     db,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/auth endpoints.
func (a *AuthAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/me", a.handleCheckMe)
	mux.HandleFunc("/api/auth/keys", a.handleKeys)
	mux.HandleFunc("/api/auth/keys/", a.handleKeyByID)
}

// APIKeyInfo is the structure returned when listing keys.
type APIKeyInfo struct {
	ID          int       `json:"id"`
	Scopes      []string  `json:"scopes"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateKeyRequest is the expected JSON body for creating a new key.
type CreateKeyRequest struct {
	Scopes      []string `json:"scopes"`
	Description string   `json:"description"`
}

// CreateKeyResponse is the JSON response after creating a key. RawKey is
// only ever shown here; the database keeps its hash.
type CreateKeyResponse struct {
	ID     int      `json:"id"`
	RawKey string   `json:"raw_key"`
	Scopes []string `json:"scopes"`
}

// Authenticate resolves the key in the stache-auth header to its scopes.
// While no key exists the API is open and every request has the master scope,
// so that the first key can be created.
func (a *AuthAPI) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var keyCount int
		err := a.db.QueryRowContext(r.Context(), "SELECT COUNT(*) FROM api_keys").Scan(&keyCount)
		if err != nil {
			a.logger.Error("Authenticate failed to count keys", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		if keyCount == 0 {
			ctx := context.WithValue(r.Context(), contextKeyPermissions, &Permissions{ScopeSet: map[string]struct{}{"*": {}}})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		apiKey := r.Header.Get(authHeader)
		if apiKey == "" {
			respondWithError(w, http.StatusUnauthorized, "Missing API key")
			return
		}

		perms := &Permissions{}
		var scopesStr string
		err = a.db.QueryRowContext(r.Context(), "SELECT id, scopes FROM api_keys WHERE key_hash = ?", hashAPIKey(apiKey)).Scan(&perms.KeyID, &scopesStr)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				a.logger.Debug("Rejected unknown API key", "remote_addr", r.RemoteAddr)
				respondWithError(w, http.StatusUnauthorized, "Invalid API key")
				return
			}
			a.logger.Error("Authenticate failed to query API key", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		perms.ScopeSet = parseScopes(scopesStr)

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKeyPermissions, perms)))
	})
}

func parseScopes(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func (a *AuthAPI) handleKeys(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	if r.Method == http.MethodPost {
		a.createKey(w, r)
		return
	}
	a.listKeys(w, r)
}

// handleKeyByID serves DELETE /api/auth/keys/{id}.
func (a *AuthAPI) handleKeyByID(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodDelete) {
		return
	}
	id, err := strconv.Atoi(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/auth/keys/"), "/"))
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid key ID in URL")
		return
	}
	a.deleteKey(w, r, id)
}

// handleCheckMe reports the key and scopes the request authenticated with.
func (a *AuthAPI) handleCheckMe(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	perms, ok := r.Context().Value(contextKeyPermissions).(*Permissions)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Invalid or missing API key")
		return
	}
	var scopes []string
	for scope := range perms.ScopeSet {
		scopes = append(scopes, scope)
	}
	slices.Sort(scopes)
	respondWithJSON(w, http.StatusOK, map[string]any{
		"key_id": perms.KeyID,
		"scopes": scopes,
	})
}

func (a *AuthAPI) listKeys(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, scopeAuthManage) {
		return
	}

	rows, err := a.db.QueryContext(r.Context(), `SELECT id, description, scopes, created_at FROM api_keys ORDER BY id`)
	if err != nil {
		a.logger.Error("Failed to query API keys", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Database query failed")
		return
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	keys := make([]APIKeyInfo, 0)
	for rows.Next() {
		var key APIKeyInfo
		var scopesStr string
		var created int64
		if err = rows.Scan(&key.ID, &key.Description, &scopesStr, &created); err != nil {
			a.logger.Error("Failed to scan API key row", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to process database results")
			return
		}
		key.Scopes = strings.Fields(scopesStr)
		key.CreatedAt = time.Unix(created, 0)
		keys = append(keys, key)
	}
	respondWithJSON(w, http.StatusOK, keys)
}

func (a *AuthAPI) createKey(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, scopeAuthManage) {
		return
	}

	var req CreateKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	for _, s := range req.Scopes {
		if strings.ContainsFunc(s, func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' }) {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid scope %q", s))
			return
		}
	}

	rawKey, err := generateAPIKey()
	if err != nil {
		a.logger.Error("Failed to generate new API key", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Key generation failed")
		return
	}

	var keyCount int
	_ = a.db.QueryRowContext(r.Context(), "SELECT COUNT(*) FROM api_keys").Scan(&keyCount)
	scopesStr := strings.Join(req.Scopes, " ")
	// The first key is always a master key so that the API cannot be locked.
	if keyCount == 0 {
		scopesStr = "*"
	}

	var newID int
	err = a.db.QueryRowContext(r.Context(),
		`INSERT INTO api_keys (key_hash, description, scopes, created_at) VALUES (?, ?, ?, ?) RETURNING id`,
		hashAPIKey(rawKey), req.Description, scopesStr, time.Now().Unix()).Scan(&newID)
	if err != nil {
		a.logger.Error("Failed to insert new API key", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to save new key")
		return
	}

	a.logger.Info("API key created", "id", newID, "scopes", scopesStr)
	respondWithJSON(w, http.StatusCreated, CreateKeyResponse{
		ID:     newID,
		RawKey: rawKey,
		Scopes: strings.Fields(scopesStr),
	})
}

func (a *AuthAPI) deleteKey(w http.ResponseWriter, r *http.Request, id int) {
	if !requireScope(w, r, scopeAuthManage) {
		return
	}
	if id == 1 {
		respondWithError(w, http.StatusBadRequest, "Cannot delete the primary master key (ID 1)")
		return
	}

	res, err := a.db.ExecContext(r.Context(), "DELETE FROM api_keys WHERE id = ?", id)
	if err != nil {
		a.logger.Error("Failed to delete API key", "id", id, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to delete key")
		return
	}
	if rowsAffected, _ := res.RowsAffected(); rowsAffected == 0 {
		respondWithError(w, http.StatusNotFound, "Key not found")
		return
	}
	a.logger.Info("API key deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// hasScope checks if the permission set in the request context includes a required scope.
func hasScope(r *http.Request, requiredScope string) bool {
	perms, ok := r.Context().Value(contextKeyPermissions).(*Permissions)
	if !ok {
		return false
	}
	if _, isMaster := perms.ScopeSet["*"]; isMaster {
		return true
	}
	_, has := perms.ScopeSet[requiredScope]
	return has
}

// requireScope answers 403 and returns false when the request lacks scope.
func requireScope(w http.ResponseWriter, r *http.Request, scope string) bool {
	if hasScope(r, scope) {
		return true
	}
	respondWithError(w, http.StatusForbidden, fmt.Sprintf("Forbidden: requires '%s' scope", scope))
	return false
}

func generateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return "stache_" + hex.EncodeToString(buf), nil
}

func hashAPIKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

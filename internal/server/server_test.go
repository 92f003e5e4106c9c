package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/perpetrator1/Cache-Quest/internal/cachequest"
	"github.com/perpetrator1/Cache-Quest/internal/database"
	"github.com/perpetrator1/Cache-Quest/internal/migrations"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Every pooled connection to :memory: is a separate database; pin the
	// pool to one so all queries see the migrated schema.
	db.SetMaxOpenConns(1)

	if err := migrations.Run(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return NewSQLiteStore(db)
}

// newAccount creates a participant with a session and returns both.
func newAccount(t *testing.T, store *SQLiteStore, username string, role cachequest.Role) (cachequest.Participant, string) {
	t.Helper()
	ctx := context.Background()

	p, err := store.CreateParticipant(ctx, username, "", role)
	if err != nil {
		t.Fatalf("create participant %q: %v", username, err)
	}
	token, err := store.CreateSession(ctx, p.ID)
	if err != nil {
		t.Fatalf("create session for %q: %v", username, err)
	}
	return p, token
}

func newSpot(t *testing.T, store *SQLiteStore, name, code string) cachequest.Spot {
	t.Helper()

	spot, err := store.CreateSpot(context.Background(), cachequest.Spot{
		Name:              name,
		Clue:              "Under the red bench",
		Lat:               37.7749,
		Lng:               -122.4194,
		FuzzyRadiusMeters: 25,
		Code:              code,
	})
	if err != nil {
		t.Fatalf("create spot %q: %v", name, err)
	}
	return spot
}

type testEnv struct {
	router   *chi.Mux
	store    *SQLiteStore
	registry *Registry
}

func newTestRouter(store *SQLiteStore, registry *Registry, claimRatePerHour int) *chi.Mux {
	r := chi.NewRouter()
	addRoutes(r, discardLogger(), store.db, store, registry, claimRatePerHour)
	return r
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	store := setupStore(t)
	registry := NewRegistry()
	return &testEnv{
		router:   newTestRouter(store, registry, 1000),
		store:    store,
		registry: registry,
	}
}

// do executes an authenticated request against the test router and returns
// the recorder.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestAuthMiddleware(t *testing.T) {
	env := setupEnv(t)

	w := env.do(t, http.MethodGet, "/api/spots", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/api/spots", "bogus-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", w.Code)
	}

	p, token := newAccount(t, env.store, "walker", cachequest.RoleParticipant)
	w = env.do(t, http.MethodGet, "/api/spots", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d: %s", w.Code, w.Body.String())
	}

	// Deactivation locks the account out while keeping it on record.
	inactive := false
	if _, err := env.store.UpdateParticipant(context.Background(), p.ID, ParticipantUpdate{IsActive: &inactive}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	w = env.do(t, http.MethodGet, "/api/spots", token, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for deactivated account, got %d", w.Code)
	}
}

func TestRequireOperator(t *testing.T) {
	env := setupEnv(t)
	_, token := newAccount(t, env.store, "walker", cachequest.RoleParticipant)

	w := env.do(t, http.MethodGet, "/api/admin/spots", token, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-operator, got %d", w.Code)
	}

	_, opToken := newAccount(t, env.store, "ranger", cachequest.RoleOperator)
	w = env.do(t, http.MethodGet, "/api/admin/spots", opToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for operator, got %d: %s", w.Code, w.Body.String())
	}
}

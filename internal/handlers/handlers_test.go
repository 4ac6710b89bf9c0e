package handlers

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/content"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/database"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/editor"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/middleware"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/publish"
)

//go:embed testdata/templates
var testTemplateFS embed.FS

// testDB creates a fresh in-memory SQLite database with migrations applied.
func testDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// testTemplateCache builds a template cache from the stub templates.
func testTemplateCache(t testing.TB) TemplateCache {
	t.Helper()

	sub, err := fs.Sub(testTemplateFS, "testdata")
	if err != nil {
		t.Fatalf("sub testdata FS: %v", err)
	}
	tc, err := NewTemplateCache(sub)
	if err != nil {
		t.Fatalf("parse test templates: %v", err)
	}
	return tc
}

// testSessionManager creates an in-memory session manager for tests.
func testSessionManager() *scs.SessionManager {
	sm := scs.New()
	sm.Lifetime = 12 * time.Hour
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	return sm
}

// testStore returns a store hydrated from the embedded fallback documents.
func testStore(t testing.TB, db *sql.DB) *content.Store {
	t.Helper()
	store := content.NewStore(db)
	if _, err := store.Hydrate(context.Background(), nil); err != nil {
		t.Fatalf("hydrate store: %v", err)
	}
	return store
}

// testRegistry returns a registry over store that publishes with the
// settings in db.
func testRegistry(db *sql.DB, store *content.Store) *editor.Registry {
	return editor.NewRegistry(store, publish.New(db))
}

// newRequest builds a request with an optional url-encoded form body.
func newRequest(method, target string, body url.Values) *http.Request {
	if body == nil {
		return httptest.NewRequest(method, target, nil)
	}
	r := httptest.NewRequest(method, target, strings.NewReader(body.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

// withEditor sets the editor session in context as RequireOperator does.
func withEditor(r *http.Request, s *editor.Session) *http.Request {
	return r.WithContext(middleware.WithEditor(r.Context(), s))
}

// withURLParams sets chi route parameters on the request.
func withURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// serve runs h inside the session middleware, replaying cookies from an
// earlier response when prev is non-nil.
func serve(sm *scs.SessionManager, h http.HandlerFunc, r *http.Request, prev *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	if prev != nil {
		for _, c := range prev.Result().Cookies() {
			r.AddCookie(c)
		}
	}
	rr := httptest.NewRecorder()
	sm.LoadAndSave(h).ServeHTTP(rr, r)
	return rr
}

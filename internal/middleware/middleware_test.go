package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/content"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/database"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/editor"
)

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

func testSessionManager() *scs.SessionManager {
	sm := scs.New()
	sm.Lifetime = 12 * time.Hour
	return sm
}

func testRegistry(t testing.TB) *editor.Registry {
	t.Helper()
	store := content.NewStore(testDB(t))
	if _, err := store.Hydrate(context.Background(), nil); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	return editor.NewRegistry(store, nil)
}

// withCookies copies the response cookies of a previous request onto req.
func withCookies(req *http.Request, prev *httptest.ResponseRecorder) *http.Request {
	for _, c := range prev.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

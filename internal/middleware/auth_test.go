package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/editor"
)

func TestRequireOperator_RedirectsWithoutSession(t *testing.T) {
	sm := testSessionManager()
	reg := testRegistry(t)

	handler := sm.LoadAndSave(RequireOperator(sm, reg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called without an editor session")
	})))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/admin", nil))

	if rr.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != LoginPath {
		t.Errorf("expected redirect to %s, got %q", LoginPath, loc)
	}
}

func TestRequireOperator_SetsEditorInContext(t *testing.T) {
	sm := testSessionManager()
	reg := testRegistry(t)
	s := reg.Open()

	setup := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sm.Put(r.Context(), EditorSessionKey, s.ID)
	}))
	setupRR := httptest.NewRecorder()
	setup.ServeHTTP(setupRR, httptest.NewRequest("GET", "/setup", nil))

	var got *editor.Session
	handler := sm.LoadAndSave(RequireOperator(sm, reg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = EditorFromContext(r.Context())
	})))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, withCookies(httptest.NewRequest("GET", "/admin", nil), setupRR))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got == nil || got.ID != s.ID {
		t.Errorf("expected editor session %s in context, got %+v", s.ID, got)
	}
}

func TestRequireOperator_ClosedSessionRedirects(t *testing.T) {
	sm := testSessionManager()
	reg := testRegistry(t)
	s := reg.Open()
	if _, err := s.Apply(context.Background(), editor.Close{}); err != nil {
		t.Fatalf("close: %v", err)
	}

	setup := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sm.Put(r.Context(), EditorSessionKey, s.ID)
	}))
	setupRR := httptest.NewRecorder()
	setup.ServeHTTP(setupRR, httptest.NewRequest("GET", "/setup", nil))

	handler := sm.LoadAndSave(RequireOperator(sm, reg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called for a closed session")
	})))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, withCookies(httptest.NewRequest("GET", "/admin", nil), setupRR))

	if rr.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rr.Code)
	}
}

func TestEditorFromContext_Empty(t *testing.T) {
	if s := EditorFromContext(context.Background()); s != nil {
		t.Errorf("expected nil, got %+v", s)
	}
}

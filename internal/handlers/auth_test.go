package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/middleware"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/models"
)

func newAuth(t *testing.T) *Auth {
	t.Helper()
	db := testDB(t)
	if _, err := models.InitializePassword(db); err != nil {
		t.Fatalf("initialize password: %v", err)
	}
	store := testStore(t, db)
	return &Auth{
		DB:        db,
		Sessions:  testSessionManager(),
		Editors:   testRegistry(db, store),
		Templates: testTemplateCache(t),
	}
}

func TestLoginPage(t *testing.T) {
	a := newAuth(t)

	rr := serve(a.Sessions, a.LoginPage, newRequest("GET", "/login", nil), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `name="password"`) {
		t.Error("expected password field")
	}
}

func TestLoginSubmit_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		password string
		notice   string
	}{
		{"empty", "", NoticePasswordRequired},
		{"wrong", "admin124", NoticeWrongPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAuth(t)

			form := url.Values{"password": {tt.password}}
			rr := serve(a.Sessions, a.LoginSubmit, newRequest("POST", "/login", form), nil)

			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d", rr.Code)
			}
			body := rr.Body.String()
			if !strings.Contains(body, tt.notice) {
				t.Errorf("expected notice %q", tt.notice)
			}
			if !strings.Contains(body, `name="password" value=""`) {
				t.Error("password field should be empty")
			}
			if a.Editors.Len() != 0 {
				t.Error("no editor session should be opened")
			}
		})
	}
}

func TestLoginSubmit_OpensEditorSession(t *testing.T) {
	a := newAuth(t)

	form := url.Values{"password": {models.DefaultPassword}}
	rr := serve(a.Sessions, a.LoginSubmit, newRequest("POST", "/login", form), nil)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/admin" {
		t.Errorf("expected redirect to /admin, got %q", loc)
	}
	if a.Editors.Len() != 1 {
		t.Fatalf("expected one editor session, got %d", a.Editors.Len())
	}

	var editorID string
	serve(a.Sessions, func(w http.ResponseWriter, r *http.Request) {
		editorID = a.Sessions.GetString(r.Context(), middleware.EditorSessionKey)
	}, newRequest("GET", "/admin", nil), rr)

	s, ok := a.Editors.Get(editorID)
	if !ok {
		t.Fatalf("session %q not registered", editorID)
	}
	if s.Dirty().Any() || s.ServiceForm().EditingID != 0 {
		t.Error("a fresh editor session should be clean")
	}

	// A logged-in operator skips the login page.
	again := serve(a.Sessions, a.LoginPage, newRequest("GET", "/login", nil), rr)
	if again.Code != http.StatusSeeOther {
		t.Errorf("expected redirect for logged-in operator, got %d", again.Code)
	}
}

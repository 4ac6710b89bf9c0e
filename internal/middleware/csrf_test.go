package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func csrfHandler(t *testing.T, token *string, called *bool) http.Handler {
	t.Helper()
	sm := testSessionManager()
	return sm.LoadAndSave(CSRFProtect(sm, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*token = CSRFTokenFromContext(r.Context())
		if r.Method == http.MethodPost {
			*called = true
		}
	})))
}

func TestCSRFProtect_GeneratesToken(t *testing.T) {
	var token string
	var called bool
	handler := csrfHandler(t, &token, &called)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if len(token) != 64 {
		t.Errorf("expected 64-char token, got %q", token)
	}
}

func TestCSRFProtect_RejectsPostWithoutToken(t *testing.T) {
	var token string
	var called bool
	handler := csrfHandler(t, &token, &called)

	getRR := httptest.NewRecorder()
	handler.ServeHTTP(getRR, httptest.NewRequest("GET", "/", nil))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, withCookies(httptest.NewRequest("POST", "/", nil), getRR))

	if rr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rr.Code)
	}
	if called {
		t.Error("handler should not run for a rejected POST")
	}
}

func TestCSRFProtect_AcceptsFormToken(t *testing.T) {
	var token string
	var called bool
	handler := csrfHandler(t, &token, &called)

	getRR := httptest.NewRecorder()
	handler.ServeHTTP(getRR, httptest.NewRequest("GET", "/", nil))

	form := url.Values{CSRFFormField: {token}, "email": {"a@b.c"}}
	req := httptest.NewRequest("POST", "/contact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, withCookies(req, getRR))

	if rr.Code != http.StatusOK || !called {
		t.Errorf("expected POST to pass, got %d (called=%v)", rr.Code, called)
	}
}

func TestCSRFProtect_AcceptsHeaderToken(t *testing.T) {
	var token string
	var called bool
	handler := csrfHandler(t, &token, &called)

	getRR := httptest.NewRecorder()
	handler.ServeHTTP(getRR, httptest.NewRequest("GET", "/", nil))

	req := httptest.NewRequest("POST", "/theme", nil)
	req.Header.Set("X-CSRF-Token", token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, withCookies(req, getRR))

	if rr.Code != http.StatusOK || !called {
		t.Errorf("expected POST to pass, got %d (called=%v)", rr.Code, called)
	}
}

func TestCSRFTokensMatch(t *testing.T) {
	tests := []struct {
		expected, actual string
		want             bool
	}{
		{"abc", "abc", true},
		{"abc", "abd", false},
		{"", "", false},
		{"abc", "", false},
	}
	for _, tt := range tests {
		if got := csrfTokensMatch(tt.expected, tt.actual); got != tt.want {
			t.Errorf("csrfTokensMatch(%q, %q) = %v, want %v", tt.expected, tt.actual, got, tt.want)
		}
	}
}

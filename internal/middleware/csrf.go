package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/alexedwards/scs/v2"
	log "github.com/sirupsen/logrus"
)

type csrfContextKey string

const csrfTokenCtxKey csrfContextKey = "csrf_token"

// CSRFFormField is the form field carrying the token on every POST form.
const CSRFFormField = "csrf_token"

// CSRFProtect keeps one random token per scs session and rejects
// state-changing requests whose X-CSRF-Token header or csrf_token form field
// does not match it. It must run inside scs LoadAndSave.
func CSRFProtect(sm *scs.SessionManager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sm.GetString(r.Context(), CSRFFormField)
		if token == "" {
			token = generateCSRFToken()
			sm.Put(r.Context(), CSRFFormField, token)
		}

		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
			sent := r.Header.Get("X-CSRF-Token")
			if sent == "" {
				_ = r.ParseForm()
				sent = r.PostFormValue(CSRFFormField)
			}
			if !csrfTokensMatch(token, sent) {
				log.WithFields(log.Fields{"method": r.Method, "path": r.URL.Path}).Warn("middleware: csrf token mismatch")
				http.Error(w, "Forbidden: invalid CSRF token", http.StatusForbidden)
				return
			}
		}

		ctx := context.WithValue(r.Context(), csrfTokenCtxKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CSRFTokenFromContext returns the token for rendering into forms.
func CSRFTokenFromContext(ctx context.Context) string {
	s, _ := ctx.Value(csrfTokenCtxKey).(string)
	return s
}

func generateCSRFToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("csrf: failed to generate random token: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// csrfTokensMatch compares in constant time. Empty tokens never match.
func csrfTokensMatch(expected, actual string) bool {
	if expected == "" || actual == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(actual)) == 1
}

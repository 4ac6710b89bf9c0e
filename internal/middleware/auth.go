package middleware

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	log "github.com/sirupsen/logrus"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/editor"
)

type contextKey string

const editorContextKey contextKey = "editor"

// EditorSessionKey is the scs key holding the id of the operator's editor session.
const EditorSessionKey = "editorID"

// LoginPath is where unauthenticated operators are sent.
const LoginPath = "/login"

// RequireOperator redirects to the login page unless the scs session points
// at an open editor session in reg. The editor session is stored in the
// request context.
func RequireOperator(sm *scs.SessionManager, reg *editor.Registry, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := sm.GetString(r.Context(), EditorSessionKey)
		if id == "" {
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}

		s, ok := reg.Get(id)
		if !ok {
			log.WithField("editor", id).Info("middleware: editor session expired or closed")
			sm.Remove(r.Context(), EditorSessionKey)
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), editorContextKey, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// EditorFromContext returns the editor session set by RequireOperator, or nil.
func EditorFromContext(ctx context.Context) *editor.Session {
	s, _ := ctx.Value(editorContextKey).(*editor.Session)
	return s
}

// WithEditor returns a copy of ctx carrying s, as RequireOperator would.
func WithEditor(ctx context.Context, s *editor.Session) context.Context {
	return context.WithValue(ctx, editorContextKey, s)
}

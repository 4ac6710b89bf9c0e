package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	log "github.com/sirupsen/logrus"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/editor"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/middleware"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/models"
)

// Login notices.
const (
	NoticePasswordRequired = "⚠ Por favor ingresá la contraseña"
	NoticeWrongPassword    = "⚠ Contraseña incorrecta"
	NoticeAccessGranted    = "✓ Acceso concedido"
)

// Auth holds dependencies for the operator login.
type Auth struct {
	DB        *sql.DB
	Sessions  *scs.SessionManager
	Editors   *editor.Registry
	Templates TemplateCache
}

// LoginPage renders the password form, or goes straight to the panel when
// an editor session is already open.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.Editors.Get(a.Sessions.GetString(r.Context(), middleware.EditorSessionKey)); ok {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	a.render(w, r, http.StatusOK, popFlash(a.Sessions, r))
}

// LoginSubmit checks the password and opens a fresh editor session.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	err := models.Authenticate(a.DB, r.PostFormValue("password"))
	switch {
	case errors.Is(err, models.ErrEmptyPassword):
		a.render(w, r, http.StatusUnprocessableEntity, NoticePasswordRequired)
		return
	case errors.Is(err, models.ErrWrongPassword):
		log.Warn("handlers: operator login failed")
		a.render(w, r, http.StatusUnprocessableEntity, NoticeWrongPassword)
		return
	case err != nil:
		log.Errorf("handlers: authenticate: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := a.Sessions.RenewToken(r.Context()); err != nil {
		log.Errorf("handlers: session renew: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if old := a.Sessions.GetString(r.Context(), middleware.EditorSessionKey); old != "" {
		a.Editors.Remove(old)
	}
	s := a.Editors.Open()
	a.Sessions.Put(r.Context(), middleware.EditorSessionKey, s.ID)
	log.WithField("editor", s.ID).Info("handlers: editor session opened")

	setFlash(a.Sessions, r, NoticeAccessGranted)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (a *Auth) render(w http.ResponseWriter, r *http.Request, status int, notice string) {
	data := map[string]any{
		"AppName": models.GetAppName(a.DB),
		"Theme":   models.CurrentTheme(a.DB),
		"Notice":  notice,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := a.Templates.Render(w, r, "login.html", data); err != nil {
		log.Errorf("handlers: login template: %v", err)
	}
}

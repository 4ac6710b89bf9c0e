package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/editor"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/importers"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/middleware"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/models"
)

// Password change notices.
const (
	NoticePasswordFields   = "⚠ Por favor completá ambos campos"
	NoticePasswordShort    = "⚠ La contraseña debe tener al menos 6 caracteres"
	NoticePasswordMismatch = "⚠ Las contraseñas no coinciden"
	NoticePasswordChanged  = "✓ Contraseña cambiada exitosamente"
)

// recentInquiries is how many contact requests the panel lists.
const recentInquiries = 20

// Confirm asks the operator to resubmit an action with confirmation.
type Confirm struct {
	Message string
	Action  string
}

// Admin holds dependencies for the operator panel. Every handler runs
// behind middleware.RequireOperator.
type Admin struct {
	DB        *sql.DB
	Sessions  *scs.SessionManager
	Editors   *editor.Registry
	Templates TemplateCache
}

// Panel renders the editor with both collections and forms.
func (h *Admin) Panel(w http.ResponseWriter, r *http.Request) {
	h.renderPanel(w, r, http.StatusOK, popFlash(h.Sessions, r), nil)
}

// CreateService adds a service from the service form.
func (h *Admin) CreateService(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	h.run(w, r, editor.CreateService{Input: serviceInput(r)})
}

// EditService loads a service into the service form.
func (h *Admin) EditService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.run(w, r, editor.BeginServiceEdit{ID: id})
}

// UpdateService saves the service form over the record with the path id.
func (h *Admin) UpdateService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok || !parseForm(w, r) {
		return
	}
	h.run(w, r, editor.UpdateService{ID: id, Input: serviceInput(r)})
}

// DeleteService removes a service once the operator confirmed.
func (h *Admin) DeleteService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok || !parseForm(w, r) {
		return
	}
	h.run(w, r, editor.DeleteService{ID: id, Confirmed: confirmed(r)})
}

// CancelService clears the service form.
func (h *Admin) CancelService(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, editor.CancelServiceEdit{})
}

// CreatePrice adds a price entry from the price form.
func (h *Admin) CreatePrice(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	h.run(w, r, editor.CreatePrice{Input: priceInput(r)})
}

// EditPrice loads a price entry into the price form.
func (h *Admin) EditPrice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.run(w, r, editor.BeginPriceEdit{ID: id})
}

// UpdatePrice saves the price form over the record with the path id.
func (h *Admin) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok || !parseForm(w, r) {
		return
	}
	h.run(w, r, editor.UpdatePrice{ID: id, Input: priceInput(r)})
}

// DeletePrice removes a price entry once the operator confirmed.
func (h *Admin) DeletePrice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok || !parseForm(w, r) {
		return
	}
	h.run(w, r, editor.DeletePrice{ID: id, Confirmed: confirmed(r)})
}

// CancelPrice clears the price form.
func (h *Admin) CancelPrice(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, editor.CancelPriceEdit{})
}

// Publish hands the edited collections to the maintainer and sends the
// operator to the WhatsApp link. The editor session ends.
func (h *Admin) Publish(w http.ResponseWriter, r *http.Request) {
	s := middleware.EditorFromContext(r.Context())
	res, ok := h.apply(w, r, s, editor.Publish{})
	if !ok {
		return
	}
	h.endSession(r, s)
	log.WithFields(log.Fields{"editor": s.ID, "files": res.Message.Files}).Info("handlers: changes published")
	http.Redirect(w, r, res.Message.Link, http.StatusSeeOther)
}

// Close ends the editor session, asking first when edits are unpublished.
func (h *Admin) Close(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	s := middleware.EditorFromContext(r.Context())
	res, ok := h.apply(w, r, s, editor.Close{Confirmed: confirmed(r)})
	if !ok {
		return
	}
	h.endSession(r, s)
	setFlash(h.Sessions, r, res.Notice)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout ends the editor and HTTP sessions. Unpublished edits need the same
// confirmation as Close; applied edits stay in the store.
func (h *Admin) Logout(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	s := middleware.EditorFromContext(r.Context())
	if _, ok := h.apply(w, r, s, editor.Close{Confirmed: confirmed(r)}); !ok {
		return
	}
	h.Editors.Remove(s.ID)
	if err := h.Sessions.Destroy(r.Context()); err != nil {
		log.Errorf("handlers: session destroy: %v", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ChangePassword replaces the operator password.
func (h *Admin) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	err := models.ChangePassword(h.DB, r.PostFormValue("new_password"), r.PostFormValue("confirm_password"))
	var notice string
	switch {
	case err == nil:
		log.Info("handlers: operator password changed")
		setFlash(h.Sessions, r, NoticePasswordChanged)
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	case errors.Is(err, models.ErrEmptyPassword):
		notice = NoticePasswordFields
	case errors.Is(err, models.ErrPasswordTooShort):
		notice = NoticePasswordShort
	case errors.Is(err, models.ErrPasswordConfirmation):
		notice = NoticePasswordMismatch
	default:
		log.Errorf("handlers: change password: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.renderPanel(w, r, http.StatusUnprocessableEntity, notice, nil)
}

// Export downloads the current services.json or prices.json.
func (h *Admin) Export(w http.ResponseWriter, r *http.Request) {
	s := middleware.EditorFromContext(r.Context())
	store := s.Store()

	var v any
	switch name := chi.URLParam(r, "name"); name {
	case importers.FileServices:
		v = store.Services()
	case importers.FilePrices:
		v = store.Prices()
	default:
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	body, err := importers.EncodeJSON(v)
	if err != nil {
		log.Errorf("handlers: export %s: %v", chi.URLParam(r, "name"), err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+chi.URLParam(r, "name")+`"`)
	w.Write(append(body, '\n'))
}

// run applies cmd and returns to the panel with the command's notice.
func (h *Admin) run(w http.ResponseWriter, r *http.Request, cmd editor.Command) {
	res, ok := h.apply(w, r, middleware.EditorFromContext(r.Context()), cmd)
	if !ok {
		return
	}
	setFlash(h.Sessions, r, res.Notice)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// apply runs cmd on s and writes the response for every outcome except
// success, which is left to the caller.
func (h *Admin) apply(w http.ResponseWriter, r *http.Request, s *editor.Session, cmd editor.Command) (editor.Result, bool) {
	res, err := s.Apply(r.Context(), cmd)
	switch {
	case err == nil:
		return res, true
	case errors.Is(err, editor.ErrConfirmationRequired), errors.Is(err, editor.ErrUnsavedChanges):
		h.renderPanel(w, r, http.StatusOK, "", &Confirm{Message: res.Notice, Action: r.URL.Path})
	case errors.Is(err, editor.ErrSessionClosed):
		h.Sessions.Remove(r.Context(), middleware.EditorSessionKey)
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
	case res.Notice != "":
		h.renderPanel(w, r, http.StatusUnprocessableEntity, res.Notice, nil)
	default:
		log.WithField("editor", s.ID).Errorf("handlers: editor command %T: %v", cmd, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
	return res, false
}

func (h *Admin) endSession(r *http.Request, s *editor.Session) {
	h.Editors.Remove(s.ID)
	h.Sessions.Remove(r.Context(), middleware.EditorSessionKey)
}

func (h *Admin) renderPanel(w http.ResponseWriter, r *http.Request, status int, notice string, confirm *Confirm) {
	s := middleware.EditorFromContext(r.Context())
	store := s.Store()

	inquiries, err := models.ListInquiries(h.DB, recentInquiries)
	if err != nil {
		log.Errorf("handlers: list inquiries: %v", err)
	}

	data := map[string]any{
		"AppName":     models.GetAppName(h.DB),
		"Theme":       models.CurrentTheme(h.DB),
		"Services":    store.Services(),
		"Prices":      store.Prices(),
		"ServiceForm": s.ServiceForm(),
		"PriceForm":   s.PriceForm(),
		"Dirty":       s.Dirty(),
		"Source":      store.Source(),
		"LoadedAt":    store.LoadedAt(),
		"Inquiries":   inquiries,
		"Notice":      notice,
		"Confirm":     confirm,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.Templates.Render(w, r, "admin.html", data); err != nil {
		log.Errorf("handlers: admin template: %v", err)
	}
}

func serviceInput(r *http.Request) models.ServiceInput {
	return models.ServiceInput{
		Name:  r.PostFormValue("name"),
		Icon:  r.PostFormValue("icon"),
		Items: r.PostFormValue("items"),
		Price: r.PostFormValue("price"),
	}
}

func priceInput(r *http.Request) models.PriceInput {
	return models.PriceInput{
		Service: r.PostFormValue("service"),
		Price:   r.PostFormValue("price"),
		Time:    r.PostFormValue("time"),
	}
}

func confirmed(r *http.Request) bool {
	return r.PostFormValue("confirmed") == "true"
}

func parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

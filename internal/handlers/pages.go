package handlers

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/v2"
	log "github.com/sirupsen/logrus"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/content"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/models"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/publish"
)

// WhatsAppGreeting pre-fills the public page's WhatsApp button.
const WhatsAppGreeting = "Hola! Quiero consultar por una reparación"

// Pages holds dependencies for the public site.
type Pages struct {
	DB        *sql.DB
	Store     *content.Store
	Sessions  *scs.SessionManager
	Templates TemplateCache
}

// Index renders the public page and counts the visit.
func (p *Pages) Index(w http.ResponseWriter, r *http.Request) {
	data, err := p.indexData(r)
	if err != nil {
		log.Errorf("handlers: index data: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if err := p.Templates.Render(w, r, "index.html", data); err != nil {
		log.Errorf("handlers: index template: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// indexData gathers everything the public page shows. Each call is one visit.
func (p *Pages) indexData(r *http.Request) (map[string]any, error) {
	visits, err := models.IncrementVisitCount(p.DB)
	if err != nil {
		return nil, err
	}
	theme := models.CurrentTheme(p.DB)

	return map[string]any{
		"AppName":    models.GetAppName(p.DB),
		"Theme":      theme,
		"ThemeLabel": models.ThemeLabels[theme],
		"Services":   p.Store.Services(),
		"Prices":     p.Store.Prices(),
		"Visits":     visits,
		"WhatsApp":   publish.WhatsAppLink(models.GetWhatsAppPhone(p.DB), WhatsAppGreeting),
		"Notice":     popFlash(p.Sessions, r),
		"FailedForm": "",
	}, nil
}

// Theme advances the site theme and returns to the page.
func (p *Pages) Theme(w http.ResponseWriter, r *http.Request) {
	next, err := models.CycleTheme(p.DB)
	if err != nil {
		log.Errorf("handlers: cycle theme: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	setFlash(p.Sessions, r, fmt.Sprintf("Tema cambiado a: %s", models.ThemeLabels[next]))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Health reports whether the database answers.
func (p *Pages) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	if err := p.DB.PingContext(r.Context()); err != nil {
		log.Errorf("handlers: health ping: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintln(w, "unavailable")
		return
	}
	fmt.Fprintln(w, "ok")
}

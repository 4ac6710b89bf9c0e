package handlers

import (
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/models"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/notify"
)

// Visitor-facing contact notices.
const (
	NoticeQuickSent      = "✓ Presupuesto solicitado! Te contactaremos pronto."
	NoticeContactSent    = "✓ Mensaje enviado! Te responderemos en menos de 2 horas."
	NoticeSendFailed     = "⚠ Error al enviar. Por favor llamanos o escribinos por WhatsApp."
	NoticeFormIncomplete = "⚠ Por favor completá todos los campos"
)

// sendInquiry delivers an inquiry; tests replace it.
var sendInquiry = notify.SendInquiry

// QuickRequest handles the short budget-request form.
func (p *Pages) QuickRequest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	in, err := models.QuickRequest{
		Device:      r.PostFormValue("dispositivo"),
		DeviceOther: r.PostFormValue("dispositivoOtro"),
		Brand:       r.PostFormValue("marca"),
		BrandOther:  r.PostFormValue("marcaOtra"),
		Problem:     r.PostFormValue("problema"),
		Email:       r.PostFormValue("email"),
	}.Inquiry()
	if err != nil {
		p.renderContactError(w, r, "quick", err)
		return
	}
	p.deliver(w, r, in, NoticeQuickSent)
}

// ContactRequest handles the detailed contact form.
func (p *Pages) ContactRequest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	in, err := models.ContactRequest{
		Name:        r.PostFormValue("nombre"),
		Phone:       r.PostFormValue("telefono"),
		Email:       r.PostFormValue("email"),
		Device:      r.PostFormValue("dispositivo"),
		DeviceOther: r.PostFormValue("dispositivoContactOtro"),
		Brand:       r.PostFormValue("marca"),
		BrandOther:  r.PostFormValue("marcaContactOtra"),
		Problem:     r.PostFormValue("problema"),
		CallBack:    r.PostFormValue("llamar") != "",
	}.Inquiry()
	if err != nil {
		p.renderContactError(w, r, "contact", err)
		return
	}
	p.deliver(w, r, in, NoticeContactSent)
}

// deliver records the inquiry, sends it and redirects back with the outcome.
// A failed recording does not stop the send.
func (p *Pages) deliver(w http.ResponseWriter, r *http.Request, in *models.Inquiry, success string) {
	recorded := true
	if err := models.CreateInquiry(p.DB, in); err != nil {
		log.Errorf("handlers: record %s inquiry: %v", in.Form, err)
		recorded = false
	}

	if err := sendInquiry(p.DB, in); err != nil {
		log.WithFields(log.Fields{"form": in.Form, "inquiry": in.ID}).Warnf("handlers: send inquiry: %v", err)
		setFlash(p.Sessions, r, NoticeSendFailed)
		http.Redirect(w, r, "/#contacto", http.StatusSeeOther)
		return
	}

	if recorded {
		if err := models.MarkInquiryDelivered(p.DB, in.ID); err != nil {
			log.Errorf("handlers: mark inquiry %d delivered: %v", in.ID, err)
		}
	}
	setFlash(p.Sessions, r, success)
	http.Redirect(w, r, "/#contacto", http.StatusSeeOther)
}

// renderContactError re-renders the page with the submitted values kept.
func (p *Pages) renderContactError(w http.ResponseWriter, r *http.Request, form string, err error) {
	if !errors.Is(err, models.ErrMissingFields) {
		log.Errorf("handlers: %s form: %v", form, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data, derr := p.indexData(r)
	if derr != nil {
		log.Errorf("handlers: index data: %v", derr)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	data["Notice"] = NoticeFormIncomplete
	data["FailedForm"] = form
	data["Form"] = r.PostForm

	w.WriteHeader(http.StatusUnprocessableEntity)
	if err := p.Templates.Render(w, r, "index.html", data); err != nil {
		log.Errorf("handlers: index template: %v", err)
	}
}

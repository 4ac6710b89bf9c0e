package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/models"
)

//go:embed templates/*.html
var emailFS embed.FS

var (
	emailTemplates map[string]*template.Template
	emailOnce      sync.Once
)

// Field is one labelled line of an inquiry email.
type Field struct {
	Label string
	Value string
}

// EmailData holds the fields available to the inquiry email templates.
type EmailData struct {
	AppName string
	Title   string
	Params  map[string]string
	Fields  []Field
}

// formTitles are the email headings per form.
var formTitles = map[string]string{
	models.FormQuick:   "Nuevo pedido de presupuesto",
	models.FormContact: "Nuevo mensaje de contacto",
}

// formFields lists each form's template parameters in display order.
var formFields = map[string][]Field{
	models.FormQuick: {
		{Label: "Dispositivo", Value: "dispositivo"},
		{Label: "Marca", Value: "marca"},
		{Label: "Problema", Value: "problema"},
		{Label: "Email", Value: "email"},
	},
	models.FormContact: {
		{Label: "Nombre", Value: "nombre"},
		{Label: "Teléfono", Value: "telefono"},
		{Label: "Email", Value: "email"},
		{Label: "Dispositivo", Value: "dispositivo"},
		{Label: "Marca", Value: "marca"},
		{Label: "Problema", Value: "problema"},
		{Label: "¿Prefiere que lo llamen?", Value: "llamar"},
	},
}

// parseEmailTemplates parses all email templates once on first use.
func parseEmailTemplates() {
	emailOnce.Do(func() {
		emailTemplates = make(map[string]*template.Template)

		base, err := emailFS.ReadFile("templates/base.html")
		if err != nil {
			log.Errorf("notify: failed to read base email template: %v", err)
			return
		}

		for _, form := range []string{models.FormQuick, models.FormContact} {
			page := form + ".html"
			content, err := emailFS.ReadFile("templates/" + page)
			if err != nil {
				log.Errorf("notify: failed to read email template %s: %v", page, err)
				continue
			}

			// The page calls {{ template "base.html" . }}, so base must be
			// parsed into the same set under that name.
			t, err := template.New(page).Parse(string(content))
			if err != nil {
				log.Errorf("notify: failed to parse email template %s: %v", page, err)
				continue
			}
			t, err = t.New("base.html").Parse(string(base))
			if err != nil {
				log.Errorf("notify: failed to parse base into %s: %v", page, err)
				continue
			}

			emailTemplates[form] = t
		}
	})
}

// RenderInquiryEmail renders the HTML email for an inquiry using its form's
// template and parameter map.
func RenderInquiryEmail(appName string, in *models.Inquiry) (string, error) {
	parseEmailTemplates()

	t, ok := emailTemplates[in.Form]
	if !ok {
		return "", fmt.Errorf("notify: unknown email template %q", in.Form)
	}

	params := in.Params()
	data := EmailData{
		AppName: appName,
		Title:   formTitles[in.Form],
		Params:  params,
	}
	for _, f := range formFields[in.Form] {
		data.Fields = append(data.Fields, Field{Label: f.Label, Value: params[f.Value]})
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, in.Form+".html", data); err != nil {
		return "", fmt.Errorf("notify: render email template %q: %w", in.Form, err)
	}
	return buf.String(), nil
}

// plainInquiry renders the inquiry as plain text for broadcast channels.
func plainInquiry(appName string, in *models.Inquiry) string {
	params := in.Params()
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s - %s\n", appName, formTitles[in.Form])
	for _, f := range formFields[in.Form] {
		fmt.Fprintf(&buf, "%s: %s\n", f.Label, params[f.Value])
	}
	return buf.String()
}

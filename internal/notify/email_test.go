package notify

import (
	"strings"
	"testing"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/models"
)

func TestRenderInquiryEmail_Quick(t *testing.T) {
	in := &models.Inquiry{
		Form:    models.FormQuick,
		Device:  "Televisor",
		Brand:   "LG",
		Problem: "No enciende <urgente>",
		Email:   "cliente@example.com",
	}

	html, err := RenderInquiryEmail("Servicio Técnico", in)
	if err != nil {
		t.Fatalf("RenderInquiryEmail: %v", err)
	}

	checks := []struct {
		name    string
		contain string
	}{
		{"doctype", "<!DOCTYPE html>"},
		{"app name in header", "Servicio Técnico"},
		{"heading", "Nuevo pedido de presupuesto"},
		{"device", "Televisor"},
		{"brand", "LG"},
		{"escaped problem", "No enciende &lt;urgente&gt;"},
		{"reply link", "mailto:cliente@example.com"},
	}

	for _, tc := range checks {
		t.Run(tc.name, func(t *testing.T) {
			if !strings.Contains(html, tc.contain) {
				t.Errorf("expected HTML to contain %q", tc.contain)
			}
		})
	}
}

func TestRenderInquiryEmail_Contact(t *testing.T) {
	in := &models.Inquiry{
		Form:     models.FormContact,
		Name:     "Ana",
		Phone:    "2235551234",
		Email:    "ana@example.com",
		Device:   "Microondas",
		Problem:  "Hace chispas",
		CallBack: true,
	}

	html, err := RenderInquiryEmail("Taller", in)
	if err != nil {
		t.Fatalf("RenderInquiryEmail: %v", err)
	}

	for _, want := range []string{"Nuevo mensaje de contacto", "Ana", "tel:2235551234", models.CallBackYes} {
		if !strings.Contains(html, want) {
			t.Errorf("expected HTML to contain %q", want)
		}
	}
}

func TestRenderInquiryEmail_UnknownForm(t *testing.T) {
	if _, err := RenderInquiryEmail("x", &models.Inquiry{Form: "survey"}); err == nil {
		t.Fatal("expected error for unknown form")
	}
}

func TestPlainInquiry(t *testing.T) {
	in := &models.Inquiry{Form: models.FormQuick, Device: "Heladera", Problem: "No enfría", Email: "a@b.c"}
	got := plainInquiry("Taller", in)

	if !strings.HasPrefix(got, "Taller - Nuevo pedido de presupuesto\n") {
		t.Errorf("unexpected heading: %q", got)
	}
	if !strings.Contains(got, "Dispositivo: Heladera\n") || !strings.Contains(got, "Email: a@b.c\n") {
		t.Errorf("missing fields: %q", got)
	}
}

package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/models"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/notify"
)

// Settings manages the runtime settings registry. Operator only.
type Settings struct {
	DB        *sql.DB
	Templates TemplateCache
}

// Show renders the settings page grouped by category.
func (h *Settings) Show(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, nil)
}

// Update saves every changed, writable setting. A cleared field reverts the
// setting to its default.
func (h *Settings) Update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusUnprocessableEntity, map[string]any{"Error": "Formulario inválido."})
		return
	}

	var updated int
	var failures []string

	for _, def := range models.SettingsRegistry {
		sv := models.GetSettingValue(h.DB, def.Key)
		if sv.ReadOnly {
			continue
		}

		newValue := strings.TrimSpace(r.PostFormValue("setting_" + def.Key))
		if newValue == "" {
			if sv.Source == "db" {
				if err := models.DeleteSetting(h.DB, def.Key); err != nil {
					log.Errorf("handlers: delete setting %q: %v", def.Key, err)
					failures = append(failures, "No se pudo borrar "+def.Label)
				} else {
					updated++
				}
			}
			continue
		}

		if def.Sensitive && isMaskedPlaceholder(newValue) {
			continue
		}
		if newValue == sv.Value {
			continue
		}

		if err := models.SetSetting(h.DB, def.Key, newValue); err != nil {
			log.Errorf("handlers: set setting %q: %v", def.Key, err)
			if def.Sensitive {
				failures = append(failures, "No se pudo guardar "+def.Label+": falta "+models.SecretKeyEnv)
			} else {
				failures = append(failures, "No se pudo guardar "+def.Label)
			}
			continue
		}
		updated++
	}

	switch {
	case len(failures) > 0:
		h.render(w, r, http.StatusUnprocessableEntity, map[string]any{"Error": failures[0]})
	case updated > 0:
		h.render(w, r, http.StatusOK, map[string]any{"Success": "Configuración guardada."})
	default:
		h.render(w, r, http.StatusOK, map[string]any{"Success": "Sin cambios."})
	}
}

// TestConnection sends a test message through every notification channel.
func (h *Settings) TestConnection(w http.ResponseWriter, r *http.Request) {
	err := notify.TestConnection(h.DB)
	switch {
	case errors.Is(err, notify.ErrNotConfigured):
		h.render(w, r, http.StatusUnprocessableEntity, map[string]any{"Error": "No hay canales de notificación configurados."})
	case err != nil:
		log.Warnf("handlers: test notifications: %v", err)
		h.render(w, r, http.StatusUnprocessableEntity, map[string]any{"Error": err.Error()})
	default:
		h.render(w, r, http.StatusOK, map[string]any{"Success": "Mensaje de prueba enviado."})
	}
}

func (h *Settings) render(w http.ResponseWriter, r *http.Request, status int, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["AppName"] = models.GetAppName(h.DB)
	data["Theme"] = models.CurrentTheme(h.DB)
	data["SettingGroups"] = models.ListSettingsByCategoryOrdered(h.DB)
	data["Registry"] = models.SettingsRegistry

	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.Templates.Render(w, r, "settings.html", data); err != nil {
		log.Errorf("handlers: settings template: %v", err)
	}
}

// isMaskedPlaceholder reports whether v is a masked value echoed back by an
// untouched sensitive field.
func isMaskedPlaceholder(v string) bool {
	return strings.ContainsRune(v, '•')
}

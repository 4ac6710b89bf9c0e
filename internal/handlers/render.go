package handlers

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/middleware"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/models"
)

// TemplateCache maps page filenames to parsed template sets. Each set contains
// the base layout combined with a single page template.
type TemplateCache map[string]*template.Template

// templateFuncs are available to every page.
var templateFuncs = template.FuncMap{
	"price": models.FormatPrice,
	"lines": func(s string) []string {
		return strings.Split(strings.TrimRight(s, "\n"), "\n")
	},
	// field echoes a submitted form value; form is nil on a clean render.
	"field": func(form url.Values, key string) string {
		return form.Get(key)
	},
	"settingLabel": func(key string) string {
		if def, ok := models.LookupSetting(key); ok {
			return def.Label
		}
		return key
	},
	"settingHelp": func(key string) string {
		def, _ := models.LookupSetting(key)
		return def.Description
	},
}

// NewTemplateCache parses all page templates from fsys. Each page is
// combined with the base layout; the login page is parsed standalone.
func NewTemplateCache(fsys fs.FS) (TemplateCache, error) {
	cache := TemplateCache{}

	pages, err := fs.Glob(fsys, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("handlers: glob page templates: %w", err)
	}

	for _, page := range pages {
		name := filepath.Base(page)

		if name == "login.html" {
			ts, err := template.New(name).Funcs(templateFuncs).ParseFS(fsys, page)
			if err != nil {
				return nil, fmt.Errorf("handlers: parse %s: %w", name, err)
			}
			cache[name] = ts
			continue
		}

		ts, err := template.New(name).Funcs(templateFuncs).ParseFS(fsys, "templates/layouts/base.html", page)
		if err != nil {
			return nil, fmt.Errorf("handlers: parse %s with layout: %w", name, err)
		}
		cache[name] = ts
	}

	return cache, nil
}

// Render executes a page template. The CSRF token is injected for forms and
// pages with a layout are executed through "base".
func (tc TemplateCache) Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	ts, ok := tc[name]
	if !ok {
		return fmt.Errorf("handlers: template %q not found in cache", name)
	}

	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["CSRFToken"]; !exists {
		data["CSRFToken"] = middleware.CSRFTokenFromContext(r.Context())
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if ts.Lookup("base") == nil {
		return ts.ExecuteTemplate(w, name, data)
	}
	return ts.ExecuteTemplate(w, "base", data)
}

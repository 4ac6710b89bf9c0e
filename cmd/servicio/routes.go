package main

import (
	"database/sql"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/content"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/editor"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/handlers"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/middleware"
)

type routerDeps struct {
	DB        *sql.DB
	Store     *content.Store
	Sessions  *scs.SessionManager
	Editors   *editor.Registry
	Templates handlers.TemplateCache
	Limiter   *middleware.RateLimiter
}

func newRouter(d routerDeps) http.Handler {
	sm := d.Sessions

	pages := &handlers.Pages{DB: d.DB, Store: d.Store, Sessions: sm, Templates: d.Templates}
	auth := &handlers.Auth{DB: d.DB, Sessions: sm, Editors: d.Editors, Templates: d.Templates}
	admin := &handlers.Admin{DB: d.DB, Sessions: sm, Editors: d.Editors, Templates: d.Templates}
	settings := &handlers.Settings{DB: d.DB, Templates: d.Templates}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders)

	r.Handle("/static/*", http.FileServerFS(staticFS))
	r.Get("/health", pages.Health)

	r.Group(func(r chi.Router) {
		r.Use(sm.LoadAndSave)
		r.Use(func(next http.Handler) http.Handler {
			return middleware.CSRFProtect(sm, next)
		})

		r.Get("/", pages.Index)
		r.Post("/theme", pages.Theme)
		r.With(d.Limiter.Limit).Post("/contact/quick", pages.QuickRequest)
		r.With(d.Limiter.Limit).Post("/contact", pages.ContactRequest)

		r.Get(middleware.LoginPath, auth.LoginPage)
		r.Post(middleware.LoginPath, auth.LoginSubmit)

		r.Route("/admin", func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler {
				return middleware.RequireOperator(sm, d.Editors, next)
			})

			r.Get("/", admin.Panel)

			r.Post("/services", admin.CreateService)
			r.Post("/services/cancel", admin.CancelService)
			r.Get("/services/{id}/edit", admin.EditService)
			r.Post("/services/{id}", admin.UpdateService)
			r.Post("/services/{id}/delete", admin.DeleteService)

			r.Post("/prices", admin.CreatePrice)
			r.Post("/prices/cancel", admin.CancelPrice)
			r.Get("/prices/{id}/edit", admin.EditPrice)
			r.Post("/prices/{id}", admin.UpdatePrice)
			r.Post("/prices/{id}/delete", admin.DeletePrice)

			r.Post("/publish", admin.Publish)
			r.Post("/close", admin.Close)
			r.Post("/logout", admin.Logout)
			r.Post("/password", admin.ChangePassword)
			r.Get("/export/{name}", admin.Export)

			r.Get("/settings", settings.Show)
			r.Post("/settings", settings.Update)
			r.Post("/settings/test", settings.TestConnection)
		})
	})

	return r
}

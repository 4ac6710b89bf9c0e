package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/content"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/editor"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/handlers"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/middleware"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/models"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/publish"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/scheduler"
)

// shutdownTimeout bounds how long in-flight requests get after a signal.
const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	source, err := models.EnsureSecretKey(db)
	if err != nil {
		return fmt.Errorf("secret key: %w", err)
	}
	log.Infof("Settings encryption key source: %s", source)

	created, err := models.InitializePassword(db)
	if err != nil {
		return err
	}
	if created {
		log.Warn("Operator password set to the default; change it from the panel")
	}

	store := content.NewStore(db)
	if _, err := store.Hydrate(ctx, contentLoader()); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	tc, err := handlers.NewTemplateCache(templateFS)
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	sessionStore := sqlite3store.New(db)
	defer sessionStore.StopCleanup()

	sessionManager := scs.New()
	sessionManager.Store = sessionStore
	sessionManager.Lifetime = cfg.Session.Lifetime
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = cfg.Session.Secure
	sessionManager.Cookie.Persist = false

	editors := editor.NewRegistry(store, publish.New(db))

	sched := scheduler.New(db, editors, cfg.Editor.Idle)
	sched.Start()
	defer sched.Stop()

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Burst, cfg.RateLimit.Window, cfg.RateLimit.Proxies...)
	defer limiter.Stop()

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: newRouter(routerDeps{
			DB:        db,
			Store:     store,
			Sessions:  sessionManager,
			Editors:   editors,
			Templates: tc,
			Limiter:   limiter,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// contentLoader returns the remote catalog loader, or nil when no base URL
// is configured.
func contentLoader() *content.Loader {
	if cfg.Content.BaseURL == "" {
		return nil
	}
	retries := cfg.Content.Retries
	if retries < 0 {
		retries = 0
	}
	return &content.Loader{
		BaseURL: cfg.Content.BaseURL,
		Timeout: cfg.Content.Timeout,
		Retries: uint64(retries),
	}
}

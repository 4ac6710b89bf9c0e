package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	log "github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrations embed.FS

// RunMigrations brings the schema up to date. The server and every CLI
// subcommand call it right after Open.
func RunMigrations(db *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("database: migrations fs: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("database: migration provider: %w", err)
	}

	results, err := provider.Up(context.Background())
	if err != nil {
		return fmt.Errorf("database: run migrations: %w", err)
	}
	for _, r := range results {
		log.WithFields(log.Fields{
			"version":  r.Source.Version,
			"duration": r.Duration,
		}).Infof("database: applied migration %s", r.Source.Path)
	}

	return nil
}

package main

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/config"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/database"
)

//go:embed all:templates
var templateFS embed.FS

//go:embed all:static
var staticFS embed.FS

var (
	configPath string
	cfg        config.Application
)

var rootCmd = &cobra.Command{
	Use:   "servicio",
	Short: "Appliance repair site with an operator catalog editor",
	Long: `servicio serves the public repair-shop page with its service catalog,
price list and contact forms, plus the password-gated editor the operator
uses to change the catalog and publish it over WhatsApp.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		config.ConfigureLogging(cfg.Log)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "servicio.yaml", "Path to the YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(passwordCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(settingsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDatabase opens the configured database and brings its schema up to date.
func openDatabase() (*sql.DB, error) {
	db, err := database.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	log.Debugf("Database ready: %s", filepath.Clean(cfg.DB))
	return db, nil
}

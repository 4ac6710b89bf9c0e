package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/models"
)

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Manage the operator password",
}

var passwordSetCmd = &cobra.Command{
	Use:   "set <new-password>",
	Short: "Replace the operator password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := models.ChangePassword(db, args[0], args[0]); err != nil {
			return fmt.Errorf("change password: %w", err)
		}
		log.Info("Operator password changed")
		return nil
	},
}

var passwordResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default operator password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := models.SetValue(db, models.KeyPasswordHash, models.HashPassword(models.DefaultPassword)); err != nil {
			return err
		}
		log.Warn("Operator password reset to the default")
		return nil
	},
}

func init() {
	passwordCmd.AddCommand(passwordSetCmd)
	passwordCmd.AddCommand(passwordResetCmd)
}

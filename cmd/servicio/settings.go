package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/models"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect and change runtime settings",
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every setting with its effective value and source",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		if _, err := models.EnsureSecretKey(db); err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
		for _, sv := range models.ListSettings(db) {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", sv.Key, sv.Masked, sv.Source)
		}
		return tw.Flush()
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a setting in the database",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		if _, err := models.EnsureSecretKey(db); err != nil {
			return err
		}
		return models.SetSetting(db, args[0], args[1])
	},
}

var settingsUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a stored setting so its default applies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		return models.DeleteSetting(db, args[0])
	},
}

func init() {
	settingsCmd.AddCommand(settingsListCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsUnsetCmd)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/content"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/models"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/publish"
)

var exportLink bool

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the current catalog as the publish payload",
	Long: `export loads the catalog the same way the server does at startup and
prints both documents in the format the editor publishes. With --link it
prints the WhatsApp link that carries the payload instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		store := content.NewStore(db)
		if _, err := store.Hydrate(cmd.Context(), contentLoader()); err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}

		all := publish.Changes{Services: true, Prices: true}
		text, err := publish.Build(store.Services(), store.Prices(), all, models.GetSetting(db, "publish.edit_url_base"))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if exportLink {
			fmt.Fprintln(out, publish.WhatsAppLink(models.GetWhatsAppPhone(db), text))
			return nil
		}
		fmt.Fprintln(out, text)
		return nil
	},
}

func init() {
	exportCmd.Flags().BoolVar(&exportLink, "link", false, "Print the WhatsApp link instead of the payload")
}

package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"paysight/internal/catalog"
	"paysight/internal/ui"
	"paysight/pkg/models"
)

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "List the catalog analyses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t := models.MustNewTable("entries",
			models.Integer("n"), models.Text("name"), models.Text("title"),
			models.Text("sources"), models.Text("idioms"), models.Text("ordering"))

		for i, e := range catalog.New().Entries() {
			idioms := make([]string, len(e.Idioms))
			for j, id := range e.Idioms {
				idioms[j] = string(id)
			}
			if err := t.AddRow(i+1, e.Name, e.Title,
				strings.Join(e.Sources, ", "), strings.Join(idioms, ", "), e.Ordering); err != nil {
				return err
			}
		}
		return ui.NewRenderer(cmd.OutOrStdout(), format()).Table("Catalog entries", t)
	},
}

func init() {
	rootCmd.AddCommand(entriesCmd)
}

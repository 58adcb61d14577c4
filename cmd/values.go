package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"paysight/internal/catalog"
	"paysight/internal/ui"
	"paysight/pkg/models"
)

var valuesCmd = &cobra.Command{
	Use:   "values <relation> <column>",
	Short: "List the distinct values of a warehouse column",
	Long: `List the distinct non-null values of one column in ascending order.

Relations: ` + strings.Join(catalog.RelationNames(), ", "),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rel, err := catalog.LookupRelation(args[0])
		if err != nil {
			return err
		}
		col, err := rel.Column(args[1])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		s, err := openSession(ctx, false)
		if err != nil {
			return err
		}
		defer s.Close()

		values, err := s.explorer().DistinctValues(ctx, rel.Name, col.Name)
		if err != nil {
			return err
		}

		t := models.MustNewTable(rel.Name+"."+col.Name, col)
		for _, v := range values {
			if err := t.AddRow(v); err != nil {
				return err
			}
		}
		return ui.NewRenderer(cmd.OutOrStdout(), format()).Table(t.Name, t)
	},
}

func init() {
	rootCmd.AddCommand(valuesCmd)
}

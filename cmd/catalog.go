package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"paysight/internal/catalog"
	"paysight/internal/ui"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog [entry...]",
	Short: "Run the analysis catalog",
	Long: `Run every catalog analysis, or only the named ones, and print one
table per entry. A failing entry is reported in place of its table and
does not stop the others.

Run 'paysight entries' for the list of entry names.`,
	RunE: runCatalog,
}

var (
	catalogStats   bool
	catalogNoCache bool
	catalogStrict  bool
)

func init() {
	rootCmd.AddCommand(catalogCmd)

	catalogCmd.Flags().BoolVar(&catalogStats, "stats", false, "print query latency per entry and result cache activity")
	catalogCmd.Flags().BoolVar(&catalogNoCache, "no-cache", false, "bypass the result cache")
	catalogCmd.Flags().BoolVar(&catalogStrict, "strict", false, "exit non-zero when any entry fails")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// reject unknown names before connecting
	probe := catalog.New()
	for _, name := range args {
		if _, err := probe.Entry(name); err != nil {
			return err
		}
	}

	s, err := openSession(ctx, !catalogNoCache)
	if err != nil {
		return err
	}
	defer s.Close()

	c := s.catalog()
	titles := make(map[string]string)
	for _, e := range c.Entries() {
		titles[e.Name] = e.Title
	}

	spinner := ui.NewSpinner(os.Stderr, "Running catalog...", interactive() && format() == ui.FormatTable)
	spinner.Start()
	report, err := c.EvaluateEntries(ctx, s.svc.DB(), args...)
	if err != nil {
		spinner.Stop(false, "Catalog run failed")
		return err
	}
	spinner.Stop(len(report.Failures) == 0,
		fmt.Sprintf("%d of %d entries succeeded", len(report.Tables), len(report.Order)))

	r := ui.NewRenderer(cmd.OutOrStdout(), format())
	if err := r.Report(report, titles); err != nil {
		return err
	}
	if catalogStats {
		if err := r.Stats(s.metrics.Snapshot()); err != nil {
			return err
		}
		if s.results != nil {
			if err := r.CacheStats(s.results.Stats()); err != nil {
				return err
			}
		}
	}

	if catalogStrict && len(report.Failures) > 0 {
		failed := make([]string, 0, len(report.Failures))
		for _, name := range report.Order {
			if report.Failed(name) {
				failed = append(failed, name)
			}
		}
		return fmt.Errorf("%d entries failed: %s", len(failed), strings.Join(failed, ", "))
	}
	return nil
}

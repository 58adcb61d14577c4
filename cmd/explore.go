package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"paysight/internal/catalog"
	"paysight/internal/observability"
	"paysight/internal/ui"
	"paysight/pkg/errors"
	"paysight/pkg/models"
)

// prompter asks the interactive questions. Tests replace it.
var prompter ui.Prompter = ui.SurveyPrompter{}

const (
	viewSummary    = "summary"
	viewCategories = "categories"
	viewDistricts  = "districts"
	viewPincodes   = "pincodes"
	viewStates     = "states"
	viewRows       = "rows"
)

var viewLabels = map[string]string{
	viewSummary:    "Headline totals",
	viewCategories: "Payment categories",
	viewDistricts:  "Top districts",
	viewPincodes:   "Top pincodes",
	viewStates:     "State breakdown",
	viewRows:       "All rows",
}

// viewsFor lists the views a domain supports, in menu order
func viewsFor(d catalog.Domain) []string {
	switch d {
	case catalog.DomainTransactions:
		return []string{viewSummary, viewCategories, viewDistricts, viewPincodes, viewStates, viewRows}
	case catalog.DomainInsurance:
		return []string{viewSummary, viewDistricts, viewPincodes, viewStates, viewRows}
	default:
		return []string{viewSummary, viewDistricts, viewStates, viewRows}
	}
}

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Explore one domain and period interactively",
	Long: `Pick a data domain (transactions, insurance or users), a year and a
quarter, then look at the period from several angles: headline totals,
payment categories, top districts and pincodes, and a per-state breakdown.

Anything passed as a flag is not asked for, so a fully specified call
runs once without prompting:

  paysight explore --domain insurance --year 2022 --quarter 3 --view districts --top 5`,
	Args: cobra.NoArgs,
	RunE: runExplore,
}

var (
	exploreDomain  string
	exploreYear    int
	exploreQuarter int
	exploreView    string
	exploreTop     int
)

func init() {
	rootCmd.AddCommand(exploreCmd)

	f := exploreCmd.Flags()
	f.StringVar(&exploreDomain, "domain", "", "transactions, insurance or users")
	f.IntVar(&exploreYear, "year", 0, "year to explore")
	f.IntVar(&exploreQuarter, "quarter", 0, "quarter to explore (1-4)")
	f.StringVar(&exploreView, "view", "", "summary, categories, districts, pincodes, states or rows")
	f.IntVar(&exploreTop, "top", 10, "rows to show in the top district and pincode views")
}

// exploreState is the current selection of an explorer session
type exploreState struct {
	domain  catalog.Domain
	year    int
	quarter int
	view    string
	top     int
}

func runExplore(cmd *cobra.Command, args []string) error {
	st := exploreState{year: exploreYear, quarter: exploreQuarter, view: exploreView, top: exploreTop}
	if exploreDomain != "" {
		d, err := catalog.ParseDomain(exploreDomain)
		if err != nil {
			return err
		}
		st.domain = d
	}
	if st.view != "" {
		if _, ok := viewLabels[st.view]; !ok {
			return errors.ValidationError("view", st.view, "must be one of summary, categories, districts, pincodes, states, rows")
		}
	}

	oneShot := st.domain != "" && st.year != 0 && st.quarter != 0 && st.view != ""
	if !oneShot {
		if _, survey := prompter.(ui.SurveyPrompter); survey && !interactive() {
			return errors.New(errors.ErrCodeInvalidInput, "explore needs a terminal unless --domain, --year, --quarter and --view are all set")
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = observability.ContextWithRunID(ctx, uuid.NewString())

	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()

	x := s.explorer()
	r := ui.NewRenderer(cmd.OutOrStdout(), format())

	if oneShot {
		return showView(ctx, x, r, st)
	}
	return exploreLoop(ctx, x, r, st)
}

// lookupError is a warehouse failure while building the menus. Unlike a
// prompt failure it does not end the session.
type lookupError struct {
	err error
}

func (e lookupError) Error() string { return e.err.Error() }

func (e lookupError) Unwrap() error { return e.err }

func exploreLoop(ctx context.Context, x *catalog.Explorer, r *ui.Renderer, st exploreState) error {
	for {
		if err := completeSelection(ctx, x, &st); err != nil {
			lookup, ok := err.(lookupError)
			if !ok {
				return err
			}
			// the periods belong to the domain, so the whole selection goes
			ui.ShowError(lookup.err)
			st = exploreState{top: st.top}
			continue
		}
		if err := showView(ctx, x, r, st); err != nil {
			// a failed view is reported and the session goes on
			ui.ShowError(err)
		}

		next, err := prompter.Select("What next?",
			[]string{"Another view", "Another period", "Another domain", "Quit"}, "Another view")
		if err != nil {
			return err
		}
		switch next {
		case "Another view":
			st.view = ""
		case "Another period":
			st.year, st.quarter, st.view = 0, 0, ""
		case "Another domain":
			st = exploreState{top: st.top}
		default:
			return nil
		}
	}
}

// completeSelection prompts for whatever st is missing
func completeSelection(ctx context.Context, x *catalog.Explorer, st *exploreState) error {
	if st.domain == "" {
		names := make([]string, len(catalog.Domains))
		for i, d := range catalog.Domains {
			names[i] = string(d)
		}
		answer, err := prompter.Select("Domain:", names, names[0])
		if err != nil {
			return err
		}
		if st.domain, err = catalog.ParseDomain(answer); err != nil {
			return err
		}
	}

	if st.year == 0 || st.quarter == 0 {
		years, quarters, err := x.Periods(ctx, st.domain)
		if err != nil {
			return lookupError{err}
		}
		if len(years) == 0 {
			return lookupError{errors.New(errors.ErrCodeNoData, fmt.Sprintf("no %s data in the warehouse", st.domain))}
		}
		if st.year == 0 {
			if st.year, err = ui.SelectInt(prompter, "Year:", years); err != nil {
				return err
			}
		}
		if st.quarter == 0 {
			if st.quarter, err = ui.SelectInt(prompter, "Quarter:", quarters); err != nil {
				return err
			}
		}
	}

	if st.view == "" {
		views := viewsFor(st.domain)
		labels := make([]string, len(views))
		for i, v := range views {
			labels[i] = viewLabels[v]
		}
		answer, err := prompter.Select("View:", labels, labels[0])
		if err != nil {
			return err
		}
		for _, v := range views {
			if viewLabels[v] == answer {
				st.view = v
			}
		}
		if st.view == viewDistricts || st.view == viewPincodes {
			if st.top, err = ui.InputInt(prompter, "How many?", st.top); err != nil {
				return err
			}
		}
	}
	return nil
}

func showView(ctx context.Context, x *catalog.Explorer, r *ui.Renderer, st exploreState) error {
	var (
		t   *models.Table
		err error
	)
	switch st.view {
	case viewSummary:
		var sum *catalog.Summary
		if sum, err = x.Summary(ctx, st.domain, st.year, st.quarter); err == nil {
			t, err = sum.Table()
		}
	case viewCategories:
		if st.domain != catalog.DomainTransactions {
			return errors.ValidationError("view", st.view, "only exists for transactions")
		}
		t, err = x.PaymentCategories(ctx, st.year, st.quarter)
	case viewDistricts:
		t, err = x.TopDistricts(ctx, st.domain, st.year, st.quarter, st.top)
	case viewPincodes:
		t, err = x.TopPincodes(ctx, st.domain, st.year, st.quarter, st.top)
	case viewStates:
		t, err = x.StateBreakdown(ctx, st.domain, st.year, st.quarter)
	case viewRows:
		t, err = x.QueryFiltered(ctx, st.domain.MapRelation(), st.year, st.quarter)
	default:
		return errors.ValidationError("view", st.view, "unknown view")
	}
	if err != nil {
		return err
	}

	title := fmt.Sprintf("%s: %s %dQ%d", viewLabels[st.view], st.domain, st.year, st.quarter)
	return r.Table(title, t)
}

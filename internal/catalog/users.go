package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"paysight/internal/analysis"
	"paysight/pkg/models"
)

func deviceBrandExtremes() *Entry {
	e := &Entry{
		Name:      "device_brand_extremes",
		Title:     "Device brands with the most and fewest users",
		Sources:   []string{"agg_user"},
		Partition: "brand",
		Measures:  []string{"User_count"},
		Idioms:    []Idiom{IdiomRank},
		Ordering:  "users descending; top 3 and bottom 3 without duplicates",
		Limit:     6,
		Columns:   []models.Column{models.Text("brand_name"), models.Integer("total_users")},
	}
	e.run = func(ctx context.Context, r *runner) (*Result, error) {
		src, err := r.load(ctx, []models.Column{models.Text("brand"), models.Decimal("users")},
			`SELECT Brand_name, SUM(User_count) FROM agg_user GROUP BY Brand_name`)
		if err != nil {
			return nil, err
		}

		out := e.newTable()
		for _, it := range analysis.Extremes(ranked(src, "brand", "users"), 3) {
			if err := out.AddRow(it.Key, it.Value); err != nil {
				return nil, err
			}
		}
		return &Result{Table: out}, nil
	}
	return e
}

func stateEngagementExtremes() *Entry {
	e := &Entry{
		Name:      "state_engagement_extremes",
		Title:     "States with the highest and lowest app engagement",
		Sources:   []string{"map_user"},
		Partition: "state",
		Measures:  []string{"Registered_users", "Number_of_app_opens"},
		Idioms:    []Idiom{IdiomShare, IdiomRank},
		Ordering:  "engagement rate descending; top 3 and bottom 3 without duplicates",
		Limit:     6,
		Columns:   []models.Column{models.Text("state"), models.Decimal("engagement_rate")},
	}
	e.run = func(ctx context.Context, r *runner) (*Result, error) {
		src, err := r.load(ctx, []models.Column{models.Text("state"), models.Decimal("avg_registered"), models.Decimal("avg_opens")},
			`SELECT State, AVG(Registered_users), AVG(Number_of_app_opens) FROM map_user GROUP BY State`)
		if err != nil {
			return nil, err
		}

		rates := make([]analysis.Ranked, 0, src.Len())
		for i := 0; i < src.Len(); i++ {
			state, ok := text(src, i, "state")
			if !ok {
				continue
			}
			// the averages are rounded before dividing, as they are reported
			reg := num(src, i, "avg_registered").Round(2)
			opens := num(src, i, "avg_opens").Round(2)
			if rate := analysis.Round(analysis.Ratio(opens, reg), 2); rate.Valid {
				rates = append(rates, analysis.Ranked{Key: state, Value: rate.Decimal})
			}
		}

		out := e.newTable()
		for _, it := range analysis.Extremes(rates, 3) {
			if err := out.AddRow(it.Key, it.Value); err != nil {
				return nil, err
			}
		}
		return &Result{Table: out}, nil
	}
	return e
}

func quarterEngagementExtremes() *Entry {
	e := &Entry{
		Name:      "quarter_engagement_extremes",
		Title:     "Highest and lowest engagement quarter of each year",
		Sources:   []string{"map_user"},
		Partition: "year x quarter",
		Measures:  []string{"Registered_users", "Number_of_app_opens"},
		Idioms:    []Idiom{IdiomShare, IdiomPeak},
		Ordering:  "year ascending, then engagement rate ascending",
		Columns:   []models.Column{models.Integer("year"), models.Integer("quarter"), models.Decimal("engagement_rate")},
	}
	e.run = func(ctx context.Context, r *runner) (*Result, error) {
		src, err := r.load(ctx, []models.Column{models.Integer("year"), models.Integer("quarter"), models.Decimal("opens"), models.Decimal("registered")},
			`SELECT Year, Quarter, SUM(Number_of_app_opens), SUM(Registered_users) FROM map_user WHERE Year >= ? GROUP BY Year, Quarter`,
			firstGrowthYear)
		if err != nil {
			return nil, err
		}

		cells := make([]analysis.Cell, 0, src.Len())
		for i := 0; i < src.Len(); i++ {
			year, ok1 := period(src, i, "year")
			quarter, ok2 := period(src, i, "quarter")
			if !ok1 || !ok2 {
				continue
			}
			rate := analysis.Round(analysis.Ratio(num(src, i, "opens"), num(src, i, "registered")), 4)
			cells = append(cells, analysis.Cell{Partition: year, Member: quarter, Value: rate})
		}

		picked := make(map[int]analysis.Cell)
		for _, c := range append(analysis.Peaks(cells), analysis.Troughs(cells)...) {
			picked[quarterOrdinal(c.Partition, c.Member)] = c
		}
		rows := make([]analysis.Cell, 0, len(picked))
		for _, c := range picked {
			rows = append(rows, c)
		}
		sort.Slice(rows, func(i, j int) bool {
			a, b := rows[i], rows[j]
			if a.Partition != b.Partition {
				return a.Partition < b.Partition
			}
			if a.Value.Valid != b.Value.Valid {
				return a.Value.Valid
			}
			if a.Value.Valid {
				if c := a.Value.Decimal.Cmp(b.Value.Decimal); c != 0 {
					return c < 0
				}
			}
			return a.Member < b.Member
		})

		out := e.newTable()
		for _, c := range rows {
			if err := out.AddRow(c.Partition, c.Member, c.Value); err != nil {
				return nil, err
			}
		}
		return &Result{Table: out}, nil
	}
	return e
}

func consistentGrowthStates() *Entry {
	e := &Entry{
		Name:      "consistent_growth_states",
		Title:     "States growing in both registered users and transactions",
		Sources:   []string{"map_user", "agg_trans"},
		Partition: "state x year",
		Measures:  []string{"Registered_users", "Transaction_count"},
		Idioms:    []Idiom{IdiomGrowth, IdiomRank},
		Ordering:  "average transaction growth descending; both averages positive",
		Limit:     10,
		Columns:   []models.Column{models.Text("state"), models.Decimal("avg_user_growth_pct"), models.Decimal("avg_transaction_growth_pct")},
	}
	e.run = func(ctx context.Context, r *runner) (*Result, error) {
		users, err := r.load(ctx, stateYearColumns,
			`SELECT State, Year, SUM(Registered_users) FROM map_user GROUP BY State, Year`)
		if err != nil {
			return nil, err
		}
		txns, err := r.load(ctx, stateYearColumns,
			`SELECT State, Year, SUM(Transaction_count) FROM agg_trans GROUP BY State, Year`)
		if err != nil {
			return nil, err
		}

		txnGrowth := analysis.ByPartition(analysis.YoY(points(txns, "state", "year", "total")))

		// a year counts once both series have a predecessor; a zero
		// predecessor leaves that series' growth out of its own average
		userHist := make(map[string][]decimal.NullDecimal)
		txnHist := make(map[string][]decimal.NullDecimal)
		for _, u := range analysis.YoY(points(users, "state", "year", "total")) {
			t, ok := txnGrowth[u.Partition][u.Period]
			if !u.Previous.Valid || !ok || !t.Previous.Valid {
				continue
			}
			userHist[u.Partition] = append(userHist[u.Partition], analysis.Round(u.Pct, percentPlaces))
			txnHist[u.Partition] = append(txnHist[u.Partition], analysis.Round(t.Pct, percentPlaces))
		}

		userAvg := make(map[string]decimal.Decimal)
		candidates := make([]analysis.Ranked, 0, len(userHist))
		for state := range userHist {
			u := analysis.MeanValid(userHist[state])
			t := analysis.MeanValid(txnHist[state])
			if !u.Valid || !t.Valid || !u.Decimal.IsPositive() || !t.Decimal.IsPositive() {
				continue
			}
			userAvg[state] = u.Decimal.Round(percentPlaces)
			candidates = append(candidates, analysis.Ranked{Key: state, Value: t.Decimal.Round(percentPlaces)})
		}

		out := e.newTable()
		for _, it := range analysis.Top(candidates, e.Limit) {
			if err := out.AddRow(it.Key, userAvg[it.Key], it.Value); err != nil {
				return nil, err
			}
		}
		return &Result{Table: out}, nil
	}
	return e
}

func districtAppOpenShare() *Entry {
	e := &Entry{
		Name:      "district_app_open_share",
		Title:     "App open share of the leading districts in the top 3 states",
		Sources:   []string{"map_user"},
		Partition: "state -> district",
		Measures:  []string{"Registered_users", "Number_of_app_opens"},
		Idioms:    []Idiom{IdiomDrilldown, IdiomShare},
		Ordering:  "state ascending, then district rank by registered users",
		Limit:     15,
		Columns: []models.Column{
			models.Text("state"),
			models.Text("district_name"),
			models.Integer("total_registered_users"),
			models.Integer("total_app_opens"),
			models.Decimal("app_open_share_pct"),
			models.Decimal("state_app_open_share_pct"),
		},
	}
	e.run = func(ctx context.Context, r *runner) (*Result, error) {
		src, err := r.load(ctx, []models.Column{models.Text("state"), models.Text("district"), models.Decimal("registered"), models.Decimal("opens")},
			`SELECT State, District_name, SUM(Registered_users), SUM(Number_of_app_opens) FROM map_user GROUP BY State, District_name`)
		if err != nil {
			return nil, err
		}

		rows := make([]analysis.ChildRow, 0, src.Len())
		for i := 0; i < src.Len(); i++ {
			state, ok1 := text(src, i, "state")
			district, ok2 := text(src, i, "district")
			if !ok1 || !ok2 {
				continue
			}
			registered := num(src, i, "registered")
			rows = append(rows, analysis.ChildRow{
				Parent:    state,
				Child:     district,
				Primary:   registered,
				Secondary: registered,
				Measure:   num(src, i, "opens"),
			})
		}

		out := e.newTable()
		groups := make(map[string]*models.Table)
		for _, g := range analysis.Drilldown(rows, 3, 5) {
			sub := models.MustNewTable(fmt.Sprintf("%s/%s", e.Name, g.Parent),
				models.Text("district_name"),
				models.Integer("total_registered_users"),
				models.Integer("total_app_opens"),
				models.Decimal("app_open_share_pct"),
			)
			for _, c := range g.Children {
				share := pct(c.GroupShare)
				if err := out.AddRow(g.Parent, c.Child, c.Secondary, c.Measure, share, pct(c.ParentShare)); err != nil {
					return nil, err
				}
				if err := sub.AddRow(c.Child, c.Secondary, c.Measure, share); err != nil {
					return nil, err
				}
			}
			groups[g.Parent] = sub
		}
		return &Result{Table: out, Groups: groups}, nil
	}
	return e
}

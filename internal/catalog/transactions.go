package catalog

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"paysight/internal/analysis"
	"paysight/pkg/models"
)

func transactionGrowth() *Entry {
	e := &Entry{
		Name:      "transaction_growth",
		Title:     "Growth in transaction volume over years",
		Sources:   []string{"agg_trans"},
		Partition: "year",
		Measures:  []string{"Transaction_count", "Transaction_amount"},
		Idioms:    []Idiom{IdiomGrowth},
		Ordering:  "year ascending; years without a defined growth are dropped",
		Columns: []models.Column{
			models.Integer("year"),
			models.Integer("total_transactions"),
			models.Decimal("total_transaction_amount"),
			models.Decimal("transaction_count_growth_pct"),
			models.Decimal("transaction_amount_growth_pct"),
		},
	}
	e.run = func(ctx context.Context, r *runner) (*Result, error) {
		src, err := r.load(ctx, yearlyColumns,
			`SELECT Year, SUM(Transaction_count), SUM(Transaction_amount) FROM agg_trans GROUP BY Year ORDER BY Year`)
		if err != nil {
			return nil, err
		}
		return yearlyGrowth(e, src)
	}
	return e
}

var yearlyColumns = []models.Column{models.Integer("year"), models.Integer("count"), models.Decimal("amount")}

// yearlyGrowth shapes a (year, count, amount) series into growth rows.
// A year is kept only when both growths are defined.
func yearlyGrowth(e *Entry, src *models.Table) (*Result, error) {
	counts := analysis.YoY(points(src, "", "year", "count"))
	amounts := analysis.ByPartition(analysis.YoY(points(src, "", "year", "amount")))[""]

	out := e.newTable()
	for _, c := range counts {
		a := amounts[c.Period]
		if !c.HasGrowth() || !a.HasGrowth() {
			continue
		}
		if err := out.AddRow(c.Period, c.Value, a.Value, pct(c.Pct), pct(a.Pct)); err != nil {
			return nil, err
		}
	}
	return &Result{Table: out}, nil
}

var stateYearColumns = []models.Column{models.Text("state"), models.Integer("year"), models.Decimal("total")}

func stateGrowthLeaders() *Entry {
	e := &Entry{
		Name:      "state_growth_leaders",
		Title:     "States with the highest average year-on-year transaction growth",
		Sources:   []string{"agg_trans"},
		Partition: "state x year",
		Measures:  []string{"Transaction_count"},
		Idioms:    []Idiom{IdiomGrowth, IdiomRank},
		Ordering:  "average growth descending; candidates are the top 3 and bottom 3 states of each year",
		Limit:     5,
		Columns:   []models.Column{models.Text("state"), models.Decimal("avg_transaction_growth_pct")},
	}
	e.run = func(ctx context.Context, r *runner) (*Result, error) {
		src, err := r.load(ctx, stateYearColumns,
			`SELECT State, Year, SUM(Transaction_count) FROM agg_trans GROUP BY State, Year`)
		if err != nil {
			return nil, err
		}

		byYear := make(map[int][]analysis.Ranked)
		history := make(map[string][]decimal.Decimal)
		for _, c := range analysis.Defined(analysis.YoY(points(src, "state", "year", "total"))) {
			g := c.Pct.Decimal.Round(percentPlaces)
			byYear[c.Period] = append(byYear[c.Period], analysis.Ranked{Key: c.Partition, Value: g})
			if c.Period >= firstGrowthYear {
				history[c.Partition] = append(history[c.Partition], g)
			}
		}

		pool := make(map[string]bool)
		for _, candidates := range byYear {
			for _, it := range analysis.Extremes(candidates, 3) {
				pool[it.Key] = true
			}
		}

		averages := make([]analysis.Ranked, 0, len(pool))
		for state := range pool {
			if avg := pct(analysis.Mean(history[state])); avg.Valid {
				averages = append(averages, analysis.Ranked{Key: state, Value: avg.Decimal})
			}
		}

		out := e.newTable()
		for _, it := range analysis.Top(averages, e.Limit) {
			if err := out.AddRow(it.Key, it.Value); err != nil {
				return nil, err
			}
		}
		return &Result{Table: out}, nil
	}
	return e
}

func decliningStates() *Entry {
	e := &Entry{
		Name:      "declining_states",
		Title:     "States with the weakest transaction growth in the focus year",
		Sources:   []string{"agg_trans"},
		Partition: "state x year",
		Measures:  []string{"Transaction_count"},
		Idioms:    []Idiom{IdiomGrowth, IdiomRank},
		Ordering:  "state, year ascending; the 5 states with the lowest focus-year growth",
		Columns:   []models.Column{models.Text("state"), models.Integer("year"), models.Decimal("transaction_growth_pct")},
	}
	e.run = func(ctx context.Context, r *runner) (*Result, error) {
		src, err := r.load(ctx, stateYearColumns,
			`SELECT State, Year, SUM(Transaction_count) FROM agg_trans WHERE Year BETWEEN ? AND ? GROUP BY State, Year`,
			recentFrom, focusYear)
		if err != nil {
			return nil, err
		}

		changes := analysis.Defined(analysis.YoY(points(src, "state", "year", "total")))

		var focus []analysis.Ranked
		for _, c := range changes {
			if c.Period == focusYear {
				focus = append(focus, analysis.Ranked{Key: c.Partition, Value: c.Pct.Decimal.Round(percentPlaces)})
			}
		}
		selected := make(map[string]bool)
		for _, it := range analysis.Lowest(focus, 5) {
			selected[it.Key] = true
		}

		out := e.newTable()
		for _, c := range changes {
			if !selected[c.Partition] {
				continue
			}
			if err := out.AddRow(c.Partition, c.Period, pct(c.Pct)); err != nil {
				return nil, err
			}
		}
		return &Result{Table: out}, nil
	}
	return e
}

func quarterSpikes() *Entry {
	e := &Entry{
		Name:      "quarter_spikes",
		Title:     "Quarter with the highest transaction spike in each year",
		Sources:   []string{"agg_trans"},
		Partition: "year x quarter",
		Measures:  []string{"Transaction_count"},
		Idioms:    []Idiom{IdiomGrowth, IdiomPeak},
		Ordering:  "year ascending, one row per year; quarters without a spike rank last",
		Columns: []models.Column{
			models.Integer("year"),
			models.Integer("quarter"),
			models.Integer("total_transactions"),
			models.Integer("prev_total_transactions"),
			models.Decimal("spike_pct"),
		},
	}
	e.run = func(ctx context.Context, r *runner) (*Result, error) {
		src, err := r.load(ctx, yearQuarterColumns,
			`SELECT Year, Quarter, SUM(Transaction_count) FROM agg_trans WHERE Year BETWEEN ? AND ? GROUP BY Year, Quarter`,
			2018, focusYear)
		if err != nil {
			return nil, err
		}

		// one global series across all quarters, so Q1 compares with the prior Q4
		series := make([]analysis.Point, 0, src.Len())
		for i := 0; i < src.Len(); i++ {
			year, ok1 := period(src, i, "year")
			quarter, ok2 := period(src, i, "quarter")
			if !ok1 || !ok2 {
				continue
			}
			series = append(series, analysis.Point{Period: quarterOrdinal(year, quarter), Value: num(src, i, "total")})
		}

		byPeriod := make(map[int]analysis.Change)
		cells := make([]analysis.Cell, 0, len(series))
		for _, c := range analysis.YoY(series) {
			byPeriod[c.Period] = c
			cells = append(cells, analysis.Cell{Partition: c.Period / 10, Member: c.Period % 10, Value: c.Pct})
		}

		out := e.newTable()
		for _, peak := range analysis.Peaks(cells) {
			c := byPeriod[quarterOrdinal(peak.Partition, peak.Member)]
			if err := out.AddRow(peak.Partition, peak.Member, c.Value, c.Previous, pct(c.Pct)); err != nil {
				return nil, err
			}
		}
		return &Result{Table: out}, nil
	}
	return e
}

var yearQuarterColumns = []models.Column{models.Integer("year"), models.Integer("quarter"), models.Decimal("total")}

func quarterOrdinal(year, quarter int) int {
	return year*10 + quarter
}

func transactionTypeShare() *Entry {
	e := &Entry{
		Name:      "transaction_type_share",
		Title:     "Average yearly share of transaction amount by payment type",
		Sources:   []string{"agg_trans"},
		Partition: "year x transaction_type",
		Measures:  []string{"Transaction_amount"},
		Idioms:    []Idiom{IdiomShare},
		Ordering:  "average share descending",
		Columns:   []models.Column{models.Text("transaction_type"), models.Decimal("avg_share_pct")},
	}
	e.run = func(ctx context.Context, r *runner) (*Result, error) {
		src, err := r.load(ctx, []models.Column{models.Integer("year"), models.Text("type"), models.Decimal("amount")},
			`SELECT Year, Transaction_type, SUM(Transaction_amount) FROM agg_trans GROUP BY Year, Transaction_type`)
		if err != nil {
			return nil, err
		}

		yearTotals := make(map[int]decimal.Decimal)
		for i := 0; i < src.Len(); i++ {
			if year, ok := period(src, i, "year"); ok {
				yearTotals[year] = yearTotals[year].Add(num(src, i, "amount"))
			}
		}

		shares := make(map[string][]decimal.NullDecimal)
		for i := 0; i < src.Len(); i++ {
			year, ok := period(src, i, "year")
			typ, ok2 := text(src, i, "type")
			if !ok || !ok2 {
				continue
			}
			shares[typ] = append(shares[typ], analysis.Share(num(src, i, "amount"), yearTotals[year]))
		}

		type row struct {
			typ string
			avg decimal.NullDecimal
		}
		rows := make([]row, 0, len(shares))
		for typ, s := range shares {
			rows = append(rows, row{typ: typ, avg: pct(analysis.MeanValid(s))})
		}
		sort.Slice(rows, func(i, j int) bool {
			a, b := rows[i].avg, rows[j].avg
			if a.Valid != b.Valid {
				return a.Valid
			}
			if a.Valid {
				if c := a.Decimal.Cmp(b.Decimal); c != 0 {
					return c > 0
				}
			}
			return rows[i].typ < rows[j].typ
		})

		out := e.newTable()
		for _, rw := range rows {
			if err := out.AddRow(rw.typ, rw.avg); err != nil {
				return nil, err
			}
		}
		return &Result{Table: out}, nil
	}
	return e
}

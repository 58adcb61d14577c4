package catalog

import (
	"context"

	"github.com/shopspring/decimal"

	"paysight/internal/analysis"
	"paysight/pkg/models"
)

func insuranceGrowth() *Entry {
	e := &Entry{
		Name:      "insurance_growth",
		Title:     "Growth in insurance transactions over recent years",
		Sources:   []string{"agg_ins"},
		Partition: "year",
		Measures:  []string{"Insurance_count", "Insurance_amount"},
		Idioms:    []Idiom{IdiomGrowth},
		Ordering:  "year ascending; years without a defined growth are dropped",
		Columns: []models.Column{
			models.Integer("year"),
			models.Integer("insurance_count"),
			models.Decimal("insurance_amount"),
			models.Decimal("insurance_count_growth_pct"),
			models.Decimal("insurance_amount_growth_pct"),
		},
	}
	e.run = func(ctx context.Context, r *runner) (*Result, error) {
		src, err := r.load(ctx, yearlyColumns,
			`SELECT Year, SUM(Insurance_count), SUM(Insurance_amount) FROM agg_ins WHERE Year BETWEEN ? AND ? GROUP BY Year ORDER BY Year`,
			recentFrom, focusYear)
		if err != nil {
			return nil, err
		}
		return yearlyGrowth(e, src)
	}
	return e
}

func insuranceValueRange() *Entry {
	e := &Entry{
		Name:      "insurance_value_range",
		Title:     "States with the widest swing in yearly insurance value",
		Sources:   []string{"agg_ins"},
		Partition: "state x year",
		Measures:  []string{"Insurance_amount"},
		Idioms:    []Idiom{IdiomRank},
		Ordering:  "range descending",
		Limit:     5,
		Columns: []models.Column{
			models.Text("state"),
			models.Decimal("insurance_value_range"),
			models.Decimal("insurance_value_range_cr"),
		},
	}
	e.run = func(ctx context.Context, r *runner) (*Result, error) {
		src, err := r.load(ctx, stateYearColumns,
			`SELECT State, Year, SUM(Insurance_amount) FROM agg_ins GROUP BY State, Year`)
		if err != nil {
			return nil, err
		}

		yearly := make(map[string][]decimal.Decimal)
		for _, p := range points(src, "state", "year", "total") {
			yearly[p.Partition] = append(yearly[p.Partition], p.Value)
		}
		spreads := make([]analysis.Ranked, 0, len(yearly))
		for state, values := range yearly {
			spreads = append(spreads, analysis.Ranked{Key: state, Value: analysis.Spread(values).Decimal})
		}

		out := e.newTable()
		for _, it := range analysis.Top(spreads, e.Limit) {
			if err := out.AddRow(it.Key, it.Value, it.Value.Div(crore).Round(percentPlaces)); err != nil {
				return nil, err
			}
		}
		return &Result{Table: out}, nil
	}
	return e
}

func untappedStates() *Entry {
	e := &Entry{
		Name:      "untapped_states",
		Title:     "States with high transaction activity but low insurance penetration",
		Sources:   []string{"agg_trans", "agg_ins"},
		Partition: "state",
		Measures:  []string{"Transaction_count", "Transaction_amount", "Insurance_count", "Insurance_amount"},
		Idioms:    []Idiom{IdiomShare, IdiomRank},
		Ordering:  "penetration ascending",
		Limit:     5,
		Columns: []models.Column{
			models.Text("state"),
			models.Integer("total_transactions"),
			models.Decimal("total_transaction_amount"),
			models.Integer("total_insurances"),
			models.Decimal("total_insurance_amount"),
			models.Decimal("insurance_penetration_pct"),
			models.Decimal("insurance_value_share_pct"),
		},
	}
	e.run = func(ctx context.Context, r *runner) (*Result, error) {
		stateTotals := []models.Column{models.Text("state"), models.Decimal("count"), models.Decimal("amount")}
		txns, err := r.load(ctx, stateTotals,
			`SELECT State, SUM(Transaction_count), SUM(Transaction_amount) FROM agg_trans GROUP BY State`)
		if err != nil {
			return nil, err
		}
		ins, err := r.load(ctx, stateTotals,
			`SELECT State, SUM(Insurance_count), SUM(Insurance_amount) FROM agg_ins GROUP BY State`)
		if err != nil {
			return nil, err
		}

		type totals struct{ count, amount decimal.NullDecimal }
		insurance := make(map[string]totals)
		for i := 0; i < ins.Len(); i++ {
			if state, ok := text(ins, i, "state"); ok {
				insurance[state] = totals{nullNum(ins, i, "count"), nullNum(ins, i, "amount")}
			}
		}

		type row struct {
			txn, ins          totals
			penetration, vshr decimal.NullDecimal
		}
		rows := make(map[string]row)
		var candidates []analysis.Ranked
		for i := 0; i < txns.Len(); i++ {
			state, ok := text(txns, i, "state")
			if !ok {
				continue
			}
			// states without insurance rows keep null insurance totals
			t := totals{nullNum(txns, i, "count"), nullNum(txns, i, "amount")}
			in := insurance[state]
			penetration := analysis.Round(analysis.ShareNull(in.count, t.count), 5)
			if !penetration.Valid {
				continue
			}
			rows[state] = row{txn: t, ins: in, penetration: penetration, vshr: analysis.Round(analysis.ShareNull(in.amount, t.amount), 5)}
			candidates = append(candidates, analysis.Ranked{Key: state, Value: penetration.Decimal})
		}

		out := e.newTable()
		for _, it := range analysis.Lowest(candidates, e.Limit) {
			rw := rows[it.Key]
			if err := out.AddRow(it.Key, rw.txn.count, rw.txn.amount, rw.ins.count, rw.ins.amount, rw.penetration, rw.vshr); err != nil {
				return nil, err
			}
		}
		return &Result{Table: out}, nil
	}
	return e
}

func topInsuranceStates() *Entry {
	e := &Entry{
		Name:      "top_insurance_states",
		Title:     "States with the highest insurance amount in the focus year",
		Sources:   []string{"top_ins"},
		Partition: "state",
		Measures:  []string{"Insurance_amount"},
		Idioms:    []Idiom{IdiomRank},
		Ordering:  "amount descending",
		Limit:     3,
		Columns:   []models.Column{models.Text("state"), models.Decimal("total_insurance_amount")},
	}
	e.run = func(ctx context.Context, r *runner) (*Result, error) {
		src, err := r.load(ctx, keyTotalColumns,
			`SELECT State, SUM(Insurance_amount) FROM top_ins WHERE Year = ? GROUP BY State`,
			focusYear)
		if err != nil {
			return nil, err
		}
		return topN(e, src)
	}
	return e
}

var keyTotalColumns = []models.Column{models.Text("key"), models.Decimal("total")}

// topN keeps the e.Limit highest (key, total) rows
func topN(e *Entry, src *models.Table) (*Result, error) {
	out := e.newTable()
	for _, it := range analysis.Top(ranked(src, "key", "total"), e.Limit) {
		if err := out.AddRow(it.Key, it.Value.Round(percentPlaces)); err != nil {
			return nil, err
		}
	}
	return &Result{Table: out}, nil
}

func peakInsuranceQuarters() *Entry {
	e := &Entry{
		Name:      "peak_insurance_quarters",
		Title:     "Quarter with the highest insurance amount in each year",
		Sources:   []string{"top_ins"},
		Partition: "year x quarter",
		Measures:  []string{"Insurance_amount"},
		Idioms:    []Idiom{IdiomPeak},
		Ordering:  "year ascending, one row per year",
		Columns:   []models.Column{models.Integer("year"), models.Integer("quarter"), models.Decimal("total_insurance_amount")},
	}
	e.run = func(ctx context.Context, r *runner) (*Result, error) {
		src, err := r.load(ctx, yearQuarterColumns,
			`SELECT Year, Quarter, SUM(Insurance_amount) FROM top_ins GROUP BY Year, Quarter`)
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
			cells = append(cells, analysis.Cell{Partition: year, Member: quarter, Value: nullNum(src, i, "total")})
		}

		out := e.newTable()
		for _, c := range analysis.Peaks(cells) {
			if err := out.AddRow(c.Partition, c.Member, c.Value); err != nil {
				return nil, err
			}
		}
		return &Result{Table: out}, nil
	}
	return e
}

func topInsuranceDistricts() *Entry {
	e := &Entry{
		Name:      "top_insurance_districts",
		Title:     "Districts with the highest insurance amount in the focus year",
		Sources:   []string{"map_ins"},
		Partition: "district",
		Measures:  []string{"Insurance_amount"},
		Idioms:    []Idiom{IdiomRank},
		Ordering:  "amount descending",
		Limit:     5,
		Columns:   []models.Column{models.Text("district_name"), models.Decimal("total_insurance_amount")},
	}
	e.run = func(ctx context.Context, r *runner) (*Result, error) {
		src, err := r.load(ctx, keyTotalColumns,
			`SELECT District_name, SUM(Insurance_amount) FROM map_ins WHERE Year = ? GROUP BY District_name`,
			focusYear)
		if err != nil {
			return nil, err
		}
		return topN(e, src)
	}
	return e
}

func pincodeInsuranceGrowth() *Entry {
	e := &Entry{
		Name:      "pincode_insurance_growth",
		Title:     "Pincodes with the largest rise in insurance transactions in the focus year",
		Sources:   []string{"top_ins"},
		Partition: "pincode x year",
		Measures:  []string{"Insurance_count"},
		Idioms:    []Idiom{IdiomGrowth, IdiomRank},
		Ordering:  "absolute growth descending",
		Limit:     5,
		Columns:   []models.Column{models.Text("pincode"), models.Integer("growth_from_prev_year")},
	}
	e.run = func(ctx context.Context, r *runner) (*Result, error) {
		src, err := r.load(ctx, []models.Column{models.Text("pincode"), models.Integer("year"), models.Decimal("total")},
			`SELECT Pincode, Year, SUM(Insurance_count) FROM top_ins WHERE Pincode IS NOT NULL GROUP BY Pincode, Year`)
		if err != nil {
			return nil, err
		}

		var deltas []analysis.Ranked
		for _, c := range analysis.YoY(points(src, "pincode", "year", "total")) {
			if c.Period == focusYear && c.Delta.Valid {
				deltas = append(deltas, analysis.Ranked{Key: c.Partition, Value: c.Delta.Decimal})
			}
		}

		out := e.newTable()
		for _, it := range analysis.Top(deltas, e.Limit) {
			if err := out.AddRow(it.Key, it.Value); err != nil {
				return nil, err
			}
		}
		return &Result{Table: out}, nil
	}
	return e
}

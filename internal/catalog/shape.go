package catalog

import (
	"github.com/shopspring/decimal"

	"paysight/internal/analysis"
	"paysight/pkg/models"
)

const (
	// firstGrowthYear is the first year that can have a predecessor
	firstGrowthYear = 2019
	// focusYear is the latest complete year in the warehouse
	focusYear = 2024
	// recentFrom starts the recent-years window
	recentFrom = 2020

	percentPlaces = 2
)

// crore is 10^7, the unit large rupee amounts are reported in
var crore = decimal.New(1, 7)

// text returns a text cell, false when null
func text(t *models.Table, row int, col string) (string, bool) {
	return t.Text(row, col)
}

// num returns a numeric cell, zero when null. SUM over no rows is NULL.
func num(t *models.Table, row int, col string) decimal.Decimal {
	d, ok := t.Decimal(row, col)
	if !ok {
		return decimal.Zero
	}
	return d
}

// nullNum returns a numeric cell preserving null
func nullNum(t *models.Table, row int, col string) decimal.NullDecimal {
	d, ok := t.Decimal(row, col)
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// period returns an integer cell, false when null
func period(t *models.Table, row int, col string) (int, bool) {
	v, ok := t.Int(row, col)
	return int(v), ok
}

// points turns (partition, period, value) rows into a growth series.
// An empty partition column yields one global series.
func points(t *models.Table, partitionCol, periodCol, valueCol string) []analysis.Point {
	out := make([]analysis.Point, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		p, ok := period(t, i, periodCol)
		if !ok {
			continue
		}
		key := ""
		if partitionCol != "" {
			if key, ok = text(t, i, partitionCol); !ok {
				continue
			}
		}
		out = append(out, analysis.Point{Partition: key, Period: p, Value: num(t, i, valueCol)})
	}
	return out
}

// ranked turns (key, value) rows into ranking input, skipping null keys
func ranked(t *models.Table, keyCol, valueCol string) []analysis.Ranked {
	out := make([]analysis.Ranked, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		key, ok := text(t, i, keyCol)
		if !ok {
			continue
		}
		out = append(out, analysis.Ranked{Key: key, Value: num(t, i, valueCol)})
	}
	return out
}

func pct(v decimal.NullDecimal) decimal.NullDecimal {
	return analysis.Round(v, percentPlaces)
}

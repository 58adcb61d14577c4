package analysis

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Cell is one measure inside a partition, e.g. a quarter within a year
type Cell struct {
	Partition int
	Member    int
	Value     decimal.NullDecimal
}

// Peaks returns, per partition, the member with the largest value.
// Null values rank after every valid value, so a partition only reports a
// null member when it has nothing else. Ties go to the lower member.
// The result is ordered by partition.
func Peaks(cells []Cell) []Cell {
	return pick(cells, func(a, b decimal.Decimal) bool { return a.GreaterThan(b) })
}

// Troughs is Peaks for the smallest value. Nulls still rank last.
func Troughs(cells []Cell) []Cell {
	return pick(cells, func(a, b decimal.Decimal) bool { return a.LessThan(b) })
}

func pick(cells []Cell, better func(a, b decimal.Decimal) bool) []Cell {
	best := make(map[int]Cell)
	for _, c := range cells {
		cur, ok := best[c.Partition]
		if !ok || outranks(c, cur, better) {
			best[c.Partition] = c
		}
	}

	out := make([]Cell, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Partition < out[j].Partition })
	return out
}

func outranks(c, cur Cell, better func(a, b decimal.Decimal) bool) bool {
	switch {
	case c.Value.Valid && !cur.Value.Valid:
		return true
	case !c.Value.Valid && cur.Value.Valid:
		return false
	case c.Value.Valid && cur.Value.Valid:
		if better(c.Value.Decimal, cur.Value.Decimal) {
			return true
		}
		if !c.Value.Decimal.Equal(cur.Value.Decimal) {
			return false
		}
	}
	return c.Member < cur.Member
}

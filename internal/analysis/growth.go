package analysis

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Point is one aggregated measure of a series. Period is any ordinal
// (a year, or year*10+quarter for quarterly series); Partition may be
// empty for a single global series.
type Point struct {
	Partition string
	Period    int
	Value     decimal.Decimal
}

// Change is a Point annotated with its predecessor in the same partition
type Change struct {
	Point
	Previous decimal.NullDecimal
	// Delta is Value-Previous, null when there is no predecessor
	Delta decimal.NullDecimal
	// Pct is Delta/Previous*100, null when there is no predecessor or it is zero
	Pct decimal.NullDecimal
}

// HasGrowth reports whether the percentage growth is defined
func (c Change) HasGrowth() bool {
	return c.Pct.Valid
}

// YoY computes the growth of every point against the point immediately
// preceding it, in period order, within its partition. The predecessor is
// whatever period is present before it, not period-1.
//
// The result is sorted by partition, then period. Points sharing both
// partition and period keep their input order.
func YoY(points []Point) []Change {
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Partition != sorted[j].Partition {
			return sorted[i].Partition < sorted[j].Partition
		}
		return sorted[i].Period < sorted[j].Period
	})

	changes := make([]Change, len(sorted))
	for i, p := range sorted {
		changes[i] = Change{Point: p}
		if i == 0 || sorted[i-1].Partition != p.Partition {
			continue
		}

		prev := sorted[i-1].Value
		delta := p.Value.Sub(prev)
		changes[i].Previous = decimal.NewNullDecimal(prev)
		changes[i].Delta = decimal.NewNullDecimal(delta)
		if !prev.IsZero() {
			changes[i].Pct = decimal.NewNullDecimal(delta.Div(prev).Mul(hundred))
		}
	}
	return changes
}

// Defined drops the changes whose growth percentage is undefined
func Defined(changes []Change) []Change {
	out := make([]Change, 0, len(changes))
	for _, c := range changes {
		if c.HasGrowth() {
			out = append(out, c)
		}
	}
	return out
}

// ByPartition indexes changes by partition and period
func ByPartition(changes []Change) map[string]map[int]Change {
	idx := make(map[string]map[int]Change)
	for _, c := range changes {
		if idx[c.Partition] == nil {
			idx[c.Partition] = make(map[int]Change)
		}
		idx[c.Partition][c.Period] = c
	}
	return idx
}

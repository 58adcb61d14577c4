package analysis

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Ranked is an entity and the measure it is ranked by
type Ranked struct {
	Key   string
	Value decimal.Decimal
}

// SortDesc orders items by value descending, ties by key ascending
func SortDesc(items []Ranked) {
	sort.SliceStable(items, func(i, j int) bool {
		if c := items[i].Value.Cmp(items[j].Value); c != 0 {
			return c > 0
		}
		return items[i].Key < items[j].Key
	})
}

// SortAsc orders items by value ascending, ties by key ascending
func SortAsc(items []Ranked) {
	sort.SliceStable(items, func(i, j int) bool {
		if c := items[i].Value.Cmp(items[j].Value); c != 0 {
			return c < 0
		}
		return items[i].Key < items[j].Key
	})
}

// Top returns the n highest items. The input is not modified.
func Top(items []Ranked, n int) []Ranked {
	sorted := clone(items)
	SortDesc(sorted)
	return head(sorted, n)
}

// Bottom returns the n lowest items, lowest first. It is the tail of the
// order used by Top, so Top and Bottom never disagree on tied items.
func Bottom(items []Ranked, n int) []Ranked {
	sorted := clone(items)
	SortDesc(sorted)
	if n < 0 {
		n = 0
	}
	if n < len(sorted) {
		sorted = sorted[len(sorted)-n:]
	}
	for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
		sorted[i], sorted[j] = sorted[j], sorted[i]
	}
	return sorted
}

// Lowest returns the n lowest items in ascending order, ties by key
// ascending. Use it for plain ascending selections; Bottom is for pairing
// with Top.
func Lowest(items []Ranked, n int) []Ranked {
	sorted := clone(items)
	SortAsc(sorted)
	return head(sorted, n)
}

// Extremes returns the union of the n highest and n lowest items without
// duplicates, ordered by value descending. When there are at most 2n
// distinct keys every item appears exactly once.
func Extremes(items []Ranked, n int) []Ranked {
	return Distinct(append(Top(items, n), Bottom(items, n)...), SortDesc)
}

// Distinct removes repeated keys, keeping the first occurrence, then
// orders the survivors with order (when non-nil).
func Distinct(items []Ranked, order func([]Ranked)) []Ranked {
	seen := make(map[string]bool, len(items))
	out := make([]Ranked, 0, len(items))
	for _, it := range items {
		if seen[it.Key] {
			continue
		}
		seen[it.Key] = true
		out = append(out, it)
	}
	if order != nil {
		order(out)
	}
	return out
}

func clone(items []Ranked) []Ranked {
	out := make([]Ranked, len(items))
	copy(out, items)
	return out
}

func head(items []Ranked, n int) []Ranked {
	if n < 0 {
		n = 0
	}
	if n < len(items) {
		return items[:n]
	}
	return items
}

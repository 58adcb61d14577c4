package analysis

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ChildRow is one child entity (a district) inside a parent (a state).
// Primary ranks parents, Secondary ranks children within a parent and
// Measure is the quantity whose share is reported.
type ChildRow struct {
	Parent    string
	Child     string
	Primary   decimal.Decimal
	Secondary decimal.Decimal
	Measure   decimal.Decimal
}

// DrillChild is a retained child with its shares
type DrillChild struct {
	ChildRow
	Rank int
	// GroupShare is the child's share of the retained children's Measure
	GroupShare decimal.NullDecimal
	// ParentShare is the child's share of the whole parent's Measure
	ParentShare decimal.NullDecimal
}

// Group is one retained parent and its top children
type Group struct {
	Parent        string
	Rank          int
	ParentPrimary decimal.Decimal
	ParentMeasure decimal.Decimal
	Children      []DrillChild
}

// Drilldown ranks parents by the sum of their children's Primary, keeps
// the top parents, then keeps the top children of each by Secondary.
// Ties are broken by name. Groups come back ordered by parent name and
// children by rank.
func Drilldown(rows []ChildRow, parents, children int) []Group {
	byParent := make(map[string][]ChildRow)
	for _, r := range rows {
		byParent[r.Parent] = append(byParent[r.Parent], r)
	}

	totals := make([]Ranked, 0, len(byParent))
	for parent, kids := range byParent {
		primary := decimal.Zero
		for _, k := range kids {
			primary = primary.Add(k.Primary)
		}
		totals = append(totals, Ranked{Key: parent, Value: primary})
	}

	top := Top(totals, parents)
	groups := make([]Group, 0, len(top))
	for i, p := range top {
		kids := byParent[p.Key]

		parentMeasure := decimal.Zero
		for _, k := range kids {
			parentMeasure = parentMeasure.Add(k.Measure)
		}

		sorted := make([]ChildRow, len(kids))
		copy(sorted, kids)
		sort.SliceStable(sorted, func(a, b int) bool {
			if c := sorted[a].Secondary.Cmp(sorted[b].Secondary); c != 0 {
				return c > 0
			}
			return sorted[a].Child < sorted[b].Child
		})
		if children >= 0 && len(sorted) > children {
			sorted = sorted[:children]
		}

		measures := make([]decimal.Decimal, len(sorted))
		for j, k := range sorted {
			measures[j] = k.Measure
		}
		groupShares := Shares(measures)

		g := Group{
			Parent:        p.Key,
			Rank:          i + 1,
			ParentPrimary: p.Value,
			ParentMeasure: parentMeasure,
			Children:      make([]DrillChild, len(sorted)),
		}
		for j, k := range sorted {
			g.Children[j] = DrillChild{
				ChildRow:    k,
				Rank:        j + 1,
				GroupShare:  groupShares[j],
				ParentShare: Share(k.Measure, parentMeasure),
			}
		}
		groups = append(groups, g)
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Parent < groups[j].Parent })
	return groups
}

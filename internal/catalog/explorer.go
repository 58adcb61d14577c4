package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"paysight/internal/analysis"
	"paysight/pkg/errors"
	"paysight/pkg/models"
)

// Domain is one explorer data category
type Domain string

const (
	DomainTransactions Domain = "transactions"
	DomainInsurance    Domain = "insurance"
	DomainUsers        Domain = "users"
)

// Domains lists the explorer categories
var Domains = []Domain{DomainTransactions, DomainInsurance, DomainUsers}

// domainTables names the relations and measures behind a domain. Top and
// Agg are empty when the domain has no such relation.
type domainTables struct {
	Map    string
	Top    string
	Agg    string
	Count  string
	Amount string
	Value  string
}

var domainSources = map[Domain]domainTables{
	DomainTransactions: {Map: "map_trans", Top: "top_trans", Agg: "agg_trans", Count: "Transaction_count", Amount: "Transaction_amount", Value: "Transaction_amount"},
	DomainInsurance:    {Map: "map_ins", Top: "top_ins", Count: "Insurance_count", Amount: "Insurance_amount", Value: "Insurance_amount"},
	DomainUsers:        {Map: "map_user", Value: "Registered_users"},
}

// ParseDomain accepts a domain name in any case
func ParseDomain(s string) (Domain, error) {
	d := Domain(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := domainSources[d]; !ok {
		return "", errors.ValidationError("domain", s, "must be one of transactions, insurance, users")
	}
	return d, nil
}

// MapRelation returns the district-level relation of a domain
func (d Domain) MapRelation() string {
	return domainSources[d].Map
}

// Explorer runs ad-hoc (year, quarter) selections
type Explorer struct {
	settings
	r *runner
}

// NewExplorer creates an explorer over db
func NewExplorer(db *sql.DB, opts ...Option) *Explorer {
	s := newSettings(opts)
	return &Explorer{settings: s, r: s.runner(db)}
}

func validatePeriod(year, quarter int) error {
	if year < 1900 || year > 9999 {
		return errors.ValidationError("year", year, "must be a four-digit year")
	}
	if quarter < 1 || quarter > 4 {
		return errors.ValidationError("quarter", quarter, "must be between 1 and 4")
	}
	return nil
}

// QueryFiltered returns the raw rows of relation for one (year, quarter),
// ordered by the relation's key columns
func (x *Explorer) QueryFiltered(ctx context.Context, relation string, year, quarter int) (*models.Table, error) {
	rel, err := LookupRelation(relation)
	if err != nil {
		return nil, err
	}
	if !rel.Periodic {
		return nil, errors.ValidationError("relation", relation, "has no Year and Quarter columns")
	}
	if err := validatePeriod(year, quarter); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE Year = ? AND Quarter = ? ORDER BY %s",
		strings.Join(rel.ColumnNames(), ", "), rel.Name, strings.Join(rel.Keys, ", "))

	table, err := x.r.load(ctx, rel.Columns, query, year, quarter)
	if err != nil {
		return nil, err
	}
	table.Name = fmt.Sprintf("%s %dQ%d", rel.Name, year, quarter)

	x.logger.WithContext(ctx).DebugWithFields("filtered selection", map[string]interface{}{
		"relation": rel.Name,
		"year":     year,
		"quarter":  quarter,
		"rows":     table.Len(),
	})
	return table, nil
}

// DistinctValues enumerates the non-null values of a column in ascending
// order, typed per the column declaration
func (x *Explorer) DistinctValues(ctx context.Context, relation, column string) ([]interface{}, error) {
	rel, err := LookupRelation(relation)
	if err != nil {
		return nil, err
	}
	col, err := rel.Column(column)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL ORDER BY %s",
		col.Name, rel.Name, col.Name, col.Name)
	table, err := x.r.load(ctx, []models.Column{col}, query)
	if err != nil {
		return nil, err
	}

	values := make([]interface{}, table.Len())
	for i, row := range table.Rows {
		values[i] = row[0]
	}
	return values, nil
}

// Periods returns the selectable years and quarters of a domain
func (x *Explorer) Periods(ctx context.Context, d Domain) (years, quarters []int, err error) {
	toInts := func(values []interface{}) []int {
		out := make([]int, 0, len(values))
		for _, v := range values {
			if n, ok := v.(int64); ok {
				out = append(out, int(n))
			}
		}
		return out
	}

	yv, err := x.DistinctValues(ctx, d.MapRelation(), "Year")
	if err != nil {
		return nil, nil, err
	}
	qv, err := x.DistinctValues(ctx, d.MapRelation(), "Quarter")
	if err != nil {
		return nil, nil, err
	}
	return toInts(yv), toInts(qv), nil
}

// Summary holds the headline metrics of a domain for one period
type Summary struct {
	Domain  Domain
	Year    int
	Quarter int
	Count   decimal.Decimal
	Amount  decimal.Decimal
	// Average is Amount/Count, null when Count is zero
	Average         decimal.NullDecimal
	RegisteredUsers decimal.Decimal
	AppOpens        decimal.Decimal
}

type summaryMetric struct {
	name  string
	value interface{}
}

// Table renders the summary as (metric, value) rows
func (s *Summary) Table() (*models.Table, error) {
	t := models.MustNewTable(fmt.Sprintf("summary %s %dQ%d", s.Domain, s.Year, s.Quarter),
		models.Text("metric"), models.Decimal("value"))

	metrics := []summaryMetric{
		{"total_count", s.Count},
		{"total_amount", s.Amount},
		{"average_value", s.Average},
	}
	if s.Domain == DomainUsers {
		metrics = []summaryMetric{
			{"registered_users", s.RegisteredUsers},
			{"app_opens", s.AppOpens},
		}
	}

	for _, m := range metrics {
		if err := t.AddRow(m.name, m.value); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Summary computes the headline metrics from the filtered map relation
func (x *Explorer) Summary(ctx context.Context, d Domain, year, quarter int) (*Summary, error) {
	src, ok := domainSources[d]
	if !ok {
		return nil, errors.ValidationError("domain", d, "unknown domain")
	}
	rows, err := x.QueryFiltered(ctx, src.Map, year, quarter)
	if err != nil {
		return nil, err
	}

	s := &Summary{Domain: d, Year: year, Quarter: quarter}
	for i := 0; i < rows.Len(); i++ {
		if d == DomainUsers {
			s.RegisteredUsers = s.RegisteredUsers.Add(num(rows, i, "Registered_users"))
			s.AppOpens = s.AppOpens.Add(num(rows, i, "Number_of_app_opens"))
			continue
		}
		s.Count = s.Count.Add(num(rows, i, src.Count))
		s.Amount = s.Amount.Add(num(rows, i, src.Amount))
	}
	if d != DomainUsers {
		s.Average = analysis.Round(analysis.Ratio(s.Amount, s.Count), 2)
	}
	return s, nil
}

// PaymentCategories returns the transaction amount per payment type for
// one period, highest first
func (x *Explorer) PaymentCategories(ctx context.Context, year, quarter int) (*models.Table, error) {
	if err := validatePeriod(year, quarter); err != nil {
		return nil, err
	}
	src, err := x.r.load(ctx, keyTotalColumns,
		`SELECT Transaction_type, SUM(Transaction_amount) FROM agg_trans WHERE Year = ? AND Quarter = ? GROUP BY Transaction_type`,
		year, quarter)
	if err != nil {
		return nil, err
	}

	items := ranked(src, "key", "total")
	analysis.SortDesc(items)
	return rankedTable("payment_categories", "transaction_type", items)
}

// TopDistricts returns the n districts with the largest value measure of
// the domain for one period
func (x *Explorer) TopDistricts(ctx context.Context, d Domain, year, quarter, n int) (*models.Table, error) {
	src, ok := domainSources[d]
	if !ok {
		return nil, errors.ValidationError("domain", d, "unknown domain")
	}
	return x.topBy(ctx, "top_districts", src.Map, "District_name", src.Value, year, quarter, n)
}

// TopPincodes is TopDistricts over the pincode relation. The users domain
// has none.
func (x *Explorer) TopPincodes(ctx context.Context, d Domain, year, quarter, n int) (*models.Table, error) {
	src, ok := domainSources[d]
	if !ok {
		return nil, errors.ValidationError("domain", d, "unknown domain")
	}
	if src.Top == "" {
		return nil, errors.ValidationError("domain", d, "has no pincode-level relation")
	}
	return x.topBy(ctx, "top_pincodes", src.Top, "Pincode", src.Value, year, quarter, n)
}

func (x *Explorer) topBy(ctx context.Context, name, relation, keyCol, valueCol string, year, quarter, n int) (*models.Table, error) {
	if err := validatePeriod(year, quarter); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, errors.ValidationError("n", n, "must be positive")
	}
	rel, err := LookupRelation(relation)
	if err != nil {
		return nil, err
	}
	key, err := rel.Column(keyCol)
	if err != nil {
		return nil, err
	}
	value, err := rel.Column(valueCol)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s, SUM(%s) FROM %s WHERE Year = ? AND Quarter = ? GROUP BY %s",
		key.Name, value.Name, rel.Name, key.Name)
	src, err := x.r.load(ctx, keyTotalColumns, query, year, quarter)
	if err != nil {
		return nil, err
	}
	return rankedTable(name, strings.ToLower(key.Name), analysis.Top(ranked(src, "key", "total"), n))
}

// rankedTable renders ranked items with totals rounded to whole units
func rankedTable(name, keyCol string, items []analysis.Ranked) (*models.Table, error) {
	out := models.MustNewTable(name, models.Text(keyCol), models.Integer("total_value"))
	for _, it := range items {
		if err := out.AddRow(it.Key, it.Value.Round(0)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// StateBreakdown aggregates the filtered map relation per state: totals
// and the mean of per-district average values, or users and app opens
func (x *Explorer) StateBreakdown(ctx context.Context, d Domain, year, quarter int) (*models.Table, error) {
	src, ok := domainSources[d]
	if !ok {
		return nil, errors.ValidationError("domain", d, "unknown domain")
	}
	rows, err := x.QueryFiltered(ctx, src.Map, year, quarter)
	if err != nil {
		return nil, err
	}

	type acc struct {
		count, amount decimal.Decimal
		averages      []decimal.Decimal
	}
	byState := make(map[string]*acc)
	for i := 0; i < rows.Len(); i++ {
		state, ok := text(rows, i, "State")
		if !ok {
			continue
		}
		a := byState[state]
		if a == nil {
			a = &acc{}
			byState[state] = a
		}
		if d == DomainUsers {
			a.count = a.count.Add(num(rows, i, "Registered_users"))
			a.amount = a.amount.Add(num(rows, i, "Number_of_app_opens"))
			continue
		}
		count, amount := num(rows, i, src.Count), num(rows, i, src.Amount)
		a.count = a.count.Add(count)
		a.amount = a.amount.Add(amount)
		if avg := analysis.Ratio(amount, count); avg.Valid {
			a.averages = append(a.averages, avg.Decimal)
		}
	}

	states := make([]string, 0, len(byState))
	for s := range byState {
		states = append(states, s)
	}
	sort.Strings(states)

	name := fmt.Sprintf("state_breakdown %s %dQ%d", d, year, quarter)
	if d == DomainUsers {
		out := models.MustNewTable(name, models.Text("state"), models.Integer("registered_users"), models.Integer("app_opens"))
		for _, s := range states {
			if err := out.AddRow(s, byState[s].count, byState[s].amount); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	out := models.MustNewTable(name,
		models.Text("state"), models.Integer("total_count"), models.Decimal("total_amount"), models.Decimal("average_value"))
	for _, s := range states {
		a := byState[s]
		if err := out.AddRow(s, a.count, a.amount, analysis.Round(analysis.Mean(a.averages), 2)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

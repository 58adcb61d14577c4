// Package catalog is the analytical query service: a fixed set of named
// analyses over the payments warehouse, plus the ad-hoc explorer queries.
//
// SQL only aggregates. Growth, ranking, shares and peaks are computed in
// Go by package analysis so that every warehouse dialect ranks, breaks
// ties and handles nulls the same way.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"paysight/internal/cache"
	"paysight/internal/observability"
	"paysight/internal/warehouse"
	"paysight/pkg/errors"
	"paysight/pkg/models"
)

// Idiom names a shared computation an entry is built from
type Idiom string

const (
	IdiomGrowth    Idiom = "yoy-growth"
	IdiomRank      Idiom = "top-bottom-n"
	IdiomShare     Idiom = "share-of-total"
	IdiomPeak      Idiom = "peak-in-partition"
	IdiomDrilldown Idiom = "drilldown"
)

// Entry is one named analysis and the metadata describing it
type Entry struct {
	Name      string
	Title     string
	Sources   []string
	Partition string
	Measures  []string
	Idioms    []Idiom
	Ordering  string
	// Limit is the maximum row count, 0 when unbounded
	Limit   int
	Columns []models.Column

	run func(ctx context.Context, r *runner) (*Result, error)
}

// newTable returns the empty, well-typed result table of the entry
func (e *Entry) newTable() *models.Table {
	return models.MustNewTable(e.Name, e.Columns...)
}

// Result is the output of one entry. Groups is only set by entries that
// fan out per parent entity.
type Result struct {
	Table  *models.Table
	Groups map[string]*models.Table
}

// Clone returns a deep copy
func (r *Result) Clone() *Result {
	out := &Result{Table: r.Table.Clone()}
	if r.Groups != nil {
		out.Groups = make(map[string]*models.Table, len(r.Groups))
		for k, t := range r.Groups {
			out.Groups[k] = t.Clone()
		}
	}
	return out
}

// Report collects the outcome of a catalog evaluation. Every requested
// entry appears in exactly one of Tables or Failures.
type Report struct {
	RunID     string
	Token     string
	Order     []string
	Tables    map[string]*models.Table
	Drilldown map[string]*models.Table
	Failures  map[string]*errors.AppError
	Durations map[string]time.Duration
	Cached    map[string]bool
}

func newReport(token string) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Token:     token,
		Tables:    make(map[string]*models.Table),
		Drilldown: make(map[string]*models.Table),
		Failures:  make(map[string]*errors.AppError),
		Durations: make(map[string]time.Duration),
		Cached:    make(map[string]bool),
	}
}

// Failed reports whether the named entry failed
func (r *Report) Failed(name string) bool {
	_, ok := r.Failures[name]
	return ok
}

// DrilldownParents returns the parent names of the drill-down sub-tables
func (r *Report) DrilldownParents() []string {
	parents := make([]string, 0, len(r.Drilldown))
	for p := range r.Drilldown {
		parents = append(parents, p)
	}
	sort.Strings(parents)
	return parents
}

// settings are shared by the catalog and the explorer
type settings struct {
	dialect warehouse.Dialect
	timeout time.Duration
	logger  *observability.Logger
	metrics *observability.QueryMetrics
	cache   *cache.Cache
	token   string
}

// Option configures a Catalog or Explorer
type Option func(*settings)

// WithDialect sets the placeholder dialect of the warehouse
func WithDialect(d warehouse.Dialect) Option {
	return func(s *settings) { s.dialect = d }
}

// WithTimeout bounds every individual query
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.timeout = d }
}

// WithLogger sets the logger
func WithLogger(l *observability.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithMetrics records per-entry latency into m
func WithMetrics(m *observability.QueryMetrics) Option {
	return func(s *settings) { s.metrics = m }
}

// WithCache serves entries from c when they were computed under the same
// version token. An empty token disables caching.
func WithCache(c *cache.Cache, token string) Option {
	return func(s *settings) {
		s.cache = c
		s.token = token
	}
}

func newSettings(opts []Option) settings {
	s := settings{logger: observability.GetDefaultLogger()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s settings) runner(db *sql.DB) *runner {
	return &runner{db: db, dialect: s.dialect, timeout: s.timeout}
}

// Catalog evaluates the fixed set of analyses
type Catalog struct {
	settings
	entries []*Entry
	index   map[string]*Entry
}

// New creates a catalog holding every analysis
func New(opts ...Option) *Catalog {
	c := &Catalog{
		settings: newSettings(opts),
		entries:  entries(),
		index:    make(map[string]*Entry),
	}
	for _, e := range c.entries {
		c.index[e.Name] = e
	}
	return c
}

// Entries returns the analyses in evaluation order
func (c *Catalog) Entries() []*Entry {
	out := make([]*Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Entry looks an analysis up by name
func (c *Catalog) Entry(name string) (*Entry, error) {
	e, ok := c.index[name]
	if !ok {
		names := make([]string, len(c.entries))
		for i, e := range c.entries {
			names[i] = e.Name
		}
		return nil, errors.New(errors.ErrCodeUnknownEntry, fmt.Sprintf("unknown catalog entry %q", name)).
			WithSuggestions("Known entries: " + strings.Join(names, ", "))
	}
	return e, nil
}

// Evaluate runs every entry against db. It never fails as a whole; each
// entry's failure is recorded in the report.
func (c *Catalog) Evaluate(ctx context.Context, db *sql.DB) *Report {
	report, _ := c.EvaluateEntries(ctx, db)
	return report
}

// EvaluateEntries runs the named entries, or all of them when names is
// empty. Unknown names are rejected before anything runs.
func (c *Catalog) EvaluateEntries(ctx context.Context, db *sql.DB, names ...string) (*Report, error) {
	selected := c.entries
	if len(names) > 0 {
		selected = make([]*Entry, 0, len(names))
		seen := make(map[string]bool)
		for _, name := range names {
			e, err := c.Entry(name)
			if err != nil {
				return nil, err
			}
			if !seen[name] {
				seen[name] = true
				selected = append(selected, e)
			}
		}
	}

	report := newReport(c.token)
	ctx = observability.ContextWithRunID(ctx, report.RunID)
	logger := c.logger.WithContext(ctx)
	r := c.runner(db)

	logger.InfoWithFields("catalog evaluation started", map[string]interface{}{
		"entries": len(selected),
		"token":   c.token,
	})

	for _, e := range selected {
		report.Order = append(report.Order, e.Name)

		start := time.Now()
		res, cached, err := c.evaluate(ctx, r, e)
		elapsed := time.Since(start)
		report.Durations[e.Name] = elapsed

		fields := map[string]interface{}{
			"entry":       e.Name,
			"duration_ms": elapsed.Milliseconds(),
		}

		if err != nil {
			appErr := errors.Classify(err, "")
			report.Failures[e.Name] = appErr
			fields["code"] = string(appErr.Code)
			fields["error"] = appErr.Summary()
			logger.ErrorWithFields("entry failed", fields)
			continue
		}

		report.Tables[e.Name] = res.Table
		for parent, sub := range res.Groups {
			report.Drilldown[parent] = sub
		}
		report.Cached[e.Name] = cached
		fields["rows"] = res.Table.Len()
		fields["cached"] = cached
		logger.InfoWithFields("entry evaluated", fields)
	}

	logger.InfoWithFields("catalog evaluation finished", map[string]interface{}{
		"succeeded": len(report.Tables),
		"failed":    len(report.Failures),
	})
	return report, nil
}

// RunEntry evaluates a single entry, bypassing the report
func (c *Catalog) RunEntry(ctx context.Context, db *sql.DB, name string) (*Result, error) {
	e, err := c.Entry(name)
	if err != nil {
		return nil, err
	}
	res, _, err := c.evaluate(ctx, c.runner(db), e)
	return res, err
}

// evaluate serves e from the cache or runs it with panics contained
func (c *Catalog) evaluate(ctx context.Context, r *runner, e *Entry) (*Result, bool, error) {
	key := ""
	if c.cache != nil && c.token != "" {
		key = cache.Key(e.Name, c.token)
		if v, ok := c.cache.Get(key); ok {
			c.metrics.RecordCacheHit(e.Name)
			return v.(*Result).Clone(), true, nil
		}
	}

	start := time.Now()
	var res *Result
	err := errors.Guard(func() error {
		var runErr error
		res, runErr = e.run(ctx, r)
		return runErr
	})
	c.metrics.Record(e.Name, time.Since(start), err)
	if err != nil {
		return nil, false, errors.Classify(err, "").WithContext("entry", e.Name)
	}

	if key != "" {
		c.cache.Set(key, res.Clone())
	}
	return res, false, nil
}

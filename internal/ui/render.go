package ui

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"paysight/internal/cache"
	"paysight/internal/catalog"
	"paysight/internal/observability"
	"paysight/pkg/models"
)

// Format selects how results are written
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatCSV:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or csv)", s)
	}
}

// String implements pflag.Value
func (f *Format) String() string {
	if *f == "" {
		return string(FormatTable)
	}
	return string(*f)
}

// Set implements pflag.Value
func (f *Format) Set(s string) error {
	parsed, err := ParseFormat(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Type implements pflag.Value
func (f *Format) Type() string {
	return "format"
}

// Renderer writes tables and catalog reports in one format
type Renderer struct {
	w      io.Writer
	format Format
}

// NewRenderer creates a renderer writing to w
func NewRenderer(w io.Writer, format Format) *Renderer {
	if format == "" {
		format = FormatTable
	}
	return &Renderer{w: w, format: format}
}

// Table writes a single result table under title
func (r *Renderer) Table(title string, t *models.Table) error {
	switch r.format {
	case FormatJSON:
		return r.writeJSON(t)
	case FormatCSV:
		return r.writeCSV(t)
	default:
		if title != "" {
			fmt.Fprintf(r.w, "\n%s\n", ColorBold(title))
		}
		r.writeGrid(t)
		return nil
	}
}

// reportEntry is the JSON form of one evaluated entry
type reportEntry struct {
	Name       string        `json:"name"`
	Title      string        `json:"title"`
	DurationMS int64         `json:"duration_ms"`
	Cached     bool          `json:"cached,omitempty"`
	Table      *models.Table `json:"table,omitempty"`
	Error      *reportError  `json:"error,omitempty"`
}

type reportError struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Report writes every entry of report in evaluation order. A failed
// entry gets an error panel in place of its table. titles maps entry
// names to display titles.
func (r *Renderer) Report(report *catalog.Report, titles map[string]string) error {
	switch r.format {
	case FormatJSON:
		return r.reportJSON(report, titles)
	case FormatCSV:
		return r.reportCSV(report, titles)
	}

	for i, name := range report.Order {
		title := fmt.Sprintf("%d. %s", i+1, titleOf(name, titles))
		if failure, ok := report.Failures[name]; ok {
			fmt.Fprintln(r.w)
			panel := failure.Summary()
			for _, s := range failure.Suggestions {
				panel += "\n- " + s
			}
			Box(r.w, "FAILED "+title, panel, failedTitle)
			continue
		}

		suffix := ColorDim(fmt.Sprintf(" (%s)", FormatDuration(report.Durations[name])))
		if report.Cached[name] {
			suffix = ColorDim(" (cached)")
		}
		fmt.Fprintf(r.w, "\n%s%s\n", ColorBold(title), suffix)
		r.writeGrid(report.Tables[name])
	}

	for _, parent := range report.DrilldownParents() {
		fmt.Fprintf(r.w, "\n%s\n", ColorBold("Drill-down: "+parent))
		r.writeGrid(report.Drilldown[parent])
	}

	ok, failed := len(report.Tables), len(report.Failures)
	status := ColorSuccess(fmt.Sprintf("%d succeeded", ok))
	if failed > 0 {
		status += ", " + ColorError(fmt.Sprintf("%d failed", failed))
	}
	fmt.Fprintf(r.w, "\n%s %s\n", status, ColorDim("run "+report.RunID))
	return nil
}

func (r *Renderer) reportJSON(report *catalog.Report, titles map[string]string) error {
	entries := make([]reportEntry, 0, len(report.Order))
	for _, name := range report.Order {
		e := reportEntry{
			Name:       name,
			Title:      titleOf(name, titles),
			DurationMS: report.Durations[name].Milliseconds(),
			Cached:     report.Cached[name],
			Table:      report.Tables[name],
		}
		if failure, ok := report.Failures[name]; ok {
			e.Error = &reportError{
				Code:        string(failure.Code),
				Message:     failure.Summary(),
				Suggestions: failure.Suggestions,
			}
		}
		entries = append(entries, e)
	}

	return r.writeJSON(struct {
		RunID     string                   `json:"run_id"`
		Token     string                   `json:"token,omitempty"`
		Entries   []reportEntry            `json:"entries"`
		Drilldown map[string]*models.Table `json:"drilldown,omitempty"`
	}{
		RunID:     report.RunID,
		Token:     report.Token,
		Entries:   entries,
		Drilldown: report.Drilldown,
	})
}

// reportCSV writes one CSV block per entry, each preceded by a # line
func (r *Renderer) reportCSV(report *catalog.Report, titles map[string]string) error {
	for i, name := range report.Order {
		if i > 0 {
			fmt.Fprintln(r.w)
		}
		if failure, ok := report.Failures[name]; ok {
			fmt.Fprintf(r.w, "# %s: failed: %s\n", name, failure.Summary())
			continue
		}
		fmt.Fprintf(r.w, "# %s: %s\n", name, titleOf(name, titles))
		if err := r.writeCSV(report.Tables[name]); err != nil {
			return err
		}
	}
	for _, parent := range report.DrilldownParents() {
		sub := report.Drilldown[parent]
		fmt.Fprintf(r.w, "\n# %s\n", sub.Name)
		if err := r.writeCSV(sub); err != nil {
			return err
		}
	}
	return nil
}

func failedTitle(s string) string {
	if !supportsColor {
		return s
	}
	return color.New(color.FgRed, color.Bold).Sprint(s)
}

// Stats writes per-entry latency percentiles
func (r *Renderer) Stats(stats []observability.EntryStats) error {
	if r.format == FormatJSON {
		return r.writeJSON(stats)
	}

	t := models.MustNewTable("stats",
		models.Text("entry"), models.Integer("runs"), models.Integer("failures"), models.Integer("cache_hits"),
		models.Text("p50"), models.Text("p95"), models.Text("p99"), models.Text("max"))
	for _, s := range stats {
		if err := t.AddRow(s.Entry, s.Count, s.Failures, s.CacheHits,
			FormatDuration(s.P50), FormatDuration(s.P95), FormatDuration(s.P99), FormatDuration(s.Max)); err != nil {
			return err
		}
	}
	return r.Table("Query latency", t)
}

// CacheStats writes result cache counters
func (r *Renderer) CacheStats(stats cache.Stats) error {
	if r.format == FormatJSON {
		return r.writeJSON(stats)
	}

	t := models.MustNewTable("cache",
		models.Integer("hits"), models.Integer("misses"), models.Integer("skipped"),
		models.Integer("items"), models.Text("hit_rate"))
	if err := t.AddRow(stats.Hits, stats.Misses, stats.Skipped, stats.Items,
		fmt.Sprintf("%.1f%%", stats.HitRate())); err != nil {
		return err
	}
	return r.Table("Result cache", t)
}

func (r *Renderer) writeGrid(t *models.Table) {
	if t == nil || t.Len() == 0 {
		fmt.Fprintf(r.w, "  %s\n", ColorDim("(no rows)"))
		return
	}

	grid := tablewriter.NewWriter(r.w)
	grid.SetHeader(t.ColumnNames())
	grid.SetAutoFormatHeaders(false)
	grid.SetBorder(false)
	grid.SetAutoWrapText(false)

	align := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		align[i] = tablewriter.ALIGN_LEFT
		if col.Type != models.TypeText {
			align[i] = tablewriter.ALIGN_RIGHT
		}
	}
	grid.SetColumnAlignment(align)

	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				cells[i] = "NULL"
				continue
			}
			cells[i] = models.FormatCell(v)
		}
		grid.Append(cells)
	}
	grid.Render()
}

func (r *Renderer) writeJSON(v interface{}) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeCSV writes a header line and one record per row. NULL is empty.
func (r *Renderer) writeCSV(t *models.Table) error {
	w := csv.NewWriter(r.w)
	if err := w.Write(t.ColumnNames()); err != nil {
		return err
	}
	for _, row := range t.Rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = models.FormatCell(v)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func titleOf(name string, titles map[string]string) string {
	if t, ok := titles[name]; ok && t != "" {
		return t
	}
	return name
}

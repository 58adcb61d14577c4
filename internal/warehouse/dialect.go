package warehouse

import (
	"fmt"
	"strings"
)

// Dialect captures the few syntax differences between the supported
// warehouses. Queries are otherwise written in portable SQL.
type Dialect struct {
	Driver Driver
}

// Placeholder returns the bind marker for the n-th (1-based) parameter
func (d Dialect) Placeholder(n int) string {
	if d.Driver == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Rebind rewrites ? markers in query to the dialect's form. Markers inside
// quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if d.Driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteString(d.Placeholder(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

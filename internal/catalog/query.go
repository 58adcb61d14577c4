package catalog

import (
	"context"
	"database/sql"
	"time"

	"paysight/internal/warehouse"
	"paysight/pkg/errors"
	"paysight/pkg/models"
)

// runner executes read-only queries and shapes the rows into typed tables.
// It never retries; failures are classified and returned to the caller.
type runner struct {
	db      *sql.DB
	dialect warehouse.Dialect
	timeout time.Duration
}

// load runs query and converts each row into columns, positionally
func (r *runner) load(ctx context.Context, columns []models.Column, query string, args ...interface{}) (*models.Table, error) {
	query = r.dialect.Rebind(query)

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	table, err := models.NewTable("", columns...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "invalid result columns")
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Classify(err, query)
	}
	defer rows.Close()

	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, errors.Classify(err, query)
		}
		if err := table.AddRow(values...); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResultParsing, "unexpected value in result").
				WithContext("query", query)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Classify(err, query)
	}

	return table, nil
}

package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ColumnType is the scalar type carried by a result column
type ColumnType int

const (
	TypeText ColumnType = iota
	TypeInteger
	TypeDecimal
)

// String returns the column type name
func (c ColumnType) String() string {
	switch c {
	case TypeText:
		return "text"
	case TypeInteger:
		return "integer"
	case TypeDecimal:
		return "decimal"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the column type by name
func (c ColumnType) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// Column describes one named, typed column of a Table
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Text, Integer and Decimal are shorthands for column declarations.
func Text(name string) Column    { return Column{Name: name, Type: TypeText} }
func Integer(name string) Column { return Column{Name: name, Type: TypeInteger} }
func Decimal(name string) Column { return Column{Name: name, Type: TypeDecimal} }

// Row holds one value per column. A nil value is SQL NULL.
//
// Non-nil values are always string (text), int64 (integer) or
// decimal.Decimal (decimal).
type Row []interface{}

// Table is an ordered, typed tabular result.
type Table struct {
	Name    string
	Columns []Column
	Rows    []Row

	index map[string]int
}

// NewTable creates an empty table. Column names must be unique.
func NewTable(name string, columns ...Column) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		if col.Name == "" {
			return nil, fmt.Errorf("table %s: column %d has no name", name, i)
		}
		if _, exists := index[col.Name]; exists {
			return nil, fmt.Errorf("table %s: duplicate column %q", name, col.Name)
		}
		index[col.Name] = i
	}

	cols := make([]Column, len(columns))
	copy(cols, columns)

	return &Table{
		Name:    name,
		Columns: cols,
		Rows:    make([]Row, 0),
		index:   index,
	}, nil
}

// MustNewTable is NewTable for statically declared column sets.
func MustNewTable(name string, columns ...Column) *Table {
	t, err := NewTable(name, columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// AddRow appends a row, converting each value to its column's type
func (t *Table) AddRow(values ...interface{}) error {
	if len(values) != len(t.Columns) {
		return fmt.Errorf("table %s: expected %d values, got %d", t.Name, len(t.Columns), len(values))
	}

	row := make(Row, len(values))
	for i, v := range values {
		converted, err := Convert(t.Columns[i].Type, v)
		if err != nil {
			return fmt.Errorf("table %s: column %s: %w", t.Name, t.Columns[i].Name, err)
		}
		row[i] = converted
	}

	t.Rows = append(t.Rows, row)
	return nil
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnNames returns the column names in order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// ColumnIndex returns the position of a column, or -1
func (t *Table) ColumnIndex(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Value returns the raw cell at (row, column). Unknown columns yield nil.
func (t *Table) Value(row int, column string) interface{} {
	i := t.ColumnIndex(column)
	if i < 0 || row < 0 || row >= len(t.Rows) {
		return nil
	}
	return t.Rows[row][i]
}

// Text returns a text cell
func (t *Table) Text(row int, column string) (string, bool) {
	s, ok := t.Value(row, column).(string)
	return s, ok
}

// Int returns an integer cell
func (t *Table) Int(row int, column string) (int64, bool) {
	n, ok := t.Value(row, column).(int64)
	return n, ok
}

// Decimal returns a decimal cell. Integer cells are widened.
func (t *Table) Decimal(row int, column string) (decimal.Decimal, bool) {
	switch v := t.Value(row, column).(type) {
	case decimal.Decimal:
		return v, true
	case int64:
		return decimal.NewFromInt(v), true
	default:
		return decimal.Zero, false
	}
}

// Records returns the rows as column-name keyed maps
func (t *Table) Records() []map[string]interface{} {
	records := make([]map[string]interface{}, len(t.Rows))
	for r, row := range t.Rows {
		rec := make(map[string]interface{}, len(t.Columns))
		for i, col := range t.Columns {
			rec[col.Name] = row[i]
		}
		records[r] = rec
	}
	return records
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	c := MustNewTable(t.Name, t.Columns...)
	c.Rows = make([]Row, len(t.Rows))
	for i, row := range t.Rows {
		r := make(Row, len(row))
		copy(r, row)
		c.Rows[i] = r
	}
	return c
}

// Equal reports whether two tables have the same columns and cells
func (t *Table) Equal(other *Table) bool {
	if t == nil || other == nil {
		return t == other
	}
	if len(t.Columns) != len(other.Columns) || len(t.Rows) != len(other.Rows) {
		return false
	}
	for i := range t.Columns {
		if t.Columns[i] != other.Columns[i] {
			return false
		}
	}
	for r := range t.Rows {
		for c := range t.Rows[r] {
			if !cellEqual(t.Rows[r][c], other.Rows[r][c]) {
				return false
			}
		}
	}
	return true
}

func cellEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if da, ok := a.(decimal.Decimal); ok {
		db, ok := b.(decimal.Decimal)
		return ok && da.Equal(db)
	}
	return a == b
}

// MarshalJSON encodes the table as {"name", "columns", "rows"} with rows as objects
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name    string                   `json:"name"`
		Columns []Column                 `json:"columns"`
		Rows    []map[string]interface{} `json:"rows"`
	}{
		Name:    t.Name,
		Columns: t.Columns,
		Rows:    t.Records(),
	})
}

// FormatCell renders a cell for display. NULL renders as the empty string.
func FormatCell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case decimal.Decimal:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// Convert coerces a driver or Go value to the representation used for
// the given column type.
func Convert(ct ColumnType, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	if nd, ok := v.(decimal.NullDecimal); ok {
		if !nd.Valid {
			return nil, nil
		}
		v = nd.Decimal
	}

	switch ct {
	case TypeText:
		return toText(v)
	case TypeInteger:
		return toInteger(v)
	case TypeDecimal:
		return toDecimal(v)
	default:
		return nil, fmt.Errorf("unknown column type %d", ct)
	}
}

func toText(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case int:
		return strconv.Itoa(x), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case float64:
		// pincodes frequently arrive as doubles
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10), nil
		}
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case decimal.Decimal:
		return x.String(), nil
	case time.Time:
		return x.Format(time.RFC3339), nil
	case bool:
		return strconv.FormatBool(x), nil
	default:
		return nil, fmt.Errorf("cannot convert %T to text", v)
	}
}

func toInteger(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d overflows int64", x)
		}
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) {
			return nil, fmt.Errorf("value %v is not an integer", x)
		}
		return int64(x), nil
	case decimal.Decimal:
		if !x.Equal(x.Truncate(0)) {
			return nil, fmt.Errorf("value %s is not an integer", x)
		}
		return x.IntPart(), nil
	case []byte:
		return parseInteger(string(x))
	case string:
		return parseInteger(x)
	default:
		return nil, fmt.Errorf("cannot convert %T to integer", v)
	}
}

func parseInteger(s string) (interface{}, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	// SUM over integer columns comes back as DECIMAL in MySQL
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("cannot parse %q as integer", s)
	}
	return toInteger(d)
}

func toDecimal(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case int64:
		return decimal.NewFromInt(x), nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int32:
		return decimal.NewFromInt32(x), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, nil
		}
		return decimal.NewFromFloat(x), nil
	case float32:
		return decimal.NewFromFloat32(x), nil
	case []byte:
		return parseDecimal(string(x))
	case string:
		return parseDecimal(x)
	default:
		return nil, fmt.Errorf("cannot convert %T to decimal", v)
	}
}

func parseDecimal(s string) (interface{}, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("cannot parse %q as decimal", s)
	}
	return d, nil
}

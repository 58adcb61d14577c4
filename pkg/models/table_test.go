package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTableRejectsDuplicateColumns(t *testing.T) {
	_, err := NewTable("dup", Text("state"), Integer("year"), Text("state"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate column")

	_, err = NewTable("unnamed", Text(""))
	require.Error(t, err)
}

func TestAddRowConvertsDriverValues(t *testing.T) {
	table := MustNewTable("growth", Text("state"), Integer("year"), Decimal("amount"))

	require.NoError(t, table.AddRow([]byte("Karnataka"), []byte("2020"), []byte("1234.50")))
	require.NoError(t, table.AddRow("Kerala", int64(2021), 99.25))
	require.NoError(t, table.AddRow("Goa", 2022, nil))

	assert.Equal(t, 3, table.Len())

	state, ok := table.Text(0, "state")
	assert.True(t, ok)
	assert.Equal(t, "Karnataka", state)

	year, ok := table.Int(0, "year")
	assert.True(t, ok)
	assert.Equal(t, int64(2020), year)

	amount, ok := table.Decimal(0, "amount")
	assert.True(t, ok)
	assert.True(t, amount.Equal(decimal.RequireFromString("1234.5")))

	amount, ok = table.Decimal(1, "amount")
	assert.True(t, ok)
	assert.Equal(t, "99.25", amount.String())

	assert.Nil(t, table.Value(2, "amount"))
	_, ok = table.Decimal(2, "amount")
	assert.False(t, ok)
}

func TestAddRowErrors(t *testing.T) {
	table := MustNewTable("t", Integer("year"))

	err := table.AddRow(int64(1), int64(2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 1 values")

	err = table.AddRow("twenty")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "column year")

	err = table.AddRow(2020.5)
	require.Error(t, err)
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name     string
		typ      ColumnType
		in       interface{}
		expected interface{}
	}{
		{"pincode double to text", TypeText, float64(560001), "560001"},
		{"int to text", TypeText, 42, "42"},
		{"mysql decimal sum to integer", TypeInteger, []byte("1500.0000"), int64(1500)},
		{"string to integer", TypeInteger, "7", int64(7)},
		{"integral float to integer", TypeInteger, float64(3), int64(3)},
		{"nil stays nil", TypeDecimal, nil, nil},
		{"NaN is null", TypeDecimal, nan(), nil},
		{"null decimal is null", TypeDecimal, decimal.NullDecimal{}, nil},
		{"valid null decimal unwraps", TypeInteger, decimal.NewNullDecimal(decimal.NewFromInt(4)), int64(4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.typ, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDecimalWidensIntegers(t *testing.T) {
	table := MustNewTable("t", Integer("count"))
	require.NoError(t, table.AddRow(int64(10)))

	d, ok := table.Decimal(0, "count")
	assert.True(t, ok)
	assert.True(t, d.Equal(decimal.NewFromInt(10)))
}

func TestCloneAndEqual(t *testing.T) {
	table := MustNewTable("t", Text("state"), Decimal("share"))
	require.NoError(t, table.AddRow("Goa", "12.50"))

	clone := table.Clone()
	assert.True(t, table.Equal(clone))

	clone.Rows[0][0] = "Kerala"
	assert.False(t, table.Equal(clone))
	state, _ := table.Text(0, "state")
	assert.Equal(t, "Goa", state)

	// 12.5 and 12.50 are the same value
	other := MustNewTable("t", Text("state"), Decimal("share"))
	require.NoError(t, other.AddRow("Goa", "12.5"))
	assert.True(t, table.Equal(other))
}

func TestTableMarshalJSON(t *testing.T) {
	table := MustNewTable("brands", Text("brand_name"), Integer("total_users"))
	require.NoError(t, table.AddRow("Xiaomi", int64(500)))

	data, err := json.Marshal(table)
	require.NoError(t, err)

	var decoded struct {
		Name    string `json:"name"`
		Columns []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"columns"`
		Rows []map[string]interface{} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "brands", decoded.Name)
	assert.Equal(t, "integer", decoded.Columns[1].Type)
	assert.Equal(t, "Xiaomi", decoded.Rows[0]["brand_name"])
	assert.Equal(t, float64(500), decoded.Rows[0]["total_users"])
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "", FormatCell(nil))
	assert.Equal(t, "2024", FormatCell(int64(2024)))
	assert.Equal(t, "50.25", FormatCell(decimal.RequireFromString("50.25")))
	assert.Equal(t, "Goa", FormatCell("Goa"))
}

func nan() float64 {
	zero := 0.0
	return zero / zero
}

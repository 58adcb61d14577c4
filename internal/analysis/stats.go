package analysis

import "github.com/shopspring/decimal"

// Sum adds values; the sum of nothing is zero
func Sum(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Mean returns the arithmetic mean, or null for an empty input
func Mean(values []decimal.Decimal) decimal.NullDecimal {
	if len(values) == 0 {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(Sum(values).Div(decimal.NewFromInt(int64(len(values)))))
}

// MeanValid averages the valid values and ignores nulls
func MeanValid(values []decimal.NullDecimal) decimal.NullDecimal {
	valid := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		if v.Valid {
			valid = append(valid, v.Decimal)
		}
	}
	return Mean(valid)
}

// Spread returns max-min, or null for an empty input
func Spread(values []decimal.Decimal) decimal.NullDecimal {
	if len(values) == 0 {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.Max(values[0], values[1:]...).Sub(decimal.Min(values[0], values[1:]...)))
}

// Round rounds half away from zero to places decimals, preserving null
func Round(v decimal.NullDecimal, places int32) decimal.NullDecimal {
	if !v.Valid {
		return v
	}
	return decimal.NewNullDecimal(v.Decimal.Round(places))
}

// Value unwraps v into a table cell: nil for null, the decimal otherwise
func Value(v decimal.NullDecimal) interface{} {
	if !v.Valid {
		return nil
	}
	return v.Decimal
}

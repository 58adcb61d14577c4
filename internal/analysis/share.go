package analysis

import "github.com/shopspring/decimal"

// Share returns part/total*100, or null when total is zero
func Share(part, total decimal.Decimal) decimal.NullDecimal {
	if total.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(part.Div(total).Mul(hundred))
}

// ShareNull is Share for operands that may themselves be null
func ShareNull(part, total decimal.NullDecimal) decimal.NullDecimal {
	if !part.Valid || !total.Valid {
		return decimal.NullDecimal{}
	}
	return Share(part.Decimal, total.Decimal)
}

// Ratio returns num/den, or null when den is zero
func Ratio(num, den decimal.Decimal) decimal.NullDecimal {
	if den.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(num.Div(den))
}

// Shares returns every part's share of the sum of parts
func Shares(parts []decimal.Decimal) []decimal.NullDecimal {
	total := Sum(parts)
	out := make([]decimal.NullDecimal, len(parts))
	for i, p := range parts {
		out[i] = Share(p, total)
	}
	return out
}

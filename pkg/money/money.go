package money

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)
	// Zero is the canonical zero amount.
	Zero = decimal.Zero
)

// Round normalizes a monetary amount to two decimal places.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Percent returns pct percent of base.
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred)
}

// FloorAtZero clamps negative amounts to zero.
func FloorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return Zero
	}
	return d
}

// Min returns the smaller of a and b.
func Min(a, b decimal.Decimal) decimal.Decimal {
	return decimal.Min(a, b)
}

// FromString parses a decimal amount, returning zero on empty input.
func FromString(value string) (decimal.Decimal, error) {
	if value == "" {
		return Zero, nil
	}
	return decimal.NewFromString(value)
}

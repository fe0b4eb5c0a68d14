package reconcile

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Round narrows d to the given number of decimals using the configured
// rounding mode.
func (c Config) Round(d decimal.Decimal, scale int32) decimal.Decimal {
	switch c.RoundingMode {
	case RoundHalfEven:
		return d.RoundBank(scale)
	case RoundDown:
		return d.RoundDown(scale)
	case RoundUp:
		return d.RoundUp(scale)
	default:
		return d.Round(scale)
	}
}

// Output narrows d to the output scale.
func (c Config) Output(d decimal.Decimal) decimal.Decimal {
	return c.Round(d, c.OutputScale)
}

// Intermediate narrows d to the intermediate computation scale.
func (c Config) Intermediate(d decimal.Decimal) decimal.Decimal {
	return c.Round(d, c.IntermediateScale)
}

// Percent narrows d to the percentage scale.
func (c Config) Percent(d decimal.Decimal) decimal.Decimal {
	return c.Round(d, c.PercentageScale)
}

// Unit is the smallest representable step at the output scale, 0.01 by default.
func (c Config) Unit() decimal.Decimal {
	return decimal.New(1, -c.OutputScale)
}

// Format renders d at the output scale with trailing zeros kept, as
// monetary values are written in documents.
func (c Config) Format(d decimal.Decimal) string {
	return c.Output(d).StringFixed(c.OutputScale)
}

// WithinTolerance reports whether a and b differ by at most one unit at
// the output scale once both are narrowed.
func (c Config) WithinTolerance(a, b decimal.Decimal) bool {
	return c.Output(a).Sub(c.Output(b)).Abs().LessThanOrEqual(c.Unit())
}

// percentOf returns base * pct / 100 at the intermediate scale.
func (c Config) percentOf(base, pct decimal.Decimal) decimal.Decimal {
	if pct.IsZero() {
		return decimal.Zero
	}
	return c.Intermediate(base.Mul(pct).Div(hundred))
}

// Sum adds up values.
func Sum(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// DecimalPtr returns a pointer to a copy of d.
func DecimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

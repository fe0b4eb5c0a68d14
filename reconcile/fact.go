package reconcile

import "github.com/shopspring/decimal"

// MonetaryFact is a possibly incomplete {percentage, taxable base, tax
// amount} triple as found in a source document.
type MonetaryFact struct {
	Percentage  *decimal.Decimal
	TaxableBase *decimal.Decimal
	TaxAmount   *decimal.Decimal
}

func (f MonetaryFact) missing() int {
	n := 0
	for _, v := range []*decimal.Decimal{f.Percentage, f.TaxableBase, f.TaxAmount} {
		if v == nil {
			n++
		}
	}
	return n
}

// Outcome describes how a fact was reconciled.
type Outcome int

// Possible outcomes.
const (
	// OutcomeComplete means all three values were supplied or derived.
	OutcomeComplete Outcome = iota
	// OutcomeInsufficient means two or more values were missing and
	// defaulted to zero.
	OutcomeInsufficient
	// OutcomeZeroBase means the percentage could not be derived from a
	// zero taxable base and was set to zero.
	OutcomeZeroBase
	// OutcomeBaseUnresolved means the taxable base could not be derived
	// from a zero percentage and is left unset.
	OutcomeBaseUnresolved
	// OutcomeInconsistent means all three values were supplied but the tax
	// amount does not match the base and percentage.
	OutcomeInconsistent
)

func (o Outcome) String() string {
	switch o {
	case OutcomeComplete:
		return "complete"
	case OutcomeInsufficient:
		return "insufficient"
	case OutcomeZeroBase:
		return "zero-base"
	case OutcomeBaseUnresolved:
		return "base-unresolved"
	case OutcomeInconsistent:
		return "inconsistent"
	}
	return "unknown"
}

// Result is a reconciled fact. Derived amounts are kept at the
// intermediate scale; call Output to narrow them for emission.
type Result struct {
	Percentage  decimal.Decimal
	TaxableBase decimal.Decimal
	TaxAmount   decimal.Decimal
	Outcome     Outcome
}

// BaseResolved reports whether TaxableBase holds a meaningful value.
func (r Result) BaseResolved() bool {
	return r.Outcome != OutcomeBaseUnresolved
}

// Output narrows amounts to the output scale and the percentage to the
// percentage scale.
func (r Result) Output(cfg Config) Result {
	r.Percentage = cfg.Percent(r.Percentage)
	r.TaxableBase = cfg.Output(r.TaxableBase)
	r.TaxAmount = cfg.Output(r.TaxAmount)
	return r
}

// Reconcile derives the missing member of a fact:
//
//   - percentage = tax * 100 / base, 0 when the base is zero
//   - base = tax * 100 / percentage, unset when the percentage is zero
//   - tax = base * percentage / 100
//
// It never fails; the Outcome tells the caller what to report.
func Reconcile(cfg Config, f MonetaryFact) Result {
	r := Result{}
	if f.Percentage != nil {
		r.Percentage = *f.Percentage
	}
	if f.TaxableBase != nil {
		r.TaxableBase = *f.TaxableBase
	}
	if f.TaxAmount != nil {
		r.TaxAmount = *f.TaxAmount
	}

	if f.missing() >= 2 {
		r.Outcome = OutcomeInsufficient
		return r
	}

	switch {
	case f.Percentage == nil:
		if r.TaxableBase.IsZero() {
			r.Percentage = decimal.Zero
			if !r.TaxAmount.IsZero() {
				r.Outcome = OutcomeZeroBase
			}
			return r
		}
		r.Percentage = cfg.Percent(r.TaxAmount.Mul(hundred).Div(r.TaxableBase))

	case f.TaxableBase == nil:
		if r.Percentage.IsZero() {
			r.TaxableBase = decimal.Zero
			r.Outcome = OutcomeBaseUnresolved
			return r
		}
		r.TaxableBase = cfg.Intermediate(r.TaxAmount.Mul(hundred).Div(r.Percentage))

	case f.TaxAmount == nil:
		r.TaxAmount = cfg.percentOf(r.TaxableBase, r.Percentage)

	default:
		expected := cfg.percentOf(r.TaxableBase, r.Percentage)
		if !cfg.WithinTolerance(expected, r.TaxAmount) {
			r.Outcome = OutcomeInconsistent
		}
	}
	return r
}

// ReconcileFact reconciles a fact and records a warning for every outcome
// other than OutcomeComplete.
func (c *Context) ReconcileFact(path string, f MonetaryFact) Result {
	r := Reconcile(c.cfg, f)
	switch r.Outcome {
	case OutcomeInsufficient:
		c.Warn(path, "insufficient data: at least two of percentage, taxable base and tax amount are missing")
	case OutcomeZeroBase:
		c.Warn(path, "taxable base is zero, percentage for tax amount %s set to 0", r.TaxAmount)
	case OutcomeBaseUnresolved:
		c.Warn(path, "cannot compute taxable base from a zero percentage")
	case OutcomeInconsistent:
		c.Warn(path, "tax amount %s does not match %s%% of %s",
			c.cfg.Format(r.TaxAmount), r.Percentage, c.cfg.Format(r.TaxableBase))
	}
	return r
}

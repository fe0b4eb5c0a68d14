package reconcile

import (
	"github.com/invopop/gobl/currency"
	"github.com/shopspring/decimal"
)

// BelowTheLineItem is a pass-through amount, such as a deposit, that is
// excluded from VAT computation.
type BelowTheLineItem struct {
	Description string
	Amount      decimal.Decimal
}

// TaxSubtotal is the reconciled tax of one category.
type TaxSubtotal struct {
	Key            TaxCategoryKey
	Classification Classification
	TaxableBase    decimal.Decimal
	TaxAmount      decimal.Decimal
}

// SourceTotals are the totals supplied directly by the source document.
// Any of them may be missing.
type SourceTotals struct {
	LineExtension *decimal.Decimal
	TaxTotal      *decimal.Decimal
	TaxInclusive  *decimal.Decimal
	Prepaid       *decimal.Decimal
	Payable       *decimal.Decimal
}

// AggregateInput collects everything needed to build document totals
// once all lines have been reconciled.
type AggregateInput struct {
	Currency currency.Code
	// Lines are the final per line amounts.
	Lines []decimal.Decimal
	// Charges are the document-level reductions and surcharges.
	Charges      []Entry
	BelowTheLine []BelowTheLineItem
	TaxSubtotals []TaxSubtotal
	Source       SourceTotals
}

// Totals are the document-level monetary totals, all at the output scale.
type Totals struct {
	Currency       currency.Code
	LineExtension  decimal.Decimal
	AllowanceTotal decimal.Decimal
	ChargeTotal    decimal.Decimal
	BelowTheLine   decimal.Decimal
	TaxExclusive   decimal.Decimal
	TaxTotal       decimal.Decimal
	TaxInclusive   decimal.Decimal
	Prepaid        decimal.Decimal
	Payable        decimal.Decimal
	// Synthesized is set when neither the tax inclusive nor the payable
	// amount was supplied by the source.
	Synthesized bool
}

// Aggregate sums line and document contributions into totals and
// cross-checks them against the source totals. Discrepancies are returned
// as findings under path; computed values always win.
func Aggregate(cfg Config, path string, in AggregateInput) (Totals, []Finding) {
	var findings []Finding
	warn := func(field, msg string) {
		findings = append(findings, Finding{
			Path:     path + "/" + field,
			Severity: SeverityWarning,
			Message:  msg,
		})
	}

	t := Totals{Currency: in.Currency}

	lines := make([]decimal.Decimal, len(in.Lines))
	for i, l := range in.Lines {
		lines[i] = cfg.Output(l)
	}
	t.LineExtension = Sum(lines)
	if s := in.Source.LineExtension; s != nil && !cfg.Output(*s).Equal(t.LineExtension) {
		warn("LineExtensionAmount", "source line extension "+cfg.Format(*s)+" differs from computed "+cfg.Format(t.LineExtension))
	}

	for _, e := range in.Charges {
		effect := cfg.Output(e.Effect())
		if effect.IsNegative() {
			t.AllowanceTotal = t.AllowanceTotal.Add(effect.Neg())
		} else {
			t.ChargeTotal = t.ChargeTotal.Add(effect)
		}
	}
	for _, b := range in.BelowTheLine {
		t.BelowTheLine = t.BelowTheLine.Add(cfg.Output(b.Amount))
	}
	t.TaxExclusive = t.LineExtension.Sub(t.AllowanceTotal).Add(t.ChargeTotal).Add(t.BelowTheLine)

	for _, st := range in.TaxSubtotals {
		t.TaxTotal = t.TaxTotal.Add(cfg.Output(st.TaxAmount))
	}
	if s := in.Source.TaxTotal; s != nil {
		src := cfg.Output(*s)
		if src.Sub(t.TaxTotal).Abs().GreaterThan(cfg.Unit()) {
			warn("TaxAmount", "source tax total "+cfg.Format(src)+" differs from sum of tax subtotals "+cfg.Format(t.TaxTotal))
		}
	}

	if in.Source.Prepaid != nil {
		t.Prepaid = cfg.Output(*in.Source.Prepaid)
	}

	incl, pay := in.Source.TaxInclusive, in.Source.Payable
	switch {
	case incl != nil && pay != nil:
		t.TaxInclusive = cfg.Output(*incl)
		t.Payable = cfg.Output(*pay)
	case incl == nil && pay != nil:
		t.Payable = cfg.Output(*pay)
		t.TaxInclusive = t.Payable
	case incl != nil && pay == nil:
		t.TaxInclusive = cfg.Output(*incl)
		t.Payable = t.TaxInclusive.Sub(t.Prepaid)
	default:
		t.TaxInclusive = t.TaxExclusive.Add(t.TaxTotal)
		t.Payable = t.TaxInclusive.Sub(t.Prepaid)
		t.Synthesized = true
		warn("PayableAmount", "tax inclusive and payable amounts missing from source, synthesized "+cfg.Format(t.Payable))
	}

	return t, findings
}

// Aggregate runs Aggregate with the context configuration and sends the
// findings to the sink.
func (c *Context) Aggregate(path string, in AggregateInput) Totals {
	t, findings := Aggregate(c.cfg, path, in)
	for _, f := range findings {
		c.report(f.Severity, f.Path, f.Message)
	}
	return t
}

package ubl

import (
	"fmt"

	"github.com/invopop/gobl/currency"
	"github.com/shopspring/decimal"
	"github.com/worksome/ebinterface.ubl/ebinterface"
	"github.com/worksome/ebinterface.ubl/reconcile"
)

func (tc *TaxCategory) view() taxCategory {
	return taxCategory{
		id:            tc.ID,
		percent:       tc.Percent,
		exemptionCode: tc.TaxExemptionReasonCode,
		exemption:     tc.TaxExemptionReason,
		scheme:        tc.TaxScheme,
	}
}

// ebTaxTotals reconciles every tax subtotal and registers their
// percentages so lines without one can be completed.
func (ui *Invoice) ebTaxTotals(ctx *reconcile.Context) []taxSubtotal {
	var out []taxSubtotal
	for i, tt := range ui.TaxTotal {
		for j := range tt.TaxSubtotal {
			st := &tt.TaxSubtotal[j]
			path := fmt.Sprintf("TaxTotal[%d]/TaxSubtotal[%d]", i, j)
			t := ebTax{
				entry:   st.TaxCategory.view().entry(ctx, path+"/TaxCategory"),
				taxable: parseAmount(ctx, path+"/TaxableAmount", st.TaxableAmount),
				tax:     parseAmount(ctx, path+"/TaxAmount", &st.TaxAmount),
				present: true,
			}
			if code := st.TaxCategory.TaxExemptionReasonCode; code != nil {
				t.exemptionCode = *code
			}
			out = append(out, reconcileSubtotal(ctx, path, t))
		}
	}
	return out
}

// findSubtotal returns the first subtotal of a key.
func findSubtotal(taxes []taxSubtotal, key reconcile.TaxCategoryKey) *taxSubtotal {
	for i := range taxes {
		if taxes[i].Key == key {
			return &taxes[i]
		}
	}
	return nil
}

func (ui *Invoice) taxAmount(ctx *reconcile.Context) *decimal.Decimal {
	if len(ui.TaxTotal) == 0 {
		return nil
	}
	return parseAmount(ctx, "TaxTotal[0]/TaxAmount", &ui.TaxTotal[0].TaxAmount)
}

func (ui *Invoice) ebAddTotals(ctx *reconcile.Context, out *ebinterface.Invoice, ccy currency.Code, in totalsInput) {
	const path = "LegalMonetaryTotal"
	cfg := ctx.Config()
	m := &ui.LegalMonetaryTotal

	subs := make([]reconcile.TaxSubtotal, len(in.taxes))
	for i, st := range in.taxes {
		subs[i] = st.TaxSubtotal
	}

	t := ctx.Aggregate(path, reconcile.AggregateInput{
		Currency:     ccy,
		Lines:        in.lines,
		Charges:      in.charges,
		BelowTheLine: in.btl,
		TaxSubtotals: subs,
		Source: reconcile.SourceTotals{
			LineExtension: parseAmount(ctx, path+"/LineExtensionAmount", &m.LineExtensionAmount),
			TaxTotal:      ui.taxAmount(ctx),
			TaxInclusive:  parseAmount(ctx, path+"/TaxInclusiveAmount", &m.TaxInclusiveAmount),
			Prepaid:       parseAmount(ctx, path+"/PrepaidAmount", m.PrepaidAmount),
			Payable:       parseAmount(ctx, path+"/PayableAmount", m.PayableAmount),
		},
	})
	if src := parseAmount(ctx, path+"/TaxExclusiveAmount", &m.TaxExclusiveAmount); src != nil {
		if !cfg.Output(*src).Equal(t.TaxExclusive) {
			ctx.Warn(path+"/TaxExclusiveAmount", "source tax exclusive amount %s differs from computed %s",
				cfg.Format(*src), cfg.Format(t.TaxExclusive))
		}
	}

	v := out.Version
	for _, st := range in.taxes {
		tax := st.TaxAmount
		if cl, ok := st.Classification.(reconcile.Other); ok && !tax.IsZero() {
			out.Tax.OtherTax = append(out.Tax.OtherTax, ebinterface.OtherTax{
				Comment: cl.Comment,
				Amount:  tax,
			})
			continue
		}
		var base *decimal.Decimal
		if st.baseResolved {
			b := st.TaxableBase
			base = &b
		}
		lt := newLineTax(cfg, v, st.Classification, st.Key.TaxCategoryID, st.exemptionCode, base, &tax)
		if v.UsesTaxItem() {
			out.Tax.TaxItem = append(out.Tax.TaxItem, *lt.TaxItem)
			continue
		}
		if out.Tax.VAT == nil {
			out.Tax.VAT = new(ebinterface.VAT)
		}
		out.Tax.VAT.VATItem = append(out.Tax.VAT.VATItem, ebinterface.VATItem{
			TaxedAmount:  base,
			VATRate:      lt.VATRate,
			TaxExemption: lt.TaxExemption,
			Amount:       &tax,
		})
	}
	if v.UsesTaxItem() {
		total := t.TaxTotal
		out.Tax.TaxAmountTotal = &total
	}

	gross := t.TaxInclusive.Sub(cfg.Output(btlSum(in.btl)))
	out.TotalGrossAmount = &gross
	if !t.Prepaid.IsZero() {
		prepaid := t.Prepaid
		out.PrepaidAmount = &prepaid
	}
	payable := t.Payable
	out.PayableAmount = &payable
}

// newLineTax emits a classification in the form the version expects.
func newLineTax(cfg reconcile.Config, v ebinterface.Version, cl reconcile.Classification, code, exemptionCode string, base, tax *decimal.Decimal) ebinterface.LineTax {
	if code == "" {
		code = reconcile.CategoryCode(cl)
	}
	if v.UsesTaxItem() {
		pct := cfg.Percent(reconcile.Percentage(cl))
		ti := &ebinterface.TaxItem{
			TaxableAmount: base,
			TaxPercent: ebinterface.TaxPercent{
				Value:           &pct,
				TaxCategoryCode: code,
			},
			TaxAmount: tax,
		}
		switch c := cl.(type) {
		case reconcile.Exempt:
			ti.Comment = c.Reason
		case reconcile.Other:
			ti.Comment = c.Comment
		}
		return ebinterface.LineTax{TaxItem: ti}
	}

	switch c := cl.(type) {
	case reconcile.StandardVAT:
		rate := &ebinterface.VATRate{Value: cfg.Percent(c.Percentage)}
		if v.SupportsTaxCategoryCode() {
			rate.TaxCategoryCode = code
		}
		return ebinterface.LineTax{VATRate: rate}
	case reconcile.Exempt:
		ex := &ebinterface.TaxExemption{Reason: c.Reason}
		if v.SupportsExemptionCode() {
			ex.TaxExemptionCode = exemptionCode
		}
		return ebinterface.LineTax{TaxExemption: ex}
	case reconcile.Other:
		// Only VAT can be expressed on lines before 6.0
		return ebinterface.LineTax{TaxExemption: &ebinterface.TaxExemption{Reason: c.Comment}}
	}
	return ebinterface.LineTax{}
}

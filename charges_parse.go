package ubl

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/worksome/ebinterface.ubl/ebinterface"
	"github.com/worksome/ebinterface.ubl/reconcile"
)

// ublRawCharges reads UBL allowances and charges in document order. The
// tax category is only read on document level entries.
func ublRawCharges(ctx *reconcile.Context, path string, acs []*AllowanceCharge, docLevel bool) []sourceCharge {
	out := make([]sourceCharge, 0, len(acs))
	for i, ac := range acs {
		if ac == nil {
			continue
		}
		p := fmt.Sprintf("%s[%d]", path, i)
		kind := reconcile.KindReduction
		if ac.ChargeIndicator {
			kind = reconcile.KindSurcharge
		}
		c := sourceCharge{
			raw: reconcile.RawAllowanceCharge{
				Kind:       kind,
				Amount:     parseAmount(ctx, p+"/Amount", &ac.Amount),
				BaseAmount: parseAmount(ctx, p+"/BaseAmount", ac.BaseAmount),
				Percentage: parseDecimal(ctx, p+"/MultiplierFactorNumeric", ac.MultiplierFactorNumeric),
				Comment:    ac.AllowanceChargeReason,
			},
		}
		if ac.AllowanceChargeReasonCode != nil {
			c.raw.ReasonCode = *ac.AllowanceChargeReasonCode
		}
		if docLevel && len(ac.TaxCategory) > 0 && ac.TaxCategory[0] != nil {
			tc := ac.TaxCategory[0]
			e := tc.view().entry(ctx, p+"/TaxCategory")
			c.raw.Tax = ctx.Classify(p, e)
			c.key = e.Key
			if tc.TaxExemptionReasonCode != nil {
				c.exemptionCode = *tc.TaxExemptionReasonCode
			}
		}
		out = append(out, c)
	}
	return out
}

// isOutsideScope reports whether a document allowance or charge carries
// the outside scope category used for below the line items.
func (ac *AllowanceCharge) isOutsideScope() bool {
	if len(ac.TaxCategory) == 0 || ac.TaxCategory[0] == nil || ac.TaxCategory[0].ID == nil {
		return false
	}
	return reconcile.NormalizeCategoryCode(ac.TaxCategory[0].ID.Value) == reconcile.CategoryOutsideScope
}

// ebAddCharges converts the document allowances and charges. Entries in
// the outside scope category become below the line items.
func (ui *Invoice) ebAddCharges(ctx *reconcile.Context, out *ebinterface.Invoice, lineExt decimal.Decimal, taxes []taxSubtotal, groups *taxGroups) ([]reconcile.Entry, []reconcile.BelowTheLineItem) {
	const path = "AllowanceCharge"
	cfg := ctx.Config()
	v := out.Version

	var acs []*AllowanceCharge
	var btl []reconcile.BelowTheLineItem
	for i := range ui.AllowanceCharge {
		ac := &ui.AllowanceCharge[i]
		if !ac.isOutsideScope() {
			acs = append(acs, ac)
			continue
		}
		p := fmt.Sprintf("%s[%d]", path, i)
		if !v.SupportsBelowTheLine() {
			ctx.Warn(p, "below the line items are not available on version %s, dropped", v)
			continue
		}
		amt := decimal.Zero
		if a := parseAmount(ctx, p+"/Amount", &ac.Amount); a != nil {
			amt = cfg.Output(*a)
		}
		if !ac.ChargeIndicator {
			amt = amt.Neg()
		}
		var desc string
		if ac.AllowanceChargeReason != nil {
			desc = *ac.AllowanceChargeReason
		}
		btl = append(btl, reconcile.BelowTheLineItem{Description: desc, Amount: amt})
		out.BelowTheLineItems = append(out.BelowTheLineItems, ebinterface.BelowTheLineItem{
			Description:    desc,
			LineItemAmount: amt,
		})
		groups.add(ebKey(reconcile.CategoryOutsideScope), outsideScope, "", amt)
	}
	if len(acs) == 0 {
		return nil, btl
	}

	cs := ublRawCharges(ctx, path, acs, true)
	for i := range cs {
		if cs[i].raw.Tax != nil {
			continue
		}
		if len(taxes) == 1 {
			cs[i].raw.Tax = taxes[0].Classification
			cs[i].key = taxes[0].Key
			cs[i].exemptionCode = taxes[0].exemptionCode
			continue
		}
		ctx.Warn(fmt.Sprintf("%s[%d]", path, i), "allowance or charge carries no tax category")
	}

	acc := ctx.Accumulate(path, lineExt, rawCharges(cs))
	for i, e := range acc.Entries {
		if e.Tax != nil {
			groups.add(cs[i].key, e.Tax, cs[i].exemptionCode, e.Effect())
		}
	}
	out.ReductionAndSurchargeDetails = &ebinterface.ReductionAndSurchargeDetails{
		Entries: ebEntries(cfg, v, acc.Entries, cs),
	}
	return acc.Entries, btl
}

// ebEntries emits a normalized, direction homogeneous list. cs carries the
// tax categories of document level entries and is nil for lines.
func ebEntries(cfg reconcile.Config, v ebinterface.Version, entries []reconcile.Entry, cs []sourceCharge) []ebinterface.ReductionAndSurchargeValue {
	out := make([]ebinterface.ReductionAndSurchargeValue, len(entries))
	for i, e := range entries {
		kind := ebinterface.KindReduction
		if e.Surcharge {
			kind = ebinterface.KindSurcharge
		}
		base, amt := e.BaseAmount, e.Amount
		rs := ebinterface.ReductionAndSurchargeValue{
			Kind:       kind,
			BaseAmount: &base,
			Amount:     &amt,
			Comment:    e.Comment,
			ReasonCode: e.ReasonCode,
		}
		// Percentages are emitted as supplied, without rounding
		if e.Percentage != nil {
			rs.Percentage = reconcile.DecimalPtr(*e.Percentage)
		}
		if cs != nil && e.Tax != nil {
			rs.LineTax = newLineTax(cfg, v, e.Tax, cs[i].key.TaxCategoryID, cs[i].exemptionCode, nil, nil)
		}
		out[i] = rs
	}
	return out
}

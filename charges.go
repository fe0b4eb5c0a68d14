package ubl

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/worksome/ebinterface.ubl/ebinterface"
	"github.com/worksome/ebinterface.ubl/reconcile"
)

// AllowanceCharge represents an allowance or charge
type AllowanceCharge struct {
	ChargeIndicator           bool           `xml:"cbc:ChargeIndicator"`
	AllowanceChargeReasonCode *string        `xml:"cbc:AllowanceChargeReasonCode"`
	AllowanceChargeReason     *string        `xml:"cbc:AllowanceChargeReason"`
	MultiplierFactorNumeric   *string        `xml:"cbc:MultiplierFactorNumeric"`
	Amount                    Amount         `xml:"cbc:Amount"`
	BaseAmount                *Amount        `xml:"cbc:BaseAmount"`
	TaxCategory               []*TaxCategory `xml:"cac:TaxCategory"`
}

// sourceCharge is a reduction or surcharge read from a source document with
// the tax category it was found with.
type sourceCharge struct {
	raw           reconcile.RawAllowanceCharge
	key           reconcile.TaxCategoryKey
	exemptionCode string
}

func rawCharges(cs []sourceCharge) []reconcile.RawAllowanceCharge {
	out := make([]reconcile.RawAllowanceCharge, len(cs))
	for i, c := range cs {
		out[i] = c.raw
	}
	return out
}

// ebRawCharges reads reductions and surcharges in document order. Tax is
// only read on document level entries.
func ebRawCharges(ctx *reconcile.Context, path string, v ebinterface.Version, entries []ebinterface.ReductionAndSurchargeValue, docLevel bool) []sourceCharge {
	out := make([]sourceCharge, 0, len(entries))
	for i, en := range entries {
		p := fmt.Sprintf("%s[%d]", path, i)
		var kind reconcile.Kind
		switch en.Kind {
		case ebinterface.KindReduction:
			kind = reconcile.KindReduction
		case ebinterface.KindSurcharge:
			kind = reconcile.KindSurcharge
		case ebinterface.KindOtherVATableTax:
			if !v.SupportsOtherVATableTax() {
				ctx.Warn(p, "OtherVATableTax is not available on version %s, dropped", v)
				continue
			}
			kind = reconcile.KindOtherVATableTax
		default:
			ctx.Error(p, "unknown reduction and surcharge kind %q, dropped", en.Kind)
			continue
		}

		c := sourceCharge{
			raw: reconcile.RawAllowanceCharge{
				Kind:       kind,
				BaseAmount: en.BaseAmount,
				Percentage: en.Percentage,
				Amount:     en.Amount,
				Comment:    en.Comment,
				ReasonCode: en.ReasonCode,
			},
		}
		if docLevel {
			if t := readLineTax(ctx, p, v, en.LineTax); t.present {
				c.raw.Tax = ctx.Classify(p, t.entry)
				c.key = t.entry.Key
				c.exemptionCode = t.exemptionCode
			}
		}
		out = append(out, c)
	}
	return out
}

// addCharges converts the document level reductions, surcharges and below
// the line items. Reductions and surcharges apply to the sum of the line
// amounts.
func (ui *Invoice) addCharges(ctx *reconcile.Context, doc *ebinterface.Invoice, lineExt decimal.Decimal, groups *taxGroups) ([]reconcile.Entry, []reconcile.BelowTheLineItem) {
	cfg := ctx.Config()
	ccy := ui.currency()
	const path = "ReductionAndSurchargeDetails"

	var entries []reconcile.Entry
	if d := doc.ReductionAndSurchargeDetails; d != nil {
		cs := ebRawCharges(ctx, path, doc.Version, d.Entries, true)
		for i := range cs {
			if cs[i].raw.Tax != nil {
				continue
			}
			// A single tax category is unambiguous
			if len(groups.order) == 1 {
				grp := groups.groups[groups.order[0]]
				cs[i].raw.Tax = grp.cl
				cs[i].key = grp.key
				cs[i].exemptionCode = grp.exemptionCode
				continue
			}
			ctx.Warn(fmt.Sprintf("%s[%d]", path, i), "reduction or surcharge carries no tax category")
		}

		acc := ctx.Accumulate(path, lineExt, rawCharges(cs))
		entries = acc.Entries
		for i, e := range acc.Entries {
			ac := newAllowanceCharge(cfg, e, ccy, cs[i].key.TaxCategoryID, cs[i].exemptionCode)
			ui.AllowanceCharge = append(ui.AllowanceCharge, *ac)
			if e.Tax != nil {
				groups.add(cs[i].key, e.Tax, cs[i].exemptionCode, e.Effect())
			}
		}
	}

	btl := belowTheLine(ctx, doc)
	for _, b := range btl {
		ui.AllowanceCharge = append(ui.AllowanceCharge, newBelowTheLineCharge(cfg, b, ccy))
		groups.add(ebKey(reconcile.CategoryOutsideScope), outsideScope, "", b.Amount)
	}

	return entries, btl
}

var outsideScope = reconcile.Other{Comment: reconcile.DefaultOutsideScopeComment}

func belowTheLine(ctx *reconcile.Context, doc *ebinterface.Invoice) []reconcile.BelowTheLineItem {
	if len(doc.BelowTheLineItems) == 0 {
		return nil
	}
	if !doc.Version.SupportsBelowTheLine() {
		ctx.Warn("BelowTheLineItems", "below the line items are not available on version %s, dropped", doc.Version)
		return nil
	}
	out := make([]reconcile.BelowTheLineItem, len(doc.BelowTheLineItems))
	for i, b := range doc.BelowTheLineItems {
		out[i] = reconcile.BelowTheLineItem{
			Description: b.Description,
			Amount:      ctx.Config().Output(b.LineItemAmount),
		}
	}
	return out
}

// newAllowanceCharge emits a normalized entry in its natural direction:
// UBL has no notion of negated entries in a homogeneous list.
func newAllowanceCharge(cfg reconcile.Config, e reconcile.Entry, ccy *string, code, exemptionCode string) *AllowanceCharge {
	effect := e.Effect()
	ac := &AllowanceCharge{
		ChargeIndicator:           !effect.IsNegative(),
		AllowanceChargeReason:     e.Comment,
		AllowanceChargeReasonCode: strPtr(e.ReasonCode),
		Amount:                    amount(cfg, effect.Abs(), ccy),
	}
	if e.Percentage != nil {
		p := e.Percentage.Abs().String()
		ac.MultiplierFactorNumeric = &p
		ac.BaseAmount = amountRef(cfg, e.BaseAmount, ccy)
	}
	if e.Tax != nil {
		tc := newTaxCategory(e.Tax, code, exemptionCode, cfg)
		ac.TaxCategory = []*TaxCategory{&tc}
	}
	return ac
}

func newBelowTheLineCharge(cfg reconcile.Config, b reconcile.BelowTheLineItem, ccy *string) AllowanceCharge {
	tc := newTaxCategory(outsideScope, reconcile.CategoryOutsideScope, "", cfg)
	return AllowanceCharge{
		ChargeIndicator:       !b.Amount.IsNegative(),
		AllowanceChargeReason: strPtr(b.Description),
		Amount:                amount(cfg, b.Amount.Abs(), ccy),
		TaxCategory:           []*TaxCategory{&tc},
	}
}

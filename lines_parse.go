package ubl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/worksome/ebinterface.ubl/ebinterface"
	"github.com/worksome/ebinterface.ubl/reconcile"
)

func (ui *Invoice) linePath() string {
	if len(ui.CreditNoteLines) > 0 {
		return "CreditNoteLine"
	}
	return "InvoiceLine"
}

// ebAddLines converts the UBL lines into a single ebInterface item list
// and returns the final line amounts in document order.
func (ui *Invoice) ebAddLines(ctx *reconcile.Context, out *ebinterface.Invoice, taxes []taxSubtotal, groups *taxGroups) []decimal.Decimal {
	cfg := ctx.Config()
	v := out.Version
	items := ui.Lines()

	amounts := make([]decimal.Decimal, 0, len(items))
	list := ebinterface.ItemList{ListLineItem: make([]ebinterface.ListLineItem, 0, len(items))}

	for i := range items {
		docLine := &items[i]
		path := fmt.Sprintf("%s[%d]", ui.linePath(), i)

		qty, unit := lineQuantity(ctx, path, docLine)
		lineExt := parseAmount(ctx, path+"/LineExtensionAmount", &docLine.LineExtensionAmount)

		var price decimal.Decimal
		var baseQty *decimal.Decimal
		var seed decimal.Decimal
		if docLine.Price != nil {
			if p := parseDecimal(ctx, path+"/Price/PriceAmount", &docLine.Price.PriceAmount.Value); p != nil {
				price = *p
			}
			if bq := docLine.Price.BaseQuantity; bq != nil {
				baseQty = parseDecimal(ctx, path+"/Price/BaseQuantity", &bq.Value)
			}
			seed = lineSeed(cfg, qty, price, baseQty)
		} else {
			ctx.Warn(path+"/Price", "missing price, using line extension amount")
			if lineExt != nil {
				seed = *lineExt
				if !qty.IsZero() {
					price = cfg.Intermediate(lineExt.Div(qty))
				}
			}
		}

		cs := ublRawCharges(ctx, path+"/AllowanceCharge", docLine.AllowanceCharge, false)
		acc := ctx.Accumulate(path+"/AllowanceCharge", seed, rawCharges(cs))
		lineAmount := acc.FinalBase
		checkLineAmount(ctx, path+"/LineExtensionAmount", lineExt, lineAmount)

		e, exemptionCode := lineTaxEntry(ctx, path, docLine, taxes)
		cl := classifyLine(ctx, path, e, lineAmount, nil)
		groups.add(e.Key, cl, exemptionCode, lineAmount)

		li := ebinterface.ListLineItem{
			PositionNumber: linePositionNumber(docLine.ID, i+1),
			Quantity:       ebinterface.Quantity{Unit: unit, Value: qty},
			UnitPrice:      ebinterface.UnitPrice{Value: price, BaseQuantity: baseQty},
			LineItemAmount: &lineAmount,
		}
		if di := docLine.Item; di != nil {
			if di.Name != "" {
				li.Description = append(li.Description, di.Name)
			}
			if di.Description != nil {
				li.Description = append(li.Description, strings.Split(*di.Description, "\n")...)
			}
			if di.SellersItemIdentification != nil && di.SellersItemIdentification.ID != nil {
				li.ArticleNumber = di.SellersItemIdentification.ID.Value
			}
		}

		r := reconcile.Reconcile(cfg, reconcile.MonetaryFact{
			Percentage:  reconcile.DecimalPtr(reconcile.Percentage(cl)),
			TaxableBase: &lineAmount,
		}).Output(cfg)
		li.LineTax = newLineTax(cfg, v, cl, e.Key.TaxCategoryID, exemptionCode, &lineAmount, &r.TaxAmount)

		if len(acc.Entries) > 0 {
			li.ReductionAndSurchargeListLineItemDetails = &ebinterface.ReductionAndSurchargeListLineItemDetails{
				Entries: ebEntries(cfg, v, acc.Entries, nil),
			}
		}

		amounts = append(amounts, lineAmount)
		list.ListLineItem = append(list.ListLineItem, li)
	}

	out.Details.ItemList = []ebinterface.ItemList{list}
	return amounts
}

func lineQuantity(ctx *reconcile.Context, path string, docLine *InvoiceLine) (decimal.Decimal, string) {
	iq := docLine.InvoicedQuantity
	if docLine.CreditedQuantity != nil {
		iq = docLine.CreditedQuantity
	}
	if iq == nil {
		ctx.Warn(path, "missing quantity, using 1")
		return decimal.NewFromInt(1), ""
	}
	if q := parseDecimal(ctx, path+"/InvoicedQuantity", &iq.Value); q != nil {
		return *q, iq.UnitCode
	}
	return decimal.NewFromInt(1), iq.UnitCode
}

// lineTaxEntry reads the classified tax category of a line. Missing
// exemption details are completed from the matching tax subtotal; a line
// without category falls back to the only subtotal of the document.
func lineTaxEntry(ctx *reconcile.Context, path string, docLine *InvoiceLine, taxes []taxSubtotal) (reconcile.TaxEntry, string) {
	var ctc *ClassifiedTaxCategory
	if docLine.Item != nil {
		ctc = docLine.Item.ClassifiedTaxCategory
	}
	if ctc == nil {
		ctx.Warn(path+"/Item/ClassifiedTaxCategory", "missing tax category")
		if len(taxes) == 1 {
			st := taxes[0]
			e := reconcile.TaxEntry{Key: st.Key}
			switch c := st.Classification.(type) {
			case reconcile.StandardVAT:
				e.Percentage = reconcile.DecimalPtr(c.Percentage)
			case reconcile.Exempt:
				e.Exemption = &c.Reason
			case reconcile.Other:
				e.Remark = c.Comment
			}
			return e, st.exemptionCode
		}
		return reconcile.TaxEntry{Key: reconcile.NewTaxCategoryKey(reconcile.TaxSchemeVAT, "", "", "")}, ""
	}

	tc := taxCategory{
		id:            ctc.ID,
		percent:       ctc.Percent,
		exemptionCode: ctc.TaxExemptionReasonCode,
		exemption:     ctc.TaxExemptionReason,
		scheme:        ctc.TaxScheme,
	}
	e := tc.entry(ctx, path+"/Item/ClassifiedTaxCategory")
	var exemptionCode string
	if ctc.TaxExemptionReasonCode != nil {
		exemptionCode = *ctc.TaxExemptionReasonCode
	}

	// Look up exemption details from TaxTotal if not present in line
	if st := findSubtotal(taxes, e.Key); st != nil {
		if exemptionCode == "" {
			exemptionCode = st.exemptionCode
		}
		if ex, ok := st.Classification.(reconcile.Exempt); ok && e.Exemption != nil && strings.TrimSpace(*e.Exemption) == "" {
			e.Exemption = &ex.Reason
		}
	}
	return e, exemptionCode
}

func linePositionNumber(id string, n int) *int {
	if pos, err := strconv.Atoi(strings.TrimSpace(id)); err == nil && pos > 0 {
		return &pos
	}
	return &n
}

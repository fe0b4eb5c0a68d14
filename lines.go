package ubl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/worksome/ebinterface.ubl/ebinterface"
	"github.com/worksome/ebinterface.ubl/reconcile"
)

// InvoiceLine represents a line item in an invoice and credit note
type InvoiceLine struct {
	ID                  string             `xml:"cbc:ID"`
	Note                []string           `xml:"cbc:Note"`
	InvoicedQuantity    *Quantity          `xml:"cbc:InvoicedQuantity,omitempty"` // or CreditNoteQuantity
	CreditedQuantity    *Quantity          `xml:"cbc:CreditedQuantity,omitempty"`
	LineExtensionAmount Amount             `xml:"cbc:LineExtensionAmount"`
	AllowanceCharge     []*AllowanceCharge `xml:"cac:AllowanceCharge"`
	Item                *Item              `xml:"cac:Item"`
	Price               *Price             `xml:"cac:Price"`
}

// addLines converts every ebInterface line and returns the final line
// amounts in document order.
func (ui *Invoice) addLines(ctx *reconcile.Context, doc *ebinterface.Invoice, groups *taxGroups) []decimal.Decimal {
	cfg := ctx.Config()
	ccy := ui.currency()
	var amounts []decimal.Decimal
	var lines []InvoiceLine

	n := 0
	for i, list := range doc.Details.ItemList {
		for j := range list.ListLineItem {
			li := &list.ListLineItem[j]
			path := fmt.Sprintf("Details/ItemList[%d]/ListLineItem[%d]", i, j)
			n++

			seed := lineSeed(cfg, li.Quantity.Value, li.UnitPrice.Value, li.UnitPrice.BaseQuantity)
			var raws []reconcile.RawAllowanceCharge
			if d := li.ReductionAndSurchargeListLineItemDetails; d != nil {
				raws = rawCharges(ebRawCharges(ctx, path+"/ReductionAndSurchargeListLineItemDetails", doc.Version, d.Entries, false))
			}
			acc := ctx.Accumulate(path+"/ReductionAndSurchargeListLineItemDetails", seed, raws)
			lineAmount := acc.FinalBase
			checkLineAmount(ctx, path+"/LineItemAmount", li.LineItemAmount, lineAmount)

			t := readLineTax(ctx, path, doc.Version, li.LineTax)
			if !t.present {
				ctx.Info(path, "line carries no tax, using document tax category")
			}
			base := lineAmount
			if t.taxable != nil {
				base = *t.taxable
			}
			cl := classifyLine(ctx, path, t.entry, base, t.tax)
			groups.add(t.entry.Key, cl, t.exemptionCode, lineAmount)

			invLine := InvoiceLine{
				ID:                  linePosition(li.PositionNumber, n),
				LineExtensionAmount: amount(cfg, lineAmount, ccy),
				Item:                newItem(li, cl, t.entry.Key.TaxCategoryID, cfg),
				Price: &Price{
					PriceAmount: Amount{Value: li.UnitPrice.Value.String(), CurrencyID: ccy},
				},
			}
			if bq := li.UnitPrice.BaseQuantity; bq != nil {
				invLine.Price.BaseQuantity = &Quantity{UnitCode: li.Quantity.Unit, Value: bq.String()}
			}

			// Always set quantity (mandatory field)
			iq := &Quantity{
				UnitCode: li.Quantity.Unit,
				Value:    li.Quantity.Value.String(),
			}
			if doc.IsCreditMemo() {
				invLine.CreditedQuantity = iq
			} else {
				invLine.InvoicedQuantity = iq
			}

			for _, e := range acc.Entries {
				invLine.AllowanceCharge = append(invLine.AllowanceCharge, newAllowanceCharge(cfg, e, ccy, "", ""))
			}

			amounts = append(amounts, lineAmount)
			lines = append(lines, invLine)
		}
	}

	if doc.IsCreditMemo() {
		ui.CreditNoteLines = lines
	} else {
		ui.InvoiceLines = lines
	}
	return amounts
}

func newItem(li *ebinterface.ListLineItem, cl reconcile.Classification, code string, cfg reconcile.Config) *Item {
	it := &Item{
		ClassifiedTaxCategory: newClassifiedTaxCategory(cl, code, cfg),
	}
	if len(li.Description) > 0 {
		it.Name = li.Description[0]
	}
	if len(li.Description) > 1 {
		d := strings.Join(li.Description[1:], "\n")
		it.Description = &d
	}
	if li.ArticleNumber != "" {
		it.SellersItemIdentification = &ItemIdentification{
			ID: &IDType{Value: li.ArticleNumber},
		}
	}
	return it
}

func linePosition(pos *int, n int) string {
	if pos != nil {
		return strconv.Itoa(*pos)
	}
	return strconv.Itoa(n)
}

// lineSeed is the starting base of a line: quantity times unit price,
// divided by the base quantity the price refers to.
func lineSeed(cfg reconcile.Config, qty, price decimal.Decimal, baseQty *decimal.Decimal) decimal.Decimal {
	seed := qty.Mul(price)
	if baseQty != nil && !baseQty.IsZero() {
		seed = seed.Div(*baseQty)
	}
	return cfg.Intermediate(seed)
}

// checkLineAmount compares the amount supplied by the source with the one
// computed from quantity, price and line reductions and surcharges.
func checkLineAmount(ctx *reconcile.Context, path string, supplied *decimal.Decimal, computed decimal.Decimal) {
	if supplied == nil {
		return
	}
	cfg := ctx.Config()
	if !cfg.Output(*supplied).Equal(computed) {
		ctx.Warn(path, "source line amount %s differs from computed %s", cfg.Format(*supplied), cfg.Format(computed))
	}
}

// classifyLine classifies the tax entry of a line and reconciles its
// {percentage, taxable base, tax amount} fact. When the entry has no
// percentage but a tax amount, the percentage is derived first.
func classifyLine(ctx *reconcile.Context, path string, e reconcile.TaxEntry, base decimal.Decimal, tax *decimal.Decimal) reconcile.Classification {
	if e.Percentage == nil && e.Exemption == nil && tax != nil && e.Key.IsVAT() {
		r := ctx.ReconcileFact(path, reconcile.MonetaryFact{TaxableBase: &base, TaxAmount: tax})
		if r.Outcome == reconcile.OutcomeComplete {
			e.Percentage = &r.Percentage
		}
		return ctx.Classify(path, e)
	}
	cl := ctx.Classify(path, e)
	pct := reconcile.Percentage(cl)
	ctx.ReconcileFact(path, reconcile.MonetaryFact{
		Percentage:  &pct,
		TaxableBase: &base,
		TaxAmount:   tax,
	})
	return cl
}

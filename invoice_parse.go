package ubl

import (
	"fmt"
	"strings"

	"github.com/invopop/gobl/currency"
	"github.com/worksome/ebinterface.ubl/ebinterface"
	"github.com/worksome/ebinterface.ubl/reconcile"
)

// Convert converts the UBL Invoice or CreditNote into an ebInterface
// invoice of the given version. Findings are sent to the sink set with
// WithSink; the returned error is only set for documents that cannot be
// converted at all.
func (ui *Invoice) Convert(version ebinterface.Version, opts ...Option) (*ebinterface.Invoice, error) {
	if ui == nil {
		return nil, ErrNilDocument
	}
	if !version.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, version)
	}
	if strings.TrimSpace(ui.ID) == "" {
		return nil, ErrMissingInvoiceNumber
	}
	ccy, err := ui.documentCurrency()
	if err != nil {
		return nil, err
	}

	o := newOptions(opts)
	ctx := reconcile.NewContext(o.reconcile...)
	ctx.Logger().Debug().
		Str("version", version.String()).
		Str("invoice", ui.ID).
		Msg("converting UBL invoice to ebInterface")

	// Detect context from the invoice
	if ui.CustomizationID != "" && FindContext(ui.CustomizationID, ui.ProfileID) == nil {
		ctx.Info("CustomizationID", "unknown customization %q", ui.CustomizationID)
	}

	return ui.ebInvoice(ctx, version, ccy), nil
}

// documentCurrency checks that every amount of the document is expressed
// in the same currency.
func (ui *Invoice) documentCurrency() (currency.Code, error) {
	code := strings.TrimSpace(ui.DocumentCurrencyCode)
	for _, a := range ui.amounts() {
		if a == nil || a.CurrencyID == nil {
			continue
		}
		id := strings.TrimSpace(*a.CurrencyID)
		switch {
		case id == "":
		case code == "":
			code = id
		case id != code:
			return "", fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, code, id)
		}
	}
	return currency.Code(code), nil
}

func (ui *Invoice) amounts() []*Amount {
	m := &ui.LegalMonetaryTotal
	out := []*Amount{
		&m.LineExtensionAmount, &m.TaxExclusiveAmount, &m.TaxInclusiveAmount,
		m.AllowanceTotalAmount, m.ChargeTotalAmount, m.PrepaidAmount,
		m.PayableRoundingAmount, m.PayableAmount,
	}
	for i := range ui.TaxTotal {
		tt := &ui.TaxTotal[i]
		out = append(out, &tt.TaxAmount)
		for j := range tt.TaxSubtotal {
			out = append(out, tt.TaxSubtotal[j].TaxableAmount, &tt.TaxSubtotal[j].TaxAmount)
		}
	}
	for i := range ui.AllowanceCharge {
		out = append(out, &ui.AllowanceCharge[i].Amount, ui.AllowanceCharge[i].BaseAmount)
	}
	lines := ui.Lines()
	for i := range lines {
		l := &lines[i]
		out = append(out, &l.LineExtensionAmount)
		if l.Price != nil {
			out = append(out, &l.Price.PriceAmount)
		}
		for _, ac := range l.AllowanceCharge {
			if ac != nil {
				out = append(out, &ac.Amount, ac.BaseAmount)
			}
		}
	}
	return out
}

func (ui *Invoice) ebInvoice(ctx *reconcile.Context, v ebinterface.Version, ccy currency.Code) *ebinterface.Invoice {
	if ccy == "" {
		ctx.Warn("DocumentCurrencyCode", "missing document currency, using %s", currency.EUR)
		ccy = currency.EUR
	}

	out := &ebinterface.Invoice{
		Version:         v,
		DocumentType:    ebinterface.DocumentTypeInvoice,
		InvoiceNumber:   ui.ID,
		InvoiceDate:     ui.IssueDate,
		InvoiceCurrency: ccy,
	}
	if ui.IsCreditNote() {
		out.DocumentType = ebinterface.DocumentTypeCreditMemo
	}
	if len(ui.Note) > 0 {
		out.Comment = strings.Join(ui.Note, "\n")
	}

	taxes := ui.ebTaxTotals(ctx)
	groups := newTaxGroups()
	lines := ui.ebAddLines(ctx, out, taxes, groups)
	charges, btl := ui.ebAddCharges(ctx, out, reconcile.Sum(lines), taxes, groups)
	if len(taxes) == 0 && len(groups.order) > 0 {
		ctx.Info("TaxTotal", "document carries no tax totals, subtotals computed from lines")
		taxes = groups.subtotals(ctx, "TaxTotal")
	}
	ui.ebAddTotals(ctx, out, ccy, totalsInput{
		lines:   lines,
		charges: charges,
		btl:     btl,
		taxes:   taxes,
	})

	return out
}

package ubl

import (
	"fmt"

	"github.com/invopop/gobl/currency"
	"github.com/shopspring/decimal"
	"github.com/worksome/ebinterface.ubl/ebinterface"
	"github.com/worksome/ebinterface.ubl/reconcile"
)

// TaxTotal represents a tax total
type TaxTotal struct {
	TaxAmount   Amount        `xml:"cbc:TaxAmount"`
	TaxSubtotal []TaxSubtotal `xml:"cac:TaxSubtotal"`
}

// TaxSubtotal represents a tax subtotal. TaxableAmount is left out when
// it could not be derived.
type TaxSubtotal struct {
	TaxableAmount *Amount     `xml:"cbc:TaxableAmount,omitempty"`
	TaxAmount     Amount      `xml:"cbc:TaxAmount"`
	TaxCategory   TaxCategory `xml:"cac:TaxCategory"`
}

// TaxCategory represents a tax category
type TaxCategory struct {
	ID                     *IDType    `xml:"cbc:ID,omitempty"`
	Percent                *string    `xml:"cbc:Percent,omitempty"`
	TaxExemptionReasonCode *string    `xml:"cbc:TaxExemptionReasonCode,omitempty"`
	TaxExemptionReason     *string    `xml:"cbc:TaxExemptionReason,omitempty"`
	TaxScheme              *TaxScheme `xml:"cac:TaxScheme,omitempty"`
}

// MonetaryTotal represents the monetary totals of the invoice
type MonetaryTotal struct {
	LineExtensionAmount   Amount  `xml:"cbc:LineExtensionAmount"`
	TaxExclusiveAmount    Amount  `xml:"cbc:TaxExclusiveAmount"`
	TaxInclusiveAmount    Amount  `xml:"cbc:TaxInclusiveAmount"`
	AllowanceTotalAmount  *Amount `xml:"cbc:AllowanceTotalAmount,omitempty"`
	ChargeTotalAmount     *Amount `xml:"cbc:ChargeTotalAmount,omitempty"`
	PrepaidAmount         *Amount `xml:"cbc:PrepaidAmount,omitempty"`
	PayableRoundingAmount *Amount `xml:"cbc:PayableRoundingAmount,omitempty"`
	PayableAmount         *Amount `xml:"cbc:PayableAmount,omitempty"`
}

// taxSubtotal is a reconciled subtotal with the details only needed to
// emit it again.
type taxSubtotal struct {
	reconcile.TaxSubtotal
	exemptionCode string
	baseResolved  bool
}

type taxGroup struct {
	key           reconcile.TaxCategoryKey
	cl            reconcile.Classification
	exemptionCode string
	base          decimal.Decimal
}

// taxGroups sums taxable amounts per classification, in order of first
// appearance. It is used to compute subtotals for documents that carry
// none.
type taxGroups struct {
	order  []string
	groups map[string]*taxGroup
}

func newTaxGroups() *taxGroups {
	return &taxGroups{groups: make(map[string]*taxGroup)}
}

func groupKey(key reconcile.TaxCategoryKey, cl reconcile.Classification) string {
	code := key.TaxCategoryID
	if code == "" {
		code = reconcile.CategoryCode(cl)
	}
	return fmt.Sprintf("%s:%s:%s", cl.Kind(), code, reconcile.Percentage(cl).String())
}

func (g *taxGroups) add(key reconcile.TaxCategoryKey, cl reconcile.Classification, exemptionCode string, base decimal.Decimal) {
	k := groupKey(key, cl)
	grp, ok := g.groups[k]
	if !ok {
		grp = &taxGroup{key: key, cl: cl, exemptionCode: exemptionCode}
		g.groups[k] = grp
		g.order = append(g.order, k)
	}
	grp.base = grp.base.Add(base)
}

func (g *taxGroups) subtotals(ctx *reconcile.Context, path string) []taxSubtotal {
	cfg := ctx.Config()
	out := make([]taxSubtotal, 0, len(g.order))
	for i, k := range g.order {
		grp := g.groups[k]
		pct := reconcile.Percentage(grp.cl)
		base := cfg.Output(grp.base)
		r := ctx.ReconcileFact(fmt.Sprintf("%s[%d]", path, i), reconcile.MonetaryFact{
			Percentage:  &pct,
			TaxableBase: &base,
		}).Output(cfg)
		out = append(out, taxSubtotal{
			TaxSubtotal: reconcile.TaxSubtotal{
				Key:            grp.key,
				Classification: grp.cl,
				TaxableBase:    r.TaxableBase,
				TaxAmount:      r.TaxAmount,
			},
			exemptionCode: grp.exemptionCode,
			baseResolved:  true,
		})
	}
	return out
}

type totalsInput struct {
	lines   []decimal.Decimal
	charges []reconcile.Entry
	btl     []reconcile.BelowTheLineItem
	taxes   []taxSubtotal
}

func (ui *Invoice) addTotals(ctx *reconcile.Context, doc *ebinterface.Invoice, ccy currency.Code, in totalsInput) {
	cfg := ctx.Config()
	c := ui.currency()

	subs := make([]reconcile.TaxSubtotal, len(in.taxes))
	for i, st := range in.taxes {
		subs[i] = st.TaxSubtotal
	}

	// ebInterface keeps below the line items out of the gross amount.
	var incl *decimal.Decimal
	if doc.TotalGrossAmount != nil {
		v := doc.TotalGrossAmount.Add(btlSum(in.btl))
		incl = &v
	}

	t := ctx.Aggregate("Invoice", reconcile.AggregateInput{
		Currency:     ccy,
		Lines:        in.lines,
		Charges:      in.charges,
		BelowTheLine: in.btl,
		TaxSubtotals: subs,
		Source: reconcile.SourceTotals{
			TaxTotal:     doc.Tax.TaxAmountTotal,
			TaxInclusive: incl,
			Prepaid:      doc.PrepaidAmount,
			Payable:      doc.PayableAmount,
		},
	})

	tt := TaxTotal{TaxAmount: amount(cfg, t.TaxTotal, c)}
	for _, st := range in.taxes {
		ts := TaxSubtotal{
			TaxAmount:   amount(cfg, st.TaxAmount, c),
			TaxCategory: newTaxCategory(st.Classification, st.Key.TaxCategoryID, st.exemptionCode, cfg),
		}
		if st.baseResolved {
			ts.TaxableAmount = amountRef(cfg, st.TaxableBase, c)
		}
		tt.TaxSubtotal = append(tt.TaxSubtotal, ts)
	}
	ui.TaxTotal = []TaxTotal{tt}

	// Below the line items are emitted as document allowances and charges
	// so they count towards the UBL totals.
	allowance, charge := t.AllowanceTotal, t.ChargeTotal
	for _, b := range in.btl {
		a := cfg.Output(b.Amount)
		if a.IsNegative() {
			allowance = allowance.Add(a.Neg())
		} else {
			charge = charge.Add(a)
		}
	}

	ui.LegalMonetaryTotal = MonetaryTotal{
		LineExtensionAmount: amount(cfg, t.LineExtension, c),
		TaxExclusiveAmount:  amount(cfg, t.TaxExclusive, c),
		TaxInclusiveAmount:  amount(cfg, t.TaxInclusive, c),
		PayableAmount:       amountRef(cfg, t.Payable, c),
	}
	if !allowance.IsZero() {
		ui.LegalMonetaryTotal.AllowanceTotalAmount = amountRef(cfg, allowance, c)
	}
	if !charge.IsZero() {
		ui.LegalMonetaryTotal.ChargeTotalAmount = amountRef(cfg, charge, c)
	}
	if !t.Prepaid.IsZero() {
		ui.LegalMonetaryTotal.PrepaidAmount = amountRef(cfg, t.Prepaid, c)
	}
}

func btlSum(items []reconcile.BelowTheLineItem) decimal.Decimal {
	amounts := make([]decimal.Decimal, len(items))
	for i, b := range items {
		amounts[i] = b.Amount
	}
	return reconcile.Sum(amounts)
}

// ebTax is the tax information read from an ebInterface line, tax item or
// reduction and surcharge entry.
type ebTax struct {
	entry         reconcile.TaxEntry
	taxable       *decimal.Decimal
	tax           *decimal.Decimal
	exemptionCode string
	present       bool
}

// ebKey builds the resolver key of an ebInterface category code. ebInterface
// only carries VAT categories; the other fields are empty.
func ebKey(code string) reconcile.TaxCategoryKey {
	return reconcile.NewTaxCategoryKey(reconcile.TaxSchemeVAT, "", reconcile.NormalizeCategoryCode(code), "")
}

func readVAT(rate *ebinterface.VATRate, ex *ebinterface.TaxExemption) ebTax {
	switch {
	case ex != nil:
		reason := ex.Reason
		return ebTax{
			entry: reconcile.TaxEntry{
				Key:       ebKey(reconcile.CategoryExempt),
				Exemption: &reason,
			},
			exemptionCode: ex.TaxExemptionCode,
			present:       true,
		}
	case rate != nil:
		pct := rate.Value
		e := reconcile.TaxEntry{Key: ebKey(rate.TaxCategoryCode), Percentage: &pct}
		if isExemptCode(e.Key.TaxCategoryID) {
			blank := ""
			e.Exemption = &blank
		}
		return ebTax{entry: e, present: true}
	}
	return ebTax{entry: reconcile.TaxEntry{Key: ebKey("")}}
}

func readTaxItem(ti *ebinterface.TaxItem) ebTax {
	e := reconcile.TaxEntry{
		Key:        ebKey(ti.TaxPercent.TaxCategoryCode),
		Percentage: ti.TaxPercent.Value,
	}
	switch code := e.Key.TaxCategoryID; {
	case code == reconcile.CategoryOutsideScope:
		e.Remark = ti.Comment
	case isExemptCode(code):
		c := ti.Comment
		e.Exemption = &c
	}
	return ebTax{
		entry:   e,
		taxable: ti.TaxableAmount,
		tax:     ti.TaxAmount,
		present: true,
	}
}

// readLineTax reads the tax of a line in the form its version expects,
// falling back to the other form when only that one is present.
func readLineTax(ctx *reconcile.Context, path string, v ebinterface.Version, lt ebinterface.LineTax) ebTax {
	legacy := lt.VATRate != nil || lt.TaxExemption != nil
	if v.UsesTaxItem() {
		switch {
		case lt.TaxItem != nil:
			return readTaxItem(lt.TaxItem)
		case legacy:
			ctx.Info(path, "VATRate or TaxExemption used on version %s, read anyway", v)
			return readVAT(lt.VATRate, lt.TaxExemption)
		}
		return readVAT(nil, nil)
	}
	if !legacy && lt.TaxItem != nil {
		ctx.Info(path, "TaxItem is not available on version %s, read anyway", v)
		return readTaxItem(lt.TaxItem)
	}
	return readVAT(lt.VATRate, lt.TaxExemption)
}

// readTaxes reconciles the document level taxes. They are read before the
// lines so that the percentages they carry complete lines that omit them.
func readTaxes(ctx *reconcile.Context, doc *ebinterface.Invoice) []taxSubtotal {
	cfg := ctx.Config()
	var out []taxSubtotal

	items := doc.Tax.TaxItem
	var vat []ebinterface.VATItem
	if doc.Tax.VAT != nil {
		vat = doc.Tax.VAT.VATItem
	}
	useItems := doc.Version.UsesTaxItem()
	switch {
	case useItems && len(items) == 0 && len(vat) > 0:
		ctx.Info("Tax/VAT", "VAT items used on version %s, read anyway", doc.Version)
		useItems = false
	case !useItems && len(vat) == 0 && len(items) > 0:
		ctx.Info("Tax/TaxItem", "TaxItem is not available on version %s, read anyway", doc.Version)
		useItems = true
	}

	if useItems {
		for i := range items {
			path := fmt.Sprintf("Tax/TaxItem[%d]", i)
			out = append(out, reconcileSubtotal(ctx, path, readTaxItem(&items[i])))
		}
	} else {
		for i, vi := range vat {
			path := fmt.Sprintf("Tax/VAT/VATItem[%d]", i)
			t := readVAT(vi.VATRate, vi.TaxExemption)
			t.taxable = vi.TaxedAmount
			t.tax = vi.Amount
			out = append(out, reconcileSubtotal(ctx, path, t))
		}
	}

	for i, ot := range doc.Tax.OtherTax {
		path := fmt.Sprintf("Tax/OtherTax[%d]", i)
		e := reconcile.TaxEntry{Key: ebKey(reconcile.CategoryOutsideScope), Remark: ot.Comment}
		out = append(out, taxSubtotal{
			TaxSubtotal: reconcile.TaxSubtotal{
				Key:            e.Key,
				Classification: ctx.Classify(path, e),
				TaxAmount:      cfg.Output(ot.Amount),
			},
		})
	}
	return out
}

// reconcileSubtotal completes a document level tax fact and classifies
// it. A percentage derived from the amounts is registered for later lines;
// a fallback percentage never is.
func reconcileSubtotal(ctx *reconcile.Context, path string, t ebTax) taxSubtotal {
	cfg := ctx.Config()
	e := t.entry
	if !e.Key.IsVAT() {
		st := taxSubtotal{exemptionCode: t.exemptionCode}
		st.Key = e.Key
		st.Classification = ctx.Classify(path, e)
		if t.taxable != nil {
			st.TaxableBase = cfg.Output(*t.taxable)
			st.baseResolved = true
		}
		if t.tax != nil {
			st.TaxAmount = cfg.Output(*t.tax)
		}
		return st
	}
	pct := e.Percentage
	if pct == nil && e.Exemption != nil {
		zero := decimal.Zero
		pct = &zero
	}
	r := ctx.ReconcileFact(path, reconcile.MonetaryFact{
		Percentage:  pct,
		TaxableBase: t.taxable,
		TaxAmount:   t.tax,
	})
	if e.Percentage == nil && e.Exemption == nil && r.Outcome == reconcile.OutcomeComplete {
		derived := r.Percentage
		e.Percentage = &derived
	}
	cl := ctx.Classify(path, e)
	r = r.Output(cfg)
	return taxSubtotal{
		TaxSubtotal: reconcile.TaxSubtotal{
			Key:            e.Key,
			Classification: cl,
			TaxableBase:    r.TaxableBase,
			TaxAmount:      r.TaxAmount,
		},
		exemptionCode: t.exemptionCode,
		baseResolved:  r.BaseResolved(),
	}
}

package ubl_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worksome/ebinterface.ubl/ebinterface"
	"github.com/worksome/ebinterface.ubl/reconcile"
)

func TestNewLines(t *testing.T) {
	t.Run("invoice-4p3-standard.json", func(t *testing.T) {
		doc, fs := convertEbInterface(t, loadEbInterface(t, "invoice-4p3-standard.json"))
		assert.Empty(t, fs.Filter(reconcile.SeverityWarning))

		require.Len(t, doc.InvoiceLines, 2)
		line := doc.InvoiceLines[0]
		assert.Equal(t, "1", line.ID)
		assert.Equal(t, "905.00", line.LineExtensionAmount.Value)
		assert.Equal(t, "Wartung", line.Item.Name)
		assert.Equal(t, "Monatspauschale", *line.Item.Description)
		assert.Equal(t, "WART-01", line.Item.SellersItemIdentification.ID.Value)
		assert.Equal(t, "HUR", line.InvoicedQuantity.UnitCode)
		assert.Equal(t, "10", line.InvoicedQuantity.Value)
		assert.Nil(t, line.CreditedQuantity)

		assert.Equal(t, "S", line.Item.ClassifiedTaxCategory.ID.Value)
		assert.Equal(t, "VAT", line.Item.ClassifiedTaxCategory.TaxScheme.ID.Value)
		assert.Equal(t, "20", *line.Item.ClassifiedTaxCategory.Percent)

		require.Len(t, line.AllowanceCharge, 2)
		assert.False(t, line.AllowanceCharge[0].ChargeIndicator)
		assert.Equal(t, "Stammkundenrabatt", *line.AllowanceCharge[0].AllowanceChargeReason)
		assert.Equal(t, "100.00", line.AllowanceCharge[0].Amount.Value)
		assert.Equal(t, "10", *line.AllowanceCharge[0].MultiplierFactorNumeric)
		assert.Equal(t, "1000.00", line.AllowanceCharge[0].BaseAmount.Value)
		// Stored negated in the ebInterface reduction list, emitted as a charge
		assert.True(t, line.AllowanceCharge[1].ChargeIndicator)
		assert.Equal(t, "5.00", line.AllowanceCharge[1].Amount.Value)
		assert.Nil(t, line.AllowanceCharge[1].MultiplierFactorNumeric)
		assert.Empty(t, line.AllowanceCharge[0].TaxCategory)

		line = doc.InvoiceLines[1]
		assert.Equal(t, "2", line.ID)
		assert.Equal(t, "100.00", line.LineExtensionAmount.Value)
		assert.Equal(t, "AA", line.Item.ClassifiedTaxCategory.ID.Value)
		assert.Equal(t, "10", *line.Item.ClassifiedTaxCategory.Percent)
		assert.Nil(t, line.Item.Description)
		assert.Nil(t, line.Item.SellersItemIdentification)
	})

	t.Run("invoice-6p0-tax-item.json", func(t *testing.T) {
		doc, _ := convertEbInterface(t, loadEbInterface(t, "invoice-6p0-tax-item.json"))

		require.Len(t, doc.InvoiceLines, 2)
		ctc := doc.InvoiceLines[1].Item.ClassifiedTaxCategory
		assert.Equal(t, "E", ctc.ID.Value)
		assert.Equal(t, "0", *ctc.Percent)
		assert.Equal(t, "Kleinunternehmerregelung", *ctc.TaxExemptionReason)
	})

	t.Run("percentage taken from document taxes", func(t *testing.T) {
		doc, fs := convertEbInterface(t, loadEbInterface(t, "invoice-4p0-minimal.json"))

		require.Len(t, doc.InvoiceLines, 1)
		line := doc.InvoiceLines[0]
		assert.Equal(t, "1", line.ID)
		assert.Equal(t, "30.00", line.LineExtensionAmount.Value)
		assert.Equal(t, "S", line.Item.ClassifiedTaxCategory.ID.Value)
		assert.Equal(t, "20", *line.Item.ClassifiedTaxCategory.Percent)
		assert.Contains(t, findingPaths(fs, reconcile.SeverityInfo), "Details/ItemList[0]/ListLineItem[0]")
	})

	t.Run("base quantity divides the unit price", func(t *testing.T) {
		doc := loadEbInterface(t, "invoice-4p3-standard.json")
		li := &doc.Details.ItemList[0].ListLineItem[1]
		bq := decimal.NewFromInt(100)
		li.UnitPrice.Value = decimal.RequireFromString("2500.00")
		li.UnitPrice.BaseQuantity = &bq
		out, fs := convertEbInterface(t, doc)

		line := out.InvoiceLines[1]
		assert.Equal(t, "50.00", line.LineExtensionAmount.Value)
		assert.Equal(t, "100", line.Price.BaseQuantity.Value)
		assert.Contains(t, findingPaths(fs, reconcile.SeverityWarning), "Details/ItemList[0]/ListLineItem[1]/LineItemAmount")
	})

	t.Run("supplied line amount differs", func(t *testing.T) {
		doc := loadEbInterface(t, "invoice-4p3-standard.json")
		wrong := decimal.RequireFromString("900.00")
		doc.Details.ItemList[0].ListLineItem[0].LineItemAmount = &wrong
		out, fs := convertEbInterface(t, doc)

		assert.Equal(t, "905.00", out.InvoiceLines[0].LineExtensionAmount.Value)
		assert.Contains(t, findingPaths(fs, reconcile.SeverityWarning), "Details/ItemList[0]/ListLineItem[0]/LineItemAmount")
	})

	t.Run("percentage derived from line tax amount", func(t *testing.T) {
		doc := loadEbInterface(t, "invoice-6p0-tax-item.json")
		ti := doc.Details.ItemList[0].ListLineItem[0].TaxItem
		tax := decimal.RequireFromString("26.00")
		ti.TaxPercent = ebinterface.TaxPercent{TaxCategoryCode: "AA"}
		ti.TaxAmount = &tax
		out, _ := convertEbInterface(t, doc)

		ctc := out.InvoiceLines[0].Item.ClassifiedTaxCategory
		assert.Equal(t, "AA", ctc.ID.Value)
		assert.Equal(t, "13", *ctc.Percent)
	})

	t.Run("tax total without percentage leaves lines unresolved", func(t *testing.T) {
		doc := loadEbInterface(t, "invoice-6p0-tax-item.json")
		doc.Tax.TaxItem = []ebinterface.TaxItem{
			{TaxPercent: ebinterface.TaxPercent{TaxCategoryCode: "S"}, TaxAmount: ptrDecimal("20.00")},
		}
		doc.Tax.TaxAmountTotal = nil
		doc.Details.ItemList[0].ListLineItem[0].TaxItem.TaxPercent.Value = nil
		out, fs := convertEbInterface(t, doc)

		ctc := out.InvoiceLines[0].Item.ClassifiedTaxCategory
		assert.Equal(t, "0", *ctc.Percent)
		paths := findingPaths(fs, reconcile.SeverityWarning)
		assert.Contains(t, paths, "Tax/TaxItem[0]")
		assert.Contains(t, paths, "Details/ItemList[0]/ListLineItem[0]")
	})

	t.Run("zero line amount keeps the document percentage", func(t *testing.T) {
		doc := loadEbInterface(t, "invoice-6p0-tax-item.json")
		li := &doc.Details.ItemList[0].ListLineItem[0]
		li.Quantity.Value = decimal.Zero
		li.LineItemAmount = nil
		li.TaxItem.TaxPercent.Value = nil
		li.TaxItem.TaxAmount = ptrDecimal("40.00")
		out, fs := convertEbInterface(t, doc)

		// The percentage of the document taxes is used instead
		assert.Equal(t, "20", *out.InvoiceLines[0].Item.ClassifiedTaxCategory.Percent)
		var msgs []string
		for _, f := range fs.Filter(reconcile.SeverityWarning) {
			if f.Path == "Details/ItemList[0]/ListLineItem[0]" {
				msgs = append(msgs, f.Message)
			}
		}
		require.Len(t, msgs, 1)
		assert.Contains(t, msgs[0], "taxable base is zero")
	})

	t.Run("credit memo uses credited quantities", func(t *testing.T) {
		doc, _ := convertEbInterface(t, loadEbInterface(t, "credit-memo-5p0.json"))

		assert.Empty(t, doc.InvoiceLines)
		require.Len(t, doc.CreditNoteLines, 1)
		line := doc.CreditNoteLines[0]
		assert.Nil(t, line.InvoicedQuantity)
		assert.Equal(t, "1", line.CreditedQuantity.Value)
		assert.Equal(t, "KWH", line.CreditedQuantity.UnitCode)
		assert.Equal(t, "102.00", line.LineExtensionAmount.Value)
	})
}

func TestParseLines(t *testing.T) {
	t.Run("invoice-standard.json", func(t *testing.T) {
		doc, fs := convertUBL(t, loadUBL(t, "invoice-standard.json"), ebinterface.V43)
		assert.Empty(t, fs.Filter(reconcile.SeverityWarning))

		require.Len(t, doc.Details.ItemList, 1)
		lines := doc.Details.ItemList[0].ListLineItem
		require.Len(t, lines, 2)

		li := lines[0]
		assert.Equal(t, 1, *li.PositionNumber)
		assert.Equal(t, []string{"Development services", "Backend work"}, li.Description)
		assert.Equal(t, "DEV-01", li.ArticleNumber)
		assert.Equal(t, "HUR", li.Quantity.Unit)
		assert.Equal(t, "5", li.Quantity.Value.String())
		assert.Equal(t, "40", li.UnitPrice.Value.String())
		assert.Equal(t, "190", li.LineItemAmount.String())

		require.NotNil(t, li.VATRate)
		assert.Equal(t, "20", li.VATRate.Value.String())
		assert.Equal(t, "S", li.VATRate.TaxCategoryCode)
		assert.Nil(t, li.TaxItem)

		require.NotNil(t, li.ReductionAndSurchargeListLineItemDetails)
		entries := li.ReductionAndSurchargeListLineItemDetails.Entries
		require.Len(t, entries, 2)
		assert.Equal(t, ebinterface.KindReduction, entries[0].Kind)
		assert.Equal(t, "20", entries[0].Amount.String())
		assert.Equal(t, "10", entries[0].Percentage.String())
		assert.Equal(t, "200", entries[0].BaseAmount.String())
		// The charge joins the reduction list with an inverted sign
		assert.Equal(t, ebinterface.KindReduction, entries[1].Kind)
		assert.Equal(t, "-10", entries[1].Amount.String())
		assert.Equal(t, "180", entries[1].BaseAmount.String())
		assert.Equal(t, "Travel", *entries[1].Comment)
		assert.Contains(t, findingPaths(fs, reconcile.SeverityInfo), "InvoiceLine[0]/AllowanceCharge[1]")

		assert.Equal(t, "AA", lines[1].VATRate.TaxCategoryCode)
		assert.Equal(t, "10", lines[1].VATRate.Value.String())
	})

	t.Run("category code needs 4.3", func(t *testing.T) {
		doc, _ := convertUBL(t, loadUBL(t, "invoice-standard.json"), ebinterface.V42)

		li := doc.Details.ItemList[0].ListLineItem[0]
		require.NotNil(t, li.VATRate)
		assert.Empty(t, li.VATRate.TaxCategoryCode)
	})

	t.Run("tax items on 6.0", func(t *testing.T) {
		doc, _ := convertUBL(t, loadUBL(t, "invoice-standard.json"), ebinterface.V60)

		li := doc.Details.ItemList[0].ListLineItem[0]
		assert.Nil(t, li.VATRate)
		require.NotNil(t, li.TaxItem)
		assert.Equal(t, "S", li.TaxItem.TaxPercent.TaxCategoryCode)
		assert.Equal(t, "20", li.TaxItem.TaxPercent.Value.String())
		assert.Equal(t, "190", li.TaxItem.TaxableAmount.String())
		assert.Equal(t, "38", li.TaxItem.TaxAmount.String())
	})

	t.Run("missing line percentage resolved from tax total", func(t *testing.T) {
		doc, fs := convertUBL(t, loadUBL(t, "invoice-outside-scope.json"), ebinterface.V50)

		lines := doc.Details.ItemList[0].ListLineItem
		require.Len(t, lines, 2)
		require.NotNil(t, lines[0].VATRate)
		assert.Equal(t, "20", lines[0].VATRate.Value.String())
		assert.NotContains(t, findingPaths(fs, reconcile.SeverityWarning), "InvoiceLine[0]")

		// Exemption reason taken from the matching subtotal
		require.NotNil(t, lines[1].TaxExemption)
		assert.Equal(t, "Medical", lines[1].TaxExemption.Reason)
		assert.Equal(t, "VATEX-EU-132", lines[1].TaxExemption.TaxExemptionCode)
	})

	t.Run("exemption code needs 5.0", func(t *testing.T) {
		doc, _ := convertUBL(t, loadUBL(t, "invoice-outside-scope.json"), ebinterface.V43)

		ex := doc.Details.ItemList[0].ListLineItem[1].TaxExemption
		require.NotNil(t, ex)
		assert.Equal(t, "Medical", ex.Reason)
		assert.Empty(t, ex.TaxExemptionCode)
	})

	t.Run("missing price uses line extension", func(t *testing.T) {
		in := loadUBL(t, "invoice-standard.json")
		in.InvoiceLines[1].Price = nil
		in.InvoiceLines[1].InvoicedQuantity.Value = "4"
		doc, fs := convertUBL(t, in, ebinterface.V43)

		li := doc.Details.ItemList[0].ListLineItem[1]
		assert.Equal(t, "25", li.UnitPrice.Value.String())
		assert.Equal(t, "100", li.LineItemAmount.String())
		assert.Contains(t, findingPaths(fs, reconcile.SeverityWarning), "InvoiceLine[1]/Price")
	})

	t.Run("invalid quantity", func(t *testing.T) {
		in := loadUBL(t, "invoice-standard.json")
		in.InvoiceLines[1].InvoicedQuantity.Value = "one"
		doc, fs := convertUBL(t, in, ebinterface.V43)

		assert.Equal(t, "1", doc.Details.ItemList[0].ListLineItem[1].Quantity.Value.String())
		assert.Contains(t, findingPaths(fs, reconcile.SeverityError), "InvoiceLine[1]/InvoicedQuantity")
		assert.Error(t, fs.Err())
	})

	t.Run("missing tax category", func(t *testing.T) {
		in := loadUBL(t, "invoice-standard.json")
		in.InvoiceLines[1].Item.ClassifiedTaxCategory = nil
		_, fs := convertUBL(t, in, ebinterface.V43)

		paths := findingPaths(fs, reconcile.SeverityWarning)
		assert.Contains(t, paths, "InvoiceLine[1]/Item/ClassifiedTaxCategory")
		assert.Contains(t, paths, "InvoiceLine[1]")
	})
}

func TestLinePositions(t *testing.T) {
	in := loadUBL(t, "invoice-standard.json")
	in.InvoiceLines[0].ID = "A-1"
	in.InvoiceLines[1].ID = "7"
	doc, _ := convertUBL(t, in, ebinterface.V43)

	lines := doc.Details.ItemList[0].ListLineItem
	assert.Equal(t, 1, *lines[0].PositionNumber)
	assert.Equal(t, 7, *lines[1].PositionNumber)

	out, _ := convertEbInterface(t, doc)
	assert.Equal(t, "1", out.InvoiceLines[0].ID)
	assert.Equal(t, "7", out.InvoiceLines[1].ID)
}

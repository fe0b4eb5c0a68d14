package ubl_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ubl "github.com/worksome/ebinterface.ubl"
	"github.com/worksome/ebinterface.ubl/ebinterface"
	"github.com/worksome/ebinterface.ubl/reconcile"
)

func TestParseErrors(t *testing.T) {
	t.Run("nil document", func(t *testing.T) {
		var doc *ubl.Invoice
		_, err := doc.Convert(ebinterface.V43)
		assert.ErrorIs(t, err, ubl.ErrNilDocument)
	})

	t.Run("unknown version", func(t *testing.T) {
		_, err := loadUBL(t, "invoice-standard.json").Convert("7.0")
		assert.ErrorIs(t, err, ubl.ErrUnsupportedVersion)
	})

	t.Run("missing invoice number", func(t *testing.T) {
		doc := loadUBL(t, "invoice-standard.json")
		doc.ID = ""
		_, err := doc.Convert(ebinterface.V43)
		assert.ErrorIs(t, err, ubl.ErrMissingInvoiceNumber)
	})

	t.Run("currency mismatch", func(t *testing.T) {
		doc := loadUBL(t, "invoice-standard.json")
		usd := "USD"
		doc.InvoiceLines[1].LineExtensionAmount.CurrencyID = &usd
		_, err := doc.Convert(ebinterface.V43)
		assert.ErrorIs(t, err, ubl.ErrCurrencyMismatch)
		assert.ErrorContains(t, err, "EUR and USD")
	})
}

func TestParseInvoice(t *testing.T) {
	t.Run("invoice-standard.json", func(t *testing.T) {
		doc, fs := convertUBL(t, loadUBL(t, "invoice-standard.json"), ebinterface.V43)

		assert.Equal(t, ebinterface.V43, doc.Version)
		assert.Equal(t, ebinterface.DocumentTypeInvoice, doc.DocumentType)
		assert.Equal(t, "UBL-2024-001", doc.InvoiceNumber)
		assert.Equal(t, "2024-03-01", doc.InvoiceDate)
		assert.Equal(t, "EUR", doc.InvoiceCurrency.String())
		assert.Equal(t, "Consulting March", doc.Comment)
		assert.False(t, fs.HasErrors())
		assert.NoError(t, fs.Err())
	})

	t.Run("credit note", func(t *testing.T) {
		doc, _ := convertUBL(t, loadUBL(t, "credit-note-no-taxes.json"), ebinterface.V50)
		assert.Equal(t, ebinterface.DocumentTypeCreditMemo, doc.DocumentType)
	})

	t.Run("currency taken from amounts", func(t *testing.T) {
		in := loadUBL(t, "invoice-standard.json")
		in.DocumentCurrencyCode = ""
		doc, fs := convertUBL(t, in, ebinterface.V43)

		assert.Equal(t, "EUR", doc.InvoiceCurrency.String())
		assert.NotContains(t, findingPaths(fs, reconcile.SeverityWarning), "DocumentCurrencyCode")
	})

	t.Run("missing currency defaults to EUR", func(t *testing.T) {
		in := loadUBL(t, "credit-note-no-taxes.json")
		in.DocumentCurrencyCode = ""
		for i := range in.CreditNoteLines {
			l := &in.CreditNoteLines[i]
			l.LineExtensionAmount.CurrencyID = nil
			l.Price.PriceAmount.CurrencyID = nil
		}
		doc, fs := convertUBL(t, in, ebinterface.V43)

		assert.Equal(t, "EUR", doc.InvoiceCurrency.String())
		assert.Contains(t, findingPaths(fs, reconcile.SeverityWarning), "DocumentCurrencyCode")
	})

	t.Run("multiple notes", func(t *testing.T) {
		in := loadUBL(t, "invoice-standard.json")
		in.Note = []string{"first", "second"}
		doc, _ := convertUBL(t, in, ebinterface.V43)
		assert.Equal(t, "first\nsecond", doc.Comment)
	})
}

func TestRoundTrip(t *testing.T) {
	t.Run("invoice-4p3-standard.json", func(t *testing.T) {
		src := loadEbInterface(t, "invoice-4p3-standard.json")
		doc, _ := convertEbInterface(t, src)
		back, fs := convertUBL(t, doc, ebinterface.V43)

		assert.Equal(t, src.InvoiceNumber, back.InvoiceNumber)
		assert.Equal(t, src.Comment, back.Comment)
		assert.Equal(t, "1190", back.TotalGrossAmount.String())
		assert.Equal(t, "1190", back.PayableAmount.String())

		require.Len(t, back.Details.ItemList, 1)
		lines := back.Details.ItemList[0].ListLineItem
		require.Len(t, lines, 2)
		assert.Equal(t, "905", lines[0].LineItemAmount.String())
		assert.Equal(t, "100", lines[1].LineItemAmount.String())

		require.NotNil(t, back.Tax.VAT)
		items := back.Tax.VAT.VATItem
		require.Len(t, items, 2)
		assert.Equal(t, "900", items[0].TaxedAmount.String())
		assert.Equal(t, "180", items[0].Amount.String())
		assert.Equal(t, "100", items[1].TaxedAmount.String())
		assert.Equal(t, "10", items[1].Amount.String())

		entries := back.ReductionAndSurchargeDetails.Entries
		require.Len(t, entries, 1)
		assert.Equal(t, ebinterface.KindReduction, entries[0].Kind)
		assert.Equal(t, "5", entries[0].Amount.String())

		assert.Empty(t, fs.Filter(reconcile.SeverityWarning))
	})

	t.Run("invoice-6p0-tax-item.json", func(t *testing.T) {
		src := loadEbInterface(t, "invoice-6p0-tax-item.json")
		doc, _ := convertEbInterface(t, src)
		back, _ := convertUBL(t, doc, ebinterface.V60)

		require.Len(t, back.BelowTheLineItems, 1)
		assert.Equal(t, "Pfand", back.BelowTheLineItems[0].Description)
		assert.Equal(t, "10", back.BelowTheLineItems[0].LineItemAmount.String())
		assert.Nil(t, back.ReductionAndSurchargeDetails)
		assert.Equal(t, "290", back.TotalGrossAmount.String())
		assert.Equal(t, "300", back.PayableAmount.String())
		assert.Equal(t, "40", back.Tax.TaxAmountTotal.String())
	})
}

func TestParallelConversions(t *testing.T) {
	for i := 0; i < 8; i++ {
		t.Run(fmt.Sprintf("conversion %d", i), func(t *testing.T) {
			t.Parallel()
			doc, fs := convertUBL(t, loadUBL(t, "invoice-outside-scope.json"), ebinterface.V60)
			assert.Equal(t, "215", doc.PayableAmount.String())
			assert.False(t, fs.HasErrors())
		})
	}
}

package ubl

import (
	"encoding/xml"

	"github.com/invopop/gobl/currency"
	"github.com/worksome/ebinterface.ubl/ebinterface"
	"github.com/worksome/ebinterface.ubl/reconcile"
)

// Main UBL Invoice Namespace
const (
	NamespaceUBLInvoice    = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	NamespaceUBLCreditNote = "urn:oasis:names:specification:ubl:schema:xsd:CreditNote-2"
)

// Schema location constants
const (
	SchemaLocationInvoice    = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2 http://docs.oasis-open.org/ubl/os-UBL-2.1/xsd/maindoc/UBL-Invoice-2.1.xsd"
	SchemaLocationCreditNote = "urn:oasis:names:specification:ubl:schema:xsd:CreditNote-2 https://docs.oasis-open.org/ubl/os-UBL-2.1/xsd/maindoc/UBL-CreditNote-2.1.xsd"
)

// UNTDID 1001 document type codes.
const (
	TypeCodeInvoice    = "380"
	TypeCodeCreditNote = "381"
)

// Invoice represents the root element of a UBL Invoice **or** Credit Note; the structures
// between the two types are so similar, that it doesn't make much sense to separate.
//
// Parties, delivery and payment details are converted elsewhere and are not
// part of this tree.
type Invoice struct {
	// Attributes
	XMLName        xml.Name
	CACNamespace   string `xml:"xmlns:cac,attr"`
	CBCNamespace   string `xml:"xmlns:cbc,attr"`
	QDTNamespace   string `xml:"xmlns:qdt,attr"`
	UDTNamespace   string `xml:"xmlns:udt,attr"`
	CCTSNamespace  string `xml:"xmlns:ccts,attr"`
	UBLNamespace   string `xml:"xmlns,attr"`
	XSINamespace   string `xml:"xmlns:xsi,attr"`
	SchemaLocation string `xml:"xsi:schemaLocation,attr"`

	UBLVersionID    string `xml:"cbc:UBLVersionID,omitempty"`
	CustomizationID string `xml:"cbc:CustomizationID,omitempty"`
	ProfileID       string `xml:"cbc:ProfileID,omitempty"`
	ID              string `xml:"cbc:ID"`
	IssueDate       string `xml:"cbc:IssueDate"`
	DueDate         string `xml:"cbc:DueDate,omitempty"`

	InvoiceTypeCode    string `xml:"cbc:InvoiceTypeCode,omitempty"`
	CreditNoteTypeCode string `xml:"cbc:CreditNoteTypeCode,omitempty"`

	Note                 []string          `xml:"cbc:Note,omitempty"`
	DocumentCurrencyCode string            `xml:"cbc:DocumentCurrencyCode,omitempty"`
	AllowanceCharge      []AllowanceCharge `xml:"cac:AllowanceCharge,omitempty"`
	TaxTotal             []TaxTotal        `xml:"cac:TaxTotal,omitempty"`
	LegalMonetaryTotal   MonetaryTotal     `xml:"cac:LegalMonetaryTotal"`
	InvoiceLines         []InvoiceLine     `xml:"cac:InvoiceLine,omitempty"`
	CreditNoteLines      []InvoiceLine     `xml:"cac:CreditNoteLine,omitempty"`
}

// IsCreditNote reports whether the document is a credit note.
func (ui *Invoice) IsCreditNote() bool {
	return ui.CreditNoteTypeCode != "" || len(ui.CreditNoteLines) > 0
}

// Lines returns the invoice or credit note lines.
func (ui *Invoice) Lines() []InvoiceLine {
	if len(ui.CreditNoteLines) > 0 {
		return ui.CreditNoteLines
	}
	return ui.InvoiceLines
}

func (ui *Invoice) currency() *string {
	ccy := ui.DocumentCurrencyCode
	return &ccy
}

func ublInvoice(ctx *reconcile.Context, doc *ebinterface.Invoice, o *options) *Invoice {
	ccy := doc.InvoiceCurrency
	if ccy == "" {
		ctx.Warn("InvoiceCurrency", "missing invoice currency, using %s", currency.EUR)
		ccy = currency.EUR
	}

	// Create the UBL document
	out := &Invoice{
		XMLName:              xml.Name{Local: "Invoice"},
		CACNamespace:         NamespaceCAC,
		CBCNamespace:         NamespaceCBC,
		QDTNamespace:         NamespaceQDT,
		UDTNamespace:         NamespaceUDT,
		UBLNamespace:         NamespaceUBLInvoice,
		CCTSNamespace:        NamespaceCCTS,
		XSINamespace:         NamespaceXSI,
		SchemaLocation:       SchemaLocationInvoice,
		CustomizationID:      o.context.CustomizationID,
		ProfileID:            o.context.ProfileID,
		ID:                   doc.InvoiceNumber,
		IssueDate:            doc.InvoiceDate,
		InvoiceTypeCode:      TypeCodeInvoice,
		DocumentCurrencyCode: ccy.String(),
	}

	if doc.IsCreditMemo() {
		out.XMLName = xml.Name{Local: "CreditNote"}
		out.UBLNamespace = NamespaceUBLCreditNote
		out.SchemaLocation = SchemaLocationCreditNote
		out.InvoiceTypeCode = ""
		out.CreditNoteTypeCode = TypeCodeCreditNote
	}

	if doc.Comment != "" {
		out.Note = []string{doc.Comment}
	}

	// Document taxes are read first so that lines omitting their
	// percentage can be completed from them.
	taxes := readTaxes(ctx, doc)
	groups := newTaxGroups()
	lines := out.addLines(ctx, doc, groups)
	charges, btl := out.addCharges(ctx, doc, reconcile.Sum(lines), groups)
	if len(taxes) == 0 && len(groups.order) > 0 {
		ctx.Info("Tax", "document carries no taxes, subtotals computed from lines")
		taxes = groups.subtotals(ctx, "Tax")
	}
	out.addTotals(ctx, doc, ccy, totalsInput{
		lines:   lines,
		charges: charges,
		btl:     btl,
		taxes:   taxes,
	})

	return out
}

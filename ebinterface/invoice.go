package ebinterface

import (
	"github.com/invopop/gobl/currency"
	"github.com/shopspring/decimal"
)

// Document types.
const (
	DocumentTypeInvoice    = "Invoice"
	DocumentTypeCreditMemo = "CreditMemo"
)

// Invoice is the root of an ebInterface document.
type Invoice struct {
	Version         Version       `json:"version"`
	DocumentType    string        `json:"document_type,omitempty"`
	InvoiceNumber   string        `json:"invoice_number"`
	InvoiceDate     string        `json:"invoice_date,omitempty"`
	InvoiceCurrency currency.Code `json:"invoice_currency"`
	Comment         string        `json:"comment,omitempty"`

	Details                      Details                       `json:"details"`
	ReductionAndSurchargeDetails *ReductionAndSurchargeDetails `json:"reduction_and_surcharge_details,omitempty"`
	Tax                          Tax                           `json:"tax"`

	TotalGrossAmount *decimal.Decimal `json:"total_gross_amount,omitempty"`
	PrepaidAmount    *decimal.Decimal `json:"prepaid_amount,omitempty"`
	// BelowTheLineItems are available from 4.1.
	BelowTheLineItems []BelowTheLineItem `json:"below_the_line_items,omitempty"`
	PayableAmount     *decimal.Decimal   `json:"payable_amount,omitempty"`
}

// Details groups the invoice lines.
type Details struct {
	HeaderDescription string     `json:"header_description,omitempty"`
	ItemList          []ItemList `json:"item_list"`
}

// ItemList is an ordered group of lines.
type ItemList struct {
	HeaderDescription string         `json:"header_description,omitempty"`
	ListLineItem      []ListLineItem `json:"list_line_item"`
}

// ListLineItem is a single invoice line.
type ListLineItem struct {
	PositionNumber *int      `json:"position_number,omitempty"`
	Description    []string  `json:"description,omitempty"`
	ArticleNumber  string    `json:"article_number,omitempty"`
	Quantity       Quantity  `json:"quantity"`
	UnitPrice      UnitPrice `json:"unit_price"`

	ReductionAndSurchargeListLineItemDetails *ReductionAndSurchargeListLineItemDetails `json:"reduction_and_surcharge_list_line_item_details,omitempty"`

	LineTax

	LineItemAmount *decimal.Decimal `json:"line_item_amount,omitempty"`
}

// LineTax is the tax information attached to a line or a reduction and
// surcharge entry. Before 6.0 either VATRate or TaxExemption is set; from
// 6.0 TaxItem is used instead.
type LineTax struct {
	VATRate      *VATRate      `json:"vat_rate,omitempty"`
	TaxExemption *TaxExemption `json:"tax_exemption,omitempty"`
	TaxItem      *TaxItem      `json:"tax_item,omitempty"`
}

// Quantity of a line with its unit.
type Quantity struct {
	Unit  string          `json:"unit,omitempty"`
	Value decimal.Decimal `json:"value"`
}

// UnitPrice of a line. BaseQuantity is the number of units the price
// refers to, 1 when absent.
type UnitPrice struct {
	Value        decimal.Decimal  `json:"value"`
	BaseQuantity *decimal.Decimal `json:"base_quantity,omitempty"`
}

// VATRate is the VAT percentage. TaxCategoryCode is available from 4.3.
type VATRate struct {
	Value           decimal.Decimal `json:"value"`
	TaxCategoryCode string          `json:"tax_category_code,omitempty"`
}

// TaxExemption marks an entry as exempt. TaxExemptionCode is available
// from 5.0.
type TaxExemption struct {
	Reason           string `json:"reason,omitempty"`
	TaxExemptionCode string `json:"tax_exemption_code,omitempty"`
}

// TaxPercent is the 6.0 rate with its category code.
type TaxPercent struct {
	Value           *decimal.Decimal `json:"value,omitempty"`
	TaxCategoryCode string           `json:"tax_category_code,omitempty"`
}

// TaxItem is the 6.0 representation of a tax fact. On lines the amounts
// are optional.
type TaxItem struct {
	TaxableAmount *decimal.Decimal `json:"taxable_amount,omitempty"`
	TaxPercent    TaxPercent       `json:"tax_percent"`
	TaxAmount     *decimal.Decimal `json:"tax_amount,omitempty"`
	Comment       string           `json:"comment,omitempty"`
}

// ChargeKind is the element a reduction and surcharge entry was read from.
type ChargeKind string

// Supported entry kinds.
const (
	KindReduction ChargeKind = "reduction"
	KindSurcharge ChargeKind = "surcharge"
	// KindOtherVATableTax is available from 5.0.
	KindOtherVATableTax ChargeKind = "other-vatable-tax"
)

// ReductionAndSurchargeValue is a single reduction, surcharge or other
// VATable tax.
type ReductionAndSurchargeValue struct {
	Kind       ChargeKind       `json:"kind"`
	BaseAmount *decimal.Decimal `json:"base_amount,omitempty"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Comment    *string          `json:"comment,omitempty"`
	ReasonCode string           `json:"reason_code,omitempty"`
	// LineTax is only used on document level entries.
	LineTax
}

// ReductionAndSurchargeListLineItemDetails keeps line entries in document
// order; the order changes the computed amounts.
type ReductionAndSurchargeListLineItemDetails struct {
	Entries []ReductionAndSurchargeValue `json:"entries"`
}

// ReductionAndSurchargeDetails keeps document level entries in order.
type ReductionAndSurchargeDetails struct {
	Entries []ReductionAndSurchargeValue `json:"entries"`
}

// Tax holds the document level taxes. VAT is used before 6.0, TaxItem
// from 6.0.
type Tax struct {
	VAT      *VAT       `json:"vat,omitempty"`
	TaxItem  []TaxItem  `json:"tax_item,omitempty"`
	OtherTax []OtherTax `json:"other_tax,omitempty"`
	// TaxAmountTotal is available from 6.0.
	TaxAmountTotal *decimal.Decimal `json:"tax_amount_total,omitempty"`
}

// VAT is the list of VAT items used before 6.0.
type VAT struct {
	VATItem []VATItem `json:"vat_item"`
}

// VATItem is a document level VAT subtotal before 6.0.
type VATItem struct {
	TaxedAmount  *decimal.Decimal `json:"taxed_amount,omitempty"`
	VATRate      *VATRate         `json:"vat_rate,omitempty"`
	TaxExemption *TaxExemption    `json:"tax_exemption,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
}

// OtherTax is a non VAT tax on document level.
type OtherTax struct {
	Comment string          `json:"comment,omitempty"`
	Amount  decimal.Decimal `json:"amount"`
}

// BelowTheLineItem is an amount that is not subject to VAT, such as a
// deposit.
type BelowTheLineItem struct {
	Description    string          `json:"description"`
	LineItemAmount decimal.Decimal `json:"line_item_amount"`
}

// IsCreditMemo reports whether the document is a credit memo.
func (inv *Invoice) IsCreditMemo() bool {
	return inv.DocumentType == DocumentTypeCreditMemo
}

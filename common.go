package ubl

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/worksome/ebinterface.ubl/reconcile"
)

// UBL schema constants
const (
	NamespaceCBC  = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	NamespaceCAC  = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	NamespaceQDT  = "urn:oasis:names:specification:ubl:schema:xsd:QualifiedDataTypes-2"
	NamespaceUDT  = "urn:oasis:names:specification:ubl:schema:xsd:UnqualifiedDataTypes-2"
	NamespaceCCTS = "urn:un:unece:uncefact:documentation:2"
	NamespaceXSI  = "http://www.w3.org/2001/XMLSchema-instance"
)

// Code lists used on tax category identifiers.
const (
	TaxCategorySchemeUNCL5305 = "UNCL5305"
	TaxSchemeAgencyUN         = "6"
)

// IDType represents an ID with optional scheme attributes
type IDType struct {
	SchemeAgencyID *string `xml:"schemeAgencyID,attr"`
	ListAgencyID   *string `xml:"listAgencyID,attr"`
	ListID         *string `xml:"listID,attr"`
	SchemeID       *string `xml:"schemeID,attr"`
	Name           *string `xml:"name,attr"`
	Value          string  `xml:",chardata"`
}

// Amount represents a monetary amount
type Amount struct {
	CurrencyID *string `xml:"currencyID,attr"`
	Value      string  `xml:",chardata"`
}

// Quantity represents a quantity with a unit code
type Quantity struct {
	UnitCode string `xml:"unitCode,attr"`
	Value    string `xml:",chardata"`
}

// Item represents an item in an invoice line
type Item struct {
	Description               *string                `xml:"cbc:Description"`
	Name                      string                 `xml:"cbc:Name"`
	SellersItemIdentification *ItemIdentification    `xml:"cac:SellersItemIdentification"`
	ClassifiedTaxCategory     *ClassifiedTaxCategory `xml:"cac:ClassifiedTaxCategory"`
}

// ItemIdentification represents an item identification
type ItemIdentification struct {
	ID *IDType `xml:"cbc:ID"`
}

// ClassifiedTaxCategory represents a classified tax category
type ClassifiedTaxCategory struct {
	ID                     *IDType    `xml:"cbc:ID,omitempty"`
	Percent                *string    `xml:"cbc:Percent,omitempty"`
	TaxExemptionReasonCode *string    `xml:"cbc:TaxExemptionReasonCode,omitempty"`
	TaxExemptionReason     *string    `xml:"cbc:TaxExemptionReason,omitempty"`
	TaxScheme              *TaxScheme `xml:"cac:TaxScheme,omitempty"`
}

// TaxScheme identifies the tax scheme of a category
type TaxScheme struct {
	ID IDType `xml:"cbc:ID"`
}

// Price represents the price of an item
type Price struct {
	PriceAmount  Amount    `xml:"cbc:PriceAmount"`
	BaseQuantity *Quantity `xml:"cbc:BaseQuantity,omitempty"`
}

// taxCategory is the common view over ClassifiedTaxCategory and TaxCategory
// used to build resolver entries.
type taxCategory struct {
	id            *IDType
	percent       *string
	exemptionCode *string
	exemption     *string
	scheme        *TaxScheme
}

func (tc taxCategory) key() reconcile.TaxCategoryKey {
	var schemeID, agency, id, listID string
	if tc.scheme != nil {
		schemeID = tc.scheme.ID.Value
	}
	if tc.id != nil {
		id = reconcile.NormalizeCategoryCode(tc.id.Value)
		if tc.id.SchemeAgencyID != nil {
			agency = *tc.id.SchemeAgencyID
		}
		if tc.id.SchemeID != nil {
			listID = *tc.id.SchemeID
		}
	}
	return reconcile.NewTaxCategoryKey(schemeID, agency, id, listID)
}

// entry reads the category into a resolver entry. An explicit exemption
// reason, an exemption code or an exempt category code all mark the
// entry as exempt.
func (tc taxCategory) entry(ctx *reconcile.Context, path string) reconcile.TaxEntry {
	e := reconcile.TaxEntry{Key: tc.key()}
	e.Percentage = parseDecimal(ctx, path+"/Percent", tc.percent)

	if !e.Key.IsVAT() {
		if tc.exemption != nil {
			e.Remark = *tc.exemption
		}
		return e
	}
	switch {
	case tc.exemption != nil:
		e.Exemption = tc.exemption
	case tc.exemptionCode != nil, isExemptCode(e.Key.TaxCategoryID):
		blank := ""
		e.Exemption = &blank
	}
	return e
}

func isExemptCode(code string) bool {
	switch code {
	case reconcile.CategoryExempt, reconcile.CategoryReverse, "K", "G":
		return true
	}
	return false
}

// newClassifiedTaxCategory emits the category of a classification. code
// overrides the derived category code when the source carried one.
func newClassifiedTaxCategory(cl reconcile.Classification, code string, cfg reconcile.Config) *ClassifiedTaxCategory {
	tc := newTaxCategory(cl, code, "", cfg)
	return &ClassifiedTaxCategory{
		ID:                     tc.ID,
		Percent:                tc.Percent,
		TaxExemptionReasonCode: tc.TaxExemptionReasonCode,
		TaxExemptionReason:     tc.TaxExemptionReason,
		TaxScheme:              tc.TaxScheme,
	}
}

func newTaxCategory(cl reconcile.Classification, code, exemptionCode string, cfg reconcile.Config) TaxCategory {
	if code == "" {
		code = reconcile.CategoryCode(cl)
	}
	listID := TaxCategorySchemeUNCL5305
	tc := TaxCategory{
		ID:        &IDType{Value: code, SchemeID: &listID},
		TaxScheme: &TaxScheme{ID: IDType{Value: reconcile.TaxSchemeVAT}},
	}
	switch v := cl.(type) {
	case reconcile.StandardVAT:
		p := formatPercent(cfg, v.Percentage)
		tc.Percent = &p
	case reconcile.Exempt:
		// Default to 0% when not outside scope
		p := "0"
		tc.Percent = &p
		reason := v.Reason
		tc.TaxExemptionReason = &reason
		if exemptionCode != "" {
			tc.TaxExemptionReasonCode = &exemptionCode
		}
	case reconcile.Other:
		if v.Comment != "" {
			reason := v.Comment
			tc.TaxExemptionReason = &reason
		}
	}
	return tc
}

// formatPercent renders a percentage without trailing zeros.
func formatPercent(cfg reconcile.Config, pct decimal.Decimal) string {
	return cfg.Percent(pct).String()
}

func amount(cfg reconcile.Config, d decimal.Decimal, ccy *string) Amount {
	return Amount{Value: cfg.Format(d), CurrencyID: ccy}
}

func amountRef(cfg reconcile.Config, d decimal.Decimal, ccy *string) *Amount {
	a := amount(cfg, d, ccy)
	return &a
}

// parseDecimal reads an optional numeric string. Unparseable values are
// recorded as errors and treated as missing.
func parseDecimal(ctx *reconcile.Context, path string, s *string) *decimal.Decimal {
	if s == nil {
		return nil
	}
	v := normalizeNumericString(*s)
	if v == "" {
		return nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		ctx.Error(path, "invalid number %q", *s)
		return nil
	}
	return &d
}

func parseAmount(ctx *reconcile.Context, path string, a *Amount) *decimal.Decimal {
	if a == nil {
		return nil
	}
	return parseDecimal(ctx, path, &a.Value)
}

// normalizeNumericString cleans up numeric strings to ensure they can be parsed correctly.
// It handles:
// - Leading/trailing whitespace (e.g., " 123.45 " -> "123.45")
// - Numbers starting with decimal point (e.g., ".07" -> "0.07")
// - Trailing percent signs (e.g., "20%" -> "20")
func normalizeNumericString(s string) string {
	// Trim whitespace
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))

	// Add leading zero if string starts with decimal point
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	} else if strings.HasPrefix(s, "-.") {
		s = "-0" + s[1:]
	}

	return s
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

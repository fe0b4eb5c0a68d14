package reconcile

import (
	"strings"

	"github.com/invopop/gobl/cbc"
	"github.com/shopspring/decimal"
)

// TaxSchemeVAT is the only tax scheme identifier treated as value added tax.
const TaxSchemeVAT = "VAT"

// DefaultExemptionReason is used when an exemption marker carries no text.
const DefaultExemptionReason = "Tax Exemption"

// DefaultOutsideScopeComment is used for VAT categories outside the scope
// of VAT that carry no text.
const DefaultOutsideScopeComment = "Not subject to VAT"

// UNCL5305 tax category codes emitted for each classification.
const (
	CategoryStandard     = "S"
	CategoryZero         = "Z"
	CategoryExempt       = "E"
	CategoryReverse      = "AE"
	CategoryOutsideScope = "O"
)

// Classification keys.
const (
	KeyStandardVAT cbc.Key = "standard-vat"
	KeyExempt      cbc.Key = "exempt"
	KeyOther       cbc.Key = "other"
)

// TaxCategoryKey identifies a tax category across document-level tax
// totals and line items. Build keys with NewTaxCategoryKey so that all
// components are trimmed.
type TaxCategoryKey struct {
	TaxSchemeID         string
	TaxSchemeAgencyID   string
	TaxCategoryID       string
	TaxCategorySchemeID string
}

// NewTaxCategoryKey builds a key from its raw, possibly padded, components.
func NewTaxCategoryKey(schemeID, schemeAgencyID, categoryID, categorySchemeID string) TaxCategoryKey {
	return TaxCategoryKey{
		TaxSchemeID:         strings.TrimSpace(schemeID),
		TaxSchemeAgencyID:   strings.TrimSpace(schemeAgencyID),
		TaxCategoryID:       strings.TrimSpace(categoryID),
		TaxCategorySchemeID: strings.TrimSpace(categorySchemeID),
	}
}

// IsVAT reports whether the key belongs to the VAT scheme. Categories
// outside the scope of VAT are not.
func (k TaxCategoryKey) IsVAT() bool {
	return k.TaxSchemeID == TaxSchemeVAT && k.TaxCategoryID != CategoryOutsideScope
}

func (k TaxCategoryKey) String() string {
	return k.TaxSchemeID + "/" + k.TaxSchemeAgencyID + ":" + k.TaxCategoryID + "/" + k.TaxCategorySchemeID
}

// Classification is one of StandardVAT, Exempt or Other.
type Classification interface {
	Kind() cbc.Key
	classification()
}

// StandardVAT is a regular VAT entry with its rate.
type StandardVAT struct {
	Percentage decimal.Decimal
}

// Exempt is a tax exempt entry at 0% with a mandatory reason.
type Exempt struct {
	Reason string
}

// Other is a non VAT tax; the comment stands in for a tax scheme reason.
type Other struct {
	Comment string
}

// Kind returns KeyStandardVAT.
func (StandardVAT) Kind() cbc.Key { return KeyStandardVAT }

// Kind returns KeyExempt.
func (Exempt) Kind() cbc.Key { return KeyExempt }

// Kind returns KeyOther.
func (Other) Kind() cbc.Key { return KeyOther }

func (StandardVAT) classification() {}
func (Exempt) classification()      {}
func (Other) classification()       {}

// Percentage returns the rate implied by a classification. Exempt and
// other entries are always 0%.
func Percentage(c Classification) decimal.Decimal {
	if v, ok := c.(StandardVAT); ok {
		return v.Percentage
	}
	return decimal.Zero
}

// CategoryCode returns the UNCL5305 code to emit for a classification.
func CategoryCode(c Classification) string {
	switch v := c.(type) {
	case StandardVAT:
		if v.Percentage.IsZero() {
			return CategoryZero
		}
		return CategoryStandard
	case Exempt:
		return CategoryExempt
	case Other:
		return CategoryOutsideScope
	}
	return CategoryOutsideScope
}

// NormalizeCategoryCode folds the verbose category names used by some
// legacy profiles into their UNCL5305 codes.
func NormalizeCategoryCode(in string) string {
	in = strings.TrimSpace(in)
	switch in {
	case "StandardRated", "Standard", "standard":
		return CategoryStandard
	case "ZeroRated", "Zero", "zero":
		return CategoryZero
	case "ReverseCharge":
		return CategoryReverse
	case "Exempt", "exempt":
		return CategoryExempt
	}
	return in
}

// TaxEntry is the raw tax information found on a line, a tax total or an
// allowance/charge.
type TaxEntry struct {
	Key        TaxCategoryKey
	Percentage *decimal.Decimal
	// Exemption is set when the source carries an exemption marker; the
	// text may be empty.
	Exemption *string
	Remark    string
}

// Origin explains where a resolved classification came from.
type Origin int

// Possible origins.
const (
	// OriginEntry means the entry itself carried the data.
	OriginEntry Origin = iota
	// OriginCache means the percentage was taken from the document tax totals.
	OriginCache
	// OriginDefault means a VAT entry had no percentage anywhere and 0% was used.
	OriginDefault
	// OriginFallback means the entry could not be classified as VAT.
	OriginFallback
)

// Resolver classifies tax entries and remembers the percentages seen in
// document-level tax totals so that lines omitting them can be completed.
type Resolver struct {
	percentages map[TaxCategoryKey]decimal.Decimal
}

// NewResolver returns a resolver with an empty cache.
func NewResolver() *Resolver {
	return &Resolver{percentages: make(map[TaxCategoryKey]decimal.Decimal)}
}

// Register stores the percentage for a key. The first registration wins;
// it returns false when the key was already known.
func (r *Resolver) Register(key TaxCategoryKey, pct decimal.Decimal) bool {
	if _, ok := r.percentages[key]; ok {
		return false
	}
	r.percentages[key] = pct
	return true
}

// Lookup returns the cached percentage for a key.
func (r *Resolver) Lookup(key TaxCategoryKey) (decimal.Decimal, bool) {
	pct, ok := r.percentages[key]
	return pct, ok
}

// Resolve classifies the entry.
func (r *Resolver) Resolve(e TaxEntry) (Classification, Origin) {
	if e.Exemption != nil {
		reason := strings.TrimSpace(*e.Exemption)
		if reason == "" {
			reason = DefaultExemptionReason
		}
		return Exempt{Reason: reason}, OriginEntry
	}

	if e.Key.IsVAT() {
		if e.Percentage != nil {
			r.Register(e.Key, *e.Percentage)
			return StandardVAT{Percentage: *e.Percentage}, OriginEntry
		}
		if pct, ok := r.Lookup(e.Key); ok {
			return StandardVAT{Percentage: pct}, OriginCache
		}
		return StandardVAT{Percentage: decimal.Zero}, OriginDefault
	}

	comment := strings.TrimSpace(e.Remark)
	switch {
	case comment != "":
	case e.Key.TaxSchemeID == TaxSchemeVAT:
		comment = DefaultOutsideScopeComment
	default:
		comment = e.Key.TaxSchemeID
	}
	return Other{Comment: comment}, OriginFallback
}

// Classify resolves a tax entry with the document resolver and records
// findings for defaulted and unclassified entries.
func (c *Context) Classify(path string, e TaxEntry) Classification {
	cl, origin := c.resolver.Resolve(e)
	switch origin {
	case OriginDefault:
		c.Warn(path, "no VAT percentage found for tax category %s, using 0", e.Key)
	case OriginFallback:
		c.Info(path, "tax category %s is not VAT, treated as other tax", e.Key)
	}
	return cl
}

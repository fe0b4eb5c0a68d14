// Package ebinterface holds an in-memory model of ebInterface invoices.
//
// A single tree covers ebInterface 4.0 to 6.0. Fields that only exist in
// some versions are documented as such, and Version reports which of them
// a given document is expected to populate.
package ebinterface

import (
	"fmt"
	"strings"
)

// ErrUnknownVersion is returned when a version string is not recognized.
var ErrUnknownVersion = fmt.Errorf("unknown ebInterface version")

// Version identifies an ebInterface schema version.
type Version string

// Supported versions, oldest first.
const (
	V40 Version = "4.0"
	V41 Version = "4.1"
	V42 Version = "4.2"
	V43 Version = "4.3"
	V50 Version = "5.0"
	V60 Version = "6.0"
)

// Versions lists every supported version, oldest first.
var Versions = []Version{V40, V41, V42, V43, V50, V60}

const namespacePrefix = "http://www.ebinterface.at/schema/"

// ParseVersion accepts "6.0", "6p0" or a full namespace URI.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, namespacePrefix)
	s = strings.TrimSuffix(s, "/")
	s = strings.Replace(s, "p", ".", 1)
	v := Version(s)
	if !v.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownVersion, s)
	}
	return v, nil
}

// Valid reports whether v is one of the supported versions.
func (v Version) Valid() bool {
	return v.index() >= 0
}

func (v Version) index() int {
	for i, k := range Versions {
		if k == v {
			return i
		}
	}
	return -1
}

// AtLeast reports whether v is the same as or newer than o.
func (v Version) AtLeast(o Version) bool {
	return v.Valid() && v.index() >= o.index()
}

// Namespace returns the XML namespace of the version.
func (v Version) Namespace() string {
	return namespacePrefix + strings.Replace(string(v), ".", "p", 1) + "/"
}

func (v Version) String() string {
	return string(v)
}

// UsesTaxItem reports whether taxes are expressed as TaxItem elements
// instead of VATRate and TaxExemption.
func (v Version) UsesTaxItem() bool {
	return v.AtLeast(V60)
}

// SupportsOtherVATableTax reports whether reduction and surcharge lists
// may contain other VATable taxes.
func (v Version) SupportsOtherVATableTax() bool {
	return v.AtLeast(V50)
}

// SupportsBelowTheLine reports whether below-the-line items are available.
func (v Version) SupportsBelowTheLine() bool {
	return v.AtLeast(V41)
}

// SupportsTaxCategoryCode reports whether VAT rates carry a tax category code.
func (v Version) SupportsTaxCategoryCode() bool {
	return v.AtLeast(V43)
}

// SupportsExemptionCode reports whether tax exemptions carry a reason code.
func (v Version) SupportsExemptionCode() bool {
	return v.AtLeast(V50)
}

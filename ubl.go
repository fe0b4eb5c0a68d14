// Package ubl converts ebInterface invoices into UBL documents and vice versa.
//
// Conversions reconcile the tax and monetary facts of both formats: missing
// percentages, taxable bases and tax amounts are derived, reductions and
// surcharges are normalized and document totals are cross-checked. Problems
// that do not prevent a conversion are reported as findings to the sink set
// with WithSink; only structural problems are returned as errors.
package ubl

import (
	"fmt"
	"strings"

	"github.com/worksome/ebinterface.ubl/ebinterface"
	"github.com/worksome/ebinterface.ubl/reconcile"
)

var (
	// ErrNilDocument is returned when there is no document to convert.
	ErrNilDocument = fmt.Errorf("nil document")

	// ErrMissingInvoiceNumber is returned when the source document has
	// no invoice number.
	ErrMissingInvoiceNumber = fmt.Errorf("missing invoice number")

	// ErrUnsupportedVersion is returned for unknown ebInterface versions.
	ErrUnsupportedVersion = fmt.Errorf("unsupported ebInterface version")

	// ErrCurrencyMismatch is returned when the amounts of a document are
	// expressed in more than one currency.
	ErrCurrencyMismatch = fmt.Errorf("currency mismatch")
)

// Version is the version of UBL documents that will be generated
// by this package.
const Version = "2.1"

// Convert takes an ebInterface invoice and converts it into a UBL Invoice
// or CreditNote document.
//
// Add a WithContext option to specify the desired UBL CustomizationID and
// ProfileID. If none is provided, EN16931 will be used by default.
func Convert(doc *ebinterface.Invoice, opts ...Option) (*Invoice, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	if !doc.Version.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, doc.Version)
	}
	if strings.TrimSpace(doc.InvoiceNumber) == "" {
		return nil, ErrMissingInvoiceNumber
	}

	o := newOptions(opts)
	ctx := reconcile.NewContext(o.reconcile...)
	ctx.Logger().Debug().
		Str("version", doc.Version.String()).
		Str("invoice", doc.InvoiceNumber).
		Msg("converting ebInterface invoice to UBL")

	return ublInvoice(ctx, doc, o), nil
}

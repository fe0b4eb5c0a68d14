package reconcile

import (
	"fmt"

	"github.com/invopop/gobl/cbc"
	"github.com/shopspring/decimal"
)

// Kind of a reduction/surcharge entry.
type Kind int

// Supported kinds.
const (
	KindReduction Kind = iota
	KindSurcharge
	// KindOtherVATableTax is an additional taxable amount; it moves the base
	// in the same direction as a surcharge.
	KindOtherVATableTax
)

// Key returns the cbc key of the kind.
func (k Kind) Key() cbc.Key {
	switch k {
	case KindReduction:
		return "reduction"
	case KindSurcharge:
		return "surcharge"
	case KindOtherVATableTax:
		return "other-vatable-tax"
	}
	return cbc.Key("")
}

func (k Kind) String() string {
	return k.Key().String()
}

// IsSurcharge reports whether the kind increases the base amount.
func (k Kind) IsSurcharge() bool {
	switch k {
	case KindSurcharge, KindOtherVATableTax:
		return true
	case KindReduction:
		return false
	}
	return false
}

// RawAllowanceCharge is a reduction or surcharge as read from the source,
// before normalization.
type RawAllowanceCharge struct {
	Kind       Kind
	BaseAmount *decimal.Decimal
	Percentage *decimal.Decimal
	Amount     *decimal.Decimal
	Tax        Classification
	Comment    *string
	ReasonCode string
}

// Entry is a normalized reduction or surcharge. Amount is always set.
type Entry struct {
	// Kind as found in the source.
	Kind Kind
	// Surcharge is the direction of the list the entry belongs to.
	Surcharge  bool
	BaseAmount decimal.Decimal
	Percentage *decimal.Decimal
	Amount     decimal.Decimal
	Tax        Classification
	Comment    *string
	ReasonCode string
	// Negated is set when the entry's direction differed from the list's
	// and its amount and percentage were sign-inverted.
	Negated bool
	// Incomplete is set when neither amount nor percentage was available.
	Incomplete bool
}

// Effect returns the signed change the entry applies to its base amount.
func (e Entry) Effect() decimal.Decimal {
	if e.Surcharge {
		return e.Amount
	}
	return e.Amount.Neg()
}

// Accumulation is the output of Accumulate.
type Accumulation struct {
	Entries []Entry
	// Surcharge is the direction fixed by the first entry.
	Surcharge bool
	Start     decimal.Decimal
	FinalBase decimal.Decimal
}

// Effect returns the net change from the starting base.
func (a Accumulation) Effect() decimal.Decimal {
	return a.FinalBase.Sub(a.Start)
}

// Accumulate applies an ordered sequence of reductions and surcharges to a
// running base amount. The first entry fixes the direction of the list;
// later entries of the opposite direction have their amount and percentage
// negated so the list stays homogeneous while the running base moves as if
// the original entries had been applied. Order matters: percentage entries
// are computed from the base left by the previous entries.
func Accumulate(cfg Config, start decimal.Decimal, raws []RawAllowanceCharge) Accumulation {
	acc := Accumulation{
		Start:     cfg.Output(start),
		FinalBase: cfg.Output(start),
	}
	if len(raws) == 0 {
		return acc
	}
	acc.Surcharge = raws[0].Kind.IsSurcharge()
	acc.Entries = make([]Entry, 0, len(raws))

	running := acc.FinalBase
	for _, raw := range raws {
		e := Entry{
			Kind:       raw.Kind,
			Surcharge:  acc.Surcharge,
			BaseAmount: running,
			Tax:        raw.Tax,
			Comment:    raw.Comment,
			ReasonCode: raw.ReasonCode,
		}
		if raw.BaseAmount != nil {
			e.BaseAmount = cfg.Output(*raw.BaseAmount)
		}

		switch {
		case raw.Amount != nil:
			e.Amount = cfg.Output(*raw.Amount)
		case raw.Percentage != nil:
			e.Amount = cfg.Output(cfg.percentOf(e.BaseAmount, *raw.Percentage))
		default:
			e.Amount = decimal.Zero
			e.Incomplete = true
		}
		if raw.Percentage != nil {
			e.Percentage = DecimalPtr(*raw.Percentage)
		}

		if raw.Kind.IsSurcharge() {
			running = running.Add(e.Amount)
		} else {
			running = running.Sub(e.Amount)
		}

		if raw.Kind.IsSurcharge() != acc.Surcharge {
			e.Negated = true
			e.Amount = e.Amount.Neg()
			if e.Percentage != nil {
				e.Percentage = DecimalPtr(e.Percentage.Neg())
			}
		}
		acc.Entries = append(acc.Entries, e)
	}
	acc.FinalBase = running
	return acc
}

// Accumulate runs Accumulate with the context configuration and records
// findings for incomplete and negated entries. Entry paths are built as
// path[i].
func (c *Context) Accumulate(path string, start decimal.Decimal, raws []RawAllowanceCharge) Accumulation {
	acc := Accumulate(c.cfg, start, raws)
	for i, e := range acc.Entries {
		p := fmt.Sprintf("%s[%d]", path, i)
		if e.Incomplete {
			c.Warn(p, "%s has neither amount nor percentage, using 0", e.Kind)
		}
		if e.Negated {
			c.Info(p, "%s stored with inverted sign in a %s list", e.Kind, listName(acc.Surcharge))
		}
	}
	return acc
}

func listName(surcharge bool) string {
	if surcharge {
		return "surcharge"
	}
	return "reduction"
}

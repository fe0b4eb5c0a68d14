package reconcile_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worksome/ebinterface.ubl/reconcile"
)

func dp(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "expected %s, got %s", want, got)
}

func TestReconcile(t *testing.T) {
	cfg := reconcile.DefaultConfig()

	t.Run("derives tax amount", func(t *testing.T) {
		r := reconcile.Reconcile(cfg, reconcile.MonetaryFact{
			Percentage:  dp("20"),
			TaxableBase: dp("1000.00"),
		})
		assert.Equal(t, reconcile.OutcomeComplete, r.Outcome)
		assert.Equal(t, "200.00", cfg.Format(r.TaxAmount))
		assert.Equal(t, "200.00", r.Output(cfg).TaxAmount.StringFixed(2))
	})

	t.Run("derives tax amount at intermediate scale", func(t *testing.T) {
		r := reconcile.Reconcile(cfg, reconcile.MonetaryFact{
			Percentage:  dp("7.7"),
			TaxableBase: dp("12.34"),
		})
		assertDecimal(t, "0.9502", r.TaxAmount)
		assertDecimal(t, "0.95", r.Output(cfg).TaxAmount)
	})

	t.Run("zero percentage yields zero tax", func(t *testing.T) {
		r := reconcile.Reconcile(cfg, reconcile.MonetaryFact{
			Percentage:  dp("0"),
			TaxableBase: dp("150.00"),
		})
		assert.Equal(t, reconcile.OutcomeComplete, r.Outcome)
		assert.True(t, r.TaxAmount.IsZero())
	})

	t.Run("derives percentage", func(t *testing.T) {
		r := reconcile.Reconcile(cfg, reconcile.MonetaryFact{
			TaxableBase: dp("300.00"),
			TaxAmount:   dp("30.00"),
		})
		assert.Equal(t, reconcile.OutcomeComplete, r.Outcome)
		assertDecimal(t, "10", r.Percentage)
	})

	t.Run("derives percentage rounded to two decimals", func(t *testing.T) {
		r := reconcile.Reconcile(cfg, reconcile.MonetaryFact{
			TaxableBase: dp("3.00"),
			TaxAmount:   dp("1.00"),
		})
		assertDecimal(t, "33.33", r.Percentage)
	})

	t.Run("zero base guards percentage", func(t *testing.T) {
		r := reconcile.Reconcile(cfg, reconcile.MonetaryFact{
			TaxableBase: dp("0"),
			TaxAmount:   dp("33.33"),
		})
		assert.Equal(t, reconcile.OutcomeZeroBase, r.Outcome)
		assert.Equal(t, "0.00", r.Percentage.StringFixed(2))
	})

	t.Run("zero base and zero tax is complete", func(t *testing.T) {
		r := reconcile.Reconcile(cfg, reconcile.MonetaryFact{
			TaxableBase: dp("0"),
			TaxAmount:   dp("0"),
		})
		assert.Equal(t, reconcile.OutcomeComplete, r.Outcome)
		assert.True(t, r.Percentage.IsZero())
	})

	t.Run("derives taxable base", func(t *testing.T) {
		r := reconcile.Reconcile(cfg, reconcile.MonetaryFact{
			Percentage: dp("20"),
			TaxAmount:  dp("200.00"),
		})
		assert.Equal(t, reconcile.OutcomeComplete, r.Outcome)
		assert.True(t, r.BaseResolved())
		assertDecimal(t, "1000", r.TaxableBase)
	})

	t.Run("zero percentage leaves base unset", func(t *testing.T) {
		assert.NotPanics(t, func() {
			r := reconcile.Reconcile(cfg, reconcile.MonetaryFact{
				Percentage: dp("0"),
				TaxAmount:  dp("100"),
			})
			assert.Equal(t, reconcile.OutcomeBaseUnresolved, r.Outcome)
			assert.False(t, r.BaseResolved())
		})
	})

	t.Run("insufficient data defaults to zero", func(t *testing.T) {
		r := reconcile.Reconcile(cfg, reconcile.MonetaryFact{
			TaxableBase: dp("100.00"),
		})
		assert.Equal(t, reconcile.OutcomeInsufficient, r.Outcome)
		assert.True(t, r.Percentage.IsZero())
		assert.True(t, r.TaxAmount.IsZero())
		assertDecimal(t, "100", r.TaxableBase)

		r = reconcile.Reconcile(cfg, reconcile.MonetaryFact{})
		assert.Equal(t, reconcile.OutcomeInsufficient, r.Outcome)
	})

	t.Run("complete and consistent", func(t *testing.T) {
		r := reconcile.Reconcile(cfg, reconcile.MonetaryFact{
			Percentage:  dp("20"),
			TaxableBase: dp("99.99"),
			TaxAmount:   dp("20.00"),
		})
		assert.Equal(t, reconcile.OutcomeComplete, r.Outcome)
		assertDecimal(t, "20.00", r.TaxAmount)
	})

	t.Run("complete but inconsistent", func(t *testing.T) {
		r := reconcile.Reconcile(cfg, reconcile.MonetaryFact{
			Percentage:  dp("20"),
			TaxableBase: dp("100.00"),
			TaxAmount:   dp("25.00"),
		})
		assert.Equal(t, reconcile.OutcomeInconsistent, r.Outcome)
		assertDecimal(t, "25", r.TaxAmount)
	})
}

func TestReconcileRoundTrip(t *testing.T) {
	cfg := reconcile.DefaultConfig()
	bases := []string{"1", "12.34", "100", "999.99", "1234.56", "50000"}
	pcts := []string{"0", "5", "7.7", "10", "13", "19", "20", "33.33"}

	for _, b := range bases {
		for _, p := range pcts {
			first := reconcile.Reconcile(cfg, reconcile.MonetaryFact{
				Percentage:  dp(p),
				TaxableBase: dp(b),
			})
			tax := first.TaxAmount
			second := reconcile.Reconcile(cfg, reconcile.MonetaryFact{
				TaxableBase: dp(b),
				TaxAmount:   &tax,
			})
			diff := second.Percentage.Sub(decimal.RequireFromString(p)).Abs()
			assert.True(t, diff.LessThanOrEqual(decimal.RequireFromString("0.01")),
				"base %s pct %s: got back %s", b, p, second.Percentage)
		}
	}
}

func TestContextReconcileFact(t *testing.T) {
	t.Run("zero percentage records finding", func(t *testing.T) {
		fs := new(reconcile.Findings)
		ctx := reconcile.NewContext(reconcile.WithSink(fs))

		r := ctx.ReconcileFact("Tax/VAT/Item[0]", reconcile.MonetaryFact{
			Percentage: dp("0"),
			TaxAmount:  dp("100"),
		})
		assert.False(t, r.BaseResolved())
		require.Equal(t, 1, fs.Len())
		f := fs.List()[0]
		assert.Equal(t, "Tax/VAT/Item[0]", f.Path)
		assert.Equal(t, reconcile.SeverityWarning, f.Severity)
		assert.Contains(t, f.Message, "zero percentage")
	})

	t.Run("zero base records finding", func(t *testing.T) {
		fs := new(reconcile.Findings)
		ctx := reconcile.NewContext(reconcile.WithSink(fs))

		r := ctx.ReconcileFact("line", reconcile.MonetaryFact{
			TaxableBase: dp("0"),
			TaxAmount:   dp("33.33"),
		})
		assert.True(t, r.Percentage.IsZero())
		require.Len(t, fs.Filter(reconcile.SeverityWarning), 1)
	})

	t.Run("insufficient records finding", func(t *testing.T) {
		fs := new(reconcile.Findings)
		ctx := reconcile.NewContext(reconcile.WithSink(fs))

		ctx.ReconcileFact("line", reconcile.MonetaryFact{Percentage: dp("20")})
		require.Equal(t, 1, fs.Len())
		assert.Contains(t, fs.List()[0].Message, "insufficient data")
	})

	t.Run("complete records nothing", func(t *testing.T) {
		fs := new(reconcile.Findings)
		ctx := reconcile.NewContext(reconcile.WithSink(fs))

		ctx.ReconcileFact("line", reconcile.MonetaryFact{
			Percentage:  dp("20"),
			TaxableBase: dp("10"),
		})
		assert.Zero(t, fs.Len())
	})
}

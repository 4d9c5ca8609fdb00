package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultVATRate is applied when an invoice carries no explicit rate.
var DefaultVATRate = decimal.NewFromInt(20)

// Line is the monetary view of an invoice line.
type Line struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// Totals is the derived monetary summary of an invoice.
//
// HT, VAT and TTC are each rounded to cents from their own unrounded value, so
// TTC can differ from HT+VAT by one cent. The unrounded values are kept for
// auditing.
type Totals struct {
	HT  decimal.Decimal `json:"ht"`
	VAT decimal.Decimal `json:"vat"`
	TTC decimal.Decimal `json:"ttc"`

	VATRate decimal.Decimal `json:"vat_rate"`

	HTExact  decimal.Decimal `json:"-"`
	VATExact decimal.Decimal `json:"-"`
	TTCExact decimal.Decimal `json:"-"`
}

// ComputeTotals sums quantity*price exactly, derives VAT and TTC from the
// unrounded HT and rounds each of the three results independently.
//
// Lines must already be validated: quantity > 0 and price >= 0.
func ComputeTotals(lines []Line, vatRatePercent decimal.Decimal) Totals {
	ht := Zero
	for i, l := range lines {
		if !IsPositive(l.Quantity) || !IsNonNegative(l.UnitPrice) {
			panic(fmt.Sprintf("money: line %d violates quantity > 0 / price >= 0 (qty=%s, price=%s)",
				i, l.Quantity, l.UnitPrice))
		}
		ht = ht.Add(LineAmount(l.Quantity, l.UnitPrice))
	}

	vat := Percent(ht, vatRatePercent)
	ttc := ht.Add(vat)

	return Totals{
		HT:       RoundCents(ht),
		VAT:      RoundCents(vat),
		TTC:      RoundCents(ttc),
		VATRate:  vatRatePercent,
		HTExact:  ht,
		VATExact: vat,
		TTCExact: ttc,
	}
}

// ComputeTotalsDefault is ComputeTotals at DefaultVATRate.
func ComputeTotalsDefault(lines []Line) Totals {
	return ComputeTotals(lines, DefaultVATRate)
}

// ReconciliationGap returns TTC - (HT + VAT) on the rounded values.
func (t Totals) ReconciliationGap() decimal.Decimal {
	return t.TTC.Sub(t.HT.Add(t.VAT))
}

package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Zero is decimal zero
var Zero = decimal.Zero

var hundred = decimal.NewFromInt(100)

// FromInt creates decimal from int
func FromInt(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// FromString parses decimal from string
func FromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// MustFromString parses decimal from string, panics on error
func MustFromString(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// LineAmount computes quantity * unit price without rounding
func LineAmount(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice)
}

// Percent computes amount * (ratePercent/100) without rounding
func Percent(amount, ratePercent decimal.Decimal) decimal.Decimal {
	return amount.Mul(ratePercent).Div(hundred)
}

// RoundCents rounds to 2 decimal places, half away from zero
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Sum sums a slice of decimals
func Sum(values []decimal.Decimal) decimal.Decimal {
	result := Zero
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}

// IsPositive returns true if decimal is greater than zero
func IsPositive(d decimal.Decimal) bool {
	return d.GreaterThan(Zero)
}

// IsNonNegative returns true if decimal is >= zero
func IsNonNegative(d decimal.Decimal) bool {
	return d.GreaterThanOrEqual(Zero)
}

// FormatEuro renders an amount the French way: "1 234,50 €".
func FormatEuro(d decimal.Decimal) string {
	return formatGrouped(RoundCents(d).StringFixed(2)) + " €"
}

// FormatQuantity renders a quantity without trailing zeros, comma as decimal separator.
func FormatQuantity(d decimal.Decimal) string {
	return strings.Replace(d.String(), ".", ",", 1)
}

// FormatPercent renders a VAT rate such as "20" or "5,5".
func FormatPercent(d decimal.Decimal) string {
	return FormatQuantity(d)
}

func formatGrouped(fixed string) string {
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}

	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}

	if fracPart == "" {
		return sign + b.String()
	}
	return sign + b.String() + "," + fracPart
}

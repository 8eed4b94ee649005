// Package money normalizes monetary amounts before they enter any stored
// total. Every amount in the system carries exactly two fractional digits;
// re-normalizing after each arithmetic step keeps long chains of small
// updates from drifting.
package money

import "github.com/shopspring/decimal"

// Normalize coerces d to exactly two fractional digits, rounding half up.
func Normalize(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Parse converts a decimal string to a normalized amount. Unparseable or
// empty input coerces to 0.00 rather than failing: provider feeds
// occasionally carry junk amounts and a bad record must not poison a whole
// sync batch.
func Parse(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero.Round(2)
	}
	return Normalize(d)
}

// Add returns a+b normalized.
func Add(a, b decimal.Decimal) decimal.Decimal {
	return Normalize(a.Add(b))
}

// Sub returns a-b normalized.
func Sub(a, b decimal.Decimal) decimal.Decimal {
	return Normalize(a.Sub(b))
}

package model

import "github.com/shopspring/decimal"

// Amounts travel through the engine as decimals but are persisted as integer
// minor units so the store's atomic increments stay exact.

// Cents converts an amount to integer minor units for storage.
func Cents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// FromCents converts stored minor units back into a decimal amount.
func FromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

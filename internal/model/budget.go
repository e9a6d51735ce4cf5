package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget tracks spending for one category inside an inclusive [Begin, End]
// window. Amount is the spent-so-far total: the sum of amounts over the
// category's transactions dated within the window.
type Budget struct {
	Begin      time.Time
	End        time.Time
	CreatedAt  time.Time
	ID         string
	UserID     string
	WalletID   string
	CategoryID string
	Total      decimal.Decimal
	Amount     decimal.Decimal
}

// Contains reports whether the window covers the given date, inclusive on
// both ends.
func (b *Budget) Contains(date time.Time) bool {
	d := date.UTC()
	return !d.Before(b.Begin) && !d.After(b.End)
}

// Remaining returns how much of the budget is left to spend. It may be
// negative when the budget is blown.
func (b *Budget) Remaining() decimal.Decimal {
	return b.Total.Sub(b.Amount)
}

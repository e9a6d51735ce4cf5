package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups transactions of a single type and carries their signed
// running total. Amount equals the sum of amounts over all transactions
// currently pointing at the category.
type Category struct {
	CreatedAt time.Time
	ID        string
	UserID    string
	Name      string
	Icon      string
	Type      TxType
	Amount    decimal.Decimal
	Deletable bool
}

// IsSentinel reports whether this is one of the protected per-user
// "uncategorized" categories that receive synthetic transfer legs.
func (c *Category) IsSentinel() bool {
	return !c.Deletable
}

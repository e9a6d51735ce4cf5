package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds four independent running totals, one per transaction type.
// Each total equals the sum of amounts over the wallet's transactions of
// that type; the ledger engine is the only writer of these fields.
type Wallet struct {
	CreatedAt time.Time
	ID        string
	UserID    string
	Name      string
	Icon      string
	Income    decimal.Decimal
	Expense   decimal.Decimal
	Saving    decimal.Decimal
	Invest    decimal.Decimal
}

// TotalFor returns the running total for one transaction type. Wallet
// counters are always addressed through this mapping, never by name.
func (w *Wallet) TotalFor(t TxType) decimal.Decimal {
	switch t {
	case TxIncome:
		return w.Income
	case TxExpense:
		return w.Expense
	case TxSaving:
		return w.Saving
	case TxInvest:
		return w.Invest
	}
	return decimal.Zero
}

// Balance is derived from the stored totals, never persisted.
func (w *Wallet) Balance() decimal.Decimal {
	return w.Income.Sub(w.Expense)
}

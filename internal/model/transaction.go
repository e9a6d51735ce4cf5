// Package model defines the core ledger entities shared across the application.
package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TxType identifies which per-wallet running total a transaction feeds.
// It is a closed set; anything else is rejected at the boundary.
type TxType string

const (
	// TxIncome represents money coming into a wallet.
	TxIncome TxType = "income"
	// TxExpense represents money leaving a wallet.
	TxExpense TxType = "expense"
	// TxSaving represents money set aside in a wallet.
	TxSaving TxType = "saving"
	// TxInvest represents money invested from a wallet.
	TxInvest TxType = "invest"
)

// ParseTxType converts a string into a TxType, rejecting unknown values.
func ParseTxType(s string) (TxType, error) {
	switch TxType(s) {
	case TxIncome, TxExpense, TxSaving, TxInvest:
		return TxType(s), nil
	default:
		return "", fmt.Errorf("invalid transaction type: %q", s)
	}
}

// Valid reports whether the type is one of the four known cases.
func (t TxType) Valid() bool {
	switch t {
	case TxIncome, TxExpense, TxSaving, TxInvest:
		return true
	}
	return false
}

// Transaction represents a single ledger entry. It is owned by exactly one
// wallet and one category at a time; every mutation must transfer that claim
// atomically across the affected aggregates.
type Transaction struct {
	Date              time.Time
	CreatedAt         time.Time
	ID                string
	UserID            string
	WalletID          string
	CategoryID        string
	Name              string
	Type              TxType
	Amount            decimal.Decimal
	ExcludeFromTotals bool
}

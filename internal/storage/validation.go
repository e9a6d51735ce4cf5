// Package storage provides the SQLite-backed persistence layer for the ledger.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tallyhq/tally/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidDateRange   = errors.New("begin date must not be after end date")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidWallet      = errors.New("invalid wallet")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidBudget      = errors.New("invalid budget")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTransaction validates a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.UserID == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidTransaction)
	}
	if txn.WalletID == "" {
		return fmt.Errorf("%w: missing wallet ID", ErrInvalidTransaction)
	}
	if txn.CategoryID == "" {
		return fmt.Errorf("%w: missing category ID", ErrInvalidTransaction)
	}
	if txn.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if !txn.Type.Valid() {
		return fmt.Errorf("%w: invalid type %q", ErrInvalidTransaction, txn.Type)
	}
	if txn.Amount.IsNegative() {
		return fmt.Errorf("%w: negative amount", ErrInvalidTransaction)
	}
	return nil
}

// validateWallet validates a wallet.
func validateWallet(wallet *model.Wallet) error {
	if wallet == nil {
		return fmt.Errorf("%w: wallet", ErrNilParameter)
	}
	if wallet.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidWallet)
	}
	if wallet.UserID == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidWallet)
	}
	if strings.TrimSpace(wallet.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidWallet)
	}
	return nil
}

// validateCategory validates a category.
func validateCategory(category *model.Category) error {
	if category == nil {
		return fmt.Errorf("%w: category", ErrNilParameter)
	}
	if category.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidCategory)
	}
	if category.UserID == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidCategory)
	}
	if strings.TrimSpace(category.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidCategory)
	}
	if !category.Type.Valid() {
		return fmt.Errorf("%w: invalid type %q", ErrInvalidCategory, category.Type)
	}
	return nil
}

// validateBudget validates a budget.
func validateBudget(budget *model.Budget) error {
	if budget == nil {
		return fmt.Errorf("%w: budget", ErrNilParameter)
	}
	if budget.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidBudget)
	}
	if budget.UserID == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidBudget)
	}
	if budget.CategoryID == "" {
		return fmt.Errorf("%w: missing category ID", ErrInvalidBudget)
	}
	if budget.Begin.IsZero() || budget.End.IsZero() {
		return fmt.Errorf("%w: missing window bounds", ErrInvalidBudget)
	}
	if budget.Begin.After(budget.End) {
		return fmt.Errorf("%w: %v after %v", ErrInvalidDateRange, budget.Begin, budget.End)
	}
	if budget.Total.IsNegative() {
		return fmt.Errorf("%w: negative total", ErrInvalidBudget)
	}
	return nil
}

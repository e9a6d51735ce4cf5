package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/common"
	"github.com/tallyhq/tally/internal/model"
	"github.com/tallyhq/tally/internal/service"
)

// CreateTransactionParams carries everything needed to record a new
// transaction. ID is optional; importers set it to a deterministic value so
// re-importing the same source file cannot duplicate entries.
type CreateTransactionParams struct {
	Date              time.Time
	ID                string
	UserID            string
	WalletID          string
	CategoryID        string
	Name              string
	Type              model.TxType
	Amount            decimal.Decimal
	ExcludeFromTotals bool
}

// UpdateTransactionParams overlays new field values onto an existing
// transaction. Nil fields keep their current value. The type is derived from
// the category and is not independently editable.
type UpdateTransactionParams struct {
	UserID     string
	ID         string
	WalletID   *string
	CategoryID *string
	Name       *string
	Amount     *decimal.Decimal
	Date       *time.Time
}

// CreateTransaction records a new transaction and credits its amount to the
// owning category, the wallet's per-type total, and the covering budget (if
// any) in one atomic step.
func (l *Ledger) CreateTransaction(ctx context.Context, p CreateTransactionParams) (*model.Transaction, error) {
	// Amounts are quantized to whole cents before anything is written, so the
	// persisted row and every aggregate increment derive from the same value.
	amount := p.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("transaction amount must be positive, got %s", p.Amount)
	}
	if !p.Type.Valid() {
		return nil, fmt.Errorf("invalid transaction type: %q", p.Type)
	}

	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}

	txn := &model.Transaction{
		ID:                id,
		UserID:            p.UserID,
		WalletID:          p.WalletID,
		CategoryID:        p.CategoryID,
		Name:              p.Name,
		Amount:            amount,
		Date:              p.Date.UTC(),
		Type:              p.Type,
		ExcludeFromTotals: p.ExcludeFromTotals,
	}

	err := l.inTx(ctx, func(tx service.Tx) error {
		if _, err := tx.GetWallet(ctx, p.UserID, p.WalletID); err != nil {
			return common.NewUserError("Wallet not found", err)
		}
		if _, err := tx.GetCategory(ctx, p.UserID, p.CategoryID); err != nil {
			return common.NewUserError("Category not found", err)
		}
		if err := tx.CreateTransaction(ctx, txn); err != nil {
			return err
		}
		return applyAggregates(ctx, tx, nil, txn)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("transaction created",
		"id", txn.ID,
		"wallet", txn.WalletID,
		"category", txn.CategoryID,
		"type", txn.Type,
		"amount", txn.Amount)
	return txn, nil
}

// UpdateTransaction edits an existing transaction. Category, wallet, amount
// and date may all change in one call; each aggregate dimension resolves its
// own old/new bucket pair independently.
func (l *Ledger) UpdateTransaction(ctx context.Context, p UpdateTransactionParams) (*model.Transaction, error) {
	if p.Amount != nil && !p.Amount.Round(2).IsPositive() {
		return nil, fmt.Errorf("transaction amount must be positive, got %s", p.Amount)
	}

	var updated *model.Transaction
	err := l.inTx(ctx, func(tx service.Tx) error {
		oldTxn, err := tx.GetTransaction(ctx, p.UserID, p.ID)
		if err != nil {
			return common.NewUserError("Transaction not found", err)
		}

		newTxn := *oldTxn
		if p.WalletID != nil && *p.WalletID != oldTxn.WalletID {
			if _, err := tx.GetWallet(ctx, p.UserID, *p.WalletID); err != nil {
				return common.NewUserError("Wallet not found", err)
			}
			newTxn.WalletID = *p.WalletID
		}
		if p.CategoryID != nil && *p.CategoryID != oldTxn.CategoryID {
			category, err := tx.GetCategory(ctx, p.UserID, *p.CategoryID)
			if err != nil {
				return common.NewUserError("Category not found", err)
			}
			newTxn.CategoryID = category.ID
			newTxn.Type = category.Type
		}
		if p.Name != nil {
			newTxn.Name = *p.Name
		}
		if p.Amount != nil {
			newTxn.Amount = p.Amount.Round(2)
		}
		if p.Date != nil {
			newTxn.Date = p.Date.UTC()
		}

		if err := tx.UpdateTransaction(ctx, &newTxn); err != nil {
			return err
		}
		if err := applyAggregates(ctx, tx, oldTxn, &newTxn); err != nil {
			return err
		}
		updated = &newTxn
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("transaction updated", "id", updated.ID)
	return updated, nil
}

// DeleteTransaction removes a transaction and subtracts its amount from every
// aggregate currently claiming it. Deleting an already-deleted transaction
// fails with NotFound and leaves all aggregates unchanged.
func (l *Ledger) DeleteTransaction(ctx context.Context, userID, id string) (*model.Transaction, error) {
	var deleted *model.Transaction
	err := l.inTx(ctx, func(tx service.Tx) error {
		oldTxn, err := tx.GetTransaction(ctx, userID, id)
		if err != nil {
			return common.NewUserError("Transaction not found", err)
		}
		if err := tx.DeleteTransaction(ctx, userID, id); err != nil {
			return err
		}
		if err := applyAggregates(ctx, tx, oldTxn, nil); err != nil {
			return err
		}
		deleted = oldTxn
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("transaction deleted", "id", deleted.ID)
	return deleted, nil
}

package ledger

import (
	"context"
	"fmt"

	"github.com/tallyhq/tally/internal/model"
	"github.com/tallyhq/tally/internal/service"
)

// applyAggregates fans a single transaction mutation out into the three
// aggregate views. It treats create as old == nil and delete as new == nil,
// so all three mutation paths share one delta rule:
//
//   - same bucket on both sides: one net increment of new − old, skipped
//     entirely when the net is zero, so no transient wrong value is ever
//     committed for an unchanged bucket;
//   - different buckets: subtract old from the old bucket and add new to the
//     new bucket as two independent increments, never a single net delta —
//     they are different counters.
//
// The category, wallet and budget dimensions key on different entities, so
// "same bucket" is decided per dimension. Excluded transactions still hit
// every stored aggregate; exclusion only matters to breakdown views.
// The caller supplies the store transaction, so all increments land (or
// vanish) together with the row write.
func applyAggregates(ctx context.Context, tx service.Tx, oldTxn, newTxn *model.Transaction) error {
	if oldTxn == nil && newTxn == nil {
		return nil
	}

	if err := applyCategoryDelta(ctx, tx, oldTxn, newTxn); err != nil {
		return fmt.Errorf("category aggregate: %w", err)
	}
	if err := applyWalletDelta(ctx, tx, oldTxn, newTxn); err != nil {
		return fmt.Errorf("wallet aggregate: %w", err)
	}
	if err := applyBudgetDelta(ctx, tx, oldTxn, newTxn); err != nil {
		return fmt.Errorf("budget aggregate: %w", err)
	}
	return nil
}

func applyCategoryDelta(ctx context.Context, tx service.Tx, oldTxn, newTxn *model.Transaction) error {
	if oldTxn != nil && newTxn != nil && oldTxn.CategoryID == newTxn.CategoryID {
		delta := newTxn.Amount.Sub(oldTxn.Amount)
		if delta.IsZero() {
			return nil
		}
		return tx.AddToCategoryAmount(ctx, newTxn.UserID, newTxn.CategoryID, delta)
	}

	if oldTxn != nil {
		if err := tx.AddToCategoryAmount(ctx, oldTxn.UserID, oldTxn.CategoryID, oldTxn.Amount.Neg()); err != nil {
			return err
		}
	}
	if newTxn != nil {
		if err := tx.AddToCategoryAmount(ctx, newTxn.UserID, newTxn.CategoryID, newTxn.Amount); err != nil {
			return err
		}
	}
	return nil
}

func applyWalletDelta(ctx context.Context, tx service.Tx, oldTxn, newTxn *model.Transaction) error {
	// The wallet bucket is the (wallet, type) pair: changing either one
	// moves the transaction to a different counter.
	if oldTxn != nil && newTxn != nil &&
		oldTxn.WalletID == newTxn.WalletID && oldTxn.Type == newTxn.Type {
		delta := newTxn.Amount.Sub(oldTxn.Amount)
		if delta.IsZero() {
			return nil
		}
		return tx.AddToWalletTotal(ctx, newTxn.UserID, newTxn.WalletID, newTxn.Type, delta)
	}

	if oldTxn != nil {
		if err := tx.AddToWalletTotal(ctx, oldTxn.UserID, oldTxn.WalletID, oldTxn.Type, oldTxn.Amount.Neg()); err != nil {
			return err
		}
	}
	if newTxn != nil {
		if err := tx.AddToWalletTotal(ctx, newTxn.UserID, newTxn.WalletID, newTxn.Type, newTxn.Amount); err != nil {
			return err
		}
	}
	return nil
}

func applyBudgetDelta(ctx context.Context, tx service.Tx, oldTxn, newTxn *model.Transaction) error {
	// The budget bucket is located, not referenced: each snapshot's
	// (category, date) pair resolves to at most one covering window.
	var oldBudget, newBudget *model.Budget
	var err error

	if oldTxn != nil {
		oldBudget, err = tx.FindBudget(ctx, oldTxn.UserID, oldTxn.CategoryID, oldTxn.Date)
		if err != nil {
			return err
		}
	}
	if newTxn != nil {
		newBudget, err = tx.FindBudget(ctx, newTxn.UserID, newTxn.CategoryID, newTxn.Date)
		if err != nil {
			return err
		}
	}

	if oldBudget == nil && newBudget == nil {
		return nil
	}

	if oldBudget != nil && newBudget != nil && oldBudget.ID == newBudget.ID {
		delta := newTxn.Amount.Sub(oldTxn.Amount)
		if delta.IsZero() {
			return nil
		}
		return tx.AddToBudgetAmount(ctx, newTxn.UserID, newBudget.ID, delta)
	}

	if oldBudget != nil {
		if err := tx.AddToBudgetAmount(ctx, oldTxn.UserID, oldBudget.ID, oldTxn.Amount.Neg()); err != nil {
			return err
		}
	}
	if newBudget != nil {
		if err := tx.AddToBudgetAmount(ctx, newTxn.UserID, newBudget.ID, newTxn.Amount); err != nil {
			return err
		}
	}
	return nil
}

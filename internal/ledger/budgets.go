package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/common"
	"github.com/tallyhq/tally/internal/model"
	"github.com/tallyhq/tally/internal/service"
)

// CreateBudgetParams describes a new budget window for a category.
type CreateBudgetParams struct {
	Begin      time.Time
	End        time.Time
	UserID     string
	WalletID   string
	CategoryID string
	Total      decimal.Decimal
}

// CreateBudget creates a budget over an inclusive [begin, end] day window.
// Windows for one category may not overlap: the locator must resolve any
// (category, date) pair to at most one budget. The spent amount starts from
// whatever matching transactions already exist, so a budget created after
// the fact is immediately correct.
func (l *Ledger) CreateBudget(ctx context.Context, p CreateBudgetParams) (*model.Budget, error) {
	budget := &model.Budget{
		ID:         uuid.NewString(),
		UserID:     p.UserID,
		WalletID:   p.WalletID,
		CategoryID: p.CategoryID,
		Total:      p.Total.Round(2),
		Begin:      dayStart(p.Begin),
		End:        dayEnd(p.End),
	}

	err := l.inTx(ctx, func(tx service.Tx) error {
		if _, err := tx.GetCategory(ctx, p.UserID, p.CategoryID); err != nil {
			return common.NewUserError("Category not found", err)
		}

		existing, err := tx.FindOverlappingBudget(ctx, p.UserID, p.CategoryID, budget.Begin, budget.End)
		if err != nil {
			return err
		}
		if existing != nil {
			return common.NewUserError(
				fmt.Sprintf("Budget window overlaps an existing budget (%s to %s)",
					existing.Begin.Format("2006-01-02"), existing.End.Format("2006-01-02")),
				common.ErrDuplicateEntry)
		}

		// Seed the spent amount from transactions already in the window.
		txns, err := tx.ListTransactions(ctx, p.UserID, service.TransactionFilter{
			CategoryID: p.CategoryID,
			StartDate:  &budget.Begin,
			EndDate:    &budget.End,
		})
		if err != nil {
			return err
		}
		for i := range txns {
			budget.Amount = budget.Amount.Add(txns[i].Amount)
		}

		return tx.CreateBudget(ctx, budget)
	})
	if err != nil {
		return nil, err
	}
	return budget, nil
}

// DeleteBudget removes a budget. Transactions are untouched; only the
// denormalized window disappears.
func (l *Ledger) DeleteBudget(ctx context.Context, userID, id string) error {
	if _, err := l.store.GetBudget(ctx, userID, id); err != nil {
		return common.NewUserError("Budget not found", err)
	}
	return l.store.DeleteBudget(ctx, userID, id)
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/common"
	"github.com/tallyhq/tally/internal/model"
)

// CreateCategoryParams describes a new user category.
type CreateCategoryParams struct {
	UserID string
	Name   string
	Icon   string
	Type   model.TxType
}

// CreateCategory creates a regular (deletable) category. Sentinel categories
// only come from SetupUser.
func (l *Ledger) CreateCategory(ctx context.Context, p CreateCategoryParams) (*model.Category, error) {
	category := &model.Category{
		ID:        uuid.NewString(),
		UserID:    p.UserID,
		Name:      p.Name,
		Icon:      p.Icon,
		Type:      p.Type,
		Deletable: true,
	}
	if err := l.store.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes a category that is deletable and no longer claimed
// by any transaction.
func (l *Ledger) DeleteCategory(ctx context.Context, userID, id string) error {
	category, err := l.store.GetCategory(ctx, userID, id)
	if err != nil {
		return common.NewUserError("Category not found", err)
	}
	if category.IsSentinel() {
		return common.NewUserError(
			fmt.Sprintf("Category %q is protected and cannot be deleted", category.Name), nil)
	}

	count, err := l.store.CountTransactionsByCategory(ctx, userID, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return common.NewUserError(
			fmt.Sprintf("Category %q still has %d transactions", category.Name, count), nil)
	}

	return l.store.DeleteCategory(ctx, userID, id)
}

// SetupUser idempotently creates the per-user sentinel categories that
// transfers depend on: one uncategorized income and one uncategorized
// expense category, both non-deletable. Safe to call any number of times.
func (l *Ledger) SetupUser(ctx context.Context, userID string) ([]model.Category, error) {
	sentinels := []struct {
		name   string
		txType model.TxType
	}{
		{name: "Uncategorized income", txType: model.TxIncome},
		{name: "Uncategorized expense", txType: model.TxExpense},
	}

	var categories []model.Category
	for _, s := range sentinels {
		existing, err := l.store.GetSentinelCategory(ctx, userID, s.txType)
		if err == nil {
			categories = append(categories, *existing)
			continue
		}
		if !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}

		category := &model.Category{
			ID:        uuid.NewString(),
			UserID:    userID,
			Name:      s.name,
			Type:      s.txType,
			Deletable: false,
		}
		if err := l.store.CreateCategory(ctx, category); err != nil {
			return nil, err
		}
		slog.Info("created sentinel category", "user", userID, "type", s.txType)
		categories = append(categories, *category)
	}
	return categories, nil
}

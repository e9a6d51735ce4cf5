package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/common"
	"github.com/tallyhq/tally/internal/model"
)

const budgetColumns = `id, user_id, wallet_id, category_id, total, begin_date, end_date, amount, created_at`

func scanBudget(scan func(dest ...any) error) (*model.Budget, error) {
	var (
		b            model.Budget
		total, spent int64
	)
	if err := scan(
		&b.ID, &b.UserID, &b.WalletID, &b.CategoryID,
		&total, &b.Begin, &b.End, &spent, &b.CreatedAt,
	); err != nil {
		return nil, err
	}
	b.Total = model.FromCents(total)
	b.Amount = model.FromCents(spent)
	return &b, nil
}

// CreateBudget persists a new budget. The unique index on
// (category, begin, end) turns an exact window duplicate into DuplicateEntry;
// overlap policy beyond that lives in the engine.
func (c queries) CreateBudget(ctx context.Context, budget *model.Budget) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBudget(budget); err != nil {
		return err
	}

	if budget.CreatedAt.IsZero() {
		budget.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO budgets (` + budgetColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := c.q.ExecContext(ctx, query,
		budget.ID, budget.UserID, budget.WalletID, budget.CategoryID,
		model.Cents(budget.Total), budget.Begin.UTC(), budget.End.UTC(),
		model.Cents(budget.Amount), budget.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: budget window already exists for category %s", common.ErrDuplicateEntry, budget.CategoryID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert budget: %w", err)
	}

	slog.Info("created budget",
		"id", budget.ID,
		"category", budget.CategoryID,
		"begin", budget.Begin,
		"end", budget.End)
	return nil
}

// GetBudget returns a budget by id, scoped to the user.
func (c queries) GetBudget(ctx context.Context, userID, id string) (*model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE id = ? AND user_id = ?`

	budget, err := scanBudget(c.q.QueryRowContext(ctx, query, id, userID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: budget %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query budget: %w", err)
	}
	return budget, nil
}

// ListBudgets returns all of the user's budgets ordered by window start.
func (c queries) ListBudgets(ctx context.Context, userID string) ([]model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = ? ORDER BY begin_date, category_id`

	rows, err := c.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer rows.Close()

	var budgets []model.Budget
	for rows.Next() {
		b, err := scanBudget(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budgets: %w", err)
	}
	return budgets, nil
}

// DeleteBudget removes a budget row.
func (c queries) DeleteBudget(ctx context.Context, userID, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := c.q.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	return requireRow(result, "budget "+id)
}

// FindBudget is the budget locator: it returns the budget whose inclusive
// [begin, end] window contains the date for the category, or nil when none
// does. Windows for one category are expected not to overlap; if bad data
// violates that, the earliest begin wins deterministically.
func (c queries) FindBudget(ctx context.Context, userID, categoryID string, date time.Time) (*model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(categoryID, "categoryID"); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + budgetColumns + `
		FROM budgets
		WHERE user_id = ? AND category_id = ? AND begin_date <= ? AND end_date >= ?
		ORDER BY begin_date
		LIMIT 1`

	d := date.UTC()
	budget, err := scanBudget(c.q.QueryRowContext(ctx, query, userID, categoryID, d, d).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // No budget covers this date.
	}
	if err != nil {
		return nil, fmt.Errorf("failed to locate budget: %w", err)
	}
	return budget, nil
}

// FindOverlappingBudget returns any existing budget for the category whose
// window intersects [begin, end], or nil. Used to enforce the non-overlap
// invariant at creation time.
func (c queries) FindOverlappingBudget(ctx context.Context, userID, categoryID string, begin, end time.Time) (*model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(categoryID, "categoryID"); err != nil {
		return nil, err
	}
	if begin.After(end) {
		return nil, fmt.Errorf("%w: %v after %v", ErrInvalidDateRange, begin, end)
	}

	query := `
		SELECT ` + budgetColumns + `
		FROM budgets
		WHERE user_id = ? AND category_id = ? AND begin_date <= ? AND end_date >= ?
		ORDER BY begin_date
		LIMIT 1`

	budget, err := scanBudget(c.q.QueryRowContext(ctx, query, userID, categoryID, end.UTC(), begin.UTC()).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query overlapping budget: %w", err)
	}
	return budget, nil
}

// AddToBudgetAmount atomically increments a budget's spent amount by the
// (possibly negative) delta.
func (c queries) AddToBudgetAmount(ctx context.Context, userID, id string, delta decimal.Decimal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := c.q.ExecContext(ctx,
		`UPDATE budgets SET amount = amount + ? WHERE id = ? AND user_id = ?`,
		model.Cents(delta), id, userID)
	if err != nil {
		return fmt.Errorf("failed to update budget amount: %w", err)
	}
	return requireRow(result, "budget "+id)
}

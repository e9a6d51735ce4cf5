package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/common"
	"github.com/tallyhq/tally/internal/model"
)

const categoryColumns = `id, user_id, name, icon, type, amount, deletable, created_at`

func scanCategory(scan func(dest ...any) error) (*model.Category, error) {
	var (
		cat       model.Category
		cents     int64
		catType   string
		deletable int
	)
	if err := scan(
		&cat.ID, &cat.UserID, &cat.Name, &cat.Icon,
		&catType, &cents, &deletable, &cat.CreatedAt,
	); err != nil {
		return nil, err
	}
	cat.Type = model.TxType(catType)
	cat.Amount = model.FromCents(cents)
	cat.Deletable = deletable != 0
	return &cat, nil
}

// CreateCategory persists a new category. Sentinel (non-deletable)
// categories are unique per user and type; a second insert reports
// DuplicateEntry.
func (c queries) CreateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}

	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO categories (` + categoryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := c.q.ExecContext(ctx, query,
		category.ID, category.UserID, category.Name, category.Icon,
		string(category.Type), model.Cents(category.Amount),
		boolToInt(category.Deletable), category.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: sentinel category for %s", common.ErrDuplicateEntry, category.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}

	slog.Info("created category", "id", category.ID, "name", category.Name, "type", category.Type)
	return nil
}

// GetCategory returns a category by id, scoped to the user.
func (c queries) GetCategory(ctx context.Context, userID, id string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = ? AND user_id = ?`

	cat, err := scanCategory(c.q.QueryRowContext(ctx, query, id, userID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: category %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return cat, nil
}

// GetSentinelCategory returns the user's protected "uncategorized" category
// for the given type. Transfers depend on these existing.
func (c queries) GetSentinelCategory(ctx context.Context, userID string, txType model.TxType) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if !txType.Valid() {
		return nil, fmt.Errorf("%w: invalid type %q", ErrInvalidCategory, txType)
	}

	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE user_id = ? AND type = ? AND deletable = 0`

	cat, err := scanCategory(c.q.QueryRowContext(ctx, query, userID, string(txType)).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: uncategorized %s category", common.ErrNotFound, txType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sentinel category: %w", err)
	}
	return cat, nil
}

// ListCategories returns all of the user's categories ordered by name.
func (c queries) ListCategories(ctx context.Context, userID string) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = ? ORDER BY name`

	rows, err := c.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		cat, err := scanCategory(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, *cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// DeleteCategory removes a deletable category row. Sentinels are protected
// at the SQL level, not just in the engine.
func (c queries) DeleteCategory(ctx context.Context, userID, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := c.q.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND user_id = ? AND deletable = 1`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return requireRow(result, "category "+id)
}

// AddToCategoryAmount atomically increments a category's running total by
// the (possibly negative) delta.
func (c queries) AddToCategoryAmount(ctx context.Context, userID, id string, delta decimal.Decimal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := c.q.ExecContext(ctx,
		`UPDATE categories SET amount = amount + ? WHERE id = ? AND user_id = ?`,
		model.Cents(delta), id, userID)
	if err != nil {
		return fmt.Errorf("failed to update category amount: %w", err)
	}
	return requireRow(result, "category "+id)
}

// isUniqueViolation reports whether the error is a SQLite unique-constraint
// failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

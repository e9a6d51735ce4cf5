package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tallyhq/tally/internal/common"
	"github.com/tallyhq/tally/internal/model"
	"github.com/tallyhq/tally/internal/service"
)

const transactionColumns = `id, user_id, wallet_id, category_id, name, amount, date, type, exclude_from_totals, created_at`

func scanTransaction(scan func(dest ...any) error) (*model.Transaction, error) {
	var (
		txn     model.Transaction
		cents   int64
		txType  string
		exclude int
	)
	if err := scan(
		&txn.ID, &txn.UserID, &txn.WalletID, &txn.CategoryID, &txn.Name,
		&cents, &txn.Date, &txType, &exclude, &txn.CreatedAt,
	); err != nil {
		return nil, err
	}
	txn.Amount = model.FromCents(cents)
	txn.Type = model.TxType(txType)
	txn.ExcludeFromTotals = exclude != 0
	return &txn, nil
}

// CreateTransaction persists a new transaction row. Aggregates are not
// touched here; that is the ledger engine's job.
func (c queries) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := c.q.ExecContext(ctx, query,
		txn.ID, txn.UserID, txn.WalletID, txn.CategoryID, txn.Name,
		model.Cents(txn.Amount), txn.Date.UTC(), string(txn.Type),
		boolToInt(txn.ExcludeFromTotals), txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	slog.Debug("inserted transaction", "id", txn.ID, "wallet", txn.WalletID, "category", txn.CategoryID)
	return nil
}

// GetTransaction returns a transaction by id, scoped to the user.
func (c queries) GetTransaction(ctx context.Context, userID, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = ? AND user_id = ?`

	txn, err := scanTransaction(c.q.QueryRowContext(ctx, query, id, userID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: transaction %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}
	return txn, nil
}

// UpdateTransaction persists the mutable fields of an existing transaction.
func (c queries) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	query := `
		UPDATE transactions
		SET wallet_id = ?, category_id = ?, name = ?, amount = ?, date = ?, type = ?, exclude_from_totals = ?
		WHERE id = ? AND user_id = ?`

	result, err := c.q.ExecContext(ctx, query,
		txn.WalletID, txn.CategoryID, txn.Name, model.Cents(txn.Amount),
		txn.Date.UTC(), string(txn.Type), boolToInt(txn.ExcludeFromTotals),
		txn.ID, txn.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return requireRow(result, "transaction "+txn.ID)
}

// DeleteTransaction removes a transaction row.
func (c queries) DeleteTransaction(ctx context.Context, userID, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := c.q.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return requireRow(result, "transaction "+id)
}

// ListTransactions returns the user's transactions matching the filter,
// newest first.
func (c queries) ListTransactions(ctx context.Context, userID string, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = ?`)
	args := []any{userID}

	if filter.WalletID != "" {
		sb.WriteString(` AND wallet_id = ?`)
		args = append(args, filter.WalletID)
	}
	if filter.CategoryID != "" {
		sb.WriteString(` AND category_id = ?`)
		args = append(args, filter.CategoryID)
	}
	if filter.Type != "" {
		sb.WriteString(` AND type = ?`)
		args = append(args, string(filter.Type))
	}
	if filter.StartDate != nil {
		sb.WriteString(` AND date >= ?`)
		args = append(args, filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		sb.WriteString(` AND date <= ?`)
		args = append(args, filter.EndDate.UTC())
	}

	sb.WriteString(` ORDER BY date DESC, created_at DESC`)
	if filter.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			sb.WriteString(` OFFSET ?`)
			args = append(args, filter.Offset)
		}
	}

	rows, err := c.q.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txns, nil
}

// DeleteTransactionsByWallet removes every transaction belonging to a wallet
// and reports how many rows went away.
func (c queries) DeleteTransactionsByWallet(ctx context.Context, userID, walletID string) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(walletID, "walletID"); err != nil {
		return 0, err
	}

	result, err := c.q.ExecContext(ctx,
		`DELETE FROM transactions WHERE user_id = ? AND wallet_id = ?`, userID, walletID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete wallet transactions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted transactions: %w", err)
	}
	return n, nil
}

// CountTransactionsByCategory reports how many transactions still point at a
// category.
func (c queries) CountTransactionsByCategory(ctx context.Context, userID, categoryID string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(categoryID, "categoryID"); err != nil {
		return 0, err
	}

	var n int
	err := c.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE user_id = ? AND category_id = ?`,
		userID, categoryID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// requireRow turns a zero-rows-affected result into NotFound.
func requireRow(result sql.Result, what string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", common.ErrNotFound, what)
	}
	return nil
}

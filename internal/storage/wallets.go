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

const walletColumns = `id, user_id, name, icon, income, expense, saving, invest, created_at`

func scanWallet(scan func(dest ...any) error) (*model.Wallet, error) {
	var (
		w                                model.Wallet
		income, expense, saving, invest int64
	)
	if err := scan(
		&w.ID, &w.UserID, &w.Name, &w.Icon,
		&income, &expense, &saving, &invest, &w.CreatedAt,
	); err != nil {
		return nil, err
	}
	w.Income = model.FromCents(income)
	w.Expense = model.FromCents(expense)
	w.Saving = model.FromCents(saving)
	w.Invest = model.FromCents(invest)
	return &w, nil
}

// walletColumn maps a transaction type onto the wallet counter column it
// feeds. The closed switch keeps column names out of caller hands entirely.
func walletColumn(t model.TxType) (string, error) {
	switch t {
	case model.TxIncome:
		return "income", nil
	case model.TxExpense:
		return "expense", nil
	case model.TxSaving:
		return "saving", nil
	case model.TxInvest:
		return "invest", nil
	default:
		return "", fmt.Errorf("no wallet counter for transaction type %q", t)
	}
}

// CreateWallet persists a new wallet.
func (c queries) CreateWallet(ctx context.Context, wallet *model.Wallet) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateWallet(wallet); err != nil {
		return err
	}

	if wallet.CreatedAt.IsZero() {
		wallet.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO wallets (` + walletColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := c.q.ExecContext(ctx, query,
		wallet.ID, wallet.UserID, wallet.Name, wallet.Icon,
		model.Cents(wallet.Income), model.Cents(wallet.Expense),
		model.Cents(wallet.Saving), model.Cents(wallet.Invest),
		wallet.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert wallet: %w", err)
	}

	slog.Info("created wallet", "id", wallet.ID, "name", wallet.Name)
	return nil
}

// GetWallet returns a wallet by id, scoped to the user.
func (c queries) GetWallet(ctx context.Context, userID, id string) (*model.Wallet, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = ? AND user_id = ?`

	wallet, err := scanWallet(c.q.QueryRowContext(ctx, query, id, userID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: wallet %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query wallet: %w", err)
	}
	return wallet, nil
}

// ListWallets returns all of the user's wallets, oldest first.
func (c queries) ListWallets(ctx context.Context, userID string) ([]model.Wallet, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = ? ORDER BY created_at, name`

	rows, err := c.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wallets: %w", err)
	}
	defer rows.Close()

	var wallets []model.Wallet
	for rows.Next() {
		w, err := scanWallet(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		wallets = append(wallets, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallets: %w", err)
	}
	return wallets, nil
}

// CountWallets reports how many wallets the user has.
func (c queries) CountWallets(ctx context.Context, userID string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var n int
	err := c.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM wallets WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count wallets: %w", err)
	}
	return n, nil
}

// DeleteWallet removes a wallet row. Its transactions are the engine's
// responsibility.
func (c queries) DeleteWallet(ctx context.Context, userID, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := c.q.ExecContext(ctx,
		`DELETE FROM wallets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete wallet: %w", err)
	}
	return requireRow(result, "wallet "+id)
}

// AddToWalletTotal atomically increments one per-type wallet counter by the
// (possibly negative) delta. Never read-modify-write: concurrent mutations
// hitting the same wallet must serialize in the database.
func (c queries) AddToWalletTotal(ctx context.Context, userID, id string, txType model.TxType, delta decimal.Decimal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	column, err := walletColumn(txType)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE wallets SET %s = %s + ? WHERE id = ? AND user_id = ?`, column, column)
	result, err := c.q.ExecContext(ctx, query, model.Cents(delta), id, userID)
	if err != nil {
		return fmt.Errorf("failed to update wallet %s total: %w", column, err)
	}
	return requireRow(result, "wallet "+id)
}

// ResetWalletTotals zeroes all four per-type counters in place. Used when the
// user's only wallet is "deleted": the record stays, the totals clear.
func (c queries) ResetWalletTotals(ctx context.Context, userID, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := c.q.ExecContext(ctx,
		`UPDATE wallets SET income = 0, expense = 0, saving = 0, invest = 0 WHERE id = ? AND user_id = ?`,
		id, userID)
	if err != nil {
		return fmt.Errorf("failed to reset wallet totals: %w", err)
	}
	return requireRow(result, "wallet "+id)
}

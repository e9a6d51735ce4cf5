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

// CreateWalletParams describes a new wallet.
type CreateWalletParams struct {
	UserID string
	Name   string
	Icon   string
}

// DeleteWalletResult reports what wallet deletion actually did: a real
// delete, or — for the user's only wallet — a clear of its totals in place.
type DeleteWalletResult struct {
	Wallet              *model.Wallet
	Message             string
	TransactionsRemoved int64
	Cleared             bool
}

// TransferParams describes a wallet-to-wallet money movement.
type TransferParams struct {
	Date         time.Time
	UserID       string
	FromWalletID string
	ToWalletID   string
	Amount       decimal.Decimal
}

// TransferResult carries both wallets after the transfer landed.
type TransferResult struct {
	Source      *model.Wallet
	Destination *model.Wallet
	OutgoingID  string
	IncomingID  string
	Message     string
}

// CreateWallet creates a wallet, enforcing the wallet-count cap.
func (l *Ledger) CreateWallet(ctx context.Context, p CreateWalletParams) (*model.Wallet, error) {
	count, err := l.store.CountWallets(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if l.maxWallets > 0 && count >= l.maxWallets {
		return nil, common.NewUserError(
			fmt.Sprintf("Wallet limit of %d reached", l.maxWallets),
			common.ErrLimitReached)
	}

	wallet := &model.Wallet{
		ID:     uuid.NewString(),
		UserID: p.UserID,
		Name:   p.Name,
		Icon:   p.Icon,
	}
	if err := l.store.CreateWallet(ctx, wallet); err != nil {
		return nil, err
	}
	return wallet, nil
}

// DeleteWallet removes a wallet along with all of its transactions, giving
// each affected category back the summed contribution those transactions
// held. If this is the user's only wallet, the record survives with its
// totals zeroed instead, so the user is never left walletless.
//
// Budgets covering the removed transactions are deliberately not decremented
// here; that mirrors the long-standing behavior this engine replaces, and
// Verify reports the resulting drift. See DESIGN.md.
func (l *Ledger) DeleteWallet(ctx context.Context, userID, walletID string) (*DeleteWalletResult, error) {
	result := &DeleteWalletResult{}
	err := l.inTx(ctx, func(tx service.Tx) error {
		wallet, err := tx.GetWallet(ctx, userID, walletID)
		if err != nil {
			return common.NewUserError("Wallet not found", err)
		}

		txns, err := tx.ListTransactions(ctx, userID, service.TransactionFilter{WalletID: walletID})
		if err != nil {
			return err
		}

		// One decrement per affected category, not per transaction.
		byCategory := make(map[string]decimal.Decimal)
		for i := range txns {
			byCategory[txns[i].CategoryID] = byCategory[txns[i].CategoryID].Add(txns[i].Amount)
		}
		for categoryID, sum := range byCategory {
			if err := tx.AddToCategoryAmount(ctx, userID, categoryID, sum.Neg()); err != nil {
				return err
			}
		}

		removed, err := tx.DeleteTransactionsByWallet(ctx, userID, walletID)
		if err != nil {
			return err
		}
		result.TransactionsRemoved = removed

		count, err := tx.CountWallets(ctx, userID)
		if err != nil {
			return err
		}

		if count > 1 {
			if err := tx.DeleteWallet(ctx, userID, walletID); err != nil {
				return err
			}
			result.Wallet = wallet
			result.Message = fmt.Sprintf("Wallet %q deleted", wallet.Name)
			return nil
		}

		// Only wallet: keep the record, clear the totals.
		if err := tx.ResetWalletTotals(ctx, userID, walletID); err != nil {
			return err
		}
		cleared, err := tx.GetWallet(ctx, userID, walletID)
		if err != nil {
			return err
		}
		result.Wallet = cleared
		result.Cleared = true
		result.Message = fmt.Sprintf("Wallet %q cleared; it is your only wallet", wallet.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("wallet deletion finished",
		"wallet", walletID,
		"cleared", result.Cleared,
		"transactions_removed", result.TransactionsRemoved)
	return result, nil
}

// Transfer moves money between two wallets by synthesizing a paired expense
// and income transaction against the user's sentinel categories, both marked
// excluded so breakdown views skip them while the wallet totals still move.
func (l *Ledger) Transfer(ctx context.Context, p TransferParams) (*TransferResult, error) {
	amount := p.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("transfer amount must be positive, got %s", p.Amount)
	}
	if p.FromWalletID == p.ToWalletID {
		return nil, fmt.Errorf("cannot transfer from a wallet to itself")
	}

	result := &TransferResult{}
	err := l.inTx(ctx, func(tx service.Tx) error {
		from, err := tx.GetWallet(ctx, p.UserID, p.FromWalletID)
		if err != nil {
			return common.NewUserError("Source wallet not found", err)
		}
		to, err := tx.GetWallet(ctx, p.UserID, p.ToWalletID)
		if err != nil {
			return common.NewUserError("Destination wallet not found", err)
		}

		expenseCat, err := tx.GetSentinelCategory(ctx, p.UserID, model.TxExpense)
		if err != nil {
			return common.NewUserError("Uncategorized expense category missing", err)
		}
		incomeCat, err := tx.GetSentinelCategory(ctx, p.UserID, model.TxIncome)
		if err != nil {
			return common.NewUserError("Uncategorized income category missing", err)
		}

		date := p.Date.UTC()
		outgoing := &model.Transaction{
			ID:                uuid.NewString(),
			UserID:            p.UserID,
			WalletID:          from.ID,
			CategoryID:        expenseCat.ID,
			Name:              fmt.Sprintf("Transfer to %s", to.Name),
			Amount:            amount,
			Date:              date,
			Type:              model.TxExpense,
			ExcludeFromTotals: true,
		}
		incoming := &model.Transaction{
			ID:                uuid.NewString(),
			UserID:            p.UserID,
			WalletID:          to.ID,
			CategoryID:        incomeCat.ID,
			Name:              fmt.Sprintf("Transfer from %s", from.Name),
			Amount:            amount,
			Date:              date,
			Type:              model.TxIncome,
			ExcludeFromTotals: true,
		}

		for _, txn := range []*model.Transaction{outgoing, incoming} {
			if err := tx.CreateTransaction(ctx, txn); err != nil {
				return err
			}
			if err := applyAggregates(ctx, tx, nil, txn); err != nil {
				return err
			}
		}

		source, err := tx.GetWallet(ctx, p.UserID, from.ID)
		if err != nil {
			return err
		}
		destination, err := tx.GetWallet(ctx, p.UserID, to.ID)
		if err != nil {
			return err
		}

		result.Source = source
		result.Destination = destination
		result.OutgoingID = outgoing.ID
		result.IncomingID = incoming.ID
		result.Message = fmt.Sprintf("Transferred %s from %q to %q", amount, from.Name, to.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("transfer completed",
		"from", p.FromWalletID,
		"to", p.ToWalletID,
		"amount", amount)
	return result, nil
}

package ofx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/common"
	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/model"
	"github.com/tallyhq/tally/internal/service"
)

// Importer replays parsed OFX records into the ledger engine. Records land in
// the target wallet under the user's sentinel categories; each record's FITID
// yields a deterministic transaction id so the same file can be imported twice
// without duplicating entries.
type Importer struct {
	engine *ledger.Ledger
	store  service.Storage
}

// NewImporter creates an importer over the engine and its store.
func NewImporter(engine *ledger.Ledger, store service.Storage) *Importer {
	return &Importer{engine: engine, store: store}
}

// ImportOptions configures one import run.
type ImportOptions struct {
	UserID   string
	WalletID string
	// Progress, when set, is called after each record with (done, total).
	Progress func(done, total int)
}

// ImportResult summarizes what an import run did.
type ImportResult struct {
	Imported int
	Skipped  int
}

// importID derives a stable transaction id from the user and the bank's
// FITID. Records without a FITID fall back to a fresh id and are never
// deduplicated.
func importID(userID, fitid string) string {
	if fitid == "" {
		return uuid.NewString()
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(userID+"/"+fitid)).String()
}

// Import records every new transaction from the batch, skipping records whose
// FITID was already imported for this user.
func (i *Importer) Import(ctx context.Context, records []Record, opts ImportOptions) (*ImportResult, error) {
	if opts.WalletID == "" {
		return nil, common.NewUserError("Import requires a target wallet", nil)
	}
	if _, err := i.store.GetWallet(ctx, opts.UserID, opts.WalletID); err != nil {
		return nil, common.NewUserError("Wallet not found", err)
	}

	incomeCat, err := i.store.GetSentinelCategory(ctx, opts.UserID, model.TxIncome)
	if err != nil {
		return nil, common.NewUserError("Uncategorized income category missing; run setup first", err)
	}
	expenseCat, err := i.store.GetSentinelCategory(ctx, opts.UserID, model.TxExpense)
	if err != nil {
		return nil, common.NewUserError("Uncategorized expense category missing; run setup first", err)
	}

	result := &ImportResult{}
	for idx := range records {
		rec := &records[idx]

		id := importID(opts.UserID, rec.FITID)
		_, err := i.store.GetTransaction(ctx, opts.UserID, id)
		if err == nil {
			result.Skipped++
			if opts.Progress != nil {
				opts.Progress(idx+1, len(records))
			}
			continue
		}
		if !errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("failed to check for existing import: %w", err)
		}

		categoryID := expenseCat.ID
		if rec.Type == model.TxIncome {
			categoryID = incomeCat.ID
		}

		err = common.WithRetry(ctx, func() error {
			_, createErr := i.engine.CreateTransaction(ctx, ledger.CreateTransactionParams{
				ID:         id,
				UserID:     opts.UserID,
				WalletID:   opts.WalletID,
				CategoryID: categoryID,
				Name:       rec.Name,
				Type:       rec.Type,
				Amount:     rec.Amount,
				Date:       rec.Date,
			})
			return createErr
		}, common.RetryOptions{MaxAttempts: 3})
		if err != nil {
			return nil, fmt.Errorf("failed to import %q (%s): %w", rec.Name, rec.FITID, err)
		}

		result.Imported++
		if opts.Progress != nil {
			opts.Progress(idx+1, len(records))
		}
	}

	slog.Info("import finished",
		"wallet", opts.WalletID,
		"imported", result.Imported,
		"skipped", result.Skipped)
	return result, nil
}

// Package ledger implements the consistency engine that keeps the
// denormalized aggregate views — per-category running totals, per-wallet
// per-type totals, and per-budget spent amounts — correct across every
// transaction and wallet mutation.
//
// Every mutation runs inside a single store transaction: the row write and
// every aggregate increment it fans out into commit or roll back together,
// so a subtract-old/add-new pair is never observable half-applied.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/tallyhq/tally/internal/common"
	"github.com/tallyhq/tally/internal/service"
)

// DefaultMaxWallets is the free-tier wallet cap applied when no explicit
// limit is configured.
const DefaultMaxWallets = 10

// Ledger orchestrates transaction and wallet mutations against the store.
// It is the only component allowed to write aggregate counters.
type Ledger struct {
	store      service.Storage
	maxWallets int
}

// Options configures a Ledger.
type Options struct {
	// MaxWallets caps how many wallets a user may create. Zero means
	// DefaultMaxWallets; negative means unlimited.
	MaxWallets int
}

// New creates a ledger engine on top of the given store.
func New(store service.Storage, opts Options) *Ledger {
	maxWallets := opts.MaxWallets
	if maxWallets == 0 {
		maxWallets = DefaultMaxWallets
	}
	return &Ledger{
		store:      store,
		maxWallets: maxWallets,
	}
}

// inTx runs fn inside a single store transaction. On failure the whole
// mutation rolls back; a rollback failure after a partial update is the one
// case that surfaces ErrInconsistentState.
func (l *Ledger) inTx(ctx context.Context, fn func(tx service.Tx) error) error {
	tx, err := l.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin mutation: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w: %v (rollback failed: %v)", common.ErrInconsistentState, err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w: commit failed: %v (rollback failed: %v)", common.ErrInconsistentState, err, rbErr)
		}
		return fmt.Errorf("failed to commit mutation: %w", err)
	}
	return nil
}

// dayStart normalizes a date to 00:00:00 UTC.
func dayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dayEnd normalizes a date to the last instant of its UTC day, so budget
// window containment stays inclusive on both ends regardless of the
// transaction's time of day.
func dayEnd(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}

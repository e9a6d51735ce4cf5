package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tallyhq/tally/internal/model"
	"github.com/tallyhq/tally/internal/service"
	"github.com/tallyhq/tally/internal/storage"
)

const testUser = "user-1"

// newTestLedger creates an engine over a fresh temp-dir SQLite database.
func newTestLedger(t *testing.T) (*Ledger, service.Storage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "tally.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return New(store, Options{}), store
}

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func mustWallet(t *testing.T, l *Ledger, name string) *model.Wallet {
	t.Helper()
	w, err := l.CreateWallet(context.Background(), CreateWalletParams{UserID: testUser, Name: name})
	require.NoError(t, err)
	return w
}

func mustCategory(t *testing.T, l *Ledger, name string, txType model.TxType) *model.Category {
	t.Helper()
	c, err := l.CreateCategory(context.Background(), CreateCategoryParams{
		UserID: testUser, Name: name, Type: txType,
	})
	require.NoError(t, err)
	return c
}

func getWallet(t *testing.T, store service.Storage, id string) *model.Wallet {
	t.Helper()
	w, err := store.GetWallet(context.Background(), testUser, id)
	require.NoError(t, err)
	return w
}

func getCategory(t *testing.T, store service.Storage, id string) *model.Category {
	t.Helper()
	c, err := store.GetCategory(context.Background(), testUser, id)
	require.NoError(t, err)
	return c
}

func getBudget(t *testing.T, store service.Storage, id string) *model.Budget {
	t.Helper()
	b, err := store.GetBudget(context.Background(), testUser, id)
	require.NoError(t, err)
	return b
}

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, got.Equal(amt(want)), "amount = %s, want %s", got, want)
}

package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyhq/tally/internal/common"
	"github.com/tallyhq/tally/internal/model"
	"github.com/tallyhq/tally/internal/service"
)

const testUser = "user-1"

func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func insertWallet(t *testing.T, store *SQLiteStorage, name string) *model.Wallet {
	t.Helper()
	w := &model.Wallet{ID: uuid.NewString(), UserID: testUser, Name: name}
	require.NoError(t, store.CreateWallet(context.Background(), w))
	return w
}

func insertCategory(t *testing.T, store *SQLiteStorage, name string, txType model.TxType, deletable bool) *model.Category {
	t.Helper()
	c := &model.Category{
		ID: uuid.NewString(), UserID: testUser, Name: name,
		Type: txType, Deletable: deletable,
	}
	require.NoError(t, store.CreateCategory(context.Background(), c))
	return c
}

func insertTransaction(t *testing.T, store *SQLiteStorage, w *model.Wallet, c *model.Category, name string, amount string, date time.Time) *model.Transaction {
	t.Helper()
	txn := &model.Transaction{
		ID: uuid.NewString(), UserID: testUser,
		WalletID: w.ID, CategoryID: c.ID,
		Name: name, Amount: decimal.RequireFromString(amount),
		Date: date, Type: c.Type,
	}
	require.NoError(t, store.CreateTransaction(context.Background(), txn))
	return txn
}

func utcDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestTransactionCRUD(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	wallet := insertWallet(t, store, "Cash")
	food := insertCategory(t, store, "Food", model.TxExpense, true)

	txn := insertTransaction(t, store, wallet, food, "Lunch", "12.50", utcDay(2024, 1, 5))

	got, err := store.GetTransaction(ctx, testUser, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, txn.ID, got.ID)
	assert.Equal(t, "Lunch", got.Name)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("12.50")))
	assert.Equal(t, model.TxExpense, got.Type)
	assert.Equal(t, time.UTC, got.Date.Location())

	got.Name = "Late lunch"
	got.Amount = decimal.RequireFromString("14.25")
	require.NoError(t, store.UpdateTransaction(ctx, got))

	updated, err := store.GetTransaction(ctx, testUser, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, "Late lunch", updated.Name)
	assert.True(t, updated.Amount.Equal(decimal.RequireFromString("14.25")))

	require.NoError(t, store.DeleteTransaction(ctx, testUser, txn.ID))
	_, err = store.GetTransaction(ctx, testUser, txn.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	// A second delete reports the row is gone.
	err = store.DeleteTransaction(ctx, testUser, txn.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetTransaction_ScopedToUser(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	wallet := insertWallet(t, store, "Cash")
	food := insertCategory(t, store, "Food", model.TxExpense, true)
	txn := insertTransaction(t, store, wallet, food, "Lunch", "10", utcDay(2024, 1, 5))

	_, err := store.GetTransaction(ctx, "someone-else", txn.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListTransactions_Filters(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	cash := insertWallet(t, store, "Cash")
	bank := insertWallet(t, store, "Bank")
	food := insertCategory(t, store, "Food", model.TxExpense, true)
	salary := insertCategory(t, store, "Salary", model.TxIncome, true)

	insertTransaction(t, store, cash, food, "Groceries", "40", utcDay(2024, 1, 2))
	insertTransaction(t, store, cash, food, "Lunch", "12", utcDay(2024, 1, 10))
	insertTransaction(t, store, bank, salary, "Paycheck", "1500", utcDay(2024, 1, 25))
	insertTransaction(t, store, bank, food, "Dinner", "30", utcDay(2024, 2, 3))

	tests := []struct {
		name      string
		filter    service.TransactionFilter
		wantNames []string
	}{
		{
			name:      "no filter, newest first",
			filter:    service.TransactionFilter{},
			wantNames: []string{"Dinner", "Paycheck", "Lunch", "Groceries"},
		},
		{
			name:      "by wallet",
			filter:    service.TransactionFilter{WalletID: cash.ID},
			wantNames: []string{"Lunch", "Groceries"},
		},
		{
			name:      "by category",
			filter:    service.TransactionFilter{CategoryID: food.ID},
			wantNames: []string{"Dinner", "Lunch", "Groceries"},
		},
		{
			name:      "by type",
			filter:    service.TransactionFilter{Type: model.TxIncome},
			wantNames: []string{"Paycheck"},
		},
		{
			name: "by date window",
			filter: service.TransactionFilter{
				StartDate: timePtr(utcDay(2024, 1, 5)),
				EndDate:   timePtr(utcDay(2024, 1, 31)),
			},
			wantNames: []string{"Paycheck", "Lunch"},
		},
		{
			name:      "limit and offset",
			filter:    service.TransactionFilter{Limit: 2, Offset: 1},
			wantNames: []string{"Paycheck", "Lunch"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txns, err := store.ListTransactions(ctx, testUser, tt.filter)
			require.NoError(t, err)

			names := make([]string, len(txns))
			for i := range txns {
				names[i] = txns[i].Name
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func TestDeleteTransactionsByWallet(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	cash := insertWallet(t, store, "Cash")
	bank := insertWallet(t, store, "Bank")
	food := insertCategory(t, store, "Food", model.TxExpense, true)

	insertTransaction(t, store, cash, food, "One", "1", utcDay(2024, 1, 1))
	insertTransaction(t, store, cash, food, "Two", "2", utcDay(2024, 1, 2))
	insertTransaction(t, store, bank, food, "Three", "3", utcDay(2024, 1, 3))

	removed, err := store.DeleteTransactionsByWallet(ctx, testUser, cash.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	txns, err := store.ListTransactions(ctx, testUser, service.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "Three", txns[0].Name)

	// Deleting again affects nothing and is not an error.
	removed, err = store.DeleteTransactionsByWallet(ctx, testUser, cash.ID)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestAddToWalletTotal(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	wallet := insertWallet(t, store, "Cash")

	require.NoError(t, store.AddToWalletTotal(ctx, testUser, wallet.ID, model.TxExpense, decimal.RequireFromString("10.25")))
	require.NoError(t, store.AddToWalletTotal(ctx, testUser, wallet.ID, model.TxExpense, decimal.RequireFromString("4.75")))
	require.NoError(t, store.AddToWalletTotal(ctx, testUser, wallet.ID, model.TxIncome, decimal.RequireFromString("100")))
	require.NoError(t, store.AddToWalletTotal(ctx, testUser, wallet.ID, model.TxExpense, decimal.RequireFromString("-5")))

	got, err := store.GetWallet(ctx, testUser, wallet.ID)
	require.NoError(t, err)
	assert.True(t, got.Expense.Equal(decimal.RequireFromString("10")), "expense = %s", got.Expense)
	assert.True(t, got.Income.Equal(decimal.RequireFromString("100")))
	assert.True(t, got.Saving.IsZero())
	assert.True(t, got.Invest.IsZero())

	err = store.AddToWalletTotal(ctx, testUser, wallet.ID, model.TxType("bogus"), decimal.NewFromInt(1))
	assert.Error(t, err)

	err = store.AddToWalletTotal(ctx, testUser, "missing", model.TxExpense, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestResetWalletTotals(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	wallet := insertWallet(t, store, "Cash")
	require.NoError(t, store.AddToWalletTotal(ctx, testUser, wallet.ID, model.TxSaving, decimal.NewFromInt(50)))
	require.NoError(t, store.AddToWalletTotal(ctx, testUser, wallet.ID, model.TxInvest, decimal.NewFromInt(75)))

	require.NoError(t, store.ResetWalletTotals(ctx, testUser, wallet.ID))

	got, err := store.GetWallet(ctx, testUser, wallet.ID)
	require.NoError(t, err)
	assert.True(t, got.Saving.IsZero())
	assert.True(t, got.Invest.IsZero())
	assert.True(t, got.Balance().IsZero())
}

func TestSentinelCategoryUniqueness(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	sentinel := insertCategory(t, store, "Uncategorized expense", model.TxExpense, false)

	got, err := store.GetSentinelCategory(ctx, testUser, model.TxExpense)
	require.NoError(t, err)
	assert.Equal(t, sentinel.ID, got.ID)
	assert.False(t, got.Deletable)

	// A second sentinel of the same type for the same user is rejected.
	dup := &model.Category{
		ID: uuid.NewString(), UserID: testUser,
		Name: "Another uncategorized", Type: model.TxExpense, Deletable: false,
	}
	err = store.CreateCategory(ctx, dup)
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	// Deletable categories of the same type are unaffected.
	insertCategory(t, store, "Food", model.TxExpense, true)
	insertCategory(t, store, "Rent", model.TxExpense, true)

	_, err = store.GetSentinelCategory(ctx, testUser, model.TxIncome)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteCategory_ProtectsSentinels(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	sentinel := insertCategory(t, store, "Uncategorized expense", model.TxExpense, false)
	regular := insertCategory(t, store, "Food", model.TxExpense, true)

	err := store.DeleteCategory(ctx, testUser, sentinel.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, store.DeleteCategory(ctx, testUser, regular.ID))
	_, err = store.GetCategory(ctx, testUser, regular.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestAddToCategoryAmount(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	food := insertCategory(t, store, "Food", model.TxExpense, true)

	require.NoError(t, store.AddToCategoryAmount(ctx, testUser, food.ID, decimal.RequireFromString("33.33")))
	require.NoError(t, store.AddToCategoryAmount(ctx, testUser, food.ID, decimal.RequireFromString("-3.33")))

	got, err := store.GetCategory(ctx, testUser, food.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("30")), "amount = %s", got.Amount)

	err = store.AddToCategoryAmount(ctx, testUser, "missing", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestFindBudget(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	food := insertCategory(t, store, "Food", model.TxExpense, true)
	rent := insertCategory(t, store, "Rent", model.TxExpense, true)

	january := &model.Budget{
		ID: uuid.NewString(), UserID: testUser, CategoryID: food.ID,
		Total: decimal.NewFromInt(400),
		Begin: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC),
	}
	february := &model.Budget{
		ID: uuid.NewString(), UserID: testUser, CategoryID: food.ID,
		Total: decimal.NewFromInt(400),
		Begin: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC),
	}
	require.NoError(t, store.CreateBudget(ctx, january))
	require.NoError(t, store.CreateBudget(ctx, february))

	tests := []struct {
		name       string
		categoryID string
		date       time.Time
		wantID     string
	}{
		{"mid window", food.ID, utcDay(2024, 1, 15), january.ID},
		{"first day inclusive", food.ID, january.Begin, january.ID},
		{"last day inclusive", food.ID, january.End, january.ID},
		{"next window", food.ID, utcDay(2024, 2, 10), february.ID},
		{"before all windows", food.ID, utcDay(2023, 12, 31), ""},
		{"after all windows", food.ID, utcDay(2024, 3, 1), ""},
		{"other category", rent.ID, utcDay(2024, 1, 15), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.FindBudget(ctx, testUser, tt.categoryID, tt.date)
			require.NoError(t, err)
			if tt.wantID == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestFindOverlappingBudget(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	food := insertCategory(t, store, "Food", model.TxExpense, true)

	january := &model.Budget{
		ID: uuid.NewString(), UserID: testUser, CategoryID: food.ID,
		Total: decimal.NewFromInt(400),
		Begin: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC),
	}
	require.NoError(t, store.CreateBudget(ctx, january))

	// Straddles the existing window's tail.
	got, err := store.FindOverlappingBudget(ctx, testUser, food.ID,
		time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, january.ID, got.ID)

	// Disjoint window is fine.
	got, err = store.FindOverlappingBudget(ctx, testUser, food.ID,
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, got)

	// Inverted range is rejected outright.
	_, err = store.FindOverlappingBudget(ctx, testUser, food.ID,
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestAddToBudgetAmount(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	food := insertCategory(t, store, "Food", model.TxExpense, true)
	budget := &model.Budget{
		ID: uuid.NewString(), UserID: testUser, CategoryID: food.ID,
		Total: decimal.NewFromInt(100),
		Begin: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC),
	}
	require.NoError(t, store.CreateBudget(ctx, budget))

	require.NoError(t, store.AddToBudgetAmount(ctx, testUser, budget.ID, decimal.RequireFromString("35")))
	require.NoError(t, store.AddToBudgetAmount(ctx, testUser, budget.ID, decimal.RequireFromString("5")))
	require.NoError(t, store.AddToBudgetAmount(ctx, testUser, budget.ID, decimal.RequireFromString("-10")))

	got, err := store.GetBudget(ctx, testUser, budget.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(30)), "amount = %s", got.Amount)
	assert.True(t, got.Remaining().Equal(decimal.NewFromInt(70)))

	err = store.AddToBudgetAmount(ctx, testUser, "missing", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreateBudget_ExactDuplicateWindow(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	food := insertCategory(t, store, "Food", model.TxExpense, true)
	window := model.Budget{
		UserID: testUser, CategoryID: food.ID,
		Total: decimal.NewFromInt(100),
		Begin: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC),
	}

	first := window
	first.ID = uuid.NewString()
	require.NoError(t, store.CreateBudget(ctx, &first))

	second := window
	second.ID = uuid.NewString()
	err := store.CreateBudget(ctx, &second)
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)
}

func TestTransactionalCommitAndRollback(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	wallet := insertWallet(t, store, "Cash")

	// Rolled-back increment leaves no trace.
	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.AddToWalletTotal(ctx, testUser, wallet.ID, model.TxExpense, decimal.NewFromInt(10)))
	require.NoError(t, tx.Rollback())

	got, err := store.GetWallet(ctx, testUser, wallet.ID)
	require.NoError(t, err)
	assert.True(t, got.Expense.IsZero())

	// Committed increment sticks.
	tx, err = store.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.AddToWalletTotal(ctx, testUser, wallet.ID, model.TxExpense, decimal.NewFromInt(10)))
	require.NoError(t, tx.Commit())

	got, err = store.GetWallet(ctx, testUser, wallet.ID)
	require.NoError(t, err)
	assert.True(t, got.Expense.Equal(decimal.NewFromInt(10)))
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := createTestStorage(t)
	require.NoError(t, store.Migrate(context.Background()))
	require.NoError(t, store.Migrate(context.Background()))
}

func TestMarkRetryable(t *testing.T) {
	busy := sqlite3.Error{Code: sqlite3.ErrBusy}
	assert.True(t, common.IsRetryable(markRetryable(busy)))

	locked := sqlite3.Error{Code: sqlite3.ErrLocked}
	assert.True(t, common.IsRetryable(markRetryable(locked)))

	// Constraint failures are caller mistakes, never retried.
	constraint := sqlite3.Error{Code: sqlite3.ErrConstraint}
	assert.False(t, common.IsRetryable(markRetryable(constraint)))

	assert.False(t, common.IsRetryable(markRetryable(errors.New("boom"))))
	assert.NoError(t, markRetryable(nil))
}

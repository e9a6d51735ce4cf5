// Package service defines the interfaces between the ledger engine and the
// persistence layer.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	WalletID   string
	CategoryID string
	Type       model.TxType
	Limit      int
	Offset     int
}

// Storage defines the contract for the ledger store. Aggregate counters
// (category amount, wallet per-type totals, budget spent amount) are only
// ever written through the AddTo* atomic increments, never read-modify-write.
type Storage interface {
	// Transaction operations.
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransaction(ctx context.Context, userID, id string) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id string) error
	ListTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]model.Transaction, error)
	DeleteTransactionsByWallet(ctx context.Context, userID, walletID string) (int64, error)

	// Wallet operations.
	CreateWallet(ctx context.Context, wallet *model.Wallet) error
	GetWallet(ctx context.Context, userID, id string) (*model.Wallet, error)
	ListWallets(ctx context.Context, userID string) ([]model.Wallet, error)
	CountWallets(ctx context.Context, userID string) (int, error)
	DeleteWallet(ctx context.Context, userID, id string) error
	AddToWalletTotal(ctx context.Context, userID, id string, txType model.TxType, delta decimal.Decimal) error
	ResetWalletTotals(ctx context.Context, userID, id string) error

	// Category operations.
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategory(ctx context.Context, userID, id string) (*model.Category, error)
	GetSentinelCategory(ctx context.Context, userID string, txType model.TxType) (*model.Category, error)
	ListCategories(ctx context.Context, userID string) ([]model.Category, error)
	DeleteCategory(ctx context.Context, userID, id string) error
	AddToCategoryAmount(ctx context.Context, userID, id string, delta decimal.Decimal) error
	CountTransactionsByCategory(ctx context.Context, userID, categoryID string) (int, error)

	// Budget operations. FindBudget is the budget locator: it returns the
	// budget whose inclusive window contains the date, or nil when none does.
	CreateBudget(ctx context.Context, budget *model.Budget) error
	GetBudget(ctx context.Context, userID, id string) (*model.Budget, error)
	ListBudgets(ctx context.Context, userID string) ([]model.Budget, error)
	DeleteBudget(ctx context.Context, userID, id string) error
	FindBudget(ctx context.Context, userID, categoryID string, date time.Time) (*model.Budget, error)
	FindOverlappingBudget(ctx context.Context, userID, categoryID string, begin, end time.Time) (*model.Budget, error)
	AddToBudgetAmount(ctx context.Context, userID, id string, delta decimal.Decimal) error

	// Database management.
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Tx, error)
	Close() error
}

// Tx is a store transaction: the full Storage surface plus commit and
// rollback. One logical ledger mutation (row write + every aggregate
// increment it fans out into) runs inside a single Tx so a half-applied
// subtract-old/add-new pair is never observable.
type Tx interface {
	Commit() error
	Rollback() error
	Storage
}

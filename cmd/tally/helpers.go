package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/tallyhq/tally/internal/common"
	"github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/service"
	"github.com/tallyhq/tally/internal/storage"
)

// initStorage opens the configured SQLite database and runs migrations.
func initStorage(ctx context.Context) (service.Storage, *config.Server, error) {
	cfg, err := config.LoadServer()
	if err != nil {
		return nil, nil, err
	}

	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, cfg, nil
}

// initEngine opens storage and builds the ledger engine over it. The caller
// owns closing the returned store.
func initEngine(ctx context.Context) (*ledger.Ledger, service.Storage, error) {
	store, cfg, err := initStorage(ctx)
	if err != nil {
		return nil, nil, err
	}
	return ledger.New(store, ledger.Options{MaxWallets: cfg.MaxWallets}), store, nil
}

// requireUser resolves the acting user from --user or TALLY_USER.
func requireUser() (string, error) {
	if user := viper.GetString("user"); user != "" {
		return user, nil
	}
	if user := os.Getenv("TALLY_USER"); user != "" {
		return user, nil
	}
	return "", fmt.Errorf("%w: user id (set --user or TALLY_USER)", common.ErrMissingConfig)
}

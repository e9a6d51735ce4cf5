package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tallyhq/tally/internal/api"
	"github.com/tallyhq/tally/internal/ledger"
)

func serveCmd() *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Serves the ledger over HTTP. Clients identify themselves with the
X-Tally-User header; every mutation keeps the aggregate views consistent.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, cfg, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			addr := cfg.ListenAddr
			if listenAddr != "" {
				addr = listenAddr
			}

			engine := ledger.New(store, ledger.Options{MaxWallets: cfg.MaxWallets})
			srv := api.NewServer(addr, engine, store)

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				slog.Info("listening", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				slog.Info("shutting down server")
				return srv.Shutdown(shutdownCtx)
			})

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "", "listen address (overrides config)")
	return cmd
}

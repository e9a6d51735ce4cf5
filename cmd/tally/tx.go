package main

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tallyhq/tally/internal/cli"
	"github.com/tallyhq/tally/internal/common"
	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/model"
	"github.com/tallyhq/tally/internal/service"
)

func txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Record, list, edit and delete transactions",
	}
	cmd.AddCommand(txAddCmd())
	cmd.AddCommand(txListCmd())
	cmd.AddCommand(txEditCmd())
	cmd.AddCommand(txDeleteCmd())
	return cmd
}

// parseDay parses a YYYY-MM-DD argument, defaulting to today.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

func parsePositiveAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be positive, got %s", s)
	}
	return amount, nil
}

func txAddCmd() *cobra.Command {
	var (
		walletID   string
		categoryID string
		txType     string
		dateStr    string
		exclude    bool
	)

	cmd := &cobra.Command{
		Use:   "add <name> <amount>",
		Short: "Record a new transaction",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			amount, err := parsePositiveAmount(args[1])
			if err != nil {
				return err
			}
			parsedType, err := model.ParseTxType(txType)
			if err != nil {
				return err
			}
			date, err := parseDay(dateStr)
			if err != nil {
				return err
			}

			engine, store, err := initEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txn, err := engine.CreateTransaction(cmd.Context(), ledger.CreateTransactionParams{
				UserID:            user,
				WalletID:          walletID,
				CategoryID:        categoryID,
				Name:              args[0],
				Type:              parsedType,
				Amount:            amount,
				Date:              date,
				ExcludeFromTotals: exclude,
			})
			if err != nil {
				fmt.Println(cli.FormatError(common.UserMessage(err)))
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Recorded %q for %s (%s)",
				txn.Name, cli.FormatAmount(txn.Amount), txn.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&walletID, "wallet", "", "wallet id (required)")
	cmd.Flags().StringVar(&categoryID, "category", "", "category id (required)")
	cmd.Flags().StringVar(&txType, "type", "expense", "transaction type (income, expense, saving, invest)")
	cmd.Flags().StringVar(&dateStr, "date", "", "transaction date, YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&exclude, "exclude", false, "exclude from breakdown views")
	_ = cmd.MarkFlagRequired("wallet")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func txListCmd() *cobra.Command {
	var (
		walletID   string
		categoryID string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}

			_, store, err := initEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txns, err := store.ListTransactions(cmd.Context(), user, service.TransactionFilter{
				WalletID:   walletID,
				CategoryID: categoryID,
				Limit:      limit,
			})
			if err != nil {
				return err
			}
			if len(txns) == 0 {
				fmt.Println(cli.FormatInfo("No transactions found"))
				return nil
			}

			fmt.Println(cli.TableHeaderStyle.Render(cli.RenderRow("DATE", "TYPE", "AMOUNT", "NAME", "ID")))
			for i := range txns {
				t := &txns[i]
				fmt.Println(cli.RenderRow(
					t.Date.Format("2006-01-02"),
					string(t.Type),
					cli.FormatAmount(t.Amount),
					t.Name,
					cli.SubtleStyle.Render(t.ID),
				))
			}
			fmt.Println(cli.SubtleStyle.Render(cli.FormatCount(len(txns), "transaction")))
			return nil
		},
	}

	cmd.Flags().StringVar(&walletID, "wallet", "", "filter by wallet id")
	cmd.Flags().StringVar(&categoryID, "category", "", "filter by category id")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows to show")

	return cmd
}

func txEditCmd() *cobra.Command {
	var (
		walletID   string
		categoryID string
		name       string
		amountStr  string
		dateStr    string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a transaction; only provided flags change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}

			params := ledger.UpdateTransactionParams{UserID: user, ID: args[0]}
			if cmd.Flags().Changed("wallet") {
				params.WalletID = &walletID
			}
			if cmd.Flags().Changed("category") {
				params.CategoryID = &categoryID
			}
			if cmd.Flags().Changed("name") {
				params.Name = &name
			}
			if cmd.Flags().Changed("amount") {
				amount, err := parsePositiveAmount(amountStr)
				if err != nil {
					return err
				}
				params.Amount = &amount
			}
			if cmd.Flags().Changed("date") {
				date, err := parseDay(dateStr)
				if err != nil {
					return err
				}
				params.Date = &date
			}

			engine, store, err := initEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txn, err := engine.UpdateTransaction(cmd.Context(), params)
			if err != nil {
				fmt.Println(cli.FormatError(common.UserMessage(err)))
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated %q, now %s on %s",
				txn.Name, cli.FormatAmount(txn.Amount), txn.Date.Format("2006-01-02"))))
			return nil
		},
	}

	cmd.Flags().StringVar(&walletID, "wallet", "", "move to wallet id")
	cmd.Flags().StringVar(&categoryID, "category", "", "move to category id")
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&amountStr, "amount", "", "new amount")
	cmd.Flags().StringVar(&dateStr, "date", "", "new date, YYYY-MM-DD")

	return cmd
}

func txDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction and release its totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}

			engine, store, err := initEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txn, err := engine.DeleteTransaction(cmd.Context(), user, args[0])
			if err != nil {
				fmt.Println(cli.FormatError(common.UserMessage(err)))
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted %q (%s)",
				txn.Name, cli.FormatAmount(txn.Amount))))
			return nil
		},
	}
}

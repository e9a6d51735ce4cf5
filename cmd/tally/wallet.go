package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tallyhq/tally/internal/cli"
	"github.com/tallyhq/tally/internal/common"
	"github.com/tallyhq/tally/internal/ledger"
)

func walletCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Manage wallets",
	}
	cmd.AddCommand(walletAddCmd())
	cmd.AddCommand(walletListCmd())
	cmd.AddCommand(walletDeleteCmd())
	return cmd
}

func walletAddCmd() *cobra.Command {
	var icon string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a new wallet",
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

			wallet, err := engine.CreateWallet(cmd.Context(), ledger.CreateWalletParams{
				UserID: user,
				Name:   args[0],
				Icon:   icon,
			})
			if err != nil {
				fmt.Println(cli.FormatError(common.UserMessage(err)))
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created wallet %q (%s)", wallet.Name, wallet.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&icon, "icon", "", "wallet icon")
	return cmd
}

func walletListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List wallets with their running totals",
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

			wallets, err := store.ListWallets(cmd.Context(), user)
			if err != nil {
				return err
			}
			if len(wallets) == 0 {
				fmt.Println(cli.FormatInfo("No wallets yet; create one with: tally wallet add"))
				return nil
			}

			fmt.Println(cli.TableHeaderStyle.Render(cli.RenderRow(
				"NAME", "INCOME", "EXPENSE", "SAVING", "INVEST", "BALANCE", "ID")))
			for i := range wallets {
				w := &wallets[i]
				fmt.Println(cli.RenderRow(
					w.Name,
					cli.FormatAmount(w.Income),
					cli.FormatAmount(w.Expense),
					cli.FormatAmount(w.Saving),
					cli.FormatAmount(w.Invest),
					cli.FormatAmount(w.Balance()),
					cli.SubtleStyle.Render(w.ID),
				))
			}
			return nil
		},
	}
}

func walletDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a wallet and all of its transactions",
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

			result, err := engine.DeleteWallet(cmd.Context(), user, args[0])
			if err != nil {
				fmt.Println(cli.FormatError(common.UserMessage(err)))
				return err
			}

			fmt.Println(cli.FormatSuccess(result.Message))
			if result.TransactionsRemoved > 0 {
				fmt.Println(cli.SubtleStyle.Render(
					fmt.Sprintf("Removed %d transactions", result.TransactionsRemoved)))
			}
			return nil
		},
	}
}

func transferCmd() *cobra.Command {
	var (
		fromID  string
		toID    string
		dateStr string
	)

	cmd := &cobra.Command{
		Use:   "transfer <amount>",
		Short: "Move money between two wallets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			amount, err := parsePositiveAmount(args[0])
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

			result, err := engine.Transfer(cmd.Context(), ledger.TransferParams{
				UserID:       user,
				FromWalletID: fromID,
				ToWalletID:   toID,
				Amount:       amount,
				Date:         date,
			})
			if err != nil {
				fmt.Println(cli.FormatError(common.UserMessage(err)))
				return err
			}

			fmt.Println(cli.FormatSuccess(result.Message))
			fmt.Println(cli.RenderRow(
				result.Source.Name, "balance", cli.FormatAmount(result.Source.Balance())))
			fmt.Println(cli.RenderRow(
				result.Destination.Name, "balance", cli.FormatAmount(result.Destination.Balance())))
			return nil
		},
	}

	cmd.Flags().StringVar(&fromID, "from", "", "source wallet id (required)")
	cmd.Flags().StringVar(&toID, "to", "", "destination wallet id (required)")
	cmd.Flags().StringVar(&dateStr, "date", "", "transfer date, YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

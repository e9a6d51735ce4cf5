package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tallyhq/tally/internal/cli"
	"github.com/tallyhq/tally/internal/common"
	"github.com/tallyhq/tally/internal/ledger"
)

func budgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage per-category budget windows",
	}
	cmd.AddCommand(budgetAddCmd())
	cmd.AddCommand(budgetListCmd())
	cmd.AddCommand(budgetDeleteCmd())
	return cmd
}

func budgetAddCmd() *cobra.Command {
	var (
		categoryID string
		beginStr   string
		endStr     string
	)

	cmd := &cobra.Command{
		Use:   "add <total>",
		Short: "Create a budget window for a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			total, err := parsePositiveAmount(args[0])
			if err != nil {
				return err
			}
			begin, err := parseDay(beginStr)
			if err != nil {
				return err
			}
			end, err := parseDay(endStr)
			if err != nil {
				return err
			}

			engine, store, err := initEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			budget, err := engine.CreateBudget(cmd.Context(), ledger.CreateBudgetParams{
				UserID:     user,
				CategoryID: categoryID,
				Total:      total,
				Begin:      begin,
				End:        end,
			})
			if err != nil {
				fmt.Println(cli.FormatError(common.UserMessage(err)))
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Budget of %s from %s to %s (%s)",
				cli.FormatAmount(budget.Total),
				budget.Begin.Format("2006-01-02"),
				budget.End.Format("2006-01-02"),
				budget.ID)))
			if !budget.Amount.IsZero() {
				fmt.Println(cli.FormatInfo(fmt.Sprintf("Already spent in this window: %s",
					cli.FormatAmount(budget.Amount))))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&categoryID, "category", "", "category id (required)")
	cmd.Flags().StringVar(&beginStr, "begin", "", "window start, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&endStr, "end", "", "window end, YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("begin")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func budgetListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List budgets with spent and remaining amounts",
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

			budgets, err := store.ListBudgets(cmd.Context(), user)
			if err != nil {
				return err
			}
			if len(budgets) == 0 {
				fmt.Println(cli.FormatInfo("No budgets yet"))
				return nil
			}

			fmt.Println(cli.TableHeaderStyle.Render(cli.RenderRow(
				"WINDOW", "CATEGORY", "TOTAL", "SPENT", "REMAINING", "ID")))
			for i := range budgets {
				b := &budgets[i]
				window := fmt.Sprintf("%s … %s",
					b.Begin.Format("2006-01-02"), b.End.Format("2006-01-02"))
				fmt.Println(cli.RenderRow(
					window,
					b.CategoryID,
					cli.FormatAmount(b.Total),
					cli.FormatAmount(b.Amount),
					cli.FormatAmount(b.Remaining()),
					cli.SubtleStyle.Render(b.ID),
				))
			}
			return nil
		},
	}
}

func budgetDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a budget window",
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

			if err := engine.DeleteBudget(cmd.Context(), user, args[0]); err != nil {
				fmt.Println(cli.FormatError(common.UserMessage(err)))
				return err
			}

			fmt.Println(cli.FormatSuccess("Budget deleted"))
			return nil
		},
	}
}

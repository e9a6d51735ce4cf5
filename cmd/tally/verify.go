package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tallyhq/tally/internal/cli"
)

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Recompute every aggregate and report drift",
		Long: `Recomputes category totals, wallet per-type totals and budget spent
amounts from the raw transactions and compares them with the stored values.
A clean report means every denormalized view agrees with the ledger.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}

			engine, store, err := initEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			report, err := engine.Verify(cmd.Context(), user)
			if err != nil {
				return err
			}

			checked := fmt.Sprintf("%s, %s, %s checked",
				cli.FormatCount(report.CategoriesChecked, "category"),
				cli.FormatCount(report.WalletsChecked, "wallet"),
				cli.FormatCount(report.BudgetsChecked, "budget"))

			if report.Clean() {
				fmt.Println(cli.FormatSuccess("All aggregates agree with the ledger"))
				fmt.Println(cli.SubtleStyle.Render(checked))
				return nil
			}

			fmt.Println(cli.FormatWarning(fmt.Sprintf("Found %s",
				cli.FormatCount(len(report.Mismatches), "mismatch"))))
			for _, m := range report.Mismatches {
				fmt.Println(cli.RenderRow(
					m.Kind,
					m.Name,
					fmt.Sprintf("stored %s", cli.FormatAmount(m.Stored)),
					fmt.Sprintf("computed %s", cli.FormatAmount(m.Computed)),
				))
			}
			fmt.Println(cli.SubtleStyle.Render(checked))
			return fmt.Errorf("%d aggregates drifted", len(report.Mismatches))
		},
	}
}

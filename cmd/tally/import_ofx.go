package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/tallyhq/tally/internal/cli"
	"github.com/tallyhq/tally/internal/common"
	"github.com/tallyhq/tally/internal/ofx"
)

func importOFXCmd() *cobra.Command {
	var walletID string

	cmd := &cobra.Command{
		Use:   "import-ofx <file>",
		Short: "Import transactions from an OFX/QFX bank export",
		Long: `Parses an OFX or QFX statement and records every transaction into the
target wallet under the uncategorized categories. Records carry a stable id
derived from the bank's FITID, so re-importing the same file is a no-op.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer func() { _ = file.Close() }()

			records, err := ofx.NewParser().ParseFile(cmd.Context(), file)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println(cli.FormatInfo("No transactions found in file"))
				return nil
			}

			engine, store, err := initEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			bar := progressbar.NewOptions(len(records),
				progressbar.OptionSetWriter(os.Stdout),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("[cyan][bold]Importing transactions...[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)

			importer := ofx.NewImporter(engine, store)
			result, err := importer.Import(cmd.Context(), records, ofx.ImportOptions{
				UserID:   user,
				WalletID: walletID,
				Progress: func(_, _ int) { _ = bar.Add(1) },
			})
			if err != nil {
				fmt.Println(cli.FormatError(common.UserMessage(err)))
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %s, skipped %s already present",
				cli.FormatCount(result.Imported, "transaction"),
				cli.FormatCount(result.Skipped, "record"))))
			return nil
		},
	}

	cmd.Flags().StringVar(&walletID, "wallet", "", "target wallet id (required)")
	_ = cmd.MarkFlagRequired("wallet")

	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tallyhq/tally/internal/cli"
	"github.com/tallyhq/tally/internal/common"
	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/model"
)

func setupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create the protected uncategorized categories for the user",
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

			categories, err := engine.SetupUser(cmd.Context(), user)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess("User is ready"))
			for i := range categories {
				fmt.Println(cli.RenderRow(categories[i].Name, string(categories[i].Type),
					cli.SubtleStyle.Render(categories[i].ID)))
			}
			return nil
		},
	}
}

func categoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage categories",
	}
	cmd.AddCommand(categoryAddCmd())
	cmd.AddCommand(categoryListCmd())
	cmd.AddCommand(categoryDeleteCmd())
	return cmd
}

func categoryAddCmd() *cobra.Command {
	var (
		txType string
		icon   string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a new category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			parsedType, err := model.ParseTxType(txType)
			if err != nil {
				return err
			}

			engine, store, err := initEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			category, err := engine.CreateCategory(cmd.Context(), ledger.CreateCategoryParams{
				UserID: user,
				Name:   args[0],
				Icon:   icon,
				Type:   parsedType,
			})
			if err != nil {
				fmt.Println(cli.FormatError(common.UserMessage(err)))
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created category %q (%s)", category.Name, category.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&txType, "type", "expense", "category type (income, expense, saving, invest)")
	cmd.Flags().StringVar(&icon, "icon", "", "category icon")
	return cmd
}

func categoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories with their running totals",
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

			categories, err := store.ListCategories(cmd.Context(), user)
			if err != nil {
				return err
			}
			if len(categories) == 0 {
				fmt.Println(cli.FormatInfo("No categories yet; run: tally setup"))
				return nil
			}

			fmt.Println(cli.TableHeaderStyle.Render(cli.RenderRow("NAME", "TYPE", "TOTAL", "ID")))
			for i := range categories {
				c := &categories[i]
				name := c.Name
				if c.IsSentinel() {
					name = name + " " + cli.SubtleStyle.Render("(protected)")
				}
				fmt.Println(cli.RenderRow(
					name,
					string(c.Type),
					cli.FormatAmount(c.Amount),
					cli.SubtleStyle.Render(c.ID),
				))
			}
			return nil
		},
	}
}

func categoryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an unused category",
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

			if err := engine.DeleteCategory(cmd.Context(), user, args[0]); err != nil {
				fmt.Println(cli.FormatError(common.UserMessage(err)))
				return err
			}

			fmt.Println(cli.FormatSuccess("Category deleted"))
			return nil
		},
	}
}

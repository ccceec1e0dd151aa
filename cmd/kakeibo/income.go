package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/karasuda/kakeibo/internal/cli"
	"github.com/karasuda/kakeibo/internal/model"
	"github.com/karasuda/kakeibo/internal/service"
)

func incomeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "income",
		Short: "Record and manage income",
	}

	cmd.AddCommand(listIncomeCmd())
	cmd.AddCommand(addIncomeCmd())
	cmd.AddCommand(updateIncomeCmd())
	cmd.AddCommand(confirmIncomeCmd())
	cmd.AddCommand(deleteIncomeCmd())

	return cmd
}

func listIncomeCmd() *cobra.Command {
	var flags transactionFilterFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List income records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			filter, err := flags.build()
			if err != nil {
				return err
			}

			records, err := store.ListIncome(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list income: %w", err)
			}
			if len(records) == 0 {
				fmt.Println(cli.InfoStyle.Render("No income records match."))
				return nil
			}

			currency := configuredCurrency(ctx, store)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("ID"),
				cli.HeaderStyle.Render("Date"),
				cli.HeaderStyle.Render("User"),
				cli.HeaderStyle.Render("Category"),
				cli.HeaderStyle.Render("Amount"),
				cli.HeaderStyle.Render("Status"),
				cli.HeaderStyle.Render("Description"))
			for _, in := range records {
				fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\t%s\t%s\n",
					in.ID, in.Date, in.UserID, in.CategoryID,
					formatAmount(in.Amount, currency), in.Status, in.Description)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&flags.user, "user", 0, "Filter by user id")
	cmd.Flags().IntVar(&flags.category, "category", 0, "Filter by category id")
	cmd.Flags().StringVar(&flags.from, "from", "", "Earliest date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.to, "to", "", "Latest date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&flags.tag, "tag", "", "Filter by tag")
	return cmd
}

func addIncomeCmd() *cobra.Command {
	var (
		userID      int
		categoryID  int
		date        string
		description string
		tags        []string
	)

	cmd := &cobra.Command{
		Use:   "add <amount>",
		Short: "Record new income",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			incomeDate, err := parseDateFlag(date)
			if err != nil {
				return err
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}

			created, err := store.CreateIncome(ctx, &model.Income{
				Date:        incomeDate,
				CategoryID:  categoryID,
				Amount:      amount,
				Description: description,
				UserID:      userID,
				Tags:        tags,
			})
			if err != nil {
				return fmt.Errorf("failed to create income: %w", err)
			}

			currency := configuredCurrency(ctx, store)
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Recorded income %s (ID: %d)",
				formatAmount(created.Amount, currency), created.ID)))
			return nil
		},
	}

	cmd.Flags().IntVar(&userID, "user", 0, "User id (required)")
	cmd.Flags().IntVar(&categoryID, "category", 0, "Income category id (required)")
	cmd.Flags().StringVar(&date, "date", "", "Date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Tags")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func updateIncomeCmd() *cobra.Command {
	var (
		userID      int
		categoryID  int
		amountArg   string
		date        string
		description string
		tags        []string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an income record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}

			var patch service.IncomePatch
			if cmd.Flags().Changed("user") {
				patch.UserID = &userID
			}
			if cmd.Flags().Changed("category") {
				patch.CategoryID = &categoryID
			}
			if cmd.Flags().Changed("amount") {
				amount, err := parseAmount(amountArg)
				if err != nil {
					return err
				}
				patch.Amount = &amount
			}
			if cmd.Flags().Changed("date") {
				d, err := model.ParseDate(date)
				if err != nil {
					return err
				}
				patch.Date = &d
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("tags") {
				patch.Tags = &tags
			}

			updated, err := store.UpdateIncome(ctx, id, patch)
			if err != nil {
				return fmt.Errorf("failed to update income: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Updated income %d", updated.ID)))
			return nil
		},
	}

	cmd.Flags().IntVar(&userID, "user", 0, "New user id")
	cmd.Flags().IntVar(&categoryID, "category", 0, "New category id")
	cmd.Flags().StringVar(&amountArg, "amount", "", "New amount")
	cmd.Flags().StringVar(&date, "date", "", "New date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "New tags")
	return cmd
}

func confirmIncomeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <id>",
		Short: "Mark an income record as confirmed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			status := model.IncomeStatusConfirmed
			if _, err := store.UpdateIncome(ctx, id, service.IncomePatch{Status: &status}); err != nil {
				return fmt.Errorf("failed to confirm income: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Confirmed income %d", id)))
			return nil
		},
	}
}

func deleteIncomeCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Move an income record to the trash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			entry, err := store.MoveToTrash(ctx, model.KindIncome, id, reason)
			if err != nil {
				return fmt.Errorf("failed to delete income: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Moved income %d to trash (%s)", id, entry.TrashID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Deletion reason")
	return cmd
}

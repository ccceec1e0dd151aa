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

func expensesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expenses",
		Short: "Record and manage expenses",
	}

	cmd.AddCommand(listExpensesCmd())
	cmd.AddCommand(addExpenseCmd())
	cmd.AddCommand(updateExpenseCmd())
	cmd.AddCommand(approveExpenseCmd())
	cmd.AddCommand(rejectExpenseCmd())
	cmd.AddCommand(deleteExpenseCmd())

	return cmd
}

func listExpensesCmd() *cobra.Command {
	var flags transactionFilterFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses",
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

			expenses, err := store.ListExpenses(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list expenses: %w", err)
			}
			if len(expenses) == 0 {
				fmt.Println(cli.InfoStyle.Render("No expenses match."))
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
			for _, e := range expenses {
				fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\t%s\t%s\n",
					e.ID, e.Date, e.UserID, e.CategoryID,
					formatAmount(e.Amount, currency), e.Status, e.Description)
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

func addExpenseCmd() *cobra.Command {
	var (
		userID      int
		categoryID  int
		date        string
		description string
		tags        []string
	)

	cmd := &cobra.Command{
		Use:   "add <amount>",
		Short: "Record a new expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			expenseDate, err := parseDateFlag(date)
			if err != nil {
				return err
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}

			created, err := store.CreateExpense(ctx, &model.Expense{
				Date:        expenseDate,
				CategoryID:  categoryID,
				Amount:      amount,
				Description: description,
				UserID:      userID,
				Tags:        tags,
			})
			if err != nil {
				return fmt.Errorf("failed to create expense: %w", err)
			}

			currency := configuredCurrency(ctx, store)
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Recorded expense %s (ID: %d)",
				formatAmount(created.Amount, currency), created.ID)))
			return nil
		},
	}

	cmd.Flags().IntVar(&userID, "user", 0, "User id (required)")
	cmd.Flags().IntVar(&categoryID, "category", 0, "Expense category id (required)")
	cmd.Flags().StringVar(&date, "date", "", "Date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Tags")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func updateExpenseCmd() *cobra.Command {
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
		Short: "Update an expense",
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

			var patch service.ExpensePatch
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

			updated, err := store.UpdateExpense(ctx, id, patch)
			if err != nil {
				return fmt.Errorf("failed to update expense: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Updated expense %d", updated.ID)))
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

func approveExpenseCmd() *cobra.Command {
	var approverID int

	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve an expense",
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
			if _, err := store.ApproveExpense(ctx, id, approverID); err != nil {
				return fmt.Errorf("failed to approve expense: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Approved expense %d", id)))
			return nil
		},
	}

	cmd.Flags().IntVar(&approverID, "by", 0, "Approving user id (required)")
	_ = cmd.MarkFlagRequired("by")
	return cmd
}

func rejectExpenseCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject an expense",
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
			if _, err := store.RejectExpense(ctx, id, reason); err != nil {
				return fmt.Errorf("failed to reject expense: %w", err)
			}
			fmt.Println(cli.WarningStyle.Render(fmt.Sprintf("✗ Rejected expense %d: %s", id, reason)))
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Rejection reason (required)")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func deleteExpenseCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Move an expense to the trash",
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
			entry, err := store.MoveToTrash(ctx, model.KindExpense, id, reason)
			if err != nil {
				return fmt.Errorf("failed to delete expense: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Moved expense %d to trash (%s)", id, entry.TrashID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Deletion reason")
	return cmd
}

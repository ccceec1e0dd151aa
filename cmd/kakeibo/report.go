package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/karasuda/kakeibo/internal/cli"
	"github.com/karasuda/kakeibo/internal/model"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summaries computed from the ledger",
	}

	cmd.AddCommand(userReportCmd())
	cmd.AddCommand(categoryReportCmd())

	return cmd
}

func userReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "user <id>",
		Short: "Per-user totals and activity",
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
			user, err := store.GetUser(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get user: %w", err)
			}
			summary, err := store.UserSummary(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to compute user summary: %w", err)
			}

			currency := configuredCurrency(ctx, store)

			fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("Summary for %s <%s>", user.Name, user.Email)))
			fmt.Printf("  Expenses:     %s across %d record(s)\n",
				formatAmount(summary.TotalExpenses, currency), summary.ExpenseCount)
			fmt.Printf("  Income:       %s across %d record(s)\n",
				formatAmount(summary.TotalIncome, currency), summary.IncomeCount)
			fmt.Printf("  Net:          %s\n",
				formatAmount(summary.TotalIncome.Sub(summary.TotalExpenses), currency))
			fmt.Printf("  Transactions: %d\n", summary.TransactionCount)
			if summary.LastActivity != nil {
				fmt.Printf("  Last active:  %s\n", summary.LastActivity.Format("2006-01-02 15:04"))
			} else {
				fmt.Printf("  Last active:  %s\n", cli.SubtleStyle.Render("never"))
			}
			return nil
		},
	}
}

func categoryReportCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Per-category totals for one transaction kind",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			transactionKind := model.TransactionKind(kind)
			if !transactionKind.Valid() {
				return fmt.Errorf("invalid transaction kind %q: must be expense or income", kind)
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			totals, err := store.CategoryBreakdown(ctx, transactionKind)
			if err != nil {
				return fmt.Errorf("failed to compute category breakdown: %w", err)
			}
			if len(totals) == 0 {
				fmt.Println(cli.InfoStyle.Render("No transactions recorded."))
				return nil
			}

			currency := configuredCurrency(ctx, store)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("ID"),
				cli.HeaderStyle.Render("Category"),
				cli.HeaderStyle.Render("Total"),
				cli.HeaderStyle.Render("Count"))
			for _, t := range totals {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\n",
					t.CategoryID, t.CategoryName, formatAmount(t.Total, currency), t.Count)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "expense", "Transaction kind (expense or income)")
	return cmd
}

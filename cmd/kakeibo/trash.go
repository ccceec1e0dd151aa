package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/karasuda/kakeibo/internal/cli"
	"github.com/karasuda/kakeibo/internal/model"
	"github.com/karasuda/kakeibo/internal/service"
)

func trashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trash",
		Short: "Inspect and recover soft-deleted records",
	}

	cmd.AddCommand(listTrashCmd())
	cmd.AddCommand(restoreTrashCmd())
	cmd.AddCommand(purgeTrashCmd())
	cmd.AddCommand(emptyTrashCmd())
	cmd.AddCommand(cleanupTrashCmd())

	return cmd
}

func listTrashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List trashed records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			entries, err := store.ListTrash(ctx)
			if err != nil {
				return fmt.Errorf("failed to list trash: %w", err)
			}
			if len(entries) == 0 {
				fmt.Println(cli.InfoStyle.Render("Trash is empty."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("Trash ID"),
				cli.HeaderStyle.Render("Type"),
				cli.HeaderStyle.Render("Deleted"),
				cli.HeaderStyle.Render("Reason"))
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					e.TrashID, e.OriginalType,
					e.DeletedAt.Format("2006-01-02 15:04"), e.DeletedReason)
			}
			return nil
		},
	}
}

func restoreTrashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <trash-id>",
		Short: "Restore a trashed record to its collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			kind, id, err := store.RestoreFromTrash(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to restore from trash: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Restored %s (ID: %d)", kind, id)))
			return nil
		},
	}
}

func purgeTrashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge <trash-id>",
		Short: "Permanently delete a trashed record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			if err := store.PermanentlyDelete(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to purge trash entry: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render("✓ Permanently deleted"))
			return nil
		},
	}
}

func emptyTrashCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "empty",
		Short: "Permanently delete every trashed record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if !force {
				return fmt.Errorf("refusing to empty the trash without --force")
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			count, err := store.EmptyTrash(ctx)
			if err != nil {
				return fmt.Errorf("failed to empty trash: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Deleted %d trashed record(s)", count)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Confirm permanent deletion")
	return cmd
}

func cleanupTrashCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete trashed records older than the retention window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("days") {
				days = retentionDays(ctx, store)
			}

			result, err := store.CleanupOldTrash(ctx, days)
			if err != nil {
				return fmt.Errorf("failed to clean up trash: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf(
				"✓ Deleted %d trashed record(s) older than %d days; %d remaining",
				result.Deleted, days, result.Remaining)))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "Retention window in days")
	return cmd
}

// retentionDays reads the trashRetentionDays setting, falling back to 30 when
// the setting is missing or malformed.
func retentionDays(ctx context.Context, store service.Storage) int {
	value, err := store.GetSetting(ctx, "trashRetentionDays")
	if err != nil || value == nil {
		return 30
	}
	if n, ok := value.(model.NumberValue); ok && n > 0 {
		return int(n)
	}
	return 30
}

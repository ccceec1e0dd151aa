package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/karasuda/kakeibo/internal/cli"
	"github.com/karasuda/kakeibo/internal/model"
	"github.com/karasuda/kakeibo/internal/service"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage expense and income categories",
		Long:  `List, add, update, reparent, and retire the categories transactions are classified under.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(updateCategoryCmd())
	cmd.AddCommand(reparentCategoryCmd())
	cmd.AddCommand(deactivateCategoryCmd())
	cmd.AddCommand(reactivateCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	var includeInactive bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}

			categories, err := store.ListCategories(ctx, includeInactive)
			if err != nil {
				return fmt.Errorf("failed to list categories: %w", err)
			}
			if len(categories) == 0 {
				fmt.Println(cli.InfoStyle.Render("No categories found. Use 'kakeibo categories add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("ID"),
				cli.HeaderStyle.Render("Name"),
				cli.HeaderStyle.Render("Type"),
				cli.HeaderStyle.Render("Parent"),
				cli.HeaderStyle.Render("Active"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 4),
				strings.Repeat("-", 20),
				strings.Repeat("-", 8),
				strings.Repeat("-", 6),
				strings.Repeat("-", 6))

			for _, cat := range categories {
				parent := "-"
				if cat.ParentID != nil {
					parent = fmt.Sprintf("%d", *cat.ParentID)
				}
				active := "yes"
				if !cat.IsActive {
					active = cli.SubtleStyle.Render("no")
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", cat.ID, cat.Name, cat.Type, parent, active)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&includeInactive, "all", false, "Include inactive categories")
	return cmd
}

func addCategoryCmd() *cobra.Command {
	var (
		categoryType string
		color        string
		icon         string
		parentID     int
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}

			category := &model.Category{
				Name:  args[0],
				Type:  model.CategoryType(categoryType),
				Color: color,
				Icon:  icon,
			}
			if parentID > 0 {
				category.ParentID = &parentID
			}

			created, err := store.CreateCategory(ctx, category)
			if err != nil {
				return fmt.Errorf("failed to create category: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Created %s category %q (ID: %d)", created.Type, created.Name, created.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&categoryType, "type", "expense", "Category type (expense, income)")
	cmd.Flags().StringVar(&color, "color", "", "Display color as a hex triplet")
	cmd.Flags().StringVar(&icon, "icon", "", "Symbolic icon key")
	cmd.Flags().IntVar(&parentID, "parent", 0, "Parent category id")
	return cmd
}

func updateCategoryCmd() *cobra.Command {
	var (
		name  string
		color string
		icon  string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a category's name, color, or icon",
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

			var patch service.CategoryPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("color") {
				patch.Color = &color
			}
			if cmd.Flags().Changed("icon") {
				patch.Icon = &icon
			}

			updated, err := store.UpdateCategory(ctx, id, patch)
			if err != nil {
				return fmt.Errorf("failed to update category: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Updated category %q", updated.Name)))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&color, "color", "", "New color")
	cmd.Flags().StringVar(&icon, "icon", "", "New icon")
	return cmd
}

func reparentCategoryCmd() *cobra.Command {
	var (
		parentID int
		toRoot   bool
	)

	cmd := &cobra.Command{
		Use:   "reparent <id>",
		Short: "Move a category under a new parent",
		Long:  `Move a category under another category of the same type, or back to the root with --root. Moves that would create a cycle are rejected.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !toRoot && parentID <= 0 {
				return fmt.Errorf("either --parent or --root is required")
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}

			var newParent *int
			if !toRoot {
				newParent = &parentID
			}
			updated, err := store.ReparentCategory(ctx, id, newParent)
			if err != nil {
				return fmt.Errorf("failed to reparent category: %w", err)
			}

			if newParent == nil {
				fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Moved category %q to the root", updated.Name)))
			} else {
				fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Moved category %q under %d", updated.Name, *newParent)))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&parentID, "parent", 0, "New parent category id")
	cmd.Flags().BoolVar(&toRoot, "root", false, "Move to the root")
	return cmd
}

func deactivateCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <id>",
		Short: "Deactivate a category and its descendants",
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
			if err := store.DeactivateCategory(ctx, id); err != nil {
				return fmt.Errorf("failed to deactivate category: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Deactivated category %d and its descendants", id)))
			return nil
		},
	}
}

func reactivateCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reactivate <id>",
		Short: "Reactivate a category",
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
			if err := store.ReactivateCategory(ctx, id); err != nil {
				return fmt.Errorf("failed to reactivate category: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Reactivated category %d", id)))
			return nil
		},
	}
}

func deleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Permanently delete an unused category",
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
			if err := store.DeleteCategory(ctx, id); err != nil {
				return fmt.Errorf("failed to delete category: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Deleted category %d", id)))
			return nil
		},
	}
}

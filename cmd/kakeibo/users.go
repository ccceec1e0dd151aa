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

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage ledger users",
	}

	cmd.AddCommand(listUsersCmd())
	cmd.AddCommand(addUserCmd())
	cmd.AddCommand(updateUserCmd())
	cmd.AddCommand(deactivateUserCmd())
	cmd.AddCommand(reactivateUserCmd())
	cmd.AddCommand(deleteUserCmd())

	return cmd
}

func listUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}

			users, err := store.ListUsers(ctx)
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}
			if len(users) == 0 {
				fmt.Println(cli.InfoStyle.Render("No users found. Use 'kakeibo users add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("ID"),
				cli.HeaderStyle.Render("Name"),
				cli.HeaderStyle.Render("Email"),
				cli.HeaderStyle.Render("Department"),
				cli.HeaderStyle.Render("Status"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 4),
				strings.Repeat("-", 16),
				strings.Repeat("-", 24),
				strings.Repeat("-", 12),
				strings.Repeat("-", 8))

			for _, user := range users {
				status := string(user.Status)
				if user.Status == model.UserStatusInactive {
					status = cli.SubtleStyle.Render(status)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", user.ID, user.Name, user.Email, user.Department, status)
			}
			return nil
		},
	}
}

func addUserCmd() *cobra.Command {
	var (
		department string
		role       string
		phone      string
	)

	cmd := &cobra.Command{
		Use:   "add <name> <email>",
		Short: "Add a new user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}

			created, err := store.CreateUser(ctx, &model.User{
				Name:       args[0],
				Email:      args[1],
				Department: department,
				Role:       role,
				Phone:      phone,
			})
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Created user %q (ID: %d)", created.Name, created.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&department, "department", "", "Department")
	cmd.Flags().StringVar(&role, "role", "", "Role")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number")
	return cmd
}

func updateUserCmd() *cobra.Command {
	var (
		name       string
		email      string
		department string
		role       string
		phone      string
		avatar     string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a user",
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

			var patch service.UserPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("email") {
				patch.Email = &email
			}
			if cmd.Flags().Changed("department") {
				patch.Department = &department
			}
			if cmd.Flags().Changed("role") {
				patch.Role = &role
			}
			if cmd.Flags().Changed("phone") {
				patch.Phone = &phone
			}
			if cmd.Flags().Changed("avatar") {
				patch.Avatar = &avatar
			}

			updated, err := store.UpdateUser(ctx, id, patch)
			if err != nil {
				return fmt.Errorf("failed to update user: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Updated user %q", updated.Name)))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&email, "email", "", "New email")
	cmd.Flags().StringVar(&department, "department", "", "New department")
	cmd.Flags().StringVar(&role, "role", "", "New role")
	cmd.Flags().StringVar(&phone, "phone", "", "New phone number")
	cmd.Flags().StringVar(&avatar, "avatar", "", "New avatar file reference")
	return cmd
}

func deactivateUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <id>",
		Short: "Deactivate a user, preserving their transaction history",
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
			if err := store.DeactivateUser(ctx, id); err != nil {
				return fmt.Errorf("failed to deactivate user: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Deactivated user %d", id)))
			return nil
		},
	}
}

func reactivateUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reactivate <id>",
		Short: "Reactivate a user",
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
			if err := store.ReactivateUser(ctx, id); err != nil {
				return fmt.Errorf("failed to reactivate user: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Reactivated user %d", id)))
			return nil
		},
	}
}

func deleteUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Permanently delete a user with no transactions",
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
			if err := store.DeleteUser(ctx, id); err != nil {
				return fmt.Errorf("failed to delete user: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Deleted user %d", id)))
			return nil
		},
	}
}

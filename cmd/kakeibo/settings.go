package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/karasuda/kakeibo/internal/cli"
	"github.com/karasuda/kakeibo/internal/model"
	"github.com/karasuda/kakeibo/internal/service"
)

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage application settings",
	}

	cmd.AddCommand(listSettingsCmd())
	cmd.AddCommand(getSettingCmd())
	cmd.AddCommand(setSettingCmd())
	cmd.AddCommand(resetSettingsCmd())
	cmd.AddCommand(exportSettingsCmd())
	cmd.AddCommand(importSettingsCmd())

	return cmd
}

func listSettingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show all settings with defaults applied",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			settings, err := store.AllSettings(ctx)
			if err != nil {
				return fmt.Errorf("failed to list settings: %w", err)
			}

			keys := make([]string, 0, len(settings))
			for key := range settings {
				keys = append(keys, key)
			}
			sort.Strings(keys)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\t%s\n",
				cli.HeaderStyle.Render("Key"),
				cli.HeaderStyle.Render("Type"),
				cli.HeaderStyle.Render("Value"))
			for _, key := range keys {
				value := settings[key]
				fmt.Fprintf(w, "%s\t%s\t%v\n", key, value.SettingType(), value.Native())
			}
			return nil
		},
	}
}

func getSettingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Show a single setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			value, err := store.GetSetting(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get setting: %w", err)
			}
			if value == nil {
				fmt.Println(cli.InfoStyle.Render(fmt.Sprintf("Setting %q is not set.", args[0])))
				return nil
			}
			fmt.Printf("%v\n", value.Native())
			return nil
		},
	}
}

func setSettingCmd() *cobra.Command {
	var (
		settingType string
		description string
	)

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a setting",
		Long: `Set a setting to a new value.

The value is interpreted according to the setting's declared type. For a key
with a stored entry or a built-in default, the type is inferred; otherwise
--type is required.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			if err := store.SetSetting(ctx, args[0], args[1], model.SettingType(settingType), description); err != nil {
				return fmt.Errorf("failed to set setting: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Set %s", args[0])))
			return nil
		},
	}

	cmd.Flags().StringVar(&settingType, "type", "", "Value type (string, number, boolean, json, array)")
	cmd.Flags().StringVar(&description, "description", "", "Setting description")
	return cmd
}

func resetSettingsCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard all stored settings, reverting to defaults",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if !force {
				return fmt.Errorf("refusing to reset settings without --force")
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			if err := store.ResetAllSettings(ctx); err != nil {
				return fmt.Errorf("failed to reset settings: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render("✓ Settings reset to defaults"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Confirm the reset")
	return cmd
}

func exportSettingsCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export settings as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			doc, err := store.ExportSettings(ctx)
			if err != nil {
				return fmt.Errorf("failed to export settings: %w", err)
			}

			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode settings export: %w", err)
			}
			if output == "" {
				fmt.Println(string(data))
				return nil
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return fmt.Errorf("failed to write settings export: %w", err)
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Exported %d setting(s) to %s", len(doc.Settings), output)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}

func importSettingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import settings from a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read settings file: %w", err)
			}
			var doc service.SettingsExport
			if err := json.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("failed to parse settings file: %w", err)
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			report, err := store.ImportSettings(ctx, &doc)
			if err != nil {
				return fmt.Errorf("failed to import settings: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Imported %d setting(s)", report.Imported)))
			for _, importErr := range report.Errors {
				fmt.Println(cli.WarningStyle.Render(fmt.Sprintf("  skipped %s: %s", importErr.Item, importErr.Reason)))
			}
			return nil
		},
	}
}

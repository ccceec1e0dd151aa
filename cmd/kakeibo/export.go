package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/karasuda/kakeibo/internal/cli"
	"github.com/karasuda/kakeibo/internal/service"
)

func exportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the full ledger as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			doc, err := store.ExportData(ctx)
			if err != nil {
				return fmt.Errorf("failed to export data: %w", err)
			}

			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode export: %w", err)
			}
			if output == "" {
				fmt.Println(string(data))
				return nil
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}

			total := len(doc.Data.Users) + len(doc.Data.Categories) +
				len(doc.Data.Expenses) + len(doc.Data.Income)
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ Exported %d record(s) to %s", total, output)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a ledger export",
		Long: `Import users, categories, and transactions from a JSON export.

Existing records are matched by natural key (email for users, name and type
for categories) and reused rather than duplicated. Failed records are
reported and skipped; the rest of the batch continues.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read export file: %w", err)
			}
			var doc service.DataExport
			if err := json.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("failed to parse export file: %w", err)
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}

			total := len(doc.Data.Users) + len(doc.Data.Categories) +
				len(doc.Data.Expenses) + len(doc.Data.Income)
			bar := importProgressBar(total)

			report, err := store.ImportData(ctx, &doc, func() {
				if err := bar.Add(1); err != nil {
					slog.Warn("Failed to advance progress bar", "error", err)
				}
			})
			if err != nil {
				return fmt.Errorf("failed to import data: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf(
				"✓ Imported %d record(s), skipped %d", report.Imported, report.Skipped)))
			for _, importErr := range report.Errors {
				fmt.Println(cli.WarningStyle.Render(fmt.Sprintf("  skipped %s: %s", importErr.Item, importErr.Reason)))
			}
			return nil
		},
	}
}

func importProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Importing records...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(os.Stderr); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

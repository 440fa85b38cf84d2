package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskmaster/routine/internal/domain/backup"
	"github.com/taskmaster/routine/internal/domain/entities"
	"github.com/taskmaster/routine/internal/infrastructure/server"
	"github.com/taskmaster/routine/internal/ports"
)

// NewBackupCommand creates the backup command with export and import
func NewBackupCommand() *cobra.Command {
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Export and import backup documents",
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write every task and template to a backup document",
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			formatName, _ := cmd.Flags().GetString("format")
			if formatName == "" {
				formatName = formatFromPath(output)
			}
			format, err := backup.ParseFormat(formatName)
			if err != nil {
				return err
			}

			return withApp(cmd.Context(), func(ctx context.Context, app *server.App) error {
				doc, err := app.Backup.Export(ctx)
				if err != nil {
					return err
				}
				data, err := backup.Encode(doc, format)
				if err != nil {
					return err
				}

				if output == "" || output == "-" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(output, data, 0o600); err != nil {
					return fmt.Errorf("failed to write %s: %w", output, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d tasks, %d day templates and %d task templates to %s\n",
					len(doc.Tasks), len(doc.DayTemplates), len(doc.TaskTemplates), output)
				return nil
			})
		},
	}
	exportCmd.Flags().StringP("output", "o", "", "Output file, stdout when empty")
	exportCmd.Flags().String("format", "", "json or yaml, guessed from the file extension when empty")

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Load a backup document",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")
			formatName, _ := cmd.Flags().GetString("format")
			mode, _ := cmd.Flags().GetString("mode")
			if formatName == "" {
				formatName = formatFromPath(input)
			}
			format, err := backup.ParseFormat(formatName)
			if err != nil {
				return err
			}

			data, err := readInput(cmd, input)
			if err != nil {
				return err
			}
			doc, err := backup.Decode(data, format)
			if err != nil {
				return err
			}

			return withApp(cmd.Context(), func(ctx context.Context, app *server.App) error {
				if err := app.Backup.Import(ctx, doc, ports.ImportMode(mode)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Imported %d tasks, %d day templates and %d task templates (%s)\n",
					len(doc.Tasks), len(doc.DayTemplates), len(doc.TaskTemplates), mode)
				return nil
			})
		},
	}
	importCmd.Flags().StringP("input", "i", "", "Input file, stdin when empty")
	importCmd.Flags().String("format", "", "json or yaml, guessed from the file extension when empty")
	importCmd.Flags().String("mode", string(ports.ImportMerge), "merge or replace")

	backupCmd.AddCommand(exportCmd, importCmd)
	return backupCmd
}

// NewStatsCommand prints completion statistics
func NewStatsCommand() *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print monthly completion statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			monthFlag, _ := cmd.Flags().GetString("month")
			year, _ := cmd.Flags().GetInt("year")

			return withApp(cmd.Context(), func(ctx context.Context, app *server.App) error {
				var stats []entities.MonthlyStats
				if monthFlag != "" {
					month, err := entities.ParseYearMonth(monthFlag)
					if err != nil {
						return err
					}
					s, err := app.Stats.MonthlyStats(ctx, month)
					if err != nil {
						return err
					}
					stats = append(stats, s)
				} else {
					if year == 0 {
						year = time.Now().Year()
					}
					var err error
					if stats, err = app.Stats.YearStats(ctx, year); err != nil {
						return err
					}
				}
				return printStats(cmd.OutOrStdout(), stats)
			})
		},
	}
	statsCmd.Flags().String("month", "", "Single month (YYYY-MM)")
	statsCmd.Flags().Int("year", 0, "Every month of a year, the current year when empty")
	return statsCmd
}

// NewTemplateCommand expands day templates from the command line
func NewTemplateCommand() *cobra.Command {
	templateCmd := &cobra.Command{
		Use:   "template",
		Short: "Day template commands",
	}

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Create the tasks of a day template on a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			weekly, _ := cmd.Flags().GetBool("weekly")
			dateFlag, _ := cmd.Flags().GetString("date")
			if id == "" && !weekly {
				return fmt.Errorf("either --id or --weekly is required")
			}

			date := entities.DateOf(time.Now())
			if dateFlag != "" {
				var err error
				if date, err = entities.ParseDate(dateFlag); err != nil {
					return err
				}
			}

			return withApp(cmd.Context(), func(ctx context.Context, app *server.App) error {
				var (
					tasks []entities.Task
					err   error
				)
				if weekly {
					tasks, err = app.Expansion.ApplyWeekly(ctx, date)
				} else {
					tasks, err = app.Expansion.ApplyTemplate(ctx, id, date)
				}
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Created %d tasks on %s\n", len(tasks), date)
				for _, task := range tasks {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s\n", task.ID, task.Title)
				}
				return nil
			})
		},
	}
	applyCmd.Flags().String("id", "", "Day template ID")
	applyCmd.Flags().Bool("weekly", false, "Use the weekly template of the date's weekday")
	applyCmd.Flags().String("date", "", "Target date (YYYY-MM-DD), today when empty")

	templateCmd.AddCommand(applyCmd)
	return templateCmd
}

func formatFromPath(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func printStats(w io.Writer, stats []entities.MonthlyStats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MONTH\tTOTAL\tDONE\tPENDING")
	for _, s := range stats {
		if s.Empty {
			fmt.Fprintf(tw, "%s %d\t-\t-\t-\n", s.MonthName, s.Year)
			continue
		}
		fmt.Fprintf(tw, "%s %d\t%d\t%d\t%d\n", s.MonthName, s.Year, s.TotalTasks, s.CompletedTasks, s.PendingTasks)
	}
	return tw.Flush()
}

package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskmaster/routine/cmd/routine/commands"
)

// @title Routine API
// @version 1.0
// @description Daily routine planner: dated tasks, reusable day templates, reminders and backups

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	rootCmd := &cobra.Command{
		Use:          "routine",
		Short:        "Routine planner server and tools",
		Long:         `Routine keeps dated tasks with subtasks, expands reusable day templates onto the calendar, reminds you before a task starts or ends and backs everything up.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewBackupCommand())
	rootCmd.AddCommand(commands.NewStatsCommand())
	rootCmd.AddCommand(commands.NewTemplateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskmaster/routine/internal/adapters/repository"
	"github.com/taskmaster/routine/internal/infrastructure/config"
	"github.com/taskmaster/routine/internal/infrastructure/database"
	"github.com/taskmaster/routine/internal/infrastructure/logger"
	"github.com/taskmaster/routine/internal/infrastructure/server"
)

// Set at build time with -ldflags "-X".
var (
	Version   = "dev"
	GitCommit = "development"
	BuildDate = "unknown"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the Routine API server",
		Long:  "Start the API server together with the reminder scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage database migrations (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, "up")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, "down")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showMigrationVersion(cmd)
		},
	})

	return migrateCmd
}

// NewUserCommand creates the user management command
func NewUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long:  "Create accounts that can sign in for cloud backups",
	}

	createUserCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new user",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if email == "" || password == "" {
				return errors.New("email and password are required")
			}

			return withApp(cmd.Context(), func(ctx context.Context, app *server.App) error {
				user, err := app.Auth.CreateUser(ctx, email, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "User created successfully:\n")
				fmt.Fprintf(cmd.OutOrStdout(), "  ID: %s\n", user.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "  Email: %s\n", user.Email)
				return nil
			})
		},
	}

	createUserCmd.Flags().String("email", "", "User email (required)")
	createUserCmd.Flags().String("password", "", "User password (required)")

	userCmd.AddCommand(createUserCmd)
	return userCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print Routine version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Routine %s\n", Version)
			fmt.Fprintf(cmd.OutOrStdout(), "Build Date: %s\n", BuildDate)
			fmt.Fprintf(cmd.OutOrStdout(), "Git Commit: %s\n", GitCommit)
		},
	}
}

// bootstrap loads configuration and opens the logger and database.
func bootstrap() (*config.Config, *logger.Logger, *database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(cfg.Database); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return cfg, appLogger, db, nil
}

// withApp runs fn against a wired App without the background scheduler.
func withApp(ctx context.Context, fn func(ctx context.Context, app *server.App) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, appLogger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer appLogger.Close()
	defer db.Close()

	app, err := server.NewApp(ctx, cfg, db, appLogger)
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(ctx, app)
}

func runServer() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, appLogger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer appLogger.Close()
	defer db.Close()

	app, err := server.NewApp(ctx, cfg, db, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Close()

	if err := app.Start(ctx); err != nil {
		return err
	}

	srv := server.New(app)

	appLogger.Infow("Starting Routine API server",
		"port", cfg.Server.Port,
		"environment", cfg.App.Environment,
		"driver", db.DriverName(),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runMigration(cmd *cobra.Command, direction string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	m, err := repository.NewMigrator(cfg.Database)
	if err != nil {
		return err
	}
	defer m.Close()

	var changed bool
	switch direction {
	case "up":
		changed, err = m.Up()
	case "down":
		changed, err = m.Down()
	}
	if err != nil {
		return err
	}

	if !changed {
		fmt.Fprintln(cmd.OutOrStdout(), "No migrations to run")
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Migration %s completed successfully\n", direction)
	}
	return nil
}

func showMigrationVersion(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	m, err := repository.NewMigrator(cfg.Database)
	if err != nil {
		return err
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Current migration version: %d\n", version)
	fmt.Fprintf(cmd.OutOrStdout(), "Dirty: %t\n", dirty)
	return nil
}

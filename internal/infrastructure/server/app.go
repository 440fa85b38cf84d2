package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskmaster/routine/internal/adapters/alarm"
	"github.com/taskmaster/routine/internal/adapters/notifier"
	"github.com/taskmaster/routine/internal/adapters/repository"
	"github.com/taskmaster/routine/internal/application/services"
	"github.com/taskmaster/routine/internal/domain/entities"
	"github.com/taskmaster/routine/internal/infrastructure/config"
	"github.com/taskmaster/routine/internal/infrastructure/database"
	"github.com/taskmaster/routine/internal/infrastructure/logger"
	"github.com/taskmaster/routine/internal/infrastructure/metrics"
	"github.com/taskmaster/routine/internal/ports"
)

const webhookTimeout = 10 * time.Second

// alarmFacility is an AlarmFacility with a background lifecycle.
type alarmFacility interface {
	ports.AlarmFacility
	Start(ctx context.Context) error
	Stop()
}

// App holds the wired services. The HTTP server and the CLI share it.
type App struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      *database.DB
	Redis   *redis.Client
	Metrics *metrics.Collector

	Tasks         *services.TaskService
	Templates     *services.TemplateService
	Expansion     *services.ExpansionService
	Stats         *services.StatsService
	Settings      *services.SettingsService
	Backup        *services.BackupService
	Auth          *services.AuthService
	Notifications *services.NotificationService

	facility alarmFacility
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewApp builds repositories and services on top of db.
func NewApp(ctx context.Context, cfg *config.Config, db *database.DB, appLogger *logger.Logger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: appLogger,
		DB:     db,
	}
	if cfg.Metrics.Enabled {
		app.Metrics = metrics.New()
	}

	if cfg.UsesRedis() {
		app.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	loc, err := cfg.Notifications.Location()
	if err != nil {
		return nil, err
	}

	// Repositories
	taskRepo := repository.NewTaskRepository(db)
	dayRepo := repository.NewDayTemplateRepository(db)
	libraryRepo := repository.NewTaskTemplateRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	userRepo := repository.NewUserRepository(db)

	var store ports.BackupStore
	if cfg.Backup.Store == "redis" {
		store = repository.NewRedisBackupStore(app.Redis)
	} else {
		store = repository.NewSQLBackupStore(db)
	}

	// Services
	app.Settings, err = services.NewSettingsService(ctx, settingsRepo, entities.Settings{
		NotificationsEnabled:      cfg.Notifications.Enabled,
		NotificationOffsetMinutes: cfg.Notifications.OffsetMinutes,
	}, appLogger)
	if err != nil {
		return nil, err
	}

	app.Tasks = services.NewTaskService(taskRepo, app.Metrics, appLogger)
	app.Templates = services.NewTemplateService(dayRepo, libraryRepo, appLogger)
	app.Expansion = services.NewExpansionService(dayRepo, app.Tasks, app.Metrics, appLogger)
	app.Stats = services.NewStatsService(taskRepo)
	app.Auth = services.NewAuthService(userRepo, cfg.JWT, appLogger)

	app.Backup = services.NewBackupService(snapshotRepo, store, app.Metrics, appLogger)
	app.Backup.OnImport(app.Tasks.Imported)
	app.Backup.OnImport(app.Templates.Imported)

	if cfg.Notifications.Facility == "redis" {
		app.facility = alarm.NewRedis(app.Redis, cfg.Notifications.PollInterval, cfg.Notifications.BufferSize, appLogger)
	} else {
		app.facility = alarm.NewMemory(cfg.Notifications.BufferSize)
	}

	var n ports.Notifier
	if cfg.Notifications.Notifier == "webhook" {
		n = notifier.NewWebhookNotifier(cfg.Notifications.WebhookURL, webhookTimeout)
	} else {
		n = notifier.NewLogNotifier(appLogger)
	}

	app.Notifications = services.NewNotificationService(app.facility, app.Settings, taskRepo, n, loc, app.Metrics, appLogger)
	app.Tasks.AddListener(app.Notifications)

	return app, nil
}

// Start runs the alarm facility, the dispatcher and settings reconciliation
// in the background until Close.
func (a *App) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)

	if err := a.facility.Start(ctx); err != nil {
		a.cancel()
		return fmt.Errorf("failed to start alarm facility: %w", err)
	}

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		a.Notifications.RunDispatcher(ctx)
	}()
	go func() {
		defer a.wg.Done()
		a.Notifications.Run(ctx)
	}()

	a.Logger.Infow("Reminders started",
		"facility", a.Config.Notifications.Facility,
		"notifier", a.Config.Notifications.Notifier,
	)
	return nil
}

// Close stops background work and releases the Redis client.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
		a.facility.Stop()
		a.wg.Wait()
	}
	if a.Redis != nil {
		return a.Redis.Close()
	}
	return nil
}

// HealthCheck reports the state of every backing store.
func (a *App) HealthCheck(ctx context.Context) map[string]interface{} {
	checks := make(map[string]interface{})

	if err := a.DB.HealthCheck(); err != nil {
		checks["database"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	} else {
		checks["database"] = map[string]interface{}{
			"status": "ok",
			"stats":  a.DB.GetConnectionInfo(),
		}
	}

	if a.Redis != nil {
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		} else {
			checks["redis"] = map[string]interface{}{"status": "ok"}
		}
	}

	return checks
}

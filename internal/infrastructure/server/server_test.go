package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/taskmaster/routine/internal/adapters/repository"
	"github.com/taskmaster/routine/internal/domain/entities"
	"github.com/taskmaster/routine/internal/infrastructure/config"
	"github.com/taskmaster/routine/internal/infrastructure/database"
	"github.com/taskmaster/routine/internal/infrastructure/logger"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "routine", Version: "test", Environment: "test"},
		Server: config.ServerConfig{
			Port:           8080,
			RequestTimeout: 5 * time.Second,
		},
		Database: config.DatabaseConfig{
			Driver: database.DriverSQLite,
			Path:   filepath.Join(t.TempDir(), "server.db"),
		},
		JWT:      config.JWTConfig{Secret: "test-secret", ExpiresIn: time.Hour, Issuer: "routine-test"},
		Security: config.SecurityConfig{CORSAllowedOrigins: "*", RateLimitRequests: 100, RateLimitWindow: time.Minute},
		Metrics:  config.MetricsConfig{Enabled: true},
		Notifications: config.NotificationsConfig{
			Enabled:       true,
			OffsetMinutes: 5,
			Timezone:      "UTC",
			Facility:      "memory",
			Notifier:      "log",
			BufferSize:    8,
		},
		Backup: config.BackupConfig{Store: "sql"},
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()

	cfg := testConfig(t)
	if err := repository.Migrate(cfg.Database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db, err := database.New(cfg.Database)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	app, err := NewApp(context.Background(), cfg, db, logger.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if err := app.Start(context.Background()); err != nil {
		t.Fatalf("start app: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	srv := New(newTestApp(t))

	for _, path := range []string{"/health", "/health/detailed", "/ready"} {
		if rec := get(t, srv, path); rec.Code != http.StatusOK {
			t.Fatalf("%s = %d: %s", path, rec.Code, rec.Body.String())
		}
	}
}

func TestAPIAndMetricsAreMounted(t *testing.T) {
	app := newTestApp(t)
	srv := New(app)

	if rec := get(t, srv, "/api/v1/tasks"); rec.Code != http.StatusOK {
		t.Fatalf("list tasks = %d: %s", rec.Code, rec.Body.String())
	}
	if rec := get(t, srv, "/api/v1/settings"); rec.Code != http.StatusOK {
		t.Fatalf("settings = %d", rec.Code)
	}

	rec := get(t, srv, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Fatal("expected request counter in metrics output")
	}
}

func TestAppKeepsTasksAndRemindersWired(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	tomorrow := entities.DateOf(time.Now().UTC()).AddDays(1)
	task, err := app.Tasks.CreateTask(ctx, entities.Task{
		Title:     "Dentist",
		Category:  entities.CategoryHealth,
		Date:      tomorrow,
		StartTime: entities.MustTimeOfDay("10:00"),
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	doc, err := app.Backup.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(doc.Tasks) != 1 || doc.Tasks[0].ID != task.ID {
		t.Fatalf("export missed the task: %+v", doc.Tasks)
	}

	if _, err := app.Settings.Update(ctx, entities.Settings{NotificationsEnabled: false, NotificationOffsetMinutes: 10}); err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if got := app.Settings.Current(); got.NotificationsEnabled {
		t.Fatal("settings change not visible")
	}
}

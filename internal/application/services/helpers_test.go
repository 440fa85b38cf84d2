package services

import (
	"context"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/taskmaster/routine/internal/adapters/repository"
	"github.com/taskmaster/routine/internal/domain/entities"
	"github.com/taskmaster/routine/internal/infrastructure/config"
	"github.com/taskmaster/routine/internal/infrastructure/database"
	"github.com/taskmaster/routine/internal/infrastructure/logger"
	"github.com/taskmaster/routine/internal/ports"
)

type testStore struct {
	db        *database.DB
	tasks     ports.TaskRepository
	days      ports.DayTemplateRepository
	library   ports.TaskTemplateRepository
	snapshots ports.SnapshotRepository
	settings  ports.SettingsRepository
	users     ports.UserRepository
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()

	cfg := config.DatabaseConfig{Driver: database.DriverSQLite, Path: filepath.Join(t.TempDir(), "routine.db")}
	if err := repository.Migrate(cfg); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db, err := database.New(cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return &testStore{
		db:        db,
		tasks:     repository.NewTaskRepository(db),
		days:      repository.NewDayTemplateRepository(db),
		library:   repository.NewTaskTemplateRepository(db),
		snapshots: repository.NewSnapshotRepository(db),
		settings:  repository.NewSettingsRepository(db),
		users:     repository.NewUserRepository(db),
	}
}

// sequentialIDs returns an id generator producing prefix-1, prefix-2, ...
func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestTaskService(t *testing.T, store *testStore) *TaskService {
	t.Helper()
	svc := NewTaskService(store.tasks, nil, logger.NewNop())
	svc.now = fixedClock(time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))
	return svc
}

// staticSettings is a SettingsProvider whose value tests set directly.
type staticSettings struct {
	mu       sync.Mutex
	settings entities.Settings
}

func (s *staticSettings) Current() entities.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *staticSettings) Subscribe(ctx context.Context) <-chan entities.Settings {
	return make(chan entities.Settings)
}

func (s *staticSettings) set(settings entities.Settings) {
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
}

// recordingFacility keeps scheduled alarms by id.
type recordingFacility struct {
	mu      sync.Mutex
	pending map[string]ports.Alarm
	fired   chan ports.Alarm
}

func newRecordingFacility() *recordingFacility {
	return &recordingFacility{pending: make(map[string]ports.Alarm), fired: make(chan ports.Alarm, 8)}
}

func (f *recordingFacility) ScheduleAt(_ context.Context, alarm ports.Alarm) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[alarm.ID] = alarm
	return nil
}

func (f *recordingFacility) Cancel(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.pending[id]
	delete(f.pending, id)
	return ok, nil
}

func (f *recordingFacility) Fired() <-chan ports.Alarm {
	return f.fired
}

func (f *recordingFacility) snapshot() map[string]ports.Alarm {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]ports.Alarm, len(f.pending))
	for k, v := range f.pending {
		out[k] = v
	}
	return out
}

// notifierFunc adapts a function to ports.Notifier.
type notifierFunc func(ctx context.Context, n ports.Notification) error

func (f notifierFunc) Notify(ctx context.Context, n ports.Notification) error {
	return f(ctx, n)
}

// memoryBackupStore is a BackupStore with injectable failures.
type memoryBackupStore struct {
	mu     sync.Mutex
	docs   map[string][]byte
	putErr error
	getErr error
}

func newMemoryBackupStore() *memoryBackupStore {
	return &memoryBackupStore{docs: make(map[string][]byte)}
}

func (s *memoryBackupStore) Put(_ context.Context, userID string, document []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.docs[userID] = append([]byte(nil), document...)
	return nil
}

func (s *memoryBackupStore) Get(_ context.Context, userID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	doc, ok := s.docs[userID]
	if !ok {
		return nil, &entities.NotFoundError{Entity: "backup", ID: userID}
	}
	return doc, nil
}

func validTask(title, date string) entities.Task {
	return entities.Task{
		Title:     title,
		Category:  entities.CategoryWork,
		StartTime: entities.MustTimeOfDay("08:00"),
		EndTime:   entities.MustTimeOfDay("09:00"),
		Date:      entities.MustDate(date),
		Subtasks:  []entities.Subtask{{Title: "prepare"}, {Title: "follow up"}},
	}
}

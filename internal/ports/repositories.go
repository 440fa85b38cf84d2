package ports

import (
	"context"
	"time"

	"github.com/taskmaster/routine/internal/domain/entities"
)

// TaskRepository defines the interface for task data operations.
// A task and its subtasks are always written atomically.
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	CreateMany(ctx context.Context, tasks []entities.Task) error
	GetByID(ctx context.Context, id string) (*entities.Task, error)
	Update(ctx context.Context, task *entities.Task) error
	Delete(ctx context.Context, id string) (bool, error)
	DeleteByDate(ctx context.Context, date entities.Date) ([]string, error)
	List(ctx context.Context, filter TaskFilter) ([]entities.Task, error)
}

// DayTemplateRepository defines the interface for day template data operations
type DayTemplateRepository interface {
	Create(ctx context.Context, tpl *entities.DayTemplate) error
	GetByID(ctx context.Context, id string) (*entities.DayTemplate, error)
	Update(ctx context.Context, tpl *entities.DayTemplate) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter TemplateFilter) ([]entities.DayTemplate, error)
	FindByWeekday(ctx context.Context, weekday time.Weekday) (*entities.DayTemplate, error)
}

// TaskTemplateRepository stores standalone task templates (the template library).
type TaskTemplateRepository interface {
	Create(ctx context.Context, tpl *entities.TaskTemplate) error
	GetByID(ctx context.Context, id string) (*entities.TaskTemplate, error)
	Update(ctx context.Context, tpl *entities.TaskTemplate) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]entities.TaskTemplate, error)
}

// SnapshotRepository reads and writes the whole store in one transaction.
type SnapshotRepository interface {
	Snapshot(ctx context.Context) (*entities.BackupDocument, error)
	Import(ctx context.Context, doc entities.BackupDocument, replace bool) (*ImportResult, error)
}

// SettingsRepository persists notification settings.
type SettingsRepository interface {
	Load(ctx context.Context) (entities.Settings, bool, error)
	Save(ctx context.Context, settings entities.Settings) error
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
}

// BackupStore is a document store addressed by user identity.
type BackupStore interface {
	Put(ctx context.Context, userID string, document []byte) error
	Get(ctx context.Context, userID string) ([]byte, error)
}

// Filter types for repository queries
type TaskFilter struct {
	Date     *entities.Date
	From     *entities.Date
	To       *entities.Date
	IsDone   *bool
	Category *entities.Category
}

type TemplateFilter struct {
	IsWeekly *bool
	Weekday  *time.Weekday
}

// ImportResult reports what an import changed.
type ImportResult struct {
	Tasks          []entities.Task
	RemovedTaskIDs []string
}

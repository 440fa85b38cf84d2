package ports

import (
	"context"
	"time"

	"github.com/taskmaster/routine/internal/domain/entities"
)

// TaskService interface for task management operations
type TaskService interface {
	CreateTask(ctx context.Context, task entities.Task) (*entities.Task, error)
	GetTask(ctx context.Context, id string) (*entities.Task, error)
	UpdateTask(ctx context.Context, task entities.Task) (*entities.Task, error)
	DeleteTask(ctx context.Context, id string) error
	DeleteTasksByDate(ctx context.Context, date entities.Date) (int, error)
	ToggleDone(ctx context.Context, id string) (*entities.Task, error)
	SetSubtaskDone(ctx context.Context, taskID, subtaskID string, done bool) (*entities.Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]entities.Task, error)
	WatchTasks(ctx context.Context, filter TaskFilter) (<-chan []entities.Task, error)
}

// TemplateService interface for day templates and the task template library
type TemplateService interface {
	CreateDayTemplate(ctx context.Context, tpl entities.DayTemplate) (*entities.DayTemplate, error)
	GetDayTemplate(ctx context.Context, id string) (*entities.DayTemplate, error)
	UpdateDayTemplate(ctx context.Context, tpl entities.DayTemplate) (*entities.DayTemplate, error)
	UpsertWeeklyTemplate(ctx context.Context, weekday time.Weekday, tpl entities.DayTemplate) (*entities.DayTemplate, error)
	DeleteDayTemplate(ctx context.Context, id string) error
	ListDayTemplates(ctx context.Context, filter TemplateFilter) ([]entities.DayTemplate, error)
	WatchDayTemplates(ctx context.Context, filter TemplateFilter) (<-chan []entities.DayTemplate, error)

	CreateTaskTemplate(ctx context.Context, tpl entities.TaskTemplate) (*entities.TaskTemplate, error)
	GetTaskTemplate(ctx context.Context, id string) (*entities.TaskTemplate, error)
	UpdateTaskTemplate(ctx context.Context, tpl entities.TaskTemplate) (*entities.TaskTemplate, error)
	DeleteTaskTemplate(ctx context.Context, id string) error
	ListTaskTemplates(ctx context.Context) ([]entities.TaskTemplate, error)
}

// ExpansionService turns day templates into dated tasks.
type ExpansionService interface {
	ApplyTemplate(ctx context.Context, templateID string, date entities.Date) ([]entities.Task, error)
	ApplyWeekly(ctx context.Context, date entities.Date) ([]entities.Task, error)
}

// StatsService interface for completion statistics
type StatsService interface {
	MonthlyStats(ctx context.Context, month entities.YearMonth) (entities.MonthlyStats, error)
	YearStats(ctx context.Context, year int) ([]entities.MonthlyStats, error)
}

// SettingsService interface for notification settings
type SettingsService interface {
	SettingsProvider
	Update(ctx context.Context, settings entities.Settings) (entities.Settings, error)
}

// BackupService interface for export, import and cloud round-trips
type BackupService interface {
	Export(ctx context.Context) (entities.BackupDocument, error)
	Import(ctx context.Context, doc entities.BackupDocument, mode ImportMode) error
	Backup(ctx context.Context, userID string) entities.BackupResult
	Restore(ctx context.Context, userID string, mode ImportMode) entities.BackupResult
}

// AuthService interface for authentication operations
type AuthService interface {
	CreateUser(ctx context.Context, email, password string) (*entities.User, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// ImportMode selects how entities absent from a backup are treated.
type ImportMode string

const (
	ImportMerge   ImportMode = "merge"
	ImportReplace ImportMode = "replace"
)

func (m ImportMode) IsValid() bool {
	return m == ImportMerge || m == ImportReplace
}

// Request/Response Types

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type ApplyTemplateRequest struct {
	Date string `json:"date" validate:"required"`
}

type SetSubtaskRequest struct {
	IsDone bool `json:"is_done"`
}

type SettingsRequest struct {
	NotificationsEnabled      bool `json:"notifications_enabled"`
	NotificationOffsetMinutes int  `json:"notification_offset_minutes" validate:"required,oneof=5 10 15 20"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type DeletedResponse struct {
	Deleted int `json:"deleted"`
}

type ErrorResponse struct {
	Message string                `json:"message"`
	Fields  []entities.FieldError `json:"fields,omitempty"`
}

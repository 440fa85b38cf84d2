package entities

import (
	"time"
)

// Enums and types
type Category string

const (
	CategoryWork     Category = "WORK"
	CategoryStudy    Category = "STUDY"
	CategoryHealth   Category = "HEALTH"
	CategoryPersonal Category = "PERSONAL"
	CategoryLeisure  Category = "LEISURE"
	CategoryOther    Category = "OTHER"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryWork, CategoryStudy, CategoryHealth, CategoryPersonal, CategoryLeisure, CategoryOther:
		return true
	default:
		return false
	}
}

const (
	MaxTitleLength       = 40
	MaxDescriptionLength = 100
)

// Subtask is a checklist item owned by exactly one Task.
type Subtask struct {
	ID     string `json:"id" yaml:"id"`
	Title  string `json:"title" yaml:"title" validate:"notblank"`
	IsDone bool   `json:"is_done" yaml:"is_done"`
}

// Task is a dated to-do item.
type Task struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title" validate:"notblank,max=40"`
	Description string     `json:"description" yaml:"description" validate:"max=100"`
	Category    Category   `json:"category" yaml:"category" validate:"oneof=WORK STUDY HEALTH PERSONAL LEISURE OTHER"`
	StartTime   *TimeOfDay `json:"start_time" yaml:"start_time"`
	EndTime     *TimeOfDay `json:"end_time" yaml:"end_time"`
	Date        Date       `json:"date" yaml:"date"`
	IsDone      bool       `json:"is_done" yaml:"is_done"`
	Subtasks    []Subtask  `json:"subtasks" yaml:"subtasks" validate:"dive"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" yaml:"updated_at"`
}

// TaskTemplate is a blueprint for one task. DayTemplateID is nil for library entries.
type TaskTemplate struct {
	ID            string     `json:"id" yaml:"id"`
	DayTemplateID *string    `json:"day_template_id,omitempty" yaml:"day_template_id,omitempty"`
	Title         string     `json:"title" yaml:"title" validate:"notblank,max=40"`
	Description   string     `json:"description" yaml:"description" validate:"max=100"`
	Category      Category   `json:"category" yaml:"category" validate:"oneof=WORK STUDY HEALTH PERSONAL LEISURE OTHER"`
	StartTime     *TimeOfDay `json:"start_time" yaml:"start_time"`
	EndTime       *TimeOfDay `json:"end_time" yaml:"end_time"`
	Subtasks      []string   `json:"subtasks" yaml:"subtasks" validate:"dive,notblank"`
}

// DayTemplate is a named set of task blueprints, optionally pinned to a weekday.
type DayTemplate struct {
	ID        string         `json:"id" yaml:"id"`
	Name      string         `json:"name" yaml:"name" validate:"notblank,max=40"`
	Tasks     []TaskTemplate `json:"tasks" yaml:"tasks" validate:"dive"`
	IsWeekly  bool           `json:"is_weekly" yaml:"is_weekly"`
	Weekday   *time.Weekday  `json:"weekday,omitempty" yaml:"weekday,omitempty"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" yaml:"updated_at"`
}

// Settings are the user's notification preferences.
type Settings struct {
	NotificationsEnabled      bool `json:"notifications_enabled"`
	NotificationOffsetMinutes int  `json:"notification_offset_minutes" validate:"oneof=5 10 15 20"`
}

// AllowedOffsets lists the accepted reminder offsets in minutes.
var AllowedOffsets = []int{5, 10, 15, 20}

func DefaultSettings() Settings {
	return Settings{NotificationsEnabled: true, NotificationOffsetMinutes: 5}
}

func (s Settings) Offset() time.Duration {
	return time.Duration(s.NotificationOffsetMinutes) * time.Minute
}

// User is an account allowed to store backups.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// MonthlyStats summarizes task completion for one month.
type MonthlyStats struct {
	Year           int    `json:"year"`
	Month          int    `json:"month"`
	MonthName      string `json:"month_name"`
	TotalTasks     int    `json:"total_tasks"`
	CompletedTasks int    `json:"completed_tasks"`
	PendingTasks   int    `json:"pending_tasks"`
	Empty          bool   `json:"empty"`
}

// BackupFormatVersion is the current backup document version.
const BackupFormatVersion = 1

// BackupDocument is a full snapshot of the store.
type BackupDocument struct {
	Version       int            `json:"version" yaml:"version"`
	CreatedAt     time.Time      `json:"created_at" yaml:"created_at"`
	Tasks         []Task         `json:"tasks" yaml:"tasks"`
	DayTemplates  []DayTemplate  `json:"day_templates" yaml:"day_templates"`
	TaskTemplates []TaskTemplate `json:"task_templates" yaml:"task_templates"`
}

// BackupResult is the outcome of a backup transport operation.
type BackupResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Business logic methods for Task

// Clone returns a deep copy.
func (t Task) Clone() Task {
	out := t
	out.StartTime = cloneTime(t.StartTime)
	out.EndTime = cloneTime(t.EndTime)
	if t.Subtasks != nil {
		out.Subtasks = append([]Subtask(nil), t.Subtasks...)
	}
	return out
}

// AssignSubtaskIDs gives every subtask without an id a fresh one.
func (t *Task) AssignSubtaskIDs(newID func() string) {
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == "" {
			t.Subtasks[i].ID = newID()
		}
	}
}

// Subtask returns the subtask with the given id.
func (t *Task) Subtask(id string) (*Subtask, bool) {
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == id {
			return &t.Subtasks[i], true
		}
	}
	return nil, false
}

// Business logic methods for templates

// Instantiate builds a fresh, not-done task for date.
func (tt TaskTemplate) Instantiate(date Date, newID func() string) Task {
	task := Task{
		ID:          newID(),
		Title:       tt.Title,
		Description: tt.Description,
		Category:    tt.Category,
		StartTime:   cloneTime(tt.StartTime),
		EndTime:     cloneTime(tt.EndTime),
		Date:        date,
		Subtasks:    make([]Subtask, 0, len(tt.Subtasks)),
	}
	for _, title := range tt.Subtasks {
		task.Subtasks = append(task.Subtasks, Subtask{ID: newID(), Title: title})
	}
	return task
}

func (tt TaskTemplate) Clone() TaskTemplate {
	out := tt
	out.StartTime = cloneTime(tt.StartTime)
	out.EndTime = cloneTime(tt.EndTime)
	if tt.DayTemplateID != nil {
		id := *tt.DayTemplateID
		out.DayTemplateID = &id
	}
	if tt.Subtasks != nil {
		out.Subtasks = append([]string(nil), tt.Subtasks...)
	}
	return out
}

func (d DayTemplate) Clone() DayTemplate {
	out := d
	if d.Weekday != nil {
		wd := *d.Weekday
		out.Weekday = &wd
	}
	if d.Tasks != nil {
		out.Tasks = make([]TaskTemplate, len(d.Tasks))
		for i, tt := range d.Tasks {
			out.Tasks[i] = tt.Clone()
		}
	}
	return out
}

func cloneTime(t *TimeOfDay) *TimeOfDay {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// WeekdayPtr is a helper for building weekly templates.
func WeekdayPtr(wd time.Weekday) *time.Weekday {
	return &wd
}

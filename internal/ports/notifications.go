package ports

import (
	"context"
	"time"

	"github.com/taskmaster/routine/internal/domain/entities"
)

// Boundary names the edge of a task's time window a reminder belongs to.
type Boundary string

const (
	BoundaryStart Boundary = "start"
	BoundaryEnd   Boundary = "end"
)

// Alarm is a pending reminder. ID is stable for a (task, boundary) pair.
type Alarm struct {
	ID            string    `json:"id"`
	TaskID        string    `json:"task_id"`
	Boundary      Boundary  `json:"boundary"`
	TriggerAt     time.Time `json:"trigger_at"`
	Title         string    `json:"title"`
	OffsetMinutes int       `json:"offset_minutes"`
}

// AlarmFacility schedules alarms and emits them when due. Scheduling an
// existing ID replaces it. Cancel reports whether a pending alarm was
// removed; cancelling an unknown ID is a no-op.
type AlarmFacility interface {
	ScheduleAt(ctx context.Context, alarm Alarm) error
	Cancel(ctx context.Context, id string) (bool, error)
	Fired() <-chan Alarm
}

// Notification is what the user finally sees.
type Notification struct {
	TaskID    string    `json:"task_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Boundary  Boundary  `json:"boundary"`
	TriggerAt time.Time `json:"trigger_at"`
}

// Notifier delivers a notification to the user, at most once.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// SettingsProvider exposes the current settings and their changes.
type SettingsProvider interface {
	Current() entities.Settings
	Subscribe(ctx context.Context) <-chan entities.Settings
}

// TaskListener observes committed task writes.
type TaskListener interface {
	TaskSaved(ctx context.Context, task entities.Task)
	TaskDeleted(ctx context.Context, taskID string)
}

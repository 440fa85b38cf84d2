package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/taskmaster/routine/internal/domain/entities"
	"github.com/taskmaster/routine/internal/infrastructure/logger"
	"github.com/taskmaster/routine/internal/infrastructure/metrics"
	"github.com/taskmaster/routine/internal/ports"
)

var boundaries = []ports.Boundary{ports.BoundaryStart, ports.BoundaryEnd}

// Trigger is the instant a reminder for one boundary of a task should fire.
type Trigger struct {
	Boundary ports.Boundary
	At       time.Time
}

// TriggerTimes returns one trigger per time-window boundary the task has,
// offset before the boundary on the task's date in loc.
func TriggerTimes(task entities.Task, offset time.Duration, loc *time.Location) []Trigger {
	var triggers []Trigger
	if task.StartTime != nil {
		triggers = append(triggers, Trigger{
			Boundary: ports.BoundaryStart,
			At:       task.Date.At(*task.StartTime, loc).Add(-offset),
		})
	}
	if task.EndTime != nil {
		triggers = append(triggers, Trigger{
			Boundary: ports.BoundaryEnd,
			At:       task.Date.At(*task.EndTime, loc).Add(-offset),
		})
	}
	return triggers
}

// AlarmID is the stable alarm identity of one boundary of a task.
func AlarmID(taskID string, boundary ports.Boundary) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(taskID+"/"+string(boundary)))
}

// NotificationService keeps alarms in line with tasks and settings and
// delivers fired alarms.
type NotificationService struct {
	facility ports.AlarmFacility
	settings ports.SettingsProvider
	taskRepo ports.TaskRepository
	notifier ports.Notifier
	loc      *time.Location
	metrics  *metrics.Collector
	logger   *logger.Logger
	now      func() time.Time
}

func NewNotificationService(
	facility ports.AlarmFacility,
	settings ports.SettingsProvider,
	taskRepo ports.TaskRepository,
	notifier ports.Notifier,
	loc *time.Location,
	collector *metrics.Collector,
	logger *logger.Logger,
) *NotificationService {
	if loc == nil {
		loc = time.Local
	}
	return &NotificationService{
		facility: facility,
		settings: settings,
		taskRepo: taskRepo,
		notifier: notifier,
		loc:      loc,
		metrics:  collector,
		logger:   logger.WithComponent("notifications"),
		now:      time.Now,
	}
}

// Reconcile schedules the task's future reminders and cancels the rest.
func (s *NotificationService) Reconcile(ctx context.Context, task entities.Task) error {
	settings := s.settings.Current()
	if !settings.NotificationsEnabled || task.IsDone {
		return s.Cancel(ctx, task.ID)
	}

	now := s.now()
	scheduled := make(map[ports.Boundary]bool, len(boundaries))
	for _, trigger := range TriggerTimes(task, settings.Offset(), s.loc) {
		if !trigger.At.After(now) {
			continue
		}
		alarm := ports.Alarm{
			ID:            AlarmID(task.ID, trigger.Boundary),
			TaskID:        task.ID,
			Boundary:      trigger.Boundary,
			TriggerAt:     trigger.At,
			Title:         task.Title,
			OffsetMinutes: settings.NotificationOffsetMinutes,
		}
		if err := s.facility.ScheduleAt(ctx, alarm); err != nil {
			return fmt.Errorf("schedule %s reminder for task %s: %w", trigger.Boundary, task.ID, err)
		}
		scheduled[trigger.Boundary] = true
		s.metrics.Alarm(metrics.AlarmScheduled)
	}

	for _, b := range boundaries {
		if scheduled[b] {
			continue
		}
		if err := s.cancelAlarm(ctx, AlarmID(task.ID, b)); err != nil {
			return fmt.Errorf("cancel %s reminder for task %s: %w", b, task.ID, err)
		}
	}
	return nil
}

// Cancel drops every reminder of the task. Unknown tasks are fine.
func (s *NotificationService) Cancel(ctx context.Context, taskID string) error {
	var errs []error
	for _, b := range boundaries {
		if err := s.cancelAlarm(ctx, AlarmID(taskID, b)); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("cancel reminders for task %s: %w", taskID, errors.Join(errs...))
	}
	return nil
}

// cancelAlarm counts only alarms the facility actually removed.
func (s *NotificationService) cancelAlarm(ctx context.Context, id string) error {
	removed, err := s.facility.Cancel(ctx, id)
	if err != nil {
		return err
	}
	if removed {
		s.metrics.Alarm(metrics.AlarmCancelled)
	}
	return nil
}

// ReconcileAll re-derives alarms for every task that can still fire. With
// notifications disabled it cancels alarms of every task.
func (s *NotificationService) ReconcileAll(ctx context.Context) error {
	settings := s.settings.Current()

	filter := ports.TaskFilter{}
	if settings.NotificationsEnabled {
		today := entities.DateOf(s.now().In(s.loc))
		notDone := false
		filter = ports.TaskFilter{From: &today, IsDone: &notDone}
	}

	tasks, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("list tasks to reconcile: %w", err)
	}

	for _, task := range tasks {
		if err := s.Reconcile(ctx, task); err != nil {
			s.logger.WithError(err).Warnw("Failed to reconcile reminders", "task_id", task.ID)
		}
	}
	s.logger.Infow("Reminders reconciled",
		"tasks", len(tasks),
		"enabled", settings.NotificationsEnabled,
		"offset_minutes", settings.NotificationOffsetMinutes,
	)
	return nil
}

// Run reconciles once, then again after every settings change, until ctx is done.
func (s *NotificationService) Run(ctx context.Context) {
	changes := s.settings.Subscribe(ctx)

	if err := s.ReconcileAll(ctx); err != nil {
		s.logger.WithError(err).Error("Initial reminder reconciliation failed")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			if err := s.ReconcileAll(ctx); err != nil {
				s.logger.WithError(err).Error("Reminder reconciliation failed")
			}
		}
	}
}

// TaskSaved implements ports.TaskListener.
func (s *NotificationService) TaskSaved(ctx context.Context, task entities.Task) {
	if err := s.Reconcile(ctx, task); err != nil {
		s.logger.WithError(err).Warnw("Failed to reconcile reminders", "task_id", task.ID)
	}
}

// TaskDeleted implements ports.TaskListener.
func (s *NotificationService) TaskDeleted(ctx context.Context, taskID string) {
	if err := s.Cancel(ctx, taskID); err != nil {
		s.logger.WithError(err).Warnw("Failed to cancel reminders", "task_id", taskID)
	}
}

// Dispatch delivers one fired alarm. Alarms for tasks that were deleted or
// finished in the meantime are dropped silently. Delivery failures come back
// as *entities.SchedulingError and are never retried.
func (s *NotificationService) Dispatch(ctx context.Context, alarm ports.Alarm) error {
	s.metrics.Alarm(metrics.AlarmFired)

	if !s.settings.Current().NotificationsEnabled {
		s.metrics.Alarm(metrics.AlarmDiscarded)
		return nil
	}

	task, err := s.taskRepo.GetByID(ctx, alarm.TaskID)
	if err != nil {
		if entities.IsNotFound(err) {
			s.metrics.Alarm(metrics.AlarmDiscarded)
			return nil
		}
		return fmt.Errorf("load task for alarm %s: %w", alarm.ID, err)
	}
	if task.IsDone {
		s.metrics.Alarm(metrics.AlarmDiscarded)
		return nil
	}

	notification := ports.Notification{
		TaskID:    task.ID,
		Title:     task.Title,
		Body:      notificationBody(alarm),
		Boundary:  alarm.Boundary,
		TriggerAt: alarm.TriggerAt,
	}
	if err := s.notifier.Notify(ctx, notification); err != nil {
		s.metrics.NotificationFailed()
		return &entities.SchedulingError{TaskID: task.ID, Err: err}
	}
	return nil
}

// RunDispatcher consumes fired alarms until ctx is done or the facility stops.
func (s *NotificationService) RunDispatcher(ctx context.Context) {
	fired := s.facility.Fired()
	for {
		select {
		case <-ctx.Done():
			return
		case alarm, ok := <-fired:
			if !ok {
				return
			}
			if err := s.Dispatch(ctx, alarm); err != nil {
				s.logger.WithError(err).Warnw("Reminder not delivered", "task_id", alarm.TaskID, "alarm_id", alarm.ID)
			}
		}
	}
}

func notificationBody(alarm ports.Alarm) string {
	if alarm.Boundary == ports.BoundaryEnd {
		return fmt.Sprintf("Ends in %d minutes", alarm.OffsetMinutes)
	}
	return fmt.Sprintf("Starts in %d minutes", alarm.OffsetMinutes)
}

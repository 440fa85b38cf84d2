package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/routine/internal/domain/entities"
	"github.com/taskmaster/routine/internal/infrastructure/logger"
	"github.com/taskmaster/routine/internal/infrastructure/metrics"
	"github.com/taskmaster/routine/internal/ports"
)

// TaskService handles task-related operations
type TaskService struct {
	taskRepo  ports.TaskRepository
	feed      *changeFeed
	listeners []ports.TaskListener
	metrics   *metrics.Collector
	logger    *logger.Logger
	now       func() time.Time
	newID     func() string
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, collector *metrics.Collector, logger *logger.Logger) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		feed:     newChangeFeed(),
		metrics:  collector,
		logger:   logger.WithComponent("tasks"),
		now:      time.Now,
		newID:    newID,
	}
}

func newID() string {
	return uuid.New().String()
}

// AddListener registers l to observe committed task writes. Not safe to call
// once the service is in use.
func (s *TaskService) AddListener(l ports.TaskListener) {
	s.listeners = append(s.listeners, l)
}

// CreateTask validates and stores a new task
func (s *TaskService) CreateTask(ctx context.Context, task entities.Task) (*entities.Task, error) {
	s.prepare(&task)
	now := s.now()
	task.CreatedAt = now
	task.UpdatedAt = now

	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.metrics.TasksCreated(1)
	s.logger.Infow("Task created successfully", "task_id", task.ID, "date", task.Date.String())
	s.saved(ctx, task)

	return &task, nil
}

// CreateTasks stores every task or none. Validation failures are aggregated.
func (s *TaskService) CreateTasks(ctx context.Context, tasks []entities.Task) ([]entities.Task, error) {
	now := s.now()
	ve := &entities.ValidationError{Entity: "tasks"}
	for i := range tasks {
		s.prepare(&tasks[i])
		tasks[i].CreatedAt = now
		tasks[i].UpdatedAt = now
		if err := tasks[i].Validate(); err != nil {
			ve.Merge(fmt.Sprintf("tasks[%d]", i), err)
		}
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	if err := s.taskRepo.CreateMany(ctx, tasks); err != nil {
		return nil, fmt.Errorf("failed to create tasks: %w", err)
	}

	s.metrics.TasksCreated(len(tasks))
	s.logger.Infow("Tasks created successfully", "count", len(tasks))
	for _, task := range tasks {
		s.saved(ctx, task)
	}

	return tasks, nil
}

// GetTask retrieves a task by ID
func (s *TaskService) GetTask(ctx context.Context, id string) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// UpdateTask replaces a task's fields. The task must exist.
func (s *TaskService) UpdateTask(ctx context.Context, task entities.Task) (*entities.Task, error) {
	existing, err := s.taskRepo.GetByID(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.prepare(&task)
	task.CreatedAt = existing.CreatedAt
	task.UpdatedAt = s.now()

	if err := task.Validate(); err != nil {
		return nil, err
	}
	return s.save(ctx, task)
}

// DeleteTask removes a task. Deleting a missing task succeeds.
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	deleted, err := s.taskRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if !deleted {
		return nil
	}

	s.logger.Infow("Task deleted successfully", "task_id", id)
	s.feed.publish()
	for _, l := range s.listeners {
		l.TaskDeleted(ctx, id)
	}
	return nil
}

// DeleteTasksByDate removes every task scheduled on date and reports how many went.
func (s *TaskService) DeleteTasksByDate(ctx context.Context, date entities.Date) (int, error) {
	ids, err := s.taskRepo.DeleteByDate(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("failed to delete tasks: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	s.logger.Infow("Tasks deleted successfully", "date", date.String(), "count", len(ids))
	s.feed.publish()
	for _, id := range ids {
		for _, l := range s.listeners {
			l.TaskDeleted(ctx, id)
		}
	}
	return len(ids), nil
}

// ToggleDone flips the task's completion state.
func (s *TaskService) ToggleDone(ctx context.Context, id string) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle task: %w", err)
	}

	task.IsDone = !task.IsDone
	task.UpdatedAt = s.now()
	return s.save(ctx, *task)
}

// SetSubtaskDone marks one subtask done or not done.
func (s *TaskService) SetSubtaskDone(ctx context.Context, taskID, subtaskID string, done bool) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to update subtask: %w", err)
	}

	subtask, ok := task.Subtask(subtaskID)
	if !ok {
		return nil, &entities.NotFoundError{Entity: "subtask", ID: subtaskID}
	}
	subtask.IsDone = done
	task.UpdatedAt = s.now()
	return s.save(ctx, *task)
}

// ListTasks returns tasks matching filter ordered by date and start time
func (s *TaskService) ListTasks(ctx context.Context, filter ports.TaskFilter) ([]entities.Task, error) {
	tasks, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// WatchTasks streams the filtered task list, refreshed after every committed change.
func (s *TaskService) WatchTasks(ctx context.Context, filter ports.TaskFilter) (<-chan []entities.Task, error) {
	return watch(ctx, s.feed, s.logger, func(ctx context.Context) ([]entities.Task, error) {
		return s.ListTasks(ctx, filter)
	})
}

// Imported publishes the effects of a backup import that bypassed the service.
func (s *TaskService) Imported(ctx context.Context, result *ports.ImportResult) {
	s.feed.publish()
	for _, id := range result.RemovedTaskIDs {
		for _, l := range s.listeners {
			l.TaskDeleted(ctx, id)
		}
	}
	for _, task := range result.Tasks {
		s.saved(ctx, task)
	}
}

func (s *TaskService) save(ctx context.Context, task entities.Task) (*entities.Task, error) {
	if err := s.taskRepo.Update(ctx, &task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.logger.Infow("Task updated successfully", "task_id", task.ID, "is_done", task.IsDone)
	s.saved(ctx, task)
	return &task, nil
}

func (s *TaskService) saved(ctx context.Context, task entities.Task) {
	s.feed.publish()
	for _, l := range s.listeners {
		l.TaskSaved(ctx, task.Clone())
	}
}

func (s *TaskService) prepare(task *entities.Task) {
	if task.ID == "" {
		task.ID = s.newID()
	}
	if task.Category == "" {
		task.Category = entities.CategoryOther
	}
	if task.Subtasks == nil {
		task.Subtasks = []entities.Subtask{}
	}
	task.AssignSubtaskIDs(s.newID)
}

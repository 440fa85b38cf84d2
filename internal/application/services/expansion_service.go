package services

import (
	"context"
	"fmt"

	"github.com/taskmaster/routine/internal/domain/entities"
	"github.com/taskmaster/routine/internal/infrastructure/logger"
	"github.com/taskmaster/routine/internal/infrastructure/metrics"
	"github.com/taskmaster/routine/internal/ports"
)

type taskCreator interface {
	CreateTasks(ctx context.Context, tasks []entities.Task) ([]entities.Task, error)
}

// ExpansionService instantiates day templates as dated tasks
type ExpansionService struct {
	dayRepo ports.DayTemplateRepository
	tasks   taskCreator
	metrics *metrics.Collector
	logger  *logger.Logger
	newID   func() string
}

func NewExpansionService(dayRepo ports.DayTemplateRepository, tasks taskCreator, collector *metrics.Collector, logger *logger.Logger) *ExpansionService {
	return &ExpansionService{
		dayRepo: dayRepo,
		tasks:   tasks,
		metrics: collector,
		logger:  logger.WithComponent("expansion"),
		newID:   newID,
	}
}

// Expand builds one not-done task per task template, all dated date.
func Expand(tpl entities.DayTemplate, date entities.Date, newID func() string) []entities.Task {
	tasks := make([]entities.Task, 0, len(tpl.Tasks))
	for _, tt := range tpl.Tasks {
		tasks = append(tasks, tt.Instantiate(date, newID))
	}
	return tasks
}

// ApplyTemplate expands the day template onto date. Either every task is
// stored or none is.
func (s *ExpansionService) ApplyTemplate(ctx context.Context, templateID string, date entities.Date) ([]entities.Task, error) {
	if date.IsZero() {
		ve := &entities.ValidationError{Entity: "template expansion"}
		ve.Add("date", "is required")
		return nil, ve
	}

	tpl, err := s.dayRepo.GetByID(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to apply template: %w", err)
	}
	return s.apply(ctx, *tpl, date)
}

// ApplyWeekly applies the weekly template for date's weekday, if there is one.
func (s *ExpansionService) ApplyWeekly(ctx context.Context, date entities.Date) ([]entities.Task, error) {
	tpl, err := s.dayRepo.FindByWeekday(ctx, date.Weekday())
	if err != nil {
		if entities.IsNotFound(err) {
			return []entities.Task{}, nil
		}
		return nil, fmt.Errorf("failed to apply weekly template: %w", err)
	}
	return s.apply(ctx, *tpl, date)
}

func (s *ExpansionService) apply(ctx context.Context, tpl entities.DayTemplate, date entities.Date) ([]entities.Task, error) {
	tasks := Expand(tpl, date, s.newID)
	if len(tasks) == 0 {
		return tasks, nil
	}

	created, err := s.tasks.CreateTasks(ctx, tasks)
	if err != nil {
		return nil, err
	}

	s.metrics.TemplateApplied()
	s.logger.Infow("Template applied", "template_id", tpl.ID, "date", date.String(), "tasks", len(created))
	return created, nil
}

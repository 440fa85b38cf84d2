package services

import (
	"context"
	"fmt"
	"time"

	"github.com/taskmaster/routine/internal/domain/entities"
	"github.com/taskmaster/routine/internal/infrastructure/logger"
	"github.com/taskmaster/routine/internal/ports"
)

// TemplateService manages day templates and the standalone task template library
type TemplateService struct {
	dayRepo     ports.DayTemplateRepository
	libraryRepo ports.TaskTemplateRepository
	feed        *changeFeed
	logger      *logger.Logger
	now         func() time.Time
	newID       func() string
}

// NewTemplateService creates a new template service
func NewTemplateService(dayRepo ports.DayTemplateRepository, libraryRepo ports.TaskTemplateRepository, logger *logger.Logger) *TemplateService {
	return &TemplateService{
		dayRepo:     dayRepo,
		libraryRepo: libraryRepo,
		feed:        newChangeFeed(),
		logger:      logger.WithComponent("templates"),
		now:         time.Now,
		newID:       newID,
	}
}

// CreateDayTemplate validates and stores a new day template. Its task
// templates always get fresh ids, so posting a copy of an existing template
// or a library entry duplicates it instead of moving it.
func (s *TemplateService) CreateDayTemplate(ctx context.Context, tpl entities.DayTemplate) (*entities.DayTemplate, error) {
	s.prepareDay(&tpl)
	for i := range tpl.Tasks {
		tpl.Tasks[i].ID = s.newID()
	}
	now := s.now()
	tpl.CreatedAt = now
	tpl.UpdatedAt = now

	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkWeekday(ctx, tpl); err != nil {
		return nil, err
	}

	if err := s.dayRepo.Create(ctx, &tpl); err != nil {
		return nil, fmt.Errorf("failed to create day template: %w", err)
	}

	s.logger.Infow("Day template created successfully", "template_id", tpl.ID, "name", tpl.Name)
	s.feed.publish()
	return &tpl, nil
}

// GetDayTemplate retrieves a day template by ID
func (s *TemplateService) GetDayTemplate(ctx context.Context, id string) (*entities.DayTemplate, error) {
	tpl, err := s.dayRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get day template: %w", err)
	}
	return tpl, nil
}

// UpdateDayTemplate replaces a day template. The template must exist and may
// only reuse task template ids it already owns.
func (s *TemplateService) UpdateDayTemplate(ctx context.Context, tpl entities.DayTemplate) (*entities.DayTemplate, error) {
	existing, err := s.dayRepo.GetByID(ctx, tpl.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update day template: %w", err)
	}

	s.prepareDay(&tpl)
	tpl.CreatedAt = existing.CreatedAt
	tpl.UpdatedAt = s.now()

	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkWeekday(ctx, tpl); err != nil {
		return nil, err
	}

	if err := s.dayRepo.Update(ctx, &tpl); err != nil {
		return nil, fmt.Errorf("failed to update day template: %w", err)
	}

	s.logger.Infow("Day template updated successfully", "template_id", tpl.ID)
	s.feed.publish()
	return &tpl, nil
}

// UpsertWeeklyTemplate stores tpl as the weekly template for weekday,
// replacing whatever template held that weekday before.
func (s *TemplateService) UpsertWeeklyTemplate(ctx context.Context, weekday time.Weekday, tpl entities.DayTemplate) (*entities.DayTemplate, error) {
	tpl.IsWeekly = true
	tpl.Weekday = entities.WeekdayPtr(weekday)

	existing, err := s.dayRepo.FindByWeekday(ctx, weekday)
	switch {
	case err == nil:
		tpl.ID = existing.ID
		owned := make(map[string]bool, len(existing.Tasks))
		for _, tt := range existing.Tasks {
			owned[tt.ID] = true
		}
		tpl.Tasks = append([]entities.TaskTemplate(nil), tpl.Tasks...)
		for i := range tpl.Tasks {
			if !owned[tpl.Tasks[i].ID] {
				tpl.Tasks[i].ID = ""
			}
		}
		return s.UpdateDayTemplate(ctx, tpl)
	case entities.IsNotFound(err):
		return s.CreateDayTemplate(ctx, tpl)
	default:
		return nil, fmt.Errorf("failed to upsert weekly template: %w", err)
	}
}

// DeleteDayTemplate removes a day template and its task templates. Missing ids succeed.
func (s *TemplateService) DeleteDayTemplate(ctx context.Context, id string) error {
	deleted, err := s.dayRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete day template: %w", err)
	}
	if deleted {
		s.logger.Infow("Day template deleted successfully", "template_id", id)
		s.feed.publish()
	}
	return nil
}

func (s *TemplateService) ListDayTemplates(ctx context.Context, filter ports.TemplateFilter) ([]entities.DayTemplate, error) {
	tpls, err := s.dayRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list day templates: %w", err)
	}
	return tpls, nil
}

// WatchDayTemplates streams the filtered template list, refreshed after every committed change.
func (s *TemplateService) WatchDayTemplates(ctx context.Context, filter ports.TemplateFilter) (<-chan []entities.DayTemplate, error) {
	return watch(ctx, s.feed, s.logger, func(ctx context.Context) ([]entities.DayTemplate, error) {
		return s.ListDayTemplates(ctx, filter)
	})
}

// CreateTaskTemplate adds a template to the library
func (s *TemplateService) CreateTaskTemplate(ctx context.Context, tpl entities.TaskTemplate) (*entities.TaskTemplate, error) {
	s.prepareTask(&tpl)
	tpl.DayTemplateID = nil

	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	if err := s.libraryRepo.Create(ctx, &tpl); err != nil {
		return nil, fmt.Errorf("failed to create task template: %w", err)
	}

	s.logger.Infow("Task template created successfully", "template_id", tpl.ID, "title", tpl.Title)
	return &tpl, nil
}

func (s *TemplateService) GetTaskTemplate(ctx context.Context, id string) (*entities.TaskTemplate, error) {
	tpl, err := s.libraryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get task template: %w", err)
	}
	return tpl, nil
}

func (s *TemplateService) UpdateTaskTemplate(ctx context.Context, tpl entities.TaskTemplate) (*entities.TaskTemplate, error) {
	s.prepareTask(&tpl)
	tpl.DayTemplateID = nil

	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	if err := s.libraryRepo.Update(ctx, &tpl); err != nil {
		return nil, fmt.Errorf("failed to update task template: %w", err)
	}

	s.logger.Infow("Task template updated successfully", "template_id", tpl.ID)
	return &tpl, nil
}

func (s *TemplateService) DeleteTaskTemplate(ctx context.Context, id string) error {
	deleted, err := s.libraryRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete task template: %w", err)
	}
	if deleted {
		s.logger.Infow("Task template deleted successfully", "template_id", id)
	}
	return nil
}

func (s *TemplateService) ListTaskTemplates(ctx context.Context) ([]entities.TaskTemplate, error) {
	tpls, err := s.libraryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list task templates: %w", err)
	}
	return tpls, nil
}

// Imported refreshes live views after a backup import.
func (s *TemplateService) Imported(_ context.Context, _ *ports.ImportResult) {
	s.feed.publish()
}

// checkWeekday rejects a second weekly template for the same weekday.
func (s *TemplateService) checkWeekday(ctx context.Context, tpl entities.DayTemplate) error {
	if !tpl.IsWeekly || tpl.Weekday == nil {
		return nil
	}

	existing, err := s.dayRepo.FindByWeekday(ctx, *tpl.Weekday)
	if err != nil {
		if entities.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to check weekday: %w", err)
	}
	if existing.ID != tpl.ID {
		return &entities.ConflictError{
			Entity:  "day template",
			Message: fmt.Sprintf("%s already has weekly template %q", *tpl.Weekday, existing.Name),
		}
	}
	return nil
}

func (s *TemplateService) prepareDay(tpl *entities.DayTemplate) {
	if tpl.ID == "" {
		tpl.ID = s.newID()
	}
	tpl.Tasks = append([]entities.TaskTemplate{}, tpl.Tasks...)
	for i := range tpl.Tasks {
		s.prepareTask(&tpl.Tasks[i])
		owner := tpl.ID
		tpl.Tasks[i].DayTemplateID = &owner
	}
}

func (s *TemplateService) prepareTask(tpl *entities.TaskTemplate) {
	if tpl.ID == "" {
		tpl.ID = s.newID()
	}
	if tpl.Category == "" {
		tpl.Category = entities.CategoryOther
	}
	if tpl.Subtasks == nil {
		tpl.Subtasks = []string{}
	}
}

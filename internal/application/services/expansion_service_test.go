package services

import (
	"context"
	"testing"
	"time"

	"github.com/taskmaster/routine/internal/domain/entities"
	"github.com/taskmaster/routine/internal/infrastructure/logger"
	"github.com/taskmaster/routine/internal/ports"
)

func morningRoutine() entities.DayTemplate {
	return entities.DayTemplate{
		Name: "Weekday",
		Tasks: []entities.TaskTemplate{
			{Title: "Run", Category: entities.CategoryHealth, StartTime: entities.MustTimeOfDay("07:00"), EndTime: entities.MustTimeOfDay("07:30"), Subtasks: []string{"stretch", "shower"}},
			{Title: "Email", Category: entities.CategoryWork, StartTime: entities.MustTimeOfDay("09:00"), EndTime: entities.MustTimeOfDay("09:30")},
			{Title: "Read", Category: entities.CategoryLeisure},
		},
	}
}

func newTestExpansion(t *testing.T, store *testStore) (*ExpansionService, *TemplateService, *TaskService) {
	t.Helper()
	tasks := newTestTaskService(t, store)
	templates := NewTemplateService(store.days, store.library, logger.NewNop())
	return NewExpansionService(store.days, tasks, nil, logger.NewNop()), templates, tasks
}

func TestExpandIsPure(t *testing.T) {
	tpl := morningRoutine()
	date := entities.MustDate("2024-01-15")

	tasks := Expand(tpl, date, sequentialIDs("x"))
	if len(tasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(tasks))
	}
	for i, task := range tasks {
		if task.Date != date || task.IsDone || task.Title != tpl.Tasks[i].Title {
			t.Fatalf("task %d = %+v", i, task)
		}
	}
	if len(tasks[0].Subtasks) != 2 || tasks[0].Subtasks[0].IsDone || tasks[0].Subtasks[0].ID == "" {
		t.Fatalf("subtasks = %+v", tasks[0].Subtasks)
	}

	// Instances own their times.
	tasks[0].StartTime.Hour = 6
	if tpl.Tasks[0].StartTime.Hour != 7 {
		t.Fatal("expanding must not alias template times")
	}
}

func TestApplyTemplateCreatesTasks(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	expansion, templates, tasks := newTestExpansion(t, store)

	tpl, err := templates.CreateDayTemplate(ctx, morningRoutine())
	if err != nil {
		t.Fatalf("create template: %v", err)
	}

	date := entities.MustDate("2024-01-15")
	created, err := expansion.ApplyTemplate(ctx, tpl.ID, date)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("created %d tasks, want 3", len(created))
	}

	stored, err := tasks.ListTasks(ctx, ports.TaskFilter{Date: &date})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("stored %d tasks, want 3", len(stored))
	}
	for _, task := range stored {
		if task.IsDone {
			t.Fatalf("expanded task %q should not be done", task.Title)
		}
		for _, st := range task.Subtasks {
			if st.IsDone {
				t.Fatalf("expanded subtask %q should not be done", st.Title)
			}
		}
	}

	// Applying twice yields independent copies.
	again, err := expansion.ApplyTemplate(ctx, tpl.ID, date)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if again[0].ID == created[0].ID {
		t.Fatal("second expansion reused a task id")
	}
}

func TestApplyTemplateIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	expansion, _, tasks := newTestExpansion(t, store)

	// Written straight to the repository so the bad blueprint skips service validation.
	owner := "broken"
	tpl := entities.DayTemplate{
		ID:   owner,
		Name: "Broken",
		Tasks: []entities.TaskTemplate{
			{ID: "ok", DayTemplateID: &owner, Title: "Fine", Category: entities.CategoryWork, Subtasks: []string{}},
			{ID: "bad", DayTemplateID: &owner, Title: "", Category: entities.CategoryWork, Subtasks: []string{}},
		},
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := store.days.Create(ctx, &tpl); err != nil {
		t.Fatalf("seed template: %v", err)
	}

	_, err := expansion.ApplyTemplate(ctx, owner, entities.MustDate("2024-01-15"))
	if !entities.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	stored, err := tasks.ListTasks(ctx, ports.TaskFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("no task should be stored, got %d", len(stored))
	}
}

func TestApplyTemplateErrors(t *testing.T) {
	ctx := context.Background()
	expansion, _, _ := newTestExpansion(t, newTestStore(t))

	if _, err := expansion.ApplyTemplate(ctx, "missing", entities.MustDate("2024-01-15")); !entities.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if _, err := expansion.ApplyTemplate(ctx, "missing", entities.Date{}); !entities.IsValidation(err) {
		t.Fatalf("expected ValidationError for zero date, got %v", err)
	}
}

func TestApplyWeekly(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	expansion, templates, _ := newTestExpansion(t, store)

	monday := entities.MustDate("2024-01-15")
	none, err := expansion.ApplyWeekly(ctx, monday)
	if err != nil {
		t.Fatalf("apply weekly without template: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Fatalf("expected empty result, got %v", none)
	}

	if _, err := templates.UpsertWeeklyTemplate(ctx, time.Monday, morningRoutine()); err != nil {
		t.Fatalf("upsert weekly: %v", err)
	}

	created, err := expansion.ApplyWeekly(ctx, monday)
	if err != nil {
		t.Fatalf("apply weekly: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("created %d tasks, want 3", len(created))
	}

	tuesday, err := expansion.ApplyWeekly(ctx, monday.AddDays(1))
	if err != nil || len(tuesday) != 0 {
		t.Fatalf("tuesday = %v (err=%v)", tuesday, err)
	}
}

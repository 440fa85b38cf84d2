package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/taskmaster/routine/internal/domain/entities"
	"github.com/taskmaster/routine/internal/infrastructure/logger"
	"github.com/taskmaster/routine/internal/ports"
)

func newTestTemplates(t *testing.T) *TemplateService {
	t.Helper()
	store := newTestStore(t)
	svc := NewTemplateService(store.days, store.library, logger.NewNop())
	svc.now = fixedClock(time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))
	return svc
}

func TestWeeklyTemplateWeekdayIsUnique(t *testing.T) {
	ctx := context.Background()
	svc := newTestTemplates(t)

	first := morningRoutine()
	first.IsWeekly = true
	first.Weekday = entities.WeekdayPtr(time.Monday)
	if _, err := svc.CreateDayTemplate(ctx, first); err != nil {
		t.Fatalf("create first: %v", err)
	}

	second := morningRoutine()
	second.Name = "Another Monday"
	second.IsWeekly = true
	second.Weekday = entities.WeekdayPtr(time.Monday)
	_, err := svc.CreateDayTemplate(ctx, second)
	var conflict *entities.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}

	weekly := true
	list, err := svc.ListDayTemplates(ctx, ports.TemplateFilter{IsWeekly: &weekly})
	if err != nil || len(list) != 1 {
		t.Fatalf("weekly templates = %d (err=%v)", len(list), err)
	}
}

func TestUpsertWeeklyTemplateReplaces(t *testing.T) {
	ctx := context.Background()
	svc := newTestTemplates(t)

	first, err := svc.UpsertWeeklyTemplate(ctx, time.Friday, morningRoutine())
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	replacement := entities.DayTemplate{
		Name:  "Friday light",
		Tasks: []entities.TaskTemplate{{Title: "Review week", Category: entities.CategoryWork}},
	}
	second, err := svc.UpsertWeeklyTemplate(ctx, time.Friday, replacement)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID || !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("upsert should keep identity: %s vs %s", second.ID, first.ID)
	}

	got, err := svc.GetDayTemplate(ctx, first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Friday light" || len(got.Tasks) != 1 || !got.IsWeekly || *got.Weekday != time.Friday {
		t.Fatalf("stored template = %+v", got)
	}
}

func TestDayTemplateValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestTemplates(t)

	weeklyWithoutDay := morningRoutine()
	weeklyWithoutDay.IsWeekly = true
	if _, err := svc.CreateDayTemplate(ctx, weeklyWithoutDay); !entities.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	backwards := morningRoutine()
	backwards.Tasks[0].StartTime = entities.MustTimeOfDay("10:00")
	if _, err := svc.CreateDayTemplate(ctx, backwards); !entities.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	if err := svc.DeleteDayTemplate(ctx, "missing"); err != nil {
		t.Fatalf("deleting a missing template should succeed: %v", err)
	}
	if _, err := svc.UpdateDayTemplate(ctx, entities.DayTemplate{ID: "missing", Name: "x"}); !entities.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestTaskTemplateLibrary(t *testing.T) {
	ctx := context.Background()
	svc := newTestTemplates(t)

	created, err := svc.CreateTaskTemplate(ctx, entities.TaskTemplate{Title: "Water plants", Subtasks: []string{"balcony"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Category != entities.CategoryOther || created.DayTemplateID != nil {
		t.Fatalf("created = %+v", created)
	}

	// Day template children stay out of the library.
	if _, err := svc.CreateDayTemplate(ctx, morningRoutine()); err != nil {
		t.Fatalf("create day template: %v", err)
	}

	library, err := svc.ListTaskTemplates(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(library) != 1 || library[0].ID != created.ID {
		t.Fatalf("library = %+v", library)
	}

	created.Title = "Water all plants"
	if _, err := svc.UpdateTaskTemplate(ctx, *created); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := svc.GetTaskTemplate(ctx, created.ID)
	if err != nil || got.Title != "Water all plants" || len(got.Subtasks) != 1 {
		t.Fatalf("get = %+v (err=%v)", got, err)
	}

	if err := svc.DeleteTaskTemplate(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetTaskTemplate(ctx, created.ID); !entities.IsNotFound(err) {
		t.Fatalf("expected NotFoundError after delete, got %v", err)
	}
}

func TestWatchDayTemplates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := newTestTemplates(t)

	updates, err := svc.WatchDayTemplates(ctx, ports.TemplateFilter{})
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if initial := receive(t, updates); len(initial) != 0 {
		t.Fatalf("initial = %d templates", len(initial))
	}

	if _, err := svc.CreateDayTemplate(ctx, morningRoutine()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if next := receive(t, updates); len(next) != 1 {
		t.Fatalf("after create = %d templates", len(next))
	}
}

func TestCreateDayTemplateCopiesNestedTemplates(t *testing.T) {
	ctx := context.Background()
	svc := newTestTemplates(t)

	original, err := svc.CreateDayTemplate(ctx, entities.DayTemplate{
		Name:  "A",
		Tasks: []entities.TaskTemplate{{Title: "Run", Category: entities.CategoryHealth}},
	})
	if err != nil {
		t.Fatalf("create A: %v", err)
	}

	fetched, err := svc.GetDayTemplate(ctx, original.ID)
	if err != nil {
		t.Fatalf("get A: %v", err)
	}
	duplicate := *fetched
	duplicate.ID = ""
	duplicate.Name = "B"
	copied, err := svc.CreateDayTemplate(ctx, duplicate)
	if err != nil {
		t.Fatalf("create B: %v", err)
	}
	if len(copied.Tasks) != 1 || copied.Tasks[0].ID == fetched.Tasks[0].ID {
		t.Fatalf("copy should get its own task template ids: %+v", copied.Tasks)
	}

	after, err := svc.GetDayTemplate(ctx, original.ID)
	if err != nil || len(after.Tasks) != 1 || after.Tasks[0].ID != fetched.Tasks[0].ID {
		t.Fatalf("A after copy = %+v (err=%v)", after, err)
	}

	stretch, err := svc.CreateTaskTemplate(ctx, entities.TaskTemplate{Title: "Stretch", Category: entities.CategoryHealth})
	if err != nil {
		t.Fatalf("create library entry: %v", err)
	}
	withEntry, err := svc.CreateDayTemplate(ctx, entities.DayTemplate{Name: "C", Tasks: []entities.TaskTemplate{*stretch}})
	if err != nil {
		t.Fatalf("create C: %v", err)
	}
	if withEntry.Tasks[0].ID == stretch.ID || withEntry.Tasks[0].Title != "Stretch" {
		t.Fatalf("library entry should be copied into C: %+v", withEntry.Tasks[0])
	}
	library, err := svc.ListTaskTemplates(ctx)
	if err != nil || len(library) != 1 || library[0].ID != stretch.ID {
		t.Fatalf("library after C = %+v (err=%v)", library, err)
	}
}

func TestUpdateDayTemplateRejectsForeignTaskTemplates(t *testing.T) {
	ctx := context.Background()
	svc := newTestTemplates(t)

	a, err := svc.CreateDayTemplate(ctx, entities.DayTemplate{
		Name:  "A",
		Tasks: []entities.TaskTemplate{{Title: "Run", Category: entities.CategoryHealth}},
	})
	if err != nil {
		t.Fatalf("create A: %v", err)
	}
	b, err := svc.CreateDayTemplate(ctx, entities.DayTemplate{Name: "B"})
	if err != nil {
		t.Fatalf("create B: %v", err)
	}
	stretch, err := svc.CreateTaskTemplate(ctx, entities.TaskTemplate{Title: "Stretch"})
	if err != nil {
		t.Fatalf("create library entry: %v", err)
	}

	var conflict *entities.ConflictError
	b.Tasks = a.Tasks
	if _, err := svc.UpdateDayTemplate(ctx, *b); !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError for A's task template, got %v", err)
	}
	b.Tasks = []entities.TaskTemplate{*stretch}
	if _, err := svc.UpdateDayTemplate(ctx, *b); !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError for a library entry, got %v", err)
	}

	got, err := svc.GetDayTemplate(ctx, a.ID)
	if err != nil || len(got.Tasks) != 1 {
		t.Fatalf("A after rejected updates = %+v (err=%v)", got, err)
	}
	if _, err := svc.GetTaskTemplate(ctx, stretch.ID); err != nil {
		t.Fatalf("library entry should survive: %v", err)
	}
}

func TestUpsertWeeklyTemplateCopiesFromAnotherWeekday(t *testing.T) {
	ctx := context.Background()
	svc := newTestTemplates(t)

	monday, err := svc.UpsertWeeklyTemplate(ctx, time.Monday, morningRoutine())
	if err != nil {
		t.Fatalf("monday: %v", err)
	}
	if _, err := svc.UpsertWeeklyTemplate(ctx, time.Tuesday, entities.DayTemplate{Name: "Tuesday"}); err != nil {
		t.Fatalf("tuesday: %v", err)
	}

	tuesday, err := svc.UpsertWeeklyTemplate(ctx, time.Tuesday, *monday)
	if err != nil {
		t.Fatalf("copy monday onto tuesday: %v", err)
	}
	if len(tuesday.Tasks) != len(monday.Tasks) || tuesday.Tasks[0].ID == monday.Tasks[0].ID {
		t.Fatalf("tuesday tasks = %+v", tuesday.Tasks)
	}

	got, err := svc.GetDayTemplate(ctx, monday.ID)
	if err != nil || len(got.Tasks) != len(monday.Tasks) {
		t.Fatalf("monday after copy = %+v (err=%v)", got, err)
	}
}

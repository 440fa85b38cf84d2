package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/taskmaster/routine/internal/domain/backup"
	"github.com/taskmaster/routine/internal/domain/entities"
	"github.com/taskmaster/routine/internal/infrastructure/logger"
	"github.com/taskmaster/routine/internal/ports"
)

type backupFixture struct {
	store     *testStore
	tasks     *TaskService
	templates *TemplateService
	backup    *BackupService
	remote    *memoryBackupStore
}

func newBackupFixture(t *testing.T) *backupFixture {
	t.Helper()
	store := newTestStore(t)
	f := &backupFixture{
		store:     store,
		tasks:     newTestTaskService(t, store),
		templates: NewTemplateService(store.days, store.library, logger.NewNop()),
		remote:    newMemoryBackupStore(),
	}
	f.backup = NewBackupService(store.snapshots, f.remote, nil, logger.NewNop())
	f.backup.now = fixedClock(time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC))
	f.backup.OnImport(f.tasks.Imported)
	f.backup.OnImport(f.templates.Imported)
	return f
}

func (f *backupFixture) populate(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	if _, err := f.tasks.CreateTask(ctx, validTask("Write report", "2024-01-15")); err != nil {
		t.Fatalf("create task: %v", err)
	}
	done, err := f.tasks.CreateTask(ctx, validTask("Gym", "2024-01-16"))
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if _, err := f.tasks.ToggleDone(ctx, done.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if _, err := f.templates.UpsertWeeklyTemplate(ctx, time.Monday, morningRoutine()); err != nil {
		t.Fatalf("weekly template: %v", err)
	}
	if _, err := f.templates.CreateTaskTemplate(ctx, entities.TaskTemplate{Title: "Call mom", Category: entities.CategoryPersonal}); err != nil {
		t.Fatalf("library template: %v", err)
	}
}

func assertSameDocument(t *testing.T, got, want entities.BackupDocument) {
	t.Helper()
	if len(got.Tasks) != len(want.Tasks) || len(got.DayTemplates) != len(want.DayTemplates) || len(got.TaskTemplates) != len(want.TaskTemplates) {
		t.Fatalf("document sizes: got %d/%d/%d want %d/%d/%d",
			len(got.Tasks), len(got.DayTemplates), len(got.TaskTemplates),
			len(want.Tasks), len(want.DayTemplates), len(want.TaskTemplates))
	}
	for i := range want.Tasks {
		assertSameTask(t, got.Tasks[i], want.Tasks[i])
	}
	for i := range want.DayTemplates {
		g, w := got.DayTemplates[i], want.DayTemplates[i]
		if g.ID != w.ID || g.Name != w.Name || g.IsWeekly != w.IsWeekly || len(g.Tasks) != len(w.Tasks) {
			t.Fatalf("day template %d: got %+v want %+v", i, g, w)
		}
		for j := range w.Tasks {
			if g.Tasks[j].ID != w.Tasks[j].ID || g.Tasks[j].Title != w.Tasks[j].Title || len(g.Tasks[j].Subtasks) != len(w.Tasks[j].Subtasks) {
				t.Fatalf("day template %d task %d: got %+v want %+v", i, j, g.Tasks[j], w.Tasks[j])
			}
		}
	}
	for i := range want.TaskTemplates {
		if got.TaskTemplates[i].ID != want.TaskTemplates[i].ID || got.TaskTemplates[i].Title != want.TaskTemplates[i].Title {
			t.Fatalf("task template %d: got %+v want %+v", i, got.TaskTemplates[i], want.TaskTemplates[i])
		}
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	for _, format := range []backup.Format{backup.FormatJSON, backup.FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			ctx := context.Background()
			source := newBackupFixture(t)
			source.populate(t)

			exported, err := source.backup.Export(ctx)
			if err != nil {
				t.Fatalf("export: %v", err)
			}
			if exported.Version != entities.BackupFormatVersion {
				t.Fatalf("version = %d", exported.Version)
			}

			data, err := source.backup.ExportEncoded(ctx, format)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}

			target := newBackupFixture(t)
			if err := target.backup.ImportEncoded(ctx, data, format, ports.ImportMerge); err != nil {
				t.Fatalf("import: %v", err)
			}

			imported, err := target.backup.Export(ctx)
			if err != nil {
				t.Fatalf("export target: %v", err)
			}
			assertSameDocument(t, imported, exported)
		})
	}
}

func TestImportMergeAndReplace(t *testing.T) {
	ctx := context.Background()
	source := newBackupFixture(t)
	source.populate(t)
	doc, err := source.backup.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	target := newBackupFixture(t)
	listener := &recordingListener{}
	target.tasks.AddListener(listener)
	local, err := target.tasks.CreateTask(ctx, validTask("Local only", "2024-01-17"))
	if err != nil {
		t.Fatalf("create local: %v", err)
	}

	if err := target.backup.Import(ctx, doc, ports.ImportMerge); err != nil {
		t.Fatalf("merge: %v", err)
	}
	all, _ := target.tasks.ListTasks(ctx, ports.TaskFilter{})
	if len(all) != len(doc.Tasks)+1 {
		t.Fatalf("merge kept %d tasks, want %d", len(all), len(doc.Tasks)+1)
	}

	if err := target.backup.Import(ctx, doc, ports.ImportReplace); err != nil {
		t.Fatalf("replace: %v", err)
	}
	all, _ = target.tasks.ListTasks(ctx, ports.TaskFilter{})
	if len(all) != len(doc.Tasks) {
		t.Fatalf("replace left %d tasks, want %d", len(all), len(doc.Tasks))
	}
	if _, err := target.tasks.GetTask(ctx, local.ID); !entities.IsNotFound(err) {
		t.Fatalf("local task should be gone after replace, got %v", err)
	}

	var sawDelete bool
	for _, id := range listener.deleted {
		if id == local.ID {
			sawDelete = true
		}
	}
	if !sawDelete {
		t.Fatal("listeners should hear about tasks removed by a replace import")
	}

	if err := target.backup.Import(ctx, doc, ports.ImportMode("overwrite")); !entities.IsValidation(err) {
		t.Fatalf("expected ValidationError for unknown mode, got %v", err)
	}
}

func TestImportRejectsBadDocuments(t *testing.T) {
	ctx := context.Background()
	f := newBackupFixture(t)
	f.populate(t)
	before, err := f.backup.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	err = f.backup.ImportEncoded(ctx, []byte(`{"version": 1, "tasks": [`), backup.FormatJSON, ports.ImportReplace)
	var de *entities.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}

	twoMondays := entities.BackupDocument{
		Version: entities.BackupFormatVersion,
		DayTemplates: []entities.DayTemplate{
			{ID: "a", Name: "A", IsWeekly: true, Weekday: entities.WeekdayPtr(time.Monday)},
			{ID: "b", Name: "B", IsWeekly: true, Weekday: entities.WeekdayPtr(time.Monday)},
		},
	}
	if err := f.backup.Import(ctx, twoMondays, ports.ImportReplace); !entities.IsValidation(err) {
		t.Fatalf("expected ValidationError for duplicate weekday, got %v", err)
	}

	dupIDs := entities.BackupDocument{
		Version: entities.BackupFormatVersion,
		Tasks:   []entities.Task{validTask("One", "2024-01-15"), validTask("Two", "2024-01-15")},
	}
	dupIDs.Tasks[0].ID = "same"
	dupIDs.Tasks[1].ID = "same"
	if err := f.backup.Import(ctx, dupIDs, ports.ImportReplace); !entities.IsValidation(err) {
		t.Fatalf("expected ValidationError for duplicate ids, got %v", err)
	}

	after, err := f.backup.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	assertSameDocument(t, after, before)
}

func TestBackupAndRestore(t *testing.T) {
	ctx := context.Background()
	f := newBackupFixture(t)
	f.populate(t)

	result := f.backup.Backup(ctx, "user-1")
	if !result.Success || result.Message != "Backup completed" {
		t.Fatalf("backup = %+v", result)
	}

	other := newBackupFixture(t)
	other.backup.store = f.remote
	result = other.backup.Restore(ctx, "user-1", ports.ImportMerge)
	if !result.Success || result.Message != "Restore completed" {
		t.Fatalf("restore = %+v", result)
	}
	tasks, _ := other.tasks.ListTasks(ctx, ports.TaskFilter{})
	if len(tasks) != 2 {
		t.Fatalf("restored %d tasks, want 2", len(tasks))
	}

	result = other.backup.Restore(ctx, "nobody", ports.ImportMerge)
	if result.Success || result.Message != "no backup found for this account" {
		t.Fatalf("restore without backup = %+v", result)
	}
}

func TestBackupTransportFailures(t *testing.T) {
	ctx := context.Background()
	f := newBackupFixture(t)
	f.populate(t)

	f.remote.putErr = errors.New("connection reset")
	result := f.backup.Backup(ctx, "user-1")
	if result.Success || !strings.Contains(result.Message, "upload") || !strings.Contains(result.Message, "connection reset") {
		t.Fatalf("backup = %+v", result)
	}

	f.remote.getErr = errors.New("timeout")
	result = f.backup.Restore(ctx, "user-1", ports.ImportMerge)
	if result.Success || !strings.Contains(result.Message, "download") {
		t.Fatalf("restore = %+v", result)
	}
}

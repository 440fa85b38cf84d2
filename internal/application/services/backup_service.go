package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taskmaster/routine/internal/domain/backup"
	"github.com/taskmaster/routine/internal/domain/entities"
	"github.com/taskmaster/routine/internal/infrastructure/logger"
	"github.com/taskmaster/routine/internal/infrastructure/metrics"
	"github.com/taskmaster/routine/internal/ports"
)

// ImportHook is told what an import changed, after it committed.
type ImportHook func(ctx context.Context, result *ports.ImportResult)

// BackupService exports and imports the whole store and moves documents to
// and from the per-user backup store.
type BackupService struct {
	snapshots ports.SnapshotRepository
	store     ports.BackupStore
	hooks     []ImportHook
	metrics   *metrics.Collector
	logger    *logger.Logger
	now       func() time.Time
	newID     func() string
}

func NewBackupService(snapshots ports.SnapshotRepository, store ports.BackupStore, collector *metrics.Collector, logger *logger.Logger) *BackupService {
	return &BackupService{
		snapshots: snapshots,
		store:     store,
		metrics:   collector,
		logger:    logger.WithComponent("backup"),
		now:       time.Now,
		newID:     newID,
	}
}

// OnImport registers a hook run after every successful import.
func (s *BackupService) OnImport(hook ImportHook) {
	s.hooks = append(s.hooks, hook)
}

// Export snapshots tasks, day templates and library templates.
func (s *BackupService) Export(ctx context.Context) (entities.BackupDocument, error) {
	doc, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		s.metrics.Backup("export", false)
		return entities.BackupDocument{}, fmt.Errorf("failed to export: %w", err)
	}
	doc.Version = entities.BackupFormatVersion
	doc.CreatedAt = s.now().UTC()

	s.metrics.Backup("export", true)
	return *doc, nil
}

// ExportEncoded is Export followed by backup.Encode.
func (s *BackupService) ExportEncoded(ctx context.Context, format backup.Format) ([]byte, error) {
	doc, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}
	return backup.Encode(doc, format)
}

// Import validates doc and writes it in one transaction. Merge leaves
// entities absent from doc alone; replace removes them.
func (s *BackupService) Import(ctx context.Context, doc entities.BackupDocument, mode ports.ImportMode) error {
	if mode == "" {
		mode = ports.ImportMerge
	}
	if !mode.IsValid() {
		ve := &entities.ValidationError{Entity: "import"}
		ve.Add("mode", "must be one of merge, replace")
		return ve
	}

	s.prepare(&doc)
	if err := validateDocument(doc); err != nil {
		s.metrics.Backup("import", false)
		return err
	}

	result, err := s.snapshots.Import(ctx, doc, mode == ports.ImportReplace)
	if err != nil {
		s.metrics.Backup("import", false)
		return fmt.Errorf("failed to import: %w", err)
	}

	for _, hook := range s.hooks {
		hook(ctx, result)
	}

	s.metrics.Backup("import", true)
	s.logger.Infow("Backup imported",
		"mode", string(mode),
		"tasks", len(doc.Tasks),
		"day_templates", len(doc.DayTemplates),
		"task_templates", len(doc.TaskTemplates),
		"removed_tasks", len(result.RemovedTaskIDs),
	)
	return nil
}

// ImportEncoded decodes data and imports it. Malformed input leaves the store untouched.
func (s *BackupService) ImportEncoded(ctx context.Context, data []byte, format backup.Format, mode ports.ImportMode) error {
	doc, err := backup.Decode(data, format)
	if err != nil {
		s.metrics.Backup("import", false)
		return err
	}
	return s.Import(ctx, doc, mode)
}

// Backup uploads a JSON export under userID.
func (s *BackupService) Backup(ctx context.Context, userID string) entities.BackupResult {
	data, err := s.ExportEncoded(ctx, backup.FormatJSON)
	if err != nil {
		return s.failed("backup", userID, err)
	}

	if err := s.store.Put(ctx, userID, data); err != nil {
		return s.failed("backup", userID, &entities.TransportError{Op: "upload", Err: err})
	}

	s.metrics.Backup("backup", true)
	s.logger.Infow("Backup uploaded", "user_id", userID, "bytes", len(data))
	return entities.BackupResult{Success: true, Message: "Backup completed"}
}

// Restore downloads the backup of userID and imports it.
func (s *BackupService) Restore(ctx context.Context, userID string, mode ports.ImportMode) entities.BackupResult {
	data, err := s.store.Get(ctx, userID)
	if err != nil {
		if entities.IsNotFound(err) {
			return s.failed("restore", userID, errors.New("no backup found for this account"))
		}
		return s.failed("restore", userID, &entities.TransportError{Op: "download", Err: err})
	}

	if err := s.ImportEncoded(ctx, data, backup.FormatJSON, mode); err != nil {
		return s.failed("restore", userID, err)
	}

	s.metrics.Backup("restore", true)
	s.logger.Infow("Backup restored", "user_id", userID, "mode", string(mode))
	return entities.BackupResult{Success: true, Message: "Restore completed"}
}

func (s *BackupService) failed(op, userID string, err error) entities.BackupResult {
	s.metrics.Backup(op, false)
	s.logger.WithError(err).Warnw("Backup operation failed", "op", op, "user_id", userID)
	return entities.BackupResult{Success: false, Message: err.Error()}
}

// prepare fills in what older documents may lack: subtask and nested
// template ids, timestamps and empty collections.
func (s *BackupService) prepare(doc *entities.BackupDocument) {
	now := s.now()
	for i := range doc.Tasks {
		t := &doc.Tasks[i]
		if t.Subtasks == nil {
			t.Subtasks = []entities.Subtask{}
		}
		t.AssignSubtaskIDs(s.newID)
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		if t.UpdatedAt.IsZero() {
			t.UpdatedAt = t.CreatedAt
		}
	}
	for i := range doc.DayTemplates {
		d := &doc.DayTemplates[i]
		if d.CreatedAt.IsZero() {
			d.CreatedAt = now
		}
		if d.UpdatedAt.IsZero() {
			d.UpdatedAt = d.CreatedAt
		}
		for j := range d.Tasks {
			if d.Tasks[j].ID == "" {
				d.Tasks[j].ID = s.newID()
			}
			if d.Tasks[j].Subtasks == nil {
				d.Tasks[j].Subtasks = []string{}
			}
		}
	}
	for i := range doc.TaskTemplates {
		if doc.TaskTemplates[i].Subtasks == nil {
			doc.TaskTemplates[i].Subtasks = []string{}
		}
	}
}

// validateDocument checks every entity and the cross-entity rules a single
// entity cannot see: unique ids and one weekly template per weekday.
func validateDocument(doc entities.BackupDocument) error {
	ve := &entities.ValidationError{Entity: "backup"}

	seen := make(map[string]string)
	checkID := func(field, id string) {
		if id == "" {
			ve.Add(field+".id", "is required")
			return
		}
		if prev, dup := seen[id]; dup {
			ve.Add(field+".id", fmt.Sprintf("duplicates %s", prev))
			return
		}
		seen[id] = field
	}

	for i := range doc.Tasks {
		field := fmt.Sprintf("tasks[%d]", i)
		checkID(field, doc.Tasks[i].ID)
		for j, st := range doc.Tasks[i].Subtasks {
			checkID(fmt.Sprintf("%s.subtasks[%d]", field, j), st.ID)
		}
		if err := doc.Tasks[i].Validate(); err != nil {
			ve.Merge(field, err)
		}
	}

	weekdays := make(map[time.Weekday]string)
	for i := range doc.DayTemplates {
		field := fmt.Sprintf("day_templates[%d]", i)
		d := doc.DayTemplates[i]
		checkID(field, d.ID)
		for j := range d.Tasks {
			checkID(fmt.Sprintf("%s.tasks[%d]", field, j), d.Tasks[j].ID)
		}
		if err := d.Validate(); err != nil {
			ve.Merge(field, err)
		}
		if d.IsWeekly && d.Weekday != nil {
			if prev, dup := weekdays[*d.Weekday]; dup {
				ve.Add(field+".weekday", fmt.Sprintf("%s is already used by %s", *d.Weekday, prev))
			} else {
				weekdays[*d.Weekday] = field
			}
		}
	}

	for i := range doc.TaskTemplates {
		field := fmt.Sprintf("task_templates[%d]", i)
		checkID(field, doc.TaskTemplates[i].ID)
		if err := doc.TaskTemplates[i].Validate(); err != nil {
			ve.Merge(field, err)
		}
	}

	return ve.OrNil()
}

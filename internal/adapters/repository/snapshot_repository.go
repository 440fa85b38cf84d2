package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/routine/internal/domain/entities"
	"github.com/taskmaster/routine/internal/infrastructure/database"
	"github.com/taskmaster/routine/internal/ports"
)

// SnapshotRepositoryImpl reads and replaces the whole entity set in one transaction.
type SnapshotRepositoryImpl struct {
	db *database.DB
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *database.DB) ports.SnapshotRepository {
	return &SnapshotRepositoryImpl{db: db}
}

func (r *SnapshotRepositoryImpl) Snapshot(ctx context.Context) (*entities.BackupDocument, error) {
	doc := &entities.BackupDocument{Version: entities.BackupFormatVersion}

	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		var err error
		if doc.Tasks, err = selectTasks(ctx, tx, ""); err != nil {
			return err
		}
		if doc.DayTemplates, err = selectDayTemplates(ctx, tx, ""); err != nil {
			return err
		}
		doc.TaskTemplates, err = selectTaskTemplates(ctx, tx, "WHERE day_template_id IS NULL")
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return doc, nil
}

// Import upserts every entity of doc. With replace, entities absent from doc are removed first.
func (r *SnapshotRepositoryImpl) Import(ctx context.Context, doc entities.BackupDocument, replace bool) (*ports.ImportResult, error) {
	result := &ports.ImportResult{}

	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if replace {
			removed, err := removeAbsent(ctx, tx, doc)
			if err != nil {
				return err
			}
			result.RemovedTaskIDs = removed
		}

		for i := range doc.DayTemplates {
			if err := upsertDayTemplate(ctx, tx, &doc.DayTemplates[i]); err != nil {
				var conflict *entities.ConflictError
				if !replace && errors.As(err, &conflict) {
					return &entities.ConflictError{
						Entity:  conflict.Entity,
						Message: conflict.Message + " under another id; retry the import with mode=replace",
					}
				}
				return err
			}
		}
		for i := range doc.TaskTemplates {
			doc.TaskTemplates[i].DayTemplateID = nil
			if err := upsertTaskTemplate(ctx, tx, &doc.TaskTemplates[i], nil, i); err != nil {
				return err
			}
		}
		for i := range doc.Tasks {
			if err := upsertTask(ctx, tx, &doc.Tasks[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}

	result.Tasks = doc.Tasks
	return result, nil
}

func removeAbsent(ctx context.Context, ext sqlx.ExtContext, doc entities.BackupDocument) ([]string, error) {
	keepTasks := make(map[string]bool, len(doc.Tasks))
	for _, t := range doc.Tasks {
		keepTasks[t.ID] = true
	}
	keepDays := make(map[string]bool, len(doc.DayTemplates))
	for _, d := range doc.DayTemplates {
		keepDays[d.ID] = true
	}
	keepLibrary := make(map[string]bool, len(doc.TaskTemplates))
	for _, tt := range doc.TaskTemplates {
		keepLibrary[tt.ID] = true
	}

	taskIDs, err := absentIDs(ctx, ext, `SELECT id FROM tasks ORDER BY id`, keepTasks)
	if err != nil {
		return nil, err
	}
	if _, err := deleteTasks(ctx, ext, taskIDs); err != nil {
		return nil, fmt.Errorf("remove tasks: %w", err)
	}

	dayIDs, err := absentIDs(ctx, ext, `SELECT id FROM day_templates ORDER BY id`, keepDays)
	if err != nil {
		return nil, err
	}
	if _, err := deleteDayTemplates(ctx, ext, dayIDs); err != nil {
		return nil, fmt.Errorf("remove day templates: %w", err)
	}

	libraryIDs, err := absentIDs(ctx, ext, `SELECT id FROM task_templates WHERE day_template_id IS NULL ORDER BY id`, keepLibrary)
	if err != nil {
		return nil, err
	}
	if len(libraryIDs) > 0 {
		query, args, err := sqlx.In(`DELETE FROM task_templates WHERE id IN (?)`, libraryIDs)
		if err != nil {
			return nil, err
		}
		if _, err := ext.ExecContext(ctx, ext.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("remove task templates: %w", err)
		}
	}

	return taskIDs, nil
}

func absentIDs(ctx context.Context, ext sqlx.ExtContext, query string, keep map[string]bool) ([]string, error) {
	var ids []string
	if err := sqlx.SelectContext(ctx, ext, &ids, query); err != nil {
		return nil, err
	}
	absent := make([]string, 0, len(ids))
	for _, id := range ids {
		if !keep[id] {
			absent = append(absent, id)
		}
	}
	return absent, nil
}

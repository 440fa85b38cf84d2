package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/routine/internal/domain/entities"
	"github.com/taskmaster/routine/internal/infrastructure/database"
	"github.com/taskmaster/routine/internal/ports"
)

type taskRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Category    string         `db:"category"`
	StartTime   sql.NullString `db:"start_time"`
	EndTime     sql.NullString `db:"end_time"`
	TaskDate    string         `db:"task_date"`
	IsDone      bool           `db:"is_done"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

type subtaskRow struct {
	ID       string `db:"id"`
	TaskID   string `db:"task_id"`
	Position int    `db:"position"`
	Title    string `db:"title"`
	IsDone   bool   `db:"is_done"`
}

const taskColumns = `id, title, description, category, start_time, end_time, task_date, is_done, created_at, updated_at`

const upsertTaskQuery = `
	INSERT INTO tasks (` + taskColumns + `)
	VALUES (:id, :title, :description, :category, :start_time, :end_time, :task_date, :is_done, :created_at, :updated_at)
	ON CONFLICT (id) DO UPDATE SET
		title = excluded.title,
		description = excluded.description,
		category = excluded.category,
		start_time = excluded.start_time,
		end_time = excluded.end_time,
		task_date = excluded.task_date,
		is_done = excluded.is_done,
		updated_at = excluded.updated_at`

// TaskRepositoryImpl implements the TaskRepository interface
type TaskRepositoryImpl struct {
	db *database.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *database.DB) ports.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entities.Task) error {
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		return insertTask(ctx, tx, task)
	})
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepositoryImpl) CreateMany(ctx context.Context, tasks []entities.Task) error {
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		for i := range tasks {
			if err := insertTask(ctx, tx, &tasks[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create tasks: %w", err)
	}
	return nil
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id string) (*entities.Task, error) {
	tasks, err := selectTasks(ctx, r.db.DB, "WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get task by id: %w", err)
	}
	if len(tasks) == 0 {
		return nil, &entities.NotFoundError{Entity: "task", ID: id}
	}
	return &tasks[0], nil
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, task *entities.Task) error {
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		exists, err := rowExists(ctx, tx, "tasks", task.ID)
		if err != nil {
			return err
		}
		if !exists {
			return &entities.NotFoundError{Entity: "task", ID: task.ID}
		}
		return upsertTask(ctx, tx, task)
	})
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		n, err := deleteTasks(ctx, tx, []string{id})
		deleted = n > 0
		return err
	})
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	return deleted, nil
}

func (r *TaskRepositoryImpl) DeleteByDate(ctx context.Context, date entities.Date) ([]string, error) {
	var ids []string
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		query := tx.Rebind(`SELECT id FROM tasks WHERE task_date = ? ORDER BY id`)
		if err := tx.SelectContext(ctx, &ids, query, date.String()); err != nil {
			return err
		}
		_, err := deleteTasks(ctx, tx, ids)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("delete tasks by date: %w", err)
	}
	return ids, nil
}

func (r *TaskRepositoryImpl) List(ctx context.Context, filter ports.TaskFilter) ([]entities.Task, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if filter.Date != nil {
		conditions = append(conditions, "task_date = ?")
		args = append(args, filter.Date.String())
	}
	if filter.From != nil {
		conditions = append(conditions, "task_date >= ?")
		args = append(args, filter.From.String())
	}
	if filter.To != nil {
		conditions = append(conditions, "task_date <= ?")
		args = append(args, filter.To.String())
	}
	if filter.IsDone != nil {
		conditions = append(conditions, "is_done = ?")
		args = append(args, *filter.IsDone)
	}
	if filter.Category != nil {
		conditions = append(conditions, "category = ?")
		args = append(args, string(*filter.Category))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	tasks, err := selectTasks(ctx, r.db.DB, where, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Helpers shared with the snapshot repository. They run on a *sqlx.DB or a *sqlx.Tx.

func insertTask(ctx context.Context, ext sqlx.ExtContext, task *entities.Task) error {
	exists, err := rowExists(ctx, ext, "tasks", task.ID)
	if err != nil {
		return err
	}
	if exists {
		return &entities.ConflictError{Entity: "task", Message: fmt.Sprintf("id %q already exists", task.ID)}
	}
	return upsertTask(ctx, ext, task)
}

func upsertTask(ctx context.Context, ext sqlx.ExtContext, task *entities.Task) error {
	task.CreatedAt = stamp(task.CreatedAt)
	task.UpdatedAt = stamp(task.UpdatedAt)

	if _, err := sqlx.NamedExecContext(ctx, ext, upsertTaskQuery, toTaskRow(task)); err != nil {
		return fmt.Errorf("write task %s: %w", task.ID, err)
	}
	return writeSubtasks(ctx, ext, task.ID, task.Subtasks)
}

func writeSubtasks(ctx context.Context, ext sqlx.ExtContext, taskID string, subtasks []entities.Subtask) error {
	if _, err := ext.ExecContext(ctx, ext.Rebind(`DELETE FROM subtasks WHERE task_id = ?`), taskID); err != nil {
		return fmt.Errorf("clear subtasks of %s: %w", taskID, err)
	}

	for i, st := range subtasks {
		row := subtaskRow{ID: st.ID, TaskID: taskID, Position: i, Title: st.Title, IsDone: st.IsDone}
		_, err := sqlx.NamedExecContext(ctx, ext, `
			INSERT INTO subtasks (id, task_id, position, title, is_done)
			VALUES (:id, :task_id, :position, :title, :is_done)`, row)
		if err != nil {
			if isUniqueViolation(err) {
				return &entities.ConflictError{Entity: "subtask", Message: fmt.Sprintf("id %q already exists", st.ID)}
			}
			return fmt.Errorf("write subtask %s: %w", st.ID, err)
		}
	}
	return nil
}

func deleteTasks(ctx context.Context, ext sqlx.ExtContext, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`DELETE FROM subtasks WHERE task_id IN (?)`, ids)
	if err != nil {
		return 0, err
	}
	if _, err := ext.ExecContext(ctx, ext.Rebind(query), args...); err != nil {
		return 0, err
	}

	query, args, err = sqlx.In(`DELETE FROM tasks WHERE id IN (?)`, ids)
	if err != nil {
		return 0, err
	}
	res, err := ext.ExecContext(ctx, ext.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func selectTasks(ctx context.Context, ext sqlx.ExtContext, where string, args ...interface{}) ([]entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ` + where + `
		ORDER BY task_date, CASE WHEN start_time IS NULL THEN 1 ELSE 0 END, start_time, created_at, id`

	var rows []taskRow
	if err := sqlx.SelectContext(ctx, ext, &rows, ext.Rebind(query), args...); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []entities.Task{}, nil
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	subtasks, err := selectSubtasks(ctx, ext, ids)
	if err != nil {
		return nil, err
	}

	tasks := make([]entities.Task, 0, len(rows))
	for _, row := range rows {
		task, err := row.toEntity(subtasks[row.ID])
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func selectSubtasks(ctx context.Context, ext sqlx.ExtContext, taskIDs []string) (map[string][]entities.Subtask, error) {
	query, args, err := sqlx.In(`
		SELECT id, task_id, position, title, is_done
		FROM subtasks WHERE task_id IN (?)
		ORDER BY task_id, position`, taskIDs)
	if err != nil {
		return nil, err
	}

	var rows []subtaskRow
	if err := sqlx.SelectContext(ctx, ext, &rows, ext.Rebind(query), args...); err != nil {
		return nil, err
	}

	byTask := make(map[string][]entities.Subtask, len(taskIDs))
	for _, row := range rows {
		byTask[row.TaskID] = append(byTask[row.TaskID], entities.Subtask{
			ID:     row.ID,
			Title:  row.Title,
			IsDone: row.IsDone,
		})
	}
	return byTask, nil
}

func rowExists(ctx context.Context, ext sqlx.ExtContext, table, id string) (bool, error) {
	var n int
	query := ext.Rebind(`SELECT COUNT(*) FROM ` + table + ` WHERE id = ?`)
	if err := sqlx.GetContext(ctx, ext, &n, query, id); err != nil {
		return false, err
	}
	return n > 0, nil
}

func toTaskRow(t *entities.Task) taskRow {
	return taskRow{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Category:    string(t.Category),
		StartTime:   nullTime(t.StartTime),
		EndTime:     nullTime(t.EndTime),
		TaskDate:    t.Date.String(),
		IsDone:      t.IsDone,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (row taskRow) toEntity(subtasks []entities.Subtask) (entities.Task, error) {
	date, err := entities.ParseDate(row.TaskDate)
	if err != nil {
		return entities.Task{}, fmt.Errorf("task %s: %w", row.ID, err)
	}
	start, err := parseNullTime(row.StartTime)
	if err != nil {
		return entities.Task{}, fmt.Errorf("task %s: %w", row.ID, err)
	}
	end, err := parseNullTime(row.EndTime)
	if err != nil {
		return entities.Task{}, fmt.Errorf("task %s: %w", row.ID, err)
	}
	if subtasks == nil {
		subtasks = []entities.Subtask{}
	}

	return entities.Task{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Category:    entities.Category(row.Category),
		StartTime:   start,
		EndTime:     end,
		Date:        date,
		IsDone:      row.IsDone,
		Subtasks:    subtasks,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}, nil
}

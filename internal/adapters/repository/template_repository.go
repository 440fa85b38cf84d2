package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/routine/internal/domain/entities"
	"github.com/taskmaster/routine/internal/infrastructure/database"
	"github.com/taskmaster/routine/internal/ports"
)

type dayTemplateRow struct {
	ID        string        `db:"id"`
	Name      string        `db:"name"`
	IsWeekly  bool          `db:"is_weekly"`
	Weekday   sql.NullInt64 `db:"weekday"`
	CreatedAt time.Time     `db:"created_at"`
	UpdatedAt time.Time     `db:"updated_at"`
}

type taskTemplateRow struct {
	ID            string         `db:"id"`
	DayTemplateID sql.NullString `db:"day_template_id"`
	Position      int            `db:"position"`
	Title         string         `db:"title"`
	Description   string         `db:"description"`
	Category      string         `db:"category"`
	StartTime     sql.NullString `db:"start_time"`
	EndTime       sql.NullString `db:"end_time"`
	Subtasks      string         `db:"subtasks"`
}

const taskTemplateColumns = `id, day_template_id, position, title, description, category, start_time, end_time, subtasks`

const upsertDayTemplateQuery = `
	INSERT INTO day_templates (id, name, is_weekly, weekday, created_at, updated_at)
	VALUES (:id, :name, :is_weekly, :weekday, :created_at, :updated_at)
	ON CONFLICT (id) DO UPDATE SET
		name = excluded.name,
		is_weekly = excluded.is_weekly,
		weekday = excluded.weekday,
		updated_at = excluded.updated_at`

const upsertTaskTemplateQuery = `
	INSERT INTO task_templates (` + taskTemplateColumns + `)
	VALUES (:id, :day_template_id, :position, :title, :description, :category, :start_time, :end_time, :subtasks)
	ON CONFLICT (id) DO UPDATE SET
		day_template_id = excluded.day_template_id,
		position = excluded.position,
		title = excluded.title,
		description = excluded.description,
		category = excluded.category,
		start_time = excluded.start_time,
		end_time = excluded.end_time,
		subtasks = excluded.subtasks`

// DayTemplateRepositoryImpl implements the DayTemplateRepository interface
type DayTemplateRepositoryImpl struct {
	db *database.DB
}

// NewDayTemplateRepository creates a new day template repository
func NewDayTemplateRepository(db *database.DB) ports.DayTemplateRepository {
	return &DayTemplateRepositoryImpl{db: db}
}

func (r *DayTemplateRepositoryImpl) Create(ctx context.Context, tpl *entities.DayTemplate) error {
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		exists, err := rowExists(ctx, tx, "day_templates", tpl.ID)
		if err != nil {
			return err
		}
		if exists {
			return &entities.ConflictError{Entity: "day template", Message: fmt.Sprintf("id %q already exists", tpl.ID)}
		}
		if err := checkTaskTemplateOwners(ctx, tx, tpl); err != nil {
			return err
		}
		return upsertDayTemplate(ctx, tx, tpl)
	})
	if err != nil {
		return fmt.Errorf("create day template: %w", err)
	}
	return nil
}

func (r *DayTemplateRepositoryImpl) GetByID(ctx context.Context, id string) (*entities.DayTemplate, error) {
	tpls, err := selectDayTemplates(ctx, r.db.DB, "WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get day template by id: %w", err)
	}
	if len(tpls) == 0 {
		return nil, &entities.NotFoundError{Entity: "day template", ID: id}
	}
	return &tpls[0], nil
}

func (r *DayTemplateRepositoryImpl) Update(ctx context.Context, tpl *entities.DayTemplate) error {
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		exists, err := rowExists(ctx, tx, "day_templates", tpl.ID)
		if err != nil {
			return err
		}
		if !exists {
			return &entities.NotFoundError{Entity: "day template", ID: tpl.ID}
		}
		if err := checkTaskTemplateOwners(ctx, tx, tpl); err != nil {
			return err
		}
		return upsertDayTemplate(ctx, tx, tpl)
	})
	if err != nil {
		return fmt.Errorf("update day template: %w", err)
	}
	return nil
}

func (r *DayTemplateRepositoryImpl) Delete(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		n, err := deleteDayTemplates(ctx, tx, []string{id})
		deleted = n > 0
		return err
	})
	if err != nil {
		return false, fmt.Errorf("delete day template: %w", err)
	}
	return deleted, nil
}

func (r *DayTemplateRepositoryImpl) List(ctx context.Context, filter ports.TemplateFilter) ([]entities.DayTemplate, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.IsWeekly != nil {
		conditions = append(conditions, "is_weekly = ?")
		args = append(args, *filter.IsWeekly)
	}
	if filter.Weekday != nil {
		conditions = append(conditions, "weekday = ?")
		args = append(args, int(*filter.Weekday))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	tpls, err := selectDayTemplates(ctx, r.db.DB, where, args...)
	if err != nil {
		return nil, fmt.Errorf("list day templates: %w", err)
	}
	return tpls, nil
}

func (r *DayTemplateRepositoryImpl) FindByWeekday(ctx context.Context, weekday time.Weekday) (*entities.DayTemplate, error) {
	tpls, err := selectDayTemplates(ctx, r.db.DB, "WHERE is_weekly = ? AND weekday = ?", true, int(weekday))
	if err != nil {
		return nil, fmt.Errorf("find day template by weekday: %w", err)
	}
	if len(tpls) == 0 {
		return nil, &entities.NotFoundError{Entity: "weekly template", ID: weekday.String()}
	}
	return &tpls[0], nil
}

// TaskTemplateRepositoryImpl stores library templates, the ones owned by no day template.
type TaskTemplateRepositoryImpl struct {
	db *database.DB
}

// NewTaskTemplateRepository creates a new task template repository
func NewTaskTemplateRepository(db *database.DB) ports.TaskTemplateRepository {
	return &TaskTemplateRepositoryImpl{db: db}
}

func (r *TaskTemplateRepositoryImpl) Create(ctx context.Context, tpl *entities.TaskTemplate) error {
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		exists, err := rowExists(ctx, tx, "task_templates", tpl.ID)
		if err != nil {
			return err
		}
		if exists {
			return &entities.ConflictError{Entity: "task template", Message: fmt.Sprintf("id %q already exists", tpl.ID)}
		}
		return upsertTaskTemplate(ctx, tx, tpl, nil, 0)
	})
	if err != nil {
		return fmt.Errorf("create task template: %w", err)
	}
	return nil
}

func (r *TaskTemplateRepositoryImpl) GetByID(ctx context.Context, id string) (*entities.TaskTemplate, error) {
	tpls, err := selectTaskTemplates(ctx, r.db.DB, "WHERE day_template_id IS NULL AND id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get task template by id: %w", err)
	}
	if len(tpls) == 0 {
		return nil, &entities.NotFoundError{Entity: "task template", ID: id}
	}
	return &tpls[0], nil
}

func (r *TaskTemplateRepositoryImpl) Update(ctx context.Context, tpl *entities.TaskTemplate) error {
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		var n int
		query := tx.Rebind(`SELECT COUNT(*) FROM task_templates WHERE day_template_id IS NULL AND id = ?`)
		if err := tx.GetContext(ctx, &n, query, tpl.ID); err != nil {
			return err
		}
		if n == 0 {
			return &entities.NotFoundError{Entity: "task template", ID: tpl.ID}
		}
		return upsertTaskTemplate(ctx, tx, tpl, nil, 0)
	})
	if err != nil {
		return fmt.Errorf("update task template: %w", err)
	}
	return nil
}

func (r *TaskTemplateRepositoryImpl) Delete(ctx context.Context, id string) (bool, error) {
	query := r.db.DB.Rebind(`DELETE FROM task_templates WHERE day_template_id IS NULL AND id = ?`)
	res, err := r.db.DB.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete task template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete task template: %w", err)
	}
	return n > 0, nil
}

func (r *TaskTemplateRepositoryImpl) List(ctx context.Context) ([]entities.TaskTemplate, error) {
	tpls, err := selectTaskTemplates(ctx, r.db.DB, "WHERE day_template_id IS NULL")
	if err != nil {
		return nil, fmt.Errorf("list task templates: %w", err)
	}
	return tpls, nil
}

// checkTaskTemplateOwners rejects nested ids that are repeated or already
// belong to another day template or to the library. Imports skip it and
// take rows over by id.
func checkTaskTemplateOwners(ctx context.Context, ext sqlx.ExtContext, tpl *entities.DayTemplate) error {
	if len(tpl.Tasks) == 0 {
		return nil
	}

	ids := make([]string, 0, len(tpl.Tasks))
	seen := make(map[string]bool, len(tpl.Tasks))
	for _, tt := range tpl.Tasks {
		if seen[tt.ID] {
			return &entities.ConflictError{Entity: "task template", Message: fmt.Sprintf("id %q appears twice in %s", tt.ID, tpl.ID)}
		}
		seen[tt.ID] = true
		ids = append(ids, tt.ID)
	}

	query, args, err := sqlx.In(`SELECT id, day_template_id FROM task_templates WHERE id IN (?)`, ids)
	if err != nil {
		return err
	}
	var rows []struct {
		ID            string         `db:"id"`
		DayTemplateID sql.NullString `db:"day_template_id"`
	}
	if err := sqlx.SelectContext(ctx, ext, &rows, ext.Rebind(query), args...); err != nil {
		return fmt.Errorf("check task template owners: %w", err)
	}
	for _, row := range rows {
		switch {
		case !row.DayTemplateID.Valid:
			return &entities.ConflictError{Entity: "task template", Message: fmt.Sprintf("id %q belongs to the library", row.ID)}
		case row.DayTemplateID.String != tpl.ID:
			return &entities.ConflictError{Entity: "task template", Message: fmt.Sprintf("id %q belongs to day template %s", row.ID, row.DayTemplateID.String)}
		}
	}
	return nil
}

// Helpers shared with the snapshot repository.

func upsertDayTemplate(ctx context.Context, ext sqlx.ExtContext, tpl *entities.DayTemplate) error {
	tpl.CreatedAt = stamp(tpl.CreatedAt)
	tpl.UpdatedAt = stamp(tpl.UpdatedAt)

	row := dayTemplateRow{
		ID:        tpl.ID,
		Name:      tpl.Name,
		IsWeekly:  tpl.IsWeekly,
		Weekday:   nullWeekday(tpl.Weekday),
		CreatedAt: tpl.CreatedAt,
		UpdatedAt: tpl.UpdatedAt,
	}
	if _, err := sqlx.NamedExecContext(ctx, ext, upsertDayTemplateQuery, row); err != nil {
		if isUniqueViolation(err) {
			return &entities.ConflictError{
				Entity:  "day template",
				Message: fmt.Sprintf("a weekly template for %s already exists", tpl.Weekday),
			}
		}
		return fmt.Errorf("write day template %s: %w", tpl.ID, err)
	}

	if _, err := ext.ExecContext(ctx, ext.Rebind(`DELETE FROM task_templates WHERE day_template_id = ?`), tpl.ID); err != nil {
		return fmt.Errorf("clear task templates of %s: %w", tpl.ID, err)
	}
	for i := range tpl.Tasks {
		owner := tpl.ID
		tpl.Tasks[i].DayTemplateID = &owner
		if err := upsertTaskTemplate(ctx, ext, &tpl.Tasks[i], &owner, i); err != nil {
			return err
		}
	}
	return nil
}

func upsertTaskTemplate(ctx context.Context, ext sqlx.ExtContext, tpl *entities.TaskTemplate, owner *string, position int) error {
	subtasks := tpl.Subtasks
	if subtasks == nil {
		subtasks = []string{}
	}
	encoded, err := json.Marshal(subtasks)
	if err != nil {
		return fmt.Errorf("encode subtasks of %s: %w", tpl.ID, err)
	}

	row := taskTemplateRow{
		ID:            tpl.ID,
		DayTemplateID: nullString(owner),
		Position:      position,
		Title:         tpl.Title,
		Description:   tpl.Description,
		Category:      string(tpl.Category),
		StartTime:     nullTime(tpl.StartTime),
		EndTime:       nullTime(tpl.EndTime),
		Subtasks:      string(encoded),
	}
	if _, err := sqlx.NamedExecContext(ctx, ext, upsertTaskTemplateQuery, row); err != nil {
		return fmt.Errorf("write task template %s: %w", tpl.ID, err)
	}
	return nil
}

func deleteDayTemplates(ctx context.Context, ext sqlx.ExtContext, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`DELETE FROM task_templates WHERE day_template_id IN (?)`, ids)
	if err != nil {
		return 0, err
	}
	if _, err := ext.ExecContext(ctx, ext.Rebind(query), args...); err != nil {
		return 0, err
	}

	query, args, err = sqlx.In(`DELETE FROM day_templates WHERE id IN (?)`, ids)
	if err != nil {
		return 0, err
	}
	res, err := ext.ExecContext(ctx, ext.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func selectDayTemplates(ctx context.Context, ext sqlx.ExtContext, where string, args ...interface{}) ([]entities.DayTemplate, error) {
	query := `SELECT id, name, is_weekly, weekday, created_at, updated_at FROM day_templates ` + where +
		` ORDER BY created_at, id`

	var rows []dayTemplateRow
	if err := sqlx.SelectContext(ctx, ext, &rows, ext.Rebind(query), args...); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []entities.DayTemplate{}, nil
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	inQuery, inArgs, err := sqlx.In(`WHERE day_template_id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	children, err := selectTaskTemplates(ctx, ext, inQuery, inArgs...)
	if err != nil {
		return nil, err
	}
	byOwner := make(map[string][]entities.TaskTemplate, len(rows))
	for _, tt := range children {
		byOwner[*tt.DayTemplateID] = append(byOwner[*tt.DayTemplateID], tt)
	}

	tpls := make([]entities.DayTemplate, 0, len(rows))
	for _, row := range rows {
		tpl := entities.DayTemplate{
			ID:        row.ID,
			Name:      row.Name,
			IsWeekly:  row.IsWeekly,
			Tasks:     byOwner[row.ID],
			CreatedAt: row.CreatedAt.UTC(),
			UpdatedAt: row.UpdatedAt.UTC(),
		}
		if tpl.Tasks == nil {
			tpl.Tasks = []entities.TaskTemplate{}
		}
		if row.Weekday.Valid {
			tpl.Weekday = entities.WeekdayPtr(time.Weekday(row.Weekday.Int64))
		}
		tpls = append(tpls, tpl)
	}
	return tpls, nil
}

func selectTaskTemplates(ctx context.Context, ext sqlx.ExtContext, where string, args ...interface{}) ([]entities.TaskTemplate, error) {
	query := `SELECT ` + taskTemplateColumns + ` FROM task_templates ` + where + ` ORDER BY position, id`

	var rows []taskTemplateRow
	if err := sqlx.SelectContext(ctx, ext, &rows, ext.Rebind(query), args...); err != nil {
		return nil, err
	}

	tpls := make([]entities.TaskTemplate, 0, len(rows))
	for _, row := range rows {
		tpl, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		tpls = append(tpls, tpl)
	}
	return tpls, nil
}

func (row taskTemplateRow) toEntity() (entities.TaskTemplate, error) {
	start, err := parseNullTime(row.StartTime)
	if err != nil {
		return entities.TaskTemplate{}, fmt.Errorf("task template %s: %w", row.ID, err)
	}
	end, err := parseNullTime(row.EndTime)
	if err != nil {
		return entities.TaskTemplate{}, fmt.Errorf("task template %s: %w", row.ID, err)
	}

	subtasks := []string{}
	if err := json.Unmarshal([]byte(row.Subtasks), &subtasks); err != nil {
		return entities.TaskTemplate{}, fmt.Errorf("task template %s subtasks: %w", row.ID, err)
	}

	tpl := entities.TaskTemplate{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Category:    entities.Category(row.Category),
		StartTime:   start,
		EndTime:     end,
		Subtasks:    subtasks,
	}
	if row.DayTemplateID.Valid {
		owner := row.DayTemplateID.String
		tpl.DayTemplateID = &owner
	}
	return tpl, nil
}

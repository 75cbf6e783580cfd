package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/task"
	"github.com/studentpartner/backend/core/user"
)

var taskColumns = []string{
	"id", "user_id", "target_role", "title", "description", "due_date", "priority", "status", "created_by", "created_at", "updated_at",
}

type taskRow struct {
	ID          int         `db:"id"`
	UserID      null.Int    `db:"user_id"`
	TargetRole  null.String `db:"target_role"`
	Title       string      `db:"title"`
	Description null.String `db:"description"`
	DueDate     null.Time   `db:"due_date"`
	Priority    string      `db:"priority"`
	Status      string      `db:"status"`
	CreatedBy   null.Int    `db:"created_by"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (r taskRow) task() task.Task {
	return task.Task{
		ID:          r.ID,
		UserID:      r.UserID.Int,
		TargetRole:  user.Role(r.TargetRole.String),
		Title:       r.Title,
		Description: r.Description.String,
		DueDate:     dateOf(r.DueDate),
		Priority:    task.Priority(r.Priority),
		Status:      task.Status(r.Status),
		CreatedBy:   r.CreatedBy.Int,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type taskRepository struct {
	repository
}

var _ task.Repository = (*taskRepository)(nil)

func NewTaskRepository(exec core.DBExecutor) *taskRepository {
	return &taskRepository{repository{exec: exec}}
}

func (repo taskRepository) CreateTask(ctx context.Context, t task.Task, exec ...core.DBExecutor) (task.Task, error) {
	const q = `INSERT INTO tasks (user_id, target_role, title, description, due_date, priority, status, created_by, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`

	id, err := insertID(ctx, repo.getExec(exec), q,
		nullInt(t.UserID), nullString(string(t.TargetRole)), t.Title, nullString(t.Description), nullDate(t.DueDate),
		string(t.Priority), string(t.Status), nullInt(t.CreatedBy), t.CreatedAt.UTC(), t.UpdatedAt.UTC())
	if err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	t.ID = id
	return t, nil
}

func (repo taskRepository) GetTask(ctx context.Context, id int, exec ...core.DBExecutor) (task.Task, error) {
	var row taskRow
	if err := getBuilt(ctx, repo.getExec(exec), &row, sq.Select(taskColumns...).From("tasks").Where(sq.Eq{"id": id})); err != nil {
		return task.Task{}, trapNoRowsErr(err, task.ErrNotFound, "getting task")
	}
	return row.task(), nil
}

func (repo taskRepository) QueryTasks(ctx context.Context, filter task.QueryFilter, exec ...core.DBExecutor) ([]task.Task, error) {
	b := sq.Select(taskColumns...).From("tasks")

	or := sq.Or{}
	if filter.UserID != 0 {
		or = append(or, sq.Eq{"user_id": filter.UserID})
	}
	if filter.Role != "" {
		or = append(or, sq.Eq{"target_role": string(filter.Role)})
	}
	if len(or) > 0 {
		b = b.Where(or)
	}
	if filter.Status != "" {
		b = b.Where(sq.Eq{"status": string(filter.Status)})
	}
	b = b.OrderBy("CASE WHEN due_date IS NULL THEN 1 ELSE 0 END", "due_date ASC", "created_at ASC", "id ASC")

	var rows []taskRow
	if err := selectBuilt(ctx, repo.getExec(exec), &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}
	tasks := make([]task.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.task())
	}
	return tasks, nil
}

func (repo taskRepository) UpdateTask(ctx context.Context, t task.Task, exec ...core.DBExecutor) (task.Task, error) {
	const q = `UPDATE tasks SET title = ?, description = ?, due_date = ?, priority = ?, status = ?, updated_at = ? WHERE id = ?`

	err := execAffecting(ctx, repo.getExec(exec), task.ErrNotFound, q,
		t.Title, nullString(t.Description), nullDate(t.DueDate), string(t.Priority), string(t.Status), t.UpdatedAt.UTC(), t.ID)
	if err != nil {
		if err == task.ErrNotFound {
			return task.Task{}, err
		}
		return task.Task{}, errors.Wrap(err, "updating task")
	}
	return t, nil
}

func (repo taskRepository) DeleteTask(ctx context.Context, id int, exec ...core.DBExecutor) error {
	err := execAffecting(ctx, repo.getExec(exec), task.ErrNotFound, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil && err != task.ErrNotFound {
		return errors.Wrap(err, "deleting task")
	}
	return err
}

package pgstore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jrsteele09/go-taskboard/model"
	"github.com/jrsteele09/go-taskboard/server/taskrepo"
)

var _ taskrepo.Repo = (*TaskRepo)(nil)

type TaskRepo struct {
	db *sql.DB
}

func NewTaskRepo(db *sql.DB) *TaskRepo {
	return &TaskRepo{db: db}
}

const taskColumns = `id, title, description, status, assignee_id, deadline, created_at, updated_at`

func (r *TaskRepo) Upsert(t model.Task) error {
	if t.ID == "" {
		return errors.New("[pgstore TaskRepo Upsert] task id is required")
	}
	_, err := r.db.Exec(`INSERT INTO tasks (`+taskColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			assignee_id = EXCLUDED.assignee_id,
			deadline = EXCLUDED.deadline,
			updated_at = EXCLUDED.updated_at`,
		t.ID, t.Title, t.Description, string(t.Status), t.AssigneeID, t.Deadline, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("[pgstore TaskRepo Upsert] %w", err)
	}
	return nil
}

func (r *TaskRepo) Get(id string) (model.Task, error) {
	t, err := scanTask(r.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, taskrepo.ErrNotFound
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("[pgstore TaskRepo Get] %w", err)
	}
	return t, nil
}

func (r *TaskRepo) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("[pgstore TaskRepo Delete] %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return taskrepo.ErrNotFound
	}
	return nil
}

func (r *TaskRepo) List() ([]model.Task, error) {
	rows, err := r.db.Query(`SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("[pgstore TaskRepo List] %w", err)
	}
	defer rows.Close()

	out := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("[pgstore TaskRepo List] %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTask(row scanner) (model.Task, error) {
	var t model.Task
	var status string
	err := row.Scan(&t.ID, &t.Title, &t.Description, &status, &t.AssigneeID, &t.Deadline, &t.CreatedAt, &t.UpdatedAt)
	t.Status = model.TaskStatus(status)
	return t, err
}

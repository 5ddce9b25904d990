package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"taskapi/internal/task"
)

var _ task.Repository = (*PostgresTaskRepository)(nil)

type PostgresTaskRepository struct {
	db *sqlx.DB
}

func NewPostgresTaskRepository(db *sqlx.DB) *PostgresTaskRepository {
	return &PostgresTaskRepository{db: db}
}

func (r *PostgresTaskRepository) List(ctx context.Context, userID int64) ([]task.Task, error) {
	tasks := []task.Task{}

	query := `SELECT id, name, description, is_completed, user_id FROM tasks WHERE user_id = $1 ORDER BY id`
	if err := r.db.SelectContext(ctx, &tasks, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}

func (r *PostgresTaskRepository) Get(ctx context.Context, userID, id int64) (*task.Task, error) {
	var t task.Task

	query := `SELECT id, name, description, is_completed, user_id FROM tasks WHERE id = $1 AND user_id = $2`
	if err := r.db.GetContext(ctx, &t, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, task.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return &t, nil
}

func (r *PostgresTaskRepository) Create(ctx context.Context, t *task.Task) error {
	query := `INSERT INTO tasks (name, description, is_completed, user_id) VALUES ($1, $2, $3, $4) RETURNING id`

	if err := r.db.GetContext(ctx, &t.ID, query, t.Name, t.Description, t.IsCompleted, t.UserID); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

func (r *PostgresTaskRepository) Update(ctx context.Context, userID, id int64, p task.Patch) error {
	query := `UPDATE tasks SET
		name = COALESCE($1, name),
		description = COALESCE($2, description),
		is_completed = COALESCE($3, is_completed)
		WHERE id = $4 AND user_id = $5`

	res, err := r.db.ExecContext(ctx, query, p.Name, p.Description, p.IsCompleted, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	return expectOne(res)
}

func (r *PostgresTaskRepository) Delete(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return task.ErrNotFound
	}
	return nil
}

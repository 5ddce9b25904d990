package task

import (
	"context"
	"errors"
)

// ErrNotFound - задачи нет или она принадлежит другому пользователю.
var ErrNotFound = errors.New("task not found")

// Repository: все методы ограничены userID владельца.
type Repository interface {
	List(ctx context.Context, userID int64) ([]Task, error)
	Get(ctx context.Context, userID, id int64) (*Task, error)
	Create(ctx context.Context, t *Task) error
	Update(ctx context.Context, userID, id int64, p Patch) error
	Delete(ctx context.Context, userID, id int64) error
}

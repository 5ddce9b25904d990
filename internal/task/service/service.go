package service

import (
	"context"
	"errors"

	"taskapi/internal/task"
)

var ErrEmptyPatch = errors.New("no fields to update")

type TaskService struct {
	repo task.Repository
}

func NewTaskService(repo task.Repository) *TaskService {
	return &TaskService{repo: repo}
}

func (s *TaskService) List(ctx context.Context, userID int64) ([]task.Task, error) {
	tasks, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, userID, id int64) (*task.Task, error) {
	return s.repo.Get(ctx, userID, id)
}

// Create сохраняет задачу от имени userID и возвращает её id.
func (s *TaskService) Create(ctx context.Context, userID int64, name, description string, completed bool) (int64, error) {
	t := &task.Task{
		Name:        name,
		Description: description,
		IsCompleted: completed,
		UserID:      userID,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return 0, err
	}
	return t.ID, nil
}

func (s *TaskService) Update(ctx context.Context, userID, id int64, p task.Patch) error {
	if p.Name == nil && p.Description == nil && p.IsCompleted == nil {
		return ErrEmptyPatch
	}
	return s.repo.Update(ctx, userID, id, p)
}

func (s *TaskService) Delete(ctx context.Context, userID, id int64) error {
	return s.repo.Delete(ctx, userID, id)
}

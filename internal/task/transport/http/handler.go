package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"taskapi/internal/api/dto"
	"taskapi/internal/logging"
	"taskapi/internal/task"
	"taskapi/internal/task/service"
	"taskapi/pkg/middleware"
	"taskapi/pkg/response"
)

type TaskService interface {
	List(ctx context.Context, userID int64) ([]task.Task, error)
	Get(ctx context.Context, userID, id int64) (*task.Task, error)
	Create(ctx context.Context, userID int64, name, description string, completed bool) (int64, error)
	Update(ctx context.Context, userID, id int64, p task.Patch) error
	Delete(ctx context.Context, userID, id int64) error
}

type Handler struct {
	tasks  TaskService
	logger logging.Logger
}

func NewHandler(tasks TaskService, logger logging.Logger) *Handler {
	return &Handler{tasks: tasks, logger: logger}
}

// Routes вешает /tasks и /tasks/{id}; вызывающий уже поставил AuthGate.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/tasks", h.List)
	r.Post("/tasks", h.Create)
	r.Get("/tasks/{id}", h.Get)
	r.Patch("/tasks/{id}", h.Update)
	r.Delete("/tasks/{id}", h.Delete)
}

type createdResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	tasks, err := h.tasks.List(r.Context(), userID)
	if err != nil {
		h.logger.Error(r.Context(), "failed to list tasks", "user_id", userID, "error", err)
		response.Error(w, http.StatusInternalServerError, "Failed to fetch tasks")
		return
	}

	response.JSON(w, http.StatusOK, tasks)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if err := dto.Decode(r.Body, &req); err != nil {
		response.Error(w, http.StatusBadRequest, dto.ErrorMessage(err))
		return
	}

	id, err := h.tasks.Create(r.Context(), userID, req.Name, req.Description, req.IsCompleted)
	if err != nil {
		h.logger.Error(r.Context(), "failed to create task", "user_id", userID, "error", err)
		response.Error(w, http.StatusInternalServerError, "Failed to create task")
		return
	}

	response.JSON(w, http.StatusCreated, createdResponse{Message: "Task successfully created", ID: id})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	rawID := chi.URLParam(r, "id")
	id, ok := parseID(rawID)
	if !ok {
		notFound(w, rawID)
		return
	}

	t, err := h.tasks.Get(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			notFound(w, rawID)
			return
		}
		h.logger.Error(r.Context(), "failed to get task", "user_id", userID, "task_id", id, "error", err)
		response.Error(w, http.StatusInternalServerError, "Failed to fetch task")
		return
	}

	response.JSON(w, http.StatusOK, t)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	rawID := chi.URLParam(r, "id")
	id, ok := parseID(rawID)
	if !ok {
		notFound(w, rawID)
		return
	}

	var req dto.UpdateTaskRequest
	if err := dto.Decode(r.Body, &req); err != nil {
		response.Error(w, http.StatusBadRequest, dto.ErrorMessage(err))
		return
	}

	p := task.Patch{Name: req.Name, Description: req.Description, IsCompleted: req.IsCompleted}
	if err := h.tasks.Update(r.Context(), userID, id, p); err != nil {
		switch {
		case errors.Is(err, task.ErrNotFound):
			notFound(w, rawID)
		case errors.Is(err, service.ErrEmptyPatch):
			response.Error(w, http.StatusBadRequest, "no fields to update")
		default:
			h.logger.Error(r.Context(), "failed to update task", "user_id", userID, "task_id", id, "error", err)
			response.Error(w, http.StatusInternalServerError, "Failed to update task")
		}
		return
	}

	response.OK(w, fmt.Sprintf("Task: '%s' is successfully updated", rawID))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	rawID := chi.URLParam(r, "id")
	id, ok := parseID(rawID)
	if !ok {
		notFound(w, rawID)
		return
	}

	if err := h.tasks.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, task.ErrNotFound) {
			notFound(w, rawID)
			return
		}
		h.logger.Error(r.Context(), "failed to delete task", "user_id", userID, "task_id", id, "error", err)
		response.Error(w, http.StatusInternalServerError, "Failed to delete task")
		return
	}

	response.OK(w, fmt.Sprintf("Task: '%s' is successfully deleted", rawID))
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.logger.Error(r.Context(), "task route reached without authenticated user")
		response.Error(w, http.StatusInternalServerError, "internal server error")
	}
	return id, ok
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func notFound(w http.ResponseWriter, rawID string) {
	response.Error(w, http.StatusNotFound, fmt.Sprintf("Task with ID : %s, does not exist", rawID))
}

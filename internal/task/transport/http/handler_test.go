package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskapi/internal/logging"
	"taskapi/internal/task"
	"taskapi/internal/task/service"
	"taskapi/pkg/middleware"
)

type memRepo struct {
	nextID int64
	tasks  map[int64]task.Task
	err    error
}

func (m *memRepo) List(_ context.Context, userID int64) ([]task.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []task.Task
	for id := int64(1); id <= m.nextID; id++ {
		if t, ok := m.tasks[id]; ok && t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memRepo) Get(_ context.Context, userID, id int64) (*task.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.tasks[id]
	if !ok || t.UserID != userID {
		return nil, task.ErrNotFound
	}
	return &t, nil
}

func (m *memRepo) Create(_ context.Context, t *task.Task) error {
	if m.err != nil {
		return m.err
	}
	m.nextID++
	t.ID = m.nextID
	m.tasks[t.ID] = *t
	return nil
}

func (m *memRepo) Update(_ context.Context, userID, id int64, p task.Patch) error {
	if m.err != nil {
		return m.err
	}
	t, ok := m.tasks[id]
	if !ok || t.UserID != userID {
		return task.ErrNotFound
	}
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.IsCompleted != nil {
		t.IsCompleted = *p.IsCompleted
	}
	m.tasks[id] = t
	return nil
}

func (m *memRepo) Delete(_ context.Context, userID, id int64) error {
	if m.err != nil {
		return m.err
	}
	t, ok := m.tasks[id]
	if !ok || t.UserID != userID {
		return task.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func newRouter(repo *memRepo) chi.Router {
	h := NewHandler(service.NewTaskService(repo), logging.Discard())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			// тестовый "AuthGate": пользователь из заголовка
			if uid := req.Header.Get("X-Test-User"); uid != "" {
				var id int64
				for _, c := range uid {
					id = id*10 + int64(c-'0')
				}
				req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, id))
			}
			next.ServeHTTP(w, req)
		})
	})
	h.Routes(r)
	return r
}

func do(r http.Handler, method, path, user, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func seeded() *memRepo {
	return &memRepo{
		nextID: 42,
		tasks: map[int64]task.Task{
			42: {ID: 42, Name: "owned by 7", UserID: 7},
		},
	}
}

func TestList_EmptyArray(t *testing.T) {
	r := newRouter(&memRepo{tasks: map[int64]task.Task{}})

	rec := do(r, http.MethodGet, "/tasks", "7", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestList_OnlyOwnTasks(t *testing.T) {
	repo := seeded()
	repo.nextID = 43
	repo.tasks[43] = task.Task{ID: 43, Name: "owned by 9", UserID: 9}
	r := newRouter(repo)

	rec := do(r, http.MethodGet, "/tasks", "9", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":43,"name":"owned by 9","description":"","is_completed":false,"user_id":9}]`, rec.Body.String())
}

func TestCreate(t *testing.T) {
	repo := &memRepo{tasks: map[int64]task.Task{}}
	r := newRouter(repo)

	rec := do(r, http.MethodPost, "/tasks", "7", `{"name":"buy milk","description":"2l","is_completed":false}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"Task successfully created","id":1}`, rec.Body.String())
	assert.Equal(t, int64(7), repo.tasks[1].UserID)
}

func TestCreate_Validation(t *testing.T) {
	r := newRouter(&memRepo{tasks: map[int64]task.Task{}})

	rec := do(r, http.MethodPost, "/tasks", "7", `{"description":"no name"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"name is required"}`, rec.Body.String())
}

func TestCreate_StorageFailure(t *testing.T) {
	r := newRouter(&memRepo{tasks: map[int64]task.Task{}, err: errors.New("db down")})

	rec := do(r, http.MethodPost, "/tasks", "7", `{"name":"x"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Failed to create task"}`, rec.Body.String())
}

func TestGet(t *testing.T) {
	r := newRouter(seeded())

	rec := do(r, http.MethodGet, "/tasks/42", "7", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":42,"name":"owned by 7","description":"","is_completed":false,"user_id":7}`, rec.Body.String())
}

func TestGet_OtherUsersTask(t *testing.T) {
	r := newRouter(seeded())

	rec := do(r, http.MethodGet, "/tasks/42", "9", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Task with ID : 42, does not exist"}`, rec.Body.String())
}

func TestGet_NonNumericID(t *testing.T) {
	r := newRouter(seeded())

	rec := do(r, http.MethodGet, "/tasks/abc", "7", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Task with ID : abc, does not exist"}`, rec.Body.String())
}

func TestUpdate(t *testing.T) {
	repo := seeded()
	r := newRouter(repo)

	rec := do(r, http.MethodPatch, "/tasks/42", "7", `{"is_completed":true}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Task: '42' is successfully updated"}`, rec.Body.String())
	assert.True(t, repo.tasks[42].IsCompleted)
	assert.Equal(t, "owned by 7", repo.tasks[42].Name)
}

func TestUpdate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		user    string
		body    string
		repoErr error
		status  int
		message string
	}{
		{"other user", "9", `{"name":"mine now"}`, nil, http.StatusNotFound, "Task with ID : 42, does not exist"},
		{"empty patch", "7", `{}`, nil, http.StatusBadRequest, "no fields to update"},
		{"bad json", "7", `{`, nil, http.StatusBadRequest, "invalid request body"},
		{"storage failure", "7", `{"name":"x"}`, errors.New("db down"), http.StatusInternalServerError, "Failed to update task"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := seeded()
			repo.err = tt.repoErr
			r := newRouter(repo)

			rec := do(r, http.MethodPatch, "/tasks/42", tt.user, tt.body)

			assert.Equal(t, tt.status, rec.Code)
			want := `{"message":"` + tt.message + `"}`
			assert.JSONEq(t, want, rec.Body.String())
		})
	}
}

func TestDelete(t *testing.T) {
	repo := seeded()
	r := newRouter(repo)

	rec := do(r, http.MethodDelete, "/tasks/42", "9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, repo.tasks, int64(42))

	rec = do(r, http.MethodDelete, "/tasks/42", "7", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Task: '42' is successfully deleted"}`, rec.Body.String())
	assert.NotContains(t, repo.tasks, int64(42))
}

func TestMissingUserInContext(t *testing.T) {
	r := newRouter(seeded())

	rec := do(r, http.MethodGet, "/tasks", "", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

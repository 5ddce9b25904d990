package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskapi/internal/logging"
	"taskapi/internal/task"
	taskservice "taskapi/internal/task/service"
	taskhttp "taskapi/internal/task/transport/http"
	"taskapi/internal/user"
	userservice "taskapi/internal/user/service"
	userhttp "taskapi/internal/user/transport/http"
	"taskapi/pkg/jwt"
	"taskapi/pkg/middleware"
)

var routerNow = time.Unix(1_700_000_000, 0)

type keyResolver map[string]*user.User

func (k keyResolver) GetByAPIKey(_ context.Context, apiKey string) (*user.User, error) {
	if u, ok := k[apiKey]; ok {
		return u, nil
	}
	return nil, user.ErrNotFound
}

type noUsers struct{}

func (noUsers) Register(context.Context, string, string, string) (*user.User, error) {
	return &user.User{ID: 1}, nil
}

func (noUsers) Login(context.Context, string, string) (*userservice.TokenPair, error) {
	return nil, userservice.ErrInvalidCreds
}

func (noUsers) Refresh(context.Context, string) (*userservice.TokenPair, error) {
	return nil, userservice.ErrNotWhitelisted
}

func (noUsers) Logout(context.Context, string) error { return nil }

type emptyTasks struct{}

func (emptyTasks) List(context.Context, int64) ([]task.Task, error) { return nil, nil }
func (emptyTasks) Get(context.Context, int64, int64) (*task.Task, error) { return nil, task.ErrNotFound }
func (emptyTasks) Update(context.Context, int64, int64, task.Patch) error { return task.ErrNotFound }
func (emptyTasks) Delete(context.Context, int64, int64) error { return task.ErrNotFound }

func (emptyTasks) Create(_ context.Context, t *task.Task) error {
	t.ID = 1
	return nil
}

func newTestRouter(t *testing.T, metrics http.Handler) (http.Handler, *jwt.Codec) {
	t.Helper()

	codec, err := jwt.NewCodec([]byte("router-secret"), jwt.WithClock(func() time.Time { return routerNow }))
	require.NoError(t, err)

	logger := logging.Discard()
	users := keyResolver{"key-7": {ID: 7, APIKey: "key-7"}}

	return NewRouter(Deps{
		Logger:             logger,
		Users:              userhttp.NewHandler(noUsers{}, logger),
		Tasks:              taskhttp.NewHandler(taskservice.NewTaskService(emptyTasks{}), logger),
		Gate:               middleware.NewAuthGate(codec, users, logger),
		LoginLimiter:       middleware.NewRateLimiter(2, time.Minute),
		CORSAllowedOrigins: []string{"*"},
		Metrics:            metrics,
		MetricsUser:        "prom",
		MetricsPassword:    "pw",
	}), codec
}

func send(h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rec := send(h, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_TasksRequireAuth(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rec := send(h, http.MethodGet, "/tasks", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Incomplete authorization header"}`, rec.Body.String())
}

func TestRouter_TasksWithToken(t *testing.T) {
	h, codec := newTestRouter(t, nil)

	tok, err := codec.Encode(jwt.Claims{Subject: 7, APIKey: "key-7", ExpiresAt: routerNow.Unix() + 20})
	require.NoError(t, err)

	rec := send(h, http.MethodGet, "/tasks", "", map[string]string{"Authorization": "Bearer " + tok})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rec := send(h, http.MethodPut, "/tasks/1", "", nil)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, PATCH, DELETE", rec.Header().Get("Allow"))
	assert.JSONEq(t, `{"message":"method not allowed"}`, rec.Body.String())
}

func TestRouter_NotFound(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rec := send(h, http.MethodGet, "/nope", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"route not found"}`, rec.Body.String())
}

func TestRouter_LoginRateLimited(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	body := `{"username":"wil","password":"pw"}`
	ct := map[string]string{"Content-Type": "application/json"}

	assert.Equal(t, http.StatusUnauthorized, send(h, http.MethodPost, "/login", body, ct).Code)
	assert.Equal(t, http.StatusUnauthorized, send(h, http.MethodPost, "/login", body, ct).Code)
	assert.Equal(t, http.StatusTooManyRequests, send(h, http.MethodPost, "/login", body, ct).Code)

	// остальные публичные роуты лимитом не ограничены
	assert.Equal(t, http.StatusBadRequest, send(h, http.MethodPost, "/refresh", `{"token":"a.b.c"}`, ct).Code)
}

func TestRouter_MetricsBasicAuth(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("# metrics"))
	})
	h, _ := newTestRouter(t, metrics)

	rec := send(h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("prom", "pw")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# metrics", rec.Body.String())
}

func TestRouter_MetricsDisabled(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rec := send(h, http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// Package api собирает chi-роутер из готовых обработчиков.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"taskapi/internal/logging"
	taskhttp "taskapi/internal/task/transport/http"
	userhttp "taskapi/internal/user/transport/http"
	"taskapi/pkg/middleware"
	"taskapi/pkg/response"
)

type Deps struct {
	Logger       logging.Logger
	Users        *userhttp.Handler
	Tasks        *taskhttp.Handler
	Gate         *middleware.AuthGate
	LoginLimiter *middleware.RateLimiter

	CORSAllowedOrigins []string

	// Metrics - обработчик /metrics; nil отключает маршрут.
	Metrics         http.Handler
	MetricsUser     string
	MetricsPassword string
}

var probeMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(d.Logger))
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.Metrics("/metrics", "/health"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.ValidateRequest)
	r.Use(chimw.Timeout(30 * time.Second))

	// Публичные роуты
	r.Post("/register", d.Users.Register)
	r.With(d.LoginLimiter.Middleware).Post("/login", d.Users.Login)
	r.Post("/refresh", d.Users.Refresh)
	r.Post("/logout", d.Users.Logout)

	// Защищённая группа
	r.Group(func(pr chi.Router) {
		pr.Use(d.Gate.Middleware)
		d.Tasks.Routes(pr)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if d.Metrics != nil {
		r.With(middleware.BasicAuth(d.MetricsUser, d.MetricsPassword)).Handle("/metrics", d.Metrics)
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		response.Error(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Allow", strings.Join(allowedMethods(r, req.URL.Path), ", "))
		response.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// allowedMethods - методы, для которых у path есть маршрут.
func allowedMethods(routes chi.Routes, path string) []string {
	var allowed []string
	for _, m := range probeMethods {
		if routes.Match(chi.NewRouteContext(), m, path) {
			allowed = append(allowed, m)
		}
	}
	return allowed
}

package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"taskapi/pkg/response"
)

type window struct {
	count int
	start time.Time
}

// RateLimiter - фиксированное окно на ключ (IP клиента).
type RateLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	requests map[string]*window
	now      func() time.Time
}

func NewRateLimiter(limit int, w time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:    limit,
		window:   w,
		requests: make(map[string]*window),
		now:      time.Now,
	}
}

// Cleanup удаляет закрытые окна; блокируется до закрытия stop.
func (r *RateLimiter) Cleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.prune()
		}
	}
}

func (r *RateLimiter) prune() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for key, w := range r.requests {
		if now.Sub(w.start) > r.window {
			delete(r.requests, key)
		}
	}
}

func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	w, ok := r.requests[key]
	if !ok || now.Sub(w.start) > r.window {
		w = &window{start: now}
		r.requests[key] = w
	}

	if w.count >= r.limit {
		return false
	}
	w.count++
	return true
}

func (r *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !r.Allow(clientIP(req)) {
			response.Error(w, http.StatusTooManyRequests, "Too many requests")
			return
		}

		next.ServeHTTP(w, req)
	})
}

// clientIP - RemoteAddr без порта (chi RealIP уже подставил X-Forwarded-For).
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

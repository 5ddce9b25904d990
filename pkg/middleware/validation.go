// pkg/middleware/validation.go

package middleware

import (
	"mime"
	"net/http"

	"taskapi/pkg/response"
)

// Максимальный размер тела запроса (1MB)
const maxBodySize = 1 << 20

// ValidateRequest проверяет Content-Type тел POST/PUT/PATCH и ограничивает размер тела.
func ValidateRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if ct := r.Header.Get("Content-Type"); ct != "" {
				mediaType, _, err := mime.ParseMediaType(ct)
				if err != nil || mediaType != "application/json" {
					response.Error(w, http.StatusUnsupportedMediaType, "Invalid Content-Type, expected application/json")
					return
				}
			}
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		next.ServeHTTP(w, r)
	})
}

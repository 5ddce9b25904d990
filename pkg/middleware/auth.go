// pkg/middleware/auth.go
package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"taskapi/internal/logging"
	"taskapi/internal/metrics"
	"taskapi/internal/user"
	"taskapi/pkg/jwt"
	"taskapi/pkg/response"
)

type ctxKey string

// UserIDKey - ключ контекста с id пользователя, прошедшего AuthGate.
const UserIDKey ctxKey = "user_id"

var (
	ErrMissingAuth   = errors.New("incomplete authorization header")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrMissingAPIKey = errors.New("missing API key")
	ErrInvalidAPIKey = errors.New("api key is invalid")
)

var bearerRe = regexp.MustCompile(`^Bearer\s+(\S.*)$`)

// GateError - типизированный отказ одного из этапов; прерывает цепочку.
type GateError struct {
	Status  int
	Message string
	Reason  string
	Err     error
}

func (e *GateError) Error() string {
	return e.Message
}

func (e *GateError) Unwrap() error {
	return e.Err
}

type TokenDecoder interface {
	Decode(token string) (jwt.Claims, error)
}

type APIKeyResolver interface {
	GetByAPIKey(ctx context.Context, apiKey string) (*user.User, error)
}

// AuthGate: bearer -> проверка токена -> api_key -> пользователь.
type AuthGate struct {
	tokens TokenDecoder
	users  APIKeyResolver
	logger logging.Logger
}

func NewAuthGate(tokens TokenDecoder, users APIKeyResolver, logger logging.Logger) *AuthGate {
	return &AuthGate{tokens: tokens, users: users, logger: logger}
}

// Authenticate прогоняет все этапы и возвращает пользователя или *GateError.
func (g *AuthGate) Authenticate(r *http.Request) (*user.User, error) {
	raw, err := extractBearer(r)
	if err != nil {
		return nil, err
	}

	claims, err := g.verifyToken(raw)
	if err != nil {
		return nil, err
	}

	apiKey, err := extractAPIKey(claims)
	if err != nil {
		return nil, err
	}

	return g.resolveIdentity(r.Context(), apiKey)
}

func (g *AuthGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := g.Authenticate(r)
		if err != nil {
			var gateErr *GateError
			if !errors.As(err, &gateErr) {
				gateErr = &GateError{Status: http.StatusInternalServerError, Message: "internal server error", Reason: "internal", Err: err}
			}

			metrics.AuthFailuresTotal.WithLabelValues(gateErr.Reason).Inc()
			if gateErr.Status >= http.StatusInternalServerError {
				g.logger.Error(r.Context(), "auth gate failed", "error", err)
			}

			response.Error(w, gateErr.Status, gateErr.Message)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, u.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserIDFromContext возвращает id пользователя, установленный AuthGate.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserIDKey).(int64)
	return id, ok
}

func extractBearer(r *http.Request) (string, error) {
	m := bearerRe.FindStringSubmatch(r.Header.Get("Authorization"))
	if m == nil {
		return "", &GateError{Status: http.StatusBadRequest, Message: "Incomplete authorization header", Reason: "missing_auth", Err: ErrMissingAuth}
	}
	return m[1], nil
}

func (g *AuthGate) verifyToken(raw string) (jwt.Claims, error) {
	claims, err := g.tokens.Decode(raw)
	if err == nil {
		return claims, nil
	}

	wrapped := fmt.Errorf("%w: %w", ErrUnauthorized, err)
	switch {
	case errors.Is(err, jwt.ErrInvalidFormat):
		return jwt.Claims{}, &GateError{Status: http.StatusBadRequest, Message: "Invalid Token Format", Reason: "invalid_format", Err: wrapped}
	case errors.Is(err, jwt.ErrSignatureMismatch):
		return jwt.Claims{}, &GateError{Status: http.StatusUnauthorized, Message: "Signature does not match", Reason: "signature", Err: wrapped}
	case errors.Is(err, jwt.ErrExpired):
		return jwt.Claims{}, &GateError{Status: http.StatusUnauthorized, Message: "Token has expired", Reason: "expired", Err: wrapped}
	default:
		return jwt.Claims{}, &GateError{Status: http.StatusUnauthorized, Message: "invalid token", Reason: "invalid_token", Err: wrapped}
	}
}

func extractAPIKey(claims jwt.Claims) (string, error) {
	if strings.TrimSpace(claims.APIKey) == "" {
		return "", &GateError{Status: http.StatusBadRequest, Message: "missing API key", Reason: "missing_api_key", Err: ErrMissingAPIKey}
	}
	return claims.APIKey, nil
}

func (g *AuthGate) resolveIdentity(ctx context.Context, apiKey string) (*user.User, error) {
	u, err := g.users.GetByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, &GateError{Status: http.StatusUnauthorized, Message: "Api key is invalid", Reason: "invalid_api_key", Err: ErrInvalidAPIKey}
		}
		return nil, fmt.Errorf("failed to resolve api key: %w", err)
	}
	return u, nil
}

// BasicAuth возвращает middleware для базовой аутентификации (закрывает /metrics)
func BasicAuth(username, password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("WWW-Authenticate", `Basic realm="metrics"`)

			auth := r.Header.Get("Authorization")
			parts := strings.SplitN(auth, " ", 2)
			if len(parts) != 2 || parts[0] != "Basic" {
				response.Error(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			payload, err := base64.StdEncoding.DecodeString(parts[1])
			if err != nil {
				response.Error(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			pair := strings.SplitN(string(payload), ":", 2)
			if len(pair) != 2 {
				response.Error(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			// обе части сравниваются всегда
			userOK := subtle.ConstantTimeCompare([]byte(pair[0]), []byte(username)) == 1
			passOK := subtle.ConstantTimeCompare([]byte(pair[1]), []byte(password)) == 1
			if !userOK || !passOK {
				response.Error(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

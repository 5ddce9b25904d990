package http

import (
	"context"
	"errors"
	"net/http"

	"taskapi/internal/api/dto"
	"taskapi/internal/logging"
	"taskapi/internal/user"
	"taskapi/internal/user/service"
	"taskapi/pkg/jwt"
	"taskapi/pkg/response"
)

type UserService interface {
	Register(ctx context.Context, name, username, password string) (*user.User, error)
	Login(ctx context.Context, username, password string) (*service.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

type Handler struct {
	users  UserService
	logger logging.Logger
}

func NewHandler(users UserService, logger logging.Logger) *Handler {
	return &Handler{users: users, logger: logger}
}

type registerResponse struct {
	Message string `json:"message"`
	APIKey  string `json:"api_key"`
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken  string `json:"new_access_token"`
	RefreshToken string `json:"new_refresh_token"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := dto.Decode(r.Body, &req); err != nil {
		response.Error(w, http.StatusBadRequest, dto.ErrorMessage(err))
		return
	}

	u, err := h.users.Register(r.Context(), req.Name, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			response.Error(w, http.StatusConflict, "username already taken")
			return
		}
		h.logger.Error(r.Context(), "failed to register user", "username", req.Username, "error", err)
		response.Error(w, http.StatusInternalServerError, "Fail to register. Please contact administrator")
		return
	}

	h.logger.Info(r.Context(), "user registered", "user_id", u.ID)
	response.JSON(w, http.StatusOK, registerResponse{Message: "Thank you for registering!", APIKey: u.APIKey})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := dto.Decode(r.Body, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "missing login credentials")
		return
	}

	pair, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCreds) {
			response.Error(w, http.StatusUnauthorized, "invalid authentication")
			return
		}
		h.logger.Error(r.Context(), "login failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	response.JSON(w, http.StatusOK, loginResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if err := dto.Decode(r.Body, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "missing token")
		return
	}

	pair, err := h.users.Refresh(r.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotWhitelisted):
			response.Error(w, http.StatusBadRequest, "invalid token (not on whitelist)")
		case errors.Is(err, jwt.ErrInvalidFormat):
			response.Error(w, http.StatusUnauthorized, "Invalid Token Format")
		case errors.Is(err, jwt.ErrSignatureMismatch):
			response.Error(w, http.StatusUnauthorized, "Signature does not match")
		case errors.Is(err, jwt.ErrExpired):
			response.Error(w, http.StatusUnauthorized, "Token has expired")
		case errors.Is(err, service.ErrUnknownTokenUser):
			response.Error(w, http.StatusUnauthorized, "invalid authentication")
		default:
			h.logger.Error(r.Context(), "refresh failed", "error", err)
			response.Error(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	response.JSON(w, http.StatusOK, refreshResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if err := dto.Decode(r.Body, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "missing token")
		return
	}

	if err := h.users.Logout(r.Context(), req.Token); err != nil {
		h.logger.Error(r.Context(), "logout failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

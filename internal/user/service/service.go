package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"taskapi/internal/metrics"
	"taskapi/internal/token"
	"taskapi/internal/user"
	"taskapi/pkg/jwt"
)

var (
	ErrUserExists       = errors.New("user already exists")
	ErrInvalidCreds     = errors.New("invalid credentials")
	ErrNotWhitelisted   = errors.New("refresh token is not on whitelist")
	ErrUnknownTokenUser = errors.New("token subject does not exist")
)

type UserRepository interface {
	Create(context.Context, *user.User) error
	GetByUsername(context.Context, string) (*user.User, error)
	GetByID(context.Context, int64) (*user.User, error)
}

type PasswordHasher interface {
	HashPassword(p string) (string, error)
	CheckPassword(hashed, plain string) bool
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type UserService struct {
	repo    UserRepository
	hasher  PasswordHasher
	store   token.Store
	issuer  *TokenIssuer
	codec   *jwt.Codec
	keyFunc func() (string, error)
}

func NewUserService(repo UserRepository, hasher PasswordHasher, store token.Store, issuer *TokenIssuer, codec *jwt.Codec) *UserService {
	return &UserService{
		repo:    repo,
		hasher:  hasher,
		store:   store,
		issuer:  issuer,
		codec:   codec,
		keyFunc: GenerateAPIKey,
	}
}

// GenerateAPIKey - 16 случайных байт в hex (32 символа).
func GenerateAPIKey() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (s *UserService) Register(ctx context.Context, name, username, password string) (*user.User, error) {
	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	apiKey, err := s.keyFunc()
	if err != nil {
		return nil, fmt.Errorf("failed to generate api key: %w", err)
	}

	u := &user.User{
		Name:         name,
		Username:     username,
		PasswordHash: hash,
		APIKey:       apiKey,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrUsernameTaken) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	return u, nil
}

// Login проверяет пароль и выдаёт пару токенов; refresh попадает в белый список.
func (s *UserService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCreds
		}
		return nil, err
	}

	if !s.hasher.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCreds
	}

	access, err := s.issuer.Access(u)
	if err != nil {
		return nil, err
	}

	refresh, exp, err := s.issuer.Refresh(u)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, refresh, exp); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh меняет refresh-токен на новый (старый удаляется) и выпускает новый access.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if _, err := s.store.Lookup(ctx, refreshToken); err != nil {
		if errors.Is(err, token.ErrNotFound) {
			metrics.RefreshRotationsTotal.WithLabelValues("not_whitelisted").Inc()
			return nil, ErrNotWhitelisted
		}
		return nil, err
	}

	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		metrics.RefreshRotationsTotal.WithLabelValues("invalid").Inc()
		return nil, s.revoke(ctx, refreshToken, err)
	}

	u, err := s.repo.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, s.revoke(ctx, refreshToken, ErrUnknownTokenUser)
		}
		return nil, err
	}

	newRefresh, exp, err := s.issuer.Refresh(u)
	if err != nil {
		return nil, err
	}

	if err := s.store.Rotate(ctx, refreshToken, newRefresh, exp); err != nil {
		if errors.Is(err, token.ErrNotFound) {
			// параллельная ротация успела раньше
			metrics.RefreshRotationsTotal.WithLabelValues("not_whitelisted").Inc()
			return nil, ErrNotWhitelisted
		}
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	metrics.RefreshRotationsTotal.WithLabelValues("rotated").Inc()

	access, err := s.issuer.Access(u)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: newRefresh}, nil
}

// revoke снимает токен с белого списка после отказа в Refresh.
// Возвращает cause; ошибка удаления добавляется к ней.
func (s *UserService) revoke(ctx context.Context, refreshToken string, cause error) error {
	if _, err := s.store.Delete(ctx, refreshToken); err != nil {
		return errors.Join(cause, fmt.Errorf("failed to revoke refresh token: %w", err))
	}
	return cause
}

// Logout удаляет токен из белого списка; отсутствие записи не ошибка.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	if _, err := s.store.Delete(ctx, refreshToken); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}

package service

import (
	"time"

	"github.com/google/uuid"

	"taskapi/internal/metrics"
	"taskapi/internal/user"
	"taskapi/pkg/jwt"
)

// TokenIssuer выпускает access- и refresh-токены для пользователя.
type TokenIssuer struct {
	codec      *jwt.Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(codec *jwt.Codec, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		codec:      codec,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	i.now = now
	return i
}

func (i *TokenIssuer) Access(u *user.User) (string, error) {
	tok, err := i.codec.Encode(jwt.Claims{
		Subject:   u.ID,
		Name:      u.Name,
		APIKey:    u.APIKey,
		ExpiresAt: i.now().Add(i.accessTTL).Unix(),
	})
	if err != nil {
		return "", err
	}

	metrics.TokensIssuedTotal.WithLabelValues("access").Inc()
	return tok, nil
}

// Refresh возвращает токен и его срок в unix-секундах.
// jti делает каждый выпуск уникальным, даже в пределах одной секунды.
func (i *TokenIssuer) Refresh(u *user.User) (string, int64, error) {
	exp := i.now().Add(i.refreshTTL).Unix()

	tok, err := i.codec.Encode(jwt.Claims{
		Subject:   u.ID,
		APIKey:    u.APIKey,
		ExpiresAt: exp,
		ID:        uuid.NewString(),
	})
	if err != nil {
		return "", 0, err
	}

	metrics.TokensIssuedTotal.WithLabelValues("refresh").Inc()
	return tok, exp, nil
}

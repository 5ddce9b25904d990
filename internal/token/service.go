package token

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var (
	ErrNotFound    = errors.New("refresh token not found")
	ErrPersistence = errors.New("refresh token storage failure")
)

// Store - белый список refresh-токенов.
//
// Lookup считает запись с истёкшим expires_at отсутствующей, даже если
// она ещё не удалена очисткой. Rotate гарантирует: при успехе старый токен
// удалён, новый сохранён; при ErrNotFound ничего не создаётся.
type Store interface {
	Create(ctx context.Context, token string, expiresAt int64) error
	Lookup(ctx context.Context, token string) (*RefreshToken, error)
	Delete(ctx context.Context, token string) (int64, error)
	Rotate(ctx context.Context, oldToken, newToken string, newExpiresAt int64) error
	SweepExpired(ctx context.Context) (int64, error)
}

// Hasher вычисляет hex(HMAC-SHA256(secret, token)) - ключ записи в хранилище.
type Hasher struct {
	secret []byte
}

func NewHasher(secret []byte) Hasher {
	return Hasher{secret: secret}
}

func (h Hasher) Hash(token string) string {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

package token

import "time"

// RefreshToken - запись белого списка. Сам токен не хранится, только его HMAC.
type RefreshToken struct {
	TokenHash string `json:"-"`
	ExpiresAt int64  `json:"expires_at"` // unix-секунды
}

func (t *RefreshToken) Expired(now time.Time) bool {
	return t.ExpiresAt < now.Unix()
}

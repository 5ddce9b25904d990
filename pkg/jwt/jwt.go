// pkg/jwt/jwt.go
package jwt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptySecret       = errors.New("jwt secret is empty")
	ErrInvalidFormat     = errors.New("invalid token format")
	ErrSignatureMismatch = errors.New("signature does not match")
	ErrExpired           = errors.New("token has expired")
)

// Claims - полезная нагрузка токена. Поля совпадают с ключами JSON на проводе.
// Другие ключи payload при Decode отбрасываются.
type Claims struct {
	Subject   int64  `json:"sub"`
	Name      string `json:"name,omitempty"`
	APIKey    string `json:"api_key,omitempty"`
	ExpiresAt int64  `json:"exp"`
	ID        string `json:"jti,omitempty"`
}

func (c Claims) mapClaims() jwt.MapClaims {
	m := jwt.MapClaims{
		"sub": c.Subject,
		"exp": c.ExpiresAt,
	}
	if c.Name != "" {
		m["name"] = c.Name
	}
	if c.APIKey != "" {
		m["api_key"] = c.APIKey
	}
	if c.ID != "" {
		m["jti"] = c.ID
	}
	return m
}

type Option func(*Codec)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// Codec кодирует и проверяет токены HS256 с одним общим секретом.
// Не хранит состояние, безопасен для конкурентного использования.
type Codec struct {
	secret []byte
	now    func() time.Time
	parser *jwt.Parser
}

func NewCodec(secret []byte, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	c := &Codec{
		secret: secret,
		now:    time.Now,
		parser: jwt.NewParser(jwt.WithStrictDecoding()),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Encode возвращает header.payload.signature.
// Заголовок всегда {"alg":"HS256","typ":"JWT"}.
func (c *Codec) Encode(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims.mapClaims())

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Decode проверяет подпись, затем срок действия, и возвращает claims.
// Подпись - последний сегмент, payload - предпоследний, всё что левее - заголовок.
func (c *Codec) Decode(token string) (Claims, error) {
	signingString, signature, ok := cutLast(token)
	if !ok {
		return Claims{}, ErrInvalidFormat
	}
	header, payload, ok := cutLast(signingString)
	if !ok || header == "" {
		return Claims{}, ErrInvalidFormat
	}

	sig, err := c.parser.DecodeSegment(signature)
	if err != nil {
		return Claims{}, ErrSignatureMismatch
	}
	// Verify сравнивает дайджесты через hmac.Equal (константное время)
	if err := jwt.SigningMethodHS256.Verify(signingString, sig, c.secret); err != nil {
		return Claims{}, ErrSignatureMismatch
	}

	raw, err := c.parser.DecodeSegment(payload)
	if err != nil {
		return Claims{}, ErrInvalidFormat
	}

	var claims Claims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return Claims{}, ErrInvalidFormat
	}

	if claims.ExpiresAt < c.now().Unix() {
		return Claims{}, ErrExpired
	}

	return claims, nil
}

func cutLast(s string) (before, after string, ok bool) {
	i := strings.LastIndexByte(s, '.')
	if i <= 0 || i == len(s)-1 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

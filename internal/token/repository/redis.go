package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"taskapi/internal/token"
)

// удалить старый ключ; создать новый только если старый существовал
const rotateScript = `
if redis.call("DEL", KEYS[1]) == 0 then
  return 0
end
if tonumber(ARGV[2]) > 0 then
  redis.call("SET", KEYS[2], ARGV[1], "PX", ARGV[2])
else
  redis.call("SET", KEYS[2], ARGV[1])
end
return 1
`

var rotateLua = redis.NewScript(rotateScript)

var _ token.Store = (*RedisRefreshTokenStore)(nil)

// RedisRefreshTokenStore хранит hash -> expires_at. Ключи истекают сами,
// SweepExpired добирает записи, созданные уже просроченными.
type RedisRefreshTokenStore struct {
	rdb    *redis.Client
	prefix string
	hasher token.Hasher
	now    func() time.Time
}

func NewRedisRefreshTokenStore(rdb *redis.Client, prefix string, hasher token.Hasher) *RedisRefreshTokenStore {
	if prefix == "" {
		prefix = "refresh_token"
	}
	return &RedisRefreshTokenStore{rdb: rdb, prefix: prefix, hasher: hasher, now: time.Now}
}

func (s *RedisRefreshTokenStore) WithClock(now func() time.Time) *RedisRefreshTokenStore {
	s.now = now
	return s
}

func (s *RedisRefreshTokenStore) Create(ctx context.Context, tokenStr string, expiresAt int64) error {
	if err := s.rdb.Set(ctx, s.key(tokenStr), expiresAt, s.ttl(expiresAt)).Err(); err != nil {
		return fmt.Errorf("%w: %v", token.ErrPersistence, err)
	}
	return nil
}

func (s *RedisRefreshTokenStore) Lookup(ctx context.Context, tokenStr string) (*token.RefreshToken, error) {
	hash := s.hasher.Hash(tokenStr)

	val, err := s.rdb.Get(ctx, s.prefix+":"+hash).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, token.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", token.ErrPersistence, err)
	}

	exp, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt expiry %q", token.ErrPersistence, val)
	}

	t := &token.RefreshToken{TokenHash: hash, ExpiresAt: exp}
	if t.Expired(s.now()) {
		return nil, token.ErrNotFound
	}
	return t, nil
}

func (s *RedisRefreshTokenStore) Delete(ctx context.Context, tokenStr string) (int64, error) {
	n, err := s.rdb.Del(ctx, s.key(tokenStr)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", token.ErrPersistence, err)
	}
	return n, nil
}

func (s *RedisRefreshTokenStore) Rotate(ctx context.Context, oldToken, newToken string, newExpiresAt int64) error {
	keys := []string{s.key(oldToken), s.key(newToken)}
	ttl := s.ttl(newExpiresAt).Milliseconds()

	res, err := rotateLua.Run(ctx, s.rdb, keys, newExpiresAt, ttl).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", token.ErrPersistence, err)
	}
	if res == 0 {
		return token.ErrNotFound
	}
	return nil
}

func (s *RedisRefreshTokenStore) SweepExpired(ctx context.Context) (int64, error) {
	now := s.now().Unix()
	var removed int64

	iter := s.rdb.Scan(ctx, 0, s.prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		val, err := s.rdb.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("%w: %v", token.ErrPersistence, err)
		}

		exp, err := strconv.ParseInt(val, 10, 64)
		if err == nil && exp >= now {
			continue
		}

		n, err := s.rdb.Del(ctx, key).Result()
		if err != nil {
			return removed, fmt.Errorf("%w: %v", token.ErrPersistence, err)
		}
		removed += n
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("%w: %v", token.ErrPersistence, err)
	}

	return removed, nil
}

func (s *RedisRefreshTokenStore) key(tokenStr string) string {
	return s.prefix + ":" + s.hasher.Hash(tokenStr)
}

// ttl до конца секунды expiresAt: Lookup считает exp == now ещё валидным.
// Ноль означает ключ без срока, его удалит SweepExpired.
func (s *RedisRefreshTokenStore) ttl(expiresAt int64) time.Duration {
	d := time.Unix(expiresAt+1, 0).Sub(s.now())
	if d <= 0 {
		return 0
	}
	return d
}

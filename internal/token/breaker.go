package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"taskapi/internal/logging"
)

var _ Store = (*BreakerStore)(nil)

// BreakerStore оборачивает Store в circuit breaker.
// Открытый breaker отвечает ErrPersistence, не обращаясь к хранилищу.
type BreakerStore struct {
	next Store
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerStore(next Store, logger logging.Logger) *BreakerStore {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "refresh-token-store",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		// отсутствие токена - нормальный ответ хранилища
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn(context.Background(), "circuit breaker state changed",
				"name", name, "from", from.String(), "to", to.String())
		},
	})

	return &BreakerStore{next: next, cb: cb}
}

func (b *BreakerStore) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerStore) Create(ctx context.Context, token string, expiresAt int64) error {
	_, err := b.execute(func() (any, error) {
		return nil, b.next.Create(ctx, token, expiresAt)
	})
	return err
}

func (b *BreakerStore) Lookup(ctx context.Context, token string) (*RefreshToken, error) {
	res, err := b.execute(func() (any, error) {
		return b.next.Lookup(ctx, token)
	})
	if err != nil {
		return nil, err
	}
	return res.(*RefreshToken), nil
}

func (b *BreakerStore) Delete(ctx context.Context, token string) (int64, error) {
	res, err := b.execute(func() (any, error) {
		return b.next.Delete(ctx, token)
	})
	if err != nil {
		return 0, err
	}
	return res.(int64), nil
}

func (b *BreakerStore) Rotate(ctx context.Context, oldToken, newToken string, newExpiresAt int64) error {
	_, err := b.execute(func() (any, error) {
		return nil, b.next.Rotate(ctx, oldToken, newToken, newExpiresAt)
	})
	return err
}

func (b *BreakerStore) SweepExpired(ctx context.Context) (int64, error) {
	res, err := b.execute(func() (any, error) {
		return b.next.SweepExpired(ctx)
	})
	if err != nil {
		return 0, err
	}
	return res.(int64), nil
}

func (b *BreakerStore) execute(fn func() (any, error)) (any, error) {
	res, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return res, err
}

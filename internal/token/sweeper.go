package token

import (
	"context"
	"time"

	"taskapi/internal/logging"
	"taskapi/internal/metrics"
)

// Sweeper периодически удаляет истёкшие refresh-токены.
type Sweeper struct {
	store  Store
	logger logging.Logger
}

func NewSweeper(store Store, logger logging.Logger) *Sweeper {
	return &Sweeper{store: store, logger: logger}
}

func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	n, err := s.store.SweepExpired(ctx)
	if err != nil {
		s.logger.Error(ctx, "refresh token sweep failed", "error", err)
		return 0, err
	}

	metrics.RefreshTokensSweptTotal.Add(float64(n))
	s.logger.Info(ctx, "expired refresh tokens removed", "count", n)
	return n, nil
}

// Run блокируется до отмены ctx.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.RunOnce(ctx)
		}
	}
}

package quota

import (
	"context"
	"time"

	"github.com/example/dmlog/internal/clock"
	"go.uber.org/zap"
)

type LockCleaner interface {
	ClearExpired(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper clears expired break locks on a fixed cadence, so a lock
// never outlives its expiry even when the worker walks away from the
// page.
type Sweeper struct {
	Locks    LockCleaner
	Interval time.Duration
	Log      *zap.Logger
}

func (s *Sweeper) Run(ctx context.Context) error {
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	// kick immediately
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	n, err := s.Locks.ClearExpired(ctx, clock.Now())
	if err != nil {
		s.Log.Warn("break lock sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.Log.Info("cleared expired break locks", zap.Int64("locks", n))
	}
}

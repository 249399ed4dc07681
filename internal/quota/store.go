package quota

import (
	"context"
	"errors"
	"time"

	"github.com/example/dmlog/internal/clock"
	"github.com/example/dmlog/internal/db"
)

// Store persists break locks keyed by worker name. At most one lock
// exists per worker.
type Store struct{ db *db.DB }

func NewStore(d *db.DB) *Store { return &Store{db: d} }

// Get returns the worker's lock if it is still valid. A stale row
// (expired, or dated before today) is deleted as a side effect of the
// read and reported as absent.
func (s *Store) Get(ctx context.Context, worker string, now time.Time) (*BreakLock, error) {
	var until time.Time
	var date string
	err := s.db.QueryRow(ctx, `
SELECT locked_until, date FROM break_locks WHERE worker_name=$1`, worker).Scan(&until, &date)
	if err != nil {
		if werr := db.WrapNotFound(err); errors.Is(werr, db.ErrNotFound) {
			return nil, nil
		} else {
			return nil, werr
		}
	}

	l := BreakLock{LockedUntil: until.UnixMilli(), Date: date}
	if !l.Active(now) {
		_ = s.Clear(ctx, worker)
		return nil, nil
	}
	return &l, nil
}

func (s *Store) Put(ctx context.Context, worker string, l BreakLock) error {
	return s.db.Exec(ctx, `
INSERT INTO break_locks(worker_name, locked_until, date)
VALUES ($1,$2,$3)
ON CONFLICT (worker_name) DO UPDATE SET locked_until=EXCLUDED.locked_until, date=EXCLUDED.date`,
		worker, l.ExpiresAt(), l.Date)
}

func (s *Store) Clear(ctx context.Context, worker string) error {
	return s.db.Exec(ctx, `DELETE FROM break_locks WHERE worker_name=$1`, worker)
}

// ClearExpired bulk-deletes every lock that has expired or belongs to
// a previous day. Called by the sweeper each tick.
func (s *Store) ClearExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.db.ExecRows(ctx, `
DELETE FROM break_locks WHERE locked_until <= $1 OR date <> $2`, now, clock.DateOf(now))
}

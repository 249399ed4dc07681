package quota

import (
	"time"

	"github.com/example/dmlog/internal/clock"
)

// BreakLock disables submission until LockedUntil. A lock only counts
// while its Date is still today's JST date; the daily reset at 0:00
// JST discards it.
type BreakLock struct {
	LockedUntil int64  `json:"lockedUntil"` // epoch millis
	Date        string `json:"date"`        // YYYY-MM-DD under JST
}

func NewBreakLock(now time.Time) BreakLock {
	return BreakLock{
		LockedUntil: now.Add(BreakDuration).UnixMilli(),
		Date:        clock.DateOf(now),
	}
}

func (l BreakLock) ExpiresAt() time.Time {
	return time.UnixMilli(l.LockedUntil).In(clock.JST)
}

// Active reports whether the lock still applies: expiry in the future
// and date equal to today's JST date. Anything else is stale.
func (l BreakLock) Active(now time.Time) bool {
	return l.Date == clock.DateOf(now) && l.LockedUntil > now.UnixMilli()
}

// Remaining is the time left on an active lock, zero otherwise.
func (l BreakLock) Remaining(now time.Time) time.Duration {
	if !l.Active(now) {
		return 0
	}
	return time.Duration(l.LockedUntil-now.UnixMilli()) * time.Millisecond
}

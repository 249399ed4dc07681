package quota

import (
	"time"

	"github.com/example/dmlog/internal/clock"
)

const (
	// DailyLimit is the number of DMs counted toward the daily reward.
	DailyLimit = 150

	// BreakDuration is how long submission stays locked after hitting
	// a threshold.
	BreakDuration = time.Hour
)

// Thresholds are the exact counts that start a break, ascending.
var Thresholds = []int{25, 50, 75, 100, 125}

// Engine holds one worker's quota state for the span of a request:
// today's submitted count plus the optional break lock. The web layer
// rebuilds it from the stores on each request and applies transitions
// through it.
type Engine struct {
	Count int
	Lock  *BreakLock
}

func (e *Engine) BreakActive(now time.Time) bool {
	return e.Lock != nil && e.Lock.Active(now)
}

func (e *Engine) LimitReached() bool {
	return e.Count >= DailyLimit
}

// RemainingForReward is how many DMs are left until the daily reward
// target, floored at zero.
func (e *Engine) RemainingForReward() int {
	if e.Count >= DailyLimit {
		return 0
	}
	return DailyLimit - e.Count
}

// RemainingBreakText is the break countdown as HH:MM:SS, empty when no
// break is active.
func (e *Engine) RemainingBreakText(now time.Time) string {
	if !e.BreakActive(now) {
		return ""
	}
	return clock.Countdown(e.Lock.Remaining(now))
}

// RecordSent advances the count by one for a successful submission.
// Iff the post-increment count lands exactly on a threshold, a new
// break lock starts and is returned for persistence. A count that
// somehow skipped past a threshold never triggers one retroactively.
func (e *Engine) RecordSent(now time.Time) *BreakLock {
	e.Count++
	for _, t := range Thresholds {
		if e.Count == t {
			l := NewBreakLock(now)
			e.Lock = &l
			return &l
		}
	}
	return nil
}

// Expire drops a lock whose expiry passed or whose date rolled over.
// This is the sole self-expiring transition; dropping the lock is what
// resumes submission. Reports whether a lock was dropped.
func (e *Engine) Expire(now time.Time) bool {
	if e.Lock == nil || e.Lock.Active(now) {
		return false
	}
	e.Lock = nil
	return true
}

package quota

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/example/dmlog/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2026, 8, 30, 12, 0, 0, 0, clock.JST)
}

func TestRecordSentThresholds(t *testing.T) {
	now := fixedNow()
	want := map[int]bool{25: true, 50: true, 75: true, 100: true, 125: true}

	e := &Engine{}
	locks := 0
	for i := 1; i <= DailyLimit; i++ {
		lock := e.RecordSent(now)
		if want[i] {
			require.NotNilf(t, lock, "count %d must start a break", i)
			locks++
		} else {
			require.Nilf(t, lock, "count %d must not start a break", i)
		}
		require.Equal(t, i, e.Count)
	}
	assert.Equal(t, len(Thresholds), locks)
}

func TestRecordSentSkippedThresholdNotApplied(t *testing.T) {
	// a count that somehow jumped past 25 never locks retroactively
	e := &Engine{Count: 26}
	assert.Nil(t, e.RecordSent(fixedNow()))
}

func TestRecordSentLockContents(t *testing.T) {
	now := fixedNow()
	e := &Engine{Count: 24}

	lock := e.RecordSent(now)
	require.NotNil(t, lock)
	assert.Equal(t, 25, e.Count)
	assert.Equal(t, now.Add(BreakDuration).UnixMilli(), lock.LockedUntil)
	assert.Equal(t, clock.DateOf(now), lock.Date)
	assert.True(t, e.BreakActive(now))
	assert.Equal(t, "01:00:00", e.RemainingBreakText(now))
}

func TestRemainingForReward(t *testing.T) {
	now := fixedNow()
	e := &Engine{}

	prev := e.RemainingForReward()
	assert.Equal(t, DailyLimit, prev)
	for i := 0; i < DailyLimit+10; i++ {
		e.RecordSent(now)
		cur := e.RemainingForReward()
		assert.LessOrEqual(t, cur, prev)
		assert.GreaterOrEqual(t, cur, 0)
		prev = cur
	}
	assert.Equal(t, 0, e.RemainingForReward())
	assert.True(t, e.LimitReached())
}

func TestLockStaleDateTreatedAsAbsent(t *testing.T) {
	now := fixedNow()
	yesterday := now.AddDate(0, 0, -1)

	lock := BreakLock{
		LockedUntil: now.Add(30 * time.Minute).UnixMilli(),
		Date:        clock.DateOf(yesterday),
	}
	e := &Engine{Count: 25, Lock: &lock}

	assert.False(t, lock.Active(now))
	assert.False(t, e.BreakActive(now))
	assert.Equal(t, "", e.RemainingBreakText(now))
	assert.True(t, e.Expire(now))
	assert.Nil(t, e.Lock)
}

func TestLockExpiresWithClockAdvance(t *testing.T) {
	now := fixedNow()
	lock := BreakLock{
		LockedUntil: now.Add(5 * time.Second).UnixMilli(),
		Date:        clock.DateOf(now),
	}
	e := &Engine{Count: 25, Lock: &lock}

	assert.True(t, e.BreakActive(now))
	assert.False(t, e.Expire(now))

	later := now.Add(6 * time.Second)
	assert.False(t, e.BreakActive(later))
	assert.True(t, e.Expire(later))
	assert.Nil(t, e.Lock)
}

func TestBreakLockJSONRoundTrip(t *testing.T) {
	now := fixedNow()
	lock := NewBreakLock(now)

	b, err := json.Marshal(lock)
	require.NoError(t, err)
	assert.JSONEq(t, `{"lockedUntil":`+jsonInt(lock.LockedUntil)+`,"date":"2026-08-30"}`, string(b))

	var got BreakLock
	require.NoError(t, json.Unmarshal(b, &got))
	assert.True(t, got.Active(now.Add(30*time.Minute)))
	assert.False(t, got.Active(now.Add(61*time.Minute)))
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

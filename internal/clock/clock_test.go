package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateOf(t *testing.T) {
	t.Run("converts to JST before formatting", func(t *testing.T) {
		// 20:00 UTC is already the next day in JST
		utc := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
		assert.Equal(t, "2026-03-02", DateOf(utc))
	})

	t.Run("JST instant keeps its own date", func(t *testing.T) {
		jst := time.Date(2026, 3, 1, 23, 59, 0, 0, JST)
		assert.Equal(t, "2026-03-01", DateOf(jst))
	})
}

func TestMonthOf(t *testing.T) {
	assert.Equal(t, "2026-03", MonthOf("2026-03-02"))
	assert.Equal(t, "short", MonthOf("short"))
}

func TestCountdown(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{-5 * time.Second, "00:00:00"},
		{59 * time.Second, "00:00:59"},
		{time.Hour, "01:00:00"},
		{time.Hour + time.Minute + time.Second, "01:01:01"},
		{30 * time.Hour, "30:00:00"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Countdown(c.d))
	}
}

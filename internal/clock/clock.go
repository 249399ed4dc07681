package clock

import (
	"fmt"
	"time"
)

// JST is the fixed UTC+9 offset every calendar calculation in the app
// uses. Workers operate on Japan time regardless of where the server
// runs, and the daily count resets at 0:00 JST.
var JST = time.FixedZone("JST", 9*60*60)

// Now returns the current instant in JST.
func Now() time.Time {
	return time.Now().In(JST)
}

// DateOf formats t as a YYYY-MM-DD calendar date under JST.
func DateOf(t time.Time) string {
	return t.In(JST).Format("2006-01-02")
}

// MonthOf truncates a YYYY-MM-DD date string to YYYY-MM.
func MonthOf(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}

// Countdown formats a remaining duration as HH:MM:SS. Negative
// durations clamp to 00:00:00.
func Countdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

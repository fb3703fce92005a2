package tui

import (
	"fmt"
	"time"

	"github.com/mrz1836/reviewapp/internal/clock"
)

// DefaultClock is the clock RelativeTime measures against.
//
//nolint:gochecknoglobals // replaced in tests
var DefaultClock clock.Clock = clock.RealClock{}

// RelativeTime formats t as a short age such as "just now" or "3h ago".
func RelativeTime(t time.Time) string {
	return RelativeTimeWith(t, DefaultClock)
}

// RelativeTimeWith is RelativeTime against c.
func RelativeTimeWith(t time.Time, c clock.Clock) string {
	if t.IsZero() {
		return "-"
	}
	diff := c.Now().Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 14*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.UTC().Format("2006-01-02")
	}
}

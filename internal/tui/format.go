package tui

import (
	"fmt"
	"time"
)

func (m Model) renderActivity(at time.Time) string {
	if at.IsZero() {
		return dimStyle.Render("-")
	}
	return dimStyle.Render(FormatDurationCoarse(m.now().Sub(at)) + " ago")
}

// FormatDurationCoarse formats a duration as a single unit (e.g. "5s", "3m", "2h", "1d").
func FormatDurationCoarse(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours())/24)
}

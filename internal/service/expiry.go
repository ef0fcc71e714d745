package service

import "time"

// ExpiryCalc computes the respond-by deadline for a pending offer. The
// deadline is the configured number of minutes of working time from the
// starting instant: time outside the working window does not count, so an
// offer sent late in the evening expires the next morning instead of while
// everyone sleeps.
type ExpiryCalc struct {
	window    time.Duration
	startHour int
	endHour   int
}

func NewExpiryCalc(expiryMinutes, workStartHour, workEndHour int) *ExpiryCalc {
	// an inverted or empty window has no working time to count; fall back to
	// wall-clock expiry instead of searching for a window that never opens
	if workStartHour < 0 || workEndHour > 24 || workStartHour >= workEndHour {
		workStartHour, workEndHour = 0, 24
	}

	return &ExpiryCalc{
		window:    time.Duration(expiryMinutes) * time.Minute,
		startHour: workStartHour,
		endHour:   workEndHour,
	}
}

// Deadline returns the absolute expiry timestamp for an offer sent at from.
func (c *ExpiryCalc) Deadline(from time.Time) time.Time {
	if c.startHour <= 0 && c.endHour >= 24 {
		return from.Add(c.window)
	}

	remaining := c.window
	cur := from

	for {
		dayStart := time.Date(cur.Year(), cur.Month(), cur.Day(), c.startHour, 0, 0, 0, cur.Location())
		dayEnd := time.Date(cur.Year(), cur.Month(), cur.Day(), c.endHour, 0, 0, 0, cur.Location())

		if cur.Before(dayStart) {
			cur = dayStart
		}
		if !cur.Before(dayEnd) {
			cur = dayStart.AddDate(0, 0, 1)
			continue
		}

		available := dayEnd.Sub(cur)
		if available >= remaining {
			return cur.Add(remaining)
		}
		remaining -= available
		cur = dayStart.AddDate(0, 0, 1)
	}
}

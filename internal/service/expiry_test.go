package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpiryWithinWorkingHours(t *testing.T) {
	calc := NewExpiryCalc(90, 10, 19)

	from := time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)
	assert.Equal(t, from.Add(90*time.Minute), calc.Deadline(from))
}

func TestExpirySpillsToNextMorning(t *testing.T) {
	calc := NewExpiryCalc(90, 10, 19)

	// 18:00 leaves one working hour today; the remaining 30 minutes land
	// after tomorrow's window opens
	from := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	want := time.Date(2025, 3, 11, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, want, calc.Deadline(from))
}

func TestExpiryStartedOutsideWindow(t *testing.T) {
	calc := NewExpiryCalc(60, 10, 19)

	// late evening request: the clock starts at the next window open
	from := time.Date(2025, 3, 10, 22, 30, 0, 0, time.UTC)
	want := time.Date(2025, 3, 11, 11, 0, 0, 0, time.UTC)
	assert.Equal(t, want, calc.Deadline(from))

	// early morning request waits for the same day's window
	from = time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)
	want = time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)
	assert.Equal(t, want, calc.Deadline(from))
}

func TestExpiryFullDayWindowDisablesClamping(t *testing.T) {
	calc := NewExpiryCalc(120, 0, 24)

	from := time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, from.Add(2*time.Hour), calc.Deadline(from))
}

func TestExpiryInvertedWindowFallsBackToWallClock(t *testing.T) {
	// start after end leaves no working time at all; the deadline must still
	// come back instead of hunting for a window that never opens
	calc := NewExpiryCalc(60, 19, 10)

	from := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, from.Add(time.Hour), calc.Deadline(from))
}

func TestExpiryLongerThanOneWindow(t *testing.T) {
	// a 10h budget against a 9h window spills exactly 1h into the next day
	calc := NewExpiryCalc(600, 10, 19)

	from := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	want := time.Date(2025, 3, 11, 11, 0, 0, 0, time.UTC)
	assert.Equal(t, want, calc.Deadline(from))
}

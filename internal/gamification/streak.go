package gamification

import (
	"slices"
	"time"
)

// Day normalises t to midnight UTC of its calendar date in t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Streak returns the number of consecutive calendar days ending at the
// most recent date in days. Duplicates are ignored.
func Streak(days []time.Time) int {
	if len(days) == 0 {
		return 0
	}
	sorted := make([]time.Time, len(days))
	for i, d := range days {
		sorted[i] = Day(d)
	}
	slices.SortFunc(sorted, func(a, b time.Time) int { return b.Compare(a) })
	sorted = slices.CompactFunc(sorted, time.Time.Equal)

	streak := 1
	for i := 1; i < len(sorted); i++ {
		if !sorted[i-1].AddDate(0, 0, -1).Equal(sorted[i]) {
			break
		}
		streak++
	}
	return streak
}

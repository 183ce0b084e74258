// Package streak computes save-streak statistics from raw save timestamps.
package streak

import "time"

// Snapshot holds the streak numbers for one user at a point in time.
type Snapshot struct {
	CurrentStreak int
	WeekCount     int
	BestStreak    int
}

// Compute derives streak statistics from save timestamps. Timestamps are
// collapsed to calendar days in now's location. The current streak counts
// consecutive days ending today or yesterday, so a streak survives until a
// full day is missed.
func Compute(dates []time.Time, now time.Time) Snapshot {
	if len(dates) == 0 {
		return Snapshot{}
	}

	seen := make(map[time.Time]bool, len(dates))
	var days []time.Time
	weekCutoff := now.AddDate(0, 0, -7)
	weekCount := 0

	for _, date := range dates {
		if date.After(weekCutoff) {
			weekCount++
		}
		day := truncateToDay(date.In(now.Location()))
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}

	today := truncateToDay(now)
	yesterday := today.AddDate(0, 0, -1)

	current := 0
	anchor := today
	if !seen[today] {
		anchor = yesterday
	}
	for seen[anchor] {
		current++
		anchor = anchor.AddDate(0, 0, -1)
	}

	best := 0
	for _, day := range days {
		// Only count runs from their first day.
		if seen[day.AddDate(0, 0, 1)] {
			continue
		}
		length := 0
		for d := day; seen[d]; d = d.AddDate(0, 0, -1) {
			length++
		}
		if length > best {
			best = length
		}
	}

	return Snapshot{
		CurrentStreak: current,
		WeekCount:     weekCount,
		BestStreak:    best,
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

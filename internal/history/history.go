// Package history holds the pure date-bucketing logic for habit completion
// records: normalizing instants to day boundaries, upserting per-day entries,
// and grouping multi-habit history by calendar date for display.
package history

import (
	"sort"
	"strings"
	"time"

	"habit-tracker/internal/models"
)

// Day boundaries are anchored to a fixed UTC+05:30 zone so that entries
// written by servers in different timezones (or across a DST change) still
// compare equal by exact instant. This is the only place the offset lives.
var boundaryZone = time.FixedZone("UTC+05:30", 330*60)

// DayBoundary normalizes an instant to the start of its calendar day in the
// fixed boundary zone. The result is idempotent: applying it twice yields the
// same instant.
func DayBoundary(t time.Time) time.Time {
	l := t.In(boundaryZone)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, boundaryZone)
}

// Upsert records a completion state for the given day. An existing entry for
// that day is updated in place; otherwise a new entry is appended. CompletedAt
// is stamped with now only when the entry becomes completed, and a previous
// timestamp is never cleared by a later un-complete.
func Upsert(entries []models.HistoryEntry, day time.Time, completed bool, now time.Time) []models.HistoryEntry {
	for i := range entries {
		if DayBoundary(entries[i].Date).Equal(day) {
			entries[i].Completed = completed
			if completed {
				at := now
				entries[i].CompletedAt = &at
			}
			return entries
		}
	}
	entry := models.HistoryEntry{Date: day, Completed: completed}
	if completed {
		at := now
		entry.CompletedAt = &at
	}
	return append(entries, entry)
}

// StatusOn reports the recorded completion state for the given day boundary.
// A day with no entry reads as not completed.
func StatusOn(entries []models.HistoryEntry, day time.Time) (bool, *time.Time) {
	for i := range entries {
		if entries[i].Date.Equal(day) {
			return entries[i].Completed, entries[i].CompletedAt
		}
	}
	return false, nil
}

// Completed reports whether the habit's history marks the current day (as of
// now) completed. This derives the live "done today" flag from the log.
func Completed(entries []models.HistoryEntry, now time.Time) bool {
	done, _ := StatusOn(entries, DayBoundary(now))
	return done
}

// HabitStatus is one habit's state on a particular date.
type HabitStatus struct {
	Name        string
	Time        string
	Completed   bool
	CompletedAt *time.Time
	NoHistory   bool
}

// DateGroup collects every habit's status for one date.
type DateGroup struct {
	Date   time.Time
	Habits []HabitStatus
}

// GroupByDate buckets all habits' history entries by day boundary, most
// recent date first. A habit without an entry for a date reads as not
// completed on that date. When no habit has any history yet, a single bucket
// for today is synthesized from the habits' live completion state, with each
// status marked NoHistory.
func GroupByDate(habits []models.Habit, now time.Time) []DateGroup {
	seen := make(map[time.Time]struct{})
	var dates []time.Time
	for _, h := range habits {
		for _, e := range h.History {
			day := DayBoundary(e.Date)
			if _, ok := seen[day]; !ok {
				seen[day] = struct{}{}
				dates = append(dates, day)
			}
		}
	}

	if len(dates) == 0 {
		if len(habits) == 0 {
			return nil
		}
		group := DateGroup{Date: DayBoundary(now)}
		for _, h := range habits {
			group.Habits = append(group.Habits, HabitStatus{
				Name:      h.Name,
				Time:      h.Time,
				Completed: Completed(h.History, now),
				NoHistory: true,
			})
		}
		return []DateGroup{group}
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })

	groups := make([]DateGroup, 0, len(dates))
	for _, day := range dates {
		group := DateGroup{Date: day}
		for _, h := range habits {
			done, at := StatusOn(h.History, day)
			group.Habits = append(group.Habits, HabitStatus{
				Name:        h.Name,
				Time:        h.Time,
				Completed:   done,
				CompletedAt: at,
			})
		}
		groups = append(groups, group)
	}
	return groups
}

// FormatDateTitle renders a date heading relative to now: TODAY, YESTERDAY,
// or an uppercase short date.
func FormatDateTitle(day, now time.Time) string {
	today := DayBoundary(now)
	if day.Equal(today) {
		return "TODAY"
	}
	if day.Equal(today.AddDate(0, 0, -1)) {
		return "YESTERDAY"
	}
	return strings.ToUpper(day.Format("Mon, 02 Jan '06"))
}

package models

import "time"

// User represents a user account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Habit represents a daily habit owned by a single user.
// There is no stored "completed" flag: today's status is derived from
// the history log, so the two can never drift apart.
type Habit struct {
	ID        int64          `json:"id"`
	UserID    int64          `json:"user_id"`
	Name      string         `json:"name"`
	Time      string         `json:"time"` // scheduled time of day, 24-hour "HH:MM"
	CreatedAt time.Time      `json:"created_at"`
	History   []HistoryEntry `json:"history"`
}

// HistoryEntry records a habit's completion state for one calendar day.
// Date is always a day-boundary instant (see the history package); at most
// one entry exists per habit per day. CompletedAt is set when the entry
// transitions to completed and is never cleared afterwards.
type HistoryEntry struct {
	Date        time.Time  `json:"date"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Session represents a user session.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DefaultHabitTime is the scheduled time assigned when none is given.
const DefaultHabitTime = "00:00"

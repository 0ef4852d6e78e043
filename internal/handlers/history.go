package handlers

import (
	"log"
	"net/http"
	"time"

	"habit-tracker/internal/history"
	"habit-tracker/internal/models"
)

// HistoryHabitItem represents one habit's status on a date in the history views.
type HistoryHabitItem struct {
	Name        string
	Time        string
	Completed   bool
	CompletedAt string
	NoHistory   bool
}

// HistoryViewModel is the data passed to the single-day history template.
type HistoryViewModel struct {
	User   *models.User
	Date   string
	Habits []HistoryHabitItem
}

// HistoryDateGroup groups every habit's status for one date.
type HistoryDateGroup struct {
	Title  string
	Date   string
	Habits []HistoryHabitItem
}

// AllHistoryViewModel is the data passed to the full history template.
type AllHistoryViewModel struct {
	User          *models.User
	HistoryByDate []HistoryDateGroup
	HasHabits     bool
	HasHistory    bool
}

// HistoryYesterday renders each habit's recorded status for yesterday.
func (h *Handlers) HistoryYesterday(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	habits, err := h.db.ListHabits(user.ID)
	if err != nil {
		log.Printf("ListHabits error for user %d: %v", user.ID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	yesterday := history.DayBoundary(now).AddDate(0, 0, -1)

	items := make([]HistoryHabitItem, 0, len(habits))
	for _, habit := range habits {
		completed, completedAt := history.StatusOn(habit.History, yesterday)
		items = append(items, HistoryHabitItem{
			Name:        habit.Name,
			Time:        habit.Time,
			Completed:   completed,
			CompletedAt: formatCompletedAt(completedAt),
		})
	}

	h.render(w, r, "history.html", HistoryViewModel{
		User:   user,
		Date:   yesterday.Format("02 Jan 2006"),
		Habits: items,
	})
}

// HistoryAll renders the full completion history grouped by date, most recent
// first.
func (h *Handlers) HistoryAll(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	habits, err := h.db.ListHabits(user.ID)
	if err != nil {
		log.Printf("ListHabits error for user %d: %v", user.ID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	groups := history.GroupByDate(habits, now)

	byDate := make([]HistoryDateGroup, 0, len(groups))
	hasHistory := false
	for _, group := range groups {
		items := make([]HistoryHabitItem, 0, len(group.Habits))
		for _, status := range group.Habits {
			if !status.NoHistory {
				hasHistory = true
			}
			items = append(items, HistoryHabitItem{
				Name:        status.Name,
				Time:        status.Time,
				Completed:   status.Completed,
				CompletedAt: formatCompletedAt(status.CompletedAt),
				NoHistory:   status.NoHistory,
			})
		}
		byDate = append(byDate, HistoryDateGroup{
			Title:  history.FormatDateTitle(group.Date, now),
			Date:   group.Date.Format("02 Jan 2006"),
			Habits: items,
		})
	}

	h.render(w, r, "all-history.html", AllHistoryViewModel{
		User:          user,
		HistoryByDate: byDate,
		HasHabits:     len(habits) > 0,
		HasHistory:    hasHistory,
	})
}

// formatCompletedAt renders a completion instant as a 12-hour wall-clock time,
// empty when absent.
func formatCompletedAt(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("03:04 PM")
}

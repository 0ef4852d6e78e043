package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"habit-tracker/internal/history"
	"habit-tracker/internal/models"
)

// HabitItem represents a habit in the index view.
type HabitItem struct {
	ID        int64
	Name      string
	Time      string
	Completed bool
}

// IndexViewModel is the data passed to the index template.
type IndexViewModel struct {
	User   *models.User
	Habits []HabitItem
	Error  string
}

// Index renders the user's habits with their derived completion state for today.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	h.renderIndex(w, r, user, http.StatusOK, "")
}

func (h *Handlers) renderIndex(w http.ResponseWriter, r *http.Request, user *models.User, status int, errMsg string) {
	habits, err := h.db.ListHabits(user.ID)
	if err != nil {
		log.Printf("ListHabits error for user %d: %v", user.ID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	items := make([]HabitItem, 0, len(habits))
	for _, habit := range habits {
		items = append(items, HabitItem{
			ID:        habit.ID,
			Name:      habit.Name,
			Time:      habit.Time,
			Completed: history.Completed(habit.History, now),
		})
	}

	h.renderStatus(w, r, status, "index.html", IndexViewModel{User: user, Habits: items, Error: errMsg})
}

// AddHabit creates a new habit from the index form.
func (h *Handlers) AddHabit(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	if err := r.ParseForm(); err != nil {
		h.renderIndex(w, r, user, http.StatusBadRequest, "Invalid form submission")
		return
	}

	if _, err := h.db.CreateHabit(user.ID, r.FormValue("name"), r.FormValue("time")); err != nil {
		if errors.Is(err, models.ErrNameRequired) {
			h.renderIndex(w, r, user, http.StatusBadRequest, "Habit name is required")
			return
		}
		log.Printf("CreateHabit error for user %d: %v", user.ID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// ToggleHabit flips a habit's completion state for today.
func (h *Handlers) ToggleHabit(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)

	if _, err := h.db.ToggleHabit(user.ID, id, time.Now()); err != nil {
		if errors.Is(err, models.ErrHabitNotFound) {
			http.Error(w, "Habit not found", http.StatusNotFound)
			return
		}
		log.Printf("ToggleHabit error for user %d: %v", user.ID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// DeleteHabit removes a habit and its history. Deleting an unknown habit is
// not an error.
func (h *Handlers) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)

	if err := h.db.DeleteHabit(user.ID, id); err != nil {
		log.Printf("DeleteHabit error for user %d: %v", user.ID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"habit-tracker/internal/history"
	"habit-tracker/internal/models"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection.
type DB struct {
	conn *sql.DB
}

// NewDB opens a database connection and runs migrations.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		return nil, err
	}

	return db, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			expires_at DATETIME NOT NULL,
			last_activity DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS habits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			name TEXT NOT NULL,
			time TEXT NOT NULL DEFAULT '00:00',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS habit_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			habit_id INTEGER NOT NULL REFERENCES habits(id),
			date DATETIME NOT NULL,
			completed INTEGER NOT NULL,
			completed_at DATETIME,
			UNIQUE (habit_id, date)
		)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}

	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// CreateHabit inserts a new habit for the given user. The name must not be
// blank; timeStr defaults to models.DefaultHabitTime when empty. A new habit
// starts with an empty history.
func (db *DB) CreateHabit(userID int64, name, timeStr string) (*models.Habit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.ErrNameRequired
	}
	if timeStr == "" {
		timeStr = models.DefaultHabitTime
	}

	result, err := db.conn.Exec(
		"INSERT INTO habits (user_id, name, time) VALUES (?, ?, ?)",
		userID, name, timeStr,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetHabit(userID, id)
}

// GetHabit retrieves a single habit with its history. The ownership filter is
// part of the query: another user's habit id behaves exactly like a missing id.
func (db *DB) GetHabit(userID, habitID int64) (*models.Habit, error) {
	row := db.conn.QueryRow(
		"SELECT id, user_id, name, time, created_at FROM habits WHERE id = ? AND user_id = ?",
		habitID, userID,
	)

	var h models.Habit
	if err := row.Scan(&h.ID, &h.UserID, &h.Name, &h.Time, &h.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrHabitNotFound
		}
		return nil, err
	}

	hist, err := loadHistory(db.conn, h.ID)
	if err != nil {
		return nil, err
	}
	h.History = hist
	return &h, nil
}

// ListHabits retrieves all habits owned by the user, with history loaded,
// ordered by creation.
func (db *DB) ListHabits(userID int64) ([]models.Habit, error) {
	rows, err := db.conn.Query(
		"SELECT id, user_id, name, time, created_at FROM habits WHERE user_id = ? ORDER BY created_at, id",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var habits []models.Habit
	for rows.Next() {
		var h models.Habit
		if err := rows.Scan(&h.ID, &h.UserID, &h.Name, &h.Time, &h.CreatedAt); err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range habits {
		hist, err := loadHistory(db.conn, habits[i].ID)
		if err != nil {
			return nil, err
		}
		habits[i].History = hist
	}
	return habits, nil
}

// DeleteHabit removes a habit and its history. Deleting a habit that does not
// exist (or is not owned by the user) is a silent no-op.
func (db *DB) DeleteHabit(userID, habitID int64) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"DELETE FROM habit_history WHERE habit_id IN (SELECT id FROM habits WHERE id = ? AND user_id = ?)",
		habitID, userID,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(
		"DELETE FROM habits WHERE id = ? AND user_id = ?",
		habitID, userID,
	); err != nil {
		return err
	}

	return tx.Commit()
}

// ToggleHabit flips the habit's completion state for the day containing now
// and reconciles the history entry for that day, all in one transaction.
// It returns the updated habit.
func (db *DB) ToggleHabit(userID, habitID int64, now time.Time) (*models.Habit, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRow(
		"SELECT id, user_id, name, time, created_at FROM habits WHERE id = ? AND user_id = ?",
		habitID, userID,
	)
	var h models.Habit
	if err := row.Scan(&h.ID, &h.UserID, &h.Name, &h.Time, &h.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrHabitNotFound
		}
		return nil, err
	}

	h.History, err = loadHistory(tx, h.ID)
	if err != nil {
		return nil, err
	}

	// Day boundaries are stored in UTC so the same day always round-trips
	// to the exact same instant on every read path.
	day := history.DayBoundary(now).UTC()
	completed := !history.Completed(h.History, now)
	_, existed := findEntry(h.History, day)
	h.History = history.Upsert(h.History, day, completed, now)

	if existed {
		if completed {
			_, err = tx.Exec(
				"UPDATE habit_history SET completed = ?, completed_at = ? WHERE habit_id = ? AND date = ?",
				completed, now, h.ID, day,
			)
		} else {
			// completed_at keeps the last completion instant
			_, err = tx.Exec(
				"UPDATE habit_history SET completed = ? WHERE habit_id = ? AND date = ?",
				completed, h.ID, day,
			)
		}
	} else {
		var completedAt any
		if completed {
			completedAt = now
		}
		_, err = tx.Exec(
			"INSERT INTO habit_history (habit_id, date, completed, completed_at) VALUES (?, ?, ?, ?)",
			h.ID, day, completed, completedAt,
		)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &h, nil
}

func findEntry(entries []models.HistoryEntry, day time.Time) (models.HistoryEntry, bool) {
	for _, e := range entries {
		if e.Date.Equal(day) {
			return e, true
		}
	}
	return models.HistoryEntry{}, false
}

// querier covers both *sql.DB and *sql.Tx.
type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

func loadHistory(q querier, habitID int64) ([]models.HistoryEntry, error) {
	rows, err := q.Query(
		"SELECT date, completed, completed_at FROM habit_history WHERE habit_id = ? ORDER BY id",
		habitID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		var completedAt sql.NullTime
		if err := rows.Scan(&e.Date, &e.Completed, &completedAt); err != nil {
			return nil, err
		}
		if completedAt.Valid {
			at := completedAt.Time
			e.CompletedAt = &at
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListAllHabits retrieves every habit in the database with history loaded.
// Used by maintenance tooling; request paths always go through ListHabits.
func (db *DB) ListAllHabits() ([]models.Habit, error) {
	rows, err := db.conn.Query(
		"SELECT id, user_id, name, time, created_at FROM habits ORDER BY created_at, id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var habits []models.Habit
	for rows.Next() {
		var h models.Habit
		if err := rows.Scan(&h.ID, &h.UserID, &h.Name, &h.Time, &h.CreatedAt); err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range habits {
		hist, err := loadHistory(db.conn, habits[i].ID)
		if err != nil {
			return nil, err
		}
		habits[i].History = hist
	}
	return habits, nil
}

// ReplaceHistory overwrites a habit's entire history log. Entry dates are
// normalized to UTC before storage.
func (db *DB) ReplaceHistory(habitID int64, entries []models.HistoryEntry) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM habit_history WHERE habit_id = ?", habitID); err != nil {
		return err
	}
	for _, e := range entries {
		var completedAt any
		if e.CompletedAt != nil {
			completedAt = *e.CompletedAt
		}
		if _, err := tx.Exec(
			"INSERT INTO habit_history (habit_id, date, completed, completed_at) VALUES (?, ?, ?, ?)",
			habitID, e.Date.UTC(), e.Completed, completedAt,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// CreateUser creates a new user with the given username and password hash.
func (db *DB) CreateUser(username, passwordHash string) (*models.User, error) {
	result, err := db.conn.Exec(
		"INSERT INTO users (username, password_hash) VALUES (?, ?)",
		username, passwordHash,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetUserByID(id)
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(id int64) (*models.User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, password_hash, created_at FROM users WHERE id = ?",
		id,
	)

	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetUserByUsername retrieves a user by username. The match is case-sensitive.
func (db *DB) GetUserByUsername(username string) (*models.User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, password_hash, created_at FROM users WHERE username = ?",
		username,
	)

	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// UpdatePassword replaces the stored password hash for a username.
func (db *DB) UpdatePassword(username, passwordHash string) error {
	result, err := db.conn.Exec(
		"UPDATE users SET password_hash = ? WHERE username = ?",
		passwordHash, username,
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update password for %s: %w", username, models.ErrUserNotFound)
	}
	return nil
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// CreateSession creates a new session for a user.
func (db *DB) CreateSession(token string, userID int64, expiresAt time.Time) error {
	now := time.Now()
	_, err := db.conn.Exec(
		"INSERT INTO sessions (token, user_id, expires_at, last_activity) VALUES (?, ?, ?, ?)",
		token, userID, expiresAt, now,
	)
	return err
}

// SessionInfo holds session validation data.
type SessionInfo struct {
	User         *models.User
	LastActivity time.Time
	ExpiresAt    time.Time
}

// ValidateSession checks if a session token is valid and returns the associated user.
func (db *DB) ValidateSession(token string) (*models.User, error) {
	info, err := db.ValidateSessionWithInfo(token)
	if err != nil {
		return nil, err
	}
	return info.User, nil
}

// ValidateSessionWithInfo checks if a session token is valid and returns session details.
func (db *DB) ValidateSessionWithInfo(token string) (*SessionInfo, error) {
	row := db.conn.QueryRow(`
		SELECT u.id, u.username, u.password_hash, u.created_at, s.last_activity, s.expires_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > CURRENT_TIMESTAMP
	`, token)

	var u models.User
	var lastActivity, expiresAt time.Time
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &lastActivity, &expiresAt); err != nil {
		return nil, err
	}
	return &SessionInfo{
		User:         &u,
		LastActivity: lastActivity,
		ExpiresAt:    expiresAt,
	}, nil
}

// RenewSession updates the last_activity and expires_at for a session.
func (db *DB) RenewSession(token string, newExpiresAt time.Time) error {
	now := time.Now()
	_, err := db.conn.Exec(
		"UPDATE sessions SET last_activity = ?, expires_at = ? WHERE token = ?",
		now, newExpiresAt, token,
	)
	return err
}

// DeleteSession removes a session by token.
func (db *DB) DeleteSession(token string) error {
	_, err := db.conn.Exec("DELETE FROM sessions WHERE token = ?", token)
	return err
}

// CleanExpiredSessions removes all expired sessions.
func (db *DB) CleanExpiredSessions() error {
	_, err := db.conn.Exec("DELETE FROM sessions WHERE expires_at <= CURRENT_TIMESTAMP")
	return err
}

// Command seedhistory backfills completion history for every habit over the
// last few days. It is a development helper for exercising the history views
// against a database that has habits but no past entries.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"habit-tracker/internal/history"
	"habit-tracker/internal/models"
	"habit-tracker/internal/storage"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("seedhistory", flag.ContinueOnError)
	fs.SetOutput(stderr)

	dbPath := fs.String("db", "habits.db", "Path to database file")
	days := fs.Int("days", 3, "Number of past days to backfill, including today")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *days < 1 {
		return fmt.Errorf("days must be at least 1")
	}

	if path := os.Getenv("DB_PATH"); path != "" && *dbPath == "habits.db" {
		*dbPath = path
	}

	db, err := storage.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	habits, err := db.ListAllHabits()
	if err != nil {
		return fmt.Errorf("failed to list habits: %w", err)
	}

	now := time.Now()
	today := history.DayBoundary(now)

	for _, habit := range habits {
		var entries []models.HistoryEntry
		for i := 0; i < *days; i++ {
			day := today.AddDate(0, 0, -i)
			// Deterministic pattern varying per habit and day.
			completed := (int(habit.ID)+i)%3 != 0
			entries = history.Upsert(entries, day, completed, day.Add(12*time.Hour))
		}
		if err := db.ReplaceHistory(habit.ID, entries); err != nil {
			return fmt.Errorf("failed to seed history for %s: %w", habit.Name, err)
		}
		fmt.Fprintf(stdout, "Added history for habit: %s\n", habit.Name)
	}

	fmt.Fprintf(stdout, "Sample history added for %d habits\n", len(habits))
	return nil
}

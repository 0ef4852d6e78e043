package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"habit-tracker/internal/auth"
	"habit-tracker/internal/handlers"
	"habit-tracker/internal/storage"
)

func main() {
	addr := flag.String("addr", ":3000", "Listen address")
	dbPath := flag.String("db", "habits.db", "Path to database file")
	templateDir := flag.String("templates", "web/templates", "Path to template directory")
	staticDir := flag.String("static", "web/static", "Path to static assets")
	secureCookie := flag.Bool("secure-cookie", false, "Set the Secure flag on session cookies")
	flag.Parse()

	if port := os.Getenv("PORT"); port != "" {
		*addr = ":" + port
	}
	if path := os.Getenv("DB_PATH"); path != "" {
		*dbPath = path
	}

	db, err := storage.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := seedAdminUser(db); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	if err := db.CleanExpiredSessions(); err != nil {
		log.Printf("Failed to clean expired sessions: %v", err)
	}

	h := handlers.NewHandlers(db, *templateDir, *secureCookie)
	mux := setupRouter(h, *staticDir)

	log.Printf("Server is running on http://localhost%s", *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// setupRouter registers all routes on a new mux.
func setupRouter(h *handlers.Handlers, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))

	mux.HandleFunc("GET /login", h.LoginForm)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("GET /register", h.RegisterForm)
	mux.HandleFunc("POST /register", h.Register)
	mux.HandleFunc("GET /logout", h.Logout)

	mux.Handle("GET /{$}", h.AuthMiddleware(http.HandlerFunc(h.Index)))
	mux.Handle("POST /habits/add", h.AuthMiddleware(http.HandlerFunc(h.AddHabit)))
	mux.Handle("POST /habits/toggle/{id}", h.AuthMiddleware(http.HandlerFunc(h.ToggleHabit)))
	mux.Handle("POST /habits/delete/{id}", h.AuthMiddleware(http.HandlerFunc(h.DeleteHabit)))
	mux.Handle("GET /history/yesterday", h.AuthMiddleware(http.HandlerFunc(h.HistoryYesterday)))
	mux.Handle("GET /history/all", h.AuthMiddleware(http.HandlerFunc(h.HistoryAll)))

	return mux
}

// seedAdminUser creates an initial user from ADMIN_USER/ADMIN_PASSWORD when
// the user table is still empty. Used to bootstrap fresh deployments and the
// e2e environment.
func seedAdminUser(db *storage.DB) error {
	username := os.Getenv("ADMIN_USER")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		return nil
	}

	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if _, err := auth.Register(db, username, password); err != nil {
		return err
	}
	log.Printf("Seeded admin user %s", username)
	return nil
}

package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"practiceplanner/internal/auth"
)

type Handlers struct {
	Auth      *AuthHandler
	Slots     *SlotsHandler
	Projects  *ProjectHandler
	Events    *EventHandler
	Proposals *ProposalHandler
}

// Pinger reports whether a dependency is reachable; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

func NewRouter(h Handlers, jwtSecret string, db Pinger) *mux.Router {
	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/healthz", healthz(db)).Methods("GET")
	r.HandleFunc("/api/auth/login", h.Auth.Login).Methods("POST")
	r.HandleFunc("/api/slots", h.Slots.Compute).Methods("POST")

	// Authenticated endpoints
	api := r.PathPrefix("/api").Subrouter()
	api.Use(auth.Middleware(jwtSecret))

	api.HandleFunc("/users", h.Auth.CreateUser).Methods("POST")

	api.HandleFunc("/projects", h.Projects.List).Methods("GET")
	api.HandleFunc("/projects", h.Projects.Create).Methods("POST")
	api.HandleFunc("/projects/{id}", h.Projects.Get).Methods("GET")
	api.HandleFunc("/projects/{id}", h.Projects.Update).Methods("PUT")
	api.HandleFunc("/projects/{id}", h.Projects.Delete).Methods("DELETE")

	api.HandleFunc("/events/import", h.Events.Import).Methods("POST")
	api.HandleFunc("/events/unclassified", h.Events.ListUnclassified).Methods("GET")
	api.HandleFunc("/events/classified", h.Events.ListClassified).Methods("GET")
	api.HandleFunc("/events/classify", h.Events.Classify).Methods("POST")
	api.HandleFunc("/events/{id}/project", h.Events.SetProject).Methods("PUT")

	api.HandleFunc("/proposals/generate", h.Proposals.Generate).Methods("POST")
	api.HandleFunc("/proposals", h.Proposals.List).Methods("GET")
	api.HandleFunc("/proposals/{id}/confirm", h.Proposals.Confirm).Methods("PUT")

	return r
}

func healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// Wrap adds CORS, panic recovery and access logging around h.
func Wrap(h http.Handler, origins []string, log zerolog.Logger) http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{log}),
		handlers.PrintRecoveryStack(false),
	)
	return handlers.CustomLoggingHandler(nil, recovery(cors(h)), accessLog(log))
}

func accessLog(log zerolog.Logger) handlers.LogFormatter {
	return func(_ io.Writer, p handlers.LogFormatterParams) {
		log.Info().
			Str("method", p.Request.Method).
			Str("path", p.URL.Path).
			Int("status", p.StatusCode).
			Int("size", p.Size).
			Dur("took", time.Since(p.TimeStamp)).
			Msg("request")
	}
}

type recoveryLogger struct {
	log zerolog.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.log.Error().Msg(fmt.Sprint(v...))
}

// It defines the API server, sets up the routes (endpoints)
// using chi, and links them to the handler functions.

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vrsandeep/tvguide/internal/core"
	"github.com/vrsandeep/tvguide/internal/store"
)

// NextRunner reports upcoming scheduled runs. The scheduler implements it.
type NextRunner interface {
	NextRuns() map[string]time.Time
}

// Server holds the dependencies for our API.
type Server struct {
	app       *core.App
	store     *store.Store
	scheduler NextRunner
	now       func() time.Time
}

// Option customises a Server.
type Option func(*Server)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithScheduler exposes next run times on the job status endpoint.
func WithScheduler(n NextRunner) Option {
	return func(s *Server) { s.scheduler = n }
}

// NewServer creates a new Server instance.
func NewServer(app *core.App, opts ...Option) *Server {
	s := &Server{
		app:   app,
		store: app.Store(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router sets up and returns the main router for the application.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/version", s.handleGetVersion)

	r.Route("/api/tv", func(r chi.Router) {
		r.Get("/now", s.handleOnNow)
		r.Get("/tonight", s.handleTonight)
		r.Get("/schedule/{channelId}/{date}", s.handleChannelSchedule)
		r.Get("/stats", s.handleStats)
		r.Get("/channels", s.handleListChannels)
		r.Get("/search", s.handleSearch)
		r.Get("/series/{seriesId}", s.handleGetSeries)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(s.AdminOnlyMiddleware)

		r.Post("/trigger/fetch", s.handleTriggerFetch)
		r.Post("/trigger/update-channels", s.handleTriggerUpdateChannels)
		r.Post("/trigger/cleanup", s.handleTriggerCleanup)

		r.Get("/jobs/status", s.handleGetAdminJobsStatus)
		r.Get("/fetch-logs", s.handleListFetchLogs)
		r.Get("/fetch-logs/download", s.handleDownloadFetchLogsCSV)
		r.Put("/channels/{channelId}", s.handleUpdateChannel)
	})

	r.With(s.AdminOnlyMiddleware).Get("/ws/admin/progress", func(w http.ResponseWriter, r *http.Request) {
		s.app.WsHub().ServeWs(w, r)
	})

	return r
}

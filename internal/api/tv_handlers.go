package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
	"github.com/vrsandeep/tvguide/internal/models"
	"github.com/vrsandeep/tvguide/internal/store"
)

const (
	primeTimeStartHour = 20
	primeTimeEndHour   = 23
	searchLimit        = 50
	upcomingLimit      = 30
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(); err != nil {
		RespondWithError(w, http.StatusServiceUnavailable, "Database connection failed")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
	})
}

func (s *Server) handleOnNow(w http.ResponseWriter, r *http.Request) {
	programs, err := s.store.GetProgramsAt(s.now())
	if err != nil {
		serverError(w, "Failed to fetch programs", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, programs)
}

// handleTonight lists programs starting between 20:00 and 23:00 today,
// both inclusive, in the configured time zone.
func (s *Server) handleTonight(w http.ResponseWriter, r *http.Request) {
	today := s.now().In(s.app.Config().Location())
	start := time.Date(today.Year(), today.Month(), today.Day(), primeTimeStartHour, 0, 0, 0, today.Location())
	end := time.Date(today.Year(), today.Month(), today.Day(), primeTimeEndHour, 0, 0, 0, today.Location())

	programs, err := s.store.GetProgramsStartingBetween(start, end)
	if err != nil {
		serverError(w, "Failed to fetch programs", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, programs)
}

func (s *Server) handleChannelSchedule(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelId")
	date, err := time.ParseInLocation("2006-01-02", chi.URLParam(r, "date"), s.app.Config().Location())
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD")
		return
	}

	programs, err := s.store.GetChannelSchedule(channelID, date, date.AddDate(0, 0, 1))
	if err != nil {
		serverError(w, "Failed to fetch programs", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, programs)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStats(s.now())
	if err != nil {
		serverError(w, "Failed to compute stats", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, stats)
}

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	channels, err := s.store.ListChannels(!all)
	if err != nil {
		serverError(w, "Failed to fetch channels", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, channels)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		RespondWithError(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}
	programs, err := s.store.SearchPrograms(q, searchLimit)
	if err != nil {
		serverError(w, "Failed to search programs", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, programs)
}

func (s *Server) handleGetSeries(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "seriesId")
	series, err := s.store.GetSeries(id)
	if errors.Is(err, store.ErrNotFound) {
		RespondWithError(w, http.StatusNotFound, "Series not found")
		return
	}
	if err != nil {
		serverError(w, "Failed to fetch series", err)
		return
	}

	upcoming, err := s.store.GetUpcomingEpisodes(id, s.now(), upcomingLimit)
	if err != nil {
		serverError(w, "Failed to fetch episodes", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, struct {
		*models.Series
		Upcoming []models.ProgramWithChannel `json:"upcoming"`
	}{series, upcoming})
}

// serverError logs a store failure and answers 500 without leaking it.
func serverError(w http.ResponseWriter, message string, err error) {
	log.WithError(err).WithField("component", "api").Error(message)
	RespondWithError(w, http.StatusInternalServerError, message)
}

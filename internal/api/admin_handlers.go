package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vrsandeep/tvguide/internal/collector"
	"github.com/vrsandeep/tvguide/internal/jobs"
	"github.com/vrsandeep/tvguide/internal/models"
	"github.com/vrsandeep/tvguide/internal/store"
)

const (
	defaultFetchDays   = 7
	defaultCleanupDays = 30
	defaultLogLimit    = 100
	maxLogLimit        = 1000
)

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"version": s.app.Version})
}

// parseDays reads the optional "days" query parameter, which must lie in
// [0, collector.MaxRetentionDays].
func parseDays(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return fallback, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 0 {
		return 0, errors.New("days must be a non-negative integer")
	}
	if days > collector.MaxRetentionDays {
		return 0, fmt.Errorf("days must not exceed %d", collector.MaxRetentionDays)
	}
	return days, nil
}

func (s *Server) startJob(w http.ResponseWriter, id string, days int, message string, extra map[string]interface{}) {
	if err := s.app.JobManager().Start(id, days); err != nil {
		serverError(w, "Failed to start job", err)
		return
	}
	body := map[string]interface{}{"message": message, "job": id}
	for k, v := range extra {
		body[k] = v
	}
	RespondWithJSON(w, http.StatusAccepted, body)
}

func (s *Server) handleTriggerFetch(w http.ResponseWriter, r *http.Request) {
	days, err := parseDays(r, defaultFetchDays)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.startJob(w, jobs.JobFetchPrograms, days, "Fetch job triggered", map[string]interface{}{"days_ahead": days})
}

func (s *Server) handleTriggerUpdateChannels(w http.ResponseWriter, r *http.Request) {
	s.startJob(w, jobs.JobUpdateChannels, 0, "Channel update job triggered", nil)
}

func (s *Server) handleTriggerCleanup(w http.ResponseWriter, r *http.Request) {
	days, err := parseDays(r, defaultCleanupDays)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.startJob(w, jobs.JobCleanup, days, "Cleanup job triggered", map[string]interface{}{"days": days})
}

func (s *Server) handleGetAdminJobsStatus(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Jobs     []jobs.JobStatus     `json:"jobs"`
		NextRuns map[string]time.Time `json:"next_runs,omitempty"`
	}{Jobs: s.app.JobManager().GetStatus()}
	if s.scheduler != nil {
		resp.NextRuns = s.scheduler.NextRuns()
	}
	RespondWithJSON(w, http.StatusOK, resp)
}

// parseFetchLogFilter reads success, since (RFC 3339 or YYYY-MM-DD) and limit.
func (s *Server) parseFetchLogFilter(r *http.Request) (models.FetchLogFilter, error) {
	q := r.URL.Query()
	filter := models.FetchLogFilter{Limit: defaultLogLimit}

	if raw := q.Get("success"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, errors.New("success must be true or false")
		}
		filter.Success = &v
	}

	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			since, err = time.ParseInLocation("2006-01-02", raw, s.app.Config().Location())
		}
		if err != nil {
			return filter, errors.New("since must be RFC 3339 or YYYY-MM-DD")
		}
		filter.Since = since
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return filter, errors.New("limit must be a positive integer")
		}
		filter.Limit = min(limit, maxLogLimit)
	}
	return filter, nil
}

func (s *Server) handleListFetchLogs(w http.ResponseWriter, r *http.Request) {
	filter, err := s.parseFetchLogFilter(r)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	logs, err := s.store.ListFetchLogs(filter)
	if err != nil {
		serverError(w, "Failed to fetch logs", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, logs)
}

func (s *Server) handleDownloadFetchLogsCSV(w http.ResponseWriter, r *http.Request) {
	filter, err := s.parseFetchLogFilter(r)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if r.URL.Query().Get("limit") == "" {
		filter.Limit = maxLogLimit
	}
	logs, err := s.store.ListFetchLogs(filter)
	if err != nil {
		serverError(w, "Failed to fetch logs", err)
		return
	}
	filename := "fetch-logs-" + s.now().Format("20060102") + ".csv"
	RespondWithCSV(w, filename, models.FetchLog{}, logs)
}

func (s *Server) handleUpdateChannel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "channelId")
	var payload struct {
		Active   *bool   `json:"active"`
		Category *string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if payload.Active == nil && payload.Category == nil {
		RespondWithError(w, http.StatusBadRequest, "Nothing to update")
		return
	}
	if payload.Category != nil && *payload.Category != "" && !models.IsValidCategory(*payload.Category) {
		RespondWithError(w, http.StatusBadRequest, "Unknown category")
		return
	}

	if payload.Active != nil {
		if err := s.store.SetChannelActive(id, *payload.Active); err != nil {
			s.channelUpdateError(w, err)
			return
		}
	}
	if payload.Category != nil {
		var category *string
		if *payload.Category != "" {
			category = payload.Category
		}
		if err := s.store.SetChannelCategory(id, category); err != nil {
			s.channelUpdateError(w, err)
			return
		}
	}

	ch, err := s.store.GetChannel(id)
	if err != nil {
		s.channelUpdateError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, ch)
}

func (s *Server) channelUpdateError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		RespondWithError(w, http.StatusNotFound, "Channel not found")
		return
	}
	serverError(w, "Failed to update channel", err)
}

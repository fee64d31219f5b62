// Package collector drives the fetch, normalize and store sequence over
// the channel × date matrix.
package collector

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/vrsandeep/tvguide/internal/models"
	"github.com/vrsandeep/tvguide/internal/normalizer"
	"github.com/vrsandeep/tvguide/internal/telkussa"
)

// DefaultRateLimit is the pause after each successful channel fetch.
const DefaultRateLimit = time.Second

// Source is the remote schedule API.
type Source interface {
	FetchChannelList(ctx context.Context) ([]telkussa.RawChannel, error)
	FetchChannelPrograms(ctx context.Context, channelID, date string) ([]telkussa.RawProgram, error)
}

// Store is the subset of the persistence layer the collector writes to.
type Store interface {
	GetActiveChannels() ([]models.Channel, error)
	UpsertChannel(ch models.Channel) error
	UpsertProgram(p models.Program) error
	UpsertSeries(id, name string, touched time.Time) error
	InsertFetchLog(l *models.FetchLog) error
	DeleteProgramsOlderThan(cutoff time.Time) (int64, error)
	DeleteFetchLogsOlderThan(cutoff time.Time) (int64, error)
}

// Collector walks every active channel for every date in a window, one
// request at a time. Runs are not mutually exclusive; overlapping runs are
// safe because every write is an upsert keyed by external ID.
type Collector struct {
	source    Source
	store     Store
	rateLimit time.Duration
	now       func() time.Time
	loc       *time.Location
}

// Option customises a Collector.
type Option func(*Collector)

// WithRateLimit sets the pause after each successful channel fetch.
func WithRateLimit(d time.Duration) Option {
	return func(c *Collector) { c.rateLimit = d }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// WithLocation sets the time zone that decides what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(c *Collector) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// New creates a Collector.
func New(source Source, store Store, opts ...Option) *Collector {
	c := &Collector{
		source:    source,
		store:     store,
		rateLimit: DefaultRateLimit,
		now:       time.Now,
		loc:       time.UTC,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunSummary describes one FetchAllPrograms run.
type RunSummary struct {
	Dates           int `json:"dates"`
	Channels        int `json:"channels"`
	Succeeded       int `json:"succeeded"`
	Failed          int `json:"failed"`
	ProgramsStored  int `json:"programs_stored"`
	ProgramsSkipped int `json:"programs_skipped"`
	SeriesTouched   int `json:"series_touched"`
}

// CleanupResult reports what a retention pass removed.
type CleanupResult struct {
	ProgramsRemoved  int64 `json:"programs_removed"`
	FetchLogsRemoved int64 `json:"fetch_logs_removed"`
}

func (c *Collector) dateString(offset int) string {
	return c.now().In(c.loc).AddDate(0, 0, offset).Format("20060102")
}

// FetchAllPrograms fetches today plus daysAhead days for every active
// channel. A failed channel/date is logged and skipped; it never aborts
// the run. The returned error is only set when the run could not start or
// ctx was cancelled.
func (c *Collector) FetchAllPrograms(ctx context.Context, daysAhead int) (*RunSummary, error) {
	if daysAhead < 0 {
		return nil, fmt.Errorf("daysAhead must not be negative, got %d", daysAhead)
	}
	logger := log.WithField("component", "collector")

	channels, err := c.store.GetActiveChannels()
	if err != nil {
		return nil, fmt.Errorf("failed to load active channels: %w", err)
	}
	summary := &RunSummary{Dates: daysAhead + 1, Channels: len(channels)}
	logger.WithFields(log.Fields{"channels": len(channels), "days_ahead": daysAhead}).Info("fetching programs")

	for offset := 0; offset <= daysAhead; offset++ {
		date := c.dateString(offset)
		logger.WithField("date", date).Info("fetching programs for date")

		for _, ch := range channels {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			entry := logger.WithFields(log.Fields{"channel": ch.ID, "name": ch.Name, "date": date})

			started := time.Now()
			raw, err := c.source.FetchChannelPrograms(ctx, ch.ID, date)
			elapsed := time.Since(started).Milliseconds()

			if err != nil {
				entry.WithError(err).Warn("fetch failed")
				summary.Failed++
				c.logFetch(&models.FetchLog{
					ChannelID:    stringPtr(ch.ID),
					TargetDate:   date,
					Success:      false,
					ErrorMessage: err.Error(),
					DurationMs:   elapsed,
				})
				continue
			}

			stored, skipped, touched := c.storeBatch(entry, ch.ID, raw)
			summary.Succeeded++
			summary.ProgramsStored += stored
			summary.ProgramsSkipped += skipped
			summary.SeriesTouched += touched

			entry.WithFields(log.Fields{"programs": stored, "duration_ms": elapsed}).Info("programs stored")
			c.logFetch(&models.FetchLog{
				ChannelID:     stringPtr(ch.ID),
				TargetDate:    date,
				Success:       true,
				ProgramsCount: stored,
				DurationMs:    elapsed,
			})

			if err := sleep(ctx, c.rateLimit); err != nil {
				return summary, err
			}
		}
	}

	logger.WithFields(log.Fields{
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"programs":  summary.ProgramsStored,
	}).Info("program fetch finished")
	return summary, nil
}

// storeBatch normalizes and stores one channel/date response, then touches
// every distinct series seen among the stored programs. The series name
// comes from the first program carrying that series ID.
func (c *Collector) storeBatch(entry *log.Entry, channelID string, raw []telkussa.RawProgram) (stored, skipped, touched int) {
	var seriesOrder []string
	seriesNames := make(map[string]string)

	for _, r := range raw {
		p, touch, err := normalizer.Normalize(r, channelID)
		if err != nil {
			entry.WithError(err).Warn("skipping program record")
			skipped++
			continue
		}
		if err := c.store.UpsertProgram(p); err != nil {
			entry.WithError(err).WithField("program", p.ID).Warn("failed to store program")
			skipped++
			continue
		}
		stored++

		if touch != nil {
			if _, seen := seriesNames[touch.SeriesID]; !seen {
				seriesNames[touch.SeriesID] = touch.Name
				seriesOrder = append(seriesOrder, touch.SeriesID)
			}
		}
	}

	touchedAt := c.now()
	for _, id := range seriesOrder {
		if err := c.store.UpsertSeries(id, seriesNames[id], touchedAt); err != nil {
			entry.WithError(err).WithField("series", id).Warn("failed to update series")
			continue
		}
		touched++
	}
	return stored, skipped, touched
}

// UpdateChannelList fetches the channel list once and upserts every entry.
// Channels missing from the list are left untouched. It returns the number
// of channels stored.
func (c *Collector) UpdateChannelList(ctx context.Context) (int, error) {
	logger := log.WithField("component", "collector")
	date := c.dateString(0)

	started := time.Now()
	channels, err := c.source.FetchChannelList(ctx)
	elapsed := time.Since(started).Milliseconds()
	if err != nil {
		c.logFetch(&models.FetchLog{TargetDate: date, Success: false, ErrorMessage: err.Error(), DurationMs: elapsed})
		return 0, fmt.Errorf("failed to fetch channel list: %w", err)
	}
	logger.WithField("channels", len(channels)).Info("channel list fetched")

	stored := 0
	for _, raw := range channels {
		if raw.ID <= 0 || raw.Name == "" {
			logger.WithField("channel", raw.ID).Warn("skipping channel without id or name")
			continue
		}
		ch := models.Channel{ID: strconv.Itoa(raw.ID), Name: raw.Name, ShowOrder: raw.ShowOrder}
		if err := c.store.UpsertChannel(ch); err != nil {
			logger.WithError(err).WithField("channel", ch.ID).Warn("failed to save channel")
			continue
		}
		stored++
	}

	c.logFetch(&models.FetchLog{TargetDate: date, Success: true, ProgramsCount: stored, DurationMs: elapsed})
	logger.WithField("stored", stored).Info("channel list updated")
	return stored, nil
}

// MaxRetentionDays bounds the days accepted by CleanupOldData.
const MaxRetentionDays = 1000000

// CleanupOldData removes programs that started, and fetch logs that were
// created, more than days ago. Series are never removed.
func (c *Collector) CleanupOldData(days int) (*CleanupResult, error) {
	if days < 0 || days > MaxRetentionDays {
		return nil, fmt.Errorf("days must be between 0 and %d, got %d", MaxRetentionDays, days)
	}
	cutoff := c.now().AddDate(0, 0, -days)
	result := &CleanupResult{}

	var errs []error
	n, err := c.store.DeleteProgramsOlderThan(cutoff)
	if err != nil {
		errs = append(errs, err)
	}
	result.ProgramsRemoved = n

	n, err = c.store.DeleteFetchLogsOlderThan(cutoff)
	if err != nil {
		errs = append(errs, err)
	}
	result.FetchLogsRemoved = n

	log.WithFields(log.Fields{
		"component":  "collector",
		"cutoff":     cutoff.Format(time.RFC3339),
		"programs":   result.ProgramsRemoved,
		"fetch_logs": result.FetchLogsRemoved,
	}).Info("old data cleaned up")
	return result, errors.Join(errs...)
}

func (c *Collector) logFetch(l *models.FetchLog) {
	if err := c.store.InsertFetchLog(l); err != nil {
		log.WithError(err).WithField("component", "collector").Error("failed to write fetch log")
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func stringPtr(s string) *string { return &s }

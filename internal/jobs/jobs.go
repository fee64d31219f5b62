package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	log "github.com/sirupsen/logrus"
	"github.com/vrsandeep/tvguide/internal/config"
)

// Scheduler triggers the collector jobs on their cron schedules.
type Scheduler struct {
	s *gocron.Scheduler
}

// NewScheduler registers the fetch, cleanup and channel refresh jobs in
// the configured time zone. An empty cron expression disables that job.
func NewScheduler(cfg *config.Config, jm *JobManager) (*Scheduler, error) {
	s := gocron.NewScheduler(cfg.Location())
	s.SingletonModeAll()

	entries := []struct {
		id   string
		cron string
		days int
	}{
		{JobFetchPrograms, cfg.Schedule.FetchPrograms, cfg.Collector.DaysAhead},
		{JobCleanup, cfg.Schedule.Cleanup, cfg.Retention.Days},
		{JobUpdateChannels, cfg.Schedule.UpdateChannels, 0},
	}

	for _, e := range entries {
		if e.cron == "" {
			log.WithField("job", e.id).Info("no schedule configured, job disabled")
			continue
		}
		id, days := e.id, e.days
		_, err := s.Cron(e.cron).Tag(id).Do(func() {
			log.WithField("job", id).Info("scheduler is triggering job")
			if err := jm.Run(context.Background(), id, days); err != nil {
				log.WithError(err).WithField("job", id).Error("scheduled job failed")
			}
		})
		if err != nil {
			return nil, fmt.Errorf("error scheduling %q job: %w", id, err)
		}
		log.WithFields(log.Fields{"job": id, "cron": e.cron}).Info("scheduled job")
	}
	return &Scheduler{s: s}, nil
}

func (s *Scheduler) Start() {
	log.Info("starting background job scheduler")
	s.s.StartAsync()
}

func (s *Scheduler) Stop() {
	s.s.Stop()
}

// NextRuns maps job IDs to their next scheduled time.
func (s *Scheduler) NextRuns() map[string]time.Time {
	next := make(map[string]time.Time)
	for _, j := range s.s.Jobs() {
		for _, tag := range j.Tags() {
			next[tag] = j.NextRun()
		}
	}
	return next
}

package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/tvguide/internal/collector"
	"github.com/vrsandeep/tvguide/internal/config"
	"github.com/vrsandeep/tvguide/internal/jobs"
)

type fakeCollector struct {
	fetchDays   int
	cleanupDays int
	channelErr  error
}

func (f *fakeCollector) FetchAllPrograms(_ context.Context, days int) (*collector.RunSummary, error) {
	f.fetchDays = days
	return &collector.RunSummary{Succeeded: 3, Failed: 1, ProgramsStored: 42}, nil
}

func (f *fakeCollector) UpdateChannelList(context.Context) (int, error) {
	return 12, f.channelErr
}

func (f *fakeCollector) CleanupOldData(days int) (*collector.CleanupResult, error) {
	f.cleanupDays = days
	return &collector.CleanupResult{ProgramsRemoved: 5, FetchLogsRemoved: 2}, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Schedule.Timezone = "Europe/Helsinki"
	cfg.Schedule.FetchPrograms = "0 1 * * *"
	cfg.Schedule.Cleanup = "0 2 * * *"
	cfg.Schedule.UpdateChannels = "0 3 * * 0"
	cfg.Collector.DaysAhead = 7
	cfg.Retention.Days = 30
	return cfg
}

func TestCollectorJobs(t *testing.T) {
	fc := &fakeCollector{}
	mgr := jobs.NewManager(nil)
	jobs.RegisterCollectorJobs(mgr, fc)

	require.NoError(t, mgr.Run(context.Background(), jobs.JobFetchPrograms, 7))
	assert.Equal(t, 7, fc.fetchDays)
	assert.Equal(t, "Fetched 4 channel/date pairs: 3 succeeded, 1 failed, 42 programs stored.", statusOf(t, mgr, jobs.JobFetchPrograms).Message)

	require.NoError(t, mgr.Run(context.Background(), jobs.JobCleanup, 30))
	assert.Equal(t, 30, fc.cleanupDays)
	assert.Equal(t, "Removed 5 programs and 2 fetch logs.", statusOf(t, mgr, jobs.JobCleanup).Message)

	require.NoError(t, mgr.Run(context.Background(), jobs.JobUpdateChannels, 0))
	assert.Equal(t, "Stored 12 channels.", statusOf(t, mgr, jobs.JobUpdateChannels).Message)

	fc.channelErr = errors.New("HTTP 502")
	assert.Error(t, mgr.Run(context.Background(), jobs.JobUpdateChannels, 0))
	assert.Equal(t, "failed", statusOf(t, mgr, jobs.JobUpdateChannels).Status)
}

func TestNewScheduler(t *testing.T) {
	mgr := jobs.NewManager(nil)
	jobs.RegisterCollectorJobs(mgr, &fakeCollector{})

	s, err := jobs.NewScheduler(testConfig(), mgr)
	require.NoError(t, err)
	s.Start()
	defer s.Stop()

	next := s.NextRuns()
	require.Len(t, next, 3)

	helsinki, err := time.LoadLocation("Europe/Helsinki")
	require.NoError(t, err)
	fetch := next[jobs.JobFetchPrograms].In(helsinki)
	assert.True(t, fetch.After(time.Now()))
	assert.Equal(t, 1, fetch.Hour())
	assert.Equal(t, 0, fetch.Minute())

	assert.Equal(t, 2, next[jobs.JobCleanup].In(helsinki).Hour())

	refresh := next[jobs.JobUpdateChannels].In(helsinki)
	assert.Equal(t, time.Sunday, refresh.Weekday())
	assert.Equal(t, 3, refresh.Hour())
}

func TestNewSchedulerSkipsEmptySchedules(t *testing.T) {
	cfg := testConfig()
	cfg.Schedule.UpdateChannels = ""

	s, err := jobs.NewScheduler(cfg, jobs.NewManager(nil))
	require.NoError(t, err)
	assert.Len(t, s.NextRuns(), 2)
	assert.NotContains(t, s.NextRuns(), jobs.JobUpdateChannels)
}

func TestNewSchedulerRejectsBadCron(t *testing.T) {
	cfg := testConfig()
	cfg.Schedule.Cleanup = "every day at two"

	_, err := jobs.NewScheduler(cfg, jobs.NewManager(nil))
	assert.Error(t, err)
}

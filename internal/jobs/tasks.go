package jobs

import (
	"context"
	"fmt"

	"github.com/vrsandeep/tvguide/internal/collector"
)

// Job IDs shared by the scheduler, the admin triggers and the CLI.
const (
	JobFetchPrograms  = "fetch-programs"
	JobUpdateChannels = "update-channels"
	JobCleanup        = "cleanup"
)

// Collector is what the registered jobs drive.
type Collector interface {
	FetchAllPrograms(ctx context.Context, daysAhead int) (*collector.RunSummary, error)
	UpdateChannelList(ctx context.Context) (int, error)
	CleanupOldData(days int) (*collector.CleanupResult, error)
}

// RegisterCollectorJobs registers the three collector operations.
func RegisterCollectorJobs(jm *JobManager, c Collector) {
	jm.Register(JobFetchPrograms, "Fetch programs", func(ctx context.Context, days int) (string, error) {
		summary, err := c.FetchAllPrograms(ctx, days)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Fetched %d channel/date pairs: %d succeeded, %d failed, %d programs stored.",
			summary.Succeeded+summary.Failed, summary.Succeeded, summary.Failed, summary.ProgramsStored), nil
	})

	jm.Register(JobUpdateChannels, "Update channel list", func(ctx context.Context, _ int) (string, error) {
		n, err := c.UpdateChannelList(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Stored %d channels.", n), nil
	})

	jm.Register(JobCleanup, "Clean up old data", func(_ context.Context, days int) (string, error) {
		result, err := c.CleanupOldData(days)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Removed %d programs and %d fetch logs.", result.ProgramsRemoved, result.FetchLogsRemoved), nil
	})
}

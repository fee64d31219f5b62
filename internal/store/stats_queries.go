package store

import (
	"database/sql"
	"time"

	"github.com/vrsandeep/tvguide/internal/models"
)

// GetStats counts programs, active channels, series and the failed
// fetches of the 24 hours before now. It also reports the span of the
// stored schedule, the time of the latest fetch and the program count of
// every channel that has programs.
func (s *Store) GetStats(now time.Time) (*models.Stats, error) {
	var (
		stats             models.Stats
		from, until, last sql.NullInt64
	)
	err := s.db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM programs),
			(SELECT COUNT(*) FROM channels WHERE active = 1),
			(SELECT COUNT(*) FROM series),
			(SELECT COUNT(*) FROM fetch_logs WHERE success = 0 AND created_at >= ?),
			(SELECT MIN(start_time) FROM programs),
			(SELECT MAX(end_time) FROM programs),
			(SELECT MAX(created_at) FROM fetch_logs)`,
		unix(now.Add(-24*time.Hour)),
	).Scan(&stats.TotalPrograms, &stats.TotalChannels, &stats.TotalSeries, &stats.FailedFetches,
		&from, &until, &last)
	if err != nil {
		return nil, wrap("GetStats", err)
	}
	stats.ProgramsFrom = timePtr(from)
	stats.ProgramsUntil = timePtr(until)
	stats.LastFetch = timePtr(last)

	rows, err := s.db.Query(`
		SELECT c.id, c.name, COUNT(p.id)
		FROM channels c
		JOIN programs p ON p.channel_id = c.id
		GROUP BY c.id, c.name
		ORDER BY c.show_order ASC, c.name ASC`)
	if err != nil {
		return nil, wrap("GetStats", err)
	}
	defer rows.Close()

	stats.ProgramsPerChannel = []models.ChannelProgramCount{}
	for rows.Next() {
		var pc models.ChannelProgramCount
		if err := rows.Scan(&pc.ChannelID, &pc.ChannelName, &pc.Programs); err != nil {
			return nil, wrap("GetStats", err)
		}
		stats.ProgramsPerChannel = append(stats.ProgramsPerChannel, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("GetStats", err)
	}
	return &stats, nil
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromUnix(v.Int64)
	return &t
}

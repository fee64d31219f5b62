package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/vrsandeep/tvguide/internal/models"
)

// UpsertSeries records a series touch. A new series is created with
// first_seen = last_seen = touched; an existing one only has last_seen
// moved forward. last_seen never moves backwards, so out-of-order touches
// from overlapping runs are harmless.
func (s *Store) UpsertSeries(id, name string, touched time.Time) error {
	ts := unix(touched)
	_, err := s.db.Exec(`
		INSERT INTO series (id, name, first_seen, last_seen, active)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT(id) DO UPDATE SET
			last_seen = MAX(series.last_seen, excluded.last_seen)`,
		id, name, ts, ts)
	return wrap("UpsertSeries", err)
}

// GetSeries returns a series with its episode count derived from the
// programs currently stored for it.
func (s *Store) GetSeries(id string) (*models.Series, error) {
	row := s.db.QueryRow(`
		SELECT s.id, s.name, s.description, s.first_seen, s.last_seen, s.active,
			(SELECT COUNT(*) FROM programs p WHERE p.series_id = s.id)
		FROM series s WHERE s.id = ?`, id)

	var (
		series              models.Series
		description         sql.NullString
		firstSeen, lastSeen int64
	)
	err := row.Scan(&series.ID, &series.Name, &description, &firstSeen, &lastSeen, &series.Active, &series.EpisodeCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wrap("GetSeries", ErrNotFound)
	}
	if err != nil {
		return nil, wrap("GetSeries", err)
	}
	series.Description = stringPtr(description)
	series.FirstSeen = fromUnix(firstSeen)
	series.LastSeen = fromUnix(lastSeen)
	return &series, nil
}

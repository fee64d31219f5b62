package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/vrsandeep/tvguide/internal/models"
)

const programColumns = `p.id, p.channel_id, p.name, p.episode, p.description, p.start_time, p.end_time,
	p.duration, p.series_id, p.age_limit, p.rating, p.is_series`

// UpsertProgram inserts a program or fully overwrites the stored row with
// the same external ID.
func (s *Store) UpsertProgram(p models.Program) error {
	_, err := s.db.Exec(`
		INSERT INTO programs (id, channel_id, name, episode, description, start_time, end_time,
			duration, series_id, age_limit, rating, is_series, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			channel_id = excluded.channel_id,
			name = excluded.name,
			episode = excluded.episode,
			description = excluded.description,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			duration = excluded.duration,
			series_id = excluded.series_id,
			age_limit = excluded.age_limit,
			rating = excluded.rating,
			is_series = excluded.is_series,
			updated_at = excluded.updated_at`,
		p.ID, p.ChannelID, p.Name, p.Episode, p.Description, unix(p.StartTime), unix(p.EndTime),
		p.Duration, nullString(p.SeriesID), p.AgeLimit, p.Rating, p.IsSeries, unix(time.Now()))
	return wrap("UpsertProgram", err)
}

// GetProgram returns a single program by ID.
func (s *Store) GetProgram(id string) (*models.Program, error) {
	row := s.db.QueryRow(`SELECT `+programColumns+` FROM programs p WHERE p.id = ?`, id)
	p, err := scanProgram(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wrap("GetProgram", ErrNotFound)
	}
	if err != nil {
		return nil, wrap("GetProgram", err)
	}
	return p, nil
}

// DeleteProgramsOlderThan removes programs that started before cutoff and
// returns how many were removed.
func (s *Store) DeleteProgramsOlderThan(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec("DELETE FROM programs WHERE start_time < ?", unix(cutoff))
	if err != nil {
		return 0, wrap("DeleteProgramsOlderThan", err)
	}
	n, err := res.RowsAffected()
	return n, wrap("DeleteProgramsOlderThan", err)
}

// GetProgramsAt returns programs airing at t, boundaries inclusive, with
// their channel expanded. Stored times have whole-second precision, so the
// start is compared against t rounded down and the end against t rounded up.
func (s *Store) GetProgramsAt(t time.Time) ([]models.ProgramWithChannel, error) {
	floor := unix(t)
	ceil := floor
	if t.Nanosecond() > 0 {
		ceil++
	}
	return s.queryExpanded("GetProgramsAt",
		`p.start_time <= ? AND p.end_time >= ?`,
		`c.show_order ASC, p.start_time ASC`, floor, ceil)
}

// GetProgramsStartingBetween returns programs with from <= start_time <= to,
// ordered by start time, with their channel expanded.
func (s *Store) GetProgramsStartingBetween(from, to time.Time) ([]models.ProgramWithChannel, error) {
	return s.queryExpanded("GetProgramsStartingBetween",
		`p.start_time >= ? AND p.start_time <= ?`,
		`p.start_time ASC, c.show_order ASC`, unix(from), unix(to))
}

// SearchPrograms finds programs whose name contains q, newest first.
func (s *Store) SearchPrograms(q string, limit int) ([]models.ProgramWithChannel, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + escapeLike(q) + "%"
	return s.queryExpanded("SearchPrograms",
		`p.name LIKE ? ESCAPE '\'`,
		`p.start_time DESC LIMIT ?`, pattern, limit)
}

// GetChannelSchedule returns a channel's programs with from <= start_time < to.
func (s *Store) GetChannelSchedule(channelID string, from, to time.Time) ([]models.Program, error) {
	return s.queryPrograms("GetChannelSchedule", `
		SELECT `+programColumns+` FROM programs p
		WHERE p.channel_id = ? AND p.start_time >= ? AND p.start_time < ?
		ORDER BY p.start_time ASC`, channelID, unix(from), unix(to))
}

// GetUpcomingEpisodes returns a series' programs starting at or after from.
func (s *Store) GetUpcomingEpisodes(seriesID string, from time.Time, limit int) ([]models.ProgramWithChannel, error) {
	if limit <= 0 {
		limit = 30
	}
	return s.queryExpanded("GetUpcomingEpisodes",
		`p.series_id = ? AND p.start_time >= ?`,
		`p.start_time ASC LIMIT ?`, seriesID, unix(from), limit)
}

func (s *Store) queryPrograms(op, query string, args ...any) ([]models.Program, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	programs := make([]models.Program, 0)
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		programs = append(programs, *p)
	}
	return programs, wrap(op, rows.Err())
}

// queryExpanded joins programs with their channel. The channel is read in
// the same statement so no second query runs while rows are open.
func (s *Store) queryExpanded(op, where, orderBy string, args ...any) ([]models.ProgramWithChannel, error) {
	query := `SELECT ` + programColumns + `, ` + channelColumns + `
		FROM programs p
		JOIN channels c ON c.id = p.channel_id
		WHERE ` + where + `
		ORDER BY ` + orderBy

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	result := make([]models.ProgramWithChannel, 0)
	for rows.Next() {
		var (
			item                 models.ProgramWithChannel
			ch                   models.Channel
			seriesID, category   sql.NullString
			start, end           int64
			createdAt, updatedAt int64
		)
		p := &item.Program
		err := rows.Scan(
			&p.ID, &p.ChannelID, &p.Name, &p.Episode, &p.Description, &start, &end,
			&p.Duration, &seriesID, &p.AgeLimit, &p.Rating, &p.IsSeries,
			&ch.ID, &ch.Name, &ch.ShowOrder, &category, &ch.Active, &createdAt, &updatedAt,
		)
		if err != nil {
			return nil, wrap(op, err)
		}
		p.StartTime = fromUnix(start)
		p.EndTime = fromUnix(end)
		p.SeriesID = stringPtr(seriesID)
		ch.Category = stringPtr(category)
		ch.CreatedAt = fromUnix(createdAt)
		ch.UpdatedAt = fromUnix(updatedAt)
		item.Expand.Channel = &ch
		result = append(result, item)
	}
	return result, wrap(op, rows.Err())
}

func scanProgram(row scanner) (*models.Program, error) {
	var (
		p          models.Program
		seriesID   sql.NullString
		start, end int64
	)
	err := row.Scan(&p.ID, &p.ChannelID, &p.Name, &p.Episode, &p.Description, &start, &end,
		&p.Duration, &seriesID, &p.AgeLimit, &p.Rating, &p.IsSeries)
	if err != nil {
		return nil, err
	}
	p.StartTime = fromUnix(start)
	p.EndTime = fromUnix(end)
	p.SeriesID = stringPtr(seriesID)
	return &p, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

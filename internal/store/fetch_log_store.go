package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/vrsandeep/tvguide/internal/models"
)

// InsertFetchLog appends a fetch log entry. CreatedAt defaults to now.
// A failed entry must carry an error message.
func (s *Store) InsertFetchLog(l *models.FetchLog) error {
	if l.ProgramsCount < 0 {
		return wrap("InsertFetchLog", errors.New("programs_count must not be negative"))
	}
	if !l.Success && strings.TrimSpace(l.ErrorMessage) == "" {
		return wrap("InsertFetchLog", errors.New("failed fetch log requires an error message"))
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.Exec(`
		INSERT INTO fetch_logs (channel_id, target_date, success, programs_count, error_message, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nullString(l.ChannelID), l.TargetDate, l.Success, l.ProgramsCount, l.ErrorMessage, l.DurationMs, unix(l.CreatedAt))
	if err != nil {
		return wrap("InsertFetchLog", err)
	}
	l.ID, err = res.LastInsertId()
	return wrap("InsertFetchLog", err)
}

// DeleteFetchLogsOlderThan removes log entries created before cutoff and
// returns how many were removed.
func (s *Store) DeleteFetchLogsOlderThan(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec("DELETE FROM fetch_logs WHERE created_at < ?", unix(cutoff))
	if err != nil {
		return 0, wrap("DeleteFetchLogsOlderThan", err)
	}
	n, err := res.RowsAffected()
	return n, wrap("DeleteFetchLogsOlderThan", err)
}

// ListFetchLogs returns log entries, newest first.
func (s *Store) ListFetchLogs(filter models.FetchLogFilter) ([]models.FetchLog, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Success != nil {
		conditions = append(conditions, "success = ?")
		args = append(args, *filter.Success)
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, unix(filter.Since))
	}

	query := `SELECT id, channel_id, target_date, success, programs_count, error_message, duration_ms, created_at FROM fetch_logs`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrap("ListFetchLogs", err)
	}
	defer rows.Close()

	logs := make([]models.FetchLog, 0)
	for rows.Next() {
		var (
			l         models.FetchLog
			channelID sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&l.ID, &channelID, &l.TargetDate, &l.Success, &l.ProgramsCount, &l.ErrorMessage, &l.DurationMs, &createdAt); err != nil {
			return nil, wrap("ListFetchLogs", err)
		}
		l.ChannelID = stringPtr(channelID)
		l.CreatedAt = fromUnix(createdAt)
		logs = append(logs, l)
	}
	return logs, wrap("ListFetchLogs", rows.Err())
}

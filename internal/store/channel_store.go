package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/vrsandeep/tvguide/internal/models"
)

const channelColumns = `c.id, c.name, c.show_order, c.category, c.active, c.created_at, c.updated_at`

// UpsertChannel inserts a channel or overwrites its name, show order and
// category. The active flag of an existing channel is preserved; new
// channels start active. A nil category leaves the stored one in place.
func (s *Store) UpsertChannel(ch models.Channel) error {
	now := unix(time.Now())
	_, err := s.db.Exec(`
		INSERT INTO channels (id, name, show_order, category, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			show_order = excluded.show_order,
			category = COALESCE(excluded.category, channels.category),
			updated_at = excluded.updated_at`,
		ch.ID, ch.Name, ch.ShowOrder, nullString(ch.Category), now, now)
	return wrap("UpsertChannel", err)
}

// SetChannelActive toggles whether a channel is collected.
func (s *Store) SetChannelActive(id string, active bool) error {
	res, err := s.db.Exec("UPDATE channels SET active = ?, updated_at = ? WHERE id = ?", active, unix(time.Now()), id)
	if err != nil {
		return wrap("SetChannelActive", err)
	}
	return requireAffected("SetChannelActive", res)
}

// SetChannelCategory sets or clears a channel's category.
func (s *Store) SetChannelCategory(id string, category *string) error {
	res, err := s.db.Exec("UPDATE channels SET category = ?, updated_at = ? WHERE id = ?", nullString(category), unix(time.Now()), id)
	if err != nil {
		return wrap("SetChannelCategory", err)
	}
	return requireAffected("SetChannelCategory", res)
}

func requireAffected(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrap(op, err)
	}
	if n == 0 {
		return wrap(op, ErrNotFound)
	}
	return nil
}

// GetActiveChannels returns the channels to collect, in show order.
func (s *Store) GetActiveChannels() ([]models.Channel, error) {
	return s.queryChannels("GetActiveChannels", true)
}

// ListChannels returns channels in show order, optionally only active ones.
func (s *Store) ListChannels(activeOnly bool) ([]models.Channel, error) {
	return s.queryChannels("ListChannels", activeOnly)
}

func (s *Store) queryChannels(op string, activeOnly bool) ([]models.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels c`
	if activeOnly {
		query += ` WHERE c.active = 1`
	}
	query += ` ORDER BY c.show_order ASC, CAST(c.id AS INTEGER) ASC, c.id ASC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	channels := make([]models.Channel, 0)
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		channels = append(channels, *ch)
	}
	return channels, wrap(op, rows.Err())
}

// GetChannel returns a single channel by ID.
func (s *Store) GetChannel(id string) (*models.Channel, error) {
	row := s.db.QueryRow(`SELECT `+channelColumns+` FROM channels c WHERE c.id = ?`, id)
	ch, err := scanChannel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wrap("GetChannel", ErrNotFound)
	}
	if err != nil {
		return nil, wrap("GetChannel", err)
	}
	return ch, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChannel(row scanner) (*models.Channel, error) {
	var (
		ch                   models.Channel
		category             sql.NullString
		createdAt, updatedAt int64
	)
	if err := row.Scan(&ch.ID, &ch.Name, &ch.ShowOrder, &category, &ch.Active, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	ch.Category = stringPtr(category)
	ch.CreatedAt = fromUnix(createdAt)
	ch.UpdatedAt = fromUnix(updatedAt)
	return &ch, nil
}

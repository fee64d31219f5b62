// Package normalizer maps raw schedule records onto the stored entities.
// It performs no I/O.
package normalizer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/vrsandeep/tvguide/internal/models"
	"github.com/vrsandeep/tvguide/internal/telkussa"
)

// ValidationError is returned for raw records that cannot be stored.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid program record: %s %s", e.Field, e.Reason)
}

// SeriesTouch is emitted for every program that belongs to a series.
type SeriesTouch struct {
	SeriesID string
	Name     string
}

// maxEpoch is 9999-12-31 23:59:59 UTC. Start and stop must lie in
// [0, maxEpoch], which also keeps stop-start from overflowing.
const maxEpoch = 253402300799

// EpochToTime converts the source's start/stop integers.
//
// The values are treated as Unix epoch seconds. This is provisional: some
// documented samples do not line up with their calendar dates, and no
// corrective offset is applied.
func EpochToTime(v int64) time.Time {
	return time.Unix(v, 0).UTC()
}

// Normalize converts one raw record into a Program owned by channelID.
// The returned touch is nil unless the record carries a series ID > 0.
func Normalize(raw telkussa.RawProgram, channelID string) (models.Program, *SeriesTouch, error) {
	switch {
	case raw.DecodeErr != nil:
		return models.Program{}, nil, &ValidationError{Field: "record", Reason: "is malformed: " + raw.DecodeErr.Error()}
	case raw.ID == nil:
		return models.Program{}, nil, &ValidationError{Field: "id", Reason: "is missing"}
	case *raw.ID <= 0:
		return models.Program{}, nil, &ValidationError{Field: "id", Reason: "must be positive"}
	case raw.Name == nil || strings.TrimSpace(*raw.Name) == "":
		return models.Program{}, nil, &ValidationError{Field: "name", Reason: "is missing"}
	case raw.Start == nil:
		return models.Program{}, nil, &ValidationError{Field: "start", Reason: "is missing"}
	case raw.Stop == nil:
		return models.Program{}, nil, &ValidationError{Field: "stop", Reason: "is missing"}
	case *raw.Start < 0 || *raw.Start > maxEpoch:
		return models.Program{}, nil, &ValidationError{Field: "start", Reason: "is out of range"}
	case *raw.Stop < 0 || *raw.Stop > maxEpoch:
		return models.Program{}, nil, &ValidationError{Field: "stop", Reason: "is out of range"}
	case *raw.Stop <= *raw.Start:
		return models.Program{}, nil, &ValidationError{Field: "stop", Reason: "must be after start"}
	case channelID == "":
		return models.Program{}, nil, &ValidationError{Field: "channel", Reason: "is missing"}
	}

	name := strings.TrimSpace(*raw.Name)
	p := models.Program{
		ID:          strconv.FormatInt(*raw.ID, 10),
		ChannelID:   channelID,
		Name:        name,
		Episode:     strings.TrimSpace(raw.Episode),
		Description: CleanDescription(raw.Description),
		StartTime:   EpochToTime(*raw.Start),
		EndTime:     EpochToTime(*raw.Stop),
		Duration:    int((*raw.Stop - *raw.Start) / 60),
		AgeLimit:    raw.AgeLimit,
		Rating:      raw.Rating,
		IsSeries:    raw.SeriesID > 0,
	}

	var touch *SeriesTouch
	if p.IsSeries {
		id := strconv.FormatInt(raw.SeriesID, 10)
		p.SeriesID = &id
		touch = &SeriesTouch{SeriesID: id, Name: name}
	}
	return p, touch, nil
}

// CleanDescription returns the plain text of a description that may
// contain HTML markup or entities.
func CleanDescription(s string) string {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

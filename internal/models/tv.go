// This file defines the entities persisted by the collector.

package models

import "time"

// Channel is a broadcast channel as listed by the schedule source.
type Channel struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ShowOrder int       `json:"show_order"`
	Category  *string   `json:"category,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Program is a single broadcast. Reruns get their own IDs.
type Program struct {
	ID          string    `json:"id"`
	ChannelID   string    `json:"channel"`
	Name        string    `json:"name"`
	Episode     string    `json:"episode"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Duration    int       `json:"duration"` // minutes
	SeriesID    *string   `json:"series,omitempty"`
	AgeLimit    int       `json:"age_limit"`
	Rating      int       `json:"rating"` // opaque upstream value
	IsSeries    bool      `json:"is_series"`
}

// ProgramWithChannel is a Program with its owning channel expanded.
type ProgramWithChannel struct {
	Program
	Expand struct {
		Channel *Channel `json:"channel,omitempty"`
	} `json:"expand"`
}

// Series aggregates programs that share an upstream series ID.
type Series struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
	Active       bool      `json:"active"`
	EpisodeCount int       `json:"episode_count"`
}

// FetchLog records the outcome of one fetch attempt.
// ChannelID is nil for whole-system operations such as a channel list refresh.
type FetchLog struct {
	ID            int64     `json:"id" csv:"id"`
	ChannelID     *string   `json:"channel,omitempty" csv:"channel,omitempty"`
	TargetDate    string    `json:"target_date" csv:"target_date"`
	Success       bool      `json:"success" csv:"success"`
	ProgramsCount int       `json:"programs_count" csv:"programs_count"`
	ErrorMessage  string    `json:"error_message,omitempty" csv:"error_message"`
	DurationMs    int64     `json:"duration_ms" csv:"duration_ms"`
	CreatedAt     time.Time `json:"created" csv:"created"`
}

// FetchLogFilter narrows a fetch log listing. Zero values mean "no filter".
type FetchLogFilter struct {
	Success *bool
	Since   time.Time
	Limit   int
}

// Stats are the aggregate counters served by /api/tv/stats.
type Stats struct {
	TotalPrograms int `json:"total_programs"`
	TotalChannels int `json:"total_channels"`
	TotalSeries   int `json:"total_series"`
	FailedFetches int `json:"failed_fetches_24h"`

	// Earliest start and latest end over all stored programs.
	ProgramsFrom  *time.Time `json:"programs_from,omitempty"`
	ProgramsUntil *time.Time `json:"programs_until,omitempty"`
	LastFetch     *time.Time `json:"last_fetch,omitempty"`

	ProgramsPerChannel []ChannelProgramCount `json:"programs_per_channel"`
}

// ChannelProgramCount is one row of Stats.ProgramsPerChannel.
type ChannelProgramCount struct {
	ChannelID   string `json:"channel_id"`
	ChannelName string `json:"channel_name"`
	Programs    int    `json:"programs"`
}

// ChannelCategories are the values accepted for Channel.Category.
var ChannelCategories = []string{
	"public", "commercial", "sports", "movies",
	"kids", "music", "international", "documentary", "other",
}

// IsValidCategory reports whether c is one of ChannelCategories.
func IsValidCategory(c string) bool {
	for _, v := range ChannelCategories {
		if v == c {
			return true
		}
	}
	return false
}

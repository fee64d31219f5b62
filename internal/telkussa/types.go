package telkussa

// RawChannel is one entry of GET /Channels.
type RawChannel struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShowOrder int    `json:"showOrder"`
}

// RawProgram is one entry of GET /Channel/{id}/{date}.
// Required fields are pointers so a missing value can be told apart
// from a zero value. DecodeErr is set, and every other field left zero,
// when the element could not be decoded.
type RawProgram struct {
	ID          *int64  `json:"id"`
	Name        *string `json:"name"`
	Episode     string  `json:"episode"`
	Description string  `json:"description"`
	Start       *int64  `json:"start"`
	Stop        *int64  `json:"stop"`
	SeriesID    int64   `json:"series_id"`
	AgeLimit    int     `json:"agelimit"`
	Channel     int     `json:"channel"`
	Rating      int     `json:"rating"`

	DecodeErr error `json:"-"`
}

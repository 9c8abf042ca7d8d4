package domain

import "time"

// WatchEvent is one normalized history record. The working set for a
// pipeline run never contains two events with the same TitleID.
type WatchEvent struct {
	TitleID   int64     `json:"title_id"`
	TMDBID    int64     `json:"tmdb_id,omitempty"`
	Title     string    `json:"title"`
	Year      int       `json:"year,omitempty"`
	WatchedAt time.Time `json:"watched_at"`
	Genres    []string  `json:"genres,omitempty"`
}

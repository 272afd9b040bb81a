package models

import "time"

// Session represents a representative's live-location window. One row per
// representative; re-capturing location overwrites the row in place, so no
// history of a previous window's entry count survives a re-capture.
type Session struct {
	RepresentativeID string `json:"representative_id" db:"representative_id"`

	// Temporal info
	CapturedAt int64 `json:"captured_at" db:"captured_at"` // Unix timestamp of last capture

	// Spatial info, valid only while the session is active
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
	Address   string  `json:"address,omitempty" db:"address"`

	// Quota
	EntryCount int `json:"entry_count" db:"entry_count"`
}

// SessionStatus is the read-side view of a session handed to the bot/API layer
type SessionStatus struct {
	Active           bool    `json:"active"`
	TimeRemainingSec float64 `json:"time_remaining_seconds"`
	EntriesCount     int     `json:"entries_count"`
	MaxEntries       int     `json:"max_entries"`
	Address          string  `json:"address,omitempty"`
	NeedsWarning     bool    `json:"needs_warning"`
}

// ElapsedSince returns the seconds between the capture and now
func (s *Session) ElapsedSince(now time.Time) float64 {
	return now.Sub(time.Unix(s.CapturedAt, 0)).Seconds()
}

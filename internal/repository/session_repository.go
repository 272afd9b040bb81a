package repository

import (
	"database/sql"
	"fmt"

	"github.com/medfield/fieldtrack-go/internal/models"
)

// SessionRepository persists the session table so sessions survive a
// process restart. Expiry is never evaluated here; the session manager
// recomputes it from captured_at on every read.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save upserts the session row for a representative
func (r *SessionRepository) Save(s *models.Session) error {
	query := `
		INSERT OR REPLACE INTO sessions
		(representative_id, captured_at, latitude, longitude, address, entry_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`
	_, err := r.db.Exec(query,
		s.RepresentativeID, s.CapturedAt, s.Latitude, s.Longitude, s.Address, s.EntryCount)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes a representative's session row; idempotent
func (r *SessionRepository) Delete(repID string) error {
	if _, err := r.db.Exec("DELETE FROM sessions WHERE representative_id = ?", repID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// LoadAll returns every persisted session, keyed by representative
func (r *SessionRepository) LoadAll() (map[string]*models.Session, error) {
	query := `
		SELECT representative_id, captured_at, latitude, longitude, address, entry_count
		FROM sessions
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := make(map[string]*models.Session)
	for rows.Next() {
		var s models.Session
		var address sql.NullString
		if err := rows.Scan(
			&s.RepresentativeID, &s.CapturedAt, &s.Latitude, &s.Longitude,
			&address, &s.EntryCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if address.Valid {
			s.Address = address.String
		}
		sessions[s.RepresentativeID] = &s
	}

	return sessions, rows.Err()
}

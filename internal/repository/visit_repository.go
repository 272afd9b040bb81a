package repository

import (
	"database/sql"
	"fmt"

	"github.com/medfield/fieldtrack-go/internal/models"
)

// VisitRepository handles database operations for visit locations.
// The table is an append-mostly log: upsert by visit_id, no deletes.
type VisitRepository struct {
	db *sql.DB
}

// NewVisitRepository creates a new visit repository
func NewVisitRepository(db *sql.DB) *VisitRepository {
	return &VisitRepository{db: db}
}

// Store upserts a visit by visit_id (INSERT OR REPLACE)
func (r *VisitRepository) Store(v *models.VisitLocation, visitDate string) error {
	query := `
		INSERT OR REPLACE INTO visit_locations
		(visit_id, representative_id, session_id, location_name, location_type,
		 latitude, longitude, address, visit_date, visit_time, visit_duration,
		 visit_outcome, weather, area_type, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		v.VisitID, v.RepresentativeID, v.SessionID, v.LocationName, v.LocationType,
		v.Latitude, v.Longitude, v.Address, visitDate, v.VisitTime, v.VisitDurationMin,
		v.VisitOutcome, v.Weather, v.AreaType, v.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to store visit: %w", err)
	}
	return nil
}

// GetVisitsForDay returns a representative's visits for one date,
// ascending by visit time. Identical timestamps keep insertion order
// via the rowid tiebreak.
func (r *VisitRepository) GetVisitsForDay(repID, date string) ([]models.VisitLocation, error) {
	query := `
		SELECT visit_id, representative_id, session_id, location_name, location_type,
		       latitude, longitude, address, visit_time, visit_duration,
		       visit_outcome, weather, area_type, notes
		FROM visit_locations
		WHERE representative_id = ? AND visit_date = ?
		ORDER BY visit_time ASC, rowid ASC
	`
	return r.queryVisits(query, repID, date)
}

// GetVisitDates returns the distinct dates (descending) on which a
// representative logged visits, bounded by sinceDate inclusive
func (r *VisitRepository) GetVisitDates(repID, sinceDate string) ([]string, error) {
	query := `
		SELECT DISTINCT visit_date
		FROM visit_locations
		WHERE representative_id = ? AND visit_date >= ?
		ORDER BY visit_date DESC
	`
	rows, err := r.db.Query(query, repID, sinceDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query visit dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan visit date: %w", err)
		}
		dates = append(dates, d)
	}

	return dates, rows.Err()
}

func (r *VisitRepository) queryVisits(query string, args ...interface{}) ([]models.VisitLocation, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query visits: %w", err)
	}
	defer rows.Close()

	var visits []models.VisitLocation
	for rows.Next() {
		var v models.VisitLocation
		var sessionID, address, weather, areaType, notes sql.NullString

		if err := rows.Scan(
			&v.VisitID, &v.RepresentativeID, &sessionID, &v.LocationName, &v.LocationType,
			&v.Latitude, &v.Longitude, &address, &v.VisitTime, &v.VisitDurationMin,
			&v.VisitOutcome, &weather, &areaType, &notes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}

		if sessionID.Valid {
			v.SessionID = sessionID.String
		}
		if address.Valid {
			v.Address = address.String
		}
		if weather.Valid {
			v.Weather = weather.String
		}
		if areaType.Valid {
			v.AreaType = areaType.String
		}
		if notes.Valid {
			v.Notes = notes.String
		}

		visits = append(visits, v)
	}

	return visits, rows.Err()
}

package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/medfield/fieldtrack-go/internal/models"
)

// BlueprintRepository persists route blueprints, one row per
// (representative_id, date), replace-on-write
type BlueprintRepository struct {
	db *sql.DB
}

// NewBlueprintRepository creates a new blueprint repository
func NewBlueprintRepository(db *sql.DB) *BlueprintRepository {
	return &BlueprintRepository{db: db}
}

// Save replaces the blueprint row for the blueprint's (rep, date) key
func (r *BlueprintRepository) Save(b *models.RouteBlueprint) error {
	startJSON, err := json.Marshal(b.StartLocation)
	if err != nil {
		return fmt.Errorf("failed to marshal start location: %w", err)
	}
	endJSON, err := json.Marshal(b.EndLocation)
	if err != nil {
		return fmt.Errorf("failed to marshal end location: %w", err)
	}
	visitsJSON, err := json.Marshal(b.VisitLocations)
	if err != nil {
		return fmt.Errorf("failed to marshal visit locations: %w", err)
	}
	areasJSON, err := json.Marshal(b.CoverageAreas)
	if err != nil {
		return fmt.Errorf("failed to marshal coverage areas: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO route_blueprints
		(representative_id, date, total_visits, total_distance_km, route_efficiency,
		 travel_minutes, visiting_minutes, start_location, end_location,
		 visit_locations, coverage_areas, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`
	_, err = r.db.Exec(query,
		b.RepresentativeID, b.Date, b.TotalVisits, b.TotalDistanceKm, b.RouteEfficiency,
		b.TravelMinutes, b.VisitingMinutes, string(startJSON), string(endJSON),
		string(visitsJSON), string(areasJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save blueprint: %w", err)
	}
	return nil
}

// Get returns the blueprint for (rep, date), or (nil, nil) when none exists
func (r *BlueprintRepository) Get(repID, date string) (*models.RouteBlueprint, error) {
	query := `
		SELECT representative_id, date, total_visits, total_distance_km, route_efficiency,
		       travel_minutes, visiting_minutes, start_location, end_location,
		       visit_locations, coverage_areas
		FROM route_blueprints
		WHERE representative_id = ? AND date = ?
	`
	row := r.db.QueryRow(query, repID, date)
	b, err := scanBlueprint(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blueprint: %w", err)
	}
	return b, nil
}

// GetRecent returns a representative's most recent blueprints, newest first
func (r *BlueprintRepository) GetRecent(repID string, limit int) ([]models.RouteBlueprint, error) {
	if limit < 1 {
		limit = 7
	}

	query := `
		SELECT representative_id, date, total_visits, total_distance_km, route_efficiency,
		       travel_minutes, visiting_minutes, start_location, end_location,
		       visit_locations, coverage_areas
		FROM route_blueprints
		WHERE representative_id = ?
		ORDER BY date DESC
		LIMIT ?
	`
	rows, err := r.db.Query(query, repID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query blueprints: %w", err)
	}
	defer rows.Close()

	var blueprints []models.RouteBlueprint
	for rows.Next() {
		b, err := scanBlueprint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blueprint: %w", err)
		}
		blueprints = append(blueprints, *b)
	}

	return blueprints, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBlueprint(row rowScanner) (*models.RouteBlueprint, error) {
	var b models.RouteBlueprint
	var startJSON, endJSON, visitsJSON, areasJSON sql.NullString

	err := row.Scan(
		&b.RepresentativeID, &b.Date, &b.TotalVisits, &b.TotalDistanceKm, &b.RouteEfficiency,
		&b.TravelMinutes, &b.VisitingMinutes, &startJSON, &endJSON,
		&visitsJSON, &areasJSON,
	)
	if err != nil {
		return nil, err
	}

	if startJSON.Valid {
		if err := json.Unmarshal([]byte(startJSON.String), &b.StartLocation); err != nil {
			return nil, fmt.Errorf("failed to unmarshal start location: %w", err)
		}
	}
	if endJSON.Valid {
		if err := json.Unmarshal([]byte(endJSON.String), &b.EndLocation); err != nil {
			return nil, fmt.Errorf("failed to unmarshal end location: %w", err)
		}
	}
	if visitsJSON.Valid {
		if err := json.Unmarshal([]byte(visitsJSON.String), &b.VisitLocations); err != nil {
			return nil, fmt.Errorf("failed to unmarshal visit locations: %w", err)
		}
	}
	if areasJSON.Valid {
		if err := json.Unmarshal([]byte(areasJSON.String), &b.CoverageAreas); err != nil {
			return nil, fmt.Errorf("failed to unmarshal coverage areas: %w", err)
		}
	}

	return &b, nil
}

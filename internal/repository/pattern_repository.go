package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/medfield/fieldtrack-go/internal/models"
)

// PatternRepository persists per-(representative, cluster) rolling
// statistics. Rows are created once and updated incrementally, never deleted.
type PatternRepository struct {
	db *sql.DB
}

// NewPatternRepository creates a new pattern repository
func NewPatternRepository(db *sql.DB) *PatternRepository {
	return &PatternRepository{db: db}
}

// Get returns the pattern for (rep, cluster), or (nil, nil) when none exists
func (r *PatternRepository) Get(repID, clusterKey string) (*models.LocationPattern, error) {
	query := `
		SELECT representative_id, cluster_key, latitude, longitude,
		       visit_frequency, avg_visit_duration, success_rate,
		       last_visit_time, last_location_name, recent_visits
		FROM location_patterns
		WHERE representative_id = ? AND cluster_key = ?
	`
	p, err := scanPattern(r.db.QueryRow(query, repID, clusterKey))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pattern: %w", err)
	}
	return p, nil
}

// Save upserts the pattern row for its (rep, cluster) key
func (r *PatternRepository) Save(p *models.LocationPattern) error {
	recentJSON, err := json.Marshal(p.RecentVisits)
	if err != nil {
		return fmt.Errorf("failed to marshal recent visits: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO location_patterns
		(representative_id, cluster_key, latitude, longitude,
		 visit_frequency, avg_visit_duration, success_rate,
		 last_visit_time, last_location_name, recent_visits, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`
	_, err = r.db.Exec(query,
		p.RepresentativeID, p.ClusterKey, p.Latitude, p.Longitude,
		p.VisitFrequency, p.AvgVisitDurMin, p.SuccessRate,
		p.LastVisitTime, p.LastLocationName, string(recentJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save pattern: %w", err)
	}
	return nil
}

// GetTop returns a representative's most visited clusters
func (r *PatternRepository) GetTop(repID string, limit int) ([]models.LocationPattern, error) {
	if limit < 1 {
		limit = 5
	}

	query := `
		SELECT representative_id, cluster_key, latitude, longitude,
		       visit_frequency, avg_visit_duration, success_rate,
		       last_visit_time, last_location_name, recent_visits
		FROM location_patterns
		WHERE representative_id = ?
		ORDER BY visit_frequency DESC, last_visit_time DESC
		LIMIT ?
	`
	rows, err := r.db.Query(query, repID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer rows.Close()

	var patterns []models.LocationPattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		patterns = append(patterns, *p)
	}

	return patterns, rows.Err()
}

func scanPattern(row rowScanner) (*models.LocationPattern, error) {
	var p models.LocationPattern
	var lastVisit, lastName, recentJSON sql.NullString

	err := row.Scan(
		&p.RepresentativeID, &p.ClusterKey, &p.Latitude, &p.Longitude,
		&p.VisitFrequency, &p.AvgVisitDurMin, &p.SuccessRate,
		&lastVisit, &lastName, &recentJSON,
	)
	if err != nil {
		return nil, err
	}

	if lastVisit.Valid {
		p.LastVisitTime = lastVisit.String
	}
	if lastName.Valid {
		p.LastLocationName = lastName.String
	}
	if recentJSON.Valid && recentJSON.String != "" {
		if err := json.Unmarshal([]byte(recentJSON.String), &p.RecentVisits); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recent visits: %w", err)
		}
	}

	return &p, nil
}

package models

// VisitLocation represents a single field visit logged against an active
// session. Immutable once stored; re-storing the same visit_id replaces
// the earlier row.
type VisitLocation struct {
	VisitID string `json:"visit_id" db:"visit_id"`

	// Ownership
	RepresentativeID string `json:"representative_id" db:"representative_id"`
	SessionID        string `json:"session_id,omitempty" db:"session_id"`

	// Place
	LocationName string  `json:"location_name" db:"location_name"`
	LocationType string  `json:"location_type" db:"location_type"` // hospital, pharmacy, clinic, general (open set)
	Latitude     float64 `json:"latitude" db:"latitude"`
	Longitude    float64 `json:"longitude" db:"longitude"`
	Address      string  `json:"address,omitempty" db:"address"`

	// Visit details
	VisitTime        string `json:"visit_time" db:"visit_time"`         // ISO-8601
	VisitDurationMin int    `json:"visit_duration" db:"visit_duration"` // minutes
	VisitOutcome     string `json:"visit_outcome" db:"visit_outcome"`   // successful, no_order, follow_up, other

	// Optional annotations
	Weather  string `json:"weather,omitempty" db:"weather"`
	AreaType string `json:"area_type,omitempty" db:"area_type"`
	Notes    string `json:"notes,omitempty" db:"notes"`
}

// LocationType constants (the set stays open, these are the mapped ones)
const (
	LocationTypeHospital = "hospital"
	LocationTypePharmacy = "pharmacy"
	LocationTypeClinic   = "clinic"
	LocationTypeGeneral  = "general"
)

// VisitOutcome constants
const (
	OutcomeSuccessful = "successful"
	OutcomeNoOrder    = "no_order"
	OutcomeFollowUp   = "follow_up"
	OutcomeOther      = "other"
)

// VisitSummary is the compact per-visit view embedded in patterns and history
type VisitSummary struct {
	VisitID      string `json:"visit_id"`
	LocationName string `json:"location_name"`
	LocationType string `json:"location_type"`
	VisitTime    string `json:"visit_time"`
	DurationMin  int    `json:"duration_minutes"`
	Outcome      string `json:"outcome"`
}

// Summary converts a visit into its compact view
func (v *VisitLocation) Summary() VisitSummary {
	return VisitSummary{
		VisitID:      v.VisitID,
		LocationName: v.LocationName,
		LocationType: v.LocationType,
		VisitTime:    v.VisitTime,
		DurationMin:  v.VisitDurationMin,
		Outcome:      v.VisitOutcome,
	}
}

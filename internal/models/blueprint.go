package models

// RouteBlueprint is the derived daily route summary for one representative.
// Recomputed in full from the day's visit list on every new visit and
// persisted replace-on-write, keyed by (representative_id, date).
type RouteBlueprint struct {
	RepresentativeID string `json:"representative_id" db:"representative_id"`
	Date             string `json:"date" db:"date"` // YYYY-MM-DD

	// Totals
	TotalVisits     int     `json:"total_visits" db:"total_visits"`
	TotalDistanceKm float64 `json:"total_distance_km" db:"total_distance_km"`

	// Endpoints
	StartLocation VisitSummary `json:"start_location"`
	EndLocation   VisitSummary `json:"end_location"`

	// Ordered chronological visit sequence
	VisitLocations []VisitLocation `json:"visit_locations"`

	// Route quality: nearest-neighbor tour distance over actual distance,
	// as a percentage capped at 100
	RouteEfficiency float64 `json:"route_efficiency" db:"route_efficiency"`

	// Time split
	TravelMinutes   int `json:"time_spent_traveling_minutes" db:"travel_minutes"`
	VisitingMinutes int `json:"time_spent_visiting_minutes" db:"visiting_minutes"`

	// Deduplicated area tags derived from visit location types
	CoverageAreas []string `json:"coverage_areas"`
}

// CoverageArea constants
const (
	AreaHospitalDistrict = "Hospital District"
	AreaPharmacy         = "Pharmacy Area"
	AreaMedicalComplex   = "Medical Complex"
	AreaGeneral          = "General Area"
)

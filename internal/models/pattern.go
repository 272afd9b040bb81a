package models

// LocationPattern holds the rolling per-cluster statistics for one
// representative. Mutated incrementally on every visit in the cluster,
// never deleted.
type LocationPattern struct {
	RepresentativeID string `json:"representative_id" db:"representative_id"`

	// Cluster identification: coordinates rounded to a fixed precision
	ClusterKey string  `json:"cluster_key" db:"cluster_key"`
	Latitude   float64 `json:"latitude" db:"latitude"`
	Longitude  float64 `json:"longitude" db:"longitude"`

	// Rolling statistics
	VisitFrequency  int     `json:"visit_frequency" db:"visit_frequency"`
	AvgVisitDurMin  float64 `json:"avg_visit_duration" db:"avg_visit_duration"`
	SuccessRate     float64 `json:"success_rate" db:"success_rate"` // running mean of outcome scores
	LastVisitTime   string  `json:"last_visit_time" db:"last_visit_time"`
	LastLocationName string `json:"last_location_name,omitempty" db:"last_location_name"`

	// Bounded history of the most recent visits, newest last
	RecentVisits []VisitSummary `json:"recent_visits"`
}

// MaxRecentVisits bounds the per-pattern history
const MaxRecentVisits = 10

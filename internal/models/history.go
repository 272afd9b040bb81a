package models

// LocationHistoryDay is one day's rollup in a representative's history
type LocationHistoryDay struct {
	Date        string         `json:"date"` // YYYY-MM-DD
	TotalVisits int            `json:"total_visits"`
	AvgDuration float64        `json:"avg_duration"` // minutes
	Locations   []VisitSummary `json:"locations"`
}

// TopLocation is one entry of the analytics top-clusters list
type TopLocation struct {
	ClusterKey     string  `json:"cluster_key"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	LocationName   string  `json:"location_name,omitempty"`
	VisitFrequency int     `json:"visit_frequency"`
	AvgVisitDurMin float64 `json:"avg_visit_duration"`
	SuccessRate    float64 `json:"success_rate"`
	LastVisitTime  string  `json:"last_visit_time"`
}

// DayPerformance is one day's blueprint-level metrics in the analytics view
type DayPerformance struct {
	Date            string  `json:"date"`
	TotalVisits     int     `json:"total_visits"`
	TotalDistanceKm float64 `json:"total_distance_km"`
	RouteEfficiency float64 `json:"route_efficiency"`
}

// LocationAnalytics aggregates the analytics surfaces for one representative
type LocationAnalytics struct {
	RepresentativeID  string           `json:"representative_id"`
	TopLocations      []TopLocation    `json:"top_locations"`
	RecentPerformance []DayPerformance `json:"recent_performance"`
}

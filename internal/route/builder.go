package route

import (
	"math"

	"github.com/medfield/fieldtrack-go/internal/models"
	"github.com/medfield/fieldtrack-go/internal/spatial"
)

// Builder computes route blueprints from a day's visit list. Build is pure:
// the same visit list always yields the same blueprint, so callers recompute
// from scratch on every new visit instead of patching incrementally.
type Builder struct {
	avgSpeedKmh float64
}

// NewBuilder creates a builder. avgSpeedKmh is the assumed constant travel
// speed used for the travel-time estimate.
func NewBuilder(avgSpeedKmh float64) *Builder {
	if avgSpeedKmh <= 0 {
		avgSpeedKmh = 30
	}
	return &Builder{avgSpeedKmh: avgSpeedKmh}
}

// Build computes the blueprint for a chronologically ordered visit list.
// Returns nil for an empty list: a day without visits has no blueprint,
// which is "no data", not an error.
func (b *Builder) Build(repID, date string, visits []models.VisitLocation) *models.RouteBlueprint {
	if len(visits) == 0 {
		return nil
	}

	actualKm := chronologicalDistanceKm(visits)

	visitingMinutes := 0
	for _, v := range visits {
		visitingMinutes += v.VisitDurationMin
	}

	return &models.RouteBlueprint{
		RepresentativeID: repID,
		Date:             date,
		TotalVisits:      len(visits),
		TotalDistanceKm:  actualKm,
		StartLocation:    visits[0].Summary(),
		EndLocation:      visits[len(visits)-1].Summary(),
		VisitLocations:   visits,
		RouteEfficiency:  efficiency(visits, actualKm),
		TravelMinutes:    int(math.Round(actualKm / b.avgSpeedKmh * 60)),
		VisitingMinutes:  visitingMinutes,
		CoverageAreas:    coverageAreas(visits),
	}
}

// chronologicalDistanceKm sums the haversine legs between consecutive
// visits in list order
func chronologicalDistanceKm(visits []models.VisitLocation) float64 {
	total := 0.0
	for i := 1; i < len(visits); i++ {
		total += spatial.HaversineDistanceKm(
			visits[i-1].Latitude, visits[i-1].Longitude,
			visits[i].Latitude, visits[i].Longitude,
		)
	}
	return total
}

// efficiency scores the actual route against a nearest-neighbor tour over
// the same locations, as a percentage capped at 100. The nearest-neighbor
// baseline is a deliberate heuristic, not an exact TSP solution: the score
// is only meaningful relative to this baseline.
func efficiency(visits []models.VisitLocation, actualKm float64) float64 {
	if len(visits) < 2 || actualKm == 0 {
		return 100
	}

	optimalKm := nearestNeighborTourKm(visits)
	return math.Min(100, optimalKm/actualKm*100)
}

// nearestNeighborTourKm greedily walks the locations starting from the
// first visit, always taking the closest unvisited location next. Ties go
// to the first-encountered candidate.
func nearestNeighborTourKm(visits []models.VisitLocation) float64 {
	visited := make([]bool, len(visits))
	visited[0] = true
	current := 0
	total := 0.0

	for step := 1; step < len(visits); step++ {
		nearest := -1
		nearestKm := math.MaxFloat64
		for i := range visits {
			if visited[i] {
				continue
			}
			d := spatial.HaversineDistanceKm(
				visits[current].Latitude, visits[current].Longitude,
				visits[i].Latitude, visits[i].Longitude,
			)
			if d < nearestKm {
				nearestKm = d
				nearest = i
			}
		}
		total += nearestKm
		visited[nearest] = true
		current = nearest
	}

	return total
}

// coverageAreas maps each visit to an area tag and deduplicates,
// preserving first-seen order
func coverageAreas(visits []models.VisitLocation) []string {
	seen := make(map[string]bool)
	var areas []string

	for _, v := range visits {
		area := areaTag(&v)
		if !seen[area] {
			seen[area] = true
			areas = append(areas, area)
		}
	}

	return areas
}

// areaTag derives an area tag from the visit's location type; an explicit
// area_type annotation wins over the mapping
func areaTag(v *models.VisitLocation) string {
	if v.AreaType != "" {
		return v.AreaType
	}

	switch v.LocationType {
	case models.LocationTypeHospital:
		return models.AreaHospitalDistrict
	case models.LocationTypePharmacy:
		return models.AreaPharmacy
	case models.LocationTypeClinic:
		return models.AreaMedicalComplex
	default:
		return models.AreaGeneral
	}
}

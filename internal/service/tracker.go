package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/medfield/fieldtrack-go/internal/models"
	"github.com/medfield/fieldtrack-go/internal/pattern"
	"github.com/medfield/fieldtrack-go/internal/route"
	"github.com/medfield/fieldtrack-go/internal/session"
	"github.com/medfield/fieldtrack-go/internal/spatial"
)

// ErrInvalidVisitTime rejects a visit whose timestamp cannot be parsed
var ErrInvalidVisitTime = errors.New("visit time is not a valid timestamp")

// VisitStore is the persistence surface the tracker needs for visits
type VisitStore interface {
	Store(v *models.VisitLocation, visitDate string) error
	GetVisitsForDay(repID, date string) ([]models.VisitLocation, error)
	GetVisitDates(repID, sinceDate string) ([]string, error)
}

// BlueprintStore persists derived route blueprints
type BlueprintStore interface {
	Save(b *models.RouteBlueprint) error
	Get(repID, date string) (*models.RouteBlueprint, error)
	GetRecent(repID string, limit int) ([]models.RouteBlueprint, error)
}

// PatternStore persists per-cluster rolling statistics
type PatternStore interface {
	Get(repID, clusterKey string) (*models.LocationPattern, error)
	Save(p *models.LocationPattern) error
	GetTop(repID string, limit int) ([]models.LocationPattern, error)
}

// Geocoder resolves coordinates to a human-readable address. It may be slow
// or unreliable; the tracker only calls it outside session locks and treats
// the result as an opaque string.
type Geocoder func(lat, lon float64) string

// TrackerOptions configures the tracker service
type TrackerOptions struct {
	AvgTravelSpeedKmh   float64
	DefaultVisitMinutes int
	ClusterPrecision    int
}

// TrackerService is the boundary the bot/HTTP layers call: session gating,
// visit recording and the derived route/pattern reads.
type TrackerService struct {
	sessions   *session.Manager
	visits     VisitStore
	blueprints BlueprintStore
	patterns   PatternStore
	builder    *route.Builder
	aggregator *pattern.Aggregator
	geocode    Geocoder

	defaultVisitMin int
	now             func() time.Time
}

// NewTrackerService creates the tracker facade
func NewTrackerService(
	sessions *session.Manager,
	visits VisitStore,
	blueprints BlueprintStore,
	patterns PatternStore,
	opts TrackerOptions,
) *TrackerService {
	if opts.DefaultVisitMinutes <= 0 {
		opts.DefaultVisitMinutes = 30
	}

	return &TrackerService{
		sessions:        sessions,
		visits:          visits,
		blueprints:      blueprints,
		patterns:        patterns,
		builder:         route.NewBuilder(opts.AvgTravelSpeedKmh),
		aggregator:      pattern.NewAggregator(opts.ClusterPrecision),
		defaultVisitMin: opts.DefaultVisitMinutes,
		now:             time.Now,
	}
}

// SetClock replaces the service's time source
func (t *TrackerService) SetClock(now func() time.Time) {
	t.now = now
	t.sessions.SetClock(now)
}

// SetGeocoder installs the external reverse-geocoding collaborator
func (t *TrackerService) SetGeocoder(g Geocoder) {
	t.geocode = g
}

// CaptureLocation verifies coordinates and (re)activates the
// representative's session. When no address is supplied and a geocoder is
// installed, the address is resolved before the session is touched.
func (t *TrackerService) CaptureLocation(repID string, lat, lon float64, address string) error {
	if !spatial.ValidateCoordinates(lat, lon) {
		return session.ErrInvalidCoordinates
	}

	if address == "" && t.geocode != nil {
		address = t.geocode(lat, lon)
	}

	return t.sessions.Capture(repID, lat, lon, address)
}

// GetSessionStatus returns the live session view
func (t *TrackerService) GetSessionStatus(repID string) models.SessionStatus {
	return t.sessions.Status(repID)
}

// CanLogEntry reports whether the representative may log another entry
func (t *TrackerService) CanLogEntry(repID string) bool {
	return t.sessions.CanLogEntry(repID)
}

// LogEntry consumes one entry slot; false means inactive or quota reached
func (t *TrackerService) LogEntry(repID string) bool {
	return t.sessions.LogEntry(repID)
}

// ClearSession resets the representative to Inactive
func (t *TrackerService) ClearSession(repID string) {
	t.sessions.Clear(repID)
}

// RecordVisit gates a visit through the session machine, persists it and
// refreshes the day's blueprint and the cluster's pattern.
//
// Returns (false, nil) when the session is inactive or the entry quota is
// exhausted, (false, err) for invalid input or a failed visit write.
// Blueprint and pattern refreshes are derived data: their failures are
// logged and do not retract an already-stored visit. Concurrent recorders
// for the same representative serialize on the session lock for the entry
// slot; the blueprint rewrite itself stays last-writer-wins, which is
// acceptable at one visit every few minutes per human.
func (t *TrackerService) RecordVisit(v *models.VisitLocation) (bool, error) {
	if !spatial.ValidateCoordinates(v.Latitude, v.Longitude) {
		return false, session.ErrInvalidCoordinates
	}

	visitDate, err := t.normalizeVisit(v)
	if err != nil {
		return false, err
	}

	sess := t.sessions.Snapshot(v.RepresentativeID)
	if sess == nil {
		return false, nil
	}
	if v.SessionID == "" {
		v.SessionID = session.SessionID(sess)
	}

	if !t.sessions.LogEntry(v.RepresentativeID) {
		return false, nil
	}

	if err := t.visits.Store(v, visitDate); err != nil {
		log.Error().Err(err).Str("rep_id", v.RepresentativeID).Str("visit_id", v.VisitID).
			Msg("visit persist failed")
		return false, err
	}

	t.refreshBlueprint(v.RepresentativeID, visitDate)
	t.refreshPattern(v)

	return true, nil
}

// GetRouteBlueprint returns the blueprint for a date (today when empty).
// (nil, nil) means no visits that day.
func (t *TrackerService) GetRouteBlueprint(repID, date string) (*models.RouteBlueprint, error) {
	if date == "" {
		date = t.now().Format("2006-01-02")
	}

	b, err := t.blueprints.Get(repID, date)
	if err != nil {
		return nil, err
	}
	if b != nil {
		return b, nil
	}

	// No stored row: rebuild from the visit log, covering rows written
	// before the blueprint table existed.
	visits, err := t.visits.GetVisitsForDay(repID, date)
	if err != nil {
		return nil, err
	}
	b = t.builder.Build(repID, date, visits)
	if b == nil {
		return nil, nil
	}

	if err := t.blueprints.Save(b); err != nil {
		log.Warn().Err(err).Str("rep_id", repID).Str("date", date).
			Msg("blueprint backfill persist failed")
	}

	return b, nil
}

// GetLocationHistory returns per-day rollups for the last N days that have
// visits, newest first. Empty slice means no data.
func (t *TrackerService) GetLocationHistory(repID string, days int) ([]models.LocationHistoryDay, error) {
	if days < 1 {
		days = 7
	}
	since := t.now().AddDate(0, 0, -(days - 1)).Format("2006-01-02")

	dates, err := t.visits.GetVisitDates(repID, since)
	if err != nil {
		return nil, err
	}

	history := make([]models.LocationHistoryDay, 0, len(dates))
	for _, date := range dates {
		visits, err := t.visits.GetVisitsForDay(repID, date)
		if err != nil {
			return nil, err
		}
		if len(visits) == 0 {
			continue
		}

		day := models.LocationHistoryDay{
			Date:        date,
			TotalVisits: len(visits),
			Locations:   make([]models.VisitSummary, 0, len(visits)),
		}
		totalDur := 0
		for _, v := range visits {
			totalDur += v.VisitDurationMin
			day.Locations = append(day.Locations, v.Summary())
		}
		day.AvgDuration = float64(totalDur) / float64(len(visits))

		history = append(history, day)
	}

	return history, nil
}

// GetLocationAnalytics returns the top visited clusters and recent
// blueprint-level performance
func (t *TrackerService) GetLocationAnalytics(repID string) (*models.LocationAnalytics, error) {
	patterns, err := t.patterns.GetTop(repID, 5)
	if err != nil {
		return nil, err
	}

	recent, err := t.blueprints.GetRecent(repID, 7)
	if err != nil {
		return nil, err
	}

	analytics := &models.LocationAnalytics{
		RepresentativeID:  repID,
		TopLocations:      make([]models.TopLocation, 0, len(patterns)),
		RecentPerformance: make([]models.DayPerformance, 0, len(recent)),
	}

	for _, p := range patterns {
		analytics.TopLocations = append(analytics.TopLocations, models.TopLocation{
			ClusterKey:     p.ClusterKey,
			Latitude:       p.Latitude,
			Longitude:      p.Longitude,
			LocationName:   p.LastLocationName,
			VisitFrequency: p.VisitFrequency,
			AvgVisitDurMin: p.AvgVisitDurMin,
			SuccessRate:    p.SuccessRate,
			LastVisitTime:  p.LastVisitTime,
		})
	}

	for _, b := range recent {
		analytics.RecentPerformance = append(analytics.RecentPerformance, models.DayPerformance{
			Date:            b.Date,
			TotalVisits:     b.TotalVisits,
			TotalDistanceKm: b.TotalDistanceKm,
			RouteEfficiency: b.RouteEfficiency,
		})
	}

	return analytics, nil
}

// normalizeVisit fills generated/defaulted fields and returns the visit's
// date bucket
func (t *TrackerService) normalizeVisit(v *models.VisitLocation) (string, error) {
	if v.VisitID == "" {
		v.VisitID = uuid.NewString()
	}
	if v.LocationType == "" {
		v.LocationType = models.LocationTypeGeneral
	}
	if v.VisitOutcome == "" {
		v.VisitOutcome = models.OutcomeOther
	}
	if v.VisitDurationMin <= 0 {
		v.VisitDurationMin = t.defaultVisitMin
	}

	if v.VisitTime == "" {
		v.VisitTime = t.now().Format(time.RFC3339)
	}
	parsed, err := time.Parse(time.RFC3339, v.VisitTime)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidVisitTime, v.VisitTime)
	}

	return parsed.Format("2006-01-02"), nil
}

// refreshBlueprint recomputes and replaces the day's blueprint. Reading the
// visit list and writing the row is not atomic; with concurrent recorders
// the last writer wins and the next visit repairs the row.
func (t *TrackerService) refreshBlueprint(repID, date string) {
	visits, err := t.visits.GetVisitsForDay(repID, date)
	if err != nil {
		log.Error().Err(err).Str("rep_id", repID).Str("date", date).Msg("blueprint read failed")
		return
	}

	b := t.builder.Build(repID, date, visits)
	if b == nil {
		return
	}

	if err := t.blueprints.Save(b); err != nil {
		log.Error().Err(err).Str("rep_id", repID).Str("date", date).Msg("blueprint persist failed")
	}
}

// refreshPattern folds the visit into its cluster's rolling statistics
func (t *TrackerService) refreshPattern(v *models.VisitLocation) {
	key := t.aggregator.ClusterKey(v.Latitude, v.Longitude)

	existing, err := t.patterns.Get(v.RepresentativeID, key)
	if err != nil {
		log.Error().Err(err).Str("rep_id", v.RepresentativeID).Str("cluster", key).
			Msg("pattern read failed")
		return
	}

	updated := t.aggregator.Apply(existing, v)
	if err := t.patterns.Save(updated); err != nil {
		log.Error().Err(err).Str("rep_id", v.RepresentativeID).Str("cluster", key).
			Msg("pattern persist failed")
	}
}

package repository

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medfield/fieldtrack-go/internal/database"
	"github.com/medfield/fieldtrack-go/internal/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testVisit(id, repID, date, visitTime string) *models.VisitLocation {
	return &models.VisitLocation{
		VisitID:          id,
		RepresentativeID: repID,
		SessionID:        repID + "-1748854800",
		LocationName:     "City Hospital",
		LocationType:     models.LocationTypeHospital,
		Latitude:         19.0760,
		Longitude:        72.8777,
		Address:          "Dadar West, Mumbai",
		VisitTime:        visitTime,
		VisitDurationMin: 30,
		VisitOutcome:     models.OutcomeSuccessful,
	}
}

func TestVisitRepositoryStoreAndGetForDay(t *testing.T) {
	db := openTestDB(t)
	repo := NewVisitRepository(db)

	// Insert out of chronological order
	require.NoError(t, repo.Store(testVisit("v2", "rep1", "2025-06-02", "2025-06-02T11:00:00Z"), "2025-06-02"))
	require.NoError(t, repo.Store(testVisit("v1", "rep1", "2025-06-02", "2025-06-02T09:00:00Z"), "2025-06-02"))
	require.NoError(t, repo.Store(testVisit("v3", "rep1", "2025-06-02", "2025-06-02T13:00:00Z"), "2025-06-02"))

	// Another rep and another day stay out of the result
	require.NoError(t, repo.Store(testVisit("x1", "rep2", "2025-06-02", "2025-06-02T10:00:00Z"), "2025-06-02"))
	require.NoError(t, repo.Store(testVisit("d1", "rep1", "2025-06-03", "2025-06-03T09:00:00Z"), "2025-06-03"))

	visits, err := repo.GetVisitsForDay("rep1", "2025-06-02")
	require.NoError(t, err)
	require.Len(t, visits, 3)
	assert.Equal(t, "v1", visits[0].VisitID)
	assert.Equal(t, "v2", visits[1].VisitID)
	assert.Equal(t, "v3", visits[2].VisitID)
	assert.Equal(t, "City Hospital", visits[0].LocationName)
	assert.Equal(t, 19.0760, visits[0].Latitude)
}

func TestVisitRepositoryUpsertReplacesByID(t *testing.T) {
	db := openTestDB(t)
	repo := NewVisitRepository(db)

	require.NoError(t, repo.Store(testVisit("v1", "rep1", "2025-06-02", "2025-06-02T09:00:00Z"), "2025-06-02"))

	corrected := testVisit("v1", "rep1", "2025-06-02", "2025-06-02T09:00:00Z")
	corrected.VisitDurationMin = 55
	corrected.VisitOutcome = models.OutcomeFollowUp
	require.NoError(t, repo.Store(corrected, "2025-06-02"))

	visits, err := repo.GetVisitsForDay("rep1", "2025-06-02")
	require.NoError(t, err)
	require.Len(t, visits, 1, "re-storing the same visit_id must replace, not duplicate")
	assert.Equal(t, 55, visits[0].VisitDurationMin)
	assert.Equal(t, models.OutcomeFollowUp, visits[0].VisitOutcome)
}

func TestVisitRepositoryEmptyDay(t *testing.T) {
	db := openTestDB(t)
	repo := NewVisitRepository(db)

	visits, err := repo.GetVisitsForDay("rep1", "2025-06-02")
	require.NoError(t, err)
	assert.Empty(t, visits)
}

func TestVisitRepositoryGetVisitDates(t *testing.T) {
	db := openTestDB(t)
	repo := NewVisitRepository(db)

	require.NoError(t, repo.Store(testVisit("a", "rep1", "", "2025-06-01T09:00:00Z"), "2025-06-01"))
	require.NoError(t, repo.Store(testVisit("b", "rep1", "", "2025-06-03T09:00:00Z"), "2025-06-03"))
	require.NoError(t, repo.Store(testVisit("c", "rep1", "", "2025-06-03T11:00:00Z"), "2025-06-03"))
	require.NoError(t, repo.Store(testVisit("d", "rep1", "", "2025-05-20T09:00:00Z"), "2025-05-20"))

	dates, err := repo.GetVisitDates("rep1", "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-06-03", "2025-06-01"}, dates, "descending, distinct, bounded by since")
}

func TestSessionRepositoryRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewSessionRepository(db)

	s := &models.Session{
		RepresentativeID: "rep1",
		CapturedAt:       1748854800,
		Latitude:         19.0760,
		Longitude:        72.8777,
		Address:          "Dadar West",
		EntryCount:       3,
	}
	require.NoError(t, repo.Save(s))

	loaded, err := repo.LoadAll()
	require.NoError(t, err)
	require.Contains(t, loaded, "rep1")
	assert.Equal(t, s.CapturedAt, loaded["rep1"].CapturedAt)
	assert.Equal(t, s.EntryCount, loaded["rep1"].EntryCount)
	assert.Equal(t, "Dadar West", loaded["rep1"].Address)

	// Save again with a bumped count: single row per rep
	s.EntryCount = 4
	require.NoError(t, repo.Save(s))
	loaded, err = repo.LoadAll()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 4, loaded["rep1"].EntryCount)
}

func TestSessionRepositoryDelete(t *testing.T) {
	db := openTestDB(t)
	repo := NewSessionRepository(db)

	require.NoError(t, repo.Save(&models.Session{RepresentativeID: "rep1", CapturedAt: 1748854800, Latitude: 19, Longitude: 72}))
	require.NoError(t, repo.Delete("rep1"))

	loaded, err := repo.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, loaded)

	// Deleting a missing row is fine
	require.NoError(t, repo.Delete("rep1"))
}

func testBlueprint(repID, date string) *models.RouteBlueprint {
	v1 := *testVisit("v1", repID, date, date+"T09:00:00Z")
	v2 := *testVisit("v2", repID, date, date+"T11:00:00Z")
	return &models.RouteBlueprint{
		RepresentativeID: repID,
		Date:             date,
		TotalVisits:      2,
		TotalDistanceKm:  1.02,
		RouteEfficiency:  100,
		TravelMinutes:    2,
		VisitingMinutes:  60,
		StartLocation:    v1.Summary(),
		EndLocation:      v2.Summary(),
		VisitLocations:   []models.VisitLocation{v1, v2},
		CoverageAreas:    []string{models.AreaHospitalDistrict},
	}
}

func TestBlueprintRepositoryRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewBlueprintRepository(db)

	require.NoError(t, repo.Save(testBlueprint("rep1", "2025-06-02")))

	got, err := repo.Get("rep1", "2025-06-02")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.TotalVisits)
	assert.Equal(t, 1.02, got.TotalDistanceKm)
	assert.Equal(t, "v1", got.StartLocation.VisitID)
	assert.Equal(t, "v2", got.EndLocation.VisitID)
	require.Len(t, got.VisitLocations, 2)
	assert.Equal(t, []string{models.AreaHospitalDistrict}, got.CoverageAreas)
}

func TestBlueprintRepositoryGetMissingIsNilNil(t *testing.T) {
	db := openTestDB(t)
	repo := NewBlueprintRepository(db)

	got, err := repo.Get("rep1", "2025-06-02")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestBlueprintRepositoryReplaceOnWrite(t *testing.T) {
	db := openTestDB(t)
	repo := NewBlueprintRepository(db)

	require.NoError(t, repo.Save(testBlueprint("rep1", "2025-06-02")))

	updated := testBlueprint("rep1", "2025-06-02")
	updated.TotalVisits = 3
	updated.RouteEfficiency = 87.5
	require.NoError(t, repo.Save(updated))

	got, err := repo.Get("rep1", "2025-06-02")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.TotalVisits)
	assert.Equal(t, 87.5, got.RouteEfficiency)

	// Only one row for the (rep, date) key
	recent, err := repo.GetRecent("rep1", 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestBlueprintRepositoryGetRecent(t *testing.T) {
	db := openTestDB(t)
	repo := NewBlueprintRepository(db)

	for _, date := range []string{"2025-06-01", "2025-06-03", "2025-06-02"} {
		require.NoError(t, repo.Save(testBlueprint("rep1", date)))
	}
	require.NoError(t, repo.Save(testBlueprint("rep2", "2025-06-04")))

	recent, err := repo.GetRecent("rep1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "2025-06-03", recent[0].Date)
	assert.Equal(t, "2025-06-02", recent[1].Date)
}

func testPattern(repID, clusterKey string, freq int) *models.LocationPattern {
	return &models.LocationPattern{
		RepresentativeID: repID,
		ClusterKey:       clusterKey,
		Latitude:         19.076,
		Longitude:        72.878,
		VisitFrequency:   freq,
		AvgVisitDurMin:   32.5,
		SuccessRate:      0.75,
		LastVisitTime:    "2025-06-02T09:00:00Z",
		LastLocationName: "City Hospital",
		RecentVisits: []models.VisitSummary{
			{VisitID: "v1", LocationName: "City Hospital", LocationType: models.LocationTypeHospital, VisitTime: "2025-06-02T09:00:00Z", DurationMin: 30, Outcome: models.OutcomeSuccessful},
		},
	}
}

func TestPatternRepositoryRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewPatternRepository(db)

	require.NoError(t, repo.Save(testPattern("rep1", "19.076,72.878", 4)))

	got, err := repo.Get("rep1", "19.076,72.878")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 4, got.VisitFrequency)
	assert.Equal(t, 32.5, got.AvgVisitDurMin)
	assert.Equal(t, 0.75, got.SuccessRate)
	require.Len(t, got.RecentVisits, 1)
	assert.Equal(t, "v1", got.RecentVisits[0].VisitID)
}

func TestPatternRepositoryGetMissingIsNilNil(t *testing.T) {
	db := openTestDB(t)
	repo := NewPatternRepository(db)

	got, err := repo.Get("rep1", "19.076,72.878")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestPatternRepositoryUpsert(t *testing.T) {
	db := openTestDB(t)
	repo := NewPatternRepository(db)

	require.NoError(t, repo.Save(testPattern("rep1", "19.076,72.878", 1)))

	bumped := testPattern("rep1", "19.076,72.878", 2)
	bumped.SuccessRate = 0.5
	require.NoError(t, repo.Save(bumped))

	got, err := repo.Get("rep1", "19.076,72.878")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.VisitFrequency)
	assert.Equal(t, 0.5, got.SuccessRate)

	top, err := repo.GetTop("rep1", 10)
	require.NoError(t, err)
	assert.Len(t, top, 1, "upsert must keep a single row per cluster")
}

func TestPatternRepositoryGetTopOrdersByFrequency(t *testing.T) {
	db := openTestDB(t)
	repo := NewPatternRepository(db)

	require.NoError(t, repo.Save(testPattern("rep1", "19.076,72.878", 3)))
	require.NoError(t, repo.Save(testPattern("rep1", "19.082,72.885", 7)))
	require.NoError(t, repo.Save(testPattern("rep1", "19.088,72.890", 5)))
	require.NoError(t, repo.Save(testPattern("rep2", "19.076,72.878", 99)))

	top, err := repo.GetTop("rep1", 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "19.082,72.885", top[0].ClusterKey)
	assert.Equal(t, "19.088,72.890", top[1].ClusterKey)
}

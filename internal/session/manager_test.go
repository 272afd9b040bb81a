package session

import (
	"errors"
	"testing"
	"time"

	"github.com/medfield/fieldtrack-go/internal/models"
)

type fakeStore struct {
	saved   map[string]*models.Session
	saveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: make(map[string]*models.Session)}
}

func (f *fakeStore) Save(s *models.Session) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	copied := *s
	f.saved[s.RepresentativeID] = &copied
	return nil
}

func (f *fakeStore) Delete(repID string) error {
	delete(f.saved, repID)
	return nil
}

func (f *fakeStore) LoadAll() (map[string]*models.Session, error) {
	out := make(map[string]*models.Session, len(f.saved))
	for k, v := range f.saved {
		copied := *v
		out[k] = &copied
	}
	return out, nil
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager() (*Manager, *fakeClock, *fakeStore) {
	store := newFakeStore()
	m := NewManager(store, Options{
		Duration:   900 * time.Second,
		Warning:    60 * time.Second,
		MaxEntries: 10,
	})
	clock := &fakeClock{t: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)}
	m.SetClock(clock.now)
	return m, clock, store
}

func TestCaptureActivatesSession(t *testing.T) {
	m, _, store := newTestManager()

	if err := m.Capture("rep1", 19.0760, 72.8777, "Dadar West"); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	if !m.IsActive("rep1") {
		t.Error("session should be active after capture")
	}

	status := m.Status("rep1")
	if status.EntriesCount != 0 {
		t.Errorf("entries_count = %d, want 0", status.EntriesCount)
	}
	if status.Address != "Dadar West" {
		t.Errorf("address = %q, want %q", status.Address, "Dadar West")
	}

	if _, ok := store.saved["rep1"]; !ok {
		t.Error("capture should persist the session row")
	}
}

func TestCaptureRejectsInvalidCoordinates(t *testing.T) {
	m, _, _ := newTestManager()

	// Establish a session, then try to clobber it with bad input
	if err := m.Capture("rep1", 19.0760, 72.8777, "valid"); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if ok := m.LogEntry("rep1"); !ok {
		t.Fatal("entry should log on active session")
	}

	err := m.Capture("rep1", 200, 72, "bogus")
	if !errors.Is(err, ErrInvalidCoordinates) {
		t.Fatalf("err = %v, want ErrInvalidCoordinates", err)
	}

	// Prior session untouched
	status := m.Status("rep1")
	if !status.Active || status.EntriesCount != 1 || status.Address != "valid" {
		t.Errorf("prior session mutated by rejected capture: %+v", status)
	}
}

func TestEntryQuota(t *testing.T) {
	m, _, _ := newTestManager()
	if err := m.Capture("rep1", 19.0760, 72.8777, ""); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		if !m.LogEntry("rep1") {
			t.Fatalf("entry %d refused before quota", i+1)
		}
	}

	if m.CanLogEntry("rep1") {
		t.Error("CanLogEntry should be false at quota")
	}
	if m.LogEntry("rep1") {
		t.Error("11th entry should be refused")
	}
	if got := m.Status("rep1").EntriesCount; got != 10 {
		t.Errorf("entry count = %d, want 10 (never exceeds quota)", got)
	}

	// A fresh capture resets the count, discarding the old window's tally
	if err := m.Capture("rep1", 19.0760, 72.8777, ""); err != nil {
		t.Fatalf("re-capture failed: %v", err)
	}
	if got := m.Status("rep1").EntriesCount; got != 0 {
		t.Errorf("entry count after re-capture = %d, want 0", got)
	}
	if !m.CanLogEntry("rep1") {
		t.Error("quota should reopen after re-capture")
	}
}

func TestLazyExpiry(t *testing.T) {
	m, clock, _ := newTestManager()
	if err := m.Capture("rep1", 19.0760, 72.8777, ""); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	clock.advance(899 * time.Second)
	if !m.IsActive("rep1") {
		t.Error("session should still be active at 899s")
	}

	clock.advance(2 * time.Second)
	if m.IsActive("rep1") {
		t.Error("session should be expired past 900s")
	}
	if m.CanLogEntry("rep1") {
		t.Error("expired session must refuse entries")
	}
	if m.LogEntry("rep1") {
		t.Error("expired session must refuse entries")
	}

	// Expiry is monotonic: once inactive, it stays inactive
	clock.advance(24 * time.Hour)
	if m.IsActive("rep1") {
		t.Error("expired session resurrected")
	}
}

func TestTimeRemainingAndWarning(t *testing.T) {
	m, clock, _ := newTestManager()

	if m.TimeRemaining("ghost") != 0 {
		t.Error("time remaining should be 0 without a session")
	}
	if m.NeedsWarning("ghost") {
		t.Error("no warning without a session")
	}

	if err := m.Capture("rep1", 19.0760, 72.8777, ""); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	if got := m.TimeRemaining("rep1"); got != 900 {
		t.Errorf("time remaining = %v, want 900", got)
	}
	if m.NeedsWarning("rep1") {
		t.Error("fresh session should not warn")
	}

	clock.advance(850 * time.Second)
	if !m.NeedsWarning("rep1") {
		t.Error("session with 50s left should warn")
	}

	clock.advance(60 * time.Second)
	if m.NeedsWarning("rep1") {
		t.Error("expired session should not warn")
	}
	if m.TimeRemaining("rep1") != 0 {
		t.Error("expired session should report 0 remaining")
	}
}

func TestCaptureResetsTimer(t *testing.T) {
	m, clock, _ := newTestManager()
	if err := m.Capture("rep1", 19.0760, 72.8777, ""); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	clock.advance(800 * time.Second)
	if err := m.Capture("rep1", 19.0820, 72.8850, ""); err != nil {
		t.Fatalf("re-capture failed: %v", err)
	}

	if got := m.TimeRemaining("rep1"); got != 900 {
		t.Errorf("time remaining after re-capture = %v, want 900", got)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	m, _, store := newTestManager()
	if err := m.Capture("rep1", 19.0760, 72.8777, ""); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	m.Clear("rep1")
	if m.IsActive("rep1") {
		t.Error("cleared session should be inactive")
	}
	if _, ok := store.saved["rep1"]; ok {
		t.Error("clear should remove the persisted row")
	}

	m.Clear("rep1") // second clear is a no-op
	m.Clear("never-existed")
}

func TestLoadRestoresSessions(t *testing.T) {
	m, clock, store := newTestManager()
	if err := m.Capture("rep1", 19.0760, 72.8777, "Dadar"); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if !m.LogEntry("rep1") {
		t.Fatal("entry refused")
	}

	// Simulate a restart against the same store
	restarted := NewManager(store, Options{Duration: 900 * time.Second, Warning: 60 * time.Second, MaxEntries: 10})
	restarted.SetClock(clock.now)
	if err := restarted.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	status := restarted.Status("rep1")
	if !status.Active || status.EntriesCount != 1 || status.Address != "Dadar" {
		t.Errorf("restored session wrong: %+v", status)
	}

	// Expiry still computed live from the restored timestamp
	clock.advance(901 * time.Second)
	if restarted.IsActive("rep1") {
		t.Error("restored session should expire from its original capture time")
	}
}

func TestPersistFailureKeepsInMemoryState(t *testing.T) {
	m, _, store := newTestManager()
	store.saveErr = errors.New("disk full")

	if err := m.Capture("rep1", 19.0760, 72.8777, ""); err != nil {
		t.Fatalf("Capture should succeed despite persist failure: %v", err)
	}
	if !m.IsActive("rep1") {
		t.Error("in-memory session must survive persist failure")
	}
	if !m.LogEntry("rep1") {
		t.Error("entry should log despite persist failure")
	}
}

func TestSnapshotReturnsCopy(t *testing.T) {
	m, clock, _ := newTestManager()
	if err := m.Capture("rep1", 19.0760, 72.8777, "Dadar"); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	snap := m.Snapshot("rep1")
	if snap == nil {
		t.Fatal("Snapshot should return the active session")
	}
	snap.EntryCount = 99
	if m.Status("rep1").EntriesCount != 0 {
		t.Error("mutating the snapshot must not touch the live session")
	}

	clock.advance(901 * time.Second)
	if m.Snapshot("rep1") != nil {
		t.Error("Snapshot should be nil for an expired session")
	}
}

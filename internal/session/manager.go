package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medfield/fieldtrack-go/internal/models"
	"github.com/medfield/fieldtrack-go/internal/spatial"
)

// ErrInvalidCoordinates rejects a capture whose coordinates fall outside
// the valid degree ranges
var ErrInvalidCoordinates = errors.New("coordinates out of valid range")

// Store persists session rows. Failures are logged and never break the
// in-memory state machine.
type Store interface {
	Save(*models.Session) error
	Delete(repID string) error
	LoadAll() (map[string]*models.Session, error)
}

// Options configures the session state machine
type Options struct {
	Duration   time.Duration // session lifetime after a capture
	Warning    time.Duration // remaining time at or below which a warning is due
	MaxEntries int           // entry quota per capture
}

// Manager is the per-representative location session state machine.
//
// A session moves Inactive -> Active on capture and silently expires once
// Duration has elapsed; expiry is recomputed lazily from the stored capture
// timestamp on every read, so no timer runs anywhere. Capturing while
// already active simply overwrites the session: timer and entry count reset
// and the previous window's count is gone.
type Manager struct {
	store Store
	opts  Options
	now   func() time.Time

	mu       sync.RWMutex // guards sessions and locks maps
	sessions map[string]*models.Session
	locks    map[string]*sync.Mutex // one lock per representative
}

// NewManager creates a session manager. Call Load before serving to pick
// up sessions persisted by a previous process.
func NewManager(store Store, opts Options) *Manager {
	if opts.Duration <= 0 {
		opts.Duration = 15 * time.Minute
	}
	if opts.Warning <= 0 {
		opts.Warning = time.Minute
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = 10
	}

	return &Manager{
		store:    store,
		opts:     opts,
		now:      time.Now,
		sessions: make(map[string]*models.Session),
		locks:    make(map[string]*sync.Mutex),
	}
}

// SetClock replaces the manager's time source
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// Load restores persisted sessions. Expired rows are loaded as-is; the
// lazy expiry check makes them report inactive without any cleanup pass.
func (m *Manager) Load() error {
	sessions, err := m.store.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}

	m.mu.Lock()
	m.sessions = sessions
	m.mu.Unlock()

	return nil
}

// Capture activates (or re-activates) a representative's session at the
// given coordinates. The only failure mode is invalid coordinates; an
// already-active session is overwritten without complaint.
func (m *Manager) Capture(repID string, lat, lon float64, address string) error {
	if !spatial.ValidateCoordinates(lat, lon) {
		return ErrInvalidCoordinates
	}

	lock := m.repLock(repID)
	lock.Lock()
	defer lock.Unlock()

	s := &models.Session{
		RepresentativeID: repID,
		CapturedAt:       m.now().Unix(),
		Latitude:         lat,
		Longitude:        lon,
		Address:          address,
		EntryCount:       0,
	}

	m.mu.Lock()
	m.sessions[repID] = s
	m.mu.Unlock()

	if err := m.store.Save(s); err != nil {
		log.Warn().Err(err).Str("rep_id", repID).Msg("session persist failed, continuing in memory")
	}

	return nil
}

// IsActive reports whether a session exists and has not yet expired
func (m *Manager) IsActive(repID string) bool {
	return m.TimeRemaining(repID) > 0
}

// TimeRemaining returns the seconds left in the session, 0 when inactive
func (m *Manager) TimeRemaining(repID string) float64 {
	s := m.get(repID)
	if s == nil {
		return 0
	}

	remaining := m.opts.Duration.Seconds() - s.ElapsedSince(m.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// NeedsWarning reports whether the session is active but about to expire
func (m *Manager) NeedsWarning(repID string) bool {
	remaining := m.TimeRemaining(repID)
	return remaining > 0 && remaining <= m.opts.Warning.Seconds()
}

// CanLogEntry reports whether an entry may be logged: session active and
// quota not yet exhausted
func (m *Manager) CanLogEntry(repID string) bool {
	lock := m.repLock(repID)
	lock.Lock()
	defer lock.Unlock()
	return m.canLogLocked(repID)
}

// LogEntry consumes one entry slot. Returns false when the session is
// inactive or the quota is exhausted; both are expected outcomes, not
// errors.
func (m *Manager) LogEntry(repID string) bool {
	lock := m.repLock(repID)
	lock.Lock()
	defer lock.Unlock()

	if !m.canLogLocked(repID) {
		return false
	}

	s := m.get(repID)
	s.EntryCount++

	if err := m.store.Save(s); err != nil {
		log.Warn().Err(err).Str("rep_id", repID).Msg("session persist failed, continuing in memory")
	}

	return true
}

// Clear resets the representative to Inactive; idempotent
func (m *Manager) Clear(repID string) {
	lock := m.repLock(repID)
	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	delete(m.sessions, repID)
	m.mu.Unlock()

	if err := m.store.Delete(repID); err != nil {
		log.Warn().Err(err).Str("rep_id", repID).Msg("session delete failed")
	}
}

// Status returns the read-side session view for the bot/API layer
func (m *Manager) Status(repID string) models.SessionStatus {
	remaining := m.TimeRemaining(repID)

	status := models.SessionStatus{
		Active:           remaining > 0,
		TimeRemainingSec: remaining,
		MaxEntries:       m.opts.MaxEntries,
		NeedsWarning:     remaining > 0 && remaining <= m.opts.Warning.Seconds(),
	}

	if s := m.get(repID); s != nil && status.Active {
		status.EntriesCount = s.EntryCount
		status.Address = s.Address
	}

	return status
}

// Snapshot returns a copy of the active session, or nil when inactive.
// Callers use it to stamp visits with the session's coordinates and id.
func (m *Manager) Snapshot(repID string) *models.Session {
	lock := m.repLock(repID)
	lock.Lock()
	defer lock.Unlock()

	s := m.get(repID)
	if s == nil || s.ElapsedSince(m.now()) >= m.opts.Duration.Seconds() {
		return nil
	}

	copied := *s
	return &copied
}

// SessionID derives a stable id for the current session window
func SessionID(s *models.Session) string {
	return fmt.Sprintf("%s-%d", s.RepresentativeID, s.CapturedAt)
}

func (m *Manager) canLogLocked(repID string) bool {
	s := m.get(repID)
	if s == nil {
		return false
	}
	if s.ElapsedSince(m.now()) >= m.opts.Duration.Seconds() {
		return false
	}
	return s.EntryCount < m.opts.MaxEntries
}

func (m *Manager) get(repID string) *models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[repID]
}

// repLock returns the mutex owned by one representative, creating it on
// first use. Different representatives never share a lock.
func (m *Manager) repLock(repID string) *sync.Mutex {
	m.mu.RLock()
	lock, ok := m.locks[repID]
	m.mu.RUnlock()
	if ok {
		return lock
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if lock, ok = m.locks[repID]; !ok {
		lock = &sync.Mutex{}
		m.locks[repID] = lock
	}
	return lock
}

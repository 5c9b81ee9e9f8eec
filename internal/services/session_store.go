package services

import (
	"strings"
	"sync"
	"time"

	"github.com/pborman/uuid"

	"andaman/internal/domain"
	"andaman/internal/domain/models"
	"andaman/internal/metrics"
)

const (
	// SessionTTL is how long a booking session stays valid after
	// creation. ExpiresAt is always CreatedAt + SessionTTL.
	SessionTTL = 30 * time.Minute

	// sweepInterval is how often the janitor removes expired entries.
	sweepInterval = 5 * time.Minute
)

// SessionStore holds short-lived booking state between ferry selection
// and payment. Injected as a dependency so the in-memory default can be
// swapped for an external TTL cache without touching handlers.
type SessionStore interface {
	Create(params models.SearchParams, ferry models.UnifiedFerryResult, class models.FerryClass) models.FerryBookingSession
	// Get returns NotFoundError for unknown IDs and GoneError for
	// expired ones; an expired-but-unswept session is deleted on access.
	Get(sessionID string) (models.FerryBookingSession, error)
	Update(session models.FerryBookingSession) error
	Delete(sessionID string)
	Len() int
}

// MemorySessionStore is the in-process default: map + RWMutex + a
// janitor goroutine. State does not survive restarts; that is accepted
// for this store and documented at the API boundary.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]models.FerryBookingSession

	now  func() time.Time
	done chan struct{}
	once sync.Once
}

func NewMemorySessionStore() *MemorySessionStore {
	s := &MemorySessionStore{
		sessions: make(map[string]models.FerryBookingSession),
		now:      time.Now,
		done:     make(chan struct{}),
	}
	go s.janitor()
	return s
}

// newMemorySessionStoreAt builds a store with a fake clock and no
// janitor, for tests.
func newMemorySessionStoreAt(now func() time.Time) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]models.FerryBookingSession),
		now:      now,
		done:     make(chan struct{}),
	}
}

func (s *MemorySessionStore) Create(params models.SearchParams, ferry models.UnifiedFerryResult, class models.FerryClass) models.FerryBookingSession {
	now := s.now()
	sess := models.FerryBookingSession{
		SessionID:     uuid.New(),
		SearchParams:  params,
		SelectedFerry: ferry,
		SelectedClass: class,
		Passengers:    []models.Passenger{},
		TotalAmount:   class.Price * float64(params.TotalPassengers()),
		CreatedAt:     now,
		ExpiresAt:     now.Add(SessionTTL),
	}

	s.mu.Lock()
	s.sessions[sess.SessionID] = sess
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()
	return sess
}

func (s *MemorySessionStore) Get(sessionID string) (models.FerryBookingSession, error) {
	id := strings.TrimSpace(sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return models.FerryBookingSession{}, domain.NotFoundError{Resource: "booking session"}
	}
	if sess.Expired(s.now()) {
		delete(s.sessions, id)
		metrics.ActiveSessions.Set(float64(len(s.sessions)))
		return models.FerryBookingSession{}, domain.GoneError{Resource: "booking session"}
	}
	return sess, nil
}

func (s *MemorySessionStore) Update(session models.FerryBookingSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sessions[session.SessionID]
	if !ok {
		return domain.NotFoundError{Resource: "booking session"}
	}
	if current.Expired(s.now()) {
		delete(s.sessions, session.SessionID)
		metrics.ActiveSessions.Set(float64(len(s.sessions)))
		return domain.GoneError{Resource: "booking session"}
	}
	// CreatedAt/ExpiresAt are fixed at creation; updates cannot extend
	// the TTL.
	session.CreatedAt = current.CreatedAt
	session.ExpiresAt = current.ExpiresAt
	s.sessions[session.SessionID] = session
	return nil
}

func (s *MemorySessionStore) Delete(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, strings.TrimSpace(sessionID))
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()
}

func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the janitor. Safe to call more than once.
func (s *MemorySessionStore) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *MemorySessionStore) janitor() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.done:
			return
		}
	}
}

func (s *MemorySessionStore) sweep() {
	now := s.now()
	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
		}
	}
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()
}

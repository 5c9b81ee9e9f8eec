package services

import (
	"testing"
	"time"

	"andaman/internal/domain"
	"andaman/internal/domain/models"
)

// fakeClock is a settable clock for driving session expiry.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore() (*MemorySessionStore, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 5, 1, 10, 0, 0, 0, time.Local)}
	return newMemorySessionStoreAt(clock.now), clock
}

func sessionInput() (models.SearchParams, models.UnifiedFerryResult, models.FerryClass) {
	params := models.SearchParams{
		From:     "port-blair",
		To:       "havelock",
		Date:     "2025-06-01",
		Adults:   2,
		Children: 1,
	}
	ferry := models.UnifiedFerryResult{ID: "sealink-101", Operator: models.OperatorSealink, FerryName: "Sealink"}
	class := models.FerryClass{ID: "L", Name: "Luxury", Price: 1500}
	return params, ferry, class
}

func TestSessionCreateSetsTTL(t *testing.T) {
	store, clock := newTestStore()
	params, ferry, class := sessionInput()

	sess := store.Create(params, ferry, class)
	if sess.SessionID == "" {
		t.Fatal("session ID not assigned")
	}
	if !sess.CreatedAt.Equal(clock.t) {
		t.Fatalf("createdAt = %v, want %v", sess.CreatedAt, clock.t)
	}
	if want := clock.t.Add(SessionTTL); !sess.ExpiresAt.Equal(want) {
		t.Fatalf("expiresAt = %v, want createdAt+%v", sess.ExpiresAt, SessionTTL)
	}
	// Infants ride free and are excluded from the fare multiplier.
	if want := 1500.0 * 3; sess.TotalAmount != want {
		t.Fatalf("totalAmount = %v, want %v", sess.TotalAmount, want)
	}
	if store.Len() != 1 {
		t.Fatalf("store length = %d, want 1", store.Len())
	}
}

func TestSessionGetUnknownID(t *testing.T) {
	store, _ := newTestStore()
	if _, err := store.Get("nope"); !domain.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestSessionExpiryOnGet(t *testing.T) {
	store, clock := newTestStore()
	params, ferry, class := sessionInput()
	sess := store.Create(params, ferry, class)

	clock.advance(29 * time.Minute)
	if _, err := store.Get(sess.SessionID); err != nil {
		t.Fatalf("session expired early: %v", err)
	}

	clock.advance(2 * time.Minute)
	if _, err := store.Get(sess.SessionID); !domain.IsGone(err) {
		t.Fatalf("expected GoneError after TTL, got %v", err)
	}
	// Expired entry was deleted on access, so a retry is a plain miss.
	if _, err := store.Get(sess.SessionID); !domain.IsNotFound(err) {
		t.Fatalf("expected NotFoundError on second read, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expired session still stored, len = %d", store.Len())
	}
}

func TestSessionUpdateDoesNotExtendTTL(t *testing.T) {
	store, clock := newTestStore()
	params, ferry, class := sessionInput()
	sess := store.Create(params, ferry, class)

	clock.advance(20 * time.Minute)
	sess.Passengers = []models.Passenger{{FullName: "Priya Nair", Age: 31, Gender: "female", Nationality: "indian"}}
	sess.ExpiresAt = clock.t.Add(2 * time.Hour) // must be ignored
	if err := store.Update(sess); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := store.Get(sess.SessionID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if len(got.Passengers) != 1 || got.Passengers[0].FullName != "Priya Nair" {
		t.Fatalf("passenger update lost: %+v", got.Passengers)
	}
	if want := sess.CreatedAt.Add(SessionTTL); !got.ExpiresAt.Equal(want) {
		t.Fatalf("update extended TTL: expiresAt = %v, want %v", got.ExpiresAt, want)
	}

	clock.advance(11 * time.Minute)
	if _, err := store.Get(sess.SessionID); !domain.IsGone(err) {
		t.Fatalf("expected GoneError at original deadline, got %v", err)
	}
}

func TestSessionUpdateExpired(t *testing.T) {
	store, clock := newTestStore()
	params, ferry, class := sessionInput()
	sess := store.Create(params, ferry, class)

	clock.advance(SessionTTL + time.Minute)
	if err := store.Update(sess); !domain.IsGone(err) {
		t.Fatalf("expected GoneError updating expired session, got %v", err)
	}
}

func TestSessionSweep(t *testing.T) {
	store, clock := newTestStore()
	params, ferry, class := sessionInput()

	stale := store.Create(params, ferry, class)
	clock.advance(SessionTTL + time.Minute)
	fresh := store.Create(params, ferry, class)

	store.sweep()
	if store.Len() != 1 {
		t.Fatalf("sweep left %d sessions, want 1", store.Len())
	}
	if _, err := store.Get(fresh.SessionID); err != nil {
		t.Fatalf("sweep removed live session: %v", err)
	}
	if _, err := store.Get(stale.SessionID); !domain.IsNotFound(err) {
		t.Fatalf("stale session survived sweep: %v", err)
	}
}

func TestSessionDelete(t *testing.T) {
	store, _ := newTestStore()
	params, ferry, class := sessionInput()
	sess := store.Create(params, ferry, class)

	store.Delete(sess.SessionID)
	if _, err := store.Get(sess.SessionID); !domain.IsNotFound(err) {
		t.Fatalf("expected NotFoundError after delete, got %v", err)
	}
}

package models

import "time"

// Passenger is one traveller attached to a booking session.
type Passenger struct {
	FullName    string `json:"fullName"`
	Age         int    `json:"age"`
	Gender      string `json:"gender"`
	Nationality string `json:"nationality"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	IDNumber    string `json:"idNumber,omitempty"`
}

// SeatReservation holds provisional seat picks pending payment. For
// auto-assign operators SeatIDs stays empty and AutoAssigned is set.
type SeatReservation struct {
	SeatIDs      []string  `json:"seatIds"`
	AutoAssigned bool      `json:"autoAssigned"`
	ReservedAt   time.Time `json:"reservedAt"`
}

// FerryBookingSession is the transient server-side state between
// "select ferry" and "complete payment".
type FerryBookingSession struct {
	SessionID       string             `json:"sessionId"`
	SearchParams    SearchParams       `json:"searchParams"`
	SelectedFerry   UnifiedFerryResult `json:"selectedFerry"`
	SelectedClass   FerryClass         `json:"selectedClass"`
	SeatReservation *SeatReservation   `json:"seatReservation,omitempty"`
	Passengers      []Passenger        `json:"passengers"`
	TotalAmount     float64            `json:"totalAmount"`
	CreatedAt       time.Time          `json:"createdAt"`
	ExpiresAt       time.Time          `json:"expiresAt"`
}

// Expired reports whether the session TTL has elapsed at now.
func (s FerryBookingSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// TimeRemaining returns whole seconds until expiry, never negative.
func (s FerryBookingSession) TimeRemaining(now time.Time) int64 {
	d := s.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return int64(d.Seconds())
}

package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Operator identifies one of the aggregated ferry companies.
type Operator string

const (
	OperatorSealink    Operator = "sealink"
	OperatorMakruzz    Operator = "makruzz"
	OperatorGreenOcean Operator = "greenocean"
)

// AllOperators lists every operator the aggregator knows about, in the
// order they are queried.
var AllOperators = []Operator{OperatorSealink, OperatorMakruzz, OperatorGreenOcean}

func (o Operator) Valid() bool {
	switch o {
	case OperatorSealink, OperatorMakruzz, OperatorGreenOcean:
		return true
	}
	return false
}

// ParseOperator normalizes a client-supplied operator string.
func ParseOperator(s string) (Operator, bool) {
	op := Operator(strings.ToLower(strings.TrimSpace(s)))
	return op, op.Valid()
}

// SearchParams is immutable per search request.
type SearchParams struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Date     string `json:"date"` // YYYY-MM-DD
	Adults   int    `json:"adults"`
	Children int    `json:"children"`
	Infants  int    `json:"infants"`
}

// TotalPassengers excludes infants, who travel without a seat.
func (p SearchParams) TotalPassengers() int {
	return p.Adults + p.Children
}

// OperatorRef stores an operator-scoped ferry/class ID as an opaque
// string. Sealink IDs are real strings while Makruzz and Green Ocean use
// numeric IDs; keeping the raw form here and letting each adapter coerce
// internally avoids the string/number confusion at call sites.
type OperatorRef struct {
	Operator Operator `json:"operator"`
	RawID    string   `json:"rawId"`
}

type RoutePoint struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type Route struct {
	From RoutePoint `json:"from"`
	To   RoutePoint `json:"to"`
}

type Schedule struct {
	DepartureTime string `json:"departureTime"` // HH:MM
	ArrivalTime   string `json:"arrivalTime"`   // HH:MM
	Duration      string `json:"duration"`
	Date          string `json:"date"` // YYYY-MM-DD
}

type Availability struct {
	TotalSeats     int       `json:"totalSeats"`
	AvailableSeats int       `json:"availableSeats"`
	LastUpdated    time.Time `json:"lastUpdated"`
}

type Pricing struct {
	BaseFare float64 `json:"baseFare"`
	Taxes    float64 `json:"taxes"`
	PortFee  float64 `json:"portFee"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency"`
}

// Features captures per-operator capability flags the UI branches on.
type Features struct {
	SupportsSeatSelection   bool `json:"supportsSeatSelection"`
	SupportsAutoAssignment  bool `json:"supportsAutoAssignment"`
	SupportsTicketRetrieval bool `json:"supportsTicketRetrieval"`
}

// FerryClass is one bookable travel class on a sailing.
type FerryClass struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Price          float64     `json:"price"`
	AvailableSeats int         `json:"availableSeats"`
	Amenities      []string    `json:"amenities"`
	SeatLayout     *SeatLayout `json:"seatLayout,omitempty"`
}

// UnifiedFerryResult is the normalized cross-operator search entity.
// ID is synthetic and operator-prefixed; it must be unique within one
// search result set.
type UnifiedFerryResult struct {
	ID              string       `json:"id"`
	Operator        Operator     `json:"operator"`
	OperatorFerryID OperatorRef  `json:"operatorFerryId"`
	FerryName       string       `json:"ferryName"`
	Route           Route        `json:"route"`
	Schedule        Schedule     `json:"schedule"`
	Classes         []FerryClass `json:"classes"`
	Availability    Availability `json:"availability"`
	Pricing         Pricing      `json:"pricing"`
	Features        Features     `json:"features"`
	// OperatorData is the opaque original payload needed later when the
	// booking call goes back to the same operator. Never interpreted
	// outside the owning adapter.
	OperatorData json.RawMessage `json:"operatorData,omitempty"`
}

// OperatorError is a per-adapter failure captured during aggregation.
type OperatorError struct {
	Operator Operator `json:"operator"`
	Error    string   `json:"error"`
}

// SearchMeta summarizes an aggregated search for the response envelope.
type SearchMeta struct {
	TotalResults       int             `json:"totalResults"`
	OperatorErrors     []OperatorError `json:"operatorErrors"`
	AvailableOperators []Operator      `json:"availableOperators"`
	FailedOperators    []Operator      `json:"failedOperators"`
	SearchTimeMs       int64           `json:"searchTimeMs"`
}

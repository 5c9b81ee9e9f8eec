package models

// SeatStatus is the closed status vocabulary every operator's raw
// status strings are mapped onto.
type SeatStatus string

const (
	SeatAvailable          SeatStatus = "available"
	SeatBooked             SeatStatus = "booked"
	SeatBlocked            SeatStatus = "blocked"
	SeatSelected           SeatStatus = "selected"
	SeatTemporarilyBlocked SeatStatus = "temporarily_blocked"
)

type SeatType string

const (
	SeatWindow SeatType = "window"
	SeatAisle  SeatType = "aisle"
	SeatMiddle SeatType = "middle"
)

type SeatPosition struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// Seat is the normalized seat entity. Seats are rebuilt on every
// layout fetch and never persisted; reselection always re-fetches from
// the operator.
type Seat struct {
	ID            string       `json:"id"`
	Number        string       `json:"number"`
	DisplayNumber string       `json:"displayNumber"`
	Status        SeatStatus   `json:"status"`
	Type          SeatType     `json:"type"`
	Position      SeatPosition `json:"position"`
	Price         float64      `json:"price,omitempty"`
	IsAccessible  bool         `json:"isAccessible,omitempty"`
	IsPremium     bool         `json:"isPremium,omitempty"`
	Tier          string       `json:"tier,omitempty"`
}

// SeatLayout is one class's full seat map.
type SeatLayout struct {
	Operator Operator `json:"operator"`
	FerryID  string   `json:"ferryId"`
	ClassID  string   `json:"classId"`
	Rows     int      `json:"rows"`
	Columns  int      `json:"columns"`
	Seats    []Seat   `json:"seats"`
}

// AvailableCount reports seats a passenger could still pick.
func (l SeatLayout) AvailableCount() int {
	n := 0
	for _, s := range l.Seats {
		if s.Status == SeatAvailable {
			n++
		}
	}
	return n
}

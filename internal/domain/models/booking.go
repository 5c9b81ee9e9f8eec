package models

import "time"

// PaymentState tracks the gateway side of a booking.
type PaymentState string

const (
	PaymentPending   PaymentState = "pending"
	PaymentCompleted PaymentState = "completed"
	PaymentFailed    PaymentState = "failed"
	PaymentRefunded  PaymentState = "refunded"
)

// Booking is the durable record written once a checkout completes.
// ConfirmationNumber is our own reference; ProviderPNR is issued by the
// ferry operator and may be empty while ticketing is still pending.
type Booking struct {
	ID                 int64        `json:"id"`
	ConfirmationNumber string       `json:"confirmationNumber"`
	ProviderPNR        string       `json:"providerPnr"`
	Operator           Operator     `json:"operator"`
	FerryName          string       `json:"ferryName"`
	RouteFrom          string       `json:"routeFrom"`
	RouteTo            string       `json:"routeTo"`
	TravelDate         string       `json:"travelDate"` // YYYY-MM-DD
	DepartureTime      string       `json:"departureTime"`
	ClassName          string       `json:"className"`
	SeatCodes          string       `json:"seatCodes"` // comma separated
	LeadPassenger      string       `json:"leadPassenger"`
	LeadPhone          string       `json:"leadPhone"`
	PassengerCount     int          `json:"passengerCount"`
	TotalAmount        float64      `json:"totalAmount"`
	PaymentState       PaymentState `json:"paymentState"`
	MerchantOrderID    string       `json:"merchantOrderId"`
	PDFURL             string       `json:"pdfUrl,omitempty"`
	CreatedAt          time.Time    `json:"createdAt"`
	UpdatedAt          time.Time    `json:"updatedAt"`
}

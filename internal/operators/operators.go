package operators

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"andaman/internal/domain/models"
)

// ErrSeatSelectionUnsupported is returned by adapters whose operator
// only auto-assigns seats (Makruzz).
var ErrSeatSelectionUnsupported = errors.New("operator does not support seat selection")

// ErrTicketRetrievalUnsupported is returned by adapters whose operator
// cannot regenerate a ticket PDF after booking (Sealink, Green Ocean).
var ErrTicketRetrievalUnsupported = errors.New("operator does not support post-booking ticket retrieval")

// SeatLayoutRequest carries the operator-specific parameter set for a
// seat map fetch. RouteID is required by Green Ocean only.
type SeatLayoutRequest struct {
	FerryID    string
	ClassID    string
	RouteID    string
	TravelDate string // YYYY-MM-DD
}

// Adapter wraps one ferry operator's proprietary HTTP API. Adapters are
// stateless and must never panic or let an upstream failure escape as
// anything but an error return.
type Adapter interface {
	Name() models.Operator
	Search(ctx context.Context, params models.SearchParams) ([]models.UnifiedFerryResult, error)
	SeatLayout(ctx context.Context, req SeatLayoutRequest) (models.SeatLayout, error)
	// TicketPDF regenerates a booked ticket by provider PNR.
	TicketPDF(ctx context.Context, pnr string) ([]byte, error)
}

// statusError standardizes non-2xx upstream responses.
func statusError(op models.Operator, res *http.Response) error {
	return fmt.Errorf("%s upstream returned %d", op, res.StatusCode)
}

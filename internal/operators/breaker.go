package operators

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"andaman/internal/domain/models"
)

// Breaker wraps an adapter's search path in a circuit breaker so a dead
// operator fails fast instead of eating its full timeout on every
// aggregated search. Seat layout and ticket calls pass through: they
// are user-initiated one-offs, not fan-out legs.
type Breaker struct {
	inner Adapter
	cb    *gobreaker.CircuitBreaker
}

func WithBreaker(inner Adapter) *Breaker {
	return &Breaker{
		inner: inner,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        string(inner.Name()),
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

func (b *Breaker) Name() models.Operator { return b.inner.Name() }

func (b *Breaker) Search(ctx context.Context, params models.SearchParams) ([]models.UnifiedFerryResult, error) {
	out, err := b.cb.Execute(func() (any, error) {
		return b.inner.Search(ctx, params)
	})
	if err != nil {
		return nil, err
	}
	return out.([]models.UnifiedFerryResult), nil
}

func (b *Breaker) SeatLayout(ctx context.Context, req SeatLayoutRequest) (models.SeatLayout, error) {
	return b.inner.SeatLayout(ctx, req)
}

func (b *Breaker) TicketPDF(ctx context.Context, pnr string) ([]byte, error) {
	return b.inner.TicketPDF(ctx, pnr)
}

// State exposes the breaker state for the ferry health endpoint.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

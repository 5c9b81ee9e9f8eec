package operators

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker"

	"andaman/internal/domain/models"
)

type flakyAdapter struct {
	calls int
	fail  bool
}

func (f *flakyAdapter) Name() models.Operator { return models.OperatorSealink }

func (f *flakyAdapter) Search(ctx context.Context, params models.SearchParams) ([]models.UnifiedFerryResult, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("upstream down")
	}
	return []models.UnifiedFerryResult{{ID: "sealink-1", Operator: models.OperatorSealink}}, nil
}

func (f *flakyAdapter) SeatLayout(ctx context.Context, req SeatLayoutRequest) (models.SeatLayout, error) {
	return models.SeatLayout{}, nil
}

func (f *flakyAdapter) TicketPDF(ctx context.Context, pnr string) ([]byte, error) {
	return nil, ErrTicketRetrievalUnsupported
}

func TestBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	inner := &flakyAdapter{fail: true}
	b := WithBreaker(inner)

	params := models.SearchParams{From: "port-blair", To: "havelock", Date: "2025-06-01", Adults: 1}
	for i := 0; i < 3; i++ {
		if _, err := b.Search(context.Background(), params); err == nil {
			t.Fatalf("call %d should fail", i)
		}
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("breaker state = %v, want open", b.State())
	}

	// Open breaker short-circuits without touching the adapter.
	before := inner.calls
	if _, err := b.Search(context.Background(), params); err == nil {
		t.Fatal("open breaker should reject")
	}
	if inner.calls != before {
		t.Fatal("open breaker still called the adapter")
	}
}

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	inner := &flakyAdapter{}
	b := WithBreaker(inner)

	params := models.SearchParams{From: "port-blair", To: "havelock", Date: "2025-06-01", Adults: 1}
	for i := 0; i < 5; i++ {
		results, err := b.Search(context.Background(), params)
		if err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
		if len(results) != 1 {
			t.Fatalf("call %d returned %d results", i, len(results))
		}
	}
	if b.State() != gobreaker.StateClosed {
		t.Fatalf("breaker state = %v, want closed", b.State())
	}
}

func TestBreakerPassesThroughNonSearchCalls(t *testing.T) {
	inner := &flakyAdapter{fail: true}
	b := WithBreaker(inner)

	if _, err := b.TicketPDF(context.Background(), "X"); !errors.Is(err, ErrTicketRetrievalUnsupported) {
		t.Fatalf("passthrough lost the sentinel: %v", err)
	}
	if b.Name() != models.OperatorSealink {
		t.Fatalf("name = %s", b.Name())
	}
}

package services

import (
	"bytes"
	"context"
	"database/sql/driver"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"andaman/internal/domain"
	"andaman/internal/domain/models"
	"andaman/internal/operators"
	"andaman/internal/repositories"
)

// ticketAdapter is a fakeAdapter whose TicketPDF can succeed.
type ticketAdapter struct {
	fakeAdapter
	pdf       []byte
	ticketErr error
}

func (f ticketAdapter) TicketPDF(ctx context.Context, pnr string) ([]byte, error) {
	return f.pdf, f.ticketErr
}

func pnrColumns() []string {
	return []string{
		"id", "confirmation_number", "provider_pnr", "operator",
		"ferry_name", "route_from", "route_to", "travel_date",
		"departure_time", "class_name", "seat_codes", "lead_passenger",
		"lead_phone", "passenger_count", "total_amount", "payment_state",
		"merchant_order_id", "pdf_url", "created_at", "updated_at",
	}
}

func pnrRow(pdfURL string) []driver.Value {
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	return []driver.Value{
		int64(7), "AE1A2B3C", "MK9Z", "makruzz",
		"Makruzz Gold", "Port Blair", "Havelock", "2026-06-10",
		"08:00", "Premium", "", "Asha Rao",
		"9876543210", 2, 3490.0, "completed",
		"AE1A2B3C", pdfURL, now, now,
	}
}

func newBookingService(t *testing.T) (BookingService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return BookingService{
		BookingRepo: repositories.BookingRepository{DB: db},
		TicketDir:   t.TempDir(),
	}, mock
}

func TestLookupPNRGeneratesAndPersistsURL(t *testing.T) {
	s, mock := newBookingService(t)
	mock.ExpectQuery("FROM bookings").
		WithArgs("AE1A2B3C", "AE1A2B3C").
		WillReturnRows(sqlmock.NewRows(pnrColumns()).AddRow(pnrRow("")...))
	mock.ExpectExec("UPDATE bookings SET pdf_url").
		WithArgs("/api/ferry/tickets/AE1A2B3C/download", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	generated := 0
	s.Tickets = TicketService{Loader: func(pnr string) (models.Booking, error) {
		generated++
		return models.Booking{ID: 7, ConfirmationNumber: pnr, ProviderPNR: "MK9Z", Operator: models.OperatorMakruzz}, nil
	}}

	booking, err := s.LookupPNR("ae1a2b3c")
	if err != nil {
		t.Fatalf("LookupPNR: %v", err)
	}
	if generated != 1 {
		t.Fatalf("generated %d tickets, want 1", generated)
	}
	if booking.PDFURL != "/api/ferry/tickets/AE1A2B3C/download" {
		t.Fatalf("pdf url = %q", booking.PDFURL)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(s.TicketDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("ticket dir entries = %v (%v)", entries, err)
	}
}

func TestLookupPNRKeepsStoredURL(t *testing.T) {
	s, mock := newBookingService(t)
	mock.ExpectQuery("FROM bookings").
		WithArgs("AE1A2B3C", "AE1A2B3C").
		WillReturnRows(sqlmock.NewRows(pnrColumns()).AddRow(pnrRow("/api/ferry/tickets/AE1A2B3C/download")...))

	generated := false
	s.Tickets = TicketService{Loader: func(pnr string) (models.Booking, error) {
		generated = true
		return models.Booking{}, errors.New("should not be called")
	}}

	booking, err := s.LookupPNR("AE1A2B3C")
	if err != nil {
		t.Fatalf("LookupPNR: %v", err)
	}
	if generated {
		t.Fatal("regenerated a ticket that already has a stored url")
	}
	if booking.PDFURL == "" {
		t.Fatal("stored pdf url lost")
	}
	// No UPDATE was queued; any write would fail the expectation check.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestLookupPNRGenerationFailureStillReturnsBooking(t *testing.T) {
	s, mock := newBookingService(t)
	mock.ExpectQuery("FROM bookings").
		WithArgs("AE1A2B3C", "AE1A2B3C").
		WillReturnRows(sqlmock.NewRows(pnrColumns()).AddRow(pnrRow("")...))

	s.Tickets = TicketService{Loader: func(pnr string) (models.Booking, error) {
		return models.Booking{}, errors.New("renderer down")
	}}

	booking, err := s.LookupPNR("AE1A2B3C")
	if err != nil {
		t.Fatalf("LookupPNR: %v", err)
	}
	if booking.ConfirmationNumber != "AE1A2B3C" {
		t.Fatalf("booking = %+v", booking)
	}
	if booking.PDFURL != "" {
		t.Fatalf("pdf url should stay empty on failure, got %q", booking.PDFURL)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestTicketFileFromStoredFile(t *testing.T) {
	s, _ := newBookingService(t)
	want := []byte("%PDF-1.4 stored")
	if err := os.WriteFile(filepath.Join(s.TicketDir, "TICKET_MK9Z.pdf"), want, 0o644); err != nil {
		t.Fatal(err)
	}

	data, name, err := s.TicketFile(context.Background(), "mk9z")
	if err != nil {
		t.Fatalf("TicketFile: %v", err)
	}
	if !bytes.Equal(data, want) {
		t.Fatalf("data = %q", data)
	}
	if name != "TICKET_MK9Z.pdf" {
		t.Fatalf("name = %q", name)
	}
}

func TestTicketFileUnsupportedOperator(t *testing.T) {
	s, mock := newBookingService(t)
	row := pnrRow("")
	row[3] = "sealink"
	mock.ExpectQuery("FROM bookings").
		WithArgs("AE1A2B3C", "AE1A2B3C").
		WillReturnRows(sqlmock.NewRows(pnrColumns()).AddRow(row...))
	s.Adapters = map[models.Operator]operators.Adapter{
		models.OperatorSealink: fakeAdapter{name: models.OperatorSealink},
	}

	_, _, err := s.TicketFile(context.Background(), "AE1A2B3C")
	if !domain.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if !strings.Contains(err.Error(), "does not support ticket regeneration") {
		t.Fatalf("err = %v, want descriptive unsupported message", err)
	}
	if !strings.Contains(err.Error(), "Sealink") {
		t.Fatalf("err = %v, should name the operator", err)
	}
}

func TestTicketFileRegeneratesThroughOperator(t *testing.T) {
	s, mock := newBookingService(t)
	mock.ExpectQuery("FROM bookings").
		WithArgs("AE1A2B3C", "AE1A2B3C").
		WillReturnRows(sqlmock.NewRows(pnrColumns()).AddRow(pnrRow("")...))
	want := []byte("%PDF-1.4 regenerated")
	s.Adapters = map[models.Operator]operators.Adapter{
		models.OperatorMakruzz: ticketAdapter{
			fakeAdapter: fakeAdapter{name: models.OperatorMakruzz},
			pdf:         want,
		},
	}

	data, name, err := s.TicketFile(context.Background(), "AE1A2B3C")
	if err != nil {
		t.Fatalf("TicketFile: %v", err)
	}
	if !bytes.Equal(data, want) {
		t.Fatalf("data = %q", data)
	}
	if name != "TICKET_AE1A2B3C.pdf" {
		t.Fatalf("name = %q", name)
	}

	cached, err := os.ReadFile(filepath.Join(s.TicketDir, name))
	if err != nil || !bytes.Equal(cached, want) {
		t.Fatalf("cache read = %q (%v)", cached, err)
	}
}

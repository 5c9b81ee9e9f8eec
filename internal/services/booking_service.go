package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"andaman/internal/domain"
	"andaman/internal/domain/models"
	"andaman/internal/operators"
	"andaman/internal/repositories"
	"andaman/internal/utils"
)

// BookingService resolves finalized bookings by PNR and serves their
// ticket PDFs, either from the ticket directory or by regenerating
// through the issuing operator when it supports that.
type BookingService struct {
	BookingRepo repositories.BookingRepository
	Tickets     TicketService
	Adapters    map[models.Operator]operators.Adapter
	TicketDir   string
	RequestID   string
}

// LookupPNR finds a booking by internal confirmation number or provider
// PNR. When the booking has no stored ticket URL yet, the PDF is
// generated, written to the ticket directory and the URL persisted.
// PDF generation is best-effort: a failure there never hides the
// booking itself.
func (s BookingService) LookupPNR(pnr string) (models.Booking, error) {
	booking, err := s.BookingRepo.GetByPNR(pnr)
	if err != nil {
		return models.Booking{}, err
	}
	if strings.TrimSpace(booking.PDFURL) != "" {
		return booking, nil
	}

	data, filename, err := s.tickets().GenerateTicket(booking.ConfirmationNumber)
	if err != nil {
		utils.LogEvent(s.RequestID, "bookings", "lookup_pnr", "pdf generation failed: "+err.Error())
		return booking, nil
	}
	if err := s.writeTicket(filename, data); err != nil {
		utils.LogEvent(s.RequestID, "bookings", "lookup_pnr", "pdf write failed: "+err.Error())
		return booking, nil
	}

	booking.PDFURL = fmt.Sprintf("/api/ferry/tickets/%s/download", booking.ConfirmationNumber)
	if err := s.BookingRepo.UpdatePDFURL(booking.ID, booking.PDFURL); err != nil {
		utils.LogEvent(s.RequestID, "bookings", "lookup_pnr", "pdf url persist failed: "+err.Error())
	}
	return booking, nil
}

// TicketFile returns the ticket PDF for a PNR: first by filename match
// in the ticket directory, then by operator regeneration (Makruzz only;
// the other operators return descriptive unsupported errors).
func (s BookingService) TicketFile(ctx context.Context, pnr string) ([]byte, string, error) {
	pnr = strings.ToUpper(strings.TrimSpace(pnr))
	if pnr == "" {
		return nil, "", domain.ValidationError{Field: "pnr", Msg: "pnr is required"}
	}

	if data, name, ok := s.findStored(pnr); ok {
		return data, name, nil
	}

	booking, err := s.BookingRepo.GetByPNR(pnr)
	if err != nil {
		return nil, "", err
	}

	adapter, ok := s.Adapters[booking.Operator]
	if !ok {
		return nil, "", domain.InternalError{Msg: "no adapter configured for operator " + string(booking.Operator)}
	}

	data, err := adapter.TicketPDF(ctx, booking.ProviderPNR)
	if errors.Is(err, operators.ErrTicketRetrievalUnsupported) {
		return nil, "", domain.ValidationError{
			Field: "operator",
			Msg:   fmt.Sprintf("%s does not support ticket regeneration after booking; contact support for a reissue", operatorDisplay(booking.Operator)),
		}
	}
	if err != nil {
		return nil, "", domain.InternalError{Err: err}
	}

	filename := fmt.Sprintf("TICKET_%s.pdf", safeFilenamePart(pnr))
	if err := s.writeTicket(filename, data); err != nil {
		utils.LogEvent(s.RequestID, "tickets", "download", "cache write failed: "+err.Error())
	}
	return data, filename, nil
}

// findStored scans the ticket directory for a PDF whose filename
// contains the PNR.
func (s BookingService) findStored(pnr string) ([]byte, string, bool) {
	dir := strings.TrimSpace(s.TicketDir)
	if dir == "" {
		return nil, "", false
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, "", false
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			continue
		}
		if !strings.Contains(strings.ToUpper(name), pnr) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil || len(data) == 0 {
			continue
		}
		return data, name, true
	}
	return nil, "", false
}

func (s BookingService) writeTicket(filename string, data []byte) error {
	dir := strings.TrimSpace(s.TicketDir)
	if dir == "" {
		return fmt.Errorf("ticket dir not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, filename), data, 0o644)
}

func (s BookingService) tickets() TicketService {
	t := s.Tickets
	if t.RequestID == "" {
		t.RequestID = s.RequestID
	}
	if t.Loader == nil && t.BookingRepo.DB == nil {
		t.BookingRepo = s.BookingRepo
	}
	return t
}

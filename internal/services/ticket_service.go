package services

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"andaman/internal/domain/models"
	"andaman/internal/repositories"
	"andaman/internal/utils"
)

// TicketService renders ferry ticket PDFs for bookings whose operator
// cannot regenerate them.
type TicketService struct {
	BookingRepo repositories.BookingRepository
	RequestID   string
	Loader      func(pnr string) (models.Booking, error)
}

// GenerateTicket builds a ticket PDF for the booking matching pnr.
// Returns the bytes plus a filesystem-safe filename.
func (s TicketService) GenerateTicket(pnr string) ([]byte, string, error) {
	b, err := s.loadBooking(pnr)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "tickets", "generate", fmt.Sprintf("booking_id=%d pnr=%s", b.ID, b.ConfirmationNumber))
	return buildTicketPDF(b)
}

func (s TicketService) loadBooking(pnr string) (models.Booking, error) {
	if s.Loader != nil {
		return s.Loader(pnr)
	}
	return s.BookingRepo.GetByPNR(pnr)
}

func buildTicketPDF(b models.Booking) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Ferry Ticket", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "FERRY E-TICKET")
	pdf.Ln(12)

	pnr := b.ProviderPNR
	if strings.TrimSpace(pnr) == "" {
		pnr = b.ConfirmationNumber
	}

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("PNR            : %s", safe(pnr, "-")),
		fmt.Sprintf("Confirmation   : %s", safe(b.ConfirmationNumber, "-")),
		fmt.Sprintf("Operator       : %s", safe(operatorDisplay(b.Operator), "-")),
		fmt.Sprintf("Ferry          : %s", safe(b.FerryName, "-")),
		fmt.Sprintf("Route          : %s -> %s", safe(b.RouteFrom, "-"), safe(b.RouteTo, "-")),
		fmt.Sprintf("Date/Time      : %s %s", safe(b.TravelDate, "-"), safe(b.DepartureTime, "-")),
		fmt.Sprintf("Class          : %s", safe(b.ClassName, "-")),
		fmt.Sprintf("Seats          : %s", safe(b.SeatCodes, "Auto-assigned")),
		fmt.Sprintf("Lead Passenger : %s", safe(b.LeadPassenger, "-")),
		fmt.Sprintf("Passengers     : %d", b.PassengerCount),
		fmt.Sprintf("Amount Paid    : %s", formatINR(b.TotalAmount)),
	}
	for _, line := range lines {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Please carry a government-issued photo ID and arrive at the jetty 45 minutes before departure. Issued "+time.Now().Format("2006-01-02 15:04")+".", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("TICKET_%s.pdf", safeFilenamePart(pnr))
	return buf.Bytes(), filename, nil
}

func operatorDisplay(op models.Operator) string {
	switch op {
	case models.OperatorSealink:
		return "Sealink Adventures"
	case models.OperatorMakruzz:
		return "Makruzz"
	case models.OperatorGreenOcean:
		return "Green Ocean Seaways"
	default:
		return string(op)
	}
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}

func formatINR(v float64) string {
	if v <= 0 {
		return "INR 0"
	}
	return fmt.Sprintf("INR %.2f", v)
}

package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"andaman/internal/http/middleware"
	"andaman/internal/repositories"
	"andaman/internal/services"

	"github.com/gin-gonic/gin"
)

// BookingHandler serves finalized-booking lookups and ticket downloads.
type BookingHandler struct {
	Service services.BookingService
}

func (h *BookingHandler) service(c *gin.Context) services.BookingService {
	svc := h.Service
	svc.RequestID = middleware.GetRequestID(c)
	return svc
}

// LookupPNR handles GET /api/bookings/lookup-pnr?pnr=. The ticket PDF
// URL is generated and persisted lazily on first lookup.
func (h *BookingHandler) LookupPNR(c *gin.Context) {
	pnr := strings.TrimSpace(c.Query("pnr"))
	if pnr == "" {
		respondError(c, http.StatusBadRequest, "validation_error", "pnr query parameter is required", nil)
		return
	}

	booking, err := h.service(c).LookupPNR(pnr)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"booking": booking},
	})
}

// DownloadTicket handles GET/POST /api/ferry/tickets/:pnr/download.
func (h *BookingHandler) DownloadTicket(c *gin.Context) {
	pnr := strings.TrimSpace(c.Param("pnr"))

	data, filename, err := h.service(c).TicketFile(c.Request.Context(), pnr)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

// ListBookings handles GET /api/bookings (admin only).
func (h *BookingHandler) ListBookings(c *gin.Context) {
	limit := 50
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	bookings, err := h.repo().ListRecent(limit)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"bookings": bookings, "count": len(bookings)},
	})
}

func (h *BookingHandler) repo() repositories.BookingRepository {
	return h.Service.BookingRepo
}

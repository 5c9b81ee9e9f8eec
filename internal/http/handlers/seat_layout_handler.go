package handlers

import (
	"net/http"
	"strings"
	"time"

	"andaman/internal/domain/models"
	"andaman/internal/http/middleware"
	"andaman/internal/operators"
	"andaman/internal/utils"

	"github.com/gin-gonic/gin"
)

type seatLayoutRequest struct {
	RouteID      string `json:"routeId"`
	FerryID      string `json:"ferryId"`
	ClassID      string `json:"classId"`
	TravelDate   string `json:"travelDate"`
	Operator     string `json:"operator"`
	ForceRefresh bool   `json:"forceRefresh"`
}

// layoutCacheTTL keeps seat maps briefly to absorb re-renders; seat
// state is too volatile for anything longer.
const layoutCacheTTL = 60 * time.Second

type cachedLayout struct {
	layout  models.SeatLayout
	fetched time.Time
}

func (h *FerryHandler) cachedSeatLayout(key string) (cachedLayout, bool) {
	h.layoutMu.Lock()
	defer h.layoutMu.Unlock()
	entry, ok := h.layoutCache[key]
	return entry, ok
}

func (h *FerryHandler) storeSeatLayout(key string, entry cachedLayout) {
	h.layoutMu.Lock()
	defer h.layoutMu.Unlock()
	if h.layoutCache == nil {
		h.layoutCache = make(map[string]cachedLayout)
	}
	h.layoutCache[key] = entry
}

// SeatLayout handles POST /api/ferry/seat-layout. Parameter sets differ
// per operator: Green Ocean needs routeId, Makruzz has no seat maps at
// all.
func (h *FerryHandler) SeatLayout(c *gin.Context) {
	var req seatLayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_json", "request body is not valid JSON", nil)
		return
	}

	op, ok := validOperatorOrAbort(c, req.Operator)
	if !ok {
		return
	}
	if strings.TrimSpace(req.FerryID) == "" {
		respondError(c, http.StatusBadRequest, "validation_error", "ferryId is required", nil)
		return
	}
	if strings.TrimSpace(req.ClassID) == "" {
		respondError(c, http.StatusBadRequest, "validation_error", "classId is required", nil)
		return
	}
	if strings.TrimSpace(req.TravelDate) == "" {
		respondError(c, http.StatusBadRequest, "validation_error", "travelDate is required", nil)
		return
	}

	switch op {
	case models.OperatorMakruzz:
		respondError(c, http.StatusBadRequest, "seat_selection_unsupported",
			"Makruzz uses auto-assignment only, no seat selection available", nil)
		return
	case models.OperatorGreenOcean:
		if strings.TrimSpace(req.RouteID) == "" {
			respondError(c, http.StatusBadRequest, "validation_error", "routeId is required for greenocean", nil)
			return
		}
	}

	adapter, ok := h.adaptersByName()[op]
	if !ok {
		respondError(c, http.StatusInternalServerError, "internal_error", "operator not configured", nil)
		return
	}

	cacheKey := strings.Join([]string{string(op), req.FerryID, req.ClassID, req.TravelDate, req.RouteID}, "|")
	if !req.ForceRefresh {
		if entry, hit := h.cachedSeatLayout(cacheKey); hit && time.Since(entry.fetched) < layoutCacheTTL {
			respondSeatLayout(c, entry.layout, entry.fetched, true)
			return
		}
	}

	layout, err := adapter.SeatLayout(c.Request.Context(), operators.SeatLayoutRequest{
		FerryID:    req.FerryID,
		ClassID:    req.ClassID,
		RouteID:    req.RouteID,
		TravelDate: req.TravelDate,
	})
	if err != nil {
		utils.LogEvent(middleware.GetRequestID(c), "ferry", "seat_layout",
			string(op)+" failed: "+err.Error())
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to load seat layout", nil)
		return
	}

	fetched := time.Now()
	h.storeSeatLayout(cacheKey, cachedLayout{layout: layout, fetched: fetched})

	respondSeatLayout(c, layout, fetched, false)
}

func respondSeatLayout(c *gin.Context, layout models.SeatLayout, fetched time.Time, fromCache bool) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"seatLayout": layout,
			"meta": gin.H{
				"operator":       layout.Operator,
				"availableSeats": layout.AvailableCount(),
				"fetchedAt":      fetched,
				"fromCache":      fromCache,
			},
		},
	})
}

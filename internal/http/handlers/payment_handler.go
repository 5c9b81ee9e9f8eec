package handlers

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strings"
	"sync"

	"andaman/internal/domain/models"
	"andaman/internal/http/middleware"
	"andaman/internal/repositories"
	"andaman/internal/services"
	"andaman/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/pborman/uuid"
)

// PaymentHandler drives the PhonePe v2 checkout flow: create-order,
// server-to-server callback, and status check. The deprecated v1
// initiate route is gone; this is the authoritative flow.
type PaymentHandler struct {
	Client   *services.PhonePeClient
	Repo     repositories.BookingRepository
	Sessions services.SessionStore

	// orderSessions remembers which booking session spawned an order so
	// the session can be dropped once its checkout completes.
	orderSessions sync.Map // merchantOrderID -> sessionID
}

type createOrderRequest struct {
	SessionID  string             `json:"sessionId"`
	Passengers []models.Passenger `json:"passengers"`
}

// CreateOrder handles POST /api/payments/phonepe/create-order. It
// freezes the booking session into a pending booking row, then
// registers a gateway order and returns the hosted-checkout redirect.
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_json", "request body is not valid JSON", nil)
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		respondError(c, http.StatusBadRequest, "validation_error", "sessionId is required", nil)
		return
	}

	sess, err := h.Sessions.Get(req.SessionID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if len(req.Passengers) == 0 {
		respondError(c, http.StatusBadRequest, "validation_error", "passengers is required", nil)
		return
	}

	sess.Passengers = req.Passengers
	if err := h.Sessions.Update(sess); err != nil {
		RespondDomainError(c, err)
		return
	}

	confirmation := newConfirmationNumber()
	merchantOrderID := uuid.New()

	seatCodes := ""
	if sess.SeatReservation != nil {
		seatCodes = strings.Join(sess.SeatReservation.SeatIDs, ",")
	}
	lead := req.Passengers[0]

	booking := models.Booking{
		ConfirmationNumber: confirmation,
		Operator:           sess.SelectedFerry.Operator,
		FerryName:          sess.SelectedFerry.FerryName,
		RouteFrom:          sess.SelectedFerry.Route.From.Code,
		RouteTo:            sess.SelectedFerry.Route.To.Code,
		TravelDate:         sess.SearchParams.Date,
		DepartureTime:      sess.SelectedFerry.Schedule.DepartureTime,
		ClassName:          sess.SelectedClass.Name,
		SeatCodes:          seatCodes,
		LeadPassenger:      lead.FullName,
		LeadPhone:          lead.Phone,
		PassengerCount:     len(req.Passengers),
		TotalAmount:        sess.TotalAmount,
		PaymentState:       models.PaymentPending,
		MerchantOrderID:    merchantOrderID,
	}
	if _, err := h.Repo.Create(booking); err != nil {
		RespondDomainError(c, err)
		return
	}

	// Rupee totals are floats; round rather than truncate so fares like
	// 3703.6499999999996 charge 370365 paise, not 370364.
	amountPaise := int64(math.Round(sess.TotalAmount * 100))
	order, err := h.Client.CreateOrder(c.Request.Context(), merchantOrderID, amountPaise)
	if err != nil {
		utils.LogEvent(middleware.GetRequestID(c), "payments", "create_order", err.Error())
		respondError(c, http.StatusBadGateway, "gateway_error", "payment gateway is unavailable, please try again", nil)
		return
	}

	h.orderSessions.Store(merchantOrderID, sess.SessionID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"merchantOrderId":    merchantOrderID,
			"confirmationNumber": confirmation,
			"orderId":            order.OrderID,
			"redirectUrl":        order.RedirectURL,
			"expireAt":           order.ExpireAt,
		},
	})
}

type callbackRequest struct {
	Response string `json:"response"`
}

// Callback handles POST /api/payments/phonepe/callback. The payload is
// trusted only after the X-VERIFY checksum passes.
func (h *PaymentHandler) Callback(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil || len(raw) == 0 {
		respondError(c, http.StatusBadRequest, "invalid_body", "empty callback body", nil)
		return
	}

	var req callbackRequest
	if err := json.Unmarshal(raw, &req); err != nil || strings.TrimSpace(req.Response) == "" {
		// Some gateway configs post the base64 payload raw.
		req.Response = strings.TrimSpace(string(raw))
	}

	xVerify := c.GetHeader("X-VERIFY")
	if !h.Client.VerifyCallback(req.Response, xVerify) {
		utils.LogEvent(middleware.GetRequestID(c), "payments", "callback", "signature mismatch")
		respondError(c, http.StatusUnauthorized, "invalid_signature", "callback signature verification failed", nil)
		return
	}

	payload, err := services.DecodeCallback(req.Response)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_body", "callback payload malformed", nil)
		return
	}

	orderID := payload.Payload.MerchantOrderID
	// A verified signature does not prove the order is ours; unknown
	// order references get a 404 rather than a blind state write.
	if _, err := h.Repo.GetByMerchantOrderID(orderID); err != nil {
		RespondDomainError(c, err)
		return
	}

	state := models.PaymentFailed
	if strings.EqualFold(payload.Payload.State, "COMPLETED") {
		state = models.PaymentCompleted
	}

	if err := h.Repo.UpdatePaymentState(orderID, state, ""); err != nil {
		RespondDomainError(c, err)
		return
	}

	// A completed checkout retires its booking session.
	if state == models.PaymentCompleted {
		if sid, ok := h.orderSessions.LoadAndDelete(orderID); ok {
			h.Sessions.Delete(sid.(string))
		}
	}

	utils.LogEvent(middleware.GetRequestID(c), "payments", "callback",
		"order="+orderID+" state="+string(state))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Status handles GET /api/payments/phonepe/status/:merchantOrderId and
// keeps the booking row in sync with the gateway's answer.
func (h *PaymentHandler) Status(c *gin.Context) {
	orderID := strings.TrimSpace(c.Param("merchantOrderId"))
	if orderID == "" {
		respondError(c, http.StatusBadRequest, "validation_error", "merchantOrderId is required", nil)
		return
	}

	status, err := h.Client.Status(c.Request.Context(), orderID)
	if err != nil {
		utils.LogEvent(middleware.GetRequestID(c), "payments", "status", err.Error())
		respondError(c, http.StatusBadGateway, "gateway_error", "payment gateway is unavailable, please try again", nil)
		return
	}

	switch strings.ToUpper(status.State) {
	case "COMPLETED":
		if err := h.Repo.UpdatePaymentState(orderID, models.PaymentCompleted, ""); err != nil {
			utils.LogEvent(middleware.GetRequestID(c), "payments", "status", "state persist failed: "+err.Error())
		}
		if sid, ok := h.orderSessions.LoadAndDelete(orderID); ok {
			h.Sessions.Delete(sid.(string))
		}
	case "FAILED":
		if err := h.Repo.UpdatePaymentState(orderID, models.PaymentFailed, ""); err != nil {
			utils.LogEvent(middleware.GetRequestID(c), "payments", "status", "state persist failed: "+err.Error())
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    status,
	})
}

// newConfirmationNumber mints an internal PNR-style reference.
func newConfirmationNumber() string {
	return "AE" + strings.Split(strings.ToUpper(uuid.New()), "-")[0]
}

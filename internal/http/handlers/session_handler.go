package handlers

import (
	"net/http"
	"strings"
	"time"

	"andaman/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// createSessionRequest uses pointers so a missing field is
// distinguishable from a zero value and can be named in the 400.
type createSessionRequest struct {
	SearchParams  *models.SearchParams       `json:"searchParams"`
	SelectedFerry *models.UnifiedFerryResult `json:"selectedFerry"`
	SelectedClass *models.FerryClass         `json:"selectedClass"`
}

// CreateSession handles POST /api/ferry/booking/create-session.
func (h *FerryHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_json", "request body is not valid JSON", nil)
		return
	}

	missing := ""
	switch {
	case req.SearchParams == nil:
		missing = "searchParams"
	case req.SelectedFerry == nil:
		missing = "selectedFerry"
	case req.SelectedClass == nil:
		missing = "selectedClass"
	}
	if missing != "" {
		respondError(c, http.StatusBadRequest, "validation_error", missing+" is required", nil)
		return
	}

	sess := h.Sessions.Create(*req.SearchParams, *req.SelectedFerry, *req.SelectedClass)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"sessionId":     sess.SessionID,
			"session":       sess,
			"expiresAt":     sess.ExpiresAt,
			"timeRemaining": sess.TimeRemaining(time.Now()),
		},
	})
}

// GetSession handles GET /api/ferry/booking/create-session?sessionId=.
// 200 active, 404 unknown, 410 expired (and removed on access).
func (h *FerryHandler) GetSession(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Query("sessionId"))
	if sessionID == "" {
		respondError(c, http.StatusBadRequest, "validation_error", "sessionId query parameter is required", nil)
		return
	}

	sess, err := h.Sessions.Get(sessionID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"sessionId":     sess.SessionID,
			"session":       sess,
			"expiresAt":     sess.ExpiresAt,
			"timeRemaining": sess.TimeRemaining(time.Now()),
		},
	})
}

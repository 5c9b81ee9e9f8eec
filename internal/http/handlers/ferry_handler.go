package handlers

import (
	"net/http"
	"strings"
	"sync"

	"andaman/internal/domain"
	"andaman/internal/domain/models"
	"andaman/internal/http/middleware"
	"andaman/internal/operators"
	"andaman/internal/services"

	"github.com/gin-gonic/gin"
)

// FerryHandler owns the aggregation surface. All dependencies are
// injected at router construction; handlers hold no globals.
type FerryHandler struct {
	Adapters []operators.Adapter
	Breakers map[models.Operator]*operators.Breaker
	Sessions services.SessionStore

	layoutMu    sync.Mutex
	layoutCache map[string]cachedLayout
}

func (h *FerryHandler) adaptersByName() map[models.Operator]operators.Adapter {
	out := make(map[models.Operator]operators.Adapter, len(h.Adapters))
	for _, a := range h.Adapters {
		out[a.Name()] = a
	}
	return out
}

// Search handles POST /api/ferry/search.
// 200: every operator answered; 207: partial operator failure;
// 400: invalid params; 503: total failure.
func (h *FerryHandler) Search(c *gin.Context) {
	var params models.SearchParams
	if err := c.ShouldBindJSON(&params); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_json", "request body is not valid JSON", nil)
		return
	}

	svc := services.AggregationService{
		Adapters:  h.Adapters,
		RequestID: middleware.GetRequestID(c),
	}

	outcome, err := svc.Search(c.Request.Context(), params)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	status := http.StatusOK
	message := "search completed"
	if len(outcome.Errors) > 0 {
		status = http.StatusMultiStatus
		message = "search completed with partial operator failures"
	}

	c.JSON(status, gin.H{
		"success": true,
		"message": message,
		"data": gin.H{
			"results":      outcome.Results,
			"searchParams": params,
			"meta":         outcome.Meta,
		},
	})
}

// FerryHealth handles GET /api/ferry/health: per-operator circuit
// breaker state. "closed" means healthy.
func (h *FerryHandler) FerryHealth(c *gin.Context) {
	statuses := make([]gin.H, 0, len(h.Adapters))
	healthy := 0
	for _, a := range h.Adapters {
		state := "unknown"
		if b, ok := h.Breakers[a.Name()]; ok {
			state = strings.ToLower(b.State().String())
		}
		if state == "closed" {
			healthy++
		}
		statuses = append(statuses, gin.H{
			"operator": a.Name(),
			"breaker":  state,
		})
	}

	overall := "degraded"
	switch healthy {
	case len(h.Adapters):
		overall = "healthy"
	case 0:
		overall = "down"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    overall,
		"operators": statuses,
	})
}

// validOperatorOrAbort parses an operator string, responding 400 on
// junk input.
func validOperatorOrAbort(c *gin.Context, raw string) (models.Operator, bool) {
	op, ok := models.ParseOperator(raw)
	if !ok {
		RespondDomainError(c, domain.ValidationError{Field: "operator", Msg: "must be one of sealink, makruzz, greenocean"})
		return "", false
	}
	return op, true
}

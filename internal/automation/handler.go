package automation

import (
	"net/http"
	"strconv"
	"strings"

	"agency_crm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler serves the automation endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new automation handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// ListSequences handles GET /automation/sequences.
func (h *Handler) ListSequences(c *gin.Context) {
	seqs, err := h.svc.Sequences(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toSequenceList(seqs))
}

// GetForecast handles GET /automation/forecast?horizonDays=N.
func (h *Handler) GetForecast(c *gin.Context) {
	var horizon *int
	if raw := strings.TrimSpace(c.Query("horizonDays")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid horizonDays", err.Error())
			return
		}
		horizon = &parsed
	}

	resp, err := h.svc.RosterForecast(c.Request.Context(), horizon)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

// PostForecast handles POST /automation/forecast for ad-hoc snapshots.
func (h *Handler) PostForecast(c *gin.Context) {
	var req ForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	resp, err := h.svc.SnapshotForecast(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

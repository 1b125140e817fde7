// README: Landscaper matching handler.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"greenroute/internal/modules/matching"
)

type MatchHandler struct {
	matching *matching.Service
}

func NewMatchHandler(svc *matching.Service) *MatchHandler {
	return &MatchHandler{matching: svc}
}

type matchRequest struct {
	matching.Criteria
	Limit                    int        `json:"limit"`
	ProposedDate             *time.Time `json:"proposed_date"`
	EstimatedDurationMinutes int        `json:"estimated_duration_minutes"`
}

type matchResponse struct {
	Matches []matching.LandscaperMatch `json:"matches"`
}

func (h *MatchHandler) Find(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Location != nil && !req.Location.Valid() {
		writeError(c, http.StatusBadRequest, "invalid location")
		return
	}
	if req.Limit < 0 || req.EstimatedDurationMinutes < 0 {
		writeError(c, http.StatusBadRequest, "limit and duration must not be negative")
		return
	}

	duration := time.Duration(req.EstimatedDurationMinutes) * time.Minute
	matches, err := h.matching.FindBestMatches(c.Request.Context(), req.Criteria, req.Limit, req.ProposedDate, duration)
	if err != nil {
		writeMatchError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, matchResponse{Matches: matches})
}

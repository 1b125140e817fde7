// README: Route optimization handlers.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"greenroute/internal/http/middleware"
	"greenroute/internal/modules/route"
	"greenroute/internal/types"
)

type RouteHandler struct {
	route *route.Service
}

func NewRouteHandler(svc *route.Service) *RouteHandler {
	return &RouteHandler{route: svc}
}

type stopsRequest struct {
	Stops []route.RoutePoint `json:"stops"`
}

// Optimize reorders a posted stop list without touching storage.
func (h *RouteHandler) Optimize(c *gin.Context) {
	var req stopsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(c, http.StatusOK, h.route.Optimize(c.Request.Context(), req.Stops))
}

func (h *RouteHandler) OptimizeDay(c *gin.Context) {
	id, day, ok := h.dayParams(c)
	if !ok {
		return
	}
	plan, err := h.route.OptimizeDay(c.Request.Context(), types.ID(id), day)
	if err != nil {
		writeRouteError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, plan)
}

// Apply persists an accepted ordering for the landscaper's day.
func (h *RouteHandler) Apply(c *gin.Context) {
	id, day, ok := h.dayParams(c)
	if !ok {
		return
	}
	var req stopsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	n, err := h.route.ApplyDay(c.Request.Context(), types.ID(id), day, req.Stops)
	if err != nil {
		if n > 0 {
			writeJSON(c, http.StatusInternalServerError, gin.H{"error": "route partially applied", "updated": n})
			return
		}
		writeRouteError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"updated": n})
}

func (h *RouteHandler) dayParams(c *gin.Context) (string, time.Time, bool) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid landscaper id")
		return "", time.Time{}, false
	}
	if !middleware.IsSelfOrAdmin(c, id) {
		writeError(c, http.StatusForbidden, "forbidden: not your route")
		return "", time.Time{}, false
	}
	day, ok := parseDate(c.Param("date"))
	if !ok {
		writeError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return "", time.Time{}, false
	}
	return id, day, true
}

// README: Tracking session handlers fed by the landscaper's device.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"greenroute/internal/geofence"
	"greenroute/internal/http/middleware"
	"greenroute/internal/modules/tracking"
	"greenroute/internal/types"
)

type TrackingHandler struct {
	tracking *tracking.Service
}

func NewTrackingHandler(svc *tracking.Service) *TrackingHandler {
	return &TrackingHandler{tracking: svc}
}

type startSessionRequest struct {
	JobID        string `json:"job_id"`
	LandscaperID string `json:"landscaper_id"`
}

type failSessionRequest struct {
	Reason string `json:"reason"`
}

func (h *TrackingHandler) Start(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.LandscaperID == "" {
		req.LandscaperID = middleware.CallerUID(c)
	}
	if !isValidID(req.JobID) || !isValidID(req.LandscaperID) {
		writeError(c, http.StatusBadRequest, "job_id and landscaper_id are required")
		return
	}
	if !middleware.IsSelfOrAdmin(c, req.LandscaperID) {
		writeError(c, http.StatusForbidden, "forbidden: cannot track another landscaper")
		return
	}
	sess, err := h.tracking.StartSession(c.Request.Context(), types.ID(req.JobID), types.ID(req.LandscaperID))
	if err != nil {
		writeTrackingError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, sess)
}

func (h *TrackingHandler) Get(c *gin.Context) {
	st, ok := h.ownedSession(c)
	if !ok {
		return
	}
	writeJSON(c, http.StatusOK, st)
}

func (h *TrackingHandler) Stop(c *gin.Context) {
	st, ok := h.ownedSession(c)
	if !ok {
		return
	}
	if err := h.tracking.StopSession(st.ID); err != nil {
		writeTrackingError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TrackingHandler) PushSample(c *gin.Context) {
	st, ok := h.ownedSession(c)
	if !ok {
		return
	}
	var sample geofence.Sample
	if err := c.ShouldBindJSON(&sample); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.tracking.PushSample(c.Request.Context(), st.ID, sample); err != nil {
		writeTrackingError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// Fail records that the device's location watch stopped working.
func (h *TrackingHandler) Fail(c *gin.Context) {
	st, ok := h.ownedSession(c)
	if !ok {
		return
	}
	var req failSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.tracking.FailSession(st.ID, req.Reason); err != nil {
		writeTrackingError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *TrackingHandler) ownedSession(c *gin.Context) (*tracking.SessionStatus, bool) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid session id")
		return nil, false
	}
	st, err := h.tracking.Status(id)
	if err != nil {
		writeTrackingError(c, err)
		return nil, false
	}
	if !middleware.IsSelfOrAdmin(c, string(st.LandscaperID)) {
		writeError(c, http.StatusForbidden, "forbidden: not your session")
		return nil, false
	}
	return st, true
}

// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"greenroute/internal/geofence"
	"greenroute/internal/logger"
	"greenroute/internal/modules/matching"
	"greenroute/internal/modules/route"
	"greenroute/internal/modules/tracking"
)

const dateLayout = "2006-01-02"

type errorResponse struct {
	Error string `json:"error"`
}

// isValidID accepts the id shapes the stores hand out: alphanumerics plus
// '-' and '_' up to 64 characters.
func isValidID(v string) bool {
	if v == "" || len(v) > 64 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

func parseDate(v string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, v)
	return t, err == nil
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeInternal(c *gin.Context, err error) {
	logger.FromContext(c.Request.Context()).Error("request failed", "path", c.FullPath(), "err", err)
	writeError(c, http.StatusInternalServerError, "internal error")
}

func writeRouteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, route.ErrBadRequest), errors.Is(err, route.ErrInvalidSequence):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, route.ErrJobNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	default:
		writeInternal(c, err)
	}
}

func writeMatchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, matching.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, matching.ErrPoolUnavailable):
		writeError(c, http.StatusServiceUnavailable, matching.ErrPoolUnavailable.Error())
	default:
		writeInternal(c, err)
	}
}

func writeTrackingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tracking.ErrBadRequest), errors.Is(err, geofence.ErrMissingParams):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, tracking.ErrSessionNotFound), errors.Is(err, tracking.ErrNoGeofences):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, tracking.ErrSessionActive), errors.Is(err, geofence.ErrNotTracking):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, geofence.ErrStaleSample), errors.Is(err, geofence.ErrInaccurateSample),
		errors.Is(err, geofence.ErrInvalidSample):
		writeError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		writeInternal(c, err)
	}
}

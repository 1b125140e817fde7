// README: Panic recovery; logs the stack and answers 500 with the request id.
package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"greenroute/internal/logger"
)

func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			// Aborted streams are not failures; let net/http handle them.
			if err, ok := r.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(r)
			}
			reqID := c.Writer.Header().Get(RequestIDHeader)
			logger.FromContext(c.Request.Context()).Error("panic recovered",
				"panic", r,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"stack", string(debug.Stack()),
			)
			body := gin.H{"error": "internal error"}
			if reqID != "" {
				body["request_id"] = reqID
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, body)
		}()
		c.Next()
	}
}

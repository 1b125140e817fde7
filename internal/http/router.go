// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"greenroute/internal/http/handlers"
	"greenroute/internal/http/middleware"
)

func NewRouter(deps ServerDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logging(deps.Logger), middleware.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	api := r.Group("/api", middleware.Auth(deps.Verifier))

	routeHandler := handlers.NewRouteHandler(deps.Route)
	api.POST("/routes/optimize", routeHandler.Optimize)
	api.GET("/landscapers/:id/routes/:date", routeHandler.OptimizeDay)
	api.POST("/landscapers/:id/routes/:date/apply", routeHandler.Apply)

	matchHandler := handlers.NewMatchHandler(deps.Matching)
	api.POST("/matches", matchHandler.Find)

	trackingHandler := handlers.NewTrackingHandler(deps.Tracking)
	sampleLimit := middleware.RateLimit(deps.RateLimits.SamplesPerSecond, deps.RateLimits.Burst,
		func(c *gin.Context) string { return c.Param("id") })
	api.POST("/tracking/sessions", trackingHandler.Start)
	api.GET("/tracking/sessions/:id", trackingHandler.Get)
	api.DELETE("/tracking/sessions/:id", trackingHandler.Stop)
	api.POST("/tracking/sessions/:id/samples", sampleLimit, trackingHandler.PushSample)
	api.POST("/tracking/sessions/:id/error", trackingHandler.Fail)

	return r
}

// README: API gateway; owns the gin engine and delegates to module services.
package http

import (
	"log/slog"
	"net/http"

	"greenroute/internal/config"
	"greenroute/internal/infra"
	"greenroute/internal/modules/matching"
	"greenroute/internal/modules/route"
	"greenroute/internal/modules/tracking"
)

type ServerDeps struct {
	Route    *route.Service
	Matching *matching.Service
	Tracking *tracking.Service
	Verifier infra.TokenVerifier
	// Metrics serves /metrics when set.
	Metrics    http.Handler
	RateLimits config.TrackingConfig
	Logger     *slog.Logger
}

type Server struct {
	deps ServerDeps
}

func NewServer(deps ServerDeps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Server{deps: deps}
}

func (s *Server) Routes() http.Handler {
	return NewRouter(s.deps)
}

// README: Entry point; loads config, wires services, starts the HTTP server and shuts down gracefully.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"greenroute/internal/ai"
	"greenroute/internal/config"
	httptransport "greenroute/internal/http"
	"greenroute/internal/infra"
	"greenroute/internal/logger"
	"greenroute/internal/maps"
	"greenroute/internal/modules/matching"
	"greenroute/internal/modules/route"
	"greenroute/internal/modules/schedule"
	"greenroute/internal/modules/tracking"
	"greenroute/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Logging)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("greenroute-api exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	firebaseApp, err := infra.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		return err
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, firebaseApp)
	if err != nil {
		return err
	}

	if cfg.DB.Migrate {
		if err := infra.Migrate(cfg.DB.DSN); err != nil {
			return err
		}
		log.Info("database migrations applied")
	}
	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		return err
	}
	defer func() { _ = shutdownMetrics(context.Background()) }()
	instruments, err := observability.NewInstruments()
	if err != nil {
		return err
	}

	routeDeps := route.ServiceDeps{
		Store:   route.NewStore(dbPool),
		Metrics: instruments,
		Logger:  log,
	}
	if cfg.Maps.APIKey != "" {
		geocoder, err := maps.NewGeocodeService(cfg.Maps.APIKey, cfg.Maps.Region)
		if err != nil {
			return err
		}
		estimator, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			return err
		}
		routeDeps.Geocoder = geocoder
		routeDeps.Estimator = estimator
	} else {
		log.Warn("GOOGLE_MAPS_API_KEY not set; geocoding and road estimates disabled")
	}
	routeSvc := route.NewService(routeDeps, cfg.Route)

	positions := matching.NewPositionStore(redisClient)
	matchingDeps := matching.ServiceDeps{
		Pool:      matching.NewStore(dbPool),
		Positions: positions,
		Conflicts: schedule.NewService(schedule.NewStore(dbPool)),
		Metrics:   instruments,
		Logger:    log,
	}
	if cfg.AI.GeminiKey != "" {
		classifier, err := ai.NewGeminiClassifier(ctx, cfg.AI.GeminiKey)
		if err != nil {
			return err
		}
		defer classifier.Close()
		matchingDeps.Classifier = classifier
	}
	matchingSvc := matching.NewService(matchingDeps, cfg.Matching)

	trackingDeps := tracking.ServiceDeps{
		Store:     tracking.NewStore(dbPool),
		Positions: positions,
		Publisher: tracking.NewPublisher(redisClient),
		Metrics:   instruments,
		Logger:    log,
	}
	notifier, err := tracking.NewFirebaseNotifier(ctx, firebaseApp, log)
	if err != nil {
		log.Warn("arrival notifications disabled", "err", err)
	} else {
		trackingDeps.Notifier = notifier
	}
	trackingSvc := tracking.NewService(trackingDeps, cfg.Geofence)
	defer trackingSvc.StopAll()

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Route:      routeSvc,
		Matching:   matchingSvc,
		Tracking:   trackingSvc,
		Verifier:   verifier,
		Metrics:    metricsHandler,
		RateLimits: cfg.Tracking,
		Logger:     log,
	})

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// Package observability provides OpenTelemetry metrics exported in Prometheus format.
package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "greenroute"

// InitMetrics initializes the OpenTelemetry metrics provider with a Prometheus exporter.
// It returns the HTTP handler for the /metrics endpoint and a shutdown function.
func InitMetrics() (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(
		metric.WithReader(exporter),
	)

	otel.SetMeterProvider(provider)

	return promhttp.Handler(), provider.Shutdown, nil
}

// Instruments holds the domain counters. A nil *Instruments records nothing,
// so services built without metrics need no special casing.
type Instruments struct {
	routesOptimized otelmetric.Int64Counter
	milesSaved      otelmetric.Float64Histogram
	matchRequests   otelmetric.Int64Counter
	geofenceEvents  otelmetric.Int64Counter
}

// NewInstruments registers the instruments on the global MeterProvider.
func NewInstruments() (*Instruments, error) {
	meter := otel.Meter(meterName)

	routes, err := meter.Int64Counter("routes_optimized_total",
		otelmetric.WithDescription("Route optimizations performed"))
	if err != nil {
		return nil, fmt.Errorf("routes_optimized_total: %w", err)
	}
	miles, err := meter.Float64Histogram("route_miles_saved",
		otelmetric.WithDescription("Miles saved per optimization"),
		otelmetric.WithUnit("mi"))
	if err != nil {
		return nil, fmt.Errorf("route_miles_saved: %w", err)
	}
	matches, err := meter.Int64Counter("match_requests_total",
		otelmetric.WithDescription("Landscaper match rankings computed"))
	if err != nil {
		return nil, fmt.Errorf("match_requests_total: %w", err)
	}
	events, err := meter.Int64Counter("geofence_events_total",
		otelmetric.WithDescription("Geofence entry, exit, and dwell events"))
	if err != nil {
		return nil, fmt.Errorf("geofence_events_total: %w", err)
	}

	return &Instruments{
		routesOptimized: routes,
		milesSaved:      miles,
		matchRequests:   matches,
		geofenceEvents:  events,
	}, nil
}

func (i *Instruments) RouteOptimized(ctx context.Context, milesSaved float64) {
	if i == nil {
		return
	}
	i.routesOptimized.Add(ctx, 1)
	i.milesSaved.Record(ctx, milesSaved)
}

func (i *Instruments) MatchRequested(ctx context.Context, outcome string) {
	if i == nil {
		return
	}
	i.matchRequests.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("outcome", outcome)))
}

func (i *Instruments) GeofenceEvent(ctx context.Context, eventType string) {
	if i == nil {
		return
	}
	i.geofenceEvents.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("event_type", eventType)))
}

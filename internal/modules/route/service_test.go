package route

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"greenroute/internal/config"
	"greenroute/internal/geo"
	"greenroute/internal/types"
)

type fakeStopStore struct {
	stops   []RoutePoint
	listErr error
	failOn  types.ID
	updates map[types.ID]int
}

func (f *fakeStopStore) ListStops(_ context.Context, _ types.ID, _ time.Time) ([]RoutePoint, error) {
	return f.stops, f.listErr
}

func (f *fakeStopStore) UpdateSequence(_ context.Context, jobID types.ID, sequence int) error {
	if jobID == f.failOn {
		return errors.New("connection reset")
	}
	if f.updates == nil {
		f.updates = make(map[types.ID]int)
	}
	f.updates[jobID] = sequence
	return nil
}

type fakeGeocoder struct {
	known map[string]geo.Point
}

func (f *fakeGeocoder) Geocode(_ context.Context, address string) (geo.Point, error) {
	p, ok := f.known[address]
	if !ok {
		return geo.Point{}, errors.New("not found")
	}
	return p, nil
}

type fakeEstimator struct {
	minutes float64
	err     error
	calls   int
}

func (f *fakeEstimator) DriveMinutes(_ context.Context, points []geo.Point) (float64, error) {
	f.calls++
	return f.minutes, f.err
}

func newTestService(store StopStore, geocoder Geocoder, estimator Estimator) *Service {
	deps := ServiceDeps{Store: store}
	if geocoder != nil {
		deps.Geocoder = geocoder
	}
	if estimator != nil {
		deps.Estimator = estimator
	}
	return NewService(deps, config.RouteConfig{AvgSpeedMPH: 30, MaxPasses: 4})
}

func TestOptimizeDay_SkipsAndGeocodes(t *testing.T) {
	store := &fakeStopStore{stops: []RoutePoint{
		stop("a", 0, 0.5),
		{ID: "geo", Address: "12 Elm St", Latitude: math.NaN(), Longitude: math.NaN()},
		{ID: "lost", Address: "nowhere", Latitude: math.NaN(), Longitude: math.NaN()},
		{ID: "zero"},
		stop("b", 0, 1),
	}}
	geocoder := &fakeGeocoder{known: map[string]geo.Point{"12 Elm St": {Lat: 0, Lng: 3}}}
	estimator := &fakeEstimator{minutes: 42}
	svc := newTestService(store, geocoder, estimator)

	plan, err := svc.OptimizeDay(context.Background(), "l1", time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(plan.Analysis.OptimizedRoute) != 3 {
		t.Fatalf("expected 3 usable stops, got %v", ids(plan.Analysis.OptimizedRoute))
	}
	if len(plan.Skipped) != 2 || plan.Skipped[0].ID != "lost" || plan.Skipped[1].ID != "zero" {
		t.Fatalf("unexpected skipped stops: %v", ids(plan.Skipped))
	}
	for _, p := range plan.Skipped {
		if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
			t.Fatalf("skipped stop %s still carries NaN coordinates", p.ID)
		}
	}
	for _, p := range plan.Analysis.OptimizedRoute {
		if p.ID == "geo" && p.Longitude != 3 {
			t.Fatalf("geocoded stop kept wrong coordinates: %+v", p)
		}
	}
	if plan.RoadMinutes == nil || *plan.RoadMinutes != 42 {
		t.Fatalf("expected road estimate 42, got %v", plan.RoadMinutes)
	}
}

func TestOptimizeDay_EstimatorFailureIsNotFatal(t *testing.T) {
	store := &fakeStopStore{stops: []RoutePoint{stop("a", 0, 0), stop("b", 0, 1)}}
	svc := newTestService(store, nil, &fakeEstimator{err: errors.New("quota")})

	plan, err := svc.OptimizeDay(context.Background(), "l1", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.RoadMinutes != nil {
		t.Fatalf("expected no road estimate, got %v", *plan.RoadMinutes)
	}
}

func TestOptimizeDay_StoreError(t *testing.T) {
	svc := newTestService(&fakeStopStore{listErr: errors.New("db down")}, nil, nil)
	if _, err := svc.OptimizeDay(context.Background(), "l1", time.Now()); err == nil {
		t.Fatal("expected error")
	}
}

func TestOptimizeDay_MissingLandscaper(t *testing.T) {
	svc := newTestService(&fakeStopStore{}, nil, nil)
	if _, err := svc.OptimizeDay(context.Background(), "", time.Now()); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
}

func TestApply_WritesEachStop(t *testing.T) {
	store := &fakeStopStore{}
	svc := newTestService(store, nil, nil)

	stops := []RoutePoint{{ID: "a", SequenceOrder: 2}, {ID: "b", SequenceOrder: 1}}
	n, err := svc.Apply(context.Background(), stops)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 || store.updates["a"] != 2 || store.updates["b"] != 1 {
		t.Fatalf("unexpected writes: n=%d updates=%v", n, store.updates)
	}
}

func TestApply_StopsAtFirstFailure(t *testing.T) {
	store := &fakeStopStore{failOn: "b"}
	svc := newTestService(store, nil, nil)

	stops := []RoutePoint{{ID: "a", SequenceOrder: 1}, {ID: "b", SequenceOrder: 2}, {ID: "c", SequenceOrder: 3}}
	n, err := svc.Apply(context.Background(), stops)
	if err == nil {
		t.Fatal("expected error")
	}
	if n != 1 {
		t.Fatalf("expected 1 write before failure, got %d", n)
	}
	if _, ok := store.updates["c"]; ok {
		t.Fatal("stop after failure must not be written")
	}
}

func TestApply_RejectsInvalidSequence(t *testing.T) {
	svc := newTestService(&fakeStopStore{}, nil, nil)
	tests := map[string][]RoutePoint{
		"duplicate": {{ID: "a", SequenceOrder: 1}, {ID: "b", SequenceOrder: 1}},
		"gap":       {{ID: "a", SequenceOrder: 1}, {ID: "b", SequenceOrder: 3}},
		"zero":      {{ID: "a", SequenceOrder: 0}},
	}
	for name, stops := range tests {
		if _, err := svc.Apply(context.Background(), stops); !errors.Is(err, ErrInvalidSequence) {
			t.Errorf("%s: expected ErrInvalidSequence, got %v", name, err)
		}
	}
	if _, err := svc.Apply(context.Background(), nil); !errors.Is(err, ErrBadRequest) {
		t.Errorf("empty: expected ErrBadRequest, got %v", err)
	}
}

func TestApplyDay_RejectsForeignJobs(t *testing.T) {
	store := &fakeStopStore{stops: []RoutePoint{{ID: "a"}, {ID: "b"}}}
	svc := newTestService(store, nil, nil)
	day := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)

	_, err := svc.ApplyDay(context.Background(), "l1", day,
		[]RoutePoint{{ID: "a", SequenceOrder: 1}, {ID: "zzz", SequenceOrder: 2}})
	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
	if len(store.updates) != 0 {
		t.Fatalf("nothing should be written, got %v", store.updates)
	}

	n, err := svc.ApplyDay(context.Background(), "l1", day,
		[]RoutePoint{{ID: "b", SequenceOrder: 1}, {ID: "a", SequenceOrder: 2}})
	if err != nil || n != 2 {
		t.Fatalf("ApplyDay = %d, %v", n, err)
	}
	if _, err := svc.ApplyDay(context.Background(), "", day, nil); !errors.Is(err, ErrBadRequest) {
		t.Errorf("missing landscaper: %v", err)
	}
}

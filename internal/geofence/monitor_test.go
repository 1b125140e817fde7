package geofence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"greenroute/internal/config"
	"greenroute/internal/geo"
)

var (
	yard    = geo.Point{Lat: 40.0, Lng: -75.0}
	inYard  = Sample{Latitude: 40.0001, Longitude: -75.0, Accuracy: 5}
	offSite = Sample{Latitude: 40.01, Longitude: -75.0, Accuracy: 5}
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
	return c.t
}

type fakeSink struct {
	mu      sync.Mutex
	records []Record
	err     error
}

func (f *fakeSink) RecordEvent(_ context.Context, rec Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return f.err
}

func (f *fakeSink) types() []EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]EventType, len(f.records))
	for i, r := range f.records {
		out[i] = r.EventType
	}
	return out
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) add(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) count(t EventType) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, ev := range l.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func newTestMonitor(clock *fakeClock, sink Sink, events *eventLog) *Monitor {
	opts := Options{
		JobID:        "job-1",
		LandscaperID: "land-1",
		Geofences:    []Geofence{{ID: "gf-1", JobID: "job-1", Center: yard}},
		Config:       config.DefaultGeofence(),
		Clock:        clock.Now,
	}
	if sink != nil {
		opts.Sink = sink
	}
	if events != nil {
		opts.OnEvent = events.add
	}
	return NewMonitor(opts)
}

func TestGeofence_Contains(t *testing.T) {
	near := inYard.Point()
	far := offSite.Point()

	circle := Geofence{Center: yard}
	if !circle.Contains(near, 100) || circle.Contains(far, 100) {
		t.Error("default-radius circle containment wrong")
	}
	wide := Geofence{Center: yard, RadiusMeters: 2000}
	if !wide.Contains(far, 100) {
		t.Error("explicit radius should override the default")
	}
	square := Geofence{
		Center:       yard,
		RadiusMeters: 5000,
		Polygon: []geo.Point{
			{Lat: 39.9995, Lng: -75.0005},
			{Lat: 39.9995, Lng: -74.9995},
			{Lat: 40.0005, Lng: -74.9995},
			{Lat: 40.0005, Lng: -75.0005},
		},
	}
	if !square.Contains(near, 100) || square.Contains(far, 100) {
		t.Error("polygon should take precedence over the circle")
	}
}

func TestStart_MissingParams(t *testing.T) {
	tests := []Options{
		{LandscaperID: "l", Geofences: []Geofence{{ID: "g"}}},
		{JobID: "j", Geofences: []Geofence{{ID: "g"}}},
		{JobID: "j", LandscaperID: "l"},
	}
	for i, opts := range tests {
		if err := NewMonitor(opts).Start(context.Background()); !errors.Is(err, ErrMissingParams) {
			t.Errorf("case %d: expected ErrMissingParams, got %v", i, err)
		}
	}
}

func TestDwellThreshold_FiresOncePerOccupancy(t *testing.T) {
	clock := newClock()
	events := &eventLog{}
	m := newTestMonitor(clock, nil, events)

	m.handleSample(inYard)
	if events.count(EventEntry) != 1 {
		t.Fatalf("expected one entry event, got %d", events.count(EventEntry))
	}

	for i := 0; i < 119; i++ {
		m.tick(clock.Advance(time.Second))
	}
	if events.count(EventDwellThreshold) != 0 {
		t.Fatal("threshold fired early")
	}
	for i := 0; i < 60; i++ {
		m.tick(clock.Advance(time.Second))
	}
	if got := events.count(EventDwellThreshold); got != 1 {
		t.Fatalf("threshold fired %d times, want 1", got)
	}

	st := m.Status()
	if len(st.Dwell) != 1 || st.Dwell[0].DwellSeconds != 179 {
		t.Errorf("dwell status = %+v", st.Dwell)
	}

	m.handleSample(offSite)
	if events.count(EventExit) != 1 {
		t.Fatalf("expected one exit event")
	}
	if st := m.Status(); len(st.Inside) != 0 || len(st.Dwell) != 0 {
		t.Errorf("status after exit = %+v", st)
	}

	m.handleSample(inYard)
	for i := 0; i < 130; i++ {
		m.tick(clock.Advance(time.Second))
	}
	if got := events.count(EventDwellThreshold); got != 2 {
		t.Errorf("re-entry should fire again, total = %d, want 2", got)
	}
}

func TestHandleSample_RepeatedInsideKeepsEntryTime(t *testing.T) {
	clock := newClock()
	events := &eventLog{}
	m := newTestMonitor(clock, nil, events)

	m.handleSample(inYard)
	entered := m.inside["gf-1"].EnteredAt
	clock.Advance(30 * time.Second)
	m.handleSample(inYard)

	if events.count(EventEntry) != 1 {
		t.Errorf("entry events = %d, want 1", events.count(EventEntry))
	}
	if len(m.inside) != 1 || !m.inside["gf-1"].EnteredAt.Equal(entered) {
		t.Errorf("occupancy changed: %+v", m.inside)
	}
}

func TestSink_RecordsEntryAndExit(t *testing.T) {
	clock := newClock()
	sink := &fakeSink{}
	m := newTestMonitor(clock, sink, nil)

	m.handleSample(inYard)
	m.handleSample(offSite)
	m.Flush()

	got := sink.types()
	seen := map[EventType]int{}
	for _, et := range got {
		seen[et]++
	}
	if len(got) != 2 || seen[EventEntry] != 1 || seen[EventExit] != 1 {
		t.Fatalf("records = %v", got)
	}
	for _, r := range sink.records {
		if r.JobID != "job-1" || r.LandscaperID != "land-1" || r.RecordedAt.IsZero() {
			t.Errorf("incomplete record %+v", r)
		}
	}
}

func TestSink_FailureDoesNotBlockTransition(t *testing.T) {
	clock := newClock()
	sink := &fakeSink{err: errors.New("insert failed")}
	m := newTestMonitor(clock, sink, nil)

	m.handleSample(inYard)
	m.Flush()
	if st := m.Status(); len(st.Inside) != 1 {
		t.Errorf("expected occupancy despite sink failure, got %+v", st)
	}
}

func TestPush_Validation(t *testing.T) {
	clock := newClock()
	cfg := config.DefaultGeofence()
	cfg.MaxAccuracyMeters = 50
	m := NewMonitor(Options{
		JobID:        "job-1",
		LandscaperID: "land-1",
		Geofences:    []Geofence{{ID: "gf-1", Center: yard}},
		Config:       cfg,
		Clock:        clock.Now,
	})

	if err := m.Push(inYard); !errors.Is(err, ErrNotTracking) {
		t.Errorf("before start: %v", err)
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop()

	stale := inYard
	stale.Timestamp = clock.Now().Add(-time.Minute)
	if err := m.Push(stale); !errors.Is(err, ErrStaleSample) {
		t.Errorf("stale: %v", err)
	}
	fuzzy := inYard
	fuzzy.Accuracy = 200
	if err := m.Push(fuzzy); !errors.Is(err, ErrInaccurateSample) {
		t.Errorf("inaccurate: %v", err)
	}
	if err := m.Push(Sample{Latitude: 95, Longitude: 0}); !errors.Is(err, ErrInvalidSample) {
		t.Errorf("invalid: %v", err)
	}
	fresh := inYard
	fresh.Timestamp = clock.Now().Add(-5 * time.Second)
	if err := m.Push(fresh); err != nil {
		t.Errorf("fresh sample rejected: %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestMonitor_LoopLifecycle(t *testing.T) {
	events := &eventLog{}
	cfg := config.DefaultGeofence()
	cfg.TickInterval = 5 * time.Millisecond
	cfg.DwellThreshold = 30 * time.Millisecond
	m := NewMonitor(Options{
		JobID:        "job-1",
		LandscaperID: "land-1",
		Geofences:    []Geofence{{ID: "gf-1", Center: yard}},
		Config:       cfg,
		OnEvent:      events.add,
	})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start: %v", err)
	}
	if err := m.Push(inYard); err != nil {
		t.Fatalf("Push: %v", err)
	}
	waitFor(t, func() bool { return events.count(EventDwellThreshold) == 1 })
	time.Sleep(30 * time.Millisecond)
	if got := events.count(EventDwellThreshold); got != 1 {
		t.Errorf("threshold fired %d times during one occupancy", got)
	}

	m.Stop()
	if m.Tracking() {
		t.Error("still tracking after Stop")
	}
	if err := m.Push(inYard); !errors.Is(err, ErrNotTracking) {
		t.Errorf("Push after Stop: %v", err)
	}
	m.Stop()
}

func TestMonitor_WatcherErrorIsTerminal(t *testing.T) {
	events := &eventLog{}
	m := newTestMonitor(newClock(), nil, events)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	m.Fail(ErrPermissionDenied)

	waitFor(t, func() bool { return !m.Tracking() })
	st := m.Status()
	if st.Error != ErrPermissionDenied.Error() {
		t.Errorf("status error = %q", st.Error)
	}
	if events.count(EventError) != 1 {
		t.Errorf("error events = %d, want 1", events.count(EventError))
	}
	if err := m.Push(inYard); !errors.Is(err, ErrNotTracking) {
		t.Errorf("Push after failure: %v", err)
	}
	m.Stop()
}

func TestMonitor_ContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := newTestMonitor(newClock(), nil, nil)
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()
	waitFor(t, func() bool { return !m.Tracking() })
	m.Stop()
}

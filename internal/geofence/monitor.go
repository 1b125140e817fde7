// README: Dwell monitor for one job/landscaper tracking session.
package geofence

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"greenroute/internal/config"
	"greenroute/internal/observability"
	"greenroute/internal/types"
)

// Sink persists entry and exit records. Writes are fire-and-forget.
type Sink interface {
	RecordEvent(ctx context.Context, rec Record) error
}

type Options struct {
	JobID        types.ID
	LandscaperID types.ID
	Geofences    []Geofence
	Sink         Sink // optional
	// OnEvent runs on the monitor goroutine and must not block or call Stop.
	OnEvent func(Event)
	Config  config.GeofenceConfig
	Metrics *observability.Instruments
	Logger  *slog.Logger
	Clock   func() time.Time
}

type state int

const (
	stateIdle state = iota
	stateRunning
	stateStopped
)

// Monitor tracks dwell time inside a job's geofences. A single goroutine owns
// the occupancy maps; Push, Fail and Stop hand work to it over channels.
type Monitor struct {
	opts Options
	cfg  config.GeofenceConfig
	log  *slog.Logger
	now  func() time.Time

	samples chan Sample
	errs    chan error
	stop    chan struct{}
	done    chan struct{}

	// owned by the loop goroutine
	inside map[types.ID]*DwellTime
	fired  map[types.ID]bool
	last   *Sample

	mu       sync.Mutex
	state    state
	status   Status
	stopOnce sync.Once
	writes   sync.WaitGroup
}

func NewMonitor(opts Options) *Monitor {
	cfg := opts.Config
	def := config.DefaultGeofence()
	if cfg.DwellThreshold <= 0 {
		cfg.DwellThreshold = def.DwellThreshold
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.DefaultRadiusMeters <= 0 {
		cfg.DefaultRadiusMeters = def.DefaultRadiusMeters
	}
	if cfg.SinkTimeout <= 0 {
		cfg.SinkTimeout = def.SinkTimeout
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		opts:    opts,
		cfg:     cfg,
		log:     logger.With("component", "geofence", "job_id", opts.JobID, "landscaper_id", opts.LandscaperID),
		now:     now,
		samples: make(chan Sample, 16),
		errs:    make(chan error, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		inside:  make(map[types.ID]*DwellTime),
		fired:   make(map[types.ID]bool),
		status:  Status{Inside: []types.ID{}, Dwell: []DwellTime{}},
	}
}

// Start begins monitoring. The loop ends on Stop, on a watcher error, or when
// ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) error {
	if m.opts.JobID == "" || m.opts.LandscaperID == "" || len(m.opts.Geofences) == 0 {
		return ErrMissingParams
	}
	m.mu.Lock()
	if m.state != stateIdle {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.state = stateRunning
	m.status.Tracking = true
	m.mu.Unlock()

	go m.run(ctx)
	return nil
}

// Push validates s and queues it for the loop. Stale, inaccurate or malformed
// samples are rejected without touching state.
func (m *Monitor) Push(s Sample) error {
	if !m.Tracking() {
		return ErrNotTracking
	}
	if err := m.validate(s); err != nil {
		return err
	}
	select {
	case m.samples <- s:
		return nil
	case <-m.done:
		return ErrNotTracking
	}
}

// Fail reports a watcher error. It is terminal: tracking stops and the error
// is kept in Status until a new monitor is started.
func (m *Monitor) Fail(err error) {
	if err == nil || !m.Tracking() {
		return
	}
	select {
	case m.errs <- err:
	case <-m.done:
	}
}

// Stop ends monitoring and waits for the loop to exit. Sink writes already in
// flight keep running.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		started := m.state == stateRunning
		if m.state == stateIdle {
			m.state = stateStopped
		}
		m.mu.Unlock()

		close(m.stop)
		if started {
			<-m.done
		}
	})
}

// Flush blocks until in-flight sink writes finish.
func (m *Monitor) Flush() {
	m.writes.Wait()
}

func (m *Monitor) Tracking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status.Tracking
}

func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.status
	st.Inside = append([]types.ID{}, m.status.Inside...)
	st.Dwell = append([]DwellTime{}, m.status.Dwell...)
	if m.status.LastSample != nil {
		s := *m.status.LastSample
		st.LastSample = &s
	}
	return st
}

func (m *Monitor) validate(s Sample) error {
	if !s.Point().Valid() {
		return ErrInvalidSample
	}
	if m.cfg.MaxAccuracyMeters > 0 && s.Accuracy > m.cfg.MaxAccuracyMeters {
		return ErrInaccurateSample
	}
	if m.cfg.MaxSampleAge > 0 && !s.Timestamp.IsZero() && m.now().Sub(s.Timestamp) > m.cfg.MaxSampleAge {
		return ErrStaleSample
	}
	return nil
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)
	ticker := time.NewTicker(m.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.finish("")
			return
		case <-m.stop:
			m.finish("")
			return
		case err := <-m.errs:
			m.handleError(err)
			return
		case s := <-m.samples:
			m.handleSample(s)
		case <-ticker.C:
			m.tick(m.now())
		}
	}
}

func (m *Monitor) handleSample(s Sample) {
	now := m.now()
	if s.Timestamp.IsZero() {
		s.Timestamp = now
	}
	m.last = &s
	p := s.Point()

	for _, g := range m.opts.Geofences {
		in := g.Contains(p, m.cfg.DefaultRadiusMeters)
		_, wasIn := m.inside[g.ID]
		switch {
		case in && !wasIn:
			m.inside[g.ID] = &DwellTime{GeofenceID: g.ID, EnteredAt: now}
			m.record(EventEntry, s)
			m.emit(Event{Type: EventEntry, GeofenceID: g.ID, Location: p, At: now})
		case !in && wasIn:
			dwell := now.Sub(m.inside[g.ID].EnteredAt)
			delete(m.inside, g.ID)
			delete(m.fired, g.ID)
			m.record(EventExit, s)
			m.emit(Event{Type: EventExit, GeofenceID: g.ID, Location: p, Dwell: dwell, At: now})
		}
	}
	m.publish()
}

func (m *Monitor) tick(now time.Time) {
	if len(m.inside) == 0 {
		return
	}
	for _, g := range m.opts.Geofences {
		d, ok := m.inside[g.ID]
		if !ok {
			continue
		}
		dwell := now.Sub(d.EnteredAt)
		d.DwellSeconds = dwell.Seconds()
		if dwell >= m.cfg.DwellThreshold && !m.fired[g.ID] {
			m.fired[g.ID] = true
			ev := Event{Type: EventDwellThreshold, GeofenceID: g.ID, Dwell: dwell, At: now}
			if m.last != nil {
				ev.Location = m.last.Point()
			}
			m.emit(ev)
		}
	}
	m.publish()
}

func (m *Monitor) handleError(err error) {
	m.log.Warn("location watch failed", "err", err)
	m.emit(Event{Type: EventError, Err: err.Error(), At: m.now()})
	m.finish(err.Error())
}

// finish marks the monitor stopped. Occupancy is dropped without exit
// records since no sample proved the landscaper left.
func (m *Monitor) finish(errMsg string) {
	clear(m.inside)
	clear(m.fired)
	m.mu.Lock()
	m.state = stateStopped
	m.mu.Unlock()
	m.publishTracking(false, errMsg)
}

func (m *Monitor) emit(ev Event) {
	ev.JobID = m.opts.JobID
	ev.LandscaperID = m.opts.LandscaperID
	m.opts.Metrics.GeofenceEvent(context.Background(), string(ev.Type))
	if m.opts.OnEvent != nil {
		m.opts.OnEvent(ev)
	}
}

func (m *Monitor) record(t EventType, s Sample) {
	if m.opts.Sink == nil {
		return
	}
	rec := Record{
		JobID:        m.opts.JobID,
		LandscaperID: m.opts.LandscaperID,
		Latitude:     s.Latitude,
		Longitude:    s.Longitude,
		EventType:    t,
		RecordedAt:   s.Timestamp,
	}
	m.writes.Add(1)
	go func() {
		defer m.writes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.SinkTimeout)
		defer cancel()
		if err := m.opts.Sink.RecordEvent(ctx, rec); err != nil {
			m.log.Error("record geofence event", "event_type", t, "err", err)
		}
	}()
}

func (m *Monitor) publish() {
	m.publishTracking(true, "")
}

func (m *Monitor) publishTracking(tracking bool, errMsg string) {
	ids := make([]types.ID, 0, len(m.inside))
	dwell := make([]DwellTime, 0, len(m.inside))
	for _, g := range m.opts.Geofences {
		if d, ok := m.inside[g.ID]; ok {
			ids = append(ids, g.ID)
			dwell = append(dwell, *d)
		}
	}
	var last *Sample
	if m.last != nil {
		s := *m.last
		last = &s
	}

	m.mu.Lock()
	m.status = Status{Tracking: tracking, Error: errMsg, Inside: ids, Dwell: dwell, LastSample: last}
	m.mu.Unlock()
}

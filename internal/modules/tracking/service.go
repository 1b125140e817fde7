// README: Tracking service manages live geofence sessions and their side effects.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"greenroute/internal/config"
	"greenroute/internal/geo"
	"greenroute/internal/geofence"
	"greenroute/internal/observability"
	"greenroute/internal/types"
)

type GeofenceStore interface {
	LoadGeofences(ctx context.Context, jobID types.ID) ([]geofence.Geofence, error)
	RecordEvent(ctx context.Context, rec geofence.Record) error
	CustomerDeviceToken(ctx context.Context, jobID types.ID) (string, error)
}

type PositionWriter interface {
	SetPosition(ctx context.Context, id types.ID, p geo.Point) error
	RemovePosition(ctx context.Context, id types.ID) error
}

type EventPublisher interface {
	Publish(ctx context.Context, ev geofence.Event) error
}

type ArrivalNotifier interface {
	NotifyArrival(ctx context.Context, deviceToken string, notice ArrivalNotice) error
}

type ServiceDeps struct {
	Store     GeofenceStore
	Positions PositionWriter  // optional
	Publisher EventPublisher  // optional
	Notifier  ArrivalNotifier // optional
	Metrics   *observability.Instruments
	Logger    *slog.Logger
	Clock     func() time.Time
}

// endedSessionRetention keeps a failed session visible to Status before it
// is dropped.
const endedSessionRetention = 10 * time.Minute

type session struct {
	Session
	monitor *geofence.Monitor
	endedAt time.Time // set when the watcher fails; guarded by Service.mu
}

type sessionKey struct {
	job, landscaper types.ID
}

type Service struct {
	deps ServiceDeps
	cfg  config.GeofenceConfig
	log  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	bg     sync.WaitGroup

	mu       sync.Mutex
	sessions map[string]*session
	byKey    map[sessionKey]string
}

func NewService(deps ServiceDeps, cfg config.GeofenceConfig) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		deps:     deps,
		cfg:      cfg,
		log:      deps.Logger.With("component", "tracking"),
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*session),
		byKey:    make(map[sessionKey]string),
	}
}

// StartSession loads the job's geofences and starts monitoring. A session
// that ended with an error may be replaced by starting again.
func (s *Service) StartSession(ctx context.Context, jobID, landscaperID types.ID) (*Session, error) {
	if jobID == "" || landscaperID == "" {
		return nil, ErrBadRequest
	}
	key := sessionKey{job: jobID, landscaper: landscaperID}

	s.mu.Lock()
	s.reapLocked(s.deps.Clock())
	if id, ok := s.byKey[key]; ok && s.sessions[id].monitor.Tracking() {
		s.mu.Unlock()
		return nil, ErrSessionActive
	}
	s.mu.Unlock()

	fences, err := s.deps.Store.LoadGeofences(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("start session: load geofences for job %s: %w", jobID, err)
	}

	sess := &session{Session: Session{
		ID:           uuid.NewString(),
		JobID:        jobID,
		LandscaperID: landscaperID,
		StartedAt:    s.deps.Clock(),
	}}
	sess.monitor = geofence.NewMonitor(geofence.Options{
		JobID:        jobID,
		LandscaperID: landscaperID,
		Geofences:    fences,
		Sink:         s.deps.Store,
		OnEvent:      s.onEvent,
		Config:       s.cfg,
		Metrics:      s.deps.Metrics,
		Logger:       s.deps.Logger,
		Clock:        s.deps.Clock,
	})
	if err := sess.monitor.Start(s.ctx); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	s.mu.Lock()
	if oldID, ok := s.byKey[key]; ok {
		if old := s.sessions[oldID]; old != nil {
			if old.monitor.Tracking() {
				s.mu.Unlock()
				sess.monitor.Stop()
				return nil, ErrSessionActive
			}
			delete(s.sessions, oldID)
		}
	}
	s.sessions[sess.ID] = sess
	s.byKey[key] = sess.ID
	s.mu.Unlock()

	s.log.Info("tracking session started", "session_id", sess.ID, "job_id", jobID,
		"landscaper_id", landscaperID, "geofences", len(fences))
	out := sess.Session
	return &out, nil
}

// PushSample forwards a device location sample. Accepted samples also update
// the landscaper's live position used by matching.
func (s *Service) PushSample(ctx context.Context, sessionID string, sample geofence.Sample) error {
	sess, err := s.get(sessionID)
	if err != nil {
		return err
	}
	if err := sess.monitor.Push(sample); err != nil {
		return err
	}
	if s.deps.Positions != nil {
		if err := s.deps.Positions.SetPosition(ctx, sess.LandscaperID, sample.Point()); err != nil {
			s.log.Warn("live position update failed", "landscaper_id", sess.LandscaperID, "err", err)
		}
	}
	return nil
}

// FailSession records a device-side watcher failure. reason is one of
// "permission_denied", "unavailable" or free text.
func (s *Service) FailSession(sessionID, reason string) error {
	sess, err := s.get(sessionID)
	if err != nil {
		return err
	}
	sess.monitor.Fail(watcherError(reason))
	return nil
}

func (s *Service) StopSession(sessionID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
		key := sessionKey{job: sess.JobID, landscaper: sess.LandscaperID}
		if s.byKey[key] == sessionID {
			delete(s.byKey, key)
		}
	}
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	sess.monitor.Stop()
	s.clearPosition(sess.LandscaperID)
	s.log.Info("tracking session stopped", "session_id", sessionID)
	return nil
}

func (s *Service) Status(sessionID string) (*SessionStatus, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}
	return &SessionStatus{Session: sess.Session, Status: sess.monitor.Status()}, nil
}

// StopAll stops every session and waits for pending writes, publishes and
// notifications.
func (s *Service) StopAll() {
	s.mu.Lock()
	all := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess)
	}
	s.sessions = make(map[string]*session)
	s.byKey = make(map[sessionKey]string)
	s.mu.Unlock()

	landscapers := make(map[types.ID]struct{})
	for _, sess := range all {
		sess.monitor.Stop()
		sess.monitor.Flush()
		landscapers[sess.LandscaperID] = struct{}{}
	}
	for id := range landscapers {
		s.clearPosition(id)
	}
	s.bg.Wait()
	s.cancel()
}

func (s *Service) get(sessionID string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reapLocked(s.deps.Clock())
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// reapLocked drops sessions whose watcher failed more than
// endedSessionRetention ago.
func (s *Service) reapLocked(now time.Time) {
	for id, sess := range s.sessions {
		if sess.endedAt.IsZero() || now.Sub(sess.endedAt) < endedSessionRetention {
			continue
		}
		delete(s.sessions, id)
		key := sessionKey{job: sess.JobID, landscaper: sess.LandscaperID}
		if s.byKey[key] == id {
			delete(s.byKey, key)
		}
	}
}

// clearPosition removes the landscaper's live position once none of their
// sessions is still running.
func (s *Service) clearPosition(landscaperID types.ID) {
	if s.deps.Positions == nil {
		return
	}
	s.mu.Lock()
	for _, sess := range s.sessions {
		if sess.LandscaperID == landscaperID && sess.endedAt.IsZero() {
			s.mu.Unlock()
			return
		}
	}
	s.mu.Unlock()
	s.background(func(ctx context.Context) {
		if err := s.deps.Positions.RemovePosition(ctx, landscaperID); err != nil {
			s.log.Warn("live position removal failed", "landscaper_id", landscaperID, "err", err)
		}
	})
}

// markEnded flags the session that emitted a terminal error. The emitting
// monitor is not called back into.
func (s *Service) markEnded(ev geofence.Event) {
	s.mu.Lock()
	key := sessionKey{job: ev.JobID, landscaper: ev.LandscaperID}
	if sess, ok := s.sessions[s.byKey[key]]; ok && sess.endedAt.IsZero() {
		sess.endedAt = s.deps.Clock()
	}
	s.mu.Unlock()
	s.clearPosition(ev.LandscaperID)
}

// onEvent runs on a monitor goroutine; slow work is moved off it.
func (s *Service) onEvent(ev geofence.Event) {
	if s.deps.Publisher != nil {
		s.background(func(ctx context.Context) {
			if err := s.deps.Publisher.Publish(ctx, ev); err != nil {
				s.log.Warn("publish geofence event", "event_type", ev.Type, "err", err)
			}
		})
	}
	if ev.Type == geofence.EventDwellThreshold && s.deps.Notifier != nil {
		notice := ArrivalNotice{JobID: ev.JobID, LandscaperID: ev.LandscaperID, DwellSeconds: ev.Dwell.Seconds()}
		s.background(func(ctx context.Context) { s.notifyArrival(ctx, notice) })
	}
	if ev.Type == geofence.EventError {
		s.markEnded(ev)
	}
}

func (s *Service) notifyArrival(ctx context.Context, notice ArrivalNotice) {
	token, err := s.deps.Store.CustomerDeviceToken(ctx, notice.JobID)
	if err != nil {
		s.log.Error("customer device lookup failed", "job_id", notice.JobID, "err", err)
		return
	}
	if token == "" {
		s.log.Info("customer has no device registered, skipping arrival push", "job_id", notice.JobID)
		return
	}
	if err := s.deps.Notifier.NotifyArrival(ctx, token, notice); err != nil {
		s.log.Error("arrival notification failed", "job_id", notice.JobID, "err", err)
	}
}

func (s *Service) background(fn func(ctx context.Context)) {
	timeout := s.cfg.SinkTimeout
	if timeout <= 0 {
		timeout = config.DefaultGeofence().SinkTimeout
	}
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		fn(ctx)
	}()
}

func watcherError(reason string) error {
	switch reason {
	case "permission_denied":
		return geofence.ErrPermissionDenied
	case "unavailable", "position_unavailable", "timeout":
		return geofence.ErrPositionUnavailable
	case "":
		return errors.New("location watch failed")
	default:
		return errors.New(reason)
	}
}

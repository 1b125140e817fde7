// README: Matching service ranks landscapers for a customer job.
package matching

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"greenroute/internal/config"
	"greenroute/internal/geo"
	"greenroute/internal/observability"
	"greenroute/internal/types"
)

type PoolStore interface {
	ListCandidates(ctx context.Context) ([]Landscaper, error)
	ReviewSummary(ctx context.Context, landscaperID types.ID) (ReviewSummary, error)
}

// LivePositions returns the latest tracked positions for a set of landscapers.
type LivePositions interface {
	Positions(ctx context.Context, ids []types.ID) (map[types.ID]geo.Point, error)
}

type ConflictChecker interface {
	ConflictCount(ctx context.Context, landscaperID types.ID, start time.Time, duration time.Duration) (int, error)
}

type Classifier interface {
	ClassifyService(ctx context.Context, description string) (string, error)
}

type ServiceDeps struct {
	Pool       PoolStore
	Positions  LivePositions   // optional
	Conflicts  ConflictChecker // optional
	Classifier Classifier      // optional
	Metrics    *observability.Instruments
	Logger     *slog.Logger
}

type Service struct {
	pool       PoolStore
	positions  LivePositions
	conflicts  ConflictChecker
	classifier Classifier
	cfg        config.MatchingConfig
	metrics    *observability.Instruments
	log        *slog.Logger
}

func NewService(deps ServiceDeps, cfg config.MatchingConfig) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = defaultLimit
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultWorkers
	}
	return &Service{
		pool:       deps.Pool,
		positions:  deps.Positions,
		conflicts:  deps.Conflicts,
		classifier: deps.Classifier,
		cfg:        cfg,
		metrics:    deps.Metrics,
		log:        logger.With("component", "matching"),
	}
}

// FindBestMatches scores every available candidate and returns the top limit
// by descending score. Ties keep pool order. The returned slice is never nil.
//
// When the pool itself cannot be read the result is empty and the error wraps
// ErrPoolUnavailable; callers should treat that as "try again", not "nobody
// exists". Lookup failures for a single candidate only cost that candidate the
// affected points.
func (s *Service) FindBestMatches(ctx context.Context, c Criteria, limit int, proposedDate *time.Time, estimatedDuration time.Duration) ([]LandscaperMatch, error) {
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if c.MaxDistanceMiles <= 0 {
		c.MaxDistanceMiles = s.cfg.MaxDistanceMiles
	}
	c = s.classify(ctx, c)

	pool, err := s.pool.ListCandidates(ctx)
	if err != nil {
		err = fmt.Errorf("find best matches: %w: %v", ErrPoolUnavailable, err)
		s.log.Error("candidate pool fetch failed", "err", err)
		s.metrics.MatchRequested(ctx, "pool_error")
		return []LandscaperMatch{}, err
	}
	if len(pool) == 0 {
		s.metrics.MatchRequested(ctx, "empty")
		return []LandscaperMatch{}, nil
	}

	s.applyLivePositions(ctx, pool)

	matches := make([]LandscaperMatch, len(pool))
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, l := range pool {
		g.Go(func() error {
			matches[i] = s.scoreCandidate(ctx, c, l, proposedDate, estimatedDuration)
			return nil
		})
	}
	_ = g.Wait()

	ranked := make([]LandscaperMatch, 0, len(matches))
	for _, m := range matches {
		if c.MaxDistanceMiles > 0 && m.Distance != nil && *m.Distance > c.MaxDistanceMiles {
			continue
		}
		ranked = append(ranked, m)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MatchScore > ranked[j].MatchScore
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	s.metrics.MatchRequested(ctx, "ok")
	return ranked, nil
}

func (s *Service) classify(ctx context.Context, c Criteria) Criteria {
	if c.ServiceType != "" || c.Description == "" || s.classifier == nil {
		return c
	}
	service, err := s.classifier.ClassifyService(ctx, c.Description)
	if err != nil {
		s.log.Warn("service classification failed", "err", err)
		return c
	}
	c.ServiceType = service
	return c
}

func (s *Service) applyLivePositions(ctx context.Context, pool []Landscaper) {
	if s.positions == nil {
		return
	}
	ids := make([]types.ID, len(pool))
	for i, l := range pool {
		ids[i] = l.ID
	}
	live, err := s.positions.Positions(ctx, ids)
	if err != nil {
		s.log.Warn("live positions unavailable, using profile coordinates", "err", err)
		return
	}
	for i := range pool {
		if p, ok := live[pool[i].ID]; ok {
			pool[i].Location = &p
		}
	}
}

func (s *Service) scoreCandidate(ctx context.Context, c Criteria, l Landscaper, proposedDate *time.Time, duration time.Duration) LandscaperMatch {
	lookupCtx := ctx
	if s.cfg.LookupTimeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(ctx, s.cfg.LookupTimeout)
		defer cancel()
	}

	reviews, err := s.pool.ReviewSummary(lookupCtx, l.ID)
	if err != nil {
		s.log.Warn("review lookup failed", "landscaper_id", l.ID, "err", err)
		reviews = ReviewSummary{}
	}

	conflicts := 0
	if proposedDate != nil && s.conflicts != nil {
		n, err := s.conflicts.ConflictCount(lookupCtx, l.ID, *proposedDate, duration)
		if err != nil {
			s.log.Warn("schedule conflict check failed", "landscaper_id", l.ID, "err", err)
		} else {
			conflicts = n
		}
	}
	return Score(c, l, reviews, conflicts)
}

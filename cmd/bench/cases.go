package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"greenroute/internal/infra"
)

type Status string

const (
	StatusPass    Status = "PASS"
	StatusFail    Status = "FAIL"
	StatusPending Status = "PENDING"
	StatusSkip    Status = "SKIP"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  Status
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
			defer db.Close()
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = infra.NewRedis(r.cfg.RedisAddr)
		defer r.redis.Close()
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-7s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}
	return results
}

// sampleStops is a small loop around downtown Philadelphia in deliberately poor order.
var sampleStops = []map[string]any{
	{"id": "bench-1", "latitude": 39.9526, "longitude": -75.1652, "name": "Depot"},
	{"id": "bench-2", "latitude": 39.9800, "longitude": -75.1200},
	{"id": "bench-3", "latitude": 39.9550, "longitude": -75.1600},
	{"id": "bench-4", "latitude": 39.9750, "longitude": -75.1250},
	{"id": "bench-5", "latitude": 39.9600, "longitude": -75.1500},
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	return []TestCase{
		{
			Name: "Env: Postgres connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: StatusFail, Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: StatusFail, Note: err.Error()}
				}
				return Result{Status: StatusPass}
			},
		},
		{
			Name: "Env: Redis connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: StatusFail, Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: StatusFail, Note: err.Error()}
				}
				return Result{Status: StatusPass}
			},
		},
		{
			Name: "Migration: apply (optional)",
			Run: func(_ context.Context, r *Runner) Result {
				if !r.cfg.ApplyMigration {
					return Result{Status: StatusSkip, Note: "apply-migration=false"}
				}
				if err := infra.Migrate(r.cfg.DSN); err != nil {
					return Result{Status: StatusFail, Note: err.Error()}
				}
				return Result{Status: StatusPass}
			},
		},
		{
			Name: "Migration: tables exist",
			Run:  tablesExist,
		},
		httpCase("API: health", http.MethodGet, base+"/health", nil, false, []int{200}),
		httpCase("API: metrics", http.MethodGet, base+"/metrics", nil, false, []int{200}),
		httpCase("API: auth required", http.MethodPost, base+"/api/routes/optimize",
			map[string]any{"stops": sampleStops}, false, []int{401}),

		httpCase("Route: optimize (valid)", http.MethodPost, base+"/api/routes/optimize",
			map[string]any{"stops": sampleStops}, true, []int{200}),
		httpCase("Route: optimize (empty is a no-op)", http.MethodPost, base+"/api/routes/optimize",
			map[string]any{"stops": []any{}}, true, []int{200}),
		httpCase("Route: optimize (malformed -> 400)", http.MethodPost, base+"/api/routes/optimize",
			map[string]any{"stops": "north first"}, true, []int{400}),
		httpCase("Route: day (bad date or foreign landscaper)", http.MethodGet, base+"/api/landscapers/bench/routes/not-a-date",
			nil, true, []int{400, 403}),

		httpCase("Match: find by location", http.MethodPost, base+"/api/matches", map[string]any{
			"service_type": "lawn_mowing",
			"location":     map[string]any{"lat": 39.9526, "lng": -75.1652},
			"limit":        5,
		}, true, []int{200, 503}),
		httpCase("Match: invalid location (-> 400)", http.MethodPost, base+"/api/matches", map[string]any{
			"location": map[string]any{"lat": 123.0, "lng": 0},
		}, true, []int{400}),

		httpCase("Tracking: unknown session (-> 404)", http.MethodGet, base+"/api/tracking/sessions/does-not-exist",
			nil, true, []int{404}),
		httpCase("Tracking: start without job (-> 400)", http.MethodPost, base+"/api/tracking/sessions",
			map[string]any{}, true, []int{400}),

		{
			Name: "Perf: health throughput",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, http.MethodGet, base+"/health", nil, false)
			},
		},
		{
			Name: "Perf: optimize throughput",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.cfg.Token == "" {
					return Result{Status: StatusSkip, Note: "no token"}
				}
				return perfLoad(ctx, r, http.MethodPost, base+"/api/routes/optimize",
					map[string]any{"stops": sampleStops}, true)
			},
		},
	}
}

func tablesExist(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: StatusFail, Note: "db not configured"}
	}
	tables, err := infra.MigrationTables()
	if err != nil {
		return Result{Status: StatusFail, Note: err.Error()}
	}
	for _, t := range tables {
		var exists bool
		err := r.db.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)", t,
		).Scan(&exists)
		if err != nil {
			return Result{Status: StatusFail, Note: err.Error()}
		}
		if !exists {
			return Result{Status: StatusFail, Note: "missing table: " + t}
		}
	}
	return Result{Status: StatusPass, Note: fmt.Sprintf("%d tables", len(tables))}
}

func (r *Runner) newRequest(ctx context.Context, method, url string, body any, auth bool) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+r.cfg.Token)
	}
	return req, nil
}

// httpCase expects one of okStatuses. Authenticated cases are skipped without a token;
// a 404 on a route that should exist is reported as pending.
func httpCase(name, method, url string, body any, auth bool, okStatuses []int) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			if auth && r.cfg.Token == "" {
				return Result{Status: StatusSkip, Note: "no token"}
			}
			req, err := r.newRequest(ctx, method, url, body, auth)
			if err != nil {
				return Result{Status: StatusFail, Note: err.Error()}
			}
			start := time.Now()
			resp, err := r.httpc.Do(req)
			if err != nil {
				return Result{Status: StatusFail, Note: err.Error()}
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			latency := time.Since(start)

			note := fmt.Sprintf("status=%d", resp.StatusCode)
			switch {
			case slices.Contains(okStatuses, resp.StatusCode):
				return Result{Status: StatusPass, Latency: latency, Note: note}
			case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNotImplemented:
				return Result{Status: StatusPending, Latency: latency, Note: note}
			default:
				return Result{Status: StatusFail, Latency: latency, Note: note}
			}
		},
	}
}

func perfLoad(ctx context.Context, r *Runner, method, url string, payload any, auth bool) Result {
	end := time.Now().Add(r.cfg.Duration)
	var count, errCount atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				req, err := r.newRequest(ctx, method, url, payload, auth)
				if err != nil {
					errCount.Add(1)
					return
				}
				resp, err := r.httpc.Do(req)
				if err != nil {
					errCount.Add(1)
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
				if resp.StatusCode >= 400 {
					errCount.Add(1)
					continue
				}
				count.Add(1)
			}
		}()
	}
	wg.Wait()

	if count.Load() == 0 {
		return Result{Status: StatusFail, Note: fmt.Sprintf("no requests completed, errors=%d", errCount.Load())}
	}
	rps := float64(count.Load()) / r.cfg.Duration.Seconds()
	return Result{Status: StatusPass, Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount.Load())}
}

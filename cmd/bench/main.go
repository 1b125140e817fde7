// README: Smoke and load runner for a deployed greenroute stack; checks Postgres, Redis, and the HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"greenroute/internal/config"
)

func main() {
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	bench := NewRunner(cfg)
	results := bench.RunAll(ctx)

	fmt.Println("\n== Summary ==")
	counts := summarize(results)
	fmt.Printf("PASS=%d FAIL=%d PENDING=%d SKIP=%d\n",
		counts[StatusPass], counts[StatusFail], counts[StatusPending], counts[StatusSkip])

	if counts[StatusFail] > 0 || (cfg.Strict && counts[StatusPending] > 0) {
		os.Exit(1)
	}
}

type Config struct {
	BaseURL        string
	Token          string
	DSN            string
	RedisAddr      string
	ApplyMigration bool
	Strict         bool
	Timeout        time.Duration
	Concurrency    int
	Duration       time.Duration
}

func loadConfig() Config {
	app, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	var cfg Config
	flag.StringVar(&cfg.BaseURL, "base-url", envOrDefault("GREENROUTE_BENCH_BASE_URL", "http://localhost:8080"), "API base URL")
	flag.StringVar(&cfg.Token, "token", os.Getenv("GREENROUTE_BENCH_TOKEN"), "Firebase ID token for /api routes")
	flag.StringVar(&cfg.DSN, "dsn", app.DB.DSN, "Postgres DSN")
	flag.StringVar(&cfg.RedisAddr, "redis", app.Redis.Addr, "Redis address")
	flag.BoolVar(&cfg.ApplyMigration, "apply-migration", false, "Apply embedded migrations before checks")
	flag.BoolVar(&cfg.Strict, "strict", false, "Fail on pending checks")
	flag.DurationVar(&cfg.Timeout, "timeout", 60*time.Second, "Total timeout")
	flag.IntVar(&cfg.Concurrency, "concurrency", 20, "Concurrent clients for load checks")
	flag.DurationVar(&cfg.Duration, "duration", 10*time.Second, "Duration of each load check")
	flag.Parse()
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func summarize(results []Result) map[Status]int {
	counts := make(map[Status]int)
	for _, r := range results {
		counts[r.Status]++
	}
	return counts
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lumera-labs/lumera-streams/pkg/cache"
	"github.com/lumera-labs/lumera-streams/pkg/config"
	"github.com/lumera-labs/lumera-streams/pkg/httpserver"
	"github.com/lumera-labs/lumera-streams/pkg/ledger"
	"github.com/lumera-labs/lumera-streams/pkg/logging"
	"github.com/lumera-labs/lumera-streams/pkg/metrics"
	"github.com/lumera-labs/lumera-streams/pkg/wallet"
)

var (
	GitTag    = "dev"
	GitCommit = "unknown"
)

func main() {
	var (
		cfgPath    = flag.String("config", getEnv("STREAMS_CONFIG", ""), "Path to YAML config file")
		addr       = flag.String("addr", getEnv("STREAMS_HTTP_ADDR", ""), "HTTP listen address")
		nodeURL    = flag.String("node", getEnv("STREAMS_NODE_URL", ""), "Fullnode REST base URL")
		moduleAddr = flag.String("module", getEnv("STREAMS_MODULE_ADDRESS", ""), "Address that published the streaming module")
		redisAddr  = flag.String("redis", getEnv("STREAMS_REDIS_ADDR", ""), "Redis address for the shared event-log cache")
		logLevel   = flag.String("log-level", getEnv("STREAMS_LOG_LEVEL", ""), "debug|info|warn|error")
	)
	flag.Parse()

	cfg, err := config.Read(*cfgPath)
	if err != nil {
		slog.Error("config load failed", "path", *cfgPath, "err", err)
		os.Exit(1)
	}
	override(&cfg.HTTP.Addr, *addr)
	override(&cfg.Node.URL, *nodeURL)
	override(&cfg.Module.Address, *moduleAddr)
	override(&cfg.Cache.Redis.Addr, *redisAddr)
	override(&cfg.Logging.Level, *logLevel)
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		slog.Error("config invalid", "err", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("lumera streams API stopped", "err", err)
		os.Exit(1)
	}
}

// run owns every resource that needs closing, so all deferred closes happen before main exits.
func run(cfg *config.Config) error {
	logger, logCloser, err := logging.Setup(cfg.Logging)
	if err != nil {
		return fmt.Errorf("logging setup: %w", err)
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := ledger.NewClient(cfg.Node.URL, &http.Client{Timeout: cfg.Node.Timeout}, ledger.Module{
		Address:         cfg.Module.Address,
		Name:            cfg.Module.Name,
		ResourceAccount: cfg.Module.ResourceAccount,
	}).WithEventLimit(cfg.Events.Limit)

	logs, logsCloser := openLogStore(ctx, cfg)
	defer logsCloser.Close()

	m := metrics.New()
	computer := wallet.NewComputer(client, wallet.Options{Logs: logs, Symbol: cfg.Token.Symbol, Metrics: m})

	c := cache.NewSnapshotCache(computer, cache.Options{TTL: cfg.Cache.TTL})
	if len(cfg.Stream.Accounts) > 0 {
		go c.RunRefresher(ctx, cfg.Stream.Accounts, cfg.Cache.TTL)
	}

	srv := httpserver.New(httpserver.Config{
		Cache:      c,
		History:    computer,
		Metrics:    m,
		Symbol:     cfg.Token.Symbol,
		RatePerMin: cfg.HTTP.RatePerMin,
		Burst:      cfg.HTTP.Burst,
		Tick:       cfg.Stream.Tick,
	})
	go srv.Limiter().RunPruner(ctx.Done(), time.Minute, 3*time.Minute)

	hs := &http.Server{Addr: cfg.HTTP.Addr, Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdownCtx)
	}()

	logger.Info("lumera streams API listening",
		"addr", cfg.HTTP.Addr, "node", cfg.Node.URL, "module", cfg.Module.Address,
		"git_tag", GitTag, "git_commit", GitCommit)
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// openLogStore prefers Redis when configured and falls back to process memory.
func openLogStore(ctx context.Context, cfg *config.Config) (cache.LogStore, io.Closer) {
	if cfg.Cache.Redis.Addr != "" {
		rs, err := cache.NewRedisLogStore(ctx, cache.RedisConfig{
			Addr:      cfg.Cache.Redis.Addr,
			Password:  cfg.Cache.Redis.Password,
			DB:        cfg.Cache.Redis.DB,
			KeyPrefix: cfg.Cache.Redis.KeyPrefix,
			TTL:       cfg.Cache.TTL,
		})
		if err == nil {
			return rs, rs
		}
		slog.Warn("redis event cache unavailable, using memory", "addr", cfg.Cache.Redis.Addr, "err", err)
	}
	return cache.NewMemoryLogStore(cfg.Cache.TTL, nil), nopCloser{}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

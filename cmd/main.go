package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/techwolf/example-api/internal/adapters/http/api"
	"github.com/techwolf/example-api/internal/adapters/http/swagger"
	"github.com/techwolf/example-api/internal/adapters/ratelimit"
	"github.com/techwolf/example-api/internal/config"
	"github.com/techwolf/example-api/pkg/logger"
	"github.com/techwolf/example-api/pkg/metrics"
)

// HTTP server constants not exposed through config.
const (
	readHeaderTimeout = 5 * time.Second
	sweepInterval     = time.Minute
	redisKeyPrefix    = "example-api:ratelimit:"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	if err := logger.InitWithOptions(logger.WithFormat(cfg.LogFormat)); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	manager, gatherer := newMetrics(cfg)
	go manager.StartSystemUpdater(ctx)

	limiter, err := newLimiter(ctx, cfg, manager)
	if err != nil {
		log.Error(ctx, "failed to set up rate limiter", logger.Error(err))
		return 1
	}
	if limiter != nil {
		defer func() {
			if err := limiter.Close(); err != nil {
				log.Warn(ctx, "rate limiter close failed", logger.Error(err))
			}
		}()
		log.Info(ctx, "rate limiting enabled",
			logger.String("backend", limiter.Backend()),
			logger.Int("requests", cfg.RateLimitRequests),
			logger.Int("token_requests", cfg.RateLimitTokenRequests),
			logger.Int("api_keys", len(cfg.APIKeys())),
			logger.Duration("window", cfg.RateLimitWindow()))
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, log, manager, gatherer, limiter),
		ReadTimeout:       cfg.ReadTimeout(),
		WriteTimeout:      cfg.WriteTimeout(),
		IdleTimeout:       cfg.IdleTimeout(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal or a listener failure
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			return 1
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return 1
	}

	log.Info(ctx, "server stopped")
	return 0
}

// newMetrics returns the global manager, or a disabled one on an empty
// registry when metrics are turned off.
func newMetrics(cfg *config.Config) (*metrics.Manager, prometheus.Gatherer) {
	if cfg.MetricsEnabled {
		return metrics.Default(), metrics.GetRegistry()
	}
	registry := prometheus.NewRegistry()
	return metrics.NewManager(metrics.WithMetricsEnabled(false), metrics.WithPrometheusRegistry(registry)), registry
}

// newLimiter builds the configured limiter. It returns nil when rate
// limiting is disabled.
func newLimiter(ctx context.Context, cfg *config.Config, m *metrics.Manager) (*ratelimit.Limiter, error) {
	if !cfg.RateLimitEnabled {
		return nil, nil
	}

	var store ratelimit.Store
	switch cfg.RateLimitBackend {
	case config.BackendMemory:
		mem := ratelimit.NewMemoryStore()
		go mem.StartSweeper(ctx, sweepInterval)
		store = mem
	case config.BackendRedis:
		rs := ratelimit.NewRedisStore(ratelimit.NewRedisClient(ratelimit.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}), redisKeyPrefix)
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, err
		}
		store = rs
	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", cfg.RateLimitBackend)
	}

	return ratelimit.New(store,
		ratelimit.WithWindow(cfg.RateLimitWindow()),
		ratelimit.WithLimits(cfg.RateLimitRequests, cfg.RateLimitTokenRequests),
		ratelimit.WithAPIKeys(cfg.APIKeys()...),
		ratelimit.WithMetrics(m),
	), nil
}

// newHandler wires docs and API routes onto a fresh mux and applies the
// middleware chain.
func newHandler(ctx context.Context, log logger.Logger, m *metrics.Manager, g prometheus.Gatherer, limiter *ratelimit.Limiter) http.Handler {
	mux := http.NewServeMux()

	swagger.Register(ctx, mux)

	opts := []api.Option{api.WithLogger(log), api.WithMetrics(m, g)}
	if limiter != nil {
		opts = append(opts, api.WithRateLimiter(limiter))
	}
	server := api.NewServer(opts...)
	server.Register(ctx, mux)

	return server.Wrap(mux)
}

package fx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/sp3dr4/finch/config"
	"github.com/sp3dr4/finch/internal/cache"
	"github.com/sp3dr4/finch/internal/domain"
	"github.com/sp3dr4/finch/internal/infrastructure/issuerhttp"
	"github.com/sp3dr4/finch/internal/infrastructure/memory"
	"github.com/sp3dr4/finch/internal/pkg/metrics"
)

// ProvideLogger creates and configures the application logger
func ProvideLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// ProvideClock provides the wall clock. Tests substitute a mock.
func ProvideClock() clock.Clock {
	return clock.New()
}

// ProvideIssuer creates the appropriate issuer based on configuration
func ProvideIssuer(cfg *config.Config, logger *slog.Logger) (domain.Issuer, error) {
	switch cfg.Issuer.Mode {
	case "memory":
		logger.Info("Using in-memory issuer")
		return memory.NewIssuer(cfg.Cache.DefaultExpirySeconds), nil

	case "http":
		if cfg.Issuer.BaseURL == "" {
			return nil, fmt.Errorf("issuer.base_url is required in http mode")
		}
		logger.Info("Using HTTP issuer", "base_url", cfg.Issuer.BaseURL, "resource", cfg.Issuer.Resource)
		return issuerhttp.NewClient(
			cfg.Issuer.BaseURL,
			cfg.Issuer.Resource,
			cfg.Issuer.TimeoutDuration(10*time.Second),
			logger,
		), nil

	default:
		return nil, fmt.Errorf("unsupported issuer mode: %s", cfg.Issuer.Mode)
	}
}

// ProvideCache creates the refresh-ahead URL cache
func ProvideCache(
	cfg *config.Config,
	issuer domain.Issuer,
	logger *slog.Logger,
	registry metrics.Registry,
	clk clock.Clock,
) *cache.Cache {
	return cache.New(issuer, cache.Config{
		Debounce:         cfg.Cache.DebounceDuration(cache.DefaultDebounce),
		MaxBatchSize:     cfg.Cache.MaxBatchSize,
		MaxRetries:       cfg.Cache.MaxRetries,
		RefreshThreshold: cfg.Cache.RefreshThreshold,
		DefaultExpiry:    time.Duration(cfg.Cache.DefaultExpirySeconds) * time.Second,
	}, logger, registry, clk)
}

// ProvideMetricsRegistry creates the metrics registry based on configuration
func ProvideMetricsRegistry(cfg *config.Config) (metrics.Registry, error) {
	if !cfg.Metrics.Enabled {
		return metrics.NewNoOpRegistry(), nil
	}
	return metrics.NewPrometheusRegistry(cfg.Metrics)
}

// CacheParams holds the parameters needed for cache lifecycle management
type CacheParams struct {
	fx.In

	Cache  *cache.Cache
	Logger *slog.Logger
}

// RegisterCacheHooks registers cache teardown with FX
func RegisterCacheHooks(lc fx.Lifecycle, params CacheParams) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := params.Cache.Close(); err != nil {
				params.Logger.Error("Failed to close URL cache", "error", err)
				return err
			}
			params.Logger.Info("URL cache torn down")
			return nil
		},
	})
}

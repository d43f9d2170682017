package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/janhq/support-chat/internal/config"
	"github.com/janhq/support-chat/internal/infrastructure/cache"
	"github.com/janhq/support-chat/internal/infrastructure/database"
	"github.com/janhq/support-chat/internal/infrastructure/historycache"
	"github.com/janhq/support-chat/internal/infrastructure/ratelimit"
	"github.com/janhq/support-chat/pkg/observability"
)

// Infrastructure owns every long-lived connection of the process. It is built
// once in main and torn down with Shutdown.
type Infrastructure struct {
	DB           *gorm.DB
	Redis        redis.UniversalClient
	HistoryCache *historycache.Cache
	Limiter      *ratelimit.Limiter
	Tracing      *observability.Provider
	Logger       zerolog.Logger
}

// New connects the store, runs migrations when enabled and prepares (but does
// not probe) the cache and rate limit backends.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Infrastructure, error) {
	infra := &Infrastructure{Logger: log}

	tracing, err := observability.Init(ctx, observability.Config{
		ServiceName:       cfg.ServiceName,
		ServiceVersion:    "unknown",
		Environment:       cfg.Environment,
		TracingEnabled:    cfg.TracingEnabled,
		OTLPEndpoint:      cfg.OTLPEndpoint,
		SamplingRate:      cfg.TraceSamplingRate,
		TraceBatchTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	infra.Tracing = tracing

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
	})
	if err != nil {
		_ = infra.Shutdown(ctx)
		return nil, err
	}
	infra.DB = db

	if cfg.AutoMigrate {
		log.Info().Msg("running database migrations")
		if err := database.AutoMigrate(ctx, db, log); err != nil {
			_ = infra.Shutdown(ctx)
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	if cfg.UsesRedis() {
		client, err := cache.NewRedisClient(cfg.RedisURL, cfg.CacheOpTimeout)
		if err != nil {
			_ = infra.Shutdown(ctx)
			return nil, err
		}
		infra.Redis = client
	}

	backend, err := newHistoryBackend(cfg, infra.Redis)
	if err != nil {
		_ = infra.Shutdown(ctx)
		return nil, err
	}
	infra.HistoryCache = historycache.New(backend, historycache.Options{
		DefaultTTL:     cfg.HistoryCacheTTL,
		OpTimeout:      cfg.CacheOpTimeout,
		HealthInterval: cfg.CacheHealthInterval,
	}, log)

	var counter ratelimit.Counter = ratelimit.NewMemoryCounter()
	if cfg.RateLimitBackend == "redis" && infra.Redis != nil {
		counter = ratelimit.NewRedisCounter(infra.Redis, cfg.CacheOpTimeout)
	}
	infra.Limiter = ratelimit.NewLimiter(counter, cfg.RateLimitRequests, cfg.RateLimitWindow, log)

	return infra, nil
}

func newHistoryBackend(cfg *config.Config, client redis.UniversalClient) (cache.Backend, error) {
	switch cfg.HistoryCacheType {
	case config.CacheTypeRedis:
		if client == nil {
			return nil, errors.New("redis history cache requires a redis client")
		}
		return cache.NewRedisBackend(client), nil
	case config.CacheTypeMemory:
		return cache.NewMemoryBackend(cfg.HistoryCacheMaxEntries)
	default:
		return nil, nil
	}
}

// Init probes the cache and starts its health monitor. It never fails: an
// unreachable cache only degrades reads to the store.
func (i *Infrastructure) Init(ctx context.Context) {
	if i.HistoryCache != nil {
		i.HistoryCache.Init(ctx)
	}
}

// IsAvailable reports the history cache availability.
func (i *Infrastructure) IsAvailable() bool {
	return i.HistoryCache != nil && i.HistoryCache.IsAvailable()
}

// Ready checks the store. The cache is optional and never makes the service unready.
func (i *Infrastructure) Ready(ctx context.Context) error {
	if i.DB == nil {
		return errors.New("database not connected")
	}
	return database.Ping(ctx, i.DB)
}

// Shutdown stops background work and closes connections in reverse order.
func (i *Infrastructure) Shutdown(ctx context.Context) error {
	var errs []error

	if i.HistoryCache != nil {
		i.HistoryCache.Shutdown()
	}
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if i.DB != nil {
		if err := database.Close(i.DB); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if i.Tracing != nil {
		if err := i.Tracing.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
		}
	}
	return errors.Join(errs...)
}

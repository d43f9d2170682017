package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	CacheTypeRedis  = "redis"
	CacheTypeMemory = "memory"
	CacheTypeNone   = "none"

	minHistoryCacheTTL = time.Second
	maxHistoryCacheTTL = time.Minute
)

// Config holds the environment driven configuration for the support chat service.
type Config struct {
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"support-chat"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"console"`
	LogPIILevel     string        `env:"LOG_PII_LEVEL" envDefault:"hashed"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	MaxBodyBytes    int64         `env:"MAX_BODY_BYTES" envDefault:"20480"`

	// PostgreSQL
	DatabaseURL    string        `env:"DATABASE_URL,notEmpty"`
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	AutoMigrate    bool          `env:"AUTO_MIGRATE" envDefault:"true"`

	// History cache
	RedisEnabled           bool          `env:"REDIS_ENABLED" envDefault:"false"`
	RedisURL               string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	HistoryCacheType       string        `env:"HISTORY_CACHE_TYPE"`
	HistoryCacheTTL        time.Duration `env:"HISTORY_CACHE_TTL" envDefault:"15s"`
	HistoryCacheMaxEntries int           `env:"HISTORY_CACHE_MAX_ENTRIES" envDefault:"10000"`
	CacheOpTimeout         time.Duration `env:"CACHE_OP_TIMEOUT" envDefault:"250ms"`
	CacheHealthInterval    time.Duration `env:"CACHE_HEALTH_INTERVAL" envDefault:"10s"`

	// Completion provider
	CompletionBaseURL  string        `env:"COMPLETION_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	CompletionAPIKey   string        `env:"COMPLETION_API_KEY"`
	CompletionModel    string        `env:"COMPLETION_MODEL" envDefault:"llama-3.3-70b-versatile"`
	CompletionTimeout  time.Duration `env:"COMPLETION_TIMEOUT" envDefault:"20s"`

	CompletionBreakerThreshold uint32        `env:"COMPLETION_BREAKER_THRESHOLD" envDefault:"5"`
	CompletionBreakerCooldown  time.Duration `env:"COMPLETION_BREAKER_COOLDOWN" envDefault:"30s"`
	PromptFile         string        `env:"PROMPT_FILE"`
	PromptHistoryLimit int           `env:"PROMPT_HISTORY_LIMIT" envDefault:"20"`
	HistoryMaxMessages int           `env:"HISTORY_MAX_MESSAGES" envDefault:"200"`

	// Boundary
	RateLimitRequests  int           `env:"RATE_LIMIT_REQUESTS" envDefault:"20"`
	RateLimitWindow    time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"60s"`
	RateLimitBackend   string        `env:"RATE_LIMIT_BACKEND" envDefault:"memory"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	// TrustedProxies lists the peers (IPs or CIDRs) whose X-Forwarded-For is
	// honoured when resolving the client address. Empty trusts none.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	// Tracing
	TracingEnabled    bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint      string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TraceSamplingRate float64 `env:"TRACE_SAMPLING_RATE" envDefault:"1.0"`
}

// Load parses environment variables into Config and performs minimal validation.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.LogPIILevel = strings.ToLower(strings.TrimSpace(c.LogPIILevel))

	if c.CompletionAPIKey == "" {
		// GROQ_API_KEY is the older name for the same setting
		c.CompletionAPIKey = strings.TrimSpace(os.Getenv("GROQ_API_KEY"))
	}

	c.HistoryCacheType = strings.ToLower(strings.TrimSpace(c.HistoryCacheType))
	if c.HistoryCacheType == "" {
		c.HistoryCacheType = CacheTypeNone
		if c.RedisEnabled {
			c.HistoryCacheType = CacheTypeRedis
		}
	}
	switch c.HistoryCacheType {
	case CacheTypeRedis, CacheTypeMemory, CacheTypeNone:
	default:
		return fmt.Errorf("HISTORY_CACHE_TYPE must be one of redis, memory, none: got %q", c.HistoryCacheType)
	}
	if c.HistoryCacheType == CacheTypeRedis && strings.TrimSpace(c.RedisURL) == "" {
		return fmt.Errorf("REDIS_URL is required when HISTORY_CACHE_TYPE is redis")
	}

	if c.HistoryCacheTTL < minHistoryCacheTTL {
		c.HistoryCacheTTL = minHistoryCacheTTL
	}
	if c.HistoryCacheTTL > maxHistoryCacheTTL {
		c.HistoryCacheTTL = maxHistoryCacheTTL
	}
	if c.HistoryCacheMaxEntries <= 0 {
		c.HistoryCacheMaxEntries = 10000
	}

	c.RateLimitBackend = strings.ToLower(strings.TrimSpace(c.RateLimitBackend))
	switch c.RateLimitBackend {
	case "memory":
	case "redis":
		if strings.TrimSpace(c.RedisURL) == "" {
			return fmt.Errorf("REDIS_URL is required when RATE_LIMIT_BACKEND is redis")
		}
	default:
		return fmt.Errorf("RATE_LIMIT_BACKEND must be memory or redis: got %q", c.RateLimitBackend)
	}
	if c.RateLimitRequests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive")
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}

	proxies := make([]string, 0, len(c.TrustedProxies))
	for _, proxy := range c.TrustedProxies {
		proxy = strings.TrimSpace(proxy)
		if proxy == "" {
			continue
		}
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				return fmt.Errorf("TRUSTED_PROXIES entry %q is not an IP or CIDR", proxy)
			}
		}
		proxies = append(proxies, proxy)
	}
	c.TrustedProxies = proxies

	if c.PromptHistoryLimit <= 0 {
		c.PromptHistoryLimit = 20
	}
	if c.HistoryMaxMessages <= 0 {
		c.HistoryMaxMessages = 200
	}
	if c.CompletionTimeout <= 0 {
		c.CompletionTimeout = 20 * time.Second
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// UsesRedis reports whether any component needs a redis connection.
func (c *Config) UsesRedis() bool {
	return c.HistoryCacheType == CacheTypeRedis || c.RateLimitBackend == "redis"
}

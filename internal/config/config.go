// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/amped/longevity/internal/domain/impact"
	"github.com/amped/longevity/internal/domain/model"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// ImpactOverride replaces selected calibration values for one metric type.
// Unset fields keep the built-in calibration.
type ImpactOverride struct {
	NeutralValue   *float64 `koanf:"neutral_value"`
	Coefficient    *float64 `koanf:"coefficient"`
	MinImpact      *float64 `koanf:"min_impact"`
	MaxImpact      *float64 `koanf:"max_impact"`
	Threshold      *float64 `koanf:"threshold"`
	PenaltyMinutes *float64 `koanf:"penalty_minutes"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DefaultBaselineYears is used when age or gender is missing.
	DefaultBaselineYears float64 `koanf:"default_baseline_years"`

	// CacheBackend selects the impact memo: memory, redis or none.
	CacheBackend string `koanf:"cache_backend"`

	// CacheSize bounds the in-memory memo. Zero or less means unbounded.
	CacheSize int `koanf:"cache_size"`

	RedisAddr       string `koanf:"redis_addr"`
	RedisPassword   string `koanf:"redis_password"`
	RedisDB         int    `koanf:"redis_db"`
	CacheTTLSeconds int    `koanf:"cache_ttl_seconds"`

	// MaxMetricsPerRequest caps the metrics accepted by one API call.
	MaxMetricsPerRequest int `koanf:"max_metrics_per_request"`

	// RateLimitRPS enables token-bucket limiting on the API when positive.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// ImpactOverrides maps metric type names to calibration overrides.
	ImpactOverrides map[string]ImpactOverride `koanf:"impact_overrides"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		DefaultBaselineYears: 78,
		CacheBackend:         CacheMemory,
		CacheSize:            50_000,
		RedisAddr:            "localhost:6379",
		CacheTTLSeconds:      86_400,
		MaxMetricsPerRequest: 1000,
		RateLimitBurst:       20,
	}
}

// Validate reports the first invalid field wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case math.IsNaN(c.DefaultBaselineYears) || c.DefaultBaselineYears <= 0 || c.DefaultBaselineYears > 150:
		return fmt.Errorf("%w: default_baseline_years must be in (0, 150]", ErrInvalidConfig)
	case c.MaxMetricsPerRequest <= 0:
		return fmt.Errorf("%w: max_metrics_per_request must be positive", ErrInvalidConfig)
	case c.RateLimitRPS < 0:
		return fmt.Errorf("%w: rate_limit_rps must not be negative", ErrInvalidConfig)
	case c.RateLimitRPS > 0 && c.RateLimitBurst <= 0:
		return fmt.Errorf("%w: rate_limit_burst must be positive when rate limiting", ErrInvalidConfig)
	case c.CacheTTLSeconds < 0:
		return fmt.Errorf("%w: cache_ttl_seconds must not be negative", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	}

	switch c.CacheBackend {
	case CacheMemory, CacheNone:
	case CacheRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis_addr is required for the redis cache", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown cache_backend %q", ErrInvalidConfig, c.CacheBackend)
	}

	if _, err := c.ImpactTable(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ImpactTable builds the dose-response table with overrides applied.
func (c *Config) ImpactTable() (*impact.Table, error) {
	if len(c.ImpactOverrides) == 0 {
		return impact.DefaultTable(), nil
	}
	overrides := make(map[model.MetricType]impact.Override, len(c.ImpactOverrides))
	for name, o := range c.ImpactOverrides {
		mt, ok := model.ParseMetricType(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidOverride, name, impact.ErrUnknownMetric)
		}
		overrides[mt] = impact.Override{
			NeutralValue:   o.NeutralValue,
			Coefficient:    o.Coefficient,
			MinImpact:      o.MinImpact,
			MaxImpact:      o.MaxImpact,
			Threshold:      o.Threshold,
			PenaltyMinutes: o.PenaltyMinutes,
		}
	}
	table, err := impact.NewTable(overrides)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOverride, err)
	}
	return table, nil
}

// Package app wires the domain components into the engine facade used by the
// HTTP API and the CLI.
package app

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/amped/longevity/internal/domain/aggregate"
	"github.com/amped/longevity/internal/domain/baseline"
	"github.com/amped/longevity/internal/domain/impact"
	"github.com/amped/longevity/internal/domain/memo"
	"github.com/amped/longevity/internal/domain/model"
	"github.com/amped/longevity/internal/domain/projection"
	"github.com/amped/longevity/internal/domain/recommend"
	"github.com/amped/longevity/pkg/logger"
	"github.com/amped/longevity/pkg/metrics"
)

// Engine computes impacts, projections and recommendations. It holds no
// per-user state and is safe for concurrent use.
type Engine struct {
	model     *impact.Model
	baseline  *baseline.Adjuster
	projector *projection.Projector

	cache        memo.Cache
	cacheBackend string
	logger       logger.Logger
	metrics      *metrics.Manager
	clock        func() time.Time

	table           *impact.Table
	defaultBaseline float64

	startedAt    time.Time
	calculations sync.Map // operation -> *atomic.Int64

	cacheMu    sync.Mutex
	seenHits   int64
	seenMisses int64
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTable sets the dose-response table.
func WithTable(t *impact.Table) Option {
	return func(e *Engine) {
		if t != nil {
			e.table = t
		}
	}
}

// WithDefaultBaseline sets the baseline used when age or gender is missing.
func WithDefaultBaseline(years float64) Option {
	return func(e *Engine) {
		e.defaultBaseline = years
	}
}

// WithCache sets the impact memo. backend names it in stats.
func WithCache(c memo.Cache, backend string) Option {
	return func(e *Engine) {
		e.cache = c
		e.cacheBackend = backend
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.clock = now
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// New constructs an Engine. Without options it uses the built-in calibration,
// no memo and the global metrics manager.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:          logger.Nop(),
		metrics:         metrics.Default(),
		clock:           time.Now,
		table:           impact.DefaultTable(),
		defaultBaseline: baseline.DefaultLifeExpectancyYears,
		cacheBackend:    "none",
	}
	for _, opt := range opts {
		opt(e)
	}

	e.model = impact.NewModel(impact.WithTable(e.table))
	e.baseline = baseline.NewAdjuster(baseline.WithDefaultYears(e.defaultBaseline))
	e.projector = projection.New(e.baseline, projection.WithClock(e.clock))
	e.startedAt = e.clock()
	return e
}

// evaluator returns the model decorated with the memo for one call.
func (e *Engine) evaluator(ctx context.Context) *memo.Evaluator {
	return memo.Wrap(ctx, e.model, e.cache)
}

// CalculateImpact returns the daily impact of one reading.
func (e *Engine) CalculateImpact(ctx context.Context, metric model.HealthMetric) model.ImpactValue {
	start := time.Now()
	v := e.evaluator(ctx).ImpactOf(metric)
	e.observe(metrics.OpImpact, 1, start)
	return v
}

// AggregateImpact returns the period-scoped impact of metrics.
func (e *Engine) AggregateImpact(ctx context.Context, ms []model.HealthMetric, period model.TimePeriod) model.LifeImpactData {
	start := time.Now()
	data := aggregate.New(e.evaluator(ctx)).Aggregate(ms, period)
	e.observe(metrics.OpAggregate, len(ms), start)
	return data
}

// DailyTotal returns the summed daily impact of metrics.
func (e *Engine) DailyTotal(ctx context.Context, ms []model.HealthMetric) float64 {
	return aggregate.New(e.evaluator(ctx)).DailyTotal(ms)
}

// Completeness derives the data-completeness signal from metrics.
func (e *Engine) Completeness(ctx context.Context, ms []model.HealthMetric) model.Completeness {
	return aggregate.New(e.evaluator(ctx)).Completeness(ms)
}

// ProjectLifespan projects the adjusted life expectancy for a sustained daily
// impact. A nil completeness yields the conservative default confidence.
func (e *Engine) ProjectLifespan(ctx context.Context, profile model.UserProfile, dailyTotalMinutes float64, completeness *model.Completeness) model.LifeProjection {
	start := time.Now()
	p := e.projector.Project(profile, dailyTotalMinutes, completeness)
	e.observe(metrics.OpProjection, 0, start)
	e.metrics.RecordProjection(p.NetImpactYears(), p.ConfidencePercentage)
	e.logger.Debug(ctx, "projection computed",
		logger.Float64("daily_minutes", dailyTotalMinutes),
		logger.Float64("baseline_years", p.BaselineLifeExpectancyYears),
		logger.Float64("net_years", p.NetImpactYears()),
	)
	return p
}

// ProjectFromMetrics projects from raw readings. When completeness is nil it
// is derived from the readings themselves.
func (e *Engine) ProjectFromMetrics(ctx context.Context, profile model.UserProfile, ms []model.HealthMetric, completeness *model.Completeness) model.LifeProjection {
	agg := aggregate.New(e.evaluator(ctx))
	if completeness == nil && len(ms) > 0 {
		c := agg.Completeness(ms)
		completeness = &c
	}
	return e.ProjectLifespan(ctx, profile, agg.DailyTotal(ms), completeness)
}

// Recommend picks the single most valuable metric to act on. ok is false when
// metrics holds nothing to recommend on.
func (e *Engine) Recommend(ctx context.Context, ms []model.HealthMetric, period model.TimePeriod) (model.Recommendation, bool) {
	start := time.Now()
	rec, tier, ok := recommend.New(e.evaluator(ctx)).RecommendWithTier(ms, period)
	e.observe(metrics.OpRecommendation, len(ms), start)
	if !ok {
		return model.Recommendation{}, false
	}
	e.metrics.RecordRecommendation(string(rec.Metric), tier.String())
	e.logger.Debug(ctx, "recommendation selected",
		logger.String("metric", string(rec.Metric)),
		logger.String("tier", tier.String()),
		logger.Float64("benefit_minutes", rec.BenefitMinutes),
	)
	return rec, true
}

// Table returns the calibration in use.
func (e *Engine) Table() *impact.Table {
	return e.table
}

// Stats is a point-in-time view of engine activity.
type Stats struct {
	Calculations         map[string]int64 `json:"calculations"`
	CacheBackend         string           `json:"cache_backend"`
	CacheEntries         int64            `json:"cache_entries"`
	CacheHits            int64            `json:"cache_hits"`
	CacheMisses          int64            `json:"cache_misses"`
	DefaultBaselineYears float64          `json:"default_baseline_years"`
	UptimeSeconds        float64          `json:"uptime_seconds"`
}

// GetStats returns engine statistics for monitoring.
func (e *Engine) GetStats() Stats {
	s := Stats{
		Calculations:         make(map[string]int64),
		CacheBackend:         e.cacheBackend,
		DefaultBaselineYears: e.baseline.DefaultYears(),
		UptimeSeconds:        math.Max(0, e.clock().Sub(e.startedAt).Seconds()),
	}
	e.calculations.Range(func(k, v any) bool {
		s.Calculations[k.(string)] = v.(*atomic.Int64).Load()
		return true
	})
	if e.cache != nil {
		s.CacheEntries = e.cache.Size()
		s.CacheHits, s.CacheMisses, _ = memo.Stats(e.cache)
	}
	return s
}

func (e *Engine) observe(op string, readings int, start time.Time) {
	counter, _ := e.calculations.LoadOrStore(op, new(atomic.Int64))
	counter.(*atomic.Int64).Add(1)
	e.metrics.RecordCalculation(op, readings, time.Since(start))
	e.syncCacheMetrics()
}

// syncCacheMetrics forwards memo hit and miss deltas since the last call.
func (e *Engine) syncCacheMetrics() {
	if e.cache == nil {
		return
	}
	hits, misses, ok := memo.Stats(e.cache)
	if !ok {
		return
	}
	e.cacheMu.Lock()
	dh, dm := hits-e.seenHits, misses-e.seenMisses
	e.seenHits, e.seenMisses = hits, misses
	e.cacheMu.Unlock()
	e.metrics.RecordCacheResult(dh, dm, e.cache.Size())
}

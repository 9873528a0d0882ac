package memo

import (
	"context"

	"github.com/amped/longevity/internal/domain/impact"
	"github.com/amped/longevity/internal/domain/model"
)

// Model is the impact model surface the Evaluator decorates.
type Model interface {
	Evaluate(mt model.MetricType, value float64) float64
	Clamp(mt model.MetricType, value float64) float64
	Table() *impact.Table
	Improve(mt model.MetricType, value float64) (float64, bool)
	ActionText(mt model.MetricType, current, improved float64) string
}

// Evaluator memoizes daily evaluations of an impact model for the lifetime
// of one request context. Results are identical to the wrapped model's.
type Evaluator struct {
	ctx   context.Context
	inner Model
	cache Cache
	table string
}

// Wrap decorates inner with cache. A nil cache passes calls straight through.
func Wrap(ctx context.Context, inner Model, cache Cache) *Evaluator {
	e := &Evaluator{ctx: ctx, inner: inner, cache: cache}
	if cache != nil {
		e.table = inner.Table().Fingerprint()
	}
	return e
}

// Evaluate returns the daily impact of value, consulting the cache first.
func (e *Evaluator) Evaluate(mt model.MetricType, value float64) float64 {
	if e.cache == nil {
		return e.inner.Evaluate(mt, value)
	}
	key := Key{Type: mt, Value: value, Table: e.table, Period: model.PeriodDay}
	if v, ok := e.cache.Get(e.ctx, key); ok {
		return v.LifespanImpactMinutes
	}
	minutes := e.inner.Evaluate(mt, value)
	e.cache.Put(e.ctx, key, model.NewImpactValue(minutes))
	return minutes
}

// ImpactOf evaluates a single reading.
func (e *Evaluator) ImpactOf(metric model.HealthMetric) model.ImpactValue {
	return model.NewImpactValue(e.Evaluate(metric.Type, metric.Value))
}

func (e *Evaluator) Clamp(mt model.MetricType, value float64) float64 {
	return e.inner.Clamp(mt, value)
}

func (e *Evaluator) Table() *impact.Table {
	return e.inner.Table()
}

func (e *Evaluator) Improve(mt model.MetricType, value float64) (float64, bool) {
	return e.inner.Improve(mt, value)
}

func (e *Evaluator) ActionText(mt model.MetricType, current, improved float64) string {
	return e.inner.ActionText(mt, current, improved)
}

// Package aggregate combines per-metric daily impacts into period-scoped
// summaries. Rate-based metrics are scaled by the period's day count;
// state-based metrics are evaluated at the period's representative state
// and never scaled.
package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/amped/longevity/internal/domain/impact"
	"github.com/amped/longevity/internal/domain/model"
)

// Evaluator is the slice of the impact model the aggregator depends on.
type Evaluator interface {
	Evaluate(mt model.MetricType, value float64) float64
	Clamp(mt model.MetricType, value float64) float64
	Table() *impact.Table
}

// Contribution is one metric type's share of an aggregate.
type Contribution struct {
	Type           model.MetricType
	Scaling        impact.Scaling
	Representative float64
	Readings       int
	DailyMinutes   float64
}

// PeriodMinutes scales the daily impact to period p according to Scaling.
func (c Contribution) PeriodMinutes(p model.TimePeriod) float64 {
	return ScaleForPeriod(c.Scaling, c.DailyMinutes, p)
}

// ScaleForPeriod extends a daily value to period p. Only rate-based values
// are multiplied by the day count.
func ScaleForPeriod(s impact.Scaling, daily float64, p model.TimePeriod) float64 {
	if s == impact.ScalingRate {
		return daily * p.Days()
	}
	return daily
}

// Aggregator groups readings by type and combines their impacts.
type Aggregator struct {
	model Evaluator
}

// New creates an aggregator over the given impact model.
func New(m Evaluator) *Aggregator {
	return &Aggregator{model: m}
}

// Aggregate returns the period-scoped impact of metrics. The result does not
// depend on the order of metrics.
func (a *Aggregator) Aggregate(metrics []model.HealthMetric, period model.TimePeriod) model.LifeImpactData {
	if _, ok := model.ParsePeriod(string(period)); !ok {
		period = model.PeriodDay
	}
	data := model.LifeImpactData{
		TimePeriod:          period,
		TotalImpact:         model.NeutralImpact(),
		MetricContributions: make(map[model.MetricType]model.ImpactValue),
	}

	total := 0.0
	for _, c := range a.Contributions(metrics) {
		minutes := c.PeriodMinutes(period)
		data.MetricContributions[c.Type] = model.NewImpactValue(minutes)
		total += minutes
	}
	data.TotalImpact = model.NewImpactValue(total)
	return data
}

// DailyTotal is the sum of each type's daily impact at its representative value.
func (a *Aggregator) DailyTotal(metrics []model.HealthMetric) float64 {
	total := 0.0
	for _, c := range a.Contributions(metrics) {
		total += c.DailyMinutes
	}
	return total
}

// Completeness derives the data-completeness signal from metrics: the number
// of known types with usable readings and the number of distinct UTC calendar
// days carrying a dated reading of a known type.
func (a *Aggregator) Completeness(metrics []model.HealthMetric) model.Completeness {
	table := a.model.Table()
	days := make(map[time.Time]struct{})
	for _, m := range metrics {
		if _, ok := table.Lookup(m.Type); !ok || m.Date.IsZero() || !finite(m.Value) {
			continue
		}
		d := m.Date.UTC()
		days[time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)] = struct{}{}
	}
	return model.Completeness{
		TrackedMetricTypes: len(a.Contributions(metrics)),
		HistoryDays:        len(days),
	}
}

// Contributions returns one entry per known metric type present in metrics,
// in canonical type order.
func (a *Aggregator) Contributions(metrics []model.HealthMetric) []Contribution {
	table := a.model.Table()
	groups := make(map[model.MetricType][]model.HealthMetric)
	for _, m := range metrics {
		if _, ok := table.Lookup(m.Type); !ok {
			continue
		}
		groups[m.Type] = append(groups[m.Type], m)
	}

	out := make([]Contribution, 0, len(groups))
	for _, mt := range model.AllMetricTypes {
		readings, ok := groups[mt]
		if !ok {
			continue
		}
		scaling := table.Classify(mt)
		rep, ok := a.representative(mt, scaling, readings)
		if !ok {
			continue
		}
		out = append(out, Contribution{
			Type:           mt,
			Scaling:        scaling,
			Representative: rep,
			Readings:       len(readings),
			DailyMinutes:   a.model.Evaluate(mt, rep),
		})
	}
	return out
}

// representative picks the value the model is evaluated at: the mean daily
// dose for rate-based metrics, the most recent state for state-based ones.
// Non-finite readings are skipped; ok is false when none remain.
func (a *Aggregator) representative(mt model.MetricType, s impact.Scaling, readings []model.HealthMetric) (float64, bool) {
	usable := make([]model.HealthMetric, 0, len(readings))
	for _, r := range readings {
		if finite(r.Value) {
			usable = append(usable, r)
		}
	}
	if len(usable) == 0 {
		return 0, false
	}

	if s == impact.ScalingRate {
		values := make([]float64, len(usable))
		for i, r := range usable {
			values[i] = a.model.Clamp(mt, r.Value)
		}
		// Fixed summation order keeps the mean bit-identical across input orders.
		sort.Float64s(values)
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values)), true
	}

	sort.Slice(usable, func(i, j int) bool {
		return newer(usable[i], usable[j])
	})
	return a.model.Clamp(mt, usable[0].Value), true
}

// newer orders readings latest first with ID then value as tie-breaks.
func newer(x, y model.HealthMetric) bool {
	if !x.Date.Equal(y.Date) {
		return x.Date.After(y.Date)
	}
	if x.ID != y.ID {
		return x.ID < y.ID
	}
	return x.Value < y.Value
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

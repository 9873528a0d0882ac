// Package impact maps a single health metric reading to its daily
// lifespan impact using table-driven dose–response profiles.
package impact

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/amped/longevity/internal/domain/model"
)

// Option applies a configuration option to the Model.
type Option func(*Model)

// WithTable sets the dose–response table.
func WithTable(t *Table) Option {
	return func(m *Model) {
		if t != nil {
			m.table = t
		}
	}
}

// Model evaluates metric readings against a Table. It holds no mutable
// state and is safe for concurrent use.
type Model struct {
	table *Table
}

// NewModel creates a model over the default table unless overridden.
func NewModel(opts ...Option) *Model {
	m := &Model{table: DefaultTable()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Table returns the table the model evaluates against.
func (m *Model) Table() *Table {
	return m.table
}

// ImpactOf returns the daily lifespan impact of one reading. It never fails:
// unknown types and non-finite values are neutral, out-of-domain values are
// clamped.
func (m *Model) ImpactOf(metric model.HealthMetric) model.ImpactValue {
	return model.NewImpactValue(m.Evaluate(metric.Type, metric.Value))
}

// Evaluate returns the daily impact minutes of value for mt.
func (m *Model) Evaluate(mt model.MetricType, value float64) float64 {
	p, ok := m.table.Lookup(mt)
	if !ok || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	v := p.Clamp(value)

	if p.Response == ResponseThreshold {
		return evaluateThreshold(p, v)
	}

	deviation := p.NeutralValue - v
	if p.HigherIsBetter {
		deviation = v - p.NeutralValue
	}
	return clamp(deviation*p.Coefficient, p.MinImpact, p.MaxImpact)
}

// Clamp bounds value to mt's domain. Unknown types pass through.
func (m *Model) Clamp(mt model.MetricType, value float64) float64 {
	p, ok := m.table.Lookup(mt)
	if !ok {
		return value
	}
	return p.Clamp(value)
}

// evaluateThreshold applies the piecewise smoking-style curve: nothing at or
// below the quit value, a light linear penalty up to the threshold and the
// fixed penalty beyond it.
func evaluateThreshold(p Profile, v float64) float64 {
	switch {
	case v <= p.QuitValue:
		return 0
	case v <= p.Threshold:
		return clamp(-(v-p.QuitValue)*p.Coefficient, p.MinImpact, p.MaxImpact)
	default:
		return clamp(p.PenaltyMinutes, p.MinImpact, p.MaxImpact)
	}
}

// Improve synthesizes a realistic improved value for mt. ok is false when
// mt has no profile.
func (m *Model) Improve(mt model.MetricType, value float64) (float64, bool) {
	p, ok := m.table.Lookup(mt)
	if !ok || math.IsNaN(value) || math.IsInf(value, 0) {
		return value, false
	}
	v := p.Clamp(value)
	imp := p.Improvement

	var next float64
	switch imp.Rule {
	case RuleStep:
		next = v + imp.DeltaAbove
		if v < imp.Pivot {
			next = v + imp.Delta
		}
	case RuleDeficit:
		next = v + imp.DeltaAbove
		if v < imp.Pivot {
			next = v + math.Min(imp.Target-v, imp.MaxStep)
		}
		if imp.Ceiling > 0 {
			next = math.Min(next, math.Max(v, imp.Ceiling))
		}
	case RuleReduce:
		next = v - clamp((v-imp.Pivot)*imp.Rate, imp.MinStep, imp.MaxStep)
	case RuleQuit:
		next = math.Min(v, p.QuitValue)
	default:
		next = nudge(v, imp.Rate, p.HigherIsBetter)
	}
	return p.Clamp(next), true
}

// ActionText renders the profile's action for a change from current to improved.
func (m *Model) ActionText(mt model.MetricType, current, improved float64) string {
	p, ok := m.table.Lookup(mt)
	if !ok {
		return fmt.Sprintf("Track your %s to unlock a recommendation", mt)
	}
	if !strings.Contains(p.ActionFormat, "%s") {
		return p.ActionFormat
	}
	delta := strconv.FormatFloat(math.Abs(improved-current), 'f', p.Decimals, 64)
	return fmt.Sprintf(p.ActionFormat, delta)
}

func nudge(v, rate float64, higherIsBetter bool) float64 {
	if rate <= 0 {
		return v
	}
	if higherIsBetter {
		if v == 0 {
			return 1
		}
		return v * (1 + rate)
	}
	return v * (1 - rate)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

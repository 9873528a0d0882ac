// Package recommend selects the single highest-value metric to act on and
// quotes the benefit of a realistic improvement.
package recommend

import (
	"sort"

	"github.com/amped/longevity/internal/domain/aggregate"
	"github.com/amped/longevity/internal/domain/impact"
	"github.com/amped/longevity/internal/domain/model"
)

// Benefit floors and fallbacks in lifespan minutes per day.
const (
	MinBenefitMinutes     = 1.0
	GenericBenefitMinutes = 5.0
)

// Tier records which selection rule picked the metric.
type Tier int

const (
	TierNone Tier = iota
	// TierWorstNegative fixes the largest negative impact first.
	TierWorstNegative
	// TierWeakestPositive raises the smallest positive habit.
	TierWeakestPositive
	// TierDiscovery prompts on a neutral metric.
	TierDiscovery
)

func (t Tier) String() string {
	switch t {
	case TierWorstNegative:
		return "worst_negative"
	case TierWeakestPositive:
		return "weakest_positive"
	case TierDiscovery:
		return "discovery"
	default:
		return "none"
	}
}

// Improver is the slice of the impact model the engine depends on.
type Improver interface {
	aggregate.Evaluator
	Improve(mt model.MetricType, value float64) (float64, bool)
	ActionText(mt model.MetricType, current, improved float64) string
}

// Engine produces recommendations. It is stateless and safe for concurrent use.
type Engine struct {
	model      Improver
	aggregator *aggregate.Aggregator
}

// New creates an engine over the given impact model.
func New(m Improver) *Engine {
	return &Engine{model: m, aggregator: aggregate.New(m)}
}

// Recommend picks one metric to act on. ok is false when metrics is empty or
// holds only readings without a type.
func (e *Engine) Recommend(metrics []model.HealthMetric, period model.TimePeriod) (model.Recommendation, bool) {
	rec, _, ok := e.RecommendWithTier(metrics, period)
	return rec, ok
}

// RecommendWithTier is Recommend that also reports the selection tier.
func (e *Engine) RecommendWithTier(metrics []model.HealthMetric, period model.TimePeriod) (model.Recommendation, Tier, bool) {
	if len(metrics) == 0 {
		return model.Recommendation{}, TierNone, false
	}
	if _, ok := model.ParsePeriod(string(period)); !ok {
		period = model.PeriodDay
	}

	scored := e.aggregator.Contributions(metrics)
	candidates := append(scored, e.unscored(metrics, scored)...)
	pick, tier, ok := Select(candidates)
	if !ok {
		return model.Recommendation{}, TierNone, false
	}

	benefit, improved := e.simulate(pick)
	return model.Recommendation{
		Metric:         pick.Type,
		ActionText:     e.model.ActionText(pick.Type, pick.Representative, improved),
		BenefitMinutes: aggregate.ScaleForPeriod(pick.Scaling, benefit, period),
		Period:         period,
		CurrentImpact:  model.NewImpactValue(pick.PeriodMinutes(period)),
	}, tier, true
}

// Select applies the tiered priority policy. Within a tier, ties go to the
// earlier type in canonical order.
func Select(contributions []aggregate.Contribution) (aggregate.Contribution, Tier, bool) {
	ordered := append([]aggregate.Contribution(nil), contributions...)
	sort.SliceStable(ordered, func(i, j int) bool {
		oi, oj := ordered[i].Type.Order(), ordered[j].Type.Order()
		if oi != oj {
			return oi < oj
		}
		return ordered[i].Type < ordered[j].Type
	})

	var (
		worst, weakest, neutral          aggregate.Contribution
		hasWorst, hasWeakest, hasNeutral bool
	)
	for _, c := range ordered {
		switch d := c.DailyMinutes; {
		case d < 0:
			if !hasWorst || d < worst.DailyMinutes {
				worst, hasWorst = c, true
			}
		case d > 0:
			if !hasWeakest || d < weakest.DailyMinutes {
				weakest, hasWeakest = c, true
			}
		default:
			if !hasNeutral {
				neutral, hasNeutral = c, true
			}
		}
	}

	switch {
	case hasWorst:
		return worst, TierWorstNegative, true
	case hasWeakest:
		return weakest, TierWeakestPositive, true
	case hasNeutral:
		return neutral, TierDiscovery, true
	}
	return aggregate.Contribution{}, TierNone, false
}

// unscored returns neutral candidates for metric types present in metrics
// that produced no contribution: types the table does not know, and known
// types whose readings are all non-finite. They can still surface as
// discovery prompts.
func (e *Engine) unscored(metrics []model.HealthMetric, scored []aggregate.Contribution) []aggregate.Contribution {
	seen := make(map[model.MetricType]bool, len(scored))
	for _, c := range scored {
		seen[c.Type] = true
	}
	var out []aggregate.Contribution
	for _, m := range metrics {
		if seen[m.Type] || m.Type == "" {
			continue
		}
		seen[m.Type] = true
		c := aggregate.Contribution{Type: m.Type, Scaling: impact.ScalingState, Readings: 1}
		if p, ok := e.model.Table().Lookup(m.Type); ok {
			c.Scaling = p.Scaling
			c.Representative = p.NeutralValue
		}
		out = append(out, c)
	}
	return out
}

// simulate returns the daily benefit of the counterfactual reading and the
// improved value it was computed at.
func (e *Engine) simulate(c aggregate.Contribution) (float64, float64) {
	improved, ok := e.model.Improve(c.Type, c.Representative)
	if !ok {
		return GenericBenefitMinutes, c.Representative
	}
	benefit := e.model.Evaluate(c.Type, improved) - c.DailyMinutes
	if benefit < MinBenefitMinutes {
		benefit = MinBenefitMinutes
	}
	return benefit, improved
}

// Simulate exposes the counterfactual for a single reading, floored the same
// way as recommendations.
func (e *Engine) Simulate(metric model.HealthMetric) (benefitMinutes, improvedValue float64) {
	if _, ok := e.model.Table().Lookup(metric.Type); !ok {
		return GenericBenefitMinutes, metric.Value
	}
	v := e.model.Clamp(metric.Type, metric.Value)
	return e.simulate(aggregate.Contribution{
		Type:           metric.Type,
		Scaling:        e.model.Table().Classify(metric.Type),
		Representative: v,
		DailyMinutes:   e.model.Evaluate(metric.Type, v),
	})
}

var _ Improver = (*impact.Model)(nil)

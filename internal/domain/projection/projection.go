// Package projection turns a sustained daily impact into an adjusted life
// expectancy with a confidence band.
package projection

import (
	"math"
	"time"

	"github.com/amped/longevity/internal/domain/model"
)

// Unit conversion and confidence calibration constants.
const (
	MinutesPerYear = 365 * 24 * 60

	minConfidence     = 0.4
	maxConfidence     = 0.95
	defaultConfidence = 0.5

	// Coverage targets at which the corresponding weight saturates.
	targetMetricTypes = 8
	targetHistoryDays = 90
	metricWeight      = 0.6
	historyWeight     = 0.4

	minIntervalYears  = 1.0
	intervalSpanYears = 10.0
)

// Baseliner supplies the demographic baseline.
type Baseliner interface {
	BaselineFor(profile model.UserProfile, now time.Time) float64
}

// Option applies a configuration option to the Projector.
type Option func(*Projector)

// WithClock overrides the time source used for age and calculation date.
func WithClock(now func() time.Time) Option {
	return func(p *Projector) {
		if now != nil {
			p.now = now
		}
	}
}

// Projector computes LifeProjections.
type Projector struct {
	baseline Baseliner
	now      func() time.Time
}

// New creates a projector over the given baseline source.
func New(b Baseliner, opts ...Option) *Projector {
	p := &Projector{baseline: b, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Project integrates dailyMinutes over the profile's remaining baseline years.
// A nil completeness yields the conservative default confidence band.
func (p *Projector) Project(profile model.UserProfile, dailyMinutes float64, completeness *model.Completeness) model.LifeProjection {
	now := p.now()
	base := p.baseline.BaselineFor(profile, now)
	age := profile.Age(now)

	if math.IsNaN(dailyMinutes) || math.IsInf(dailyMinutes, 0) {
		dailyMinutes = 0
	}
	remaining := math.Max(base-float64(age), 0)
	lifetimeYears := dailyMinutes * model.DaysPerYear * remaining / MinutesPerYear
	adjusted := math.Max(0, base+lifetimeYears)

	confidence := Confidence(completeness)
	return model.LifeProjection{
		BaselineLifeExpectancyYears: base,
		AdjustedLifeExpectancyYears: adjusted,
		CurrentAge:                  age,
		ConfidencePercentage:        confidence,
		ConfidenceIntervalYears:     IntervalYears(confidence),
		CalculationDate:             now,
	}
}

// Confidence grows with the number of tracked metric types and the depth of
// history, bounded to [minConfidence, maxConfidence].
func Confidence(c *model.Completeness) float64 {
	if c == nil {
		return defaultConfidence
	}
	metrics := coverage(c.TrackedMetricTypes, targetMetricTypes)
	history := coverage(c.HistoryDays, targetHistoryDays)
	score := metricWeight*metrics + historyWeight*history
	return minConfidence + (maxConfidence-minConfidence)*score
}

// IntervalYears widens as confidence falls.
func IntervalYears(confidence float64) float64 {
	confidence = math.Max(0, math.Min(1, confidence))
	return minIntervalYears + intervalSpanYears*(1-confidence)
}

func coverage(n, target int) float64 {
	if n <= 0 {
		return 0
	}
	return math.Min(float64(n)/float64(target), 1)
}

// Package baseline selects a demographic baseline life expectancy.
package baseline

import (
	"math"
	"sort"
	"time"

	"github.com/amped/longevity/internal/domain/model"
)

// DefaultLifeExpectancyYears is the population average used when age or
// gender is unknown.
const DefaultLifeExpectancyYears = 78.0

// yearsPastLastAnchor keeps the baseline ahead of very old users.
const yearsPastLastAnchor = 2.0

// anchor is total life expectancy (age + remaining years) at a given age.
type anchor struct {
	age   float64
	years float64
}

// Period life table anchors by gender.
var (
	maleAnchors = []anchor{
		{0, 76.1}, {20, 77.0}, {30, 77.6}, {40, 78.3}, {50, 79.3},
		{60, 81.3}, {70, 84.5}, {80, 88.6}, {90, 94.1},
	}
	femaleAnchors = []anchor{
		{0, 81.1}, {20, 81.8}, {30, 82.1}, {40, 82.6}, {50, 83.4},
		{60, 84.9}, {70, 87.2}, {80, 90.3}, {90, 95.0},
	}
)

// Option applies a configuration option to the Adjuster.
type Option func(*Adjuster)

// WithDefaultYears sets the fallback baseline for incomplete profiles.
func WithDefaultYears(years float64) Option {
	return func(a *Adjuster) {
		if years > 0 && !math.IsInf(years, 0) {
			a.defaultYears = years
		}
	}
}

// Adjuster looks up baselines. It is a pure lookup and safe for concurrent use.
type Adjuster struct {
	defaultYears float64
}

// NewAdjuster creates an adjuster with the population default.
func NewAdjuster(opts ...Option) *Adjuster {
	a := &Adjuster{defaultYears: DefaultLifeExpectancyYears}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// DefaultYears is the fallback baseline.
func (a *Adjuster) DefaultYears() float64 {
	return a.defaultYears
}

// BaselineFor returns the expected total lifespan in years for profile at now.
// Missing age or gender falls back to the default.
func (a *Adjuster) BaselineFor(profile model.UserProfile, now time.Time) float64 {
	gender := model.ParseGender(string(profile.Gender))
	if !profile.HasAge(now) || gender == "" {
		return a.defaultYears
	}
	age := float64(profile.Age(now))

	switch gender {
	case model.GenderMale:
		return interpolate(maleAnchors, age)
	case model.GenderFemale:
		return interpolate(femaleAnchors, age)
	default:
		return (interpolate(maleAnchors, age) + interpolate(femaleAnchors, age)) / 2
	}
}

// interpolate linearly between the anchors surrounding age.
func interpolate(anchors []anchor, age float64) float64 {
	last := anchors[len(anchors)-1]
	if age >= last.age {
		return math.Max(last.years, age+yearsPastLastAnchor)
	}
	if age <= anchors[0].age {
		return anchors[0].years
	}
	i := sort.Search(len(anchors), func(i int) bool { return anchors[i].age > age })
	lo, hi := anchors[i-1], anchors[i]
	frac := (age - lo.age) / (hi.age - lo.age)
	return lo.years + frac*(hi.years-lo.years)
}

package impact

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/amped/longevity/internal/domain/model"
)

// Response selects the shape of a dose–response curve.
type Response int

const (
	// ResponseContinuous is a clamped linear deviation from the neutral value.
	ResponseContinuous Response = iota
	// ResponseThreshold is a piecewise curve with a fixed penalty above a threshold.
	ResponseThreshold
)

// Scaling tells the aggregator how a metric's impact extends over a period.
type Scaling int

const (
	// ScalingState metrics describe a condition. Their period impact is the
	// impact evaluated at the period's representative state.
	ScalingState Scaling = iota
	// ScalingRate metrics compound daily and may be multiplied by the day count.
	ScalingRate
)

func (s Scaling) String() string {
	if s == ScalingRate {
		return "rate"
	}
	return "state"
}

// ImprovementRule selects how a realistic improved reading is synthesized.
type ImprovementRule int

const (
	// RuleProportional nudges the value by Rate in the better direction.
	RuleProportional ImprovementRule = iota
	// RuleStep adds Delta below Pivot and DeltaAbove at or above it.
	RuleStep
	// RuleDeficit closes the gap to Target by at most MaxStep, capped at Ceiling.
	RuleDeficit
	// RuleReduce lowers the value by (value-Pivot)*Rate bounded to [MinStep, MaxStep].
	RuleReduce
	// RuleQuit snaps the value to the profile's QuitValue.
	RuleQuit
)

// Improvement parameterizes the counterfactual used by recommendations.
type Improvement struct {
	Rule       ImprovementRule
	Pivot      float64
	Delta      float64
	DeltaAbove float64
	Target     float64
	MinStep    float64
	MaxStep    float64
	Rate       float64
	Ceiling    float64
}

// Profile is the calibrated dose–response record for one metric type.
type Profile struct {
	Type           model.MetricType
	Unit           string
	DomainMin      float64
	DomainMax      float64
	NeutralValue   float64
	Coefficient    float64 // lifespan minutes per unit of deviation
	MinImpact      float64
	MaxImpact      float64
	HigherIsBetter bool
	Response       Response
	Scaling        Scaling

	// Threshold response only.
	Threshold      float64
	QuitValue      float64
	PenaltyMinutes float64

	Improvement  Improvement
	ActionFormat string // may contain one %s verb for the formatted change
	Decimals     int
}

// Clamp bounds v to the profile's value domain.
func (p Profile) Clamp(v float64) float64 {
	return math.Max(p.DomainMin, math.Min(p.DomainMax, v))
}

// Cap is the largest magnitude a single daily reading may imply.
func (p Profile) Cap() float64 {
	return math.Max(math.Abs(p.MinImpact), math.Abs(p.MaxImpact))
}

func (p Profile) validate() error {
	switch {
	case !(p.DomainMin < p.DomainMax):
		return fmt.Errorf("%w: %s domain [%g, %g]", ErrInvalidProfile, p.Type, p.DomainMin, p.DomainMax)
	case p.MinImpact > 0 || p.MaxImpact < 0:
		return fmt.Errorf("%w: %s caps [%g, %g] must straddle zero", ErrInvalidProfile, p.Type, p.MinImpact, p.MaxImpact)
	case p.Coefficient < 0:
		return fmt.Errorf("%w: %s negative coefficient", ErrInvalidProfile, p.Type)
	case p.NeutralValue < p.DomainMin || p.NeutralValue > p.DomainMax:
		return fmt.Errorf("%w: %s neutral value outside domain", ErrInvalidProfile, p.Type)
	}
	if p.Response == ResponseThreshold {
		if p.QuitValue > p.Threshold {
			return fmt.Errorf("%w: %s quit value above threshold", ErrInvalidProfile, p.Type)
		}
		if p.PenaltyMinutes > 0 || p.PenaltyMinutes < p.MinImpact {
			return fmt.Errorf("%w: %s penalty outside caps", ErrInvalidProfile, p.Type)
		}
	}
	return nil
}

// Override replaces selected calibration inputs of a profile. Nil fields keep
// the default.
type Override struct {
	NeutralValue   *float64
	Coefficient    *float64
	MinImpact      *float64
	MaxImpact      *float64
	Threshold      *float64
	PenaltyMinutes *float64
}

func (o Override) apply(p Profile) Profile {
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.NeutralValue, o.NeutralValue)
	set(&p.Coefficient, o.Coefficient)
	set(&p.MinImpact, o.MinImpact)
	set(&p.MaxImpact, o.MaxImpact)
	set(&p.Threshold, o.Threshold)
	set(&p.PenaltyMinutes, o.PenaltyMinutes)
	return p
}

// Table maps metric types to their profiles. It is immutable once built and
// safe for concurrent use.
type Table struct {
	profiles    map[model.MetricType]Profile
	fingerprint string
}

// tableNamespace scopes calibration fingerprints.
var tableNamespace = uuid.MustParse("5c2e9a47-1b3d-5f80-a6c4-93d7e0b1f258")

// DefaultTable returns the calibrated research defaults.
func DefaultTable() *Table {
	t := &Table{profiles: make(map[model.MetricType]Profile, len(defaultProfiles))}
	for _, p := range defaultProfiles {
		t.profiles[p.Type] = p
	}
	t.fingerprint = t.computeFingerprint()
	return t
}

// NewTable builds a table from the defaults with overrides applied.
func NewTable(overrides map[model.MetricType]Override) (*Table, error) {
	t := DefaultTable()
	for mt, o := range overrides {
		p, ok := t.profiles[mt]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, mt)
		}
		p = o.apply(p)
		if err := p.validate(); err != nil {
			return nil, err
		}
		t.profiles[mt] = p
	}
	t.fingerprint = t.computeFingerprint()
	return t, nil
}

// Fingerprint identifies the calibration. Tables with identical profiles
// share a fingerprint; any coefficient change yields a new one.
func (t *Table) Fingerprint() string {
	return t.fingerprint
}

func (t *Table) computeFingerprint() string {
	var b strings.Builder
	for _, mt := range model.AllMetricTypes {
		if p, ok := t.profiles[mt]; ok {
			fmt.Fprintf(&b, "%+v;", p)
		}
	}
	return uuid.NewSHA1(tableNamespace, []byte(b.String())).String()
}

// Lookup returns the profile for mt.
func (t *Table) Lookup(mt model.MetricType) (Profile, bool) {
	p, ok := t.profiles[mt]
	return p, ok
}

// Classify returns whether mt is rate- or state-based. Unknown types are
// treated as state-based so they are never scaled.
func (t *Table) Classify(mt model.MetricType) Scaling {
	if p, ok := t.profiles[mt]; ok {
		return p.Scaling
	}
	return ScalingState
}

var defaultProfiles = []Profile{
	{
		Type: model.Steps, Unit: "steps", DomainMin: 0, DomainMax: 100_000,
		NeutralValue: 7000, Coefficient: 0.005, MinImpact: -45, MaxImpact: 30,
		HigherIsBetter: true, Scaling: ScalingRate,
		Improvement:  Improvement{Rule: RuleStep, Pivot: 7000, Delta: 3000, DeltaAbove: 2000},
		ActionFormat: "Walk %s more steps each day",
	},
	{
		Type: model.ExerciseMinutes, Unit: "min", DomainMin: 0, DomainMax: 600,
		NeutralValue: 20, Coefficient: 0.5, MinImpact: -15, MaxImpact: 30,
		HigherIsBetter: true, Scaling: ScalingRate,
		Improvement:  Improvement{Rule: RuleStep, Pivot: 30, Delta: 30, DeltaAbove: 150.0 / 7},
		ActionFormat: "Add %s minutes of exercise each day",
	},
	{
		Type: model.SleepHours, Unit: "h", DomainMin: 0, DomainMax: 16,
		NeutralValue: 7, Coefficient: 10, MinImpact: -60, MaxImpact: 10,
		HigherIsBetter: true, Scaling: ScalingRate,
		Improvement:  Improvement{Rule: RuleDeficit, Pivot: 7, Target: 7.5, MaxStep: 1.5, DeltaAbove: 0.5, Ceiling: 9},
		ActionFormat: "Sleep %s more hours each night",
		Decimals:     1,
	},
	{
		Type: model.RestingHeartRate, Unit: "bpm", DomainMin: 30, DomainMax: 220,
		NeutralValue: 65, Coefficient: 1, MinImpact: -30, MaxImpact: 15,
		Scaling:      ScalingState,
		Improvement:  Improvement{Rule: RuleReduce, Pivot: 60, Rate: 0.2, MinStep: 2, MaxStep: 8},
		ActionFormat: "Lower your resting heart rate by %s bpm with regular cardio",
	},
	{
		Type: model.HeartRateVariability, Unit: "ms", DomainMin: 0, DomainMax: 300,
		NeutralValue: 40, Coefficient: 0.25, MinImpact: -10, MaxImpact: 10,
		HigherIsBetter: true, Scaling: ScalingState,
		Improvement:  Improvement{Rule: RuleProportional, Rate: 0.1},
		ActionFormat: "Raise your heart rate variability by %s ms with recovery and breathing work",
	},
	{
		Type: model.BodyMass, Unit: "kg", DomainMin: 20, DomainMax: 350,
		NeutralValue: 75, Coefficient: 0.2, MinImpact: -20, MaxImpact: 5,
		Scaling:      ScalingState,
		Improvement:  Improvement{Rule: RuleProportional, Rate: 0.05},
		ActionFormat: "Reduce your body mass by %s kg",
		Decimals:     1,
	},
	{
		Type: model.NutritionQuality, Unit: "score", DomainMin: 0, DomainMax: 10,
		NeutralValue: 5, Coefficient: 4, MinImpact: -20, MaxImpact: 20,
		HigherIsBetter: true, Scaling: ScalingRate,
		Improvement:  Improvement{Rule: RuleProportional, Rate: 0.1},
		ActionFormat: "Raise your diet quality score by %s points",
		Decimals:     1,
	},
	{
		Type: model.SmokingStatus, Unit: "level", DomainMin: 0, DomainMax: 10,
		NeutralValue: 0, Coefficient: 10, MinImpact: -240, MaxImpact: 0,
		Response: ResponseThreshold, Scaling: ScalingState,
		Threshold: 2, QuitValue: 0, PenaltyMinutes: -240,
		Improvement:  Improvement{Rule: RuleQuit},
		ActionFormat: "Quit smoking",
	},
	{
		Type: model.AlcoholConsumption, Unit: "drinks", DomainMin: 0, DomainMax: 30,
		NeutralValue: 1, Coefficient: 8, MinImpact: -60, MaxImpact: 5,
		Scaling:      ScalingRate,
		Improvement:  Improvement{Rule: RuleProportional, Rate: 0.25},
		ActionFormat: "Drink %s fewer drinks per day",
		Decimals:     1,
	},
	{
		Type: model.SocialConnectionsQuality, Unit: "score", DomainMin: 0, DomainMax: 10,
		NeutralValue: 5, Coefficient: 3, MinImpact: -15, MaxImpact: 15,
		HigherIsBetter: true, Scaling: ScalingState,
		Improvement:  Improvement{Rule: RuleProportional, Rate: 0.1},
		ActionFormat: "Raise your social connection score by %s points",
		Decimals:     1,
	},
	{
		Type: model.StressLevel, Unit: "score", DomainMin: 0, DomainMax: 10,
		NeutralValue: 5, Coefficient: 3, MinImpact: -15, MaxImpact: 15,
		Scaling:      ScalingState,
		Improvement:  Improvement{Rule: RuleProportional, Rate: 0.1},
		ActionFormat: "Lower your stress level by %s points",
		Decimals:     1,
	},
	{
		Type: model.ActiveEnergyBurned, Unit: "kcal", DomainMin: 0, DomainMax: 5000,
		NeutralValue: 400, Coefficient: 0.02, MinImpact: -8, MaxImpact: 12,
		HigherIsBetter: true, Scaling: ScalingRate,
		Improvement:  Improvement{Rule: RuleProportional, Rate: 0.1},
		ActionFormat: "Burn %s more active calories each day",
	},
	{
		Type: model.VO2Max, Unit: "ml/kg/min", DomainMin: 10, DomainMax: 90,
		NeutralValue: 35, Coefficient: 1.5, MinImpact: -30, MaxImpact: 30,
		HigherIsBetter: true, Scaling: ScalingState,
		Improvement:  Improvement{Rule: RuleProportional, Rate: 0.1},
		ActionFormat: "Raise your VO2 max by %s ml/kg/min with interval training",
		Decimals:     1,
	},
	{
		Type: model.OxygenSaturation, Unit: "%", DomainMin: 70, DomainMax: 100,
		NeutralValue: 95, Coefficient: 3, MinImpact: -30, MaxImpact: 3,
		HigherIsBetter: true, Scaling: ScalingState,
		Improvement:  Improvement{Rule: RuleProportional, Rate: 0.02},
		ActionFormat: "Raise your blood oxygen saturation by %s points",
		Decimals:     1,
	},
	{
		Type: model.BloodPressure, Unit: "mmHg", DomainMin: 70, DomainMax: 250,
		NeutralValue: 120, Coefficient: 0.5, MinImpact: -30, MaxImpact: 5,
		Scaling:      ScalingState,
		Improvement:  Improvement{Rule: RuleProportional, Rate: 0.05},
		ActionFormat: "Lower your systolic blood pressure by %s mmHg",
	},
}

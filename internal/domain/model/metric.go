// Package model contains domain models passed between layers.
package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MetricType identifies a tracked health behavior.
type MetricType string

const (
	Steps                    MetricType = "steps"
	ExerciseMinutes          MetricType = "exerciseMinutes"
	SleepHours               MetricType = "sleepHours"
	RestingHeartRate         MetricType = "restingHeartRate"
	HeartRateVariability     MetricType = "heartRateVariability"
	BodyMass                 MetricType = "bodyMass"
	NutritionQuality         MetricType = "nutritionQuality"
	SmokingStatus            MetricType = "smokingStatus"
	AlcoholConsumption       MetricType = "alcoholConsumption"
	SocialConnectionsQuality MetricType = "socialConnectionsQuality"
	StressLevel              MetricType = "stressLevel"
	ActiveEnergyBurned       MetricType = "activeEnergyBurned"
	VO2Max                   MetricType = "vo2Max"
	OxygenSaturation         MetricType = "oxygenSaturation"
	BloodPressure            MetricType = "bloodPressure"
)

// AllMetricTypes lists every metric type in canonical order. Iteration and
// tie-breaks that must be deterministic walk this slice.
var AllMetricTypes = []MetricType{
	Steps,
	ExerciseMinutes,
	SleepHours,
	RestingHeartRate,
	HeartRateVariability,
	BodyMass,
	NutritionQuality,
	SmokingStatus,
	AlcoholConsumption,
	SocialConnectionsQuality,
	StressLevel,
	ActiveEnergyBurned,
	VO2Max,
	OxygenSaturation,
	BloodPressure,
}

// Order returns the canonical position of t, or len(AllMetricTypes) for
// unknown types so they sort last.
func (t MetricType) Order() int {
	for i, mt := range AllMetricTypes {
		if mt == t {
			return i
		}
	}
	return len(AllMetricTypes)
}

// Valid reports whether t is one of the known metric types.
func (t MetricType) Valid() bool {
	return t.Order() < len(AllMetricTypes)
}

// ParseMetricType resolves a metric type name case-insensitively.
func ParseMetricType(s string) (MetricType, bool) {
	s = strings.TrimSpace(s)
	for _, mt := range AllMetricTypes {
		if strings.EqualFold(string(mt), s) {
			return mt, true
		}
	}
	return "", false
}

// Source records where a reading came from.
type Source string

const (
	SourceHealthKit Source = "healthKit"
	SourceUserInput Source = "userInput"
)

// HealthMetric is a single reading supplied by a collaborator.
// Values outside the type's domain are clamped by the impact model.
type HealthMetric struct {
	ID     string     `json:"id" yaml:"id"`
	Type   MetricType `json:"type" yaml:"type"`
	Value  float64    `json:"value" yaml:"value"`
	Date   time.Time  `json:"date" yaml:"date"`
	Source Source     `json:"source,omitempty" yaml:"source"`
}

// metricNamespace scopes content-derived reading IDs.
var metricNamespace = uuid.MustParse("6f1c2b8e-3d4a-5e6f-8a9b-0c1d2e3f4a5b")

// ContentID derives a stable ID from the reading's content so that identical
// readings get identical IDs regardless of arrival order.
func (m HealthMetric) ContentID() string {
	key := string(m.Type) + "|" + strconv.FormatFloat(m.Value, 'g', -1, 64) + "|" +
		m.Date.UTC().Format(time.RFC3339Nano) + "|" + string(m.Source)
	return uuid.NewSHA1(metricNamespace, []byte(key)).String()
}

// WithIDs returns a copy of ms where readings without an ID get ContentID.
func WithIDs(ms []HealthMetric) []HealthMetric {
	out := make([]HealthMetric, len(ms))
	for i, m := range ms {
		if m.ID == "" {
			m.ID = m.ContentID()
		}
		out[i] = m
	}
	return out
}

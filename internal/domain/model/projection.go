package model

import "time"

// LifeProjection is an adjusted life expectancy with its confidence band.
// AdjustedLifeExpectancyYears may fall below CurrentAge but never below 0.
type LifeProjection struct {
	BaselineLifeExpectancyYears float64   `json:"baseline_life_expectancy_years"`
	AdjustedLifeExpectancyYears float64   `json:"adjusted_life_expectancy_years"`
	CurrentAge                  int       `json:"current_age"`
	ConfidencePercentage        float64   `json:"confidence_percentage"`
	ConfidenceIntervalYears     float64   `json:"confidence_interval_years"`
	CalculationDate             time.Time `json:"calculation_date"`
}

// NetImpactYears is adjusted minus baseline.
func (p LifeProjection) NetImpactYears() float64 {
	return p.AdjustedLifeExpectancyYears - p.BaselineLifeExpectancyYears
}

// Completeness describes how much corroborating data backs a projection.
type Completeness struct {
	TrackedMetricTypes int `json:"tracked_metric_types" yaml:"tracked_metric_types"`
	HistoryDays        int `json:"history_days" yaml:"history_days"`
}

// Recommendation is the single behavior change the engine suggests.
type Recommendation struct {
	Metric         MetricType  `json:"metric"`
	ActionText     string      `json:"action_text"`
	BenefitMinutes float64     `json:"benefit_minutes"`
	Period         TimePeriod  `json:"period"`
	CurrentImpact  ImpactValue `json:"current_impact"`
}

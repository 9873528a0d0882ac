package model

import (
	"math"
	"strings"
)

// Direction classifies the sign of an impact.
type Direction string

const (
	DirectionPositive Direction = "positive"
	DirectionNegative Direction = "negative"
	DirectionNeutral  Direction = "neutral"
)

// ImpactValue is an estimated change in life expectancy in minutes.
type ImpactValue struct {
	LifespanImpactMinutes float64   `json:"lifespan_impact_minutes"`
	Direction             Direction `json:"direction"`
}

// NewImpactValue derives the direction from the sign of minutes.
// Non-finite input collapses to neutral.
func NewImpactValue(minutes float64) ImpactValue {
	switch {
	case math.IsNaN(minutes) || math.IsInf(minutes, 0):
		return NeutralImpact()
	case minutes > 0:
		return ImpactValue{LifespanImpactMinutes: minutes, Direction: DirectionPositive}
	case minutes < 0:
		return ImpactValue{LifespanImpactMinutes: minutes, Direction: DirectionNegative}
	default:
		return NeutralImpact()
	}
}

// NeutralImpact is the zero impact.
func NeutralImpact() ImpactValue {
	return ImpactValue{Direction: DirectionNeutral}
}

// TimePeriod is the scope of an aggregated impact.
type TimePeriod string

const (
	PeriodDay   TimePeriod = "day"
	PeriodMonth TimePeriod = "month"
	PeriodYear  TimePeriod = "year"
)

// Days in each period used when scaling rate-based impacts.
const (
	DaysPerDay   = 1.0
	DaysPerMonth = 30.0
	DaysPerYear  = 365.0
)

// Days returns the number of days a period spans. Unknown periods count as a day.
func (p TimePeriod) Days() float64 {
	switch p {
	case PeriodMonth:
		return DaysPerMonth
	case PeriodYear:
		return DaysPerYear
	default:
		return DaysPerDay
	}
}

// ParsePeriod resolves a period name; empty input means day.
func ParsePeriod(s string) (TimePeriod, bool) {
	switch TimePeriod(strings.ToLower(strings.TrimSpace(s))) {
	case "", PeriodDay:
		return PeriodDay, true
	case PeriodMonth:
		return PeriodMonth, true
	case PeriodYear:
		return PeriodYear, true
	}
	return "", false
}

// LifeImpactData is the period-scoped summary of a set of readings.
type LifeImpactData struct {
	TimePeriod          TimePeriod                 `json:"time_period"`
	TotalImpact         ImpactValue                `json:"total_impact"`
	MetricContributions map[MetricType]ImpactValue `json:"metric_contributions"`
}

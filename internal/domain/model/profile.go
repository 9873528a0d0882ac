package model

import (
	"strings"
	"time"
)

// Gender as supplied by the profile collaborator. Empty means absent.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// ParseGender normalizes a gender string; unknown values map to absent.
func ParseGender(s string) Gender {
	switch g := Gender(strings.ToLower(strings.TrimSpace(s))); g {
	case GenderMale, GenderFemale, GenderOther:
		return g
	}
	return ""
}

// UserProfile is the demographic snapshot passed with each calculation.
// BirthYear 0 means the age is unknown.
type UserProfile struct {
	BirthYear int      `json:"birth_year" yaml:"birth_year"`
	Gender    Gender   `json:"gender" yaml:"gender"`
	Height    *float64 `json:"height,omitempty" yaml:"height"`
	Weight    *float64 `json:"weight,omitempty" yaml:"weight"`
}

// HasAge reports whether a usable birth year is present relative to now.
func (p UserProfile) HasAge(now time.Time) bool {
	return p.BirthYear > 0 && p.BirthYear <= now.Year()
}

// Age returns currentYear - birthYear, or 0 when the birth year is unusable.
func (p UserProfile) Age(now time.Time) int {
	if !p.HasAge(now) {
		return 0
	}
	return now.Year() - p.BirthYear
}

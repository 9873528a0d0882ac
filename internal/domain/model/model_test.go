package model_test

import (
	"math"
	"testing"
	"time"

	model "github.com/amped/longevity/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestMetricType(t *testing.T) {
	convey.Convey("Given the metric type enumeration", t, func() {
		convey.Convey("Then every type should be valid and ordered", func() {
			for i, mt := range model.AllMetricTypes {
				convey.So(mt.Valid(), convey.ShouldBeTrue)
				convey.So(mt.Order(), convey.ShouldEqual, i)
			}
			convey.So(len(model.AllMetricTypes), convey.ShouldEqual, 15)
		})

		convey.Convey("When parsing names", func() {
			mt, ok := model.ParseMetricType("RestingHeartRate")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(mt, convey.ShouldEqual, model.RestingHeartRate)

			_, ok = model.ParseMetricType("bloodSugar")
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("Then unknown types should sort last", func() {
			convey.So(model.MetricType("bloodSugar").Order(), convey.ShouldEqual, len(model.AllMetricTypes))
			convey.So(model.MetricType("bloodSugar").Valid(), convey.ShouldBeFalse)
		})
	})
}

func TestHealthMetric_IDs(t *testing.T) {
	convey.Convey("Given readings without IDs", t, func() {
		day := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
		a := model.HealthMetric{Type: model.Steps, Value: 4000, Date: day}
		b := model.HealthMetric{Type: model.Steps, Value: 4001, Date: day}
		named := model.HealthMetric{ID: "keep", Type: model.Steps, Value: 1}

		convey.Convey("Then content IDs should be stable and distinct", func() {
			convey.So(a.ContentID(), convey.ShouldEqual, a.ContentID())
			convey.So(a.ContentID(), convey.ShouldNotEqual, b.ContentID())
			convey.So(a.ContentID(), convey.ShouldHaveLength, 36)
		})

		convey.Convey("When assigning IDs", func() {
			in := []model.HealthMetric{a, named}
			out := model.WithIDs(in)

			convey.So(out[0].ID, convey.ShouldEqual, a.ContentID())
			convey.So(out[1].ID, convey.ShouldEqual, "keep")
			convey.So(in[0].ID, convey.ShouldBeEmpty)
		})
	})
}

func TestImpactValue(t *testing.T) {
	convey.Convey("Given raw minutes", t, func() {
		convey.So(model.NewImpactValue(12.5).Direction, convey.ShouldEqual, model.DirectionPositive)
		convey.So(model.NewImpactValue(-3).Direction, convey.ShouldEqual, model.DirectionNegative)
		convey.So(model.NewImpactValue(0).Direction, convey.ShouldEqual, model.DirectionNeutral)

		convey.Convey("Then non-finite minutes should collapse to neutral", func() {
			convey.So(model.NewImpactValue(math.NaN()), convey.ShouldResemble, model.NeutralImpact())
			convey.So(model.NewImpactValue(math.Inf(-1)), convey.ShouldResemble, model.NeutralImpact())
		})
	})
}

func TestTimePeriod(t *testing.T) {
	convey.Convey("Given the time periods", t, func() {
		convey.So(model.PeriodDay.Days(), convey.ShouldEqual, 1)
		convey.So(model.PeriodMonth.Days(), convey.ShouldEqual, 30)
		convey.So(model.PeriodYear.Days(), convey.ShouldEqual, 365)
		convey.So(model.TimePeriod("fortnight").Days(), convey.ShouldEqual, 1)

		p, ok := model.ParsePeriod("")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(p, convey.ShouldEqual, model.PeriodDay)

		p, ok = model.ParsePeriod(" Year ")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(p, convey.ShouldEqual, model.PeriodYear)

		_, ok = model.ParsePeriod("decade")
		convey.So(ok, convey.ShouldBeFalse)
	})
}

func TestUserProfile(t *testing.T) {
	convey.Convey("Given a user profile", t, func() {
		now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

		convey.Convey("When the birth year is known", func() {
			p := model.UserProfile{BirthYear: 1986, Gender: model.GenderFemale}
			convey.So(p.HasAge(now), convey.ShouldBeTrue)
			convey.So(p.Age(now), convey.ShouldEqual, 40)
		})

		convey.Convey("When the birth year is missing or in the future", func() {
			convey.So(model.UserProfile{}.Age(now), convey.ShouldEqual, 0)
			convey.So(model.UserProfile{BirthYear: 2030}.HasAge(now), convey.ShouldBeFalse)
		})

		convey.Convey("Then gender parsing should drop unknown values", func() {
			convey.So(model.ParseGender(" Male"), convey.ShouldEqual, model.GenderMale)
			convey.So(model.ParseGender("unknown"), convey.ShouldEqual, model.Gender(""))
		})
	})
}

func TestLifeProjection(t *testing.T) {
	convey.Convey("Given a projection", t, func() {
		p := model.LifeProjection{BaselineLifeExpectancyYears: 80, AdjustedLifeExpectancyYears: 77.5}
		convey.So(p.NetImpactYears(), convey.ShouldAlmostEqual, -2.5)
	})
}
